package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/bunchhieng/linkdir/internal/logging"
	"github.com/go-viper/mapstructure/v2"
)

// Adapter gives uniform, best-effort get/set over whichever backend was
// probed. Reads report absence instead of failing and writes never return
// errors; every failure is logged.
type Adapter struct {
	host HostStore
	text TextStore
	log  *slog.Logger
}

// NewAdapter creates an adapter over the probed backends.
func NewAdapter(b Backends) *Adapter {
	return &Adapter{
		host: b.Host,
		text: b.Text,
		log:  logging.Component("storage").With("backend", b.Name()),
	}
}

// Get decodes the value stored under key into out. It returns false when the
// key is missing, the backend fails, or the stored value cannot be decoded.
func (a *Adapter) Get(key string, out any) bool {
	return a.GetContext(context.Background(), key, out)
}

// GetContext is Get that gives up when ctx is done.
func (a *Adapter) GetContext(ctx context.Context, key string, out any) bool {
	found, _ := a.Lookup(ctx, key, out)
	return found
}

// Lookup is GetContext that also reports backend failures. A missing key or
// a malformed value yields (false, nil); a failed or abandoned read yields
// (false, err). Callers that rewrite the whole value must not write after an
// error, or they would replace data they never saw.
func (a *Adapter) Lookup(ctx context.Context, key string, out any) (bool, error) {
	switch {
	case a.host != nil:
		return a.getHost(ctx, key, out)
	case a.text != nil:
		return a.getText(ctx, key, out)
	default:
		return false, nil
	}
}

// Set stores value under key. On a host backend the write is only submitted;
// completion is logged if it fails.
func (a *Adapter) Set(key string, value any) {
	switch {
	case a.host != nil:
		a.host.SetStorage(SetOptions{
			Key:     key,
			Data:    value,
			Success: func() {},
			Fail: func(err error) {
				a.log.Warn("host set failed", "key", key, "error", err)
			},
		})
	case a.text != nil:
		a.setText(context.Background(), key, value)
	}
}

// SetContext stores value under key and waits for the backend to finish or
// for ctx to be done.
func (a *Adapter) SetContext(ctx context.Context, key string, value any) {
	switch {
	case a.host != nil:
		done := make(chan error, 1)
		a.host.SetStorage(SetOptions{
			Key:     key,
			Data:    value,
			Success: func() { done <- nil },
			Fail:    func(err error) { done <- err },
		})
		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("host set failed", "key", key, "error", err)
			}
		case <-ctx.Done():
			a.log.Warn("host set abandoned", "key", key, "error", ctx.Err())
		}
	case a.text != nil:
		a.setText(ctx, key, value)
	}
}

type hostResult struct {
	data any
	err  error
}

func (a *Adapter) getHost(ctx context.Context, key string, out any) (bool, error) {
	done := make(chan hostResult, 1)
	a.host.GetStorage(GetOptions{
		Key:     key,
		Success: func(data any) { done <- hostResult{data: data} },
		Fail:    func(err error) { done <- hostResult{err: err} },
	})

	var res hostResult
	select {
	case res = <-done:
	case <-ctx.Done():
		a.log.Warn("host get abandoned", "key", key, "error", ctx.Err())
		return false, ctx.Err()
	}

	if errors.Is(res.err, ErrKeyNotFound) {
		return false, nil
	}
	if errors.Is(res.err, ErrMalformedValue) {
		a.log.Warn("discarding malformed host value", "key", key, "error", res.err)
		return false, nil
	}
	if res.err != nil {
		a.log.Warn("host get failed", "key", key, "error", res.err)
		return false, res.err
	}
	if res.data == nil {
		return false, nil
	}
	if err := decodeStructured(res.data, out); err != nil {
		a.log.Warn("discarding malformed host value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (a *Adapter) getText(ctx context.Context, key string, out any) (bool, error) {
	raw, err := a.text.GetItem(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		a.log.Warn("text get failed", "key", key, "error", err)
		return false, err
	}
	if raw == "" || raw == "null" {
		return false, nil
	}

	// Decode into a scratch value so a malformed blob leaves out untouched.
	rv, target, err := scratchFor(out)
	if err != nil {
		a.log.Error("bad decode target", "key", key, "error", err)
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), target.Interface()); err != nil {
		a.log.Warn("discarding malformed stored value", "key", key, "error", err)
		return false, nil
	}
	rv.Elem().Set(target.Elem())
	return true, nil
}

func (a *Adapter) setText(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		a.log.Warn("encode value failed", "key", key, "error", err)
		return
	}
	if err := a.text.SetItem(ctx, key, string(data)); err != nil {
		a.log.Warn("text set failed", "key", key, "error", err)
	}
}

func scratchFor(out any) (reflect.Value, reflect.Value, error) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return rv, reflect.Value{}, fmt.Errorf("decode target must be a non-nil pointer, got %T", out)
	}
	return rv, reflect.New(rv.Elem().Type()), nil
}

func decodeStructured(data, out any) error {
	rv, target, err := scratchFor(out)
	if err != nil {
		return err
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return err
	}
	rv.Elem().Set(target.Elem())
	return nil
}
