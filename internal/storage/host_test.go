package storage

import (
	"testing"
	"time"
)

func setupTestHost(t *testing.T) *BadgerHost {
	h, err := OpenBadgerHost("")
	if err != nil {
		t.Fatalf("Failed to open host storage: %v", err)
	}
	return h
}

func hostGet(t *testing.T, h *BadgerHost, key string) (any, error) {
	t.Helper()
	type result struct {
		data any
		err  error
	}
	done := make(chan result, 1)
	h.GetStorage(GetOptions{
		Key:     key,
		Success: func(data any) { done <- result{data: data} },
		Fail:    func(err error) { done <- result{err: err} },
	})
	select {
	case r := <-done:
		return r.data, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for host callback")
		return nil, nil
	}
}

func TestHostSetThenGet(t *testing.T) {
	h := setupTestHost(t)
	defer h.Close()

	h.SetStorage(SetOptions{Key: "clickStats", Data: map[string]any{"cicd": map[string]any{"count": 2}}})

	// Requests are served in order, so the read sees the write.
	data, err := hostGet(t, h, "clickStats")
	if err != nil {
		t.Fatalf("GetStorage failed: %v", err)
	}
	stats, ok := data.(map[string]any)
	if !ok {
		t.Fatalf("Expected structured value, got %T", data)
	}
	entry := stats["cicd"].(map[string]any)
	if entry["count"] != float64(2) {
		t.Errorf("Expected count 2, got %v", entry["count"])
	}
}

func TestHostGetMissing(t *testing.T) {
	h := setupTestHost(t)
	defer h.Close()

	_, err := hostGet(t, h, "missing")
	if err != ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestHostClosed(t *testing.T) {
	h := setupTestHost(t)
	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}

	var got error
	h.SetStorage(SetOptions{Key: "k", Data: 1, Fail: func(err error) { got = err }})
	if got != ErrHostClosed {
		t.Errorf("Expected ErrHostClosed, got %v", got)
	}
}
