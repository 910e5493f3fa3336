package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// ErrHostClosed is reported to callbacks submitted after Close.
var ErrHostClosed = errors.New("host storage closed")

const hostQueueSize = 64

// BadgerHost is a HostStore backed by badger. Requests run one at a time on
// a worker goroutine in submission order, so a write followed by a read of the
// same key always observes the write.
type BadgerHost struct {
	db   *badger.DB
	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// OpenBadgerHost opens host storage in dir. An empty dir keeps everything in memory.
func OpenBadgerHost(dir string) (*BadgerHost, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open host storage: %w", err)
	}

	h := &BadgerHost{
		db:   db,
		jobs: make(chan func(), hostQueueSize),
	}
	h.wg.Add(1)
	go h.run()
	return h, nil
}

func (h *BadgerHost) run() {
	defer h.wg.Done()
	for job := range h.jobs {
		job()
	}
}

func (h *BadgerHost) submit(job func(), fail func(error)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		if fail != nil {
			fail(ErrHostClosed)
		}
		return
	}
	h.jobs <- job
}

// GetStorage reads the value stored under opts.Key.
func (h *BadgerHost) GetStorage(opts GetOptions) {
	h.submit(func() {
		var raw []byte
		err := h.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(opts.Key))
			if err != nil {
				return err
			}
			raw, err = item.ValueCopy(nil)
			return err
		})
		if errors.Is(err, badger.ErrKeyNotFound) {
			err = ErrKeyNotFound
		}
		if err != nil {
			if opts.Fail != nil {
				opts.Fail(err)
			}
			return
		}

		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			if opts.Fail != nil {
				opts.Fail(fmt.Errorf("decode %s: %w: %v", opts.Key, ErrMalformedValue, err))
			}
			return
		}
		if opts.Success != nil {
			opts.Success(data)
		}
	}, opts.Fail)
}

// SetStorage stores opts.Data under opts.Key.
func (h *BadgerHost) SetStorage(opts SetOptions) {
	h.submit(func() {
		raw, err := json.Marshal(opts.Data)
		if err == nil {
			err = h.db.Update(func(txn *badger.Txn) error {
				return txn.Set([]byte(opts.Key), raw)
			})
		}
		if err != nil {
			if opts.Fail != nil {
				opts.Fail(err)
			}
			return
		}
		if opts.Success != nil {
			opts.Success()
		}
	}, opts.Fail)
}

// Close drains queued requests and closes the database.
func (h *BadgerHost) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.jobs)
	h.mu.Unlock()

	h.wg.Wait()
	return h.db.Close()
}
