package engine

import (
	"sync"
	"sync/atomic"
)

// LoadFunc produces the store. LoadColumnar bound to a path is the usual one.
type LoadFunc func() (*ColumnStore, error)

// Dataset is the process-wide, load-once handle to the sales table.
// Callers only ever get the read-only *ColumnStore.
type Dataset struct {
	load  LoadFunc
	once  sync.Once
	store atomic.Pointer[ColumnStore]
	err   error
}

func NewDataset(load LoadFunc) *Dataset {
	return &Dataset{load: load}
}

// FileDataset loads from a CSV file on first use.
func FileDataset(path string) *Dataset {
	return NewDataset(func() (*ColumnStore, error) { return LoadColumnar(path) })
}

// Load runs the loader at most once and returns the memoized outcome.
func (d *Dataset) Load() (*ColumnStore, error) {
	d.once.Do(func() {
		store, err := d.load()
		if err != nil {
			d.err = err
			return
		}
		d.store.Store(store)
	})
	return d.store.Load(), d.err
}

// Store returns the loaded table without blocking; ok is false until Load
// has finished successfully.
func (d *Dataset) Store() (*ColumnStore, bool) {
	s := d.store.Load()
	return s, s != nil
}
