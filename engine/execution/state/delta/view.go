package delta

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// readCacheSize bounds the per-view cache of values read from the underlying
// data source.
const readCacheSize = 1 << 14

// GetFunc is a function that returns the value for a state key, or nil if the
// key is not set.
type GetFunc func(key string) ([]byte, error)

// A View is a read-only view into ledger state stored in an underlying data
// source, recording writes to a delta that can be used to update the source.
//
// Values read through the view are kept in a bounded LRU cache, so repeated
// reads of hot keys during chunk execution do not hit the data source again.
type View struct {
	delta      Delta
	readCache  *lru.Cache
	readsCount uint64
	readFunc   GetFunc
}

// AlwaysEmptyGetFunc reads every key as unset.
func AlwaysEmptyGetFunc(key string) ([]byte, error) {
	return nil, nil
}

// NewView instantiates a new state view with the provided read function.
func NewView(readFunc GetFunc) *View {
	cache, err := lru.New(readCacheSize)
	if err != nil {
		// lru.New only fails on non-positive size
		panic(fmt.Sprintf("could not create view read cache: %v", err))
	}
	return &View{
		delta:     NewDelta(),
		readCache: cache,
		readFunc:  readFunc,
	}
}

// NewChild generates a new child view with the current view as its base.
func (v *View) NewChild() *View {
	return NewView(v.Peek)
}

// Get gets a value from this view, consulting the local delta first, then the
// read cache, then the underlying data source.
func (v *View) Get(key string) ([]byte, error) {
	value, exists := v.delta.Get(key)
	if exists {
		return value, nil
	}

	if cached, ok := v.readCache.Get(key); ok {
		value, _ = cached.([]byte)
		return value, nil
	}

	value, err := v.readFunc(key)
	if err != nil {
		return nil, fmt.Errorf("could not read state key %q: %w", key, err)
	}
	v.readsCount++
	v.readCache.Add(key, value)
	return value, nil
}

// Peek reads the value for the given key without recording the read.
func (v *View) Peek(key string) ([]byte, error) {
	value, exists := v.delta.Get(key)
	if exists {
		return value, nil
	}
	return v.readFunc(key)
}

// Set records an update in this view.
func (v *View) Set(key string, value []byte) {
	v.delta.Set(key, value)
}

// Delete records a deletion in this view.
func (v *View) Delete(key string) {
	v.delta.Delete(key)
}

// Delta returns the write delta recorded by this view.
func (v *View) Delta() Delta {
	return v.delta
}

// ReadsCount returns the number of reads served by the underlying data
// source.
func (v *View) ReadsCount() uint64 {
	return v.readsCount
}
