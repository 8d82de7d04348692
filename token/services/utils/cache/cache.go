/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cache

import (
	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultNumCounters = 1e5
	defaultBufferItems = 64
	// DefaultSize is the number of entries kept by New when no size is given
	DefaultSize = 1e4
)

// Cache holds values that never change once loaded
type Cache[T any] interface {
	Get(key string) (T, bool)
	GetOrLoad(key string, loader func() (T, error)) (T, bool, error)
	Clear()
}

type ristrettoCache[T any] struct {
	cache *ristretto.Cache[string, T]
	sfg   singleflight.Group
}

// New returns a ristretto cache bounded to size entries.
// Concurrent loads of the same key are collapsed into a single loader call.
func New[T any](size int64) (Cache[T], error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, T]{
		NumCounters: defaultNumCounters,
		MaxCost:     size,
		BufferItems: defaultBufferItems,
		Cost:        func(T) int64 { return 1 },
	})
	if err != nil {
		return nil, err
	}
	return &ristrettoCache[T]{cache: c}, nil
}

func (c *ristrettoCache[T]) Get(key string) (T, bool) {
	return c.cache.Get(key)
}

func (c *ristrettoCache[T]) GetOrLoad(key string, loader func() (T, error)) (T, bool, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, true, nil
	}
	res, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		v, err := loader()
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, v, 0)
		c.cache.Wait()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res.(T), false, nil
}

func (c *ristrettoCache[T]) Clear() {
	c.cache.Clear()
	c.cache.Wait()
}

// NoCache loads on every call
type NoCache[T any] struct{}

func (NoCache[T]) Get(string) (T, bool) {
	var zero T
	return zero, false
}

func (NoCache[T]) GetOrLoad(_ string, loader func() (T, error)) (T, bool, error) {
	v, err := loader()
	return v, false, err
}

func (NoCache[T]) Clear() {}
