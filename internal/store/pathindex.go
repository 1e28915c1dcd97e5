// Package store provides the leaf path index and the persistent override store.
package store

import (
	"sort"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// PathIndex is a thread-safe set of leaf paths backed by a Bloom filter for
// fast negative answers.
type PathIndex struct {
	paths                  map[string]struct{}
	bloom                  *bloom.BloomFilter
	mutex                  sync.RWMutex
	expectedPaths          uint
	bloomFalsePositiveRate float64
}

// NewPathIndex creates an index sized for expectedPaths with the given false
// positive rate.
func NewPathIndex(expectedPaths uint, bloomFalsePositiveRate float64) *PathIndex {
	if expectedPaths == 0 {
		expectedPaths = 1
	}
	return &PathIndex{
		paths:                  make(map[string]struct{}),
		bloom:                  bloom.NewWithEstimates(expectedPaths, bloomFalsePositiveRate),
		expectedPaths:          expectedPaths,
		bloomFalsePositiveRate: bloomFalsePositiveRate,
	}
}

// Has checks if path is a known leaf path.
func (pi *PathIndex) Has(path string) bool {
	pi.mutex.RLock()
	defer pi.mutex.RUnlock()

	if !pi.bloom.TestString(path) {
		return false
	}

	_, exists := pi.paths[path]
	return exists
}

// Load clears the index and loads the provided paths.
func (pi *PathIndex) Load(paths []string) {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	pi.paths = make(map[string]struct{}, len(paths))
	pi.bloom = bloom.NewWithEstimates(pi.expectedPaths, pi.bloomFalsePositiveRate)

	for _, path := range paths {
		if path != "" {
			pi.paths[path] = struct{}{}
			pi.bloom.AddString(path)
		}
	}
}

// Unknown returns the keys that are not indexed, sorted.
func (pi *PathIndex) Unknown(keys []string) []string {
	var unknown []string
	for _, key := range keys {
		if !pi.Has(key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Size returns the number of paths currently indexed.
func (pi *PathIndex) Size() int {
	pi.mutex.RLock()
	defer pi.mutex.RUnlock()
	return len(pi.paths)
}
