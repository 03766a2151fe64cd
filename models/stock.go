package models

import (
	"sort"
	"strings"
)

// Conventional bucket names. Any variant id is also a valid bucket.
const (
	BucketDefault = "default"
	BucketShared  = "shared"
)

// Stock maps a bucket name to its redeemable keys in FIFO consumption order.
// A key appears in at most one bucket of a product.
type Stock map[string][]string

// StockAddResult reports the outcome of adding keys to a bucket
type StockAddResult struct {
	Bucket           string `json:"bucket"`
	Inserted         int    `json:"inserted"`
	SkippedInBucket  int    `json:"skippedInBucket"`
	SkippedElsewhere int    `json:"skippedElsewhere"`
	BucketSize       int    `json:"bucketSize"`
}

// Skipped is the total number of keys that were not inserted
func (r StockAddResult) Skipped() int {
	return r.SkippedInBucket + r.SkippedElsewhere
}

// Add appends keys to the bucket, skipping blanks, keys already in the bucket
// and keys held by any other bucket. Uniqueness is derived by scanning every
// bucket, so no separate index has to be kept in sync.
func (s Stock) Add(bucket string, keys []string) StockAddResult {
	inBucket := make(map[string]struct{}, len(s[bucket]))
	for _, k := range s[bucket] {
		inBucket[k] = struct{}{}
	}
	elsewhere := make(map[string]struct{})
	for name, list := range s {
		if name == bucket {
			continue
		}
		for _, k := range list {
			elsewhere[k] = struct{}{}
		}
	}

	result := StockAddResult{Bucket: bucket}
	for _, raw := range keys {
		key := strings.TrimSpace(raw)
		if key == "" {
			continue
		}
		if _, ok := inBucket[key]; ok {
			result.SkippedInBucket++
			continue
		}
		if _, ok := elsewhere[key]; ok {
			result.SkippedElsewhere++
			continue
		}
		s[bucket] = append(s[bucket], key)
		inBucket[key] = struct{}{}
		result.Inserted++
	}
	result.BucketSize = len(s[bucket])
	return result
}

// Clear empties one bucket and returns how many keys it held
func (s Stock) Clear(bucket string) int {
	n := len(s[bucket])
	if _, ok := s[bucket]; ok {
		s[bucket] = []string{}
	}
	return n
}

// Pop removes and returns the oldest key of the bucket
func (s Stock) Pop(bucket string) (string, bool) {
	list := s[bucket]
	if len(list) == 0 {
		return "", false
	}
	key := list[0]
	s[bucket] = append([]string{}, list[1:]...)
	return key, true
}

// BucketOf returns the bucket currently holding key
func (s Stock) BucketOf(key string) (string, bool) {
	for name, list := range s {
		for _, k := range list {
			if k == key {
				return name, true
			}
		}
	}
	return "", false
}

// Counts returns the number of keys per bucket
func (s Stock) Counts() map[string]int {
	counts := make(map[string]int, len(s))
	for name, list := range s {
		counts[name] = len(list)
	}
	return counts
}

// Buckets returns bucket names in lexical order
func (s Stock) Buckets() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the stock map
func (s Stock) Clone() Stock {
	if s == nil {
		return Stock{}
	}
	c := make(Stock, len(s))
	for name, list := range s {
		c[name] = append([]string{}, list...)
	}
	return c
}
