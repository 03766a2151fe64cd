package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStock_Add(t *testing.T) {
	stock := Stock{}

	first := stock.Add(BucketDefault, []string{"K1", "K2", "K2"})
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 1, first.SkippedInBucket)
	assert.Equal(t, 0, first.SkippedElsewhere)
	assert.Equal(t, 2, first.BucketSize)

	second := stock.Add("monthly", []string{"K2", "K3"})
	assert.Equal(t, 1, second.Inserted)
	assert.Equal(t, 0, second.SkippedInBucket)
	assert.Equal(t, 1, second.SkippedElsewhere)
	assert.Equal(t, 1, second.Skipped())

	assert.Equal(t, []string{"K1", "K2"}, stock[BucketDefault])
	assert.Equal(t, []string{"K3"}, stock["monthly"])
}

func TestStock_AddTrimsAndSkipsBlanks(t *testing.T) {
	stock := Stock{}

	result := stock.Add(BucketShared, []string{"  K1 ", "", "   ", "K1"})

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.SkippedInBucket)
	assert.Equal(t, []string{"K1"}, stock[BucketShared])
}

func TestStock_KeyLivesInOneBucket(t *testing.T) {
	stock := Stock{}
	stock.Add("a", []string{"K1", "K2"})
	stock.Add("b", []string{"K2", "K3"})
	stock.Add("c", []string{"K1", "K3", "K4"})

	seen := map[string]string{}
	for bucket, keys := range stock {
		for _, k := range keys {
			prev, dup := seen[k]
			assert.False(t, dup, "key %s in both %s and %s", k, prev, bucket)
			seen[k] = bucket
		}
	}
	assert.Len(t, seen, 4)

	bucket, ok := stock.BucketOf("K4")
	require.True(t, ok)
	assert.Equal(t, "c", bucket)

	_, ok = stock.BucketOf("K9")
	assert.False(t, ok)
}

func TestStock_PopIsFIFO(t *testing.T) {
	stock := Stock{}
	stock.Add(BucketDefault, []string{"K1", "K2", "K3"})

	var popped []string
	for {
		key, ok := stock.Pop(BucketDefault)
		if !ok {
			break
		}
		popped = append(popped, key)
	}

	assert.Equal(t, []string{"K1", "K2", "K3"}, popped)
	assert.Empty(t, stock[BucketDefault])

	_, ok := stock.Pop("missing")
	assert.False(t, ok)
}

func TestStock_Clear(t *testing.T) {
	stock := Stock{}
	stock.Add(BucketDefault, []string{"K1", "K2"})

	assert.Equal(t, 2, stock.Clear(BucketDefault))
	assert.Equal(t, []string{}, stock[BucketDefault])

	// A cleared key may be stocked again
	result := stock.Add("monthly", []string{"K1"})
	assert.Equal(t, 1, result.Inserted)

	assert.Equal(t, 0, stock.Clear("missing"))
	_, exists := stock["missing"]
	assert.False(t, exists)
}

func TestStock_CountsAndBuckets(t *testing.T) {
	stock := Stock{}
	stock.Add("monthly", []string{"K1"})
	stock.Add(BucketDefault, []string{"K2", "K3"})

	assert.Equal(t, map[string]int{"monthly": 1, BucketDefault: 2}, stock.Counts())
	assert.Equal(t, []string{BucketDefault, "monthly"}, stock.Buckets())
}

func TestStock_CloneIsIndependent(t *testing.T) {
	stock := Stock{}
	stock.Add(BucketDefault, []string{"K1", "K2"})

	clone := stock.Clone()
	clone.Pop(BucketDefault)
	clone.Add("monthly", []string{"K9"})

	assert.Equal(t, []string{"K1", "K2"}, stock[BucketDefault])
	_, exists := stock["monthly"]
	assert.False(t, exists)

	var nilStock Stock
	assert.NotNil(t, nilStock.Clone())
}
