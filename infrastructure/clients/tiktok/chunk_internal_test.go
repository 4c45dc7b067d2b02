package tiktok

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeChunkSize_DividesEvenly(t *testing.T) {
	sizes := []int64{
		1,
		5,
		1024,
		1000000,
		10 * 1024 * 1024,        // exactly one default chunk
		20 * 1024 * 1024,        // two default chunks
		10*1024*1024 + 1,        // forces a smaller divisor
		3 * 7 * 1024 * 1024,     // divisible below the default
		52428799,                // just under 5 default chunks
	}
	for _, size := range sizes {
		chunkSize := computeChunkSize(size)
		assert.Greater(t, chunkSize, int64(0))
		assert.LessOrEqual(t, chunkSize, defaultChunkSize)
		assert.Zero(t, size%chunkSize, "chunk size %d must divide file size %d", chunkSize, size)
		assert.Equal(t, size, chunkSize*(size/chunkSize))
	}
}

func TestComputeChunkSize_PrefersLargestDivisor(t *testing.T) {
	// 20 MiB splits into two full-size chunks
	assert.Equal(t, defaultChunkSize, computeChunkSize(20*1024*1024))
	// Anything at or below the default fits in a single chunk
	assert.Equal(t, int64(1024), computeChunkSize(1024))
	assert.Equal(t, int64(5), computeChunkSize(5))
}
