package probe

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbes_NonNegativeAndFinite(t *testing.T) {
	probes := map[string]Func{
		"allocation":        Allocation,
		"allocate-and-free": AllocateAndFree,
		"writes":            Writes,
		"reads":             Reads,
	}

	sizes := []int{1, PageStride - 1, PageStride, 3*PageStride + 17, 256 * 1024}

	for name, fn := range probes {
		for _, size := range sizes {
			secs := fn(size, 3)
			assert.GreaterOrEqual(t, secs, 0.0, "%s(%d)", name, size)
			assert.False(t, math.IsInf(secs, 0) || math.IsNaN(secs), "%s(%d) = %v", name, size, secs)
		}
	}
}

func TestReads_FeedsSink(t *testing.T) {
	before := sink.Load()
	Reads(4*PageStride, 2)
	// 4 pages x 2 iterations x 0xaa.
	assert.Equal(t, int64(8*readFill), sink.Load()-before)
}

func TestAllocateAndFree_ReadsZeroedMemory(t *testing.T) {
	before := sink.Load()
	AllocateAndFree(PageStride, 5)
	assert.Equal(t, before, sink.Load())
}

func TestFill(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 4096, 5000} {
		buf := make([]byte, n)
		fill(buf, 0x5c)
		for i, b := range buf {
			if b != 0x5c {
				t.Fatalf("len %d: buf[%d] = %#x", n, i, b)
			}
		}
	}
}

func TestWriteBuffer_FillsWithIterationLowByte(t *testing.T) {
	tests := []struct {
		iterations int
		want       byte
	}{
		{iterations: 1, want: 0x00},
		{iterations: 2, want: 0x01},
		{iterations: 256, want: 0xff},
		{iterations: 300, want: byte(299 & 0xff)},
	}

	for _, tt := range tests {
		buf := make([]byte, 3*PageStride+5)
		for i := range buf {
			buf[i] = 0x77
		}
		secs := writeBuffer(buf, tt.iterations)
		assert.GreaterOrEqual(t, secs, 0.0)
		assert.Equal(t, bytes.Repeat([]byte{tt.want}, len(buf)), buf, "iterations=%d", tt.iterations)
	}
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.NotNil(t, s.Allocation)
	assert.NotNil(t, s.AllocateAndFree)
	assert.NotNil(t, s.Writes)
	assert.NotNil(t, s.Reads)
}

func BenchmarkReads(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Reads(16*1024*1024, 1)
	}
}

func BenchmarkWrites(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Writes(16*1024*1024, 1)
	}
}
