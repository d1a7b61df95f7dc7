/*
PURPOSE:
  The four timed memory probes: allocation, allocate+free, writes and reads.
  Each returns wall-clock seconds for (sizeBytes, iterations).

REQUIREMENTS:
  User-specified:
  - Allocation: fresh zeroed buffer per iteration, one written element.
  - Allocate+free: fresh buffer per iteration, one read near the end, summed.
  - Writes: one buffer, filled entirely on every iteration.
  - Reads: one pre-filled buffer, one read per 4096-byte page per iteration.

  Implementation-discovered:
  - The compiler must not be able to prove the reads dead. Every accumulator
    goes through consume(), which publishes it and logs on a sentinel value.
  - runtime.KeepAlive pins buffers that are only written.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (through Suite)

ERROR HANDLING:
  - None. A failed allocation is a fatal runtime fault and propagates.

IMPLEMENTATION RULES:
  - Wall-clock time only (time.Now/time.Since, monotonic).
  - Writes/reads setup (allocation, pre-fill) happens outside the timed region.
  - Never run probes concurrently.

USAGE:
  secs := probe.Reads(64*model.BytesPerMB, 20)

SELF-HEALING INSTRUCTIONS:
  - If timings look implausibly small, check that consume() still receives
    every accumulator.

RELATED FILES:
  - internal/engine/runner.go

MAINTENANCE:
  - Keep the probe set aligned with the Node.js/Java suites.
*/

package probe

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/daryltucker/memory-runner/internal/output"
)

// PageStride is the read stride: one touch per virtual-memory page.
const PageStride = 4096

// readFill is the constant byte the reads buffer is pre-filled with.
const readFill = 0xaa

// Func is the signature shared by all probes.
type Func func(sizeBytes, iterations int) float64

// Suite is the ordered set of probes a scenario runs.
type Suite struct {
	Allocation      Func
	AllocateAndFree Func
	Writes          Func
	Reads           Func
}

// Default returns the real probes.
func Default() Suite {
	return Suite{
		Allocation:      Allocation,
		AllocateAndFree: AllocateAndFree,
		Writes:          Writes,
		Reads:           Reads,
	}
}

// sink receives every accumulator so the reads feeding it stay observable.
var sink atomic.Int64

func consume(acc int64, sentinel int64) {
	sink.Add(acc)
	if acc == sentinel {
		output.Logger.Debug("accumulator sentinel", "value", acc)
	}
}

// Allocation measures raw allocation plus first-touch cost.
func Allocation(sizeBytes, iterations int) float64 {
	start := time.Now()
	for i := 0; i < iterations; i++ {
		buf := make([]byte, sizeBytes)
		buf[0] = byte(int(buf[0]) + i)
		runtime.KeepAlive(buf)
	}
	return time.Since(start).Seconds()
}

// AllocateAndFree measures allocation followed by release of each buffer.
func AllocateAndFree(sizeBytes, iterations int) float64 {
	start := time.Now()
	var acc int64
	for i := 0; i < iterations; i++ {
		buf := make([]byte, sizeBytes)
		acc += int64(buf[sizeBytes-1])
	}
	consume(acc, math.MinInt64)
	return time.Since(start).Seconds()
}

// Writes measures sustained write bandwidth over a single reused buffer.
func Writes(sizeBytes, iterations int) float64 {
	buf := make([]byte, sizeBytes)
	elapsed := writeBuffer(buf, iterations)
	runtime.KeepAlive(buf)
	return elapsed
}

// writeBuffer fills buf once per iteration with the low byte of the iteration index.
func writeBuffer(buf []byte, iterations int) float64 {
	start := time.Now()
	for i := 0; i < iterations; i++ {
		fill(buf, byte(i&0xff))
	}
	return time.Since(start).Seconds()
}

// Reads measures page-strided read latency over a single pre-filled buffer.
func Reads(sizeBytes, iterations int) float64 {
	buf := make([]byte, sizeBytes)
	fill(buf, readFill)

	var acc int64
	start := time.Now()
	for i := 0; i < iterations; i++ {
		for idx := 0; idx < len(buf); idx += PageStride {
			acc += int64(buf[idx])
		}
	}
	consume(acc, math.MaxInt64)
	return time.Since(start).Seconds()
}

// fill sets every byte of buf to v by doubling copies.
func fill(buf []byte, v byte) {
	if len(buf) == 0 {
		return
	}
	buf[0] = v
	for n := 1; n < len(buf); n *= 2 {
		copy(buf[n:], buf[:n])
	}
}
