/*
PURPOSE:
  Captures per-process page-fault counters and computes scenario-local deltas.

REQUIREMENTS:
  User-specified:
  - Capture a snapshot before and after the probe sequence.
  - Delta floors each counter at zero.
  - An unavailable snapshot yields null deltas, never zero.

  Implementation-discovered:
  - getrusage(RUSAGE_SELF) reports the same minflt/majflt as /proc/self/stat
    and also works on the BSDs and macOS.
  - Counters are process-cumulative; only the subtraction is reported.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Platform code: sampler_unix.go (golang.org/x/sys/unix), sampler_other.go

ERROR HANDLING:
  - Capture returns ErrSnapshotUnavailable when the host has no accounting.
    Callers degrade silently; it is never surfaced to the user.

IMPLEMENTATION RULES:
  - Never reset the OS counters.

USAGE:
  before, _ := s.Capture()
  ...
  after, _ := s.Capture()
  d := sampler.Delta(before, after)

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/runner.go

MAINTENANCE:
  - Add platform files for hosts with other accounting facilities.
*/

package sampler

import "errors"

// ErrSnapshotUnavailable means the host exposes no per-process fault counters.
var ErrSnapshotUnavailable = errors.New("resource snapshot unavailable")

// Snapshot is a point-in-time copy of the process page-fault counters.
type Snapshot struct {
	MinorPageFaults int64
	MajorPageFaults int64
}

// Sampler captures resource snapshots.
type Sampler interface {
	Capture() (*Snapshot, error)
}

// FaultDelta holds scenario-local page-fault counts. Nil fields mean not available.
type FaultDelta struct {
	Minor *int64
	Major *int64
}

// Delta subtracts before from after, flooring each counter at zero.
// A nil snapshot on either side yields a delta with both fields nil.
func Delta(before, after *Snapshot) FaultDelta {
	if before == nil || after == nil {
		return FaultDelta{}
	}
	minor := max(0, after.MinorPageFaults-before.MinorPageFaults)
	major := max(0, after.MajorPageFaults-before.MajorPageFaults)
	return FaultDelta{Minor: &minor, Major: &major}
}

// OS samples the current process through the platform facility.
type OS struct{}

// Capture implements Sampler.
func (OS) Capture() (*Snapshot, error) {
	return capture()
}
