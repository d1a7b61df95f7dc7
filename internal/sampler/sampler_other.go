//go:build !unix

package sampler

func capture() (*Snapshot, error) {
	return nil, ErrSnapshotUnavailable
}
