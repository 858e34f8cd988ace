package scanner

// Snapshot is a cheap fingerprint of a folder's eligible contents: the
// file count plus a wrapping sum of modification times in unix seconds.
// The sum is order-independent, so filesystem enumeration order never
// affects the fingerprint.
//
// Equality of two snapshots is a heuristic "nothing changed" signal,
// not a cryptographic guarantee.
type Snapshot struct {
	FileCount  int
	AggModTime int64
}

// Equal reports whether two snapshots carry the same fingerprint.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.FileCount == other.FileCount && s.AggModTime == other.AggModTime
}

// ComputeSnapshot fingerprints dir using a shallow scan.
// An empty folder snapshots to {0, 0}.
func (s *Scanner) ComputeSnapshot(dir string) (Snapshot, error) {
	shallow, err := s.ScanShallow(dir)
	if err != nil {
		return Snapshot{}, err
	}

	var agg int64
	for _, f := range shallow {
		agg += f.ModTime.Unix() // wraps on overflow, which is fine
	}
	return Snapshot{FileCount: len(shallow), AggModTime: agg}, nil
}
