package tracing

// FlushReason describes what happened to a frame's in-memory storage when the
// frame exited.
type FlushReason int

const (
	FlushUnspecified FlushReason = iota
	FlushCompleted               // frame completed and wrote its memory back
	FlushReadOnly                // frame completed but its entry point does not mutate
	FlushTailCall                // frame handed final-write authority to a tail-called frame
	FlushReverted                // frame failed, its writes and its children's were reverted
)

// String returns a human-readable string for the reason.
func (r FlushReason) String() string {
	switch r {
	case FlushUnspecified:
		return "unspecified"
	case FlushCompleted:
		return "completed"
	case FlushReadOnly:
		return "read_only"
	case FlushTailCall:
		return "tail_call"
	case FlushReverted:
		return "reverted"
	}
	return "unknown"
}

// Persisted reports whether the frame's memory reached persistent storage.
func (r FlushReason) Persisted() bool { return r == FlushCompleted }
