package engine

// Op is a sector operation.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

// String returns "read" or "write".
func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}

	return "read"
}

// Past returns the past participle used in summaries.
func (o Op) Past() string {
	if o == OpWrite {
		return "written"
	}

	return "read"
}

// Observer receives progress events of sector operations.
type Observer interface {
	// SectorStarted is called before the first block, with blocks listed in
	// processing order.
	SectorStarted(op Op, sector int, from, to uint32)
	// BlockDone is called once per processed block.
	BlockDone(op Op, block uint32, ok bool)
	// SectorFinished is called when the sector ran to its end.
	SectorFinished(op Op, sector int, done, size int)
	// SectorAborted is called when the sector ended early.
	SectorAborted(op Op, sector int, err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) SectorStarted(Op, int, uint32, uint32) {}
func (NopObserver) BlockDone(Op, uint32, bool)            {}
func (NopObserver) SectorFinished(Op, int, int, int)      {}
func (NopObserver) SectorAborted(Op, int, error)          {}
