package engine

// event is a recorded observer call.
type event struct {
	Kind   string
	Op     Op
	Sector int
	Block  uint32
	OK     bool
	Done   int
	Size   int
	Err    error
}

// recorder is an Observer that keeps every event, in order.
type recorder struct {
	Events []event
}

func (r *recorder) SectorStarted(op Op, sector int, from, to uint32) {
	r.Events = append(r.Events, event{Kind: "start", Op: op, Sector: sector, Block: from})
}

func (r *recorder) BlockDone(op Op, block uint32, ok bool) {
	r.Events = append(r.Events, event{Kind: "block", Op: op, Block: block, OK: ok})
}

func (r *recorder) SectorFinished(op Op, sector int, done, size int) {
	r.Events = append(r.Events, event{Kind: "done", Op: op, Sector: sector, Done: done, Size: size})
}

func (r *recorder) SectorAborted(op Op, sector int, err error) {
	r.Events = append(r.Events, event{Kind: "abort", Op: op, Sector: sector, Err: err})
}

// Blocks returns the blocks reported, in order.
func (r *recorder) Blocks() []uint32 {
	var out []uint32
	for _, e := range r.Events {
		if e.Kind == "block" {
			out = append(out, e.Block)
		}
	}

	return out
}
