package access

import (
	"fmt"
	"io"

	"github.com/andrei-cloud/go_mfra/internal/engine"
)

// printer reports progress as plain lines:
//
//	Reading sector 1, blocks from 7 to 4 |....|
//	Done, 4 of 4 blocks read.
type printer struct {
	w    io.Writer
	open bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) SectorStarted(op engine.Op, sector int, from, to uint32) {
	verb := "Reading"
	if op == engine.OpWrite {
		verb = "Writing"
	}
	_, _ = fmt.Fprintf(p.w, "%s sector %d, blocks from %d to %d |", verb, sector, from, to)
	p.open = true
}

func (p *printer) BlockDone(_ engine.Op, _ uint32, ok bool) {
	mark := "."
	if !ok {
		mark = "x"
	}
	_, _ = fmt.Fprint(p.w, mark)
}

func (p *printer) SectorFinished(op engine.Op, _ int, done, size int) {
	_, _ = fmt.Fprintf(p.w, "|\nDone, %d of %d blocks %s.\n", done, size, op.Past())
	p.open = false
}

func (p *printer) SectorAborted(_ engine.Op, _ int, err error) {
	if p.open {
		_, _ = fmt.Fprint(p.w, "!\n")
		p.open = false
	}
	_, _ = fmt.Fprintf(p.w, "Error: %v\n", err)
}
