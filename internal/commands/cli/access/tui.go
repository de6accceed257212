package access

import (
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_mfra/internal/cli"
	"github.com/andrei-cloud/go_mfra/internal/engine"
	tea "github.com/charmbracelet/bubbletea"
)

type (
	sectorStartedMsg struct {
		op       engine.Op
		sector   int
		from, to uint32
	}
	blockDoneMsg struct {
		block uint32
		ok    bool
	}
	sectorDoneMsg struct {
		done, size int
	}
	sectorAbortedMsg struct {
		err error
	}
	runDoneMsg struct {
		sum *engine.Summary
		err error
	}
)

// teaObserver forwards engine events to a running program.
type teaObserver struct {
	send func(tea.Msg)
}

func (o teaObserver) SectorStarted(op engine.Op, sector int, from, to uint32) {
	o.send(sectorStartedMsg{op: op, sector: sector, from: from, to: to})
}

func (o teaObserver) BlockDone(_ engine.Op, block uint32, ok bool) {
	o.send(blockDoneMsg{block: block, ok: ok})
}

func (o teaObserver) SectorFinished(_ engine.Op, _ int, done, size int) {
	o.send(sectorDoneMsg{done: done, size: size})
}

func (o teaObserver) SectorAborted(_ engine.Op, _ int, err error) {
	o.send(sectorAbortedMsg{err: err})
}

type sectorLine struct {
	op       engine.Op
	sector   int
	from, to uint32
	marks    []bool
	done     int
	size     int
	err      error
	finished bool
}

type progressModel struct {
	sectors []*sectorLine
	sum     *engine.Summary
	err     error
	done    bool
	waiting bool
}

func newProgressModel() progressModel {
	return progressModel{}
}

// Init initializes the model.
func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) current() *sectorLine {
	if len(m.sectors) == 0 {
		return nil
	}

	return m.sectors[len(m.sectors)-1]
}

// Update handles engine events. Key presses cannot stop a sector midway, so
// ctrl+c only acknowledges the request.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.waiting = true
		}
	case sectorStartedMsg:
		m.sectors = append(m.sectors, &sectorLine{
			op:     msg.op,
			sector: msg.sector,
			from:   msg.from,
			to:     msg.to,
		})
	case blockDoneMsg:
		if l := m.current(); l != nil {
			l.marks = append(l.marks, msg.ok)
		}
	case sectorDoneMsg:
		if l := m.current(); l != nil {
			l.done, l.size, l.finished = msg.done, msg.size, true
		}
	case sectorAbortedMsg:
		if l := m.current(); l != nil && !l.finished {
			l.err, l.finished = msg.err, true
		} else {
			m.err = msg.err
		}
	case runDoneMsg:
		m.sum, m.err, m.done = msg.sum, msg.err, true
		return m, tea.Quit
	}

	return m, nil
}

// View renders one line per sector.
func (m progressModel) View() string {
	var b strings.Builder

	if m.sum != nil && m.sum.Card != nil {
		fmt.Fprintf(&b, "Tag UID %s, %s\n\n", cli.FormatHex(m.sum.Card.Target.UID), m.sum.Card.Size)
	}

	for _, l := range m.sectors {
		verb := "Reading"
		if l.op == engine.OpWrite {
			verb = "Writing"
		}
		fmt.Fprintf(&b, "%s sector %2d  [%3d → %3d]  ", verb, l.sector, l.from, l.to)
		for _, ok := range l.marks {
			if ok {
				b.WriteString("●")
			} else {
				b.WriteString("✗")
			}
		}

		switch {
		case l.err != nil:
			fmt.Fprintf(&b, "  error: %v", l.err)
		case l.finished:
			fmt.Fprintf(&b, "  %d of %d blocks %s", l.done, l.size, l.op.Past())
		default:
			b.WriteString("  …")
		}
		b.WriteString("\n")
	}

	switch {
	case m.done && m.err != nil:
		fmt.Fprintf(&b, "\nError: %v\n", m.err)
	case m.done:
		b.WriteString("\nDone.\n")
	case m.waiting:
		b.WriteString("\nFinishing the current sector…\n")
	}

	return b.String()
}

// runTUI runs the request while rendering live progress.
func runTUI(runner *engine.Runner, req engine.Request) error {
	p := tea.NewProgram(newProgressModel())
	runner.Observer = teaObserver{send: p.Send}

	go func() {
		sum, err := runner.Run(req)
		p.Send(runDoneMsg{sum: sum, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress display: %w", err)
	}

	return final.(progressModel).err
}
