// Package sim provides a virtual MIFARE Classic card behind the Transceiver
// interface. Authentication is checked against the stored trailers but no
// Crypto1 stream is modelled.
package sim

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
)

type state int

const (
	stateIdle state = iota
	stateActive
	stateAuthenticated
	stateHalted
	stateBackdoorPending
	stateBackdoor
	stateISO4
)

var (
	halt      = []byte{0x50, 0x00}
	rats      = []byte{0xE0, 0x50}
	unlock1   = byte(0x40)
	unlock2   = byte(0x43)
	ackNibble = []byte{0x0A}
)

// Call is one command seen by the card.
type Call struct {
	Cmd   transceiver.Command
	Block uint32
	Key   mifare.Key
}

// Card is a virtual MIFARE Classic card sitting on a virtual reader.
type Card struct {
	mu sync.Mutex

	uid    []byte
	atqa   [2]byte
	sak    byte
	ats    []byte
	blocks [][mifare.BlockSize]byte

	magic1 bool
	magic2 bool

	present bool
	st      state
	sector  uint32
	props   map[transceiver.Property]bool

	failRead   map[uint32]int
	failWrite  map[uint32]int
	failSelect int

	calls   []Call
	selects int
}

// NewCard returns a card of the given size in transport configuration: zeroed
// data blocks, default keys and FF 07 80 69 access bits.
func NewCard(size mifare.CardSize, uid []byte) *Card {
	c := &Card{
		uid:       append([]byte(nil), uid...),
		blocks:    make([][mifare.BlockSize]byte, size.Blocks()),
		present:   true,
		props:     make(map[transceiver.Property]bool),
		failRead:  make(map[uint32]int),
		failWrite: make(map[uint32]int),
	}

	switch size {
	case mifare.Size4K:
		c.atqa, c.sak = [2]byte{0x00, 0x02}, 0x18
	case mifare.SizeMini:
		c.atqa, c.sak = [2]byte{0x00, 0x04}, 0x09
	default:
		c.atqa, c.sak = [2]byte{0x00, 0x04}, 0x08
	}
	if size == mifare.Size2K {
		c.ats = []byte{0x0C, 0x75, 0x77, 0x80, 0x02, 0xC1, 0x05, 0x2F, 0x2F, 0x01, 0xBC, 0xD6}
	}

	for _, p := range []transceiver.Property{
		transceiver.HandleCRC,
		transceiver.EasyFraming,
		transceiver.ActivateField,
	} {
		c.props[p] = true
	}

	if len(uid) >= mifare.UIDSize {
		var b0 [mifare.BlockSize]byte
		copy(b0[:], uid[:mifare.UIDSize])
		b0[4] = mifare.BCC(uid[:mifare.UIDSize])
		b0[5] = c.sak
		b0[6], b0[7] = c.atqa[1], c.atqa[0]
		c.blocks[0] = b0
	}

	ff := mifare.Key{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	tr := mifare.Trailer{KeyA: ff, Access: mifare.TransportAccess, KeyB: ff}
	for b := uint32(0); b < uint32(len(c.blocks)); b++ {
		if mifare.IsTrailerBlock(b) {
			c.blocks[b] = tr.Bytes()
		}
	}

	return c
}

// SetMagic1 marks the card as a gen1 backdoor card.
func (c *Card) SetMagic1(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.magic1 = on
}

// SetMagic2 marks the card as a gen2 direct-write card, which also answers
// RATS with the gen2 ATS.
func (c *Card) SetMagic2(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.magic2 = on
	if on {
		c.ats = []byte{0x09, 0x78, 0x00, 0x91, 0x02, 0xDA, 0xBC, 0x19, 0x10}
	}
}

// SetATS sets the answer to RATS. Nil disables ISO14443-4.
func (c *Card) SetATS(ats []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ats = append([]byte(nil), ats...)
}

// SetKeys sets the keys in the trailer of the sector containing block.
func (c *Card) SetKeys(block uint32, keyA, keyB mifare.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := mifare.TrailerOf(block)
	tr := mifare.ParseTrailer(c.blocks[t])
	tr.KeyA, tr.KeyB = keyA, keyB
	c.blocks[t] = tr.Bytes()
}

// Block returns the raw content of a block.
func (c *Card) Block(block uint32) [mifare.BlockSize]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[block]
}

// SetBlock overwrites a block without any access check.
func (c *Card) SetBlock(block uint32, data [mifare.BlockSize]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks[block] = data
}

// FailRead makes the next n reads of block fail.
func (c *Card) FailRead(block uint32, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failRead[block] = n
}

// FailWrite makes the next n writes of block fail.
func (c *Card) FailWrite(block uint32, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWrite[block] = n
}

// FailSelect makes the next n selections fail.
func (c *Card) FailSelect(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSelect = n
}

// Remove takes the card out of the field.
func (c *Card) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present = false
	c.st = stateIdle
}

// Calls returns the MIFARE commands seen so far.
func (c *Card) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Count returns how many times cmd was issued.
func (c *Card) Count(cmd transceiver.Command) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, call := range c.calls {
		if call.Cmd == cmd {
			n++
		}
	}

	return n
}

// Selects returns the number of selection attempts.
func (c *Card) Selects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selects
}

// Property returns the current value of a reader property.
func (c *Card) Property(p transceiver.Property) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props[p]
}

// SelectTarget implements transceiver.Transceiver.
func (c *Card) SelectTarget(uid []byte) (*transceiver.Target, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selects++
	if c.failSelect > 0 {
		c.failSelect--
		return nil, errorcodes.ErrTagNotFound
	}
	if !c.present || !c.props[transceiver.ActivateField] {
		return nil, errorcodes.ErrTagNotFound
	}
	if uid != nil && !bytes.Equal(uid, c.uid) {
		return nil, errorcodes.ErrTagNotFound
	}

	c.st = stateActive

	return &transceiver.Target{
		UID:  append([]byte(nil), c.uid...),
		ATQA: c.atqa,
		SAK:  c.sak,
	}, nil
}

// TransceiveBits implements transceiver.Transceiver.
func (c *Card) TransceiveBits(tx []byte, bits int) ([]byte, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.props[transceiver.EasyFraming] || !c.present {
		return nil, 0, errorcodes.ErrTransport
	}
	if bits == 7 && len(tx) == 1 && tx[0] == unlock1 && c.magic1 && c.st == stateHalted {
		c.st = stateBackdoorPending
		return append([]byte(nil), ackNibble...), 4, nil
	}

	return nil, 0, errorcodes.ErrTransport
}

// TransceiveBytes implements transceiver.Transceiver.
func (c *Card) TransceiveBytes(tx []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.props[transceiver.EasyFraming] || !c.present {
		return nil, errorcodes.ErrTransport
	}

	frame := tx
	if !c.props[transceiver.HandleCRC] {
		if len(tx) < 3 {
			if len(tx) == 1 && tx[0] == unlock2 && c.st == stateBackdoorPending {
				c.st = stateBackdoor
				return append([]byte(nil), ackNibble...), nil
			}
			return nil, errorcodes.ErrTransport
		}
		lo, hi := mifare.CRCA(tx[:len(tx)-2])
		if tx[len(tx)-2] != lo || tx[len(tx)-1] != hi {
			return nil, errorcodes.ErrTransport
		}
		frame = tx[:len(tx)-2]
	}

	switch {
	case bytes.Equal(frame, halt):
		if c.st != stateIdle {
			c.st = stateHalted
		}
		// A halted card does not answer.
		return nil, errorcodes.ErrTransport
	case bytes.Equal(frame, rats):
		if len(c.ats) == 0 || c.st != stateActive {
			return nil, errorcodes.ErrTransport
		}
		c.st = stateISO4
		return append([]byte(nil), c.ats...), nil
	}

	return nil, errorcodes.ErrTransport
}

// SetProperty implements transceiver.Transceiver.
func (c *Card) SetProperty(p transceiver.Property, enable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.props[p] = enable
	if p == transceiver.ActivateField && !enable {
		c.st = stateIdle
	}

	return nil
}

// Mifare implements transceiver.Transceiver.
func (c *Card) Mifare(
	cmd transceiver.Command,
	block uint32,
	p *transceiver.Params,
) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call := Call{Cmd: cmd, Block: block}
	if p != nil {
		call.Key = p.Key
	}
	c.calls = append(c.calls, call)

	if _, err := transceiver.EncodeMifare(cmd, block, p); err != nil {
		return nil, err
	}
	if !c.present {
		return nil, errorcodes.ErrTransport
	}
	if !c.props[transceiver.EasyFraming] || !c.props[transceiver.HandleCRC] {
		return nil, errorcodes.ErrTransport
	}
	if int(block) >= len(c.blocks) {
		c.st = stateHalted
		return nil, errorcodes.ErrTransport
	}

	switch cmd {
	case transceiver.AuthA, transceiver.AuthB:
		return nil, c.auth(cmd, block, p)
	case transceiver.Read:
		return c.read(block)
	case transceiver.Write:
		return nil, c.write(block, p.Data)
	}

	return nil, errorcodes.ErrTransport
}

func (c *Card) auth(cmd transceiver.Command, block uint32, p *transceiver.Params) error {
	if c.st != stateActive && c.st != stateAuthenticated {
		return errorcodes.ErrTransport
	}

	tr := mifare.ParseTrailer(c.blocks[mifare.TrailerOf(block)])
	want := tr.KeyA
	if cmd == transceiver.AuthB {
		want = tr.KeyB
	}
	if p.Key != want || !bytes.Equal(p.UID[:], c.uid[len(c.uid)-mifare.UIDSize:]) {
		// A failed authentication leaves the card mute until reselected.
		c.st = stateHalted
		return errorcodes.ErrAuthenticationFailed
	}

	c.st = stateAuthenticated
	c.sector = mifare.SectorOf(block)

	return nil
}

func (c *Card) allowed(block uint32) bool {
	switch c.st {
	case stateBackdoor:
		return true
	case stateAuthenticated:
		return mifare.SectorOf(block) == c.sector
	default:
		return false
	}
}

func (c *Card) read(block uint32) ([]byte, error) {
	if !c.allowed(block) {
		c.st = stateHalted
		return nil, errorcodes.ErrTransport
	}
	if c.failRead[block] > 0 {
		c.failRead[block]--
		c.st = stateHalted
		return nil, fmt.Errorf("read block %d: %w", block, errorcodes.ErrTransport)
	}

	data := c.blocks[block]
	if mifare.IsTrailerBlock(block) && c.st != stateBackdoor {
		tr := mifare.ParseTrailer(data)
		tr.KeyA = mifare.Key{}
		tr.KeyB = mifare.Key{}
		data = tr.Bytes()
	}

	return data[:], nil
}

func (c *Card) write(block uint32, data [mifare.BlockSize]byte) error {
	if !c.allowed(block) {
		c.st = stateHalted
		return errorcodes.ErrTransport
	}
	if block == 0 && c.st != stateBackdoor && !c.magic2 {
		c.st = stateHalted
		return fmt.Errorf("manufacturer block is read-only: %w", errorcodes.ErrTransport)
	}
	if c.failWrite[block] > 0 {
		c.failWrite[block]--
		c.st = stateHalted
		return fmt.Errorf("write block %d: %w", block, errorcodes.ErrTransport)
	}

	c.blocks[block] = data

	return nil
}

// String implements transceiver.Transceiver.
func (c *Card) String() string {
	return "sim"
}

// Close implements transceiver.Transceiver.
func (c *Card) Close() error {
	return nil
}

var _ transceiver.Transceiver = (*Card)(nil)
