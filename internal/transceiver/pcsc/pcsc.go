// Package pcsc drives a PN532 based PC/SC reader (ACR122U) through direct
// transmit pseudo-APDUs.
package pcsc

import (
	"bytes"
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/logging"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/ebfe/scard"
	"github.com/rs/zerolog"
)

// PN532 command codes.
const (
	cmdReadRegister        = 0x06
	cmdWriteRegister       = 0x08
	cmdSetParameters       = 0x12
	cmdRFConfiguration     = 0x32
	cmdInDataExchange      = 0x40
	cmdInCommunicateThru   = 0x42
	cmdInListPassiveTarget = 0x4A
)

// CIU registers.
const (
	regTxMode     = 0x6302
	regRxMode     = 0x6303
	regControl    = 0x633C
	regBitFraming = 0x633D
)

const (
	hostToPN532 = 0xD4
	pn532ToHost = 0xD5

	crcEnable       = 0x80
	autoRATS        = 0x10
	statusAuthError = 0x14
)

// Card is the subset of *scard.Card the driver needs.
type Card interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Reader is a Transceiver speaking PN532 commands over PC/SC.
type Reader struct {
	card   Card
	closer func() error
	name   string
	log    zerolog.Logger

	easy   bool
	params byte
	regs   map[uint16]byte
}

// New wraps an already connected card.
func New(card Card, name string, log zerolog.Logger) *Reader {
	return &Reader{
		card:   card,
		closer: func() error { return nil },
		name:   name,
		log:    log,
		easy:   true,
		params: autoRATS,
		regs:   map[uint16]byte{},
	}
}

// Open connects to the reader at readerIndex.
func Open(readerIndex int, log zerolog.Logger) (*Reader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish context: %w: %w", errorcodes.ErrTransport, err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		ctx.Release()
		return nil, fmt.Errorf("no readers found: %w", errorcodes.ErrTransport)
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		ctx.Release()
		return nil, fmt.Errorf("reader index out of range (0..%d): %w",
			len(readers)-1, errorcodes.ErrTransport)
	}

	card, err := ctx.Connect(readers[readerIndex], scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("connect %q: %w: %w", readers[readerIndex], errorcodes.ErrTransport, err)
	}

	r := New(card, readers[readerIndex], log)
	r.closer = func() error {
		_ = card.Disconnect(scard.LeaveCard)
		return ctx.Release()
	}

	return r, nil
}

// exchange sends a PN532 command and returns the payload after the response
// code.
func (r *Reader) exchange(cmd byte, data ...byte) ([]byte, error) {
	frame := append([]byte{hostToPN532, cmd}, data...)
	apdu := append([]byte{0xFF, 0x00, 0x00, 0x00, byte(len(frame))}, frame...)

	rsp, err := r.card.Transmit(apdu)
	if err != nil {
		return nil, fmt.Errorf("transmit %02x: %w: %w", cmd, errorcodes.ErrTransport, err)
	}
	if len(rsp) < 4 || !bytes.Equal(rsp[len(rsp)-2:], []byte{0x90, 0x00}) {
		return nil, fmt.Errorf("command %02x answered % X: %w", cmd, rsp, errorcodes.ErrTransport)
	}

	rsp = rsp[:len(rsp)-2]
	if rsp[0] != pn532ToHost || rsp[1] != cmd+1 {
		return nil, fmt.Errorf("command %02x answered % X: %w", cmd, rsp, errorcodes.ErrTransport)
	}

	return rsp[2:], nil
}

func (r *Reader) readRegister(addr uint16) (byte, error) {
	rsp, err := r.exchange(cmdReadRegister, byte(addr>>8), byte(addr))
	if err != nil {
		return 0, err
	}
	if len(rsp) < 1 {
		return 0, fmt.Errorf("register %04x: empty answer: %w", addr, errorcodes.ErrTransport)
	}

	return rsp[0], nil
}

func (r *Reader) writeRegister(addr uint16, val byte) error {
	if cur, ok := r.regs[addr]; ok && cur == val {
		return nil
	}
	if _, err := r.exchange(cmdWriteRegister, byte(addr>>8), byte(addr), val); err != nil {
		return err
	}
	r.regs[addr] = val

	return nil
}

func (r *Reader) updateRegister(addr uint16, mask byte, set bool) error {
	cur, ok := r.regs[addr]
	if !ok {
		var err error
		if cur, err = r.readRegister(addr); err != nil {
			return err
		}
		r.regs[addr] = cur
	}

	val := cur &^ mask
	if set {
		val |= mask
	}

	return r.writeRegister(addr, val)
}

// SelectTarget implements transceiver.Transceiver.
func (r *Reader) SelectTarget(uid []byte) (*transceiver.Target, error) {
	rsp, err := r.exchange(cmdInListPassiveTarget, append([]byte{0x01, 0x00}, uid...)...)
	if err != nil {
		return nil, err
	}
	if len(rsp) < 1 || rsp[0] == 0 {
		return nil, errorcodes.ErrTagNotFound
	}

	return parseTarget(rsp[1:])
}

// parseTarget decodes Tg SENS_RES(2) SEL_RES NFCIDLength NFCID [ATS].
func parseTarget(b []byte) (*transceiver.Target, error) {
	if len(b) < 5 || len(b) < 5+int(b[4]) {
		return nil, fmt.Errorf("short target % X: %w", b, errorcodes.ErrTransport)
	}

	n := int(b[4])
	t := &transceiver.Target{
		ATQA: [2]byte{b[1], b[2]},
		SAK:  b[3],
		UID:  append([]byte(nil), b[5:5+n]...),
	}
	if rest := b[5+n:]; len(rest) > 0 && int(rest[0]) <= len(rest) {
		t.ATS = append([]byte(nil), rest[:rest[0]]...)
	}

	return t, nil
}

// TransceiveBits implements transceiver.Transceiver.
func (r *Reader) TransceiveBits(tx []byte, bits int) ([]byte, int, error) {
	logging.LogFrame(r.log, logging.Sent, tx, bits)

	if err := r.writeRegister(regBitFraming, byte(bits%8)); err != nil {
		return nil, 0, err
	}
	rsp, err := r.thru(tx[:(bits+7)/8])
	if ferr := r.writeRegister(regBitFraming, 0x00); err == nil {
		err = ferr
	}
	if err != nil {
		return nil, 0, err
	}

	n := len(rsp) * 8
	if last, lerr := r.readRegister(regControl); lerr == nil && last&0x07 != 0 && len(rsp) > 0 {
		n = (len(rsp)-1)*8 + int(last&0x07)
	}
	logging.LogFrame(r.log, logging.Received, rsp, n)

	return rsp, n, nil
}

// TransceiveBytes implements transceiver.Transceiver.
func (r *Reader) TransceiveBytes(tx []byte) ([]byte, error) {
	logging.LogFrame(r.log, logging.Sent, tx, 0)

	var (
		rsp []byte
		err error
	)
	if r.easy {
		rsp, err = r.dataExchange(tx)
	} else {
		rsp, err = r.thru(tx)
	}
	if err != nil {
		return nil, err
	}
	logging.LogFrame(r.log, logging.Received, rsp, 0)

	return rsp, nil
}

func (r *Reader) thru(tx []byte) ([]byte, error) {
	rsp, err := r.exchange(cmdInCommunicateThru, tx...)
	if err != nil {
		return nil, err
	}

	return status(rsp, errorcodes.ErrTransport)
}

func (r *Reader) dataExchange(tx []byte) ([]byte, error) {
	rsp, err := r.exchange(cmdInDataExchange, append([]byte{0x01}, tx...)...)
	if err != nil {
		return nil, err
	}

	return status(rsp, errorcodes.ErrTransport)
}

func status(rsp []byte, onErr error) ([]byte, error) {
	if len(rsp) < 1 {
		return nil, fmt.Errorf("empty answer: %w", onErr)
	}
	if st := rsp[0] & 0x3F; st != 0 {
		if st == statusAuthError {
			return nil, fmt.Errorf("status %02x: %w", st, errorcodes.ErrAuthenticationFailed)
		}
		return nil, fmt.Errorf("status %02x: %w", st, onErr)
	}

	return rsp[1:], nil
}

// SetProperty implements transceiver.Transceiver.
func (r *Reader) SetProperty(p transceiver.Property, enable bool) error {
	switch p {
	case transceiver.HandleCRC:
		if err := r.updateRegister(regTxMode, crcEnable, enable); err != nil {
			return err
		}
		return r.updateRegister(regRxMode, crcEnable, enable)
	case transceiver.EasyFraming:
		r.easy = enable
		return nil
	case transceiver.ActivateField:
		_, err := r.exchange(cmdRFConfiguration, 0x01, boolByte(enable))
		return err
	case transceiver.InfiniteSelect:
		retries := byte(0x01)
		if enable {
			retries = 0xFF
		}
		_, err := r.exchange(cmdRFConfiguration, 0x05, 0xFF, 0x01, retries)
		return err
	case transceiver.AutoISO14443_4:
		if enable {
			r.params |= autoRATS
		} else {
			r.params &^= autoRATS
		}
		_, err := r.exchange(cmdSetParameters, r.params)
		return err
	default:
		return fmt.Errorf("unsupported %s: %w", p, errorcodes.ErrTransport)
	}
}

func boolByte(b bool) byte {
	if b {
		return 0x01
	}

	return 0x00
}

// Mifare implements transceiver.Transceiver. Crypto1 is handled by the PN532
// inside InDataExchange.
func (r *Reader) Mifare(
	cmd transceiver.Command,
	block uint32,
	p *transceiver.Params,
) ([]byte, error) {
	frame, err := transceiver.EncodeMifare(cmd, block, p)
	if err != nil {
		return nil, err
	}

	logging.LogFrame(r.log, logging.Sent, frame, 0)
	rsp, err := r.dataExchange(frame)
	if err != nil {
		return nil, fmt.Errorf("%s block %d: %w", cmd, block, err)
	}
	logging.LogFrame(r.log, logging.Received, rsp, 0)

	return transceiver.DecodeMifare(cmd, rsp)
}

// String implements transceiver.Transceiver.
func (r *Reader) String() string {
	return r.name
}

// Close implements transceiver.Transceiver.
func (r *Reader) Close() error {
	return r.closer()
}

var _ transceiver.Transceiver = (*Reader)(nil)
