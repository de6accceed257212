// Package libnfc implements the Transceiver on top of a libnfc device.
package libnfc

import (
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/logging"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/clausecker/nfc/v2"
	"github.com/rs/zerolog"
)

const (
	maxFrame = 264
	// libnfc default timeout.
	defaultTimeout = -1
)

var properties = map[transceiver.Property]int{
	transceiver.HandleCRC:      nfc.HandleCRC,
	transceiver.EasyFraming:    nfc.EasyFraming,
	transceiver.ActivateField:  nfc.ActivateField,
	transceiver.InfiniteSelect: nfc.InfiniteSelect,
	transceiver.AutoISO14443_4: nfc.AutoISO14443_4,
}

var mifareModulation = nfc.Modulation{Type: nfc.ISO14443a, BaudRate: nfc.Nbr106}

// Device is a libnfc reader in initiator mode.
type Device struct {
	dev nfc.Device
	log zerolog.Logger
}

// Open opens the device named by connstring (empty for the first one) and
// puts it in initiator mode.
func Open(connstring string, log zerolog.Logger) (*Device, error) {
	dev, err := nfc.Open(connstring)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w: %w", connstring, errorcodes.ErrTransport, err)
	}
	if err := dev.InitiatorInit(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("initiator init: %w: %w", errorcodes.ErrTransport, err)
	}

	return &Device{dev: dev, log: log}, nil
}

// SelectTarget implements transceiver.Transceiver.
func (d *Device) SelectTarget(uid []byte) (*transceiver.Target, error) {
	t, err := d.dev.InitiatorSelectPassiveTarget(mifareModulation, uid)
	if err != nil || t == nil {
		return nil, errorcodes.ErrTagNotFound
	}

	iso, ok := t.(*nfc.ISO14443aTarget)
	if !ok {
		return nil, fmt.Errorf("unexpected target %T: %w", t, errorcodes.ErrTagNotFound)
	}

	return &transceiver.Target{
		UID:  append([]byte(nil), iso.UID[:iso.UIDLen]...),
		ATQA: iso.Atqa,
		SAK:  iso.Sak,
		ATS:  append([]byte(nil), iso.Ats[:iso.AtsLen]...),
	}, nil
}

// TransceiveBits implements transceiver.Transceiver.
func (d *Device) TransceiveBits(tx []byte, bits int) ([]byte, int, error) {
	logging.LogFrame(d.log, logging.Sent, tx, bits)

	rx := make([]byte, maxFrame)
	n, err := d.dev.InitiatorTransceiveBits(tx, nil, uint(bits), rx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", errorcodes.ErrTransport, err)
	}

	rx = rx[:(n+7)/8]
	logging.LogFrame(d.log, logging.Received, rx, n)

	return rx, n, nil
}

// TransceiveBytes implements transceiver.Transceiver.
func (d *Device) TransceiveBytes(tx []byte) ([]byte, error) {
	logging.LogFrame(d.log, logging.Sent, tx, 0)

	rx := make([]byte, maxFrame)
	n, err := d.dev.InitiatorTransceiveBytes(tx, rx, defaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errorcodes.ErrTransport, err)
	}

	rx = rx[:n]
	logging.LogFrame(d.log, logging.Received, rx, 0)

	return rx, nil
}

// SetProperty implements transceiver.Transceiver.
func (d *Device) SetProperty(p transceiver.Property, enable bool) error {
	np, ok := properties[p]
	if !ok {
		return fmt.Errorf("unsupported %s: %w", p, errorcodes.ErrTransport)
	}
	if err := d.dev.SetPropertyBool(np, enable); err != nil {
		return fmt.Errorf("set %s: %w: %w", p, errorcodes.ErrTransport, err)
	}

	return nil
}

// Mifare implements transceiver.Transceiver. The reader handles Crypto1 when
// easy framing is on.
func (d *Device) Mifare(
	cmd transceiver.Command,
	block uint32,
	p *transceiver.Params,
) ([]byte, error) {
	frame, err := transceiver.EncodeMifare(cmd, block, p)
	if err != nil {
		return nil, err
	}

	rx, err := d.TransceiveBytes(frame)
	if err != nil {
		return nil, err
	}

	return transceiver.DecodeMifare(cmd, rx)
}

// String implements transceiver.Transceiver.
func (d *Device) String() string {
	return d.dev.String()
}

// Close implements transceiver.Transceiver.
func (d *Device) Close() error {
	return d.dev.Close()
}

var _ transceiver.Transceiver = (*Device)(nil)
