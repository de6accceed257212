// Package transceiver defines the card transceiver capability consumed by the
// sector access engine, and the MIFARE Classic command framing shared by the
// concrete reader drivers.
package transceiver

import (
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
)

//go:generate mockgen -destination=mocks/transceiver_mock.go -package=mocks github.com/andrei-cloud/go_mfra/internal/transceiver Transceiver

// Property is a reader setting that can be toggled on or off.
type Property int

const (
	// HandleCRC makes the reader append and check CRC_A.
	HandleCRC Property = iota + 1
	// EasyFraming lets the reader wrap commands in its native exchange.
	EasyFraming
	// ActivateField switches the RF field.
	ActivateField
	// InfiniteSelect makes target selection block until a tag appears.
	InfiniteSelect
	// AutoISO14443_4 lets the reader switch to ISO14443-4 automatically.
	AutoISO14443_4
)

// String returns the property name.
func (p Property) String() string {
	switch p {
	case HandleCRC:
		return "handle_crc"
	case EasyFraming:
		return "easy_framing"
	case ActivateField:
		return "activate_field"
	case InfiniteSelect:
		return "infinite_select"
	case AutoISO14443_4:
		return "auto_iso14443_4"
	default:
		return fmt.Sprintf("property(%d)", int(p))
	}
}

// Command is a MIFARE Classic command code.
type Command byte

const (
	AuthA Command = 0x60
	AuthB Command = 0x61
	Read  Command = 0x30
	Write Command = 0xA0
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case AuthA:
		return "auth_a"
	case AuthB:
		return "auth_b"
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("cmd(%02x)", byte(c))
	}
}

// AuthCommand returns the authentication command for the key type.
func AuthCommand(kt mifare.KeyType) Command {
	if kt == mifare.KeyB {
		return AuthB
	}

	return AuthA
}

// Target describes a selected ISO14443-A passive target.
type Target struct {
	UID  []byte
	ATQA [2]byte
	SAK  byte
	ATS  []byte
}

// AuthUID returns the last four bytes of the UID, which authentication binds to.
func (t *Target) AuthUID() [mifare.UIDSize]byte {
	var out [mifare.UIDSize]byte
	if t == nil || len(t.UID) < mifare.UIDSize {
		return out
	}
	copy(out[:], t.UID[len(t.UID)-mifare.UIDSize:])

	return out
}

// Params carries the command parameters. Key and UID are used by the
// authentication commands, Data by Write.
type Params struct {
	Key  mifare.Key
	UID  [mifare.UIDSize]byte
	Data [mifare.BlockSize]byte
}

// Transceiver is a reader able to exchange frames with a MIFARE Classic card.
// Implementations are not safe for concurrent use.
type Transceiver interface {
	// SelectTarget selects a passive ISO14443-A target. A nil uid selects any
	// tag in the field.
	SelectTarget(uid []byte) (*Target, error)
	// TransceiveBits sends bits of tx and returns the answer with its bit count.
	TransceiveBits(tx []byte, bits int) ([]byte, int, error)
	// TransceiveBytes sends tx and returns the answer.
	TransceiveBytes(tx []byte) ([]byte, error)
	SetProperty(p Property, enable bool) error
	// Mifare issues a MIFARE Classic command. Read returns the 16 block bytes.
	Mifare(cmd Command, block uint32, p *Params) ([]byte, error)
	String() string
	Close() error
}

// EncodeMifare builds the easy-framing exchange for a MIFARE command.
func EncodeMifare(cmd Command, block uint32, p *Params) ([]byte, error) {
	if block > 0xFF {
		return nil, fmt.Errorf("block %d out of range: %w", block, errorcodes.ErrTransport)
	}

	frame := []byte{byte(cmd), byte(block)}
	switch cmd {
	case AuthA, AuthB:
		if p == nil {
			return nil, fmt.Errorf("%s without parameters: %w", cmd, errorcodes.ErrTransport)
		}
		frame = append(frame, p.Key[:]...)
		frame = append(frame, p.UID[:]...)
	case Read:
	case Write:
		if p == nil {
			return nil, fmt.Errorf("%s without parameters: %w", cmd, errorcodes.ErrTransport)
		}
		frame = append(frame, p.Data[:]...)
	default:
		return nil, fmt.Errorf("unsupported command %s: %w", cmd, errorcodes.ErrTransport)
	}

	return frame, nil
}

// DecodeMifare checks the answer to a MIFARE command. Read answers are
// truncated to one block.
func DecodeMifare(cmd Command, rx []byte) ([]byte, error) {
	if cmd != Read {
		return nil, nil
	}
	if len(rx) < mifare.BlockSize {
		return nil, fmt.Errorf(
			"short read answer (%d bytes): %w",
			len(rx),
			errorcodes.ErrTransport,
		)
	}

	return rx[:mifare.BlockSize], nil
}
