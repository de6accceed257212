package message

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
)

const mifareLen = 1 + 1 + mifare.KeySize + mifare.UIDSize + mifare.BlockSize

// StatusOK marks a successful response.
const StatusOK byte = 0

// EncodeSelect builds a select request.
func EncodeSelect(uid []byte) []byte {
	return append([]byte{OpSelect}, uid...)
}

// EncodeBits builds a bit transceive request.
func EncodeBits(tx []byte, bits int) []byte {
	out := make([]byte, 3, 3+len(tx))
	out[0] = OpBits
	binary.BigEndian.PutUint16(out[1:], uint16(bits))

	return append(out, tx...)
}

// EncodeBytes builds a byte transceive request.
func EncodeBytes(tx []byte) []byte {
	return append([]byte{OpBytes}, tx...)
}

// EncodeProperty builds a property request.
func EncodeProperty(p transceiver.Property, enable bool) []byte {
	var on byte
	if enable {
		on = 1
	}

	return []byte{OpProperty, byte(p), on}
}

// EncodeMifare builds a MIFARE command request.
func EncodeMifare(cmd transceiver.Command, block uint32, p *transceiver.Params) []byte {
	out := make([]byte, 0, 1+mifareLen)
	out = append(out, OpMifare, byte(cmd), byte(block))
	if p == nil {
		p = &transceiver.Params{}
	}
	out = append(out, p.Key[:]...)
	out = append(out, p.UID[:]...)

	return append(out, p.Data[:]...)
}

// EncodeName builds a name request.
func EncodeName() []byte {
	return []byte{OpName}
}

// Params returns the MIFARE parameters of an 'M' request.
func Params(m Message) *transceiver.Params {
	p := &transceiver.Params{}
	copy(p.Key[:], m.Get("Key"))
	copy(p.UID[:], m.Get("UID"))
	copy(p.Data[:], m.Get("Data"))

	return p
}

// StatusOf maps an error onto a status byte. Errors outside the catalogue
// map to the transport error.
func StatusOf(err error) byte {
	if err == nil {
		return StatusOK
	}
	for i, e := range errorcodes.All {
		if errors.Is(err, e) {
			return byte(i + 1)
		}
	}

	return StatusOf(errorcodes.ErrTransport)
}

// ErrorOf maps a status byte back onto the error catalogue.
func ErrorOf(status byte) error {
	if status == StatusOK {
		return nil
	}
	if int(status) <= len(errorcodes.All) {
		return errorcodes.All[status-1]
	}

	return fmt.Errorf("status %d: %w", status, errorcodes.ErrTransport)
}

// EncodeResponse builds a response.
func EncodeResponse(err error, payload []byte) []byte {
	return append([]byte{StatusOf(err)}, payload...)
}

// DecodeResponse splits a response into its payload and error.
func DecodeResponse(data []byte) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("empty response: %w", errorcodes.ErrTransport)
	}
	if err := ErrorOf(data[0]); err != nil {
		return nil, err
	}

	return data[1:], nil
}

// EncodeTarget serialises a target: ATQA(2) SAK(1) UID length(1) UID.
func EncodeTarget(t *transceiver.Target) []byte {
	out := make([]byte, 0, 4+len(t.UID))
	out = append(out, t.ATQA[0], t.ATQA[1], t.SAK, byte(len(t.UID)))

	return append(out, t.UID...)
}

// DecodeTarget parses EncodeTarget output. A UID shorter than four bytes
// cannot be authenticated against and is rejected.
func DecodeTarget(data []byte) (*transceiver.Target, error) {
	if len(data) < 4 || len(data) != 4+int(data[3]) {
		return nil, fmt.Errorf("target: %w", ErrMalformed)
	}
	if int(data[3]) < mifare.UIDSize {
		return nil, fmt.Errorf("target UID of %d bytes: %w", data[3], ErrMalformed)
	}

	return &transceiver.Target{
		ATQA: [2]byte{data[0], data[1]},
		SAK:  data[2],
		UID:  append([]byte(nil), data[4:]...),
	}, nil
}

// EncodeBitsAnswer serialises a bit answer: bit count(2) data.
func EncodeBitsAnswer(rx []byte, bits int) []byte {
	out := make([]byte, 2, 2+len(rx))
	binary.BigEndian.PutUint16(out, uint16(bits))

	return append(out, rx...)
}

// DecodeBitsAnswer parses EncodeBitsAnswer output.
func DecodeBitsAnswer(data []byte) ([]byte, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("bits answer: %w", ErrMalformed)
	}

	return data[2:], int(binary.BigEndian.Uint16(data)), nil
}
