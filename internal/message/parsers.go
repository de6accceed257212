package message

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed is returned for requests that are too short or of unknown op.
var ErrMalformed = errors.New("malformed request")

// Parse decodes a request.
func Parse(data []byte) (*BaseMessage, error) {
	if len(data) < 1 {
		return nil, ErrMalformed
	}

	op, payload := data[0], data[1:]
	switch op {
	case OpSelect:
		return NewS(payload), nil
	case OpBits:
		return NewT(payload)
	case OpBytes:
		return NewX(payload), nil
	case OpProperty:
		return NewP(payload)
	case OpMifare:
		return NewM(payload)
	case OpName:
		return NewBaseMessage(OpName, "Reader name"), nil
	default:
		return nil, fmt.Errorf("op %q: %w", op, ErrMalformed)
	}
}

// NewS parses a select request. An empty UID selects any tag.
func NewS(data []byte) *BaseMessage {
	m := NewBaseMessage(OpSelect, "Select target")
	m.Fields["UID"] = data

	return m
}

// NewT parses a bit transceive request.
func NewT(data []byte) (*BaseMessage, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("bits: %w", ErrMalformed)
	}
	m := NewBaseMessage(OpBits, "Transceive bits")
	// Bit count (2).
	m.Fields["Bits"], data = data[:2], data[2:]
	if int(binary.BigEndian.Uint16(m.Fields["Bits"])) > len(data)*8 {
		return nil, fmt.Errorf("bits: count exceeds data: %w", ErrMalformed)
	}
	m.Fields["Data"] = data

	return m, nil
}

// NewX parses a byte transceive request.
func NewX(data []byte) *BaseMessage {
	m := NewBaseMessage(OpBytes, "Transceive bytes")
	m.Fields["Data"] = data

	return m
}

// NewP parses a property request.
func NewP(data []byte) (*BaseMessage, error) {
	if len(data) != 2 {
		return nil, fmt.Errorf("property: %w", ErrMalformed)
	}
	m := NewBaseMessage(OpProperty, "Set property")
	m.Fields["Property"], data = data[:1], data[1:]
	m.Fields["Enable"] = data[:1]

	return m, nil
}

// NewM parses a MIFARE command request.
func NewM(data []byte) (*BaseMessage, error) {
	if len(data) != mifareLen {
		return nil, fmt.Errorf("mifare: %w", ErrMalformed)
	}
	m := NewBaseMessage(OpMifare, "MIFARE command")
	// Command (1).
	m.Fields["Command"], data = data[:1], data[1:]
	// Block (1).
	m.Fields["Block"], data = data[:1], data[1:]
	// Key (6).
	m.Fields["Key"], data = data[:6], data[6:]
	// Auth UID (4).
	m.Fields["UID"], data = data[:4], data[4:]
	// Data (16).
	m.Fields["Data"] = data[:16]

	return m, nil
}
