// Package message implements the reader bridge wire format. A request is an
// op byte followed by its payload; a response is a status byte followed by
// the answer. Length framing is left to the transport.
package message

import (
	"bytes"
	"fmt"
	"sort"
)

// Ops understood by the bridge.
const (
	OpSelect   byte = 'S'
	OpBits     byte = 'T'
	OpBytes    byte = 'X'
	OpProperty byte = 'P'
	OpMifare   byte = 'M'
	OpName     byte = 'N'
)

// Message defines the interface for bridge requests.
type Message interface {
	Get(field string) []byte
	Set(field string, val []byte)
	Op() byte
	Trace() string
}

// BaseMessage implements Message and holds the request fields.
type BaseMessage struct {
	op          byte
	description string
	Fields      map[string][]byte
}

// NewBaseMessage creates a new BaseMessage with the given op and description.
func NewBaseMessage(op byte, description string) *BaseMessage {
	return &BaseMessage{op: op, description: description, Fields: make(map[string][]byte)}
}

func (m *BaseMessage) Get(field string) []byte {
	return m.Fields[field]
}

func (m *BaseMessage) Set(field string, val []byte) {
	m.Fields[field] = val
}

func (m *BaseMessage) Op() byte {
	return m.op
}

// Description returns the human-readable op name.
func (m *BaseMessage) Description() string {
	return m.description
}

// Trace renders the message for debug logs, fields in name order.
func (m *BaseMessage) Trace() string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Op: %c (%s)\n", m.op, m.description))

	names := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		buf.WriteString(fmt.Sprintf("\t[%s]=%x\n", k, m.Fields[k]))
	}

	return buf.String()
}
