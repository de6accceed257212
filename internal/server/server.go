// Package server exposes a local reader to remote go_mfra clients over TCP.
package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	anetserver "github.com/andrei-cloud/anet/server"
	"github.com/andrei-cloud/go_mfra/internal/logging"
	"github.com/andrei-cloud/go_mfra/internal/message"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/rs/zerolog/log"
)

// logAdapter implements anet.Logger using zerolog.
type logAdapter struct{}

func (l logAdapter) Print(v ...any) {
	log.Info().Msg(fmt.Sprint(v...))
}

func (l logAdapter) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Infof(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Warnf(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func (l logAdapter) Errorf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}

// Server wraps the anet TCP server around a single reader.
type Server struct {
	address     string
	srv         *anetserver.Server
	mu          sync.Mutex // serialises access to tr
	tr          transceiver.Transceiver
	activeConns int32
}

// NewServer configures a bridge for tr. One client is served at a time.
func NewServer(address string, tr transceiver.Transceiver) (*Server, error) {
	cfg := &anetserver.ServerConfig{
		MaxConns:        1,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     0 * time.Second, // disable idle connection closure.
		ShutdownTimeout: 5 * time.Second,
		Logger:          logAdapter{},
	}

	s := &Server{
		address: address,
		tr:      tr,
	}
	srv, err := anetserver.NewServer(address, anetserver.HandlerFunc(s.handle), cfg)
	if err != nil {
		return nil, fmt.Errorf("server setup failed: %w", err)
	}
	s.srv = srv

	return s, nil
}

// Start begins listening for connections.
func (s *Server) Start() error {
	log.Info().
		Str("address", s.address).
		Str("reader", s.tr.String()).
		Msg("bridge started")

	return s.srv.Start()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	return s.srv.Stop()
}

func (s *Server) handle(conn *anetserver.ServerConn, data []byte) ([]byte, error) {
	client := conn.Conn.RemoteAddr().String()
	active := atomic.AddInt32(&s.activeConns, 1)
	defer atomic.AddInt32(&s.activeConns, -1)

	start := time.Now()
	m, err := message.Parse(data)
	if err != nil {
		log.Error().
			Str("event", "malformed_request").
			Str("client_ip", client).
			Err(err).
			Msg("malformed request")

		return nil, errors.New("malformed request")
	}
	op := string(m.Op())
	logging.LogRequest(client, op, data, int(active))
	log.Debug().Str("event", "request_trace").Msg(m.Trace())

	s.mu.Lock()
	payload, execErr := s.execute(m)
	s.mu.Unlock()

	if execErr != nil {
		log.Warn().
			Str("event", "reader_error").
			Str("client_ip", client).
			Str("op", op).
			Err(execErr).
			Msg("reader command failed")
	}

	resp := message.EncodeResponse(execErr, payload)
	logging.LogResponse(client, op, resp[0], resp[1:], time.Since(start))

	return resp, nil
}

// execute runs a parsed request on the reader.
func (s *Server) execute(m *message.BaseMessage) ([]byte, error) {
	switch m.Op() {
	case message.OpSelect:
		uid := m.Get("UID")
		if len(uid) == 0 {
			uid = nil
		}
		t, err := s.tr.SelectTarget(uid)
		if err != nil {
			return nil, err
		}
		return message.EncodeTarget(t), nil

	case message.OpBits:
		bits := int(m.Get("Bits")[0])<<8 | int(m.Get("Bits")[1])
		rx, rxBits, err := s.tr.TransceiveBits(m.Get("Data"), bits)
		if err != nil {
			return nil, err
		}
		return message.EncodeBitsAnswer(rx, rxBits), nil

	case message.OpBytes:
		return s.tr.TransceiveBytes(m.Get("Data"))

	case message.OpProperty:
		p := transceiver.Property(m.Get("Property")[0])
		return nil, s.tr.SetProperty(p, m.Get("Enable")[0] != 0)

	case message.OpMifare:
		cmd := transceiver.Command(m.Get("Command")[0])
		block := uint32(m.Get("Block")[0])
		return s.tr.Mifare(cmd, block, message.Params(m))

	case message.OpName:
		return []byte(s.tr.String()), nil
	}

	return nil, fmt.Errorf("op %q: %w", m.Op(), message.ErrMalformed)
}
