// Package logging configures the zerolog logger and provides structured
// helpers for frame and bridge tracing.
package logging

import (
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger on stderr with the given level and format.
func InitLogger(debug, human bool) {
	InitLoggerTo(os.Stderr, debug, human)
}

// InitLoggerTo initializes the global logger writing to w.
func InitLoggerTo(w io.Writer, debug, human bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano         // always initialize base logger with timestamp.
	base := zerolog.New(w).With().Timestamp().Logger() // initialize base logger.
	if human {
		log.Logger = base.Output(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339Nano,
		}) // select output format.
	} else {
		log.Logger = base // use JSON logger.
	}
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel) // set debug level.
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel) // set info level.
	}
}

// Direction of a traced frame.
type Direction string

const (
	Sent     Direction = "frame_sent"
	Received Direction = "frame_received"
)

// LogFrame traces a raw frame at debug level. bits is the number of valid
// bits, or zero for whole bytes.
func LogFrame(l zerolog.Logger, dir Direction, data []byte, bits int) {
	if bits == 0 {
		bits = len(data) * 8
	}
	l.Debug().
		Str("event", string(dir)).
		Str("data_hex", hex.EncodeToString(data)).
		Int("bits", bits).
		Msg("frame")
}

// LogRequest logs a bridge request with structured fields.
func LogRequest(client string, op string, requestData []byte, activeConns int) {
	log.Info().
		Str("event", "request_received").
		Str("client_ip", client).
		Str("op", op).
		Str("request_hex", hex.EncodeToString(requestData)).
		Int("active_connections", activeConns).
		Msg("received request")
}

// LogResponse logs a bridge response with structured fields.
func LogResponse(client string, op string, status byte, responseData []byte, duration time.Duration) {
	log.Info().
		Str("event", "response_sent").
		Str("client_ip", client).
		Str("op", op).
		Uint8("status", status).
		Str("response_hex", hex.EncodeToString(responseData)).
		Str("duration", duration.String()).
		Msg("sent response")
}
