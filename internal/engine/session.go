// Package engine implements authenticated sector access on MIFARE Classic
// cards: key resolution, the magic card unlock and ordered block read/write
// with fault recovery.
package engine

import (
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/dump"
	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/keystore"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/rs/zerolog"
)

// Recovery is the fault state of a session.
type Recovery int

const (
	// Ready means the last command left the card selected.
	Ready Recovery = iota
	// Faulted means a command failed and the card must be reselected.
	Faulted
	// Reselecting is held while anticollision is redone.
	Reselecting
)

// String returns the state name.
func (r Recovery) String() string {
	switch r {
	case Ready:
		return "ready"
	case Faulted:
		return "faulted"
	case Reselecting:
		return "reselecting"
	default:
		return fmt.Sprintf("recovery(%d)", int(r))
	}
}

// Session owns the transceiver for the duration of a run and carries the
// state shared by consecutive sector operations.
type Session struct {
	tr       transceiver.Transceiver
	target   *transceiver.Target
	keys     *keystore.Store
	dump     *dump.Dump
	keyType  mifare.KeyType
	tolerant bool
	magic2   bool
	observer Observer
	log      zerolog.Logger
	state    Recovery
}

// Option configures a Session.
type Option func(*Session)

// WithKeyType selects the key used for authentication.
func WithKeyType(kt mifare.KeyType) Option {
	return func(s *Session) { s.keyType = kt }
}

// WithTolerance sets whether block failures are tolerated.
func WithTolerance(tolerant bool) Option {
	return func(s *Session) { s.tolerant = tolerant }
}

// WithMagic2 marks the card as a gen2 direct-write card.
func WithMagic2(magic2 bool) Option {
	return func(s *Session) { s.magic2 = magic2 }
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession creates a session on a selected target.
func NewSession(
	tr transceiver.Transceiver,
	target *transceiver.Target,
	keys *keystore.Store,
	d *dump.Dump,
	opts ...Option,
) *Session {
	s := &Session{
		tr:       tr,
		target:   target,
		keys:     keys,
		dump:     d,
		keyType:  mifare.KeyA,
		tolerant: true,
		observer: NopObserver{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Target returns the most recently selected target.
func (s *Session) Target() *transceiver.Target {
	return s.target
}

// State returns the recovery state.
func (s *Session) State() Recovery {
	return s.state
}

func (s *Session) fault() {
	s.state = Faulted
}

// reselect redoes anticollision on the current card.
func (s *Session) reselect() error {
	s.state = Reselecting
	t, err := s.tr.SelectTarget(s.target.UID)
	if err != nil || t == nil {
		s.state = Faulted
		if err == nil {
			err = errorcodes.ErrTagNotFound
		}
		s.log.Error().
			Str("event", "reselect_failed").
			Err(err).
			Msg("tag was removed")

		return fmt.Errorf("reselect: %w", errorcodes.ErrTagLost)
	}

	s.target = t
	s.state = Ready
	s.log.Debug().Str("event", "reselected").Msg("target reselected")

	return nil
}

// reselectIfFaulted clears a pending fault.
func (s *Session) reselectIfFaulted() error {
	if s.state != Faulted {
		return nil
	}

	return s.reselect()
}
