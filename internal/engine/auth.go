package engine

import (
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
)

// Authenticate opens the sector of block with the configured key type. With a
// key file the stored key is tried once. Otherwise the candidate keys are
// tried in order and the first match is recorded in the key store.
func (s *Session) Authenticate(block uint32) error {
	cmd := transceiver.AuthCommand(s.keyType)
	params := &transceiver.Params{UID: s.target.AuthUID()}

	if s.keys.Loaded() {
		k, err := s.keys.KeyFor(block, s.keyType)
		if err != nil {
			return err
		}
		params.Key = k
		if _, err := s.tr.Mifare(cmd, block, params); err != nil {
			s.fault()
			s.log.Error().
				Str("event", "auth_failed").
				Uint32("block", block).
				Str("key_type", s.keyType.String()).
				Err(err).
				Msg("key file key rejected")

			return fmt.Errorf(
				"block %02d (sector %02d): %w",
				block,
				mifare.SectorOf(block),
				errorcodes.ErrAuthenticationFailed,
			)
		}

		return nil
	}

	for i, k := range s.guesses(block) {
		params.Key = k
		if _, err := s.tr.Mifare(cmd, block, params); err == nil {
			s.keys.Record(block, s.keyType, k)
			s.log.Debug().
				Str("event", "key_found").
				Uint32("block", block).
				Str("key_type", s.keyType.String()).
				Int("attempt", i+1).
				Msg("key guessed")

			return nil
		}

		// A failed authentication leaves the card mute.
		if err := s.reselect(); err != nil {
			return err
		}
	}

	return fmt.Errorf(
		"block %02d (sector %02d): no candidate key matched: %w",
		block,
		mifare.SectorOf(block),
		errorcodes.ErrAuthenticationFailed,
	)
}

// guesses returns the candidate list, led by a key already found for the
// sector.
func (s *Session) guesses(block uint32) []mifare.Key {
	candidates := s.keys.Candidates()
	known, ok := s.keys.Known(block, s.keyType)
	if !ok {
		return candidates
	}

	out := []mifare.Key{known}
	for _, k := range candidates {
		if k != known {
			out = append(out, k)
		}
	}

	return out
}
