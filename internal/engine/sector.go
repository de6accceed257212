package engine

import (
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
)

// Result is the outcome of one sector operation.
type Result struct {
	Sector    int
	Processed int // blocks read or written successfully
	Size      int
	Completed bool // the sector ran to its last block
}

// ReadSector reads a sector trailer first, down to its first block, into the
// dump. When unlocked is set the card is unlocked first and the trailer is
// copied as is; otherwise the keys come from the key store and only the
// access bits from the card.
func (s *Session) ReadSector(sector int, unlocked bool) (Result, error) {
	first, trailer, res, err := s.bounds(sector)
	if err != nil {
		return res, err
	}
	log := s.log.With().Str("op", "read").Int("sector", sector).Logger()

	if err := s.begin(unlocked); err != nil {
		return s.abort(OpRead, res, err)
	}

	s.observer.SectorStarted(OpRead, sector, trailer, first)
	for b := int64(trailer); b >= int64(first); b-- {
		block := uint32(b)

		var ok bool
		if mifare.IsTrailerBlock(block) {
			if err := s.reselectIfFaulted(); err != nil {
				return s.abort(OpRead, res, err)
			}
			if !unlocked {
				if err := s.Authenticate(block); err != nil {
					return s.abort(OpRead, res, err)
				}
			}
			ok = s.readTrailer(block, unlocked)
		} else {
			ready, err := s.resume(block, unlocked)
			if err != nil {
				return s.abort(OpRead, res, err)
			}
			ok = ready && s.readData(block)
		}

		if !s.tally(OpRead, &res, block, ok) {
			log.Warn().Str("event", "sector_aborted").Uint32("block", block).Msg("block failed")
			return s.abort(OpRead, res, fmt.Errorf(
				"sector %d block %d: %w", sector, block, errorcodes.ErrSectorAborted,
			))
		}
	}

	return s.finish(OpRead, res), nil
}

// WriteSector writes a sector from its first block up to the trailer. Block
// 0 is only written with writeBlockZero (which unlocks the card first) or on
// gen2 cards, and never with a bad BCC.
func (s *Session) WriteSector(sector int, writeBlockZero bool) (Result, error) {
	first, trailer, res, err := s.bounds(sector)
	if err != nil {
		return res, err
	}
	log := s.log.With().Str("op", "write").Int("sector", sector).Logger()

	if err := s.begin(writeBlockZero); err != nil {
		return s.abort(OpWrite, res, err)
	}

	s.observer.SectorStarted(OpWrite, sector, first, trailer)
	for block := first; block <= trailer; block++ {
		if mifare.IsFirstBlock(block) {
			if err := s.reselectIfFaulted(); err != nil {
				return s.abort(OpWrite, res, err)
			}
			if !writeBlockZero {
				if err := s.Authenticate(block); err != nil {
					return s.abort(OpWrite, res, err)
				}
			}
		}

		var ok bool
		if mifare.IsTrailerBlock(block) {
			ready, err := s.resume(block, writeBlockZero)
			if err != nil {
				return s.abort(OpWrite, res, err)
			}
			ok = ready && s.writeBlock(block, s.dump.Trailer(block).Bytes())
		} else {
			// The manufacturer block is read-only on genuine cards.
			if block == 0 && !writeBlockZero && !s.magic2 {
				continue
			}

			data := s.dump.Block(block)
			if block == 0 && !s.magic2 && !mifare.CheckBCC(data) {
				log.Error().
					Str("event", "bcc_invalid").
					Uint8("expected", mifare.BCC(data[:mifare.UIDSize])).
					Uint8("found", data[4]).
					Msg("incorrect BCC in dump")

				return s.abort(OpWrite, res, fmt.Errorf(
					"expecting BCC=%02X: %w",
					mifare.BCC(data[:mifare.UIDSize]),
					errorcodes.ErrSafetyViolation,
				))
			}

			ready, err := s.resume(block, writeBlockZero)
			if err != nil {
				return s.abort(OpWrite, res, err)
			}
			ok = ready && s.writeBlock(block, data)
		}

		if !s.tally(OpWrite, &res, block, ok) {
			log.Warn().Str("event", "sector_aborted").Uint32("block", block).Msg("block failed")
			return s.abort(OpWrite, res, fmt.Errorf(
				"sector %d block %d: %w", sector, block, errorcodes.ErrSectorAborted,
			))
		}
	}

	return s.finish(OpWrite, res), nil
}

func (s *Session) bounds(sector int) (first, trailer uint32, res Result, err error) {
	res = Result{Sector: sector}
	if !mifare.ValidSectorID(sector) {
		return 0, 0, res, fmt.Errorf("sector %d: %w", sector, errorcodes.ErrInvalidSector)
	}

	first, trailer = mifare.SectorBounds(sector)
	res.Size = int(trailer-first) + 1
	if !s.dump.Contains(trailer) {
		return 0, 0, res, fmt.Errorf(
			"sector %d is beyond a %d-block card: %w",
			sector,
			s.dump.Blocks(),
			errorcodes.ErrInvalidSector,
		)
	}

	return first, trailer, res, nil
}

// begin prepares the card for a sector operation. A pending fault is cleared
// before the unlock so the backdoor survives until the first block.
func (s *Session) begin(bypass bool) error {
	if !bypass {
		return nil
	}
	if err := s.reselectIfFaulted(); err != nil {
		return err
	}

	return s.Unlock()
}

// resume reselects and reopens the sector after a failed block. It reports
// false when the sector could not be reopened, in which case the block is
// skipped. Only a lost tag is returned as an error.
func (s *Session) resume(block uint32, bypass bool) (bool, error) {
	if s.state != Faulted {
		return true, nil
	}
	if err := s.reselect(); err != nil {
		return false, err
	}

	var err error
	if bypass {
		err = s.Unlock()
	} else {
		err = s.Authenticate(block)
	}
	if err != nil {
		s.fault()
		s.log.Warn().
			Str("event", "resume_failed").
			Uint32("block", block).
			Err(err).
			Msg("skipping block")

		return false, nil
	}

	return true, nil
}

func (s *Session) readTrailer(block uint32, raw bool) bool {
	data, err := s.tr.Mifare(transceiver.Read, block, nil)
	if err != nil || len(data) < mifare.BlockSize {
		s.fault()
		s.log.Warn().Uint32("block", block).Err(err).Msg("failed to read trailer block")
		return false
	}

	var live [mifare.BlockSize]byte
	copy(live[:], data)
	if raw {
		s.dump.SetBlock(block, live)
		return true
	}

	// Keys read back from a card are masked, keep the known ones.
	known := s.keys.Trailer(block)
	tr := s.dump.Trailer(block)
	tr.KeyA = known.KeyA
	tr.Access = mifare.ParseTrailer(live).Access
	tr.KeyB = known.KeyB
	s.dump.SetTrailer(block, tr)

	return true
}

func (s *Session) readData(block uint32) bool {
	data, err := s.tr.Mifare(transceiver.Read, block, nil)
	if err != nil || len(data) < mifare.BlockSize {
		s.fault()
		s.log.Warn().Uint32("block", block).Err(err).Msg("unable to read block")
		return false
	}

	var blk [mifare.BlockSize]byte
	copy(blk[:], data)
	s.dump.SetBlock(block, blk)

	return true
}

func (s *Session) writeBlock(block uint32, data [mifare.BlockSize]byte) bool {
	if _, err := s.tr.Mifare(transceiver.Write, block, &transceiver.Params{Data: data}); err != nil {
		s.fault()
		s.log.Warn().Uint32("block", block).Err(err).Msg("failed to write block")
		return false
	}

	return true
}

// tally reports a block and tells whether the operation may go on.
func (s *Session) tally(op Op, res *Result, block uint32, ok bool) bool {
	if ok {
		res.Processed++
	}
	s.observer.BlockDone(op, block, ok)

	return ok || s.tolerant
}

func (s *Session) finish(op Op, res Result) Result {
	res.Completed = true
	s.observer.SectorFinished(op, res.Sector, res.Processed, res.Size)
	s.log.Info().
		Str("event", "sector_done").
		Str("op", op.String()).
		Int("sector", res.Sector).
		Int("processed", res.Processed).
		Int("size", res.Size).
		Msgf("%d of %d blocks %s", res.Processed, res.Size, op.Past())

	return res
}

func (s *Session) abort(op Op, res Result, err error) (Result, error) {
	s.observer.SectorAborted(op, res.Sector, err)
	s.log.Error().
		Str("event", "sector_failed").
		Str("op", op.String()).
		Int("sector", res.Sector).
		Int("processed", res.Processed).
		Err(err).
		Msg("sector failed")

	return res, err
}
