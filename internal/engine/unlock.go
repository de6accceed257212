package engine

import (
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
)

var (
	haltFrame = []byte{0x50, 0x00}
	unlock1   = []byte{0x40}
	unlock2   = []byte{0x43}
)

// Unlock opens the backdoor of a gen1 magic card, after which every block
// can be read and written without authentication. Gen2 cards need no unlock.
func (s *Session) Unlock() (err error) {
	if s.magic2 {
		return fmt.Errorf("gen2 card writes block 0 directly: %w", errorcodes.ErrNotApplicable)
	}

	defer func() {
		if rerr := s.restoreFraming(); rerr != nil && err == nil {
			err = unlockError("restore framing", rerr)
		}
		if err != nil {
			// The halted card needs anticollision before the next command.
			s.fault()
		}
	}()

	if err := s.tr.SetProperty(transceiver.HandleCRC, false); err != nil {
		return unlockError("disable crc", err)
	}
	if err := s.tr.SetProperty(transceiver.EasyFraming, false); err != nil {
		return unlockError("disable easy framing", err)
	}

	// The card halts without answering.
	halt := mifare.AppendCRCA(haltFrame)
	_, _ = s.tr.TransceiveBytes(halt)

	if _, _, err := s.tr.TransceiveBits(unlock1, 7); err != nil {
		return unlockError("unlock 1", err)
	}
	if _, err := s.tr.TransceiveBytes(unlock2); err != nil {
		return unlockError("unlock 2", err)
	}

	s.log.Debug().Str("event", "unlocked").Msg("magic card unlocked")

	return nil
}

// restoreFraming turns CRC handling and easy framing back on.
func (s *Session) restoreFraming() error {
	return errors.Join(
		s.tr.SetProperty(transceiver.HandleCRC, true),
		s.tr.SetProperty(transceiver.EasyFraming, true),
	)
}

func unlockError(step string, err error) error {
	return fmt.Errorf("%s: %w: %w", step, errorcodes.ErrUnlockFailed, err)
}
