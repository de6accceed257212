package engine

import (
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/rs/zerolog"
)

var ratsFrame = []byte{0xE0, 0x50}

// CardInfo is what discovery learned about the card in the field.
type CardInfo struct {
	Target  *transceiver.Target
	Size    mifare.CardSize
	Classic bool
	Magic2  bool
	ATS     []byte
}

// Blocks returns the block count of the card.
func (c *CardInfo) Blocks() int {
	return c.Size.Blocks()
}

// Discover selects the card in the field and guesses its size. Cards that
// answer RATS are probed for MIFARE Plus 2K and gen2 magic ATS values.
func Discover(tr transceiver.Transceiver, log zerolog.Logger) (*CardInfo, error) {
	if err := tr.SetProperty(transceiver.InfiniteSelect, false); err != nil {
		return nil, fmt.Errorf("disable infinite select: %w: %w", errorcodes.ErrTransport, err)
	}
	// Emulated Classic cards also advertise ISO14443-4.
	_ = tr.SetProperty(transceiver.AutoISO14443_4, false)

	t, err := tr.SelectTarget(nil)
	if err != nil || t == nil {
		return nil, fmt.Errorf("no tag was found: %w", errorcodes.ErrTagNotFound)
	}
	if err := checkUID(t); err != nil {
		return nil, err
	}

	info := &CardInfo{
		Target:  t,
		Classic: mifare.IsClassic(t.SAK),
		Size:    mifare.GuessSize(t.ATQA, t.SAK),
	}
	if !info.Classic {
		log.Warn().
			Str("event", "not_classic").
			Uint8("sak", t.SAK).
			Msg("tag is probably not a MIFARE Classic")
	}

	ats, err := probeRATS(tr)
	if len(ats) > 0 {
		info.ATS = ats
		plus2K, magic2 := mifare.ClassifyATS(ats, t.ATQA)
		if plus2K {
			info.Size = mifare.Size2K
		}
		info.Magic2 = magic2
	}
	if err != nil {
		return nil, err
	}

	// The probe may have changed the card state, select it again.
	t, err = tr.SelectTarget(nil)
	if err != nil || t == nil {
		return nil, fmt.Errorf("tag disappeared: %w", errorcodes.ErrTagLost)
	}
	if err := checkUID(t); err != nil {
		return nil, err
	}
	info.Target = t

	log.Info().
		Str("event", "card_found").
		Str("uid", fmt.Sprintf("%X", t.UID)).
		Str("atqa", fmt.Sprintf("%X", t.ATQA[:])).
		Uint8("sak", t.SAK).
		Str("size", info.Size.String()).
		Bool("magic2", info.Magic2).
		Msgf("guessing size: seems to be a %d-byte card", info.Size.Bytes())

	return info, nil
}

// checkUID rejects targets whose UID is too short to authenticate against.
func checkUID(t *transceiver.Target) error {
	if len(t.UID) < mifare.UIDSize {
		return fmt.Errorf("tag UID of %d bytes: %w", len(t.UID), errorcodes.ErrTagNotFound)
	}

	return nil
}

// probeRATS sends RATS in raw framing and returns the ATS, if any. After an
// answer the field is cycled to get the card back to ISO14443-3.
func probeRATS(tr transceiver.Transceiver) ([]byte, error) {
	if err := tr.SetProperty(transceiver.EasyFraming, false); err != nil {
		return nil, fmt.Errorf("disable easy framing: %w: %w", errorcodes.ErrTransport, err)
	}

	ats, err := tr.TransceiveBytes(ratsFrame)
	if err != nil {
		ats = nil
	}

	if err := tr.SetProperty(transceiver.EasyFraming, true); err != nil {
		return ats, fmt.Errorf("enable easy framing: %w: %w", errorcodes.ErrTransport, err)
	}

	if len(ats) > 0 {
		_ = tr.SetProperty(transceiver.ActivateField, false)
		_ = tr.SetProperty(transceiver.ActivateField, true)
	}

	return ats, nil
}
