package engine

import (
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/dump"
	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/keystore"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Mode selects between reading and writing.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// KeySource derives extra candidate keys from the card UID.
type KeySource interface {
	CandidateKeys(uid []byte) ([]mifare.Key, error)
}

// Request describes one invocation.
type Request struct {
	Mode     Mode
	KeyType  mifare.KeyType
	Sectors  []int
	DumpPath string
	KeyPath  string // empty selects guess mode
	Append   bool   // read into the existing dump instead of a blank one
	Unlock   bool
	Force    bool // use the key file even when its UID does not match
	Tolerant bool
	Extra    []mifare.Key
}

// Summary is the outcome of a run.
type Summary struct {
	RunID   string
	Card    *CardInfo
	Results []Result
}

// Runner executes requests against a reader.
type Runner struct {
	FS       afero.Fs
	Open     func() (transceiver.Transceiver, error)
	Observer Observer
	Logger   zerolog.Logger
	Keys     KeySource
}

// Run validates the request, opens the reader and processes the sectors in
// order. A read dump is persisted after every sector read that ran to its
// end. A bad BCC or a lost tag stops the run; other sector failures are
// collected and returned together at the end.
func (r *Runner) Run(req Request) (*Summary, error) {
	sum := &Summary{RunID: uuid.NewString()}
	log := r.Logger.With().Str("run_id", sum.RunID).Logger()

	if len(req.Sectors) == 0 {
		return sum, fmt.Errorf("sector id is missing: %w", errorcodes.ErrInvalidSector)
	}
	for _, s := range req.Sectors {
		if !mifare.ValidSectorID(s) {
			return sum, fmt.Errorf("sector %d: %w", s, errorcodes.ErrInvalidSector)
		}
	}

	// The card size is unknown yet, only the UID can be checked.
	var fileUID [mifare.UIDSize]byte
	if req.KeyPath != "" {
		uid, err := keystore.PeekFile(r.FS, req.KeyPath)
		if err != nil {
			return sum, err
		}
		fileUID = uid
	}

	tr, err := r.Open()
	if err != nil {
		return sum, fmt.Errorf("error opening NFC reader: %w", err)
	}
	defer tr.Close()
	log.Info().Str("event", "reader_opened").Str("reader", tr.String()).Msg("NFC reader opened")

	card, err := Discover(tr, log)
	if err != nil {
		return sum, err
	}
	sum.Card = card

	keys, err := r.loadKeys(req, card)
	if err != nil {
		return sum, err
	}

	if req.KeyPath != "" && !keys.VerifyUID(card.Target.UID) {
		log.Warn().
			Str("event", "uid_mismatch").
			Str("expected", fmt.Sprintf("%X", fileUID[:])).
			Str("got", fmt.Sprintf("%X", card.Target.UID)).
			Bool("forced", req.Force).
			Msg("key file UID does not match the card")
		if !req.Force {
			return sum, fmt.Errorf(
				"expected UID starting as %X: %w",
				fileUID[:],
				errorcodes.ErrUIDMismatch,
			)
		}
	}

	var d *dump.Dump
	if req.Mode == ModeRead && !req.Append {
		d = dump.New(card.Blocks())
	} else {
		d, err = dump.ReadFile(r.FS, req.DumpPath, card.Blocks())
		if err != nil {
			return sum, err
		}
	}

	sess := NewSession(tr, card.Target, keys, d,
		WithKeyType(req.KeyType),
		WithTolerance(req.Tolerant),
		WithMagic2(card.Magic2),
		WithObserver(r.Observer),
		WithLogger(log),
	)

	var failed []error
	for _, sector := range req.Sectors {
		var res Result
		if req.Mode == ModeRead {
			res, err = sess.ReadSector(sector, req.Unlock)
			if err == nil {
				if werr := dump.WriteFile(r.FS, req.DumpPath, d); werr != nil {
					return sum, werr
				}
				log.Info().
					Str("event", "dump_written").
					Str("path", req.DumpPath).
					Int("sector", sector).
					Msg("dump written")
			}
		} else {
			res, err = sess.WriteSector(sector, req.Unlock)
		}
		sum.Results = append(sum.Results, res)

		if err == nil {
			continue
		}
		if errors.Is(err, errorcodes.ErrSafetyViolation) || errors.Is(err, errorcodes.ErrTagLost) {
			return sum, err
		}
		failed = append(failed, fmt.Errorf("sector %d: %w", sector, err))
	}

	if len(failed) > 0 {
		return sum, fmt.Errorf(
			"%d of %d sectors failed: %w",
			len(failed),
			len(req.Sectors),
			errors.Join(failed...),
		)
	}

	return sum, nil
}

func (r *Runner) loadKeys(req Request, card *CardInfo) (*keystore.Store, error) {
	if req.KeyPath != "" {
		return keystore.LoadFile(r.FS, req.KeyPath, card.Blocks())
	}

	keys := keystore.New(card.Blocks())
	keys.AddCandidates(req.Extra...)
	if r.Keys != nil {
		derived, err := r.Keys.CandidateKeys(card.Target.UID)
		if err != nil {
			r.Logger.Warn().Err(err).Msg("key source plugins failed")
		}
		keys.AddCandidates(derived...)
	}

	return keys, nil
}
