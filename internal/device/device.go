// Package device opens the reader selected by configuration.
package device

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/internal/transceiver/libnfc"
	"github.com/andrei-cloud/go_mfra/internal/transceiver/pcsc"
	"github.com/andrei-cloud/go_mfra/internal/transceiver/remote"
	"github.com/andrei-cloud/go_mfra/internal/transceiver/sim"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/rs/zerolog"
)

// Driver names.
const (
	LibNFC = "libnfc"
	PCSC   = "pcsc"
	Remote = "remote"
	Sim    = "sim"
)

// Options select and configure the reader.
type Options struct {
	Driver      string
	Connstring  string
	ReaderIndex int
}

var simUID = []byte{0x01, 0x02, 0x03, 0x04}

// Open returns the transceiver for opts.
func Open(opts Options, log zerolog.Logger) (transceiver.Transceiver, error) {
	log = log.With().Str("driver", opts.Driver).Logger()

	switch strings.ToLower(opts.Driver) {
	case LibNFC, "":
		return libnfc.Open(opts.Connstring, log)
	case PCSC:
		return pcsc.Open(opts.ReaderIndex, log)
	case Remote:
		if opts.Connstring == "" {
			return nil, fmt.Errorf("remote driver needs a bridge address: %w", errorcodes.ErrTransport)
		}
		return remote.Dial(opts.Connstring)
	case Sim:
		return OpenSim(opts.Connstring)
	default:
		return nil, fmt.Errorf("unknown driver %q: %w", opts.Driver, errorcodes.ErrTransport)
	}
}

// OpenSim builds a virtual card from "size[:uidhex]", e.g. "4k:DEADBEEF".
// An empty connstring gives a 1K card.
func OpenSim(connstring string) (*sim.Card, error) {
	size, uid := mifare.Size1K, simUID

	sizeStr, uidStr, _ := strings.Cut(connstring, ":")
	switch strings.ToLower(sizeStr) {
	case "", "1k":
	case "mini":
		size = mifare.SizeMini
	case "2k":
		size = mifare.Size2K
	case "4k":
		size = mifare.Size4K
	default:
		return nil, fmt.Errorf("sim size %q: %w", sizeStr, errorcodes.ErrTransport)
	}

	if uidStr != "" {
		b, err := hex.DecodeString(uidStr)
		if err != nil || (len(b) != 4 && len(b) != 7) {
			return nil, fmt.Errorf("sim uid %q: %w", uidStr, errorcodes.ErrTransport)
		}
		uid = b
	}

	return sim.NewCard(size, uid), nil
}
