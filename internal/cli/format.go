// Package cli contains utilities shared by the go_mfra commands.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/andrei-cloud/go_mfra/internal/transceiver"
)

// FormatHex renders b as upper case hex pairs separated by spaces.
func FormatHex(b []byte) string {
	if len(b) == 0 {
		return "-"
	}

	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}

	return strings.Join(parts, " ")
}

// PrintTarget writes the anticollision answers of t.
func PrintTarget(w io.Writer, t *transceiver.Target) {
	_, _ = fmt.Fprintf(w, "UID:  %s\n", FormatHex(t.UID))
	_, _ = fmt.Fprintf(w, "ATQA: %s\n", FormatHex(t.ATQA[:]))
	_, _ = fmt.Fprintf(w, "SAK:  %02X\n", t.SAK)
	_, _ = fmt.Fprintf(w, "ATS:  %s\n", FormatHex(t.ATS))
}
