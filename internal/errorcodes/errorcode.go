// Package errorcodes defines card access errors using a structured type.
// CardError holds a short code and a human-readable description.
package errorcodes

// Predefined card access errors.
var (
	ErrTransport = CardError{
		"TR",
		"Transceiver round-trip failed",
	}
	ErrAuthenticationFailed = CardError{
		"AU",
		"Authentication failed: no key matched or key rejected",
	}
	ErrFormat = CardError{
		"FM",
		"Dump or key file size does not match the card layout",
	}
	ErrUIDMismatch = CardError{
		"UI",
		"Key file UID does not match the card UID",
	}
	ErrSafetyViolation = CardError{
		"SV",
		"Block 0 BCC is invalid, refusing to write",
	}
	ErrTagLost       = CardError{"TL", "Tag was removed or could not be reselected"}
	ErrTagNotFound   = CardError{"TN", "No tag was found"}
	ErrNotApplicable = CardError{
		"NA",
		"Unlock is not required for this card",
	}
	ErrUnlockFailed  = CardError{"UF", "Magic card unlock failed"}
	ErrNotFound      = CardError{"NF", "No key file loaded"}
	ErrSectorAborted = CardError{
		"SA",
		"Sector operation aborted after a block failure",
	}
	ErrInvalidSector = CardError{"IS", "Sector id must be an integer between 0 and 15"}
)

// All lists every predefined error, in code order of declaration.
var All = []CardError{
	ErrTransport,
	ErrAuthenticationFailed,
	ErrFormat,
	ErrUIDMismatch,
	ErrSafetyViolation,
	ErrTagLost,
	ErrTagNotFound,
	ErrNotApplicable,
	ErrUnlockFailed,
	ErrNotFound,
	ErrSectorAborted,
	ErrInvalidSector,
}

// CardError represents a card access error with its code and description.
type CardError struct {
	Code        string // two-character error code
	Description string // human-readable description
}

// Error implements the Go error interface: "<Code>: <Description>".
func (e CardError) Error() string {
	return e.Code + ": " + e.Description
}

// CodeOnly returns only the error code (e.g., "TL"), for embedding in bridge responses.
func (e CardError) CodeOnly() string {
	return e.Code
}

// Lookup returns the predefined error with the given code.
func Lookup(code string) (CardError, bool) {
	for _, e := range All {
		if e.Code == code {
			return e, true
		}
	}

	return CardError{}, false
}
