package errorcodes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardErrorFormatting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TL: Tag was removed or could not be reselected", ErrTagLost.Error())
	assert.Equal(t, "SV", ErrSafetyViolation.CodeOnly())
}

func TestCardErrorWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("sector 3: %w", ErrAuthenticationFailed)
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
	assert.False(t, errors.Is(err, ErrTransport))

	var ce CardError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, "AU", ce.Code)
}

func TestLookupUniqueCodes(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, e := range All {
		assert.False(t, seen[e.Code], "duplicate code %s", e.Code)
		seen[e.Code] = true

		got, ok := Lookup(e.Code)
		assert.True(t, ok)
		assert.Equal(t, e, got)
	}

	_, ok := Lookup("ZZ")
	assert.False(t, ok)
}
