package main

import (
	"testing"

	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	t.Parallel()

	keys := derive([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	assert.Len(t, keys, 3)
	assert.Equal(t, mifare.Key{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00}, keys[0])
	assert.Equal(t, mifare.Key{0xDE, 0xAD, 0xBE, 0xEF, 0xFF, 0xFF}, keys[1])
	assert.Equal(t, byte(0xDE^0xA5), keys[2][0])
	assert.Equal(t, byte(0xDE^0xA9), keys[2][4])
}
