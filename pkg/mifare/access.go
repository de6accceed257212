package mifare

import (
	"errors"
	"fmt"
)

// ErrAccessBitsInverted is returned when the inverted copy of the access
// conditions does not match the plain copy.
var ErrAccessBitsInverted = errors.New("access bits fail inverted-copy check")

// Condition holds the C1 C2 C3 access bits for one block group.
type Condition struct {
	C1, C2, C3 bool
}

// Code returns the condition as a 3-bit number C1C2C3.
func (c Condition) Code() byte {
	var v byte
	if c.C1 {
		v |= 4
	}
	if c.C2 {
		v |= 2
	}
	if c.C3 {
		v |= 1
	}

	return v
}

// String returns the bits as "C1C2C3", e.g. "001".
func (c Condition) String() string {
	return fmt.Sprintf("%03b", c.Code())
}

var dataConditions = [8]string{
	0: "read AB, write AB, increment AB, decrement AB",
	1: "read AB, decrement AB",
	2: "read AB",
	3: "read B, write B",
	4: "read AB, write B",
	5: "read B",
	6: "read AB, write B, increment B, decrement AB",
	7: "never",
}

var trailerConditions = [8]string{
	0: "key A write A, access read A, key B read/write A",
	1: "key A write A, access read/write A, key B read/write A",
	2: "access read A, key B read A",
	3: "key A write B, access read AB write B, key B write B",
	4: "key A write B, access read AB, key B write B",
	5: "access read AB write B",
	6: "access read AB",
	7: "access read AB",
}

// Describe returns a short human readable form of the condition for a data
// block group, or for the trailer group when trailer is set.
func (c Condition) Describe(trailer bool) string {
	if trailer {
		return trailerConditions[c.Code()]
	}

	return dataConditions[c.Code()]
}

// AccessConditions are the decoded conditions of the four block groups of a
// sector. Group 3 is the trailer.
type AccessConditions [4]Condition

// DecodeAccess decodes bytes 6..8 of a trailer. The error is non-nil when the
// inverted copy disagrees; the decoded plain copy is returned either way.
func DecodeAccess(access [AccessBitsSize]byte) (AccessConditions, error) {
	var ac AccessConditions
	b6, b7, b8 := access[0], access[1], access[2]

	var err error
	for i := uint(0); i < 4; i++ {
		c := Condition{
			C1: (b7>>(4+i))&1 == 1,
			C2: (b8>>i)&1 == 1,
			C3: (b8>>(4+i))&1 == 1,
		}
		ac[i] = c

		nc1 := (b6>>i)&1 == 1
		nc2 := (b6>>(4+i))&1 == 1
		nc3 := (b7>>i)&1 == 1
		if nc1 == c.C1 || nc2 == c.C2 || nc3 == c.C3 {
			err = ErrAccessBitsInverted
		}
	}

	return ac, err
}

// EncodeAccess builds bytes 6..8 of a trailer from the conditions. The fourth
// byte (general purpose byte) is set to gpb.
func EncodeAccess(ac AccessConditions, gpb byte) [AccessBitsSize]byte {
	var b6, b7, b8 byte
	for i := uint(0); i < 4; i++ {
		c := ac[i]
		if c.C1 {
			b7 |= 1 << (4 + i)
		} else {
			b6 |= 1 << i
		}
		if c.C2 {
			b8 |= 1 << i
		} else {
			b6 |= 1 << (4 + i)
		}
		if c.C3 {
			b8 |= 1 << (4 + i)
		} else {
			b7 |= 1 << i
		}
	}

	return [AccessBitsSize]byte{b6, b7, b8, gpb}
}

// TransportAccess is the factory access configuration FF 07 80 69.
var TransportAccess = [AccessBitsSize]byte{0xFF, 0x07, 0x80, 0x69}
