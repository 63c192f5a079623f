package isp

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Property: for every BRC, decoding an encoded code sequence returns the
// sequence, and the consumed bit count equals the sum of the code lengths
// (sign bits included).
func TestHuffmanRoundTripAllBRCs(t *testing.T) {
	for brc := BRC0; brc <= BRC4; brc++ {
		ncodes := 2 * brcMagCount[brc] // both signs, including -0
		codes := make([]uint8, 0, 3*ncodes)
		for c := 0; c < ncodes; c++ {
			codes = append(codes, uint8(c))
		}
		// a second pass in reverse order exercises code transitions
		for c := ncodes - 1; c >= 0; c-- {
			codes = append(codes, uint8(c))
		}

		w := &bitWriter{}
		wantBits := 0
		for _, c := range codes {
			encodeHuffman(w, brc, c)
			wantBits += huffmanCodeLen(brc, c)
		}

		bits := unpackTestBits(w.bytes())
		out := make([]uint8, len(codes))
		n, err := huffmanDecode(brc, bits, len(codes), out)
		require.NoError(t, err, "brc %s", brc)
		assert.Equal(t, wantBits, n, "brc %s consumed bits", brc)
		assert.Equal(t, codes, out, "brc %s", brc)
	}
}

// The sign bit leads each sample and the +0/-0 pair is preserved: the
// negative half of the code space starts at magmax+1.
func TestHuffmanSignFolding(t *testing.T) {
	for brc := BRC0; brc <= BRC4; brc++ {
		magmax := brcMagCount[brc] - 1

		w := &bitWriter{}
		encodeHuffman(w, brc, 0)                 // +0
		encodeHuffman(w, brc, uint8(magmax+1))   // -0
		encodeHuffman(w, brc, uint8(magmax))     // +magmax
		encodeHuffman(w, brc, uint8(2*magmax+1)) // -magmax

		out := make([]uint8, 4)
		_, err := huffmanDecode(brc, unpackTestBits(w.bytes()), 4, out)
		require.NoError(t, err)
		assert.Equal(t, []uint8{0, uint8(magmax + 1), uint8(magmax), uint8(2*magmax + 1)}, out)
	}
}

// Hand-checked BRC2 vectors: a zero code bit terminates the chain, so
// sign=0 followed by code bit 0 yields +0 in two bits, and 0,1,0 yields +1
// in three bits.
func TestHuffmanBRC2Vectors(t *testing.T) {
	out := make([]uint8, 1)

	n := huffmanBRC2([]uint8{0, 0, 1, 0}, 1, out)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint8(0), out[0])

	n = huffmanBRC2([]uint8{0, 1, 0, 1}, 1, out)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint8(1), out[0])

	// sign=1 selects the negative half: 1,1,0 -> -1 = code 8
	n = huffmanBRC2([]uint8{1, 1, 0}, 1, out)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint8(8), out[0])

	// deepest code: six ones after the sign
	n = huffmanBRC2([]uint8{0, 1, 1, 1, 1, 1, 1}, 1, out)
	assert.Equal(t, 7, n)
	assert.Equal(t, uint8(6), out[0])
}

func TestHuffmanBRC4Branches(t *testing.T) {
	vectors := []struct {
		bits []uint8
		code uint8
	}{
		{[]uint8{0, 0, 0}, 0},                         // +0: 00
		{[]uint8{0, 0, 1, 0}, 1},                      // 010
		{[]uint8{0, 0, 1, 1}, 2},                      // 011
		{[]uint8{0, 1, 0, 0}, 3},                      // 100
		{[]uint8{0, 1, 0, 1}, 4},                      // 101
		{[]uint8{0, 1, 1, 0, 0}, 5},                   // 1100
		{[]uint8{0, 1, 1, 0, 1}, 6},                   // 1101
		{[]uint8{0, 1, 1, 1, 0}, 7},                   // 1110
		{[]uint8{0, 1, 1, 1, 1, 0}, 8},                // 11110
		{[]uint8{0, 1, 1, 1, 1, 1, 0}, 9},             // 111110
		{[]uint8{0, 1, 1, 1, 1, 1, 1, 0, 0}, 10},      // 11111100
		{[]uint8{0, 1, 1, 1, 1, 1, 1, 0, 1}, 11},      // 11111101
		{[]uint8{0, 1, 1, 1, 1, 1, 1, 1, 0, 0}, 12},   // 111111100
		{[]uint8{0, 1, 1, 1, 1, 1, 1, 1, 0, 1}, 13},   // 111111101
		{[]uint8{0, 1, 1, 1, 1, 1, 1, 1, 1, 0}, 14},   // 111111110
		{[]uint8{0, 1, 1, 1, 1, 1, 1, 1, 1, 1}, 15},   // 111111111
		{[]uint8{1, 0, 0}, 16},                        // -0
		{[]uint8{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, 31},   // -15
	}
	out := make([]uint8, 1)
	for _, v := range vectors {
		n := huffmanBRC4(v.bits, 1, out)
		assert.Equal(t, len(v.bits), n, "code %d", v.code)
		assert.Equal(t, v.code, out[0], "code %d", v.code)
	}
}

func TestHuffmanExhaustedInput(t *testing.T) {
	out := make([]uint8, 2)

	// two samples requested but only one encoded
	w := &bitWriter{}
	encodeHuffman(w, BRC0, 2)
	bits := unpackTestBits(w.bytes())[:4] // sign + "110"
	n := huffmanBRC0(bits, 2, out)
	assert.Equal(t, -4, n)

	// the dispatcher maps the negative count to an error
	_, err := huffmanDecode(BRC0, bits, 2, out)
	assert.Equal(t, io.ErrUnexpectedEOF, err)

	// input ends in the middle of a code word
	n = huffmanBRC3([]uint8{0, 1, 1}, 1, out)
	assert.Less(t, n, 0)
}

func TestHuffmanDecodeInvalidBRC(t *testing.T) {
	_, err := huffmanDecode(BRCCode(5), []uint8{0, 0}, 1, make([]uint8, 1))
	var invalid *InvalidBRCError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, uint8(5), invalid.Value)
}
