package isp

import (
	"errors"
	"fmt"
	"io"
)

// User data field decoding (S1-IF-ASD-PL-0007, section 3.3 and section 4).
//
// The 2·nq complex samples of a packet are split into four channels: even
// and odd indexed I samples (Ie, Io) and even and odd indexed Q samples
// (Qe, Qo). Each channel is encoded separately and padded to a 16-bit word
// boundary; the decoded channels are re-interleaved into acquisition order.

const (
	// fdbaqBlockSize is the number of samples per channel in one BAQ block
	// (128 even + 128 odd = 256 complex samples per block).
	fdbaqBlockSize = 128

	brcCodeBits = 3
	thidxBits   = 8
)

// ErrUDFLengthMismatch reports an FDBAQ user data field whose decoded
// content does not fill the field up to the trailing 32-bit fill boundary.
var ErrUDFLengthMismatch = errors.New("user data field length mismatch")

// udfWorkspace holds the scratch buffers the user data decoders reuse
// across packets: the raw field bytes, the unpacked bit sequence and the
// per-channel code and value slices. Besides the decoded sample sequence
// handed to the caller, only the small per-block rate code and threshold
// index slices are allocated per packet.
type udfWorkspace struct {
	raw   []byte
	bits  []uint8
	codes [4][]uint8
	dec   [4][]float32
}

// rawBuf returns the reusable raw field buffer resized to n bytes.
func (w *udfWorkspace) rawBuf(n int) []byte {
	if cap(w.raw) < n {
		w.raw = make([]byte, n)
	}
	w.raw = w.raw[:n]
	return w.raw
}

func (w *udfWorkspace) bitBuf(n int) []uint8 {
	if cap(w.bits) < n {
		w.bits = make([]uint8, n)
	}
	w.bits = w.bits[:n]
	return w.bits
}

func (w *udfWorkspace) codeBuf(c, n int) []uint8 {
	if cap(w.codes[c]) < n {
		w.codes[c] = make([]uint8, n)
	}
	w.codes[c] = w.codes[c][:n]
	return w.codes[c]
}

func (w *udfWorkspace) decBuf(c, n int) []float32 {
	if cap(w.dec[c]) < n {
		w.dec[c] = make([]float32, n)
	}
	w.dec[c] = w.dec[c][:n]
	return w.dec[c]
}

// DataFormatType discriminates the four user data layouts
// (section 3.3.2, table 3.3-2).
type DataFormatType byte

const (
	DataFormatA DataFormatType = 'A' // bypass data, bypassed receive module
	DataFormatB DataFormatType = 'B' // bypass data, operational receive module
	DataFormatC DataFormatType = 'C' // BAQ 3/4/5 bit
	DataFormatD DataFormatType = 'D' // FDBAQ
)

// GetDataFormatType returns the user data layout selected by the BAQ mode
// and test mode combination.
func GetDataFormatType(baqMode BAQMode, testMode TestMode) (DataFormatType, error) {
	bypass := testMode == TestModeBypass || testMode == TestModeContingencyBypassed
	oper := testMode == TestModeDefault || testMode == TestModeOper ||
		testMode == TestModeContingencyOperational

	switch {
	case bypass && baqMode == BAQModeBypass:
		return DataFormatA, nil
	case oper && baqMode == BAQModeBypass:
		return DataFormatB, nil
	case oper && (baqMode == BAQMode3Bit || baqMode == BAQMode4Bit || baqMode == BAQMode5Bit):
		return DataFormatC, nil
	case oper && (baqMode == BAQModeFDBAQ0 || baqMode == BAQModeFDBAQ1 || baqMode == BAQModeFDBAQ2):
		return DataFormatD, nil
	}
	return 0, fmt.Errorf("invalid combination: baq_mode=%s, test_mode=%s", baqMode, testMode)
}

// alignQuads interleaves the four decoded channels back into acquisition
// order: I[0]=Ie[0], Q[0]=Qe[0], I[1]=Io[0], Q[1]=Qo[0], I[2]=Ie[1], ...
func alignQuads(ie, io, qe, qo []float32, nq int) []complex64 {
	out := make([]complex64, 2*nq)
	for i := 0; i < nq; i++ {
		out[2*i] = complex(ie[i], qe[i])
		out[2*i+1] = complex(io[i], qo[i])
	}
	return out
}

// bypassDecode handles data formats A and B: every sample is a 10-bit
// sign-and-magnitude code (section 4.2).
func bypassDecode(ws *udfWorkspace, data []byte, nq int) ([]complex64, error) {
	const bitsPerSample = 10
	nw := (bitsPerSample*nq + 15) / 16 // 16-bit words per channel
	nbytes := 2 * nw
	if len(data) < 4*nbytes {
		return nil, io.ErrUnexpectedEOF
	}

	for c := 0; c < 4; c++ {
		r := newBitReader(data[c*nbytes : (c+1)*nbytes])
		samples := ws.decBuf(c, nq)
		for i := 0; i < nq; i++ {
			code, err := r.read(bitsPerSample)
			if err != nil {
				return nil, err
			}
			v := bypassLUT[code&0x1FF]
			if code>>9 != 0 {
				v = -v
			}
			samples[i] = v
		}
	}
	return alignQuads(ws.dec[0], ws.dec[1], ws.dec[2], ws.dec[3], nq), nil
}

// baqDecode handles data format C: block adaptive quantisation to 3, 4 or
// 5 bits (section 4.3). Each Qe block leads with the 8-bit threshold index
// shared by all four channels of that block.
func baqDecode(ws *udfWorkspace, data []byte, nq int, mode BAQMode, blocksize int) ([]complex64, error) {
	bitsPerSample := int(mode)
	nb := (nq + blocksize - 1) / blocksize

	nwIE := (bitsPerSample*nq + 15) / 16
	nwQE := (bitsPerSample*nq + thidxBits*nb + 15) / 16
	if len(data) < 2*(3*nwIE+nwQE) {
		return nil, io.ErrUnexpectedEOF
	}

	segment := func(off, nw int) *bitReader {
		return newBitReader(data[off : off+2*nw])
	}
	readCodes := func(r *bitReader, dst []uint8) error {
		for i := range dst {
			c, err := r.read(bitsPerSample)
			if err != nil {
				return err
			}
			dst[i] = uint8(c)
		}
		return nil
	}

	ie := ws.codeBuf(0, nq)
	if err := readCodes(segment(0, nwIE), ie); err != nil {
		return nil, err
	}
	io_ := ws.codeBuf(1, nq)
	if err := readCodes(segment(2*nwIE, nwIE), io_); err != nil {
		return nil, err
	}

	// Qe carries one threshold index per block ahead of the sample codes
	qeReader := segment(4*nwIE, nwQE)
	qe := ws.codeBuf(2, nq)
	thidx := make([]uint8, nb)
	for b := 0; b < nb; b++ {
		ti, err := qeReader.read(thidxBits)
		if err != nil {
			return nil, err
		}
		thidx[b] = uint8(ti)
		i0 := b * blocksize
		i1 := i0 + blocksize
		if i1 > nq {
			i1 = nq
		}
		if err := readCodes(qeReader, qe[i0:i1]); err != nil {
			return nil, err
		}
	}

	qo := ws.codeBuf(3, nq)
	if err := readCodes(segment(4*nwIE+2*nwQE, nwIE), qo); err != nil {
		return nil, err
	}

	decIE := ws.decBuf(0, nq)
	decIO := ws.decBuf(1, nq)
	decQE := ws.decBuf(2, nq)
	decQO := ws.decBuf(3, nq)
	for b := 0; b < nb; b++ {
		lut, err := baqLUT(mode, thidx[b])
		if err != nil {
			return nil, err
		}
		i0 := b * blocksize
		i1 := i0 + blocksize
		if i1 > nq {
			i1 = nq
		}
		for i := i0; i < i1; i++ {
			decIE[i] = lut[ie[i]]
			decIO[i] = lut[io_[i]]
			decQE[i] = lut[qe[i]]
			decQO[i] = lut[qo[i]]
		}
	}
	return alignQuads(decIE, decIO, decQE, decQO, nq), nil
}

// unpackBitsInto expands data into dst, one bit per byte, MSB first. dst
// must hold len(data)*8 entries.
func unpackBitsInto(dst []uint8, data []byte) {
	for i, b := range data {
		off := i * 8
		for j := 0; j < 8; j++ {
			dst[off+j] = (b >> uint(7-j)) & 1
		}
	}
}

// unpackBits expands data into one bit per byte, MSB first.
func unpackBits(data []byte) []uint8 {
	bits := make([]uint8, len(data)*8)
	unpackBitsInto(bits, data)
	return bits
}

// fdbaqDecode handles data format D: flexible dynamic BAQ, the baseline
// compression for echo data (section 4.4). Ie blocks lead with the 3-bit
// rate code reused by the other channels; Qe blocks lead with the 8-bit
// threshold index.
func fdbaqDecode(ws *udfWorkspace, data []byte, nq int, blocksize int) ([]complex64, error) {
	bits := ws.bitBuf(len(data) * 8)
	unpackBitsInto(bits, data)
	nb := (nq + blocksize - 1) / blocksize

	brcData := make([]BRCCode, nb)
	thidx := make([]uint8, nb)
	ie := ws.codeBuf(0, nq)
	io_ := ws.codeBuf(1, nq)
	qe := ws.codeBuf(2, nq)
	qo := ws.codeBuf(3, nq)

	idx := 0
	alignTo16 := func(start int) {
		consumed := idx - start
		idx = start + (consumed+15)/16*16
	}

	// Ie: per-block BRC selector followed by the coded samples
	start := idx
	for b := 0; b < nb; b++ {
		if idx+brcCodeBits > len(bits) {
			return nil, io.ErrUnexpectedEOF
		}
		brc := BRCCode(bits[idx]<<2 | bits[idx+1]<<1 | bits[idx+2])
		if brc > BRC4 {
			return nil, &InvalidBRCError{Value: uint8(brc)}
		}
		brcData[b] = brc
		idx += brcCodeBits
		i0 := b * blocksize
		i1 := i0 + blocksize
		if i1 > nq {
			i1 = nq
		}
		n, err := huffmanDecode(brc, bits[idx:], i1-i0, ie[i0:i1])
		if err != nil {
			return nil, err
		}
		idx += n
	}
	alignTo16(start)

	// Io: same per-block BRCs, no selectors
	start = idx
	for b := 0; b < nb; b++ {
		i0 := b * blocksize
		i1 := i0 + blocksize
		if i1 > nq {
			i1 = nq
		}
		if idx > len(bits) {
			return nil, io.ErrUnexpectedEOF
		}
		n, err := huffmanDecode(brcData[b], bits[idx:], i1-i0, io_[i0:i1])
		if err != nil {
			return nil, err
		}
		idx += n
	}
	alignTo16(start)

	// Qe: per-block threshold index followed by the coded samples
	start = idx
	for b := 0; b < nb; b++ {
		if idx+thidxBits > len(bits) {
			return nil, io.ErrUnexpectedEOF
		}
		var ti uint8
		for j := 0; j < thidxBits; j++ {
			ti = ti<<1 | bits[idx+j]
		}
		thidx[b] = ti
		idx += thidxBits
		i0 := b * blocksize
		i1 := i0 + blocksize
		if i1 > nq {
			i1 = nq
		}
		n, err := huffmanDecode(brcData[b], bits[idx:], i1-i0, qe[i0:i1])
		if err != nil {
			return nil, err
		}
		idx += n
	}
	alignTo16(start)

	// Qo
	start = idx
	for b := 0; b < nb; b++ {
		i0 := b * blocksize
		i1 := i0 + blocksize
		if i1 > nq {
			i1 = nq
		}
		if idx > len(bits) {
			return nil, io.ErrUnexpectedEOF
		}
		n, err := huffmanDecode(brcData[b], bits[idx:], i1-i0, qo[i0:i1])
		if err != nil {
			return nil, err
		}
		idx += n
	}
	alignTo16(start)

	// the decoded content, filled up to a 32-bit boundary, must span the
	// whole field; anything else means the coded stream is malformed
	withFill := (idx/8 + 3) / 4 * 4 * 8
	if withFill != len(bits) {
		return nil, fmt.Errorf("%w: consumed %d of %d bits", ErrUDFLengthMismatch, withFill, len(bits))
	}

	decIE := ws.decBuf(0, nq)
	decIO := ws.decBuf(1, nq)
	decQE := ws.decBuf(2, nq)
	decQO := ws.decBuf(3, nq)
	for b := 0; b < nb; b++ {
		lut, err := fdbaqLUT(brcData[b], thidx[b])
		if err != nil {
			return nil, err
		}
		i0 := b * blocksize
		i1 := i0 + blocksize
		if i1 > nq {
			i1 = nq
		}
		for i := i0; i < i1; i++ {
			if int(ie[i]) >= len(lut) || int(io_[i]) >= len(lut) ||
				int(qe[i]) >= len(lut) || int(qo[i]) >= len(lut) {
				return nil, &InvalidCodeError{Mode: brcData[b].String(), Code: uint32(ie[i])}
			}
			decIE[i] = lut[ie[i]]
			decIO[i] = lut[io_[i]]
			decQE[i] = lut[qe[i]]
			decQO[i] = lut[qo[i]]
		}
	}
	return alignQuads(decIE, decIO, decQE, decQO, nq), nil
}

// decodeUserData dispatches on the data format type, reusing the scratch
// buffers in ws across calls.
func decodeUserData(ws *udfWorkspace, data []byte, nq int, baqMode BAQMode, testMode TestMode, blocksize int) ([]complex64, error) {
	if nq == 0 {
		return nil, nil
	}
	if blocksize <= 0 {
		blocksize = fdbaqBlockSize
	}
	format, err := GetDataFormatType(baqMode, testMode)
	if err != nil {
		return nil, err
	}
	switch format {
	case DataFormatA, DataFormatB:
		return bypassDecode(ws, data, nq)
	case DataFormatC:
		return baqDecode(ws, data, nq, baqMode, blocksize)
	default:
		return fdbaqDecode(ws, data, nq, blocksize)
	}
}

// DecodeUserData decodes a packet's user data field into 2·nq complex
// samples. The blocksize argument is the BAQ block length in samples per
// channel (BAQBlockLengthSamples()/2, 128 for all flown configurations);
// zero selects the default. Callers decoding many packets should drive a
// StreamDecoder instead, which keeps one scratch workspace alive across
// packets.
func DecodeUserData(data []byte, nq int, baqMode BAQMode, testMode TestMode, blocksize int) ([]complex64, error) {
	var ws udfWorkspace
	return decodeUserData(&ws, data, nq, baqMode, testMode, blocksize)
}
