package isp

// Test helpers: a bit writer mirroring the decoder's bit reader, Huffman
// encoders for the five BRC trees, and a synthetic packet builder.

// bitWriter packs MSB-first bit fields into a byte slice.
type bitWriter struct {
	buf  []byte
	nbit int
}

func (w *bitWriter) write(n int, v uint32) {
	for i := n - 1; i >= 0; i-- {
		bit := byte(v>>uint(i)) & 1
		if w.nbit%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if bit != 0 {
			w.buf[len(w.buf)-1] |= 1 << uint(7-w.nbit%8)
		}
		w.nbit++
	}
}

func (w *bitWriter) writeBool(v bool) {
	if v {
		w.write(1, 1)
	} else {
		w.write(1, 0)
	}
}

func (w *bitWriter) alignWord() {
	for w.nbit%16 != 0 {
		w.write(1, 0)
	}
}

func (w *bitWriter) align32() {
	for w.nbit%32 != 0 {
		w.write(1, 0)
	}
}

func (w *bitWriter) bytes() []byte { return w.buf }

// huffmanCodes lists the magnitude code words per BRC, taken from
// table 5.2-1: codeword bits as a string of '0'/'1'.
var huffmanCodes = [5][]string{
	{"0", "10", "110", "111"},
	{"0", "10", "110", "1110", "1111"},
	{"0", "10", "110", "1110", "11110", "111110", "111111"},
	{"00", "01", "10", "110", "1110", "11110", "111110", "1111110", "11111110", "11111111"},
	{
		"00", "010", "011", "100", "101", "1100", "1101", "1110",
		"11110", "111110", "11111100", "11111101", "111111100", "111111101",
		"111111110", "111111111",
	},
}

// encodeHuffman appends the sign bit and magnitude code word of one
// sign-and-magnitude sample code for the given BRC.
func encodeHuffman(w *bitWriter, brc BRCCode, code uint8) {
	magmax := brcMagCount[brc] - 1
	mag := int(code)
	sign := uint32(0)
	if mag > magmax {
		sign = 1
		mag -= magmax + 1
	}
	w.write(1, sign)
	for _, c := range huffmanCodes[brc][mag] {
		if c == '1' {
			w.write(1, 1)
		} else {
			w.write(1, 0)
		}
	}
}

// huffmanCodeLen returns the number of bits (sign included) of one encoded
// sample.
func huffmanCodeLen(brc BRCCode, code uint8) int {
	magmax := brcMagCount[brc] - 1
	mag := int(code)
	if mag > magmax {
		mag -= magmax + 1
	}
	return 1 + len(huffmanCodes[brc][mag])
}

// unpackTestBits turns a packed buffer into one bit per byte.
func unpackTestBits(data []byte) []uint8 {
	return unpackBits(data)
}

// secondaryHeaderFields is the synthetic fixture used to build secondary
// headers in wire format.
type secondaryHeaderFields struct {
	coarseTime       uint32
	fineTime         uint16
	syncMarker       uint32
	dataTakeID       uint32
	eccNum           uint8
	testMode         uint8
	rxChannelID      uint8
	instrumentConfig uint32
	dataWordIndex    uint8
	dataWord         [2]byte
	spacePacketCount uint32
	priCount         uint32
	errorFlag        bool
	baqMode          uint8
	baqBlockLength   uint8
	rangeDecimation  uint8
	rxGain           uint8
	txRampRate       uint16
	txPulseStartFreq uint16
	txPulseLength    uint32
	rank             uint8
	pri              uint32
	swst             uint32
	swl              uint32
	ssbFlag          bool
	polarization     uint8
	tempComp         uint8
	sasDynamic       uint8
	sasBeam          uint16
	calMode          uint8
	txPulseNumber    uint8
	signalType       uint8
	swap             bool
	swathNumber      uint8
	numberOfQuads    uint16
}

func defaultSecondaryHeaderFields() secondaryHeaderFields {
	return secondaryHeaderFields{
		coarseTime:       1276273467,
		fineTime:         0x8000,
		syncMarker:       SyncMarker,
		dataTakeID:       0x00123456,
		eccNum:           3, // s3
		testMode:         0, // default
		rxChannelID:      0,
		instrumentConfig: 1,
		dataWordIndex:    1,
		dataWord:         [2]byte{0xAB, 0xCD},
		spacePacketCount: 0,
		priCount:         0,
		baqMode:          0, // bypass
		baqBlockLength:   31,
		rangeDecimation:  4, // x4_on_9
		rxGain:           10,
		txRampRate:       0x8800,
		txPulseStartFreq: 0x8123,
		txPulseLength:    1498,
		rank:             9,
		pri:              21859,
		swst:             3681,
		swl:              10000,
		polarization:     7, // v_vh
		tempComp:         3,
		sasDynamic:       0x5,
		sasBeam:          0x155,
		calMode:          0,
		txPulseNumber:    4,
		signalType:       0, // echo
		swathNumber:      2,
		numberOfQuads:    16,
	}
}

// encodeSecondaryHeader builds the 62-byte wire representation.
func encodeSecondaryHeader(f secondaryHeaderFields) []byte {
	w := &bitWriter{}
	w.write(32, f.coarseTime)
	w.write(16, uint32(f.fineTime))
	w.write(32, f.syncMarker)
	w.write(32, f.dataTakeID)
	w.write(8, uint32(f.eccNum))
	w.write(1, 0)
	w.write(3, uint32(f.testMode))
	w.write(4, uint32(f.rxChannelID))
	w.write(32, f.instrumentConfig)
	w.write(8, uint32(f.dataWordIndex))
	w.write(8, uint32(f.dataWord[0]))
	w.write(8, uint32(f.dataWord[1]))
	w.write(32, f.spacePacketCount)
	w.write(32, f.priCount)
	w.writeBool(f.errorFlag)
	w.write(2, 0)
	w.write(5, uint32(f.baqMode))
	w.write(8, uint32(f.baqBlockLength))
	w.write(8, 0)
	w.write(8, uint32(f.rangeDecimation))
	w.write(8, uint32(f.rxGain))
	w.write(16, uint32(f.txRampRate))
	w.write(16, uint32(f.txPulseStartFreq))
	w.write(24, f.txPulseLength)
	w.write(3, 0)
	w.write(5, uint32(f.rank))
	w.write(24, f.pri)
	w.write(24, f.swst)
	w.write(24, f.swl)
	w.writeBool(f.ssbFlag)
	w.write(3, uint32(f.polarization))
	w.write(2, uint32(f.tempComp))
	w.write(2, 0)
	w.write(4, uint32(f.sasDynamic))
	w.write(2, 0)
	w.write(10, uint32(f.sasBeam))
	w.write(2, uint32(f.calMode))
	w.write(1, 0)
	w.write(5, uint32(f.txPulseNumber))
	w.write(4, uint32(f.signalType))
	w.write(3, 0)
	w.writeBool(f.swap)
	w.write(8, uint32(f.swathNumber))
	w.write(16, uint32(f.numberOfQuads))
	w.write(8, 0)
	return w.bytes()
}

// encodeBypassUDF encodes 2*nq complex samples as 10-bit sign-and-magnitude
// codes in the four-channel bypass layout. Sample values must be integral
// magnitudes in [-511, 511].
func encodeBypassUDF(samples []complex64) []byte {
	nq := len(samples) / 2
	channel := func(get func(i int) float32) []byte {
		w := &bitWriter{}
		for i := 0; i < nq; i++ {
			v := get(i)
			sign := uint32(0)
			if v < 0 {
				sign = 1
				v = -v
			}
			w.write(10, sign<<9|uint32(v))
		}
		w.alignWord()
		return w.bytes()
	}
	out := channel(func(i int) float32 { return real(samples[2*i]) })
	out = append(out, channel(func(i int) float32 { return real(samples[2*i+1]) })...)
	out = append(out, channel(func(i int) float32 { return imag(samples[2*i]) })...)
	out = append(out, channel(func(i int) float32 { return imag(samples[2*i+1]) })...)
	return out
}

// buildPacket assembles a full on-wire packet from the secondary header
// fields and a raw user data field.
func buildPacket(f secondaryHeaderFields, udf []byte) []byte {
	sh := encodeSecondaryHeader(f)
	w := &bitWriter{}
	w.write(3, 0) // version
	w.write(1, 0) // packet type
	w.write(1, 1) // secondary header flag
	w.write(7, 65)
	w.write(4, 12)
	w.write(2, 3) // stand-alone
	w.write(14, 0)
	w.write(16, uint32(len(sh)+len(udf)-1))
	out := w.bytes()
	out = append(out, sh...)
	out = append(out, udf...)
	return out
}
