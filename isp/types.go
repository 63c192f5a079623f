// Package isp provides structs and functions for decoding Sentinel-1 SAR
// Instrument Source Packets (ISPs).
//
// The documents used and referenced in this package:
//  • S1-IF-ASD-PL-0007: "Sentinel-1 SAR Space Packet Protocol Data Unit" (packet layout, LUTs, decoding algorithms)
//  • S1PD.SP.00110.ASTR: "Sentinel-1 Level-0 Product Format" (index and annotation companion files)
package isp

import (
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// RefFreq is the instrument reference frequency in MHz; all radar
	// timing fields count periods of 1/RefFreq microseconds.
	RefFreq = 37.53472224

	// SyncMarker sits at offset 12 of every packet, right after the datation
	// service (section 3.2.2.1), and is the primary reacquisition anchor.
	SyncMarker = 0x352EF853

	// PrimaryHeaderSize is the CCSDS primary header size in bytes (section 3.1).
	PrimaryHeaderSize = 6

	// SecondaryHeaderSize is the packet secondary header size in bytes (section 3.2).
	SecondaryHeaderSize = 62
)

var (
	// ErrTruncatedStream reports a stream that ends inside a packet.
	ErrTruncatedStream = errors.New("stream truncated mid-packet")

	errNotByteAligned = errors.New("bit cursor is not byte aligned")
)

// InvalidPacketError reports a primary or secondary header sanity check
// failure. DecodeSecondaryHeader returns the decoded header alongside it,
// and the stream decoder attaches a secondary header failure to the
// emitted record so callers can choose to skip, count or halt. A primary
// header failure ends the stream. With Options.Resync set, either failure
// triggers a resynchronization instead and no record is emitted for that
// packet.
type InvalidPacketError struct {
	Reason string
	Offset int64
}

func (e *InvalidPacketError) Error() string {
	return fmt.Sprintf("invalid packet at offset %d: %s", e.Offset, e.Reason)
}

// InvalidBRCError reports an FDBAQ rate code selector outside 0..4.
type InvalidBRCError struct {
	Value uint8
}

func (e *InvalidBRCError) Error() string {
	return fmt.Sprintf("invalid BRC code: %d", e.Value)
}

// InvalidCodeError reports a sample code with no reconstruction table entry.
type InvalidCodeError struct {
	Mode string
	Code uint32
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid %s sample code: %d", e.Mode, e.Code)
}

// PrimaryHeader is the 6-byte CCSDS packet primary header (section 3.1).
type PrimaryHeader struct {
	PacketVersionNumber uint8  // 3 bits, always 0
	PacketType          uint8  // 1 bit
	SecondaryHeaderFlag bool   // always set for ISPs
	PID                 uint8  // 7 bits, process identifier
	PCAT                uint8  // 4 bits, packet category
	SequenceFlags       uint8  // 2 bits, always 0b11 (stand-alone)
	PacketSequenceCount uint16 // 14 bits, wraps at 2^14
	PacketDataLength    uint16 // size of the packet data field minus one
}

// PacketSize returns the total on-wire packet size in bytes.
func (h PrimaryHeader) PacketSize() int {
	return PrimaryHeaderSize + int(h.PacketDataLength) + 1
}

// Validate checks the fields that are fixed for Sentinel-1 ISPs. A failure
// does not invalidate the decoded values.
func (h PrimaryHeader) Validate(offset int64) error {
	if h.PacketVersionNumber != 0 {
		return &InvalidPacketError{
			Reason: fmt.Sprintf("packet version number %d, expected 0", h.PacketVersionNumber),
			Offset: offset,
		}
	}
	if !h.SecondaryHeaderFlag {
		return &InvalidPacketError{Reason: "secondary header flag not set", Offset: offset}
	}
	if h.SequenceFlags != 3 {
		return &InvalidPacketError{
			Reason: fmt.Sprintf("sequence flags %#b, expected 0b11", h.SequenceFlags),
			Offset: offset,
		}
	}
	return nil
}

// DecodePrimaryHeader decodes the 6-byte primary header from buf.
func DecodePrimaryHeader(buf []byte) (PrimaryHeader, error) {
	var h PrimaryHeader
	r := newBitReader(buf)
	if r.remaining() < PrimaryHeaderSize*8 {
		return h, io.ErrUnexpectedEOF
	}
	v, _ := r.read(3)
	h.PacketVersionNumber = uint8(v)
	v, _ = r.read(1)
	h.PacketType = uint8(v)
	h.SecondaryHeaderFlag, _ = r.readBool()
	v, _ = r.read(7)
	h.PID = uint8(v)
	v, _ = r.read(4)
	h.PCAT = uint8(v)
	v, _ = r.read(2)
	h.SequenceFlags = uint8(v)
	v, _ = r.read(14)
	h.PacketSequenceCount = uint16(v)
	v, _ = r.read(16)
	h.PacketDataLength = uint16(v)
	return h, nil
}

// Datation is the Datation Service (section 3.2.1).
type Datation struct {
	CoarseTime uint32
	FineTime   uint16
}

// FineTimeSec returns the sub-second time stamp of the packet in seconds
// (section 3.2.1.2).
func (d Datation) FineTimeSec() float64 {
	return (float64(d.FineTime) + 0.5) * math.Pow(2, -16)
}

// FixedAncillary is the Fixed Ancillary Data Service (section 3.2.2).
type FixedAncillary struct {
	SyncMarker         uint32
	DataTakeID         uint32
	ECCNumber          ECCNumber
	TestMode           TestMode    // 3 bits
	RxChannelID        RxChannelID // 4 bits
	InstrumentConfigID uint32
}

// SubComAncillary is the Sub-Commutated Ancillary Data Service slot carried
// by each packet (section 3.2.3): one index byte and one 16-bit word of the
// 64-word satellite ancillary cycle.
type SubComAncillary struct {
	DataWordIndex uint8
	DataWord      [2]byte
}

// Counters is the Counters Service (section 3.2.4).
type Counters struct {
	SpacePacketCount uint32
	PRICount         uint32
}

// SASImgData is the SAS SSB block layout used during imaging operation
// (ssb_flag = 0, section 3.2.5.13.1).
type SASImgData struct {
	Polarization            Polarization
	TemperatureCompensation TemperatureCompensation
	ElevationBeamAddress    uint8  // 4 bits
	AzimuthBeamAddress      uint16 // 10 bits
}

// SASCalData is the SAS SSB block layout used during calibration
// (ssb_flag = 1, section 3.2.5.13.2).
type SASCalData struct {
	Polarization            Polarization
	TemperatureCompensation TemperatureCompensation
	SASTest                 SASTestMode
	CalType                 CalType
	CalibrationBeamAddress  uint16 // 10 bits
}

// SASData is the raw 24-bit SAS SSB block. The tail after the first 6 bits
// is a tagged union on SSBFlag; Img and Cal return the resolved views.
type SASData struct {
	SSBFlag                 bool
	Polarization            Polarization
	TemperatureCompensation TemperatureCompensation
	dynamicData             uint8  // 4 bits, meaning depends on SSBFlag
	beamAddress             uint16 // 10 bits
}

// Img resolves the SAS block as imaging data. Only meaningful when
// SSBFlag is false.
func (s SASData) Img() SASImgData {
	return SASImgData{
		Polarization:            s.Polarization,
		TemperatureCompensation: s.TemperatureCompensation,
		ElevationBeamAddress:    s.dynamicData,
		AzimuthBeamAddress:      s.beamAddress,
	}
}

// Cal resolves the SAS block as calibration data. Only meaningful when
// SSBFlag is true.
func (s SASData) Cal() SASCalData {
	return SASCalData{
		Polarization:            s.Polarization,
		TemperatureCompensation: s.TemperatureCompensation,
		SASTest:                 SASTestMode(s.dynamicData >> 3 & 1),
		CalType:                 CalType(s.dynamicData & 0b111),
		CalibrationBeamAddress:  s.beamAddress,
	}
}

// SESData is the 24-bit SES SSB block (section 3.2.5.14).
type SESData struct {
	CalMode       CalMode // 2 bits
	TxPulseNumber uint8   // 5 bits
	SignalType    SignalType
	Swap          bool
	SwathNumber   uint8
}

// RadarConfig is the Radar Configuration Support Service (section 3.2.5).
type RadarConfig struct {
	ErrorFlag        bool
	BAQMode          BAQMode // 5 bits
	BAQBlockLength   uint8
	RangeDecimation  RangeDecimation
	RxGain           uint8
	TxRampRate       uint16
	TxPulseStartFreq uint16
	TxPulseLength    uint32 // 24 bits
	Rank             uint8  // 5 bits
	PRI              uint32 // 24 bits
	SWST             uint32 // 24 bits
	SWL              uint32 // 24 bits
	SAS              SASData
	SES              SESData
}

// BAQBlockLengthSamples returns the number of complex radar samples per BAQ
// block (section 3.2.5.3).
func (c RadarConfig) BAQBlockLengthSamples() int {
	return 8 * (int(c.BAQBlockLength) + 1)
}

// RangeDecimationInfo returns the decimation parameters for the packet's
// range decimation code.
func (c RadarConfig) RangeDecimationInfo() (RangeDecimationInfo, error) {
	return LookupRangeDecimation(c.RangeDecimation)
}

// RxGainDB returns the receiver gain in dB (section 3.2.5.5).
func (c RadarConfig) RxGainDB() float64 {
	return -0.5 * float64(c.RxGain)
}

// txRampRateMHzPerUsec decodes the 16-bit sign-and-magnitude ramp rate
// field (section 3.2.5.6).
func (c RadarConfig) txRampRateMHzPerUsec() float64 {
	sign := -1.0
	if c.TxRampRate>>15 != 0 {
		sign = 1.0
	}
	value := float64(c.TxRampRate & 0x7FFF)
	return sign * value * RefFreq * RefFreq / (1 << 21)
}

// TxRampRateHzPerSec returns the Tx pulse ramp rate in Hz/s (section 3.2.5.6).
func (c RadarConfig) TxRampRateHzPerSec() float64 {
	return c.txRampRateMHzPerUsec() * 1e12
}

// TxPulseStartFreqHz returns the Tx pulse start frequency in Hz
// (section 3.2.5.7).
func (c RadarConfig) TxPulseStartFreqHz() float64 {
	sign := -1.0
	if c.TxPulseStartFreq>>15 != 0 {
		sign = 1.0
	}
	value := float64(c.TxPulseStartFreq & 0x7FFF)
	return 1e6 * (c.txRampRateMHzPerUsec()/(4*RefFreq) + sign*value*RefFreq/(1<<14))
}

// TxPulseLengthSec returns the Tx pulse length in seconds (section 3.2.5.8).
func (c RadarConfig) TxPulseLengthSec() float64 {
	return float64(c.TxPulseLength) / RefFreq * 1e-6
}

// TxPulseLengthSamples returns the number of complex Tx pulse samples after
// decimation, N3_Tx (section 3.2.5.8).
func (c RadarConfig) TxPulseLengthSamples() (int, error) {
	info, err := c.RangeDecimationInfo()
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(c.TxPulseLengthSec() * info.SamplingFrequency())), nil
}

// PRISec returns the Pulse Repetition Interval in seconds (section 3.2.5.10).
func (c RadarConfig) PRISec() float64 {
	return float64(c.PRI) / RefFreq * 1e-6
}

// SWSTSec returns the Sampling Window Start Time in seconds (section 3.2.5.11).
func (c RadarConfig) SWSTSec() float64 {
	return float64(c.SWST) / RefFreq * 1e-6
}

// DeltaTSupprSec returns the duration of the decimation filter transient in
// seconds (section 3.2.5.11).
func (c RadarConfig) DeltaTSupprSec() float64 {
	return 320.0 / 8 / RefFreq * 1e-6
}

// SWSTAfterDecimationSec returns the sampling window start time corrected
// for the decimation filter transient (section 3.2.5.11).
func (c RadarConfig) SWSTAfterDecimationSec() float64 {
	return (float64(c.SWST) + 320.0/8) / RefFreq * 1e-6
}

// SWLSec returns the Sampling Window Length in seconds (section 3.2.5.12).
func (c RadarConfig) SWLSec() float64 {
	return float64(c.SWL) / RefFreq * 1e-6
}

// N3RxSamples returns the number of complex samples (I/Q pairs) in the
// sampling window after decimation (section 3.2.5.12). The two divisions
// truncate toward zero, matching the on-board arithmetic.
func (c RadarConfig) N3RxSamples() (int, error) {
	info, err := c.RangeDecimationInfo()
	if err != nil {
		return 0, err
	}
	offset, err := LookupFilterOutputOffset(c.RangeDecimation)
	if err != nil {
		return 0, err
	}
	num := info.Numerator
	den := info.Denominator
	b := 2*int(c.SWL) - offset - 17
	cval := b - den*(b/den)
	d, err := LookupDValue(c.RangeDecimation, cval)
	if err != nil {
		return 0, err
	}
	return 2 * (num*(b/den) + d + 1), nil
}

// N3RxSec returns the post-decimation sampling window length in seconds.
func (c RadarConfig) N3RxSec() (float64, error) {
	info, err := c.RangeDecimationInfo()
	if err != nil {
		return 0, err
	}
	n, err := c.N3RxSamples()
	if err != nil {
		return 0, err
	}
	return float64(n) / info.SamplingFrequency(), nil
}

// RadarSampleCount is the Radar Sample Count Service (section 3.2.6).
type RadarSampleCount struct {
	NumberOfQuads uint16 // complex I/Q pairs per packet
}

// SecondaryHeader is the 62-byte packet secondary header: the concatenation
// of the six packet services (section 3.2).
type SecondaryHeader struct {
	Datation         Datation
	FixedAncillary   FixedAncillary
	SubComAncillary  SubComAncillary
	Counters         Counters
	RadarConfig      RadarConfig
	RadarSampleCount RadarSampleCount
}

// service boundaries within the secondary header, in bits; decode checks
// the cursor against these to catch layout regressions
const (
	datationEndBit     = 48
	fixedAncEndBit     = 48 + 112
	subComEndBit       = fixedAncEndBit + 24
	countersEndBit     = subComEndBit + 64
	radarConfigEndBit  = countersEndBit + 224
	sampleCountEndBit  = radarConfigEndBit + 24
)

// DecodeSecondaryHeader decodes the 62-byte secondary header from buf. A
// sync marker mismatch is reported as *InvalidPacketError with the decoded
// record still returned; offset is only used to annotate errors.
func DecodeSecondaryHeader(buf []byte, offset int64) (SecondaryHeader, error) {
	var h SecondaryHeader
	r := newBitReader(buf)
	if r.remaining() < SecondaryHeaderSize*8 {
		return h, io.ErrUnexpectedEOF
	}

	// Datation Service
	h.Datation.CoarseTime, _ = r.read(32)
	v, _ := r.read(16)
	h.Datation.FineTime = uint16(v)
	if err := checkLayout(r, datationEndBit); err != nil {
		return h, err
	}

	// Fixed Ancillary Data Service
	h.FixedAncillary.SyncMarker, _ = r.read(32)
	h.FixedAncillary.DataTakeID, _ = r.read(32)
	v, _ = r.read(8)
	h.FixedAncillary.ECCNumber = ECCNumber(v)
	r.skip(1) // n/a
	v, _ = r.read(3)
	h.FixedAncillary.TestMode = TestMode(v)
	v, _ = r.read(4)
	h.FixedAncillary.RxChannelID = RxChannelID(v)
	h.FixedAncillary.InstrumentConfigID, _ = r.read(32)
	if err := checkLayout(r, fixedAncEndBit); err != nil {
		return h, err
	}

	// Sub-Commutated Ancillary Data Service
	v, _ = r.read(8)
	h.SubComAncillary.DataWordIndex = uint8(v)
	word, err := r.readBytes(2)
	if err != nil {
		return h, err
	}
	copy(h.SubComAncillary.DataWord[:], word)
	if err := checkLayout(r, subComEndBit); err != nil {
		return h, err
	}

	// Counters Service
	h.Counters.SpacePacketCount, _ = r.read(32)
	h.Counters.PRICount, _ = r.read(32)
	if err := checkLayout(r, countersEndBit); err != nil {
		return h, err
	}

	// Radar Configuration Support Service
	cfg := &h.RadarConfig
	cfg.ErrorFlag, _ = r.readBool()
	r.skip(2)
	v, _ = r.read(5)
	cfg.BAQMode = BAQMode(v)
	v, _ = r.read(8)
	cfg.BAQBlockLength = uint8(v)
	r.skip(8)
	v, _ = r.read(8)
	cfg.RangeDecimation = RangeDecimation(v)
	v, _ = r.read(8)
	cfg.RxGain = uint8(v)
	v, _ = r.read(16)
	cfg.TxRampRate = uint16(v)
	v, _ = r.read(16)
	cfg.TxPulseStartFreq = uint16(v)
	cfg.TxPulseLength, _ = r.read(24)
	r.skip(3)
	v, _ = r.read(5)
	cfg.Rank = uint8(v)
	cfg.PRI, _ = r.read(24)
	cfg.SWST, _ = r.read(24)
	cfg.SWL, _ = r.read(24)

	// SAS SSB block
	cfg.SAS.SSBFlag, _ = r.readBool()
	v, _ = r.read(3)
	cfg.SAS.Polarization = Polarization(v)
	v, _ = r.read(2)
	cfg.SAS.TemperatureCompensation = TemperatureCompensation(v)
	r.skip(2)
	v, _ = r.read(4)
	cfg.SAS.dynamicData = uint8(v)
	r.skip(2)
	v, _ = r.read(10)
	cfg.SAS.beamAddress = uint16(v)

	// SES SSB block
	v, _ = r.read(2)
	cfg.SES.CalMode = CalMode(v)
	r.skip(1)
	v, _ = r.read(5)
	cfg.SES.TxPulseNumber = uint8(v)
	v, _ = r.read(4)
	cfg.SES.SignalType = SignalType(v)
	r.skip(3)
	cfg.SES.Swap, _ = r.readBool()
	v, _ = r.read(8)
	cfg.SES.SwathNumber = uint8(v)
	if err := checkLayout(r, radarConfigEndBit); err != nil {
		return h, err
	}

	// Radar Sample Count Service
	v, _ = r.read(16)
	h.RadarSampleCount.NumberOfQuads = uint16(v)
	r.skip(8)
	if err := checkLayout(r, sampleCountEndBit); err != nil {
		return h, err
	}

	if h.FixedAncillary.SyncMarker != SyncMarker {
		return h, &InvalidPacketError{
			Reason: fmt.Sprintf("sync marker %#08x, expected %#08x",
				h.FixedAncillary.SyncMarker, uint32(SyncMarker)),
			Offset: offset,
		}
	}
	return h, nil
}

func checkLayout(r *bitReader, wantBit int) error {
	if r.pos != wantBit {
		return fmt.Errorf("secondary header layout error: cursor at bit %d, expected %d", r.pos, wantBit)
	}
	return nil
}
