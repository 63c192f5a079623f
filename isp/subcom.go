package isp

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
)

// Sub-commutated ancillary data (S1-IF-ASD-PL-0007, section 3.2.3).
//
// Slow-changing satellite telemetry is multiplexed across consecutive
// packets: each packet carries one 16-bit word of a 64-word cycle plus the
// 1-based word index. A complete cycle is 128 bytes and splits into the
// position/velocity/time record (words 1..22), the attitude record (words
// 23..41) and the housekeeping temperature record (words 42..64).

// SubComLen is the number of data words in a complete cycle.
const SubComLen = 64

const (
	pvtFirstWord = 1
	attFirstWord = 23
	hkFirstWord  = 42

	pvtSize = 44 // bytes
	attSize = 38
	hkSize  = 46
)

// SubComItem is the per-packet sub-commutated slot forked off by the
// stream decoder.
type SubComItem struct {
	PacketCount   int
	PRICount      uint32
	DataWordIndex uint8
	DataWord      [2]byte
}

// PVTAncillary is the Position Velocity Time ancillary record (table 3.2-5).
type PVTAncillary struct {
	X, Y, Z    float64 // ECEF position [m]
	VX, VY, VZ float32 // ECEF velocity [m/s]
	TimeStamp  uint64  // 56-bit CUC time stamp
}

// PointingStatus carries the AOCS pointing flags (table 3.2-8).
type PointingStatus struct {
	AOCSOpMode AOCSOpMode
	RollError  bool
	PitchError bool
	YawError   bool
}

// AttitudeAncillary is the attitude ancillary record (table 3.2-6).
type AttitudeAncillary struct {
	Q0, Q1, Q2, Q3          float32 // attitude quaternion
	OmegaX, OmegaY, OmegaZ  float32 // angular rates [deg/s]
	TimeStamp               uint64  // 56-bit CUC time stamp
	PointingStatus          PointingStatus
}

// TileTemperature holds the three temperature codes of one antenna tile.
type TileTemperature struct {
	EFEH uint8 // electronic front end, H channel
	EFEV uint8 // electronic front end, V channel
	TA   uint8 // tile amplifier
}

// EFEHCelsius converts the H channel EFE code using the calibration LUT.
func (t TileTemperature) EFEHCelsius() (float64, error) { return LookupEFETemperature(t.EFEH) }

// EFEVCelsius converts the V channel EFE code using the calibration LUT.
func (t TileTemperature) EFEVCelsius() (float64, error) { return LookupEFETemperature(t.EFEV) }

// TACelsius converts the tile amplifier code using the calibration LUT.
func (t TileTemperature) TACelsius() (float64, error) { return LookupEFETemperature(t.TA) }

// HKTemperatureAncillary is the antenna and TGU temperature housekeeping
// record (table 3.2-9).
type HKTemperatureAncillary struct {
	UpdateStatus uint16
	Tiles        [14]TileTemperature
	TGU          uint8 // 7-bit code
}

// TGUCelsius converts the TGU code using the calibration LUT.
func (h HKTemperatureAncillary) TGUCelsius() (float64, error) {
	return LookupTGUTemperature(h.TGU)
}

// AncillaryData is a decoded sub-commutation cycle.
type AncillaryData struct {
	PVT PVTAncillary
	Att AttitudeAncillary
	HK  HKTemperatureAncillary
}

// SubComCycle is one accumulated cycle of sub-commutated words. Partial is
// set when the cycle was interrupted before all 64 words arrived.
type SubComCycle struct {
	Items   []SubComItem
	Partial bool
}

// Bytes concatenates the accumulated data words.
func (c *SubComCycle) Bytes() []byte {
	out := make([]byte, 0, 2*len(c.Items))
	for _, item := range c.Items {
		out = append(out, item.DataWord[:]...)
	}
	return out
}

// Decode demultiplexes a complete cycle into the named ancillary records.
func (c *SubComCycle) Decode() (*AncillaryData, error) {
	if c.Partial || len(c.Items) != SubComLen {
		return nil, fmt.Errorf("incomplete sub-commutated cycle: %d words", len(c.Items))
	}
	data := c.Bytes()

	var out AncillaryData
	if err := decodePVT(data[2*(pvtFirstWord-1):], &out.PVT); err != nil {
		return nil, err
	}
	if err := decodeAttitude(data[2*(attFirstWord-1):], &out.Att); err != nil {
		return nil, err
	}
	if err := decodeHKTemperature(data[2*(hkFirstWord-1):], &out.HK); err != nil {
		return nil, err
	}
	return &out, nil
}

func decodePVT(buf []byte, out *PVTAncillary) error {
	if len(buf) < pvtSize {
		return io.ErrUnexpectedEOF
	}
	r := newBitReader(buf[:pvtSize])
	out.X = readFloat64(r)
	out.Y = readFloat64(r)
	out.Z = readFloat64(r)
	out.VX = readFloat32(r)
	out.VY = readFloat32(r)
	out.VZ = readFloat32(r)
	r.skip(8)
	out.TimeStamp = read56(r)
	return nil
}

func decodeAttitude(buf []byte, out *AttitudeAncillary) error {
	if len(buf) < attSize {
		return io.ErrUnexpectedEOF
	}
	r := newBitReader(buf[:attSize])
	out.Q0 = readFloat32(r)
	out.Q1 = readFloat32(r)
	out.Q2 = readFloat32(r)
	out.Q3 = readFloat32(r)
	out.OmegaX = readFloat32(r)
	out.OmegaY = readFloat32(r)
	out.OmegaZ = readFloat32(r)
	r.skip(8)
	out.TimeStamp = read56(r)
	v, _ := r.read(8)
	out.PointingStatus.AOCSOpMode = AOCSOpMode(v)
	r.skip(5)
	out.PointingStatus.RollError, _ = r.readBool()
	out.PointingStatus.PitchError, _ = r.readBool()
	out.PointingStatus.YawError, _ = r.readBool()
	return nil
}

func decodeHKTemperature(buf []byte, out *HKTemperatureAncillary) error {
	if len(buf) < hkSize {
		return io.ErrUnexpectedEOF
	}
	r := newBitReader(buf[:hkSize])
	v, _ := r.read(16)
	out.UpdateStatus = uint16(v)
	for i := range out.Tiles {
		efeh, _ := r.read(8)
		efev, _ := r.read(8)
		ta, _ := r.read(8)
		out.Tiles[i] = TileTemperature{EFEH: uint8(efeh), EFEV: uint8(efev), TA: uint8(ta)}
	}
	r.skip(9)
	v, _ = r.read(7)
	out.TGU = uint8(v)
	return nil
}

func readFloat64(r *bitReader) float64 {
	hi, _ := r.read(32)
	lo, _ := r.read(32)
	return math.Float64frombits(uint64(hi)<<32 | uint64(lo))
}

func readFloat32(r *bitReader) float32 {
	v, _ := r.read(32)
	return math.Float32frombits(v)
}

func read56(r *bitReader) uint64 {
	hi, _ := r.read(24)
	lo, _ := r.read(32)
	return uint64(hi)<<32 | uint64(lo)
}

// SubComAssembler accumulates the per-packet sub-commutated slots into
// 64-word cycles. A word index of zero means the service is idle for that
// packet; an index decrease or a gap in the packet count starts a new
// cycle (the previous one is emitted as partial).
type SubComAssembler struct {
	cycles  []*SubComCycle
	current *SubComCycle
	lastPkt int
	started bool
}

// NewSubComAssembler returns an empty assembler.
func NewSubComAssembler() *SubComAssembler {
	return &SubComAssembler{}
}

func (a *SubComAssembler) finalize() {
	if a.current == nil {
		return
	}
	if len(a.current.Items) != SubComLen {
		a.current.Partial = true
		logrus.Debugf("incomplete sub-commutated data cycle: %d words", len(a.current.Items))
	}
	a.cycles = append(a.cycles, a.current)
	a.current = nil
}

// Feed consumes one sub-commutated slot.
func (a *SubComAssembler) Feed(item SubComItem) error {
	if item.DataWordIndex == 0 {
		return nil
	}
	if item.DataWordIndex > SubComLen {
		return fmt.Errorf("invalid sub-commutation word index: %d", item.DataWordIndex)
	}

	if a.current == nil {
		a.current = &SubComCycle{}
		if item.DataWordIndex != 1 {
			logrus.Debugf("starting sub-commutated cycle at word index %d", item.DataWordIndex)
		}
	} else {
		prev := a.current.Items[len(a.current.Items)-1]
		if item.DataWordIndex < prev.DataWordIndex ||
			(a.started && item.PacketCount-a.lastPkt > 1) {
			a.finalize()
			a.current = &SubComCycle{}
		}
	}

	a.current.Items = append(a.current.Items, item)
	a.lastPkt = item.PacketCount
	a.started = true

	if item.DataWordIndex == SubComLen {
		a.finalize()
	}
	return nil
}

// Finalize flushes the cycle in progress, if any.
func (a *SubComAssembler) Finalize() {
	a.finalize()
}

// Cycles returns the accumulated cycles in completion order.
func (a *SubComAssembler) Cycles() []*SubComCycle {
	return a.cycles
}

// Decode feeds any remaining items, flushes, and decodes all complete
// cycles. Partial cycles are skipped and counted.
func (a *SubComAssembler) Decode(items []SubComItem) ([]*AncillaryData, error) {
	for _, item := range items {
		if err := a.Feed(item); err != nil {
			return nil, err
		}
	}
	a.Finalize()

	logrus.Debugf("%d sub-commutated data cycles collected", len(a.cycles))
	var out []*AncillaryData
	partial := 0
	for _, cycle := range a.cycles {
		if cycle.Partial {
			partial++
			continue
		}
		decoded, err := cycle.Decode()
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	if partial > 0 {
		logrus.Debugf("%d incomplete sub-commutated data cycles", partial)
	}
	return out, nil
}
