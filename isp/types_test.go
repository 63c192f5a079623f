package isp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePrimaryHeader(t *testing.T) {
	pkt := buildPacket(defaultSecondaryHeaderFields(), make([]byte, 10))
	ph, err := DecodePrimaryHeader(pkt[:PrimaryHeaderSize])
	require.NoError(t, err)

	assert.Equal(t, uint8(0), ph.PacketVersionNumber)
	assert.Equal(t, uint8(0), ph.PacketType)
	assert.True(t, ph.SecondaryHeaderFlag)
	assert.Equal(t, uint8(65), ph.PID)
	assert.Equal(t, uint8(12), ph.PCAT)
	assert.Equal(t, uint8(3), ph.SequenceFlags)
	assert.Equal(t, uint16(SecondaryHeaderSize+10-1), ph.PacketDataLength)

	// total on-wire size arithmetic: packet_data_length + 7
	assert.Equal(t, len(pkt), ph.PacketSize())
	assert.NoError(t, ph.Validate(0))
}

func TestPrimaryHeaderValidate(t *testing.T) {
	ph := PrimaryHeader{SecondaryHeaderFlag: true, SequenceFlags: 3}
	assert.NoError(t, ph.Validate(0))

	bad := ph
	bad.PacketVersionNumber = 1
	assert.Error(t, bad.Validate(0))

	bad = ph
	bad.SecondaryHeaderFlag = false
	assert.Error(t, bad.Validate(0))

	bad = ph
	bad.SequenceFlags = 1
	err := bad.Validate(1234)
	require.Error(t, err)
	invalid, ok := err.(*InvalidPacketError)
	require.True(t, ok)
	assert.Equal(t, int64(1234), invalid.Offset)
}

func TestDecodeSecondaryHeader(t *testing.T) {
	f := defaultSecondaryHeaderFields()
	buf := encodeSecondaryHeader(f)
	require.Len(t, buf, SecondaryHeaderSize)

	sh, err := DecodeSecondaryHeader(buf, 0)
	require.NoError(t, err)

	assert.Equal(t, f.coarseTime, sh.Datation.CoarseTime)
	assert.Equal(t, f.fineTime, sh.Datation.FineTime)
	assert.Equal(t, uint32(SyncMarker), sh.FixedAncillary.SyncMarker)
	assert.Equal(t, f.dataTakeID, sh.FixedAncillary.DataTakeID)
	assert.Equal(t, ECCS3, sh.FixedAncillary.ECCNumber)
	assert.Equal(t, TestModeDefault, sh.FixedAncillary.TestMode)
	assert.Equal(t, RxChannelV, sh.FixedAncillary.RxChannelID)
	assert.Equal(t, f.instrumentConfig, sh.FixedAncillary.InstrumentConfigID)
	assert.Equal(t, f.dataWordIndex, sh.SubComAncillary.DataWordIndex)
	assert.Equal(t, f.dataWord, sh.SubComAncillary.DataWord)
	assert.Equal(t, f.spacePacketCount, sh.Counters.SpacePacketCount)
	assert.Equal(t, f.priCount, sh.Counters.PRICount)

	cfg := sh.RadarConfig
	assert.False(t, cfg.ErrorFlag)
	assert.Equal(t, BAQModeBypass, cfg.BAQMode)
	assert.Equal(t, f.baqBlockLength, cfg.BAQBlockLength)
	assert.Equal(t, RangeDecimation4On9, cfg.RangeDecimation)
	assert.Equal(t, f.rxGain, cfg.RxGain)
	assert.Equal(t, f.txRampRate, cfg.TxRampRate)
	assert.Equal(t, f.txPulseStartFreq, cfg.TxPulseStartFreq)
	assert.Equal(t, f.txPulseLength, cfg.TxPulseLength)
	assert.Equal(t, f.rank, cfg.Rank)
	assert.Equal(t, f.pri, cfg.PRI)
	assert.Equal(t, f.swst, cfg.SWST)
	assert.Equal(t, f.swl, cfg.SWL)

	assert.False(t, cfg.SAS.SSBFlag)
	img := cfg.SAS.Img()
	assert.Equal(t, PolarizationVVH, img.Polarization)
	assert.Equal(t, TempCompFEOnTAOn, img.TemperatureCompensation)
	assert.Equal(t, f.sasDynamic, img.ElevationBeamAddress)
	assert.Equal(t, f.sasBeam, img.AzimuthBeamAddress)

	ses := cfg.SES
	assert.Equal(t, CalModePCC2Interleaved, ses.CalMode)
	assert.Equal(t, f.txPulseNumber, ses.TxPulseNumber)
	assert.Equal(t, SignalTypeEcho, ses.SignalType)
	assert.False(t, ses.Swap)
	assert.Equal(t, f.swathNumber, ses.SwathNumber)

	assert.Equal(t, f.numberOfQuads, sh.RadarSampleCount.NumberOfQuads)
}

func TestDecodeSecondaryHeaderBadSync(t *testing.T) {
	f := defaultSecondaryHeaderFields()
	f.syncMarker = 0xDEADBEEF
	sh, err := DecodeSecondaryHeader(encodeSecondaryHeader(f), 42)
	require.Error(t, err)

	invalid, ok := err.(*InvalidPacketError)
	require.True(t, ok)
	assert.Equal(t, int64(42), invalid.Offset)
	// the record is still decoded so callers can count failures
	assert.Equal(t, uint32(0xDEADBEEF), sh.FixedAncillary.SyncMarker)
	assert.Equal(t, f.numberOfQuads, sh.RadarSampleCount.NumberOfQuads)
}

func TestSASCalVariant(t *testing.T) {
	f := defaultSecondaryHeaderFields()
	f.ssbFlag = true
	f.sasDynamic = 0b1010 // sas_test=1, cal_type=2 (epdn_cal)
	f.sasBeam = 0x3FF

	sh, err := DecodeSecondaryHeader(encodeSecondaryHeader(f), 0)
	require.NoError(t, err)

	require.True(t, sh.RadarConfig.SAS.SSBFlag)
	cal := sh.RadarConfig.SAS.Cal()
	assert.Equal(t, SASNominalCalMode, cal.SASTest)
	assert.Equal(t, CalTypeEPDN, cal.CalType)
	assert.Equal(t, uint16(0x3FF), cal.CalibrationBeamAddress)
}

func TestDatationFineTimeSec(t *testing.T) {
	d := Datation{FineTime: 0}
	assert.InDelta(t, 0.5/65536, d.FineTimeSec(), 1e-12)
	d.FineTime = 0xFFFF
	assert.InDelta(t, (65535.0+0.5)/65536, d.FineTimeSec(), 1e-12)
}

func TestRadarConfigDerivedQuantities(t *testing.T) {
	cfg := RadarConfig{
		RxGain:          10,
		PRI:             21859,
		SWST:            3681,
		SWL:             10000,
		BAQBlockLength:  31,
		RangeDecimation: RangeDecimation4On9,
	}

	assert.InDelta(t, -5.0, cfg.RxGainDB(), 1e-12)
	assert.InDelta(t, 21859/RefFreq*1e-6, cfg.PRISec(), 1e-15)
	assert.InDelta(t, 3681/RefFreq*1e-6, cfg.SWSTSec(), 1e-15)
	assert.InDelta(t, 10000/RefFreq*1e-6, cfg.SWLSec(), 1e-15)
	assert.Equal(t, 256, cfg.BAQBlockLengthSamples())

	info, err := cfg.RangeDecimationInfo()
	require.NoError(t, err)
	assert.InDelta(t, 4.0/9*4*RefFreq*1e6, info.SamplingFrequency(), 1e-3)
}

func TestTxFieldSignConventions(t *testing.T) {
	// bit 15 set selects the positive sign
	cfg := RadarConfig{TxRampRate: 0x8000 | 1600, TxPulseStartFreq: 0x8000 | 800}
	rr := cfg.TxRampRateHzPerSec()
	assert.Greater(t, rr, 0.0)
	assert.InDelta(t, 1600*RefFreq*RefFreq/(1<<21)*1e12, rr, 1e3)

	f0 := cfg.TxPulseStartFreqHz()
	expected := 1e6 * (1600*RefFreq*RefFreq/(1<<21)/(4*RefFreq) + 800*RefFreq/(1<<14))
	assert.InDelta(t, expected, f0, 1e-3)

	// bit 15 clear selects the negative sign
	cfg = RadarConfig{TxRampRate: 1600, TxPulseStartFreq: 800}
	assert.Less(t, cfg.TxRampRateHzPerSec(), 0.0)
	assert.Less(t, cfg.TxPulseStartFreqHz(), 0.0)
}

// N3Rx values computed independently from the closed-form expression of
// section 3.2.5.12 for every allocated range decimation code.
func TestN3RxSamplesAcrossDecimationCodes(t *testing.T) {
	expected := map[uint32]map[RangeDecimation]int{
		10000: {
			RangeDecimation3On4:  29848,
			RangeDecimation2On3:  26532,
			RangeDecimation5On9:  22108,
			RangeDecimation4On9:  17686,
			RangeDecimation3On8:  14920,
			RangeDecimation1On3:  13262,
			RangeDecimation1On6:  6628,
			RangeDecimation3On7:  17054,
			RangeDecimation5On16: 12430,
			RangeDecimation3On26: 4588,
			RangeDecimation4On11: 14470,
		},
		4000: {
			RangeDecimation3On4:  11848,
			RangeDecimation2On3:  10532,
			RangeDecimation5On9:  8776,
			RangeDecimation4On9:  7018,
			RangeDecimation3On8:  5920,
			RangeDecimation1On3:  5262,
			RangeDecimation1On6:  2628,
			RangeDecimation3On7:  6770,
			RangeDecimation5On16: 4930,
			RangeDecimation3On26: 1818,
			RangeDecimation4On11: 5742,
		},
	}

	for swl, byCode := range expected {
		for code, want := range byCode {
			cfg := RadarConfig{SWL: swl, RangeDecimation: code}
			got, err := cfg.N3RxSamples()
			require.NoError(t, err, "swl=%d code=%s", swl, code)
			assert.Equal(t, want, got, "swl=%d code=%s", swl, code)
		}
	}
}

func TestN3RxInvalidCode(t *testing.T) {
	cfg := RadarConfig{SWL: 10000, RangeDecimation: RangeDecimation(2)}
	_, err := cfg.N3RxSamples()
	assert.Error(t, err)
}
