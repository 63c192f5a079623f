package isp

import "fmt"

// The closed code sets below are defined in S1-IF-ASD-PL-0007 issue 13.
// Real telemetry contains reserved-but-used codes, so none of the String
// methods reject unknown values; they fall through to a numeric rendering
// and the raw code always survives a decode/dump round trip.

// ECCNumber identifies the Event Control Code program (table 3.2-4).
type ECCNumber uint8

const (
	ECCNotSet    ECCNumber = 0 // contingency: ground testing or mode upgrading
	ECCS1        ECCNumber = 1
	ECCS2        ECCNumber = 2
	ECCS3        ECCNumber = 3
	ECCS4        ECCNumber = 4
	ECCS5N       ECCNumber = 5
	ECCS6        ECCNumber = 6
	ECCIW        ECCNumber = 8
	ECCWM        ECCNumber = 9
	ECCS5S       ECCNumber = 10
	ECCS1NoICal  ECCNumber = 11
	ECCS2NoICal  ECCNumber = 12
	ECCS3NoICal  ECCNumber = 13
	ECCS4NoICal  ECCNumber = 14
	ECCRFC       ECCNumber = 15
	ECCTest      ECCNumber = 16
	ECCENS3      ECCNumber = 17
	ECCANS1      ECCNumber = 18
	ECCANS2      ECCNumber = 19
	ECCANS3      ECCNumber = 20
	ECCANS4      ECCNumber = 21
	ECCANS5N     ECCNumber = 22
	ECCANS5S     ECCNumber = 23
	ECCANS6      ECCNumber = 24
	ECCS5NNoICal ECCNumber = 25
	ECCS5SNoICal ECCNumber = 26
	ECCS6NoICal  ECCNumber = 27
	ECCENS3NoICal ECCNumber = 31
	ECCEN        ECCNumber = 32
	ECCANS1NoICal ECCNumber = 33
	ECCANS3NoICal ECCNumber = 34
	ECCANS6NoICal ECCNumber = 35
	ECCNCS1      ECCNumber = 37
	ECCNCS2      ECCNumber = 38
	ECCNCS3      ECCNumber = 39
	ECCNCS4      ECCNumber = 40
	ECCNCS5N     ECCNumber = 41
	ECCNCS5S     ECCNumber = 42
	ECCNCS6      ECCNumber = 43
	ECCNCEW      ECCNumber = 44
	ECCNCIW      ECCNumber = 45
	ECCNCWM      ECCNumber = 46
)

var eccNames = map[ECCNumber]string{
	ECCNotSet: "not_set", ECCS1: "s1", ECCS2: "s2", ECCS3: "s3", ECCS4: "s4",
	ECCS5N: "s5_n", ECCS6: "s6", ECCIW: "iw", ECCWM: "wm", ECCS5S: "s5_s",
	ECCS1NoICal: "s1_no_ical", ECCS2NoICal: "s2_no_ical",
	ECCS3NoICal: "s3_no_ical", ECCS4NoICal: "s4_no_ical", ECCRFC: "rfc",
	ECCTest: "test", ECCENS3: "en_s3", ECCANS1: "an_s1", ECCANS2: "an_s2",
	ECCANS3: "an_s3", ECCANS4: "an_s4", ECCANS5N: "an_s5_n",
	ECCANS5S: "an_s5_s", ECCANS6: "an_s6", ECCS5NNoICal: "s5_n_no_ical",
	ECCS5SNoICal: "s5_s_no_ical", ECCS6NoICal: "s6_no_ical",
	ECCENS3NoICal: "en_s3_no_ical", ECCEN: "en", ECCANS1NoICal: "an_s1_no_ical",
	ECCANS3NoICal: "an_s3_no_ical", ECCANS6NoICal: "an_s6_no_ical",
	ECCNCS1: "nc_s1", ECCNCS2: "nc_s2", ECCNCS3: "nc_s3", ECCNCS4: "nc_s4",
	ECCNCS5N: "nc_s5_n", ECCNCS5S: "nc_s5_s", ECCNCS6: "nc_s6",
	ECCNCEW: "nc_ew", ECCNCIW: "nc_iw", ECCNCWM: "nc_wm",
}

func (e ECCNumber) String() string {
	if s, ok := eccNames[e]; ok {
		return s
	}
	return fmt.Sprintf("ECCNumber(%d)", uint8(e))
}

// TestMode (section 3.2.2.4).
type TestMode uint8

const (
	TestModeDefault                TestMode = 0
	TestModeContingencyOperational TestMode = 4 // 100: RXM fully operational
	TestModeContingencyBypassed    TestMode = 5 // 101: RXM fully bypassed
	TestModeOper                   TestMode = 6 // 110
	TestModeBypass                 TestMode = 7 // 111
)

var testModeNames = map[TestMode]string{
	TestModeDefault:                "default",
	TestModeContingencyOperational: "contingency_rxm_fully_operational",
	TestModeContingencyBypassed:    "contingency_rxm_fully_bypassed",
	TestModeOper:                   "oper",
	TestModeBypass:                 "bypass",
}

func (m TestMode) String() string {
	if s, ok := testModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("TestMode(%d)", uint8(m))
}

// RxChannelID (section 3.2.2.5).
type RxChannelID uint8

const (
	RxChannelV RxChannelID = 0
	RxChannelH RxChannelID = 1
)

func (c RxChannelID) String() string {
	switch c {
	case RxChannelV:
		return "rxv"
	case RxChannelH:
		return "rxh"
	}
	return fmt.Sprintf("RxChannelID(%d)", uint8(c))
}

// BAQMode (section 3.2.5.2).
type BAQMode uint8

const (
	BAQModeBypass BAQMode = 0
	BAQMode3Bit   BAQMode = 3
	BAQMode4Bit   BAQMode = 4
	BAQMode5Bit   BAQMode = 5
	BAQModeFDBAQ0 BAQMode = 12
	BAQModeFDBAQ1 BAQMode = 13
	BAQModeFDBAQ2 BAQMode = 14
)

var baqModeNames = map[BAQMode]string{
	BAQModeBypass: "BYPASS",
	BAQMode3Bit:   "BAQ3",
	BAQMode4Bit:   "BAQ4",
	BAQMode5Bit:   "BAQ5",
	BAQModeFDBAQ0: "FDBAQ_MODE_0",
	BAQModeFDBAQ1: "FDBAQ_MODE_1",
	BAQModeFDBAQ2: "FDBAQ_MODE_2",
}

func (m BAQMode) String() string {
	if s, ok := baqModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("BAQMode(%d)", uint8(m))
}

// RangeDecimation (section 3.2.5.4).
type RangeDecimation uint8

const (
	RangeDecimation3On4  RangeDecimation = 0
	RangeDecimation2On3  RangeDecimation = 1
	RangeDecimation5On9  RangeDecimation = 3
	RangeDecimation4On9  RangeDecimation = 4
	RangeDecimation3On8  RangeDecimation = 5
	RangeDecimation1On3  RangeDecimation = 6
	RangeDecimation1On6  RangeDecimation = 7
	RangeDecimation3On7  RangeDecimation = 8
	RangeDecimation5On16 RangeDecimation = 9
	RangeDecimation3On26 RangeDecimation = 10
	RangeDecimation4On11 RangeDecimation = 11
)

var rangeDecimationNames = map[RangeDecimation]string{
	RangeDecimation3On4:  "x3_on_4",
	RangeDecimation2On3:  "x2_on_3",
	RangeDecimation5On9:  "x5_on_9",
	RangeDecimation4On9:  "x4_on_9",
	RangeDecimation3On8:  "x3_on_8",
	RangeDecimation1On3:  "x1_on_3",
	RangeDecimation1On6:  "x1_on_6",
	RangeDecimation3On7:  "x3_on_7",
	RangeDecimation5On16: "x5_on_16",
	RangeDecimation3On26: "x3_on_26",
	RangeDecimation4On11: "x4_on_11",
}

func (d RangeDecimation) String() string {
	if s, ok := rangeDecimationNames[d]; ok {
		return s
	}
	return fmt.Sprintf("RangeDecimation(%d)", uint8(d))
}

// AOCSOpMode (section 3.2.3).
type AOCSOpMode uint8

const (
	AOCSNoMode AOCSOpMode = 0
	AOCSNormalPointing AOCSOpMode = 5
	AOCSOrbitControl   AOCSOpMode = 6
)

func (m AOCSOpMode) String() string {
	switch m {
	case AOCSNoMode:
		return "no_mode"
	case AOCSNormalPointing:
		return "npm"
	case AOCSOrbitControl:
		return "ocm"
	}
	return fmt.Sprintf("AOCSOpMode(%d)", uint8(m))
}

// Polarization describes the SAS polarization configuration
// (section 3.2.5.13.1.1).
type Polarization uint8

const (
	PolarizationHTxOnly Polarization = 0
	PolarizationHH      Polarization = 1
	PolarizationHV      Polarization = 2
	PolarizationHVH     Polarization = 3
	PolarizationVTxOnly Polarization = 4
	PolarizationVH      Polarization = 5
	PolarizationVV      Polarization = 6
	PolarizationVVH     Polarization = 7
)

var polarizationNames = map[Polarization]string{
	PolarizationHTxOnly: "h_tx_only",
	PolarizationHH:      "h_h",
	PolarizationHV:      "h_v",
	PolarizationHVH:     "h_vh",
	PolarizationVTxOnly: "v_tx_only",
	PolarizationVH:      "v_h",
	PolarizationVV:      "v_v",
	PolarizationVVH:     "v_vh",
}

func (p Polarization) String() string {
	if s, ok := polarizationNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Polarization(%d)", uint8(p))
}

// TemperatureCompensation (section 3.2.5.13.1.2).
type TemperatureCompensation uint8

const (
	TempCompFEOffTAOff TemperatureCompensation = 0
	TempCompFEOnTAOff  TemperatureCompensation = 1
	TempCompFEOffTAOn  TemperatureCompensation = 2
	TempCompFEOnTAOn   TemperatureCompensation = 3
)

var tempCompNames = map[TemperatureCompensation]string{
	TempCompFEOffTAOff: "fe_off_ta_off",
	TempCompFEOnTAOff:  "fe_on_ta_off",
	TempCompFEOffTAOn:  "fe_off_ta_on",
	TempCompFEOnTAOn:   "fe_on_ta_on",
}

func (t TemperatureCompensation) String() string {
	if s, ok := tempCompNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TemperatureCompensation(%d)", uint8(t))
}

// SASTestMode (section 3.2.5.13.2.3).
type SASTestMode uint8

const (
	SASTestModeActive  SASTestMode = 0
	SASNominalCalMode  SASTestMode = 1
)

func (m SASTestMode) String() string {
	switch m {
	case SASTestModeActive:
		return "sas_test_mode_active"
	case SASNominalCalMode:
		return "nominal_cal_mode"
	}
	return fmt.Sprintf("SASTestMode(%d)", uint8(m))
}

// CalType (section 3.2.5.13.2.4).
type CalType uint8

const (
	CalTypeTx       CalType = 0
	CalTypeRx       CalType = 1
	CalTypeEPDN     CalType = 2
	CalTypeTA       CalType = 3
	CalTypeAPDN     CalType = 4
	CalTypeTxHIso   CalType = 7
)

var calTypeNames = map[CalType]string{
	CalTypeTx:     "tx_cal",
	CalTypeRx:     "rx_cal",
	CalTypeEPDN:   "epdn_cal",
	CalTypeTA:     "ta_cal",
	CalTypeAPDN:   "apdn_cal",
	CalTypeTxHIso: "tx_h_cal_iso",
}

func (t CalType) String() string {
	if s, ok := calTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("CalType(%d)", uint8(t))
}

// CalMode (section 3.2.5.14.1).
type CalMode uint8

const (
	CalModePCC2Interleaved CalMode = 0
	CalModePCC2Preamble    CalMode = 1
	CalModePCC32Char       CalMode = 2
	CalModeRF672Char       CalMode = 3
)

var calModeNames = map[CalMode]string{
	CalModePCC2Interleaved: "pcc2_ical_interleaved",
	CalModePCC2Preamble:    "pcc2_ical_preamble",
	CalModePCC32Char:       "pcc32_phase_coded_characterization",
	CalModeRF672Char:       "rf672_phase_coded_characterization",
}

func (m CalMode) String() string {
	if s, ok := calModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("CalMode(%d)", uint8(m))
}

// SignalType (section 3.2.5.14.3).
type SignalType uint8

const (
	SignalTypeEcho    SignalType = 0
	SignalTypeNoise   SignalType = 1
	SignalTypeTxCal   SignalType = 8
	SignalTypeRxCal   SignalType = 9
	SignalTypeEPDNCal SignalType = 10
	SignalTypeTACal   SignalType = 11
	SignalTypeAPDNCal SignalType = 12
	SignalTypeTxHIso  SignalType = 15
)

var signalTypeNames = map[SignalType]string{
	SignalTypeEcho:    "echo",
	SignalTypeNoise:   "noise",
	SignalTypeTxCal:   "tx_cal",
	SignalTypeRxCal:   "rx_cal",
	SignalTypeEPDNCal: "epdn_cal",
	SignalTypeTACal:   "ta_cal",
	SignalTypeAPDNCal: "apdn_cal",
	SignalTypeTxHIso:  "tx_h_cal_iso",
}

func (t SignalType) String() string {
	if s, ok := signalTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("SignalType(%d)", uint8(t))
}

// IsCal reports whether the signal is a calibration signal rather than an
// echo or noise measurement. Calibration packets do not satisfy the
// SWL-derived sample count relation (section 3.2.5.11).
func (t SignalType) IsCal() bool { return t > 7 }

// BRCCode selects one of the five FDBAQ Huffman trees.
type BRCCode uint8

const (
	BRC0 BRCCode = 0
	BRC1 BRCCode = 1
	BRC2 BRCCode = 2
	BRC3 BRCCode = 3
	BRC4 BRCCode = 4
)

func (b BRCCode) String() string {
	if b <= BRC4 {
		return fmt.Sprintf("BRC%d", uint8(b))
	}
	return fmt.Sprintf("BRCCode(%d)", uint8(b))
}
