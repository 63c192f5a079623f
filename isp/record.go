package isp

import "fmt"

// Flattened record metadata: the stable output schema of the decoder. All
// primary and secondary header fields appear verbatim; derived physical
// quantities carry a unit suffix so downstream tooling can tell them from
// wire fields.

// recordColumns is the column order of the flattened metadata.
var recordColumns = []string{
	// primary header
	"packet_version_number",
	"packet_type",
	"secondary_header_flag",
	"pid",
	"pcat",
	"sequence_flags",
	"packet_sequence_count",
	"packet_data_length",
	// datation service
	"coarse_time",
	"fine_time",
	// fixed ancillary data service
	"sync_marker",
	"data_take_id",
	"ecc_num",
	"test_mode",
	"rx_channel_id",
	"instrument_configuration_id",
	// sub-commutated ancillary data service
	"data_word_index",
	"data_word",
	// counters service
	"space_packet_count",
	"pri_count",
	// radar configuration support service
	"error_flag",
	"baq_mode",
	"baq_block_length",
	"range_decimation",
	"rx_gain",
	"tx_ramp_rate",
	"tx_pulse_start_freq",
	"tx_pulse_length",
	"rank",
	"pri",
	"swst",
	"swl",
	"ssb_flag",
	"polarization",
	"temperature_compensation",
	"elevation_beam_address",
	"azimuth_beam_address",
	"sas_test",
	"cal_type",
	"calibration_beam_address",
	"cal_mode",
	"tx_pulse_number",
	"signal_type",
	"swap",
	"swath_number",
	// radar sample count service
	"number_of_quads",
	// derived quantities
	"pri_sec",
	"swst_sec",
	"swl_sec",
	"rx_gain_db",
	"tx_ramp_rate_hz_per_sec",
	"tx_pulse_start_freq_hz",
	"tx_pulse_length_sec",
	"baq_block_length_samples",
	"n3rx_samples",
	// decode status
	"error",
}

// RecordColumns returns the flattened metadata column names in output
// order.
func RecordColumns() []string {
	out := make([]string, len(recordColumns))
	copy(out, recordColumns)
	return out
}

func enumCell(v fmt.Stringer, numeric uint8, enumValue bool) interface{} {
	if enumValue {
		return numeric
	}
	return v.String()
}

// Metadata flattens the record into a column-keyed map. With enumValue set,
// enumerated fields carry their numeric code instead of the symbolic name.
func (r *Record) Metadata(enumValue bool) map[string]interface{} {
	ph := r.PrimaryHeader
	sh := r.SecondaryHeader
	cfg := sh.RadarConfig
	sas := cfg.SAS
	img := sas.Img()
	cal := sas.Cal()

	m := map[string]interface{}{
		"packet_version_number": ph.PacketVersionNumber,
		"packet_type":           ph.PacketType,
		"secondary_header_flag": ph.SecondaryHeaderFlag,
		"pid":                   ph.PID,
		"pcat":                  ph.PCAT,
		"sequence_flags":        ph.SequenceFlags,
		"packet_sequence_count": ph.PacketSequenceCount,
		"packet_data_length":    ph.PacketDataLength,

		"coarse_time": sh.Datation.CoarseTime,
		"fine_time":   sh.Datation.FineTime,

		"sync_marker":                 sh.FixedAncillary.SyncMarker,
		"data_take_id":                sh.FixedAncillary.DataTakeID,
		"ecc_num":                     enumCell(sh.FixedAncillary.ECCNumber, uint8(sh.FixedAncillary.ECCNumber), enumValue),
		"test_mode":                   enumCell(sh.FixedAncillary.TestMode, uint8(sh.FixedAncillary.TestMode), enumValue),
		"rx_channel_id":               enumCell(sh.FixedAncillary.RxChannelID, uint8(sh.FixedAncillary.RxChannelID), enumValue),
		"instrument_configuration_id": sh.FixedAncillary.InstrumentConfigID,

		"data_word_index": sh.SubComAncillary.DataWordIndex,
		"data_word":       uint16(sh.SubComAncillary.DataWord[0])<<8 | uint16(sh.SubComAncillary.DataWord[1]),

		"space_packet_count": sh.Counters.SpacePacketCount,
		"pri_count":          sh.Counters.PRICount,

		"error_flag":          cfg.ErrorFlag,
		"baq_mode":            enumCell(cfg.BAQMode, uint8(cfg.BAQMode), enumValue),
		"baq_block_length":    cfg.BAQBlockLength,
		"range_decimation":    enumCell(cfg.RangeDecimation, uint8(cfg.RangeDecimation), enumValue),
		"rx_gain":             cfg.RxGain,
		"tx_ramp_rate":        cfg.TxRampRate,
		"tx_pulse_start_freq": cfg.TxPulseStartFreq,
		"tx_pulse_length":     cfg.TxPulseLength,
		"rank":                cfg.Rank,
		"pri":                 cfg.PRI,
		"swst":                cfg.SWST,
		"swl":                 cfg.SWL,

		"ssb_flag":                 sas.SSBFlag,
		"polarization":             enumCell(sas.Polarization, uint8(sas.Polarization), enumValue),
		"temperature_compensation": enumCell(sas.TemperatureCompensation, uint8(sas.TemperatureCompensation), enumValue),
		"elevation_beam_address":   img.ElevationBeamAddress,
		"azimuth_beam_address":     img.AzimuthBeamAddress,
		"sas_test":                 enumCell(cal.SASTest, uint8(cal.SASTest), enumValue),
		"cal_type":                 enumCell(cal.CalType, uint8(cal.CalType), enumValue),
		"calibration_beam_address": cal.CalibrationBeamAddress,

		"cal_mode":        enumCell(cfg.SES.CalMode, uint8(cfg.SES.CalMode), enumValue),
		"tx_pulse_number": cfg.SES.TxPulseNumber,
		"signal_type":     enumCell(cfg.SES.SignalType, uint8(cfg.SES.SignalType), enumValue),
		"swap":            cfg.SES.Swap,
		"swath_number":    cfg.SES.SwathNumber,

		"number_of_quads": sh.RadarSampleCount.NumberOfQuads,

		"pri_sec":                  cfg.PRISec(),
		"swst_sec":                 cfg.SWSTSec(),
		"swl_sec":                  cfg.SWLSec(),
		"rx_gain_db":               cfg.RxGainDB(),
		"tx_ramp_rate_hz_per_sec":  cfg.TxRampRateHzPerSec(),
		"tx_pulse_start_freq_hz":   cfg.TxPulseStartFreqHz(),
		"tx_pulse_length_sec":      cfg.TxPulseLengthSec(),
		"baq_block_length_samples": cfg.BAQBlockLengthSamples(),
	}

	if n3rx, err := cfg.N3RxSamples(); err == nil {
		m["n3rx_samples"] = n3rx
	} else {
		m["n3rx_samples"] = nil
	}

	if r.Err != nil {
		m["error"] = r.Err.Error()
	} else {
		m["error"] = ""
	}
	return m
}
