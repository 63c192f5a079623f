package isp

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// ErrNoSync is returned when resynchronization fails to locate the sync
// marker within the scan window.
var ErrNoSync = errors.New("sync marker 0x352EF853 not found in resync window")

// defaultResyncWindow bounds the byte-wise scan for the sync marker after a
// framing error.
const defaultResyncWindow = 64 * 1024

// UDFMode selects what the stream decoder does with each packet's user
// data field.
type UDFMode int

const (
	// UDFNone skips the user data field.
	UDFNone UDFMode = iota
	// UDFExtract keeps the raw compressed bytes.
	UDFExtract
	// UDFDecode reconstructs the complex sample sequence.
	UDFDecode
)

func (m UDFMode) String() string {
	switch m {
	case UDFNone:
		return "none"
	case UDFExtract:
		return "extract"
	case UDFDecode:
		return "decode"
	}
	return fmt.Sprintf("UDFMode(%d)", int(m))
}

// ParseUDFMode converts a CLI-style mode name.
func ParseUDFMode(s string) (UDFMode, error) {
	switch s {
	case "none":
		return UDFNone, nil
	case "extract":
		return UDFExtract, nil
	case "decode":
		return UDFDecode, nil
	}
	return 0, fmt.Errorf("unknown user data mode: %q", s)
}

// Options configures a StreamDecoder.
type Options struct {
	// Skip is the number of packets to pass over (reading only primary
	// headers) before emitting records.
	Skip int
	// MaxCount limits the number of emitted records; zero means all.
	MaxCount int
	// BytesOffset is the file offset of the first packet.
	BytesOffset int64
	// UDFMode selects user data handling.
	UDFMode UDFMode
	// Resync enables byte-wise reacquisition on framing errors instead of
	// terminating the stream.
	Resync bool
	// Cancel is polled once per packet; when it returns true the stream
	// ends early with all previously emitted records intact.
	Cancel func() bool
	// Progress, when set, receives the on-wire size of each emitted packet.
	Progress func(packetBytes int)
}

// Record is one decoded instrument source packet. Err carries any
// per-packet decode problem (bad sanity check, undecodable user data); the
// header fields are valid regardless so downstream can count failures.
type Record struct {
	Offset          int64
	PrimaryHeader   PrimaryHeader
	SecondaryHeader SecondaryHeader
	UDF             []complex64 // with UDFDecode
	RawUDF          []byte      // with UDFExtract
	Err             error
}

// StreamDecoder reads a stream of concatenated ISPs sequentially. Records
// are emitted in strict packet order; sub-commutated slots are forked off
// into an internal list retrievable with SubComItems.
type StreamDecoder struct {
	r    io.ReadSeeker
	opts Options

	offset  int64
	pktNum  int // running packet counter, including skipped packets
	emitted int
	done    bool

	subcom []SubComItem

	// scratch buffers reused across packets in UDFDecode mode
	udfScratch udfWorkspace
}

// NewStreamDecoder prepares a decoder over r, seeking to the configured
// byte offset.
func NewStreamDecoder(r io.ReadSeeker, opts Options) (*StreamDecoder, error) {
	if opts.BytesOffset < 0 {
		return nil, fmt.Errorf("negative bytes offset: %d", opts.BytesOffset)
	}
	if _, err := r.Seek(opts.BytesOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to first packet: %w", err)
	}
	return &StreamDecoder{r: r, opts: opts, offset: opts.BytesOffset}, nil
}

// SubComItems returns the sub-commutated slots collected so far, one per
// emitted record.
func (d *StreamDecoder) SubComItems() []SubComItem {
	return d.subcom
}

// Next returns the next decoded packet. It returns io.EOF at the end of
// the stream (or once MaxCount is reached) and ErrTruncatedStream when the
// input ends inside a decoded packet. Packets passed over by Skip are
// advanced over with a seek and are not checked for truncation.
func (d *StreamDecoder) Next() (*Record, error) {
	if d.done {
		return nil, io.EOF
	}
	for {
		if d.opts.Cancel != nil && d.opts.Cancel() {
			d.done = true
			return nil, io.EOF
		}
		if d.opts.MaxCount > 0 && d.emitted >= d.opts.MaxCount {
			d.done = true
			return nil, io.EOF
		}

		var phBuf [PrimaryHeaderSize]byte
		n, err := io.ReadFull(d.r, phBuf[:])
		if err == io.EOF {
			d.done = true
			return nil, io.EOF
		}
		if err != nil {
			d.done = true
			return nil, fmt.Errorf("%w: %d header bytes at offset %d", ErrTruncatedStream, n, d.offset)
		}

		ph, err := DecodePrimaryHeader(phBuf[:])
		if err != nil {
			d.done = true
			return nil, err
		}
		phErr := ph.Validate(d.offset)
		if phErr != nil && d.opts.Resync {
			logrus.Debugf("packet %d: %v, resynchronizing", d.pktNum, phErr)
			if err := d.resync(); err != nil {
				d.done = true
				return nil, err
			}
			continue
		}
		if phErr != nil {
			d.done = true
			return nil, phErr
		}

		dataFieldSize := int(ph.PacketDataLength) + 1
		if dataFieldSize < SecondaryHeaderSize {
			err := &InvalidPacketError{
				Reason: fmt.Sprintf("packet data length %d shorter than the secondary header", dataFieldSize),
				Offset: d.offset,
			}
			if d.opts.Resync {
				logrus.Debugf("packet %d: %v, resynchronizing", d.pktNum, err)
				if rerr := d.resync(); rerr != nil {
					d.done = true
					return nil, rerr
				}
				continue
			}
			d.done = true
			return nil, err
		}

		// scanning state: pass over the packet body without decoding
		if d.pktNum < d.opts.Skip {
			if _, err := d.r.Seek(int64(dataFieldSize), io.SeekCurrent); err != nil {
				d.done = true
				return nil, fmt.Errorf("skip packet %d: %w", d.pktNum, err)
			}
			d.pktNum++
			d.offset += int64(PrimaryHeaderSize + dataFieldSize)
			continue
		}

		shBuf := make([]byte, SecondaryHeaderSize)
		if n, err := io.ReadFull(d.r, shBuf); err != nil {
			d.done = true
			return nil, fmt.Errorf("%w: %d secondary header bytes at offset %d", ErrTruncatedStream, n, d.offset)
		}
		sh, shErr := DecodeSecondaryHeader(shBuf, d.offset)
		var invalid *InvalidPacketError
		if shErr != nil && !errors.As(shErr, &invalid) {
			d.done = true
			return nil, shErr
		}
		if shErr != nil && d.opts.Resync {
			logrus.Debugf("packet %d: %v, resynchronizing", d.pktNum, shErr)
			if err := d.resync(); err != nil {
				d.done = true
				return nil, err
			}
			continue
		}

		rec := &Record{
			Offset:          d.offset,
			PrimaryHeader:   ph,
			SecondaryHeader: sh,
			Err:             shErr,
		}

		udfSize := dataFieldSize - SecondaryHeaderSize
		switch d.opts.UDFMode {
		case UDFNone:
			// read through instead of seeking, so a torn last packet is
			// detected rather than emitted
			if n, err := io.CopyN(ioutil.Discard, d.r, int64(udfSize)); err != nil {
				d.done = true
				if err == io.EOF {
					return nil, fmt.Errorf("%w: %d user data bytes at offset %d", ErrTruncatedStream, n, d.offset)
				}
				return nil, fmt.Errorf("skip user data at offset %d: %w", d.offset, err)
			}
		default:
			var udf []byte
			if d.opts.UDFMode == UDFExtract {
				// extracted bytes outlive the packet, so they get their
				// own allocation
				udf = make([]byte, udfSize)
			} else {
				udf = d.udfScratch.rawBuf(udfSize)
			}
			if n, err := io.ReadFull(d.r, udf); err != nil {
				d.done = true
				return nil, fmt.Errorf("%w: %d user data bytes at offset %d", ErrTruncatedStream, n, d.offset)
			}
			if d.opts.UDFMode == UDFExtract {
				rec.RawUDF = udf
			} else {
				blocksize := sh.RadarConfig.BAQBlockLengthSamples() / 2
				samples, err := decodeUserData(
					&d.udfScratch,
					udf,
					int(sh.RadarSampleCount.NumberOfQuads),
					sh.RadarConfig.BAQMode,
					sh.FixedAncillary.TestMode,
					blocksize,
				)
				if err != nil {
					logrus.Debugf(
						"packet %d: user data decode failed: %v (pri_count=%d nq=%d baq_mode=%s test_mode=%s)",
						d.pktNum, err,
						sh.Counters.PRICount,
						sh.RadarSampleCount.NumberOfQuads,
						sh.RadarConfig.BAQMode,
						sh.FixedAncillary.TestMode,
					)
					if rec.Err == nil {
						rec.Err = err
					}
				}
				rec.UDF = samples
			}
		}

		d.subcom = append(d.subcom, SubComItem{
			PacketCount:   d.pktNum,
			PRICount:      sh.Counters.PRICount,
			DataWordIndex: sh.SubComAncillary.DataWordIndex,
			DataWord:      sh.SubComAncillary.DataWord,
		})

		d.pktNum++
		d.emitted++
		d.offset += int64(PrimaryHeaderSize + dataFieldSize)
		if d.opts.Progress != nil {
			d.opts.Progress(ph.PacketSize())
		}
		return rec, nil
	}
}

// resync advances byte by byte until the next plausible packet start. The
// sync marker sits at offset 12 of every packet (after the 6-byte primary
// header and the 6-byte datation service), so a match at position p puts
// the candidate primary header at p-12.
func (d *StreamDecoder) resync() error {
	start := d.offset + 1
	if _, err := d.r.Seek(start, io.SeekStart); err != nil {
		return err
	}
	window := make([]byte, defaultResyncWindow)
	n, err := io.ReadFull(d.r, window)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return ErrNoSync
		}
		return err
	}
	window = window[:n]

	marker := [4]byte{0x35, 0x2E, 0xF8, 0x53}
	for i := 0; i+4 <= len(window); i++ {
		if window[i] == marker[0] && window[i+1] == marker[1] &&
			window[i+2] == marker[2] && window[i+3] == marker[3] {
			markerPos := start + int64(i)
			candidate := markerPos - (PrimaryHeaderSize + datationEndBit/8)
			if candidate < start {
				continue
			}
			logrus.Debugf("resync successful at offset %s (skipped %d bytes)",
				color.CyanString("%d", candidate), candidate-d.offset)
			d.offset = candidate
			_, err := d.r.Seek(candidate, io.SeekStart)
			return err
		}
	}
	return ErrNoSync
}

// DecodeStream decodes the L0 data component file at filename and returns
// the records, their byte offsets and the sub-commutated data slots.
// Reaching the end of the file between packets terminates normally; a
// truncated packet returns ErrTruncatedStream together with every record
// decoded before it.
func DecodeStream(filename string, opts Options) ([]Record, []int64, []SubComItem, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()
	return Decode(f, opts)
}

// Decode runs the packet loop over r. See DecodeStream.
func Decode(r io.ReadSeeker, opts Options) ([]Record, []int64, []SubComItem, error) {
	dec, err := NewStreamDecoder(r, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		records []Record
		offsets []int64
	)
	for {
		rec, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, offsets, dec.SubComItems(), err
		}
		records = append(records, *rec)
		offsets = append(offsets, rec.Offset)
	}

	logrus.Debugf("decoded %s packets", color.CyanString("%d", len(records)))
	return records, offsets, dec.SubComItems(), nil
}
