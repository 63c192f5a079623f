package isp

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Readers for the fixed-layout companion files of an L0 product
// (S1PD.SP.00110.ASTR, section 3.3).

// IndexEntrySize is the on-disk size of one index entry in bytes.
const IndexEntrySize = 36

// IndexEntry is one record of the L0 index (.dat) companion file. Each
// entry points at a block of instrument source packets in the measurement
// data component.
type IndexEntry struct {
	DateTime  float64 // MJD2000 date/time of the block
	TimeDelta float64 // time span covered by the block [s]
	DataSize  uint64  // block size in bytes
	Channel   uint32
	VCID      uint32 // virtual channel identifier
	Counter   uint32 // block counter
}

// ReadIndex decodes index entries from r until EOF.
func ReadIndex(r io.Reader) ([]IndexEntry, error) {
	var entries []IndexEntry
	for {
		var e IndexEntry
		err := binary.Read(r, binary.BigEndian, &e)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return entries, fmt.Errorf("index entry %d: %w", len(entries), err)
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	logrus.Debugf("read %d index entries", len(entries))
	return entries, nil
}

// ReadIndexFile reads an index companion file, first validating that the
// file size is a whole number of entries.
func ReadIndexFile(filename string) ([]IndexEntry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size()%IndexEntrySize != 0 {
		return nil, fmt.Errorf("index file size %d is not a multiple of the entry size %d",
			info.Size(), IndexEntrySize)
	}
	return ReadIndex(f)
}

// AnnotationRecord is one record of the L0 annotation data component: the
// downlink bookkeeping stored next to each ISP.
type AnnotationRecord struct {
	SensingDays    uint16 // days since the mission epoch
	SensingMillis  uint32
	SensingMicros  uint16
	DownlinkDays   uint16
	DownlinkMillis uint32
	DownlinkMicros uint16
	PacketLength   uint16
	Frames         uint16
	MissingFrames  uint16
	CRCFlag        uint8
	_              [3]byte
}

// AnnotationRecordSize is the on-disk size of one annotation record.
const AnnotationRecordSize = 26

// ReadAnnotations decodes annotation records from r until EOF.
func ReadAnnotations(r io.Reader) ([]AnnotationRecord, error) {
	var records []AnnotationRecord
	for {
		var rec AnnotationRecord
		err := binary.Read(r, binary.BigEndian, &rec)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return records, fmt.Errorf("annotation record %d: %w", len(records), err)
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}
