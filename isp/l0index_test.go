package isp

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexFixture(t *testing.T) ([]IndexEntry, []byte) {
	entries := []IndexEntry{
		{DateTime: 7471.6766, TimeDelta: 2.7429, DataSize: 1048576, Channel: 1, VCID: 2, Counter: 0},
		{DateTime: 7471.6767, TimeDelta: 2.7429, DataSize: 2097152, Channel: 1, VCID: 2, Counter: 1},
		{DateTime: 7471.6768, TimeDelta: 2.7430, DataSize: 524288, Channel: 2, VCID: 3, Counter: 2},
	}
	var buf bytes.Buffer
	for _, e := range entries {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, e))
	}
	require.Len(t, buf.Bytes(), len(entries)*IndexEntrySize)
	return entries, buf.Bytes()
}

func TestReadIndex(t *testing.T) {
	want, raw := indexFixture(t)
	got, err := ReadIndex(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadIndexTruncatedEntry(t *testing.T) {
	_, raw := indexFixture(t)
	got, err := ReadIndex(bytes.NewReader(raw[:len(raw)-5]))
	require.Error(t, err)
	// complete entries before the truncation are preserved
	assert.Len(t, got, 2)
}

func TestReadIndexFile(t *testing.T) {
	want, raw := indexFixture(t)
	path := filepath.Join(t.TempDir(), "index.dat")
	require.NoError(t, ioutil.WriteFile(path, raw, 0o644))

	got, err := ReadIndexFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadIndexFileSizeCheck(t *testing.T) {
	_, raw := indexFixture(t)
	path := filepath.Join(t.TempDir(), "index.dat")
	require.NoError(t, ioutil.WriteFile(path, raw[:len(raw)-1], 0o644))

	_, err := ReadIndexFile(path)
	assert.Error(t, err)
}

func TestReadIndexFileMissing(t *testing.T) {
	_, err := ReadIndexFile(filepath.Join(t.TempDir(), "nope.dat"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadAnnotations(t *testing.T) {
	records := []AnnotationRecord{
		{
			SensingDays: 7471, SensingMillis: 58449000, SensingMicros: 123,
			DownlinkDays: 7471, DownlinkMillis: 58450000, DownlinkMicros: 456,
			PacketLength: 61519, Frames: 35, MissingFrames: 0, CRCFlag: 1,
		},
		{
			SensingDays: 7471, SensingMillis: 58449002, SensingMicros: 789,
			DownlinkDays: 7471, DownlinkMillis: 58450002, DownlinkMicros: 12,
			PacketLength: 61519, Frames: 35, MissingFrames: 1, CRCFlag: 0,
		},
	}
	var buf bytes.Buffer
	for _, r := range records {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, r))
	}
	require.Len(t, buf.Bytes(), len(records)*AnnotationRecordSize)

	got, err := ReadAnnotations(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, records, got)
}
