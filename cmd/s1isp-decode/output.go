package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarmap/go-s1isp/isp"
)

// writeRecords dumps the flattened record metadata in the requested format.
// The json variant also carries the packet byte offsets and the
// sub-commutated slots, mirroring what the decoder hands back; csv and
// ndjson carry the record metadata only.
func writeRecords(records []isp.Record, offsets []int64, subcom []isp.SubComItem,
	outfile, format string, enumValue bool) error {
	f, err := os.Create(outfile)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "csv":
		return writeCSV(f, records, enumValue)
	case "json":
		return writeJSON(f, records, offsets, subcom, enumValue)
	case "ndjson":
		return writeNDJSON(f, records, enumValue)
	}
	return fmt.Errorf("unknown output format: %q", format)
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func writeCSV(f *os.File, records []isp.Record, enumValue bool) error {
	w := csv.NewWriter(f)
	columns := isp.RecordColumns()
	if err := w.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for i := range records {
		meta := records[i].Metadata(enumValue)
		for j, col := range columns {
			row[j] = cellString(meta[col])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(f *os.File, records []isp.Record, offsets []int64,
	subcom []isp.SubComItem, enumValue bool) error {
	metas := make([]map[string]interface{}, len(records))
	for i := range records {
		metas[i] = records[i].Metadata(enumValue)
	}
	doc := map[string]interface{}{
		"records": metas,
		"offsets": offsets,
		"subcom":  subcomDocs(subcom),
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeNDJSON(f *os.File, records []isp.Record, enumValue bool) error {
	enc := json.NewEncoder(f)
	for i := range records {
		if err := enc.Encode(records[i].Metadata(enumValue)); err != nil {
			return err
		}
	}
	return nil
}

func subcomDocs(items []isp.SubComItem) []map[string]interface{} {
	out := make([]map[string]interface{}, len(items))
	for i, item := range items {
		out[i] = map[string]interface{}{
			"packet_count":    item.PacketCount,
			"pri_count":       item.PRICount,
			"data_word_index": item.DataWordIndex,
			"data_word":       fmt.Sprintf("%02x%02x", item.DataWord[0], item.DataWord[1]),
		}
	}
	return out
}
