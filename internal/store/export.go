package store

import (
	"encoding/json"
	"io"
)

// ExportData is the JSON shape of one archived run: the metadata plus the
// full per-tick table.
type ExportData struct {
	Meta    RunMetadata `json:"meta"`
	Steps   int         `json:"steps"`
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// ExportJSON writes an archived run as indented JSON.
func ExportJSON(w io.Writer, st *Store, runID string) error {
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	columns, rows, err := st.LoadTable(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Meta:    *meta,
		Steps:   len(rows),
		Columns: columns,
		Rows:    rows,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
