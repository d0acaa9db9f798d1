package reconcile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Record is one reconciled export line: catalog-resolved identity plus the
// owned quantity and printing flags.
type Record struct {
	Quantity        int    `json:"quantity"`
	Name            string `json:"name"`
	SetCode         string `json:"set"`
	CollectorNumber string `json:"collector_number"`
	Variation       string `json:"variation,omitempty"`
	TheList         bool   `json:"the_list"`
	Foil            bool   `json:"foil"`
	PromoPack       bool   `json:"promo_pack"`
	Prerelease      bool   `json:"prerelease"`
	Lang            string `json:"language"`
	ScryfallID      string `json:"scryfall_id"`
}

var recordHeader = []string{
	"Quantity", "Name", "Set", "Collector Number", "Variation",
	"List", "Foil", "Promo Pack", "Prerelease", "Language", "Scryfall ID",
}

// WriteRecords writes records in the pipe-delimited flat format consumed by
// the ledger seed step. encoding/csv quotes fields for us, so a card name that
// itself contains a pipe round-trips.
func WriteRecords(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	cw.Comma = '|'

	if err := cw.Write(recordHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.Quantity),
			r.Name,
			r.SetCode,
			r.CollectorNumber,
			r.Variation,
			strconv.FormatBool(r.TheList),
			strconv.FormatBool(r.Foil),
			strconv.FormatBool(r.PromoPack),
			strconv.FormatBool(r.Prerelease),
			r.Lang,
			r.ScryfallID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record for %s: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRecords reads back records written by WriteRecords.
func ReadRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = len(recordHeader)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read normalized records: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("normalized record file is empty")
	}
	for i, want := range recordHeader {
		if rows[0][i] != want {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, rows[0][i], want)
		}
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRecordRow(row)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecordRow(row []string) (Record, error) {
	quantity, err := strconv.Atoi(row[0])
	if err != nil {
		return Record{}, fmt.Errorf("bad quantity %q: %w", row[0], err)
	}

	rec := Record{
		Quantity:        quantity,
		Name:            row[1],
		SetCode:         row[2],
		CollectorNumber: row[3],
		Variation:       row[4],
		Lang:            row[9],
		ScryfallID:      row[10],
	}
	for _, f := range []struct {
		dst *bool
		col int
	}{
		{&rec.TheList, 5}, {&rec.Foil, 6}, {&rec.PromoPack, 7}, {&rec.Prerelease, 8},
	} {
		v, err := strconv.ParseBool(row[f.col])
		if err != nil {
			return Record{}, fmt.Errorf("bad flag %q in column %s: %w", row[f.col], recordHeader[f.col], err)
		}
		*f.dst = v
	}
	return rec, nil
}
