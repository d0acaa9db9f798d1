package reconcile

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// exportLineRe is the grammar of one export line, e.g.
//
//	4x Lightning Bolt (LEA)
//	2x Swamp (TSB) *f*
//	1x Arbor Elf (000:PromoPack) *pp*
//
// Group 1: quantity, 2: name, 3: set code, 5: optional variation token,
// 7: optional modifier token (foil/list/promo markers or a language code).
var exportLineRe = regexp.MustCompile(`^([0-9]+)x ([^(]+) \(([A-Z0-9]{3,4})(:([A-Za-z0-9]+))?\)( \*(f|list|pp|f-pp|f-pre|[A-Z]{2})\*)?$`)

// ExportRecord is one parsed line of the export file, before reconciliation.
type ExportRecord struct {
	Quantity   int
	Name       string
	SetCode    string
	Variation  string
	Modifier   string
	LineNumber int
}

// ParseLine parses a single export line.
func ParseLine(line string, lineNumber int) (ExportRecord, error) {
	m := exportLineRe.FindStringSubmatch(line)
	if m == nil {
		return ExportRecord{}, &ParseError{LineNumber: lineNumber, Input: line}
	}

	quantity, err := strconv.Atoi(m[1])
	if err != nil || quantity <= 0 {
		return ExportRecord{}, &ParseError{LineNumber: lineNumber, Input: line}
	}

	return ExportRecord{
		Quantity:   quantity,
		Name:       m[2],
		SetCode:    m[3],
		Variation:  m[5],
		Modifier:   m[7],
		LineNumber: lineNumber,
	}, nil
}

// ParseExport reads a whole export file. The first line is a title and is
// skipped, as are blank lines. Any malformed line aborts the parse.
func ParseExport(r io.Reader) ([]ExportRecord, error) {
	scanner := bufio.NewScanner(r)

	var records []ExportRecord
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if lineNumber == 1 || line == "" {
			continue
		}
		record, err := ParseLine(line, lineNumber)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return records, nil
}
