package labelmerge

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alnah/go-labelmerge/internal/encutil"
)

// minBarcodeDigits is the shortest cleaned barcode accepted as valid.
// Rows below it are skipped, not errored.
const minBarcodeDigits = 8

// previewSampleRows caps how many sample rows the ingestion preview keeps.
const previewSampleRows = 5

// columnSynonyms maps a canonical field name to header-cell synonyms.
// Matching is case-insensitive and substring-based, so "Штрихкод товара"
// matches the "штрихкод" synonym. Multilingual on purpose: source files
// come from several marketplaces.
var columnSynonyms = map[string][]string{
	"barcode":        {"barcode", "баркод", "штрихкод", "штрих-код", "ean", "gtin", "шк"},
	"name":           {"name", "название", "наименование", "товар", "предмет", "product"},
	"article":        {"article", "артикул", "sku", "vendor code", "код товара"},
	"size":           {"size", "размер"},
	"color":          {"color", "colour", "цвет"},
	"brand":          {"brand", "бренд", "марка", "торговая марка"},
	"composition":    {"composition", "состав", "материал"},
	"country":        {"country", "страна", "страна производства"},
	"manufacturer":   {"manufacturer", "производитель", "изготовитель"},
	"importer":       {"importer", "импортер", "импортёр"},
	"productiondate": {"production date", "дата производства", "дата изготовления"},
	"certificate":    {"certificate", "сертификат", "декларация"},
	"address":        {"address", "адрес"},
}

// IngestPreview describes what ingestion detected, for the external
// human-confirmation step.
type IngestPreview struct {
	BarcodeColumn string         // header text of the detected barcode column
	BarcodeIndex  int            // zero-based column index
	Candidates    []string       // other headers that also looked like barcodes
	Columns       map[string]int // canonical field -> column index
	SampleRows    [][]string     // up to previewSampleRows raw rows
}

// IngestResult is the parsed item sequence plus its preview.
type IngestResult struct {
	Items   []SourceItem
	Preview IngestPreview
	Skipped int // rows dropped for missing/short barcode
}

// IngestItems parses a source spreadsheet (.xlsx) or delimited text file
// into ordered SourceItems. The barcode column and optional metadata
// columns are detected heuristically from the header row. Rows whose
// cleaned barcode is empty or shorter than minBarcodeDigits are skipped;
// if no valid rows remain the whole ingestion fails.
func IngestItems(data []byte) (*IngestResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	rows, err := readRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	header := rows[0]
	columns := detectColumns(header)
	barcodeIdx, candidates, ok := detectBarcodeColumn(header, rows[1:])
	if !ok {
		return nil, fmt.Errorf("%w: headers %v", ErrNoBarcodeColumn, header)
	}

	preview := IngestPreview{
		BarcodeIndex: barcodeIdx,
		Candidates:   candidates,
		Columns:      columns,
	}
	if barcodeIdx < len(header) {
		preview.BarcodeColumn = header[barcodeIdx]
	}

	var items []SourceItem
	skipped := 0
	for i, row := range rows[1:] {
		if len(preview.SampleRows) < previewSampleRows {
			preview.SampleRows = append(preview.SampleRows, row)
		}
		bc := NormalizeBarcode(cell(row, barcodeIdx))
		if len(bc) < minBarcodeDigits {
			skipped++
			continue
		}
		items = append(items, SourceItem{
			Barcode:        bc,
			Name:           cell(row, columns["name"]),
			Article:        cell(row, columns["article"]),
			Size:           cell(row, columns["size"]),
			Color:          cell(row, columns["color"]),
			Brand:          cell(row, columns["brand"]),
			Composition:    cell(row, columns["composition"]),
			Country:        cell(row, columns["country"]),
			Manufacturer:   cell(row, columns["manufacturer"]),
			Importer:       cell(row, columns["importer"]),
			ProductionDate: cell(row, columns["productiondate"]),
			Certificate:    cell(row, columns["certificate"]),
			Address:        cell(row, columns["address"]),
			Row:            i,
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %d row(s) skipped", ErrNoValidItems, skipped)
	}

	return &IngestResult{Items: items, Preview: preview, Skipped: skipped}, nil
}

// readRows turns the raw upload into a row matrix. XLSX is recognized by
// its zip signature; everything else is treated as delimited text.
func readRows(data []byte) ([][]string, error) {
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		defer f.Close()

		sheet := f.GetSheetName(0)
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		return rows, nil
	}
	return encutil.ReadDelimited(data)
}

// cell returns row[idx] trimmed, or "" when the column is absent. A
// missing canonical column maps to index -1 via detectColumns.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// detectColumns maps canonical field names to header column indexes.
// Absent fields map to -1.
func detectColumns(header []string) map[string]int {
	columns := make(map[string]int, len(columnSynonyms))
	for field := range columnSynonyms {
		columns[field] = -1
	}
	for idx, h := range header {
		norm := strings.ToLower(strings.TrimSpace(h))
		if norm == "" {
			continue
		}
		for field, synonyms := range columnSynonyms {
			if columns[field] != -1 {
				continue
			}
			for _, syn := range synonyms {
				if strings.Contains(norm, syn) {
					columns[field] = idx
					break
				}
			}
		}
	}
	return columns
}

// detectBarcodeColumn finds the barcode column: a header synonym match
// wins; otherwise the first column whose body cells look like barcodes
// (mostly 8+ digit values) is used. Other synonym-matching headers are
// reported as candidates for the confirmation step.
func detectBarcodeColumn(header []string, body [][]string) (idx int, candidates []string, ok bool) {
	idx = -1
	for i, h := range header {
		norm := strings.ToLower(strings.TrimSpace(h))
		for _, syn := range columnSynonyms["barcode"] {
			if strings.Contains(norm, syn) {
				if idx == -1 {
					idx = i
				} else {
					candidates = append(candidates, header[i])
				}
				break
			}
		}
	}
	if idx != -1 {
		return idx, candidates, true
	}

	// No header hit: score columns by how many body cells clean up to a
	// plausible barcode.
	bestScore := 0
	for i := range header {
		score := 0
		for _, row := range body {
			if len(NormalizeBarcode(cell(row, i))) >= minBarcodeDigits {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			idx = i
		}
	}
	return idx, candidates, idx != -1
}

// NormalizeBarcode reduces a raw spreadsheet cell to a digit string.
// Scientific-notation floats ("4.60123E+12") and trailing ".0" are
// collapsed to integer digits; any remaining non-digit characters are
// stripped.
func NormalizeBarcode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "eE") || strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
			s = strconv.FormatFloat(f, 'f', 0, 64)
		}
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
