// Package encutil handles text encoding fallback and delimiter sniffing
// for uploaded delimited files. It isolates the x/text dependency the way
// yamlutil isolates the YAML library.
package encutil

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var ErrUndecodable = errors.New("encutil: input not decodable with any known encoding")

// utf8BOM marks UTF-8 files exported by spreadsheet tools on Windows.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// fallbackEncodings is the ordered list tried after plain UTF-8.
// Windows-1251 covers Cyrillic marketplace exports; Latin-1 decodes any
// byte sequence and acts as the last resort.
var fallbackEncodings = []encoding.Encoding{
	charmap.Windows1251,
	charmap.ISO8859_1,
}

// DecodeText converts raw upload bytes to UTF-8, trying UTF-8 (with or
// without BOM) first, then each fallback encoding in order.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	for _, enc := range fallbackEncodings {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if utf8.Valid(out) {
			return string(out), nil
		}
	}
	return "", ErrUndecodable
}

// SniffDelimiter picks ';' or ',' by counting occurrences in the header
// line. Semicolon wins ties: Cyrillic-locale exports default to it.
func SniffDelimiter(header string) rune {
	if strings.Count(header, ";") >= strings.Count(header, ",") &&
		strings.Contains(header, ";") {
		return ';'
	}
	if strings.Contains(header, ",") {
		return ','
	}
	return ';'
}

// ReadDelimited decodes and parses a delimited text file into rows.
// The delimiter is sniffed from the first line.
func ReadDelimited(data []byte) ([][]string, error) {
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}
	header, _, _ := strings.Cut(text, "\n")

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = SniffDelimiter(header)
	r.FieldsPerRecord = -1 // ragged rows are the norm in these exports
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("encutil: parsing delimited text: %w", err)
	}
	return rows, nil
}

// Lines decodes the input and splits it into trimmed, non-empty lines.
// Used for marking-code files that carry one code per line.
func Lines(data []byte) ([]string, error) {
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}
