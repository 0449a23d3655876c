package labelmerge

import (
	"fmt"
	"strings"

	"github.com/alnah/go-labelmerge/internal/encutil"
)

// codeHeaderSynonyms recognize a header line in marking-code exports.
var codeHeaderSynonyms = []string{"code", "код", "ki", "ки", "datamatrix"}

// IngestCodes parses a marking-code file: delimited text with an optional
// header line, one code per row, delimiter sniffed as ';' or ',' and
// encodings tried across the UTF-8 → Windows-1251 → Latin-1 fallback
// list. Codes too short to carry a crypto tail are rejected individually;
// rejects holds a capped sample of their messages (nil when every row
// parsed). Parsing never aborts on a single bad row; only a file with
// zero valid codes is an error.
func IngestCodes(data []byte) (codes []MarkingCode, rejects *CodeParseError, err error) {
	if len(data) == 0 {
		return nil, nil, ErrEmptyInput
	}

	lines, err := encutil.Lines(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if len(lines) == 0 {
		return nil, nil, ErrEmptyInput
	}

	delim := encutil.SniffDelimiter(lines[0])
	if isCodeHeader(lines[0]) {
		lines = lines[1:]
	}

	var samples []string
	total := 0
	for i, line := range lines {
		raw := line
		// Delimited exports carry the code in the first populated cell.
		if cut := strings.IndexRune(line, delim); cut != -1 {
			raw = strings.TrimSpace(line[:cut])
		}
		raw = strings.Trim(raw, `"`)
		if raw == "" {
			continue
		}
		if len(raw) < minCodeLength {
			total++
			if len(samples) < maxErrorSamples {
				samples = append(samples, fmt.Sprintf("line %d: code too short (%d chars, need %d)",
					i+1, len(raw), minCodeLength))
			}
			continue
		}
		codes = append(codes, MarkingCode(raw))
	}

	if total > 0 {
		rejects = &CodeParseError{Samples: samples, Total: total}
	}
	if len(codes) == 0 {
		if rejects != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrNoValidCodes, rejects)
		}
		return nil, nil, ErrNoValidCodes
	}
	return codes, rejects, nil
}

// isCodeHeader reports whether the first line is a header rather than a
// code. Marking codes always start with the digit AI prefix, so a line
// leading with letters and matching a known synonym is a header.
func isCodeHeader(line string) bool {
	first, _, _ := strings.Cut(line, ";")
	first, _, _ = strings.Cut(first, ",")
	norm := strings.ToLower(strings.TrimSpace(first))
	if norm == "" {
		return false
	}
	if isDigits(norm[:1]) {
		return false
	}
	for _, syn := range codeHeaderSynonyms {
		if strings.Contains(norm, syn) {
			return true
		}
	}
	// A letter-leading first cell that is far too short to be a code is
	// treated as a header even without a synonym hit.
	return len(norm) < minCodeLength
}
