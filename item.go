package labelmerge

import "strings"

// applicationIdentifierGTIN is the GS1 Application Identifier announcing
// a 14-digit GTIN at the start of a marking code.
const applicationIdentifierGTIN = "01"

// gtinLength is the fixed width of the GTIN field following the AI.
const gtinLength = 14

// minCodeLength is the shortest string that can still carry an
// AI-prefixed GTIN plus a crypto tail; shorter inputs are rejected at
// ingestion.
const minCodeLength = len(applicationIdentifierGTIN) + gtinLength + 15

// SourceItem is one marketplace SKU row. Immutable once parsed: created
// by ingestion, consumed by matching and layout, never mutated.
type SourceItem struct {
	Barcode        string // digits only
	Name           string
	Article        string
	Size           string
	Color          string
	Brand          string
	Composition    string
	Country        string
	Manufacturer   string
	Importer       string
	ProductionDate string
	Certificate    string
	Address        string
	Row            int // original row order index
}

// MarkingCode is a regulatory code string: an AI-prefixed GTIN plus a
// serial/crypto tail. Immutable.
type MarkingCode string

// GTIN extracts the 14-digit GTIN following the "01" Application
// Identifier. The AI is expected at offset 0; if absent there, the code
// is scanned for the AI substring as a fallback. Returns "" when no
// plausible GTIN is present.
func (c MarkingCode) GTIN() string {
	s := string(c)
	if g := gtinAt(s, 0); g != "" {
		return g
	}
	// Fallback: the AI may be preceded by group separators or other
	// AI fields in nonstandard exports.
	for i := 1; i+len(applicationIdentifierGTIN)+gtinLength <= len(s); i++ {
		if strings.HasPrefix(s[i:], applicationIdentifierGTIN) {
			if g := gtinAt(s, i); g != "" {
				return g
			}
		}
	}
	return ""
}

// gtinAt reads an AI-prefixed GTIN at offset i, returning "" unless all
// 14 following characters are digits.
func gtinAt(s string, i int) string {
	if !strings.HasPrefix(s[i:], applicationIdentifierGTIN) {
		return ""
	}
	start := i + len(applicationIdentifierGTIN)
	end := start + gtinLength
	if end > len(s) {
		return ""
	}
	g := s[start:end]
	if !isDigits(g) {
		return ""
	}
	return g
}

// Barcode returns the retail barcode form of the GTIN: one leading zero
// stripped, yielding the 13-digit form marketplaces use.
func (c MarkingCode) Barcode() string {
	g := c.GTIN()
	if g == "" {
		return ""
	}
	return strings.TrimPrefix(g, "0")
}

// Serial returns the serial/crypto tail following the GTIN field, using
// the same AI scan as GTIN. Returns "" when no plausible GTIN is present.
func (c MarkingCode) Serial() string {
	s := string(c)
	for i := 0; i+len(applicationIdentifierGTIN)+gtinLength <= len(s); i++ {
		if gtinAt(s, i) != "" {
			return s[i+len(applicationIdentifierGTIN)+gtinLength:]
		}
	}
	return ""
}

// isDigits reports whether s is non-empty and all ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MatchedPair binds one source item to one marking code. One item may
// appear in many pairs (serialized units); pair order follows code input
// order. Serial is "" under NumberingNone.
type MatchedPair struct {
	Item   SourceItem
	Code   MarkingCode
	Serial string
}
