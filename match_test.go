package labelmerge

import (
	"errors"
	"strings"
	"testing"
)

// Additional marking-code fixtures sharing the tail of testMarkingCode.
const (
	testMarkingCodeB = "010460987654321021aBcDeF1234567890xyz" // GTIN 04609876543210
	testMarkingCodeX = "010499999999999921aBcDeF1234567890xyz" // GTIN without an item
)

func testItems() []SourceItem {
	return []SourceItem{
		{Barcode: "4601234567890", Name: "Shirt", Row: 0},
		{Barcode: "4609876543210", Name: "Socks", Row: 1},
	}
}

// ---------------------------------------------------------------------------
// TestMatch - Code-to-item pairing
// ---------------------------------------------------------------------------

func TestMatch(t *testing.T) {
	t.Parallel()

	t.Run("pairs preserve code order", func(t *testing.T) {
		t.Parallel()
		codes := []MarkingCode{testMarkingCodeB, testMarkingCode, testMarkingCodeB}
		pairs, err := Match(testItems(), codes, DefaultGenerateConfig())
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if len(pairs) != 3 {
			t.Fatalf("got %d pairs, want 3", len(pairs))
		}
		wantNames := []string{"Socks", "Shirt", "Socks"}
		for i, p := range pairs {
			if p.Item.Name != wantNames[i] {
				t.Errorf("pair %d item = %q, want %q", i, p.Item.Name, wantNames[i])
			}
			if p.Code != codes[i] {
				t.Errorf("pair %d code out of order", i)
			}
		}
	})

	t.Run("leading zero forms resolve to the same item", func(t *testing.T) {
		t.Parallel()
		items := []SourceItem{{Barcode: "04601234567890", Name: "Shirt"}}
		pairs, err := Match(items, []MarkingCode{testMarkingCode}, DefaultGenerateConfig())
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if pairs[0].Item.Name != "Shirt" {
			t.Errorf("zero-stripped barcode did not resolve")
		}
	})

	t.Run("one unmatched code fails the whole batch", func(t *testing.T) {
		t.Parallel()
		codes := []MarkingCode{testMarkingCode, testMarkingCodeX}
		pairs, err := Match(testItems(), codes, DefaultGenerateConfig())
		if pairs != nil {
			t.Errorf("got partial pairs alongside an error")
		}
		var matchErr *MatchingError
		if !errors.As(err, &matchErr) {
			t.Fatalf("error = %v, want *MatchingError", err)
		}
		if matchErr.Total != 1 || len(matchErr.Unmatched) != 1 {
			t.Errorf("Total = %d, samples = %d, want 1 and 1", matchErr.Total, len(matchErr.Unmatched))
		}
		if matchErr.Unmatched[0] != "4999999999999" {
			t.Errorf("unmatched sample = %q", matchErr.Unmatched[0])
		}
	})

	t.Run("error samples are capped with a remainder", func(t *testing.T) {
		t.Parallel()
		codes := make([]MarkingCode, 0, 7)
		for i := 0; i < 7; i++ {
			codes = append(codes, testMarkingCodeX)
		}
		_, err := Match(testItems(), codes, DefaultGenerateConfig())
		var matchErr *MatchingError
		if !errors.As(err, &matchErr) {
			t.Fatalf("error = %v, want *MatchingError", err)
		}
		if matchErr.Total != 7 {
			t.Errorf("Total = %d, want 7", matchErr.Total)
		}
		if len(matchErr.Unmatched) != maxErrorSamples {
			t.Errorf("samples = %d, want %d", len(matchErr.Unmatched), maxErrorSamples)
		}
		if !strings.Contains(matchErr.Error(), "+2 more") {
			t.Errorf("Error() = %q, want remainder note", matchErr.Error())
		}
	})
}

// ---------------------------------------------------------------------------
// TestMatchNumbering - Serial assignment modes
// ---------------------------------------------------------------------------

func TestMatchNumbering(t *testing.T) {
	t.Parallel()

	codes := []MarkingCode{testMarkingCode, testMarkingCodeB, testMarkingCode, testMarkingCode}

	tests := []struct {
		name         string
		numbering    string
		continueFrom int
		want         []string
	}{
		{name: "none leaves serials empty", numbering: NumberingNone, want: []string{"", "", "", ""}},
		{name: "sequential counts in code order", numbering: NumberingSequential, want: []string{"1", "2", "3", "4"}},
		{name: "per-item restarts per barcode", numbering: NumberingPerItem, want: []string{"1", "1", "2", "3"}},
		{name: "continued starts at the given number", numbering: NumberingContinued, continueFrom: 40, want: []string{"40", "41", "42", "43"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultGenerateConfig()
			cfg.Numbering = tt.numbering
			cfg.ContinueFrom = tt.continueFrom
			pairs, err := Match(testItems(), codes, cfg)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			for i, p := range pairs {
				if p.Serial != tt.want[i] {
					t.Errorf("pair %d serial = %q, want %q", i, p.Serial, tt.want[i])
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDistinctGTINs - GTIN set extraction
// ---------------------------------------------------------------------------

func TestDistinctGTINs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		codes []MarkingCode
		want  []string
	}{
		{
			name:  "duplicates collapse in first-seen order",
			codes: []MarkingCode{testMarkingCodeB, testMarkingCode, testMarkingCodeB},
			want:  []string{"04609876543210", "04601234567890"},
		},
		{
			name:  "codes without a GTIN are skipped",
			codes: []MarkingCode{"garbage", testMarkingCode},
			want:  []string{"04601234567890"},
		},
		{
			name:  "empty input",
			codes: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DistinctGTINs(tt.codes)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}
