package labelmerge

import (
	"fmt"
	"strings"
)

// Match pairs every marking code with its source item by GTIN.
//
// Items are indexed by both the raw barcode and its zero-stripped form,
// so "04601234567890" and "4601234567890" resolve to the same item. Every
// code must resolve; otherwise the whole batch fails with a
// *MatchingError naming up to five unmatched barcodes — no partial pair
// set is ever produced. The result preserves code input order and runs in
// O(items+codes).
//
// Serial numbers are assigned per cfg numbering mode:
//   - none: Serial stays ""
//   - sequential: 1..len(codes) in code order
//   - per-item: counter restarts at 1 for each distinct item barcode
//   - continued: sequential starting at cfg.ContinueFrom
func Match(items []SourceItem, codes []MarkingCode, cfg GenerateConfig) ([]MatchedPair, error) {
	index := make(map[string]int, len(items)*2)
	for i, it := range items {
		if _, seen := index[it.Barcode]; !seen {
			index[it.Barcode] = i
		}
		stripped := strings.TrimPrefix(it.Barcode, "0")
		if _, seen := index[stripped]; !seen {
			index[stripped] = i
		}
	}

	pairs := make([]MatchedPair, 0, len(codes))
	var unmatched []string
	total := 0
	perItem := make(map[string]int)

	for n, code := range codes {
		bc := code.Barcode()
		idx, ok := index[bc]
		if !ok {
			idx, ok = index[code.GTIN()]
		}
		if !ok {
			total++
			if len(unmatched) < maxErrorSamples {
				if bc == "" {
					bc = string(code)
					if len(bc) > 20 {
						bc = bc[:20] + "…"
					}
				}
				unmatched = append(unmatched, bc)
			}
			continue
		}

		pair := MatchedPair{Item: items[idx], Code: code}
		switch strings.ToLower(cfg.Numbering) {
		case NumberingSequential:
			pair.Serial = fmt.Sprintf("%d", n+1)
		case NumberingContinued:
			pair.Serial = fmt.Sprintf("%d", cfg.ContinueFrom+n)
		case NumberingPerItem:
			perItem[items[idx].Barcode]++
			pair.Serial = fmt.Sprintf("%d", perItem[items[idx].Barcode])
		}
		pairs = append(pairs, pair)
	}

	if total > 0 {
		return nil, &MatchingError{Unmatched: unmatched, Total: total}
	}
	return pairs, nil
}

// DistinctGTINs returns the set of distinct GTINs in a code batch, in
// first-seen order. More than one distinct GTIN in a single batch is a
// preflight advisory (possible SKU mixing).
func DistinctGTINs(codes []MarkingCode) []string {
	seen := make(map[string]struct{}, 1)
	var out []string
	for _, c := range codes {
		g := c.GTIN()
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
