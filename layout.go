package labelmerge

import (
	"strings"
)

// Fixed font roles. Values are points; the ladder only ever moves the
// name and characteristics sizes, each with its own floor.
const (
	orgFontPt    = 5.5
	numberFontPt = 5.0

	nameFontRefPt   = 8.0
	nameFontFloorPt = 6.0

	charsFontRefPt   = 7.0
	charsFontFloorPt = 5.0
)

// ladderStep is one rung of the degradation ladder: a fixed parameter
// set tried as-is. Steps are ordered from faithful to aggressive; the
// first one that fits wins.
type ladderStep struct {
	Name           string
	LineSpacing    float64 // multiplier on the font's natural line height
	NameSizePt     float64
	CharsSizePt    float64
	MergeSizeColor bool // collapse size and color into one "size/color" token
}

// degradationLadder is tried in order. Expressing the ladder as data
// keeps each rung unit-testable on its own.
var degradationLadder = []ladderStep{
	{Name: "reference", LineSpacing: 1.25, NameSizePt: nameFontRefPt, CharsSizePt: charsFontRefPt},
	{Name: "tight-spacing", LineSpacing: 1.02, NameSizePt: nameFontRefPt, CharsSizePt: charsFontRefPt},
	{Name: "reduced-fonts", LineSpacing: 1.02, NameSizePt: nameFontFloorPt, CharsSizePt: charsFontFloorPt},
	{Name: "merged-fields", LineSpacing: 1.02, NameSizePt: nameFontFloorPt, CharsSizePt: charsFontFloorPt, MergeSizeColor: true},
}

// ComposeLabel computes a physically valid drawing plan for one label.
//
// The function is pure: identical inputs always produce the identical
// plan or the identical failure, so the ladder can be unit-tested
// without a rendering backend. Geometry comes exclusively from the
// anchor table; the ladder only picks font sizes, line breaks and
// content reduction inside those boxes.
func ComposeLabel(cfg GenerateConfig, pair MatchedPair) (*DrawingPlan, error) {
	anchors, err := AnchorsFor(cfg.Variant, cfg.Template)
	if err != nil {
		return nil, err
	}

	var lastFail *LayoutOverflowError
	for i, step := range degradationLadder {
		plan, fail := composeAtStep(cfg, anchors, pair, step)
		if fail == nil {
			plan.Step = i + 1
			plan.Template = cfg.Template
			return plan, nil
		}
		lastFail = fail
	}
	return nil, lastFail
}

// composeAtStep attempts one ladder rung. It returns either a complete
// plan or the first field-attributed overflow it hits.
func composeAtStep(cfg GenerateConfig, anchors AnchorSet, pair MatchedPair, step ladderStep) (*DrawingPlan, *LayoutOverflowError) {
	plan := &DrawingPlan{}

	// Fixed images first: the DataMatrix always prints, the linear
	// barcode prints when the EAN field is enabled.
	plan.Images = append(plan.Images, ImageOp{
		Kind:    ImageDataMatrix,
		Payload: string(pair.Code),
		X:       anchors.Code.X, Y: anchors.Code.Y,
		W: anchors.Code.W, H: anchors.Code.H,
	})
	if cfg.Fields.EAN {
		plan.Images = append(plan.Images, ImageOp{
			Kind:    ImageLinear,
			Payload: pair.Item.Barcode,
			X:       anchors.Linear.X, Y: anchors.Linear.Y,
			W: anchors.Linear.W, H: anchors.Linear.H,
		})
	}

	// Organization line: fixed font, wrapped inside its own anchor.
	orgText := orgLine(cfg)
	if orgText != "" {
		ops, fail := fitBlock(orgText, "organization",
			"shorten the organization or registration text",
			anchors.Org, anchors.Org.Y, anchors.Org.Y+anchors.Org.H,
			orgFontPt, false, step.LineSpacing)
		if fail != nil {
			return nil, fail
		}
		plan.Texts = append(plan.Texts, ops...)
	}

	// Product name: bold, vertically centered between the organization
	// line above and the characteristics block below.
	if cfg.Fields.Name && pair.Item.Name != "" {
		top := anchors.Name.Y
		bottom := anchors.Name.Y + anchors.Name.H
		// The org block only pushes the name down when it actually sits
		// above it; on 43x25 the org line lives under the code instead.
		if orgText != "" && anchors.Org.Y < anchors.Name.Y {
			top = anchors.Org.Y + anchors.Org.H + anchors.Name.Gap
		}
		ops, fail := fitBlock(pair.Item.Name, "name",
			"shorten the product name",
			anchors.Name, top, bottom,
			step.NameSizePt, true, step.LineSpacing)
		if fail != nil {
			return nil, fail
		}
		plan.Texts = append(plan.Texts, ops...)
	}

	// Characteristics block: one logical line per enabled field,
	// centered between the name block and the linear barcode.
	lines := charLines(cfg.Fields, pair.Item, step.MergeSizeColor)
	if len(lines) > 0 {
		top := anchors.Chars.Y
		bottom := anchors.Chars.Y + anchors.Chars.H
		ops, fail := fitLines(lines, "characteristics",
			"shorten item characteristics or disable some fields",
			anchors.Chars, top, bottom,
			step.CharsSizePt, false, step.LineSpacing)
		if fail != nil {
			return nil, fail
		}
		plan.Texts = append(plan.Texts, ops...)
	}

	if pair.Serial != "" {
		plan.Texts = append(plan.Texts, TextOp{
			Text:     "#" + pair.Serial,
			X:        anchors.Number.X,
			Y:        anchors.Number.Y + fontAscentMM(numberFontPt),
			SizePt:   numberFontPt,
			MaxWidth: anchors.Number.W,
		})
	}

	return plan, nil
}

// fitBlock wraps a single logical text into the anchor's column width
// and vertically centers the wrapped lines between top and bottom.
func fitBlock(text, field, suggestion string, a Anchor, top, bottom, sizePt float64, bold bool, spacing float64) ([]TextOp, *LayoutOverflowError) {
	lines, ok := wrapText(text, a.W, sizePt, bold)
	if !ok {
		return nil, &LayoutOverflowError{Field: field, Suggestion: suggestion}
	}
	return placeLines(lines, field, suggestion, a, top, bottom, sizePt, bold, spacing)
}

// fitLines wraps several logical lines (each may still word-wrap) into
// one vertically centered block.
func fitLines(logical []string, field, suggestion string, a Anchor, top, bottom, sizePt float64, bold bool, spacing float64) ([]TextOp, *LayoutOverflowError) {
	var lines []string
	for _, l := range logical {
		wrapped, ok := wrapText(l, a.W, sizePt, bold)
		if !ok {
			return nil, &LayoutOverflowError{Field: field, Suggestion: suggestion}
		}
		lines = append(lines, wrapped...)
	}
	return placeLines(lines, field, suggestion, a, top, bottom, sizePt, bold, spacing)
}

// placeLines performs the vertical fit check and emits one TextOp per
// line, centered within [top, bottom].
func placeLines(lines []string, field, suggestion string, a Anchor, top, bottom, sizePt float64, bold bool, spacing float64) ([]TextOp, *LayoutOverflowError) {
	lineH := PtToMM(sizePt) * spacing
	total := lineH * float64(len(lines))
	avail := bottom - top
	if total > avail {
		return nil, &LayoutOverflowError{Field: field, Suggestion: suggestion}
	}

	y := top + (avail-total)/2
	ops := make([]TextOp, 0, len(lines))
	for _, line := range lines {
		ops = append(ops, TextOp{
			Text:     line,
			X:        a.X,
			Y:        y + fontAscentMM(sizePt),
			SizePt:   sizePt,
			Bold:     bold,
			MaxWidth: a.W,
		})
		y += lineH
	}
	return ops, nil
}

// wrapText breaks text into lines no wider than widthMM at the given
// font size. A single token wider than the column cannot be broken and
// makes the wrap fail: over-wide content is never silently clipped.
func wrapText(text string, widthMM, sizePt float64, bold bool) ([]string, bool) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, true
	}

	var lines []string
	current := ""
	for _, w := range words {
		if textWidthMM(w, sizePt, bold) > widthMM {
			return nil, false
		}
		candidate := w
		if current != "" {
			candidate = current + " " + w
		}
		if textWidthMM(candidate, sizePt, bold) <= widthMM {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = w
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines, true
}

// orgLine joins the organization and registration texts per the field
// flags.
func orgLine(cfg GenerateConfig) string {
	var parts []string
	if cfg.Fields.Organization && cfg.Organization != "" {
		parts = append(parts, cfg.Organization)
	}
	if cfg.Fields.Registration && cfg.Registration != "" {
		parts = append(parts, cfg.Registration)
	}
	return strings.Join(parts, ", ")
}

// charLines assembles the characteristics block: one logical line per
// enabled, non-empty field, in a fixed order. At the merged-fields rung
// size and color collapse into a single slash-joined token to save a
// line.
func charLines(flags FieldFlags, item SourceItem, mergeSizeColor bool) []string {
	var lines []string
	add := func(enabled bool, value string) {
		if enabled && value != "" {
			lines = append(lines, value)
		}
	}

	add(flags.Article, item.Article)
	if mergeSizeColor && flags.Size && flags.Color && item.Size != "" && item.Color != "" {
		lines = append(lines, item.Size+"/"+item.Color)
	} else {
		add(flags.Size, item.Size)
		add(flags.Color, item.Color)
	}
	add(flags.Brand, item.Brand)
	add(flags.Composition, item.Composition)
	add(flags.Country, item.Country)
	add(flags.Manufacturer, item.Manufacturer)
	add(flags.Importer, item.Importer)
	add(flags.ProductionDate, item.ProductionDate)
	add(flags.Certificate, item.Certificate)
	add(flags.Address, item.Address)
	return lines
}
