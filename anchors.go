package labelmerge

import (
	"fmt"
	"strings"
)

// Anchor is one fixed region on a label. Coordinates are millimeters
// from the page's top-left corner. Gap is the minimum clearance to
// neighboring anchors the layout engine must respect.
type Anchor struct {
	X, Y, W, H float64
	Gap        float64
}

// set reports whether the anchor participates in this layout at all.
func (a Anchor) set() bool { return a.W > 0 && a.H > 0 }

// AnchorSet fixes the geometry of every label region for one
// (variant, template) combination. The layout engine never invents new
// geometry: it only chooses font sizes, line breaks and content
// reduction inside these boxes.
type AnchorSet struct {
	Code   Anchor // DataMatrix
	Linear Anchor // EAN-13 / Code128
	Org    Anchor // organization + registration line
	Name   Anchor // product name block
	Chars  Anchor // characteristics block (article, size, color, ...)
	Number Anchor // serial number corner
}

type variantTemplate struct {
	Variant, Template string
}

// anchorTable is static configuration data, never mutated at runtime.
// Combinations absent from the table are explicitly unsupported.
var anchorTable = map[variantTemplate]AnchorSet{
	{VariantBasic, Template58x40}: {
		Code:   Anchor{X: 2, Y: 2, W: 22, H: 22, Gap: 1.5},
		Org:    Anchor{X: 26, Y: 2, W: 30, H: 4, Gap: 1},
		Name:   Anchor{X: 26, Y: 7, W: 30, H: 9.5, Gap: 1},
		Chars:  Anchor{X: 26, Y: 17.5, W: 30, H: 9.5, Gap: 1},
		Linear: Anchor{X: 6, Y: 28, W: 46, H: 9, Gap: 1.5},
		Number: Anchor{X: 50, Y: 37, W: 7, H: 2.5, Gap: 0.5},
	},
	{VariantExtended, Template58x40}: {
		Code:   Anchor{X: 2, Y: 2, W: 22, H: 22, Gap: 1.5},
		Org:    Anchor{X: 26, Y: 2, W: 30, H: 3.5, Gap: 0.8},
		Name:   Anchor{X: 26, Y: 6, W: 30, H: 8, Gap: 0.8},
		Chars:  Anchor{X: 26, Y: 14.5, W: 30, H: 11.5, Gap: 0.8},
		Linear: Anchor{X: 6, Y: 28, W: 46, H: 9, Gap: 1.5},
		Number: Anchor{X: 50, Y: 37, W: 7, H: 2.5, Gap: 0.5},
	},
	{VariantTwoColumn, Template58x40}: {
		Code:   Anchor{X: 34, Y: 2, W: 22, H: 22, Gap: 1.5},
		Org:    Anchor{X: 2, Y: 2, W: 30, H: 4, Gap: 1},
		Name:   Anchor{X: 2, Y: 7, W: 30, H: 9.5, Gap: 1},
		Chars:  Anchor{X: 2, Y: 17.5, W: 30, H: 9.5, Gap: 1},
		Linear: Anchor{X: 6, Y: 28, W: 46, H: 9, Gap: 1.5},
		Number: Anchor{X: 50, Y: 37, W: 7, H: 2.5, Gap: 0.5},
	},
	{VariantBasic, Template58x30}: {
		Code:   Anchor{X: 2, Y: 2, W: 20, H: 20, Gap: 1.2},
		Org:    Anchor{X: 24, Y: 2, W: 32, H: 3.5, Gap: 0.8},
		Name:   Anchor{X: 24, Y: 6, W: 32, H: 8, Gap: 0.8},
		Chars:  Anchor{X: 24, Y: 14.5, W: 32, H: 6, Gap: 0.8},
		Linear: Anchor{X: 24, Y: 21.5, W: 32, H: 6.5, Gap: 1},
		Number: Anchor{X: 52, Y: 27.5, W: 5, H: 2, Gap: 0.5},
	},
	{VariantExtended, Template58x30}: {
		Code:   Anchor{X: 2, Y: 2, W: 18, H: 18, Gap: 1.2},
		Org:    Anchor{X: 22, Y: 2, W: 34, H: 3, Gap: 0.6},
		Name:   Anchor{X: 22, Y: 5.2, W: 34, H: 7, Gap: 0.6},
		Chars:  Anchor{X: 22, Y: 12.5, W: 34, H: 8.5, Gap: 0.6},
		Linear: Anchor{X: 22, Y: 21.5, W: 34, H: 6.5, Gap: 1},
		Number: Anchor{X: 52, Y: 27.5, W: 5, H: 2, Gap: 0.5},
	},
	{VariantTwoColumn, Template58x30}: {
		Code:   Anchor{X: 36, Y: 2, W: 20, H: 20, Gap: 1.2},
		Org:    Anchor{X: 2, Y: 2, W: 32, H: 3.5, Gap: 0.8},
		Name:   Anchor{X: 2, Y: 6, W: 32, H: 8, Gap: 0.8},
		Chars:  Anchor{X: 2, Y: 14.5, W: 32, H: 6, Gap: 0.8},
		Linear: Anchor{X: 2, Y: 21.5, W: 32, H: 6.5, Gap: 1},
		Number: Anchor{X: 52, Y: 27.5, W: 5, H: 2, Gap: 0.5},
	},
	{VariantBasic, Template43x25}: {
		Code:   Anchor{X: 2, Y: 2, W: 16, H: 16, Gap: 1},
		Org:    Anchor{X: 2, Y: 19, W: 16, H: 4, Gap: 0.6},
		Name:   Anchor{X: 20, Y: 2, W: 21, H: 10, Gap: 0.8},
		Chars:  Anchor{X: 20, Y: 12.5, W: 21, H: 5, Gap: 0.8},
		Linear: Anchor{X: 20, Y: 18.5, W: 21, H: 5, Gap: 0.8},
		Number: Anchor{X: 38, Y: 23.2, W: 4, H: 1.6, Gap: 0.4},
	},
	// extended and two-column do not fit 43x25: explicitly unsupported.
}

// AnchorsFor returns the fixed anchor set for a variant/template
// combination, or ErrUnsupportedCombination.
func AnchorsFor(variant, template string) (AnchorSet, error) {
	key := variantTemplate{strings.ToLower(variant), strings.ToLower(template)}
	set, ok := anchorTable[key]
	if !ok {
		return AnchorSet{}, fmt.Errorf("%w: %s on %s", ErrUnsupportedCombination, variant, template)
	}
	return set, nil
}

// validateAnchorTable checks the whole table once at startup: every
// entry must have a complete anchor set that stays inside its template's
// physical bounds. A violation is a programmer error in the static data.
func validateAnchorTable() error {
	for key, set := range anchorTable {
		w, h := TemplateSizeMM(key.Template)
		if w == 0 {
			return fmt.Errorf("%w: unknown template %q", ErrIncompleteAnchorSet, key.Template)
		}
		anchors := map[string]Anchor{
			"code":   set.Code,
			"linear": set.Linear,
			"name":   set.Name,
			"chars":  set.Chars,
			"org":    set.Org,
			"number": set.Number,
		}
		for name, a := range anchors {
			if !a.set() {
				return fmt.Errorf("%w: %s/%s missing %s",
					ErrIncompleteAnchorSet, key.Variant, key.Template, name)
			}
			if a.X < 0 || a.Y < 0 || a.X+a.W > w || a.Y+a.H > h {
				return fmt.Errorf("%w: %s/%s anchor %s out of bounds",
					ErrIncompleteAnchorSet, key.Variant, key.Template, name)
			}
		}
	}
	return nil
}
