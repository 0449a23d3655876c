package labelmerge

import (
	"fmt"
	"strings"
)

// Label template constants: the closed set of physical label sizes.
const (
	Template58x40 = "58x40"
	Template58x30 = "58x30"
	Template43x25 = "43x25"
)

// Layout variant constants: the closed set of content arrangements.
const (
	VariantBasic     = "basic"
	VariantExtended  = "extended"
	VariantTwoColumn = "two-column"
)

// Numbering mode constants.
const (
	NumberingNone       = "none"
	NumberingSequential = "sequential"
	NumberingPerItem    = "per-item"
	NumberingContinued  = "continued"
)

// templateSizes maps each template to its physical size in millimeters.
var templateSizes = map[string]struct{ W, H float64 }{
	Template58x40: {58, 40},
	Template58x30: {58, 30},
	Template43x25: {43, 25},
}

// TemplateSizeMM returns the physical width and height of a label
// template in millimeters. Unknown templates return (0, 0).
func TemplateSizeMM(template string) (w, h float64) {
	s, ok := templateSizes[strings.ToLower(template)]
	if !ok {
		return 0, 0
	}
	return s.W, s.H
}

// FieldFlags enables or disables individual label fields. The zero value
// shows nothing; DefaultFieldFlags enables the common set.
type FieldFlags struct {
	Name           bool
	Article        bool
	Size           bool
	Color          bool
	Brand          bool
	Composition    bool
	Country        bool
	Manufacturer   bool
	Importer       bool
	ProductionDate bool
	Certificate    bool
	Address        bool
	Organization   bool
	Registration   bool
	EAN            bool // linear barcode block
}

// DefaultFieldFlags returns the field set a typical marketplace label shows.
func DefaultFieldFlags() FieldFlags {
	return FieldFlags{
		Name:         true,
		Article:      true,
		Size:         true,
		Color:        true,
		Organization: true,
		EAN:          true,
	}
}

// GenerateConfig configures one label batch. No ambient global state:
// everything the pipeline needs to know arrives here.
type GenerateConfig struct {
	Template string // "58x40", "58x30", "43x25"
	Variant  string // "basic", "extended", "two-column"

	Fields       FieldFlags
	Organization string // organization/seller line
	Registration string // OGRN/registration text

	Numbering    string // "none", "sequential", "per-item", "continued"
	ContinueFrom int    // first number for NumberingContinued

	Separate      bool // two pages per label: barcode page + code page
	RunPreflight  bool
	DemoWatermark bool
	ForceGenerate bool // proceed when codes outnumber items (excess truncated)
}

// DefaultGenerateConfig returns a combined-output 58x40 basic configuration.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Template:  Template58x40,
		Variant:   VariantBasic,
		Fields:    DefaultFieldFlags(),
		Numbering: NumberingNone,
	}
}

// Validate checks that every closed-set value is a member of its set.
// Comparison is case-insensitive; values are not mutated.
func (c *GenerateConfig) Validate() error {
	if _, ok := templateSizes[strings.ToLower(c.Template)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidTemplate, c.Template)
	}
	switch strings.ToLower(c.Variant) {
	case VariantBasic, VariantExtended, VariantTwoColumn:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVariant, c.Variant)
	}
	switch strings.ToLower(c.Numbering) {
	case NumberingNone, NumberingSequential, NumberingPerItem:
	case NumberingContinued:
		if c.ContinueFrom < 1 {
			return fmt.Errorf("%w: continued numbering needs a start >= 1, got %d",
				ErrInvalidNumbering, c.ContinueFrom)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidNumbering, c.Numbering)
	}
	return nil
}

// Image kinds placed on a label. The DrawingPlan references code payloads
// by kind; the renderer invokes the codec, keeping layout pure.
const (
	ImageDataMatrix = "datamatrix"
	ImageLinear     = "linear"
)

// TextOp positions one line of text on a label. Coordinates are
// millimeters from the page's top-left corner.
type TextOp struct {
	Text     string
	X, Y     float64 // baseline origin, mm
	SizePt   float64
	Bold     bool
	MaxWidth float64 // column width the line was fitted against, mm
}

// ImageOp positions a code image on a label. Payload is the string the
// codec will encode; Kind selects the symbology.
type ImageOp struct {
	Kind       string
	Payload    string
	X, Y, W, H float64 // mm
}

// LineOp draws a horizontal or vertical rule.
type LineOp struct {
	X1, Y1, X2, Y2 float64 // mm
	WidthMM        float64
}

// DrawingPlan is the layout engine's output for one label: an ordered
// list of positioned primitives. Pure value; consumed once by the
// renderer and discarded.
type DrawingPlan struct {
	Template string
	Texts    []TextOp
	Images   []ImageOp
	Lines    []LineOp
	// Step records which degradation step produced the plan (1-based).
	Step int
	// Failed marks a plan that stands in for a label whose content could
	// not fit; the renderer draws an explicit error marker instead of
	// silently truncated text.
	Failed *LayoutOverflowError
}

// Status levels for preflight findings, ordered by severity.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// statusRank orders finding statuses for worst-of aggregation.
func statusRank(s string) int {
	switch s {
	case StatusError:
		return 2
	case StatusWarning:
		return 1
	default:
		return 0
	}
}

// PreflightFinding is one check result.
type PreflightFinding struct {
	Check   string // stable check identifier, e.g. "datamatrix_size"
	Status  string // "ok", "warning", "error"
	Message string
	Field   string         // optional field identifier
	Details map[string]any // optional structured details
}

// PreflightResult aggregates findings for one batch.
type PreflightResult struct {
	Findings      []PreflightFinding
	OverallStatus string
	CanProceed    bool
}

// aggregate computes OverallStatus (worst finding) and CanProceed
// (no error findings) from Findings.
func (r *PreflightResult) aggregate() {
	worst := StatusOK
	for _, f := range r.Findings {
		if statusRank(f.Status) > statusRank(worst) {
			worst = f.Status
		}
	}
	r.OverallStatus = worst
	r.CanProceed = worst != StatusError
}
