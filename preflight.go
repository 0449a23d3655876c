package labelmerge

import (
	"fmt"
	"image"

	"github.com/alnah/go-labelmerge/internal/imgutil"
)

// DataMatrix physical size thresholds in millimeters. Below the minimum
// scanners start to struggle; below the floor they reliably fail.
const (
	MinDataMatrixMM   = 22.0
	FloorDataMatrixMM = 15.0
)

// Contrast thresholds on the darkest/lightest intensity difference.
const (
	contrastGood = 180
	contrastPoor = 120
)

// estimatedModules approximates the module count of a marking-code
// DataMatrix when only its bitmap is available; serialized GS1 codes
// land on 22x22 symbols.
const estimatedModules = 22

// PreflightInput holds the already-produced artifacts the checker
// validates. Preflight is stateless: it inspects, never mutates.
type PreflightInput struct {
	Items []SourceItem
	Codes []MarkingCode

	// CodeImage is the rendered DataMatrix bitmap for the batch's first
	// code, quiet zone included. Nil skips the image-based checks.
	CodeImage image.Image
	// CodeSizeMM is the physical side length the DataMatrix prints at.
	CodeSizeMM float64

	// LinearImage is the rendered retail barcode bitmap, quiet zone
	// included, and LinearPayload the content it encodes. A nil image
	// skips the linear readability check.
	LinearImage   image.Image
	LinearPayload string
}

// Preflight runs every print-quality check over the input and aggregates
// the findings: overall status is the worst individual status and
// CanProceed is false exactly when some finding is an error.
func Preflight(in PreflightInput) *PreflightResult {
	r := &PreflightResult{}

	r.Findings = append(r.Findings, checkDataMatrixSize(in.CodeSizeMM))
	if in.CodeImage != nil {
		r.Findings = append(r.Findings, checkQuietZone(in.CodeImage))
		r.Findings = append(r.Findings, checkContrast(in.CodeImage))
		r.Findings = append(r.Findings, checkReadability(in.CodeImage, in.Codes))
	}
	if in.LinearImage != nil {
		r.Findings = append(r.Findings, checkLinearReadability(in.LinearImage, in.LinearPayload))
	}
	r.Findings = append(r.Findings, checkCodeCount(len(in.Items), len(in.Codes)))
	r.Findings = append(r.Findings, checkGTINConsistency(in.Codes))

	r.aggregate()
	return r
}

// checkDataMatrixSize validates the physical print size against the
// two-tier minimum.
func checkDataMatrixSize(sizeMM float64) PreflightFinding {
	f := PreflightFinding{
		Check:   "datamatrix_size",
		Details: map[string]any{"size_mm": sizeMM, "min_mm": MinDataMatrixMM},
	}
	switch {
	case sizeMM >= MinDataMatrixMM:
		f.Status = StatusOK
		f.Message = fmt.Sprintf("DataMatrix prints at %.1fmm", sizeMM)
	case sizeMM >= FloorDataMatrixMM:
		f.Status = StatusWarning
		f.Message = fmt.Sprintf("DataMatrix %.1fmm is below the recommended %.0fmm minimum", sizeMM, MinDataMatrixMM)
	default:
		f.Status = StatusError
		f.Message = fmt.Sprintf("DataMatrix %.1fmm is too small to scan reliably (floor %.0fmm)", sizeMM, FloorDataMatrixMM)
	}
	return f
}

// checkQuietZone binarizes the code image, finds the dark-pixel bounding
// box and measures the smallest margin to the four edges against the
// required quiet-zone width.
func checkQuietZone(img image.Image) PreflightFinding {
	f := PreflightFinding{Check: "quiet_zone"}

	bin := imgutil.Binarize(img, imgutil.DefaultThreshold)
	box, ok := imgutil.DarkBounds(bin, imgutil.DefaultThreshold)
	if !ok {
		f.Status = StatusError
		f.Message = "code image contains no dark pixels"
		return f
	}

	margin := imgutil.MinMargin(box, bin.Bounds())
	modulePx := box.Dx() / estimatedModules
	if modulePx < 1 {
		modulePx = 1
	}
	required := quietZoneModules * modulePx

	f.Details = map[string]any{"margin_px": margin, "required_px": required}
	switch {
	case margin >= required:
		f.Status = StatusOK
		f.Message = fmt.Sprintf("quiet zone %dpx meets the required %dpx", margin, required)
	case margin >= required/2:
		f.Status = StatusWarning
		f.Message = fmt.Sprintf("quiet zone %dpx is below the required %dpx", margin, required)
	default:
		f.Status = StatusError
		f.Message = fmt.Sprintf("quiet zone %dpx is under half the required %dpx", margin, required)
	}
	return f
}

// checkContrast measures the true intensity extrema of the code image.
func checkContrast(img image.Image) PreflightFinding {
	f := PreflightFinding{Check: "contrast"}

	darkest, lightest := imgutil.Contrast(img)
	diff := int(lightest) - int(darkest)
	f.Details = map[string]any{"darkest": darkest, "lightest": lightest, "diff": diff}
	switch {
	case diff >= contrastGood:
		f.Status = StatusOK
		f.Message = fmt.Sprintf("contrast %d is sufficient", diff)
	case diff >= contrastPoor:
		f.Status = StatusWarning
		f.Message = fmt.Sprintf("contrast %d is marginal", diff)
	default:
		f.Status = StatusError
		f.Message = fmt.Sprintf("contrast %d is too low for scanning", diff)
	}
	return f
}

// checkReadability round-trips the rendered code through the decoder.
func checkReadability(img image.Image, codes []MarkingCode) PreflightFinding {
	f := PreflightFinding{Check: "readability"}

	decoded, ok := DecodeDataMatrix(img)
	if !ok {
		f.Status = StatusError
		f.Message = "rendered DataMatrix could not be decoded"
		return f
	}
	if len(codes) > 0 && decoded != string(codes[0]) {
		f.Status = StatusError
		f.Message = "decoded DataMatrix does not match the encoded code"
		f.Details = map[string]any{"decoded": decoded}
		return f
	}
	f.Status = StatusOK
	f.Message = "rendered DataMatrix decodes back to its source code"
	return f
}

// checkLinearReadability round-trips the rendered retail barcode through
// the decoder. An unverifiable bitmap rates a warning; only a content
// mismatch is definitive and blocks.
func checkLinearReadability(img image.Image, payload string) PreflightFinding {
	f := PreflightFinding{Check: "linear_readability"}

	decoded, ok := DecodeLinear(img)
	if !ok {
		f.Status = StatusWarning
		f.Message = "rendered barcode could not be verified by decoding"
		return f
	}
	if payload != "" && decoded != payload {
		f.Status = StatusError
		f.Message = "decoded barcode does not match the item barcode"
		f.Details = map[string]any{"decoded": decoded, "expected": payload}
		return f
	}
	f.Status = StatusOK
	f.Message = "rendered barcode decodes back to the item barcode"
	return f
}

// checkCodeCount compares source rows against code count. Excess codes
// are survivable (they are truncated later); a shortage means some items
// cannot be labeled at all.
func checkCodeCount(items, codes int) PreflightFinding {
	f := PreflightFinding{
		Check:   "code_count",
		Details: map[string]any{"items": items, "codes": codes},
	}
	switch {
	case codes == items:
		f.Status = StatusOK
		f.Message = fmt.Sprintf("%d codes for %d items", codes, items)
	case codes > items:
		f.Status = StatusWarning
		f.Message = fmt.Sprintf("%d codes exceed %d items; the excess will not print", codes, items)
	default:
		f.Status = StatusError
		f.Message = fmt.Sprintf("only %d codes for %d items", codes, items)
	}
	return f
}

// checkGTINConsistency warns when a single batch mixes GTINs, a common
// sign of an upload mixing SKUs.
func checkGTINConsistency(codes []MarkingCode) PreflightFinding {
	f := PreflightFinding{Check: "gtin_consistency"}

	gtins := DistinctGTINs(codes)
	f.Details = map[string]any{"distinct": len(gtins)}
	if len(gtins) > 1 {
		f.Status = StatusWarning
		f.Message = fmt.Sprintf("batch contains %d distinct GTINs; possible SKU mixing", len(gtins))
		return f
	}
	f.Status = StatusOK
	f.Message = "all codes share one GTIN"
	return f
}
