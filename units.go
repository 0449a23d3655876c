package labelmerge

import "math"

// Physical conversion constants. All pixel math in this package assumes
// the 203 DPI thermal-print reference; points are PostScript points.
const (
	// ReferenceDPI is the thermal printer resolution every mm↔px
	// conversion is anchored to.
	ReferenceDPI = 203.0

	mmPerInch = 25.4
	ptPerInch = 72.0
)

// MMToPx converts millimeters to whole pixels at the reference DPI,
// rounding to the nearest pixel.
func MMToPx(mm float64) int {
	return int(math.Round(mm / mmPerInch * ReferenceDPI))
}

// PxToMM converts pixels at the reference DPI back to millimeters.
func PxToMM(px int) float64 {
	return float64(px) / ReferenceDPI * mmPerInch
}

// MMToPt converts millimeters to PostScript points.
func MMToPt(mm float64) float64 {
	return mm / mmPerInch * ptPerInch
}

// PtToMM converts PostScript points to millimeters.
func PtToMM(pt float64) float64 {
	return pt / ptPerInch * mmPerInch
}
