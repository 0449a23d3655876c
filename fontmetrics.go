package labelmerge

// Helvetica advance widths in 1/1000 em for ASCII 32..126, from the
// standard AFM metrics. The renderer uses the same core font, so layout
// width checks and rendered output agree without loading font files.
var helveticaWidths = [95]int16{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333,
	278, 278, 556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278,
	584, 584, 584, 556, 1015, 667, 667, 722, 722, 667, 611, 778, 722, 278,
	500, 667, 556, 833, 722, 778, 667, 778, 722, 667, 611, 722, 667, 944,
	667, 667, 611, 278, 278, 278, 469, 556, 333, 556, 556, 500, 556, 556,
	278, 556, 556, 222, 222, 500, 222, 833, 556, 556, 556, 556, 333, 500,
	278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

// nonASCIIWidth approximates Cyrillic and other non-ASCII glyphs, which
// in Helvetica-class fonts sit close to the digit width.
const nonASCIIWidth = 556

// boldFactor widens bold runs: Helvetica-Bold advances average ~8% over
// the regular cut.
const boldFactor = 1.08

// textWidthMM measures a string at the given size in millimeters.
func textWidthMM(s string, sizePt float64, bold bool) float64 {
	total := 0
	for _, r := range s {
		if r >= 32 && r <= 126 {
			total += int(helveticaWidths[r-32])
		} else {
			total += nonASCIIWidth
		}
	}
	pt := float64(total) / 1000 * sizePt
	if bold {
		pt *= boldFactor
	}
	return PtToMM(pt)
}

// fontAscentMM is the baseline offset from the top of a line box.
// Helvetica's ascender is 718/1000 em; 0.8 leaves room for diacritics.
func fontAscentMM(sizePt float64) float64 {
	return PtToMM(sizePt * 0.8)
}
