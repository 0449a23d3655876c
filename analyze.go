package labelmerge

import (
	"context"
	"fmt"
	"image"
	"sort"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/makiuchi-d/gozxing"
	dmdecode "github.com/makiuchi-d/gozxing/datamatrix"
	"go.uber.org/zap"

	"github.com/alnah/go-labelmerge/internal/imgutil"
)

// Analyzer defaults.
const (
	// DefaultRasterDPI controls page rasterization; 200 keeps a 1mm
	// module above 7px, enough for reliable decoding without huge pages.
	DefaultRasterDPI = 200.0

	// DefaultClusterMergeRatio is the size-relative threshold for
	// merging code centers into one grid row/column: centers closer
	// than ratio×(median code box size) collapse together. Tunable
	// because irregular sheets need a looser or tighter grid.
	DefaultClusterMergeRatio = 0.5

	// contentCropPadPx pads each sliced label's content bounding box.
	contentCropPadPx = 8
)

// AnalyzerOptions tunes the source-PDF analyzer.
type AnalyzerOptions struct {
	DPI               float64
	ClusterMergeRatio float64
	Workers           int
}

// Analyzer rasterizes externally produced PDFs, splits multi-label
// sheets into per-label images and extracts embedded marking codes.
type Analyzer struct {
	opts AnalyzerOptions
	log  *zap.SugaredLogger

	// raster converts a PDF to page images. Injected so tests can feed
	// synthetic pages without MuPDF.
	raster func(data []byte, dpi float64) ([]image.Image, error)
}

// NewAnalyzer creates an analyzer. Zero option fields take defaults.
func NewAnalyzer(opts AnalyzerOptions, log *zap.SugaredLogger) *Analyzer {
	if opts.DPI <= 0 {
		opts.DPI = DefaultRasterDPI
	}
	if opts.ClusterMergeRatio <= 0 {
		opts.ClusterMergeRatio = DefaultClusterMergeRatio
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultPoolSize
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Analyzer{opts: opts, log: log, raster: rasterizePDF}
}

// rasterizePDF renders every page of a PDF at the given DPI via MuPDF.
func rasterizePDF(data []byte, dpi float64) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer doc.Close()

	pages := make([]image.Image, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		img, err := doc.ImageDPI(n, dpi)
		if err != nil {
			return nil, fmt.Errorf("rasterizing page %d: %w", n+1, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// ExtractCodes decodes every marking code embedded in a PDF, in page
// order. Per-page decoding runs on the worker pool; a page with no
// decodable code contributes nothing rather than failing the batch.
func (a *Analyzer) ExtractCodes(ctx context.Context, data []byte) ([]MarkingCode, error) {
	pages, err := a.raster(data, a.opts.DPI)
	if err != nil {
		return nil, err
	}

	perPage, err := runOrdered(ctx, pages, a.opts.Workers,
		func(ctx context.Context, idx int, page image.Image) ([]MarkingCode, error) {
			codes := a.extractFromPage(normalizeOrientation(page))
			if len(codes) == 0 {
				a.log.Warnw("no marking code found on page", "page", idx+1)
			}
			return codes, nil
		})
	if err != nil {
		return nil, err
	}

	var out []MarkingCode
	for _, codes := range perPage {
		out = append(out, codes...)
	}
	if len(out) == 0 {
		return nil, ErrNoValidCodes
	}
	return out, nil
}

// SplitLabels slices every page into per-label images, page order
// preserved. A standard sheet carrying several physical labels is split
// along the detected code grid; other pages become a single content
// crop.
func (a *Analyzer) SplitLabels(ctx context.Context, data []byte) ([]image.Image, error) {
	pages, err := a.raster(data, a.opts.DPI)
	if err != nil {
		return nil, err
	}

	perPage, err := runOrdered(ctx, pages, a.opts.Workers,
		func(ctx context.Context, idx int, page image.Image) ([]image.Image, error) {
			return a.splitPage(normalizeOrientation(page)), nil
		})
	if err != nil {
		return nil, err
	}

	var out []image.Image
	for _, labels := range perPage {
		out = append(out, labels...)
	}
	return out, nil
}

// splitPage infers the label grid from embedded code positions. With
// fewer than two codes there is no grid: the whole page is one label.
func (a *Analyzer) splitPage(page image.Image) []image.Image {
	boxes := a.codeBoxes(page)
	if len(boxes) < 2 {
		return []image.Image{imgutil.ContentCrop(page, imgutil.DefaultThreshold, contentCropPadPx)}
	}

	merge := int(a.opts.ClusterMergeRatio * float64(medianBoxSize(boxes)))
	var xs, ys []int
	for _, b := range boxes {
		xs = append(xs, (b.Min.X+b.Max.X)/2)
		ys = append(ys, (b.Min.Y+b.Max.Y)/2)
	}
	cols := cluster1D(xs, merge)
	rows := cluster1D(ys, merge)

	bounds := page.Bounds()
	cells := gridCells(bounds, len(cols), len(rows))
	out := make([]image.Image, 0, len(cells))
	for _, cell := range cells {
		sub := imgutil.Crop(page, cell)
		out = append(out, imgutil.ContentCrop(sub, imgutil.DefaultThreshold, contentCropPadPx))
	}
	return out
}

// extractFromPage uses the two-tier decode strategy: try the
// statistically likely region first, fall back to a full-page scan only
// if the targeted crop found nothing. The targeted pass keeps average
// decode cost low on well-formed inputs.
func (a *Analyzer) extractFromPage(page image.Image) []MarkingCode {
	// Self-contained single-code sheets center the code.
	if codes := decodeRegion(imgutil.Crop(page, centerCrop(page.Bounds()))); len(codes) > 0 {
		return codes
	}
	// Side-by-side sheets (shipping label left, marking code right) put
	// the code in the right half.
	if codes := decodeRegion(imgutil.Crop(page, rightHalf(page.Bounds()))); len(codes) > 0 {
		return codes
	}
	return decodeRegion(page)
}

// decodeRegion finds every DataMatrix in a region, positionally sorted
// left-to-right, top-to-bottom. Decoded strings below the minimum code
// length are discarded: they are stray 2-D codes, not marking codes.
func decodeRegion(img image.Image) []MarkingCode {
	hits := decodeAll(img)
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].box.Min.Y != hits[j].box.Min.Y {
			return hits[i].box.Min.Y < hits[j].box.Min.Y
		}
		return hits[i].box.Min.X < hits[j].box.Min.X
	})

	var codes []MarkingCode
	for _, h := range hits {
		if len(h.text) >= minCodeLength {
			codes = append(codes, MarkingCode(h.text))
		}
	}
	return codes
}

// codeBoxes locates every embedded 2-D code with its bounding box.
func (a *Analyzer) codeBoxes(page image.Image) []image.Rectangle {
	hits := decodeAll(page)
	boxes := make([]image.Rectangle, 0, len(hits))
	for _, h := range hits {
		boxes = append(boxes, h.box)
	}
	return boxes
}

// codeHit is one decoded symbol with its bounding box in the coordinates
// of the image decodeAll was called with.
type codeHit struct {
	text string
	box  image.Rectangle
}

// Region-split search bounds.
const (
	// maxSplitDepth caps the recursive region search; standard sheets
	// carry far fewer symbols than the regions this depth can visit.
	maxSplitDepth = 6
	// minDecodePx is the smallest region side still worth scanning; a
	// decodable symbol at the raster DPI is several times larger.
	minDecodePx = 40
)

// decodeAll finds every DataMatrix in an image. The underlying reader
// locates one symbol per call, so the search recurses: around a decoded
// symbol to pick up its neighbors, and into overlapping halves when the
// detector fails on a region that may still hold several symbols.
func decodeAll(img image.Image) []codeHit {
	var hits []codeHit
	collectCodes(img, image.Point{}, 0, &hits)
	return hits
}

func collectCodes(img image.Image, origin image.Point, depth int, hits *[]codeHit) {
	if depth > maxSplitDepth {
		return
	}
	b := img.Bounds()
	if b.Dx() < minDecodePx || b.Dy() < minDecodePx {
		return
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return
	}
	res, err := dmdecode.NewDataMatrixReader().Decode(bmp, decodeHints())
	if err != nil {
		// The detector handles one symbol at a time and can trip over a
		// region holding several; halve it with overlap so a symbol on
		// the cut line stays whole in one half.
		for _, r := range overlappingHalves(b) {
			collectCodes(imgutil.Crop(img, r), origin.Add(r.Min), depth+1, hits)
		}
		return
	}

	// Result points are relative to the bitmap, not the image bounds.
	box := resultBox(res).Add(b.Min)
	if box.Empty() {
		box = b
	}
	recordHit(hits, codeHit{text: res.GetText(), box: box.Add(origin)})

	// The decoded symbol's surroundings may hold more symbols.
	for _, r := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, box.Min.X, b.Max.Y), // left of the hit
		image.Rect(box.Max.X, b.Min.Y, b.Max.X, b.Max.Y), // right
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, box.Min.Y), // above
		image.Rect(b.Min.X, box.Max.Y, b.Max.X, b.Max.Y), // below
	} {
		if r.Dx() >= minDecodePx && r.Dy() >= minDecodePx {
			collectCodes(imgutil.Crop(img, r), origin.Add(r.Min), depth+1, hits)
		}
	}
}

// overlappingHalves splits bounds along its longer axis into two halves
// overlapping by a quarter of that axis.
func overlappingHalves(b image.Rectangle) []image.Rectangle {
	if b.Dx() >= b.Dy() {
		mid, over := b.Min.X+b.Dx()/2, b.Dx()/4
		return []image.Rectangle{
			image.Rect(b.Min.X, b.Min.Y, mid+over, b.Max.Y),
			image.Rect(mid-over, b.Min.Y, b.Max.X, b.Max.Y),
		}
	}
	mid, over := b.Min.Y+b.Dy()/2, b.Dy()/4
	return []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, mid+over),
		image.Rect(b.Min.X, mid-over, b.Max.X, b.Max.Y),
	}
}

// recordHit appends hit unless the same text was already recorded at an
// overlapping position, which happens when search regions overlap.
func recordHit(hits *[]codeHit, hit codeHit) {
	for _, h := range *hits {
		if h.text == hit.text && h.box.Overlaps(hit.box) {
			return
		}
	}
	*hits = append(*hits, hit)
}

// resultBox derives a bounding box from a decode result's points.
func resultBox(res *gozxing.Result) image.Rectangle {
	pts := res.GetResultPoints()
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := int(pts[0].GetX()), int(pts[0].GetY())
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		x, y := int(p.GetX()), int(p.GetY())
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// normalizeOrientation rotates landscape pages to portrait.
func normalizeOrientation(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= b.Dy() {
		return img
	}
	return rotate90(img)
}

// rotate90 rotates an image 90° clockwise.
func rotate90(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.Y-1-y, x-b.Min.X, src.At(x, y))
		}
	}
	return dst
}

// cluster1D groups sorted coordinates whose neighbors are closer than
// merge into clusters, returning each cluster's mean. Input order does
// not matter; output is ascending.
func cluster1D(values []int, merge int) []int {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	var centers []int
	sum, count := sorted[0], 1
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i]-sorted[i-1] <= merge {
			sum += sorted[i]
			count++
			continue
		}
		centers = append(centers, sum/count)
		if i < len(sorted) {
			sum, count = sorted[i], 1
		}
	}
	return centers
}

// gridCells slices bounds into cols×rows equal cells, row-major.
func gridCells(bounds image.Rectangle, cols, rows int) []image.Rectangle {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	cellW := bounds.Dx() / cols
	cellH := bounds.Dy() / rows
	cells := make([]image.Rectangle, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x0 := bounds.Min.X + c*cellW
			y0 := bounds.Min.Y + r*cellH
			x1 := x0 + cellW
			y1 := y0 + cellH
			if c == cols-1 {
				x1 = bounds.Max.X
			}
			if r == rows-1 {
				y1 = bounds.Max.Y
			}
			cells = append(cells, image.Rect(x0, y0, x1, y1))
		}
	}
	return cells
}

// centerCrop returns the middle 60% of a page.
func centerCrop(b image.Rectangle) image.Rectangle {
	dx, dy := b.Dx()/5, b.Dy()/5
	return image.Rect(b.Min.X+dx, b.Min.Y+dy, b.Max.X-dx, b.Max.Y-dy)
}

// rightHalf returns the right half of a page.
func rightHalf(b image.Rectangle) image.Rectangle {
	return image.Rect(b.Min.X+b.Dx()/2, b.Min.Y, b.Max.X, b.Max.Y)
}

// medianBoxSize returns the median of the boxes' larger side.
func medianBoxSize(boxes []image.Rectangle) int {
	sizes := make([]int, 0, len(boxes))
	for _, b := range boxes {
		s := b.Dx()
		if b.Dy() > s {
			s = b.Dy()
		}
		sizes = append(sizes, s)
	}
	sort.Ints(sizes)
	return sizes[len(sizes)/2]
}
