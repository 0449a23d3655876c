package labelmerge

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

// codePage renders a synthetic portrait page with one DataMatrix centered
// on a white background, mimicking a rasterized single-code sheet.
func codePage(t *testing.T, code MarkingCode) image.Image {
	t.Helper()
	dm, err := EncodeDataMatrix(string(code), 176)
	if err != nil {
		t.Fatalf("encoding fixture code: %v", err)
	}
	page := image.NewRGBA(image.Rect(0, 0, 600, 800))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
	b := dm.Bounds()
	offset := image.Pt((600-b.Dx())/2, (800-b.Dy())/2)
	draw.Draw(page, b.Add(offset).Sub(b.Min), dm, b.Min, draw.Src)
	return page
}

// twoCodePage renders a portrait sheet with two DataMatrix codes stacked
// vertically, mimicking a rasterized multi-label sheet.
func twoCodePage(t *testing.T, top, bottom MarkingCode) image.Image {
	t.Helper()
	page := image.NewRGBA(image.Rect(0, 0, 600, 800))
	draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
	for i, code := range []MarkingCode{top, bottom} {
		dm, err := EncodeDataMatrix(string(code), 176)
		if err != nil {
			t.Fatalf("encoding fixture code: %v", err)
		}
		b := dm.Bounds()
		center := image.Pt(300, 270+260*i)
		offset := center.Sub(image.Pt(b.Dx()/2, b.Dy()/2))
		draw.Draw(page, b.Add(offset).Sub(b.Min), dm, b.Min, draw.Src)
	}
	return page
}

func testAnalyzer(pages ...image.Image) *Analyzer {
	a := NewAnalyzer(AnalyzerOptions{}, zap.NewNop().Sugar())
	a.raster = func([]byte, float64) ([]image.Image, error) {
		return pages, nil
	}
	return a
}

// ---------------------------------------------------------------------------
// TestExtractCodes - Code extraction from rasterized pages
// ---------------------------------------------------------------------------

func TestExtractCodes(t *testing.T) {
	t.Parallel()

	t.Run("codes come back in page order", func(t *testing.T) {
		t.Parallel()
		a := testAnalyzer(
			codePage(t, testMarkingCode),
			codePage(t, testMarkingCodeB),
		)
		codes, err := a.ExtractCodes(context.Background(), []byte("pdf"))
		if err != nil {
			t.Fatalf("ExtractCodes() error = %v", err)
		}
		want := []MarkingCode{testMarkingCode, testMarkingCodeB}
		if !reflect.DeepEqual(codes, want) {
			t.Errorf("codes = %v, want %v", codes, want)
		}
	})

	t.Run("sheet carrying two codes yields both, top to bottom", func(t *testing.T) {
		t.Parallel()
		a := testAnalyzer(twoCodePage(t, testMarkingCode, testMarkingCodeB))
		codes, err := a.ExtractCodes(context.Background(), []byte("pdf"))
		if err != nil {
			t.Fatalf("ExtractCodes() error = %v", err)
		}
		want := []MarkingCode{testMarkingCode, testMarkingCodeB}
		if !reflect.DeepEqual(codes, want) {
			t.Errorf("codes = %v, want %v", codes, want)
		}
	})

	t.Run("page without a code contributes nothing", func(t *testing.T) {
		t.Parallel()
		blank := image.NewRGBA(image.Rect(0, 0, 600, 800))
		draw.Draw(blank, blank.Bounds(), image.White, image.Point{}, draw.Src)
		a := testAnalyzer(blank, codePage(t, testMarkingCode))
		codes, err := a.ExtractCodes(context.Background(), []byte("pdf"))
		if err != nil {
			t.Fatalf("ExtractCodes() error = %v", err)
		}
		if len(codes) != 1 || codes[0] != testMarkingCode {
			t.Errorf("codes = %v", codes)
		}
	})

	t.Run("no decodable code anywhere", func(t *testing.T) {
		t.Parallel()
		blank := image.NewRGBA(image.Rect(0, 0, 600, 800))
		draw.Draw(blank, blank.Bounds(), image.White, image.Point{}, draw.Src)
		a := testAnalyzer(blank)
		_, err := a.ExtractCodes(context.Background(), []byte("pdf"))
		if !errors.Is(err, ErrNoValidCodes) {
			t.Errorf("error = %v, want ErrNoValidCodes", err)
		}
	})

	t.Run("raster failure propagates", func(t *testing.T) {
		t.Parallel()
		a := NewAnalyzer(AnalyzerOptions{}, zap.NewNop().Sugar())
		boom := errors.New("mupdf unavailable")
		a.raster = func([]byte, float64) ([]image.Image, error) { return nil, boom }
		_, err := a.ExtractCodes(context.Background(), []byte("pdf"))
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want raster failure", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestSplitLabels - Sheet slicing
// ---------------------------------------------------------------------------

func TestSplitLabels(t *testing.T) {
	t.Parallel()

	t.Run("page with fewer than two codes is one content crop", func(t *testing.T) {
		t.Parallel()
		page := image.NewRGBA(image.Rect(0, 0, 600, 800))
		draw.Draw(page, page.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(page, image.Rect(200, 300, 400, 500), image.Black, image.Point{}, draw.Src)

		a := testAnalyzer(page)
		labels, err := a.SplitLabels(context.Background(), []byte("pdf"))
		if err != nil {
			t.Fatalf("SplitLabels() error = %v", err)
		}
		if len(labels) != 1 {
			t.Fatalf("got %d labels, want 1", len(labels))
		}
		b := labels[0].Bounds()
		if b.Dx() > 300 || b.Dy() > 300 {
			t.Errorf("content crop %v did not shrink to the inked region", b)
		}
	})

	t.Run("two stacked codes split along the detected grid", func(t *testing.T) {
		t.Parallel()
		a := testAnalyzer(twoCodePage(t, testMarkingCode, testMarkingCodeB))
		labels, err := a.SplitLabels(context.Background(), []byte("pdf"))
		if err != nil {
			t.Fatalf("SplitLabels() error = %v", err)
		}
		if len(labels) != 2 {
			t.Fatalf("got %d labels, want 2", len(labels))
		}
		for i, label := range labels {
			b := label.Bounds()
			if b.Dx() > 300 || b.Dy() > 300 {
				t.Errorf("label %d crop %v did not shrink to its code", i, b)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// TestCluster1D - Coordinate clustering
// ---------------------------------------------------------------------------

func TestCluster1D(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []int
		merge  int
		want   []int
	}{
		{
			name:   "close values collapse to their mean",
			values: []int{100, 105, 300},
			merge:  10,
			want:   []int{102, 300},
		},
		{
			name:   "unsorted input",
			values: []int{300, 100, 105},
			merge:  10,
			want:   []int{102, 300},
		},
		{
			name:   "all distinct",
			values: []int{10, 100, 200},
			merge:  5,
			want:   []int{10, 100, 200},
		},
		{
			name:   "single value",
			values: []int{42},
			merge:  50,
			want:   []int{42},
		},
		{
			name:   "empty",
			values: nil,
			merge:  10,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := cluster1D(tt.values, tt.merge)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("cluster1D(%v, %d) = %v, want %v", tt.values, tt.merge, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestGridCells - Page slicing geometry
// ---------------------------------------------------------------------------

func TestGridCells(t *testing.T) {
	t.Parallel()

	cells := gridCells(image.Rect(0, 0, 100, 90), 2, 3)
	if len(cells) != 6 {
		t.Fatalf("got %d cells, want 6", len(cells))
	}
	if cells[0] != image.Rect(0, 0, 50, 30) {
		t.Errorf("first cell = %v", cells[0])
	}
	// The last column and row absorb integer-division remainders.
	if cells[5] != image.Rect(50, 60, 100, 90) {
		t.Errorf("last cell = %v", cells[5])
	}

	var area int
	for _, c := range cells {
		area += c.Dx() * c.Dy()
	}
	if area != 100*90 {
		t.Errorf("cells cover %dpx², want full page", area)
	}
}

// ---------------------------------------------------------------------------
// TestCropRegions - Targeted decode regions
// ---------------------------------------------------------------------------

func TestCropRegions(t *testing.T) {
	t.Parallel()

	b := image.Rect(0, 0, 100, 200)
	if got := centerCrop(b); got != image.Rect(20, 40, 80, 160) {
		t.Errorf("centerCrop = %v", got)
	}
	if got := rightHalf(b); got != image.Rect(50, 0, 100, 200) {
		t.Errorf("rightHalf = %v", got)
	}
}

// ---------------------------------------------------------------------------
// TestNormalizeOrientation - Landscape rotation
// ---------------------------------------------------------------------------

func TestNormalizeOrientation(t *testing.T) {
	t.Parallel()

	t.Run("portrait passes through", func(t *testing.T) {
		t.Parallel()
		src := image.NewRGBA(image.Rect(0, 0, 10, 20))
		if got := normalizeOrientation(src); got != src {
			t.Errorf("portrait page was copied")
		}
	})

	t.Run("landscape rotates clockwise", func(t *testing.T) {
		t.Parallel()
		src := image.NewRGBA(image.Rect(0, 0, 3, 2))
		red := color.RGBA{R: 255, A: 255}
		src.Set(0, 0, red)

		got := normalizeOrientation(src)
		if got.Bounds() != image.Rect(0, 0, 2, 3) {
			t.Fatalf("bounds = %v, want 2x3", got.Bounds())
		}
		if got.At(1, 0) != red {
			t.Errorf("top-left pixel did not rotate to the top-right")
		}
	})
}

// ---------------------------------------------------------------------------
// TestMedianBoxSize - Cluster merge scale
// ---------------------------------------------------------------------------

func TestMedianBoxSize(t *testing.T) {
	t.Parallel()

	boxes := []image.Rectangle{
		image.Rect(0, 0, 10, 4),
		image.Rect(0, 0, 5, 30),
		image.Rect(0, 0, 20, 20),
	}
	if got := medianBoxSize(boxes); got != 20 {
		t.Errorf("medianBoxSize = %d, want 20", got)
	}
}
