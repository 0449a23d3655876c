package imgutil

import (
	"image"
	"image/color"
	"testing"
)

// grayWith builds a w×h light image with dark pixels at the given points.
func grayWith(w, h int, dark ...image.Point) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for _, p := range dark {
		img.SetGray(p.X, p.Y, color.Gray{Y: 0})
	}
	return img
}

func TestBinarize(t *testing.T) {
	t.Parallel()

	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 100})
	img.SetGray(1, 0, color.Gray{Y: 200})

	out := Binarize(img, DefaultThreshold)
	if got := out.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("dark pixel = %d, want 0", got)
	}
	if got := out.GrayAt(1, 0).Y; got != 255 {
		t.Errorf("light pixel = %d, want 255", got)
	}
}

func TestScaleNearestKeepsHardEdges(t *testing.T) {
	t.Parallel()

	// 2x1 black|white scaled 4x: no intermediate grays may appear.
	img := grayWith(2, 1, image.Pt(0, 0))
	out := ScaleNearest(img, 8, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			v := out.GrayAt(x, y).Y
			if v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want pure black or white", x, y, v)
			}
		}
	}
}

func TestDarkBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		img    *image.Gray
		want   image.Rectangle
		wantOK bool
	}{
		{
			name:   "single pixel",
			img:    grayWith(10, 10, image.Pt(3, 4)),
			want:   image.Rect(3, 4, 4, 5),
			wantOK: true,
		},
		{
			name:   "two corners",
			img:    grayWith(10, 10, image.Pt(2, 2), image.Pt(7, 8)),
			want:   image.Rect(2, 2, 8, 9),
			wantOK: true,
		},
		{
			name:   "all light",
			img:    grayWith(4, 4),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := DarkBounds(tt.img, DefaultThreshold)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("bounds = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMinMargin(t *testing.T) {
	t.Parallel()

	outer := image.Rect(0, 0, 100, 100)
	box := image.Rect(10, 5, 90, 80)
	if got := MinMargin(box, outer); got != 5 {
		t.Errorf("MinMargin = %d, want 5", got)
	}
}

func TestContrast(t *testing.T) {
	t.Parallel()

	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{Y: 40})
	img.SetGray(1, 0, color.Gray{Y: 128})
	img.SetGray(2, 0, color.Gray{Y: 230})

	dark, light := Contrast(img)
	if dark != 40 || light != 230 {
		t.Errorf("Contrast = (%d, %d), want (40, 230)", dark, light)
	}
}

func TestAddBorder(t *testing.T) {
	t.Parallel()

	img := grayWith(2, 2, image.Pt(0, 0), image.Pt(1, 1))
	out := AddBorder(img, 3)
	if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 8 {
		t.Fatalf("bounds = %v, want 8x8", out.Bounds())
	}
	if out.GrayAt(0, 0).Y != 255 {
		t.Errorf("border pixel not white")
	}
	if out.GrayAt(3, 3).Y != 0 {
		t.Errorf("content pixel not preserved")
	}
}

func TestContentCrop(t *testing.T) {
	t.Parallel()

	img := grayWith(20, 20, image.Pt(5, 5), image.Pt(10, 12))
	out := ContentCrop(img, DefaultThreshold, 1)
	b := out.Bounds()
	if b.Dx() != 8 || b.Dy() != 10 {
		t.Errorf("crop = %dx%d, want 8x10", b.Dx(), b.Dy())
	}
}
