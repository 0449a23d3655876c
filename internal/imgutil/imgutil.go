// Package imgutil provides the pixel operations the codec, preflight and
// analyzer share: binarization, nearest-neighbor scaling, dark-pixel
// bounds and contrast measurement.
package imgutil

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// DefaultThreshold splits dark from light pixels during binarization.
const DefaultThreshold = 128

// Binarize converts any image to pure black/white gray. Scanners require
// two-level output: no gray levels survive.
func Binarize(src image.Image, threshold uint8) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			v := uint8(255)
			if c.Y < threshold {
				v = 0
			}
			dst.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: v})
		}
	}
	return dst
}

// ScaleNearest scales src to w×h using nearest-neighbor interpolation
// only. Smoothing filters would blur module edges, which kills 2-D code
// readability; nearest-neighbor keeps every edge hard.
func ScaleNearest(src image.Image, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// AddBorder surrounds src with a white quiet-zone border of the given
// pixel width.
func AddBorder(src image.Image, border int) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()+2*border, b.Dy()+2*border))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(border, border, border+b.Dx(), border+b.Dy()), src, b.Min, draw.Src)
	return dst
}

// DarkBounds returns the bounding box of pixels darker than threshold,
// in dst coordinates. ok is false for an all-light image.
func DarkBounds(src image.Image, threshold uint8) (box image.Rectangle, ok bool) {
	b := src.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			if c.Y >= threshold {
				continue
			}
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
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// MinMargin measures the smallest distance in pixels between box and the
// four edges of outer.
func MinMargin(box, outer image.Rectangle) int {
	m := box.Min.X - outer.Min.X
	if v := box.Min.Y - outer.Min.Y; v < m {
		m = v
	}
	if v := outer.Max.X - box.Max.X; v < m {
		m = v
	}
	if v := outer.Max.Y - box.Max.Y; v < m {
		m = v
	}
	return m
}

// Contrast returns the darkest and lightest intensities actually present
// in the image: true extrema, not percentiles.
func Contrast(src image.Image) (darkest, lightest uint8) {
	darkest, lightest = 255, 0
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
			if c.Y < darkest {
				darkest = c.Y
			}
			if c.Y > lightest {
				lightest = c.Y
			}
		}
	}
	return darkest, lightest
}

// ContentCrop crops src to its dark-content bounding box expanded by
// pad pixels, clamped to the image bounds. An all-light image is
// returned unchanged.
func ContentCrop(src image.Image, threshold uint8, pad int) image.Image {
	box, ok := DarkBounds(src, threshold)
	if !ok {
		return src
	}
	box = box.Inset(-pad).Intersect(src.Bounds())
	return Crop(src, box)
}

// Crop copies the given region of src into a fresh image.
func Crop(src image.Image, box image.Rectangle) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(dst, dst.Bounds(), src, box.Min, draw.Src)
	return dst
}
