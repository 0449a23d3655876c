package labelmerge

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/datamatrix"
	"github.com/boombuler/barcode/ean"
	"github.com/makiuchi-d/gozxing"
	dmdecode "github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/alnah/go-labelmerge/internal/imgutil"
)

// quietZoneModules is the minimum quiet-zone width around a DataMatrix,
// expressed in module widths.
const quietZoneModules = 2

// EncodeLinear renders the linear barcode for a digit payload at the
// exact target pixel size. Payloads of 12–13 digits become EAN-13;
// anything else (or an EAN checksum failure) becomes Code128.
func EncodeLinear(payload string, wPx, hPx int) (image.Image, error) {
	var (
		bc  barcode.Barcode
		err error
	)
	kind := "code128"
	if isDigits(payload) && (len(payload) == 12 || len(payload) == 13) {
		kind = "ean13"
		bc, err = ean.Encode(payload)
		if err != nil {
			// A 13-digit payload with a bad check digit still has to
			// print something scannable.
			kind = "code128"
			bc, err = code128.Encode(payload)
		}
	} else {
		bc, err = code128.Encode(payload)
	}
	if err != nil {
		return nil, &CodecError{Kind: kind, Payload: payload, Err: err}
	}

	scaled, err := barcode.Scale(bc, wPx, hPx)
	if err != nil {
		return nil, &CodecError{Kind: kind, Payload: payload, Err: err}
	}
	return scaled, nil
}

// EncodeDataMatrix renders an ECC200 DataMatrix at sidePx pixels plus a
// quiet-zone border. The module grid is binarized to pure black/white
// and scaled with nearest-neighbor only: gray levels and smoothed edges
// both break scanner decoding.
func EncodeDataMatrix(code string, sidePx int) (image.Image, error) {
	bc, err := datamatrix.Encode(code)
	if err != nil {
		return nil, &CodecError{Kind: "datamatrix", Payload: code, Err: err}
	}

	modules := bc.Bounds().Dx()
	if modules <= 0 {
		return nil, &CodecError{Kind: "datamatrix", Payload: code, Err: ErrEmptyInput}
	}
	// Snap to a whole number of pixels per module so every module has
	// identical width after scaling.
	pxPerModule := sidePx / modules
	if pxPerModule < 1 {
		pxPerModule = 1
	}
	side := pxPerModule * modules

	grid := imgutil.Binarize(bc, imgutil.DefaultThreshold)
	scaled := imgutil.ScaleNearest(grid, side, side)
	return imgutil.AddBorder(scaled, quietZoneModules*pxPerModule), nil
}

// DecodeDataMatrix attempts to read a DataMatrix from an image region.
// Used by preflight for round-trip verification and by the analyzer for
// code extraction.
func DecodeDataMatrix(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	reader := dmdecode.NewDataMatrixReader()
	result, err := reader.Decode(bmp, decodeHints())
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}

// DecodeLinear attempts to read an EAN-13 or Code128 barcode from an
// image region.
func DecodeLinear(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	for _, reader := range []gozxing.Reader{
		oned.NewEAN13Reader(),
		oned.NewCode128Reader(),
	} {
		if result, err := reader.Decode(bmp, decodeHints()); err == nil {
			return result.GetText(), true
		}
	}
	return "", false
}

func decodeHints() map[gozxing.DecodeHintType]interface{} {
	return map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
}

// PlaceholderImage stands in for a code whose encoding failed: a white
// box with a black frame and diagonal cross. Visibly broken beats
// silently absent, and the batch keeps going.
func PlaceholderImage(wPx, hPx int) image.Image {
	img := image.NewGray(image.Rect(0, 0, wPx, hPx))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	black := color.Gray{Y: 0}
	for x := 0; x < wPx; x++ {
		img.SetGray(x, 0, black)
		img.SetGray(x, hPx-1, black)
		// Diagonals, scaled to the aspect ratio.
		y := x * (hPx - 1) / max(wPx-1, 1)
		img.SetGray(x, y, black)
		img.SetGray(x, hPx-1-y, black)
	}
	for y := 0; y < hPx; y++ {
		img.SetGray(0, y, black)
		img.SetGray(wPx-1, y, black)
	}
	return img
}
