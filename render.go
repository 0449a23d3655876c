package labelmerge

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// rendererFont is the core font family used for all label text. Core
// fonts need no embedding; Cyrillic goes through the cp1251 translator.
const rendererFont = "Helvetica"

// renderer turns drawing plans into vector PDF pages. Text and lines are
// vector, the DataMatrix is an opaque bitmap, and page physical size
// equals the chosen label template in millimeters.
type renderer struct {
	log *zap.SugaredLogger
}

func newRenderer(log *zap.SugaredLogger) *renderer {
	return &renderer{log: log}
}

// Render produces the final paginated document: one page per label, or
// two pages per label in separate mode (text+linear page, then code
// page). A single codec failure is substituted with a placeholder image
// and logged; it never aborts the remaining batch.
func (r *renderer) Render(plans []*DrawingPlan, cfg GenerateConfig) ([]byte, error) {
	w, h := TemplateSizeMM(cfg.Template)
	if w == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTemplate, cfg.Template)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	tr := cp1251Translator()

	for i, plan := range plans {
		if plan.Failed != nil {
			r.errorPage(pdf, w, h, tr, plan.Failed)
			continue
		}
		if cfg.Separate {
			r.page(pdf, w, h, tr, plan, cfg, pageText|pageLinear, i)
			r.page(pdf, w, h, tr, plan, cfg, pageCode, i)
		} else {
			r.page(pdf, w, h, tr, plan, cfg, pageText|pageLinear|pageCode, i)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// cp1251Translator maps UTF-8 text into the Windows-1251 byte space the
// label pages address. The table comes from x/text, so no codepage map
// file is needed at run time. Runes outside the codepage become '?'.
func cp1251Translator() func(string) string {
	return func(s string) string {
		out := make([]byte, 0, len(s))
		for _, r := range s {
			b, ok := charmap.Windows1251.EncodeRune(r)
			if !ok {
				b = '?'
			}
			out = append(out, b)
		}
		return string(out)
	}
}

// page content selectors for separate mode.
const (
	pageText = 1 << iota
	pageLinear
	pageCode
)

// page draws one physical label page with the selected content classes.
func (r *renderer) page(pdf *fpdf.Fpdf, w, h float64, tr func(string) string, plan *DrawingPlan, cfg GenerateConfig, include int, label int) {
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

	if include&pageText != 0 {
		for _, op := range plan.Texts {
			style := ""
			if op.Bold {
				style = "B"
			}
			pdf.SetFont(rendererFont, style, op.SizePt)
			pdf.Text(op.X, op.Y, tr(op.Text))
		}
		for _, op := range plan.Lines {
			pdf.SetLineWidth(op.WidthMM)
			pdf.Line(op.X1, op.Y1, op.X2, op.Y2)
		}
	}

	for imgIdx, op := range plan.Images {
		if op.Kind == ImageDataMatrix && include&pageCode == 0 {
			continue
		}
		if op.Kind == ImageLinear && include&pageLinear == 0 {
			continue
		}
		img := r.codeImage(op)
		name := fmt.Sprintf("l%dp%di%d", label, include, imgIdx)
		r.placeImage(pdf, name, img, op)
	}

	if cfg.DemoWatermark {
		r.watermark(pdf, w, h, tr)
	}
}

// codeImage runs the codec for one image op, substituting a placeholder
// on failure. This is the batch boundary for codec errors.
func (r *renderer) codeImage(op ImageOp) image.Image {
	wPx, hPx := MMToPx(op.W), MMToPx(op.H)

	var (
		img image.Image
		err error
	)
	switch op.Kind {
	case ImageDataMatrix:
		img, err = EncodeDataMatrix(op.Payload, min(wPx, hPx))
	default:
		img, err = EncodeLinear(op.Payload, wPx, hPx)
	}
	if err != nil {
		r.log.Warnw("code render failed, using placeholder",
			"kind", op.Kind,
			"error", err,
		)
		return PlaceholderImage(wPx, hPx)
	}
	return img
}

// placeImage registers an encoded bitmap and draws it at its anchor.
func (r *renderer) placeImage(pdf *fpdf.Fpdf, name string, img image.Image, op ImageOp) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		r.log.Warnw("png encode failed", "name", name, "error", err)
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	pdf.ImageOptions(name, op.X, op.Y, op.W, op.H, false, opts, 0, "")
}

// errorPage draws an explicit error marker for a label whose layout
// failed in generation mode. A visibly broken label beats one silently
// truncated into unreadable text.
func (r *renderer) errorPage(pdf *fpdf.Fpdf, w, h float64, tr func(string) string, fail *LayoutOverflowError) {
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	pdf.SetLineWidth(0.6)
	pdf.Rect(1, 1, w-2, h-2, "D")
	pdf.SetFont(rendererFont, "B", 8)
	pdf.Text(3, h/2-2, tr("LAYOUT ERROR"))
	pdf.SetFont(rendererFont, "", 6)
	pdf.Text(3, h/2+2, tr(fmt.Sprintf("field %q: %s", fail.Field, fail.Suggestion)))
}

// watermark overlays a light diagonal DEMO mark.
func (r *renderer) watermark(pdf *fpdf.Fpdf, w, h float64, tr func(string) string) {
	pdf.SetAlpha(0.25, "Normal")
	pdf.TransformBegin()
	pdf.TransformRotate(30, w/2, h/2)
	pdf.SetFont(rendererFont, "B", 22)
	pdf.SetTextColor(120, 120, 120)
	pdf.Text(w/2-14, h/2+3, tr("DEMO"))
	pdf.TransformEnd()
	pdf.SetAlpha(1, "Normal")
	pdf.SetTextColor(0, 0, 0)
}
