// Package labelmerge composes marketplace shipping barcodes and regulatory
// marking codes onto printable thermal labels and validates the result
// against scanner-readability requirements.
//
// # Quick Start
//
// Create a service, feed it a source spreadsheet and a marking-code file,
// and write the resulting PDF:
//
//	svc := labelmerge.New()
//
//	result, err := svc.Generate(ctx, labelmerge.GenerateInput{
//	    Items:  itemsFile,  // .xlsx or .csv bytes
//	    Codes:  codesFile,  // delimited marking-code bytes
//	    Config: labelmerge.DefaultGenerateConfig(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("labels.pdf", result.PDF, 0644)
//
// # Pipeline
//
// Generation runs in fixed stages:
//
//  1. Ingestion: spreadsheet rows become SourceItems (heuristic column
//     detection), code files become MarkingCodes (delimiter sniffing,
//     encoding fallback, or PDF raster decode via Analyzer).
//  2. Matching: every marking code is paired with exactly one item by
//     GTIN, or the whole batch fails.
//  3. Layout: each pair gets a DrawingPlan computed under the template's
//     fixed anchor geometry, degrading content step by step until it fits.
//  4. Codec: linear barcodes (EAN-13/Code128) and DataMatrix ECC200
//     bitmaps are rendered at exact physical sizes.
//  5. Rendering: one vector PDF page per label, page size equal to the
//     label template in millimeters at the 203 DPI thermal reference.
//
// A preflight pass (RunPreflight) validates code size, quiet zone,
// contrast, round-trip readability and count consistency before a full
// batch is committed.
//
// # Configuration
//
// Use functional options to customize the service:
//
//	svc := labelmerge.New(
//	    labelmerge.WithLogger(logger),
//	    labelmerge.WithPoolSize(4),
//	    labelmerge.WithRepository(repo),
//	)
//
// Per-batch options are passed via GenerateInput.Config: label template,
// layout variant, field visibility flags, numbering mode, separate or
// combined output, demo watermark.
//
// # Parallel Processing
//
// Label composition and source-PDF page decoding run on a bounded worker
// pool with order-preserving result collection. Small batches (below
// about 20 units) are processed sequentially since pool start-up costs
// more than it saves.
package labelmerge
