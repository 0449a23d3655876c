package labelmerge

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for library operations.
var (
	// Ingestion validation errors (user-facing, recoverable by resubmission).
	ErrEmptyInput        = errors.New("input file is empty")
	ErrNoValidItems      = errors.New("no rows with a usable barcode found")
	ErrNoBarcodeColumn   = errors.New("barcode column could not be detected")
	ErrNoValidCodes      = errors.New("no valid marking codes found")
	ErrUnsupportedFormat = errors.New("unsupported input file format")

	// Configuration validation errors.
	ErrInvalidTemplate  = errors.New("invalid label template")
	ErrInvalidVariant   = errors.New("invalid layout variant")
	ErrInvalidNumbering = errors.New("invalid numbering mode")
	ErrInvalidPoolSize  = errors.New("invalid worker pool size")

	// Anchor table errors.
	ErrUnsupportedCombination = errors.New("layout variant not supported for template")
	ErrIncompleteAnchorSet    = errors.New("anchor set missing required anchor")

	// Batch invariant errors.
	ErrCountMismatch = errors.New("source row count and code count are inconsistent")

	// Task errors.
	ErrJobTimeout   = errors.New("job exceeded its time limit")
	ErrJobNotFound  = errors.New("job not found")
	ErrRepoNotFound = errors.New("stored file not found")
)

// maxErrorSamples bounds how many offending values an aggregate error names.
const maxErrorSamples = 5

// MatchingError reports marking codes whose derived barcode has no
// corresponding source item. It always describes the whole batch: no
// partial pair set is ever produced alongside it.
type MatchingError struct {
	// Unmatched holds up to maxErrorSamples offending barcodes.
	Unmatched []string
	// Total is the full count of unmatched codes, including those
	// beyond the sample.
	Total int
}

func (e *MatchingError) Error() string {
	msg := fmt.Sprintf("no source item for %d marking code(s): %s",
		e.Total, strings.Join(e.Unmatched, ", "))
	if rest := e.Total - len(e.Unmatched); rest > 0 {
		msg += fmt.Sprintf(" +%d more", rest)
	}
	return msg
}

// LayoutOverflowError reports a field whose content cannot fit its anchor
// region even at the lowest degradation step.
type LayoutOverflowError struct {
	Field      string // field identifier, e.g. "name", "organization"
	Suggestion string // human-actionable hint, e.g. "shorten the product name"
}

func (e *LayoutOverflowError) Error() string {
	return fmt.Sprintf("field %q does not fit the label: %s", e.Field, e.Suggestion)
}

// CodecError reports a single barcode or DataMatrix render/decode failure.
// It is recovered at the batch boundary with a placeholder image and never
// aborts the remaining batch.
type CodecError struct {
	Kind    string // "ean13", "code128", "datamatrix"
	Payload string
	Err     error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s codec failed for %q: %v", e.Kind, e.Payload, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// CodeParseError aggregates per-row marking-code rejections from one file.
// Parsing never aborts on a single bad row; samples are capped.
type CodeParseError struct {
	Samples []string
	Total   int
}

func (e *CodeParseError) Error() string {
	msg := fmt.Sprintf("%d marking code(s) rejected: %s",
		e.Total, strings.Join(e.Samples, "; "))
	if rest := e.Total - len(e.Samples); rest > 0 {
		msg += fmt.Sprintf(" +%d more", rest)
	}
	return msg
}
