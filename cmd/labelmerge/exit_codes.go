package main

import (
	"errors"
	"os"

	labelmerge "github.com/alnah/go-labelmerge"
)

// Exit codes for the labelmerge CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // successful generation
	ExitGeneral   = 1 // general/unexpected error
	ExitUsage     = 2 // invalid flags, config, or validation
	ExitIO        = 3 // file not found, permission denied
	ExitPreflight = 4 // preflight blocked the batch
	ExitBatch     = 5 // batch invariant violation (matching, code count)
)

// Sentinel errors for CLI operations.
var (
	ErrNoItems        = errors.New("no source items file given (--items)")
	ErrNoCodes        = errors.New("no marking codes given (--codes or --codes-pdf)")
	ErrInputNotFound  = errors.New("input file not found")
	ErrPreflightBlock = errors.New("preflight reported errors; batch blocked")
	ErrNeedsConfirm   = errors.New("codes exceed items; re-run with --force to truncate")
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is/As to check wrapped errors, so callers must wrap
// with fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrPreflightBlock) {
		return ExitPreflight
	}

	var matchErr *labelmerge.MatchingError
	if errors.As(err, &matchErr) ||
		errors.Is(err, labelmerge.ErrCountMismatch) ||
		errors.Is(err, ErrNeedsConfirm) {
		return ExitBatch
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrInputNotFound) {
		return ExitIO
	}

	if errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrConfigParse) ||
		errors.Is(err, ErrNoItems) ||
		errors.Is(err, ErrNoCodes) ||
		errors.Is(err, labelmerge.ErrEmptyInput) ||
		errors.Is(err, labelmerge.ErrNoValidItems) ||
		errors.Is(err, labelmerge.ErrNoBarcodeColumn) ||
		errors.Is(err, labelmerge.ErrNoValidCodes) ||
		errors.Is(err, labelmerge.ErrUnsupportedFormat) ||
		errors.Is(err, labelmerge.ErrInvalidTemplate) ||
		errors.Is(err, labelmerge.ErrInvalidVariant) ||
		errors.Is(err, labelmerge.ErrInvalidNumbering) ||
		errors.Is(err, labelmerge.ErrUnsupportedCombination) {
		return ExitUsage
	}

	return ExitGeneral
}
