package main

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-labelmerge/internal/fileutil"
)

// cliFlags holds every parsed command-line flag.
type cliFlags struct {
	items    string
	codes    string
	codesPDF string
	out      string

	config string

	template     string
	variant      string
	numbering    string
	continueFrom int
	organization string
	registration string

	separate      bool
	preflight     bool
	preflightOnly bool
	force         bool
	demo          bool

	workers int
	verbose bool
	version bool
}

// parseFlags parses args (excluding the program name).
func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("labelmerge", flag.ContinueOnError)

	fs.StringVar(&f.items, "items", "", "source spreadsheet (.xlsx or .csv)")
	fs.StringVar(&f.codes, "codes", "", "marking-code file (delimited text)")
	fs.StringVar(&f.codesPDF, "codes-pdf", "", "marking-code PDF (rasterized sheets)")
	fs.StringVarP(&f.out, "out", "o", "labels.pdf", "output PDF path")

	fs.StringVarP(&f.config, "config", "c", "", "config name or YAML path")

	fs.StringVar(&f.template, "template", "", "label template: 58x40, 58x30, 43x25")
	fs.StringVar(&f.variant, "variant", "", "layout variant: basic, extended, two-column")
	fs.StringVar(&f.numbering, "numbering", "", "numbering: none, sequential, per-item, continued")
	fs.IntVar(&f.continueFrom, "continue-from", 0, "first number for continued numbering")
	fs.StringVar(&f.organization, "org", "", "organization line")
	fs.StringVar(&f.registration, "reg", "", "registration (OGRN) text")

	fs.BoolVar(&f.separate, "separate", false, "two pages per label (barcode page + code page)")
	fs.BoolVar(&f.preflight, "preflight", false, "run preflight checks before generating")
	fs.BoolVar(&f.preflightOnly, "preflight-only", false, "run preflight checks and exit")
	fs.BoolVar(&f.force, "force", false, "proceed when codes outnumber items")
	fs.BoolVar(&f.demo, "demo", false, "overlay a DEMO watermark")

	fs.IntVarP(&f.workers, "workers", "w", 0, "worker pool size (0 = auto)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose logging")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// validate checks flag combinations before any file is touched.
func (f *cliFlags) validate() error {
	if f.version {
		return nil
	}
	if f.items == "" {
		return ErrNoItems
	}
	if f.codes == "" && f.codesPDF == "" {
		return ErrNoCodes
	}
	for _, path := range []string{f.items, f.codes, f.codesPDF} {
		if path != "" && !fileutil.FileExists(path) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
	}
	return nil
}
