package main

import (
	"context"
	"fmt"
	"os"

	labelmerge "github.com/alnah/go-labelmerge"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsage)
	}

	// Configure GOMAXPROCS with conditional logging.
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if flags.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	if err := run(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

// run executes one generation batch end to end.
func run(flags *cliFlags) error {
	if flags.version {
		fmt.Printf("labelmerge %s\n", Version)
		return nil
	}
	if err := flags.validate(); err != nil {
		return err
	}

	log, err := buildLogger(flags.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg := DefaultConfig()
	if flags.config != "" {
		cfg, err = LoadConfig(flags.config)
		if err != nil {
			return err
		}
	}
	gc := generateConfig(cfg, flags)

	in := labelmerge.GenerateInput{Config: gc}
	if in.Items, err = os.ReadFile(flags.items); err != nil { // #nosec G304 -- user-provided input
		return fmt.Errorf("reading items file: %w", err)
	}
	if flags.codesPDF != "" {
		if in.CodesPDF, err = os.ReadFile(flags.codesPDF); err != nil { // #nosec G304
			return fmt.Errorf("reading codes PDF: %w", err)
		}
	} else {
		if in.Codes, err = os.ReadFile(flags.codes); err != nil { // #nosec G304
			return fmt.Errorf("reading codes file: %w", err)
		}
	}

	opts := []labelmerge.Option{labelmerge.WithLogger(log.Sugar())}
	if flags.workers > 0 {
		opts = append(opts, labelmerge.WithPoolSize(labelmerge.ResolvePoolSize(flags.workers)))
	}
	svc := labelmerge.New(opts...)

	res, err := svc.Generate(context.Background(), in)
	if err != nil {
		return err
	}

	if res.CodeRejects != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", res.CodeRejects)
	}
	if res.Preflight != nil {
		printPreflight(os.Stderr, res.Preflight)
	}
	if flags.preflightOnly {
		if res.Preflight != nil && !res.Preflight.CanProceed {
			return ErrPreflightBlock
		}
		return nil
	}
	if res.Preflight != nil && !res.Preflight.CanProceed {
		return ErrPreflightBlock
	}
	if res.NeedsConfirmation {
		fmt.Fprintf(os.Stderr, "more codes than items; only the first %d codes would be used\n",
			res.WillGenerate)
		return ErrNeedsConfirm
	}

	if err := os.WriteFile(flags.out, res.PDF, 0o600); err != nil {
		return fmt.Errorf("writing output PDF: %w", err)
	}

	fmt.Fprintf(os.Stderr, "wrote %s: %d labels", flags.out, res.Labels)
	if res.FailedFits > 0 {
		fmt.Fprintf(os.Stderr, " (%d with layout errors)", res.FailedFits)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(os.Stderr, " (%d rows skipped)", res.Skipped)
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

// buildLogger returns a development logger in verbose mode and a nop
// logger otherwise; engine diagnostics stay silent unless asked for.
func buildLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// printPreflight writes a human-readable check report.
func printPreflight(w *os.File, pf *labelmerge.PreflightResult) {
	fmt.Fprintf(w, "preflight: %s\n", pf.OverallStatus)
	for _, f := range pf.Findings {
		fmt.Fprintf(w, "  [%s] %s: %s\n", f.Status, f.Check, f.Message)
	}
}
