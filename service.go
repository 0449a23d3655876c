package labelmerge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-labelmerge/internal/imgutil"
)

// Service orchestrates the ingest → match → layout → codec → render
// pipeline.
type Service struct {
	cfg      serviceConfig
	log      *zap.SugaredLogger
	repo     Repository
	analyzer *Analyzer
	renderer *renderer

	jobMu  sync.Mutex
	jobs   map[string]*Job
	jobSeq atomic.Int64
}

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	poolSize    int
	softTimeout time.Duration
	hardTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger. Default is a nop logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Service) { s.log = log }
}

// WithPoolSize sets the worker pool size for label and page processing.
// Panics if n < 1 (programmer error, similar to time.NewTicker).
func WithPoolSize(n int) Option {
	if n < 1 {
		panic("labelmerge: WithPoolSize must be at least 1")
	}
	return func(s *Service) { s.cfg.poolSize = n }
}

// WithRepository injects persistent storage for produced documents.
func WithRepository(repo Repository) Option {
	return func(s *Service) { s.repo = repo }
}

// WithAnalyzer replaces the default source-PDF analyzer.
func WithAnalyzer(a *Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithJobTimeouts sets the soft and hard wall-clock bounds for
// asynchronous jobs.
func WithJobTimeouts(soft, hard time.Duration) Option {
	return func(s *Service) {
		s.cfg.softTimeout = soft
		s.cfg.hardTimeout = hard
	}
}

// New creates a Service with default configuration. The static anchor
// table is validated once here; an inconsistency is a programmer error.
func New(opts ...Option) *Service {
	if err := validateAnchorTable(); err != nil {
		panic("labelmerge: " + err.Error())
	}

	s := &Service{
		cfg:  serviceConfig{poolSize: DefaultPoolSize},
		log:  zap.NewNop().Sugar(),
		jobs: make(map[string]*Job),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analyzer == nil {
		s.analyzer = NewAnalyzer(AnalyzerOptions{Workers: s.cfg.poolSize}, s.log)
	}
	s.renderer = newRenderer(s.log)
	return s
}

// GenerateInput carries one batch's raw uploads and configuration.
type GenerateInput struct {
	// Items is the source spreadsheet (.xlsx or delimited text).
	Items []byte
	// Codes is the marking-code file (delimited text). Ignored when
	// CodesPDF is set.
	Codes []byte
	// CodesPDF is a PDF whose pages embed marking codes; decoded via
	// the analyzer.
	CodesPDF []byte

	Config GenerateConfig
}

// GenerateResult reports one batch's outcome.
type GenerateResult struct {
	PDF        []byte
	Labels     int
	FailedFits int // labels rendered with an explicit error marker
	Skipped    int // source rows dropped during ingestion
	StorageKey string

	// CodeRejects samples individually rejected code rows, when any.
	CodeRejects *CodeParseError

	// NeedsConfirmation is set when codes outnumber items and
	// ForceGenerate is off: the caller must confirm truncation.
	NeedsConfirmation bool
	WillGenerate      int

	Preflight *PreflightResult
}

// Generate runs the full pipeline synchronously.
//
// Batch invariants abort atomically before any output: matching
// failures, insufficient codes, and (when RunPreflight is set) any
// error-tier preflight finding. Per-label problems never abort: codec
// failures print placeholders and layout overflows print explicit error
// markers.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	return s.generate(ctx, in, func(int) {})
}

// generate is Generate plus progress checkpoints for async jobs.
func (s *Service) generate(ctx context.Context, in GenerateInput, progress func(int)) (*GenerateResult, error) {
	if err := in.Config.Validate(); err != nil {
		return nil, err
	}
	if _, err := AnchorsFor(in.Config.Variant, in.Config.Template); err != nil {
		return nil, err
	}

	ingested, err := IngestItems(in.Items)
	if err != nil {
		return nil, err
	}

	var (
		codes   []MarkingCode
		rejects *CodeParseError
	)
	if len(in.CodesPDF) > 0 {
		codes, err = s.analyzer.ExtractCodes(ctx, in.CodesPDF)
	} else {
		codes, rejects, err = IngestCodes(in.Codes)
	}
	if err != nil {
		return nil, err
	}
	progress(ProgressIngest)

	result := &GenerateResult{
		Skipped:     ingested.Skipped,
		CodeRejects: rejects,
	}

	items := ingested.Items
	if len(codes) < len(items) {
		return nil, fmt.Errorf("%w: %d items but only %d codes",
			ErrCountMismatch, len(items), len(codes))
	}
	if len(codes) > len(items) {
		if !in.Config.ForceGenerate {
			result.NeedsConfirmation = true
			result.WillGenerate = len(items)
			return result, nil
		}
		s.log.Infow("truncating excess codes",
			"items", len(items),
			"codes", len(codes),
		)
		codes = codes[:len(items)]
	}

	pairs, err := Match(items, codes, in.Config)
	if err != nil {
		return nil, err
	}
	progress(ProgressPrepare)

	if in.Config.RunPreflight {
		pf, err := s.preflight(items, codes, in.Config)
		if err != nil {
			return nil, err
		}
		result.Preflight = pf
		if !pf.CanProceed {
			return result, nil
		}
	}

	plans, err := runOrdered(ctx, pairs, s.cfg.poolSize,
		func(ctx context.Context, idx int, pair MatchedPair) (*DrawingPlan, error) {
			plan, err := ComposeLabel(in.Config, pair)
			if err != nil {
				var fail *LayoutOverflowError
				if !errors.As(err, &fail) {
					return nil, err
				}
				// Generation mode: the label renders an explicit error
				// marker instead of silently truncated content.
				s.log.Warnw("label layout failed",
					"label", idx,
					"field", fail.Field,
				)
				return &DrawingPlan{Template: in.Config.Template, Failed: fail}, nil
			}
			progress(ProgressRender + (ProgressPersist-ProgressRender-10)*(idx+1)/len(pairs))
			return plan, nil
		})
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.Render(plans, in.Config)
	if err != nil {
		return nil, err
	}

	result.PDF = pdf
	result.Labels = len(plans)
	for _, p := range plans {
		if p.Failed != nil {
			result.FailedFits++
		}
	}

	if s.repo != nil {
		key, err := s.repo.Save(ctx, "labels.pdf", pdf)
		if err != nil {
			return nil, fmt.Errorf("persisting document: %w", err)
		}
		result.StorageKey = key
	}
	progress(ProgressPersist)
	return result, nil
}

// preflight builds the representative artifacts and runs the quality
// checker: the DataMatrix is rendered once at the anchor's physical
// size, a cheap subset of the full pipeline.
func (s *Service) preflight(items []SourceItem, codes []MarkingCode, cfg GenerateConfig) (*PreflightResult, error) {
	anchors, err := AnchorsFor(cfg.Variant, cfg.Template)
	if err != nil {
		return nil, err
	}

	in := PreflightInput{
		Items:      items,
		Codes:      codes,
		CodeSizeMM: anchors.Code.W,
	}
	if len(codes) > 0 {
		img, err := EncodeDataMatrix(string(codes[0]), MMToPx(anchors.Code.W))
		if err != nil {
			s.log.Warnw("preflight code render failed", "error", err)
		} else {
			in.CodeImage = img
		}
	}
	if cfg.Fields.EAN && len(items) > 0 {
		wPx, hPx := MMToPx(anchors.Linear.W), MMToPx(anchors.Linear.H)
		img, err := EncodeLinear(items[0].Barcode, wPx, hPx)
		if err != nil {
			s.log.Warnw("preflight barcode render failed", "error", err)
		} else {
			in.LinearImage = imgutil.AddBorder(img, wPx/10)
			in.LinearPayload = items[0].Barcode
		}
	}
	return Preflight(in), nil
}

// StartGenerate runs Generate as an asynchronous job with progress
// checkpoints, bounded timeouts and bounded retries. The returned job is
// pollable via Snapshot and discoverable later via JobByID.
func (s *Service) StartGenerate(ctx context.Context, in GenerateInput) *Job {
	id := fmt.Sprintf("job-%d-%d", time.Now().Unix(), s.jobSeq.Add(1))
	job := newJob(id, s.cfg.softTimeout, s.cfg.hardTimeout, s.log)

	s.jobMu.Lock()
	s.jobs[id] = job
	s.jobMu.Unlock()

	go job.run(ctx, func(ctx context.Context, j *Job) (string, error) {
		res, err := s.generate(ctx, in, j.setProgress)
		if err != nil {
			return "", err
		}
		return res.StorageKey, nil
	})
	return job
}

// JobByID returns a previously started job.
func (s *Service) JobByID(id string) (*Job, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}
