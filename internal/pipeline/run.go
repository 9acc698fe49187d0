package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/contentcheck/internal/config"
	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/dgallion1/contentcheck/internal/index"
	"github.com/dgallion1/contentcheck/internal/loader"
	"github.com/dgallion1/contentcheck/internal/parser"
	"github.com/dgallion1/contentcheck/internal/report"
	"github.com/dgallion1/contentcheck/internal/rules"
)

// Run is one validation pass over the configured roots. All state lives on
// the Run; nothing is shared between runs.
type Run struct {
	cfg config.Config
	log *slog.Logger
}

func NewRun(cfg config.Config, log *slog.Logger) *Run {
	return &Run{cfg: cfg, log: log}
}

// result carries the intermediate products of a run for inspection.
type result struct {
	report    *report.Report
	summaries []*doctree.Summary
	index     *index.Index
}

// Execute loads, extracts, indexes, evaluates and reports. Any returned
// error is fatal and comes with no report: a bad root, a bad ordering file,
// an invalid rule selection, or cancellation.
func (r *Run) Execute(ctx context.Context) (*report.Report, error) {
	res, err := r.execute(ctx)
	if err != nil {
		return nil, err
	}
	return res.report, nil
}

func (r *Run) execute(ctx context.Context) (*result, error) {
	start := time.Now()
	log := r.log.With("roots", r.cfg.Roots, "format", r.cfg.Format)

	ordering, err := index.LoadOrdering(r.cfg.OrderingFile)
	if err != nil {
		return nil, err
	}
	ruleset, err := rules.Select(rules.Default(r.cfg), r.cfg.Rules, r.cfg.SkipRules)
	if err != nil {
		return nil, err
	}
	exclude := append(append([]string{}, loader.DefaultExclude...), r.cfg.Exclude...)
	ld, err := loader.New(r.cfg.Roots, loader.Options{
		Include: r.cfg.Include,
		Exclude: exclude,
		Formats: []doctree.Format{r.cfg.Format},
	})
	if err != nil {
		return nil, err
	}

	// Pass 1: extract every document with bounded concurrency. Slots keep
	// scan order regardless of completion order.
	type slot struct {
		sum     *doctree.Summary
		finding *doctree.Finding
	}
	var (
		slots    []*slot
		wg       sync.WaitGroup
		fatal    error
		workers  = max(r.cfg.Workers, 1)
		sem      = make(chan struct{}, workers)
		docCount int
	)

	for doc, loadErr := range ld.Documents() {
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}
		if loadErr != nil {
			if errors.Is(loadErr, loader.ErrRootNotFound) || errors.Is(loadErr, loader.ErrConsumed) {
				fatal = loadErr
				break
			}
			docCount++
			log.Warn("document unreadable", "path", doc.Path, "error", loadErr)
			slots = append(slots, &slot{finding: extractionFinding(doc.Path, 0, loadErr)})
			continue
		}

		docCount++
		s := &slot{}
		slots = append(slots, s)
		sem <- struct{}{}
		wg.Add(1)
		go func(doc doctree.Document, s *slot) {
			defer wg.Done()
			defer func() { <-sem }()
			s.sum, s.finding = extractOne(doc, log)
		}(doc, s)
	}
	// Barrier: the index needs every summary.
	wg.Wait()

	if fatal == nil {
		fatal = ctx.Err()
	}
	if fatal != nil {
		return nil, fatal
	}

	var (
		findings  []doctree.Finding
		summaries []*doctree.Summary
	)
	for _, s := range slots {
		if s.finding != nil {
			findings = append(findings, *s.finding)
		}
		if s.sum != nil {
			summaries = append(summaries, s.sum)
		}
	}
	log.Debug("extraction complete", "documents", docCount, "summaries", len(summaries))

	// Pass 2: build the index once, then run the rules against it.
	idx, idxFindings := index.Build(summaries, ordering, r.cfg.OrderingFile)
	findings = append(findings, idxFindings...)

	engine := rules.NewEngine(log, ruleset...)
	findings = append(findings, engine.Evaluate(summaries, idx)...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := report.New(findings, docCount)
	log.Info("run complete",
		"documents", docCount,
		"errors", rep.Summary.Errors,
		"warnings", rep.Summary.Warnings,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &result{report: rep, summaries: summaries, index: idx}, nil
}

// extractOne turns a document into a summary, or into exactly one
// extraction-error finding. A panicking parser counts as an extraction error.
func extractOne(doc doctree.Document, log *slog.Logger) (sum *doctree.Summary, finding *doctree.Finding) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("extractor panicked", "path", doc.Path, "panic", p)
			sum = nil
			finding = extractionFinding(doc.Path, 0, fmt.Errorf("extractor panic: %v", p))
		}
	}()

	s, err := parser.Extract(doc)
	if err != nil {
		log.Warn("extraction failed", "path", doc.Path, "error", err)
		var extErr *parser.ExtractionError
		if errors.As(err, &extErr) {
			return nil, extractionFinding(doc.Path, extErr.Line, extErr.Err)
		}
		return nil, extractionFinding(doc.Path, 0, err)
	}
	return s, nil
}

func extractionFinding(path string, line int, err error) *doctree.Finding {
	return &doctree.Finding{
		FilePath: path,
		RuleID:   doctree.RuleExtractionError,
		Severity: doctree.SeverityError,
		Message:  err.Error(),
		Line:     line,
	}
}
