package labparse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
)

// Report is the full trace of one parse run.
type Report struct {
	Normalized NormalizedText
	Candidates []Candidate
	Retained   []Candidate
	Results    []LabTestResult
}

// Parser runs normalize -> match -> rank -> assemble -> enrich. It holds no per-run state
// and is safe for concurrent use.
type Parser struct {
	catalog      *Catalog
	matcher      *Matcher
	maxTextBytes int
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithCatalog replaces the built-in test catalog.
func WithCatalog(c *Catalog) Option {
	return func(p *Parser) { p.catalog = c }
}

// WithMaxTextBytes bounds the text the matcher sees.
func WithMaxTextBytes(n int) Option {
	return func(p *Parser) { p.maxTextBytes = n }
}

// WithClock sets the clock used for the run date.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		catalog:      DefaultCatalog(),
		maxTextBytes: DefaultMaxTextBytes,
		now:          time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.catalog == nil {
		p.catalog = DefaultCatalog()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.matcher = NewMatcher(p.catalog)
	return p
}

// Catalog returns the catalog the parser resolves names with.
func (p *Parser) Catalog() *Catalog { return p.catalog }

// Parse returns the results for text. Malformed input never panics out of Parse;
// an internal failure or a done ctx is returned as a parsing-stage error.
func (p *Parser) Parse(ctx context.Context, text string) ([]LabTestResult, error) {
	rep, err := p.ParseReport(ctx, text)
	if err != nil {
		return nil, err
	}
	return rep.Results, nil
}

// ParseReport is Parse with the intermediate views kept. ctx is checked between stages.
func (p *Parser) ParseReport(ctx context.Context, text string) (rep Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("lab parse panicked", "panic", r)
			rep = Report{}
			err = common.NewStageError(constants.StageParsing, common.CodeParseFailed,
				"failed to parse extracted text", fmt.Errorf("panic: %v", r))
		}
	}()

	now := p.now()
	nt := NormalizeLimit(text, p.maxTextBytes)
	if err := interrupted(ctx, "normalize"); err != nil {
		return Report{}, err
	}
	cands := p.matcher.Match(nt)
	if err := interrupted(ctx, "match"); err != nil {
		return Report{}, err
	}
	retained := Rank(cands)
	assembled := Assemble(retained, nt.Flat, now)
	if err := interrupted(ctx, "assemble"); err != nil {
		return Report{}, err
	}
	results := Enrich(assembled, nt.Flat, p.catalog)
	if err := interrupted(ctx, "enrich"); err != nil {
		return Report{}, err
	}

	p.logger.Debug("lab parse complete",
		"lines", len(nt.Lines),
		"flat_len", len(nt.Flat),
		"candidates", len(cands),
		"retained", len(retained),
		"results", len(results),
	)
	if len(retained) == 0 && nt.Flat != "" {
		p.logger.Info("no lab tests recognized; emitting placeholder", "error", common.ErrNoCandidatesFound)
	}

	return Report{
		Normalized: nt,
		Candidates: cands,
		Retained:   retained,
		Results:    results,
	}, nil
}

func interrupted(ctx context.Context, step string) error {
	if err := ctx.Err(); err != nil {
		return common.NewStageError(constants.StageParsing, common.CodeParseFailed,
			"lab parse stopped after "+step, err)
	}
	return nil
}
