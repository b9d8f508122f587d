package preprocess

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bimmerbailey/logsift/internal/config"
	"github.com/bimmerbailey/logsift/internal/parser"
	"golang.org/x/sync/errgroup"
)

// ErrNoInput is returned when Process is given a nil reader.
var ErrNoInput = errors.New("preprocess: no input")

// shardBatchSize is the number of eligible lines handed to a worker at once.
const shardBatchSize = 512

// Preprocessor orchestrates the Filter → Normalizer → Registry pipeline.
//
// Usage:
//
//	p := preprocess.New(
//	    preprocess.WithIncludeNoise(true),
//	    preprocess.WithMaxSampleLength(120),
//	)
//
//	result, err := p.Process(ctx, os.Stdin)
//	if err != nil {
//	    return err
//	}
//	report := p.Report("stdin", result)
type Preprocessor struct {
	filter     *Filter
	normalizer *Normalizer

	includeNoise    bool
	keywords        []string
	rules           []Rule
	maxSampleLength int
	separatorWidth  int
	workers         int
	logger          *slog.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithIncludeNoise disables the noise keyword filter when true.
// Default is false.
func WithIncludeNoise(include bool) Option {
	return func(p *Preprocessor) {
		p.includeNoise = include
	}
}

// WithNoiseKeywords replaces the noise substrings. Default is INFO and DEBUG.
func WithNoiseKeywords(keywords []string) Option {
	return func(p *Preprocessor) {
		p.keywords = append([]string(nil), keywords...)
	}
}

// WithRules replaces the substitution pipeline. The order of rules is kept.
func WithRules(rules []Rule) Option {
	return func(p *Preprocessor) {
		p.rules = append([]Rule(nil), rules...)
	}
}

// WithMaxSampleLength sets the display limit for samples. Default is 200.
func WithMaxSampleLength(n int) Option {
	return func(p *Preprocessor) {
		if n > 0 {
			p.maxSampleLength = n
		}
	}
}

// WithSeparatorWidth sets the width of the report separators. Default is 60.
func WithSeparatorWidth(n int) Option {
	return func(p *Preprocessor) {
		if n > 0 {
			p.separatorWidth = n
		}
	}
}

// WithWorkers sets the number of shards. Values below 2 run sequentially.
func WithWorkers(n int) Option {
	return func(p *Preprocessor) {
		if n < 1 {
			n = 1
		}
		p.workers = n
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Preprocessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConfig applies every setting of a ClusterConfig.
func WithConfig(cfg config.ClusterConfig) Option {
	return func(p *Preprocessor) {
		cfg = cfg.Normalize()
		p.includeNoise = cfg.IncludeNoise
		p.keywords = append([]string(nil), cfg.NoiseKeywords...)
		p.maxSampleLength = cfg.MaxSampleLength
		p.separatorWidth = cfg.SeparatorWidth
		p.workers = cfg.Workers
	}
}

// New creates a Preprocessor with the specified options.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{
		keywords:        append([]string(nil), config.DefaultNoiseKeywords...),
		maxSampleLength: config.DefaultMaxSampleLength,
		separatorWidth:  config.DefaultSeparatorWidth,
		workers:         config.DefaultWorkers,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.filter = NewFilter(p.includeNoise, p.keywords)
	p.normalizer = NewNormalizer(p.rules)

	p.logger.Debug("preprocessor configured",
		"rules", RuleNames(p.normalizer.Rules()),
		"include_noise", p.includeNoise,
		"workers", p.workers)

	return p
}

// Stats counts what a run saw. Eligible equals the sum of cluster counts.
type Stats struct {
	LinesRead  int   `json:"lines_read"`
	Blank      int   `json:"blank"`
	Noise      int   `json:"noise_filtered"`
	Eligible   int   `json:"eligible"`
	Patterns   int   `json:"unique_patterns"`
	InputBytes int64 `json:"input_bytes"`
}

// Result is the outcome of a run.
type Result struct {
	Registry *Registry
	Stats    Stats

	// Partial is set when the run stopped early on context cancellation.
	// The registry is still consistent for every line that was read.
	Partial bool
}

// Eligible reports whether a line takes part in clustering.
func (p *Preprocessor) Eligible(line string) bool {
	return p.filter.Eligible(line)
}

// Normalize returns the template for a line.
func (p *Preprocessor) Normalize(line string) string {
	return p.normalizer.Normalize(line)
}

// IncludeNoise reports whether noise filtering is off.
func (p *Preprocessor) IncludeNoise() bool {
	return p.includeNoise
}

// ProcessFile opens path and runs Process on it.
func (p *Preprocessor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return p.Process(ctx, f)
}

// Process reads r to the end and clusters every eligible line.
//
// If ctx ends first, Process returns the partial result together with the
// context error. Read errors return a nil result.
func (p *Preprocessor) Process(ctx context.Context, r io.Reader) (*Result, error) {
	if r == nil {
		return nil, ErrNoInput
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		res *Result
		err error
	)
	if p.workers > 1 {
		res, err = p.processSharded(ctx, r)
	} else {
		res, err = p.processSequential(ctx, r)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			res.Partial = true
			p.logger.Debug("run stopped early", "error", err, "eligible", res.Stats.Eligible)
			return res, err
		}
		return nil, fmt.Errorf("read input: %w", err)
	}

	p.logger.Debug("run completed",
		"lines", res.Stats.LinesRead,
		"eligible", res.Stats.Eligible,
		"patterns", res.Stats.Patterns,
		"workers", p.workers)

	return res, nil
}

func (p *Preprocessor) processSequential(ctx context.Context, r io.Reader) (*Result, error) {
	s := p.NewStream()
	ps, err := parser.NewReader(ctx, r).Each(s.Feed)

	res := s.result()
	res.Stats.InputBytes = ps.Bytes
	return res, err
}

type orderedLine struct {
	line  string
	order int
}

// processSharded reads and filters on one goroutine, stamping each eligible
// line with its global order, and fans batches out to independent workers.
// Workers always drain the channel so a cancelled run still observes every
// line it counted.
func (p *Preprocessor) processSharded(ctx context.Context, r io.Reader) (*Result, error) {
	batches := make(chan []orderedLine, p.workers*2)
	partials := make([]*Registry, p.workers)

	var (
		g      errgroup.Group
		stats  Stats
		pstats parser.Stats
	)

	g.Go(func() error {
		defer close(batches)

		order := 0
		batch := make([]orderedLine, 0, shardBatchSize)
		var err error
		pstats, err = parser.NewReader(ctx, r).Each(func(line string) error {
			stats.LinesRead++
			switch p.filter.Classify(line) {
			case VerdictBlank:
				stats.Blank++
			case VerdictNoise:
				stats.Noise++
			default:
				order++
				stats.Eligible++
				batch = append(batch, orderedLine{line: line, order: order})
				if len(batch) == shardBatchSize {
					batches <- batch
					batch = make([]orderedLine, 0, shardBatchSize)
				}
			}
			return nil
		})
		if len(batch) > 0 {
			batches <- batch
		}
		return err
	})

	for i := range partials {
		reg := NewRegistry()
		partials[i] = reg
		g.Go(func() error {
			for batch := range batches {
				for _, l := range batch {
					reg.Observe(l.line, p.normalizer.Normalize(l.line), l.order)
				}
			}
			return nil
		})
	}

	err := g.Wait()

	merged := Merge(partials...)
	stats.Patterns = merged.Len()
	stats.InputBytes = pstats.Bytes

	return &Result{Registry: merged, Stats: stats}, err
}

// Report ranks the result's clusters and prepares them for display.
func (p *Preprocessor) Report(source string, res *Result) *Report {
	ranked := Rank(res.Registry.Clusters())

	entries := make([]ReportEntry, len(ranked))
	for i, c := range ranked {
		entries[i] = ReportEntry{
			Count:     c.Count,
			Sample:    Truncate(c.Sample, p.maxSampleLength),
			Template:  c.Template,
			FirstSeen: c.FirstSeen,
		}
	}

	rep := &Report{
		Source:         source,
		TotalPatterns:  len(entries),
		Entries:        entries,
		NoiseHidden:    !p.includeNoise,
		Partial:        res.Partial,
		Stats:          res.Stats,
		SeparatorWidth: p.separatorWidth,
	}
	if !rep.Conserved() {
		p.logger.Warn("cluster counts do not add up to eligible lines",
			"source", source, "eligible", res.Stats.Eligible)
	}
	return rep
}

// Stream clusters lines one at a time. It is used for sources without an
// end, such as a followed file. A Stream is not safe for concurrent use.
type Stream struct {
	p     *Preprocessor
	reg   *Registry
	stats Stats
	order int
}

// NewStream starts an empty incremental run.
func (p *Preprocessor) NewStream() *Stream {
	return &Stream{p: p, reg: NewRegistry()}
}

// Feed processes one line. It never fails; the error return lets Feed be
// used directly as a parser.LineFunc.
func (s *Stream) Feed(line string) error {
	line = strings.TrimSpace(line)
	s.stats.LinesRead++

	switch s.p.filter.Classify(line) {
	case VerdictBlank:
		s.stats.Blank++
	case VerdictNoise:
		s.stats.Noise++
	default:
		s.order++
		s.stats.Eligible++
		s.reg.Observe(line, s.p.normalizer.Normalize(line), s.order)
	}
	return nil
}

// Result returns a snapshot of everything fed so far.
func (s *Stream) Result() *Result {
	res := s.result()
	res.Registry = res.Registry.Clone()
	return res
}

func (s *Stream) result() *Result {
	stats := s.stats
	stats.Patterns = s.reg.Len()
	return &Result{Registry: s.reg, Stats: stats}
}
