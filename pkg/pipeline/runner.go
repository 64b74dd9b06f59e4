package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"golang.org/x/sync/errgroup"

	"github.com/domicch/life-in-uk/pkg/config"
	"github.com/domicch/life-in-uk/pkg/extract"
	"github.com/domicch/life-in-uk/pkg/models"
	"github.com/domicch/life-in-uk/pkg/normalize"
)

// ErrEmptyBatch is returned by Run when no document matches the file
// pattern. The returned dataset is empty and can still be written.
var ErrEmptyBatch = errors.New("no exam documents found")

// Config configures a Runner.
type Config struct {
	Dir         string
	Pattern     *regexp.Regexp
	Workers     int
	MaxFileSize int64
	Extract     extract.Options
	Logger      *slog.Logger
}

func (c *Config) defaults() {
	if c.Pattern == nil {
		c.Pattern = regexp.MustCompile(config.DefaultFilePattern)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Runner processes a directory of exam documents.
type Runner struct {
	cfg        Config
	normalizer *normalize.Normalizer
	builder    *extract.Builder
	logger     *slog.Logger
}

// NewRunner creates a Runner with the given configuration.
func NewRunner(cfg Config) *Runner {
	cfg.defaults()
	return &Runner{
		cfg: cfg,
		normalizer: normalize.New(normalize.Config{
			MaxFileSize: cfg.MaxFileSize,
			Logger:      cfg.Logger,
		}),
		builder: extract.NewBuilder(cfg.Extract),
		logger:  cfg.Logger,
	}
}

// outcome is the private result of processing one source.
type outcome struct {
	result *extract.Result
	err    error
}

// Run discovers the documents in the configured directory and processes
// them. Per-document failures are recorded in the report and never abort the
// run; only discovery failures and context cancellation return an error
// other than ErrEmptyBatch.
func (r *Runner) Run(ctx context.Context) (models.Dataset, *Report, error) {
	sources, err := Discover(r.cfg.Dir, r.cfg.Pattern)
	if err != nil {
		return models.Dataset{}, nil, err
	}
	if len(sources) == 0 {
		r.logger.Warn("no exam documents matched", "dir", r.cfg.Dir, "pattern", r.cfg.Pattern.String())
		return models.Dataset{}, &Report{Dir: r.cfg.Dir}, ErrEmptyBatch
	}

	dataset, report, err := r.RunSources(ctx, sources)
	if report != nil {
		report.Dir = r.cfg.Dir
	}
	return dataset, report, err
}

// RunSources processes the given sources and merges their records in the
// order of the slice.
func (r *Runner) RunSources(ctx context.Context, sources []Source) (models.Dataset, *Report, error) {
	outcomes := make([]outcome, len(sources))

	if r.cfg.Workers > 1 {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(r.cfg.Workers)
		for index, source := range sources {
			if source.Shadowed != "" {
				continue
			}
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				outcomes[index] = r.process(groupCtx, source)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return models.Dataset{}, nil, fmt.Errorf("batch interrupted: %w", err)
		}
	} else {
		for index, source := range sources {
			if source.Shadowed != "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				return models.Dataset{}, nil, fmt.Errorf("batch interrupted: %w", err)
			}
			outcomes[index] = r.process(ctx, source)
		}
	}

	dataset, report := r.merge(sources, outcomes)
	r.logger.Info("batch complete",
		"documents", report.TotalAttempted,
		"failed", report.Failed,
		"questions", report.TotalQuestions,
		"correct", report.TotalCorrect)
	return dataset, report, nil
}

func (r *Runner) process(ctx context.Context, source Source) outcome {
	lines, err := r.normalizer.NormalizeFile(ctx, source.Path)
	if err != nil {
		return outcome{err: err}
	}
	return outcome{result: r.builder.Build(source.ExamID, lines)}
}

// merge concatenates the per-document blocks in source order. A question
// whose (exam, number) key was already emitted is dropped with its answers.
func (r *Runner) merge(sources []Source, outcomes []outcome) (models.Dataset, *Report) {
	var dataset models.Dataset
	report := &Report{}
	seen := make(map[models.Key]bool)

	for index, source := range sources {
		entry := Entry{Path: source.Path, ExamID: source.ExamID}

		if source.Shadowed != "" {
			entry.Status = StatusSkipped
			entry.Error = fmt.Sprintf("exam %d already read from %s", source.ExamID, source.Shadowed)
			r.logger.Warn("skipping duplicate exam document", "path", source.Path, "preferred", source.Shadowed)
			report.add(entry)
			continue
		}

		result := outcomes[index]
		if result.err != nil {
			entry.Status = StatusFailed
			entry.Error = result.err.Error()
			r.logger.Warn("failed to read exam document", "path", source.Path, "error", result.err)
			report.add(entry)
			continue
		}

		entry.Status = StatusOK
		entry.Ignored = result.result.Stats.Ignored
		entry.Synthesized = result.result.Stats.Synthesized
		for _, block := range result.result.Blocks {
			key := block.Question.Key()
			if seen[key] {
				entry.Duplicates++
				r.logger.Warn("dropping duplicate question",
					"path", source.Path, "exam", key.ExamID, "question", key.Question)
				continue
			}
			seen[key] = true

			dataset.Add(block)
			entry.Questions++
			entry.Answers += len(block.Answers)
			entry.Correct += block.CorrectCount()
			if !block.WellFormed() {
				entry.Malformed++
			}
		}

		r.logger.Debug("processed exam document",
			"path", source.Path,
			"exam", source.ExamID,
			"questions", entry.Questions,
			"answers", entry.Answers,
			"ignored_lines", entry.Ignored)
		report.add(entry)
	}

	return dataset, report
}
