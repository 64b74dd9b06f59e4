package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/domicch/life-in-uk/pkg/audit"
	"github.com/domicch/life-in-uk/pkg/config"
	"github.com/domicch/life-in-uk/pkg/extract"
	"github.com/domicch/life-in-uk/pkg/normalize"
	"github.com/domicch/life-in-uk/pkg/pipeline"
	"github.com/domicch/life-in-uk/pkg/watch"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lifeuk",
		Short: "Life in the UK practice exam extractor",
		Long: `lifeuk turns practice exam documents into the question and answer
tables read by the quiz application.

Each exam document (Word, HTML or normalized text) is converted to plain
lines with bold answers marked as **text**, parsed into questions and
answer options, and written as two CSV tables:
  - questions.csv: examNumber, questionNumber, question, reference
  - answers.csv:   examNumber, questionNumber, answerNumber, answer, isCorrect`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(normalizeCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(initCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads --config and applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input.Dir, _ = flags.GetString("input")
	}
	if flags.Changed("pattern") {
		cfg.Input.FilePattern, _ = flags.GetString("pattern")
	}
	if flags.Changed("questions") {
		cfg.Output.Questions, _ = flags.GetString("questions")
	}
	if flags.Changed("answers") {
		cfg.Output.Answers, _ = flags.GetString("answers")
	}
	if flags.Changed("workers") {
		cfg.Extract.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("recover-unnumbered") {
		cfg.Extract.RecoverUnnumbered, _ = flags.GetBool("recover-unnumbered")
	}
	if flags.Changed("expected") {
		cfg.Audit.ExpectedQuestions, _ = flags.GetInt("expected")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract questions and answers from a directory of exams",
		Long: `Extract questions and answers from every exam document in the input
directory and write the questions and answers tables.

Documents are matched by file name (Exam_<number>.docx by default) and merged
in exam order. A document that cannot be read is reported and skipped; the
tables are written once, after the whole batch.

Example:
  lifeuk extract --input exams
  lifeuk extract --config lifeuk.yaml --workers 4 --json
  lifeuk extract --input exams --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			watchMode, _ := cmd.Flags().GetBool("watch")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			pattern, err := cfg.FilePattern()
			if err != nil {
				return err
			}

			logger := newLogger(cmd)
			ctx, stop := signalContext(cmd)
			defer stop()

			runner := pipeline.NewRunner(pipeline.Config{
				Dir:         cfg.Input.Dir,
				Pattern:     pattern,
				Workers:     cfg.Extract.Workers,
				MaxFileSize: cfg.Input.MaxFileSize,
				Extract:     extract.Options{RecoverUnnumbered: cfg.Extract.RecoverUnnumbered},
				Logger:      logger,
			})

			build := func(ctx context.Context) error {
				dataset, report, err := runner.Run(ctx)
				if err != nil && !errors.Is(err, pipeline.ErrEmptyBatch) {
					return err
				}

				if err := pipeline.WriteTables(dataset, cfg.Output.Questions, cfg.Output.Answers); err != nil {
					return err
				}

				if jsonOutput {
					fmt.Println(report.JSON())
				} else {
					fmt.Print(report.Format())
					fmt.Printf("\nWrote %s and %s\n", cfg.Output.Questions, cfg.Output.Answers)
				}
				return nil
			}

			if err := build(ctx); err != nil {
				return err
			}
			if !watchMode {
				return nil
			}

			watcher := watch.New(watch.Config{
				Dir:      cfg.Input.Dir,
				Pattern:  pattern,
				Debounce: cfg.Watch.Debounce,
				Logger:   logger,
			}, func(ctx context.Context, changed []string) error {
				logger.Info("rebuilding tables", "changed", len(changed))
				return build(ctx)
			})
			return watcher.Run(ctx)
		},
	}

	cmd.Flags().StringP("config", "c", "", "YAML configuration file")
	cmd.Flags().StringP("input", "i", "", "Directory containing the exam documents")
	cmd.Flags().String("pattern", "", "Regular expression matching exam file names; group 1 is the exam number")
	cmd.Flags().String("questions", "", "Output path of the questions table")
	cmd.Flags().String("answers", "", "Output path of the answers table")
	cmd.Flags().IntP("workers", "w", 1, "Number of documents processed in parallel")
	cmd.Flags().Bool("recover-unnumbered", false, "Treat unnumbered lines that read like questions as new questions")
	cmd.Flags().Bool("watch", false, "Rebuild the tables whenever an exam document changes")
	cmd.Flags().Bool("json", false, "Print the report as JSON")

	return cmd
}

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <document>...",
		Short: "Print the normalized text of exam documents",
		Long: `Convert exam documents to the normalized line format read by the
extractor: one line per paragraph, bold answers marked as **text**.

Without --output-dir the text is printed to stdout. With --output-dir each
document is written as <name>.txt, which extract accepts as input.

Example:
  lifeuk normalize exams/Exam_1.docx
  lifeuk normalize exams/*.docx --output-dir txt_exams`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output-dir")
			maxFileSize, _ := cmd.Flags().GetInt64("max-file-size")

			logger := newLogger(cmd)
			ctx, stop := signalContext(cmd)
			defer stop()

			normalizer := normalize.New(normalize.Config{MaxFileSize: maxFileSize, Logger: logger})

			if outputDir != "" {
				if err := os.MkdirAll(outputDir, 0755); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", outputDir, err)
				}
			}

			failed := 0
			for _, path := range args {
				lines, err := normalizer.NormalizeFile(ctx, path)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return err
					}
					logger.Warn("failed to normalize document", "path", path, "error", err)
					failed++
					continue
				}

				text := strings.Join(lines, "\n") + "\n"
				if outputDir == "" {
					if len(args) > 1 {
						fmt.Printf("==> %s <==\n", path)
					}
					fmt.Print(text)
					continue
				}

				base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				outputPath := filepath.Join(outputDir, base+".txt")
				if err := os.WriteFile(outputPath, []byte(text), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outputPath, err)
				}
				fmt.Printf("Normalized %s -> %s (%d lines)\n", path, outputPath, len(lines))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d documents could not be normalized", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringP("output-dir", "o", "", "Write <name>.txt files to this directory instead of stdout")
	cmd.Flags().Int64("max-file-size", normalize.DefaultMaxFileSize, "Maximum document size in bytes")

	return cmd
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check the generated tables for missing questions and answers",
		Long: `Read the questions and answers tables back and report exams without
the expected number of questions, questions without a correct answer or
without answers, answers without a question and broken answer numbering.

Example:
  lifeuk audit
  lifeuk audit --questions out/questions.csv --answers out/answers.csv --strict
  lifeuk audit --expected 0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			strict, _ := cmd.Flags().GetBool("strict")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			questions, answers, err := audit.LoadTables(cfg.Output.Questions, cfg.Output.Answers)
			if err != nil {
				return err
			}

			findings := audit.Audit(questions, answers, audit.Options{ExpectedQuestions: cfg.Audit.ExpectedQuestions})

			if jsonOutput {
				data, err := findings.ToJSON()
				if err != nil {
					return fmt.Errorf("failed to encode findings: %w", err)
				}
				fmt.Println(string(data))
			} else {
				fmt.Print(findings.Format())
			}

			if strict && !findings.OK() {
				return fmt.Errorf("audit found issues in %s and %s", cfg.Output.Questions, cfg.Output.Answers)
			}
			return nil
		},
	}

	cmd.Flags().StringP("config", "c", "", "YAML configuration file")
	cmd.Flags().String("questions", "", "Path of the questions table")
	cmd.Flags().String("answers", "", "Path of the answers table")
	cmd.Flags().Int("expected", audit.DefaultExpectedQuestions, "Expected questions per exam (0 disables the check)")
	cmd.Flags().Bool("json", false, "Print the findings as JSON")
	cmd.Flags().Bool("strict", false, "Exit non-zero when the audit finds issues")

	return cmd
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")

			path := "lifeuk.yaml"
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.Default().Save(path); err != nil {
				return err
			}

			fmt.Printf("Wrote default configuration: %s\n", path)
			fmt.Printf("\nNext steps:\n")
			fmt.Printf("  1. Put Exam_<number>.docx files in the input directory\n")
			fmt.Printf("  2. Run: lifeuk extract --config %s\n", path)
			fmt.Printf("  3. Run: lifeuk audit --config %s\n", path)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing file")

	return cmd
}
