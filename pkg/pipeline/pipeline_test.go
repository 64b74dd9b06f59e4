package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/domicch/life-in-uk/pkg/config"
	"github.com/domicch/life-in-uk/pkg/tabular"
)

var testPattern = regexp.MustCompile(config.DefaultFilePattern)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// examText renders a normalized exam with count well-formed questions.
func examText(count int) string {
	var builder strings.Builder
	for number := 1; number <= count; number++ {
		fmt.Fprintf(&builder, "%d. Question %d?\n", number, number)
		builder.WriteString("- Wrong\n")
		builder.WriteString("- **Right**\n")
		builder.WriteString("- Also wrong\n")
		fmt.Fprintf(&builder, "Explanation for question %d.\n", number)
	}
	return builder.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Exam_10.txt", "")
	writeFile(t, dir, "Exam_2.txt", "")
	writeFile(t, dir, "Exam_2.docx", "")
	writeFile(t, dir, "Exam_1.html", "")
	writeFile(t, dir, "notes.txt", "")
	writeFile(t, dir, "~$Exam_3.docx", "")
	if err := os.Mkdir(filepath.Join(dir, "Exam_4.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	sources, err := Discover(dir, testPattern)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	var got []string
	for _, source := range sources {
		name := filepath.Base(source.Path)
		if source.Shadowed != "" {
			name += " (shadowed by " + filepath.Base(source.Shadowed) + ")"
		}
		got = append(got, name)
	}
	want := []string{
		"Exam_1.html",
		"Exam_2.docx",
		"Exam_2.txt (shadowed by Exam_2.docx)",
		"Exam_10.txt",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
	if sources[0].ExamID != 1 || sources[3].ExamID != 10 {
		t.Errorf("exam ids = %d, %d, want 1, 10", sources[0].ExamID, sources[3].ExamID)
	}
}

func TestDiscover_Errors(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "missing"), testPattern); err == nil {
		t.Error("Discover() of a missing directory should return error")
	}
	if _, err := Discover(t.TempDir(), regexp.MustCompile(`^Exam_\d+\.txt$`)); err == nil {
		t.Error("Discover() with a pattern lacking a capture group should return error")
	}
	if _, err := Discover(t.TempDir(), nil); err == nil {
		t.Error("Discover() with a nil pattern should return error")
	}
}

func TestRunSources_MissingDocumentDoesNotHaltBatch(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "Exam_2.txt", examText(24))

	sources := []Source{
		{Path: filepath.Join(dir, "Exam_1.txt"), ExamID: 1},
		{Path: valid, ExamID: 2},
	}

	runner := NewRunner(Config{Logger: quietLogger()})
	dataset, report, err := runner.RunSources(context.Background(), sources)
	if err != nil {
		t.Fatalf("RunSources() error = %v", err)
	}

	if len(dataset.Questions) != 24 {
		t.Fatalf("questions = %d, want 24", len(dataset.Questions))
	}
	for _, question := range dataset.Questions {
		if question.ExamID != 2 {
			t.Errorf("question from exam %d, want only exam 2", question.ExamID)
		}
	}
	if len(dataset.Answers) != 72 || dataset.CorrectCount() != 24 {
		t.Errorf("answers = %d, correct = %d, want 72, 24", len(dataset.Answers), dataset.CorrectCount())
	}

	if report.Failed != 1 || report.Succeeded != 1 {
		t.Errorf("report failed = %d, succeeded = %d, want 1, 1", report.Failed, report.Succeeded)
	}
	if report.Entries[0].Status != StatusFailed || report.Entries[0].Error == "" {
		t.Errorf("missing document entry = %+v", report.Entries[0])
	}
	if report.TotalCorrect != 24 || report.TotalMalformed != 0 {
		t.Errorf("totals = %d correct, %d malformed", report.TotalCorrect, report.TotalMalformed)
	}
}

func TestRun_ExamOrderWithWorkers(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			dir := t.TempDir()
			for exam := 1; exam <= 6; exam++ {
				writeFile(t, dir, fmt.Sprintf("Exam_%d.txt", exam), examText(exam))
			}
			writeFile(t, dir, "Exam_7.docx", "not a zip archive")

			runner := NewRunner(Config{
				Dir:     dir,
				Pattern: testPattern,
				Workers: workers,
				Logger:  quietLogger(),
			})
			dataset, report, err := runner.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if len(dataset.Questions) != 21 {
				t.Fatalf("questions = %d, want 21", len(dataset.Questions))
			}
			previous := 0
			for _, question := range dataset.Questions {
				if question.ExamID < previous {
					t.Fatalf("exam %d after exam %d, merge must follow exam order", question.ExamID, previous)
				}
				previous = question.ExamID
			}
			if report.Failed != 1 || report.Entries[6].ExamID != 7 {
				t.Errorf("report = %+v", report)
			}
		})
	}
}

func TestRun_DefaultPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Exam_2.txt", examText(2))
	writeFile(t, dir, "notes.txt", examText(1))

	dataset, report, err := NewRunner(Config{Dir: dir, Logger: quietLogger()}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.TotalAttempted != 1 || len(dataset.Questions) != 2 || dataset.Questions[0].ExamID != 2 {
		t.Errorf("report = %+v, questions = %+v", report, dataset.Questions)
	}

	if _, _, err := NewRunner(Config{Dir: t.TempDir(), Logger: quietLogger()}).Run(context.Background()); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("Run() on an empty directory error = %v, want ErrEmptyBatch", err)
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	runner := NewRunner(Config{Dir: t.TempDir(), Pattern: testPattern, Logger: quietLogger()})
	dataset, report, err := runner.Run(context.Background())
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("Run() error = %v, want ErrEmptyBatch", err)
	}
	if report == nil || report.TotalAttempted != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(dataset.Questions) != 0 {
		t.Errorf("dataset should be empty")
	}
}

func TestRun_Canceled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Exam_1.txt", examText(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(Config{Dir: dir, Pattern: testPattern, Logger: quietLogger()})
	if _, _, err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestMerge_DropsDuplicateQuestionNumbers(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Exam_1.txt", strings.Join([]string{
		"1. First?",
		"- **A**",
		"2. Second?",
		"- **B**",
		"2. Second again?",
		"- **C**",
	}, "\n"))

	runner := NewRunner(Config{Logger: quietLogger()})
	dataset, report, err := runner.RunSources(context.Background(), []Source{{Path: path, ExamID: 1}})
	if err != nil {
		t.Fatalf("RunSources() error = %v", err)
	}

	if len(dataset.Questions) != 2 || dataset.Questions[1].Text != "Second?" {
		t.Errorf("questions = %+v", dataset.Questions)
	}
	if len(dataset.Answers) != 2 {
		t.Errorf("answers = %+v, the duplicate's answers must be dropped too", dataset.Answers)
	}
	if report.Entries[0].Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", report.Entries[0].Duplicates)
	}
}

func TestShadowedSourceIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Exam_1.txt", examText(2))
	writeFile(t, dir, "Exam_1.md", examText(5))

	runner := NewRunner(Config{Dir: dir, Pattern: testPattern, Logger: quietLogger()})
	dataset, report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(dataset.Questions) != 5 {
		t.Errorf("questions = %d, want 5 from Exam_1.md", len(dataset.Questions))
	}
	if report.Skipped != 1 || report.Entries[1].Status != StatusSkipped {
		t.Errorf("report = %+v", report)
	}
}

func TestWriteTables(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Exam_3.txt", strings.Join([]string{
		`1. Which, if any, is "correct"?`,
		"- Yes, this",
		"- **No**",
		"See page 4.",
	}, "\n"))

	runner := NewRunner(Config{Logger: quietLogger()})
	dataset, _, err := runner.RunSources(context.Background(), []Source{{Path: path, ExamID: 3}})
	if err != nil {
		t.Fatal(err)
	}

	questionsPath := filepath.Join(dir, "out", "questions.csv")
	answersPath := filepath.Join(dir, "out", "answers.csv")
	if err := WriteTables(dataset, questionsPath, answersPath); err != nil {
		t.Fatalf("WriteTables() error = %v", err)
	}

	questions, err := os.ReadFile(questionsPath)
	if err != nil {
		t.Fatal(err)
	}
	wantQuestions := "examNumber,questionNumber,question,reference\n" +
		`3,1,"Which, if any, is ""correct""?",See page 4.` + "\n"
	if string(questions) != wantQuestions {
		t.Errorf("questions.csv =\n%s\nwant\n%s", questions, wantQuestions)
	}

	answers, err := os.ReadFile(answersPath)
	if err != nil {
		t.Fatal(err)
	}
	_, records, err := tabular.Unmarshal(string(answers))
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := tabular.ParseAnswers(records)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 2 || parsed[0].Text != "Yes, this" || !parsed[1].IsCorrect {
		t.Errorf("answers = %+v", parsed)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "out", ".*.tmp-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestReportFormat(t *testing.T) {
	report := &Report{}
	report.add(Entry{Path: "Exam_1.docx", ExamID: 1, Status: StatusOK, Questions: 24, Answers: 96, Correct: 25, Malformed: 1})
	report.add(Entry{Path: "Exam_2.docx", ExamID: 2, Status: StatusFailed, Error: "zip: not a valid zip file"})

	output := report.Format()
	for _, want := range []string{
		"Documents: 2 | Succeeded: 1 | Skipped: 0 | Failed: 1",
		"[OK]",
		"(24 questions, 96 answers, 25 correct)",
		"[FAIL]",
		"error: zip: not a valid zip file",
		"Total: 24 questions, 96 answers, 25 correct answers",
		"Malformed questions (no answers or no correct answer): 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Format() missing %q in:\n%s", want, output)
		}
	}

	if !strings.Contains(report.JSON(), `"total_correct": 25`) {
		t.Errorf("JSON() = %s", report.JSON())
	}
}
