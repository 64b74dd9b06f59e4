// Package audit checks generated question and answer tables for gaps left
// by the extraction: short exams, questions without a correct answer,
// answers that point at no question and broken answer numbering.
package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/domicch/life-in-uk/pkg/models"
)

// DefaultExpectedQuestions is the number of questions in one practice exam.
const DefaultExpectedQuestions = 24

// Options configures an audit.
type Options struct {
	// ExpectedQuestions per exam. Zero disables the count check.
	ExpectedQuestions int
}

// ExamSummary is the question count of one exam.
type ExamSummary struct {
	ExamID    int   `json:"exam_id"`
	Questions int   `json:"questions"`
	Missing   []int `json:"missing,omitempty"`
	// Duplicates lists question numbers that occur more than once.
	Duplicates []int `json:"duplicates,omitempty"`
	Passed     bool  `json:"passed"`
}

// QuestionIssue describes one question with its answers.
type QuestionIssue struct {
	ExamID   int      `json:"exam_id"`
	Question int      `json:"question"`
	Text     string   `json:"text,omitempty"`
	Answers  []string `json:"answers,omitempty"`
	Correct  int      `json:"correct,omitempty"`
}

// NumberingIssue is a question whose answer numbers are not 1..k.
type NumberingIssue struct {
	ExamID   int   `json:"exam_id"`
	Question int   `json:"question"`
	Numbers  []int `json:"numbers"`
}

// Orphan counts answers whose question is not in the questions table.
type Orphan struct {
	ExamID   int `json:"exam_id"`
	Question int `json:"question"`
	Answers  int `json:"answers"`
}

// Findings is the result of an audit.
type Findings struct {
	ExpectedQuestions int              `json:"expected_questions"`
	TotalQuestions    int              `json:"total_questions"`
	TotalAnswers      int              `json:"total_answers"`
	TotalCorrect      int              `json:"total_correct"`
	Exams             []ExamSummary    `json:"exams"`
	NoCorrectAnswer   []QuestionIssue  `json:"no_correct_answer,omitempty"`
	NoAnswers         []QuestionIssue  `json:"no_answers,omitempty"`
	MultiChoice       []QuestionIssue  `json:"multi_choice,omitempty"`
	Orphans           []Orphan         `json:"orphans,omitempty"`
	Numbering         []NumberingIssue `json:"numbering,omitempty"`
}

// Audit cross-checks the two tables. Questions and answers are grouped by
// exam and question number; input order does not matter.
func Audit(questions []models.Question, answers []models.AnswerOption, options Options) *Findings {
	findings := &Findings{
		ExpectedQuestions: options.ExpectedQuestions,
		TotalQuestions:    len(questions),
		TotalAnswers:      len(answers),
	}

	answersByQuestion := make(map[models.Key][]models.AnswerOption)
	for _, answer := range answers {
		answersByQuestion[answer.Key()] = append(answersByQuestion[answer.Key()], answer)
		if answer.IsCorrect {
			findings.TotalCorrect++
		}
	}

	numbersByExam := make(map[int][]int)
	known := make(map[models.Key]bool)
	for _, question := range questions {
		numbersByExam[question.ExamID] = append(numbersByExam[question.ExamID], question.Number)
		if known[question.Key()] {
			continue
		}
		known[question.Key()] = true

		block := models.Block{Question: question, Answers: answersByQuestion[question.Key()]}
		switch {
		case len(block.Answers) == 0:
			findings.NoAnswers = append(findings.NoAnswers, newQuestionIssue(block))
		case block.CorrectCount() == 0:
			findings.NoCorrectAnswer = append(findings.NoCorrectAnswer, newQuestionIssue(block))
		case block.MultiChoice():
			findings.MultiChoice = append(findings.MultiChoice, newQuestionIssue(block))
		}
	}

	for _, examID := range sortedKeys(numbersByExam) {
		findings.Exams = append(findings.Exams, summarizeExam(examID, numbersByExam[examID], options.ExpectedQuestions))
	}

	for _, key := range sortedQuestionKeys(answersByQuestion) {
		group := answersByQuestion[key]
		if !known[key] {
			findings.Orphans = append(findings.Orphans, Orphan{ExamID: key.ExamID, Question: key.Question, Answers: len(group)})
		}
		if numbers, ok := answerNumbers(group); !ok {
			findings.Numbering = append(findings.Numbering, NumberingIssue{ExamID: key.ExamID, Question: key.Question, Numbers: numbers})
		}
	}

	return findings
}

func newQuestionIssue(block models.Block) QuestionIssue {
	issue := QuestionIssue{
		ExamID:   block.Question.ExamID,
		Question: block.Question.Number,
		Text:     block.Question.Text,
		Correct:  block.CorrectCount(),
	}
	for _, answer := range block.Answers {
		issue.Answers = append(issue.Answers, answer.Text)
	}
	return issue
}

func summarizeExam(examID int, numbers []int, expected int) ExamSummary {
	summary := ExamSummary{ExamID: examID, Questions: len(numbers)}

	seen := make(map[int]int, len(numbers))
	for _, number := range numbers {
		seen[number]++
	}
	for _, number := range sortedKeys(seen) {
		if seen[number] > 1 {
			summary.Duplicates = append(summary.Duplicates, number)
		}
	}
	for number := 1; number <= expected; number++ {
		if seen[number] == 0 {
			summary.Missing = append(summary.Missing, number)
		}
	}

	summary.Passed = len(summary.Duplicates) == 0 && len(summary.Missing) == 0 &&
		(expected == 0 || len(numbers) == expected)
	return summary
}

// answerNumbers returns the answer numbers of one question in table order
// and whether they are exactly 1..k.
func answerNumbers(group []models.AnswerOption) ([]int, bool) {
	numbers := make([]int, 0, len(group))
	for _, answer := range group {
		numbers = append(numbers, answer.Number)
	}
	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)
	for index, number := range sorted {
		if number != index+1 {
			return numbers, false
		}
	}
	return numbers, true
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

func sortedQuestionKeys(m map[models.Key][]models.AnswerOption) []models.Key {
	keys := make([]models.Key, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ExamID != keys[j].ExamID {
			return keys[i].ExamID < keys[j].ExamID
		}
		return keys[i].Question < keys[j].Question
	})
	return keys
}

// OK reports whether the audit found nothing to fix. Multi-choice questions
// are informational.
func (f *Findings) OK() bool {
	for _, exam := range f.Exams {
		if !exam.Passed {
			return false
		}
	}
	return len(f.NoCorrectAnswer) == 0 &&
		len(f.NoAnswers) == 0 &&
		len(f.Orphans) == 0 &&
		len(f.Numbering) == 0
}

// ToJSON serializes the findings as indented JSON.
func (f *Findings) ToJSON() ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// Format renders the findings for terminal output.
func (f *Findings) Format() string {
	var builder strings.Builder

	builder.WriteString("Exam Table Audit\n")
	builder.WriteString("================\n\n")

	builder.WriteString("Question count per exam:\n")
	for _, exam := range f.Exams {
		status := "PASS"
		if !exam.Passed {
			status = "FAIL"
		}
		line := fmt.Sprintf("  [%s] Exam %d: %d questions", status, exam.ExamID, exam.Questions)
		if f.ExpectedQuestions > 0 {
			switch difference := exam.Questions - f.ExpectedQuestions; {
			case difference < 0:
				line += fmt.Sprintf(" (missing %d)", -difference)
			case difference > 0:
				line += fmt.Sprintf(" (%d extra)", difference)
			}
		}
		builder.WriteString(line + "\n")
		if len(exam.Missing) > 0 {
			builder.WriteString(fmt.Sprintf("         missing question numbers: %s\n", joinInts(exam.Missing)))
		}
		if len(exam.Duplicates) > 0 {
			builder.WriteString(fmt.Sprintf("         duplicated question numbers: %s\n", joinInts(exam.Duplicates)))
		}
	}

	writeQuestionIssues(&builder, "Questions without a correct answer", f.NoCorrectAnswer)
	writeQuestionIssues(&builder, "Questions without answers", f.NoAnswers)

	if len(f.Orphans) > 0 {
		builder.WriteString(fmt.Sprintf("\nAnswers without a question (%d):\n", len(f.Orphans)))
		for _, orphan := range f.Orphans {
			builder.WriteString(fmt.Sprintf("  Exam %d, Question %d: %d answers\n", orphan.ExamID, orphan.Question, orphan.Answers))
		}
	}

	if len(f.Numbering) > 0 {
		builder.WriteString(fmt.Sprintf("\nBroken answer numbering (%d):\n", len(f.Numbering)))
		for _, issue := range f.Numbering {
			builder.WriteString(fmt.Sprintf("  Exam %d, Question %d: %s\n", issue.ExamID, issue.Question, joinInts(issue.Numbers)))
		}
	}

	builder.WriteString("\nSummary:\n")
	builder.WriteString(fmt.Sprintf("  Exams: %d\n", len(f.Exams)))
	builder.WriteString(fmt.Sprintf("  Questions: %d\n", f.TotalQuestions))
	if f.ExpectedQuestions > 0 {
		expectedTotal := len(f.Exams) * f.ExpectedQuestions
		builder.WriteString(fmt.Sprintf("  Expected questions (%d x %d): %d, difference: %d\n",
			len(f.Exams), f.ExpectedQuestions, expectedTotal, f.TotalQuestions-expectedTotal))
	}
	builder.WriteString(fmt.Sprintf("  Answers: %d (%d correct)\n", f.TotalAnswers, f.TotalCorrect))
	builder.WriteString(fmt.Sprintf("  Multi-choice questions: %d\n", len(f.MultiChoice)))

	status := "PASS"
	if !f.OK() {
		status = "FAIL"
	}
	builder.WriteString(fmt.Sprintf("Status: %s\n", status))

	return builder.String()
}

func writeQuestionIssues(builder *strings.Builder, title string, issues []QuestionIssue) {
	if len(issues) == 0 {
		return
	}
	builder.WriteString(fmt.Sprintf("\n%s (%d):\n", title, len(issues)))
	for _, issue := range issues {
		builder.WriteString(fmt.Sprintf("  Exam %d, Question %d: %s\n", issue.ExamID, issue.Question, issue.Text))
		for index, answer := range issue.Answers {
			builder.WriteString(fmt.Sprintf("    %d. %s\n", index+1, answer))
		}
	}
}

func joinInts(numbers []int) string {
	parts := make([]string, len(numbers))
	for index, number := range numbers {
		parts[index] = fmt.Sprint(number)
	}
	return strings.Join(parts, ", ")
}
