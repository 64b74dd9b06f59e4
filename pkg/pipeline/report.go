package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Report summarizes one batch run.
type Report struct {
	Dir            string  `json:"dir"`
	TotalAttempted int     `json:"total_attempted"`
	Succeeded      int     `json:"succeeded"`
	Skipped        int     `json:"skipped"`
	Failed         int     `json:"failed"`
	TotalQuestions int     `json:"total_questions"`
	TotalAnswers   int     `json:"total_answers"`
	TotalCorrect   int     `json:"total_correct"`
	TotalMalformed int     `json:"total_malformed"`
	Entries        []Entry `json:"entries"`
}

// Entry records the outcome of one document.
type Entry struct {
	Path        string `json:"path"`
	ExamID      int    `json:"exam_id"`
	Status      string `json:"status"` // "ok", "skipped", "failed"
	Error       string `json:"error,omitempty"`
	Questions   int    `json:"questions"`
	Answers     int    `json:"answers"`
	Correct     int    `json:"correct"`
	Malformed   int    `json:"malformed,omitempty"`
	Ignored     int    `json:"ignored_lines,omitempty"`
	Synthesized int    `json:"synthesized,omitempty"`
	Duplicates  int    `json:"duplicates,omitempty"`
}

func (r *Report) add(entry Entry) {
	r.TotalAttempted++
	r.Entries = append(r.Entries, entry)

	switch entry.Status {
	case StatusOK:
		r.Succeeded++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}

	r.TotalQuestions += entry.Questions
	r.TotalAnswers += entry.Answers
	r.TotalCorrect += entry.Correct
	r.TotalMalformed += entry.Malformed
}

// Format renders the report for terminal output.
func (r *Report) Format() string {
	var builder strings.Builder

	builder.WriteString("\nExam Extraction Report\n")
	builder.WriteString(strings.Repeat("═", 60) + "\n")
	builder.WriteString(fmt.Sprintf("Documents: %d | Succeeded: %d | Skipped: %d | Failed: %d\n",
		r.TotalAttempted, r.Succeeded, r.Skipped, r.Failed))
	builder.WriteString(strings.Repeat("─", 60) + "\n")

	for _, entry := range r.Entries {
		status := "[OK]"
		switch entry.Status {
		case StatusSkipped:
			status = "[SKIP]"
		case StatusFailed:
			status = "[FAIL]"
		}

		line := fmt.Sprintf("  %-6s exam %-4d %s", status, entry.ExamID, entry.Path)
		if entry.Status == StatusOK {
			line += fmt.Sprintf(" (%d questions, %d answers, %d correct)",
				entry.Questions, entry.Answers, entry.Correct)
		}
		if entry.Malformed > 0 {
			line += fmt.Sprintf(" malformed: %d", entry.Malformed)
		}
		if entry.Duplicates > 0 {
			line += fmt.Sprintf(" duplicates dropped: %d", entry.Duplicates)
		}
		if entry.Error != "" {
			line += fmt.Sprintf(" error: %s", entry.Error)
		}
		builder.WriteString(line + "\n")
	}

	builder.WriteString(strings.Repeat("─", 60) + "\n")
	builder.WriteString(fmt.Sprintf("Total: %d questions, %d answers, %d correct answers\n",
		r.TotalQuestions, r.TotalAnswers, r.TotalCorrect))
	if r.TotalMalformed > 0 {
		builder.WriteString(fmt.Sprintf("Malformed questions (no answers or no correct answer): %d\n", r.TotalMalformed))
	}

	return builder.String()
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
