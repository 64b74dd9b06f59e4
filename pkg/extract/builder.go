package extract

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/domicch/life-in-uk/pkg/models"
)

// Stats summarizes one document's pass through the record builder.
type Stats struct {
	Lines       int `json:"lines"`
	Ignored     int `json:"ignored"`
	Synthesized int `json:"synthesized"`
}

// Result is the output of building one document.
type Result struct {
	ExamID int            `json:"exam_id"`
	Blocks []models.Block `json:"blocks"`
	Stats  Stats          `json:"stats"`
}

// Dataset flattens the blocks into question and answer records.
func (r *Result) Dataset() models.Dataset {
	var dataset models.Dataset
	for _, block := range r.Blocks {
		dataset.Add(block)
	}
	return dataset
}

// AnswerCount returns the number of answer options across all blocks.
func (r *Result) AnswerCount() int {
	count := 0
	for _, block := range r.Blocks {
		count += len(block.Answers)
	}
	return count
}

// CorrectCount returns the number of correct answer options.
func (r *Result) CorrectCount() int {
	count := 0
	for _, block := range r.Blocks {
		count += block.CorrectCount()
	}
	return count
}

// Builder turns normalized lines into question blocks.
type Builder struct {
	options Options
}

// NewBuilder creates a Builder with the given recovery options.
func NewBuilder(options Options) *Builder {
	return &Builder{options: options}
}

// Build walks the lines of one document in order and returns every question
// found, including malformed ones.
func (b *Builder) Build(examID int, lines []string) *Result {
	result := &Result{ExamID: examID, Blocks: make([]models.Block, 0)}
	state := NewState(examID, b.options)

	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			result.Stats.Lines++
		}

		var flushed *models.Block
		state, flushed = Step(state, line)
		if flushed != nil {
			result.Blocks = append(result.Blocks, *flushed)
		}
	}

	state, flushed := Finish(state)
	if flushed != nil {
		result.Blocks = append(result.Blocks, *flushed)
	}

	result.Stats.Ignored = state.Ignored
	result.Stats.Synthesized = state.Synthesized
	return result
}

// BuildReader reads normalized text line by line and builds it.
func (b *Builder) BuildReader(examID int, r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return b.Build(examID, lines), nil
}
