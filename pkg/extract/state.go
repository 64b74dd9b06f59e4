package extract

import (
	"slices"
	"strings"

	"github.com/domicch/life-in-uk/pkg/models"
)

// Phase is the position of the record builder within the current question.
type Phase int

const (
	// SeekingQuestion: no question has been started in this document yet.
	SeekingQuestion Phase = iota
	// InQuestionStem: a question has started and no answer has been seen.
	InQuestionStem
	// InAnswerList: at least one answer line belongs to the current question.
	InAnswerList
	// InReference: explanatory text follows the answers.
	InReference
)

func (p Phase) String() string {
	switch p {
	case SeekingQuestion:
		return "seeking-question"
	case InQuestionStem:
		return "in-question-stem"
	case InAnswerList:
		return "in-answer-list"
	case InReference:
		return "in-reference"
	default:
		return "unknown"
	}
}

// Options tunes the recovery heuristics of the record builder.
type Options struct {
	// RecoverUnnumbered turns plain or unemphasized list lines that read like
	// a question (question word first, "?" last) into questions with a
	// synthesized number. Auto-numbered question lists lose their numbers
	// during normalization and come out this way.
	RecoverUnnumbered bool
}

// State is the complete parser state between two lines of one document.
// Step never mutates the State it is given.
type State struct {
	Phase  Phase
	ExamID int

	// Counter is the number given to the next synthesized question. It is
	// resynchronized to N+1 whenever an explicit "N." line is seen.
	Counter      int
	SeenNumbered bool

	Question   models.Question
	Answers    []models.AnswerOption
	NextAnswer int

	// Ignored counts non-blank lines that could not be attached to a question.
	Ignored int
	// Synthesized counts questions whose number was not in the source.
	Synthesized int

	options Options
}

// NewState returns the initial state for a document of the given exam.
func NewState(examID int, options Options) State {
	return State{
		Phase:      SeekingQuestion,
		ExamID:     examID,
		Counter:    1,
		NextAnswer: 1,
		options:    options,
	}
}

// HasQuestion reports whether a question is in progress.
func (s State) HasQuestion() bool {
	return s.Phase != SeekingQuestion
}

// Step applies one normalized line to the state. When the line starts a new
// question the previous one is returned as a flushed block.
func Step(state State, raw string) (State, *models.Block) {
	line := Classify(raw)

	switch line.Kind {
	case KindBlank:
		return state, nil

	case KindQuestion:
		next, flushed := startQuestion(state, line.Number, line.Text)
		next.Counter = line.Number + 1
		next.SeenNumbered = true
		return next, flushed

	case KindMisplacedQuestion:
		if !state.SeenNumbered {
			return synthesizeQuestion(state, line.Text)
		}
		return addAnswer(state, line), nil

	case KindAnswer:
		if recoverable(state, line) {
			return synthesizeQuestion(state, line.Text)
		}
		return addAnswer(state, line), nil

	default:
		if recoverable(state, line) {
			return synthesizeQuestion(state, line.Text)
		}
		return addText(state, line.Text), nil
	}
}

// recoverable reports whether an unnumbered line that reads like a question
// starts a new question. A question stem that is still open absorbs it.
func recoverable(state State, line Line) bool {
	return state.options.RecoverUnnumbered && line.QuestionLike && state.Phase != InQuestionStem
}

// Finish flushes the question in progress at the end of a document.
func Finish(state State) (State, *models.Block) {
	return flush(state)
}

func flush(state State) (State, *models.Block) {
	if !state.HasQuestion() {
		return state, nil
	}

	question := state.Question
	question.Text = strings.TrimSpace(question.Text)
	question.Reference = strings.TrimSpace(question.Reference)
	block := &models.Block{Question: question, Answers: state.Answers}

	state.Phase = SeekingQuestion
	state.Question = models.Question{}
	state.Answers = nil
	state.NextAnswer = 1
	return state, block
}

func startQuestion(state State, number int, text string) (State, *models.Block) {
	next, flushed := flush(state)
	next.Question = models.Question{
		ExamID: next.ExamID,
		Number: number,
		Text:   text,
	}
	next.Phase = InQuestionStem
	return next, flushed
}

func synthesizeQuestion(state State, text string) (State, *models.Block) {
	next, flushed := startQuestion(state, state.Counter, text)
	next.Counter++
	next.Synthesized++
	return next, flushed
}

func addAnswer(state State, line Line) State {
	if !state.HasQuestion() {
		state.Ignored++
		return state
	}

	state.Phase = InAnswerList
	if line.Text == "" {
		return state
	}

	answer := models.AnswerOption{
		ExamID:         state.ExamID,
		QuestionNumber: state.Question.Number,
		Number:         state.NextAnswer,
		Text:           line.Text,
		IsCorrect:      line.Emphasized,
	}
	// Clip forces append to copy so earlier states keep their own slice.
	state.Answers = append(slices.Clip(state.Answers), answer)
	state.NextAnswer++
	return state
}

func addText(state State, text string) State {
	switch state.Phase {
	case SeekingQuestion:
		state.Ignored++
	case InQuestionStem:
		state.Question.Text = joinText(state.Question.Text, text)
	default:
		state.Question.Reference = joinText(state.Question.Reference, text)
		state.Phase = InReference
	}
	return state
}

func joinText(existing, addition string) string {
	switch {
	case existing == "":
		return addition
	case addition == "":
		return existing
	default:
		return existing + " " + addition
	}
}
