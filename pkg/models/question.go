// Package models defines the records produced by the exam extraction pipeline.
package models

// EmphasisMarker wraps text that was bold in the source document. Bold is the
// only signal that an answer option is a correct one.
const EmphasisMarker = "**"

// Question is a single exam question. (ExamID, Number) is unique per run.
type Question struct {
	ExamID    int    `json:"examNumber"`
	Number    int    `json:"questionNumber"`
	Text      string `json:"question"`
	Reference string `json:"reference"` // explanatory text after the answers, may be empty
}

// Key returns the composite key joining a question to its answers.
func (q Question) Key() Key {
	return Key{ExamID: q.ExamID, Question: q.Number}
}

// AnswerOption is one selectable answer of a question.
type AnswerOption struct {
	ExamID         int    `json:"examNumber"`
	QuestionNumber int    `json:"questionNumber"`
	Number         int    `json:"answerNumber"` // 1-based, contiguous per question
	Text           string `json:"answer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// Key returns the key of the question this answer belongs to.
func (a AnswerOption) Key() Key {
	return Key{ExamID: a.ExamID, Question: a.QuestionNumber}
}

// Key identifies a question across the questions and answers tables.
type Key struct {
	ExamID   int
	Question int
}

// Block is a question together with the answers recorded for it.
type Block struct {
	Question Question       `json:"question"`
	Answers  []AnswerOption `json:"answers"`
}

// CorrectCount returns the number of answers marked correct.
func (b Block) CorrectCount() int {
	count := 0
	for _, answer := range b.Answers {
		if answer.IsCorrect {
			count++
		}
	}
	return count
}

// WellFormed reports whether the question has at least one answer and at
// least one correct answer.
func (b Block) WellFormed() bool {
	return len(b.Answers) > 0 && b.CorrectCount() > 0
}

// MultiChoice reports whether more than one answer is correct ("select two").
func (b Block) MultiChoice() bool {
	return b.CorrectCount() > 1
}

// Dataset holds every record of one extraction run in document order.
type Dataset struct {
	Questions []Question     `json:"questions"`
	Answers   []AnswerOption `json:"answers"`
}

// Add appends a block's question and answers to the dataset.
func (d *Dataset) Add(block Block) {
	d.Questions = append(d.Questions, block.Question)
	d.Answers = append(d.Answers, block.Answers...)
}

// CorrectCount returns the number of correct answers in the dataset.
func (d *Dataset) CorrectCount() int {
	count := 0
	for _, answer := range d.Answers {
		if answer.IsCorrect {
			count++
		}
	}
	return count
}
