package models

import "testing"

func TestBlockWellFormed(t *testing.T) {
	tests := []struct {
		name        string
		answers     []AnswerOption
		wellFormed  bool
		multiChoice bool
	}{
		{"no answers", nil, false, false},
		{"no correct answer", []AnswerOption{{Number: 1}, {Number: 2}}, false, false},
		{"single correct", []AnswerOption{{Number: 1}, {Number: 2, IsCorrect: true}}, true, false},
		{"select two", []AnswerOption{{Number: 1, IsCorrect: true}, {Number: 2, IsCorrect: true}, {Number: 3}}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := Block{Question: Question{ExamID: 1, Number: 1}, Answers: tt.answers}
			if got := block.WellFormed(); got != tt.wellFormed {
				t.Errorf("WellFormed() = %v, want %v", got, tt.wellFormed)
			}
			if got := block.MultiChoice(); got != tt.multiChoice {
				t.Errorf("MultiChoice() = %v, want %v", got, tt.multiChoice)
			}
		})
	}
}

func TestDatasetAdd(t *testing.T) {
	var dataset Dataset
	dataset.Add(Block{
		Question: Question{ExamID: 3, Number: 1, Text: "Q1"},
		Answers: []AnswerOption{
			{ExamID: 3, QuestionNumber: 1, Number: 1, Text: "A", IsCorrect: true},
			{ExamID: 3, QuestionNumber: 1, Number: 2, Text: "B"},
		},
	})
	dataset.Add(Block{Question: Question{ExamID: 3, Number: 2, Text: "Q2"}})

	if len(dataset.Questions) != 2 {
		t.Fatalf("len(Questions) = %d, want 2", len(dataset.Questions))
	}
	if len(dataset.Answers) != 2 {
		t.Fatalf("len(Answers) = %d, want 2", len(dataset.Answers))
	}
	if dataset.CorrectCount() != 1 {
		t.Errorf("CorrectCount() = %d, want 1", dataset.CorrectCount())
	}
	if dataset.Answers[0].Key() != dataset.Questions[0].Key() {
		t.Errorf("answer key %v does not join question key %v", dataset.Answers[0].Key(), dataset.Questions[0].Key())
	}
}
