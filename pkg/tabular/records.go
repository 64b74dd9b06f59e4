package tabular

import (
	"fmt"
	"strconv"

	"github.com/domicch/life-in-uk/pkg/models"
)

// Column names of the questions and answers tables. Their order is the
// column order of the files read by the quiz front end.
var (
	QuestionFields = []string{"examNumber", "questionNumber", "question", "reference"}
	AnswerFields   = []string{"examNumber", "questionNumber", "answerNumber", "answer", "isCorrect"}
)

// CorrectValue is the literal written for a correct answer; incorrect
// answers get an empty string.
const CorrectValue = "yes"

// QuestionRecords converts questions into table records.
func QuestionRecords(questions []models.Question) []Record {
	records := make([]Record, 0, len(questions))
	for _, question := range questions {
		records = append(records, Record{
			"examNumber":     strconv.Itoa(question.ExamID),
			"questionNumber": strconv.Itoa(question.Number),
			"question":       question.Text,
			"reference":      question.Reference,
		})
	}
	return records
}

// AnswerRecords converts answer options into table records.
func AnswerRecords(answers []models.AnswerOption) []Record {
	records := make([]Record, 0, len(answers))
	for _, answer := range answers {
		isCorrect := ""
		if answer.IsCorrect {
			isCorrect = CorrectValue
		}
		records = append(records, Record{
			"examNumber":     strconv.Itoa(answer.ExamID),
			"questionNumber": strconv.Itoa(answer.QuestionNumber),
			"answerNumber":   strconv.Itoa(answer.Number),
			"answer":         answer.Text,
			"isCorrect":      isCorrect,
		})
	}
	return records
}

// ParseQuestions converts question table records back into questions.
func ParseQuestions(records []Record) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(records))
	for index, record := range records {
		examID, err := intField(record, "examNumber")
		if err != nil {
			return nil, fmt.Errorf("question row %d: %w", index+1, err)
		}
		number, err := intField(record, "questionNumber")
		if err != nil {
			return nil, fmt.Errorf("question row %d: %w", index+1, err)
		}
		questions = append(questions, models.Question{
			ExamID:    examID,
			Number:    number,
			Text:      record["question"],
			Reference: record["reference"],
		})
	}
	return questions, nil
}

// ParseAnswers converts answer table records back into answer options.
// Only the literal "yes" marks an answer correct.
func ParseAnswers(records []Record) ([]models.AnswerOption, error) {
	answers := make([]models.AnswerOption, 0, len(records))
	for index, record := range records {
		examID, err := intField(record, "examNumber")
		if err != nil {
			return nil, fmt.Errorf("answer row %d: %w", index+1, err)
		}
		questionNumber, err := intField(record, "questionNumber")
		if err != nil {
			return nil, fmt.Errorf("answer row %d: %w", index+1, err)
		}
		number, err := intField(record, "answerNumber")
		if err != nil {
			return nil, fmt.Errorf("answer row %d: %w", index+1, err)
		}
		answers = append(answers, models.AnswerOption{
			ExamID:         examID,
			QuestionNumber: questionNumber,
			Number:         number,
			Text:           record["answer"],
			IsCorrect:      record["isCorrect"] == CorrectValue,
		})
	}
	return answers, nil
}

func intField(record Record, field string) (int, error) {
	value, err := strconv.Atoi(record[field])
	if err != nil {
		return 0, fmt.Errorf("field %s: invalid integer %q", field, record[field])
	}
	return value, nil
}
