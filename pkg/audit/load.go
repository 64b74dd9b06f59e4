package audit

import (
	"fmt"
	"os"

	"github.com/domicch/life-in-uk/pkg/models"
	"github.com/domicch/life-in-uk/pkg/tabular"
)

// LoadTables reads a questions table and an answers table.
func LoadTables(questionsPath, answersPath string) ([]models.Question, []models.AnswerOption, error) {
	questionRecords, err := readTable(questionsPath)
	if err != nil {
		return nil, nil, err
	}
	questions, err := tabular.ParseQuestions(questionRecords)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", questionsPath, err)
	}

	answerRecords, err := readTable(answersPath)
	if err != nil {
		return nil, nil, err
	}
	answers, err := tabular.ParseAnswers(answerRecords)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", answersPath, err)
	}

	return questions, answers, nil
}

func readTable(path string) ([]tabular.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", path, err)
	}
	defer file.Close()

	_, records, err := tabular.Read(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", path, err)
	}
	return records, nil
}
