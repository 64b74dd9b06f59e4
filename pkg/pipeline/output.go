package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/domicch/life-in-uk/pkg/models"
	"github.com/domicch/life-in-uk/pkg/tabular"
)

// WriteTables serializes the dataset and writes the questions and answers
// tables. Both tables are rendered before either file is touched, and each
// file is replaced through a rename so readers never see a partial table.
func WriteTables(dataset models.Dataset, questionsPath, answersPath string) error {
	questions, err := tabular.Marshal(tabular.QuestionRecords(dataset.Questions), tabular.QuestionFields)
	if err != nil {
		return fmt.Errorf("failed to serialize questions: %w", err)
	}
	answers, err := tabular.Marshal(tabular.AnswerRecords(dataset.Answers), tabular.AnswerFields)
	if err != nil {
		return fmt.Errorf("failed to serialize answers: %w", err)
	}

	if err := writeFileAtomic(questionsPath, []byte(questions)); err != nil {
		return err
	}
	return writeFileAtomic(answersPath, []byte(answers))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
