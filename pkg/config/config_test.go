package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Output.Questions != "questions.csv" || cfg.Output.Answers != "answers.csv" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Audit.ExpectedQuestions != 24 {
		t.Errorf("ExpectedQuestions = %d, want 24", cfg.Audit.ExpectedQuestions)
	}

	pattern, err := cfg.FilePattern()
	if err != nil {
		t.Fatalf("FilePattern() error = %v", err)
	}
	for _, name := range []string{"Exam_1.docx", "Exam_12.html", "Exam_3.txt", "Exam_4.htm"} {
		if !pattern.MatchString(name) {
			t.Errorf("default pattern should match %q", name)
		}
	}
	for _, name := range []string{"exam_1.docx", "Exam_.docx", "Exam_1.pdf", "~$Exam_1.docx"} {
		if pattern.MatchString(name) {
			t.Errorf("default pattern should not match %q", name)
		}
	}
}

func TestFromYAML_OverridesDefaults(t *testing.T) {
	data := []byte(`
input:
  dir: sources
extract:
  workers: 4
  recover_unnumbered: true
watch:
  debounce: 2s
`)
	cfg, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML() error = %v", err)
	}
	if cfg.Input.Dir != "sources" {
		t.Errorf("Input.Dir = %q, want sources", cfg.Input.Dir)
	}
	if cfg.Input.FilePattern != DefaultFilePattern {
		t.Errorf("FilePattern = %q, default should be kept", cfg.Input.FilePattern)
	}
	if cfg.Extract.Workers != 4 || !cfg.Extract.RecoverUnnumbered {
		t.Errorf("Extract = %+v", cfg.Extract)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Debounce = %v, want 2s", cfg.Watch.Debounce)
	}
	if cfg.Output.Answers != "answers.csv" {
		t.Errorf("Output.Answers = %q, default should be kept", cfg.Output.Answers)
	}
}

func TestFromYAML_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "input: [dir"},
		{"bad regexp", "input:\n  file_pattern: '('"},
		{"no capture group", "input:\n  file_pattern: '^Exam_\\d+\\.docx$'"},
		{"zero workers", "extract:\n  workers: 0"},
		{"same outputs", "output:\n  questions: out.csv\n  answers: out.csv"},
		{"negative expected", "audit:\n  expected_questions: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromYAML([]byte(tt.data)); err == nil {
				t.Errorf("FromYAML(%q) should return error", tt.data)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifeuk.yaml")

	original := Default()
	original.Input.Dir = "docs"
	original.Extract.Workers = 3
	if err := original.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Input.Dir != "docs" || loaded.Extract.Workers != 3 {
		t.Errorf("loaded config = %+v", loaded)
	}
	if loaded.Watch.Debounce != original.Watch.Debounce {
		t.Errorf("Debounce = %v, want %v", loaded.Watch.Debounce, original.Watch.Debounce)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg.Input.Dir != "exams" {
		t.Errorf("Load(\"\") = %+v, %v; want defaults", cfg, err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should return error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("extract: {workers: -2}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() of an invalid config should return error")
	}
}
