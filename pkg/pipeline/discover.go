// Package pipeline drives a batch of exam documents through normalization,
// record building and table output.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/domicch/life-in-uk/pkg/normalize"
)

// Source is one exam document found in the input directory.
type Source struct {
	Path   string           `json:"path"`
	ExamID int              `json:"exam_id"`
	Format normalize.Format `json:"format"`
	// Shadowed names the file that was preferred for the same exam. A
	// shadowed source is reported as skipped and never processed.
	Shadowed string `json:"shadowed,omitempty"`
}

// extensionPriority ranks the formats when one exam exists in several.
var extensionPriority = map[string]int{
	".docx": 0,
	".html": 1,
	".htm":  1,
	".md":   2,
	".txt":  3,
}

// Discover lists dir and returns the files whose name matches pattern,
// ordered by exam number. The first capture group of pattern is the exam
// number. When an exam exists in more than one file the highest priority
// format wins and the others are returned with Shadowed set.
func Discover(dir string, pattern *regexp.Regexp) ([]Source, error) {
	if pattern == nil {
		return nil, errors.New("no file pattern given")
	}
	if pattern.NumSubexp() < 1 {
		return nil, fmt.Errorf("file pattern %q has no capture group for the exam number", pattern)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}

	var sources []Source
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		match := pattern.FindStringSubmatch(dirEntry.Name())
		if match == nil {
			continue
		}
		examID, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		path := filepath.Join(dir, dirEntry.Name())
		format, err := normalize.Detect(path)
		if err != nil {
			continue
		}
		sources = append(sources, Source{Path: path, ExamID: examID, Format: format})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ExamID != sources[j].ExamID {
			return sources[i].ExamID < sources[j].ExamID
		}
		pi, pj := priority(sources[i].Path), priority(sources[j].Path)
		if pi != pj {
			return pi < pj
		}
		return sources[i].Path < sources[j].Path
	})

	for i := 1; i < len(sources); i++ {
		previous := sources[i-1]
		if sources[i].ExamID != previous.ExamID {
			continue
		}
		if previous.Shadowed != "" {
			sources[i].Shadowed = previous.Shadowed
		} else {
			sources[i].Shadowed = previous.Path
		}
	}

	return sources, nil
}

func priority(path string) int {
	if rank, ok := extensionPriority[strings.ToLower(filepath.Ext(path))]; ok {
		return rank
	}
	return len(extensionPriority)
}
