// Package extract rebuilds exam questions and answer options from the plain
// text lines produced by the normalize package.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/domicch/life-in-uk/pkg/models"
)

// Kind is the role of a single normalized line.
type Kind int

const (
	// KindBlank is an empty or whitespace-only line.
	KindBlank Kind = iota
	// KindQuestion starts with "N." (the digits may be wrapped in emphasis).
	KindQuestion
	// KindMisplacedQuestion looks like a correct answer ending in "?" and is
	// treated as a question when no numbered question has been seen yet.
	KindMisplacedQuestion
	// KindAnswer starts with a list marker.
	KindAnswer
	// KindText is anything else: a stem continuation or reference text.
	KindText
)

var kindNames = map[Kind]string{
	KindBlank:             "blank",
	KindQuestion:          "question",
	KindMisplacedQuestion: "misplaced-question",
	KindAnswer:            "answer",
	KindText:              "text",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var (
	// questionPattern matches "12. text" and "**12.** text".
	questionPattern = regexp.MustCompile(`^(?:\*\*)?(\d+)\.\s*(.+)$`)

	// misplacedQuestionPattern matches "- **Is this a question?**".
	misplacedQuestionPattern = regexp.MustCompile(`^-\s*\*\*.*\?`)

	// questionWordPattern matches plain lines that read like a question stem.
	questionWordPattern = regexp.MustCompile(`(?i)^(What|When|Where|Who|Which|How|Why|Is|Are|Does|Do|Can|Should|The)\b`)
)

// CorrectTag is an explicit correctness tag some hand-edited exams append to
// the correct answer instead of making it bold. It is removed from the text.
const CorrectTag = models.EmphasisMarker + "correct" + models.EmphasisMarker

// listMarkers are the prefixes that mark an answer option.
var listMarkers = []string{"-", "–", "•"}

// Line is a classified normalized line.
type Line struct {
	Kind Kind
	// Number is the parsed question number for KindQuestion.
	Number int
	// Text is the content with list markers and emphasis markers removed.
	// KindText lines are kept verbatim apart from trimming.
	Text string
	// Emphasized reports whether the emphasis marker was present.
	Emphasized bool
	// QuestionLike is set on KindText and unemphasized KindAnswer lines that
	// end in "?" and open with a question word.
	QuestionLike bool
}

// Classify determines the role of a normalized line.
func Classify(raw string) Line {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Line{Kind: KindBlank}
	}

	if matches := questionPattern.FindStringSubmatch(trimmed); matches != nil {
		if number, err := strconv.Atoi(matches[1]); err == nil {
			return Line{
				Kind:       KindQuestion,
				Number:     number,
				Text:       StripEmphasis(matches[2]),
				Emphasized: strings.Contains(trimmed, models.EmphasisMarker),
			}
		}
	}

	if misplacedQuestionPattern.MatchString(trimmed) {
		content, _ := stripCorrectTag(trimListMarker(trimmed))
		return Line{
			Kind:       KindMisplacedQuestion,
			Text:       StripEmphasis(content),
			Emphasized: true,
		}
	}

	if hasListMarker(trimmed) {
		content, tagged := stripCorrectTag(trimListMarker(trimmed))
		emphasized := tagged || strings.Contains(content, models.EmphasisMarker)
		text := StripEmphasis(content)
		return Line{
			Kind:       KindAnswer,
			Text:       text,
			Emphasized: emphasized,
			QuestionLike: !emphasized &&
				strings.HasSuffix(text, "?") &&
				questionWordPattern.MatchString(text),
		}
	}

	return Line{
		Kind: KindText,
		Text: trimmed,
		QuestionLike: strings.HasSuffix(trimmed, "?") &&
			!strings.Contains(trimmed, models.EmphasisMarker) &&
			questionWordPattern.MatchString(trimmed),
	}
}

// stripCorrectTag removes every CorrectTag from content and reports whether
// one was present.
func stripCorrectTag(content string) (string, bool) {
	if !strings.Contains(content, CorrectTag) {
		return content, false
	}
	return strings.TrimSpace(strings.ReplaceAll(content, CorrectTag, "")), true
}

// StripEmphasis removes every emphasis marker and trims the result.
func StripEmphasis(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, models.EmphasisMarker, ""))
}

func hasListMarker(line string) bool {
	for _, marker := range listMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

func trimListMarker(line string) string {
	for _, marker := range listMarkers {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker))
		}
	}
	return line
}
