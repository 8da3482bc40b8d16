package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var Default embed.FS

var (
	studentAnswerRegex      = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

const maxAnswerRunes = 10000

// Variant selects how harshly essays are reviewed.
type Variant string

const (
	Strict   Variant = "strict"
	Standard Variant = "standard"
	Lenient  Variant = "lenient"
)

var variants = []Variant{Strict, Standard, Lenient}

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	for _, known := range variants {
		if Variant(v) == known {
			return true
		}
	}
	return false
}

// ReviewData holds template data for essay review prompts.
type ReviewData struct {
	QuestionText string
	Answer       string
	MaxScore     int
	Language     string
}

// Set is a parsed collection of review templates, one per variant.
type Set struct {
	review map[Variant]*template.Template
}

// Load parses templates/review_<variant>.txt for every variant in fsys.
func Load(fsys fs.FS) (*Set, error) {
	s := &Set{review: make(map[Variant]*template.Template, len(variants))}
	for _, v := range variants {
		name := "templates/review_" + string(v) + ".txt"
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read prompt file %s: %w", name, err)
		}
		tmpl, err := template.New(string(v)).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
		}
		s.review[v] = tmpl
	}
	return s, nil
}

// BuildReviewPrompt renders the review prompt for variant. The answer is
// sanitized before it is embedded.
func (s *Set) BuildReviewPrompt(variant Variant, data ReviewData) (string, error) {
	tmpl, ok := s.review[variant]
	if !ok {
		return "", fmt.Errorf("invalid prompt variant %q", variant)
	}
	data.Answer = sanitizeAnswer(data.Answer)
	if data.MaxScore <= 0 {
		data.MaxScore = 100
	}
	if data.Language == "" {
		data.Language = "Indonesian"
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeAnswer(answer string) string {
	answer = studentAnswerRegex.ReplaceAllString(answer, "")
	answer = systemInstructionsRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "[No answer provided]"
	}

	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		runes := []rune(answer)
		answer = string(runes[:maxAnswerRunes]) + "\n\n[Answer truncated due to length]"
	}
	return answer
}
