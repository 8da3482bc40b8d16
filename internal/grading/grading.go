// Package grading decides the correctness of submitted answers.
//
// Grading is pure: it never touches storage. The caller fetches the options a
// question type needs and passes them in.
package grading

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pavelanni/ujian/internal/model"
)

// Result is the outcome of grading one answer. Text is the value persisted as
// the answer; nil means no answer text is stored.
type Result struct {
	Correct bool
	Text    *string
}

// Grade dispatches to the grading rule of the question type. Unknown types are
// treated like essays.
func Grade(qt model.QuestionType, raw *string, options []model.Option) Result {
	switch qt {
	case model.QuestionMultipleChoice:
		return gradeMultipleChoice(raw, options)
	case model.QuestionShortAnswer:
		return gradeShortAnswer(raw, options)
	default:
		return gradeEssay(raw)
	}
}

// gradeMultipleChoice expects raw to hold a selected option ID. The persisted
// text is the option's label, never the ID.
func gradeMultipleChoice(raw *string, options []model.Option) Result {
	if raw == nil {
		return Result{}
	}
	id, ok := parseOptionID(*raw)
	if !ok {
		return Result{}
	}
	for _, o := range options {
		if o.ID == id {
			text := o.Text
			return Result{Correct: o.IsCorrect, Text: &text}
		}
	}
	return Result{}
}

// gradeShortAnswer matches raw against the comma-separated key of the first
// correct option. Raw text is persisted as submitted.
func gradeShortAnswer(raw *string, options []model.Option) Result {
	var key *model.Option
	for i := range options {
		if options[i].IsCorrect {
			key = &options[i]
			break
		}
	}
	if key == nil {
		return Result{Text: raw}
	}

	var answer string
	if raw != nil {
		answer = *raw
	}
	got := normalize(answer)
	for _, token := range strings.Split(key.Text, ",") {
		// Empty tokens stay members of the key.
		if normalize(token) == got {
			return Result{Correct: true, Text: raw}
		}
	}
	return Result{Text: raw}
}

// gradeEssay stores the answer verbatim. Correct=false means "not graded yet".
func gradeEssay(raw *string) Result {
	return Result{Text: raw}
}

// parseOptionID accepts only non-empty runs of ASCII digits.
func parseOptionID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// normalize removes every whitespace rune and lower-cases the rest.
func normalize(s string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, s)
	// Casers keep state; one per call.
	return cases.Lower(language.Und).String(stripped)
}
