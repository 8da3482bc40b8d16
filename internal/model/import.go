package model

import (
	"errors"
	"fmt"
	"strings"
)

// ExamImport is used for loading an exam definition from JSON.
type ExamImport struct {
	Name             string              `json:"name"`
	StartDate        string              `json:"start_date"`
	EndDate          string              `json:"end_date"`
	StartTime        string              `json:"start_time"`
	EndTime          string              `json:"end_time"`
	DurationMinutes  int                 `json:"duration_minutes"`
	ShuffleQuestions bool                `json:"shuffle_questions"`
	ShuffleOptions   bool                `json:"shuffle_options"`
	Questions        []QuestionImport    `json:"questions"`
	Participants     []ParticipantImport `json:"participants"`
}

// QuestionImport is one question of an imported exam.
type QuestionImport struct {
	Type    QuestionType   `json:"tipe_soal"`
	Text    string         `json:"text"`
	Image   string         `json:"image"`
	Options []OptionImport `json:"options"`
}

// OptionImport is one option of an imported question.
type OptionImport struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// ParticipantImport is one invited participant. AccessCodeHash is filled in by
// the importer, never read from the file.
type ParticipantImport struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	AccessCodeHash string `json:"-"`
}

// Validate checks the authoring invariants: multiple-choice questions have at
// least two options with at least one correct, short-answer questions have
// exactly one correct option holding the answer key.
func (e ExamImport) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("exam name is required")
	}
	if e.DurationMinutes < 0 {
		return errors.New("duration_minutes must not be negative")
	}
	for i, q := range e.Questions {
		if !q.Type.Valid() {
			return fmt.Errorf("question %d: unknown tipe_soal %q", i+1, q.Type)
		}
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d: text is required", i+1)
		}
		correct := 0
		for _, o := range q.Options {
			if o.Correct {
				correct++
			}
		}
		switch q.Type {
		case QuestionMultipleChoice:
			if len(q.Options) < 2 {
				return fmt.Errorf("question %d: multiple choice needs at least 2 options, got %d", i+1, len(q.Options))
			}
			if correct == 0 {
				return fmt.Errorf("question %d: multiple choice needs a correct option", i+1)
			}
		case QuestionShortAnswer:
			if correct != 1 {
				return fmt.Errorf("question %d: short answer needs exactly one correct option, got %d", i+1, correct)
			}
		case QuestionEssay:
			if len(q.Options) > 0 {
				return fmt.Errorf("question %d: essay questions take no options", i+1)
			}
		}
	}
	seen := make(map[string]bool)
	for i, p := range e.Participants {
		email := strings.ToLower(strings.TrimSpace(p.Email))
		if email == "" {
			return fmt.Errorf("participant %d: email is required", i+1)
		}
		if seen[email] {
			return fmt.Errorf("participant %d: duplicate email %s", i+1, p.Email)
		}
		seen[email] = true
	}
	return nil
}

// ImportResult reports what an import created.
type ImportResult struct {
	ExamID         int64
	QuestionCount  int
	ParticipantIDs []int64
}
