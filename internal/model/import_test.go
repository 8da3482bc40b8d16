package model

import (
	"strings"
	"testing"
)

func validImport() ExamImport {
	return ExamImport{
		Name:            "Ujian Geografi",
		DurationMinutes: 60,
		Questions: []QuestionImport{
			{Type: QuestionMultipleChoice, Text: "Ibu kota?", Options: []OptionImport{
				{Text: "Bandung"}, {Text: "Jakarta", Correct: true},
			}},
			{Type: QuestionShortAnswer, Text: "Sebutkan ibu kota", Options: []OptionImport{
				{Text: "Jakarta, jakarta pusat", Correct: true},
			}},
			{Type: QuestionEssay, Text: "Jelaskan"},
		},
		Participants: []ParticipantImport{{Name: "Budi", Email: "budi@example.com"}},
	}
}

func TestQuestionTypeValid(t *testing.T) {
	for _, qt := range []QuestionType{QuestionMultipleChoice, QuestionShortAnswer, QuestionEssay} {
		if !qt.Valid() {
			t.Errorf("%q should be valid", qt)
		}
	}
	for _, qt := range []QuestionType{"", "essay", "PilihanGanda"} {
		if qt.Valid() {
			t.Errorf("%q should be invalid", qt)
		}
	}
}

func TestExamImportValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ExamImport)
		wantErr string
	}{
		{"valid", func(*ExamImport) {}, ""},
		{"missing name", func(e *ExamImport) { e.Name = " " }, "name is required"},
		{"negative duration", func(e *ExamImport) { e.DurationMinutes = -1 }, "duration_minutes"},
		{"unknown type", func(e *ExamImport) { e.Questions[0].Type = "matching" }, "unknown tipe_soal"},
		{"one option", func(e *ExamImport) {
			e.Questions[0].Options = e.Questions[0].Options[:1]
		}, "at least 2 options"},
		{"no correct option", func(e *ExamImport) {
			e.Questions[0].Options[1].Correct = false
		}, "needs a correct option"},
		{"short answer without key", func(e *ExamImport) {
			e.Questions[1].Options[0].Correct = false
		}, "exactly one correct option"},
		{"essay with options", func(e *ExamImport) {
			e.Questions[2].Options = []OptionImport{{Text: "x"}}
		}, "take no options"},
		{"duplicate participant", func(e *ExamImport) {
			e.Participants = append(e.Participants, ParticipantImport{Email: "BUDI@example.com"})
		}, "duplicate email"},
		{"participant without email", func(e *ExamImport) {
			e.Participants[0].Email = ""
		}, "email is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := validImport()
			tt.mutate(&imp)
			err := imp.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
