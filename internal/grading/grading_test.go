package grading

import (
	"testing"

	"github.com/pavelanni/ujian/internal/model"
)

func strp(s string) *string { return &s }

func textOf(r Result) string {
	if r.Text == nil {
		return "<nil>"
	}
	return *r.Text
}

func TestGradeMultipleChoice(t *testing.T) {
	options := []model.Option{
		{ID: 1, QuestionID: 7, Text: "A", IsCorrect: false},
		{ID: 2, QuestionID: 7, Text: "B", IsCorrect: true},
	}

	tests := []struct {
		name        string
		raw         *string
		wantCorrect bool
		wantText    string
	}{
		{"correct option", strp("2"), true, "B"},
		{"wrong option", strp("1"), false, "A"},
		{"unknown id", strp("99"), false, "<nil>"},
		{"not a number", strp("abc"), false, "<nil>"},
		{"trailing garbage", strp("2abc"), false, "<nil>"},
		{"leading space", strp(" 2"), false, "<nil>"},
		{"plus sign", strp("+2"), false, "<nil>"},
		{"negative", strp("-2"), false, "<nil>"},
		{"empty", strp(""), false, "<nil>"},
		{"overflow", strp("99999999999999999999"), false, "<nil>"},
		{"nil answer", nil, false, "<nil>"},
		{"leading zeros", strp("002"), true, "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(model.QuestionMultipleChoice, tt.raw, options)
			if got.Correct != tt.wantCorrect {
				t.Errorf("Correct = %v, want %v", got.Correct, tt.wantCorrect)
			}
			if textOf(got) != tt.wantText {
				t.Errorf("Text = %q, want %q", textOf(got), tt.wantText)
			}
		})
	}
}

func TestGradeMultipleChoiceNoCorrectOption(t *testing.T) {
	options := []model.Option{{ID: 1, Text: "A"}, {ID: 2, Text: "B"}}
	got := Grade(model.QuestionMultipleChoice, strp("2"), options)
	if got.Correct {
		t.Error("expected incorrect when no option is marked correct")
	}
	if textOf(got) != "B" {
		t.Errorf("expected label B, got %q", textOf(got))
	}
}

func TestGradeShortAnswer(t *testing.T) {
	key := []model.Option{{ID: 10, Text: "Jakarta, jakarta pusat", IsCorrect: true}}

	tests := []struct {
		name        string
		options     []model.Option
		raw         *string
		wantCorrect bool
		wantText    string
	}{
		{"case and spaces", key, strp(" JAKARTA "), true, " JAKARTA "},
		{"second token, inner space removed", key, strp("Jakarta Pusat"), true, "Jakarta Pusat"},
		{"glued second token", key, strp("jakartapusat"), true, "jakartapusat"},
		{"tabs and newlines", key, strp("\tja karta\n"), true, "\tja karta\n"},
		{"wrong", key, strp("Bandung"), false, "Bandung"},
		{"substring is not a match", key, strp("jak"), false, "jak"},
		{"empty answer misses key without empty token", key, strp(""), false, ""},
		{"nil answer", key, nil, false, "<nil>"},
		{"trailing comma keeps empty token", []model.Option{{Text: "a,", IsCorrect: true}}, strp("  "), true, "  "},
		{"no correct option falls back", []model.Option{{Text: "Jakarta"}}, strp("Jakarta"), false, "Jakarta"},
		{"no options", nil, strp("x"), false, "x"},
		{"first correct option wins", []model.Option{
			{Text: "wrong"},
			{Text: "satu", IsCorrect: true},
			{Text: "dua", IsCorrect: true},
		}, strp("dua"), false, "dua"},
		{"unicode lower-casing", []model.Option{{Text: "ÖSTERREICH", IsCorrect: true}}, strp("österreich"), true, "österreich"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(model.QuestionShortAnswer, tt.raw, tt.options)
			if got.Correct != tt.wantCorrect {
				t.Errorf("Correct = %v, want %v", got.Correct, tt.wantCorrect)
			}
			if textOf(got) != tt.wantText {
				t.Errorf("Text = %q, want %q", textOf(got), tt.wantText)
			}
		})
	}
}

func TestGradeEssay(t *testing.T) {
	options := []model.Option{{ID: 1, Text: "anything", IsCorrect: true}}
	for _, raw := range []string{"", "anything", "Panjang sekali jawabannya."} {
		got := Grade(model.QuestionEssay, strp(raw), options)
		if got.Correct {
			t.Errorf("essay %q graded correct", raw)
		}
		if got.Text == nil || *got.Text != raw {
			t.Errorf("essay text = %q, want %q", textOf(got), raw)
		}
	}

	if got := Grade(model.QuestionEssay, nil, nil); got.Correct || got.Text != nil {
		t.Errorf("nil essay answer = %+v", got)
	}
}

func TestGradeUnknownTypeActsLikeEssay(t *testing.T) {
	got := Grade("matching", strp("2"), []model.Option{{ID: 2, Text: "B", IsCorrect: true}})
	if got.Correct || textOf(got) != "2" {
		t.Errorf("unknown type = %+v", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{" JAKARTA ", "jakarta"},
		{"Jakarta Pusat", "jakartapusat"},
		{"a\u00a0b", "ab"},
		{"\uFEFFx", "x"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
