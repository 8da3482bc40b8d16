package submission

import (
	"errors"
	"testing"

	"github.com/pavelanni/ujian/internal/model"
)

func TestParseRequest(t *testing.T) {
	body := `{
		"peserta_id": "12",
		"exam_id": 3,
		"jawaban": [
			{"question_id": "5", "tipe_soal": "pilihanGanda", "jawaban_text": "9"},
			{"question_id": 6, "tipe_soal": "teksSingkat", "jawaban_text": null},
			{"tipe_soal": "esay", "jawaban_text": "no id"},
			{"question_id": "", "tipe_soal": "whatever"},
			null,
			{"question_id": "7", "tipe_soal": "esay", "jawaban_text": "panjang"}
		]
	}`

	sub, err := ParseRequest([]byte(body))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if sub.ParticipantID != 12 || sub.ExamID != 3 {
		t.Errorf("identifiers = %d/%d", sub.ParticipantID, sub.ExamID)
	}
	if len(sub.Answers) != 6 {
		t.Fatalf("expected 6 answers, got %d", len(sub.Answers))
	}

	first := sub.Answers[0]
	if first.QuestionID != 5 || first.Type != model.QuestionMultipleChoice || first.Text == nil || *first.Text != "9" {
		t.Errorf("first answer = %+v", first)
	}
	if second := sub.Answers[1]; second.QuestionID != 6 || second.Text != nil {
		t.Errorf("second answer = %+v", second)
	}
	for _, i := range []int{2, 3, 4} {
		if sub.Answers[i].QuestionID != 0 {
			t.Errorf("answer %d should be marked for skipping: %+v", i, sub.Answers[i])
		}
	}
	if accepted := acceptedAnswers(sub.Answers); len(accepted) != 3 {
		t.Errorf("expected 3 accepted answers, got %d", len(accepted))
	}
}

func TestParseRequestInvalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"not json", `{`, "body"},
		{"missing peserta", `{"exam_id": "1", "jawaban": []}`, "peserta_id"},
		{"empty peserta", `{"peserta_id": "", "exam_id": "1", "jawaban": []}`, "peserta_id"},
		{"bad peserta", `{"peserta_id": "abc", "exam_id": "1", "jawaban": []}`, "peserta_id"},
		{"fractional exam", `{"peserta_id": "1", "exam_id": 1.5, "jawaban": []}`, "exam_id"},
		{"missing exam", `{"peserta_id": "1", "jawaban": []}`, "exam_id"},
		{"boolean id", `{"peserta_id": true, "exam_id": "1", "jawaban": []}`, "body"},
		{"missing jawaban", `{"peserta_id": "1", "exam_id": "1"}`, "jawaban"},
		{"null jawaban", `{"peserta_id": "1", "exam_id": "1", "jawaban": null}`, "jawaban"},
		{"object jawaban", `{"peserta_id": "1", "exam_id": "1", "jawaban": {"question_id": "1"}}`, "jawaban"},
		{"string jawaban", `{"peserta_id": "1", "exam_id": "1", "jawaban": "a"}`, "jawaban"},
		{"element not object", `{"peserta_id": "1", "exam_id": "1", "jawaban": [5]}`, "jawaban"},
		{"unknown type", `{"peserta_id": "1", "exam_id": "1", "jawaban": [{"question_id": "1", "tipe_soal": "essay"}]}`, "jawaban[0].tipe_soal"},
		{"bad question id", `{"peserta_id": "1", "exam_id": "1", "jawaban": [{"question_id": "x1", "tipe_soal": "esay"}]}`, "jawaban[0].question_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest([]byte(tt.body))
			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("expected ErrInvalidPayload, got %v", err)
			}
			var se *Error
			if !errors.As(err, &se) || se.Field != tt.field {
				t.Errorf("field = %v, want %q", err, tt.field)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := invalid("peserta_id", errors.New("required"))
	if err.Error() != "invalid payload: peserta_id: required" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if got := txFailed(errors.New("boom")).Error(); got != "transaction failure: boom" {
		t.Errorf("unexpected message %q", got)
	}
	if errors.Is(txFailed(nil), ErrInvalidPayload) {
		t.Error("transaction failure matched invalid payload")
	}
}
