package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pavelanni/ujian/internal/model"
)

// Request is the wire shape of a submission.
type Request struct {
	PesertaID wireID          `json:"peserta_id"`
	ExamID    wireID          `json:"exam_id"`
	Jawaban   json.RawMessage `json:"jawaban"`
}

// AnswerPayload is one element of Request.Jawaban.
type AnswerPayload struct {
	QuestionID  wireID  `json:"question_id"`
	TipeSoal    string  `json:"tipe_soal"`
	JawabanText *string `json:"jawaban_text"`
}

// wireID accepts identifiers sent either as JSON strings or numbers.
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("identifier must be a string or number")
		}
		*id = wireID(n.String())
	}
	return nil
}

// int64 converts a present identifier. Empty identifiers yield 0.
func (id wireID) int64() (int64, error) {
	if id == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a valid identifier", string(id))
	}
	return n, nil
}

// ParseRequest decodes and validates a submission body into a typed
// Submission. Answers without a question_id are kept with a zero QuestionID so
// Submit can skip them.
func ParseRequest(body []byte) (model.Submission, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return model.Submission{}, InvalidBody(err)
	}
	return req.Submission()
}

// Submission validates the request.
func (r Request) Submission() (model.Submission, error) {
	var sub model.Submission
	var err error

	if r.PesertaID == "" {
		return sub, invalid("peserta_id", errors.New("required"))
	}
	if sub.ParticipantID, err = r.PesertaID.int64(); err != nil {
		return sub, invalid("peserta_id", err)
	}
	if r.ExamID == "" {
		return sub, invalid("exam_id", errors.New("required"))
	}
	if sub.ExamID, err = r.ExamID.int64(); err != nil {
		return sub, invalid("exam_id", err)
	}

	raw := bytes.TrimSpace(r.Jawaban)
	if len(raw) == 0 || raw[0] != '[' {
		return sub, invalid("jawaban", errors.New("must be a list"))
	}
	var answers []*AnswerPayload
	if err := json.Unmarshal(raw, &answers); err != nil {
		return sub, invalid("jawaban", err)
	}

	sub.Answers = make([]model.AnswerInput, 0, len(answers))
	for i, a := range answers {
		if a == nil || a.QuestionID == "" {
			sub.Answers = append(sub.Answers, model.AnswerInput{})
			continue
		}
		field := fmt.Sprintf("jawaban[%d]", i)
		qid, err := a.QuestionID.int64()
		if err != nil {
			return sub, invalid(field+".question_id", err)
		}
		qt := model.QuestionType(a.TipeSoal)
		if !qt.Valid() {
			return sub, invalid(field+".tipe_soal", fmt.Errorf("unknown question type %q", a.TipeSoal))
		}
		sub.Answers = append(sub.Answers, model.AnswerInput{
			QuestionID: qid,
			Type:       qt,
			Text:       a.JawabanText,
		})
	}
	return sub, nil
}
