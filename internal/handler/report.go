package handler

import (
	"log/slog"
	"net/http"

	"github.com/pavelanni/ujian/internal/model"
)

type examSummaryResponse struct {
	Exam         model.Exam                 `json:"exam"`
	Participants []model.ParticipantSummary `json:"participants"`
}

type participantAnswersResponse struct {
	ExamID        int64              `json:"exam_id"`
	ParticipantID int64              `json:"peserta_id"`
	Answers       []model.AnswerView `json:"answers"`
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExams(r.Context())
	if err != nil {
		slog.Error("failed to list exams", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	writeJSON(w, http.StatusOK, exams)
}

// loadExam resolves the examID URL parameter, writing a 404 when it does not
// name an exam.
func (h *Handler) loadExam(w http.ResponseWriter, r *http.Request) (*model.Exam, bool) {
	examID, ok := pathID(r, "examID")
	if !ok {
		writeError(w, r, http.StatusNotFound, "NotFound")
		return nil, false
	}
	exam, err := h.store.GetExam(r.Context(), examID)
	if err != nil {
		slog.Error("failed to get exam", "exam_id", examID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return nil, false
	}
	if exam == nil {
		writeError(w, r, http.StatusNotFound, "NotFound")
		return nil, false
	}
	return exam, true
}

func (h *Handler) handleExamSummary(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.loadExam(w, r)
	if !ok {
		return
	}
	summary, err := h.store.ExamSummary(r.Context(), exam.ID)
	if err != nil {
		slog.Error("failed to summarize exam", "exam_id", exam.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if summary == nil {
		summary = []model.ParticipantSummary{}
	}
	writeJSON(w, http.StatusOK, examSummaryResponse{Exam: *exam, Participants: summary})
}

func (h *Handler) handleParticipantAnswers(w http.ResponseWriter, r *http.Request) {
	exam, ok := h.loadExam(w, r)
	if !ok {
		return
	}
	pesertaID, ok := pathID(r, "pesertaID")
	if !ok {
		writeError(w, r, http.StatusNotFound, "NotFound")
		return
	}
	answers, err := h.store.ParticipantAnswers(r.Context(), exam.ID, pesertaID)
	if err != nil {
		slog.Error("failed to list answers", "exam_id", exam.ID, "peserta_id", pesertaID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if answers == nil {
		answers = []model.AnswerView{}
	}
	writeJSON(w, http.StatusOK, participantAnswersResponse{
		ExamID:        exam.ID,
		ParticipantID: pesertaID,
		Answers:       answers,
	})
}

// handleEssayReview asks the reviewer for a suggested score of one essay row
// and stores it next to the row. benar is never changed.
func (h *Handler) handleEssayReview(w http.ResponseWriter, r *http.Request) {
	if h.reviewer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "EssayReviewDisabled")
		return
	}
	exam, ok := h.loadExam(w, r)
	if !ok {
		return
	}
	hasilID, ok := pathID(r, "hasilID")
	if !ok {
		writeError(w, r, http.StatusNotFound, "NotFound")
		return
	}

	answer, err := h.store.GetAnswer(r.Context(), hasilID)
	if err != nil {
		slog.Error("failed to get answer", "hasil_id", hasilID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if answer == nil || answer.ExamID != exam.ID {
		writeError(w, r, http.StatusNotFound, "NotFound")
		return
	}
	if answer.QuestionType != model.QuestionEssay {
		writeError(w, r, http.StatusBadRequest, "NotAnEssay")
		return
	}

	var text string
	if answer.Text != nil {
		text = *answer.Text
	}
	review, err := h.reviewer.ReviewEssay(r.Context(), answer.QuestionText, text)
	if err != nil {
		slog.Error("essay review failed", "hasil_id", hasilID, "error", err)
		writeError(w, r, http.StatusBadGateway, "ReviewFailed")
		return
	}

	stored, err := h.store.UpsertEssayReview(r.Context(), model.EssayReview{
		HasilID:  hasilID,
		Score:    review.Score,
		Feedback: review.Feedback,
		Model:    h.reviewer.Model(),
	})
	if err != nil {
		slog.Error("failed to store essay review", "hasil_id", hasilID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	slog.Info("essay reviewed", "hasil_id", hasilID, "score", stored.Score, "model", stored.Model)
	writeJSON(w, http.StatusCreated, stored)
}
