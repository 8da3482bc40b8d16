package handler

import (
	"errors"
	"io"
	"net/http"

	appI18n "github.com/pavelanni/ujian/internal/i18n"
	"github.com/pavelanni/ujian/internal/submission"
)

type submitResponse struct {
	Message      string `json:"message"`
	SubmissionID string `json:"submission_id"`
	Count        int    `json:"count"`
	Skipped      int    `json:"skipped"`
}

// handleSubmit accepts one participant's answer batch, grades it and stores it
// atomically.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.submitError(w, r, submission.InvalidBody(err))
		return
	}

	sub, err := submission.ParseRequest(body)
	if err != nil {
		h.submitError(w, r, err)
		return
	}

	res, err := h.submission.Submit(r.Context(), sub)
	if err != nil {
		h.submitError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		Message:      appI18n.T(r.Context(), "SubmitSuccess") + " " + appI18n.Tp(r.Context(), "AnswersSaved", res.Count),
		SubmissionID: res.SubmissionID,
		Count:        res.Count,
		Skipped:      res.Skipped,
	})
}

func (h *Handler) submitError(w http.ResponseWriter, r *http.Request, err error) {
	var se *submission.Error
	if errors.Is(err, submission.ErrInvalidPayload) {
		field := "body"
		if errors.As(err, &se) && se.Field != "" {
			field = se.Field
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: appI18n.Td(r.Context(), "InvalidField", map[string]any{"Field": field}),
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Message: appI18n.T(r.Context(), "SubmitFailed"),
		Error:   err.Error(),
	})
}
