// Package submission grades a participant's batch of answers and persists the
// graded rows in a single transaction.
package submission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/ujian/internal/grading"
	"github.com/pavelanni/ujian/internal/metrics"
	"github.com/pavelanni/ujian/internal/model"
)

// Tx is the unit of work a submission runs in. Reads happen in the same
// transaction as the writes so grading sees one consistent snapshot.
type Tx interface {
	// QuestionType returns the stored type of a question; ok is false if the
	// question does not exist.
	QuestionType(ctx context.Context, questionID int64) (qt model.QuestionType, ok bool, err error)
	// Options returns all options of a question ordered by ID.
	Options(ctx context.Context, questionID int64) ([]model.Option, error)
	// CorrectOption returns the first correct-marked option, or nil.
	CorrectOption(ctx context.Context, questionID int64) (*model.Option, error)
	InsertGradedAnswer(ctx context.Context, a model.GradedAnswer) error
	Commit() error
	// Rollback must be safe to call after Commit.
	Rollback() error
}

// Store opens grading transactions.
type Store interface {
	BeginGrading(ctx context.Context) (Tx, error)
}

// BeginFunc adapts a function to the Store interface.
type BeginFunc func(ctx context.Context) (Tx, error)

// BeginGrading calls f(ctx).
func (f BeginFunc) BeginGrading(ctx context.Context) (Tx, error) { return f(ctx) }

// Result confirms a committed submission.
type Result struct {
	SubmissionID string `json:"submission_id"`
	Count        int    `json:"count"`
	Skipped      int    `json:"skipped"`
}

// Service grades and stores submissions.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	newID   func() string
	now     func() time.Time
}

// New creates a Service. m may be nil.
func New(s Store, m *metrics.Metrics) *Service {
	return &Service{
		store:   s,
		metrics: m,
		newID:   func() string { return uuid.NewString() },
		now:     time.Now,
	}
}

// Submit grades every answer that carries a question ID and writes one row per
// answer. Either all rows are committed or none are. Resubmitting the same
// batch writes a second set of rows.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (Result, error) {
	start := time.Now()
	res, graded, err := s.submit(ctx, sub)
	s.metrics.ObserveSubmission(outcome(err), time.Since(start))
	if err != nil {
		if errors.Is(err, ErrInvalidPayload) {
			slog.Warn("rejected submission", "peserta_id", sub.ParticipantID, "exam_id", sub.ExamID, "error", err)
		} else {
			slog.Error("submission rolled back", "peserta_id", sub.ParticipantID, "exam_id", sub.ExamID, "error", err)
		}
		return Result{}, err
	}

	for _, g := range graded {
		s.metrics.ObserveGradedAnswer(g.qt, g.correct)
	}
	slog.Info("submission committed",
		"submission_id", res.SubmissionID,
		"peserta_id", sub.ParticipantID,
		"exam_id", sub.ExamID,
		"count", res.Count,
		"skipped", res.Skipped,
	)
	return res, nil
}

type gradedAnswer struct {
	qt      model.QuestionType
	correct bool
}

func (s *Service) submit(ctx context.Context, sub model.Submission) (Result, []gradedAnswer, error) {
	if sub.ParticipantID <= 0 {
		return Result{}, nil, invalid("peserta_id", errors.New("required"))
	}
	if sub.ExamID <= 0 {
		return Result{}, nil, invalid("exam_id", errors.New("required"))
	}

	answers := acceptedAnswers(sub.Answers)
	res := Result{
		SubmissionID: s.newID(),
		Skipped:      len(sub.Answers) - len(answers),
	}

	tx, err := s.store.BeginGrading(ctx)
	if err != nil {
		return Result{}, nil, txFailed(err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := s.now()
	graded := make([]gradedAnswer, 0, len(answers))
	for _, a := range answers {
		qt, result, err := s.grade(ctx, tx, a)
		if err != nil {
			return Result{}, nil, err
		}
		row := model.GradedAnswer{
			SubmissionID:  res.SubmissionID,
			ParticipantID: sub.ParticipantID,
			ExamID:        sub.ExamID,
			QuestionID:    a.QuestionID,
			Text:          result.Text,
			Correct:       result.Correct,
			CreatedAt:     createdAt,
		}
		if err := tx.InsertGradedAnswer(ctx, row); err != nil {
			return Result{}, nil, txFailed(err)
		}
		graded = append(graded, gradedAnswer{qt: qt, correct: result.Correct})
	}

	if err := tx.Commit(); err != nil {
		return Result{}, nil, txFailed(err)
	}
	res.Count = len(graded)
	return res, graded, nil
}

// grade fetches what the question type needs and grades one answer. The stored
// question type wins over the one the client sent.
func (s *Service) grade(ctx context.Context, tx Tx, a model.AnswerInput) (model.QuestionType, grading.Result, error) {
	qt := a.Type
	stored, ok, err := tx.QuestionType(ctx, a.QuestionID)
	if err != nil {
		return "", grading.Result{}, lookupFailed(err)
	}
	if ok && stored != qt {
		slog.Warn("question type mismatch, using stored type",
			"question_id", a.QuestionID, "sent", qt, "stored", stored)
		qt = stored
	}

	var options []model.Option
	switch qt {
	case model.QuestionMultipleChoice:
		options, err = tx.Options(ctx, a.QuestionID)
		if err != nil {
			return "", grading.Result{}, lookupFailed(err)
		}
	case model.QuestionShortAnswer:
		key, err := tx.CorrectOption(ctx, a.QuestionID)
		if err != nil {
			return "", grading.Result{}, lookupFailed(err)
		}
		if key != nil {
			options = []model.Option{*key}
		}
	}
	return qt, grading.Grade(qt, a.Text, options), nil
}

// acceptedAnswers drops answers without a question ID, keeping caller order.
func acceptedAnswers(answers []model.AnswerInput) []model.AnswerInput {
	out := make([]model.AnswerInput, 0, len(answers))
	for _, a := range answers {
		if a.QuestionID == 0 {
			continue
		}
		out = append(out, a)
	}
	return out
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCommitted
	case errors.Is(err, ErrInvalidPayload):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrOptionLookup):
		return metrics.OutcomeLookupError
	default:
		return metrics.OutcomeTxError
	}
}
