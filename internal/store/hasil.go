package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/ujian/internal/model"
)

// ExamSummary aggregates graded rows per enrolled participant. Essay rows are
// counted as ungraded. Participants without submissions are included with
// zero counts.
func (s *Store) ExamSummary(ctx context.Context, examID int64) ([]model.ParticipantSummary, error) {
	essay := model.QuestionEssay
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT p.id, p.name, p.email,
			COALESCE(SUM(CASE WHEN h.id IS NOT NULL AND q.tipe_soal <> ? AND h.benar THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN h.id IS NOT NULL AND q.tipe_soal <> ? AND NOT h.benar THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN q.tipe_soal = ? THEN 1 ELSE 0 END), 0),
			COUNT(h.id),
			COUNT(DISTINCT h.submission_id)
		FROM peserta p
		LEFT JOIN hasil h ON h.peserta_id = p.id AND h.exam_id = ?
		LEFT JOIN questions q ON q.id = h.question_id
		WHERE p.exam_id = ?
		GROUP BY p.id, p.name, p.email
		ORDER BY p.id`),
		essay, essay, essay, examID, examID,
	)
	if err != nil {
		return nil, fmt.Errorf("exam %d summary: %w", examID, err)
	}
	defer rows.Close()
	var out []model.ParticipantSummary
	for rows.Next() {
		var ps model.ParticipantSummary
		if err := rows.Scan(&ps.ParticipantID, &ps.Name, &ps.Email,
			&ps.Correct, &ps.Incorrect, &ps.Ungraded, &ps.Total, &ps.Submissions); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

const answerViewQuery = `
	SELECT h.id, h.submission_id, h.peserta_id, h.exam_id, h.question_id, h.jawaban_text, h.benar, h.created_at,
		q.tipe_soal, q.text,
		r.id, r.score, r.feedback, r.model, r.created_at
	FROM hasil h
	JOIN questions q ON q.id = h.question_id
	LEFT JOIN essay_reviews r ON r.hasil_id = h.id`

func scanAnswerView(sc interface{ Scan(...any) error }) (model.AnswerView, error) {
	var (
		v          model.AnswerView
		text       sql.NullString
		reviewID   sql.NullInt64
		score      sql.NullFloat64
		feedback   sql.NullString
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	err := sc.Scan(&v.ID, &v.SubmissionID, &v.ParticipantID, &v.ExamID, &v.QuestionID, &text, &v.Correct, &v.CreatedAt,
		&v.QuestionType, &v.QuestionText,
		&reviewID, &score, &feedback, &reviewedBy, &reviewedAt)
	if err != nil {
		return v, err
	}
	v.Text = stringPtr(text)
	if reviewID.Valid {
		v.Review = &model.EssayReview{
			ID:        reviewID.Int64,
			HasilID:   v.ID,
			Score:     score.Float64,
			Feedback:  feedback.String,
			Model:     reviewedBy.String,
			CreatedAt: reviewedAt.Time,
		}
	}
	return v, nil
}

// ParticipantAnswers returns every graded row of one participant for an exam,
// across all submissions, in insertion order.
func (s *Store) ParticipantAnswers(ctx context.Context, examID, participantID int64) ([]model.AnswerView, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(answerViewQuery+` WHERE h.exam_id = ? AND h.peserta_id = ? ORDER BY h.id`),
		examID, participantID)
	if err != nil {
		return nil, fmt.Errorf("participant %d answers: %w", participantID, err)
	}
	defer rows.Close()
	var out []model.AnswerView
	for rows.Next() {
		v, err := scanAnswerView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetAnswer returns one graded row, or nil if it does not exist.
func (s *Store) GetAnswer(ctx context.Context, hasilID int64) (*model.AnswerView, error) {
	v, err := scanAnswerView(s.db.QueryRowContext(ctx, s.q(answerViewQuery+` WHERE h.id = ?`), hasilID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertEssayReview stores the latest review suggestion for a graded row.
// The graded row itself is left untouched.
func (s *Store) UpsertEssayReview(ctx context.Context, r model.EssayReview) (model.EssayReview, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	id, err := s.insertID(ctx, s.db,
		`INSERT INTO essay_reviews (hasil_id, score, feedback, model, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (hasil_id) DO UPDATE SET
			score = excluded.score, feedback = excluded.feedback,
			model = excluded.model, created_at = excluded.created_at
		 RETURNING id`,
		r.HasilID, r.Score, r.Feedback, r.Model, r.CreatedAt,
	)
	if err != nil {
		return r, fmt.Errorf("store essay review for hasil %d: %w", r.HasilID, err)
	}
	r.ID = id
	return r, nil
}

// CountAnswers returns how many graded rows exist for an exam.
func (s *Store) CountAnswers(ctx context.Context, examID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM hasil WHERE exam_id = ?`), examID).Scan(&n)
	return n, err
}
