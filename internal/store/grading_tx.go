package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavelanni/ujian/internal/model"
)

// GradingTx is the transaction a submission is graded and written in.
type GradingTx struct {
	tx      *sql.Tx
	dialect dialect
}

// BeginGrading starts a grading transaction. On Postgres it runs at
// REPEATABLE READ; SQLite takes the write lock up front.
func (s *Store) BeginGrading(ctx context.Context) (*GradingTx, error) {
	var opts *sql.TxOptions
	if s.dialect == dialectPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin grading: %w", err)
	}
	return &GradingTx{tx: tx, dialect: s.dialect}, nil
}

// QuestionType returns the stored type of a question.
func (g *GradingTx) QuestionType(ctx context.Context, questionID int64) (model.QuestionType, bool, error) {
	var qt model.QuestionType
	err := g.tx.QueryRowContext(ctx,
		g.dialect.rebind(`SELECT tipe_soal FROM questions WHERE id = ?`), questionID,
	).Scan(&qt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("question %d type: %w", questionID, err)
	}
	return qt, true, nil
}

// Options returns all options of a question ordered by ID.
func (g *GradingTx) Options(ctx context.Context, questionID int64) ([]model.Option, error) {
	rows, err := g.tx.QueryContext(ctx,
		g.dialect.rebind(`SELECT id, question_id, text, is_correct FROM options WHERE question_id = ? ORDER BY id`),
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("question %d options: %w", questionID, err)
	}
	defer rows.Close()
	var options []model.Option
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// CorrectOption returns the lowest-ID correct option of a question, or nil.
func (g *GradingTx) CorrectOption(ctx context.Context, questionID int64) (*model.Option, error) {
	var o model.Option
	err := g.tx.QueryRowContext(ctx,
		g.dialect.rebind(`SELECT id, question_id, text, is_correct FROM options
		 WHERE question_id = ? AND is_correct = ? ORDER BY id LIMIT 1`),
		questionID, true,
	).Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("question %d answer key: %w", questionID, err)
	}
	return &o, nil
}

// InsertGradedAnswer stages one hasil row.
func (g *GradingTx) InsertGradedAnswer(ctx context.Context, a model.GradedAnswer) error {
	_, err := g.tx.ExecContext(ctx,
		g.dialect.rebind(`INSERT INTO hasil (submission_id, peserta_id, exam_id, question_id, jawaban_text, benar, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.SubmissionID, a.ParticipantID, a.ExamID, a.QuestionID, nullString(a.Text), a.Correct, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert hasil for question %d: %w", a.QuestionID, err)
	}
	return nil
}

func (g *GradingTx) Commit() error {
	return g.tx.Commit()
}

// Rollback aborts the transaction. It is a no-op after Commit.
func (g *GradingTx) Rollback() error {
	err := g.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
