package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/ujian/internal/model"
)

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertID runs an INSERT ... RETURNING id statement.
func (s *Store) insertID(ctx context.Context, q rowQueryer, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, s.q(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ImportExam stores an exam with its questions, options and participants in
// one transaction. The caller validates imp and fills in access code hashes.
func (s *Store) ImportExam(ctx context.Context, imp model.ExamImport) (model.ImportResult, error) {
	return s.importExam(ctx, imp, nil)
}

// ImportExamFile is ImportExam for an exam read from a file. The file's hash
// is recorded in the same transaction, with ExamID set to the new exam.
func (s *Store) ImportExamFile(ctx context.Context, imp model.ExamImport, src ImportedFile) (model.ImportResult, error) {
	return s.importExam(ctx, imp, &src)
}

func (s *Store) importExam(ctx context.Context, imp model.ExamImport, src *ImportedFile) (model.ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	examID, err := s.insertID(ctx, tx,
		`INSERT INTO exams (name, start_date, end_date, start_time, end_time, duration_minutes,
		 shuffle_questions, shuffle_options, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		imp.Name, imp.StartDate, imp.EndDate, imp.StartTime, imp.EndTime, imp.DurationMinutes,
		imp.ShuffleQuestions, imp.ShuffleOptions, now,
	)
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("insert exam: %w", err)
	}

	for i, q := range imp.Questions {
		qid, err := s.insertID(ctx, tx,
			`INSERT INTO questions (exam_id, tipe_soal, text, image) VALUES (?, ?, ?, ?) RETURNING id`,
			examID, q.Type, q.Text, q.Image,
		)
		if err != nil {
			return model.ImportResult{}, fmt.Errorf("insert question %d: %w", i+1, err)
		}
		for j, o := range q.Options {
			if _, err := tx.ExecContext(ctx,
				s.q(`INSERT INTO options (question_id, text, is_correct) VALUES (?, ?, ?)`),
				qid, o.Text, o.Correct,
			); err != nil {
				return model.ImportResult{}, fmt.Errorf("insert question %d option %d: %w", i+1, j+1, err)
			}
		}
	}

	res := model.ImportResult{ExamID: examID, QuestionCount: len(imp.Questions)}
	for _, p := range imp.Participants {
		pid, err := s.insertID(ctx, tx,
			`INSERT INTO peserta (exam_id, name, email, access_code_hash, created_at)
			 VALUES (?, ?, ?, ?, ?) RETURNING id`,
			examID, p.Name, strings.ToLower(strings.TrimSpace(p.Email)), p.AccessCodeHash, now,
		)
		if err != nil {
			return model.ImportResult{}, fmt.Errorf("insert participant %s: %w", p.Email, err)
		}
		res.ParticipantIDs = append(res.ParticipantIDs, pid)
	}

	if src != nil {
		src.ExamID = examID
		if err := s.setImportedFile(ctx, tx, *src); err != nil {
			return model.ImportResult{}, fmt.Errorf("record import of %s: %w", src.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.ImportResult{}, fmt.Errorf("commit import: %w", err)
	}
	slog.Info("imported exam", "exam_id", examID, "name", imp.Name,
		"questions", res.QuestionCount, "participants", len(res.ParticipantIDs))
	return res, nil
}

const examColumns = `id, name, start_date, end_date, start_time, end_time, duration_minutes,
	shuffle_questions, shuffle_options, created_at`

func scanExam(sc interface{ Scan(...any) error }) (model.Exam, error) {
	var e model.Exam
	err := sc.Scan(&e.ID, &e.Name, &e.StartDate, &e.EndDate, &e.StartTime, &e.EndTime,
		&e.DurationMinutes, &e.ShuffleQuestions, &e.ShuffleOptions, &e.CreatedAt)
	return e, err
}

// GetExam returns an exam by ID, or nil if it does not exist.
func (s *Store) GetExam(ctx context.Context, id int64) (*model.Exam, error) {
	e, err := scanExam(s.db.QueryRowContext(ctx, s.q(`SELECT `+examColumns+` FROM exams WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListExams returns all exams, newest first.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+examColumns+` FROM exams ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListQuestions returns an exam's questions in authoring order.
func (s *Store) ListQuestions(ctx context.Context, examID int64) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, exam_id, tipe_soal, text, image FROM questions WHERE exam_id = ? ORDER BY id`), examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Type, &q.Text, &q.Image); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListOptions returns a question's options ordered by ID.
func (s *Store) ListOptions(ctx context.Context, questionID int64) ([]model.Option, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, question_id, text, is_correct FROM options WHERE question_id = ? ORDER BY id`), questionID)
	if err != nil {
		return nil, err
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

const participantColumns = `id, exam_id, name, email, access_code_hash, created_at`

// ListParticipants returns an exam's participants ordered by ID.
func (s *Store) ListParticipants(ctx context.Context, examID int64) ([]model.Participant, error) {
	return s.queryParticipants(ctx,
		`SELECT `+participantColumns+` FROM peserta WHERE exam_id = ? ORDER BY id`, examID)
}

// ParticipantsByEmail returns every participant row registered under email,
// across exams.
func (s *Store) ParticipantsByEmail(ctx context.Context, email string) ([]model.Participant, error) {
	return s.queryParticipants(ctx,
		`SELECT `+participantColumns+` FROM peserta WHERE email = ? ORDER BY exam_id DESC`,
		strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) queryParticipants(ctx context.Context, query string, args ...any) ([]model.Participant, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.ExamID, &p.Name, &p.Email, &p.AccessCodeHash, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
