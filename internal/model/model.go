package model

import (
	"context"
	"time"
)

// UserRole represents an account's access level.
type UserRole string

const (
	// UserRoleAdmin manages exams, participants and results.
	UserRoleAdmin UserRole = "admin"
	// UserRoleViewer can read results but not manage accounts.
	UserRoleViewer UserRole = "viewer"
)

// User represents an administrator account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// QuestionType is the wire and storage name of a question's kind.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "pilihanGanda"
	QuestionShortAnswer    QuestionType = "teksSingkat"
	QuestionEssay          QuestionType = "esay"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionShortAnswer, QuestionEssay:
		return true
	}
	return false
}

// Exam is a scheduled assessment. Dates are YYYY-MM-DD, times HH:MM.
type Exam struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	DurationMinutes  int       `json:"duration_minutes"`
	ShuffleQuestions bool      `json:"shuffle_questions"`
	ShuffleOptions   bool      `json:"shuffle_options"`
	CreatedAt        time.Time `json:"created_at"`
}

// Question is one assessment item of an exam.
type Question struct {
	ID     int64        `json:"id"`
	ExamID int64        `json:"exam_id"`
	Type   QuestionType `json:"tipe_soal"`
	Text   string       `json:"text"`
	Image  string       `json:"image,omitempty"`
}

// Option is a candidate answer of a question. For short-answer questions the
// correct option's text holds the comma-separated answer key.
type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// Participant is an invited exam taker.
type Participant struct {
	ID             int64     `json:"id"`
	ExamID         int64     `json:"exam_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	AccessCodeHash string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// AnswerInput is one submitted answer. A zero QuestionID marks an entry the
// client sent without a question reference.
type AnswerInput struct {
	QuestionID int64
	Type       QuestionType
	Text       *string
}

// Submission is one participant's batch of answers for one exam.
type Submission struct {
	ParticipantID int64
	ExamID        int64
	Answers       []AnswerInput
}

// GradedAnswer is a persisted, graded answer row. Correct is always false for
// essays, which are graded manually elsewhere.
type GradedAnswer struct {
	ID            int64     `json:"id"`
	SubmissionID  string    `json:"submission_id"`
	ParticipantID int64     `json:"peserta_id"`
	ExamID        int64     `json:"exam_id"`
	QuestionID    int64     `json:"question_id"`
	Text          *string   `json:"jawaban_text"`
	Correct       bool      `json:"benar"`
	CreatedAt     time.Time `json:"created_at"`
}

// EssayReview is an LLM-suggested assessment of an essay answer. It is advisory
// and never changes the graded row.
type EssayReview struct {
	ID        int64     `json:"id"`
	HasilID   int64     `json:"hasil_id"`
	Score     float64   `json:"score"`
	Feedback  string    `json:"feedback"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// ParticipantSummary aggregates one participant's graded rows for an exam.
// Essay rows count as ungraded, not as incorrect.
type ParticipantSummary struct {
	ParticipantID int64  `json:"peserta_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Correct       int    `json:"correct"`
	Incorrect     int    `json:"incorrect"`
	Ungraded      int    `json:"ungraded"`
	Total         int    `json:"total"`
	Submissions   int    `json:"submissions"`
}

// AnswerView joins a graded row with its question for display.
type AnswerView struct {
	GradedAnswer
	QuestionType QuestionType `json:"tipe_soal"`
	QuestionText string       `json:"question_text"`
	Review       *EssayReview `json:"review,omitempty"`
}

// Config holds runtime parameters set via CLI flags.
type Config struct {
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	Lang          string // Default response language
}
