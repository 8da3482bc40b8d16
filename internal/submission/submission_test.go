package submission

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pavelanni/ujian/internal/metrics"
	"github.com/pavelanni/ujian/internal/model"
)

// fakeStore is an in-memory question bank whose committed rows are only
// visible after Commit.
type fakeStore struct {
	types     map[int64]model.QuestionType
	options   map[int64][]model.Option
	committed []model.GradedAnswer

	beginErr  error
	commitErr error
	// failLookupAt makes the n-th lookup (1-based) fail.
	failLookupAt int
	// failInsertAt makes the n-th insert (1-based) fail.
	failInsertAt int

	lookups    int
	rollbacks  int
	openTxs    int
	lastTxDone bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types: map[int64]model.QuestionType{
			1: model.QuestionMultipleChoice,
			2: model.QuestionShortAnswer,
			3: model.QuestionEssay,
		},
		options: map[int64][]model.Option{
			1: {
				{ID: 1, QuestionID: 1, Text: "A"},
				{ID: 2, QuestionID: 1, Text: "B", IsCorrect: true},
			},
			2: {
				{ID: 3, QuestionID: 2, Text: "Jakarta, jakarta pusat", IsCorrect: true},
			},
		},
	}
}

func (f *fakeStore) BeginGrading(ctx context.Context) (Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.openTxs++
	return &fakeTx{store: f}, nil
}

type fakeTx struct {
	store   *fakeStore
	staged  []model.GradedAnswer
	inserts int
	done    bool
}

func (t *fakeTx) lookup() error {
	t.store.lookups++
	if t.store.failLookupAt > 0 && t.store.lookups == t.store.failLookupAt {
		return errors.New("connection reset")
	}
	return nil
}

func (t *fakeTx) QuestionType(ctx context.Context, id int64) (model.QuestionType, bool, error) {
	if err := t.lookup(); err != nil {
		return "", false, err
	}
	qt, ok := t.store.types[id]
	return qt, ok, nil
}

func (t *fakeTx) Options(ctx context.Context, id int64) ([]model.Option, error) {
	if err := t.lookup(); err != nil {
		return nil, err
	}
	return t.store.options[id], nil
}

func (t *fakeTx) CorrectOption(ctx context.Context, id int64) (*model.Option, error) {
	if err := t.lookup(); err != nil {
		return nil, err
	}
	for _, o := range t.store.options[id] {
		if o.IsCorrect {
			return &o, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) InsertGradedAnswer(ctx context.Context, a model.GradedAnswer) error {
	t.inserts++
	if t.store.failInsertAt > 0 && t.inserts == t.store.failInsertAt {
		return errors.New("constraint violation")
	}
	t.staged = append(t.staged, a)
	return nil
}

func (t *fakeTx) Commit() error {
	if t.done {
		return errors.New("tx done")
	}
	t.done = true
	t.store.openTxs--
	t.store.lastTxDone = true
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.committed = append(t.store.committed, t.staged...)
	return nil
}

func (t *fakeTx) Rollback() error {
	t.store.rollbacks++
	if t.done {
		return nil
	}
	t.done = true
	t.store.openTxs--
	t.store.lastTxDone = true
	t.staged = nil
	return nil
}

func strp(s string) *string { return &s }

func newTestService(t *testing.T, f *fakeStore) (*Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	svc := New(f, m)
	svc.newID = func() string { return "sub-1" }
	return svc, m
}

func fullSubmission() model.Submission {
	return model.Submission{
		ParticipantID: 10,
		ExamID:        20,
		Answers: []model.AnswerInput{
			{QuestionID: 1, Type: model.QuestionMultipleChoice, Text: strp("2")},
			{QuestionID: 2, Type: model.QuestionShortAnswer, Text: strp(" JAKARTA ")},
			{QuestionID: 3, Type: model.QuestionEssay, Text: strp("Karena letaknya strategis.")},
		},
	}
}

func TestSubmitGradesAndCommits(t *testing.T) {
	f := newFakeStore()
	svc, m := newTestService(t, f)

	res, err := svc.Submit(context.Background(), fullSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Count != 3 || res.Skipped != 0 || res.SubmissionID != "sub-1" {
		t.Errorf("unexpected result %+v", res)
	}
	if len(f.committed) != 3 {
		t.Fatalf("expected 3 committed rows, got %d", len(f.committed))
	}

	want := []struct {
		text    string
		correct bool
	}{
		{"B", true},
		{" JAKARTA ", true},
		{"Karena letaknya strategis.", false},
	}
	for i, row := range f.committed {
		if row.Text == nil || *row.Text != want[i].text {
			t.Errorf("row %d text = %v, want %q", i, row.Text, want[i].text)
		}
		if row.Correct != want[i].correct {
			t.Errorf("row %d correct = %v, want %v", i, row.Correct, want[i].correct)
		}
		if row.ParticipantID != 10 || row.ExamID != 20 || row.SubmissionID != "sub-1" {
			t.Errorf("row %d has wrong identifiers: %+v", i, row)
		}
	}
	if f.openTxs != 0 {
		t.Errorf("transaction left open")
	}

	if got := testutil.ToFloat64(m.Submissions.WithLabelValues(metrics.OutcomeCommitted)); got != 1 {
		t.Errorf("committed counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.GradedAnswers.WithLabelValues("esay", "false")); got != 1 {
		t.Errorf("essay counter = %v, want 1", got)
	}
}

func TestSubmitAtomicOnLookupFailure(t *testing.T) {
	// Lookups: q1 type, q1 options, q2 type, q2 key, q3 type.
	for n := 1; n <= 5; n++ {
		f := newFakeStore()
		f.failLookupAt = n
		svc, m := newTestService(t, f)

		_, err := svc.Submit(context.Background(), fullSubmission())
		if !errors.Is(err, ErrOptionLookup) {
			t.Fatalf("lookup %d: expected ErrOptionLookup, got %v", n, err)
		}
		if len(f.committed) != 0 {
			t.Errorf("lookup %d: %d rows persisted after failure", n, len(f.committed))
		}
		if f.openTxs != 0 || f.rollbacks == 0 {
			t.Errorf("lookup %d: transaction not rolled back", n)
		}
		if got := testutil.ToFloat64(m.Submissions.WithLabelValues(metrics.OutcomeLookupError)); got != 1 {
			t.Errorf("lookup %d: failure counter = %v", n, got)
		}
		if got := testutil.ToFloat64(m.GradedAnswers.WithLabelValues("pilihanGanda", "true")); got != 0 {
			t.Errorf("lookup %d: rolled back answers were counted", n)
		}
	}
}

func TestSubmitAtomicOnInsertFailure(t *testing.T) {
	f := newFakeStore()
	f.failInsertAt = 3
	svc, _ := newTestService(t, f)

	_, err := svc.Submit(context.Background(), fullSubmission())
	if !errors.Is(err, ErrTransaction) {
		t.Fatalf("expected ErrTransaction, got %v", err)
	}
	if len(f.committed) != 0 {
		t.Errorf("%d rows persisted after failed insert", len(f.committed))
	}
	if f.openTxs != 0 {
		t.Error("transaction left open")
	}
}

func TestSubmitCommitAndBeginFailures(t *testing.T) {
	f := newFakeStore()
	f.commitErr = errors.New("disk full")
	svc, _ := newTestService(t, f)
	_, err := svc.Submit(context.Background(), fullSubmission())
	if !errors.Is(err, ErrTransaction) {
		t.Fatalf("commit failure: expected ErrTransaction, got %v", err)
	}
	if len(f.committed) != 0 {
		t.Error("rows persisted after failed commit")
	}

	f = newFakeStore()
	f.beginErr = errors.New("storage unavailable")
	svc, _ = newTestService(t, f)
	_, err = svc.Submit(context.Background(), fullSubmission())
	if !errors.Is(err, ErrTransaction) {
		t.Fatalf("begin failure: expected ErrTransaction, got %v", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.Err == nil || se.Err.Error() != "storage unavailable" {
		t.Errorf("underlying error not preserved: %v", err)
	}
}

func TestSubmitInvalidIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		sub   model.Submission
		field string
	}{
		{"missing participant", model.Submission{ExamID: 1}, "peserta_id"},
		{"missing exam", model.Submission{ParticipantID: 1}, "exam_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeStore()
			svc, _ := newTestService(t, f)
			_, err := svc.Submit(context.Background(), tt.sub)
			var se *Error
			if !errors.As(err, &se) || !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("expected invalid payload, got %v", err)
			}
			if se.Field != tt.field {
				t.Errorf("field = %q, want %q", se.Field, tt.field)
			}
			if f.rollbacks != 0 || f.lookups != 0 {
				t.Error("a transaction was opened for an invalid payload")
			}
		})
	}
}

func TestSubmitSkipsAnswersWithoutQuestionID(t *testing.T) {
	f := newFakeStore()
	svc, _ := newTestService(t, f)

	res, err := svc.Submit(context.Background(), model.Submission{
		ParticipantID: 10,
		ExamID:        20,
		Answers: []model.AnswerInput{
			{Type: model.QuestionEssay, Text: strp("orphan")},
			{QuestionID: 1, Type: model.QuestionMultipleChoice, Text: strp("1")},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Count != 1 || res.Skipped != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(f.committed) != 1 || f.committed[0].QuestionID != 1 {
		t.Fatalf("expected exactly the keyed row, got %+v", f.committed)
	}
}

func TestSubmitUsesStoredQuestionType(t *testing.T) {
	f := newFakeStore()
	svc, _ := newTestService(t, f)

	// The client claims short answer for a multiple-choice question and sends
	// the correct option's label.
	_, err := svc.Submit(context.Background(), model.Submission{
		ParticipantID: 10,
		ExamID:        20,
		Answers:       []model.AnswerInput{{QuestionID: 1, Type: model.QuestionShortAnswer, Text: strp("B")}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	row := f.committed[0]
	if row.Correct || row.Text != nil {
		t.Errorf("label accepted as option id: %+v", row)
	}
}

func TestSubmitUnknownQuestionUsesSentType(t *testing.T) {
	f := newFakeStore()
	svc, _ := newTestService(t, f)

	_, err := svc.Submit(context.Background(), model.Submission{
		ParticipantID: 10,
		ExamID:        20,
		Answers:       []model.AnswerInput{{QuestionID: 99, Type: model.QuestionEssay, Text: strp("x")}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if row := f.committed[0]; row.Text == nil || *row.Text != "x" || row.Correct {
		t.Errorf("unexpected row %+v", row)
	}
}

func TestSubmitTwiceDuplicatesRows(t *testing.T) {
	f := newFakeStore()
	svc := New(f, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Submit(context.Background(), fullSubmission()); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	if len(f.committed) != 6 {
		t.Errorf("expected 6 rows after resubmission, got %d", len(f.committed))
	}
	if f.committed[0].SubmissionID == f.committed[3].SubmissionID {
		t.Error("resubmission reused the submission id")
	}
}

func TestSubmitEmptyBatchCommits(t *testing.T) {
	f := newFakeStore()
	svc, _ := newTestService(t, f)
	res, err := svc.Submit(context.Background(), model.Submission{ParticipantID: 1, ExamID: 1, Answers: []model.AnswerInput{}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Count != 0 || !f.lastTxDone {
		t.Errorf("unexpected result %+v", res)
	}
}
