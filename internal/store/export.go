package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/ujian/internal/model"
)

// ExportExam builds the export document for one exam: every enrolled
// participant with their counts and graded answers. It returns nil if the
// exam does not exist.
func (s *Store) ExportExam(ctx context.Context, examID int64) (*model.ExamExport, error) {
	exam, err := s.GetExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam %d: %w", examID, err)
	}
	if exam == nil {
		return nil, nil
	}

	summaries, err := s.ExamSummary(ctx, examID)
	if err != nil {
		return nil, err
	}

	out := &model.ExamExport{
		Exam:       *exam,
		ExportedAt: time.Now().UTC(),
		Results:    make([]model.ParticipantResult, 0, len(summaries)),
	}
	for _, ps := range summaries {
		answers, err := s.ParticipantAnswers(ctx, examID, ps.ParticipantID)
		if err != nil {
			return nil, err
		}
		if answers == nil {
			answers = []model.AnswerView{}
		}
		out.Results = append(out.Results, model.ParticipantResult{
			ParticipantSummary: ps,
			Answers:            answers,
		})
	}
	return out, nil
}
