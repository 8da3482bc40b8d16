package model

import "time"

// ExamExport is the top-level JSON structure for exam result export.
type ExamExport struct {
	Exam       Exam                `json:"exam"`
	ExportedAt time.Time           `json:"exported_at"`
	Results    []ParticipantResult `json:"results"`
}

// ParticipantResult holds one participant's graded answers for export.
type ParticipantResult struct {
	ParticipantSummary
	Answers []AnswerView `json:"answers"`
}
