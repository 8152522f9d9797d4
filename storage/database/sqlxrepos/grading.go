package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/grading"
)

const submissionColumns = "id, student_id, quiz_id, score, submitted_at"

type submissionRow struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	QuizID      string    `db:"quiz_id"`
	Score       float64   `db:"score"`
	SubmittedAt time.Time `db:"submitted_at"`
}

func unboilSubmission(row submissionRow) grading.Submission {
	return grading.Submission{
		ID:          row.ID,
		StudentID:   row.StudentID,
		QuizID:      row.QuizID,
		Score:       row.Score,
		SubmittedAt: row.SubmittedAt.UTC(),
	}
}

type gradingRepository struct {
	repository
}

var _ grading.Repository = (*gradingRepository)(nil) // interface compliance check

func NewGradingRepository(exec core.DBExecutor) *gradingRepository {
	return &gradingRepository{repository{exec: exec}}
}

func (repo gradingRepository) UpsertSubmission(ctx context.Context, s grading.Submission, exec ...core.DBExecutor) (grading.Submission, error) {
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind(`
		INSERT INTO quiz_submissions (`+submissionColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id, quiz_id) DO UPDATE
		SET score = excluded.score, submitted_at = excluded.submitted_at`),
		newID(), s.StudentID, s.QuizID, s.Score, s.SubmittedAt.UTC(),
	)
	if err != nil {
		return grading.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return repo.GetSubmission(ctx, s.StudentID, s.QuizID, exe)
}

func (repo gradingRepository) GetSubmission(ctx context.Context, studentID, quizID string, exec ...core.DBExecutor) (grading.Submission, error) {
	var row submissionRow
	err := get(ctx, repo.getExec(exec), &row,
		"SELECT "+submissionColumns+" FROM quiz_submissions WHERE student_id = ? AND quiz_id = ?", studentID, quizID)
	if err != nil {
		return grading.Submission{}, trapNoRowsErr(err, grading.ErrSubmissionNotFound, "finding submission")
	}
	return unboilSubmission(row), nil
}

func (repo gradingRepository) ListSubmissions(ctx context.Context, quizID string, exec ...core.DBExecutor) ([]grading.Submission, error) {
	var rows []submissionRow
	err := selectAll(ctx, repo.getExec(exec), &rows,
		"SELECT "+submissionColumns+" FROM quiz_submissions WHERE quiz_id = ? ORDER BY score DESC, submitted_at", quizID)
	if err != nil {
		return nil, errors.Wrap(err, "listing submissions")
	}
	subs := make([]grading.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, unboilSubmission(row))
	}
	return subs, nil
}
