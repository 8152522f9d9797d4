package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/enrollment"
)

const (
	enrollmentColumns = "id, student_id, course_id, status, enrolled_at"
	progressColumns   = "id, student_id, lesson_id, started_at, completed_at"
)

type (
	enrollmentRow struct {
		ID         string    `db:"id"`
		StudentID  string    `db:"student_id"`
		CourseID   string    `db:"course_id"`
		Status     string    `db:"status"`
		EnrolledAt time.Time `db:"enrolled_at"`
	}

	progressRow struct {
		ID          string    `db:"id"`
		StudentID   string    `db:"student_id"`
		LessonID    string    `db:"lesson_id"`
		StartedAt   time.Time `db:"started_at"`
		CompletedAt null.Time `db:"completed_at"`
	}
)

func unboilEnrollment(row enrollmentRow) enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:         row.ID,
		StudentID:  row.StudentID,
		CourseID:   row.CourseID,
		Status:     row.Status,
		EnrolledAt: row.EnrolledAt.UTC(),
	}
}

func unboilProgress(row progressRow) enrollment.Progress {
	p := enrollment.Progress{
		ID:          row.ID,
		StudentID:   row.StudentID,
		LessonID:    row.LessonID,
		StartedAt:   row.StartedAt.UTC(),
		CompletedAt: row.CompletedAt,
	}
	if p.CompletedAt.Valid {
		p.CompletedAt.Time = p.CompletedAt.Time.UTC()
	}
	return p
}

type enrollmentRepository struct {
	repository
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{repository{exec: exec}}
}

// UpsertEnrollment keeps the original enrollment date of a returning student.
func (repo enrollmentRepository) UpsertEnrollment(ctx context.Context, e enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind(`
		INSERT INTO enrollments (`+enrollmentColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id, course_id) DO UPDATE
		SET status = excluded.status`),
		newID(), e.StudentID, e.CourseID, e.Status, e.EnrolledAt.UTC(),
	)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "upserting enrollment")
	}
	return repo.GetEnrollment(ctx, e.StudentID, e.CourseID, exe)
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	var row enrollmentRow
	err := get(ctx, repo.getExec(exec), &row,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE student_id = ? AND course_id = ?", studentID, courseID)
	if err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrEnrollmentNotFound, "finding enrollment")
	}
	return unboilEnrollment(row), nil
}

func (repo enrollmentRepository) TransitionEnrollment(ctx context.Context, studentID, courseID, from, to string, exec ...core.DBExecutor) (bool, error) {
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind("UPDATE enrollments SET status = ? WHERE student_id = ? AND course_id = ? AND status = ?"),
		to, studentID, courseID, from)
	if err != nil {
		return false, errors.Wrap(err, "updating enrollment status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting affected rows")
	}
	return n > 0, nil
}

func (repo enrollmentRepository) selectEnrollments(ctx context.Context, exe core.DBExecutor, query string, args ...interface{}) ([]enrollment.Enrollment, error) {
	var rows []enrollmentRow
	if err := selectAll(ctx, exe, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "listing enrollments")
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, unboilEnrollment(row))
	}
	return enrollments, nil
}

func (repo enrollmentRepository) ListStudentEnrollments(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	return repo.selectEnrollments(ctx, repo.getExec(exec),
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE student_id = ? ORDER BY enrolled_at DESC", studentID)
}

func (repo enrollmentRepository) ListCourseEnrollments(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	return repo.selectEnrollments(ctx, repo.getExec(exec),
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE course_id = ? ORDER BY enrolled_at", courseID)
}

func (repo enrollmentRepository) getProgress(ctx context.Context, exe core.DBExecutor, studentID, lessonID string) (enrollment.Progress, error) {
	var row progressRow
	err := get(ctx, exe, &row, "SELECT "+progressColumns+" FROM progress WHERE student_id = ? AND lesson_id = ?", studentID, lessonID)
	if err != nil {
		return enrollment.Progress{}, errors.Wrap(err, "finding progress")
	}
	return unboilProgress(row), nil
}

func (repo enrollmentRepository) StartProgress(ctx context.Context, p enrollment.Progress, exec ...core.DBExecutor) (enrollment.Progress, error) {
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind(`
		INSERT INTO progress (`+progressColumns+`)
		VALUES (?, ?, ?, ?, NULL)
		ON CONFLICT (student_id, lesson_id) DO NOTHING`),
		newID(), p.StudentID, p.LessonID, p.StartedAt.UTC(),
	)
	if err != nil {
		return enrollment.Progress{}, errors.Wrap(err, "inserting progress")
	}
	return repo.getProgress(ctx, exe, p.StudentID, p.LessonID)
}

func (repo enrollmentRepository) CompleteProgress(ctx context.Context, p enrollment.Progress, exec ...core.DBExecutor) (enrollment.Progress, error) {
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind(`
		INSERT INTO progress (`+progressColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id, lesson_id) DO UPDATE
		SET completed_at = COALESCE(progress.completed_at, excluded.completed_at)`),
		newID(), p.StudentID, p.LessonID, p.StartedAt.UTC(), p.CompletedAt,
	)
	if err != nil {
		return enrollment.Progress{}, errors.Wrap(err, "completing progress")
	}
	return repo.getProgress(ctx, exe, p.StudentID, p.LessonID)
}

func (repo enrollmentRepository) CountRemainingLessons(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (int, error) {
	var count int
	err := get(ctx, repo.getExec(exec), &count, `
		SELECT COUNT(*)
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		LEFT JOIN progress p ON p.lesson_id = l.id AND p.student_id = ?
		WHERE m.course_id = ? AND p.completed_at IS NULL`,
		studentID, courseID,
	)
	return count, errors.Wrap(err, "counting remaining lessons")
}
