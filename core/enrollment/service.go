package enrollment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/catalog"
	"github.com/trezcool/pal/core/policy"
)

var (
	// errors
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrNotEnrolled        = core.NewStateError("You are not enrolled in this course.")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// UpsertEnrollment creates an in_progress enrollment, or resets the existing one to in_progress.
		UpsertEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollment(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (Enrollment, error)
		// TransitionEnrollment moves an enrollment from one status to another in a single conditional update.
		// It reports whether a row was changed.
		TransitionEnrollment(ctx context.Context, studentID, courseID, from, to string, exec ...core.DBExecutor) (bool, error)
		// ListStudentEnrollments orders enrollments by enrollment date, newest first.
		ListStudentEnrollments(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Enrollment, error)
		ListCourseEnrollments(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Enrollment, error)

		// StartProgress records that a lesson was started; an existing record is left untouched.
		StartProgress(ctx context.Context, p Progress, exec ...core.DBExecutor) (Progress, error)
		// CompleteProgress marks a lesson completed, starting it first if needed.
		// The first completion time is kept.
		CompleteProgress(ctx context.Context, p Progress, exec ...core.DBExecutor) (Progress, error)
		// CountRemainingLessons counts the lessons of a course the student has not completed.
		CountRemainingLessons(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Enroll(ctx context.Context, actor account.Account, courseID string) (Enrollment, error)
		Drop(ctx context.Context, actor account.Account, courseID string) (Enrollment, error)
		StartLesson(ctx context.Context, actor account.Account, lessonID string) (Progress, error)
		// CompleteLesson completes the enrollment once every lesson of the course is completed.
		CompleteLesson(ctx context.Context, actor account.Account, lessonID string) (Progress, Enrollment, error)
		ListEnrollments(ctx context.Context, actor account.Account) ([]Enrollment, error)
		ListCourseEnrollments(ctx context.Context, actor account.Account, courseID string) ([]Enrollment, error)
		// CheckEnrolled returns ErrNotEnrolled unless the actor holds an enrollment to the course
		// that was not dropped.
		CheckEnrolled(ctx context.Context, actor account.Account, courseID string) error
	}

	service struct {
		db     core.DB
		repo   Repository
		catSvc catalog.Service
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, catSvc catalog.Service) Service {
	return &service{
		db:     db,
		repo:   repo,
		catSvc: catSvc,
	}
}

func studentsOnly(c catalog.Course) error {
	return core.NewPermissionError("Only students can enroll in courses.", catalog.CoursePath(c.ID))
}

func (svc *service) Enroll(ctx context.Context, actor account.Account, courseID string) (Enrollment, error) {
	c, err := svc.catSvc.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !policy.CanEnroll(actor) {
		return Enrollment{}, studentsOnly(c)
	}

	e, err := svc.repo.UpsertEnrollment(ctx, Enrollment{
		StudentID:  actor.ID,
		CourseID:   c.ID,
		Status:     StatusInProgress,
		EnrolledAt: nowFunc().UTC(),
	})
	return e, errors.Wrap(err, "enrolling")
}

// Drop only applies to in_progress enrollments; nothing changes otherwise.
func (svc *service) Drop(ctx context.Context, actor account.Account, courseID string) (Enrollment, error) {
	c, err := svc.catSvc.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !policy.CanEnroll(actor) {
		return Enrollment{}, studentsOnly(c)
	}

	dropped, err := svc.repo.TransitionEnrollment(ctx, actor.ID, c.ID, StatusInProgress, StatusDropped)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "dropping enrollment")
	}
	if !dropped {
		return Enrollment{}, ErrNotEnrolled
	}
	return svc.repo.GetEnrollment(ctx, actor.ID, c.ID)
}

func (svc *service) lessonCourse(ctx context.Context, actor account.Account, lessonID string) (catalog.Course, error) {
	c, err := svc.catSvc.GetCourseForLesson(ctx, lessonID)
	if err != nil {
		return catalog.Course{}, err
	}
	if err = svc.CheckEnrolled(ctx, actor, c.ID); err != nil {
		return catalog.Course{}, err
	}
	return c, nil
}

func (svc *service) CheckEnrolled(ctx context.Context, actor account.Account, courseID string) error {
	e, err := svc.repo.GetEnrollment(ctx, actor.ID, courseID)
	if err != nil {
		if err == ErrEnrollmentNotFound {
			return ErrNotEnrolled
		}
		return errors.Wrap(err, "finding enrollment")
	}
	if e.Status == StatusDropped {
		return ErrNotEnrolled
	}
	return nil
}

func (svc *service) StartLesson(ctx context.Context, actor account.Account, lessonID string) (Progress, error) {
	if _, err := svc.lessonCourse(ctx, actor, lessonID); err != nil {
		return Progress{}, err
	}
	p, err := svc.repo.StartProgress(ctx, Progress{
		StudentID: actor.ID,
		LessonID:  lessonID,
		StartedAt: nowFunc().UTC(),
	})
	return p, errors.Wrap(err, "starting lesson")
}

func (svc *service) CompleteLesson(ctx context.Context, actor account.Account, lessonID string) (Progress, Enrollment, error) {
	c, err := svc.lessonCourse(ctx, actor, lessonID)
	if err != nil {
		return Progress{}, Enrollment{}, err
	}

	var (
		p Progress
		e Enrollment
	)
	err = core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		now := nowFunc().UTC()
		p, err = svc.repo.CompleteProgress(ctx, Progress{StudentID: actor.ID, LessonID: lessonID, StartedAt: now, CompletedAt: null.TimeFrom(now)}, tx)
		if err != nil {
			return errors.Wrap(err, "completing lesson")
		}

		remaining, err := svc.repo.CountRemainingLessons(ctx, actor.ID, c.ID, tx)
		if err != nil {
			return errors.Wrap(err, "counting remaining lessons")
		}
		if remaining == 0 {
			if _, err = svc.repo.TransitionEnrollment(ctx, actor.ID, c.ID, StatusInProgress, StatusCompleted, tx); err != nil {
				return errors.Wrap(err, "completing enrollment")
			}
		}
		e, err = svc.repo.GetEnrollment(ctx, actor.ID, c.ID, tx)
		return err
	})
	if err != nil {
		return Progress{}, Enrollment{}, err
	}
	return p, e, nil
}

func (svc *service) ListEnrollments(ctx context.Context, actor account.Account) ([]Enrollment, error) {
	return svc.repo.ListStudentEnrollments(ctx, actor.ID)
}

func (svc *service) ListCourseEnrollments(ctx context.Context, actor account.Account, courseID string) ([]Enrollment, error) {
	c, err := svc.catSvc.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !policy.CanModify(actor, c) {
		return nil, core.NewPermissionError("You don't have permission to view the enrollments of this course.", catalog.CoursePath(c.ID))
	}
	return svc.repo.ListCourseEnrollments(ctx, c.ID)
}
