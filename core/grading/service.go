package grading

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/assessment"
	"github.com/trezcool/pal/core/catalog"
	"github.com/trezcool/pal/core/enrollment"
	"github.com/trezcool/pal/core/policy"
)

var (
	// errors
	ErrSubmissionNotFound = core.NewNotFoundError("submission")

	nowFunc = time.Now // mockable
)

type Submission struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	QuizID      string    `json:"quiz_id"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

// SubmitAnswers is the body of a quiz submission: question ID -> selected choice IDs.
type SubmitAnswers struct {
	Answers Answers `json:"answers"`
}

type (
	Repository interface {
		// UpsertSubmission saves the one submission of a student for a quiz in a single statement.
		// A resubmission overwrites the score and submission time and keeps the ID.
		UpsertSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmission(ctx context.Context, studentID, quizID string, exec ...core.DBExecutor) (Submission, error)
		// ListSubmissions orders submissions by score, best first.
		ListSubmissions(ctx context.Context, quizID string, exec ...core.DBExecutor) ([]Submission, error)
	}

	Service interface {
		// Submit grades the answers of the actor and stores the result.
		// Only students enrolled in the quiz's course may submit.
		Submit(ctx context.Context, actor account.Account, quizID string, answers Answers) (Submission, Result, error)
		GetSubmission(ctx context.Context, actor account.Account, quizID string) (Submission, error)
		// ListSubmissions is reserved to the course owner and admins.
		ListSubmissions(ctx context.Context, actor account.Account, quizID string) ([]Submission, error)
	}

	service struct {
		repo    Repository
		quizSvc assessment.Service
		enrSvc  enrollment.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, quizSvc assessment.Service, enrSvc enrollment.Service) Service {
	return &service{
		repo:    repo,
		quizSvc: quizSvc,
		enrSvc:  enrSvc,
	}
}

func (svc *service) Submit(ctx context.Context, actor account.Account, quizID string, answers Answers) (Submission, Result, error) {
	c, err := svc.quizSvc.GetCourseForQuiz(ctx, quizID)
	if err != nil {
		return Submission{}, Result{}, err
	}
	if !policy.CanEnroll(actor) {
		return Submission{}, Result{}, core.NewPermissionError("Only students can take quizzes.", catalog.CoursePath(c.ID))
	}
	if err = svc.enrSvc.CheckEnrolled(ctx, actor, c.ID); err != nil {
		return Submission{}, Result{}, err
	}

	detail, err := svc.quizSvc.GetQuizDetail(ctx, quizID)
	if err != nil {
		return Submission{}, Result{}, err
	}

	res := Grade(detail.Questions, answers)
	sub, err := svc.repo.UpsertSubmission(ctx, Submission{
		StudentID:   actor.ID,
		QuizID:      detail.ID,
		Score:       res.Score,
		SubmittedAt: nowFunc().UTC(),
	})
	if err != nil {
		return Submission{}, Result{}, errors.Wrap(err, "saving submission")
	}
	return sub, res, nil
}

func (svc *service) GetSubmission(ctx context.Context, actor account.Account, quizID string) (Submission, error) {
	if _, err := svc.quizSvc.GetQuiz(ctx, quizID); err != nil {
		return Submission{}, err
	}
	return svc.repo.GetSubmission(ctx, actor.ID, quizID)
}

func (svc *service) ListSubmissions(ctx context.Context, actor account.Account, quizID string) ([]Submission, error) {
	c, err := svc.quizSvc.GetCourseForQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !policy.CanModify(actor, c) {
		return nil, core.NewPermissionError("You don't have permission to view the submissions of this quiz.", catalog.CoursePath(c.ID))
	}
	return svc.repo.ListSubmissions(ctx, quizID)
}
