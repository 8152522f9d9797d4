package assessment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/catalog"
	"github.com/trezcool/pal/core/policy"
)

var (
	// errors
	ErrQuizNotFound     = core.NewNotFoundError("quiz")
	ErrQuestionNotFound = core.NewNotFoundError("question")
	ErrChoiceNotFound   = core.NewNotFoundError("choice")
	ErrQuizExists       = core.NewStateError("This lesson already has a quiz.")
	ErrLastChoice       = core.NewStateError(choicesMinText)
	ErrLastCorrect      = core.NewStateError(choicesCorrectText)
)

func denied(action, entity string, course catalog.Course) error {
	return core.NewPermissionError("You don't have permission to "+action+" this "+entity+".", catalog.CoursePath(course.ID))
}

type (
	Repository interface {
		// CreateQuiz returns ErrQuizExists when the lesson already has a quiz.
		CreateQuiz(ctx context.Context, q Quiz, exec ...core.DBExecutor) (Quiz, error)
		GetQuiz(ctx context.Context, id string, exec ...core.DBExecutor) (Quiz, error)
		GetQuizForLesson(ctx context.Context, lessonID string, exec ...core.DBExecutor) (Quiz, error)
		UpdateQuiz(ctx context.Context, q Quiz, exec ...core.DBExecutor) (Quiz, error)
		DeleteQuiz(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		GetQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (Question, error)
		UpdateQuestion(ctx context.Context, q Question, exec ...core.DBExecutor) (Question, error)
		DeleteQuestion(ctx context.Context, id string, exec ...core.DBExecutor) error
		// ListQuestions returns the questions of a quiz with their choices, both ordered by sort order.
		ListQuestions(ctx context.Context, quizID string, exec ...core.DBExecutor) ([]Question, error)
		// MaxQuestionOrder returns -1 when the quiz has no questions.
		MaxQuestionOrder(ctx context.Context, quizID string, exec ...core.DBExecutor) (int, error)

		CreateChoice(ctx context.Context, c Choice, exec ...core.DBExecutor) (Choice, error)
		UpdateChoice(ctx context.Context, c Choice, exec ...core.DBExecutor) (Choice, error)
		GetChoice(ctx context.Context, id string, exec ...core.DBExecutor) (Choice, error)
		ListChoices(ctx context.Context, questionID string, exec ...core.DBExecutor) ([]Choice, error)
		DeleteChoices(ctx context.Context, ids []string, exec ...core.DBExecutor) error

		GetCourseForQuiz(ctx context.Context, quizID string, exec ...core.DBExecutor) (catalog.Course, error)
		GetCourseForQuestion(ctx context.Context, questionID string, exec ...core.DBExecutor) (catalog.Course, error)
		GetCourseForChoice(ctx context.Context, choiceID string, exec ...core.DBExecutor) (catalog.Course, error)
	}

	Service interface {
		CreateQuiz(ctx context.Context, actor account.Account, lessonID string, nq NewQuiz) (Quiz, error)
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		GetQuizForLesson(ctx context.Context, lessonID string) (Quiz, error)
		// GetQuizDetail includes correctness flags; it must only be served to the course owner or admins.
		GetQuizDetail(ctx context.Context, id string) (QuizDetail, error)
		// Present returns the shuffled, flag-free view of a quiz.
		Present(ctx context.Context, id string) (QuizView, error)
		UpdateQuiz(ctx context.Context, actor account.Account, id string, nq NewQuiz) (Quiz, error)
		DeleteQuiz(ctx context.Context, actor account.Account, id string) error

		CreateQuestion(ctx context.Context, actor account.Account, quizID string, nq NewQuestion) (Question, error)
		UpdateQuestion(ctx context.Context, actor account.Account, id string, nq NewQuestion) (Question, error)
		DeleteQuestion(ctx context.Context, actor account.Account, id string) error
		DeleteChoice(ctx context.Context, actor account.Account, id string) error

		GetCourseForQuiz(ctx context.Context, quizID string) (catalog.Course, error)
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

// Quizzes

func (svc *service) CreateQuiz(ctx context.Context, actor account.Account, lessonID string, nq NewQuiz) (Quiz, error) {
	c, err := svc.catSvc.GetCourseForLesson(ctx, lessonID)
	if err != nil {
		return Quiz{}, err
	}
	if !policy.IsInstructorOrAdmin(actor) || !policy.CanModify(actor, c) {
		return Quiz{}, denied("add a quiz to", "lesson", c)
	}

	if _, err = svc.repo.GetQuizForLesson(ctx, lessonID); err == nil {
		return Quiz{}, ErrQuizExists
	} else if err != ErrQuizNotFound {
		return Quiz{}, errors.Wrap(err, "finding quiz for lesson")
	}

	q, err := svc.repo.CreateQuiz(ctx, Quiz{LessonID: lessonID, Title: nq.Title})
	if err == ErrQuizExists {
		return Quiz{}, err
	}
	return q, errors.Wrap(err, "creating quiz")
}

func (svc *service) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuiz(ctx, id)
}

func (svc *service) GetQuizForLesson(ctx context.Context, lessonID string) (Quiz, error) {
	return svc.repo.GetQuizForLesson(ctx, lessonID)
}

func (svc *service) GetQuizDetail(ctx context.Context, id string) (QuizDetail, error) {
	q, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return QuizDetail{}, err
	}
	questions, err := svc.repo.ListQuestions(ctx, id)
	if err != nil {
		return QuizDetail{}, errors.Wrap(err, "listing questions")
	}
	if questions == nil {
		questions = []Question{}
	}
	return QuizDetail{Quiz: q, Questions: questions}, nil
}

func (svc *service) Present(ctx context.Context, id string) (QuizView, error) {
	detail, err := svc.GetQuizDetail(ctx, id)
	if err != nil {
		return QuizView{}, err
	}
	return Present(detail), nil
}

func (svc *service) UpdateQuiz(ctx context.Context, actor account.Account, id string, nq NewQuiz) (Quiz, error) {
	q, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	c, err := svc.repo.GetCourseForQuiz(ctx, id)
	if err != nil {
		return Quiz{}, errors.Wrap(err, "finding course for quiz")
	}
	if !policy.CanModify(actor, c) {
		return Quiz{}, denied("edit", "quiz", c)
	}

	q.Title = nq.Title
	q, err = svc.repo.UpdateQuiz(ctx, q)
	return q, errors.Wrap(err, "updating quiz")
}

func (svc *service) DeleteQuiz(ctx context.Context, actor account.Account, id string) error {
	c, err := svc.repo.GetCourseForQuiz(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanModify(actor, c) {
		return denied("delete", "quiz", c)
	}
	return errors.Wrap(svc.repo.DeleteQuiz(ctx, id), "deleting quiz")
}

func (svc *service) GetCourseForQuiz(ctx context.Context, quizID string) (catalog.Course, error) {
	return svc.repo.GetCourseForQuiz(ctx, quizID)
}

// Questions

// CreateQuestion appends the question to the quiz unless a sort order is given.
// The question and its choices are saved atomically.
func (svc *service) CreateQuestion(ctx context.Context, actor account.Account, quizID string, nq NewQuestion) (Question, error) {
	c, err := svc.repo.GetCourseForQuiz(ctx, quizID)
	if err != nil {
		return Question{}, err
	}
	if !policy.IsInstructorOrAdmin(actor) || !policy.CanModify(actor, c) {
		return Question{}, denied("add questions to", "quiz", c)
	}

	var q Question
	err = core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		order := 0
		if nq.SortOrder != nil {
			order = *nq.SortOrder
		} else {
			maxOrder, err := svc.repo.MaxQuestionOrder(ctx, quizID, tx)
			if err != nil {
				return errors.Wrap(err, "finding question order")
			}
			order = maxOrder + 1
		}

		q, err = svc.repo.CreateQuestion(ctx, Question{QuizID: quizID, Text: nq.Text, Type: nq.Type, SortOrder: order}, tx)
		if err != nil {
			return errors.Wrap(err, "creating question")
		}
		q.Choices = make([]Choice, 0, len(nq.Choices))
		for i, nc := range nq.Choices {
			ch, err := svc.repo.CreateChoice(ctx, Choice{QuestionID: q.ID, Text: nc.Text, IsCorrect: nc.IsCorrect, SortOrder: i}, tx)
			if err != nil {
				return errors.Wrap(err, "creating choice")
			}
			q.Choices = append(q.Choices, ch)
		}
		return nil
	})
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

// UpdateQuestion replaces the choice set of a question: choices whose ID is kept are updated,
// new ones are created and the missing ones are deleted.
func (svc *service) UpdateQuestion(ctx context.Context, actor account.Account, id string, nq NewQuestion) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	c, err := svc.repo.GetCourseForQuestion(ctx, id)
	if err != nil {
		return Question{}, errors.Wrap(err, "finding course for question")
	}
	if !policy.CanModify(actor, c) {
		return Question{}, denied("edit", "question", c)
	}

	q.Text = nq.Text
	q.Type = nq.Type
	if nq.SortOrder != nil {
		q.SortOrder = *nq.SortOrder
	}

	err = core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if q, err = svc.repo.UpdateQuestion(ctx, q, tx); err != nil {
			return errors.Wrap(err, "updating question")
		}

		existing, err := svc.repo.ListChoices(ctx, q.ID, tx)
		if err != nil {
			return errors.Wrap(err, "listing choices")
		}
		stale := make(map[string]struct{}, len(existing))
		for _, ch := range existing {
			stale[ch.ID] = struct{}{}
		}

		q.Choices = make([]Choice, 0, len(nq.Choices))
		for i, nc := range nq.Choices {
			ch := Choice{ID: nc.ID, QuestionID: q.ID, Text: nc.Text, IsCorrect: nc.IsCorrect, SortOrder: i}
			if _, ok := stale[nc.ID]; ok && nc.ID != "" {
				delete(stale, nc.ID)
				ch, err = svc.repo.UpdateChoice(ctx, ch, tx)
			} else {
				ch.ID = ""
				ch, err = svc.repo.CreateChoice(ctx, ch, tx)
			}
			if err != nil {
				return errors.Wrap(err, "saving choice")
			}
			q.Choices = append(q.Choices, ch)
		}

		if len(stale) > 0 {
			ids := make([]string, 0, len(stale))
			for id := range stale {
				ids = append(ids, id)
			}
			return errors.Wrap(svc.repo.DeleteChoices(ctx, ids, tx), "deleting choices")
		}
		return nil
	})
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

func (svc *service) DeleteQuestion(ctx context.Context, actor account.Account, id string) error {
	c, err := svc.repo.GetCourseForQuestion(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanModify(actor, c) {
		return denied("delete", "question", c)
	}
	return errors.Wrap(svc.repo.DeleteQuestion(ctx, id), "deleting question")
}

// DeleteChoice refuses to leave the question with a choice set that CreateQuestion would reject.
func (svc *service) DeleteChoice(ctx context.Context, actor account.Account, id string) error {
	c, err := svc.repo.GetCourseForChoice(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanModify(actor, c) {
		return denied("delete", "choice", c)
	}

	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		ch, err := svc.repo.GetChoice(ctx, id, tx)
		if err != nil {
			return err
		}
		q, err := svc.repo.GetQuestion(ctx, ch.QuestionID, tx)
		if err != nil {
			return errors.Wrap(err, "finding question")
		}

		var total, correct int
		for _, other := range q.Choices {
			if other.ID == id {
				continue
			}
			total++
			if other.IsCorrect {
				correct++
			}
		}
		switch choiceSetTag(q.Type, total, correct) {
		case choicesMinTag:
			return ErrLastChoice
		case choicesCorrectTag:
			return ErrLastCorrect
		}
		return errors.Wrap(svc.repo.DeleteChoices(ctx, []string{id}, tx), "deleting choice")
	})
}
