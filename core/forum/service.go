package forum

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/catalog"
	"github.com/trezcool/pal/core/policy"
)

var (
	// errors
	ErrThreadNotFound  = core.NewNotFoundError("thread")
	ErrCommentNotFound = core.NewNotFoundError("comment")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateThread(ctx context.Context, t Thread, exec ...core.DBExecutor) (Thread, error)
		GetThread(ctx context.Context, id string, exec ...core.DBExecutor) (Thread, error)
		// ListThreads orders threads newest first.
		ListThreads(ctx context.Context, filter ThreadFilter, exec ...core.DBExecutor) ([]Thread, error)
		DeleteThread(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateComment(ctx context.Context, c Comment, exec ...core.DBExecutor) (Comment, error)
		GetComment(ctx context.Context, id string, exec ...core.DBExecutor) (Comment, error)
		// ListComments orders comments oldest first.
		ListComments(ctx context.Context, threadID string, exec ...core.DBExecutor) ([]Comment, error)
		DeleteComment(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateThread(ctx context.Context, actor account.Account, lessonID string, nt NewThread) (ThreadDetail, error)
		ListThreads(ctx context.Context, filter ThreadFilter) ([]Thread, error)
		GetThread(ctx context.Context, id string) (ThreadDetail, error)
		// DeleteThread and DeleteComment are allowed to the author, the course owner and admins.
		DeleteThread(ctx context.Context, actor account.Account, id string) error
		AddComment(ctx context.Context, actor account.Account, threadID string, nc NewComment) (Comment, error)
		DeleteComment(ctx context.Context, actor account.Account, id string) error
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

func (svc *service) CreateThread(ctx context.Context, actor account.Account, lessonID string, nt NewThread) (ThreadDetail, error) {
	if _, err := svc.catSvc.GetLesson(ctx, lessonID); err != nil {
		return ThreadDetail{}, err
	}

	detail := ThreadDetail{Comments: []Comment{}}
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		now := nowFunc().UTC()
		t, err := svc.repo.CreateThread(ctx, Thread{LessonID: lessonID, CreatedBy: actor.ID, Title: nt.Title, CreatedAt: now}, tx)
		if err != nil {
			return errors.Wrap(err, "creating thread")
		}
		detail.Thread = t

		if nt.Body != "" {
			c, err := svc.repo.CreateComment(ctx, Comment{ThreadID: t.ID, UserID: actor.ID, Body: nt.Body, CreatedAt: now}, tx)
			if err != nil {
				return errors.Wrap(err, "creating comment")
			}
			detail.Comments = append(detail.Comments, c)
		}
		return nil
	})
	if err != nil {
		return ThreadDetail{}, err
	}
	return detail, nil
}

func (svc *service) ListThreads(ctx context.Context, filter ThreadFilter) ([]Thread, error) {
	if _, err := svc.catSvc.GetLesson(ctx, filter.LessonID); err != nil {
		return nil, err
	}
	return svc.repo.ListThreads(ctx, filter)
}

func (svc *service) GetThread(ctx context.Context, id string) (ThreadDetail, error) {
	t, err := svc.repo.GetThread(ctx, id)
	if err != nil {
		return ThreadDetail{}, err
	}
	comments, err := svc.repo.ListComments(ctx, id)
	if err != nil {
		return ThreadDetail{}, errors.Wrap(err, "listing comments")
	}
	if comments == nil {
		comments = []Comment{}
	}
	return ThreadDetail{Thread: t, Comments: comments}, nil
}

// canModerate reports whether actor may delete content authored by authorID on the given lesson.
func (svc *service) canModerate(ctx context.Context, actor account.Account, authorID, lessonID string) (bool, catalog.Course, error) {
	c, err := svc.catSvc.GetCourseForLesson(ctx, lessonID)
	if err != nil {
		return false, catalog.Course{}, errors.Wrap(err, "finding course for lesson")
	}
	if actor.ID != "" && actor.ID == authorID {
		return true, c, nil
	}
	return policy.CanModify(actor, c), c, nil
}

func (svc *service) DeleteThread(ctx context.Context, actor account.Account, id string) error {
	t, err := svc.repo.GetThread(ctx, id)
	if err != nil {
		return err
	}
	ok, c, err := svc.canModerate(ctx, actor, t.CreatedBy, t.LessonID)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewPermissionError("You don't have permission to delete this thread.", catalog.CoursePath(c.ID))
	}
	return errors.Wrap(svc.repo.DeleteThread(ctx, id), "deleting thread")
}

func (svc *service) AddComment(ctx context.Context, actor account.Account, threadID string, nc NewComment) (Comment, error) {
	t, err := svc.repo.GetThread(ctx, threadID)
	if err != nil {
		return Comment{}, err
	}
	c, err := svc.repo.CreateComment(ctx, Comment{ThreadID: t.ID, UserID: actor.ID, Body: nc.Body, CreatedAt: nowFunc().UTC()})
	return c, errors.Wrap(err, "creating comment")
}

func (svc *service) DeleteComment(ctx context.Context, actor account.Account, id string) error {
	cm, err := svc.repo.GetComment(ctx, id)
	if err != nil {
		return err
	}
	t, err := svc.repo.GetThread(ctx, cm.ThreadID)
	if err != nil {
		return errors.Wrap(err, "finding thread")
	}
	ok, c, err := svc.canModerate(ctx, actor, cm.UserID, t.LessonID)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewPermissionError("You don't have permission to delete this comment.", catalog.CoursePath(c.ID))
	}
	return errors.Wrap(svc.repo.DeleteComment(ctx, id), "deleting comment")
}
