package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/forum"
)

const (
	threadColumns  = "id, lesson_id, created_by, title, created_at"
	commentColumns = "id, thread_id, user_id, body, created_at"
)

type (
	threadRow struct {
		ID        string    `db:"id"`
		LessonID  string    `db:"lesson_id"`
		CreatedBy string    `db:"created_by"`
		Title     string    `db:"title"`
		CreatedAt time.Time `db:"created_at"`
	}

	commentRow struct {
		ID        string    `db:"id"`
		ThreadID  string    `db:"thread_id"`
		UserID    string    `db:"user_id"`
		Body      string    `db:"body"`
		CreatedAt time.Time `db:"created_at"`
	}
)

func unboilThread(row threadRow) forum.Thread {
	return forum.Thread{ID: row.ID, LessonID: row.LessonID, CreatedBy: row.CreatedBy, Title: row.Title, CreatedAt: row.CreatedAt.UTC()}
}

func unboilComment(row commentRow) forum.Comment {
	return forum.Comment{ID: row.ID, ThreadID: row.ThreadID, UserID: row.UserID, Body: row.Body, CreatedAt: row.CreatedAt.UTC()}
}

type forumRepository struct {
	repository
}

var _ forum.Repository = (*forumRepository)(nil) // interface compliance check

func NewForumRepository(exec core.DBExecutor) *forumRepository {
	return &forumRepository{repository{exec: exec}}
}

// Threads

func (repo forumRepository) CreateThread(ctx context.Context, t forum.Thread, exec ...core.DBExecutor) (forum.Thread, error) {
	t.ID = newID()
	t.CreatedAt = t.CreatedAt.UTC()
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind("INSERT INTO discussion_threads ("+threadColumns+") VALUES (?, ?, ?, ?, ?)"),
		t.ID, t.LessonID, t.CreatedBy, t.Title, t.CreatedAt)
	if err != nil {
		return forum.Thread{}, errors.Wrap(err, "inserting thread")
	}
	return t, nil
}

func (repo forumRepository) GetThread(ctx context.Context, id string, exec ...core.DBExecutor) (forum.Thread, error) {
	if !validID(id) {
		return forum.Thread{}, forum.ErrThreadNotFound
	}
	var row threadRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+threadColumns+" FROM discussion_threads WHERE id = ?", id); err != nil {
		return forum.Thread{}, trapNoRowsErr(err, forum.ErrThreadNotFound, "finding thread")
	}
	return unboilThread(row), nil
}

func (repo forumRepository) ListThreads(ctx context.Context, filter forum.ThreadFilter, exec ...core.DBExecutor) ([]forum.Thread, error) {
	b := builder.Select(threadColumns).From("discussion_threads").Where(sq.Eq{"lesson_id": filter.LessonID})
	if filter.CreatedBy != "" {
		b = b.Where(sq.Eq{"created_by": filter.CreatedBy})
	}
	if filter.Search != "" {
		b = b.Where(contains("title", filter.Search))
	}
	b = b.OrderBy("created_at DESC", "id")

	var rows []threadRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "listing threads")
	}
	threads := make([]forum.Thread, 0, len(rows))
	for _, row := range rows {
		threads = append(threads, unboilThread(row))
	}
	return threads, nil
}

func (repo forumRepository) DeleteThread(ctx context.Context, id string, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), forum.ErrThreadNotFound, "DELETE FROM discussion_threads WHERE id = ?", id)
	if err != nil && err != forum.ErrThreadNotFound {
		return errors.Wrap(err, "deleting thread")
	}
	return err
}

// Comments

func (repo forumRepository) CreateComment(ctx context.Context, c forum.Comment, exec ...core.DBExecutor) (forum.Comment, error) {
	c.ID = newID()
	c.CreatedAt = c.CreatedAt.UTC()
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind("INSERT INTO comments ("+commentColumns+") VALUES (?, ?, ?, ?, ?)"),
		c.ID, c.ThreadID, c.UserID, c.Body, c.CreatedAt)
	if err != nil {
		return forum.Comment{}, errors.Wrap(err, "inserting comment")
	}
	return c, nil
}

func (repo forumRepository) GetComment(ctx context.Context, id string, exec ...core.DBExecutor) (forum.Comment, error) {
	if !validID(id) {
		return forum.Comment{}, forum.ErrCommentNotFound
	}
	var row commentRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+commentColumns+" FROM comments WHERE id = ?", id); err != nil {
		return forum.Comment{}, trapNoRowsErr(err, forum.ErrCommentNotFound, "finding comment")
	}
	return unboilComment(row), nil
}

func (repo forumRepository) ListComments(ctx context.Context, threadID string, exec ...core.DBExecutor) ([]forum.Comment, error) {
	var rows []commentRow
	err := selectAll(ctx, repo.getExec(exec), &rows,
		"SELECT "+commentColumns+" FROM comments WHERE thread_id = ? ORDER BY created_at, id", threadID)
	if err != nil {
		return nil, errors.Wrap(err, "listing comments")
	}
	comments := make([]forum.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, unboilComment(row))
	}
	return comments, nil
}

func (repo forumRepository) DeleteComment(ctx context.Context, id string, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), forum.ErrCommentNotFound, "DELETE FROM comments WHERE id = ?", id)
	if err != nil && err != forum.ErrCommentNotFound {
		return errors.Wrap(err, "deleting comment")
	}
	return err
}
