package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/catalog"
)

const (
	courseColumns = "c.id, c.title, c.description, c.topic, c.difficulty, c.instructor_id, c.created_at, c.updated_at"
	moduleColumns = "m.id, m.course_id, m.title, m.sort_order"
	lessonColumns = "l.id, l.module_id, l.title, l.content_type, l.content_url, l.body, l.sort_order"
)

type (
	courseRow struct {
		ID           string      `db:"id"`
		Title        string      `db:"title"`
		Description  null.String `db:"description"`
		Topic        string      `db:"topic"`
		Difficulty   string      `db:"difficulty"`
		InstructorID string      `db:"instructor_id"`
		CreatedAt    time.Time   `db:"created_at"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}

	moduleRow struct {
		ID        string `db:"id"`
		CourseID  string `db:"course_id"`
		Title     string `db:"title"`
		SortOrder int    `db:"sort_order"`
	}

	lessonRow struct {
		ID          string      `db:"id"`
		ModuleID    string      `db:"module_id"`
		Title       string      `db:"title"`
		ContentType string      `db:"content_type"`
		ContentURL  null.String `db:"content_url"`
		Body        string      `db:"body"`
		SortOrder   int         `db:"sort_order"`
	}
)

func boilCourse(c catalog.Course) courseRow {
	return courseRow{
		ID:           c.ID,
		Title:        c.Title,
		Description:  null.NewString(c.Description, c.Description != ""),
		Topic:        c.Topic,
		Difficulty:   c.Difficulty,
		InstructorID: c.InstructorID,
		CreatedAt:    c.CreatedAt.UTC(),
		UpdatedAt:    c.UpdatedAt.UTC(),
	}
}

func unboilCourse(row courseRow) catalog.Course {
	return catalog.Course{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description.String,
		Topic:        row.Topic,
		Difficulty:   row.Difficulty,
		InstructorID: row.InstructorID,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func unboilModule(row moduleRow) catalog.Module {
	return catalog.Module{ID: row.ID, CourseID: row.CourseID, Title: row.Title, SortOrder: row.SortOrder}
}

func boilLesson(l catalog.Lesson) lessonRow {
	return lessonRow{
		ID:          l.ID,
		ModuleID:    l.ModuleID,
		Title:       l.Title,
		ContentType: l.ContentType,
		ContentURL:  null.NewString(l.ContentURL, l.ContentURL != ""),
		Body:        l.Body,
		SortOrder:   l.SortOrder,
	}
}

func unboilLesson(row lessonRow) catalog.Lesson {
	return catalog.Lesson{
		ID:          row.ID,
		ModuleID:    row.ModuleID,
		Title:       row.Title,
		ContentType: row.ContentType,
		ContentURL:  row.ContentURL.String,
		Body:        row.Body,
		SortOrder:   row.SortOrder,
	}
}

type catalogRepository struct {
	repository
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(exec core.DBExecutor) *catalogRepository {
	return &catalogRepository{repository{exec: exec}}
}

// Courses

func (repo catalogRepository) CreateCourse(ctx context.Context, c catalog.Course, exec ...core.DBExecutor) (catalog.Course, error) {
	c.ID = newID()
	row := boilCourse(c)
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind(`
		INSERT INTO courses (id, title, description, topic, difficulty, instructor_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		row.ID, row.Title, row.Description, row.Topic, row.Difficulty, row.InstructorID, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return catalog.Course{}, errors.Wrap(err, "inserting course")
	}
	return unboilCourse(row), nil
}

func (repo catalogRepository) QueryCourses(ctx context.Context, filter *catalog.CourseFilter, exec ...core.DBExecutor) ([]catalog.Course, error) {
	b := builder.Select(courseColumns).From("courses c")

	if filter != nil {
		// a single OR clause: a course matching on both title and topic is listed once
		if filter.Search != "" {
			b = b.Where(sq.Or{
				contains("c.title", filter.Search),
				contains("c.topic", filter.Search),
			})
		}
		if filter.Difficulty != "" {
			b = b.Where(sq.Eq{"c.difficulty": filter.Difficulty})
		}
		if filter.InstructorID != "" {
			b = b.Where(sq.Eq{"c.instructor_id": filter.InstructorID})
		}
	}
	b = b.OrderBy("c.title ASC", "c.created_at ASC")

	var rows []courseRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]catalog.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, unboilCourse(row))
	}
	return courses, nil
}

func (repo catalogRepository) GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Course, error) {
	if !validID(id) {
		return catalog.Course{}, catalog.ErrCourseNotFound
	}
	var row courseRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+courseColumns+" FROM courses c WHERE c.id = ?", id); err != nil {
		return catalog.Course{}, trapNoRowsErr(err, catalog.ErrCourseNotFound, "finding course")
	}
	return unboilCourse(row), nil
}

func (repo catalogRepository) UpdateCourse(ctx context.Context, c catalog.Course, exec ...core.DBExecutor) (catalog.Course, error) {
	row := boilCourse(c)
	err := execAffecting(ctx, repo.getExec(exec), catalog.ErrCourseNotFound, `
		UPDATE courses
		SET title = ?, description = ?, topic = ?, difficulty = ?, instructor_id = ?, updated_at = ?
		WHERE id = ?`,
		row.Title, row.Description, row.Topic, row.Difficulty, row.InstructorID, row.UpdatedAt, row.ID,
	)
	if err != nil {
		if err == catalog.ErrCourseNotFound {
			return catalog.Course{}, err
		}
		return catalog.Course{}, errors.Wrap(err, "updating course")
	}
	return unboilCourse(row), nil
}

func (repo catalogRepository) DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), catalog.ErrCourseNotFound, "DELETE FROM courses WHERE id = ?", id)
	if err != nil && err != catalog.ErrCourseNotFound {
		return errors.Wrap(err, "deleting course")
	}
	return err
}

// Modules

func (repo catalogRepository) CreateModule(ctx context.Context, m catalog.Module, exec ...core.DBExecutor) (catalog.Module, error) {
	m.ID = newID()
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind("INSERT INTO modules (id, course_id, title, sort_order) VALUES (?, ?, ?, ?)"),
		m.ID, m.CourseID, m.Title, m.SortOrder)
	if err != nil {
		return catalog.Module{}, errors.Wrap(err, "inserting module")
	}
	return m, nil
}

func (repo catalogRepository) ListModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]catalog.Module, error) {
	var rows []moduleRow
	err := selectAll(ctx, repo.getExec(exec), &rows,
		"SELECT "+moduleColumns+" FROM modules m WHERE m.course_id = ? ORDER BY m.sort_order, m.title", courseID)
	if err != nil {
		return nil, errors.Wrap(err, "listing modules")
	}
	modules := make([]catalog.Module, 0, len(rows))
	for _, row := range rows {
		modules = append(modules, unboilModule(row))
	}
	return modules, nil
}

func (repo catalogRepository) GetModule(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Module, error) {
	if !validID(id) {
		return catalog.Module{}, catalog.ErrModuleNotFound
	}
	var row moduleRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+moduleColumns+" FROM modules m WHERE m.id = ?", id); err != nil {
		return catalog.Module{}, trapNoRowsErr(err, catalog.ErrModuleNotFound, "finding module")
	}
	return unboilModule(row), nil
}

func (repo catalogRepository) UpdateModule(ctx context.Context, m catalog.Module, exec ...core.DBExecutor) (catalog.Module, error) {
	err := execAffecting(ctx, repo.getExec(exec), catalog.ErrModuleNotFound,
		"UPDATE modules SET title = ?, sort_order = ? WHERE id = ?", m.Title, m.SortOrder, m.ID)
	if err != nil {
		if err == catalog.ErrModuleNotFound {
			return catalog.Module{}, err
		}
		return catalog.Module{}, errors.Wrap(err, "updating module")
	}
	return m, nil
}

func (repo catalogRepository) DeleteModule(ctx context.Context, id string, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), catalog.ErrModuleNotFound, "DELETE FROM modules WHERE id = ?", id)
	if err != nil && err != catalog.ErrModuleNotFound {
		return errors.Wrap(err, "deleting module")
	}
	return err
}

// Lessons

func (repo catalogRepository) CreateLesson(ctx context.Context, l catalog.Lesson, exec ...core.DBExecutor) (catalog.Lesson, error) {
	l.ID = newID()
	row := boilLesson(l)
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind(`
		INSERT INTO lessons (id, module_id, title, content_type, content_url, body, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		row.ID, row.ModuleID, row.Title, row.ContentType, row.ContentURL, row.Body, row.SortOrder,
	)
	if err != nil {
		return catalog.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return unboilLesson(row), nil
}

func (repo catalogRepository) selectLessons(ctx context.Context, exe core.DBExecutor, query string, args ...interface{}) ([]catalog.Lesson, error) {
	var rows []lessonRow
	if err := selectAll(ctx, exe, &rows, query, args...); err != nil {
		return nil, err
	}
	lessons := make([]catalog.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, unboilLesson(row))
	}
	return lessons, nil
}

func (repo catalogRepository) ListLessons(ctx context.Context, moduleID string, exec ...core.DBExecutor) ([]catalog.Lesson, error) {
	lessons, err := repo.selectLessons(ctx, repo.getExec(exec),
		"SELECT "+lessonColumns+" FROM lessons l WHERE l.module_id = ? ORDER BY l.sort_order, l.title", moduleID)
	return lessons, errors.Wrap(err, "listing lessons")
}

func (repo catalogRepository) ListCourseLessons(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]catalog.Lesson, error) {
	lessons, err := repo.selectLessons(ctx, repo.getExec(exec), `
		SELECT `+lessonColumns+`
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = ?
		ORDER BY m.sort_order, m.title, l.sort_order, l.title`, courseID)
	return lessons, errors.Wrap(err, "listing course lessons")
}

func (repo catalogRepository) GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Lesson, error) {
	if !validID(id) {
		return catalog.Lesson{}, catalog.ErrLessonNotFound
	}
	var row lessonRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+lessonColumns+" FROM lessons l WHERE l.id = ?", id); err != nil {
		return catalog.Lesson{}, trapNoRowsErr(err, catalog.ErrLessonNotFound, "finding lesson")
	}
	return unboilLesson(row), nil
}

func (repo catalogRepository) UpdateLesson(ctx context.Context, l catalog.Lesson, exec ...core.DBExecutor) (catalog.Lesson, error) {
	row := boilLesson(l)
	err := execAffecting(ctx, repo.getExec(exec), catalog.ErrLessonNotFound, `
		UPDATE lessons
		SET title = ?, content_type = ?, content_url = ?, body = ?, sort_order = ?
		WHERE id = ?`,
		row.Title, row.ContentType, row.ContentURL, row.Body, row.SortOrder, row.ID,
	)
	if err != nil {
		if err == catalog.ErrLessonNotFound {
			return catalog.Lesson{}, err
		}
		return catalog.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return unboilLesson(row), nil
}

func (repo catalogRepository) DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), catalog.ErrLessonNotFound, "DELETE FROM lessons WHERE id = ?", id)
	if err != nil && err != catalog.ErrLessonNotFound {
		return errors.Wrap(err, "deleting lesson")
	}
	return err
}

// Ownership chain

func (repo catalogRepository) GetCourseForModule(ctx context.Context, moduleID string, exec ...core.DBExecutor) (catalog.Course, error) {
	return getOwningCourse(ctx, repo.getExec(exec), catalog.ErrModuleNotFound, `
		SELECT `+courseColumns+`
		FROM courses c
		JOIN modules m ON m.course_id = c.id
		WHERE m.id = ?`, moduleID)
}

func (repo catalogRepository) GetCourseForLesson(ctx context.Context, lessonID string, exec ...core.DBExecutor) (catalog.Course, error) {
	return getOwningCourse(ctx, repo.getExec(exec), catalog.ErrLessonNotFound, `
		SELECT `+courseColumns+`
		FROM courses c
		JOIN modules m ON m.course_id = c.id
		JOIN lessons l ON l.module_id = m.id
		WHERE l.id = ?`, lessonID)
}

// getOwningCourse resolves the course at the top of an ownership chain.
// notFound is returned when the entity at the bottom of the chain does not exist.
func getOwningCourse(ctx context.Context, exe core.DBExecutor, notFound error, query string, id string) (catalog.Course, error) {
	if !validID(id) {
		return catalog.Course{}, notFound
	}
	var row courseRow
	if err := get(ctx, exe, &row, query, id); err != nil {
		return catalog.Course{}, trapNoRowsErr(err, notFound, "finding owning course")
	}
	return unboilCourse(row), nil
}
