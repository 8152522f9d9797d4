package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/policy"
)

var (
	// errors
	ErrCourseNotFound = core.NewNotFoundError("course")
	ErrModuleNotFound = core.NewNotFoundError("module")
	ErrLessonNotFound = core.NewNotFoundError("lesson")

	errInvalidInstructor = errors.New("invalid instructor")

	nowFunc = time.Now // mockable
)

const coursesPath = "/v1/courses"

// CoursePath is the detail view of a course; permission errors redirect there.
func CoursePath(courseID string) string {
	return coursesPath + "/" + courseID
}

func denied(action, entity string, course Course) error {
	return core.NewPermissionError("You don't have permission to "+action+" this "+entity+".", CoursePath(course.ID))
}

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		// QueryCourses orders courses by title, then creation date.
		QueryCourses(ctx context.Context, filter *CourseFilter, exec ...core.DBExecutor) ([]Course, error)
		GetCourse(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateModule(ctx context.Context, m Module, exec ...core.DBExecutor) (Module, error)
		// ListModules orders modules by sort order, then title.
		ListModules(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Module, error)
		GetModule(ctx context.Context, id string, exec ...core.DBExecutor) (Module, error)
		UpdateModule(ctx context.Context, m Module, exec ...core.DBExecutor) (Module, error)
		DeleteModule(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateLesson(ctx context.Context, l Lesson, exec ...core.DBExecutor) (Lesson, error)
		// ListLessons orders lessons by sort order, then title.
		ListLessons(ctx context.Context, moduleID string, exec ...core.DBExecutor) ([]Lesson, error)
		// ListCourseLessons returns the lessons of every module of a course.
		ListCourseLessons(ctx context.Context, courseID string, exec ...core.DBExecutor) ([]Lesson, error)
		GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (Lesson, error)
		UpdateLesson(ctx context.Context, l Lesson, exec ...core.DBExecutor) (Lesson, error)
		DeleteLesson(ctx context.Context, id string, exec ...core.DBExecutor) error

		GetCourseForModule(ctx context.Context, moduleID string, exec ...core.DBExecutor) (Course, error)
		GetCourseForLesson(ctx context.Context, lessonID string, exec ...core.DBExecutor) (Course, error)
	}

	Service interface {
		CreateCourse(ctx context.Context, actor account.Account, nc NewCourse) (Course, error)
		QueryCourses(ctx context.Context, filter *CourseFilter) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		GetCourseDetail(ctx context.Context, id string) (CourseDetail, error)
		UpdateCourse(ctx context.Context, actor account.Account, id string, nc NewCourse) (Course, error)
		DeleteCourse(ctx context.Context, actor account.Account, id string) error

		CreateModule(ctx context.Context, actor account.Account, courseID string, nm NewModule) (Module, error)
		ListModules(ctx context.Context, courseID string) ([]Module, error)
		GetModule(ctx context.Context, id string) (Module, error)
		UpdateModule(ctx context.Context, actor account.Account, id string, nm NewModule) (Module, error)
		DeleteModule(ctx context.Context, actor account.Account, id string) error

		CreateLesson(ctx context.Context, actor account.Account, moduleID string, nl NewLesson) (Lesson, error)
		ListLessons(ctx context.Context, moduleID string) ([]Lesson, error)
		ListCourseLessons(ctx context.Context, courseID string) ([]Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		UpdateLesson(ctx context.Context, actor account.Account, id string, nl NewLesson) (Lesson, error)
		DeleteLesson(ctx context.Context, actor account.Account, id string) error

		// GetCourseForLesson resolves the course governing a lesson.
		GetCourseForLesson(ctx context.Context, lessonID string) (Course, error)
	}

	service struct {
		repo   Repository
		accSvc account.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, accSvc account.Service) Service {
	return &service{
		repo:   repo,
		accSvc: accSvc,
	}
}

// Courses

func (svc *service) CreateCourse(ctx context.Context, actor account.Account, nc NewCourse) (Course, error) {
	if !policy.IsInstructorOrAdmin(actor) {
		return Course{}, core.NewPermissionError("Only instructors and admins can create courses.", coursesPath)
	}

	// only admins may create a course on behalf of an instructor
	instructorID := actor.ID
	if actor.IsAdmin() && nc.InstructorID != "" && nc.InstructorID != actor.ID {
		instructor, err := svc.accSvc.GetByID(ctx, nc.InstructorID)
		if err != nil && err != account.ErrNotFound {
			return Course{}, errors.Wrap(err, "finding instructor")
		}
		if err == account.ErrNotFound || !instructor.IsInstructor() || !instructor.IsApproved {
			return Course{}, core.NewValidationError(errInvalidInstructor, core.FieldError{
				Field: "instructor_id",
				Error: "Select an approved instructor.",
			})
		}
		instructorID = instructor.ID
	}

	now := nowFunc().UTC()
	c, err := svc.repo.CreateCourse(ctx, Course{
		Title:        nc.Title,
		Description:  nc.Description,
		Topic:        nc.Topic,
		Difficulty:   nc.Difficulty,
		InstructorID: instructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return c, errors.Wrap(err, "creating course")
}

func (svc *service) QueryCourses(ctx context.Context, filter *CourseFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) GetCourseDetail(ctx context.Context, id string) (CourseDetail, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}
	modules, err := svc.repo.ListModules(ctx, id)
	if err != nil {
		return CourseDetail{}, errors.Wrap(err, "listing modules")
	}
	lessons, err := svc.ListCourseLessons(ctx, id)
	if err != nil {
		return CourseDetail{}, errors.Wrap(err, "listing lessons")
	}

	byModule := make(map[string][]Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}
	detail := CourseDetail{Course: c, Modules: make([]ModuleDetail, 0, len(modules))}
	for _, m := range modules {
		ls := byModule[m.ID]
		if ls == nil {
			ls = []Lesson{}
		}
		detail.Modules = append(detail.Modules, ModuleDetail{Module: m, Lessons: ls})
	}
	return detail, nil
}

func (svc *service) UpdateCourse(ctx context.Context, actor account.Account, id string, nc NewCourse) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !policy.CanModify(actor, c) {
		return Course{}, denied("edit", "course", c)
	}

	c.Title = nc.Title
	c.Description = nc.Description
	c.Topic = nc.Topic
	c.Difficulty = nc.Difficulty
	c.UpdatedAt = nowFunc().UTC()
	c, err = svc.repo.UpdateCourse(ctx, c)
	return c, errors.Wrap(err, "updating course")
}

// DeleteCourse deletes a course along with all its modules, lessons, quizzes and enrollments.
func (svc *service) DeleteCourse(ctx context.Context, actor account.Account, id string) error {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanModify(actor, c) {
		return denied("delete", "course", c)
	}
	return errors.Wrap(svc.repo.DeleteCourse(ctx, id), "deleting course")
}

// Modules

func (svc *service) CreateModule(ctx context.Context, actor account.Account, courseID string, nm NewModule) (Module, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Module{}, err
	}
	if !policy.IsInstructorOrAdmin(actor) || !policy.CanModify(actor, c) {
		return Module{}, denied("add modules to", "course", c)
	}

	m, err := svc.repo.CreateModule(ctx, Module{CourseID: c.ID, Title: nm.Title, SortOrder: nm.SortOrder})
	return m, errors.Wrap(err, "creating module")
}

func (svc *service) ListModules(ctx context.Context, courseID string) ([]Module, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return svc.repo.ListModules(ctx, courseID)
}

func (svc *service) GetModule(ctx context.Context, id string) (Module, error) {
	return svc.repo.GetModule(ctx, id)
}

func (svc *service) UpdateModule(ctx context.Context, actor account.Account, id string, nm NewModule) (Module, error) {
	m, err := svc.repo.GetModule(ctx, id)
	if err != nil {
		return Module{}, err
	}
	c, err := svc.repo.GetCourseForModule(ctx, id)
	if err != nil {
		return Module{}, errors.Wrap(err, "finding course for module")
	}
	if !policy.CanModify(actor, c) {
		return Module{}, denied("edit", "module", c)
	}

	m.Title = nm.Title
	m.SortOrder = nm.SortOrder
	m, err = svc.repo.UpdateModule(ctx, m)
	return m, errors.Wrap(err, "updating module")
}

func (svc *service) DeleteModule(ctx context.Context, actor account.Account, id string) error {
	c, err := svc.repo.GetCourseForModule(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanModify(actor, c) {
		return denied("delete", "module", c)
	}
	return errors.Wrap(svc.repo.DeleteModule(ctx, id), "deleting module")
}

// Lessons

func (svc *service) withEmbed(l Lesson) Lesson {
	if l.ContentType == ContentVideo {
		l.EmbedURL, _ = EmbedURL(l.ContentURL)
	}
	return l
}

func (svc *service) withEmbeds(lessons []Lesson) []Lesson {
	for i := range lessons {
		lessons[i] = svc.withEmbed(lessons[i])
	}
	return lessons
}

func (svc *service) CreateLesson(ctx context.Context, actor account.Account, moduleID string, nl NewLesson) (Lesson, error) {
	m, err := svc.repo.GetModule(ctx, moduleID)
	if err != nil {
		return Lesson{}, err
	}
	c, err := svc.repo.GetCourseForModule(ctx, m.ID)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "finding course for module")
	}
	if !policy.IsInstructorOrAdmin(actor) || !policy.CanModify(actor, c) {
		return Lesson{}, denied("add lessons to", "module", c)
	}

	l, err := svc.repo.CreateLesson(ctx, Lesson{
		ModuleID:    m.ID,
		Title:       nl.Title,
		ContentType: nl.ContentType,
		ContentURL:  nl.ContentURL,
		Body:        nl.Body,
		SortOrder:   nl.SortOrder,
	})
	if err != nil {
		return Lesson{}, errors.Wrap(err, "creating lesson")
	}
	return svc.withEmbed(l), nil
}

func (svc *service) ListLessons(ctx context.Context, moduleID string) ([]Lesson, error) {
	if _, err := svc.repo.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}
	lessons, err := svc.repo.ListLessons(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	return svc.withEmbeds(lessons), nil
}

func (svc *service) ListCourseLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	lessons, err := svc.repo.ListCourseLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return svc.withEmbeds(lessons), nil
}

func (svc *service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	l, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	return svc.withEmbed(l), nil
}

func (svc *service) UpdateLesson(ctx context.Context, actor account.Account, id string, nl NewLesson) (Lesson, error) {
	l, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	c, err := svc.repo.GetCourseForLesson(ctx, id)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "finding course for lesson")
	}
	if !policy.CanModify(actor, c) {
		return Lesson{}, denied("edit", "lesson", c)
	}

	l.Title = nl.Title
	l.ContentType = nl.ContentType
	l.ContentURL = nl.ContentURL
	l.Body = nl.Body
	l.SortOrder = nl.SortOrder
	if l, err = svc.repo.UpdateLesson(ctx, l); err != nil {
		return Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return svc.withEmbed(l), nil
}

func (svc *service) DeleteLesson(ctx context.Context, actor account.Account, id string) error {
	c, err := svc.repo.GetCourseForLesson(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanModify(actor, c) {
		return denied("delete", "lesson", c)
	}
	return errors.Wrap(svc.repo.DeleteLesson(ctx, id), "deleting lesson")
}

func (svc *service) GetCourseForLesson(ctx context.Context, lessonID string) (Course, error) {
	return svc.repo.GetCourseForLesson(ctx, lessonID)
}
