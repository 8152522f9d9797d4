package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/catalog"
	"github.com/trezcool/pal/testutil"
)

func permissionErr(t *testing.T, err error) *core.PermissionError {
	t.Helper()
	pErr, ok := err.(*core.PermissionError)
	require.True(t, ok, "expected *core.PermissionError, got %T: %v", err, err)
	return pErr
}

func TestService_CreateCourse(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Catalog

	instructor := fx.Instructor(t, "prof@pal.test")
	pending := fx.Account(t, "pending@pal.test", account.RoleInstructor, false)
	admin := fx.Admin(t, "admin@pal.test")
	student := fx.Student(t, "student@pal.test")
	nc := catalog.NewCourse{Title: "Go", Topic: "programming", Difficulty: catalog.DifficultyBeginner}

	t.Run("students cannot create courses", func(t *testing.T) {
		_, err := svc.CreateCourse(ctx, student, nc)
		pErr := permissionErr(t, err)
		assert.Equal(t, "/v1/courses", pErr.Redirect)
	})

	t.Run("instructors own what they create", func(t *testing.T) {
		in := nc
		in.InstructorID = admin.ID // ignored for non-admins
		c, err := svc.CreateCourse(ctx, instructor, in)
		require.NoError(t, err)
		assert.Equal(t, instructor.ID, c.InstructorID)
	})

	t.Run("admins may assign an approved instructor", func(t *testing.T) {
		in := nc
		in.InstructorID = instructor.ID
		c, err := svc.CreateCourse(ctx, admin, in)
		require.NoError(t, err)
		assert.Equal(t, instructor.ID, c.InstructorID)

		in.InstructorID = pending.ID
		_, err = svc.CreateCourse(ctx, admin, in)
		vErr, ok := err.(*core.ValidationError)
		require.True(t, ok, "expected *core.ValidationError, got %T", err)
		assert.True(t, vErr.HasField("instructor_id"))
	})
}

func TestService_Ownership(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Catalog

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	other := fx.Instructor(t, "other@pal.test")
	admin := fx.Admin(t, "admin@pal.test")
	coursePath := catalog.CoursePath(tree.Course.ID)

	tests := []struct {
		name    string
		call    func(actor account.Account) error
		wantMsg string
	}{
		{
			name: "update course",
			call: func(actor account.Account) error {
				_, err := svc.UpdateCourse(ctx, actor, tree.Course.ID, catalog.NewCourse{Title: "New", Difficulty: catalog.DifficultyAdvanced})
				return err
			},
			wantMsg: "You don't have permission to edit this course.",
		},
		{
			name: "add module",
			call: func(actor account.Account) error {
				_, err := svc.CreateModule(ctx, actor, tree.Course.ID, catalog.NewModule{Title: "M2", SortOrder: 1})
				return err
			},
			wantMsg: "You don't have permission to add modules to this course.",
		},
		{
			name: "update module",
			call: func(actor account.Account) error {
				_, err := svc.UpdateModule(ctx, actor, tree.Module.ID, catalog.NewModule{Title: "Renamed"})
				return err
			},
			wantMsg: "You don't have permission to edit this module.",
		},
		{
			name: "add lesson",
			call: func(actor account.Account) error {
				_, err := svc.CreateLesson(ctx, actor, tree.Module.ID, catalog.NewLesson{Title: "L2", ContentType: catalog.ContentText})
				return err
			},
			wantMsg: "You don't have permission to add lessons to this module.",
		},
		{
			name: "update lesson",
			call: func(actor account.Account) error {
				_, err := svc.UpdateLesson(ctx, actor, tree.Lessons[0].ID, catalog.NewLesson{Title: "Renamed", ContentType: catalog.ContentText})
				return err
			},
			wantMsg: "You don't have permission to edit this lesson.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pErr := permissionErr(t, tt.call(other))
			assert.Equal(t, tt.wantMsg, pErr.Message)
			assert.Equal(t, coursePath, pErr.Redirect)

			assert.NoError(t, tt.call(tree.Instructor))
			assert.NoError(t, tt.call(admin))
		})
	}
}

func TestService_QueryCourses(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Catalog

	instructor := fx.Instructor(t, "prof@pal.test")
	fx.Course(t, instructor, "Python for data", "python")
	fx.Course(t, instructor, "Advanced Go", "programming")
	fx.Course(t, instructor, "Cooking", "food")
	fx.Course(t, instructor, "100% Go", "c_lang")

	tests := []struct {
		name   string
		filter *catalog.CourseFilter
		want   []string
	}{
		{name: "no filter, ordered by title", filter: nil, want: []string{"100% Go", "Advanced Go", "Cooking", "Python for data"}},
		{name: "title and topic both match, listed once", filter: &catalog.CourseFilter{Search: "PYTHON"}, want: []string{"Python for data"}},
		{name: "topic only", filter: &catalog.CourseFilter{Search: "gram"}, want: []string{"Advanced Go"}},
		{name: "no match", filter: &catalog.CourseFilter{Search: "rust"}, want: []string{}},
		{name: "by instructor", filter: &catalog.CourseFilter{InstructorID: instructor.ID, Search: "o"}, want: []string{"100% Go", "Advanced Go", "Cooking", "Python for data"}},
		{name: "percent sign matches literally", filter: &catalog.CourseFilter{Search: "%"}, want: []string{"100% Go"}},
		{name: "underscore matches literally", filter: &catalog.CourseFilter{Search: "c_"}, want: []string{"100% Go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses, err := svc.QueryCourses(ctx, tt.filter)
			require.NoError(t, err)
			titles := make([]string, 0, len(courses))
			for _, c := range courses {
				titles = append(titles, c.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestService_CourseDetail(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Catalog

	instructor := fx.Instructor(t, "prof@pal.test")
	c := fx.Course(t, instructor, "Go", "programming")
	m2 := fx.Module(t, c, "Second", 2)
	m1 := fx.Module(t, c, "First", 1)
	fx.Lesson(t, m1, "b", 1)
	fx.Lesson(t, m1, "a", 1)
	fx.Lesson(t, m1, "z", 0)

	video, err := svc.CreateLesson(ctx, instructor, m2.ID, catalog.NewLesson{
		Title:       "Intro video",
		ContentType: catalog.ContentVideo,
		ContentURL:  "https://youtu.be/dQw4w9WgXcQ",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", video.EmbedURL)

	detail, err := svc.GetCourseDetail(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, detail.Modules, 2)
	assert.Equal(t, "First", detail.Modules[0].Title)
	var titles []string
	for _, l := range detail.Modules[0].Lessons {
		titles = append(titles, l.Title)
	}
	assert.Equal(t, []string{"z", "a", "b"}, titles)
	require.Len(t, detail.Modules[1].Lessons, 1)
	assert.NotEmpty(t, detail.Modules[1].Lessons[0].EmbedURL)

	// deleting the course removes the whole tree
	require.NoError(t, svc.DeleteCourse(ctx, instructor, c.ID))
	_, err = svc.GetModule(ctx, m1.ID)
	assert.Equal(t, catalog.ErrModuleNotFound, err)
	_, err = svc.GetLesson(ctx, video.ID)
	assert.Equal(t, catalog.ErrLessonNotFound, err)
}
