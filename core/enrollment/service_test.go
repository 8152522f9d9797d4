package enrollment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/enrollment"
	"github.com/trezcool/pal/testutil"
)

func TestService_EnrollAndDrop(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Enrollment

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	student := fx.Student(t, "student@pal.test")

	// dropping without an enrollment is a state error and creates nothing
	_, err := svc.Drop(ctx, student, tree.Course.ID)
	assert.Equal(t, enrollment.ErrNotEnrolled, err)
	enrollments, err := svc.ListEnrollments(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, enrollments)

	// enroll is idempotent
	first, err := svc.Enroll(ctx, student, tree.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusInProgress, first.Status)
	second, err := svc.Enroll(ctx, student, tree.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, enrollment.StatusInProgress, second.Status)

	dropped, err := svc.Drop(ctx, student, tree.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusDropped, dropped.Status)

	// a dropped enrollment cannot be dropped again
	_, err = svc.Drop(ctx, student, tree.Course.ID)
	assert.Equal(t, enrollment.ErrNotEnrolled, err)

	// re-enrolling resets the same record
	again, err := svc.Enroll(ctx, student, tree.Course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, enrollment.StatusInProgress, again.Status)

	enrollments, err = svc.ListEnrollments(ctx, student)
	require.NoError(t, err)
	assert.Len(t, enrollments, 1)
}

func TestService_StudentsOnly(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Enrollment

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	admin := fx.Admin(t, "admin@pal.test")

	tests := []struct {
		name string
		call func() error
	}{
		{name: "instructor enroll", call: func() error { _, err := svc.Enroll(ctx, tree.Instructor, tree.Course.ID); return err }},
		{name: "admin enroll", call: func() error { _, err := svc.Enroll(ctx, admin, tree.Course.ID); return err }},
		{name: "admin drop", call: func() error { _, err := svc.Drop(ctx, admin, tree.Course.ID); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			pErr, ok := err.(*core.PermissionError)
			require.True(t, ok, "expected *core.PermissionError, got %T", err)
			assert.Equal(t, "/v1/courses/"+tree.Course.ID, pErr.Redirect)
		})
	}

	_, err := svc.Enroll(ctx, fx.Student(t, "s@pal.test"), "unknown")
	assert.True(t, core.IsNotFound(err))
}

func TestService_CompleteLessons(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Enrollment

	tree := fx.CourseTree(t, "prof@pal.test", 2)
	student := fx.Student(t, "student@pal.test")

	// progress requires an enrollment
	_, err := svc.StartLesson(ctx, student, tree.Lessons[0].ID)
	assert.Equal(t, enrollment.ErrNotEnrolled, err)

	_, err = svc.Enroll(ctx, student, tree.Course.ID)
	require.NoError(t, err)

	p, err := svc.StartLesson(ctx, student, tree.Lessons[0].ID)
	require.NoError(t, err)
	assert.False(t, p.IsCompleted())
	again, err := svc.StartLesson(ctx, student, tree.Lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	p, e, err := svc.CompleteLesson(ctx, student, tree.Lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, p.IsCompleted())
	assert.Equal(t, enrollment.StatusInProgress, e.Status)

	// completing twice keeps the first completion time
	p2, _, err := svc.CompleteLesson(ctx, student, tree.Lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, p.CompletedAt.Time.Equal(p2.CompletedAt.Time))

	// the last lesson completes the course, even if it was never started
	_, e, err = svc.CompleteLesson(ctx, student, tree.Lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusCompleted, e.Status)

	// a completed enrollment cannot be dropped
	_, err = svc.Drop(ctx, student, tree.Course.ID)
	assert.Equal(t, enrollment.ErrNotEnrolled, err)
}

func TestService_ListCourseEnrollments(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	fx := testutil.NewFixtures(db)
	svc := testutil.NewServices(db).Enrollment

	tree := fx.CourseTree(t, "prof@pal.test", 1)
	other := fx.Instructor(t, "other@pal.test")
	for _, email := range []string{"a@pal.test", "b@pal.test"} {
		_, err := svc.Enroll(ctx, fx.Student(t, email), tree.Course.ID)
		require.NoError(t, err)
	}

	enrollments, err := svc.ListCourseEnrollments(ctx, tree.Instructor, tree.Course.ID)
	require.NoError(t, err)
	assert.Len(t, enrollments, 2)

	_, err = svc.ListCourseEnrollments(ctx, other, tree.Course.ID)
	assert.IsType(t, &core.PermissionError{}, err)
}
