package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/assessment"
	"github.com/trezcool/pal/core/catalog"
	"github.com/trezcool/pal/core/enrollment"
	"github.com/trezcool/pal/storage/database/sqlxrepos"
)

// Password is the password of every fixture account.
const Password = "s3cr3t-pwd"

// Fixtures creates rows straight through the repositories, bypassing permission checks.
type Fixtures struct {
	Accounts    account.Repository
	Catalog     catalog.Repository
	Assessment  assessment.Repository
	Enrollments enrollment.Repository
}

func NewFixtures(db *sqlx.DB) *Fixtures {
	return &Fixtures{
		Accounts:    sqlxrepos.NewAccountRepository(db),
		Catalog:     sqlxrepos.NewCatalogRepository(db),
		Assessment:  sqlxrepos.NewAssessmentRepository(db),
		Enrollments: sqlxrepos.NewEnrollmentRepository(db),
	}
}

func (f *Fixtures) Account(t *testing.T, email, role string, approved bool) account.Account {
	t.Helper()
	now := time.Now().UTC()
	acc := account.Account{
		Email:      email,
		FirstName:  "Test",
		LastName:   "Account",
		Address:    "1 Main Street",
		Role:       role,
		IsApproved: approved,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, acc.SetPassword(Password))
	acc, err := f.Accounts.CreateAccount(context.Background(), acc)
	require.NoError(t, err)
	return acc
}

func (f *Fixtures) Student(t *testing.T, email string) account.Account {
	return f.Account(t, email, account.RoleStudent, true)
}

func (f *Fixtures) Instructor(t *testing.T, email string) account.Account {
	return f.Account(t, email, account.RoleInstructor, true)
}

func (f *Fixtures) Admin(t *testing.T, email string) account.Account {
	return f.Account(t, email, account.RoleAdmin, true)
}

func (f *Fixtures) Course(t *testing.T, instructor account.Account, title, topic string) catalog.Course {
	t.Helper()
	now := time.Now().UTC()
	c, err := f.Catalog.CreateCourse(context.Background(), catalog.Course{
		Title:        title,
		Topic:        topic,
		Difficulty:   catalog.DifficultyBeginner,
		InstructorID: instructor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return c
}

func (f *Fixtures) Module(t *testing.T, c catalog.Course, title string, order int) catalog.Module {
	t.Helper()
	m, err := f.Catalog.CreateModule(context.Background(), catalog.Module{CourseID: c.ID, Title: title, SortOrder: order})
	require.NoError(t, err)
	return m
}

func (f *Fixtures) Lesson(t *testing.T, m catalog.Module, title string, order int) catalog.Lesson {
	t.Helper()
	l, err := f.Catalog.CreateLesson(context.Background(), catalog.Lesson{
		ModuleID:    m.ID,
		Title:       title,
		ContentType: catalog.ContentText,
		SortOrder:   order,
	})
	require.NoError(t, err)
	return l
}

func (f *Fixtures) Quiz(t *testing.T, l catalog.Lesson, title string) assessment.Quiz {
	t.Helper()
	q, err := f.Assessment.CreateQuiz(context.Background(), assessment.Quiz{LessonID: l.ID, Title: title})
	require.NoError(t, err)
	return q
}

// Question adds a question with one choice per flag in `correct`.
func (f *Fixtures) Question(t *testing.T, quiz assessment.Quiz, typ string, order int, correct ...bool) assessment.Question {
	t.Helper()
	ctx := context.Background()
	q, err := f.Assessment.CreateQuestion(ctx, assessment.Question{QuizID: quiz.ID, Text: "Question", Type: typ, SortOrder: order})
	require.NoError(t, err)
	for i, ok := range correct {
		ch, err := f.Assessment.CreateChoice(ctx, assessment.Choice{QuestionID: q.ID, Text: "Choice", IsCorrect: ok, SortOrder: i})
		require.NoError(t, err)
		q.Choices = append(q.Choices, ch)
	}
	return q
}

// Enrollment enrolls the student in the course with the given status.
func (f *Fixtures) Enrollment(t *testing.T, student account.Account, c catalog.Course, status string) enrollment.Enrollment {
	t.Helper()
	ctx := context.Background()
	e, err := f.Enrollments.UpsertEnrollment(ctx, enrollment.Enrollment{
		StudentID:  student.ID,
		CourseID:   c.ID,
		Status:     enrollment.StatusInProgress,
		EnrolledAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	if status != e.Status {
		_, err = f.Enrollments.TransitionEnrollment(ctx, student.ID, c.ID, e.Status, status)
		require.NoError(t, err)
		e.Status = status
	}
	return e
}

// CourseTree is a course with one module holding `lessons` lessons.
type CourseTree struct {
	Instructor account.Account
	Course     catalog.Course
	Module     catalog.Module
	Lessons    []catalog.Lesson
}

func (f *Fixtures) CourseTree(t *testing.T, instructorEmail string, lessons int) CourseTree {
	t.Helper()
	tree := CourseTree{Instructor: f.Instructor(t, instructorEmail)}
	tree.Course = f.Course(t, tree.Instructor, "Go Basics", "programming")
	tree.Module = f.Module(t, tree.Course, "Getting started", 0)
	for i := 0; i < lessons; i++ {
		tree.Lessons = append(tree.Lessons, f.Lesson(t, tree.Module, "Lesson "+string(rune('A'+i)), i))
	}
	return tree
}
