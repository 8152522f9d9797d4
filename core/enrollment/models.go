package enrollment

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Enrollment statuses
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusDropped    = "dropped"
)

type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

// Progress tracks a student going through a lesson.
type Progress struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	LessonID    string    `json:"lesson_id"`
	StartedAt   time.Time `json:"started_at"`   // UTC
	CompletedAt null.Time `json:"completed_at"` // UTC
}

func (p Progress) IsCompleted() bool {
	return p.CompletedAt.Valid
}
