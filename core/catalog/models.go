package catalog

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/pal/core"
)

// Difficulties
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Lesson content types
const (
	ContentVideo = "video"
	ContentText  = "text"
)

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Topic        string    `json:"topic"`
	Difficulty   string    `json:"difficulty"`
	InstructorID string    `json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (c Course) OwnerID() string { return c.InstructorID }

type Module struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	Title     string `json:"title"`
	SortOrder int    `json:"sort_order"`
}

type Lesson struct {
	ID          string `json:"id"`
	ModuleID    string `json:"module_id"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	ContentURL  string `json:"content_url"`
	Body        string `json:"body"`
	SortOrder   int    `json:"sort_order"`
	EmbedURL    string `json:"embed_url,omitempty"` // derived from ContentURL for video lessons
}

type (
	ModuleDetail struct {
		Module
		Lessons []Lesson `json:"lessons"`
	}

	CourseDetail struct {
		Course
		Modules []ModuleDetail `json:"modules"`
	}
)

// NewCourse contains information needed to create or replace a Course.
// InstructorID is only honored for admins.
type NewCourse struct {
	Title        string `json:"title" validate:"required,max=255"`
	Description  string `json:"description"`
	Topic        string `json:"topic" validate:"max=100"`
	Difficulty   string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	InstructorID string `json:"instructor_id"`
}

func (nc *NewCourse) Validate(validate *validator.Validate, translator ut.Translator) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Topic = core.CleanString(nc.Topic)
	nc.Difficulty = core.CleanString(nc.Difficulty, true /* lower */)
	nc.InstructorID = core.CleanString(nc.InstructorID)
	if nc.Difficulty == "" {
		nc.Difficulty = DifficultyBeginner
	}
	return core.ValidateStruct(validate, translator, nc)
}

type NewModule struct {
	Title     string `json:"title" validate:"required,max=255"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

func (nm *NewModule) Validate(validate *validator.Validate, translator ut.Translator) error {
	nm.Title = core.CleanString(nm.Title)
	return core.ValidateStruct(validate, translator, nm)
}

type NewLesson struct {
	Title       string `json:"title" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"omitempty,oneof=video text"`
	ContentURL  string `json:"content_url" validate:"omitempty,url,max=500"`
	Body        string `json:"body"`
	SortOrder   int    `json:"sort_order" validate:"gte=0"`
}

func (nl *NewLesson) Validate(validate *validator.Validate, translator ut.Translator) error {
	nl.Title = core.CleanString(nl.Title)
	nl.ContentType = core.CleanString(nl.ContentType, true /* lower */)
	nl.ContentURL = core.CleanString(nl.ContentURL)
	if nl.ContentType == "" {
		nl.ContentType = ContentText
	}
	return core.ValidateStruct(validate, translator, nl)
}

// CourseFilter narrows down the course list.
// Search does a case-insensitive match on either the title or the topic.
type CourseFilter struct {
	Search       string `query:"q"`
	Difficulty   string `query:"difficulty"`
	InstructorID string `query:"instructor_id"`
}

func (cf *CourseFilter) Clean() {
	cf.Search = core.CleanString(cf.Search)
	cf.Difficulty = core.CleanString(cf.Difficulty, true /* lower */)
	cf.InstructorID = core.CleanString(cf.InstructorID)
}
