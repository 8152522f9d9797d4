package forum

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/pal/core"
)

type Thread struct {
	ID        string    `json:"id"`
	LessonID  string    `json:"lesson_id"`
	CreatedBy string    `json:"created_by"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Comment struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// ThreadDetail is a thread with its comments, oldest first.
type ThreadDetail struct {
	Thread
	Comments []Comment `json:"comments"`
}

// NewThread opens a discussion on a lesson. A non-empty Body becomes the first comment.
type NewThread struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body"`
}

func (nt *NewThread) Validate(validate *validator.Validate, translator ut.Translator) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Body = core.CleanString(nt.Body)
	return core.ValidateStruct(validate, translator, nt)
}

type NewComment struct {
	Body string `json:"body" validate:"required"`
}

func (nc *NewComment) Validate(validate *validator.Validate, translator ut.Translator) error {
	nc.Body = core.CleanString(nc.Body)
	return core.ValidateStruct(validate, translator, nc)
}

// ThreadFilter narrows down the threads of a lesson.
type ThreadFilter struct {
	LessonID  string `query:"-"`
	CreatedBy string `query:"created_by"`
	Search    string `query:"q"`
}

func (tf *ThreadFilter) Clean() {
	tf.CreatedBy = core.CleanString(tf.CreatedBy)
	tf.Search = core.CleanString(tf.Search)
}
