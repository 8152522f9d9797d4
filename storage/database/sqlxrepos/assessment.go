package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/assessment"
	"github.com/trezcool/pal/core/catalog"
	"github.com/trezcool/pal/storage/database"
)

const (
	quizColumns     = "qz.id, qz.lesson_id, qz.title"
	questionColumns = "qn.id, qn.quiz_id, qn.text, qn.question_type, qn.sort_order"
	choiceColumns   = "ch.id, ch.question_id, ch.text, ch.is_correct, ch.sort_order"
)

type (
	quizRow struct {
		ID       string `db:"id"`
		LessonID string `db:"lesson_id"`
		Title    string `db:"title"`
	}

	questionRow struct {
		ID        string `db:"id"`
		QuizID    string `db:"quiz_id"`
		Text      string `db:"text"`
		Type      string `db:"question_type"`
		SortOrder int    `db:"sort_order"`
	}

	choiceRow struct {
		ID         string `db:"id"`
		QuestionID string `db:"question_id"`
		Text       string `db:"text"`
		IsCorrect  bool   `db:"is_correct"`
		SortOrder  int    `db:"sort_order"`
	}
)

func unboilQuiz(row quizRow) assessment.Quiz {
	return assessment.Quiz{ID: row.ID, LessonID: row.LessonID, Title: row.Title}
}

func unboilQuestion(row questionRow) assessment.Question {
	return assessment.Question{ID: row.ID, QuizID: row.QuizID, Text: row.Text, Type: row.Type, SortOrder: row.SortOrder}
}

func unboilChoice(row choiceRow) assessment.Choice {
	return assessment.Choice{ID: row.ID, QuestionID: row.QuestionID, Text: row.Text, IsCorrect: row.IsCorrect, SortOrder: row.SortOrder}
}

type assessmentRepository struct {
	repository
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(exec core.DBExecutor) *assessmentRepository {
	return &assessmentRepository{repository{exec: exec}}
}

// Quizzes

func (repo assessmentRepository) CreateQuiz(ctx context.Context, q assessment.Quiz, exec ...core.DBExecutor) (assessment.Quiz, error) {
	q.ID = newID()
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind("INSERT INTO quizzes (id, lesson_id, title) VALUES (?, ?, ?)"), q.ID, q.LessonID, q.Title)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return assessment.Quiz{}, assessment.ErrQuizExists
		}
		return assessment.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return q, nil
}

func (repo assessmentRepository) GetQuiz(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Quiz, error) {
	if !validID(id) {
		return assessment.Quiz{}, assessment.ErrQuizNotFound
	}
	var row quizRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+quizColumns+" FROM quizzes qz WHERE qz.id = ?", id); err != nil {
		return assessment.Quiz{}, trapNoRowsErr(err, assessment.ErrQuizNotFound, "finding quiz")
	}
	return unboilQuiz(row), nil
}

func (repo assessmentRepository) GetQuizForLesson(ctx context.Context, lessonID string, exec ...core.DBExecutor) (assessment.Quiz, error) {
	if !validID(lessonID) {
		return assessment.Quiz{}, assessment.ErrQuizNotFound
	}
	var row quizRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+quizColumns+" FROM quizzes qz WHERE qz.lesson_id = ?", lessonID); err != nil {
		return assessment.Quiz{}, trapNoRowsErr(err, assessment.ErrQuizNotFound, "finding quiz for lesson")
	}
	return unboilQuiz(row), nil
}

func (repo assessmentRepository) UpdateQuiz(ctx context.Context, q assessment.Quiz, exec ...core.DBExecutor) (assessment.Quiz, error) {
	err := execAffecting(ctx, repo.getExec(exec), assessment.ErrQuizNotFound, "UPDATE quizzes SET title = ? WHERE id = ?", q.Title, q.ID)
	if err != nil {
		if err == assessment.ErrQuizNotFound {
			return assessment.Quiz{}, err
		}
		return assessment.Quiz{}, errors.Wrap(err, "updating quiz")
	}
	return q, nil
}

func (repo assessmentRepository) DeleteQuiz(ctx context.Context, id string, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), assessment.ErrQuizNotFound, "DELETE FROM quizzes WHERE id = ?", id)
	if err != nil && err != assessment.ErrQuizNotFound {
		return errors.Wrap(err, "deleting quiz")
	}
	return err
}

// Questions

func (repo assessmentRepository) CreateQuestion(ctx context.Context, q assessment.Question, exec ...core.DBExecutor) (assessment.Question, error) {
	q.ID = newID()
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind("INSERT INTO questions (id, quiz_id, text, question_type, sort_order) VALUES (?, ?, ?, ?, ?)"),
		q.ID, q.QuizID, q.Text, q.Type, q.SortOrder)
	if err != nil {
		return assessment.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo assessmentRepository) GetQuestion(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Question, error) {
	if !validID(id) {
		return assessment.Question{}, assessment.ErrQuestionNotFound
	}
	exe := repo.getExec(exec)
	var row questionRow
	if err := get(ctx, exe, &row, "SELECT "+questionColumns+" FROM questions qn WHERE qn.id = ?", id); err != nil {
		return assessment.Question{}, trapNoRowsErr(err, assessment.ErrQuestionNotFound, "finding question")
	}
	q := unboilQuestion(row)
	choices, err := repo.ListChoices(ctx, id, exe)
	if err != nil {
		return assessment.Question{}, err
	}
	q.Choices = choices
	return q, nil
}

func (repo assessmentRepository) UpdateQuestion(ctx context.Context, q assessment.Question, exec ...core.DBExecutor) (assessment.Question, error) {
	err := execAffecting(ctx, repo.getExec(exec), assessment.ErrQuestionNotFound,
		"UPDATE questions SET text = ?, question_type = ?, sort_order = ? WHERE id = ?", q.Text, q.Type, q.SortOrder, q.ID)
	if err != nil {
		if err == assessment.ErrQuestionNotFound {
			return assessment.Question{}, err
		}
		return assessment.Question{}, errors.Wrap(err, "updating question")
	}
	return q, nil
}

func (repo assessmentRepository) DeleteQuestion(ctx context.Context, id string, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), assessment.ErrQuestionNotFound, "DELETE FROM questions WHERE id = ?", id)
	if err != nil && err != assessment.ErrQuestionNotFound {
		return errors.Wrap(err, "deleting question")
	}
	return err
}

func (repo assessmentRepository) ListQuestions(ctx context.Context, quizID string, exec ...core.DBExecutor) ([]assessment.Question, error) {
	exe := repo.getExec(exec)

	var qRows []questionRow
	err := selectAll(ctx, exe, &qRows, "SELECT "+questionColumns+" FROM questions qn WHERE qn.quiz_id = ? ORDER BY qn.sort_order, qn.id", quizID)
	if err != nil {
		return nil, errors.Wrap(err, "listing questions")
	}
	var cRows []choiceRow
	err = selectAll(ctx, exe, &cRows, `
		SELECT `+choiceColumns+`
		FROM choices ch
		JOIN questions qn ON qn.id = ch.question_id
		WHERE qn.quiz_id = ?
		ORDER BY ch.sort_order, ch.id`, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "listing choices")
	}

	byQuestion := make(map[string][]assessment.Choice, len(qRows))
	for _, row := range cRows {
		byQuestion[row.QuestionID] = append(byQuestion[row.QuestionID], unboilChoice(row))
	}
	questions := make([]assessment.Question, 0, len(qRows))
	for _, row := range qRows {
		q := unboilQuestion(row)
		q.Choices = byQuestion[q.ID]
		if q.Choices == nil {
			q.Choices = []assessment.Choice{}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (repo assessmentRepository) MaxQuestionOrder(ctx context.Context, quizID string, exec ...core.DBExecutor) (int, error) {
	var order int
	err := get(ctx, repo.getExec(exec), &order, "SELECT COALESCE(MAX(sort_order), -1) FROM questions WHERE quiz_id = ?", quizID)
	return order, errors.Wrap(err, "finding max question order")
}

// Choices

func (repo assessmentRepository) CreateChoice(ctx context.Context, c assessment.Choice, exec ...core.DBExecutor) (assessment.Choice, error) {
	c.ID = newID()
	exe := repo.getExec(exec)
	_, err := exe.ExecContext(ctx, exe.Rebind("INSERT INTO choices (id, question_id, text, is_correct, sort_order) VALUES (?, ?, ?, ?, ?)"),
		c.ID, c.QuestionID, c.Text, c.IsCorrect, c.SortOrder)
	if err != nil {
		return assessment.Choice{}, errors.Wrap(err, "inserting choice")
	}
	return c, nil
}

func (repo assessmentRepository) UpdateChoice(ctx context.Context, c assessment.Choice, exec ...core.DBExecutor) (assessment.Choice, error) {
	err := execAffecting(ctx, repo.getExec(exec), assessment.ErrChoiceNotFound,
		"UPDATE choices SET text = ?, is_correct = ?, sort_order = ? WHERE id = ? AND question_id = ?",
		c.Text, c.IsCorrect, c.SortOrder, c.ID, c.QuestionID)
	if err != nil {
		if err == assessment.ErrChoiceNotFound {
			return assessment.Choice{}, err
		}
		return assessment.Choice{}, errors.Wrap(err, "updating choice")
	}
	return c, nil
}

func (repo assessmentRepository) GetChoice(ctx context.Context, id string, exec ...core.DBExecutor) (assessment.Choice, error) {
	if !validID(id) {
		return assessment.Choice{}, assessment.ErrChoiceNotFound
	}
	var row choiceRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+choiceColumns+" FROM choices ch WHERE ch.id = ?", id); err != nil {
		return assessment.Choice{}, trapNoRowsErr(err, assessment.ErrChoiceNotFound, "finding choice")
	}
	return unboilChoice(row), nil
}

func (repo assessmentRepository) ListChoices(ctx context.Context, questionID string, exec ...core.DBExecutor) ([]assessment.Choice, error) {
	var rows []choiceRow
	err := selectAll(ctx, repo.getExec(exec), &rows,
		"SELECT "+choiceColumns+" FROM choices ch WHERE ch.question_id = ? ORDER BY ch.sort_order, ch.id", questionID)
	if err != nil {
		return nil, errors.Wrap(err, "listing choices")
	}
	choices := make([]assessment.Choice, 0, len(rows))
	for _, row := range rows {
		choices = append(choices, unboilChoice(row))
	}
	return choices, nil
}

// DeleteChoices returns assessment.ErrChoiceNotFound when none of the choices exist.
func (repo assessmentRepository) DeleteChoices(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	res, err := execBuilt(ctx, repo.getExec(exec), builder.Delete("choices").Where(sq.Eq{"id": ids}))
	if err != nil {
		return errors.Wrap(err, "deleting choices")
	}
	return checkAffected(res, assessment.ErrChoiceNotFound)
}

// Ownership chain

func (repo assessmentRepository) GetCourseForQuiz(ctx context.Context, quizID string, exec ...core.DBExecutor) (catalog.Course, error) {
	return getOwningCourse(ctx, repo.getExec(exec), assessment.ErrQuizNotFound, `
		SELECT `+courseColumns+`
		FROM courses c
		JOIN modules m ON m.course_id = c.id
		JOIN lessons l ON l.module_id = m.id
		JOIN quizzes qz ON qz.lesson_id = l.id
		WHERE qz.id = ?`, quizID)
}

func (repo assessmentRepository) GetCourseForQuestion(ctx context.Context, questionID string, exec ...core.DBExecutor) (catalog.Course, error) {
	return getOwningCourse(ctx, repo.getExec(exec), assessment.ErrQuestionNotFound, `
		SELECT `+courseColumns+`
		FROM courses c
		JOIN modules m ON m.course_id = c.id
		JOIN lessons l ON l.module_id = m.id
		JOIN quizzes qz ON qz.lesson_id = l.id
		JOIN questions qn ON qn.quiz_id = qz.id
		WHERE qn.id = ?`, questionID)
}

func (repo assessmentRepository) GetCourseForChoice(ctx context.Context, choiceID string, exec ...core.DBExecutor) (catalog.Course, error) {
	return getOwningCourse(ctx, repo.getExec(exec), assessment.ErrChoiceNotFound, `
		SELECT `+courseColumns+`
		FROM courses c
		JOIN modules m ON m.course_id = c.id
		JOIN lessons l ON l.module_id = m.id
		JOIN quizzes qz ON qz.lesson_id = l.id
		JOIN questions qn ON qn.quiz_id = qz.id
		JOIN choices ch ON ch.question_id = qn.id
		WHERE ch.id = ?`, choiceID)
}
