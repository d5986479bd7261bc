package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/maoni/core/review"
)

type topicRepository struct {
	db *sqlx.DB
}

var _ review.TopicRepository = (*topicRepository)(nil) // interface compliance check

func NewTopicRepository(db *sqlx.DB) review.TopicRepository {
	return &topicRepository{db: db}
}

type topicRow struct {
	ID         string    `db:"id"`
	TeacherRef string    `db:"teacher_ref"`
	Subject    string    `db:"subject"`
	Topic      string    `db:"topic"`
	Date       time.Time `db:"date"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r topicRow) topic() review.Topic {
	return review.Topic{
		ID:         r.ID,
		TeacherRef: r.TeacherRef,
		Subject:    r.Subject,
		Topic:      r.Topic,
		Date:       r.Date,
		CreatedAt:  r.CreatedAt,
	}
}

const topicCols = `id, teacher_ref, subject, topic, date, created_at`

func (repo *topicRepository) CreateTopic(ctx context.Context, topic review.Topic) (review.Topic, error) {
	query := `
INSERT INTO topic (teacher_ref, subject, topic, date, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		topic.TeacherRef, topic.Subject, topic.Topic, topic.Date, topic.CreatedAt,
	).Scan(&topic.ID)
	if err != nil {
		return review.Topic{}, err
	}
	return topic, nil
}

func (repo *topicRepository) GetTopicByID(ctx context.Context, id string) (review.Topic, error) {
	var row topicRow
	query := `SELECT ` + topicCols + ` FROM topic WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return review.Topic{}, review.ErrTopicNotFound
		}
		return review.Topic{}, err
	}
	return row.topic(), nil
}

func (repo *topicRepository) FilterTopicsByTeacher(ctx context.Context, teacherRef string) ([]review.Topic, error) {
	var rows []topicRow
	query := `SELECT ` + topicCols + ` FROM topic WHERE teacher_ref = $1 ORDER BY date DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, teacherRef); err != nil {
		return nil, err
	}
	topics := make([]review.Topic, 0, len(rows))
	for _, row := range rows {
		topics = append(topics, row.topic())
	}
	return topics, nil
}

func (repo *topicRepository) UpdateTopic(ctx context.Context, topic review.Topic) (review.Topic, error) {
	query := `UPDATE topic SET topic = $1, date = $2 WHERE id = $3 RETURNING ` + topicCols
	var row topicRow
	if err := repo.db.GetContext(ctx, &row, query, topic.Topic, topic.Date, topic.ID); err != nil {
		if err == sql.ErrNoRows {
			return review.Topic{}, review.ErrTopicNotFound
		}
		return review.Topic{}, err
	}
	return row.topic(), nil
}

func (repo *topicRepository) DeleteTopicsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM topic WHERE id = ANY($1)`, pq.Array(ids))
	return err
}

func (repo *topicRepository) DeleteTopicsByTeacher(ctx context.Context, teacherRef string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM topic WHERE teacher_ref = $1`, teacherRef)
	return err
}

type feedbackRepository struct {
	db *sqlx.DB
}

var _ review.FeedbackRepository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *sqlx.DB) review.FeedbackRepository {
	return &feedbackRepository{db: db}
}

type feedbackRow struct {
	ID          string       `db:"id"`
	TeacherRef  string       `db:"teacher_ref"`
	StudentRef  string       `db:"student_ref"`
	StudentName string       `db:"student_name"`
	Surname     string       `db:"surname"`
	Topic       string       `db:"topic"`
	Message     string       `db:"message"`
	Rating      int          `db:"rating"`
	Date        sql.NullTime `db:"date"`
}

func (r feedbackRow) feedback() review.Feedback {
	fb := review.Feedback{
		ID:          r.ID,
		TeacherRef:  r.TeacherRef,
		StudentRef:  r.StudentRef,
		StudentName: r.StudentName,
		Surname:     r.Surname,
		Topic:       r.Topic,
		Message:     r.Message,
		Rating:      r.Rating,
	}
	if r.Date.Valid {
		fb.Date = r.Date.Time
	}
	return fb
}

const feedbackCols = `id, teacher_ref, student_ref, student_name, surname, topic, message, rating, date`

func (repo *feedbackRepository) CreateFeedback(ctx context.Context, fb review.Feedback) (review.Feedback, error) {
	query := `
INSERT INTO feedback (teacher_ref, student_ref, student_name, surname, topic, message, rating, date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		fb.TeacherRef, fb.StudentRef, fb.StudentName, fb.Surname,
		fb.Topic, fb.Message, fb.Rating, nullTime(fb.Date),
	).Scan(&fb.ID)
	if err != nil {
		return review.Feedback{}, err
	}
	return fb, nil
}

func (repo *feedbackRepository) GetFeedbackByID(ctx context.Context, id string) (review.Feedback, error) {
	var row feedbackRow
	query := `SELECT ` + feedbackCols + ` FROM feedback WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return review.Feedback{}, review.ErrFeedbackNotFound
		}
		return review.Feedback{}, err
	}
	return row.feedback(), nil
}

func (repo *feedbackRepository) filter(ctx context.Context, where string, arg interface{}) ([]review.Feedback, error) {
	var rows []feedbackRow
	query := `SELECT ` + feedbackCols + ` FROM feedback WHERE ` + where + ` ORDER BY date DESC NULLS LAST`
	if err := repo.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, err
	}
	fbs := make([]review.Feedback, 0, len(rows))
	for _, row := range rows {
		fbs = append(fbs, row.feedback())
	}
	return fbs, nil
}

func (repo *feedbackRepository) FilterFeedbackByTeacher(ctx context.Context, teacherRef string) ([]review.Feedback, error) {
	return repo.filter(ctx, `teacher_ref = $1`, teacherRef)
}

func (repo *feedbackRepository) FilterFeedbackByStudent(ctx context.Context, studentRef string) ([]review.Feedback, error) {
	return repo.filter(ctx, `student_ref = $1`, studentRef)
}

func (repo *feedbackRepository) UpdateFeedback(ctx context.Context, fb review.Feedback) (review.Feedback, error) {
	query := `UPDATE feedback SET message = $1, rating = $2 WHERE id = $3 RETURNING ` + feedbackCols
	var row feedbackRow
	if err := repo.db.GetContext(ctx, &row, query, fb.Message, fb.Rating, fb.ID); err != nil {
		if err == sql.ErrNoRows {
			return review.Feedback{}, review.ErrFeedbackNotFound
		}
		return review.Feedback{}, err
	}
	return row.feedback(), nil
}

func (repo *feedbackRepository) DeleteFeedbackByTopic(ctx context.Context, teacherRef, topic string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM feedback WHERE teacher_ref = $1 AND lower(topic) = lower($2)`,
		teacherRef, topic,
	)
	return err
}

func (repo *feedbackRepository) DeleteFeedbackByTeacher(ctx context.Context, teacherRef string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM feedback WHERE teacher_ref = $1`, teacherRef)
	return err
}
