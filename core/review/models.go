// Package review carries the review-topic and feedback domain: topics
// authored by teachers, feedback submitted by students, the rating
// aggregations and the cascade deletes.
package review

import (
	"time"

	"github.com/trezcool/maoni/core"
)

type (
	// Topic is a teacher-authored review topic students leave feedback on.
	Topic struct {
		ID         string    `json:"id"`
		TeacherRef string    `json:"teacher_ref"`
		Subject    string    `json:"subject"`
		Topic      string    `json:"topic"`
		Date       time.Time `json:"date"`
		CreatedAt  time.Time `json:"created_at"`
	}

	// Feedback is a student's review of a topic. StudentName and Surname are
	// snapshots taken at submission time; a later account rename does not
	// rewrite history.
	Feedback struct {
		ID          string    `json:"id"`
		TeacherRef  string    `json:"teacher_ref"`
		StudentRef  string    `json:"student_ref"`
		StudentName string    `json:"student_name"`
		Surname     string    `json:"surname"`
		Topic       string    `json:"topic"`
		Message     string    `json:"message"`
		Rating      int       `json:"rating"`
		Date        time.Time `json:"date"`
	}

	NewTopic struct {
		Subject string    `json:"subject" validate:"required"`
		Topic   string    `json:"topic" validate:"required"`
		Date    time.Time `json:"date"`
	}

	UpdateTopic struct {
		Topic string    `json:"topic" validate:"required"`
		Date  time.Time `json:"date"`
	}

	NewFeedback struct {
		TopicID string `json:"topic_id" validate:"required"`
		Message string `json:"message" validate:"required"`
		Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	}

	UpdateFeedback struct {
		Message string `json:"message" validate:"required"`
		Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	}
)

func (nt *NewTopic) Validate() error      { return core.Validate.Struct(nt) }
func (ut *UpdateTopic) Validate() error   { return core.Validate.Struct(ut) }
func (nf *NewFeedback) Validate() error   { return core.Validate.Struct(nf) }
func (uf *UpdateFeedback) Validate() error { return core.Validate.Struct(uf) }
