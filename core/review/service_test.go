package review_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/account"
	"github.com/trezcool/maoni/core/review"
	dummydb "github.com/trezcool/maoni/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type accountRemoverMock struct {
	err     error
	deleted []string
}

func (m *accountRemoverMock) Delete(_ context.Context, ids ...string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, ids...)
	return nil
}

func newTestService(t *testing.T, remover review.AccountRemover) (*review.Service, *dummydb.DB) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db: %v", err)
	}
	svc := review.NewService(
		dummydb.NewTopicRepository(db),
		dummydb.NewFeedbackRepository(db),
		remover,
		nopLogger{},
	)
	return svc, db
}

func isValidationError(err error) bool {
	var vErr *core.ValidationError
	return errors.As(err, &vErr)
}

func TestService_CreateTopic(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &accountRemoverMock{})
	teacher := account.Account{ID: "t1", Role: account.RoleTeacher, Subjects: []string{"Math", "Physics"}}

	t.Run("own subject", func(t *testing.T) {
		topic, err := svc.CreateTopic(ctx, teacher, review.NewTopic{Subject: "math", Topic: "Fractions"})
		if err != nil {
			t.Fatalf("CreateTopic() failed: %v", err)
		}
		if topic.ID == "" || topic.TeacherRef != "t1" || topic.Date.IsZero() {
			t.Errorf("CreateTopic() = %+v; want generated ID, teacher ref and default date", topic)
		}
	})
	t.Run("foreign subject", func(t *testing.T) {
		_, err := svc.CreateTopic(ctx, teacher, review.NewTopic{Subject: "Chemistry", Topic: "Acids"})
		if !isValidationError(err) {
			t.Errorf("CreateTopic() error = %v, want a validation error", err)
		}
	})
}

func TestService_SubmitFeedback(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &accountRemoverMock{})

	teacher := account.Account{ID: "t1", Role: account.RoleTeacher, Subjects: []string{"Math"}}
	student := account.Account{
		ID: "s1", Name: "Hero", Surname: "Kid", Role: account.RoleStudent,
		TeacherRefs: []string{"t1"}, Courses: []string{"Math"},
	}

	topic, err := svc.CreateTopic(ctx, teacher, review.NewTopic{
		Subject: "Math", Topic: "Fractions",
		Date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateTopic() failed: %v", err)
	}

	fb, err := svc.SubmitFeedback(ctx, student, review.NewFeedback{TopicID: topic.ID, Message: "great", Rating: 5})
	if err != nil {
		t.Fatalf("SubmitFeedback() failed: %v", err)
	}
	if fb.StudentName != "Hero" || fb.Surname != "Kid" {
		t.Errorf("student name not snapshotted: %+v", fb)
	}
	if !fb.Date.Equal(topic.Date) {
		t.Errorf("feedback date = %v, want the topic date %v", fb.Date, topic.Date)
	}

	t.Run("submitted set reflects new feedback", func(t *testing.T) {
		set, err := svc.SubmittedTopics(ctx, student)
		if err != nil {
			t.Fatalf("SubmittedTopics() failed: %v", err)
		}
		if !set.Has("fractions") {
			t.Errorf("SubmittedTopics() = %v, want it to contain %q", set, "fractions")
		}
	})
	t.Run("duplicate submission rejected", func(t *testing.T) {
		_, err := svc.SubmitFeedback(ctx, student, review.NewFeedback{TopicID: topic.ID, Message: "again", Rating: 1})
		if !isValidationError(err) {
			t.Errorf("SubmitFeedback() error = %v, want a validation error", err)
		}
	})
	t.Run("foreign topic rejected", func(t *testing.T) {
		stranger := account.Account{ID: "s2", Role: account.RoleStudent, TeacherRefs: []string{"t9"}}
		_, err := svc.SubmitFeedback(ctx, stranger, review.NewFeedback{TopicID: topic.ID, Message: "hi", Rating: 3})
		if err != review.ErrTopicNotFound {
			t.Errorf("SubmitFeedback() error = %v, want %v", err, review.ErrTopicNotFound)
		}
	})
	t.Run("dropped teacher leaves the submitted set", func(t *testing.T) {
		moved := student
		moved.TeacherRefs = []string{"t9"}
		set, err := svc.SubmittedTopics(ctx, moved)
		if err != nil {
			t.Fatalf("SubmittedTopics() failed: %v", err)
		}
		if set.Has("fractions") {
			t.Errorf("SubmittedTopics() = %v; feedback for a dropped teacher must not count", set)
		}
	})
}

func TestService_TopicsForStudent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &accountRemoverMock{})

	t1 := account.Account{ID: "t1", Role: account.RoleTeacher, Subjects: []string{"Math"}}
	t2 := account.Account{ID: "t2", Role: account.RoleTeacher, Subjects: []string{"Physics"}}
	day := func(d int) time.Time { return time.Date(2024, time.April, d, 0, 0, 0, 0, time.UTC) }

	mustCreate := func(teacher account.Account, nt review.NewTopic) review.Topic {
		topic, err := svc.CreateTopic(ctx, teacher, nt)
		if err != nil {
			t.Fatalf("CreateTopic() failed: %v", err)
		}
		return topic
	}
	mustCreate(t1, review.NewTopic{Subject: "Math", Topic: "Fractions", Date: day(1)})
	mustCreate(t2, review.NewTopic{Subject: "Physics", Topic: "Optics", Date: day(3)})
	mustCreate(t1, review.NewTopic{Subject: "Math", Topic: "Decimals", Date: day(2)})

	student := account.Account{ID: "s1", Role: account.RoleStudent, TeacherRefs: []string{"t1", "t2"}}
	topics, err := svc.TopicsForStudent(ctx, student)
	if err != nil {
		t.Fatalf("TopicsForStudent() failed: %v", err)
	}
	want := []string{"Optics", "Decimals", "Fractions"} // newest first across teachers
	if len(topics) != len(want) {
		t.Fatalf("got %d topics, want %d", len(topics), len(want))
	}
	for i, name := range want {
		if topics[i].Topic != name {
			t.Errorf("topics[%d] = %q, want %q", i, topics[i].Topic, name)
		}
	}
}

func TestService_RatingsForTeachers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &accountRemoverMock{})

	teacher := account.Account{ID: "t1", Role: account.RoleTeacher, Subjects: []string{"Math"}}
	student := account.Account{ID: "s1", Role: account.RoleStudent, TeacherRefs: []string{"t1"}}
	topic, err := svc.CreateTopic(ctx, teacher, review.NewTopic{
		Subject: "Math", Topic: "Fractions",
		Date: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateTopic() failed: %v", err)
	}
	if _, err = svc.SubmitFeedback(ctx, student, review.NewFeedback{TopicID: topic.ID, Message: "ok", Rating: 4}); err != nil {
		t.Fatalf("SubmitFeedback() failed: %v", err)
	}

	results := svc.RatingsForTeachers(ctx, "t1", "t2")
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// each teacher stays paired with their own table, in input order
	if results[0].TeacherRef != "t1" || results[1].TeacherRef != "t2" {
		t.Fatalf("results out of input order: %+v", results)
	}
	if len(results[0].Ratings) != 1 || results[0].Ratings[0].Average != "4.0" {
		t.Errorf("t1 ratings = %+v, want one January average of 4.0", results[0].Ratings)
	}
	if len(results[1].Ratings) != 1 || results[1].Ratings[0].Month != "No reviews yet" {
		t.Errorf("t2 ratings = %+v, want the placeholder entry", results[1].Ratings)
	}
}

func TestService_DeleteTopicCascade(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &accountRemoverMock{})

	teacher := account.Account{ID: "t1", Role: account.RoleTeacher, Subjects: []string{"Math"}}
	student := account.Account{ID: "s1", Role: account.RoleStudent, TeacherRefs: []string{"t1"}}
	topic, err := svc.CreateTopic(ctx, teacher, review.NewTopic{Subject: "Math", Topic: "Fractions"})
	if err != nil {
		t.Fatalf("CreateTopic() failed: %v", err)
	}
	if _, err = svc.SubmitFeedback(ctx, student, review.NewFeedback{TopicID: topic.ID, Message: "ok", Rating: 4}); err != nil {
		t.Fatalf("SubmitFeedback() failed: %v", err)
	}

	res, err := svc.DeleteTopicCascade(ctx, "t1", topic.ID)
	if err != nil {
		t.Fatalf("DeleteTopicCascade() failed: %v", err)
	}
	if res.Status() != review.Succeeded {
		t.Errorf("Status() = %v, want %v", res.Status(), review.Succeeded)
	}

	if topics, _ := svc.TopicsByTeacher(ctx, "t1"); len(topics) != 0 {
		t.Errorf("topic survived the cascade: %+v", topics)
	}
	if fbs, _ := svc.FeedbackForTeacher(ctx, "t1"); len(fbs) != 0 {
		t.Errorf("dependent feedback survived the cascade: %+v", fbs)
	}

	t.Run("foreign topic", func(t *testing.T) {
		other, err := svc.CreateTopic(ctx, teacher, review.NewTopic{Subject: "Math", Topic: "Decimals"})
		if err != nil {
			t.Fatalf("CreateTopic() failed: %v", err)
		}
		if _, err = svc.DeleteTopicCascade(ctx, "t2", other.ID); err != review.ErrTopicNotFound {
			t.Errorf("DeleteTopicCascade() error = %v, want %v", err, review.ErrTopicNotFound)
		}
	})
}

func TestService_DeleteTeacherCascade(t *testing.T) {
	ctx := context.Background()

	t.Run("all steps pass", func(t *testing.T) {
		remover := &accountRemoverMock{}
		svc, _ := newTestService(t, remover)

		teacher := account.Account{ID: "t1", Role: account.RoleTeacher, Subjects: []string{"Math"}}
		student := account.Account{ID: "s1", Role: account.RoleStudent, TeacherRefs: []string{"t1"}}
		topic, err := svc.CreateTopic(ctx, teacher, review.NewTopic{Subject: "Math", Topic: "Fractions"})
		if err != nil {
			t.Fatalf("CreateTopic() failed: %v", err)
		}
		if _, err = svc.SubmitFeedback(ctx, student, review.NewFeedback{TopicID: topic.ID, Message: "ok", Rating: 4}); err != nil {
			t.Fatalf("SubmitFeedback() failed: %v", err)
		}

		res := svc.DeleteTeacherCascade(ctx, "t1")
		if res.Status() != review.Succeeded {
			t.Fatalf("Status() = %v, want %v; steps: %+v", res.Status(), review.Succeeded, res.Steps)
		}
		if len(remover.deleted) != 1 || remover.deleted[0] != "t1" {
			t.Errorf("account step deleted %v, want [t1]", remover.deleted)
		}
		if topics, _ := svc.TopicsByTeacher(ctx, "t1"); len(topics) != 0 {
			t.Errorf("topics survived the cascade: %+v", topics)
		}
	})

	t.Run("account step failure is partial, later steps still run", func(t *testing.T) {
		svc, _ := newTestService(t, &accountRemoverMock{err: errors.New("store unavailable")})

		teacher := account.Account{ID: "t1", Role: account.RoleTeacher, Subjects: []string{"Math"}}
		if _, err := svc.CreateTopic(ctx, teacher, review.NewTopic{Subject: "Math", Topic: "Fractions"}); err != nil {
			t.Fatalf("CreateTopic() failed: %v", err)
		}

		res := svc.DeleteTeacherCascade(ctx, "t1")
		if res.Status() != review.Partial {
			t.Fatalf("Status() = %v, want %v", res.Status(), review.Partial)
		}
		if res.Steps[0].Name != "account" || res.Steps[0].Err == nil {
			t.Errorf("account step = %+v, want the reported failure", res.Steps[0])
		}
		if topics, _ := svc.TopicsByTeacher(ctx, "t1"); len(topics) != 0 {
			t.Error("topics step did not run after the account failure")
		}
	})
}
