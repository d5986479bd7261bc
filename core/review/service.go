package review

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/account"
)

var (
	// errors
	ErrTopicNotFound    = errors.New("review topic not found")
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrAlreadySubmitted = errors.New("feedback already submitted for this topic")
)

type (
	TopicRepository interface {
		CreateTopic(ctx context.Context, topic Topic) (Topic, error)
		GetTopicByID(ctx context.Context, id string) (Topic, error)
		// FilterTopicsByTeacher returns the teacher's topics newest-first.
		FilterTopicsByTeacher(ctx context.Context, teacherRef string) ([]Topic, error)
		UpdateTopic(ctx context.Context, topic Topic) (Topic, error)
		DeleteTopicsByID(ctx context.Context, ids ...string) error
		DeleteTopicsByTeacher(ctx context.Context, teacherRef string) error
	}

	FeedbackRepository interface {
		CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
		GetFeedbackByID(ctx context.Context, id string) (Feedback, error)
		// Filter* methods return feedback newest-first.
		FilterFeedbackByTeacher(ctx context.Context, teacherRef string) ([]Feedback, error)
		FilterFeedbackByStudent(ctx context.Context, studentRef string) ([]Feedback, error)
		UpdateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
		DeleteFeedbackByTopic(ctx context.Context, teacherRef, topic string) error
		DeleteFeedbackByTeacher(ctx context.Context, teacherRef string) error
	}

	// AccountRemover is the part of the account service the teacher cascade
	// needs.
	AccountRemover interface {
		Delete(ctx context.Context, ids ...string) error
	}

	Service struct {
		topics   TopicRepository
		feedback FeedbackRepository
		accounts AccountRemover
		log      core.Logger
	}
)

func NewService(topics TopicRepository, feedback FeedbackRepository, accounts AccountRemover, log core.Logger) *Service {
	return &Service{topics: topics, feedback: feedback, accounts: accounts, log: log}
}

// CreateTopic creates a review topic for one of the teacher's own subjects.
func (svc *Service) CreateTopic(ctx context.Context, teacher account.Account, nt NewTopic) (Topic, error) {
	if !teacher.TeachesSubject(nt.Subject) {
		return Topic{}, core.NewValidationError(nil, core.FieldError{
			Field: "subject", Error: "you do not teach this subject",
		})
	}
	now := time.Now().UTC()
	date := nt.Date
	if date.IsZero() {
		date = now
	}
	return svc.topics.CreateTopic(ctx, Topic{
		TeacherRef: teacher.ID,
		Subject:    nt.Subject,
		Topic:      nt.Topic,
		Date:       date,
		CreatedAt:  now,
	})
}

func (svc *Service) TopicsByTeacher(ctx context.Context, teacherRef string) ([]Topic, error) {
	return svc.topics.FilterTopicsByTeacher(ctx, teacherRef)
}

// TopicsForStudent fans in over the student's teachers and merges their
// topics newest-first. A failing teacher query fails the whole fetch; the
// caller falls back to an empty list.
func (svc *Service) TopicsForStudent(ctx context.Context, student account.Account) ([]Topic, error) {
	var merged []Topic
	for _, ref := range student.TeacherRefs {
		topics, err := svc.topics.FilterTopicsByTeacher(ctx, ref)
		if err != nil {
			return nil, err
		}
		merged = append(merged, topics...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date.After(merged[j].Date) })
	return merged, nil
}

// UpdateTopic edits the topic name and date of a topic the teacher owns.
func (svc *Service) UpdateTopic(ctx context.Context, teacherRef, id string, ut UpdateTopic) (Topic, error) {
	topic, err := svc.topics.GetTopicByID(ctx, id)
	if err != nil {
		return Topic{}, err
	}
	if topic.TeacherRef != teacherRef {
		return Topic{}, ErrTopicNotFound
	}
	topic.Topic = ut.Topic
	if !ut.Date.IsZero() {
		topic.Date = ut.Date
	}
	return svc.topics.UpdateTopic(ctx, topic)
}

// SubmittedTopics returns the set of topics the student has already reviewed,
// restricted to their current teachers. It is recomputed on every call;
// nothing is cached between a teacher change and the next fetch.
func (svc *Service) SubmittedTopics(ctx context.Context, student account.Account) (TopicSet, error) {
	fbs, err := svc.feedback.FilterFeedbackByStudent(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	current := fbs[:0]
	for _, fb := range fbs {
		if student.HasTeacher(fb.TeacherRef) {
			current = append(current, fb)
		}
	}
	return SubmittedTopicSet(current), nil
}

// SubmitFeedback records a student's review of a topic belonging to one of
// their teachers. The student's name is snapshotted and the feedback inherits
// the topic's date so it lands in the topic's rating bucket. At most one
// feedback per topic is accepted per student.
func (svc *Service) SubmitFeedback(ctx context.Context, student account.Account, nf NewFeedback) (Feedback, error) {
	topic, err := svc.topics.GetTopicByID(ctx, nf.TopicID)
	if err != nil {
		return Feedback{}, err
	}
	if !student.HasTeacher(topic.TeacherRef) {
		return Feedback{}, ErrTopicNotFound
	}
	submitted, err := svc.SubmittedTopics(ctx, student)
	if err != nil {
		return Feedback{}, err
	}
	if submitted.Has(topic.Topic) {
		return Feedback{}, core.NewValidationError(ErrAlreadySubmitted)
	}
	return svc.feedback.CreateFeedback(ctx, Feedback{
		TeacherRef:  topic.TeacherRef,
		StudentRef:  student.ID,
		StudentName: student.Name,
		Surname:     student.Surname,
		Topic:       topic.Topic,
		Message:     nf.Message,
		Rating:      nf.Rating,
		Date:        topic.Date,
	})
}

// EditFeedback amends the message and rating of the student's own feedback.
func (svc *Service) EditFeedback(ctx context.Context, studentRef, id string, uf UpdateFeedback) (Feedback, error) {
	fb, err := svc.feedback.GetFeedbackByID(ctx, id)
	if err != nil {
		return Feedback{}, err
	}
	if fb.StudentRef != studentRef {
		return Feedback{}, ErrFeedbackNotFound
	}
	fb.Message = uf.Message
	fb.Rating = uf.Rating
	return svc.feedback.UpdateFeedback(ctx, fb)
}

func (svc *Service) FeedbackForTeacher(ctx context.Context, teacherRef string) ([]Feedback, error) {
	return svc.feedback.FilterFeedbackByTeacher(ctx, teacherRef)
}

func (svc *Service) FeedbackForStudent(ctx context.Context, studentRef string) ([]Feedback, error) {
	return svc.feedback.FilterFeedbackByStudent(ctx, studentRef)
}

// MonthlyRatings builds a teacher's monthly rating table from all feedback
// left for them.
func (svc *Service) MonthlyRatings(ctx context.Context, teacherRef string) ([]MonthlyAverage, error) {
	fbs, err := svc.feedback.FilterFeedbackByTeacher(ctx, teacherRef)
	if err != nil {
		return nil, err
	}
	return MonthlyAverages(fbs), nil
}

// TeacherRatings pairs one teacher with their monthly rating table.
type TeacherRatings struct {
	TeacherRef string           `json:"teacher_ref"`
	Ratings    []MonthlyAverage `json:"ratings"`
	Err        error            `json:"-"`
}

// RatingsForTeachers fans out one rating query per teacher. Each teacher is
// paired with the result of their own query, in input order regardless of
// completion order; a failing query only fails its own entry.
func (svc *Service) RatingsForTeachers(ctx context.Context, teacherRefs ...string) []TeacherRatings {
	results := make([]TeacherRatings, len(teacherRefs))
	var wg sync.WaitGroup
	for i, ref := range teacherRefs {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			ratings, err := svc.MonthlyRatings(ctx, ref)
			results[i] = TeacherRatings{TeacherRef: ref, Ratings: ratings, Err: err}
		}(i, ref)
	}
	wg.Wait()
	return results
}

// DeleteTopicCascade removes a topic the teacher owns, then its dependent
// feedback. Steps run in that order and are reported individually; a topic
// already gone does not stop the feedback sweep.
func (svc *Service) DeleteTopicCascade(ctx context.Context, teacherRef, id string) (Result, error) {
	topic, err := svc.topics.GetTopicByID(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if topic.TeacherRef != teacherRef {
		return Result{}, ErrTopicNotFound
	}

	var res Result
	res.add("topic", svc.topics.DeleteTopicsByID(ctx, topic.ID))
	res.add("feedback", svc.feedback.DeleteFeedbackByTopic(ctx, teacherRef, topic.Topic))
	svc.logCascade("topic delete", topic.ID, res)
	return res, nil
}

// DeleteTeacherCascade removes a teacher account with everything hanging off
// it: the account record, their topics, the feedback left for them. No step
// rolls back an earlier one; a partial result leaves orphans behind and
// reports which step failed.
func (svc *Service) DeleteTeacherCascade(ctx context.Context, teacherRef string) Result {
	var res Result
	res.add("account", svc.accounts.Delete(ctx, teacherRef))
	res.add("topics", svc.topics.DeleteTopicsByTeacher(ctx, teacherRef))
	res.add("feedback", svc.feedback.DeleteFeedbackByTeacher(ctx, teacherRef))
	svc.logCascade("teacher delete", teacherRef, res)
	return res
}

func (svc *Service) logCascade(op, id string, res Result) {
	for _, step := range res.Steps {
		if step.Err != nil {
			svc.log.Error(op+" cascade: step "+step.Name+" failed for "+id, step.Err)
		}
	}
}
