package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/maoni/core/review"
)

type topicRepository struct {
	db *topicTable
}

var _ review.TopicRepository = (*topicRepository)(nil) // interface compliance check

func NewTopicRepository(db *DB) review.TopicRepository {
	return &topicRepository{db: db.topic}
}

func (repo *topicRepository) CreateTopic(_ context.Context, topic review.Topic) (review.Topic, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	topic.ID = uuid.New().String()
	repo.db.table[topic.ID] = &topic
	return topic, nil
}

func (repo *topicRepository) GetTopicByID(_ context.Context, id string) (review.Topic, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if topic, ok := repo.db.table[id]; ok {
		return *topic, nil
	}
	return review.Topic{}, review.ErrTopicNotFound
}

func (repo *topicRepository) FilterTopicsByTeacher(_ context.Context, teacherRef string) ([]review.Topic, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	topics := make([]review.Topic, 0)
	for _, topic := range repo.db.table {
		if topic.TeacherRef == teacherRef {
			topics = append(topics, *topic)
		}
	}
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Date.After(topics[j].Date) })
	return topics, nil
}

func (repo *topicRepository) UpdateTopic(_ context.Context, topic review.Topic) (review.Topic, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[topic.ID]
	if !ok {
		return review.Topic{}, review.ErrTopicNotFound
	}
	orig.Topic = topic.Topic
	orig.Date = topic.Date
	return *orig, nil
}

func (repo *topicRepository) DeleteTopicsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *topicRepository) DeleteTopicsByTeacher(_ context.Context, teacherRef string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for id, topic := range repo.db.table {
		if topic.TeacherRef == teacherRef {
			delete(repo.db.table, id)
		}
	}
	return nil
}

type feedbackRepository struct {
	db *feedbackTable
}

var _ review.FeedbackRepository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *DB) review.FeedbackRepository {
	return &feedbackRepository{db: db.feedback}
}

func (repo *feedbackRepository) CreateFeedback(_ context.Context, fb review.Feedback) (review.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	fb.ID = uuid.New().String()
	repo.db.table[fb.ID] = &fb
	return fb, nil
}

func (repo *feedbackRepository) GetFeedbackByID(_ context.Context, id string) (review.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if fb, ok := repo.db.table[id]; ok {
		return *fb, nil
	}
	return review.Feedback{}, review.ErrFeedbackNotFound
}

func (repo *feedbackRepository) filter(match func(review.Feedback) bool) []review.Feedback {
	fbs := make([]review.Feedback, 0)
	for _, fb := range repo.db.table {
		if match(*fb) {
			fbs = append(fbs, *fb)
		}
	}
	sort.SliceStable(fbs, func(i, j int) bool { return fbs[i].Date.After(fbs[j].Date) })
	return fbs
}

func (repo *feedbackRepository) FilterFeedbackByTeacher(_ context.Context, teacherRef string) ([]review.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(func(fb review.Feedback) bool { return fb.TeacherRef == teacherRef }), nil
}

func (repo *feedbackRepository) FilterFeedbackByStudent(_ context.Context, studentRef string) ([]review.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(func(fb review.Feedback) bool { return fb.StudentRef == studentRef }), nil
}

func (repo *feedbackRepository) UpdateFeedback(_ context.Context, fb review.Feedback) (review.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[fb.ID]
	if !ok {
		return review.Feedback{}, review.ErrFeedbackNotFound
	}
	orig.Message = fb.Message
	orig.Rating = fb.Rating
	return *orig, nil
}

func (repo *feedbackRepository) DeleteFeedbackByTopic(_ context.Context, teacherRef, topic string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for id, fb := range repo.db.table {
		if fb.TeacherRef == teacherRef && strings.EqualFold(fb.Topic, topic) {
			delete(repo.db.table, id)
		}
	}
	return nil
}

func (repo *feedbackRepository) DeleteFeedbackByTeacher(_ context.Context, teacherRef string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for id, fb := range repo.db.table {
		if fb.TeacherRef == teacherRef {
			delete(repo.db.table, id)
		}
	}
	return nil
}
