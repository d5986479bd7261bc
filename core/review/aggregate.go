package review

import (
	"math"
	"strconv"

	"github.com/trezcool/maoni/core"
)

// noReviewsYet is the single placeholder entry an empty rating table renders.
const noReviewsYet = "No reviews yet"

// MonthlyAverage is one row of a teacher's rating table.
type MonthlyAverage struct {
	Month   string `json:"month"`
	Average string `json:"average"`
}

// MonthlyAverages buckets feedback by calendar month of its timestamp and
// averages the ratings per bucket. Entries come out in first-seen order of
// the input, with the average rounded to one decimal and always rendered
// with one fractional digit. Records without a timestamp are skipped; when
// nothing is eligible a single placeholder entry is returned.
func MonthlyAverages(feedback []Feedback) []MonthlyAverage {
	type bucket struct {
		sum   int
		count int
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, fb := range feedback {
		if fb.Date.IsZero() {
			continue
		}
		key := fb.Date.Format("January 2006")
		b, ok := buckets[key]
		if !ok {
			b = new(bucket)
			buckets[key] = b
			order = append(order, key)
		}
		b.sum += fb.Rating
		b.count++
	}
	if len(order) == 0 {
		return []MonthlyAverage{{Month: noReviewsYet}}
	}

	averages := make([]MonthlyAverage, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		avg := math.Round(float64(b.sum)/float64(b.count)*10) / 10
		averages = append(averages, MonthlyAverage{
			Month:   key,
			Average: strconv.FormatFloat(avg, 'f', 1, 64),
		})
	}
	return averages
}

// TopicSet is a case-insensitive set of topic names.
type TopicSet map[string]struct{}

func (s TopicSet) Has(topic string) bool {
	_, ok := s[core.CleanString(topic, true /* lower */)]
	return ok
}

// SubmittedTopicSet collapses a student's feedback into the set of topics
// already reviewed, lower-cased and deduplicated across all their teachers.
func SubmittedTopicSet(feedback []Feedback) TopicSet {
	set := make(TopicSet, len(feedback))
	for _, fb := range feedback {
		set[core.CleanString(fb.Topic, true /* lower */)] = struct{}{}
	}
	return set
}
