package review

import (
	"reflect"
	"testing"
	"time"
)

func TestMonthlyAverages(t *testing.T) {
	jan5 := time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC)
	jan20 := time.Date(2024, time.January, 20, 10, 0, 0, 0, time.UTC)
	feb2 := time.Date(2024, time.February, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		feedback []Feedback
		want     []MonthlyAverage
	}{
		{
			name: "averages per month in first-seen order",
			feedback: []Feedback{
				{Rating: 5, Date: jan5},
				{Rating: 3, Date: jan20},
				{Rating: 4, Date: feb2},
			},
			want: []MonthlyAverage{
				{Month: "January 2024", Average: "4.0"},
				{Month: "February 2024", Average: "4.0"},
			},
		},
		{
			name: "rounds to one decimal",
			feedback: []Feedback{
				{Rating: 5, Date: jan5},
				{Rating: 4, Date: jan20},
				{Rating: 4, Date: jan20},
			},
			want: []MonthlyAverage{{Month: "January 2024", Average: "4.3"}},
		},
		{
			name: "skips records without a timestamp",
			feedback: []Feedback{
				{Rating: 1},
				{Rating: 4, Date: feb2},
			},
			want: []MonthlyAverage{{Month: "February 2024", Average: "4.0"}},
		},
		{
			name: "no eligible records",
			feedback: []Feedback{
				{Rating: 5},
			},
			want: []MonthlyAverage{{Month: "No reviews yet"}},
		},
		{
			name: "empty input",
			want: []MonthlyAverage{{Month: "No reviews yet"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthlyAverages(tt.feedback); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MonthlyAverages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubmittedTopicSet(t *testing.T) {
	set := SubmittedTopicSet([]Feedback{
		{TeacherRef: "t1", Topic: "Algebra"},
		{TeacherRef: "t2", Topic: "ALGEBRA"}, // same topic, different teacher
		{TeacherRef: "t1", Topic: "Geometry"},
	})

	if len(set) != 2 {
		t.Fatalf("SubmittedTopicSet() has %d entries, want 2: %v", len(set), set)
	}
	for _, topic := range []string{"algebra", "Algebra", " ALGEBRA ", "Geometry"} {
		if !set.Has(topic) {
			t.Errorf("Has(%q) = false, want true", topic)
		}
	}
	if set.Has("Calculus") {
		t.Error(`Has("Calculus") = true, want false`)
	}
}
