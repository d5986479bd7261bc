package dummydb

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/trezcool/maoni/core/account"
	"github.com/trezcool/maoni/core/review"
)

func Test_repositories_assignUUIDs(t *testing.T) {
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()

	acct, err := NewAccountRepository(db).CreateAccount(ctx, account.Account{Email: "t@test.cd"})
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	topic, err := NewTopicRepository(db).CreateTopic(ctx, review.Topic{TeacherRef: acct.ID})
	if err != nil {
		t.Fatalf("CreateTopic() failed: %v", err)
	}
	fb, err := NewFeedbackRepository(db).CreateFeedback(ctx, review.Feedback{TeacherRef: acct.ID})
	if err != nil {
		t.Fatalf("CreateFeedback() failed: %v", err)
	}

	for _, id := range []string{acct.ID, topic.ID, fb.ID} {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("ID %q is not a UUID: %v", id, err)
		}
	}
}
