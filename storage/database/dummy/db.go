// Package dummydb is an in-memory database used by tests and local
// development. It honors the repository contracts, ordering included.
package dummydb

import (
	"sync"

	"github.com/trezcool/maoni/core/account"
	"github.com/trezcool/maoni/core/review"
)

type (
	DB struct {
		account  *accountTable
		topic    *topicTable
		feedback *feedbackTable
	}

	accountTable struct {
		sync.RWMutex
		table map[string]*account.Account
	}

	topicTable struct {
		sync.RWMutex
		table map[string]*review.Topic
	}

	feedbackTable struct {
		sync.RWMutex
		table map[string]*review.Feedback
	}
)

func Open() (*DB, error) {
	db := &DB{
		account:  &accountTable{table: make(map[string]*account.Account)},
		topic:    &topicTable{table: make(map[string]*review.Topic)},
		feedback: &feedbackTable{table: make(map[string]*review.Feedback)},
	}
	return db, nil
}
