package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/maoni/core/account"
)

type accountRepository struct {
	db *accountTable
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) query() []account.Account {
	accts := make([]account.Account, 0, len(repo.db.table))
	for _, acct := range repo.db.table {
		accts = append(accts, *acct)
	}
	return accts
}

func (repo *accountRepository) CheckEmailUniqueness(_ context.Context, email string, excluded ...account.Account) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, acct := range repo.query() {
		if !strings.EqualFold(acct.Email, email) {
			continue
		}
		if isExcluded(acct, excluded) {
			continue
		}
		return account.ErrEmailExists
	}
	return nil
}

func (repo *accountRepository) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	acct.ID = uuid.New().String()
	repo.db.table[acct.ID] = &acct
	return acct, nil
}

func (repo *accountRepository) GetAccountByID(_ context.Context, id string) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if acct, ok := repo.db.table[id]; ok {
		return *acct, nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, acct := range repo.query() {
		if strings.EqualFold(acct.Email, email) {
			return acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) FilterAccounts(_ context.Context, filter account.QueryFilter) ([]account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	accts := repo.query()

	// accounts with search keyword matching any of Name, Surname or Email ?
	if filter.Search != "" {
		var filtered []account.Account
		search := strings.ToLower(filter.Search)
		for _, acct := range accts {
			if strings.Contains(strings.ToLower(acct.Name), search) ||
				strings.Contains(strings.ToLower(acct.Surname), search) ||
				strings.Contains(strings.ToLower(acct.Email), search) {
				filtered = append(filtered, acct)
			}
		}
		accts = filtered
	}
	if accts != nil && filter.Role != account.RoleUnknown {
		var filtered []account.Account
		for _, acct := range accts {
			if acct.Role == filter.Role {
				filtered = append(filtered, acct)
			}
		}
		accts = filtered
	}
	// students assigned to the given teacher
	if accts != nil && filter.TeacherRef != "" {
		var filtered []account.Account
		for _, acct := range accts {
			if acct.HasTeacher(filter.TeacherRef) {
				filtered = append(filtered, acct)
			}
		}
		accts = filtered
	}
	if accts != nil && filter.IsActive != nil {
		var filtered []account.Account
		for _, acct := range accts {
			if acct.IsActive == *filter.IsActive {
				filtered = append(filtered, acct)
			}
		}
		accts = filtered
	}
	if accts != nil && !filter.CreatedFrom.IsZero() {
		var filtered []account.Account
		from := filter.CreatedFrom.UTC()
		for _, acct := range accts {
			if !acct.CreatedAt.Before(from) {
				filtered = append(filtered, acct)
			}
		}
		accts = filtered
	}
	if accts != nil && !filter.CreatedTo.IsZero() {
		var filtered []account.Account
		to := filter.CreatedTo.UTC()
		for _, acct := range accts {
			if !acct.CreatedAt.After(to) {
				filtered = append(filtered, acct)
			}
		}
		accts = filtered
	}

	return accts, nil
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acct account.Account, isActive *bool) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	orig, ok := repo.db.table[acct.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	if acct.Name != "" {
		orig.Name = acct.Name
	}
	if acct.Surname != "" {
		orig.Surname = acct.Surname
	}
	if acct.Email != "" {
		orig.Email = acct.Email
	}
	if acct.Subjects != nil {
		orig.Subjects = acct.Subjects
	}
	if acct.TeacherRefs != nil {
		orig.TeacherRefs = acct.TeacherRefs
		orig.Courses = acct.Courses
	}
	if acct.Age != "" {
		orig.Age = acct.Age
	}
	if acct.City != "" {
		orig.City = acct.City
	}
	if acct.Education != "" {
		orig.Education = acct.Education
	}
	if acct.ParentPhone != "" {
		orig.ParentPhone = acct.ParentPhone
	}
	if acct.ParentEmail != "" {
		orig.ParentEmail = acct.ParentEmail
	}
	if acct.PasswordHash != nil {
		orig.PasswordHash = acct.PasswordHash
	}
	if !acct.LastLogin.IsZero() {
		orig.LastLogin = acct.LastLogin
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = acct.UpdatedAt

	repo.db.table[orig.ID] = orig
	return *orig, nil
}

func (repo *accountRepository) DeleteAccountsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func isExcluded(acct account.Account, excluded []account.Account) bool {
	for _, excl := range excluded {
		if excl.ID == acct.ID {
			return true
		}
	}
	return false
}
