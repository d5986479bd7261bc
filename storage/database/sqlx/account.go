// Package sqlxrepos implements the repository contracts on Postgres via sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/maoni/core/account"
)

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) account.Repository {
	return &accountRepository{db: db}
}

type accountRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Surname      string         `db:"surname"`
	Email        string         `db:"email"`
	Role         string         `db:"role"`
	IsActive     bool           `db:"is_active"`
	Subjects     pq.StringArray `db:"subjects"`
	JoiningDate  sql.NullTime   `db:"joining_date"`
	TeacherRefs  pq.StringArray `db:"teacher_refs"`
	Courses      pq.StringArray `db:"courses"`
	Age          string         `db:"age"`
	City         string         `db:"city"`
	Education    string         `db:"education"`
	ParentPhone  string         `db:"parent_phone"`
	ParentEmail  string         `db:"parent_email"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (r accountRow) account() account.Account {
	acct := account.Account{
		ID:           r.ID,
		Name:         r.Name,
		Surname:      r.Surname,
		Email:        r.Email,
		Role:         account.Role(r.Role),
		IsActive:     r.IsActive,
		Subjects:     r.Subjects,
		TeacherRefs:  r.TeacherRefs,
		Courses:      r.Courses,
		Age:          r.Age,
		City:         r.City,
		Education:    r.Education,
		ParentPhone:  r.ParentPhone,
		ParentEmail:  r.ParentEmail,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.JoiningDate.Valid {
		acct.JoiningDate = r.JoiningDate.Time
	}
	if r.LastLogin.Valid {
		acct.LastLogin = r.LastLogin.Time
	}
	return acct
}

func accounts(rows []accountRow) []account.Account {
	accts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accts = append(accts, row.account())
	}
	return accts
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

const accountCols = `id, name, surname, email, role, is_active, subjects, joining_date,
teacher_refs, courses, age, city, education, parent_phone, parent_email,
password_hash, created_at, updated_at, last_login`

func (repo *accountRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...account.Account) error {
	query := `SELECT EXISTS(SELECT 1 FROM account WHERE lower(email) = lower($1)`
	args := []interface{}{email}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, acct := range excluded {
			ids = append(ids, acct.ID)
		}
		query += ` AND NOT (id = ANY($2))`
		args = append(args, pq.Array(ids))
	}
	query += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return err
	}
	if exists {
		return account.ErrEmailExists
	}
	return nil
}

func (repo *accountRepository) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	query := `
INSERT INTO account (name, surname, email, role, is_active, subjects, joining_date,
                     teacher_refs, courses, age, city, education, parent_phone, parent_email,
                     password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, query,
		acct.Name, acct.Surname, acct.Email, acct.Role, acct.IsActive,
		pq.Array(acct.Subjects), nullTime(acct.JoiningDate),
		pq.Array(acct.TeacherRefs), pq.Array(acct.Courses),
		acct.Age, acct.City, acct.Education, acct.ParentPhone, acct.ParentEmail,
		acct.PasswordHash, acct.CreatedAt, acct.UpdatedAt,
	).Scan(&acct.ID)
	if err != nil {
		return account.Account{}, err
	}
	return acct, nil
}

func (repo *accountRepository) getBy(ctx context.Context, where string, arg interface{}) (account.Account, error) {
	var row accountRow
	query := fmt.Sprintf(`SELECT %s FROM account WHERE %s`, accountCols, where)
	if err := repo.db.GetContext(ctx, &row, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, err
	}
	return row.account(), nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	return repo.getBy(ctx, `id = $1`, id)
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	return repo.getBy(ctx, `lower(email) = lower($1)`, email)
}

func (repo *accountRepository) FilterAccounts(ctx context.Context, filter account.QueryFilter) ([]account.Account, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(name ILIKE %[1]s OR surname ILIKE %[1]s OR email ILIKE %[1]s)", p))
	}
	if filter.Role != account.RoleUnknown {
		where = append(where, "role = "+arg(filter.Role))
	}
	if filter.TeacherRef != "" {
		where = append(where, arg(filter.TeacherRef)+" = ANY(teacher_refs)")
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = "+arg(*filter.IsActive))
	}
	if !filter.CreatedFrom.IsZero() {
		where = append(where, "created_at >= "+arg(filter.CreatedFrom.UTC()))
	}
	if !filter.CreatedTo.IsZero() {
		where = append(where, "created_at <= "+arg(filter.CreatedTo.UTC()))
	}

	query := `SELECT ` + accountCols + ` FROM account`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	var rows []accountRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return accounts(rows), nil
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acct account.Account, isActive *bool) (account.Account, error) {
	// only save set fields
	var (
		set  []string
		args []interface{}
	)
	assign := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if acct.Name != "" {
		assign("name", acct.Name)
	}
	if acct.Surname != "" {
		assign("surname", acct.Surname)
	}
	if acct.Email != "" {
		assign("email", acct.Email)
	}
	if acct.Subjects != nil {
		assign("subjects", pq.Array(acct.Subjects))
	}
	if acct.TeacherRefs != nil {
		assign("teacher_refs", pq.Array(acct.TeacherRefs))
		assign("courses", pq.Array(acct.Courses))
	}
	if acct.Age != "" {
		assign("age", acct.Age)
	}
	if acct.City != "" {
		assign("city", acct.City)
	}
	if acct.Education != "" {
		assign("education", acct.Education)
	}
	if acct.ParentPhone != "" {
		assign("parent_phone", acct.ParentPhone)
	}
	if acct.ParentEmail != "" {
		assign("parent_email", acct.ParentEmail)
	}
	if acct.PasswordHash != nil {
		assign("password_hash", acct.PasswordHash)
	}
	if !acct.LastLogin.IsZero() {
		assign("last_login", acct.LastLogin)
	}
	if isActive != nil {
		assign("is_active", *isActive)
	}
	assign("updated_at", acct.UpdatedAt)

	args = append(args, acct.ID)
	query := fmt.Sprintf(
		`UPDATE account SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), accountCols,
	)

	var row accountRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, err
	}
	return row.account(), nil
}

func (repo *accountRepository) DeleteAccountsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM account WHERE id = ANY($1)`, pq.Array(ids))
	return err
}
