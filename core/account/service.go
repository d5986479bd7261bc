package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"time"

	"github.com/trezcool/maoni/core"
)

var (
	// errors
	ErrNotFound    = errors.New("account not found")
	ErrEmailExists = errors.New("an account with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Account) error
		CreateAccount(ctx context.Context, acct Account) (Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		// FilterAccounts applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Name, Surname or Email.
		FilterAccounts(ctx context.Context, filter QueryFilter) ([]Account, error)
		UpdateAccount(ctx context.Context, acct Account, isActive *bool) (Account, error)
		DeleteAccountsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		log     core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, log core.Logger) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, log: log}
}

func (svc *Service) checkUniqueness(email string, exclAccts ...Account) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclAccts...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// RegisterStudent creates a student Account from a self-registration.
func (svc *Service) RegisterStudent(ctx context.Context, rs RegisterStudent) (Account, error) {
	now := time.Now().UTC()
	acct := Account{
		Name:        rs.Name,
		Surname:     rs.Surname,
		Email:       rs.Email,
		Role:        RoleStudent,
		IsActive:    true,
		TeacherRefs: rs.TeacherRefs,
		Courses:     rs.Courses,
		Age:         rs.Age,
		City:        rs.City,
		Education:   rs.Education,
		ParentPhone: rs.ParentPhone,
		ParentEmail: rs.ParentEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := acct.SetPassword(rs.Password); err != nil {
		return Account{}, err
	}
	return svc.repo.CreateAccount(ctx, acct)
}

// AddTeacher creates a teacher Account; admin operation.
func (svc *Service) AddTeacher(ctx context.Context, nt NewTeacher) (Account, error) {
	now := time.Now().UTC()
	joined := nt.JoiningDate
	if joined.IsZero() {
		joined = now
	}
	acct := Account{
		Name:        nt.Name,
		Surname:     nt.Surname,
		Email:       nt.Email,
		Role:        RoleTeacher,
		IsActive:    true,
		Subjects:    nt.Subjects,
		JoiningDate: joined,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := acct.SetPassword(nt.Password); err != nil {
		return Account{}, err
	}
	return svc.repo.CreateAccount(ctx, acct)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Account, error) {
	return svc.repo.FilterAccounts(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAccount) (Account, error) {
	acct := Account{
		ID:          id,
		Name:        ua.Name,
		Surname:     ua.Surname,
		Email:       ua.Email,
		Subjects:    ua.Subjects,
		TeacherRefs: ua.TeacherRefs,
		Courses:     ua.Courses,
		Age:         ua.Age,
		City:        ua.City,
		Education:   ua.Education,
		ParentPhone: ua.ParentPhone,
		ParentEmail: ua.ParentEmail,
		UpdatedAt:   time.Now().UTC(),
	}
	if ua.Password != "" {
		if err := acct.SetPassword(ua.Password); err != nil {
			return Account{}, err
		}
	}
	return svc.repo.UpdateAccount(ctx, acct, ua.IsActive)
}

func (svc *Service) SetLastLogin(ctx context.Context, acct Account) (Account, error) {
	acct.LastLogin = time.Now().UTC()
	acct.UpdatedAt = acct.LastLogin
	return svc.repo.UpdateAccount(ctx, acct, nil)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAccountsByID(ctx, ids...)
}

// RequestPasswordReset emails a password reset link to the account holder.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acct, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(acct)
	return nil
}

func (svc *Service) sendPasswordResetMail(acct Account) {
	token, err := makeToken(acct)
	if err != nil {
		svc.log.Error("generating password reset token", err)
		return
	}
	link := fmt.Sprintf(
		"%s/password-reset-confirm?uid=%s&token=%s",
		core.Conf.FrontendBaseURL, encodeUID(acct), url.QueryEscape(token),
	)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: acct.Name + " " + acct.Surname, Address: acct.Email}},
		Subject: "Password Reset",
		BodyStr: fmt.Sprintf(
			"Hi %s,\r\n\r\n"+
				"You requested a password reset for your %s account.\r\n"+
				"Follow this link to choose a new password:\r\n\r\n%s\r\n\r\n"+
				"If you did not request this, you can safely ignore this email.\r\n",
			acct.Name, core.Conf.AppName, link,
		),
	})
}

// ResetPassword validates the reset token and sets the new password.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetAccountPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	acct, err := svc.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(acct, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = acct.SetPassword(rp.Password); err != nil {
		return err
	}
	acct.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateAccount(ctx, acct, nil)
	return err
}
