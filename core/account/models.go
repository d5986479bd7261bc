package account

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/maoni/core"
)

// Role is the closed classification of an Account governing view access.
// Anything outside the known set parses to RoleUnknown; authorization
// decisions treat RoleUnknown as a terminal invalid state, never a default.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleUnknown Role = ""
)

var Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// ParseRole lower-cases and matches s against the known role set.
func ParseRole(s string) Role {
	switch Role(core.CleanString(s, true /* lower */)) {
	case RoleStudent:
		return RoleStudent
	case RoleTeacher:
		return RoleTeacher
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUnknown
	}
}

func (r Role) Known() bool {
	return r == RoleStudent || r == RoleTeacher || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active"`

	// teacher profile
	Subjects    []string  `json:"subjects,omitempty"` // ordered
	JoiningDate time.Time `json:"joining_date,omitempty"`

	// student profile; TeacherRefs and Courses are positionally paired
	TeacherRefs []string `json:"teacher_refs,omitempty"`
	Courses     []string `json:"courses,omitempty"`
	Age         string   `json:"age,omitempty"`
	City        string   `json:"city,omitempty"`
	Education   string   `json:"education,omitempty"`
	ParentPhone string   `json:"parent_phone,omitempty"`
	ParentEmail string   `json:"parent_email,omitempty"`

	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) IsStudent() bool { return a.Role == RoleStudent }
func (a Account) IsTeacher() bool { return a.Role == RoleTeacher }
func (a Account) IsAdmin() bool   { return a.Role == RoleAdmin }

// TeachesSubject reports whether subject is one of the teacher's subjects.
func (a Account) TeachesSubject(subject string) bool {
	for _, s := range a.Subjects {
		if strings.EqualFold(s, subject) {
			return true
		}
	}
	return false
}

// HasTeacher reports whether teacherRef is one of the student's teachers.
func (a Account) HasTeacher(teacherRef string) bool {
	for _, ref := range a.TeacherRefs {
		if ref == teacherRef {
			return true
		}
	}
	return false
}

// RegisterStudent contains information needed for student self-registration.
// TeacherRefs/Courses keep the positional assignment pairing; cardinality 1 is
// the single-teacher special case.
type RegisterStudent struct {
	Name            string   `json:"name" validate:"required"`
	Surname         string   `json:"surname" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	TeacherRefs     []string `json:"teacher_refs" validate:"required,min=1,dive,required"`
	Courses         []string `json:"courses" validate:"required,min=1,dive,required"`
	Age             string   `json:"age"`
	City            string   `json:"city"`
	Education       string   `json:"education"`
	ParentPhone     string   `json:"parent_phone" validate:"omitempty,phone10"`
	ParentEmail     string   `json:"parent_email" validate:"omitempty,email"`
}

func (rs *RegisterStudent) Validate(svc *Service) error {
	rs.Name = core.CleanString(rs.Name)
	rs.Surname = core.CleanString(rs.Surname)
	rs.Email = core.CleanString(rs.Email, true /* lower */)
	rs.ParentEmail = core.CleanString(rs.ParentEmail, true /* lower */)

	if err := core.Validate.Struct(rs); err != nil {
		return err
	}
	return svc.checkUniqueness(rs.Email)
}

// NewTeacher contains information needed by an admin to add a teacher.
type NewTeacher struct {
	Name            string    `json:"name" validate:"required"`
	Surname         string    `json:"surname" validate:"required"`
	Email           string    `json:"email" validate:"required,email"`
	Password        string    `json:"password" validate:"required"`
	PasswordConfirm string    `json:"password_confirm" validate:"required,eqfield=Password"`
	Subjects        []string  `json:"subjects" validate:"required,min=1,dive,required"`
	JoiningDate     time.Time `json:"joining_date"`
}

func (nt *NewTeacher) Validate(svc *Service) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Surname = core.CleanString(nt.Surname)
	nt.Email = core.CleanString(nt.Email, true /* lower */)

	if err := core.Validate.Struct(nt); err != nil {
		return err
	}
	return svc.checkUniqueness(nt.Email)
}

// UpdateAccount defines what information may be provided to modify an existing Account.
// Role is immutable after creation.
type UpdateAccount struct {
	Name            string   `json:"name"`
	Surname         string   `json:"surname"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsActive        *bool    `json:"is_active"`
	Subjects        []string `json:"subjects" validate:"omitempty,min=1,dive,required"`
	TeacherRefs     []string `json:"teacher_refs" validate:"omitempty,min=1,dive,required"`
	Courses         []string `json:"courses" validate:"omitempty,min=1,dive,required"`
	Age             string   `json:"age"`
	City            string   `json:"city"`
	Education       string   `json:"education"`
	ParentPhone     string   `json:"parent_phone" validate:"omitempty,phone10"`
	ParentEmail     string   `json:"parent_email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (ua *UpdateAccount) Validate(origAcct Account, svc *Service) error {
	if name := core.CleanString(ua.Name); name != "" {
		ua.Name = name
	} else {
		ua.Name = origAcct.Name
	}
	if surname := core.CleanString(ua.Surname); surname != "" {
		ua.Surname = surname
	} else {
		ua.Surname = origAcct.Surname
	}
	if email := core.CleanString(ua.Email, true /* lower */); email != "" {
		ua.Email = email
	} else {
		ua.Email = origAcct.Email
	}

	if err := core.Validate.Struct(ua); err != nil {
		return err
	}
	return svc.checkUniqueness(ua.Email, origAcct)
}

type ResetAccountPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetAccountPassword) Validate() error { return core.Validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Role        Role      `query:"role"`
	TeacherRef  string    `query:"teacher"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == RoleUnknown && qf.TeacherRef == "" &&
		qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = ParseRole(string(qf.Role))
	qf.TeacherRef = core.CleanString(qf.TeacherRef)
}
