package account

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/maoni/core"
)

var (
	knownRoleTag  = "knownrole"
	knownRoleText = "invalid role"

	refsCoursesTag  = "refscourses"
	refsCoursesText = "teacher_refs and courses must pair up"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to account attributes"
)

func init() {
	_ = core.Validate.RegisterValidation(knownRoleTag, knownRoleValidation)
	core.RegisterCustomTranslation(knownRoleTag, knownRoleText)

	core.Validate.RegisterStructValidation(accountStructValidation, RegisterStudent{})
	core.Validate.RegisterStructValidation(accountStructValidation, NewTeacher{})
	core.Validate.RegisterStructValidation(accountStructValidation, UpdateAccount{})
	core.RegisterCustomTranslation(refsCoursesTag, refsCoursesText)
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// knownRoleValidation checks that a provided role is in the closed role set.
func knownRoleValidation(fl validator.FieldLevel) bool {
	if role, ok := fl.Field().Interface().(Role); ok {
		return role.Known()
	}
	return ParseRole(fl.Field().String()).Known()
}

// accountStructValidation does struct level validation on account DTOs.
func accountStructValidation(sl validator.StructLevel) {
	switch acct := sl.Current().Interface().(type) {
	case RegisterStudent:
		validateRefsCourses(acct.TeacherRefs, acct.Courses, sl)
		validatePassword(acct.Password, acct.Name, acct.Email, sl)
	case NewTeacher:
		validatePassword(acct.Password, acct.Name, acct.Email, sl)
	case UpdateAccount:
		if acct.TeacherRefs != nil || acct.Courses != nil {
			validateRefsCourses(acct.TeacherRefs, acct.Courses, sl)
		}
		if acct.Password != "" {
			validatePassword(acct.Password, acct.Name, acct.Email, sl)
		}
	}
}

// validateRefsCourses enforces the positional pairing between a student's
// teacher assignments and their courses.
func validateRefsCourses(refs, courses []string, sl validator.StructLevel) {
	if len(refs) != len(courses) {
		sl.ReportError(refs, "teacher_refs", "TeacherRefs", refsCoursesTag, "")
		sl.ReportError(courses, "courses", "Courses", refsCoursesTag, "")
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no account attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	pwdLen := len(pwd)
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range []rune(pwd) {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(attr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
		return
	}
}
