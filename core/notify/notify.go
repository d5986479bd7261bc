// Package notify builds the prefilled messaging links the admin view hands
// out: a WhatsApp deep link and a mailto link. Links are fire and forget;
// there is no delivery confirmation and no retry.
package notify

import (
	"errors"
	"net/url"

	"github.com/trezcool/maoni/core"
)

var ErrInvalidPhone = errors.New("phone number must have exactly 10 digits")

type Service struct {
	countryCode string
}

func NewService() *Service {
	return &Service{countryCode: core.Conf.WhatsAppCountryCode}
}

// WhatsAppLink builds a wa.me deep link for a local 10-digit phone number,
// prefixed with the configured country code. Separators and spaces in the
// number are stripped before validation.
func (svc *Service) WhatsAppLink(phone, text string) (string, error) {
	digits := core.StripPhone(phone)
	if len(digits) != 10 {
		return "", ErrInvalidPhone
	}
	u := url.URL{
		Scheme:   "https",
		Host:     "wa.me",
		Path:     "/" + svc.countryCode + digits,
		RawQuery: url.Values{"text": {text}}.Encode(),
	}
	return u.String(), nil
}

// MailtoLink builds a mailto link with the subject and body prefilled.
func (svc *Service) MailtoLink(email, subject, body string) string {
	q := make(url.Values)
	if subject != "" {
		q.Set("subject", subject)
	}
	if body != "" {
		q.Set("body", body)
	}
	link := "mailto:" + email
	if len(q) > 0 {
		link += "?" + q.Encode()
	}
	return link
}
