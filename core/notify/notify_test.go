package notify

import (
	"testing"

	"github.com/trezcool/maoni/core"
)

func TestService_WhatsAppLink(t *testing.T) {
	core.Conf = &core.Config{WhatsAppCountryCode: "91"}
	svc := NewService()

	tests := []struct {
		name    string
		phone   string
		text    string
		want    string
		wantErr error
	}{
		{
			name:  "plain number",
			phone: "9876543210",
			text:  "Leave your feedback!",
			want:  "https://wa.me/919876543210?text=Leave+your+feedback%21",
		},
		{
			name:  "formatted number",
			phone: "(987) 654-3210",
			text:  "hi",
			want:  "https://wa.me/919876543210?text=hi",
		},
		{name: "too short", phone: "12345", wantErr: ErrInvalidPhone},
		{name: "too long", phone: "98765432100", wantErr: ErrInvalidPhone},
		{name: "empty", phone: "", wantErr: ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.WhatsAppLink(tt.phone, tt.text)
			if err != tt.wantErr {
				t.Fatalf("WhatsAppLink() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("WhatsAppLink() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestService_MailtoLink(t *testing.T) {
	svc := &Service{}

	got := svc.MailtoLink("parent@test.cd", "Feedback request", "Please review this month's sessions")
	want := "mailto:parent@test.cd?body=Please+review+this+month%27s+sessions&subject=Feedback+request"
	if got != want {
		t.Errorf("MailtoLink() = %q, want %q", got, want)
	}

	if got := svc.MailtoLink("parent@test.cd", "", ""); got != "mailto:parent@test.cd" {
		t.Errorf("MailtoLink() without subject/body = %q", got)
	}
}
