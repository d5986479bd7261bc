package core

import (
	"testing"

	"github.com/pkg/errors"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError(errors.New("email already in use"), FieldError{Field: "email", Error: "email already in use"})
	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if vErr.Error() != "email already in use" {
		t.Errorf("Error() = %q; want %q", vErr.Error(), "email already in use")
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" {
		t.Errorf("Fields = %+v; want one entry for email", vErr.Fields)
	}

	if empty := NewValidationError(nil).(*ValidationError); empty.Error() != "" {
		t.Errorf("Error() = %q; want empty", empty.Error())
	}
}

func TestIsShutdown(t *testing.T) {
	err := NewShutdownError("web server out of order")
	if !IsShutdown(err) {
		t.Error("IsShutdown() = false; want true")
	}
	if !IsShutdown(errors.Wrap(err, "dispatching dashboard")) {
		t.Error("IsShutdown() = false on a wrapped cause; want true")
	}
	if IsShutdown(errors.New("lol")) {
		t.Error("IsShutdown() = true on a plain error; want false")
	}
}
