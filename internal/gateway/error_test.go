package gateway

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		err   error
		check func(error) bool
	}{
		{NewError(KindNotFound, "task %d does not exist", 7), IsNotFound},
		{NewError(KindPermissionDenied, "denied"), IsPermissionDenied},
		{NewError(KindValidationFailed, "missing field"), IsValidationFailed},
		{NewError(KindConnectionFailed, "timeout"), IsConnectionFailed},
	}

	for _, tc := range cases {
		if !tc.check(tc.err) {
			t.Errorf("%v not classified as its own kind", tc.err)
		}
	}

	if IsNotFound(NewError(KindConnectionFailed, "x")) {
		t.Error("kinds must not cross-match")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain errors have no kind")
	}
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	inner := NewError(KindNotFound, "task 7 does not exist")
	wrapped := fmt.Errorf("toggling: %w", inner)

	if !IsNotFound(wrapped) {
		t.Error("errors.As should find the gateway error through wrapping")
	}
	if KindOf(wrapped) != KindNotFound {
		t.Errorf("KindOf = %q", KindOf(wrapped))
	}
}
