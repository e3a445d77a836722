package main

import (
	"context"
	"errors"
	"testing"
)

func TestForm_ChangeClearsOnlyThatError(t *testing.T) {
	f := NewForm(Values{"email": "", "password": ""}, LoginSchema)
	f.Submit(context.Background(), func(context.Context, Values) error { return nil })

	if f.Error("email") == "" || f.Error("password") == "" {
		t.Fatalf("expected both fields to fail, got %v", f.Errors())
	}

	f.Change("email", "demo@example.com")

	if f.Error("email") != "" {
		t.Errorf("expected email error cleared, got %q", f.Error("email"))
	}
	if f.Error("password") == "" {
		t.Error("expected password error kept")
	}
	if f.Value("email") != "demo@example.com" {
		t.Errorf("unexpected value %q", f.Value("email"))
	}
}

func TestForm_Submit(t *testing.T) {
	tests := []struct {
		name    string
		values  Values
		wantRun bool
	}{
		{"invalid", Values{"email": "bad", "password": "password123"}, false},
		{"valid", Values{"email": "demo@example.com", "password": "password123"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewForm(tt.values, LoginSchema)

			var got Values
			ran := f.Submit(context.Background(), func(_ context.Context, v Values) error {
				got = v
				return nil
			})

			if ran != tt.wantRun {
				t.Fatalf("Submit() = %v, want %v", ran, tt.wantRun)
			}
			if tt.wantRun && got["email"] != tt.values["email"] {
				t.Errorf("handler got %v", got)
			}
			if !tt.wantRun && f.Error("email") == "" {
				t.Error("expected email error recorded")
			}
		})
	}
}

func TestForm_SubmitReplacesErrors(t *testing.T) {
	f := NewForm(Values{"email": "demo@example.com", "password": "password123"}, LoginSchema)
	f.SetError("email", "server says no")

	f.Submit(context.Background(), func(context.Context, Values) error {
		return errors.New("handler failed")
	})

	if len(f.Errors()) != 0 {
		t.Errorf("expected errors replaced by a clean result, got %v", f.Errors())
	}
}

func TestForm_PasswordConfirmation(t *testing.T) {
	f := NewForm(Values{
		"name":            "Ann",
		"email":           "ann@example.com",
		"password":        "Secret#123",
		"confirmPassword": "Secret#124",
	}, RegisterSchema)

	if f.IsValid() {
		t.Fatal("expected mismatched confirmation to be invalid")
	}
	if got := f.Validate(nil)["confirmPassword"]; got != "Passwords do not match" {
		t.Errorf("unexpected message %q", got)
	}

	f.Change("confirmPassword", "Secret#123")
	if !f.IsValid() {
		t.Errorf("expected valid form, got %v", f.Validate(nil))
	}
}

func TestForm_ValidateField(t *testing.T) {
	f := NewForm(Values{"title": "", "content": ""}, PostSchema)

	if got := f.ValidateField("title", "Hi"); got != "Title must be at least 5 characters long" {
		t.Errorf("unexpected message %q", got)
	}
	if got := f.ValidateField("title", "A fine title"); got != "" {
		t.Errorf("expected no error, got %q", got)
	}
	if f.Value("title") != "" {
		t.Error("expected ValidateField to leave values untouched")
	}
}

func TestForm_ErrorHelpers(t *testing.T) {
	f := NewForm(nil, nil)

	f.SetError("a", "one")
	f.SetError("b", "two")
	f.ClearError("a")
	if f.Error("a") != "" || f.Error("b") != "two" {
		t.Errorf("unexpected errors %v", f.Errors())
	}

	f.ClearAllErrors()
	if len(f.Errors()) != 0 {
		t.Errorf("expected no errors, got %v", f.Errors())
	}

	f.SetValue("a", "x")
	if !f.IsValid() {
		t.Error("expected a form without a schema to be valid")
	}
}

func TestForm_Reset(t *testing.T) {
	f := NewForm(Values{"content": "start"}, CommentSchema)
	f.Change("content", "changed")
	f.Blur("content")
	f.SetError("content", "bad")

	f.Reset(nil)

	if f.Value("content") != "start" {
		t.Errorf("expected initial value, got %q", f.Value("content"))
	}
	if f.Touched("content") || len(f.Errors()) != 0 {
		t.Error("expected touched and errors cleared")
	}

	f.Reset(Values{"content": "other"})
	if f.Value("content") != "other" {
		t.Errorf("expected given value, got %q", f.Value("content"))
	}
}

func TestForm_Blur(t *testing.T) {
	f := NewForm(Values{}, CommentSchema)
	if f.Touched("content") {
		t.Fatal("expected untouched field")
	}
	f.Blur("content")
	if !f.Touched("content") {
		t.Error("expected field touched")
	}
}

func TestForm_SchemaReturningNil(t *testing.T) {
	accept := func(Values) Errors { return nil }
	f := NewForm(Values{"password": "a", "confirmPassword": "b"}, accept)

	errs := f.Validate(nil)
	if errs["confirmPassword"] != "Passwords do not match" {
		t.Errorf("expected mismatch reported, got %v", errs)
	}

	f.Change("confirmPassword", "a")
	if !f.IsValid() {
		t.Errorf("expected valid form, got %v", f.Validate(nil))
	}
}
