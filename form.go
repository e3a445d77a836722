package main

import (
	"context"
	"log"
	"maps"
)

// Form tracks the values, errors and touched fields of one form. It is not
// safe for concurrent use.
type Form struct {
	initial Values
	values  Values
	errors  Errors
	touched map[string]bool
	schema  Schema
}

// NewForm starts a form at initial. A nil schema accepts everything.
func NewForm(initial Values, schema Schema) *Form {
	return &Form{
		initial: maps.Clone(initial),
		values:  maps.Clone(initial),
		errors:  Errors{},
		touched: map[string]bool{},
		schema:  schema,
	}
}

func (f *Form) Values() Values           { return maps.Clone(f.values) }
func (f *Form) Value(name string) string { return f.values[name] }
func (f *Form) Errors() Errors           { return maps.Clone(f.errors) }
func (f *Form) Error(name string) string { return f.errors[name] }
func (f *Form) Touched(name string) bool { return f.touched[name] }

func (f *Form) SetValue(name, value string) {
	if f.values == nil {
		f.values = Values{}
	}
	f.values[name] = value
}

func (f *Form) SetError(name, msg string) {
	f.errors[name] = msg
}

func (f *Form) ClearError(name string) {
	delete(f.errors, name)
}

func (f *Form) ClearAllErrors() {
	f.errors = Errors{}
}

// Change records a new value for name and drops any error shown for it.
func (f *Form) Change(name, value string) {
	f.SetValue(name, value)
	if _, ok := f.errors[name]; ok {
		f.ClearError(name)
	}
}

func (f *Form) Blur(name string) {
	f.touched[name] = true
}

// Validate runs the schema against values, or the current values when
// values is nil. A password confirmation that differs from the password is
// reported even when the schema accepts it.
func (f *Form) Validate(values Values) Errors {
	if f.schema == nil {
		return Errors{}
	}
	if values == nil {
		values = f.values
	}

	errs := f.schema(values)
	if errs == nil {
		errs = Errors{}
	}
	if values["password"] != "" && values["confirmPassword"] != "" {
		if msg := PasswordMatch(values["password"], values["confirmPassword"]); msg != "" {
			errs["confirmPassword"] = msg
		}
	}
	return errs
}

// ValidateField reports the error name would have if it held value.
func (f *Form) ValidateField(name, value string) string {
	values := maps.Clone(f.values)
	if values == nil {
		values = Values{}
	}
	values[name] = value
	return f.Validate(values)[name]
}

func (f *Form) IsValid() bool {
	return len(f.Validate(nil)) == 0
}

// Submit validates the current values and replaces the error set with the
// result. Only a clean form reaches onSubmit; its error is logged, not added
// to the form. Submit reports whether onSubmit ran.
func (f *Form) Submit(ctx context.Context, onSubmit func(context.Context, Values) error) bool {
	errs := f.Validate(nil)
	f.errors = errs
	if len(errs) > 0 {
		return false
	}

	if err := onSubmit(ctx, f.Values()); err != nil {
		log.Printf("form submission error: %v", err)
	}
	return true
}

// Reset restores values (the initial values when nil) and clears errors and
// touched flags.
func (f *Form) Reset(values Values) {
	if values == nil {
		values = f.initial
	}
	f.values = maps.Clone(values)
	f.errors = Errors{}
	f.touched = map[string]bool{}
}
