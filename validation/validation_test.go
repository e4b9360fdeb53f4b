package validation

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidatePageParams(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
		wantErr  bool
	}{
		{
			name:     "first page",
			page:     1,
			pageSize: 10,
			wantErr:  false,
		},
		{
			name:     "page zero",
			page:     0,
			pageSize: 10,
			wantErr:  true,
		},
		{
			name:     "negative page",
			page:     -2,
			pageSize: 10,
			wantErr:  true,
		},
		{
			name:     "page size zero",
			page:     1,
			pageSize: 0,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePageParams(tt.page, tt.pageSize)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePageParams() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageWindow(t *testing.T) {
	start, end := PageWindow(1, 10)
	if start != 0 || end != 10 {
		t.Errorf("PageWindow(1, 10) = [%d, %d), want [0, 10)", start, end)
	}

	start, end = PageWindow(3, 4)
	if start != 8 || end != 12 {
		t.Errorf("PageWindow(3, 4) = [%d, %d), want [8, 12)", start, end)
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	v.RequireNotEmpty("", "name")
	v.Require(false, "tags", "field required")
	v.RequireOneOf("disk", []string{"memory", "file"}, "backend")
	v.RequireNonNegative(0, "count")

	if v.Error() == nil {
		t.Fatal("expected errors")
	}
	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(v.Errors()))
	}
	if !v.Errors().HasField("backend") {
		t.Error("expected an error for backend")
	}
	if v.Errors().HasField("count") {
		t.Error("did not expect an error for count")
	}
}

func TestValidatorNoErrors(t *testing.T) {
	v := NewValidator()
	v.Require(true, "field", "unused")
	if v.Error() != nil {
		t.Errorf("expected nil error, got %v", v.Error())
	}
}

func TestValidationErrorFormat(t *testing.T) {
	err := &ValidationError{Field: "age", Message: "must be an integer", Value: "x"}
	if err.Error() != "age: must be an integer (got: x)" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	errs := ValidationErrors{{Field: "name", Message: "is required"}}
	if errs.Error() != "validation failed: name: is required" {
		t.Errorf("unexpected message: %s", errs.Error())
	}
}

func TestAsValidationErrors(t *testing.T) {
	errs := ValidationErrors{{Field: "name", Message: "is required"}}
	wrapped := fmt.Errorf("decode Users/abc: %w", errs)

	got, ok := AsValidationErrors(wrapped)
	if !ok {
		t.Fatal("expected ValidationErrors")
	}
	if !got.HasField("name") {
		t.Error("expected name field")
	}

	if _, ok := AsValidationErrors(errors.New("boom")); ok {
		t.Error("did not expect ValidationErrors")
	}
}
