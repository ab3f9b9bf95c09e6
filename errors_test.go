package smelt

import (
	"strings"
	"testing"
)

func TestLocString(t *testing.T) {
	cases := []struct {
		loc  Loc
		want string
	}{
		{Loc{}, "[]"},
		{Loc{KeyLoc("width")}, `["width"]`},
		{Loc{KeyLoc("sub_branch"), KeyLoc("none")}, `["sub_branch", "none"]`},
		{Loc{KeyLoc("items"), IndexLoc(2), KeyLoc("name")}, `["items", 2, "name"]`},
	}
	for _, tc := range cases {
		if got := tc.loc.String(); got != tc.want {
			t.Errorf("Loc%v.String() = %s, want %s", tc.loc, got, tc.want)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{
		Title: "Branch",
		Errors: []LineError{
			{
				Kind:    ErrIntParsing,
				Loc:     Loc{KeyLoc("width")},
				Message: "Value must be a valid integer, unable to parse string as an integer",
				Input:   "wrong",
			},
		},
	}
	got := err.Error()
	if !strings.HasPrefix(got, "1 validation error for Branch\n") {
		t.Errorf("header wrong: %q", got)
	}
	if !strings.Contains(got, `["width"]`) {
		t.Errorf("missing loc: %q", got)
	}
	if !strings.Contains(got, "kind=int_parsing") {
		t.Errorf("missing kind: %q", got)
	}

	err.Errors = append(err.Errors, LineError{Kind: ErrMissingField, Loc: Loc{KeyLoc("name")}, Message: "Field required"})
	if !strings.HasPrefix(err.Error(), "2 validation errors for Branch\n") {
		t.Errorf("plural header wrong: %q", err.Error())
	}
}

func TestValidationErrorTitle(t *testing.T) {
	v, err := NewWithOptions("int", Options{Title: "Width"})
	if err != nil {
		t.Fatal(err)
	}
	_, verr := v.Validate("frog")
	if verr == nil {
		t.Fatal("expected a validation error")
	}
	if !strings.HasPrefix(verr.Error(), "1 validation error for Width") {
		t.Errorf("title not applied: %q", verr.Error())
	}
}
