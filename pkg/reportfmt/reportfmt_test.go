package reportfmt

import (
	"strings"
	"testing"

	"github.com/smelt-go/smelt"
)

func TestFormat(t *testing.T) {
	err := &smelt.ValidationError{
		Title: "Branch",
		Errors: []smelt.LineError{
			{
				Kind:    smelt.ErrIntParsing,
				Loc:     smelt.Loc{smelt.KeyLoc("sub_branch"), smelt.KeyLoc("width")},
				Message: "Value must be a valid integer, unable to parse string as an integer",
				Input:   "wrong",
			},
			{
				Kind:    smelt.ErrMissingField,
				Loc:     smelt.Loc{smelt.KeyLoc("name")},
				Message: "Field required",
			},
		},
	}

	out := Format(err, Options{})
	if !strings.HasPrefix(out, "2 validation errors for Branch\n") {
		t.Errorf("header wrong:\n%s", out)
	}
	if !strings.Contains(out, `- ["sub_branch", "width"]`) {
		t.Errorf("missing loc:\n%s", out)
	}
	if !strings.Contains(out, "(int_parsing)") {
		t.Errorf("missing kind:\n%s", out)
	}
	if !strings.Contains(out, `input: "wrong"`) {
		t.Errorf("missing input preview:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("unexpected ANSI codes without Color:\n%s", out)
	}
}

func TestFormatColor(t *testing.T) {
	err := &smelt.ValidationError{
		Title:  "schema",
		Errors: []smelt.LineError{{Kind: smelt.ErrStrType, Loc: smelt.Loc{}, Message: "Value must be a valid string"}},
	}
	out := Format(err, Options{Color: true})
	if !strings.Contains(out, "\x1b[31m[]\x1b[0m") {
		t.Errorf("loc not colored:\n%s", out)
	}
	if !strings.Contains(out, "\x1b[2mstr_type\x1b[0m") {
		t.Errorf("kind not dimmed:\n%s", out)
	}
}

func TestFormatTruncation(t *testing.T) {
	err := &smelt.ValidationError{
		Title: "schema",
		Errors: []smelt.LineError{{
			Kind:    smelt.ErrIntParsing,
			Loc:     smelt.Loc{smelt.IndexLoc(0)},
			Message: "Value must be a valid integer, unable to parse string as an integer",
			Input:   strings.Repeat("長い入力", 40),
		}},
	}
	out := Format(err, Options{MaxInputWidth: 20})
	line := ""
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(l), "input:") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "input:"))
		}
	}
	if line == "" {
		t.Fatalf("no input line:\n%s", out)
	}
	if !strings.HasSuffix(line, "…") {
		t.Errorf("preview not truncated: %q", line)
	}
}

func TestFormatCyclicInput(t *testing.T) {
	cyclic := map[string]any{"name": "root"}
	cyclic["sub_branch"] = cyclic

	err := &smelt.ValidationError{
		Title: "Branch",
		Errors: []smelt.LineError{{
			Kind:    smelt.ErrRecursionLoop,
			Loc:     smelt.Loc{smelt.KeyLoc("sub_branch")},
			Message: "Recursion error - cyclic reference detected",
			Input:   cyclic,
		}},
	}

	// must terminate despite the cycle
	out := Format(err, Options{})
	if !strings.Contains(out, "(recursion_loop)") {
		t.Errorf("missing kind:\n%s", out)
	}
}

func TestFormatEmpty(t *testing.T) {
	out := Format(nil, Options{})
	if !strings.Contains(out, "no additional details") {
		t.Errorf("nil report rendering: %q", out)
	}
}
