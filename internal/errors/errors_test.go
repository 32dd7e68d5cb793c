package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "tree error",
			code:    "E100",
			wantMsg: "Render function returned no node",
			wantCat: CategoryTree,
		},
		{
			name:    "host error",
			code:    "E111",
			wantMsg: "Host adapter failed during commit",
			wantCat: CategoryHost,
		},
		{
			name:    "hook error",
			code:    "E121",
			wantMsg: "Hook order changed: extra hook",
			wantCat: CategoryHooks,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryConfig, "file %q not found", "fibertree.json")
	if err.Message != `file "fibertree.json" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryConfig {
		t.Errorf("Category = %q, want %q", err.Category, CategoryConfig)
	}
}

func TestError_Error(t *testing.T) {
	err := New("E100")
	if got, want := err.Error(), "E100: Render function returned no node"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New("E111").WithDetail("insert").Wrap(fmt.Errorf("detached parent"))
	if got, want := err.Error(), "E111: Host adapter failed during commit (insert): detached parent"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &Error{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("cycle: %w", New("E110"))
	if !stderrors.Is(err, New("E110")) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(err, New("E111")) {
		t.Error("errors.Is should not match a different code")
	}
	if !HasCode(err, "E110") {
		t.Error("HasCode(E110) = false")
	}
	if CodeOf(err) != "E110" {
		t.Errorf("CodeOf = %q, want E110", CodeOf(err))
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("CodeOf of a plain error should be empty")
	}
}

func TestHasCode_JoinedErrors(t *testing.T) {
	err := stderrors.Join(New("E100"), New("E121"))
	if !HasCode(err, "E100") || !HasCode(err, "E121") {
		t.Error("HasCode should see through errors.Join")
	}
	if HasCode(err, "E102") {
		t.Error("HasCode(E102) should be false")
	}
}

func TestError_WithLocation(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "counter.go")
	content := `package demo

func Counter(h vdom.Hooks, props vdom.Props) *vdom.VNode {
	if props["hidden"] == true {
		return nil
	}
	return vdom.Div()
}
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E100").WithLocation(tmpFile, 5, 3)

	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.File != tmpFile {
		t.Errorf("Location.File = %q, want %q", err.Location.File, tmpFile)
	}
	if err.Location.Line != 5 {
		t.Errorf("Location.Line = %d, want %d", err.Location.Line, 5)
	}
	if len(err.Context) == 0 {
		t.Error("Context should not be empty")
	}
}

func TestError_Wrap(t *testing.T) {
	inner := New("E112")
	outer := New("E111").Wrap(inner)

	if outer.Wrapped != inner {
		t.Error("Wrapped error mismatch")
	}
	if outer.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E111") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	fe := New("E100")
	if FromError(fmt.Errorf("wrapped: %w", fe), "E111") != fe {
		t.Error("FromError should return the *Error in the chain")
	}

	stdErr := fmt.Errorf("detached")
	result := FromError(stdErr, "E111")
	if result.Wrapped != stdErr {
		t.Error("Standard error should be wrapped")
	}
	if result.Code != "E111" {
		t.Errorf("Code = %q, want E111", result.Code)
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil location", nil, ""},
		{"with column", &Location{File: "a.go", Line: 10, Column: 5}, "a.go:10:5"},
		{"without column", &Location{File: "a.go", Line: 10}, "a.go:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E121").
		WithLocation("missing.go", 5, 0).
		WithSuggestion("Call UseState unconditionally").
		Wrap(fmt.Errorf("index 2"))

	formatted := err.Format()

	for _, want := range []string{"E121", "Hook order changed: extra hook", "missing.go:5", "Hint:", "Cause: index 2", "conditionally"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E100").WithLocation("counter.go", 10, 5)
	want := "counter.go:10:5: E100: Render function returned no node"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	json := New("E100").WithLocation("counter.go", 10, 5).FormatJSON()

	for _, want := range []string{`"code":"E100"`, `"category":"tree"`, `"location":`} {
		if !strings.Contains(json, want) {
			t.Errorf("JSON missing %s: %s", want, json)
		}
	}
}

func TestRegister(t *testing.T) {
	Register("E999", ErrorTemplate{Category: CategoryCLI, Message: "custom"})
	defer delete(registry, "E999")

	tmpl, ok := GetTemplate("E999")
	if !ok || tmpl.Message != "custom" {
		t.Errorf("GetTemplate(E999) = %+v, %v", tmpl, ok)
	}

	found := false
	for _, code := range GetAllCodes() {
		if code == "E999" {
			found = true
		}
	}
	if !found {
		t.Error("GetAllCodes() should include registered code")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 9)
	for _, line := range lines {
		if len(line) > 9 {
			t.Errorf("line %q longer than width", line)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
}

func TestPathFormatting(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E102").WithPath("root", "ul", "demo.TodoItem").WithDetail("demo.TodoItem: boom")

	if got, want := err.PathString(), "root > ul > demo.TodoItem"; got != want {
		t.Errorf("PathString() = %q, want %q", got, want)
	}
	if !strings.Contains(err.Format(), "in root > ul > demo.TodoItem") {
		t.Errorf("Format() missing path:\n%s", err.Format())
	}
	if got, want := err.FormatCompact(), "root > ul > demo.TodoItem: E102: Render function panicked"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
	if !strings.Contains(err.FormatJSON(), `"path":["root","ul","demo.TodoItem"]`) {
		t.Errorf("FormatJSON() = %s", err.FormatJSON())
	}
}
