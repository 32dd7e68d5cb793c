package vdom

import "testing"

func TestEventHelpers(t *testing.T) {
	h := func() {}
	tests := []struct {
		eh   EventHandler
		want string
	}{
		{OnClick(h), "onclick"},
		{OnInput(h), "oninput"},
		{OnChange(h), "onchange"},
		{OnSubmit(h), "onsubmit"},
		{OnKeyDown(h), "onkeydown"},
		{On("MouseMove", h), "onmousemove"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if tt.eh.Event != tt.want {
				t.Errorf("Event = %q, want %q", tt.eh.Event, tt.want)
			}
		})
	}
}

func TestIsEventHandler(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"onclick", true},
		{"onClick", true},
		{"ONCLICK", true},
		{"on", false},
		{"o", false},
		{"class", false},
		{"one", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := IsEventHandler(tt.key); got != tt.want {
				t.Errorf("IsEventHandler(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEventName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"onclick", "click"},
		{"onClick", "click"},
		{"OnKeyDown", "keydown"},
		{"class", ""},
		{"on", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := EventName(tt.key); got != tt.want {
				t.Errorf("EventName(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
