package bot

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		key     string
		payload string
	}{
		{"done with id", "\\fdoneTodo|42", "doneTodo", "42"},
		{"page", "\\flistPage|3", "listPage", "3"},
		{"no payload", "\\fdoneTodo", "doneTodo", ""},
		{"no prefix", "listPage|2", "listPage", "2"},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallbackData(&tele.Callback{Data: tc.data})
			if key != tc.key {
				t.Fatalf("key = %q, want %q", key, tc.key)
			}
			if payload != tc.payload {
				t.Fatalf("payload = %q, want %q", payload, tc.payload)
			}
		})
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	key, payload := ParseCallbackData(nil)
	if key != "" || payload != "" {
		t.Fatalf("got (%q, %q), want empty", key, payload)
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	if got := normalizeHandlerName("/Get_Todos"); got != "get_todos" {
		t.Fatalf("got %q, want get_todos", got)
	}
	if got := normalizeHandlerName("  "); got != "unknown" {
		t.Fatalf("got %q, want unknown", got)
	}
}
