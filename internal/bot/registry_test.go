package bot

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func noopHandler(tele.Context) error { return nil }

func TestRegistryRejectsInvalidCommands(t *testing.T) {
	r := NewRegistry()

	r.RegisterCommand("start", Command{Handler: noopHandler, Description: "no slash"})
	r.RegisterCommand("/nodesc", Command{Handler: noopHandler})
	r.RegisterCommand("/nohandler", Command{Description: "x"})

	if len(r.Commands()) != 0 {
		t.Fatalf("commands = %d, want 0", len(r.Commands()))
	}
}

func TestRegistryDuplicateCommandKeepsFirst(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/todo", Command{Handler: noopHandler, Description: "first"})
	r.RegisterCommand("/todo", Command{Handler: noopHandler, Description: "second"})

	_, cmd, ok := r.LookupCommand("/todo")
	if !ok {
		t.Fatal("command not found")
	}
	if cmd.Description != "first" {
		t.Fatalf("description = %q, want first", cmd.Description)
	}
}

func TestRegistryListCommandsHidesAdminAndHidden(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand("/start", Command{Handler: noopHandler, Description: "start"})
	r.RegisterCommand("/post_users", Command{Handler: noopHandler, Description: "admin", AdminOnly: true})
	r.RegisterCommand("/debug", Command{Handler: noopHandler, Description: "hidden", Hidden: true})

	visible := r.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible = %v, want only /start", visible)
	}
	if all := r.ListCommands(false); len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
}

func TestRegistryCallbackDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterCallback("doneTodo", noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.RegisterCallback("doneTodo", noopHandler); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if _, ok := r.GetCallback("doneTodo"); !ok {
		t.Fatal("callback lost")
	}
	keys := r.ListCallbacks()
	if len(keys) != 1 || keys[0] != "doneTodo" {
		t.Fatalf("keys = %v, want [doneTodo]", keys)
	}
}
