package domain

import "testing"

func TestTodoStatusScanRejectsUnknown(t *testing.T) {
	var s TodoStatus
	if err := s.Scan("archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if err := s.Scan("done"); err != nil {
		t.Fatalf("scan done: %v", err)
	}
	if s != StatusDone {
		t.Fatalf("status = %q, want done", s)
	}
	if err := s.Scan([]byte("pending")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if s != StatusPending {
		t.Fatalf("status = %q, want pending", s)
	}
}

func TestTodoStatusValueRejectsUnknown(t *testing.T) {
	if _, err := TodoStatus("later").Value(); err == nil {
		t.Fatal("expected error for unknown status")
	}
	v, err := StatusPending.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "pending" {
		t.Fatalf("value = %v, want pending", v)
	}
}

func TestActiveCommandNullRoundTrip(t *testing.T) {
	var a ActiveCommand
	if err := a.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if a != CommandNone {
		t.Fatalf("command = %q, want none", a)
	}

	v, err := CommandNone.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != nil {
		t.Fatalf("idle slot must persist as NULL, got %v", v)
	}

	v, err = CommandTodo.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "todo" {
		t.Fatalf("value = %v, want todo", v)
	}
}

func TestActiveCommandScanRejectsUnknown(t *testing.T) {
	var a ActiveCommand
	if err := a.Scan("delete_account"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestUserAwaiting(t *testing.T) {
	u := User{ID: 1, Username: "alice"}
	if u.Awaiting() {
		t.Fatal("fresh user must be idle")
	}
	u.ActiveCommand = CommandTodo
	if !u.Awaiting() {
		t.Fatal("user with open session must be awaiting")
	}
}
