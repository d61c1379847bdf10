package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TodoStatus is the closed set of todo lifecycle states.
//
// Only StatusPending and StatusDone are ever produced by the bot;
// StatusActive and StatusDeclined exist in the schema for compatibility
// and are accepted but never written.
type TodoStatus string

const (
	StatusPending  TodoStatus = "pending"
	StatusActive   TodoStatus = "active"
	StatusDone     TodoStatus = "done"
	StatusDeclined TodoStatus = "declined"
)

// ParseTodoStatus validates a persisted status string.
func ParseTodoStatus(raw string) (TodoStatus, error) {
	switch TodoStatus(raw) {
	case StatusPending, StatusActive, StatusDone, StatusDeclined:
		return TodoStatus(raw), nil
	}
	return "", fmt.Errorf("unknown todo status %q", raw)
}

// Scan implements sql.Scanner, rejecting unknown values at the store boundary.
func (s *TodoStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTodoStatus(v)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	case []byte:
		parsed, err := ParseTodoStatus(string(v))
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	return fmt.Errorf("cannot scan %T into TodoStatus", src)
}

// Value implements driver.Valuer.
func (s TodoStatus) Value() (driver.Value, error) {
	if _, err := ParseTodoStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

// DefaultDueIn is the interval added to the creation time to produce a
// todo's due date.
const DefaultDueIn = 7 * 24 * time.Hour

// Todo is a single tracked item owned by exactly one user.
type Todo struct {
	ID      int64      `db:"id"`
	Text    string     `db:"text"`
	Status  TodoStatus `db:"status"`
	DueDate time.Time  `db:"due_date"`
	UserID  int64      `db:"user_id"`
}

// Done reports whether the todo reached its terminal state.
func (t Todo) Done() bool {
	return t.Status == StatusDone
}
