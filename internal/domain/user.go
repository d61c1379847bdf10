package domain

import (
	"database/sql/driver"
	"fmt"
)

// ActiveCommand is the single-slot conversational continuation marker.
// CommandNone means the conversation is idle; CommandTodo means the next
// free-text message is consumed as the text of a new todo.
type ActiveCommand string

const (
	CommandNone ActiveCommand = ""
	CommandTodo ActiveCommand = "todo"
)

// ParseActiveCommand validates a persisted continuation tag.
func ParseActiveCommand(raw string) (ActiveCommand, error) {
	switch ActiveCommand(raw) {
	case CommandNone, CommandTodo:
		return ActiveCommand(raw), nil
	}
	return CommandNone, fmt.Errorf("unknown active command %q", raw)
}

// Scan implements sql.Scanner; a NULL column maps to CommandNone.
func (a *ActiveCommand) Scan(src any) error {
	if src == nil {
		*a = CommandNone
		return nil
	}
	switch v := src.(type) {
	case string:
		parsed, err := ParseActiveCommand(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case []byte:
		parsed, err := ParseActiveCommand(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	return fmt.Errorf("cannot scan %T into ActiveCommand", src)
}

// Value implements driver.Valuer; CommandNone persists as NULL.
func (a ActiveCommand) Value() (driver.Value, error) {
	if a == CommandNone {
		return nil, nil
	}
	if _, err := ParseActiveCommand(string(a)); err != nil {
		return nil, err
	}
	return string(a), nil
}

// User is a Telegram conversation participant. The identifier is the
// Telegram user id, assigned by the transport.
type User struct {
	ID            int64         `db:"id"`
	Username      string        `db:"username"`
	ActiveCommand ActiveCommand `db:"active_command"`
}

// Awaiting reports whether the user has an open conversational session.
func (u User) Awaiting() bool {
	return u.ActiveCommand != CommandNone
}
