package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/m3rciful/todobot/internal/domain"
)

// fakeUserStore is an in-memory UserStore mirroring the SQL semantics of
// the real repo, including the compare-and-clear on the session slot.
type fakeUserStore struct {
	users map[int64]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*domain.User)}
}

func (f *fakeUserStore) GetOrCreate(_ context.Context, id int64, username string) (domain.User, bool, error) {
	if u, ok := f.users[id]; ok {
		return *u, false, nil
	}
	u := &domain.User{ID: id, Username: username}
	f.users[id] = u
	return *u, true, nil
}

func (f *fakeUserStore) Get(_ context.Context, id int64) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, sql.ErrNoRows
	}
	return *u, nil
}

func (f *fakeUserStore) Upsert(_ context.Context, id int64, username string) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		u = &domain.User{ID: id}
		f.users[id] = u
	}
	u.Username = username
	return *u, nil
}

func (f *fakeUserStore) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserStore) SetActiveCommand(_ context.Context, id int64, cmd domain.ActiveCommand) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.ActiveCommand = cmd
	return nil
}

func (f *fakeUserStore) ClearActiveCommand(_ context.Context, id int64, expected domain.ActiveCommand) (bool, error) {
	u, ok := f.users[id]
	if !ok || u.ActiveCommand != expected {
		return false, nil
	}
	u.ActiveCommand = domain.CommandNone
	return true, nil
}

type fakeTodoStore struct {
	todos  map[int64]*domain.Todo
	nextID int64
}

func newFakeTodoStore() *fakeTodoStore {
	return &fakeTodoStore{todos: make(map[int64]*domain.Todo), nextID: 1}
}

func (f *fakeTodoStore) Create(_ context.Context, userID int64, text string, due time.Time) (domain.Todo, error) {
	t := &domain.Todo{
		ID:      f.nextID,
		Text:    text,
		Status:  domain.StatusPending,
		DueDate: due,
		UserID:  userID,
	}
	f.nextID++
	f.todos[t.ID] = t
	return *t, nil
}

func (f *fakeTodoStore) ListByUser(_ context.Context, userID int64) ([]domain.Todo, error) {
	var out []domain.Todo
	for _, t := range f.todos {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeTodoStore) CountByUser(_ context.Context, userID int64) (int, error) {
	n := 0
	for _, t := range f.todos {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeTodoStore) MarkDone(_ context.Context, id int64) (domain.Todo, error) {
	t, ok := f.todos[id]
	if !ok {
		return domain.Todo{}, sql.ErrNoRows
	}
	t.Status = domain.StatusDone
	return *t, nil
}

func newServices() (*UserService, *TodoService, *fakeUserStore, *fakeTodoStore) {
	us := newFakeUserStore()
	ts := newFakeTodoStore()
	users := NewUserService(us)
	todos := NewTodoService(ts, users, nil)
	return users, todos, us, ts
}

func TestTodoSessionScenario(t *testing.T) {
	ctx := context.Background()
	users, todos, store, _ := newServices()

	if _, _, err := users.GetOrCreate(ctx, 7, "alice"); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if err := users.OpenSession(ctx, 7, domain.CommandTodo); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if !store.users[7].Awaiting() {
		t.Fatal("session slot not set")
	}

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	todos.now = func() time.Time { return now }

	created, err := todos.Create(ctx, 7, "  buy milk  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Text != "buy milk" {
		t.Fatalf("text = %q, want trimmed %q", created.Text, "buy milk")
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("status = %q, want pending", created.Status)
	}
	if want := now.Add(domain.DefaultDueIn); !created.DueDate.Equal(want) {
		t.Fatalf("due = %v, want %v", created.DueDate, want)
	}
	if store.users[7].Awaiting() {
		t.Fatal("creation must close the open session")
	}
}

func TestTodoCreateRejectsBlankText(t *testing.T) {
	ctx := context.Background()
	users, todos, _, ts := newServices()

	if _, _, err := users.GetOrCreate(ctx, 7, "alice"); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if _, err := todos.Create(ctx, 7, "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
	if len(ts.todos) != 0 {
		t.Fatal("blank text must not create a todo")
	}
}

func TestMarkDoneIdempotent(t *testing.T) {
	ctx := context.Background()
	_, todos, _, ts := newServices()

	created, err := ts.Create(ctx, 7, "water plants", time.Now())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	first, err := todos.MarkDone(ctx, created.ID)
	if err != nil {
		t.Fatalf("first mark done: %v", err)
	}
	if first.Status != domain.StatusDone {
		t.Fatalf("status = %q, want done", first.Status)
	}

	second, err := todos.MarkDone(ctx, created.ID)
	if err != nil {
		t.Fatalf("second mark done must be a no-op, got %v", err)
	}
	if second.Status != domain.StatusDone {
		t.Fatalf("status = %q, want done", second.Status)
	}
}

func TestMarkDoneMissingTodo(t *testing.T) {
	ctx := context.Background()
	_, todos, _, ts := newServices()

	if _, err := todos.MarkDone(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(ts.todos) != 0 {
		t.Fatal("missing id must not mutate anything")
	}
}

func TestListOrderedSortsByDueThenID(t *testing.T) {
	ctx := context.Background()
	_, todos, _, ts := newServices()

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// Same due date: insertion order must break the tie.
	if _, err := ts.Create(ctx, 7, "first", day); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := ts.Create(ctx, 7, "second", day); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := ts.Create(ctx, 7, "earlier", day.Add(-time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := ts.Create(ctx, 8, "other user", day); err != nil {
		t.Fatalf("seed: %v", err)
	}

	list, err := todos.ListOrdered(ctx, 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	want := []string{"earlier", "first", "second"}
	for i, w := range want {
		if list[i].Text != w {
			t.Fatalf("position %d = %q, want %q", i, list[i].Text, w)
		}
	}
}

func TestCountPerUser(t *testing.T) {
	ctx := context.Background()
	_, todos, _, ts := newServices()

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := ts.Create(ctx, 7, "task", day); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := ts.Create(ctx, 8, "other", day); err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := todos.Count(ctx, 7)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
}

func TestCloseSessionIsCompareAndClear(t *testing.T) {
	ctx := context.Background()
	users, _, store, _ := newServices()

	if _, _, err := users.GetOrCreate(ctx, 7, "alice"); err != nil {
		t.Fatalf("get or create: %v", err)
	}

	// Closing with no open session is a no-op, not an error.
	if err := users.CloseSession(ctx, 7, domain.CommandTodo); err != nil {
		t.Fatalf("close on idle: %v", err)
	}

	if err := users.OpenSession(ctx, 7, domain.CommandTodo); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if err := users.CloseSession(ctx, 7, domain.CommandTodo); err != nil {
		t.Fatalf("close session: %v", err)
	}
	if store.users[7].ActiveCommand != domain.CommandNone {
		t.Fatal("session slot still set after close")
	}
}

func TestUserServiceGetNotFound(t *testing.T) {
	ctx := context.Background()
	users, _, _, _ := newServices()

	if _, err := users.Get(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOpenSessionUnknownUser(t *testing.T) {
	ctx := context.Background()
	users, _, _, _ := newServices()

	if err := users.OpenSession(ctx, 404, domain.CommandTodo); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestInsertUpsertsUsername(t *testing.T) {
	ctx := context.Background()
	users, _, _, _ := newServices()

	if _, err := users.Insert(ctx, 42, "old"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	u, err := users.Insert(ctx, 42, "new")
	if err != nil {
		t.Fatalf("reinsert: %v", err)
	}
	if u.Username != "new" {
		t.Fatalf("username = %q, want %q", u.Username, "new")
	}

	list, err := users.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
}
