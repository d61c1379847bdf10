package pagination

import (
	"testing"
	"time"

	"github.com/m3rciful/todobot/internal/domain"
)

func makeTodos(n int) []domain.Todo {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	todos := make([]domain.Todo, 0, n)
	for i := 0; i < n; i++ {
		todos = append(todos, domain.Todo{
			ID:      int64(i + 1),
			Text:    "task",
			Status:  domain.StatusPending,
			DueDate: base.Add(time.Duration(i) * time.Hour),
			UserID:  7,
		})
	}
	return todos
}

func TestPaginateMiddlePage(t *testing.T) {
	todos := makeTodos(12)
	p := Paginate(todos, 3, 5)

	if p.Number != 3 {
		t.Fatalf("page = %d, want 3", p.Number)
	}
	if p.TotalPages != 3 {
		t.Fatalf("total pages = %d, want 3", p.TotalPages)
	}
	if len(p.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(p.Items))
	}
	if p.Items[0].ID != 11 || p.Items[1].ID != 12 {
		t.Fatalf("items = [%d %d], want [11 12]", p.Items[0].ID, p.Items[1].ID)
	}
	if !p.HasPrevious || p.Previous != 2 {
		t.Fatalf("previous = (%v, %d), want (true, 2)", p.HasPrevious, p.Previous)
	}
	if p.HasNext {
		t.Fatal("last page must not have a next page")
	}
}

func TestPaginateClampsOutOfRange(t *testing.T) {
	todos := makeTodos(12)

	low := Paginate(todos, 0, 5)
	if low.Number != 1 {
		t.Fatalf("page = %d, want clamp to 1", low.Number)
	}
	if low.HasPrevious {
		t.Fatal("first page must not have a previous page")
	}

	neg := Paginate(todos, -4, 5)
	if neg.Number != 1 {
		t.Fatalf("page = %d, want clamp to 1", neg.Number)
	}

	high := Paginate(todos, 99, 5)
	if high.Number != 3 {
		t.Fatalf("page = %d, want clamp to 3", high.Number)
	}
	if len(high.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(high.Items))
	}
}

func TestPaginateConcatenationCoversAll(t *testing.T) {
	todos := makeTodos(13)
	first := Paginate(todos, 1, 5)

	var got []int64
	for page := 1; page <= first.TotalPages; page++ {
		p := Paginate(todos, page, 5)
		if p.TotalItems != len(todos) {
			t.Fatalf("total items = %d, want %d", p.TotalItems, len(todos))
		}
		for _, item := range p.Items {
			got = append(got, item.ID)
		}
	}

	if len(got) != len(todos) {
		t.Fatalf("concatenated %d items, want %d", len(got), len(todos))
	}
	for i, id := range got {
		if id != int64(i+1) {
			t.Fatalf("position %d holds id %d, want %d", i, id, i+1)
		}
	}
}

func TestPaginateEmptySnapshot(t *testing.T) {
	p := Paginate(nil, 3, 5)

	if !p.Empty() {
		t.Fatal("expected empty page")
	}
	if p.Number != 1 || p.TotalPages != 1 {
		t.Fatalf("page = %d/%d, want 1/1", p.Number, p.TotalPages)
	}
	if p.HasPrevious || p.HasNext {
		t.Fatal("empty page must not offer navigation")
	}
	if len(p.Items) != 0 {
		t.Fatalf("items = %d, want 0", len(p.Items))
	}
}

func TestPaginateDefaultsPageSize(t *testing.T) {
	todos := makeTodos(6)
	p := Paginate(todos, 1, 0)

	if len(p.Items) != DefaultPageSize {
		t.Fatalf("items = %d, want %d", len(p.Items), DefaultPageSize)
	}
	if p.TotalPages != 2 {
		t.Fatalf("total pages = %d, want 2", p.TotalPages)
	}
}
