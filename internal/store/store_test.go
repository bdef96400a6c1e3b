package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "splice.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	saved, err := s.Save(ctx, Project{Name: "demo", Document: []byte(`{"version":1}`)})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.ID == uuid.Nil {
		t.Fatal("expected a generated id")
	}

	for _, ref := range []string{"demo", saved.ID.String()} {
		got, err := s.Load(ctx, ref)
		if err != nil {
			t.Fatalf("load %s failed: %v", ref, err)
		}
		if diff := cmp.Diff(saved, got); diff != "" {
			t.Errorf("project mismatch (-want +got):\n%s", diff)
		}
	}

	saved.Document = []byte(`{"version":1,"name":"demo"}`)
	updated, err := s.Save(ctx, saved)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.UpdatedAt.After(saved.UpdatedAt) {
		t.Errorf("expected updated_at to move forward, got %s then %s", saved.UpdatedAt, updated.UpdatedAt)
	}
	got, err := s.Load(ctx, "demo")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(got.Document) != string(saved.Document) {
		t.Errorf("expected the new document, got %s", got.Document)
	}
}

func TestNameTaken(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	if _, err := s.Save(ctx, Project{Name: "demo", Document: []byte("{}")}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := s.Save(ctx, Project{Name: "demo", Document: []byte("{}")}); !errors.Is(err, ErrNameTaken) {
		t.Errorf("expected ErrNameTaken, got %v", err)
	}
	if _, err := s.Save(ctx, Project{Document: []byte("{}")}); err == nil {
		t.Error("expected an error without a name")
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	for _, name := range []string{"first", "second", "third"} {
		if _, err := s.Save(ctx, Project{Name: name, Document: []byte("{}")}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	if err := s.Delete(ctx, "second"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.Delete(ctx, "second"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var names []string
	for _, p := range list {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"third", "first"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.Load(ctx, "second"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
