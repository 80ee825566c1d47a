package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUpsertOfficeByName(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	office := &Office{
		Name:      "Main Office",
		Latitude:  4.6097,
		Longitude: -74.0817,
		Radius:    500,
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := st.UpsertOfficeByName(ctx, office); err != nil {
		t.Fatalf("failed to upsert office: %v", err)
	}

	// Upserting the same name updates the row instead of duplicating it.
	office.Radius = 750
	if err := st.UpsertOfficeByName(ctx, office); err != nil {
		t.Fatalf("failed to upsert office second time: %v", err)
	}

	count, err := st.CountOffices(ctx)
	if err != nil {
		t.Fatalf("failed to count offices: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 office after double upsert, got %d", count)
	}

	got, err := st.GetOfficeByName(ctx, "Main Office")
	if err != nil {
		t.Fatalf("failed to get office: %v", err)
	}
	if got.Radius != 750 {
		t.Errorf("expected radius 750 after upsert, got %v", got.Radius)
	}
}

func TestUpdateOfficeRenamesSingleRow(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	office := &Office{Name: "Main Office", Latitude: 0, Longitude: 0, Radius: 500}
	if err := st.InsertOffice(ctx, office); err != nil {
		t.Fatalf("failed to insert office: %v", err)
	}

	office.Name = "HQ"
	office.Radius = 100
	if err := st.UpdateOffice(ctx, office); err != nil {
		t.Fatalf("failed to update office: %v", err)
	}

	count, err := st.CountOffices(ctx)
	if err != nil {
		t.Fatalf("failed to count offices: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 office after rename, got %d", count)
	}

	got, err := st.FirstOffice(ctx)
	if err != nil {
		t.Fatalf("failed to get office: %v", err)
	}
	if got.ID != office.ID || got.Name != "HQ" || got.Radius != 100 {
		t.Errorf("expected renamed office in place, got %+v", got)
	}
	if _, err := st.GetOfficeByName(ctx, "Main Office"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected old name gone after rename, got %v", err)
	}
}

func TestUpdateOfficeMissing(t *testing.T) {
	st := setupTestStore(t)

	office := &Office{ID: 42, Name: "Ghost", Radius: 10}
	if err := st.UpdateOffice(context.Background(), office); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating missing office, got %v", err)
	}
}

func TestFirstOfficeEmpty(t *testing.T) {
	st := setupTestStore(t)

	if _, err := st.FirstOffice(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on empty table, got %v", err)
	}
}

func TestListOffices(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"North", "South"} {
		o := &Office{Name: name, Radius: 100, UpdatedAt: time.Now().UTC()}
		if err := st.InsertOffice(ctx, o); err != nil {
			t.Fatalf("failed to insert office %s: %v", name, err)
		}
	}

	offices, err := st.ListOffices(ctx)
	if err != nil {
		t.Fatalf("failed to list offices: %v", err)
	}
	if len(offices) != 2 {
		t.Errorf("expected 2 offices, got %d", len(offices))
	}
}
