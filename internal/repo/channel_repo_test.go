package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMapping_CaseInsensitiveUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := GetMapping(ctx, db, "MrBeast"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := SetMapping(ctx, db, "  MrBeast ", "UC1", "MrBeast", t0); err != nil {
		t.Fatalf("SetMapping: %v", err)
	}
	m, err := GetMapping(ctx, db, "mrbeast")
	if err != nil {
		t.Fatalf("GetMapping: %v", err)
	}
	if m.Name != "mrbeast" || m.ChannelID != "UC1" || m.Title != "MrBeast" || !m.LastResolvedAt.Equal(t0) {
		t.Fatalf("unexpected mapping: %+v", m)
	}

	t1 := t0.Add(48 * time.Hour)
	if err := SetMapping(ctx, db, "MRBEAST", "UC2", "Beast", t1); err != nil {
		t.Fatalf("SetMapping upsert: %v", err)
	}
	var n int64
	db.Table("channel_map").Count(&n)
	if n != 1 {
		t.Fatalf("expected one row per normalized name, got %d", n)
	}
	m, _ = GetMapping(ctx, db, "MrBeast")
	if m.ChannelID != "UC2" || m.Title != "Beast" || !m.LastResolvedAt.Equal(t1) {
		t.Fatalf("upsert did not refresh the row: %+v", m)
	}
}
