package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-switchd/migrations"
)

func openRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestCreate_Defaults(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()

	log := &AuditLog{DeviceID: "sw1", Action: "add", EntityType: "group", EntityID: "1", Success: true}
	if err := repo.Create(ctx, log); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if log.ID == "" || log.CreatedAt.IsZero() || log.Source != SourceAPI {
		t.Errorf("defaults not applied: %+v", log)
	}
}

func TestCreate_Incomplete(t *testing.T) {
	repo := openRepo(t)

	err := repo.Create(context.Background(), &AuditLog{Action: "add", EntityType: "group"})
	if !errors.Is(err, ErrIncompleteLog) {
		t.Errorf("Create() error = %v, want ErrIncompleteLog", err)
	}
}

func TestList(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)

	logs := []*AuditLog{
		{DeviceID: "sw1", Action: "add", EntityType: "group", EntityID: "1", ClientID: "ops", Success: true, CreatedAt: base},
		{DeviceID: "sw1", Action: "remove", EntityType: "group", EntityID: "1", ClientID: "ops", Success: true, CreatedAt: base.Add(time.Second)},
		{
			DeviceID: "sw2", Action: "add", EntityType: "meter", EntityID: "7", ClientID: "batch",
			Details: map[string]any{"errors": "METER_MOD_FAILED/1"}, CreatedAt: base.Add(100 * time.Millisecond),
		},
	}
	for _, l := range logs {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []string
		total   int
	}{
		{"all newest first", Filter{}, []string{logs[1].ID, logs[2].ID, logs[0].ID}, 3},
		{"by device", Filter{DeviceID: "sw1"}, []string{logs[1].ID, logs[0].ID}, 2},
		{"by action", Filter{Action: "add"}, []string{logs[2].ID, logs[0].ID}, 2},
		{"by kind", Filter{EntityType: "meter"}, []string{logs[2].ID}, 1},
		{"by client", Filter{ClientID: "ops", EntityID: "1"}, []string{logs[1].ID, logs[0].ID}, 2},
		{"paged", Filter{Limit: 1, Offset: 1}, []string{logs[2].ID}, 3},
		{"no match", Filter{DeviceID: "sw9"}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.total {
				t.Errorf("Total = %d, want %d", res.Total, tt.total)
			}
			if len(res.Logs) != len(tt.wantIDs) {
				t.Fatalf("len(Logs) = %d, want %d", len(res.Logs), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if res.Logs[i].ID != id {
					t.Errorf("Logs[%d].ID = %s, want %s", i, res.Logs[i].ID, id)
				}
			}
		})
	}

	res, err := repo.List(ctx, Filter{EntityType: "meter"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	got := res.Logs[0]
	if got.Success || got.Details["errors"] != "METER_MOD_FAILED/1" || !got.CreatedAt.Equal(logs[2].CreatedAt) {
		t.Errorf("round trip = %+v", got)
	}
}

func TestList_LimitClamp(t *testing.T) {
	repo := openRepo(t)

	tests := []struct {
		limit, want int
	}{
		{0, 50},
		{-3, 50},
		{500, 200},
		{20, 20},
	}
	for _, tt := range tests {
		res, err := repo.List(context.Background(), Filter{Limit: tt.limit, Offset: -1})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if res.Limit != tt.want || res.Offset != 0 {
			t.Errorf("Limit %d -> %d (offset %d), want %d", tt.limit, res.Limit, res.Offset, tt.want)
		}
	}
}
