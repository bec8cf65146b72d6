package persistence

import (
	"reflect"
	"testing"
)

func TestPendingMigrationsSkipsAppliedAndNonSQL(t *testing.T) {
	names := []string{
		"0002_equipment.sql",
		"README.md",
		"0001_init.sql",
		"0003_indexes.sql",
	}
	applied := map[string]bool{"0001_init.sql": true}

	got := pendingMigrations(names, applied)
	want := []string{"0002_equipment.sql", "0003_indexes.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pending = %v, want %v", got, want)
	}
}

func TestPendingMigrationsEmptyWhenAllApplied(t *testing.T) {
	names := []string{"0001_init.sql", "0002_equipment.sql"}
	applied := map[string]bool{
		"0001_init.sql":      true,
		"0002_equipment.sql": true,
	}

	if got := pendingMigrations(names, applied); len(got) != 0 {
		t.Fatalf("pending = %v, want none", got)
	}
}
