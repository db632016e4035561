package store

import (
	"strings"
	"testing"
)

func TestMigrationsAreOrderedAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for _, m := range migrations {
		if seen[m.version] {
			t.Fatalf("duplicate migration %s", m.version)
		}
		seen[m.version] = true
		if m.version <= prev {
			t.Errorf("migration %s is out of order after %s", m.version, prev)
		}
		prev = m.version
		if strings.TrimSpace(m.sql) == "" {
			t.Errorf("migration %s is empty", m.version)
		}
	}
}
