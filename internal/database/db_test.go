package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_snapshots.up.sql":   {Data: []byte("CREATE TABLE b ();")},
		"001_init.up.sql":        {Data: []byte("CREATE TABLE a ();")},
		"001_init.down.sql":      {Data: []byte("DROP TABLE a;")},
		"003_indexes.up.sql":     {Data: []byte("CREATE INDEX c ON b ();")},
		"README.md":              {Data: []byte("notes")},
		"archive/000_old.up.sql": {Data: []byte("SELECT 1;")},
	}

	tests := []struct {
		name    string
		applied map[string]bool
		want    []string
	}{
		{"fresh database", nil, []string{"001_init.up.sql", "002_snapshots.up.sql", "003_indexes.up.sql"}},
		{"partially applied", map[string]bool{"001_init.up.sql": true}, []string{"002_snapshots.up.sql", "003_indexes.up.sql"}},
		{"up to date", map[string]bool{"001_init.up.sql": true, "002_snapshots.up.sql": true, "003_indexes.up.sql": true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PendingMigrations(fsys, tt.applied)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
