package postgres

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/repository"
)

func TestLoadEmbeddedMigrations(t *testing.T) {
	migrations, err := NewMigrator(nil).Load()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Contains(t, migrations[0].SQL, "appointments_active_slot_idx")
	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
	}

	var position *Migration
	for i := range migrations {
		if migrations[i].Version == 3 {
			position = &migrations[i]
		}
	}
	require.NotNil(t, position)
	assert.Contains(t, position.SQL, "ADD COLUMN IF NOT EXISTS position")
}

func TestLoadMigrationsSkipsUnnumberedFiles(t *testing.T) {
	files := fstest.MapFS{
		"migrations/010_later.sql": {Data: []byte("SELECT 10")},
		"migrations/002_early.sql": {Data: []byte("SELECT 2")},
		"migrations/seed.sql":      {Data: []byte("SELECT 0")},
		"migrations/notes_x.sql":   {Data: []byte("SELECT 0")},
	}

	migrations, err := loadMigrations(files)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "002_early.sql", migrations[0].Name)
	assert.Equal(t, 10, migrations[1].Version)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505"}), repository.ErrDuplicate)

	other := errors.New("connection refused")
	assert.Equal(t, other, mapError(other))
}
