package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(Migrations, "migrations/*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, up := range names {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(Migrations, down)
		assert.NoError(t, err, "missing %s", down)
	}
}

func TestEmailUniqueIgnoresCase(t *testing.T) {
	names, err := fs.Glob(Migrations, "migrations/*.up.sql")
	require.NoError(t, err)
	var all strings.Builder
	for _, name := range names {
		b, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		all.Write(b)
	}
	assert.Contains(t, all.String(), "ON users (lower(email))")
}
