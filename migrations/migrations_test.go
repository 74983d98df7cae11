package migrations_test

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/aggregator/migrations"
)

func TestFS_ReadableAsMigrationSource(t *testing.T) {
	t.Parallel()

	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, name, err := src.ReadUp(first)
	require.NoError(t, err)
	defer func() { _ = up.Close() }()
	assert.Equal(t, "create_tables", name)
}
