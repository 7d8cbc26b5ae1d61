package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000001_records.up.sql", "000001_records.down.sql", "000003_indexes.up.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	v, err := latestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = latestVersion(t.TempDir())
	assert.Error(t, err)
}

func TestMigrationLogger(t *testing.T) {
	var messages []string
	logger := MigrationLogger{Logger: ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		messages = append(messages, msg.Message)
	})}

	assert.True(t, logger.Verbose())
	logger.Printf("Finished %s\n", "1/u records")
	assert.Equal(t, []string{"Finished 1/u records"}, messages)
}

func TestMigrationService_MissingFolder(t *testing.T) {
	ms := NewMigrationService(ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}), &MigrationConfig{
		MigrationFolderPath: filepath.Join(t.TempDir(), "missing"),
	})
	err := ms.Migrate("postgres", nil)
	assert.ErrorContains(t, err, "does not exist")
}
