package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mpdhub/internal/configflow"
	"mpdhub/internal/models"
	"mpdhub/internal/mpd"
	"mpdhub/internal/mpd/mpdtest"
	"mpdhub/internal/store"
	"mpdhub/migrations"
)

const legacyYAML = `
media_player:
  - platform: mpd
    host: 192.168.1.20
    name: Kitchen
    password: secret
  - platform: cast
    host: 192.168.1.30
  - platform: mpd
    host: attic.lan
    port: 6601
    password: ""
`

func TestParseLegacy(t *testing.T) {
	inputs, err := parseLegacy([]byte(legacyYAML))
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	assert.Equal(t, "192.168.1.20", inputs[0].Host)
	assert.Equal(t, "Kitchen", inputs[0].Name)
	require.NotNil(t, inputs[0].Password)
	assert.Equal(t, "secret", *inputs[0].Password)
	assert.Zero(t, inputs[0].Port)

	assert.Equal(t, 6601, inputs[1].Port)
	require.NotNil(t, inputs[1].Password, "empty password stays present")
	assert.Equal(t, "", *inputs[1].Password)
}

func TestParseLegacyInvalid(t *testing.T) {
	_, err := parseLegacy([]byte("media_player: {not: a list"))
	assert.Error(t, err)
}

func newImportStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.MigrateFS(migrations.FS))
	return s
}

func TestRunImport(t *testing.T) {
	s := newImportStore(t)
	inputs, err := parseLegacy([]byte(legacyYAML))
	require.NoError(t, err)

	rejected := &mpd.CommandError{Command: "password", Err: errors.New("incorrect password")}
	calls := 0
	newClient := func() mpd.Client {
		calls++
		c := &mpdtest.Client{}
		if calls == 2 {
			c.PasswordErr = rejected
		}
		return c
	}
	flows := configflow.NewManager(configflow.New(newClient))

	sum, err := runImport(context.Background(), s, flows, inputs)
	require.NoError(t, err)
	assert.Equal(t, importSummary{Created: 1, Aborted: 1}, sum)

	entries, err := s.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Kitchen", entries[0].Title)
	assert.Equal(t, models.SourceImport, entries[0].Source)
	assert.Equal(t, models.DefaultPort, entries[0].Data.Port)
	assert.Equal(t, 0, flows.InProgress())
}

func TestImportCommandReportsAborts(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "legacy.yaml")
	require.NoError(t, os.WriteFile(file, []byte("media_player:\n  - platform: mpd\n    host: 127.0.0.1\n    port: 1\n"), 0o600))

	root := newRootCmd()
	root.SetArgs([]string{"import", "--file", file, "--db-path", filepath.Join(dir, "mpdhub.db"), "--log-level", "error"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 imports aborted")
}

func TestImportCommandRequiresFile(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"import", "--db-path", ":memory:"})
	assert.Error(t, root.ExecuteContext(context.Background()))
}
