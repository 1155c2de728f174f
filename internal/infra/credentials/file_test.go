package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"xeromcp/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.yaml")
	writeFile(t, path, "accessToken: tok-1\ntenantId: \" tenant-1 \"\n")

	creds, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, domain.Credentials{AccessToken: "tok-1", TenantID: "tenant-1"}, creds)
}

func TestLoadFile_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")
	writeFile(t, path, "accessToken = \"tok-2\"\ntenantId = \"tenant-2\"\n")

	creds, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, domain.Credentials{AccessToken: "tok-2", TenantID: "tenant-2"}, creds)

	writeFile(t, path, "accessToken = \n")
	_, err = LoadFile(path)
	require.Error(t, err)
}

func TestLoadFile_EmptyAndMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.yaml")
	writeFile(t, path, "")

	creds, err := LoadFile(path)
	require.NoError(t, err)
	require.False(t, creds.Complete())

	writeFile(t, path, "tenantId: only-tenant\n")
	creds, err = LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "only-tenant", creds.TenantID)
	require.ErrorIs(t, creds.Validate(), domain.ErrMissingCredentials)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "accessToken: [unclosed\n")
	_, err = LoadFile(path)
	require.Error(t, err)
}

func TestFileWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.yaml")
	writeFile(t, path, "accessToken: tok-1\ntenantId: tenant-1\n")

	updates := make(chan domain.Credentials, 4)
	watcher := NewFileWatcher(path, func(creds domain.Credentials) { updates <- creds }, nil)
	watcher.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	require.Eventually(t, func() bool {
		writeFile(t, path, "accessToken: tok-2\ntenantId: tenant-1\n")
		select {
		case creds := <-updates:
			return creds.AccessToken == "tok-2"
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	watcher := NewFileWatcher(filepath.Join(t.TempDir(), "nope", "credentials.yaml"), nil, nil)
	err := watcher.Run(context.Background())
	require.Error(t, err)
}
