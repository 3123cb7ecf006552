package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonaguard/sonaguard/internal/config"
)

func TestLocalStore_Open(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte(`{"version":"v1"}`), 0644))

	st, err := New(config.ModelStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)

	rc, err := st.Open(context.Background(), "model.json")
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.JSONEq(t, `{"version":"v1"}`, string(raw))
}

func TestLocalStore_MissingKey(t *testing.T) {
	st, err := New(config.ModelStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	_, err = st.Open(context.Background(), "absent.json")
	require.Error(t, err)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	st, err := New(config.ModelStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	_, err = st.Open(context.Background(), "../etc/passwd")
	require.Error(t, err)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.ModelStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.ModelStoreConfig{})
	require.Error(t, err)
}

func TestLocalStore_RequiresDir(t *testing.T) {
	_, err := New(config.ModelStoreConfig{Type: "local", Data: map[string]interface{}{}})
	require.Error(t, err)
	_, err = New(config.ModelStoreConfig{Type: "local"})
	require.Error(t, err)
}
