package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockmanager/core/internal/infrastructure/config"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

// useFileStorage points the configuration at a fresh document in a temp dir
func useFileStorage(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	document := filepath.Join(dir, "data.json")
	t.Setenv("STORAGE_DRIVER", config.DriverFile)
	t.Setenv("STORAGE_DOCUMENT", document)
	t.Setenv("LOG_LEVEL", "error")
	return document
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewItemCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestItemCommand_Lifecycle(t *testing.T) {
	document := useFileStorage(t)

	out, err := run(t, "add", "--name", "Keyboard", "--stock", "20", "--price", "150000")
	require.NoError(t, err)
	assert.Contains(t, out, "Item created:")

	out, err = run(t, "list", "--json")
	require.NoError(t, err)
	var listed ports.ItemListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Items, 1)
	id := listed.Items[0].ID

	_, err = run(t, "update", strconv.FormatInt(id, 10), "--name", "Keyboard Mechanical", "--stock", "4", "--price", "200000")
	require.NoError(t, err)

	out, err = run(t, "list", "--query", "mech")
	require.NoError(t, err)
	assert.Contains(t, out, "Keyboard Mechanical")
	assert.Contains(t, out, "low stock")
	assert.Contains(t, out, "1 item(s), 1 low on stock")

	raw, err := os.ReadFile(document)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"nama": "Keyboard Mechanical"`)

	_, err = run(t, "delete", strconv.FormatInt(id, 10))
	require.NoError(t, err)

	raw, err = os.ReadFile(document)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestItemCommand_UpdateKeepsOmittedFields(t *testing.T) {
	useFileStorage(t)

	_, err := run(t, "add", "--name", "Keyboard", "--stock", "20", "--price", "150000")
	require.NoError(t, err)
	out, err := run(t, "list", "--json")
	require.NoError(t, err)
	var listed ports.ItemListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Items, 1)
	id := strconv.FormatInt(listed.Items[0].ID, 10)

	tests := []struct {
		name      string
		args      []string
		wantName  string
		wantStock int
		wantPrice int
	}{
		{name: "rename only", args: []string{"--name", "Keyboard Mechanical"}, wantName: "Keyboard Mechanical", wantStock: 20, wantPrice: 150000},
		{name: "stock only", args: []string{"--stock", "4"}, wantName: "Keyboard Mechanical", wantStock: 4, wantPrice: 150000},
		{name: "explicit zero price", args: []string{"--price", "0"}, wantName: "Keyboard Mechanical", wantStock: 4, wantPrice: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"update", id}, tt.args...)...)
			require.NoError(t, err)

			out, err := run(t, "list", "--json")
			require.NoError(t, err)
			var listed ports.ItemListResponse
			require.NoError(t, json.Unmarshal([]byte(out), &listed))
			require.Len(t, listed.Items, 1)
			assert.Equal(t, tt.wantName, listed.Items[0].Name)
			assert.Equal(t, tt.wantStock, listed.Items[0].Stock)
			assert.Equal(t, tt.wantPrice, listed.Items[0].Price)
		})
	}
}

func TestItemCommand_Errors(t *testing.T) {
	useFileStorage(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "negative stock", args: []string{"add", "--name", "Keyboard", "--stock", "-1", "--price", "1"}},
		{name: "missing name", args: []string{"add", "--stock", "1"}},
		{name: "update unknown id", args: []string{"update", "42", "--name", "Ghost"}},
		{name: "update without fields", args: []string{"update", "42"}},
		{name: "invalid id", args: []string{"delete", "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestOpenStorage(t *testing.T) {
	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{
			name: "file",
			cfg:  config.Config{Storage: config.StorageConfig{Driver: config.DriverFile, Document: "data.json"}},
		},
		{
			name: "redis",
			cfg: config.Config{
				Storage: config.StorageConfig{Driver: config.DriverRedis, Document: "stock:items"},
				Redis:   config.RedisConfig{Host: s.Host(), Port: port},
			},
		},
		{
			name:    "unknown driver",
			cfg:     config.Config{Storage: config.StorageConfig{Driver: "mongo"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, closeFn, err := openStorage(&tt.cfg, logger.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer closeFn()
			assert.NotNil(t, docs)
		})
	}
}

func TestOpenInventory_Redis(t *testing.T) {
	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)
	require.NoError(t, s.Set("stock:items", `[{"id": 9, "nama": "Mouse", "stok": 3, "harga": 75000}]`))

	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.DriverRedis, Document: "stock:items"},
		Redis:   config.RedisConfig{Host: s.Host(), Port: port},
	}

	inv, err := openInventory(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer inv.close()

	items := inv.service.ListItems(context.Background(), "")
	require.Len(t, items, 1)
	assert.Equal(t, "Mouse", items[0].Name)
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "StockManager v"+Version)
}
