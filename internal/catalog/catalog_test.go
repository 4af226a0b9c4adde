package catalog

import (
	"os"
	"path/filepath"
	"testing"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
items:
  - name: "Admin Dashboard"
    url: "https://themeforest.net/item/admin-dashboard/23400000"
  - name: "Landing Kit"
    url: "https://themeforest.net/item/landing-kit/abc"
    source_id: "19900001"
`))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	items := c.Items()
	assert.Equal(t, "23400000", items[0].SourceID)
	assert.Equal(t, "19900001", items[1].SourceID)
	assert.Empty(t, items[0].ID)
	assert.True(t, c.Tracks("https://themeforest.net/item/landing-kit/abc"))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing name",
			body:    "items:\n  - url: \"https://themeforest.net/item/x/1\"\n",
			wantErr: "name must not be empty",
		},
		{
			name:    "missing url",
			body:    "items:\n  - name: \"x\"\n",
			wantErr: "url must not be empty",
		},
		{
			name: "duplicate url",
			body: `
items:
  - name: "a"
    url: "https://themeforest.net/item/x/1"
  - name: "b"
    url: "https://themeforest.net/item/x/1"
`,
			wantErr: "duplicate url",
		},
		{
			name:    "no derivable id",
			body:    "items:\n  - name: \"x\"\n    url: \"https://themeforest.net/item/x\"\n",
			wantErr: "cannot derive source_id",
		},
		{
			name:    "malformed yaml",
			body:    "items: [",
			wantErr: "parsing catalog",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSourceIDFromURL(t *testing.T) {
	id, err := SourceIDFromURL("https://codecanyon.net/item/chat-plugin/31000111/")
	require.NoError(t, err)
	assert.Equal(t, "31000111", id)

	_, err = SourceIDFromURL("https://codecanyon.net/")
	require.Error(t, err)
}

func TestCatalog_Filter(t *testing.T) {
	c, err := New([]Entry{{Name: "a", URL: "https://themeforest.net/item/a/1"}})
	require.NoError(t, err)

	got := c.Filter([]v1.Item{
		{ID: "1", URL: "https://themeforest.net/item/a/1"},
		{ID: "2", URL: "https://themeforest.net/item/retired/2"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items:\n  - name: \"a\"\n    url: \"https://themeforest.net/item/a/1\"\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "reading catalog file")
}
