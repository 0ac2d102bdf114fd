package filestore_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack23912/webscrapbook/internal/adapter/filestore"
	"github.com/jack23912/webscrapbook/internal/entity"
)

func TestStore_SaveDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := filestore.New(fs, "/data")
	ctx := context.Background()

	tests := []struct {
		name     string
		artifact entity.Artifact
		want     string
	}{
		{"html", entity.Artifact{DocumentName: "index", Mime: "text/html", Content: "<html></html>"}, "index.html"},
		{"xhtml", entity.Artifact{DocumentName: "index_1", Mime: "application/xhtml+xml", Content: "<html/>"}, "index_1.xhtml"},
		{"unknown mime", entity.Artifact{DocumentName: "index_2", Mime: "", Content: "x"}, "index_2.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := store.SaveDocument(ctx, entity.NewSettings("s1"), tt.artifact)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)

			data, err := afero.ReadFile(fs, "/data/s1/"+tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.artifact.Content, string(data))
		})
	}
}

func TestStore_RejectsEscapingNames(t *testing.T) {
	store := filestore.New(afero.NewMemMapFs(), "/data")

	for _, name := range []string{"", "..", "../x.png", "a/b.png"} {
		err := store.WriteFile(context.Background(), "s1", name, []byte("x"))
		assert.ErrorIs(t, err, filestore.ErrInvalidName, name)
	}
	err := store.WriteFile(context.Background(), "..", "a.png", []byte("x"))
	assert.ErrorIs(t, err, filestore.ErrInvalidName)
}

func TestStore_ReadBack(t *testing.T) {
	store := filestore.New(afero.NewMemMapFs(), "/data")
	require.NoError(t, store.WriteFile(context.Background(), "s1", "a.png", []byte{0x89, 'P', 'N', 'G'}))

	assert.True(t, store.Exists("s1", "a.png"))
	assert.False(t, store.Exists("s1", "b.png"))
	data, err := store.ReadFile("s1", "a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestStore_HTTPFileSystem(t *testing.T) {
	store := filestore.New(afero.NewMemMapFs(), "/data")
	require.NoError(t, store.WriteFile(context.Background(), "s1", "note.txt", []byte("hello")))

	srv := httptest.NewServer(http.FileServer(store.HTTPFileSystem()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/s1/note.txt")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))
}
