package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/dashlink/internal/blob"
	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/fetch"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/store/sqlstore"
)

type fakeDownloader struct {
	bodies map[string][]byte
	calls  []string
}

func (f *fakeDownloader) Fetch(_ context.Context, rawURL string) (*fetch.Result, error) {
	f.calls = append(f.calls, rawURL)
	data, ok := f.bodies[rawURL]
	if !ok {
		return nil, domain.UpstreamFetch(errors.New("status 404"), "Failed to download icon from URL")
	}
	return &fetch.Result{Data: data, FinalURL: rawURL}, nil
}

type env struct {
	links     *LinkService
	userLinks *UserLinkService
	icons     *IconService
	settings  *SettingsService
	store     *sqlstore.LinkStore
	blobs     *blob.Store
	fetcher   *fakeDownloader
}

func newEnv(t *testing.T) *env {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sqlstore.Open(sqlstore.Options{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name),
	}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, sqlstore.Migrate(db))
	t.Cleanup(func() { _ = sqlstore.Close(db) })

	log := logger.NewNop()
	store := sqlstore.NewLinkStore(db)
	blobs := blob.New(afero.NewMemMapFs())
	fetcher := &fakeDownloader{bodies: map[string][]byte{}}
	settings := NewSettingsService(sqlstore.NewSettingsStore(db), log)
	icons := NewIconService(store, blobs, fetcher, log)

	return &env{
		links:     NewLinkService(store, icons, log),
		userLinks: NewUserLinkService(store, icons, settings, log),
		icons:     icons,
		settings:  settings,
		store:     store,
		blobs:     blobs,
		fetcher:   fetcher,
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func ptr[T any](v T) *T { return &v }

func titles(links []*domain.Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.Title)
	}
	return out
}
