package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(Options{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func seed(t *testing.T, s *LinkStore, p domain.Partition, titles ...string) []*domain.Link {
	t.Helper()
	out := make([]*domain.Link, 0, len(titles))
	for i, title := range titles {
		l := &domain.Link{
			Title:    title,
			URL:      "https://" + strings.ToLower(title) + ".example.com",
			Target:   domain.TargetBlank,
			Enabled:  true,
			Position: i,
			UserID:   p.Owner(),
		}
		require.NoError(t, s.Create(context.Background(), l))
		out = append(out, l)
	}
	return out
}

func positions(t *testing.T, s *LinkStore, p domain.Partition) map[int64]int {
	t.Helper()
	links, err := s.FindAll(context.Background(), p)
	require.NoError(t, err)
	out := make(map[int64]int, len(links))
	for _, l := range links {
		out[l.ID] = l.Position
	}
	return out
}

func TestReorderAssignsListIndex(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))
	links := seed(t, s, domain.Global(), "One", "Two", "Three")
	id1, id2, id3 := links[0].ID, links[1].ID, links[2].ID

	require.NoError(t, s.Reorder(ctx, domain.Global(), []int64{id3, id1, id2}))

	got := positions(t, s, domain.Global())
	assert.Equal(t, map[int64]int{id3: 0, id1: 1, id2: 2}, got)
}

func TestReorderNeverTouchesOtherPartitions(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))
	global := seed(t, s, domain.Global(), "G1", "G2")
	alice := seed(t, s, domain.OwnedBy("alice"), "A1", "A2")
	bob := seed(t, s, domain.OwnedBy("bob"), "B1", "B2")

	before := positions(t, s, domain.OwnedBy("bob"))
	globalBefore := positions(t, s, domain.Global())

	// alice tries to move bob's and the global links around
	err := s.Reorder(ctx, domain.OwnedBy("alice"), []int64{bob[1].ID, alice[1].ID, global[1].ID, alice[0].ID})
	require.NoError(t, err)

	assert.Equal(t, before, positions(t, s, domain.OwnedBy("bob")))
	assert.Equal(t, globalBefore, positions(t, s, domain.Global()))
	assert.Equal(t, map[int64]int{alice[1].ID: 0, alice[0].ID: 1}, positions(t, s, domain.OwnedBy("alice")))
}

func TestReorderPartialListKeepsContiguousPositions(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))
	links := seed(t, s, domain.Global(), "A", "B", "C", "D")

	require.NoError(t, s.Reorder(ctx, domain.Global(), []int64{links[2].ID, links[2].ID, 9999}))

	got, err := s.FindAll(ctx, domain.Global())
	require.NoError(t, err)
	titles := make([]string, 0, len(got))
	for i, l := range got {
		assert.Equal(t, i, l.Position)
		titles = append(titles, l.Title)
	}
	assert.Equal(t, []string{"C", "A", "B", "D"}, titles)
}

func TestCreateInsertsAtSlot(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))
	seed(t, s, domain.Global(), "A", "B")

	front := &domain.Link{Title: "Front", URL: "https://front.example.com", Target: domain.TargetBlank, Enabled: true}
	require.NoError(t, s.Create(ctx, front))
	assert.Equal(t, 0, front.Position)

	tail := &domain.Link{Title: "Tail", URL: "https://tail.example.com", Target: domain.TargetBlank, Position: 99}
	require.NoError(t, s.Create(ctx, tail))
	assert.Equal(t, 3, tail.Position)

	got, err := s.FindAll(ctx, domain.Global())
	require.NoError(t, err)
	var titles []string
	for i, l := range got {
		assert.Equal(t, i, l.Position)
		titles = append(titles, l.Title)
	}
	assert.Equal(t, []string{"Front", "A", "B", "Tail"}, titles)

	enabled, err := s.FindEnabled(ctx, domain.Global())
	require.NoError(t, err)
	assert.Len(t, enabled, 3, "disabled link must be filtered")
}

func TestDeleteResequences(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))
	links := seed(t, s, domain.Global(), "A", "B", "C")

	require.NoError(t, s.DeleteByID(ctx, domain.Global(), links[1].ID))
	assert.Equal(t, map[int64]int{links[0].ID: 0, links[2].ID: 1}, positions(t, s, domain.Global()))

	err := s.DeleteByID(ctx, domain.Global(), links[1].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindByIDIsPartitionScoped(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))
	alice := seed(t, s, domain.OwnedBy("alice"), "Mine")

	got, err := s.FindByID(ctx, domain.OwnedBy("alice"), alice[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)

	_, err = s.FindByID(ctx, domain.OwnedBy("bob"), alice[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.FindByID(ctx, domain.Global(), alice[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.DeleteByID(ctx, domain.OwnedBy("bob"), alice[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGroupsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))
	l := &domain.Link{Title: "G", URL: "https://g.example.com", Target: domain.TargetSelf, Groups: domain.Groups{"g1", "g2"}, Enabled: true}
	require.NoError(t, s.Create(ctx, l))

	got, err := s.FindByID(ctx, domain.Global(), l.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g2", "g1"}, []string(got.Groups))

	none := &domain.Link{Title: "N", URL: "https://n.example.com", Target: domain.TargetBlank}
	require.NoError(t, s.Create(ctx, none))
	got, err = s.FindByID(ctx, domain.Global(), none.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Groups)
	assert.Empty(t, got.Groups)
}

func TestUpdatePersistsAllFields(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))
	links := seed(t, s, domain.OwnedBy("alice"), "Old")

	l := links[0]
	desc := "new description"
	l.Title = "New"
	l.Description = &desc
	l.Enabled = false
	before := l.UpdatedAt
	require.NoError(t, s.Update(ctx, l))

	got, err := s.FindByID(ctx, domain.OwnedBy("alice"), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "new description", *got.Description)
	assert.False(t, got.Enabled)
	assert.Equal(t, "alice", *got.UserID)
	assert.False(t, got.UpdatedAt.Before(before))

	// description cleared
	got.Description = nil
	require.NoError(t, s.Update(ctx, got))
	again, err := s.FindByID(ctx, domain.OwnedBy("alice"), l.ID)
	require.NoError(t, err)
	assert.Nil(t, again.Description)
}

func TestCountMaxPositionAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))

	top, err := s.MaxPosition(ctx, domain.OwnedBy("alice"))
	require.NoError(t, err)
	assert.Equal(t, -1, top)

	seed(t, s, domain.OwnedBy("alice"), "A", "B", "C")
	seed(t, s, domain.Global(), "G")

	n, err := s.Count(ctx, domain.OwnedBy("alice"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	top, err = s.MaxPosition(ctx, domain.OwnedBy("alice"))
	require.NoError(t, err)
	assert.Equal(t, 2, top)

	removed, err := s.DeleteAll(ctx, domain.OwnedBy("alice"))
	require.NoError(t, err)
	assert.Len(t, removed, 3)

	n, err = s.Count(ctx, domain.Global())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestIconRefs(t *testing.T) {
	ctx := context.Background()
	s := NewLinkStore(newTestDB(t))
	links := seed(t, s, domain.OwnedBy("alice"), "A", "B")

	path, mime := "icon_1_1_abcdef01.png", "image/png"
	links[0].IconPath, links[0].IconMimeType = &path, &mime
	require.NoError(t, s.Update(ctx, links[0]))

	refs, err := s.IconRefs(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, path, refs[0].IconPath)
	require.NotNil(t, refs[0].UserID)
	assert.Equal(t, "alice", *refs[0].UserID)
}
