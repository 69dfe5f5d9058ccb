package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/MrSnakeDoc/dashlink/internal/blob"
	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/service"
	"github.com/MrSnakeDoc/dashlink/internal/store/sqlstore"
)

type staticRefs []sqlstore.IconRef

func (s staticRefs) IconRefs(context.Context) ([]sqlstore.IconRef, error) { return s, nil }

func TestIconCollector_Collect(t *testing.T) {
	log := logger.New("error", false)
	fs := afero.NewMemMapFs()
	store := blob.New(fs)

	alice := "alice"
	aliceKey := service.IconKey(domain.OwnedBy(alice), "icon_2_1_aaaaaaaa.png")
	keep := service.IconKey(domain.Global(), "icon_1_1_bbbbbbbb.png")
	orphanOld := service.IconKey(domain.Global(), "icon_3_1_cccccccc.png")
	orphanNew := service.IconKey(domain.Global(), "icon_4_1_dddddddd.png")
	userOrphan := service.IconKey(domain.OwnedBy("bob"), "icon_5_1_eeeeeeee.png")

	now := time.Now()
	old := now.Add(-48 * time.Hour)
	for _, k := range []string{aliceKey, keep, orphanOld, orphanNew, userOrphan} {
		if err := store.Put(k, []byte("x")); err != nil {
			t.Fatalf("Put(%s) error = %v", k, err)
		}
		mod := old
		if k == orphanNew {
			mod = now.Add(-time.Minute)
		}
		if err := fs.Chtimes("/"+k, mod, mod); err != nil {
			t.Fatalf("Chtimes(%s) error = %v", k, err)
		}
	}

	refs := staticRefs{
		{IconPath: "icon_1_1_bbbbbbbb.png"},
		{UserID: &alice, IconPath: "icon_2_1_aaaaaaaa.png"},
	}

	gc := NewIconCollector(refs, store, log, 24*time.Hour, time.Hour)
	gc.now = func() time.Time { return now }

	deleted, err := gc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Collect() deleted %d, want 2", deleted)
	}

	want := map[string]bool{
		aliceKey:   true,
		keep:       true,
		orphanNew:  true,
		orphanOld:  false,
		userOrphan: false,
	}
	for k, present := range want {
		ok, err := store.Exists(k)
		if err != nil {
			t.Fatalf("Exists(%s) error = %v", k, err)
		}
		if ok != present {
			t.Errorf("blob %s present = %v, want %v", k, ok, present)
		}
	}
}
