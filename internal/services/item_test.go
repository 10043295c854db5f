package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	domain "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/apierr"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/realtime"
)

func TestItemCreateThenReadReturnsSameEntity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, domain.CategoryDisney)

	created, err := f.items.Create(ctx, ItemInput{Name: ptr("Mickey"), Price: ptr(7.95), Category: ptr("disney")})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, 7.95, created.Price)
	require.NotNil(t, created.Category)
	require.Equal(t, domain.CategoryDisney, created.Category.Name)

	cached, hit := f.itemCache.Get(created.Key())
	require.True(t, hit, "create must populate the cache")
	require.Equal(t, created.Snapshot(), cached.Snapshot())

	got, err := f.items.GetByID(ctx, created.Key())
	require.NoError(t, err)
	require.Equal(t, created.Snapshot(), got.Snapshot())

	f.itemCache.Flush()
	fromStore, err := f.items.GetByID(ctx, created.Key())
	require.NoError(t, err)
	require.Equal(t, created.ID, fromStore.ID)
	require.Equal(t, created.Name, fromStore.Name)
	require.Equal(t, created.Category.Name, fromStore.Category.Name)
	_, hit = f.itemCache.Get(created.Key())
	require.True(t, hit, "miss must populate the cache")

	events := f.events.all()
	require.Len(t, events, 2)
	require.Equal(t, realtime.EntityItems, events[1].Entity)
	require.Equal(t, realtime.OpCreate, events[1].Op)
}

func TestItemCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, domain.CategorySerie)

	cases := []struct {
		name string
		in   ItemInput
		kind apierr.Kind
	}{
		{"missing name", ItemInput{Name: ptr("  "), Price: ptr(1.0), Category: ptr("SERIE")}, apierr.KindInvalidArgument},
		{"missing price", ItemInput{Name: ptr("Eleven"), Category: ptr("SERIE")}, apierr.KindInvalidArgument},
		{"negative price", ItemInput{Name: ptr("Eleven"), Price: ptr(-0.01), Category: ptr("SERIE")}, apierr.KindInvalidArgument},
		{"price too high", ItemInput{Name: ptr("Eleven"), Price: ptr(50.01), Category: ptr("SERIE")}, apierr.KindInvalidArgument},
		{"unknown category", ItemInput{Name: ptr("Eleven"), Price: ptr(10.0), Category: ptr("PELICULA")}, apierr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.items.Create(ctx, tc.in)
			require.Error(t, err)
			require.Equal(t, tc.kind, apierr.KindOf(err))
		})
	}

	// bounds are inclusive
	for _, p := range []float64{domain.MinItemPrice, domain.MaxItemPrice} {
		_, err := f.items.Create(ctx, ItemInput{Name: ptr("edge " + itemKey(uint64(p))), Price: ptr(p), Category: ptr("SERIE")})
		require.NoError(t, err)
	}

	list, err := f.items.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// only the category create and the two edge creates were published
	require.Len(t, f.events.all(), 3)
}

func TestItemNameConflictAndSelfExclusion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, domain.CategorySuperheroes)

	first, err := f.items.Create(ctx, ItemInput{Name: ptr("Darth Vader"), Price: ptr(20.0), Category: ptr("SUPERHEROES")})
	require.NoError(t, err)

	_, err = f.items.Create(ctx, ItemInput{Name: ptr("Darth Vader"), Price: ptr(21.0), Category: ptr("SUPERHEROES")})
	require.True(t, apierr.Is(err, apierr.KindConflict), "got %v", err)

	updated, err := f.items.Update(ctx, first.Key(), ItemInput{Name: ptr("Darth Vader"), Price: ptr(25.0)})
	require.NoError(t, err)
	require.Equal(t, 25.0, updated.Price)

	other, err := f.items.Create(ctx, ItemInput{Name: ptr("Luke"), Price: ptr(5.0), Category: ptr("SUPERHEROES")})
	require.NoError(t, err)
	_, err = f.items.Update(ctx, other.Key(), ItemInput{Name: ptr("Darth Vader")})
	require.True(t, apierr.Is(err, apierr.KindConflict), "got %v", err)
}

func TestItemUpdateMergesAndKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, domain.CategoryDisney)
	f.category(t, domain.CategoryPelicula)

	created, err := f.items.Create(ctx, ItemInput{Name: ptr("Stitch"), Price: ptr(10.0), Category: ptr("DISNEY")})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	updated, err := f.items.Update(ctx, created.Key(), ItemInput{Category: ptr("pelicula")})
	require.NoError(t, err)
	require.Equal(t, "Stitch", updated.Name)
	require.Equal(t, 10.0, updated.Price)
	require.Equal(t, domain.CategoryPelicula, updated.Category.Name)
	require.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	cached, hit := f.itemCache.Get(created.Key())
	require.True(t, hit)
	require.Equal(t, domain.CategoryPelicula, cached.Category.Name)

	_, err = f.items.Update(ctx, created.Key(), ItemInput{Price: ptr(99.0)})
	require.True(t, apierr.Is(err, apierr.KindInvalidArgument))
	_, err = f.items.Update(ctx, "abc", ItemInput{})
	require.True(t, apierr.Is(err, apierr.KindInvalidArgument))
	_, err = f.items.Update(ctx, "987654", ItemInput{})
	require.True(t, apierr.Is(err, apierr.KindNotFound))
}

func TestItemUpdatePublishesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, domain.CategoryOtros)
	created, err := f.items.Create(ctx, ItemInput{Name: ptr("Groot"), Price: ptr(3.0), Category: ptr("OTROS")})
	require.NoError(t, err)

	before := len(f.events.all())
	_, err = f.items.Update(ctx, created.Key(), ItemInput{Price: ptr(4.5)})
	require.NoError(t, err)

	events := f.events.all()[before:]
	require.Len(t, events, 1)
	require.Equal(t, realtime.OpUpdate, events[0].Op)
	snap, ok := events[0].Payload.(domain.ItemSnapshot)
	require.True(t, ok)
	require.Equal(t, 4.5, snap.Price)

	// failed updates publish nothing
	_, err = f.items.Update(ctx, created.Key(), ItemInput{Price: ptr(-1.0)})
	require.Error(t, err)
	require.Len(t, f.events.all(), before+1)
}

func TestItemDeleteThenReadIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, domain.CategoryDisney)

	created, err := f.items.Create(ctx, ItemInput{Name: ptr("Goofy"), Price: ptr(8.0), Category: ptr("DISNEY")})
	require.NoError(t, err)

	removed, err := f.items.Delete(ctx, created.Key())
	require.NoError(t, err)
	require.Equal(t, created.ID, removed.ID)

	_, hit := f.itemCache.Get(created.Key())
	require.False(t, hit)

	_, err = f.items.GetByID(ctx, created.Key())
	require.True(t, apierr.Is(err, apierr.KindNotFound))

	_, err = f.items.Delete(ctx, created.Key())
	require.True(t, apierr.Is(err, apierr.KindNotFound))

	events := f.events.all()
	last := events[len(events)-1]
	require.Equal(t, realtime.OpDelete, last.Op)
	require.Equal(t, "Goofy", last.Payload.(domain.ItemSnapshot).Name)
}

func TestItemGetByIDFormat(t *testing.T) {
	f := newFixture(t)
	_, err := f.items.GetByID(context.Background(), "not-a-number")
	require.True(t, apierr.Is(err, apierr.KindInvalidArgument))
	_, err = f.items.GetByID(context.Background(), "12")
	require.True(t, apierr.Is(err, apierr.KindNotFound))
}

func TestItemGetByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, domain.CategoryDisney)
	_, err := f.items.Create(ctx, ItemInput{Name: ptr("Donald"), Price: ptr(6.0), Category: ptr("DISNEY")})
	require.NoError(t, err)

	got, err := f.items.GetByName(ctx, "Donald")
	require.NoError(t, err)
	require.Equal(t, "Donald", got.Name)

	_, err = f.items.GetByName(ctx, "Daisy")
	require.True(t, apierr.Is(err, apierr.KindNotFound))
}

// Walks create, read, update and delete through a real dispatcher and
// registry and checks what a connected subscriber sees.
func TestItemLifecycleBroadcastsToSubscribers(t *testing.T) {
	ctx := context.Background()
	log := logger.Nop()

	reg := realtime.NewRegistry(log)
	sub := realtime.NewClient("test", 32)
	reg.Register(sub)

	d := realtime.NewDispatcher(log, reg, 32, 2)
	d.Start(ctx)
	defer d.Stop()

	f := newFixtureWith(t, NewBroadcaster(log, d))
	cat := f.category(t, "DISNEY")
	require.True(t, cat.Active)

	mickey, err := f.items.Create(ctx, ItemInput{Name: ptr("Mickey"), Price: ptr(7.95), Category: ptr("DISNEY")})
	require.NoError(t, err)
	require.Equal(t, cat.ID, mickey.Category.ID)

	again, err := f.items.GetByID(ctx, mickey.Key())
	require.NoError(t, err)
	require.Equal(t, mickey.Snapshot(), again.Snapshot())

	_, err = f.items.Update(ctx, mickey.Key(), ItemInput{Price: ptr(9.99)})
	require.NoError(t, err)

	_, err = f.items.Delete(ctx, mickey.Key())
	require.NoError(t, err)

	_, err = f.items.GetByID(ctx, mickey.Key())
	require.True(t, apierr.Is(err, apierr.KindNotFound))

	drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.True(t, d.Drain(drainCtx))

	var itemEvents []map[string]any
	for len(sub.Outbound) > 0 {
		ev := decodeEvent(t, <-sub.Outbound)
		if ev["entity"] == realtime.EntityItems {
			itemEvents = append(itemEvents, ev)
		}
	}
	require.Len(t, itemEvents, 3)

	counts := map[string]int{}
	for _, ev := range itemEvents {
		counts[ev["type"].(string)]++
		require.NotEmpty(t, ev["createdAt"])
		if ev["type"] == string(realtime.OpUpdate) {
			data := ev["data"].(map[string]any)
			require.Equal(t, 9.99, data["price"])
			require.Equal(t, "DISNEY", data["category"])
		}
	}
	require.Equal(t, map[string]int{"CREATE": 1, "UPDATE": 1, "DELETE": 1}, counts)
}

func TestCreateReadConsistencyProperty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.category(t, domain.CategoryOtros)
	seen := map[string]bool{}

	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,20}[A-Za-z0-9]`).Draw(rt, "name")
		price := rapid.Float64Range(domain.MinItemPrice, domain.MaxItemPrice).Draw(rt, "price")

		created, err := f.items.Create(ctx, ItemInput{Name: ptr(name), Price: ptr(price), Category: ptr("OTROS")})
		if seen[name] {
			if !apierr.Is(err, apierr.KindConflict) {
				rt.Fatalf("duplicate %q: want conflict, got %v", name, err)
			}
			return
		}
		if err != nil {
			rt.Fatalf("create %q: %v", name, err)
		}
		seen[name] = true

		got, err := f.items.GetByID(ctx, created.Key())
		if err != nil {
			rt.Fatalf("read %s: %v", created.Key(), err)
		}
		if got.Snapshot() != created.Snapshot() {
			rt.Fatalf("read-after-write mismatch: %+v vs %+v", got.Snapshot(), created.Snapshot())
		}
	})
}
