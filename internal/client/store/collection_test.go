package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/client/tempid"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/memory"
)

type item struct {
	ID     string `json:"id"`
	Parent string `json:"parent"`
	N      int    `json:"n"`
}

type itemPatch struct {
	N payload.Opt[int]
}

func (p itemPatch) Apply(it item) item {
	if v, ok := p.N.Get(); ok {
		it.N = v
	}
	return it
}

func (p itemPatch) Fields() payload.Doc {
	return payload.Put(payload.New(), "n", p.N)
}

func decodeItem(d gateway.Document) (item, error) {
	var it item
	err := d.Decode(&it)
	return it, err
}

func itemSchema(coll string, grouped bool, children ...Child) Schema[item] {
	s := Schema[item]{
		Collection: coll,
		ID:         func(it item) string { return it.ID },
		WithID:     func(it item, id string) item { it.ID = id; return it },
		Less:       func(a, b item) bool { return a.N < b.N },
		Decode:     decodeItem,
		Children:   children,
	}
	if grouped {
		s.Parent = func(it item) string { return it.Parent }
		s.WithParent = func(it item, parent string) item { it.Parent = parent; return it }
		s.ParentField = "parent"
	}
	return s
}

func buildItem(_ context.Context, it item) (item, payload.Doc, error) {
	return it, payload.New().Set("parent", it.Parent).Set("n", it.N), nil
}

func newPair(gw gateway.DocumentStore) (parents *Collection[item], children *Collection[item]) {
	children = New(gw, itemSchema("children", true))
	parents = New(gw, itemSchema("parents", false, children))
	return parents, children
}

func TestCreate_PromotesToServerID(t *testing.T) {
	ctx := context.Background()
	gw := memory.New(memory.WithSequentialIDs("srv"))
	parents, children := newPair(gw)

	var events []EventKind
	var pendingID string
	parents.Subscribe(func(ev Event[item]) {
		events = append(events, ev.Kind)
		if ev.Kind == EventInserted {
			pendingID = ev.ID
			assert.True(t, children.Has(ev.ID), "child group must exist during the pending window")
			assert.Equal(t, 1, parents.Len())
		}
	})

	got, err := parents.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)

	assert.Equal(t, "srv-1", got.ID)
	assert.True(t, tempid.IsTemporary(pendingID))
	assert.Equal(t, []EventKind{EventInserted, EventPromoted}, events)

	list := parents.List()
	require.Len(t, list, 1)
	assert.Equal(t, "srv-1", list[0].ID)

	_, ok := parents.Get(pendingID)
	assert.False(t, ok)
	assert.True(t, children.Has("srv-1"))
	assert.False(t, children.Has(pendingID))
}

func TestCreate_GroupedAppendAndPrepend(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()

	appendSchema := itemSchema("children", true)
	appendSchema.Less = nil
	app := New(gw, appendSchema)

	prependSchema := appendSchema
	prependSchema.Collection = "photos"
	prependSchema.Prepend = true
	pre := New(gw, prependSchema)

	for i := 1; i <= 3; i++ {
		_, err := app.Create(ctx, item{Parent: "t1", N: i}, buildItem)
		require.NoError(t, err)
		_, err = pre.Create(ctx, item{Parent: "t1", N: i}, buildItem)
		require.NoError(t, err)
	}

	ns := func(list []item) []int {
		out := make([]int, len(list))
		for i, it := range list {
			out[i] = it.N
		}
		return out
	}
	assert.Equal(t, []int{1, 2, 3}, ns(app.ByParent("t1")))
	assert.Equal(t, []int{3, 2, 1}, ns(pre.ByParent("t1")))
}

func TestCreate_FailureEvicts(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	parents, children := newPair(gw)
	boom := errors.New("rejected")

	gw.FailNext(memory.OpCreate, boom)
	_, err := parents.Create(ctx, item{N: 1}, buildItem)
	require.ErrorIs(t, err, boom)

	assert.Zero(t, parents.Len())
	assert.Empty(t, parents.Snapshot())
	assert.Empty(t, children.Snapshot())
}

func TestCreate_GroupedFailureKeepsExistingGroup(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	c := New(gw, itemSchema("children", true))

	_, err := c.Create(ctx, item{Parent: "t1", N: 1}, buildItem)
	require.NoError(t, err)
	before := c.Snapshot()

	gw.FailNext(memory.OpCreate, errors.New("boom"))
	_, err = c.Create(ctx, item{Parent: "t1", N: 2}, buildItem)
	require.Error(t, err)
	assert.Equal(t, before, c.Snapshot())

	gw.FailNext(memory.OpCreate, errors.New("boom"))
	_, err = c.Create(ctx, item{Parent: "t2", N: 2}, buildItem)
	require.Error(t, err)
	assert.False(t, c.Has("t2"), "group created by the failed call is removed")
}

func TestCreate_BuildFailureSkipsRemote(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	c := New(gw, itemSchema("parents", false))
	boom := errors.New("upload failed")

	_, err := c.Create(ctx, item{N: 1}, func(context.Context, item) (item, payload.Doc, error) {
		return item{}, nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, gw.CallsOf(memory.OpCreate))
	assert.Zero(t, c.Len())
}

func TestUpdate_MissingIsNoop(t *testing.T) {
	gw := memory.New()
	c := New(gw, itemSchema("parents", false))

	require.NoError(t, c.Update(context.Background(), "nope", itemPatch{N: payload.Some(2)}, nil))
	assert.Empty(t, gw.Calls())
}

func TestUpdate_RollbackIsExact(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	c := New(gw, itemSchema("children", true))
	for i := 1; i <= 3; i++ {
		_, err := c.Create(ctx, item{Parent: "t1", N: i}, buildItem)
		require.NoError(t, err)
	}
	target := c.ByParent("t1")[1]
	before := c.Snapshot()

	gw.FailNext(memory.OpUpdate, errors.New("offline"))
	var sawOptimistic bool
	c.Subscribe(func(ev Event[item]) {
		if ev.Kind == EventReplaced {
			got, _ := c.Get(target.ID)
			sawOptimistic = got.N == 99
		}
	})

	err := c.Update(ctx, target.ID, itemPatch{N: payload.Some(99)}, nil)
	require.Error(t, err)
	assert.True(t, sawOptimistic)
	assert.Equal(t, before, c.Snapshot())
}

func TestUpdate_ResolvedPatchIsSentAndKept(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	c := New(gw, itemSchema("parents", false))
	created, err := c.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)
	gw.ResetCalls()

	err = c.Update(ctx, created.ID, itemPatch{N: payload.Some(2)}, func(_ context.Context, before item) (Patch[item], error) {
		assert.Equal(t, 1, before.N)
		return itemPatch{N: payload.Some(3)}, nil
	})
	require.NoError(t, err)

	got, _ := c.Get(created.ID)
	assert.Equal(t, 3, got.N)
	calls := gw.CallsOf(memory.OpUpdate)
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{"n": 3}, calls[0].Fields)
}

func TestDelete_RollbackRestoresPositionAndChildren(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	parents, children := newPair(gw)

	var ids []string
	for i := 1; i <= 3; i++ {
		p, err := parents.Create(ctx, item{N: i}, buildItem)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	_, err := children.Create(ctx, item{Parent: ids[1], N: 7}, buildItem)
	require.NoError(t, err)

	beforeParents, beforeChildren := parents.Snapshot(), children.Snapshot()

	gw.FailNext(memory.OpDelete, errors.New("denied"))
	err = parents.Delete(ctx, ids[1], nil)
	require.Error(t, err)

	assert.Equal(t, beforeParents, parents.Snapshot())
	assert.Equal(t, beforeChildren, children.Snapshot())
}

func TestDelete_PrepareFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	c := New(gw, itemSchema("parents", false))
	p, err := c.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)
	gw.ResetCalls()

	err = c.Delete(ctx, p.ID, func(context.Context, item) (func(context.Context), error) {
		return nil, errors.New("lookup failed")
	})
	require.Error(t, err)
	assert.Empty(t, gw.CallsOf(memory.OpDelete))
	_, ok := c.Get(p.ID)
	assert.True(t, ok)
}

func TestDelete_SuccessRunsCleanupAndDropsChildren(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	parents, children := newPair(gw)
	p, err := parents.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)
	_, err = children.Create(ctx, item{Parent: p.ID, N: 2}, buildItem)
	require.NoError(t, err)

	var cleaned bool
	err = parents.Delete(ctx, p.ID, func(_ context.Context, deleted item) (func(context.Context), error) {
		assert.False(t, children.Has(p.ID), "children are detached before the remote delete")
		return func(context.Context) { cleaned = true }, nil
	})
	require.NoError(t, err)

	assert.True(t, cleaned)
	assert.Zero(t, parents.Len())
	assert.Zero(t, children.Len())
	require.NoError(t, parents.Delete(ctx, p.ID, nil), "second delete is a no-op")
}

func TestByParent_SortedCopy(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	c := New(gw, itemSchema("children", true))
	for _, n := range []int{3, 1, 2} {
		_, err := c.Create(ctx, item{Parent: "t1", N: n}, buildItem)
		require.NoError(t, err)
	}

	got := c.ByParent("t1")
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].N, got[1].N, got[2].N})

	got[0].N = 100
	assert.NotEqual(t, 100, c.ByParent("t1")[0].N)
	assert.Empty(t, c.ByParent("unknown"))
}

func TestLoad_ReplacesCache(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	gw.Seed("children", "a", map[string]any{"parent": "t1", "n": 1, "owner": "u1"})
	gw.Seed("children", "b", map[string]any{"parent": "t2", "n": 2, "owner": "u1"})
	gw.Seed("children", "c", map[string]any{"parent": "t1", "n": 3, "owner": "u2"})
	c := New(gw, itemSchema("children", true))

	_, err := c.Create(ctx, item{Parent: "stale", N: 9}, buildItem)
	require.NoError(t, err)

	require.NoError(t, c.Load(ctx, gateway.Where("owner", "u1")))
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Has("stale"))
	assert.Len(t, c.ByParent("t1"), 1)
	assert.Len(t, c.ByParent("t2"), 1)

	gw.FailNext(memory.OpQuery, errors.New("down"))
	require.Error(t, c.Load(ctx, gateway.Query{}))
	assert.Equal(t, 2, c.Len(), "failed load keeps the cache")

	c.Reset()
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Snapshot())
}

func TestFetchAndFetchByParent(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	gw.Seed("children", "a", map[string]any{"parent": "t1", "n": 1})
	gw.Seed("children", "b", map[string]any{"parent": "t1", "n": 2})
	c := New(gw, itemSchema("children", true))

	got, ok, err := c.Fetch(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, got.N)
	assert.Equal(t, 1, c.Len())

	_, ok, err = c.Fetch(ctx, "zzz")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := c.FetchByParent(ctx, "parent", "t1", nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 2, c.Len(), "refetched entity is not duplicated")
}

func TestCreate_ConcurrentNoDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	gw := memory.New()
	c := New(gw, itemSchema("children", true))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := c.Create(ctx, item{Parent: fmt.Sprintf("t%d", n%3), N: n}, buildItem)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, it := range c.List() {
		require.False(t, seen[it.ID], "duplicate id %s", it.ID)
		require.False(t, tempid.IsTemporary(it.ID))
		seen[it.ID] = true
	}
	assert.Len(t, seen, 50)
}

// hookedDocs runs a hook before delegating selected calls to the memory
// gateway. A non-nil hook error is returned instead of the call result.
type hookedDocs struct {
	*memory.Gateway
	onCreate func(ctx context.Context, coll string) error
	onUpdate func(ctx context.Context, coll, id string) error
	onDelete func(ctx context.Context, coll, id string) error
}

func (h *hookedDocs) CreateDocument(ctx context.Context, coll string, fields map[string]any) (gateway.Document, error) {
	if h.onCreate != nil {
		if err := h.onCreate(ctx, coll); err != nil {
			return gateway.Document{}, err
		}
	}
	return h.Gateway.CreateDocument(ctx, coll, fields)
}

func (h *hookedDocs) UpdateDocument(ctx context.Context, coll, id string, fields map[string]any) error {
	if h.onUpdate != nil {
		if err := h.onUpdate(ctx, coll, id); err != nil {
			return err
		}
	}
	return h.Gateway.UpdateDocument(ctx, coll, id, fields)
}

func (h *hookedDocs) DeleteDocument(ctx context.Context, coll, id string) error {
	if h.onDelete != nil {
		if err := h.onDelete(ctx, coll, id); err != nil {
			return err
		}
	}
	return h.Gateway.DeleteDocument(ctx, coll, id)
}

func TestDelete_FailureAfterResetRestoresNothing(t *testing.T) {
	ctx := context.Background()
	gw := &hookedDocs{Gateway: memory.New()}
	parents, children := newPair(gw)

	p, err := parents.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)
	_, err = children.Create(ctx, item{Parent: p.ID, N: 2}, buildItem)
	require.NoError(t, err)

	gw.onDelete = func(context.Context, string, string) error {
		parents.Reset()
		children.Reset()
		return errors.New("network down")
	}

	require.Error(t, parents.Delete(ctx, p.ID, nil))
	assert.Zero(t, parents.Len())
	assert.Zero(t, children.Len())
	assert.Empty(t, children.Snapshot())
}

func TestUpdate_FailureAfterReloadKeepsLoadedState(t *testing.T) {
	ctx := context.Background()
	gw := &hookedDocs{Gateway: memory.New()}
	c := New(gw, itemSchema("parents", false))

	p, err := c.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)

	gw.onUpdate = func(ctx context.Context, coll, id string) error {
		require.NoError(t, gw.Gateway.UpdateDocument(ctx, coll, id, map[string]any{"n": 5}))
		require.NoError(t, c.Load(ctx, gateway.Query{}))
		return errors.New("timeout")
	}

	require.Error(t, c.Update(ctx, p.ID, itemPatch{N: payload.Some(9)}, nil))
	got, ok := c.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, 5, got.N, "rollback must not overwrite the reloaded entity")
}

func TestCreate_ResultAfterResetIsDropped(t *testing.T) {
	ctx := context.Background()
	gw := &hookedDocs{Gateway: memory.New()}
	parents, children := newPair(gw)

	gw.onCreate = func(context.Context, string) error {
		parents.Reset()
		children.Reset()
		return nil
	}
	_, err := parents.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)
	assert.Zero(t, parents.Len())
	assert.Empty(t, children.Snapshot())

	gw.onCreate = func(context.Context, string) error {
		parents.Reset()
		return errors.New("rejected")
	}
	_, err = parents.Create(ctx, item{N: 2}, buildItem)
	require.Error(t, err)
	assert.Zero(t, parents.Len())
}

func TestCreate_ChildWrittenUnderPendingParentFollowsPromotion(t *testing.T) {
	ctx := context.Background()
	gw := &hookedDocs{Gateway: memory.New(memory.WithSequentialIDs("srv"))}
	parents, children := newPair(gw)

	var child item
	gw.onCreate = func(ctx context.Context, coll string) error {
		if coll != "parents" {
			return nil
		}
		pending := parents.List()[0].ID
		var err error
		child, err = children.Create(ctx, item{Parent: pending, N: 7}, buildItem)
		require.NoError(t, err)
		assert.Equal(t, pending, child.Parent)
		return nil
	}

	p, err := parents.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)

	list := children.ByParent(p.ID)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].Parent)

	doc, err := gw.GetDocument(ctx, "children", child.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, doc.Fields["parent"])
}

func TestCreate_ChildPendingDuringParentPromotionIsReparented(t *testing.T) {
	ctx := context.Background()
	gw := &hookedDocs{Gateway: memory.New(memory.WithSequentialIDs("srv"))}
	parents, children := newPair(gw)

	release := make(chan struct{})
	var wg sync.WaitGroup
	var child item
	var childErr error

	gw.onCreate = func(ctx context.Context, coll string) error {
		switch coll {
		case "parents":
			pending := parents.List()[0].ID
			wg.Add(1)
			go func() {
				defer wg.Done()
				child, childErr = children.Create(ctx, item{Parent: pending, N: 7}, buildItem)
			}()
			require.Eventually(t, func() bool { return children.Len() == 1 }, time.Second, time.Millisecond)
		case "children":
			<-release
		}
		return nil
	}

	p, err := parents.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)
	close(release)
	wg.Wait()
	require.NoError(t, childErr)

	assert.Equal(t, p.ID, child.Parent)
	list := children.ByParent(p.ID)
	require.Len(t, list, 1)
	assert.Equal(t, child.ID, list[0].ID)
	assert.Equal(t, p.ID, list[0].Parent)

	doc, err := gw.GetDocument(ctx, "children", child.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, doc.Fields["parent"])
}

func TestCreate_ChildAfterPromotionUsesServerParent(t *testing.T) {
	ctx := context.Background()
	gw := &hookedDocs{Gateway: memory.New(memory.WithSequentialIDs("srv"))}
	parents, children := newPair(gw)

	var pending string
	parents.Subscribe(func(ev Event[item]) {
		if ev.Kind == EventInserted {
			pending = ev.ID
		}
	})
	p, err := parents.Create(ctx, item{N: 1}, buildItem)
	require.NoError(t, err)

	child, err := children.Create(ctx, item{Parent: pending, N: 3}, buildItem)
	require.NoError(t, err)
	assert.Equal(t, p.ID, child.Parent)
	assert.Len(t, children.ByParent(p.ID), 1)
	assert.False(t, children.Has(pending))
}
