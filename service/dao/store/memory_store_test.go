package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/stepflow/service/dao"
)

type record struct {
	ID   string
	Name string
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string, record](func(r *record) string { return r.ID })

	require.ErrorIs(t, store.Save(ctx, nil), dao.ErrNilEntity)
	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, dao.ErrNotFound)

	require.NoError(t, store.Save(ctx, &record{ID: "a", Name: "first"}))
	require.NoError(t, store.Save(ctx, &record{ID: "b", Name: "second"}))
	require.NoError(t, store.Save(ctx, &record{ID: "a", Name: "updated"}))

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "updated", loaded.Name)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, store.Delete(ctx, "a"))
	require.ErrorIs(t, store.Delete(ctx, "a"), dao.ErrNotFound)
}
