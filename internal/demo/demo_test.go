package demo

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuxleus/directhost/pkg/container"
	"github.com/nuxleus/directhost/pkg/servicetest"
)

func newDemo(t *testing.T) *servicetest.Fixture {
	t.Helper()

	f := servicetest.New(t)
	err := f.Configure(func(c *container.Container) error {
		closeStore, err := Configure(context.Background(), c)
		if err != nil {
			return err
		}
		t.Cleanup(func() { _ = closeStore() })
		return Register(f.Controller())
	})
	require.NoError(t, err)
	return f
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := Open(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	fixed := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	created, err := store.Create(ctx, "  widget ", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "widget", created.Name)
	assert.Equal(t, fixed, created.CreatedAt)

	_, err = store.Create(ctx, "widget", 1)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = store.Create(ctx, " ", 1)
	assert.ErrorIs(t, err, ErrNameRequired)

	updated, err := store.Update(ctx, created.ID, "gadget", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Qty)

	_, err = store.Update(ctx, 99, "ghost", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "gadget", items[0].Name)

	require.NoError(t, store.Delete(ctx, created.ID))
	assert.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)

	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemLifecycle(t *testing.T) {
	t.Parallel()
	f := newDemo(t)
	ctx := context.Background()

	created, err := servicetest.ExecutePathAs[*ItemResponse](ctx, f, "POST", "/items", CreateItem{Name: "widget", Qty: 2})
	require.NoError(t, err)
	require.NotNil(t, created.Item)
	id := created.Item.ID

	got, err := servicetest.Get[*ItemResponse](ctx, f.Client(), "/items/1")
	require.NoError(t, err)
	assert.Equal(t, id, got.Item.ID)
	assert.Equal(t, "widget", got.Item.Name)

	updated, err := servicetest.Put[*ItemResponse](ctx, f.Client(), "/items/1", map[string]any{"name": "gadget", "qty": 5})
	require.NoError(t, err)
	assert.Equal(t, "gadget", updated.Item.Name)
	assert.Equal(t, 5, updated.Item.Qty)

	list, err := servicetest.Get[*ListResponse](ctx, f.Client(), "/items")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	res, err := f.ExecutePath(ctx, "DELETE", "/items/1")
	require.NoError(t, err)
	assert.Nil(t, res)

	_, err = f.ExecutePath(ctx, "GET", "/items/1")
	servicetest.AssertStatusCode(t, err, http.StatusNotFound)
	servicetest.AssertResponseStatus(t, err, "NotFound")

	f.AssertCalledTimes(t, "GET", "/items/{id}", 2)
	f.AssertCalled(t, "DELETE", "/items/1")
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()
	f := newDemo(t)

	_, err := f.ExecutePathBody(context.Background(), "POST", "/items", CreateItem{Qty: 1})
	var ae *servicetest.ApplicationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "ValidationError", ae.ErrorCode)
	assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)

	st := ae.ResponseStatus()
	require.NotNil(t, st)
	require.Len(t, st.Errors, 1)
	assert.Equal(t, "name", st.Errors[0].FieldName)

	entries := f.Calls().List(nil)
	require.Len(t, entries, 1)
	assert.Equal(t, "ValidationError", entries[0].ErrorCode)
}

func TestCreateConflict(t *testing.T) {
	t.Parallel()
	f := newDemo(t)
	ctx := context.Background()

	_, err := f.ExecutePathBody(ctx, "POST", "/items", CreateItem{Name: "widget"})
	require.NoError(t, err)

	_, err = f.ExecutePathBody(ctx, "POST", "/items", CreateItem{Name: "widget"})
	servicetest.AssertStatusCode(t, err, http.StatusConflict)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestDirectSend(t *testing.T) {
	t.Parallel()
	f := newDemo(t)
	ctx := context.Background()

	_, err := f.Client().Send(ctx, &CreateItem{Name: "direct"})
	require.NoError(t, err)

	got, err := servicetest.Send[*ItemResponse](ctx, f.Client(), GetItem{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "direct", got.Item.Name)
	f.AssertExecuted(t, "GetItem")
}

func TestStoreMissingFromContainer(t *testing.T) {
	t.Parallel()
	f := servicetest.New(t)
	require.NoError(t, Register(f.Controller()))

	_, err := f.ExecutePath(context.Background(), "GET", "/items")
	servicetest.AssertStatusCode(t, err, http.StatusInternalServerError)
	assert.ErrorIs(t, err, container.ErrNotRegistered)
}
