package demo

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nuxleus/directhost/pkg/container"
	"github.com/nuxleus/directhost/pkg/service"
)

// Request types.
type (
	ListItems struct{}

	GetItem struct {
		ID int64 `json:"id"`
	}

	CreateItem struct {
		Name string `json:"name"`
		Qty  int    `json:"qty"`
	}

	UpdateItem struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Qty  int    `json:"qty"`
	}

	DeleteItem struct {
		ID int64 `json:"id"`
	}
)

// ItemResponse carries a single item.
type ItemResponse struct {
	Item *Item `json:"item,omitempty"`
	service.ResponseStatusHolder
}

// ListResponse carries every item.
type ListResponse struct {
	Items []Item `json:"items"`
	service.ResponseStatusHolder
}

// Configure opens an in-memory store and registers it in c. The store is
// closed by the returned function.
func Configure(ctx context.Context, c *container.Container) (func() error, error) {
	store, err := Open(ctx, "")
	if err != nil {
		return nil, err
	}
	container.Register(c, store)
	return store.Close, nil
}

// Register adds the item operations to ctrl.
func Register(ctrl *service.Controller) error {
	return errors.Join(
		service.Register(ctrl, listItems, service.Route("/items", http.MethodGet)),
		service.Register(ctrl, getItem, service.Route("/items/{id}", http.MethodGet)),
		service.Register(ctrl, createItem, service.Route("/items", http.MethodPost)),
		service.Register(ctrl, updateItem, service.Route("/items/{id}", http.MethodPut)),
		service.Register(ctrl, deleteItem, service.Route("/items/{id}", http.MethodDelete)),
	)
}

func listItems(ctx context.Context, _ *ListItems) (any, error) {
	store, err := service.Resolve[*Store](ctx)
	if err != nil {
		return nil, err
	}
	items, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Items: items}, nil
}

func getItem(ctx context.Context, req *GetItem) (any, error) {
	store, err := service.Resolve[*Store](ctx)
	if err != nil {
		return nil, err
	}
	item, err := store.Get(ctx, req.ID)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &ItemResponse{Item: &item}, nil
}

func createItem(ctx context.Context, req *CreateItem) (any, error) {
	store, err := service.Resolve[*Store](ctx)
	if err != nil {
		return nil, err
	}
	item, err := store.Create(ctx, req.Name, req.Qty)
	if errors.Is(err, ErrNameRequired) {
		return nameRequired(), nil
	}
	if err != nil {
		return nil, toHTTPError(err)
	}
	return service.NewResult(http.StatusCreated, &ItemResponse{Item: &item}), nil
}

func updateItem(ctx context.Context, req *UpdateItem) (any, error) {
	store, err := service.Resolve[*Store](ctx)
	if err != nil {
		return nil, err
	}
	item, err := store.Update(ctx, req.ID, req.Name, req.Qty)
	if errors.Is(err, ErrNameRequired) {
		return nameRequired(), nil
	}
	if err != nil {
		return nil, toHTTPError(err)
	}
	return &ItemResponse{Item: &item}, nil
}

func deleteItem(ctx context.Context, req *DeleteItem) (any, error) {
	store, err := service.Resolve[*Store](ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Delete(ctx, req.ID); err != nil {
		return nil, toHTTPError(err)
	}
	return service.NewResult(http.StatusNoContent, nil), nil
}

// nameRequired reports an empty name in the payload, leaving the transport
// status at 200.
func nameRequired() *ItemResponse {
	res := &ItemResponse{}
	res.ResponseStatus = &service.ResponseStatus{
		ErrorCode: "ValidationError",
		Message:   ErrNameRequired.Error(),
		Errors:    []service.ResponseError{{ErrorCode: "NotEmpty", FieldName: "name", Message: "must not be empty"}},
	}
	return res
}

func toHTTPError(err error) error {
	var status int
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		status = http.StatusConflict
	default:
		return fmt.Errorf("item store: %w", err)
	}
	he := service.NewError(status, err.Error())
	he.Err = err
	return he
}
