package servicetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"runtime/debug"

	"github.com/nuxleus/directhost/pkg/service"
)

// Client is a service client that dispatches in-process through a Fixture.
// Typed variants are package functions since methods cannot take type
// parameters: Get[T](ctx, c, url).
type Client struct {
	f *Fixture
}

// SendOneWay runs request through the direct executor and discards the result.
func (c *Client) SendOneWay(ctx context.Context, request any) error {
	_, err := c.f.Send(ctx, request)
	return err
}

// Send runs request through the direct executor.
func (c *Client) Send(ctx context.Context, request any) (any, error) {
	return c.f.Send(ctx, request)
}

// Get dispatches GET url.
func (c *Client) Get(ctx context.Context, url string) (any, error) {
	return c.f.ExecutePath(ctx, "GET", url)
}

// Delete dispatches DELETE url.
func (c *Client) Delete(ctx context.Context, url string) (any, error) {
	return c.f.ExecutePath(ctx, "DELETE", url)
}

// Post dispatches POST url with request as the body.
func (c *Client) Post(ctx context.Context, url string, request any) (any, error) {
	return c.f.ExecutePathBody(ctx, "POST", url, request)
}

// Put dispatches PUT url with request as the body.
func (c *Client) Put(ctx context.Context, url string, request any) (any, error) {
	return c.f.ExecutePathBody(ctx, "PUT", url, request)
}

// PostFile is not supported by the direct client.
func (c *Client) PostFile(_ context.Context, _ string, _ io.Reader, _, _ string) (any, error) {
	return nil, fmt.Errorf("%w: PostFile", ErrNotImplemented)
}

// SetCredentials is not supported by the direct client.
func (c *Client) SetCredentials(_, _ string) error {
	return fmt.Errorf("%w: SetCredentials", ErrNotImplemented)
}

// Send runs request through the direct executor and converts the result to T.
func Send[T any](ctx context.Context, c *Client, request any) (T, error) {
	return as[T](c.Send(ctx, request))
}

// Get dispatches GET url and converts the result to T.
func Get[T any](ctx context.Context, c *Client, url string) (T, error) {
	return as[T](c.Get(ctx, url))
}

// Delete dispatches DELETE url and converts the result to T.
func Delete[T any](ctx context.Context, c *Client, url string) (T, error) {
	return as[T](c.Delete(ctx, url))
}

// Post dispatches POST url and converts the result to T.
func Post[T any](ctx context.Context, c *Client, url string, request any) (T, error) {
	return as[T](c.Post(ctx, url, request))
}

// Put dispatches PUT url and converts the result to T.
func Put[T any](ctx context.Context, c *Client, url string, request any) (T, error) {
	return as[T](c.Put(ctx, url, request))
}

// SendAsync is Send delivering its outcome to exactly one of onSuccess or
// onError. On failure onError receives a new T whose ResponseStatus, when T
// has one, describes the error.
func SendAsync[T any](ctx context.Context, c *Client, request any, onSuccess func(T), onError func(T, error)) {
	deliver(c, func() (T, error) { return Send[T](ctx, c, request) }, onSuccess, onError)
}

// GetAsync is Get with callbacks. See SendAsync.
func GetAsync[T any](ctx context.Context, c *Client, url string, onSuccess func(T), onError func(T, error)) {
	deliver(c, func() (T, error) { return Get[T](ctx, c, url) }, onSuccess, onError)
}

// DeleteAsync is Delete with callbacks. See SendAsync.
func DeleteAsync[T any](ctx context.Context, c *Client, url string, onSuccess func(T), onError func(T, error)) {
	deliver(c, func() (T, error) { return Delete[T](ctx, c, url) }, onSuccess, onError)
}

// PostAsync is Post with callbacks. See SendAsync.
func PostAsync[T any](ctx context.Context, c *Client, url string, request any, onSuccess func(T), onError func(T, error)) {
	deliver(c, func() (T, error) { return Post[T](ctx, c, url, request) }, onSuccess, onError)
}

// PutAsync is Put with callbacks. See SendAsync.
func PutAsync[T any](ctx context.Context, c *Client, url string, request any, onSuccess func(T), onError func(T, error)) {
	deliver(c, func() (T, error) { return Put[T](ctx, c, url, request) }, onSuccess, onError)
}

func deliver[T any](c *Client, call func() (T, error), onSuccess func(T), onError func(T, error)) {
	res, err := call()
	if err == nil {
		if onSuccess != nil {
			onSuccess(res)
		}
		return
	}

	placeholder := newInstance[T]()
	target := any(&placeholder)
	if reflect.TypeFor[T]().Kind() == reflect.Pointer {
		target = placeholder
	}
	if hs, ok := target.(service.HasResponseStatus); ok {
		hs.SetResponseStatus(&service.ResponseStatus{
			ErrorCode:  service.ErrorCode(err),
			Message:    err.Error(),
			StackTrace: string(debug.Stack()),
		})
	}

	var se *ServiceError
	if !errors.As(err, &se) {
		err = &ServiceError{StatusCode: failureStatus(err), ErrorCode: service.ErrorCode(err), Message: err.Error(), Err: err}
	}

	if onError == nil {
		c.f.logger.Error("async request failed with no error callback", "error", err)
		return
	}
	onError(placeholder, err)
}

// newInstance returns a zero T, allocating the target when T is a pointer.
func newInstance[T any]() T {
	var zero T
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(T)
	}
	return zero
}

func as[T any](res any, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return convert[T](res)
}

// convert returns res as T by assertion, falling back to a JSON round trip
// for values of a different but compatible shape.
func convert[T any](res any) (T, error) {
	if v, ok := res.(T); ok {
		return v, nil
	}
	var zero T
	if res == nil {
		return zero, nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return zero, fmt.Errorf("%w: %T: %v", ErrUnexpectedResponse, res, err)
	}
	out := newInstance[T]()
	target := any(&out)
	if reflect.TypeFor[T]().Kind() == reflect.Pointer {
		target = out
	}
	if err := json.Unmarshal(data, target); err != nil {
		return zero, fmt.Errorf("%w: cannot convert %T to %s: %v", ErrUnexpectedResponse, res, reflect.TypeFor[T](), err)
	}
	return out, nil
}
