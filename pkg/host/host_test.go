package host

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuxleus/directhost/pkg/config"
	"github.com/nuxleus/directhost/pkg/container"
	"github.com/nuxleus/directhost/pkg/logging"
	"github.com/nuxleus/directhost/pkg/service"
)

type clock interface{ Now() int }

type fixedClock struct{}

func (fixedClock) Now() int { return 42 }

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	h := New()
	require.NotNil(t, h.Container())
	require.NotNil(t, h.ContentTypes())
	require.NotNil(t, h.Logger())
	assert.Equal(t, config.Default(), h.Config())
	assert.Empty(t, h.RequestFilters())
	assert.Empty(t, h.ResponseFilters())

	_, ok := h.ContentTypes().Lookup(service.MIMEJSON)
	assert.True(t, ok)
}

func TestOptions(t *testing.T) {
	t.Parallel()

	c := container.New()
	ct := service.NewContentTypes()
	cfg := &config.HostConfig{ServiceName: "items", DebugMode: true}
	logger := logging.ForTest(t)

	h := New(WithContainer(c), WithContentTypes(ct), WithConfig(cfg), WithLogger(logger), WithConfig(nil))
	assert.Same(t, c, h.Container())
	assert.Same(t, ct, h.ContentTypes())
	assert.Same(t, cfg, h.Config())
	assert.Same(t, logger, h.Logger())
}

func TestFiltersKeepOrder(t *testing.T) {
	t.Parallel()

	var calls []int
	h := New()
	h.AddRequestFilter(
		func(http.ResponseWriter, *http.Request, any) error { calls = append(calls, 1); return nil },
		func(http.ResponseWriter, *http.Request, any) error { calls = append(calls, 2); return nil },
	)
	h.AddResponseFilter(func(http.ResponseWriter, *http.Request, any) error { calls = append(calls, 3); return nil })

	for _, f := range h.RequestFilters() {
		require.NoError(t, f(nil, nil, nil))
	}
	for _, f := range h.ResponseFilters() {
		require.NoError(t, f(nil, nil, nil))
	}
	assert.Equal(t, []int{1, 2, 3}, calls)

	// Snapshots do not alias the host's lists.
	snapshot := h.RequestFilters()
	h.AddRequestFilter(func(http.ResponseWriter, *http.Request, any) error { return nil })
	assert.Len(t, snapshot, 2)
	assert.Len(t, h.RequestFilters(), 3)
}

func TestSetConfig(t *testing.T) {
	t.Parallel()

	h := New()
	cfg := &config.HostConfig{ServiceName: "replaced"}
	h.SetConfig(cfg)
	assert.Same(t, cfg, h.Config())

	h.SetConfig(nil)
	assert.Equal(t, config.DefaultServiceName, h.Config().ServiceName)
}

func TestTryResolve(t *testing.T) {
	t.Parallel()

	h := New()
	assert.Nil(t, TryResolve[clock](h))

	container.Register[clock](h.Container(), fixedClock{})
	got := TryResolve[clock](h)
	require.NotNil(t, got)
	assert.Equal(t, 42, got.Now())
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	h := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.AddRequestFilter(func(http.ResponseWriter, *http.Request, any) error { return nil })
		}()
		go func() {
			defer wg.Done()
			_ = h.RequestFilters()
			_ = h.Config()
		}()
	}
	wg.Wait()
	assert.Len(t, h.RequestFilters(), 20)
}
