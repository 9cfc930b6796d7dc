package projects_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-projects/internal/cache"
	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
	"github.com/dropDatabas3/hellojohn-projects/internal/security/secretbox"
)

func TestCachedReader_CoalescesMisses(t *testing.T) {
	ctx := context.Background()
	var loads atomic.Int32
	release := make(chan struct{})

	r := projects.NewCachedReader(cache.NewMemory("t"), time.Minute, func(ctx context.Context, id string) (*projects.ProjectView, error) {
		loads.Add(1)
		<-release
		return &projects.ProjectView{ID: id, DisplayName: "Acme"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.Get(ctx, "p1")
			assert.NoError(t, err)
			assert.Equal(t, "Acme", v.DisplayName)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, loads.Load())

	// hit: no vuelve a cargar
	_, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, loads.Load())
}

func TestCachedReader_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	var loads atomic.Int32
	r := projects.NewCachedReader(cache.NewMemory(""), 0, func(ctx context.Context, id string) (*projects.ProjectView, error) {
		loads.Add(1)
		return nil, repository.ErrNotFound
	})

	_, err := r.Get(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = r.Get(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.EqualValues(t, 2, loads.Load())
}

func TestCachedReader_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")
	var loads atomic.Int32
	r := projects.NewCachedReader(c, 0, func(ctx context.Context, id string) (*projects.ProjectView, error) {
		loads.Add(1)
		return &projects.ProjectView{ID: id}, nil
	})

	_, _ = r.Get(ctx, "p1")
	require.NoError(t, r.Invalidate(ctx, "p1"))
	_, _ = r.Get(ctx, "p1")
	assert.EqualValues(t, 2, loads.Load())
}

func TestCachedReader_UndecodableEntryIsReloaded(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")
	require.NoError(t, c.Set(ctx, "project_view:p1", "{not json", 0))

	r := projects.NewCachedReader(c, 0, func(ctx context.Context, id string) (*projects.ProjectView, error) {
		return &projects.ProjectView{ID: id, DisplayName: "fresh"}, nil
	})
	v, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v.DisplayName)
}

func TestCachedReader_CancelledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var loads atomic.Int32

	r := projects.NewCachedReader(cache.NewMemory(""), time.Minute, func(ctx context.Context, id string) (*projects.ProjectView, error) {
		loads.Add(1)
		close(started)
		select {
		case <-release:
			return &projects.ProjectView{ID: id, DisplayName: "Acme"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := r.Get(ctxA, "p1")
		errA <- err
	}()
	<-started

	type result struct {
		v   *projects.ProjectView
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := r.Get(context.Background(), "p1")
		resB <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, "Acme", b.v.DisplayName)
	assert.EqualValues(t, 1, loads.Load())
}

func testBox(t *testing.T) *secretbox.Box {
	t.Helper()
	box, err := secretbox.New("0123456789abcdef0123456789abcdef", "projects/view_cache")
	require.NoError(t, err)
	return box
}

func secretView(id string) *projects.ProjectView {
	secret, password := "s3cr3t-client", "smtp-pass"
	v := &projects.ProjectView{ID: id, DisplayName: "Acme"}
	v.Config.OAuthProviders = []projects.OAuthProviderView{{ID: "github", Type: "standard", ClientSecret: &secret}}
	v.Config.EmailConfig = projects.EmailConfigView{Type: "standard", Password: &password}
	return v
}

func TestCachedReader_SealsPayload(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")
	r := projects.NewCachedReader(c, 0, func(ctx context.Context, id string) (*projects.ProjectView, error) {
		return secretView(id), nil
	}, projects.SealWith(testBox(t)))

	v, err := r.Get(ctx, "p1")
	require.NoError(t, err)

	raw, err := c.Get(ctx, "project_view:p1")
	require.NoError(t, err)
	assert.True(t, secretbox.IsSealed(raw))
	assert.NotContains(t, raw, "s3cr3t-client")
	assert.NotContains(t, raw, "smtp-pass")

	hit, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, v, hit)
}

func TestCachedReader_SkipsSecretsWithoutSealer(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")
	var loads atomic.Int32
	r := projects.NewCachedReader(c, 0, func(ctx context.Context, id string) (*projects.ProjectView, error) {
		loads.Add(1)
		return secretView(id), nil
	})

	_, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	_, err = c.Get(ctx, "project_view:p1")
	assert.True(t, cache.IsNotFound(err))

	_, _ = r.Get(ctx, "p1")
	assert.EqualValues(t, 2, loads.Load())
}

func TestCachedReader_SealedEntryWithoutKeyIsReloaded(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("")
	sealed := projects.NewCachedReader(c, 0, func(ctx context.Context, id string) (*projects.ProjectView, error) {
		return &projects.ProjectView{ID: id, DisplayName: "sealed"}, nil
	}, projects.SealWith(testBox(t)))
	_, err := sealed.Get(ctx, "p1")
	require.NoError(t, err)

	plain := projects.NewCachedReader(c, 0, func(ctx context.Context, id string) (*projects.ProjectView, error) {
		return &projects.ProjectView{ID: id, DisplayName: "fresh"}, nil
	})
	v, err := plain.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v.DisplayName)
}
