package projects

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellojohn-projects/internal/cache"
	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-projects/internal/security/secretbox"
)

// LoadFunc carga la vista plana de un proyecto desde el store.
type LoadFunc func(ctx context.Context, projectID string) (*ProjectView, error)

// CachedReader sirve vistas planas desde un cache.Client. Los misses
// concurrentes para el mismo proyecto comparten una sola carga.
// Los errores del cache se loguean y nunca son fatales.
//
// Las vistas llevan client secrets y password SMTP: con sealer configurado
// el payload se guarda sellado; sin sealer, las vistas con secretos no se
// cachean.
type CachedReader struct {
	cache  cache.Client
	ttl    time.Duration
	load   LoadFunc
	sealer *secretbox.Box
	group  singleflight.Group
}

// CacheOption configura un CachedReader.
type CacheOption func(*CachedReader)

// SealWith sella el payload cacheado con box.
func SealWith(box *secretbox.Box) CacheOption {
	return func(r *CachedReader) { r.sealer = box }
}

// NewCachedReader crea un CachedReader. ttl 0 = sin expiración.
func NewCachedReader(c cache.Client, ttl time.Duration, load LoadFunc, opts ...CacheOption) *CachedReader {
	r := &CachedReader{cache: c, ttl: ttl, load: load}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func viewKey(projectID string) string { return "project_view:" + projectID }

// Get retorna la vista desde cache o la carga (y la cachea). La carga
// compartida no depende del ctx de quien la inició: cada caller espera con
// su propio ctx.
func (r *CachedReader) Get(ctx context.Context, projectID string) (*ProjectView, error) {
	if v, ok := r.lookup(ctx, projectID); ok {
		return v, nil
	}

	ch := r.group.DoChan(projectID, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		v, err := r.load(lctx, projectID)
		if err != nil {
			return nil, err
		}
		r.Put(lctx, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ProjectView), nil
	}
}

func (r *CachedReader) lookup(ctx context.Context, projectID string) (*ProjectView, bool) {
	log := logger.From(ctx).With(logger.Component("projects.cache"), logger.ProjectID(projectID))

	raw, err := r.cache.Get(ctx, viewKey(projectID))
	if err != nil {
		if !cache.IsNotFound(err) {
			log.Warn("view cache get failed", logger.Err(err))
		}
		return nil, false
	}

	plain, err := r.sealer.Open(raw)
	if err == nil {
		var v ProjectView
		if err = json.Unmarshal([]byte(plain), &v); err == nil {
			return &v, true
		}
	}
	log.Warn("discarding unreadable cached view", logger.Err(err))
	_ = r.cache.Delete(ctx, viewKey(projectID))
	return nil, false
}

// Put guarda la vista en cache.
func (r *CachedReader) Put(ctx context.Context, v *ProjectView) {
	log := logger.From(ctx).With(logger.Component("projects.cache"), logger.ProjectID(v.ID))

	if !r.sealer.Enabled() && carriesSecrets(v) {
		log.Debug("view with secrets not cached: no sealer configured")
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	payload, err := r.sealer.Seal(string(b))
	if err != nil {
		log.Warn("view cache seal failed", logger.Err(err))
		return
	}
	if err := r.cache.Set(ctx, viewKey(v.ID), payload, r.ttl); err != nil {
		log.Warn("view cache set failed", logger.Err(err))
	}
}

// Invalidate elimina la vista cacheada de un proyecto.
func (r *CachedReader) Invalidate(ctx context.Context, projectID string) error {
	return r.cache.Delete(ctx, viewKey(projectID))
}

func carriesSecrets(v *ProjectView) bool {
	if v.Config.EmailConfig.Password != nil {
		return true
	}
	for _, p := range v.Config.OAuthProviders {
		if p.ClientSecret != nil {
			return true
		}
	}
	return false
}
