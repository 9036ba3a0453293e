// Package assets loads models, textures and environment maps asynchronously.
//
// Every request returns a Future that resolves exactly once. Loads are bounded
// by a timeout; a load that fails or expires resolves with a *LoadError
// instead of hanging forever.
package assets

import (
	"context"
	"fmt"
	"image"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/multiscene/internal/engine/model"
	"github.com/Faultbox/multiscene/internal/engine/texture"
	"github.com/Faultbox/multiscene/internal/logger"
)

// Loader resolves paths under a base directory to decoded assets.
type Loader struct {
	baseDir string
	timeout time.Duration
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	files *Cache[[]byte]

	mu     sync.Mutex
	models map[string]*Future[*model.Model]

	// decodeModel is swapped in tests.
	decodeModel func(path string) (*model.Model, error)
}

// NewLoader creates a loader rooted at baseDir. A zero timeout disables the deadline.
func NewLoader(baseDir string, timeout time.Duration) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		baseDir: baseDir,
		timeout: timeout,
		log:     logger.Named("assets"),
		ctx:     ctx,
		cancel:  cancel,
		files:   NewCache[[]byte](),
		models:  make(map[string]*Future[*model.Model]),
	}
	l.decodeModel = l.readModel
	return l
}

// Close cancels every pending load. Pending futures resolve with a LoadError.
func (l *Loader) Close() {
	l.cancel()
	l.files.Clear()
}

// Resolve returns the filesystem path of an asset path.
func (l *Loader) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.baseDir, filepath.FromSlash(path))
}

// LoadModel decodes a glTF/GLB model and its base colour textures.
// Concurrent and repeated requests for the same path share one future, so
// the load runs detached from ctx's cancellation and stops only on the
// loader's own timeout or Close. Callers bound their wait with Future.Wait.
func (l *Loader) LoadModel(ctx context.Context, path string) *Future[*model.Model] {
	l.mu.Lock()
	if f, ok := l.models[path]; ok {
		l.mu.Unlock()
		return f
	}
	f := load(l, context.WithoutCancel(ctx), KindModel, path, func(ctx context.Context) (*model.Model, error) {
		m, err := l.decodeModel(path)
		if err != nil {
			return nil, err
		}
		l.decodeImages(ctx, path, m)
		return m, nil
	})
	l.models[path] = f
	l.mu.Unlock()

	// Failed loads are not cached so a later request can retry.
	f.Then(func(_ *model.Model, err error) {
		if err == nil {
			return
		}
		l.mu.Lock()
		if l.models[path] == f {
			delete(l.models, path)
		}
		l.mu.Unlock()
	})
	return f
}

// readModel decodes GLB files from the file cache. Text glTF goes through
// the filesystem so that its external buffers resolve.
func (l *Loader) readModel(p string) (*model.Model, error) {
	if strings.EqualFold(filepath.Ext(p), ".glb") {
		data, err := l.ReadFile(p)
		if err != nil {
			return nil, err
		}
		return model.DecodeGLB(p, data)
	}
	return model.LoadGLTF(l.Resolve(p))
}

// decodeImages fills in the pixels of every model image. External images
// load through LoadTexture relative to the model file. An image that fails
// to decode is logged and left nil; its parts draw untextured.
func (l *Loader) decodeImages(ctx context.Context, modelPath string, m *model.Model) {
	for _, img := range m.Images {
		var err error
		switch {
		case img.External():
			texPath := img.URI
			if !filepath.IsAbs(texPath) {
				texPath = path.Join(path.Dir(filepath.ToSlash(modelPath)), img.URI)
			}
			img.Pixels, err = l.LoadTexture(ctx, texPath).Wait(ctx)
		case len(img.Data) > 0:
			img.Pixels, err = texture.Decode(img.Name, img.Data)
		default:
			continue
		}
		if err != nil {
			l.log.Warn("model texture skipped",
				zap.String("model", modelPath),
				zap.String("image", img.Name),
				zap.Error(err),
			)
		}
	}
}

// LoadTexture decodes a PNG, JPEG, WebP or TGA image.
func (l *Loader) LoadTexture(ctx context.Context, path string) *Future[*image.RGBA] {
	return load(l, ctx, KindTexture, path, func(context.Context) (*image.RGBA, error) {
		data, err := l.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return texture.Decode(path, data)
	})
}

// LoadEnvironment decodes an equirectangular Radiance .hdr map.
func (l *Loader) LoadEnvironment(ctx context.Context, path string) *Future[*texture.HDR] {
	return load(l, ctx, KindEnvironment, path, func(context.Context) (*texture.HDR, error) {
		data, err := l.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return texture.DecodeRGBEBytes(data)
	})
}

// ReadFile returns the raw bytes of an asset, served from cache when possible.
func (l *Loader) ReadFile(path string) ([]byte, error) {
	if data, ok := l.files.Get(path); ok {
		return data, nil
	}
	data, err := os.ReadFile(l.Resolve(path))
	if err != nil {
		return nil, err
	}
	l.files.Set(path, data)
	return data, nil
}

// Preload reads files into the cache concurrently. It returns the first failure.
func (l *Loader) Preload(ctx context.Context, paths ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := l.ReadFile(p); err != nil {
				return &LoadError{Kind: KindFile, Path: p, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}

// Stats returns file cache hit/miss counts.
func (l *Loader) Stats() (hits, misses int) {
	return l.files.Stats()
}

// load runs fn on its own goroutine and resolves the returned future with
// its result, or with a LoadError when fn fails or panics, ctx ends, the
// loader is closed or the timeout expires. fn receives the load's context
// but is not interrupted.
func load[T any](l *Loader, ctx context.Context, kind Kind, path string, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()

	go func() {
		ctx, cancel := mergeContext(ctx, l.ctx)
		defer cancel()
		if l.timeout > 0 {
			var cancelTimeout context.CancelFunc
			ctx, cancelTimeout = context.WithTimeout(ctx, l.timeout)
			defer cancelTimeout()
		}

		start := time.Now()
		results := make(chan Result[T], 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					l.log.Error("asset decoder panicked",
						zap.Stringer("kind", kind),
						zap.String("path", path),
						zap.Any("panic", r),
						zap.Stack("stack"),
					)
					results <- Result[T]{Err: fmt.Errorf("decoder panic: %v", r)}
				}
			}()
			v, err := fn(ctx)
			results <- Result[T]{Value: v, Err: err}
		}()

		var zero T
		select {
		case r := <-results:
			if r.Err != nil {
				err := &LoadError{Kind: kind, Path: path, Err: r.Err}
				l.log.Warn("asset load failed", zap.Stringer("kind", kind), zap.String("path", path), zap.Error(r.Err))
				f.resolve(zero, err)
				return
			}
			l.log.Debug("asset loaded",
				zap.Stringer("kind", kind),
				zap.String("path", path),
				zap.Duration("took", time.Since(start)),
			)
			f.resolve(r.Value, nil)
		case <-ctx.Done():
			err := &LoadError{Kind: kind, Path: path, Err: fmt.Errorf("after %v: %w", time.Since(start).Round(time.Millisecond), ctx.Err())}
			l.log.Warn("asset load abandoned", zap.Stringer("kind", kind), zap.String("path", path), zap.Error(ctx.Err()))
			f.resolve(zero, err)
		}
	}()

	return f
}

// mergeContext returns a context cancelled when either parent is.
func mergeContext(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
