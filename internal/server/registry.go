package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nainya/recquery/internal/logger"
	"github.com/nainya/recquery/internal/metrics"
	"github.com/nainya/recquery/pkg/dataset"
)

// ErrDatasetNotFound is returned for unknown dataset names.
var ErrDatasetNotFound = errors.New("server: dataset not found")

// maxParallelLoads bounds concurrent flat-file loads.
const maxParallelLoads = 4

// Registry holds named datasets. Datasets are read-only once registered;
// Put replaces a dataset atomically.
type Registry struct {
	mu   sync.RWMutex
	sets map[string]*dataset.Dataset

	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewRegistry creates an empty registry. log and m may be nil.
func NewRegistry(log *logger.Logger, m *metrics.Metrics) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		sets:    make(map[string]*dataset.Dataset),
		log:     log,
		metrics: m,
	}
}

// Put registers ds under name. The gauges are updated under the lock so the
// last writer always publishes the current count.
func (r *Registry) Put(name string, ds *dataset.Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sets[name] = ds
	if r.metrics != nil {
		r.metrics.SetDataset(name, ds.Len())
		r.metrics.SetDatasetCount(len(r.sets))
	}
}

// Get returns the dataset registered under name.
func (r *Registry) Get(name string) (*dataset.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.sets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDatasetNotFound, name)
	}
	return ds, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered datasets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sets)
}

// LoadFiles loads every name → path entry in parallel and registers the
// results. The first failure cancels the remaining loads.
func (r *Registry) LoadFiles(ctx context.Context, files map[string]string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)

	for name, path := range files {
		name, path := name, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			ds, err := dataset.Load(path)
			if err != nil {
				return fmt.Errorf("dataset %q: %w", name, err)
			}
			r.Put(name, ds)
			r.log.LogDatasetLoaded(name, path, ds.Len(), time.Since(start))
			return nil
		})
	}
	return g.Wait()
}
