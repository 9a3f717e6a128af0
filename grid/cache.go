package grid

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Store caches built datasets keyed by (canonical source identity,
// tolerance). Entries never expire; they are invalidated only by process
// restart or an explicit Clear. Concurrent loads of the same key are
// collapsed into a single parse via singleflight, so a burst of identical
// requests costs one build.
type Store struct {
	cache *gocache.Cache
	group singleflight.Group
	loads atomic.Int64

	// buildFile and buildBytes are swapped out by tests to observe and fail
	// builds.
	buildFile  func(source string, tolerance float64) (*Dataset, error)
	buildBytes func(name string, data []byte, tolerance float64) (*Dataset, error)
}

// NewStore creates an empty dataset store.
func NewStore() *Store {
	return &Store{
		cache:      gocache.New(gocache.NoExpiration, 0),
		buildFile:  buildDataset,
		buildBytes: buildDatasetBytes,
	}
}

// DefaultStore backs the package-level Load.
var DefaultStore = NewStore()

// Load returns the dataset for a source file at the given simplification
// tolerance, building it on first request and serving the cached value
// afterwards.
func Load(source string, tolerance float64) (*Dataset, error) {
	return DefaultStore.Load(source, tolerance)
}

// Load builds or returns the cached dataset for (source, tolerance).
func (s *Store) Load(source string, tolerance float64) (*Dataset, error) {
	canonical := canonicalSource(source)
	return s.load(cacheKey(canonical, tolerance), func() (*Dataset, error) {
		return s.buildFile(canonical, tolerance)
	})
}

// LoadBytes builds or returns the cached dataset for an uploaded source.
// The upload's name stands in for the path as cache identity.
func (s *Store) LoadBytes(name string, data []byte, tolerance float64) (*Dataset, error) {
	return s.load(cacheKey("upload:"+name, tolerance), func() (*Dataset, error) {
		return s.buildBytes(name, data, tolerance)
	})
}

func (s *Store) load(key string, build func() (*Dataset, error)) (*Dataset, error) {
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*Dataset), nil
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		// Double-check: a concurrent flight may have populated the cache
		// between the Get above and acquiring the flight.
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
		s.loads.Add(1)
		ds, err := build()
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, ds, gocache.NoExpiration)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Dataset), nil
}

// Loads reports how many builds actually ran, i.e. cache misses. Cache hits
// are observable as Load calls that leave this counter unchanged.
func (s *Store) Loads() int64 {
	return s.loads.Load()
}

// Clear drops every cached dataset.
func (s *Store) Clear() {
	s.cache.Flush()
}

// canonicalSource normalizes a path so differing spellings of the same file
// share one cache entry.
func canonicalSource(source string) string {
	abs, err := filepath.Abs(source)
	if err != nil {
		return filepath.Clean(source)
	}
	return abs
}

func cacheKey(source string, tolerance float64) string {
	return fmt.Sprintf("%s|%g", source, tolerance)
}
