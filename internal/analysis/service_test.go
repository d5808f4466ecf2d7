package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finscore/internal/contracts"
	"github.com/wonny/finscore/pkg/logger"
)

// memoryCache is a JSON round-tripping in-memory ResultCache
type memoryCache struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Enabled() bool { return true }

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.ttls[key] = ttl
	return nil
}

// memoryStore records saved runs
type memoryStore struct {
	runs   []string
	hashes []string
	err    error
}

func (s *memoryStore) SaveRun(_ context.Context, result *contracts.CompositeAnalysisResult, bundleHash string) error {
	if s.err != nil {
		return s.err
	}
	s.runs = append(s.runs, result.ID)
	s.hashes = append(s.hashes, bundleHash)
	return nil
}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	engine, err := newTestEngine(standardStubs(k(75), k(68), k(82))...)
	require.NoError(t, err)
	return NewService(engine, logger.NewNop(), opts...)
}

func TestService_CachesIdenticalRequests(t *testing.T) {
	cache := newMemoryCache()
	store := &memoryStore{}
	rec := newCountingRecorder()
	svc := newTestService(t, WithCache(cache, 5*time.Minute), WithRunStore(store), WithServiceRecorder(rec))

	bundle := &contracts.RawMetricsBundle{Symbol: "acme", Price: k(100)}

	first, err := svc.Analyze(context.Background(), bundle, contracts.ModeStandard)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), bundle, contracts.ModeStandard)
	require.NoError(t, err)

	assert.Equal(t, "run-1", first.ID)
	assert.Equal(t, "run-1", second.ID, "served from cache")
	assert.InDelta(t, 74.3, second.OverallScore.OrElse(-1), 1e-9)
	assert.Equal(t, first.Recommendation, second.Recommendation)

	require.Len(t, cache.data, 1)
	for key, ttl := range cache.ttls {
		assert.Contains(t, key, "analysis:ACME:standard:")
		assert.Equal(t, 5*time.Minute, ttl)
	}

	assert.Equal(t, []string{"run-1"}, store.runs)
	assert.Len(t, store.hashes[0], 64)
	assert.Equal(t, 1, rec.cache[false])
	assert.Equal(t, 1, rec.cache[true])
}

func TestService_ModeChangesKey(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(t, WithCache(cache, time.Minute))
	bundle := &contracts.RawMetricsBundle{Symbol: "ACME"}

	_, err := svc.Analyze(context.Background(), bundle, contracts.ModeStandard)
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), bundle, contracts.ModeComprehensive)
	require.NoError(t, err)

	assert.Len(t, cache.data, 2)
}

func TestService_CacheFailureFallsThrough(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	rec := newCountingRecorder()
	svc := newTestService(t, WithCache(cache, time.Minute), WithServiceRecorder(rec))

	res, err := svc.Analyze(context.Background(), &contracts.RawMetricsBundle{Symbol: "ACME"}, contracts.ModeStandard)
	require.NoError(t, err)
	assert.Equal(t, contracts.Buy, res.Recommendation)
	assert.Equal(t, 1, rec.errors["cache"])
}

func TestService_StoreFailureDoesNotFail(t *testing.T) {
	store := &memoryStore{err: errors.New("db down")}
	rec := newCountingRecorder()
	svc := newTestService(t, WithRunStore(store), WithServiceRecorder(rec))

	res, err := svc.Analyze(context.Background(), &contracts.RawMetricsBundle{Symbol: "ACME"}, contracts.ModeStandard)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 1, rec.errors["audit"])
}

func TestService_Errors(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Analyze(context.Background(), nil, contracts.ModeStandard)
	assert.ErrorIs(t, err, ErrNilBundle)

	_, err = svc.Analyze(context.Background(), &contracts.RawMetricsBundle{Symbol: "ACME"}, "fast")
	assert.ErrorIs(t, err, contracts.ErrUnknownMode)
}
