package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hwocr/pkg/models"
)

func sampleResult(text string) *models.ExtractionResult {
	return &models.ExtractionResult{
		Primary:      models.ExtractionCandidate{Text: text, Language: "english", Confidence: 90, HasText: true, WordCount: 1},
		CombinedText: text,
		ContentType:  "linguistic",
		QualityTier:  "high",
		Suggestions:  []string{},
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key([]byte("same bytes"))
	b := Key([]byte("same bytes"))
	c := Key([]byte("other bytes"))

	if a != b {
		t.Error("identical bytes must hash identically")
	}
	if a == c {
		t.Error("different bytes must hash differently")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	cache := New(NewMemory(16, 0))

	var computations int32
	compute := func(context.Context) (*models.ExtractionResult, error) {
		atomic.AddInt32(&computations, 1)
		time.Sleep(50 * time.Millisecond)
		return sampleResult("hello"), nil
	}

	const callers = 8
	results := make([]*models.ExtractionResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := cache.GetOrCompute(context.Background(), "k1", compute)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&computations); got != 1 {
		t.Errorf("expected exactly 1 computation, got %d", got)
	}
	for i, res := range results {
		if res == nil || res.CombinedText != "hello" {
			t.Errorf("caller %d received wrong result: %+v", i, res)
		}
	}
}

func TestGetOrComputeCacheHit(t *testing.T) {
	cache := New(NewMemory(16, 0))

	calls := 0
	compute := func(context.Context) (*models.ExtractionResult, error) {
		calls++
		return sampleResult("cached"), nil
	}

	for i := 0; i < 3; i++ {
		if _, err := cache.GetOrCompute(context.Background(), "k2", compute); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 computation across sequential calls, got %d", calls)
	}
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	cache := New(NewMemory(16, 0))

	calls := 0
	compute := func(context.Context) (*models.ExtractionResult, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return sampleResult("recovered"), nil
	}

	if _, err := cache.GetOrCompute(context.Background(), "k3", compute); err == nil {
		t.Fatal("expected first call to fail")
	}
	res, err := cache.GetOrCompute(context.Background(), "k3", compute)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if res.CombinedText != "recovered" {
		t.Errorf("got %q, want recovered", res.CombinedText)
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*models.ExtractionResult, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Set(context.Context, string, *models.ExtractionResult) error {
	return errors.New("store down")
}

func TestGetOrComputeStoreFailureIsAdvisory(t *testing.T) {
	cache := New(failingStore{})

	res, err := cache.GetOrCompute(context.Background(), "k4", func(context.Context) (*models.ExtractionResult, error) {
		return sampleResult("still works"), nil
	})
	if err != nil {
		t.Fatalf("store failure must not fail the request: %v", err)
	}
	if res.CombinedText != "still works" {
		t.Errorf("got %q", res.CombinedText)
	}
}

func TestGetOrComputeSurvivesCallerCancellation(t *testing.T) {
	cache := New(NewMemory(16, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := cache.GetOrCompute(ctx, "k5", func(computeCtx context.Context) (*models.ExtractionResult, error) {
		if computeCtx.Err() != nil {
			return nil, computeCtx.Err()
		}
		return sampleResult("finished"), nil
	})
	if err != nil {
		t.Fatalf("computation must run detached from caller cancellation: %v", err)
	}
	if res.CombinedText != "finished" {
		t.Errorf("got %q", res.CombinedText)
	}
}

func TestMemoryTTL(t *testing.T) {
	store := NewMemory(16, time.Minute)
	current := time.Unix(1000, 0)
	store.now = func() time.Time { return current }

	if err := store.Set(context.Background(), "k", sampleResult("x")); err != nil {
		t.Fatal(err)
	}

	if _, found, _ := store.Get(context.Background(), "k"); !found {
		t.Fatal("expected fresh entry to be found")
	}

	current = current.Add(2 * time.Minute)
	if _, found, _ := store.Get(context.Background(), "k"); found {
		t.Error("expected expired entry to be dropped")
	}
	if store.Len() != 0 {
		t.Errorf("expired entry still resident, len=%d", store.Len())
	}
}

func TestMemoryEviction(t *testing.T) {
	store := NewMemory(3, 0)
	current := time.Unix(1000, 0)
	store.now = func() time.Time { return current }

	for i := 0; i < 4; i++ {
		current = current.Add(time.Second)
		key := fmt.Sprintf("k%d", i)
		if err := store.Set(context.Background(), key, sampleResult(key)); err != nil {
			t.Fatal(err)
		}
	}

	if store.Len() != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", store.Len())
	}
	if _, found, _ := store.Get(context.Background(), "k0"); found {
		t.Error("oldest entry should have been evicted")
	}
	if _, found, _ := store.Get(context.Background(), "k3"); !found {
		t.Error("newest entry should survive eviction")
	}
}
