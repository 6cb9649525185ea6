package dp_block

import "testing"

func TestMatrixGetSetUpperTriangleOnly(t *testing.T) {
	m := NewMatrix[float64](5)
	m.Set(1, 3, 42.0)
	if got := m.Get(1, 3); got != 42.0 {
		t.Errorf("Get(1,3) = %v, want 42.0", got)
	}
}

func TestMatrixGetBelowDiagonalPanics(t *testing.T) {
	m := NewMatrix[float64](5)
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic reading below the diagonal")
		}
	}()
	m.Get(3, 1)
}

func TestSubsquareViewRejectsOutOfRange(t *testing.T) {
	m := NewMatrix[float64](5)
	view := m.Subsquare(1, 3)
	view.Set(2, 3, 7)
	if got := view.Get(2, 3); got != 7 {
		t.Errorf("Get(2,3) = %v, want 7", got)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic reading outside subsquare bounds")
		}
	}()
	view.Get(0, 3)
}

func TestBlockAllocatesCoreMatrices(t *testing.T) {
	b := NewBlock[float64](10)
	if b.Q == nil || b.QB == nil || b.QM == nil || b.QMS == nil {
		t.Fatalf("expected core matrices to be allocated")
	}
}

func TestCacheRoundTripThroughRecord(t *testing.T) {
	m := NewMatrix[float64](4)
	m.Set(0, 3, 1.5)
	m.Set(1, 2, 2.5)
	record := ToRecord(m, Upper)

	m2 := NewMatrix[float64](4)
	ApplyRecord(m2, record)
	if m2.Get(0, 3) != 1.5 || m2.Get(1, 2) != 2.5 {
		t.Errorf("ApplyRecord did not restore matrix entries")
	}
}

func TestCachePutGetWithUnboundedBudget(t *testing.T) {
	cache := NewCache[float64](0)
	k1 := KeyFromSequence([]byte("AAAA"))
	k2 := KeyFromSequence([]byte("CCCC"))

	cache.Put(k1, &CacheRecord[float64]{Tag: Upper, N: 1, Data: []float64{1}})
	cache.Put(k2, &CacheRecord[float64]{Tag: Upper, N: 1, Data: []float64{2}})

	if _, ok := cache.Get(k1); !ok {
		t.Errorf("expected k1 to be present")
	}
	if _, ok := cache.Get(k2); !ok {
		t.Errorf("expected k2 to be present")
	}
}

func TestCachePromotesUpperToFullButNotBack(t *testing.T) {
	cache := NewCache[float64](0)
	key := KeyFromSequence([]byte("GGGG"))

	cache.Put(key, &CacheRecord[float64]{Tag: Upper, N: 1, Data: []float64{1}})
	cache.Put(key, &CacheRecord[float64]{Tag: Full, N: 1, Data: []float64{2}})

	got, ok := cache.Get(key)
	if !ok || got.Tag != Full {
		t.Fatalf("expected promotion to Full, got %+v", got)
	}

	cache.Put(key, &CacheRecord[float64]{Tag: Upper, N: 1, Data: []float64{3}})
	got, _ = cache.Get(key)
	if got.Tag != Full {
		t.Errorf("a Full record must not be demoted by a later Upper write")
	}
}

func TestCacheEvictsLeastRecentlyUsedUnderByteBudget(t *testing.T) {
	cache := NewCache[float64](8) // room for exactly one 8-byte record
	k1 := KeyFromSequence([]byte("AAAA"))
	k2 := KeyFromSequence([]byte("CCCC"))

	cache.Put(k1, &CacheRecord[float64]{Tag: Upper, N: 1, Data: []float64{1}})
	cache.Put(k2, &CacheRecord[float64]{Tag: Upper, N: 1, Data: []float64{2}})

	if _, ok := cache.Get(k1); ok {
		t.Errorf("k1 should have been evicted under the byte budget")
	}
	if _, ok := cache.Get(k2); !ok {
		t.Errorf("k2 should still be present")
	}
}
