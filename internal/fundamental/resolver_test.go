package fundamental

import (
	"context"
	"errors"
	"testing"
)

type fakeSearcher struct {
	hits  map[string][]searchHit
	err   error
	calls int
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]searchHit, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[query], nil
}

func TestResolveKnownTickerSkipsSearch(t *testing.T) {
	s := &fakeSearcher{}
	r := NewResolver(s)

	id, err := r.Resolve(context.Background(), "btc")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "bitcoin" {
		t.Errorf("expected bitcoin, got %s", id)
	}
	if s.calls != 0 {
		t.Errorf("known ticker should not hit search, got %d calls", s.calls)
	}
}

func TestResolveUnknownTickerSearchesOnce(t *testing.T) {
	s := &fakeSearcher{hits: map[string][]searchHit{
		"ZETA": {
			{ID: "zeta-markets", Symbol: "ZEX"},
			{ID: "zetachain", Symbol: "ZETA"},
		},
	}}
	r := NewResolver(s)

	for i := 0; i < 3; i++ {
		id, err := r.Resolve(context.Background(), "ZETA")
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if id != "zetachain" {
			t.Errorf("expected exact symbol match zetachain, got %s", id)
		}
	}
	if s.calls != 1 {
		t.Errorf("expected 1 memoized search, got %d", s.calls)
	}
}

func TestResolveMissIsMemoized(t *testing.T) {
	s := &fakeSearcher{hits: map[string][]searchHit{
		"NOPE": {{ID: "something-else", Symbol: "ELSE"}},
	}}
	r := NewResolver(s)

	for i := 0; i < 2; i++ {
		_, err := r.Resolve(context.Background(), "NOPE")
		if !errors.Is(err, ErrUnresolvedTicker) {
			t.Fatalf("expected ErrUnresolvedTicker, got %v", err)
		}
	}
	if s.calls != 1 {
		t.Errorf("miss should be memoized after 1 search, got %d", s.calls)
	}
}

func TestResolveSearchFailureNotMemoized(t *testing.T) {
	s := &fakeSearcher{err: errors.New("coingecko down")}
	r := NewResolver(s)

	if _, err := r.Resolve(context.Background(), "ZETA"); err == nil {
		t.Fatal("expected search error")
	} else if errors.Is(err, ErrUnresolvedTicker) {
		t.Fatalf("transport failure must not look like a miss: %v", err)
	}

	// Upstream recovers; a later resolve should retry the search.
	s.err = nil
	s.hits = map[string][]searchHit{"ZETA": {{ID: "zetachain", Symbol: "zeta"}}}
	id, err := r.Resolve(context.Background(), "ZETA")
	if err != nil {
		t.Fatalf("resolve after recovery: %v", err)
	}
	if id != "zetachain" {
		t.Errorf("expected zetachain, got %s", id)
	}
	if s.calls != 2 {
		t.Errorf("expected retry after failure, got %d calls", s.calls)
	}
}

func TestResolveEmptyTicker(t *testing.T) {
	r := NewResolver(&fakeSearcher{})
	if _, err := r.Resolve(context.Background(), "  "); !errors.Is(err, ErrUnresolvedTicker) {
		t.Fatalf("expected ErrUnresolvedTicker for blank input, got %v", err)
	}
}
