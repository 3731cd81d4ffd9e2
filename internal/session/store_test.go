package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/szaher/cxassist/internal/llm"
)

func TestGetOrCreate_SameHandle(t *testing.T) {
	store := NewStore()

	a := store.GetOrCreate("s1")
	b := store.GetOrCreate("s1")
	if a != b {
		t.Fatal("GetOrCreate returned different handles for the same id")
	}
	if a.ID() != "s1" {
		t.Errorf("ID() = %q, want s1", a.ID())
	}

	a.Lock()
	a.Append(llm.Message{Role: llm.RoleUser, Content: "hello"})
	a.Unlock()

	b.Lock()
	defer b.Unlock()
	if b.Len() != 1 {
		t.Errorf("appends not visible across checkouts: Len = %d, want 1", b.Len())
	}
}

func TestGetOrCreate_IsolatedSessions(t *testing.T) {
	store := NewStore()

	s1 := store.GetOrCreate("s1")
	s1.Lock()
	s1.Append(llm.Message{Role: llm.RoleUser, Content: "only in s1"})
	s1.Unlock()

	s2 := store.GetOrCreate("s2")
	s2.Lock()
	defer s2.Unlock()
	if s2.Len() != 0 {
		t.Errorf("new session has %d turns, want 0", s2.Len())
	}
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("s1")

	sess.Lock()
	defer sess.Unlock()
	sess.Append(llm.Message{Role: llm.RoleUser, Content: "original"})

	snap := sess.Snapshot()
	snap[0].Content = "mutated"

	if sess.Snapshot()[0].Content != "original" {
		t.Error("mutating a snapshot changed stored history")
	}
}

func TestClear(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("s1")

	if !store.Clear("s1") {
		t.Error("Clear(s1) = false, want true for an existing session")
	}
	if store.Clear("s1") {
		t.Error("second Clear(s1) = true, want false")
	}
	if store.Clear("never-existed") {
		t.Error("Clear of unknown id = true, want false")
	}

	// A cleared id starts fresh on next use.
	sess := store.GetOrCreate("s1")
	sess.Lock()
	defer sess.Unlock()
	if sess.Len() != 0 {
		t.Errorf("recreated session has %d turns, want 0", sess.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	store := NewStore(WithMaxSessions(2))

	store.GetOrCreate("a")
	store.GetOrCreate("b")
	store.GetOrCreate("a") // refresh a; b is now least recently used
	store.GetOrCreate("c") // evicts b

	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	if store.Clear("b") {
		t.Error("b survived eviction")
	}
	if !store.Clear("a") {
		t.Error("a was evicted, want it retained as recently used")
	}
	if !store.Clear("c") {
		t.Error("c missing")
	}
}

func TestSweep(t *testing.T) {
	store := NewStore(WithTTL(time.Minute))

	stale := store.GetOrCreate("stale")
	store.GetOrCreate("fresh")

	store.mu.Lock()
	stale.lastActive = time.Now().Add(-2 * time.Minute)
	store.mu.Unlock()

	if n := store.Sweep(); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	if store.Clear("stale") {
		t.Error("stale session survived the sweep")
	}
	if !store.Clear("fresh") {
		t.Error("fresh session was swept")
	}
}

func TestSweep_NoTTLIsNoop(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("s1")
	if n := store.Sweep(); n != 0 {
		t.Errorf("Sweep = %d, want 0 without a TTL", n)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("s%d", i%4)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sess := store.GetOrCreate(id)
				sess.Lock()
				sess.Append(llm.Message{Role: llm.RoleUser, Content: "turn"})
				sess.Unlock()
			}
		}()
	}
	wg.Wait()

	if store.Len() != 4 {
		t.Errorf("Len = %d, want 4", store.Len())
	}
	total := 0
	for i := 0; i < 4; i++ {
		sess := store.GetOrCreate(fmt.Sprintf("s%d", i))
		sess.Lock()
		total += sess.Len()
		sess.Unlock()
	}
	if total != 400 {
		t.Errorf("total turns = %d, want 400", total)
	}
}
