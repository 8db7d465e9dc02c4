package registry

import (
	"sync"
	"testing"

	"github.com/gorustyt/dynanavmesh/errs"
	"github.com/gorustyt/dynanavmesh/tilepipeline"
	"github.com/gorustyt/dynanavmesh/voxel"
)

func samplePayload(x, y int) *tilepipeline.Payload {
	return &tilepipeline.Payload{TileX: x, TileY: y, BMin: voxel.Vec3{}, BMax: voxel.Vec3{}, Cs: 1, Ch: 1}
}

func TestRegistry_InsertLookupRemove(t *testing.T) {
	r := New(nil)
	ref, err := r.Insert(samplePayload(1, 2))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	p, ok := r.Lookup(1, 2)
	if !ok || p.TileX != 1 {
		t.Fatal("Lookup failed to find inserted tile")
	}
	if err := r.Remove(ref); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := r.Lookup(1, 2); ok {
		t.Fatal("tile still visible after Remove")
	}
}

func TestRegistry_RemoveUnknownRefIsFatal(t *testing.T) {
	r := New(nil)
	err := r.Remove(TileRef{})
	if err == nil {
		t.Fatal("expected an error removing an unregistered ref")
	}
	if !errs.Fatal(err) {
		t.Fatal("registry remove failure must be reported as fatal")
	}
}

func TestRegistry_ReplaceIsAtomicUnderConcurrentLookup(t *testing.T) {
	r := New(nil)
	if _, err := r.Replace(0, 0, samplePayload(0, 0)); err != nil {
		t.Fatalf("initial Replace: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if _, ok := r.Lookup(0, 0); !ok {
				t.Error("Lookup observed a coordinate with no tile during concurrent replace")
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		if _, err := r.Replace(0, 0, samplePayload(0, 0)); err != nil {
			t.Fatalf("Replace: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestRegistry_OnReplaceHookFires(t *testing.T) {
	var got TileRef
	calls := 0
	r := New(func(x, y int, ref TileRef) {
		calls++
		got = ref
	})
	ref, err := r.Replace(2, 2, samplePayload(2, 2))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected onReplace to fire once, fired %d times", calls)
	}
	if got != ref {
		t.Fatal("onReplace hook received the wrong ref")
	}
}
