package registry

import (
	"bytes"
	"strings"
	"testing"
)

func TestSnapshot_ExportImportRoundTrips(t *testing.T) {
	r := New(nil)
	if _, err := r.Replace(1, 1, samplePayload(1, 1)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if _, err := r.Replace(2, 2, samplePayload(2, 2)); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	var buf bytes.Buffer
	stats, err := r.ExportSnapshot(&buf)
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	if stats.Tiles != 2 {
		t.Fatalf("stats.Tiles = %d, want 2", stats.Tiles)
	}
	if stats.Bytes == 0 {
		t.Fatal("expected a nonzero byte count")
	}
	if !strings.Contains(stats.String(), "tiles") {
		t.Fatalf("expected a human-readable summary, got %q", stats.String())
	}

	r2 := New(nil)
	if err := r2.ImportSnapshot(&buf); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if _, ok := r2.Lookup(1, 1); !ok {
		t.Fatal("expected tile (1,1) to be restored")
	}
	if _, ok := r2.Lookup(2, 2); !ok {
		t.Fatal("expected tile (2,2) to be restored")
	}
}
