// Snapshot export/import is a zstd-compressed dump of every tile
// payload currently in the registry, distinct from the uncompressed,
// bit-exact wire format a single Payload is serialized to for
// addTile-style consumption. Ported from the encode/decode shape of
// voxelcraft.ai/internal/persistence/snapshot.Snapshot, which writes a
// zstd-framed stream of per-entity records.
package registry

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	"github.com/gorustyt/dynanavmesh/tilepipeline"
)

type snapshotEntry struct {
	TileX, TileY int
	Payload      tilepipeline.Payload
}

// SnapshotStats summarizes a completed export, sized for an operator
// log line rather than machine consumption.
type SnapshotStats struct {
	Tiles int
	Bytes int64
}

func (s SnapshotStats) String() string {
	return fmt.Sprintf("%d tiles, %s", s.Tiles, humanize.Bytes(uint64(s.Bytes)))
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// ExportSnapshot writes every currently registered tile payload to w
// as a zstd-compressed gob stream.
func (r *Registry) ExportSnapshot(w io.Writer) (SnapshotStats, error) {
	cw := &countingWriter{w: w}
	enc, err := zstd.NewWriter(cw, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return SnapshotStats{}, fmt.Errorf("registry: open zstd writer: %w", err)
	}

	bw := bufio.NewWriter(enc)
	gobEnc := gob.NewEncoder(bw)

	r.mu.RLock()
	entries := make([]snapshotEntry, 0, len(r.byCoord))
	for coord, ref := range r.byCoord {
		payload, ok := r.byRef[ref]
		if !ok {
			continue
		}
		entries = append(entries, snapshotEntry{TileX: coord.x, TileY: coord.y, Payload: *payload})
	}
	r.mu.RUnlock()

	if err := gobEnc.Encode(entries); err != nil {
		return SnapshotStats{}, fmt.Errorf("registry: encode snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return SnapshotStats{}, fmt.Errorf("registry: flush snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return SnapshotStats{}, fmt.Errorf("registry: close zstd writer: %w", err)
	}
	return SnapshotStats{Tiles: len(entries), Bytes: cw.n}, nil
}

// ImportSnapshot replaces every tile the stream names via the normal
// atomic Replace path, one tile at a time: readers never observe a
// half-written tile, but while the import runs they can see some
// tiles already restored and others not yet.
func (r *Registry) ImportSnapshot(rd io.Reader) error {
	dec, err := zstd.NewReader(rd)
	if err != nil {
		return fmt.Errorf("registry: open zstd reader: %w", err)
	}
	defer dec.Close()

	var entries []snapshotEntry
	if err := gob.NewDecoder(dec).Decode(&entries); err != nil {
		return fmt.Errorf("registry: decode snapshot: %w", err)
	}

	for _, e := range entries {
		payload := e.Payload
		if _, err := r.Replace(e.TileX, e.TileY, &payload); err != nil {
			return fmt.Errorf("registry: restore tile (%d, %d): %w", e.TileX, e.TileY, err)
		}
	}
	return nil
}
