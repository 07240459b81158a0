// Package metadata keeps Iceberg style table metadata next to each tier's
// partitions: one manifest per committed partition and a metadata.json
// listing the snapshots. It is bookkeeping for external engines; the
// catalog itself reads partitions from the key layout.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"optioncatalog/internal/storage"
)

// DataFile describes a single parquet partition.
type DataFile struct {
	Path        string         `json:"path"`
	FileSize    int64          `json:"file_size_in_bytes"`
	RecordCount int64          `json:"record_count"`
	Partition   map[string]any `json:"partition"`
	Timestamp   time.Time      `json:"-"`
}

// ManifestEntry mirrors the information kept in an Iceberg manifest file.
type ManifestEntry struct {
	Status   int      `json:"status"`
	DataFile DataFile `json:"data_file"`
}

// Snapshot holds minimal information required for time-travel queries.
type Snapshot struct {
	SnapshotID  int64  `json:"snapshot-id"`
	TimestampMs int64  `json:"timestamp-ms"`
	Manifest    string `json:"manifest-list"`
}

// TableMetadata represents the high level Iceberg table metadata file.
type TableMetadata struct {
	FormatVersion     int        `json:"format-version"`
	TableUUID         string     `json:"table-uuid"`
	Location          string     `json:"location"`
	CurrentSnapshotID int64      `json:"current-snapshot-id"`
	Snapshots         []Snapshot `json:"snapshots"`
}

// Generator incrementally builds metadata for one table. A single process
// should own a table's metadata at a time.
type Generator struct {
	mu        sync.Mutex
	blob      storage.Blob
	table     string
	tableUUID string
	snapshots []Snapshot
}

func metadataKey(table string) string { return path.Join(table, "metadata", "metadata.json") }

// NewGenerator returns a generator for table, resuming from existing
// metadata when present.
func NewGenerator(ctx context.Context, blob storage.Blob, table string) (*Generator, error) {
	g := &Generator{blob: blob, table: table, tableUUID: uuid.NewString()}
	data, err := blob.Read(ctx, metadataKey(table))
	if errors.Is(err, storage.ErrNotFound) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s metadata: %w", table, err)
	}
	var tm TableMetadata
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", table, err)
	}
	g.tableUUID = tm.TableUUID
	g.snapshots = tm.Snapshots
	return g, nil
}

// AddFile records a newly committed partition and rewrites metadata.json.
func (g *Generator) AddFile(ctx context.Context, df DataFile) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	snapID := df.Timestamp.UnixNano()
	if n := len(g.snapshots); n > 0 && snapID <= g.snapshots[n-1].SnapshotID {
		snapID = g.snapshots[n-1].SnapshotID + 1
	}
	manifestFile := fmt.Sprintf("manifest-%d.json", snapID)
	entry := ManifestEntry{Status: 1, DataFile: df}
	b, err := json.Marshal([]ManifestEntry{entry})
	if err != nil {
		return err
	}
	if err := g.blob.Write(ctx, path.Join(g.table, "metadata", manifestFile), b); err != nil {
		return err
	}
	g.snapshots = append(g.snapshots, Snapshot{
		SnapshotID:  snapID,
		TimestampMs: df.Timestamp.UnixMilli(),
		Manifest:    manifestFile,
	})
	return g.writeTableMetadata(ctx)
}

func (g *Generator) writeTableMetadata(ctx context.Context) error {
	if len(g.snapshots) == 0 {
		return nil
	}
	tm := TableMetadata{
		FormatVersion:     2,
		TableUUID:         g.tableUUID,
		Location:          g.table,
		CurrentSnapshotID: g.snapshots[len(g.snapshots)-1].SnapshotID,
		Snapshots:         g.snapshots,
	}
	b, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return err
	}
	return g.blob.Write(ctx, metadataKey(g.table), b)
}

// Snapshots returns a copy of the recorded snapshots, oldest first.
func (g *Generator) Snapshots() []Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Snapshot(nil), g.snapshots...)
}

// Files reads back every data file referenced by the snapshots.
func (g *Generator) Files(ctx context.Context) ([]DataFile, error) {
	var out []DataFile
	for _, s := range g.Snapshots() {
		data, err := g.blob.Read(ctx, path.Join(g.table, "metadata", s.Manifest))
		if err != nil {
			return nil, err
		}
		var entries []ManifestEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode manifest %s: %w", s.Manifest, err)
		}
		for _, e := range entries {
			out = append(out, e.DataFile)
		}
	}
	return out, nil
}

// WriteCatalogEntry creates a catalog entry pointing at the table metadata.
func (g *Generator) WriteCatalogEntry(ctx context.Context, catalogDir string) error {
	entry := map[string]string{
		"name":              g.table,
		"metadata_location": metadataKey(g.table),
	}
	b, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return g.blob.Write(ctx, path.Join(catalogDir, g.table+".json"), b)
}
