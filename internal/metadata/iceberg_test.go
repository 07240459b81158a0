package metadata

import (
	"context"
	"testing"
	"time"

	"optioncatalog/internal/storage"
)

func TestGeneratorCreatesMetadata(t *testing.T) {
	ctx := context.Background()
	blob := storage.NewMemoryBlob()
	gen, err := NewGenerator(ctx, blob, "bars")
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	df := DataFile{
		Path:        "bars/instrument=NIFTY.NSE/1_2_a.parquet",
		FileSize:    100,
		RecordCount: 10,
		Partition:   map[string]any{"instrument": "NIFTY.NSE", "start": 1, "end": 2},
		Timestamp:   time.Unix(0, 5),
	}
	for i := 0; i < 2; i++ {
		if err := gen.AddFile(ctx, df); err != nil {
			t.Fatalf("AddFile: %v", err)
		}
	}
	snaps := gen.Snapshots()
	if len(snaps) != 2 || snaps[1].SnapshotID <= snaps[0].SnapshotID {
		t.Fatalf("snapshots = %+v", snaps)
	}
	if _, err := blob.Read(ctx, "bars/metadata/metadata.json"); err != nil {
		t.Fatalf("metadata not written: %v", err)
	}
	if err := gen.WriteCatalogEntry(ctx, "_catalog"); err != nil {
		t.Fatalf("catalog entry: %v", err)
	}
	if _, err := blob.Read(ctx, "_catalog/bars.json"); err != nil {
		t.Fatalf("catalog entry not written: %v", err)
	}

	resumed, err := NewGenerator(ctx, blob, "bars")
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	files, err := resumed.Files(ctx)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 || files[0].RecordCount != 10 {
		t.Fatalf("files = %+v", files)
	}
}
