// Package storage persists catalog partitions. A Blob backend stores opaque
// objects by key; Store lays tier partitions out on top of it as
//
//	<tier>/instrument=<ID>/<start>_<end>_<id>.parquet
//
// so that a reader can prune partitions by range from the key alone.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"optioncatalog/internal/models"
)

// ErrNotFound is returned when an object or partition does not exist.
var ErrNotFound = errors.New("not found")

const partitionExt = ".parquet"

// Blob is a flat object store. Keys use '/' separators.
type Blob interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	// List returns every key under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Range is the inclusive event timestamp span of one partition. ID tells
// apart partitions written for the same span.
type Range struct {
	Start int64
	End   int64
	ID    string
}

// NewRange returns a range with a fresh partition id. Ids are UUIDv7, so
// for equal spans the later write sorts last.
func NewRange(start, end int64) Range {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Range{Start: start, End: end, ID: id.String()}
}

// Overlaps reports whether the two inclusive spans share a timestamp.
func (r Range) Overlaps(o Range) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// Intersects reports whether the range shares a timestamp with [start, end].
func (r Range) Intersects(start, end int64) bool {
	return r.Start <= end && start <= r.End
}

// Filename encodes the range as <start>_<end>_<id>.parquet.
func (r Range) Filename() string {
	return fmt.Sprintf("%d_%d_%s%s", r.Start, r.End, r.ID, partitionExt)
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]#%s", r.Start, r.End, r.ID)
}

// ParseFilename is the inverse of Range.Filename.
func ParseFilename(name string) (Range, error) {
	base := strings.TrimSuffix(path.Base(name), partitionExt)
	if base == path.Base(name) {
		return Range{}, fmt.Errorf("partition %q: missing %s extension", name, partitionExt)
	}
	parts := strings.SplitN(base, "_", 3)
	if len(parts) != 3 || parts[2] == "" {
		return Range{}, fmt.Errorf("partition %q: want <start>_<end>_<id>", name)
	}
	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("partition %q: start: %w", name, err)
	}
	end, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("partition %q: end: %w", name, err)
	}
	if end < start {
		return Range{}, fmt.Errorf("partition %q: end before start", name)
	}
	return Range{Start: start, End: end, ID: parts[2]}, nil
}

// SortRanges orders by start, then end, then id.
func SortRanges(rs []Range) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Start != rs[j].Start {
			return rs[i].Start < rs[j].Start
		}
		if rs[i].End != rs[j].End {
			return rs[i].End < rs[j].End
		}
		return rs[i].ID < rs[j].ID
	})
}

// Store keys tier partitions by instrument and range. It is safe for
// concurrent use when its Blob is.
type Store struct {
	blob Blob
}

// NewStore wraps a blob backend.
func NewStore(b Blob) *Store {
	return &Store{blob: b}
}

// Blob exposes the backend for auxiliary objects such as manifests.
func (s *Store) Blob() Blob { return s.blob }

const instrumentPrefix = "instrument="

// PartitionKey returns the object key of a partition.
func PartitionKey(tier string, inst models.InstrumentID, r Range) string {
	return path.Join(tier, instrumentPrefix+string(inst), r.Filename())
}

func instrumentDir(tier string, inst models.InstrumentID) string {
	return path.Join(tier, instrumentPrefix+string(inst)) + "/"
}

// Put writes one partition.
func (s *Store) Put(ctx context.Context, tier string, inst models.InstrumentID, r Range, data []byte) error {
	if r.ID == "" {
		return fmt.Errorf("put %s/%s: range without id", tier, inst)
	}
	return s.blob.Write(ctx, PartitionKey(tier, inst, r), data)
}

// Get reads one partition.
func (s *Store) Get(ctx context.Context, tier string, inst models.InstrumentID, r Range) ([]byte, error) {
	return s.blob.Read(ctx, PartitionKey(tier, inst, r))
}

// ListRanges returns the committed ranges of an instrument in SortRanges order.
func (s *Store) ListRanges(ctx context.Context, tier string, inst models.InstrumentID) ([]Range, error) {
	keys, err := s.blob.List(ctx, instrumentDir(tier, inst))
	if err != nil {
		return nil, err
	}
	out := make([]Range, 0, len(keys))
	for _, k := range keys {
		if !strings.HasSuffix(k, partitionExt) {
			continue
		}
		r, err := ParseFilename(k)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	SortRanges(out)
	return out, nil
}

// ListInstruments returns every instrument with at least one partition in
// the tier, sorted.
func (s *Store) ListInstruments(ctx context.Context, tier string) ([]models.InstrumentID, error) {
	keys, err := s.blob.List(ctx, tier+"/"+instrumentPrefix)
	if err != nil {
		return nil, err
	}
	seen := make(map[models.InstrumentID]struct{})
	for _, k := range keys {
		rest := strings.TrimPrefix(k, tier+"/"+instrumentPrefix)
		i := strings.IndexByte(rest, '/')
		if i <= 0 || !strings.HasSuffix(k, partitionExt) {
			continue
		}
		seen[models.InstrumentID(rest[:i])] = struct{}{}
	}
	out := make([]models.InstrumentID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
