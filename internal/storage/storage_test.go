package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"optioncatalog/internal/models"
)

func TestRangeFilename(t *testing.T) {
	r := Range{Start: 1704067200000000000, End: 1704153600000000000, ID: "0b7c"}
	got, err := ParseFilename("bars/instrument=NIFTY.NSE/" + r.Filename())
	if err != nil {
		t.Fatalf("ParseFilename: %v", err)
	}
	if got != r {
		t.Fatalf("ParseFilename = %v, want %v", got, r)
	}
	for _, bad := range []string{"1_2.parquet", "x_2_a.parquet", "5_2_a.parquet", "1_2_a.json"} {
		if _, err := ParseFilename(bad); err == nil {
			t.Errorf("ParseFilename(%q) accepted", bad)
		}
	}
}

func TestRangeOverlaps(t *testing.T) {
	a := Range{Start: 10, End: 20}
	tests := []struct {
		b    Range
		want bool
	}{
		{Range{Start: 20, End: 30}, true},
		{Range{Start: 21, End: 30}, false},
		{Range{Start: 0, End: 9}, false},
		{Range{Start: 12, End: 15}, true},
		{Range{Start: 0, End: 100}, true},
	}
	for _, tt := range tests {
		if got := a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%v.Overlaps(%v) = %v", a, tt.b, got)
		}
	}
}

func exerciseStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	nifty := models.InstrumentID("NIFTY.NSE")
	niftyIdx := models.InstrumentID("NIFTY-INDEX.NSE")

	r2 := NewRange(200, 300)
	r1 := NewRange(100, 150)
	for _, w := range []struct {
		inst models.InstrumentID
		r    Range
		data string
	}{
		{nifty, r2, "second"},
		{nifty, r1, "first"},
		{niftyIdx, NewRange(0, 1), "index"},
	} {
		if err := s.Put(ctx, "bars", w.inst, w.r, []byte(w.data)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	ranges, err := s.ListRanges(ctx, "bars", nifty)
	if err != nil {
		t.Fatalf("ListRanges: %v", err)
	}
	if len(ranges) != 2 || ranges[0] != r1 || ranges[1] != r2 {
		t.Fatalf("ListRanges = %v", ranges)
	}

	data, err := s.Get(ctx, "bars", nifty, r1)
	if err != nil || string(data) != "first" {
		t.Fatalf("Get = %q, %v", data, err)
	}
	if _, err := s.Get(ctx, "bars", nifty, NewRange(1, 2)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing Get err = %v", err)
	}

	insts, err := s.ListInstruments(ctx, "bars")
	if err != nil {
		t.Fatalf("ListInstruments: %v", err)
	}
	if len(insts) != 2 || insts[0] != niftyIdx || insts[1] != nifty {
		t.Fatalf("ListInstruments = %v", insts)
	}
	if other, _ := s.ListInstruments(ctx, "quotes"); len(other) != 0 {
		t.Fatalf("quotes tier = %v", other)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewStore(NewMemoryBlob()))
}

func TestLocalStore(t *testing.T) {
	b, err := NewLocalBlob(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlob: %v", err)
	}
	exerciseStore(t, NewStore(b))
}

func TestLocalListMissingDir(t *testing.T) {
	b, err := NewLocalBlob(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBlob: %v", err)
	}
	keys, err := b.List(context.Background(), "bars/instrument=X.NSE/")
	if err != nil || len(keys) != 0 {
		t.Fatalf("List = %v, %v", keys, err)
	}
}

// fakeS3 keeps objects in a map and pages listings two keys at a time.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Key)] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	data, ok := f.objects[aws.ToString(in.Key)]
	f.mu.Unlock()
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	f.mu.Unlock()
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	if len(keys) > 2 {
		keys = keys[:2]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	fake := &fakeS3{objects: make(map[string][]byte)}
	exerciseStore(t, NewStore(NewS3BlobWithClient(fake, "catalog", "prod/", 0, 1)))
	for k := range fake.objects {
		if !strings.HasPrefix(k, "prod/bars/instrument=") {
			t.Fatalf("unexpected key %s", k)
		}
	}
}

func TestNotFound(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&s3types.NoSuchKey{}, true},
		{&smithy.GenericAPIError{Code: "NotFound"}, true},
		{&smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{errors.New("boom"), false},
	}
	for _, c := range cases {
		if got := notFound(c.err); got != c.want {
			t.Errorf("notFound(%v) = %v", c.err, got)
		}
	}
}
