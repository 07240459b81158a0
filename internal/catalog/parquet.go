package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"optioncatalog/internal/fixedpoint"
)

// memFile is an in-memory source.ParquetFile. Writers append to buf;
// readers get an independent cursor over data from every Open.
type memFile struct {
	data []byte
	r    *bytes.Reader
	buf  *bytes.Buffer
}

func newWriteFile() *memFile { return &memFile{buf: &bytes.Buffer{}} }

func newReadFile(data []byte) *memFile { return &memFile{data: data, r: bytes.NewReader(data)} }

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error) {
	if m.r == nil {
		return nil, fmt.Errorf("open: write-only parquet buffer")
	}
	return newReadFile(m.data), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	if m.r == nil {
		return int64(m.buf.Len()), nil
	}
	return m.r.Seek(offset, whence)
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.r == nil {
		return 0, fmt.Errorf("read not supported")
	}
	return m.r.Read(p)
}

func (m *memFile) Write(p []byte) (int, error) {
	if m.buf == nil {
		return 0, fmt.Errorf("write not supported")
	}
	return m.buf.Write(p)
}

func (m *memFile) Close() error  { return nil }
func (m *memFile) Bytes() []byte { return m.buf.Bytes() }

// WriterOptions tunes the parquet encoding of partitions.
type WriterOptions struct {
	Compression  string
	RowGroupSize int64
	Parallelism  int64
}

func (o WriterOptions) codec() parquet.CompressionCodec {
	switch strings.ToLower(o.Compression) {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY
	case "gzip":
		return parquet.CompressionCodec_GZIP
	case "zstd":
		return parquet.CompressionCodec_ZSTD
	default:
		return parquet.CompressionCodec_UNCOMPRESSED
	}
}

func (o WriterOptions) np() int64 {
	if o.Parallelism <= 0 {
		return 1
	}
	return o.Parallelism
}

func encodeParquet[P any](rows []P, opts WriterOptions) ([]byte, error) {
	mem := newWriteFile()
	pw, err := writer.NewParquetWriter(mem, new(P), opts.np())
	if err != nil {
		return nil, fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = opts.codec()
	if opts.RowGroupSize > 0 {
		pw.RowGroupSize = opts.RowGroupSize
	}

	for _, rec := range rows {
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return mem.Bytes(), nil
}

func decodeParquet[P any](data []byte, np int64) ([]P, error) {
	pr, err := reader.NewParquetReader(newReadFile(data), new(P), np)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]P, int(pr.GetNumRows()))
	if len(rows) == 0 {
		return rows, nil
	}
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return rows, nil
}

// fixed encodes a decimal column value, naming the field on failure.
func fixed(field string, v fixedpoint.Value) (string, error) {
	b, err := v.Fixed()
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return string(b[:]), nil
}

func unfixed(field, s string) (fixedpoint.Value, error) {
	m, p, err := fixedpoint.DecodeBytes([]byte(s))
	if err != nil {
		return fixedpoint.Value{}, fmt.Errorf("%s: %w", field, err)
	}
	return fixedpoint.New(m, p), nil
}
