package engine

import (
	"bytes"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/labstack/gommon/log"
	"github.com/zeebo/xxh3"
)

// Columns is the canonical header of vgsales-clean.csv.
var Columns = []string{
	"Name", "Platform", "Year", "Genre", "Publisher",
	"NA_Sales", "EU_Sales", "JP_Sales", "Other_Sales", "Global_Sales",
}

// Schema is the typed layout of Columns, used for loading and export.
var Schema = schemaFor(Columns)

var (
	ErrHeader       = errors.New("invalid header")
	ErrMalformedRow = errors.New("malformed row")
)

const chunkRows = 4096

func columnType(name string) arrow.DataType {
	switch name {
	case "Name", "Platform", "Genre", "Publisher":
		return arrow.BinaryTypes.String
	case "Year":
		return arrow.PrimitiveTypes.Int64
	default:
		return arrow.PrimitiveTypes.Float64
	}
}

func schemaFor(header []string) *arrow.Schema {
	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		fields[i] = arrow.Field{Name: name, Type: columnType(name)}
	}
	return arrow.NewSchema(fields, nil)
}

// LoadColumnar reads the whole file at path into a ColumnStore.
func LoadColumnar(path string) (*ColumnStore, error) {
	start := time.Now()
	log.Infof("Loading dataset from %s", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	store, err := parseColumnar(content)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	log.Infof("Load Complete. Rows: %d. Time: %v", store.Len(), time.Since(start))
	return store, nil
}

// ReadColumnar is LoadColumnar for an already opened source.
func ReadColumnar(r io.Reader) (*ColumnStore, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return parseColumnar(content)
}

// readHeader checks that the first record names exactly the expected
// columns, in any order.
func readHeader(content []byte) ([]string, error) {
	header, err := stdcsv.NewReader(bytes.NewReader(content)).Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file is empty", ErrHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeader, err)
	}

	known := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		known[c] = false
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		seen, ok := known[h]
		if !ok {
			return nil, fmt.Errorf("%w: unexpected column %q", ErrHeader, h)
		}
		if seen {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrHeader, h)
		}
		known[h] = true
		header[i] = h
	}
	for _, c := range Columns {
		if !known[c] {
			return nil, fmt.Errorf("%w: missing column %q", ErrHeader, c)
		}
	}
	return header, nil
}

func parseColumnar(content []byte) (*ColumnStore, error) {
	header, err := readHeader(content)
	if err != nil {
		return nil, err
	}
	schema := schemaFor(header)

	r := csv.NewReader(bytes.NewReader(content), schema,
		csv.WithHeader(true),
		csv.WithChunk(chunkRows),
		csv.WithAllocator(memory.DefaultAllocator),
	)
	defer r.Release()

	store := &ColumnStore{Fingerprint: xxh3.Hash(content)}
	platforms, genres, publishers := newDictEncoder(), newDictEncoder(), newDictEncoder()

	for r.Next() {
		rec := r.Record()
		n := int(rec.NumRows())

		for j, field := range schema.Fields() {
			col := rec.Column(j)
			if col.NullN() > 0 {
				return nil, fmt.Errorf("%w: empty value in column %s", ErrMalformedRow, field.Name)
			}

			switch field.Name {
			case "Name":
				a := col.(*array.String)
				for i := 0; i < n; i++ {
					store.Names = append(store.Names, strings.Clone(a.Value(i)))
				}
			case "Platform":
				store.PlatformIDs = appendEncoded(store.PlatformIDs, platforms, col.(*array.String), n)
			case "Genre":
				store.GenreIDs = appendEncoded(store.GenreIDs, genres, col.(*array.String), n)
			case "Publisher":
				store.PublisherIDs = appendEncoded(store.PublisherIDs, publishers, col.(*array.String), n)
			case "Year":
				a := col.(*array.Int64)
				for i := 0; i < n; i++ {
					store.Years = append(store.Years, int32(a.Value(i)))
				}
			case "NA_Sales":
				store.NASales = append(store.NASales, col.(*array.Float64).Float64Values()...)
			case "EU_Sales":
				store.EUSales = append(store.EUSales, col.(*array.Float64).Float64Values()...)
			case "JP_Sales":
				store.JPSales = append(store.JPSales, col.(*array.Float64).Float64Values()...)
			case "Other_Sales":
				store.OtherSales = append(store.OtherSales, col.(*array.Float64).Float64Values()...)
			case "Global_Sales":
				store.GlobalSales = append(store.GlobalSales, col.(*array.Float64).Float64Values()...)
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}

	store.PlatformDict = platforms.list
	store.GenreDict = genres.list
	store.PublisherDict = publishers.list
	return store, nil
}

func appendEncoded(ids []int32, dict *dictEncoder, a *array.String, n int) []int32 {
	for i := 0; i < n; i++ {
		ids = append(ids, dict.encode(strings.Clone(a.Value(i))))
	}
	return ids
}
