package engine

import (
	"sort"

	"vgsales/internal/models"
)

// ColumnStore holds the dataset in Struct-of-Arrays format.
// It is built once by the loader and never written afterwards.
type ColumnStore struct {
	// Data Columns (Flat Arrays)
	Names       []string
	Years       []int32
	NASales     []float64
	EUSales     []float64
	JPSales     []float64
	OtherSales  []float64
	GlobalSales []float64

	// Dictionary Encoded IDs (0..N), assigned in first-seen row order
	PlatformIDs  []int32
	GenreIDs     []int32
	PublisherIDs []int32

	// Dictionaries (ID -> String)
	PlatformDict  []string
	GenreDict     []string
	PublisherDict []string

	// xxh3 of the source bytes
	Fingerprint uint64
}

func (cs *ColumnStore) Len() int { return len(cs.Names) }

// Record materializes row i.
func (cs *ColumnStore) Record(i int) models.Record {
	return models.Record{
		Name:        cs.Names[i],
		Platform:    cs.PlatformDict[cs.PlatformIDs[i]],
		Year:        int(cs.Years[i]),
		Genre:       cs.GenreDict[cs.GenreIDs[i]],
		Publisher:   cs.PublisherDict[cs.PublisherIDs[i]],
		NASales:     cs.NASales[i],
		EUSales:     cs.EUSales[i],
		JPSales:     cs.JPSales[i],
		OtherSales:  cs.OtherSales[i],
		GlobalSales: cs.GlobalSales[i],
	}
}

// YearBounds returns the smallest and largest Year. Both are 0 for an empty store.
func (cs *ColumnStore) YearBounds() (int, int) {
	if len(cs.Years) == 0 {
		return 0, 0
	}
	lo, hi := cs.Years[0], cs.Years[0]
	for _, y := range cs.Years[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return int(lo), int(hi)
}

// FilterOptions lists the sorted distinct values of each categorical column
// together with the year bounds.
func FilterOptions(cs *ColumnStore) models.Options {
	lo, hi := cs.YearBounds()
	return models.Options{
		Platforms:  sortedCopy(cs.PlatformDict),
		Genres:     sortedCopy(cs.GenreDict),
		Publishers: sortedCopy(cs.PublisherDict),
		YearMin:    lo,
		YearMax:    hi,
	}
}

// DefaultCriteria selects everything: no categorical restriction, full year range.
func DefaultCriteria(cs *ColumnStore) models.Criteria {
	lo, hi := cs.YearBounds()
	return models.Criteria{YearMin: lo, YearMax: hi}
}

func sortedCopy(dict []string) []string {
	out := make([]string, len(dict))
	copy(out, dict)
	sort.Strings(out)
	return out
}

// dictEncoder assigns IDs in first-seen order.
type dictEncoder struct {
	ids  map[string]int32
	list []string
}

func newDictEncoder() *dictEncoder {
	return &dictEncoder{ids: make(map[string]int32)}
}

func (d *dictEncoder) encode(s string) int32 {
	if id, ok := d.ids[s]; ok {
		return id
	}
	id := int32(len(d.list))
	d.list = append(d.list, s)
	d.ids[s] = id
	return id
}

// lookupIDs maps selected values onto dictionary IDs. Values missing from
// the dictionary are dropped, so they simply match no row.
func lookupIDs(dict []string, selected []string) map[int32]struct{} {
	want := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		want[s] = struct{}{}
	}
	ids := make(map[int32]struct{}, len(selected))
	for id, s := range dict {
		if _, ok := want[s]; ok {
			ids[int32(id)] = struct{}{}
		}
	}
	return ids
}
