package engine

import (
	"vgsales/internal/models"
)

// View is an ordered subset of store rows, kept in dataset order.
type View struct {
	Store *ColumnStore
	Rows  []int
}

// All returns the unfiltered view.
func All(cs *ColumnStore) View {
	rows := make([]int, cs.Len())
	for i := range rows {
		rows[i] = i
	}
	return View{Store: cs, Rows: rows}
}

func (v View) Len() int { return len(v.Rows) }

// Records materializes every row of the view.
func (v View) Records() []models.Record {
	out := make([]models.Record, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = v.Store.Record(r)
	}
	return out
}

// Stage identifies the filter step that emptied a result.
type Stage string

const (
	StagePlatform  Stage = "platform-empty"
	StageGenre     Stage = "genre-empty"
	StagePublisher Stage = "publisher-empty"
	StageYearRange Stage = "year-range-empty"
)

// Message is the user-facing explanation for an empty stage.
func (s Stage) Message() string {
	switch s {
	case StagePlatform:
		return "No games found for the selected platform(s)"
	case StageGenre:
		return "No games found for the selected genre(s)"
	case StagePublisher:
		return "No games found for the selected publisher(s)"
	case StageYearRange:
		return "No games found in the selected year range"
	}
	return ""
}

// Result is either a non-empty View or the Stage that left no rows.
// An empty result is a normal outcome, not an error.
type Result struct {
	View  View
	Empty Stage
}

func (r Result) IsEmpty() bool { return r.Empty != "" }

// EmptyResult renders the empty outcome for clients.
func (r Result) EmptyResult() models.EmptyResult {
	return models.EmptyResult{Empty: true, Stage: string(r.Empty), Message: r.Empty.Message()}
}

// filterStage is one predicate application inside ApplyFilters.
// A stage whose predicate is nil for the given criteria passes every row.
type filterStage struct {
	tag       Stage
	predicate func(cs *ColumnStore, c models.Criteria) func(row int) bool
}

// stages run in this order; the first one to empty the set wins.
var stages = []filterStage{
	{tag: StagePlatform, predicate: platformIn},
	{tag: StageGenre, predicate: genreIn},
	{tag: StagePublisher, predicate: publisherIn},
	{tag: StageYearRange, predicate: yearBetween},
}

func platformIn(cs *ColumnStore, c models.Criteria) func(int) bool {
	return memberOf(cs.PlatformIDs, cs.PlatformDict, c.Platforms)
}

func genreIn(cs *ColumnStore, c models.Criteria) func(int) bool {
	return memberOf(cs.GenreIDs, cs.GenreDict, c.Genres)
}

func publisherIn(cs *ColumnStore, c models.Criteria) func(int) bool {
	return memberOf(cs.PublisherIDs, cs.PublisherDict, c.Publishers)
}

func memberOf(ids []int32, dict []string, selected []string) func(int) bool {
	if len(selected) == 0 {
		return nil
	}
	allowed := lookupIDs(dict, selected)
	return func(row int) bool {
		_, ok := allowed[ids[row]]
		return ok
	}
}

// yearBetween always applies; the range is inclusive at both ends.
// Bounds are compared as int so values outside int32 keep their meaning.
func yearBetween(cs *ColumnStore, c models.Criteria) func(int) bool {
	return func(row int) bool {
		y := int(cs.Years[row])
		return y >= c.YearMin && y <= c.YearMax
	}
}

// ApplyFilters narrows the store stage by stage: platform, genre, publisher,
// then year range. It stops at the first stage that leaves no rows.
func ApplyFilters(cs *ColumnStore, c models.Criteria) Result {
	view := All(cs)
	for _, st := range stages {
		keep := st.predicate(cs, c)
		if keep == nil {
			continue
		}
		view = view.where(keep)
		if view.Len() == 0 {
			return Result{View: View{Store: cs}, Empty: st.tag}
		}
	}
	return Result{View: view}
}

func (v View) where(keep func(int) bool) View {
	rows := make([]int, 0, len(v.Rows))
	for _, r := range v.Rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return View{Store: v.Store, Rows: rows}
}
