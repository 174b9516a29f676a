package engine

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"vgsales/internal/models"
)

// NotApplicable stands in for a mode over an empty view.
const NotApplicable = "N/A"

// Region labels, in output order.
const (
	RegionNorthAmerica = "North America"
	RegionEurope       = "Europe"
	RegionJapan        = "Japan"
	RegionOther        = "Other"
)

// Aggregate builds everything the dashboard renders for one filtered view.
func Aggregate(v View, c models.Criteria, topN int) *models.DashboardData {
	metrics := SummaryMetrics(v)
	return &models.DashboardData{
		Criteria: c,
		Metrics:  metrics,
		HasSales: metrics.GlobalSales > 0,
		Regions:  RegionalBreakdown(v),
		TopGames: TopByGlobalSales(v, topN),
		Trend:    YearlyTrend(v),
	}
}

// SummaryMetrics returns row count, total and per-title Global_Sales, and the
// most frequent Platform and Genre.
func SummaryMetrics(v View) models.Metrics {
	global := column(v, v.Store.GlobalSales)
	total := sum(global)

	m := models.Metrics{
		TotalGames:       v.Len(),
		GlobalSales:      total,
		GlobalSalesLabel: fmt.Sprintf("%.2f", total),
		TopPlatform:      NotApplicable,
		TopGenre:         NotApplicable,
	}
	if v.Len() == 0 {
		return m
	}

	m.TopPlatform = mode(v, v.Store.PlatformIDs, v.Store.PlatformDict)
	m.TopGenre = mode(v, v.Store.GenreIDs, v.Store.GenreDict)
	if mean, err := stats.Mean(global); err == nil {
		m.MeanGlobalSales = mean
	}
	if median, err := stats.Median(global); err == nil {
		m.MedianGlobalSales = median
	}
	return m
}

// mode picks the most frequent value; among equally frequent values the one
// that occurs first in row order wins.
func mode(v View, ids []int32, dict []string) string {
	counts := make([]int, len(dict))
	best := 0
	for _, r := range v.Rows {
		counts[ids[r]]++
		if counts[ids[r]] > best {
			best = counts[ids[r]]
		}
	}
	for _, r := range v.Rows {
		if counts[ids[r]] == best {
			return dict[ids[r]]
		}
	}
	return NotApplicable
}

// RegionalBreakdown always returns the four regions in fixed order.
func RegionalBreakdown(v View) []models.RegionSales {
	cs := v.Store
	return []models.RegionSales{
		{Region: RegionNorthAmerica, Sales: sum(column(v, cs.NASales))},
		{Region: RegionEurope, Sales: sum(column(v, cs.EUSales))},
		{Region: RegionJapan, Sales: sum(column(v, cs.JPSales))},
		{Region: RegionOther, Sales: sum(column(v, cs.OtherSales))},
	}
}

// TopByGlobalSales returns up to n records, highest Global_Sales first.
// Equal sales keep dataset order.
func TopByGlobalSales(v View, n int) []models.Record {
	if n <= 0 {
		return []models.Record{}
	}
	rows := make([]int, len(v.Rows))
	copy(rows, v.Rows)
	global := v.Store.GlobalSales
	sort.SliceStable(rows, func(i, j int) bool { return global[rows[i]] > global[rows[j]] })
	if len(rows) > n {
		rows = rows[:n]
	}
	return View{Store: v.Store, Rows: rows}.Records()
}

// YearlyTrend sums Global_Sales per Year, ascending. Years without rows are absent.
func YearlyTrend(v View) []models.YearSales {
	byYear := make(map[int32]float64)
	for _, r := range v.Rows {
		byYear[v.Store.Years[r]] += v.Store.GlobalSales[r]
	}

	trend := make([]models.YearSales, 0, len(byYear))
	for y, total := range byYear {
		trend = append(trend, models.YearSales{Year: int(y), GlobalSales: total})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Year < trend[j].Year })
	return trend
}

func column(v View, col []float64) stats.Float64Data {
	out := make(stats.Float64Data, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = col[r]
	}
	return out
}

// sum is zero for an empty input rather than an error.
func sum(data stats.Float64Data) float64 {
	total, err := stats.Sum(data)
	if err != nil {
		return 0
	}
	return total
}
