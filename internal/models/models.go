package models

// Record is one row of the sales dataset.
type Record struct {
	Name        string  `json:"name"`
	Platform    string  `json:"platform"`
	Year        int     `json:"year"`
	Genre       string  `json:"genre"`
	Publisher   string  `json:"publisher"`
	NASales     float64 `json:"na_sales"`
	EUSales     float64 `json:"eu_sales"`
	JPSales     float64 `json:"jp_sales"`
	OtherSales  float64 `json:"other_sales"`
	GlobalSales float64 `json:"global_sales"`
}

// Criteria is the set of user-selected constraints for one interaction.
// An empty selection slice means "no restriction".
type Criteria struct {
	Platforms  []string `json:"platforms,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Publishers []string `json:"publishers,omitempty"`
	YearMin    int      `json:"year_min"`
	YearMax    int      `json:"year_max"`
}

type Metrics struct {
	TotalGames        int     `json:"total_games"`
	GlobalSales       float64 `json:"global_sales"`
	GlobalSalesLabel  string  `json:"global_sales_label"`
	TopPlatform       string  `json:"top_platform"`
	TopGenre          string  `json:"top_genre"`
	MeanGlobalSales   float64 `json:"mean_global_sales"`
	MedianGlobalSales float64 `json:"median_global_sales"`
}

type RegionSales struct {
	Region string  `json:"region"`
	Sales  float64 `json:"sales"`
}

type YearSales struct {
	Year        int     `json:"year"`
	GlobalSales float64 `json:"global_sales"`
}

// Options feeds the filter controls: sorted distinct values and the year bounds.
type Options struct {
	Platforms  []string `json:"platforms"`
	Genres     []string `json:"genres"`
	Publishers []string `json:"publishers"`
	YearMin    int      `json:"year_min"`
	YearMax    int      `json:"year_max"`
}

type DashboardData struct {
	Criteria Criteria      `json:"criteria"`
	Metrics  Metrics       `json:"metrics"`
	HasSales bool          `json:"has_sales"`
	Regions  []RegionSales `json:"regions"`
	TopGames []Record      `json:"top_games"`
	Trend    []YearSales   `json:"trend"`
}

// EmptyResult is returned in place of any chart data when a filter stage
// leaves no rows.
type EmptyResult struct {
	Empty   bool   `json:"empty"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type GamesPage struct {
	Data   []Record `json:"data"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}
