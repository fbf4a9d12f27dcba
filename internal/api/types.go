package api

import (
	"sort"
	"strconv"
	"time"
)

const statsDateLayout = "2006-01-02"

// DailyStats mirrors /api/stats/daily and the entries of /api/stats/weekly.
type DailyStats struct {
	Date          string                  `json:"date,omitempty"`
	TotalSales    float64                 `json:"total_sales"`
	OrderCount    int                     `json:"order_count"`
	AvgOrderValue float64                 `json:"avg_order_value"`
	PopularItems  map[string]PopularItem  `json:"popular_items"`
	CategorySales map[string]CategorySale `json:"category_sales"`
	PeakHours     map[string]int          `json:"peak_hours"`
}

// PopularItem is keyed by product id in DailyStats.
type PopularItem struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// CategorySale is keyed by category id in DailyStats.
type CategorySale struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// HourCount is one bucket of the peak hours histogram.
type HourCount struct {
	Hour  int
	Count int
}

// ParsedDate returns the entry date, or zero for the daily endpoint.
func (d DailyStats) ParsedDate() time.Time {
	t, err := time.Parse(statsDateLayout, d.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TopItems returns up to n popular items, most sold first. n <= 0 returns
// all of them.
func (d DailyStats) TopItems(n int) []PopularItem {
	items := make([]PopularItem, 0, len(d.PopularItems))
	for _, item := range d.PopularItems {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// Categories returns category totals, largest first.
func (d DailyStats) Categories() []CategorySale {
	out := make([]CategorySale, 0, len(d.CategorySales))
	for _, c := range d.CategorySales {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Hours returns the peak hours histogram ordered by hour. Keys that are not
// hours of the day are skipped.
func (d DailyStats) Hours() []HourCount {
	out := make([]HourCount, 0, len(d.PeakHours))
	for key, count := range d.PeakHours {
		hour, err := strconv.Atoi(key)
		if err != nil || hour < 0 || hour > 23 {
			continue
		}
		out = append(out, HourCount{Hour: hour, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// SortByDate orders weekly entries oldest first.
func SortByDate(days []DailyStats) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].ParsedDate().Before(days[j].ParsedDate())
	})
}
