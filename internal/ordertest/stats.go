package ordertest

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/galleyhq/galley/internal/api"
	"github.com/galleyhq/galley/internal/orders"
)

const dateLayout = "2006-01-02"

type itemTally struct {
	name  string
	count int
	total decimal.Decimal
}

type categoryTally struct {
	name  string
	total decimal.Decimal
}

// dayTally accumulates one day's sales. Money stays in decimal until the
// JSON boundary.
type dayTally struct {
	sales      decimal.Decimal
	count      int
	items      map[int64]*itemTally
	categories map[int64]*categoryTally
	hours      map[int]int
}

func newDayTally() *dayTally {
	return &dayTally{
		items:      make(map[int64]*itemTally),
		categories: make(map[int64]*categoryTally),
		hours:      make(map[int]int),
	}
}

func (d *dayTally) add(o orders.Order, menu map[int64]Product, at time.Time) {
	d.count++
	d.hours[at.Hour()]++
	for _, item := range o.Items {
		p, ok := menu[item.ProductID]
		if !ok {
			continue
		}
		line := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		d.sales = d.sales.Add(line)

		it := d.items[p.ID]
		if it == nil {
			it = &itemTally{name: p.Name}
			d.items[p.ID] = it
		}
		it.count += item.Quantity
		it.total = it.total.Add(line)

		cat := d.categories[p.CategoryID]
		if cat == nil {
			cat = &categoryTally{name: p.CategoryName}
			d.categories[p.CategoryID] = cat
		}
		cat.total = cat.total.Add(line)
	}
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func (d *dayTally) render(date string) api.DailyStats {
	out := api.DailyStats{
		Date:          date,
		PopularItems:  make(map[string]api.PopularItem, len(d.items)),
		CategorySales: make(map[string]api.CategorySale, len(d.categories)),
		PeakHours:     make(map[string]int, len(d.hours)),
	}
	out.TotalSales = money(d.sales)
	out.OrderCount = d.count
	if d.count > 0 {
		out.AvgOrderValue = money(d.sales.Div(decimal.NewFromInt(int64(d.count))))
	}
	for id, it := range d.items {
		out.PopularItems[strconv.FormatInt(id, 10)] = api.PopularItem{Name: it.name, Count: it.count, Total: money(it.total)}
	}
	for id, cat := range d.categories {
		out.CategorySales[strconv.FormatInt(id, 10)] = api.CategorySale{Name: cat.name, Total: money(cat.total)}
	}
	for hour, n := range d.hours {
		out.PeakHours[strconv.Itoa(hour)] = n
	}
	return out
}

// statsBook keeps per-day tallies keyed by YYYY-MM-DD.
type statsBook struct {
	days map[string]*dayTally
}

func newStatsBook() *statsBook {
	return &statsBook{days: make(map[string]*dayTally)}
}

func (b *statsBook) record(o orders.Order, menu map[int64]Product, at time.Time) {
	key := at.Format(dateLayout)
	day := b.days[key]
	if day == nil {
		day = newDayTally()
		b.days[key] = day
	}
	day.add(o, menu, at)
}

func (b *statsBook) daily(today time.Time) api.DailyStats {
	key := today.Format(dateLayout)
	day := b.days[key]
	if day == nil {
		day = newDayTally()
	}
	stats := day.render(key)
	stats.Date = ""
	return stats
}

// weekly returns the tallies of the seven days up to and including today,
// oldest first. Days without sales are omitted.
func (b *statsBook) weekly(today time.Time) []api.DailyStats {
	start := today.AddDate(0, 0, -7).Format(dateLayout)
	end := today.Format(dateLayout)
	out := make([]api.DailyStats, 0, len(b.days))
	for key, day := range b.days {
		if key < start || key > end {
			continue
		}
		out = append(out, day.render(key))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
