package ordertest

import "github.com/shopspring/decimal"

// Product is a menu entry the backend accepts in new orders.
type Product struct {
	ID           int64
	Name         string
	CategoryID   int64
	CategoryName string
	Price        decimal.Decimal
	Available    bool
}

// DefaultMenu is a small burger-bar menu. It covers every kitchen station.
func DefaultMenu() []Product {
	return []Product{
		{ID: 1, Name: "Classic Burger", CategoryID: 1, CategoryName: "Burgers", Price: decimal.RequireFromString("8.50"), Available: true},
		{ID: 2, Name: "Bacon Burger", CategoryID: 1, CategoryName: "Burgers", Price: decimal.RequireFromString("9.75"), Available: true},
		{ID: 3, Name: "Fries", CategoryID: 2, CategoryName: "Sides", Price: decimal.RequireFromString("3.20"), Available: true},
		{ID: 4, Name: "Garden Salad", CategoryID: 2, CategoryName: "Sides", Price: decimal.RequireFromString("5.00"), Available: true},
		{ID: 5, Name: "Lemonade", CategoryID: 3, CategoryName: "Drinks", Price: decimal.RequireFromString("2.40"), Available: true},
		{ID: 6, Name: "Milkshake", CategoryID: 3, CategoryName: "Drinks", Price: decimal.RequireFromString("4.10"), Available: false},
	}
}
