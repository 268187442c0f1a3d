package engine

import (
	"time"

	"inventorydash/internal/models"
)

func order(date, category, region, sub string, sales float64, qty int, discount float64) models.OrderRecord {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.OrderRecord{
		OrderDate:   d,
		Month:       d.Format(models.MonthLayout),
		Category:    category,
		Region:      region,
		SubCategory: sub,
		Sales:       sales,
		Quantity:    qty,
		Discount:    discount,
	}
}

// threeOrders is the small dataset used by most engine tests:
// two Furniture orders in East and one Office order in West.
func threeOrders() *Dataset {
	return NewDataset([]models.OrderRecord{
		order("2017-01-10", "Furniture", "East", "Chairs", 100, 5, 0.1),
		order("2017-02-03", "Furniture", "East", "Tables", 200, 20, 0.3),
		order("2017-02-21", "Office", "West", "Chairs", 50, 2, 0.0),
	})
}
