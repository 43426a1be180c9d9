package orders

import "time"

// AvailableQuantity subtracts the live holds from the item's total and floors
// the result at zero.
func AvailableQuantity(item FoodItem, reservations []Reservation, now time.Time) int {
	held := 0
	for _, r := range reservations {
		if r.FoodItemID == item.ID && r.Live(now) {
			held += r.Quantity
		}
	}
	return available(item.TotalQuantity, held)
}

func available(total, held int) int {
	if total < 0 {
		total = 0
	}
	if n := total - held; n > 0 {
		return n
	}
	return 0
}

// InStock combines the derived quantity with the manual availability flag.
func InStock(item FoodItem, availableQty int) bool {
	return availableQty > 0 && item.IsAvailable
}

func describe(item FoodItem, held int) FoodAvailability {
	n := available(item.TotalQuantity, held)
	return FoodAvailability{
		FoodItem:          item,
		AvailableQuantity: n,
		InStock:           InStock(item, n),
		DiscountPercent:   item.Discount(),
	}
}
