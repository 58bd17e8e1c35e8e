package domain

// ComputeTotals derives the order totals from snapshotted line items, an
// already-evaluated coupon discount, and the shipping fee. Per-item savings
// are floored at zero so a raised sale price never produces negative
// savings, the discount is capped at the item total, and the grand total
// never drops below zero.
func ComputeTotals(items []OrderItem, discount, shippingFee float64) OrderTotals {
	var subTotal, savings float64
	for _, item := range items {
		qty := float64(item.Quantity)
		subTotal += item.Price * qty
		if diff := item.OldPrice - item.Price; diff > 0 {
			savings += diff * qty
		}
	}

	if discount < 0 {
		discount = 0
	}
	if discount > subTotal {
		discount = subTotal
	}
	if shippingFee < 0 {
		shippingFee = 0
	}

	grandTotal := subTotal + shippingFee - discount
	if grandTotal < 0 {
		grandTotal = 0
	}

	return OrderTotals{
		SubTotal:    subTotal,
		Total:       subTotal,
		Savings:     savings,
		ShippingFee: shippingFee,
		Discount:    discount,
		GrandTotal:  grandTotal,
	}
}
