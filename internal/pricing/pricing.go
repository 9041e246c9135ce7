// Package pricing turns catalog prices and checkout adjustments into the
// money columns persisted on bookings and orders.
package pricing

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	unitPerDay   = "per_day"
	unitPerGuest = "per_guest"
)

var (
	ErrInvalidDates    = errors.New("end date must not be before start date")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNegativeTotal   = errors.New("total must not be negative")
)

type Line struct {
	ServiceID  int             `json:"service_id"`
	ProviderID int             `json:"provider_id"`
	Kind       string          `json:"kind"`
	Title      string          `json:"title"`
	UnitPrice  decimal.Decimal `json:"unit_price" swaggertype:"string"`
	PriceUnit  string          `json:"price_unit"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    time.Time       `json:"end_date"`
	Quantity   int             `json:"quantity"`
	TaxRate    decimal.Decimal `json:"-"`
}

type LineQuote struct {
	Line
	Units       int             `json:"units"`
	Subtotal    decimal.Decimal `json:"subtotal" swaggertype:"string"`
	Tax         decimal.Decimal `json:"tax" swaggertype:"string"`
	Discount    decimal.Decimal `json:"discount" swaggertype:"string"`
	PointsUsed  int             `json:"points_used"`
	PointsValue decimal.Decimal `json:"points_value" swaggertype:"string"`
	Total       decimal.Decimal `json:"total" swaggertype:"string"`
}

type Quote struct {
	Lines       []LineQuote     `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal" swaggertype:"string"`
	Tax         decimal.Decimal `json:"tax" swaggertype:"string"`
	Discount    decimal.Decimal `json:"discount" swaggertype:"string"`
	CouponCode  string          `json:"coupon_code,omitempty"`
	PointsUsed  int             `json:"points_used"`
	PointsValue decimal.Decimal `json:"points_value" swaggertype:"string"`
	Total       decimal.Decimal `json:"total" swaggertype:"string"`
	Currency    string          `json:"currency"`
}

// Discounter prices an order-level discount against the order subtotal.
type Discounter interface {
	Discount(subtotal decimal.Decimal) (decimal.Decimal, error)
}

type Adjustments struct {
	Coupon     Discounter
	CouponCode string
	Points     int
	PointValue decimal.Decimal
}

// Units is the billable multiplier: nights between the dates for per_day
// (at least one), guests for per_guest, one otherwise.
func Units(priceUnit string, start, end time.Time, quantity int) (int, error) {
	if end.Before(start) {
		return 0, ErrInvalidDates
	}

	switch priceUnit {
	case unitPerDay:
		days := int(end.Sub(start).Hours() / 24)
		if days < 1 {
			days = 1
		}
		return days, nil
	case unitPerGuest:
		if quantity <= 0 {
			return 0, ErrInvalidQuantity
		}
		return quantity, nil
	default:
		return 1, nil
	}
}

// PriceLine prices one line before any order-level adjustment.
func PriceLine(l Line) (LineQuote, error) {
	units, err := Units(l.PriceUnit, l.StartDate, l.EndDate, l.Quantity)
	if err != nil {
		return LineQuote{}, err
	}

	subtotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(units))).Round(2)
	tax := subtotal.Mul(l.TaxRate).Round(2)

	return LineQuote{
		Line:        l,
		Units:       units,
		Subtotal:    subtotal,
		Tax:         tax,
		Discount:    decimal.Zero,
		PointsValue: decimal.Zero,
		Total:       subtotal.Add(tax),
	}, nil
}

// Build prices every line, applies the coupon and points at order level and
// spreads them back over the lines so each line's total still equals
// subtotal + tax - discount - points_value.
func Build(lines []Line, adj Adjustments, currency string) (*Quote, error) {
	q := &Quote{
		Lines:       make([]LineQuote, 0, len(lines)),
		Subtotal:    decimal.Zero,
		Tax:         decimal.Zero,
		Discount:    decimal.Zero,
		PointsValue: decimal.Zero,
		Currency:    currency,
	}

	for _, l := range lines {
		lq, err := PriceLine(l)
		if err != nil {
			return nil, err
		}
		q.Lines = append(q.Lines, lq)
		q.Subtotal = q.Subtotal.Add(lq.Subtotal)
		q.Tax = q.Tax.Add(lq.Tax)
	}

	if adj.Coupon != nil {
		discount, err := adj.Coupon.Discount(q.Subtotal)
		if err != nil {
			return nil, err
		}
		q.Discount = discount
		q.CouponCode = adj.CouponCode

		parts := Allocate(discount, lineWeights(q.Lines, func(l LineQuote) decimal.Decimal { return l.Subtotal }), 2)
		for i := range q.Lines {
			q.Lines[i].Discount = parts[i]
		}
	}

	if adj.Points > 0 && adj.PointValue.IsPositive() {
		ceiling := q.Subtotal.Add(q.Tax).Sub(q.Discount)
		used := adj.Points
		if maxUsable := ceiling.Div(adj.PointValue).Floor().IntPart(); int64(used) > maxUsable {
			used = int(maxUsable)
		}
		q.PointsUsed = used
		q.PointsValue = adj.PointValue.Mul(decimal.NewFromInt(int64(used))).Round(2)

		weights := lineWeights(q.Lines, func(l LineQuote) decimal.Decimal {
			return l.Subtotal.Add(l.Tax).Sub(l.Discount)
		})
		values := Allocate(q.PointsValue, weights, 2)
		counts := Allocate(decimal.NewFromInt(int64(used)), weights, 0)
		for i := range q.Lines {
			q.Lines[i].PointsValue = values[i]
			q.Lines[i].PointsUsed = int(counts[i].IntPart())
		}
	}

	for i := range q.Lines {
		l := &q.Lines[i]
		l.Total = l.Subtotal.Add(l.Tax).Sub(l.Discount).Sub(l.PointsValue)
		if l.Total.IsNegative() {
			return nil, ErrNegativeTotal
		}
	}
	q.Total = q.Subtotal.Add(q.Tax).Sub(q.Discount).Sub(q.PointsValue)

	return q, nil
}

func lineWeights(lines []LineQuote, f func(LineQuote) decimal.Decimal) []decimal.Decimal {
	w := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		w[i] = f(l)
	}
	return w
}

// Allocate splits amount across weights proportionally in steps of
// 10^-places. Shares are truncated first and the leftover steps go to the
// shares with the largest truncated fraction, lowest index first, so the parts
// always sum to amount exactly. When amount fits within the total weight no
// part exceeds its own weight. Zero total weight splits evenly.
func Allocate(amount decimal.Decimal, weights []decimal.Decimal, places int32) []decimal.Decimal {
	n := len(weights)
	parts := make([]decimal.Decimal, n)
	if n == 0 {
		return parts
	}

	total := decimal.Zero
	for _, w := range weights {
		total = total.Add(w)
	}
	capped := !total.IsZero() && amount.LessThanOrEqual(total)

	fractions := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	for i := range weights {
		var share decimal.Decimal
		if total.IsZero() {
			share = amount.Div(decimal.NewFromInt(int64(n)))
		} else {
			share = amount.Mul(weights[i]).Div(total)
		}
		parts[i] = share.Truncate(places)
		fractions[i] = share.Sub(parts[i])
		allocated = allocated.Add(parts[i])
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fractions[order[a]].GreaterThan(fractions[order[b]])
	})

	step := decimal.New(1, -places)
	leftover := amount.Sub(allocated)
	for leftover.GreaterThanOrEqual(step) {
		given := false
		for _, i := range order {
			if leftover.LessThan(step) {
				break
			}
			if capped && parts[i].Add(step).GreaterThan(weights[i]) {
				continue
			}
			parts[i] = parts[i].Add(step)
			leftover = leftover.Sub(step)
			given = true
		}
		if !given {
			break
		}
	}
	if !leftover.IsZero() {
		parts[order[0]] = parts[order[0]].Add(leftover)
	}

	return parts
}
