// Package engine derives manufacturing economics from a blueprint's raw
// attributes, its priced material list, and the research/fee settings of
// one analysis session. Everything here is a pure function: callers
// re-invoke Compute after any input change instead of relying on
// notification chains.
package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"eve-neic/internal/sde"
)

var hundred = decimal.NewFromInt(100)

// Inputs is the mutable session state for one blueprint under analysis.
// It is owned by the caller and discarded when a different blueprint is
// selected.
type Inputs struct {
	MaterialEfficiency int             // 0-100 percent
	TimeEfficiency     int             // 0-100 percent
	SalesTaxPercent    float64         // >= 0, default 7.5
	BrokerFeePercent   float64         // >= 0, default 3.0
	ProductUnitPrice   decimal.Decimal // lowest sell price of the product
}

// PricedMaterial pairs a raw material requirement with its resolved unit
// price.
type PricedMaterial struct {
	TypeID       int32
	Name         string
	BaseQuantity int32
	UnitPrice    decimal.Decimal
}

// MaterialCost is one derived line of the cost breakdown.
type MaterialCost struct {
	TypeID     int32           `json:"type_id"`
	Name       string          `json:"name"`
	Quantity   int32           `json:"quantity"` // after material efficiency
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Report holds every derived metric for one blueprint run. All fields are
// outputs; none are independently settable.
type Report struct {
	Materials         []MaterialCost  `json:"materials"`
	TotalBuildCost    decimal.Decimal `json:"total_build_cost"`
	ProductionSeconds float64         `json:"production_seconds"`
	ProductionTime    string          `json:"production_time"`
	Revenue           decimal.Decimal `json:"revenue"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	BrokerFee         decimal.Decimal `json:"broker_fee"`
	Profit            decimal.Decimal `json:"profit"`
	MarginPercent     float64         `json:"margin_percent"`
	IskPerHour        float64         `json:"isk_per_hour"`
}

// AdjustedQuantity applies material efficiency to a base quantity.
// Ceiling rounding with a floor of one run guarantees efficiency never
// rounds a non-zero requirement down to zero.
func AdjustedQuantity(base int32, materialEfficiency int) int32 {
	if materialEfficiency <= 0 || base == 0 {
		return base
	}
	if materialEfficiency > 100 {
		materialEfficiency = 100
	}
	adjusted := int32(math.Ceil(float64(base) * (1 - float64(materialEfficiency)/100)))
	if base > 0 && adjusted < 1 {
		adjusted = 1
	}
	return adjusted
}

// AdjustedSeconds applies time efficiency to the base production time.
func AdjustedSeconds(baseSeconds int32, timeEfficiency int) float64 {
	if timeEfficiency < 0 {
		timeEfficiency = 0
	}
	if timeEfficiency > 100 {
		timeEfficiency = 100
	}
	return float64(baseSeconds) * (1 - float64(timeEfficiency)/100)
}

// FormatDuration renders seconds as zero-padded days/hours/minutes/seconds.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	secs := total % 60
	return fmt.Sprintf("%02dd %02dh %02dm %02d", days, hours, minutes, secs)
}

// percentOf returns amount * pct/100 without leaving decimal arithmetic.
func percentOf(amount decimal.Decimal, pct float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(pct)).Div(hundred)
}

// Compute derives the full economics report for one blueprint run.
// Money stays in exact decimals end to end; only the display-only margin
// and isk-per-hour rates drop to floating point.
func Compute(bp sde.BlueprintRecord, materials []PricedMaterial, in Inputs) Report {
	lines := make([]MaterialCost, 0, len(materials))
	total := decimal.Zero
	for _, m := range materials {
		qty := AdjustedQuantity(m.BaseQuantity, in.MaterialEfficiency)
		lineTotal := m.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		lines = append(lines, MaterialCost{
			TypeID:     m.TypeID,
			Name:       m.Name,
			Quantity:   qty,
			UnitPrice:  m.UnitPrice,
			TotalPrice: lineTotal,
		})
		total = total.Add(lineTotal)
	}

	seconds := AdjustedSeconds(bp.ProductionTime, in.TimeEfficiency)

	productQty := bp.ProductQuantity
	if productQty < 1 {
		productQty = 1
	}
	revenue := in.ProductUnitPrice.Mul(decimal.NewFromInt(int64(productQty)))
	tax := percentOf(revenue, in.SalesTaxPercent)
	fee := percentOf(revenue, in.BrokerFeePercent)
	profit := revenue.Sub(tax).Sub(fee).Sub(total)

	margin := 0.0
	if revenue.IsPositive() {
		m, _ := profit.Div(revenue).Mul(hundred).Float64()
		margin = m
	}

	iskPerHour := 0.0
	if seconds > 0 {
		p, _ := profit.Float64()
		iskPerHour = p / seconds * 3600
	}

	return Report{
		Materials:         lines,
		TotalBuildCost:    total,
		ProductionSeconds: seconds,
		ProductionTime:    FormatDuration(seconds),
		Revenue:           revenue,
		TaxAmount:         tax,
		BrokerFee:         fee,
		Profit:            profit,
		MarginPercent:     margin,
		IskPerHour:        iskPerHour,
	}
}
