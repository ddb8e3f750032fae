package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// m² per pyeong
var pyeongFactor = decimal.RequireFromString("3.3058")

// FormatPrice renders a price in 만원 as 억 with two decimals, or as 만 below one 억.
//
//	125000 -> "12.50억", 100000 -> "10억", 3500 -> "3500만"
func FormatPrice(price int64) string {
	uk := price / 10000
	man := price % 10000

	if uk > 0 {
		if man > 0 {
			return fmt.Sprintf("%d.%02d억", uk, man/100)
		}
		return fmt.Sprintf("%d억", uk)
	}
	return fmt.Sprintf("%d만", price)
}

// Pyeong converts an area in m² to pyeong rounded to one decimal
func Pyeong(m2 float64) float64 {
	if m2 <= 0 {
		return 0
	}
	v, _ := decimal.NewFromFloat(m2).Div(pyeongFactor).Round(1).Float64()
	return v
}
