package samples

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Dimension groups units that convert into one another.
type Dimension string

const (
	Weight Dimension = "weight"
	Length Dimension = "length"
	Count  Dimension = "count"
	Volume Dimension = "volume"
)

// Unit is one unit of measurement with its factor to the dimension base unit.
type Unit struct {
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	Dimension Dimension `json:"dimension"`
	factor    decimal.Decimal
}

var (
	ErrUnknownUnit      = errors.New("unknown unit")
	ErrIncompatibleUnit = errors.New("units are not compatible")
)

// Factors are expressed against g, m, pcs and l.
var units = []Unit{
	{Code: "kg", Label: "Kilogram", Dimension: Weight, factor: decimal.NewFromInt(1000)},
	{Code: "g", Label: "Gram", Dimension: Weight, factor: decimal.NewFromInt(1)},
	{Code: "mg", Label: "Milligram", Dimension: Weight, factor: decimal.RequireFromString("0.001")},
	{Code: "lb", Label: "Pound", Dimension: Weight, factor: decimal.RequireFromString("453.59237")},
	{Code: "oz", Label: "Ounce", Dimension: Weight, factor: decimal.RequireFromString("28.349523125")},
	{Code: "m", Label: "Meter", Dimension: Length, factor: decimal.NewFromInt(1)},
	{Code: "cm", Label: "Centimeter", Dimension: Length, factor: decimal.RequireFromString("0.01")},
	{Code: "mm", Label: "Millimeter", Dimension: Length, factor: decimal.RequireFromString("0.001")},
	{Code: "inch", Label: "Inch", Dimension: Length, factor: decimal.RequireFromString("0.0254")},
	{Code: "yard", Label: "Yard", Dimension: Length, factor: decimal.RequireFromString("0.9144")},
	{Code: "ft", Label: "Foot", Dimension: Length, factor: decimal.RequireFromString("0.3048")},
	{Code: "pcs", Label: "Pieces", Dimension: Count, factor: decimal.NewFromInt(1)},
	{Code: "dozen", Label: "Dozen", Dimension: Count, factor: decimal.NewFromInt(12)},
	{Code: "gross", Label: "Gross", Dimension: Count, factor: decimal.NewFromInt(144)},
	{Code: "pair", Label: "Pair", Dimension: Count, factor: decimal.NewFromInt(2)},
	{Code: "l", Label: "Liter", Dimension: Volume, factor: decimal.NewFromInt(1)},
	{Code: "ml", Label: "Milliliter", Dimension: Volume, factor: decimal.RequireFromString("0.001")},
}

var unitIndex = func() map[string]Unit {
	idx := make(map[string]Unit, len(units))
	for _, u := range units {
		idx[u.Code] = u
	}
	return idx
}()

// Units returns the unit table in display order.
func Units() []Unit {
	out := make([]Unit, len(units))
	copy(out, units)
	return out
}

// LookupUnit finds a unit by code, case-insensitively.
func LookupUnit(code string) (Unit, bool) {
	u, ok := unitIndex[strings.ToLower(strings.TrimSpace(code))]
	return u, ok
}

// CompatibleUnits lists the other unit codes of the same dimension. Unknown codes
// have no compatible units.
func CompatibleUnits(code string) []string {
	u, ok := LookupUnit(code)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, 5)
	for _, other := range units {
		if other.Dimension == u.Dimension && other.Code != u.Code {
			out = append(out, other.Code)
		}
	}
	return out
}

// Convert converts qty between two units of the same dimension, rounded to four places.
func Convert(qty decimal.Decimal, from, to string) (decimal.Decimal, error) {
	src, ok := LookupUnit(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownUnit, from)
	}
	dst, ok := LookupUnit(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownUnit, to)
	}
	if src.Dimension != dst.Dimension {
		return decimal.Zero, fmt.Errorf("%w: %s to %s", ErrIncompatibleUnit, src.Code, dst.Code)
	}
	return qty.Mul(src.factor).DivRound(dst.factor, 12).Round(4), nil
}

// Dimensions returns the dimension names present in the unit table, sorted.
func Dimensions() []Dimension {
	seen := map[Dimension]bool{}
	var out []Dimension
	for _, u := range units {
		if !seen[u.Dimension] {
			seen[u.Dimension] = true
			out = append(out, u.Dimension)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
