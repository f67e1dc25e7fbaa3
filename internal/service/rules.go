package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/and161185/ecocycle/internal/model"
)

// Recycling eligibility thresholds keyed by lower-cased category.
var eligibilityThresholds = map[string]time.Duration{
	"clothing":    1 * time.Minute,
	"electronics": 2 * time.Minute,
	"plastic":     1 * time.Minute,
	"furniture":   3 * time.Minute,
}

// DefaultEligibilityThreshold applies to categories missing from the table.
const DefaultEligibilityThreshold = 3 * time.Minute

// Carbon values keyed by lower-cased product type.
var carbonValues = map[string]int64{
	"electronics": 100,
	"plastic":     50,
	"clothing":    30,
	"furniture":   70,
}

// DefaultCarbonValue applies to types missing from the table.
const DefaultCarbonValue = 20

var (
	baseCostRatio = decimal.NewFromFloat(0.5)
	recyclerShare = decimal.NewFromFloat(0.7)
)

// EligibilityThreshold is the minimum listing age before a product in
// category may be approved for recycling.
func EligibilityThreshold(category string) time.Duration {
	if d, ok := eligibilityThresholds[strings.ToLower(category)]; ok {
		return d
	}
	return DefaultEligibilityThreshold
}

// IsEligible reports whether p may be approved for recycling at now.
// It is recomputed on every call and never stored.
func IsEligible(p *model.Product, now time.Time) bool {
	return p.Status == model.StatusAvailable && now.Sub(p.UploadedAt) > EligibilityThreshold(p.Category)
}

// CarbonValue is the credit pool awarded for recycling a product of productType.
func CarbonValue(productType string) float64 {
	if v, ok := carbonValues[strings.ToLower(productType)]; ok {
		return float64(v)
	}
	return DefaultCarbonValue
}

// BaseCost is the minimum acceptable recycling bid for a listing price.
// It is not rounded: half of 10.01 is 5.005.
func BaseCost(price float64) float64 {
	return baseCost(price).InexactFloat64()
}

func baseCost(price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(baseCostRatio)
}

// CoversBaseCost reports whether bid reaches the base cost of price.
func CoversBaseCost(bid, price float64) bool {
	return decimal.NewFromFloat(bid).GreaterThanOrEqual(baseCost(price))
}

// ValidAmount reports whether v can be a price or bid: finite and not negative.
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// SplitCredits divides total between recycler (70%) and seller (the rest),
// rounded to cents so the shares always add up to total.
func SplitCredits(total float64) (recycler, seller float64) {
	t := decimal.NewFromFloat(total)
	r := t.Mul(recyclerShare).Round(2)
	return r.InexactFloat64(), t.Sub(r).InexactFloat64()
}

// sum adds prices without accumulating binary rounding error.
func sum(prices ...float64) float64 {
	total := decimal.Zero
	for _, p := range prices {
		total = total.Add(decimal.NewFromFloat(p))
	}
	return total.Round(2).InexactFloat64()
}

// Categories lists the categories with a dedicated eligibility threshold.
func Categories() []string {
	out := make([]string, 0, len(eligibilityThresholds))
	for c := range eligibilityThresholds {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
