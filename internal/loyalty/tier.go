// Package loyalty holds the discount policy and the spend ledger that
// drives it.
package loyalty

// Spend thresholds for each tier, in currency units.
const (
	GoldThreshold    int64 = 10_000_000
	DiamondThreshold int64 = 100_000_000
)

// Tier is a loyalty level and the discount it grants.
type Tier struct {
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

var (
	TierMember  = Tier{Percent: 0, Label: "Member"}
	TierGold    = Tier{Percent: 10, Label: "Gold VIP (10% off)"}
	TierDiamond = Tier{Percent: 15, Label: "Diamond VIP (15% off)"}
)

// TierFor maps cumulative spend to a tier.
func TierFor(spend int64) Tier {
	switch {
	case spend >= DiamondThreshold:
		return TierDiamond
	case spend >= GoldThreshold:
		return TierGold
	default:
		return TierMember
	}
}

// DiscountOn returns the discount on subtotal, rounded down.
func (t Tier) DiscountOn(subtotal int64) int64 {
	if t.Percent <= 0 || subtotal <= 0 {
		return 0
	}
	return subtotal * int64(t.Percent) / 100
}
