package models

import (
	"time"
)

// PlanType categorizes an allocation plan by its intent
type PlanType string

const (
	PlanTypeConservative PlanType = "Conservative"
	PlanTypeBalanced     PlanType = "Balanced"
	PlanTypeGrowth       PlanType = "Growth"
	PlanTypeCustom       PlanType = "Custom"
)

// AssetClass is a closed enumeration of supported asset classes.
// Adding a class requires a schema bump, not runtime registration.
type AssetClass string

const (
	AssetClassStablecoin     AssetClass = "Stablecoin"
	AssetClassRealWorldAsset AssetClass = "RealWorldAsset"
	AssetClassLiquidity      AssetClass = "Liquidity"
	AssetClassCrypto         AssetClass = "Crypto"
)

// assetClassRiskFactors maps each asset class to its fixed risk factor (1-10).
// Display-only; feeds the plan risk score.
var assetClassRiskFactors = map[AssetClass]int64{
	AssetClassStablecoin:     1,
	AssetClassRealWorldAsset: 3,
	AssetClassLiquidity:      5,
	AssetClassCrypto:         8,
}

// RiskFactor returns the fixed risk factor for the asset class, or 0 if the
// class is unknown.
func (a AssetClass) RiskFactor() int64 {
	return assetClassRiskFactors[a]
}

// Valid reports whether the asset class is a known enum value.
func (a AssetClass) Valid() bool {
	_, ok := assetClassRiskFactors[a]
	return ok
}

// TotalBps is the whole-plan allocation in basis points (100%).
const TotalBps int64 = 10000

// AllocationTarget represents one asset leg of a plan.
// Uses composite primary key (plan_id, position) - insertion order is stored.
type AllocationTarget struct {
	PlanID     int64      `json:"plan_id"`
	Position   int        `json:"position"`
	AssetClass AssetClass `json:"asset_class"`
	Token      string     `json:"token"`
	TargetBps  int64      `json:"target_bps"`
	MinBps     int64      `json:"min_bps"`
	MaxBps     int64      `json:"max_bps"`
}

// Plan represents an administrator-defined allocation plan
type Plan struct {
	ID        int64     `json:"id"`
	PlanType  PlanType  `json:"plan_type"`
	Name      string    `json:"name"`
	RiskScore int64     `json:"risk_score"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlanWithTargets combines a plan with its ordered allocation targets
type PlanWithTargets struct {
	Plan    Plan               `json:"plan"`
	Targets []AllocationTarget `json:"targets"`
}

// RiskScore computes the bps-weighted average of the targets' asset-class
// risk factors, rounded half-up at the final step. Targets are assumed to
// sum to TotalBps.
func RiskScore(targets []AllocationTarget) int64 {
	var weighted int64
	for _, t := range targets {
		weighted += t.TargetBps * t.AssetClass.RiskFactor()
	}
	return (weighted + TotalBps/2) / TotalBps
}
