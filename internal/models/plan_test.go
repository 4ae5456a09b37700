package models

import "testing"

func TestRiskScore(t *testing.T) {
	cases := []struct {
		name    string
		targets []AllocationTarget
		want    int64
	}{
		{
			name: "all stablecoin",
			targets: []AllocationTarget{
				{AssetClass: AssetClassStablecoin, TargetBps: 10000},
			},
			want: 1,
		},
		{
			name: "all crypto",
			targets: []AllocationTarget{
				{AssetClass: AssetClassCrypto, TargetBps: 10000},
			},
			want: 8,
		},
		{
			// 0.70*1 + 0.30*8 = 3.1 rounds down.
			name: "balanced 70/30",
			targets: []AllocationTarget{
				{AssetClass: AssetClassStablecoin, TargetBps: 7000},
				{AssetClass: AssetClassCrypto, TargetBps: 3000},
			},
			want: 3,
		},
		{
			// 0.50*1 + 0.50*8 = 4.5 rounds half-up.
			name: "even split rounds half-up",
			targets: []AllocationTarget{
				{AssetClass: AssetClassStablecoin, TargetBps: 5000},
				{AssetClass: AssetClassCrypto, TargetBps: 5000},
			},
			want: 5,
		},
		{
			name: "four classes",
			targets: []AllocationTarget{
				{AssetClass: AssetClassStablecoin, TargetBps: 4000},
				{AssetClass: AssetClassRealWorldAsset, TargetBps: 3000},
				{AssetClass: AssetClassLiquidity, TargetBps: 2000},
				{AssetClass: AssetClassCrypto, TargetBps: 1000},
			},
			// 0.4*1 + 0.3*3 + 0.2*5 + 0.1*8 = 3.1 rounds down.
			want: 3,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RiskScore(tc.targets); got != tc.want {
				t.Errorf("expected risk score %d, got %d", tc.want, got)
			}
		})
	}
}

func TestAssetClassValid(t *testing.T) {
	for _, class := range []AssetClass{AssetClassStablecoin, AssetClassRealWorldAsset, AssetClassLiquidity, AssetClassCrypto} {
		if !class.Valid() {
			t.Errorf("expected %s to be valid", class)
		}
		if class.RiskFactor() == 0 {
			t.Errorf("expected %s to have a non-zero risk factor", class)
		}
	}
	if AssetClass("Equity").Valid() {
		t.Error("expected unknown class to be invalid")
	}
	if AssetClass("Equity").RiskFactor() != 0 {
		t.Error("expected unknown class to have risk factor 0")
	}
}

func TestInvestmentStatusTerminal(t *testing.T) {
	if InvestmentStatusPending.Terminal() {
		t.Error("Pending must not be terminal")
	}
	if !InvestmentStatusExecuted.Terminal() || !InvestmentStatusFailed.Terminal() {
		t.Error("Executed and Failed must be terminal")
	}
}
