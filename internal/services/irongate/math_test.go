package irongate

import (
	"math"
	"testing"

	"github.com/ternarybob/mgp/internal/models"
)

func TestCAGR(t *testing.T) {
	tests := []struct {
		name   string
		start  float64
		end    float64
		years  float64
		want   float64
		margin float64 // acceptable error margin
	}{
		{
			name:   "100% growth over 1 year",
			start:  100,
			end:    200,
			years:  1,
			want:   1.0,
			margin: 0.001,
		},
		{
			name:   "no growth",
			start:  100,
			end:    100,
			years:  3,
			want:   0,
			margin: 0.001,
		},
		{
			name:   "30% annual growth over 3 years",
			start:  100,
			end:    219.7,
			years:  3,
			want:   0.3,
			margin: 0.0001,
		},
		{
			name:   "shrinking revenue",
			start:  200,
			end:    100,
			years:  1,
			want:   -0.5,
			margin: 0.001,
		},
		{
			name:   "zero start is neutral",
			start:  0,
			end:    100,
			years:  1,
			want:   0,
			margin: 0,
		},
		{
			name:   "negative start is neutral",
			start:  -50,
			end:    100,
			years:  2,
			want:   0,
			margin: 0,
		},
		{
			name:   "zero years is neutral",
			start:  100,
			end:    200,
			years:  0,
			want:   0,
			margin: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CAGR(tt.start, tt.end, tt.years)
			if math.Abs(got-tt.want) > tt.margin {
				t.Errorf("CAGR(%v, %v, %v) = %v, want %v (±%v)", tt.start, tt.end, tt.years, got, tt.want, tt.margin)
			}
		})
	}
}

func TestCAGR_MonotonicInEndValue(t *testing.T) {
	prev := CAGR(100, 50, 3)
	for end := 60.0; end <= 400; end += 10 {
		got := CAGR(100, end, 3)
		if got <= prev {
			t.Fatalf("CAGR not strictly increasing at end=%v: %v <= %v", end, got, prev)
		}
		prev = got
	}
}

func TestLinearSlope(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty", values: nil, want: 0},
		{name: "single point", values: []float64{0.5}, want: 0},
		{name: "flat", values: []float64{0.6, 0.6, 0.6, 0.6}, want: 0},
		{name: "two points", values: []float64{0.5, 0.52}, want: 0.02},
		{name: "rising line", values: []float64{0.40, 0.41, 0.42, 0.43, 0.44, 0.45}, want: 0.01},
		{name: "falling line", values: []float64{0.60, 0.58, 0.56, 0.54}, want: -0.02},
		{name: "noisy upward", values: []float64{1, 3, 2, 4}, want: 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LinearSlope(tt.values)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LinearSlope(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestGrowthRate(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		prior   float64
		want    float64
		wantOK  bool
	}{
		{name: "positive growth", current: 125, prior: 100, want: 0.25, wantOK: true},
		{name: "decline", current: 80, prior: 100, want: -0.2, wantOK: true},
		{name: "zero prior", current: 100, prior: 0, wantOK: false},
		{name: "negative prior", current: 100, prior: -10, wantOK: false},
		{name: "infinite current", current: math.Inf(1), prior: 10, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := GrowthRate(tt.current, tt.prior)
			if ok != tt.wantOK {
				t.Fatalf("GrowthRate ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("GrowthRate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrossMargins_OldestFirstSkippingNonPositiveRevenue(t *testing.T) {
	quarterly := []models.FinancialPeriod{
		{Revenue: 100, GrossProfit: 70}, // latest
		{Revenue: 0, GrossProfit: 10},
		{Revenue: 100, GrossProfit: 60},
		{Revenue: 100, GrossProfit: 50}, // outside window of 3
	}

	got := GrossMargins(quarterly, 3)
	want := []float64{0.6, 0.7}
	if len(got) != len(want) {
		t.Fatalf("GrossMargins len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("GrossMargins[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOpexGrowth(t *testing.T) {
	quarterly := []models.FinancialPeriod{
		{OperatingExpenses: 150},
		{OperatingExpenses: 120},
		{OperatingExpenses: 110},
		{OperatingExpenses: 105},
		{OperatingExpenses: 100},
	}
	if got := OpexGrowth(quarterly, 5); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("OpexGrowth = %v, want 0.5", got)
	}

	quarterly[4].OperatingExpenses = 0
	if got := OpexGrowth(quarterly, 5); got != 0 {
		t.Errorf("OpexGrowth with zero prior = %v, want 0", got)
	}

	if got := OpexGrowth(quarterly[:3], 5); got != 0 {
		t.Errorf("OpexGrowth with short series = %v, want 0", got)
	}
}
