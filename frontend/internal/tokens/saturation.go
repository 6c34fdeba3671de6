package tokens

import "github.com/itchan-dev/forllm/shared/domain"

type Band string

const (
	Nominal  Band = "nominal"
	Warning  Band = "warning"
	Critical Band = "critical"
)

// Thresholds are saturation percentages at which the warning and critical bands start.
type Thresholds struct {
	WarningPct  float64
	CriticalPct float64
}

var DefaultThresholds = Thresholds{WarningPct: 70, CriticalPct: 90}

// Saturation returns total as a percentage of window, clamped to [0, 100].
// An unknown window (zero or negative) counts as empty.
func Saturation(total, window int) float64 {
	if window <= 0 {
		return 0
	}
	pct := float64(total) * 100 / float64(window)
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

func (t Thresholds) Band(pct float64) Band {
	switch {
	case pct >= t.CriticalPct:
		return Critical
	case pct >= t.WarningPct:
		return Warning
	}
	return Nominal
}

// View is a breakdown ready for display.
type View struct {
	Breakdown domain.TokenBreakdown `json:"breakdown"`
	Percent   float64               `json:"percent"`
	Band      Band                  `json:"band"`
}

func (t Thresholds) View(b domain.TokenBreakdown) View {
	pct := Saturation(b.TotalEstimatedTokens, b.ModelContextWindow)
	return View{Breakdown: b, Percent: pct, Band: t.Band(pct)}
}
