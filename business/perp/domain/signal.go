package domain

import "time"

// Signal is the indicator verdict for the current price window.
type Signal struct {
	Long  bool
	Short bool
}

// ExitReason explains why an open position was closed.
type ExitReason string

const (
	ExitNone        ExitReason = ""
	ExitLiquidation ExitReason = "liquidation"
	ExitROISignal   ExitReason = "roi_signal"
	ExitReversal    ExitReason = "reversal"
)

// OperatingHours restricts when new positions may be opened. Start is
// inclusive, End exclusive, both hours of the local day.
type OperatingHours struct {
	Enabled bool
	Start   int
	End     int
}

// Allows reports whether a position may be opened at t.
func (h OperatingHours) Allows(t time.Time) bool {
	if !h.Enabled {
		return true
	}
	hour := t.Hour()
	return hour >= h.Start && hour < h.End
}
