package checks

// ScoreOutsideAllowedHours is the single fixed penalty when the time-of-day
// policy denies the current hour. The check is pass/fail, never additive
// with itself.
const ScoreOutsideAllowedHours = 50

// TimeOfDayResult is the raw sub-result surfaced in ValidationResult.Details.
type TimeOfDayResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CheckTimeOfDay evaluates currentHour (0-23) against the allowed window
// [startHour, endHour). A start greater than end means an overnight window,
// e.g. 20->8 allows evenings and early mornings.
func CheckTimeOfDay(currentHour, startHour, endHour int) TimeOfDayResult {
	res := TimeOfDayResult{Allowed: true}

	if startHour <= endHour {
		if currentHour < startHour || currentHour >= endHour {
			res.Allowed = false
			res.Reason = ReasonOutsideAllowedHours
		}
	} else {
		// overnight window: denied hours are the complement [end, start)
		if currentHour < startHour && currentHour >= endHour {
			res.Allowed = false
			res.Reason = ReasonOutsideAllowedHours
		}
	}

	return res
}
