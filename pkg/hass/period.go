package hass

import (
	"fmt"
	"time"

	"github.com/raterudder/powerflow/pkg/types"
)

// Period returns the statistics window for an energy date selection, in the
// location of now. The window always ends at now or at a day boundary.
func Period(selection string, now time.Time) (time.Time, time.Time, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch selection {
	case "", types.DateSelectionToday:
		return today, now, nil
	case types.DateSelectionYesterday:
		return today.AddDate(0, 0, -1), today, nil
	case types.DateSelectionThisWeek:
		// weeks start on monday
		offset := (int(today.Weekday()) + 6) % 7
		return today.AddDate(0, 0, -offset), now, nil
	case types.DateSelectionThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), now, nil
	case types.DateSelectionThisYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), now, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown energy date selection: %s", selection)
	}
}
