// Package schedule implements the attendance time arithmetic shared by the
// scan classifier and the class validation layer. Times travel through the
// system as 12-hour "hh:mm AM/PM" strings, the format the kiosk clients
// display and submit; this package converts them to minutes since midnight
// for comparison. Functions return sentinel values (-1, "", "N/A") instead
// of errors so callers stay in control of user-facing messaging.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GracePeriodMinutes is the allowance after class start before an IN scan is
// classified Late.
const GracePeriodMinutes = 5

// Sentinel values used by the conversion helpers.
const (
	NoTime        = "N/A"
	InvalidMinute = -1
)

const (
	separator   = " - "
	clockLayout = "03:04 PM"
	dateLayout  = "2006-01-02"
)

// Clock formats a wall-clock instant as a 12-hour "hh:mm AM/PM" string.
func Clock(t time.Time) string {
	return t.Format(clockLayout)
}

// Day formats a wall-clock instant as an ISO "YYYY-MM-DD" date string.
func Day(t time.Time) string {
	return t.Format(dateLayout)
}

// TimeToMinutes converts a 12-hour "hh:mm AM/PM" string into minutes since
// midnight. Empty, "N/A" and malformed input yield InvalidMinute.
func TimeToMinutes(timeStr string) int {
	if timeStr == "" || timeStr == NoTime {
		return InvalidMinute
	}

	clock, period, ok := strings.Cut(timeStr, " ")
	if !ok {
		return InvalidMinute
	}
	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return InvalidMinute
	}

	hours, err := strconv.Atoi(hh)
	if err != nil {
		return InvalidMinute
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return InvalidMinute
	}
	if hours < 1 || hours > 12 || minutes < 0 || minutes > 59 {
		return InvalidMinute
	}

	switch period {
	case "PM":
		if hours != 12 {
			hours += 12
		}
	case "AM":
		if hours == 12 {
			hours = 0
		}
	default:
		return InvalidMinute
	}

	return hours*60 + minutes
}

// MinutesToAmPm converts minutes since midnight back into a zero-padded
// 12-hour "hh:mm AM/PM" string. Negative input yields NoTime.
func MinutesToAmPm(minutes int) string {
	if minutes < 0 {
		return NoTime
	}

	h := minutes / 60
	m := minutes % 60

	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}

	return fmt.Sprintf("%02d:%02d %s", display, m, period)
}

// To24Hour converts a single 12-hour time string into zero-padded "HH:MM".
// Invalid input yields the empty string.
func To24Hour(timeStr string) string {
	total := TimeToMinutes(timeStr)
	if total == InvalidMinute {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Bounds holds the 24-hour boundaries of a class schedule.
type Bounds struct {
	Start24 string `json:"start24"`
	End24   string `json:"end24"`
}

// ParseTo24Hr splits a composite "hh:mm AM/PM - hh:mm AM/PM" schedule string
// into 24-hour start and end boundaries. When the separator is absent both
// fields are empty.
func ParseTo24Hr(scheduleStr string) Bounds {
	start, end, ok := split(scheduleStr)
	if !ok {
		return Bounds{}
	}
	return Bounds{Start24: To24Hour(start), End24: To24Hour(end)}
}

// IsLate reports whether an IN scan at scanTime falls past the schedule's
// start time plus the grace period.
func IsLate(scanTime, scheduleStr string) bool {
	start, _, ok := split(scheduleStr)
	if !ok {
		return false
	}

	scanMinutes := TimeToMinutes(scanTime)
	startMinutes := TimeToMinutes(start)
	if scanMinutes == InvalidMinute || startMinutes == InvalidMinute {
		return false
	}

	return scanMinutes > startMinutes+GracePeriodMinutes
}

// IsOverdue reports whether the wall clock (as a 12-hour string) is strictly
// past the schedule's end time.
func IsOverdue(scheduleStr, now string) bool {
	_, end, ok := split(scheduleStr)
	if !ok {
		return false
	}

	nowMinutes := TimeToMinutes(now)
	endMinutes := TimeToMinutes(end)
	if nowMinutes == InvalidMinute || endMinutes == InvalidMinute {
		return false
	}

	return nowMinutes > endMinutes
}

// Validate checks that a schedule string has two parseable boundaries and
// that the end time falls strictly after the start time.
func Validate(scheduleStr string) error {
	start, end, ok := split(scheduleStr)
	if !ok {
		return fmt.Errorf("schedule %q must use the form \"hh:mm AM/PM - hh:mm AM/PM\"", scheduleStr)
	}

	startMinutes := TimeToMinutes(start)
	endMinutes := TimeToMinutes(end)
	if startMinutes == InvalidMinute {
		return fmt.Errorf("invalid schedule start time %q", start)
	}
	if endMinutes == InvalidMinute {
		return fmt.Errorf("invalid schedule end time %q", end)
	}
	if endMinutes <= startMinutes {
		return fmt.Errorf("schedule end %q must be after start %q", end, start)
	}

	return nil
}

func split(scheduleStr string) (start, end string, ok bool) {
	if scheduleStr == "" {
		return "", "", false
	}
	return strings.Cut(scheduleStr, separator)
}
