package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeToMinutesSentinels(t *testing.T) {
	assert.Equal(t, InvalidMinute, TimeToMinutes(""))
	assert.Equal(t, InvalidMinute, TimeToMinutes("N/A"))
	assert.Equal(t, InvalidMinute, TimeToMinutes("not a time"))
	assert.Equal(t, InvalidMinute, TimeToMinutes("13:00 PM"))
	assert.Equal(t, InvalidMinute, TimeToMinutes("09:61 AM"))
	assert.Equal(t, InvalidMinute, TimeToMinutes("09:30 XX"))
}

func TestTimeToMinutesBoundaries(t *testing.T) {
	assert.Equal(t, 0, TimeToMinutes("12:00 AM"))
	assert.Equal(t, 720, TimeToMinutes("12:00 PM"))
	assert.Equal(t, 785, TimeToMinutes("01:05 PM"))
	assert.Equal(t, 570, TimeToMinutes("09:30 AM"))
	assert.Equal(t, 1439, TimeToMinutes("11:59 PM"))
	assert.Equal(t, 1, TimeToMinutes("12:01 AM"))
}

func TestMinutesToAmPm(t *testing.T) {
	assert.Equal(t, "N/A", MinutesToAmPm(-1))
	assert.Equal(t, "12:00 AM", MinutesToAmPm(0))
	assert.Equal(t, "12:00 PM", MinutesToAmPm(720))
	assert.Equal(t, "01:05 PM", MinutesToAmPm(785))
	assert.Equal(t, "11:59 PM", MinutesToAmPm(1439))
	assert.Equal(t, "09:05 AM", MinutesToAmPm(545))
}

func TestRoundTripLaw(t *testing.T) {
	for minutes := 0; minutes < 24*60; minutes++ {
		s := MinutesToAmPm(minutes)
		require.Equal(t, minutes, TimeToMinutes(s), "round trip failed for %s", s)
	}
}

func TestRoundTripStrings(t *testing.T) {
	for _, s := range []string{"12:00 AM", "12:00 PM", "01:05 PM", "09:30 AM", "11:59 PM"} {
		assert.Equal(t, s, MinutesToAmPm(TimeToMinutes(s)))
	}
}

func TestTo24Hour(t *testing.T) {
	assert.Equal(t, "09:30", To24Hour("09:30 AM"))
	assert.Equal(t, "23:00", To24Hour("11:00 PM"))
	assert.Equal(t, "00:15", To24Hour("12:15 AM"))
	assert.Equal(t, "12:45", To24Hour("12:45 PM"))
	assert.Equal(t, "", To24Hour(""))
	assert.Equal(t, "", To24Hour("N/A"))
}

func TestParseTo24Hr(t *testing.T) {
	assert.Equal(t, Bounds{Start24: "09:30", End24: "11:00"}, ParseTo24Hr("09:30 AM - 11:00 AM"))
	assert.Equal(t, Bounds{Start24: "13:00", End24: "14:30"}, ParseTo24Hr("01:00 PM - 02:30 PM"))
	assert.Equal(t, Bounds{}, ParseTo24Hr(""))
	assert.Equal(t, Bounds{}, ParseTo24Hr("09:30 AM"))
}

func TestIsLateGracePeriod(t *testing.T) {
	const sched = "09:30 AM - 11:00 AM"

	assert.False(t, IsLate("09:30 AM", sched))
	assert.False(t, IsLate("09:32 AM", sched))
	assert.False(t, IsLate("09:35 AM", sched), "exactly at grace boundary is on time")
	assert.True(t, IsLate("09:36 AM", sched))
	assert.True(t, IsLate("09:37 AM", sched))
	assert.True(t, IsLate("10:00 AM", sched))
	assert.False(t, IsLate("09:00 AM", sched))
	assert.False(t, IsLate("09:40 AM", ""))
}

func TestIsOverdue(t *testing.T) {
	const sched = "09:30 AM - 11:00 AM"

	assert.False(t, IsOverdue(sched, "11:00 AM"))
	assert.True(t, IsOverdue(sched, "11:01 AM"))
	assert.False(t, IsOverdue(sched, "10:59 AM"))
	assert.False(t, IsOverdue("", "11:01 AM"))
	assert.True(t, IsOverdue("09:30 PM - 11:00 PM", "11:30 PM"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("09:30 AM - 11:00 AM"))
	assert.NoError(t, Validate("11:30 AM - 01:00 PM"))
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("09:30 AM"))
	assert.Error(t, Validate("11:00 AM - 09:30 AM"))
	assert.Error(t, Validate("09:30 AM - 09:30 AM"))
	assert.Error(t, Validate("garbage - 11:00 AM"))
	assert.Error(t, Validate("09:30 AM - garbage"))
}

func TestClockAndDay(t *testing.T) {
	at := time.Date(2025, 3, 14, 13, 5, 0, 0, time.UTC)
	assert.Equal(t, "01:05 PM", Clock(at))
	assert.Equal(t, "2025-03-14", Day(at))

	midnight := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "12:00 AM", Clock(midnight))
}

func TestClockRoundTrip(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		at := time.Date(2025, 1, 2, hour, 30, 0, 0, time.UTC)
		s := Clock(at)
		require.Equal(t, hour*60+30, TimeToMinutes(s), fmt.Sprintf("hour %d rendered as %s", hour, s))
	}
}
