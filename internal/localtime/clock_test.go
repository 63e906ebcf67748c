package localtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) (*Clock, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation(DefaultZone)
	require.NoError(t, err)
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, loc)
	return NewClock(loc, func() time.Time { return now }), now
}

func TestFromMillis(t *testing.T) {
	c, now := fixedClock(t)

	assert.Nil(t, c.FromMillis(0))

	got := c.FromMillis(now.UnixMilli())
	require.NotNil(t, got)
	assert.True(t, got.Equal(now))
	assert.Equal(t, DefaultZone, got.Location().String())
}

func TestNowIsInAgencyZone(t *testing.T) {
	loc, err := time.LoadLocation(DefaultZone)
	require.NoError(t, err)
	utc := time.Date(2024, 7, 1, 19, 30, 0, 0, time.UTC)
	c := NewClock(loc, func() time.Time { return utc })

	now := c.Now()
	assert.Equal(t, 12, now.Hour())
	assert.Equal(t, loc, now.Location())
}

func TestLoadClock(t *testing.T) {
	c, err := LoadClock("")
	require.NoError(t, err)
	assert.Equal(t, DefaultZone, c.Location().String())

	_, err = LoadClock("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestNiceTime(t *testing.T) {
	c, now := fixedClock(t)

	tests := []struct {
		at          time.Time
		withSeconds bool
		want        string
	}{
		{now, false, "12:00 p.m."},
		{now.Add(-12 * time.Hour), false, "12:00 a.m."},
		{now.Add(3*time.Hour + 7*time.Minute), false, "3:07 p.m."},
		{now.Add(-2*time.Hour + 5*time.Second), true, "10:00:05 a.m."},
		{now.Add(11*time.Hour + 59*time.Minute + 59*time.Second), true, "11:59:59 p.m."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.NiceTime(tt.at, tt.withSeconds))
	}
}

func TestNiceDelta(t *testing.T) {
	c, now := fixedClock(t)

	tests := []struct {
		name        string
		in          time.Duration
		withSeconds bool
		want        string
	}{
		{"past", -2 * time.Minute, false, "Due"},
		{"due boundary", 30 * time.Second, false, "Due"},
		{"under a minute", 31 * time.Second, false, "Less than a minute"},
		{"one minute", time.Minute, false, "1 minute"},
		{"leftover not rounded", 5*time.Minute + 45*time.Second, false, "5 minutes"},
		{"leftover rounded up", 5*time.Minute + 46*time.Second, false, "6 minutes"},
		{"carry into hour", 59*time.Minute + 50*time.Second, false, "1 hour"},
		{"hour and minute", time.Hour + time.Minute, false, "1 hour, 1 minute"},
		{"days", 49*time.Hour + 2*time.Minute, false, "2 days, 1 hour, 2 minutes"},
		{"with seconds", 2*time.Minute + 5*time.Second, true, "2 minutes, 5 seconds"},
		{"with seconds no rounding", 5*time.Minute + 50*time.Second, true, "5 minutes, 50 seconds"},
		{"with one second", time.Hour + time.Second, true, "1 hour, 1 second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.NiceDelta(now.Add(tt.in), tt.withSeconds))
		})
	}
}

func TestSecondsUntil(t *testing.T) {
	_, now := fixedClock(t)
	assert.Equal(t, int64(60), SecondsUntil(now, now.Add(60*time.Second+999*time.Millisecond)))
	assert.Equal(t, int64(-5), SecondsUntil(now, now.Add(-5*time.Second)))
}
