package amgp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrDateOutOfRange is returned for dates before any surface record.
	ErrDateOutOfRange = errors.New("the date you entered is out of range")
	// ErrBadDate is returned when a date spec cannot be parsed.
	ErrBadDate = errors.New("invalid date")
)

var (
	earliestDate  = time.Date(1931, 1, 2, 0, 0, 0, 0, time.UTC)
	earliestGrids = time.Date(1979, 1, 1, 0, 0, 0, 0, time.UTC)
)

// MapTime holds the three data times derived from one requested date: the
// surface observation time, the upper-air sounding time and the gridded
// model cycle.
type MapTime struct {
	Obs     time.Time
	Upper   time.Time
	Gridded time.Time

	// NoGridded is set for dates before gridded reanalysis begins.
	NoGridded bool
}

// SnapSynoptic floors t to the 3-hourly synoptic hour.
func SnapSynoptic(t time.Time) time.Time {
	return t.UTC().Truncate(3 * time.Hour)
}

// SnapUpperAir floors t to the 00Z/12Z sounding time.
func SnapUpperAir(t time.Time) time.Time {
	return t.UTC().Truncate(12 * time.Hour)
}

// SnapModelCycle floors t to the 6-hourly model cycle.
func SnapModelCycle(t time.Time) time.Time {
	return t.UTC().Truncate(6 * time.Hour)
}

// SnapRecentModelCycle returns the latest model cycle that is at least three
// hours old at t, which is the newest run the servers reliably carry. Hours
// 00-02 roll back to 18Z of the previous day.
func SnapRecentModelCycle(t time.Time) time.Time {
	return SnapModelCycle(t.Add(-3 * time.Hour))
}

// ParseDate resolves a date spec ("recent", "today, HH" or
// "YYYY, MM, DD, HH") against the package clock.
func ParseDate(spec string) (MapTime, error) {
	now := clock.Now().UTC()
	parts := splitList(spec, ",")
	if len(parts) == 0 {
		return MapTime{}, fmt.Errorf("%w: empty date", ErrBadDate)
	}

	if parts[0] == "recent" {
		mt := MapTime{
			Obs:     SnapSynoptic(now),
			Upper:   SnapUpperAir(now),
			Gridded: SnapRecentModelCycle(now),
		}
		return mt, nil
	}

	var given time.Time
	if parts[0] == "today" {
		if len(parts) != 2 {
			return MapTime{}, fmt.Errorf("%w: expected 'today, HH', got %q", ErrBadDate, spec)
		}
		hour, err := strconv.Atoi(parts[1])
		if err != nil || hour < 0 || hour > 23 {
			return MapTime{}, fmt.Errorf("%w: bad hour %q", ErrBadDate, parts[1])
		}
		given = time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	} else {
		if len(parts) != 4 {
			return MapTime{}, fmt.Errorf("%w: expected 'YYYY, MM, DD, HH', got %q", ErrBadDate, spec)
		}
		var nums [4]int
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return MapTime{}, fmt.Errorf("%w: %q is not a number", ErrBadDate, p)
			}
			nums[i] = n
		}
		if nums[1] < 1 || nums[1] > 12 || nums[2] < 1 || nums[2] > 31 || nums[3] < 0 || nums[3] > 23 {
			return MapTime{}, fmt.Errorf("%w: %q", ErrBadDate, spec)
		}
		given = time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], 0, 0, 0, time.UTC)
		if given.Day() != nums[2] {
			return MapTime{}, fmt.Errorf("%w: %s has no day %d", ErrBadDate, time.Month(nums[1]), nums[2])
		}
	}

	return FromTime(given)
}

// FromTime snaps an explicit time into a MapTime.
func FromTime(given time.Time) (MapTime, error) {
	given = given.UTC()
	if given.Before(earliestDate) {
		return MapTime{}, fmt.Errorf("%w: %s", ErrDateOutOfRange, given.Format("2006-01-02"))
	}
	mt := MapTime{
		Obs:     SnapSynoptic(given),
		Upper:   SnapUpperAir(given),
		Gridded: SnapModelCycle(given),
	}
	if given.Before(earliestGrids) {
		logger().Warnf("the date %s is out of range for gridded data", given.Format("2006-01-02"))
		mt.NoGridded = true
	}
	return mt, nil
}

// Shift moves the observation time by the given number of hours and snaps
// the result again, as a batch loop does between frames.
func (mt MapTime) Shift(hours int) (MapTime, error) {
	return FromTime(mt.Obs.Add(time.Duration(hours) * time.Hour))
}

// String renders the observation time as a date spec that ParseDate accepts.
func (mt MapTime) String() string {
	t := mt.Obs
	return fmt.Sprintf("%d, %d, %d, %d", t.Year(), int(t.Month()), t.Day(), t.Hour())
}

// DayStamp formats t as YYYY-MM-DD, the per-day output directory name.
func DayStamp(t time.Time) string {
	return t.Format("2006-01-02")
}

// NumStamp formats t as YYYY-MM-DD-HHZ.
func NumStamp(t time.Time) string {
	return t.Format("2006-01-02-15") + "Z"
}

// AlpStamp formats t as "Jan 2, 2006 - 21Z", used in map titles.
func AlpStamp(t time.Time) string {
	return fmt.Sprintf("%s %d, %d - %dZ", t.Format("Jan"), t.Day(), t.Year(), t.Hour())
}

// splitList splits s on sep, trims each element and drops empty ones.
func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
