package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/robfig/cron/v3"
)

const (
	CadenceWeekly   = "weekly"
	CadenceBiweekly = "biweekly"
	CadenceMonthly  = "monthly"
)

var weekdays = map[string]int{
	"everySunday":    0,
	"everyMonday":    1,
	"everyTuesday":   2,
	"everyWednesday": 3,
	"everyThursday":  4,
	"everyFriday":    5,
	"everySaturday":  6,
}

var monthDays = map[string]string{
	"everyFirst":         "1",
	"everySecond":        "2",
	"everyThird":         "3",
	"everyFourth":        "4",
	"everyFifth":         "5",
	"everySixth":         "6",
	"everySeventh":       "7",
	"everyEighth":        "8",
	"everyNinth":         "9",
	"everyTenth":         "10",
	"everyEleventh":      "11",
	"everyTwelfth":       "12",
	"everyThirteenth":    "13",
	"everyFourteenth":    "14",
	"everyFifteenth":     "15",
	"everySixteenth":     "16",
	"everySeventeenth":   "17",
	"everyEighteenth":    "18",
	"everyNineteenth":    "19",
	"everyTwentieth":     "20",
	"everyTwentyFirst":   "21",
	"everyTwentySecond":  "22",
	"everyTwentyThird":   "23",
	"everyTwentyFourth":  "24",
	"everyTwentyFifth":   "25",
	"everyTwentySixth":   "26",
	"everyTwentySeventh": "27",
	"everyTwentyEighth":  "28",
	// months without the day fall back to their last day
	"everyTwentyNinth": "L",
	"everyThirtieth":   "L",
	"everyThirtyFirst": "L",
}

const biweeklyPattern = "0 0 0 1,16 * *"

// ResolveCadence maps a recurrence title/time pair onto a cron pattern.
// Patterns carry a leading seconds field and fire at 00:01 local time.
func ResolveCadence(title, when string) (Schedule, error) {
	switch title {
	case CadenceWeekly:
		dow, ok := weekdays[when]
		if !ok {
			return Schedule{}, models.Validation(fmt.Sprintf("unknown weekly time %q", when))
		}
		return Schedule{Pattern: fmt.Sprintf("0 1 0 * * %d", dow)}, nil
	case CadenceBiweekly:
		return Schedule{Pattern: biweeklyPattern}, nil
	case CadenceMonthly:
		dom, ok := monthDays[when]
		if !ok {
			return Schedule{}, models.Validation(fmt.Sprintf("unknown monthly time %q", when))
		}
		return Schedule{Pattern: fmt.Sprintf("0 1 0 %s * *", dom)}, nil
	case utils.OneTime, "":
		return Schedule{}, models.Validation("one-time requests have no cadence")
	default:
		return Schedule{}, models.Validation(fmt.Sprintf("unknown cadence %q", title))
	}
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParsePattern parses a six-field cron pattern evaluated in loc. "L" in the
// day-of-month field means the last day of the month.
func ParsePattern(pattern string, loc *time.Location) (cron.Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	fields := strings.Fields(pattern)
	if len(fields) != 6 {
		return nil, models.Validation(fmt.Sprintf("cron pattern %q needs 6 fields", pattern))
	}

	if fields[3] == "L" {
		fields[3] = "*"
		base, err := cronParser.Parse(strings.Join(fields, " "))
		if err != nil {
			return nil, models.Validation(fmt.Sprintf("cron pattern %q: %v", pattern, err))
		}
		if spec, ok := base.(*cron.SpecSchedule); ok {
			spec.Location = loc
		}
		return lastDayOfMonth{inner: base}, nil
	}

	sched, err := cronParser.Parse(pattern)
	if err != nil {
		return nil, models.Validation(fmt.Sprintf("cron pattern %q: %v", pattern, err))
	}
	if spec, ok := sched.(*cron.SpecSchedule); ok {
		spec.Location = loc
	}
	return sched, nil
}

// lastDayOfMonth walks the inner schedule forward and keeps only the
// occurrences that land on the final day of their month.
type lastDayOfMonth struct {
	inner cron.Schedule
}

func (s lastDayOfMonth) Next(t time.Time) time.Time {
	next := t
	// bounded: a daily inner schedule reaches a month end within 31 steps
	for i := 0; i < 400; i++ {
		next = s.inner.Next(next)
		if next.IsZero() {
			return next
		}
		if next.AddDate(0, 0, 1).Month() != next.Month() {
			return next
		}
	}
	return time.Time{}
}

// nextRun computes the first fire time strictly after from.
func nextRun(s Schedule, from time.Time, loc *time.Location) (time.Time, error) {
	switch {
	case s.Pattern != "":
		sched, err := ParsePattern(s.Pattern, loc)
		if err != nil {
			return time.Time{}, err
		}
		next := sched.Next(from)
		if next.IsZero() {
			return time.Time{}, models.Validation(fmt.Sprintf("cron pattern %q never fires", s.Pattern))
		}
		return next, nil
	case s.Every > 0:
		return from.Add(s.Every), nil
	default:
		return from.Add(s.Delay), nil
	}
}
