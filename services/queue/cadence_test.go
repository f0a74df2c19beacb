package queue

import (
	"testing"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
)

func TestResolveCadence(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		when    string
		want    string
		wantErr bool
	}{
		{name: "weekly monday", title: CadenceWeekly, when: "everyMonday", want: "0 1 0 * * 1"},
		{name: "weekly sunday", title: CadenceWeekly, when: "everySunday", want: "0 1 0 * * 0"},
		{name: "biweekly ignores time", title: CadenceBiweekly, when: "anything", want: "0 0 0 1,16 * *"},
		{name: "monthly fifth", title: CadenceMonthly, when: "everyFifth", want: "0 1 0 5 * *"},
		{name: "monthly thirty first is month end", title: CadenceMonthly, when: "everyThirtyFirst", want: "0 1 0 L * *"},
		{name: "weekly unknown day", title: CadenceWeekly, when: "everyFunday", wantErr: true},
		{name: "one time", title: "oneTime", when: "", wantErr: true},
		{name: "unknown title", title: "daily", when: "everyMonday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCadence(tt.title, tt.when)
			if tt.wantErr {
				if models.KindOf(err) != models.KindValidation {
					t.Fatalf("ResolveCadence() error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveCadence() error = %v", err)
			}
			if got.Pattern != tt.want {
				t.Errorf("ResolveCadence() pattern = %q, want %q", got.Pattern, tt.want)
			}
		})
	}
}

func TestParsePattern_Next(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name    string
		pattern string
		loc     *time.Location
		from    time.Time
		want    time.Time
	}{
		{
			name:    "weekly monday from a wednesday",
			pattern: "0 1 0 * * 1",
			loc:     time.UTC,
			from:    time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
			want:    time.Date(2024, 1, 8, 0, 1, 0, 0, time.UTC),
		},
		{
			name:    "biweekly after the first",
			pattern: biweeklyPattern,
			loc:     time.UTC,
			from:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			want:    time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "last day of a leap february",
			pattern: "0 1 0 L * *",
			loc:     time.UTC,
			from:    time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			want:    time.Date(2024, 2, 29, 0, 1, 0, 0, time.UTC),
		},
		{
			name:    "last day of a thirty day month",
			pattern: "0 1 0 L * *",
			loc:     time.UTC,
			from:    time.Date(2024, 4, 30, 0, 2, 0, 0, time.UTC),
			want:    time.Date(2024, 5, 31, 0, 1, 0, 0, time.UTC),
		},
		{
			name:    "evaluated in the configured zone",
			pattern: "0 1 0 * * 1",
			loc:     est,
			from:    time.Date(2024, 1, 8, 3, 0, 0, 0, time.UTC),
			want:    time.Date(2024, 1, 8, 0, 1, 0, 0, est),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, err := ParsePattern(tt.pattern, tt.loc)
			if err != nil {
				t.Fatalf("ParsePattern() error = %v", err)
			}
			got := sched.Next(tt.from)
			if !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestParsePattern_RejectsMalformed(t *testing.T) {
	for _, p := range []string{"", "* * * * *", "0 1 0 40 * *", "a b c d e f"} {
		if _, err := ParsePattern(p, time.UTC); models.KindOf(err) != models.KindValidation {
			t.Errorf("ParsePattern(%q) error = %v, want validation error", p, err)
		}
	}
}

func TestNextRun_IntervalAndDelay(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := nextRun(Schedule{Every: time.Hour}, from, time.UTC)
	if err != nil || !got.Equal(from.Add(time.Hour)) {
		t.Errorf("nextRun(every) = %v, %v", got, err)
	}
	got, err = nextRun(Schedule{Delay: 30 * time.Minute}, from, time.UTC)
	if err != nil || !got.Equal(from.Add(30*time.Minute)) {
		t.Errorf("nextRun(delay) = %v, %v", got, err)
	}
}
