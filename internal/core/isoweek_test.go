package core

import (
	"errors"
	"testing"
	"time"
)

func TestWeekNumber(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2026-01-01", "202601"}, // Thursday
		{"2025-12-29", "202601"}, // Monday of the same ISO week
		{"2024-12-30", "202501"},
		{"2021-01-03", "202053"}, // Sunday closing week 53
		{"2020-12-31", "202053"},
		{"2021-01-04", "202101"},
		{"2026-06-15", "202625"},
		{"2027-01-01", "202653"},
	}

	for _, tt := range tests {
		d, err := ParseDate(tt.date)
		if err != nil {
			t.Fatalf("ParseDate(%s): %v", tt.date, err)
		}
		if got := WeekNumber(d); got != tt.want {
			t.Errorf("WeekNumber(%s) = %s, want %s", tt.date, got, tt.want)
		}
	}
}

func TestWeekNumberMatchesStdlib(t *testing.T) {
	day := time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3*366; i++ {
		d := day.AddDate(0, 0, i)
		y, w := d.ISOWeek()
		want := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006") + twoDigits(w)
		if got := WeekNumber(d); got != want {
			t.Fatalf("WeekNumber(%s) = %s, want %s", d.Format("2006-01-02"), got, want)
		}
	}
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("01/02/2026"); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("ParseDate(bad) = %v, want ErrInvalidParams", err)
	}
}
