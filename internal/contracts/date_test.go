package contracts

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTradingDate_Formats(t *testing.T) {
	d := NewTradingDate(2026, time.January, 30)

	if d.String() != "2026-01-30" {
		t.Errorf("String() = %s, want 2026-01-30", d.String())
	}
	if d.Compact() != "20260130" {
		t.Errorf("Compact() = %s, want 20260130", d.Compact())
	}
	if d.IsWeekend() {
		t.Error("2026-01-30 is a Friday")
	}
	if !d.AddDays(1).IsWeekend() {
		t.Error("2026-01-31 is a Saturday")
	}
}

func TestDateOf_IgnoresClockAndZone(t *testing.T) {
	sgt := time.FixedZone("SGT", 8*3600)
	late := time.Date(2026, time.January, 30, 23, 59, 0, 0, sgt)

	if got := DateOf(late); got != NewTradingDate(2026, time.January, 30) {
		t.Errorf("DateOf() = %s, want 2026-01-30", got)
	}
}

func TestParseTradingDate(t *testing.T) {
	if _, err := ParseTradingDate("30-01-2026"); err == nil {
		t.Error("expected error for wrong layout")
	}

	d, err := ParseTradingDate("2026-01-30")
	if err != nil {
		t.Fatalf("ParseTradingDate failed: %v", err)
	}
	if d != NewTradingDate(2026, time.January, 30) {
		t.Errorf("unexpected date %s", d)
	}
}

func TestTradingDate_JSON(t *testing.T) {
	type wrapper struct {
		Date TradingDate `json:"date"`
	}

	data, err := json.Marshal(wrapper{Date: MustParseTradingDate("2026-01-30")})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"date":"2026-01-30"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var back wrapper
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Date != MustParseTradingDate("2026-01-30") {
		t.Errorf("unexpected date %s", back.Date)
	}
}

func TestCalendar_IsClosed(t *testing.T) {
	holiday := MustParseTradingDate("2026-02-17")
	cal := NewCalendar(holiday)

	tests := []struct {
		date string
		want bool
	}{
		{"2026-02-16", false}, // Monday
		{"2026-02-17", true},  // configured holiday
		{"2026-02-21", true},  // Saturday
		{"2026-02-22", true},  // Sunday
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := cal.IsClosed(MustParseTradingDate(tt.date)); got != tt.want {
				t.Errorf("IsClosed(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestCalendar_TradingDaysBetween(t *testing.T) {
	cal := NewCalendar()
	fri := MustParseTradingDate("2026-01-30")

	tests := []struct {
		name string
		to   string
		want int
	}{
		{"same day", "2026-01-30", 0},
		{"saturday", "2026-01-31", 0},
		{"next monday", "2026-02-02", 1},
		{"next friday", "2026-02-06", 5},
		{"previous thursday", "2026-01-29", -1},
		{"previous monday", "2026-01-26", -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.TradingDaysBetween(fri, MustParseTradingDate(tt.to)); got != tt.want {
				t.Errorf("TradingDaysBetween = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseCalendar(t *testing.T) {
	if _, err := ParseCalendar([]string{"2026/01/01"}); err == nil {
		t.Error("expected error for malformed holiday")
	}

	cal, err := ParseCalendar([]string{"2026-01-01"})
	if err != nil {
		t.Fatalf("ParseCalendar failed: %v", err)
	}
	if !cal.IsHoliday(MustParseTradingDate("2026-01-01")) {
		t.Error("expected 2026-01-01 to be a holiday")
	}
}
