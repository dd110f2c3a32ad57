//-------------------------------------------------------------------------
//
// CareMart ETL
//
// Copyright (c) 2025 - 2026, CareMart Analytics
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateKey(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{date(2024, time.January, 1), 20240101},
		{date(2024, time.December, 31), 20241231},
		{date(1999, time.July, 4), 19990704},
		{date(2025, time.October, 9), 20251009},
	}

	for _, tt := range tests {
		if got := DateKey(tt.in); got != tt.want {
			t.Errorf("DateKey(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewCalendarDate(t *testing.T) {
	// 2024-01-06 was a Saturday
	c := NewCalendarDate(date(2024, time.January, 6))

	if c.Key != 20240106 {
		t.Errorf("Key = %d, want 20240106", c.Key)
	}
	if c.Year != 2024 {
		t.Errorf("Year = %d, want 2024", c.Year)
	}
	if c.Quarter != 1 {
		t.Errorf("Quarter = %d, want 1", c.Quarter)
	}
	if c.Month != 1 {
		t.Errorf("Month = %d, want 1", c.Month)
	}
	if c.MonthName != "January" {
		t.Errorf("MonthName = %q, want January", c.MonthName)
	}
	if c.DayName != "Saturday" {
		t.Errorf("DayName = %q, want Saturday", c.DayName)
	}
	if !c.IsWeekend {
		t.Error("IsWeekend = false, want true for Saturday")
	}

	// Attributes must round-trip with the encoded key
	if DateKey(c.Date) != c.Key {
		t.Errorf("Key does not round-trip: DateKey(%v) = %d, Key = %d",
			c.Date, DateKey(c.Date), c.Key)
	}
}

func TestNewCalendarDateQuarters(t *testing.T) {
	tests := []struct {
		month   time.Month
		quarter int
	}{
		{time.January, 1}, {time.March, 1},
		{time.April, 2}, {time.June, 2},
		{time.July, 3}, {time.September, 3},
		{time.October, 4}, {time.December, 4},
	}

	for _, tt := range tests {
		c := NewCalendarDate(date(2024, tt.month, 15))
		if c.Quarter != tt.quarter {
			t.Errorf("Quarter for %v = %d, want %d", tt.month, c.Quarter, tt.quarter)
		}
	}
}

func TestNewCalendarDateWeekday(t *testing.T) {
	// 2024-01-08 was a Monday
	c := NewCalendarDate(date(2024, time.January, 8))
	if c.DayName != "Monday" {
		t.Errorf("DayName = %q, want Monday", c.DayName)
	}
	if c.IsWeekend {
		t.Error("IsWeekend = true, want false for Monday")
	}
}

func TestAgeAt(t *testing.T) {
	asOf := date(2024, time.June, 15)

	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"birthday already passed", date(1990, time.March, 1), 34},
		{"birthday not yet reached", date(1990, time.December, 1), 33},
		{"birthday today", date(1990, time.June, 15), 34},
		{"born this year", date(2024, time.January, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeAt(tt.dob, asOf); got != tt.want {
				t.Errorf("AgeAt(%v, %v) = %d, want %d", tt.dob, asOf, got, tt.want)
			}
		})
	}
}

func TestAgeGroup(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{0, "Minor"},
		{17, "Minor"},
		{18, "Adult"},
		{40, "Adult"},
		{65, "Adult"},
		{66, "Senior"},
		{95, "Senior"},
	}

	for _, tt := range tests {
		if got := AgeGroup(tt.age); got != tt.want {
			t.Errorf("AgeGroup(%d) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MALE", "Male"},
		{"male", "Male"},
		{"Female", "Female"},
		{" female ", "Female"},
		{"", "Unknown"},
		{"   ", "Unknown"},
	}

	for _, tt := range tests {
		if got := NormalizeGender(tt.in); got != tt.want {
			t.Errorf("NormalizeGender(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEncounterType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"INPATIENT", "Inpatient"},
		{"inpatient", "Inpatient"},
		{"  Inpatient  ", "Inpatient"},
		{"outpatient ", "Outpatient"},
		{" EMERGENCY", "Emergency"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeEncounterType(tt.in); got != tt.want {
			t.Errorf("NormalizeEncounterType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeCredential(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"md", "MD"},
		{" MD ", "MD"},
		{"MD, PhD", "MD, PHD"},
		{"", UnknownCredential},
		{"  ", UnknownCredential},
	}

	for _, tt := range tests {
		if got := NormalizeCredential(tt.in); got != tt.want {
			t.Errorf("NormalizeCredential(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProviderDisplayName(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{"Jane", "Smith", "Jane Smith"},
		{" Jane ", "Smith  ", "Jane Smith"},
		{"Jane", "", "Jane"},
	}

	for _, tt := range tests {
		if got := ProviderDisplayName(tt.first, tt.last); got != tt.want {
			t.Errorf("ProviderDisplayName(%q, %q) = %q, want %q",
				tt.first, tt.last, got, tt.want)
		}
	}
}

func TestLengthOfStayDays(t *testing.T) {
	enc := date(2024, time.January, 1)

	tests := []struct {
		name      string
		discharge *time.Time
		want      int
	}{
		{"missing discharge defaults to zero", nil, 0},
		{"same day", ptr(date(2024, time.January, 1)), 0},
		{"two day stay", ptr(date(2024, time.January, 3)), 2},
		{"month boundary", ptr(date(2024, time.February, 1)), 31},
		{"discharge before encounter clamps to zero", ptr(date(2023, time.December, 30)), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LengthOfStayDays(enc, tt.discharge); got != tt.want {
				t.Errorf("LengthOfStayDays = %d, want %d", got, tt.want)
			}
		})
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
