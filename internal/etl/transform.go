//-------------------------------------------------------------------------
//
// CareMart ETL
//
// Copyright (c) 2025 - 2026, CareMart Analytics
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package etl implements the full-refresh batch pipeline that transforms
// the normalized clinical schema into the mart star schema.
package etl

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownCredential is the sentinel stored when a provider has no
// recorded credential.
const UnknownCredential = "UNKNOWN"

// InpatientType is the canonical encounter type used by the readmission
// classifier when scanning a patient's history.
const InpatientType = "Inpatient"

// DateKey encodes a calendar date as yyyymmdd.
func DateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// CalendarDate holds the pre-computed calendar attributes for one
// dim_date row. All attributes derive arithmetically from Date.
type CalendarDate struct {
	Key        int
	Date       time.Time
	Year       int
	Quarter    int
	Month      int
	MonthName  string
	WeekOfYear int
	DayName    string
	IsWeekend  bool
}

// NewCalendarDate derives the calendar attributes for a date.
func NewCalendarDate(t time.Time) CalendarDate {
	y, m, d := t.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	_, week := date.ISOWeek()
	weekday := date.Weekday()

	return CalendarDate{
		Key:        DateKey(date),
		Date:       date,
		Year:       y,
		Quarter:    (int(m)-1)/3 + 1,
		Month:      int(m),
		MonthName:  m.String(),
		WeekOfYear: week,
		DayName:    weekday.String(),
		IsWeekend:  weekday == time.Saturday || weekday == time.Sunday,
	}
}

// AgeAt returns the age in whole years at the given reference time.
func AgeAt(dateOfBirth, asOf time.Time) int {
	age := asOf.Year() - dateOfBirth.Year()
	anniversary := dateOfBirth.AddDate(age, 0, 0)
	if anniversary.After(asOf) {
		age--
	}
	return age
}

// AgeGroup buckets an age into the three fixed bands used by dim_patient.
func AgeGroup(age int) string {
	switch {
	case age < 18:
		return "Minor"
	case age <= 65:
		return "Adult"
	default:
		return "Senior"
	}
}

// NormalizeGender trims and canonically cases a source gender value.
// Missing values become "Unknown".
func NormalizeGender(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(s)
}

// NormalizeEncounterType trims and canonically cases a source encounter
// type. Returns "" for blank input.
func NormalizeEncounterType(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(s)
}

// NormalizeCredential trims and upper-cases a provider credential,
// substituting the sentinel when missing.
func NormalizeCredential(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownCredential
	}
	return strings.ToUpper(s)
}

// ProviderDisplayName joins first and last name, trimming incidental
// whitespace in either field.
func ProviderDisplayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// PatientDisplayName formats a patient name as "Last, First".
func PatientDisplayName(first, last string) string {
	return strings.TrimSpace(last) + ", " + strings.TrimSpace(first)
}

// LengthOfStayDays computes the stay length in whole days. A missing
// discharge date defaults to the encounter date, yielding zero.
func LengthOfStayDays(encounterDate time.Time, dischargeDate *time.Time) int {
	if dischargeDate == nil {
		return 0
	}
	days := int(truncateToDay(*dischargeDate).Sub(truncateToDay(encounterDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
