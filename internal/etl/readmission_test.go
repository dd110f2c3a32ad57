package etl

import (
	"sort"
	"testing"
	"time"
)

func visitsSorted(visits []Visit) []Visit {
	sort.Slice(visits, func(i, j int) bool {
		if visits[i].PatientID != visits[j].PatientID {
			return visits[i].PatientID < visits[j].PatientID
		}
		if !visits[i].Date.Equal(visits[j].Date) {
			return visits[i].Date.Before(visits[j].Date)
		}
		return visits[i].EncounterID < visits[j].EncounterID
	})
	return visits
}

func assertReadmitted(t *testing.T, visits []Visit, want []int64) {
	t.Helper()
	got := markReadmissions(visitsSorted(visits))

	gotSet := make(map[int64]bool, len(got))
	for _, id := range got {
		gotSet[id] = true
	}
	if len(got) != len(want) {
		t.Fatalf("markReadmissions flagged %v, want %v", got, want)
	}
	for _, id := range want {
		if !gotSet[id] {
			t.Errorf("Encounter %d not flagged; flagged set: %v", id, got)
		}
	}
}

func TestMarkReadmissionsBasic(t *testing.T) {
	// E1 inpatient 2024-01-01, E2 inpatient 2024-01-20 for the same
	// patient: E2 is a 30-day readmission.
	visits := []Visit{
		{EncounterID: 1, PatientID: 10, Date: date(2024, time.January, 1), Inpatient: true},
		{EncounterID: 2, PatientID: 10, Date: date(2024, time.January, 20), Inpatient: true},
	}
	assertReadmitted(t, visits, []int64{2})
}

func TestMarkReadmissionsWindowBounds(t *testing.T) {
	t.Run("exactly 30 days is included", func(t *testing.T) {
		visits := []Visit{
			{EncounterID: 1, PatientID: 10, Date: date(2024, time.January, 1), Inpatient: true},
			{EncounterID: 2, PatientID: 10, Date: date(2024, time.January, 31), Inpatient: false},
		}
		assertReadmitted(t, visits, []int64{2})
	})

	t.Run("31 days is outside the window", func(t *testing.T) {
		visits := []Visit{
			{EncounterID: 1, PatientID: 10, Date: date(2024, time.January, 1), Inpatient: true},
			{EncounterID: 2, PatientID: 10, Date: date(2024, time.February, 1), Inpatient: false},
		}
		assertReadmitted(t, visits, nil)
	})

	t.Run("same-day prior does not count", func(t *testing.T) {
		visits := []Visit{
			{EncounterID: 1, PatientID: 10, Date: date(2024, time.January, 5), Inpatient: true},
			{EncounterID: 2, PatientID: 10, Date: date(2024, time.January, 5), Inpatient: true},
		}
		assertReadmitted(t, visits, nil)
	})
}

func TestMarkReadmissionsPriorMustBeInpatient(t *testing.T) {
	visits := []Visit{
		{EncounterID: 1, PatientID: 10, Date: date(2024, time.January, 1), Inpatient: false},
		{EncounterID: 2, PatientID: 10, Date: date(2024, time.January, 20), Inpatient: true},
	}
	assertReadmitted(t, visits, nil)
}

func TestMarkReadmissionsCurrentTypeUnconstrained(t *testing.T) {
	// An outpatient visit following an inpatient stay within 30 days is
	// still flagged; only the prior encounter is type-scoped.
	visits := []Visit{
		{EncounterID: 1, PatientID: 10, Date: date(2024, time.January, 1), Inpatient: true},
		{EncounterID: 2, PatientID: 10, Date: date(2024, time.January, 10), Inpatient: false},
	}
	assertReadmitted(t, visits, []int64{2})
}

func TestMarkReadmissionsChainIndependence(t *testing.T) {
	// Each encounter in a chain resolves independently against the prior
	// history, not as a group.
	visits := []Visit{
		{EncounterID: 1, PatientID: 10, Date: date(2024, time.January, 1), Inpatient: true},
		{EncounterID: 2, PatientID: 10, Date: date(2024, time.January, 20), Inpatient: true},
		{EncounterID: 3, PatientID: 10, Date: date(2024, time.February, 5), Inpatient: true},
	}
	// E2: E1 within window. E3: E1 is 35 days back (outside), E2 is 16
	// days back (inside).
	assertReadmitted(t, visits, []int64{2, 3})
}

func TestMarkReadmissionsPatientsIsolated(t *testing.T) {
	visits := []Visit{
		{EncounterID: 1, PatientID: 10, Date: date(2024, time.January, 1), Inpatient: true},
		{EncounterID: 2, PatientID: 20, Date: date(2024, time.January, 15), Inpatient: true},
	}
	assertReadmitted(t, visits, nil)
}

func TestMarkReadmissionsMultiplePriors(t *testing.T) {
	// Several qualifying priors still flag the encounter exactly once.
	visits := []Visit{
		{EncounterID: 1, PatientID: 10, Date: date(2024, time.March, 1), Inpatient: true},
		{EncounterID: 2, PatientID: 10, Date: date(2024, time.March, 10), Inpatient: true},
		{EncounterID: 3, PatientID: 10, Date: date(2024, time.March, 20), Inpatient: false},
	}
	assertReadmitted(t, visits, []int64{2, 3})
}

func TestMarkReadmissionsEmpty(t *testing.T) {
	if got := markReadmissions(nil); got != nil {
		t.Errorf("markReadmissions(nil) = %v, want nil", got)
	}
}
