package etl

import (
	"testing"
	"time"
)

func testKeys() *dimensionKeys {
	return &dimensionKeys{
		patients:       KeyMap{100: 1, 101: 2},
		providers:      KeyMap{200: 1},
		specialties:    KeyMap{300: 1},
		departments:    KeyMap{400: 1},
		encounterTypes: StringKeyMap{"Inpatient": 1, "Outpatient": 2},
	}
}

func baseAggregate() EncounterAggregate {
	return EncounterAggregate{
		EncounterID:   1,
		PatientID:     100,
		ProviderID:    200,
		SpecialtyID:   300,
		DepartmentID:  400,
		EncounterType: "INPATIENT",
		EncounterDate: date(2024, time.January, 1),
	}
}

func TestKeyMapResolve(t *testing.T) {
	m := KeyMap{7: 42}

	if key, ok := m.Resolve(7); !ok || key != 42 {
		t.Errorf("Resolve(7) = (%d, %v), want (42, true)", key, ok)
	}
	if _, ok := m.Resolve(8); ok {
		t.Error("Resolve(8) should miss")
	}

	s := StringKeyMap{"Inpatient": 3}
	if key, ok := s.Resolve("Inpatient"); !ok || key != 3 {
		t.Errorf("Resolve(Inpatient) = (%d, %v), want (3, true)", key, ok)
	}
	if _, ok := s.Resolve("inpatient"); ok {
		t.Error("StringKeyMap lookup should be exact-match on the normalized value")
	}
}

func TestBuildFactRowsResolvesAllKeys(t *testing.T) {
	agg := baseAggregate()
	agg.DischargeDate = ptr(date(2024, time.January, 3))
	agg.DiagnosisCount = 2
	agg.ProcedureCount = 3
	claim := 1234.56
	allowed := 1000.00
	agg.TotalClaim = &claim
	agg.TotalAllowed = &allowed

	facts, dropped := buildFactRows([]EncounterAggregate{agg}, testKeys())

	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d facts, want 1", len(facts))
	}

	f := facts[0]
	if f.patientKey != 1 || f.providerKey != 1 || f.specialtyKey != 1 ||
		f.departmentKey != 1 || f.encounterTypeKey != 1 {
		t.Errorf("Unexpected surrogate keys: %+v", f)
	}
	if f.dateKey != 20240101 {
		t.Errorf("dateKey = %d, want 20240101", f.dateKey)
	}
	if f.dischargeDateKey == nil || *f.dischargeDateKey != 20240103 {
		t.Errorf("dischargeDateKey = %v, want 20240103", f.dischargeDateKey)
	}
	if f.lengthOfStay != 2 {
		t.Errorf("lengthOfStay = %d, want 2", f.lengthOfStay)
	}
	if f.diagnosisCount != 2 || f.procedureCount != 3 {
		t.Errorf("counts = (%d, %d), want (2, 3)", f.diagnosisCount, f.procedureCount)
	}
	if f.totalClaim != 1234.56 || f.totalAllowed != 1000.00 {
		t.Errorf("billing = (%v, %v), want (1234.56, 1000.00)", f.totalClaim, f.totalAllowed)
	}
}

func TestBuildFactRowsDropsUnresolvable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EncounterAggregate)
	}{
		{"unknown patient", func(a *EncounterAggregate) { a.PatientID = 999 }},
		{"unknown provider", func(a *EncounterAggregate) { a.ProviderID = 999 }},
		{"unknown specialty", func(a *EncounterAggregate) { a.SpecialtyID = 999 }},
		{"unknown department", func(a *EncounterAggregate) { a.DepartmentID = 999 }},
		{"unknown encounter type", func(a *EncounterAggregate) { a.EncounterType = "Hospice" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := baseAggregate()
			tt.mutate(&agg)

			facts, dropped := buildFactRows([]EncounterAggregate{agg}, testKeys())
			if len(facts) != 0 {
				t.Errorf("got %d facts, want 0", len(facts))
			}
			if dropped != 1 {
				t.Errorf("dropped = %d, want 1", dropped)
			}
		})
	}
}

func TestBuildFactRowsDefaults(t *testing.T) {
	// No discharge date, no billing: stay defaults to zero days and the
	// billing sums default to zero.
	agg := baseAggregate()

	facts, dropped := buildFactRows([]EncounterAggregate{agg}, testKeys())
	if dropped != 0 || len(facts) != 1 {
		t.Fatalf("got %d facts (%d dropped), want 1 (0 dropped)", len(facts), dropped)
	}

	f := facts[0]
	if f.lengthOfStay != 0 {
		t.Errorf("lengthOfStay = %d, want 0", f.lengthOfStay)
	}
	if f.dischargeDateKey != nil {
		t.Errorf("dischargeDateKey = %v, want nil", f.dischargeDateKey)
	}
	if f.totalClaim != 0 || f.totalAllowed != 0 {
		t.Errorf("billing = (%v, %v), want (0, 0)", f.totalClaim, f.totalAllowed)
	}
}

func TestBuildFactRowsNormalizesEncounterType(t *testing.T) {
	for _, raw := range []string{"INPATIENT", "inpatient", " Inpatient "} {
		agg := baseAggregate()
		agg.EncounterType = raw

		facts, _ := buildFactRows([]EncounterAggregate{agg}, testKeys())
		if len(facts) != 1 {
			t.Fatalf("encounter type %q did not resolve", raw)
		}
		if facts[0].encounterTypeKey != 1 {
			t.Errorf("encounter type %q resolved to key %d, want 1",
				raw, facts[0].encounterTypeKey)
		}
	}
}
