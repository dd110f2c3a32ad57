package warehouse

import (
	"strings"
	"testing"
)

func TestFindReport(t *testing.T) {
	for _, r := range Reports {
		found := FindReport(r.Name)
		if found == nil {
			t.Errorf("FindReport(%q) = nil", r.Name)
			continue
		}
		if found.Name != r.Name {
			t.Errorf("FindReport(%q) returned %q", r.Name, found.Name)
		}
	}
	if FindReport("nonexistent") != nil {
		t.Error("FindReport(nonexistent) should return nil")
	}
}

func TestReportNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, r := range Reports {
		if seen[r.Name] {
			t.Errorf("Duplicate report name: %s", r.Name)
		}
		seen[r.Name] = true
	}
}

func TestReportsQueryLiveSchemaOnly(t *testing.T) {
	// Reports run against the published mart, never the staging or
	// retired generations.
	for _, r := range Reports {
		if !strings.Contains(r.SQL, LiveSchema+".") {
			t.Errorf("Report %s does not reference the %s schema", r.Name, LiveSchema)
		}
		for _, forbidden := range []string{StagingSchema + ".", PreviousSchema + "."} {
			if strings.Contains(r.SQL, forbidden) {
				t.Errorf("Report %s references %s", r.Name, forbidden)
			}
		}
	}
}
