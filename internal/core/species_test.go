package core

import (
	"sort"
	"testing"
)

func TestLookupSpecies(t *testing.T) {
	tests := []struct {
		species    string
		wantOK     bool
		wantCommon string
		wantRisk   RiskCategory
	}{
		{"Carcharhinus leucas", true, "Bull", RiskHigh},
		{"Carcharodon carcharias", true, "White", RiskHigh},
		{"Isurus spp.", true, "Mako", RiskLow},
		{"Sphyrna spp.", true, "Hammerhead", RiskMedium},
		{"Triaenodon obesus", true, "Whitetip reef", RiskLow},
		{"carcharhinus leucas", false, "", ""},
		{"Megalodon", false, "", ""},
	}

	for _, tt := range tests {
		info, ok := LookupSpecies(tt.species)
		if ok != tt.wantOK {
			t.Errorf("LookupSpecies(%q) ok = %v, want %v", tt.species, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if info.CommonName != tt.wantCommon || info.Risk != tt.wantRisk || info.Species != tt.species {
			t.Errorf("LookupSpecies(%q) = %+v, want %s/%s", tt.species, info, tt.wantCommon, tt.wantRisk)
		}
	}
}

func TestRiskFor_UnknownSpecies(t *testing.T) {
	if got := RiskFor("Not a shark"); got != RiskUnknown {
		t.Errorf("RiskFor() = %q, want %q", got, RiskUnknown)
	}
}

func TestSpeciesTable(t *testing.T) {
	table := SpeciesTable()
	if len(table) != 34 {
		t.Fatalf("len(SpeciesTable()) = %d, want 34", len(table))
	}
	if !sort.SliceIsSorted(table, func(i, j int) bool { return table[i].Species < table[j].Species }) {
		t.Error("SpeciesTable() is not sorted by species")
	}
	for _, info := range table {
		if !info.Risk.Valid() || info.Risk == RiskUnknown {
			t.Errorf("%s has risk %q", info.Species, info.Risk)
		}
	}

	// Mutating the copy must not affect lookups.
	table[0].Risk = RiskUnknown
	if info, _ := LookupSpecies(table[0].Species); info.Risk == RiskUnknown {
		t.Error("SpeciesTable() returned shared state")
	}
}
