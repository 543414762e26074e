package core

import (
	"sort"
)

// SpeciesInfo is one entry of the static species reference table.
type SpeciesInfo struct {
	Species    string       `json:"species"`
	CommonName string       `json:"commonName"`
	Risk       RiskCategory `json:"risk"`
}

// speciesTable maps a scientific species name to its common name and risk.
// It is known reference data and is never modified after init.
var speciesTable = map[string]SpeciesInfo{
	"Carcharhinus amblyrhynchos":  {CommonName: "Grey Reef", Risk: RiskLow},
	"Carcharhinus brachyurus":     {CommonName: "Bronze Whaler", Risk: RiskMedium},
	"Carcharhinus brevipinna":     {CommonName: "Spinner", Risk: RiskMedium},
	"Carcharhinus falciformis":    {CommonName: "Silky", Risk: RiskLow},
	"Carcharhinus galapagensis":   {CommonName: "Galapagos", Risk: RiskLow},
	"Carcharhinus leucas":         {CommonName: "Bull", Risk: RiskHigh},
	"Carcharhinus limbatus":       {CommonName: "Blacktip", Risk: RiskMedium},
	"Carcharhinus longimanus":     {CommonName: "Oceanic Whitetip", Risk: RiskMedium},
	"Carcharhinus melanopterus":   {CommonName: "Blacktip Reef", Risk: RiskMedium},
	"Carcharhinus obscurus":       {CommonName: "Dusky", Risk: RiskLow},
	"Carcharhinus perezi":         {CommonName: "Caribbean Reef", Risk: RiskLow},
	"Carcharhinus plumbeus":       {CommonName: "Sandbar", Risk: RiskLow},
	"Carcharhinus spp.":           {CommonName: "Requiem", Risk: RiskHigh},
	"Carcharias taurus":           {CommonName: "Sand Tiger", Risk: RiskMedium},
	"Carcharodon carcharias":      {CommonName: "White", Risk: RiskHigh},
	"Galeocerdo cuvier":           {CommonName: "Tiger", Risk: RiskHigh},
	"Galeorhinus galeus":          {CommonName: "Tope", Risk: RiskLow},
	"Ginglymostoma cirratum":      {CommonName: "Nurse", Risk: RiskLow},
	"Heterodontus portusjacksoni": {CommonName: "Port Jackson", Risk: RiskLow},
	"Isistius brasiliensis":       {CommonName: "Cookiecutter", Risk: RiskLow},
	"Isurus oxyrinchus":           {CommonName: "Shortfin Mako", Risk: RiskMedium},
	"Isurus spp.":                 {CommonName: "Mako", Risk: RiskLow},
	"Lamna nasus":                 {CommonName: "Porbeagle", Risk: RiskLow},
	"Negaprion brevirostris":      {CommonName: "Lemon", Risk: RiskMedium},
	"Notorynchus cepedianus":      {CommonName: "Sevengill", Risk: RiskLow},
	"Orectolobus maculatus":       {CommonName: "Spotted Wobbegong", Risk: RiskLow},
	"Orectolobus ornatus":         {CommonName: "Ornate Wobbegong", Risk: RiskLow},
	"Orectolobus spp.":            {CommonName: "Wobbegong", Risk: RiskMedium},
	"Prionace glauca":             {CommonName: "Blue", Risk: RiskMedium},
	"Rhinobatos spp.":             {CommonName: "Guitarfish", Risk: RiskLow},
	"Sphyrna spp.":                {CommonName: "Hammerhead", Risk: RiskMedium},
	"Squatina dumeril":            {CommonName: "Atlantic Angel Shark", Risk: RiskLow},
	"Triaenodon obesus":           {CommonName: "Whitetip reef", Risk: RiskLow},
	"Triakis semifasciata":        {CommonName: "Leopard", Risk: RiskLow},
}

func init() {
	for name, info := range speciesTable {
		info.Species = name
		speciesTable[name] = info
	}
}

// LookupSpecies returns the reference entry for a scientific name.
// Matching is exact and case-sensitive.
func LookupSpecies(species string) (SpeciesInfo, bool) {
	info, ok := speciesTable[species]
	return info, ok
}

// RiskFor returns the risk category for a species, or RiskUnknown when the
// species is not in the reference table.
func RiskFor(species string) RiskCategory {
	if info, ok := speciesTable[species]; ok {
		return info.Risk
	}
	return RiskUnknown
}

// SpeciesTable returns a copy of the reference table sorted by species name.
func SpeciesTable() []SpeciesInfo {
	out := make([]SpeciesInfo, 0, len(speciesTable))
	for _, info := range speciesTable {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Species < out[j].Species })
	return out
}
