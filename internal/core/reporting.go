package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"mnyama/pkg/domain"
)

// Reporter serves read-only views. Every call reads one immutable snapshot,
// so figures within a single report are mutually consistent.
type Reporter struct {
	svc *Service
}

// Summary is the full habitat management report.
type Summary struct {
	TotalHabitats       int                  `json:"total_habitats"`
	TotalCreatures      int                  `json:"total_creatures"`
	AssignedCreatures   int                  `json:"assigned_creatures"`
	UnassignedCreatures int                  `json:"unassigned_creatures"`
	Habitats            []OccupancyReport    `json:"habitats"`
	FullHabitats        []OccupancyReport    `json:"full_habitats"`
	EmptyHabitats       []OccupancyReport    `json:"empty_habitats"`
	DietDistribution    map[Diet]int         `json:"diet_distribution"`
	Unassigned          []UnassignedCreature `json:"unassigned"`
	GeneratedAt         time.Time            `json:"generated_at"`
}

// UnassignedCreature is a creature that belongs to no habitat.
type UnassignedCreature struct {
	CreatureID string `json:"creature_id"`
	Name       string `json:"name"`
	Species    string `json:"species"`
	Footprint  int    `json:"footprint"`
}

// SpeciesPopulation counts the creatures of one species.
type SpeciesPopulation struct {
	SpeciesID string `json:"species_id"`
	Name      string `json:"name"`
	Diet      Diet   `json:"diet"`
	Creatures int    `json:"creatures"`
	Assigned  int    `json:"assigned"`
}

// NameMatches is the result of a creature name lookup. Suggestions are only
// filled when Matches is empty.
type NameMatches struct {
	Matches     []Creature `json:"matches"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

const maxSuggestions = 5

// Summary builds the habitat management report.
func (r *Reporter) Summary(ctx context.Context) (Summary, error) {
	var summary Summary
	_, err := r.svc.instrument(ctx, "habitat_summary", func(ctx context.Context) (outcome, error) {
		return outcome{}, r.svc.view(ctx, func(view TransactionView) error {
			summary = buildSummary(view)
			return nil
		})
	})
	if err != nil {
		return Summary{}, err
	}
	summary.GeneratedAt = r.svc.clock.Now()
	return summary, nil
}

func buildSummary(view TransactionView) Summary {
	habitats := view.ListHabitats()
	creatures := view.ListCreatures()
	footprint := domain.FootprintResolver(view)

	summary := Summary{
		TotalHabitats:    len(habitats),
		TotalCreatures:   len(creatures),
		Habitats:         make([]OccupancyReport, 0, len(habitats)),
		FullHabitats:     []OccupancyReport{},
		EmptyHabitats:    []OccupancyReport{},
		DietDistribution: make(map[Diet]int, len(domain.Diets())),
		Unassigned:       []UnassignedCreature{},
	}
	for _, d := range domain.Diets() {
		summary.DietDistribution[d] = 0
	}
	for _, h := range habitats {
		report := occupancyReport(view, h)
		summary.Habitats = append(summary.Habitats, report)
		switch report.Classification {
		case domain.ClassificationFull:
			summary.FullHabitats = append(summary.FullHabitats, report)
		case domain.ClassificationEmpty:
			summary.EmptyHabitats = append(summary.EmptyHabitats, report)
		}
	}

	assigned := make(map[string]struct{})
	for _, m := range view.ListMemberships() {
		assigned[m.CreatureID] = struct{}{}
	}
	for _, c := range creatures {
		species, ok := view.FindSpecies(c.SpeciesID)
		if ok {
			summary.DietDistribution[species.Diet]++
		}
		if _, ok := assigned[c.ID]; ok {
			summary.AssignedCreatures++
			continue
		}
		summary.Unassigned = append(summary.Unassigned, UnassignedCreature{
			CreatureID: c.ID,
			Name:       c.Name,
			Species:    species.Name,
			Footprint:  footprint(c),
		})
	}
	summary.UnassignedCreatures = summary.TotalCreatures - summary.AssignedCreatures
	sort.Slice(summary.Unassigned, func(i, j int) bool {
		if summary.Unassigned[i].Name != summary.Unassigned[j].Name {
			return summary.Unassigned[i].Name < summary.Unassigned[j].Name
		}
		return summary.Unassigned[i].CreatureID < summary.Unassigned[j].CreatureID
	})
	return summary
}

// SpeciesByDiet lists the species with the given diet, ordered by name.
func (r *Reporter) SpeciesByDiet(ctx context.Context, diet string) ([]Species, error) {
	parsed, err := domain.ParseDiet(diet)
	if err != nil {
		return nil, err
	}
	var out []Species
	err = r.svc.view(ctx, func(view TransactionView) error {
		for _, sp := range view.ListSpecies() {
			if sp.Diet == parsed {
				out = append(out, sp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// FindCreaturesByName matches creatures whose name contains query, ignoring
// case. With no match it suggests close names by edit distance.
func (r *Reporter) FindCreaturesByName(ctx context.Context, query string) (NameMatches, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return NameMatches{}, domain.ValidationError{Entity: domain.EntityCreature, Field: "name", Message: "search term cannot be empty"}
	}
	result := NameMatches{Matches: []Creature{}}
	err := r.svc.view(ctx, func(view TransactionView) error {
		creatures := view.ListCreatures()
		for _, c := range creatures {
			if strings.Contains(strings.ToLower(c.Name), needle) {
				result.Matches = append(result.Matches, c)
			}
		}
		if len(result.Matches) == 0 {
			result.Suggestions = suggestNames(needle, creatures)
		}
		return nil
	})
	sort.Slice(result.Matches, func(i, j int) bool { return result.Matches[i].Name < result.Matches[j].Name })
	return result, err
}

// suggestNames ranks creature names within an edit distance that grows with
// the query length.
func suggestNames(needle string, creatures []Creature) []string {
	limit := suggestionDistance(needle)
	type candidate struct {
		name string
		dist int
	}
	seen := make(map[string]struct{})
	var candidates []candidate
	for _, c := range creatures {
		lower := strings.ToLower(c.Name)
		if _, dup := seen[lower]; dup {
			continue
		}
		dist := levenshtein.ComputeDistance(needle, lower)
		if dist <= limit {
			seen[lower] = struct{}{}
			candidates = append(candidates, candidate{name: c.Name, dist: dist})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.name)
	}
	return out
}

func suggestionDistance(needle string) int {
	switch n := len([]rune(needle)); {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}

// HabitatsByBiome matches habitats whose biome contains biome, ignoring case.
func (r *Reporter) HabitatsByBiome(ctx context.Context, biome string) ([]Habitat, error) {
	needle := strings.ToLower(strings.TrimSpace(biome))
	if needle == "" {
		return nil, domain.ValidationError{Entity: domain.EntityHabitat, Field: "biome", Message: "search term cannot be empty"}
	}
	var out []Habitat
	err := r.svc.view(ctx, func(view TransactionView) error {
		for _, h := range view.ListHabitats() {
			if strings.Contains(strings.ToLower(h.Biome), needle) {
				out = append(out, h)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// HabitatsOf lists the habitats a creature currently belongs to, by name.
func (r *Reporter) HabitatsOf(ctx context.Context, creatureID string) ([]Habitat, error) {
	var out []Habitat
	err := r.svc.view(ctx, func(view TransactionView) error {
		if _, ok := view.FindCreature(creatureID); !ok {
			return notFound(domain.EntityCreature, creatureID)
		}
		out = append(out, view.CreatureHabitats(creatureID)...)
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// SpeciesPopulation counts creatures per species, ordered by species name.
func (r *Reporter) SpeciesPopulation(ctx context.Context) ([]SpeciesPopulation, error) {
	var out []SpeciesPopulation
	err := r.svc.view(ctx, func(view TransactionView) error {
		assigned := make(map[string]struct{})
		for _, m := range view.ListMemberships() {
			assigned[m.CreatureID] = struct{}{}
		}
		index := make(map[string]int)
		for _, sp := range view.ListSpecies() {
			index[sp.ID] = len(out)
			out = append(out, SpeciesPopulation{SpeciesID: sp.ID, Name: sp.Name, Diet: sp.Diet})
		}
		for _, c := range view.ListCreatures() {
			i, ok := index[c.SpeciesID]
			if !ok {
				continue
			}
			out[i].Creatures++
			if _, ok := assigned[c.ID]; ok {
				out[i].Assigned++
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}
