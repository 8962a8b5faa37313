// Package rescue maps the dashboard's rescue-type choices to record filters.
package rescue

import (
	_ "embed"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"gopkg.in/yaml.v3"
)

// Reset is the choice that clears any preset.
const Reset = "reset"

// Preset describes one rescue type.
type Preset struct {
	Name        string   `yaml:"-" json:"name"`
	Label       string   `yaml:"label" json:"label"`
	AnimalType  string   `yaml:"animal_type" json:"animal_type"`
	Sex         string   `yaml:"sex" json:"sex"`
	Breeds      []string `yaml:"breeds" json:"breeds"`
	MinAgeWeeks int      `yaml:"min_age_weeks" json:"min_age_weeks"`
	MaxAgeWeeks int      `yaml:"max_age_weeks" json:"max_age_weeks"`
}

// UnknownPresetError is returned by Filter for a name with no preset.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown rescue type %q", e.Name)
}

//go:embed presets.yaml
var presetsYAML []byte

var presets = mustLoad(presetsYAML)

func mustLoad(b []byte) map[string]Preset {
	m, err := Load(b)
	if err != nil {
		panic(err)
	}
	return m
}

// Load parses a presets document keyed by preset name.
func Load(b []byte) (map[string]Preset, error) {
	raw := map[string]Preset{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse rescue presets: %w", err)
	}
	for name, p := range raw {
		if p.AnimalType == "" || len(p.Breeds) == 0 {
			return nil, fmt.Errorf("rescue preset %q: animal_type and breeds are required", name)
		}
		if p.MinAgeWeeks > p.MaxAgeWeeks {
			return nil, fmt.Errorf("rescue preset %q: min_age_weeks exceeds max_age_weeks", name)
		}
		p.Name = name
		raw[name] = p
	}
	return raw, nil
}

// Filter returns the record filter for the named preset. "" and Reset give
// the empty filter, which matches every record.
func Filter(name string) (bson.M, error) {
	if name == "" || name == Reset {
		return bson.M{}, nil
	}
	p, ok := presets[name]
	if !ok {
		return nil, &UnknownPresetError{Name: name}
	}
	return p.Filter(), nil
}

// Filter builds the record filter for p.
func (p Preset) Filter() bson.M {
	breeds := make([]string, len(p.Breeds))
	copy(breeds, p.Breeds)
	f := bson.M{
		"animal_type": p.AnimalType,
		"breed":       bson.M{"$in": breeds},
		"age_upon_outcome_in_weeks": bson.M{
			"$gte": p.MinAgeWeeks,
			"$lte": p.MaxAgeWeeks,
		},
	}
	if p.Sex != "" {
		f["sex_upon_outcome"] = p.Sex
	}
	return f
}

// All returns every preset sorted by name.
func All() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
