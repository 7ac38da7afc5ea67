// Package refdata loads the static reference tables: the health lexicon,
// red-flag groups, categorizer chain, disease table, facility catalog,
// hotlines and guidelines. Tables are read once and never mutated.
package refdata

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Ranjith-47/care-navigator/internal/facility"
	"github.com/Ranjith-47/care-navigator/internal/triage"
)

//go:embed data/*.yaml
var embedded embed.FS

var files = []string{"lexicon.yaml", "redflags.yaml", "diseases.yaml", "facilities.yaml", "reference.yaml"}

type Hotline struct {
	Number      string `json:"number" yaml:"number"`
	Description string `json:"description" yaml:"description"`
}

type Guideline struct {
	Title   string   `json:"title" yaml:"title"`
	Summary string   `json:"summary" yaml:"summary"`
	Actions []string `json:"actions" yaml:"actions"`
	Source  string   `json:"source" yaml:"source"`
}

// Tables is the full reference data set.
type Tables struct {
	HealthKeywords []string                `yaml:"health_keywords"`
	FeverTerms     []string                `yaml:"fever_terms"`
	Categories     []triage.CategoryRule   `yaml:"categories"`
	RedFlags       []triage.RedFlagPattern `yaml:"red_flags"`
	Diseases       []triage.DiseaseProfile `yaml:"diseases"`

	MapSearchURL string               `yaml:"map_search_url"`
	Routes       map[string]string    `yaml:"routes"`
	Specialties  []facility.Specialty `yaml:"specialties"`

	Hotlines   []Hotline   `yaml:"hotlines"`
	Guidelines []Guideline `yaml:"guidelines"`
}

// Default returns the tables compiled into the binary.
func Default() (*Tables, error) {
	return Load("")
}

// Load reads the embedded tables and then lets any file of the same name in
// dir replace its embedded counterpart. An empty dir means embedded only.
func Load(dir string) (*Tables, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return load(sub, nil)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("refdata dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("refdata dir %s is not a directory", dir)
	}
	return load(sub, os.DirFS(dir))
}

func load(base, override fs.FS) (*Tables, error) {
	t := &Tables{}
	for _, name := range files {
		src := base
		if override != nil {
			if _, err := fs.Stat(override, name); err == nil {
				src = override
			}
		}
		data, err := fs.ReadFile(src, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		// Each file fills a disjoint set of fields.
		if err := yaml.Unmarshal(data, t); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(name), err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate rejects tables the engine cannot run safely with.
func (t *Tables) Validate() error {
	var errs []error
	if len(t.HealthKeywords) == 0 {
		errs = append(errs, errors.New("health_keywords is empty"))
	}
	if len(t.RedFlags) == 0 {
		errs = append(errs, errors.New("red_flags is empty"))
	}
	// The step-0 intent gate runs before red-flag classification, so every
	// trigger phrase has to pass the health lexicon.
	health := triage.Lexicon(t.HealthKeywords)
	for i, p := range t.RedFlags {
		if len(p.Phrases) == 0 || p.Message == "" || p.Action == "" {
			errs = append(errs, fmt.Errorf("red_flags[%d] (%s) needs phrases, message and action", i, p.Name))
		}
		for _, phrase := range p.Phrases {
			if !health.Matches(phrase) {
				errs = append(errs, fmt.Errorf("red_flags[%d] (%s) phrase %q is not in health_keywords", i, p.Name, phrase))
			}
		}
	}
	for i, c := range t.Categories {
		if c.Category == "" || len(c.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("categories[%d] needs category and keywords", i))
		}
	}
	for i, d := range t.Diseases {
		if d.Name == "" || len(d.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("diseases[%d] needs name and keywords", i))
		}
	}
	seen := map[string]bool{}
	for _, s := range t.Specialties {
		if s.Key == "" {
			errs = append(errs, errors.New("specialty with empty key"))
		}
		if seen[s.Key] {
			errs = append(errs, fmt.Errorf("specialty %q listed twice", s.Key))
		}
		seen[s.Key] = true
	}
	return errors.Join(errs...)
}

// Engine builds the triage engine over these tables.
func (t *Tables) Engine(ranker triage.FacilityRanker) *triage.Engine {
	return triage.NewEngine(triage.Tables{
		Health:     triage.Lexicon(t.HealthKeywords),
		FeverTerms: t.FeverTerms,
		Categories: t.Categories,
		RedFlags:   t.RedFlags,
		Diseases:   t.Diseases,
	}, ranker)
}

// Ranker builds the facility ranker over the catalog.
func (t *Tables) Ranker() *facility.Ranker {
	return facility.NewRanker(t.Specialties, t.Routes, t.MapSearchURL)
}
