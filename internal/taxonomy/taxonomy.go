// Package taxonomy loads the curated skill catalogue: canonical skill names,
// their aliases and categories, plus the keyword lists used to spot titles
// and education lines.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/spigell/resume-screener/internal/screening"
)

//go:embed default.yaml
var defaultTaxonomy []byte

// Skill is one catalogue entry.
type Skill struct {
	Name     string   `mapstructure:"name" json:"name"`
	Category string   `mapstructure:"category" json:"category,omitempty"`
	Aliases  []string `mapstructure:"aliases" json:"aliases,omitempty"`
	// Exact skills are never matched through the edit-distance fallback.
	Exact bool `mapstructure:"exact" json:"exact,omitempty"`
}

// Alias is a lookup term resolved to a canonical skill.
type Alias struct {
	Term  string
	Skill screening.SkillID
	Exact bool
}

type document struct {
	Version           int      `mapstructure:"version"`
	Skills            []Skill  `mapstructure:"skills"`
	TitleKeywords     []string `mapstructure:"title-keywords"`
	EducationKeywords []string `mapstructure:"education-keywords"`
}

// Taxonomy is immutable after construction and safe for concurrent reads.
type Taxonomy struct {
	skills            []Skill
	byID              map[screening.SkillID]int
	aliases           map[string]Alias
	fuzzy             []Alias
	maxTokens         int
	titleKeywords     []string
	educationKeywords []string
}

// Load reads the taxonomy at path, or the embedded default when path is empty.
func Load(path string) (*Taxonomy, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, screening.WrapError(screening.ErrTaxonomyLoad, fmt.Sprintf("reading taxonomy %q", path), err)
	}

	return Parse(data)
}

// Default returns the embedded taxonomy.
func Default() (*Taxonomy, error) {
	return Parse(defaultTaxonomy)
}

// Parse decodes a YAML taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, screening.WrapError(screening.ErrTaxonomyLoad, "parsing taxonomy yaml", err)
	}
	if len(raw) == 0 {
		return nil, screening.WrapError(screening.ErrTaxonomyLoad, "parsing taxonomy yaml", fmt.Errorf("document is empty"))
	}

	var doc document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &doc,
	})
	if err != nil {
		return nil, screening.WrapError(screening.ErrTaxonomyLoad, "creating taxonomy decoder", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, screening.WrapError(screening.ErrTaxonomyLoad, "decoding taxonomy", err)
	}

	t, err := New(doc.Skills, doc.TitleKeywords, doc.EducationKeywords)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// New builds a taxonomy from skills and keyword lists.
func New(skills []Skill, titleKeywords, educationKeywords []string) (*Taxonomy, error) {
	if len(skills) == 0 {
		return nil, screening.WrapError(screening.ErrTaxonomyLoad, "building taxonomy", fmt.Errorf("no skills defined"))
	}

	t := &Taxonomy{
		skills:            make([]Skill, 0, len(skills)),
		byID:              make(map[screening.SkillID]int, len(skills)),
		aliases:           make(map[string]Alias, len(skills)*3),
		titleKeywords:     lowerAll(titleKeywords),
		educationKeywords: lowerAll(educationKeywords),
	}

	for i, skill := range skills {
		skill.Name = strings.TrimSpace(skill.Name)
		if skill.Name == "" {
			return nil, screening.WrapError(screening.ErrTaxonomyLoad, "building taxonomy", fmt.Errorf("skill #%d has no name", i))
		}
		id := screening.SkillID(skill.Name)
		if _, dup := t.byID[id]; dup {
			return nil, screening.WrapError(screening.ErrTaxonomyLoad, "building taxonomy", fmt.Errorf("skill %q defined twice", skill.Name))
		}
		t.skills = append(t.skills, skill)
		t.byID[id] = len(t.skills) - 1
	}

	slices.SortFunc(t.skills, func(a, b Skill) int { return strings.Compare(a.Name, b.Name) })
	for i, skill := range t.skills {
		t.byID[screening.SkillID(skill.Name)] = i
	}

	for _, skill := range t.skills {
		id := screening.SkillID(skill.Name)
		terms := append([]string{skill.Name}, skill.Aliases...)
		for _, term := range terms {
			tokens := Tokenize(term)
			if len(tokens) == 0 {
				continue
			}
			key := Key(tokens)
			if existing, ok := t.aliases[key]; ok {
				if existing.Skill != id {
					return nil, screening.WrapError(screening.ErrTaxonomyLoad, "building taxonomy",
						fmt.Errorf("alias %q maps to both %q and %q", term, existing.Skill, id))
				}
				continue
			}
			alias := Alias{Term: key, Skill: id, Exact: skill.Exact}
			t.aliases[key] = alias
			t.maxTokens = max(t.maxTokens, len(tokens))
			if len(tokens) == 1 && !skill.Exact {
				t.fuzzy = append(t.fuzzy, alias)
			}
		}
	}

	slices.SortFunc(t.fuzzy, func(a, b Alias) int {
		if c := strings.Compare(string(a.Skill), string(b.Skill)); c != 0 {
			return c
		}
		return strings.Compare(a.Term, b.Term)
	})

	return t, nil
}

// Lookup resolves an already tokenized term.
func (t *Taxonomy) Lookup(tokens []string) (Alias, bool) {
	alias, ok := t.aliases[Key(tokens)]
	return alias, ok
}

// Resolve tokenizes term and resolves it to a canonical skill.
func (t *Taxonomy) Resolve(term string) (screening.SkillID, bool) {
	alias, ok := t.Lookup(Tokenize(term))
	if !ok {
		return "", false
	}
	return alias.Skill, true
}

// MaxAliasTokens is the length of the longest alias in tokens.
func (t *Taxonomy) MaxAliasTokens() int { return t.maxTokens }

// FuzzyAliases lists single-token aliases eligible for edit-distance matching,
// ordered by skill then term.
func (t *Taxonomy) FuzzyAliases() []Alias { return t.fuzzy }

func (t *Taxonomy) Skills() []Skill { return slices.Clone(t.skills) }

func (t *Taxonomy) Skill(id screening.SkillID) (Skill, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return Skill{}, false
	}
	return t.skills[idx], true
}

func (t *Taxonomy) Len() int { return len(t.skills) }

func (t *Taxonomy) TitleKeywords() []string { return t.titleKeywords }

func (t *Taxonomy) EducationKeywords() []string { return t.educationKeywords }

// Categories groups canonical skill names by category.
func (t *Taxonomy) Categories() map[string][]string {
	out := make(map[string][]string)
	for _, skill := range t.skills {
		category := skill.Category
		if category == "" {
			category = "uncategorized"
		}
		out[category] = append(out[category], skill.Name)
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
