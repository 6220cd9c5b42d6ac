package cosmetics

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed names.yaml
var defaultTable []byte

type specialEntry struct {
	Name   string `yaml:"name"`
	Rarity string `yaml:"rarity"`
}

// Table drives id to display-name resolution.
type Table struct {
	Special       map[string]specialEntry `yaml:"special"`
	Types         map[string]string       `yaml:"types"`
	RarityHints   map[string]string       `yaml:"rarity_hints"`
	DefaultRarity string                  `yaml:"default_rarity"`
	ImageURL      string                  `yaml:"image_url"`

	specialKeys []string
	typeKeys    []string
}

var (
	typePrefix   = regexp.MustCompile(`(?i)^(cid|bid|eid|pickaxe_id|glider_id|lsid|spid|musicpack)_(\d+_)?`)
	commandoPart = regexp.MustCompile(`(?i)athena_commando_[mf]_?`)
	numericOnly  = regexp.MustCompile(`^[\d\s]*$`)
)

// Parse loads a table from YAML.
func Parse(data []byte) (*Table, error) {
	t := &Table{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse cosmetic table: %w", err)
	}

	special := make(map[string]specialEntry, len(t.Special))
	for k, v := range t.Special {
		special[strings.ToLower(k)] = v
	}
	t.Special = special
	t.specialKeys = sortedByLength(special)

	types := make(map[string]string, len(t.Types))
	for k, v := range t.Types {
		types[strings.ToLower(k)] = v
	}
	t.Types = types
	t.typeKeys = sortedByLength(types)

	if t.DefaultRarity == "" {
		t.DefaultRarity = "Uncommon"
	}
	return t, nil
}

// Default returns the embedded table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(err)
	}
	return t
}

func sortedByLength[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Normalize lowercases and trims an athena id.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SameID reports whether two ids refer to the same cosmetic: equal after
// normalization, or one containing the other.
func SameID(a, b string) bool {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

func (t *Table) lookupSpecial(id string) (specialEntry, bool) {
	norm := Normalize(id)
	for _, key := range t.specialKeys {
		if norm == key || strings.HasPrefix(norm, key+"_") {
			return t.Special[key], true
		}
	}
	return specialEntry{}, false
}

// Type returns the cosmetic type label implied by the id prefix.
func (t *Table) Type(id string) string {
	norm := Normalize(id)
	for _, key := range t.typeKeys {
		if strings.HasPrefix(norm, key) {
			return t.Types[key]
		}
	}
	return "Cosmetic"
}

// Name resolves an athena id to a human label. It never fails: anything it
// cannot make sense of becomes the generic type label.
func (t *Table) Name(id string) string {
	if e, ok := t.lookupSpecial(id); ok && e.Name != "" {
		return e.Name
	}

	name := strings.TrimSpace(id)
	name = typePrefix.ReplaceAllString(name, "")
	name = commandoPart.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), " ")

	if numericOnly.MatchString(name) || strings.EqualFold(name, "athena commando") {
		return t.Type(id)
	}
	return cases.Title(language.English).String(name)
}

// Rarity guesses the rarity of an id from the special table and word hints.
func (t *Table) Rarity(id string) string {
	if e, ok := t.lookupSpecial(id); ok && e.Rarity != "" {
		return e.Rarity
	}
	for _, token := range strings.Split(Normalize(id), "_") {
		if r, ok := t.RarityHints[token]; ok {
			return r
		}
	}
	return t.DefaultRarity
}

func (t *Table) Image(id string) string {
	if t.ImageURL == "" {
		return ""
	}
	return fmt.Sprintf(t.ImageURL, Normalize(id))
}

// Describe derives a catalog entry from the id alone.
func (t *Table) Describe(id string) models.Cosmetic {
	return models.Cosmetic{
		ID:     strings.TrimSpace(id),
		Name:   t.Name(id),
		Rarity: t.Rarity(id),
		Type:   t.Type(id),
		Image:  t.Image(id),
	}
}
