package data

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/stealthai/internal/model"
)

//go:embed catalog/default.yaml
var defaultCatalogYAML []byte

// DefaultCatalogYAML returns the embedded default catalog source.
func DefaultCatalogYAML() []byte {
	return bytes.Clone(defaultCatalogYAML)
}

// catalogDoc is the YAML layout of a catalog file.
type catalogDoc struct {
	Defaults map[string]model.Value `yaml:"defaults"`
	Goals    []goalDoc              `yaml:"goals"`
	Actions  []actionDoc            `yaml:"actions"`
}

type goalDoc struct {
	Name     string                 `yaml:"name"`
	Priority float64                `yaml:"priority"`
	Desired  map[string]model.Value `yaml:"desired"`
}

type actionDoc struct {
	Name          string                 `yaml:"name"`
	Cost          float64                `yaml:"cost"`
	Executor      string                 `yaml:"executor"`
	Target        string                 `yaml:"target"`
	Preconditions map[string]model.Value `yaml:"preconditions"`
	Effects       map[string]model.Value `yaml:"effects"`
	Guards        map[string]string      `yaml:"guards"`
}

// LoadDefaultCatalog parses the embedded default catalog.
func LoadDefaultCatalog() (*Catalog, error) {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		return nil, fmt.Errorf("default catalog: %w", err)
	}
	return c, nil
}

// LoadCatalogFile parses the catalog at path. An empty path loads the
// embedded default.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return LoadDefaultCatalog()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	c, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	slog.Info("loaded catalog", "path", path, "goals", len(c.goals), "actions", len(c.actions))
	return c, nil
}

// ParseCatalog decodes and validates a YAML catalog. Any error is fatal for
// the caller: a catalog is either fully valid or not used.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var doc catalogDoc
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}

	defaults, err := parseDefaults(doc.Defaults)
	if err != nil {
		return nil, err
	}

	goals := make([]*model.Goal, 0, len(doc.Goals))
	seenGoals := make(map[string]struct{}, len(doc.Goals))
	for i, gd := range doc.Goals {
		g, err := parseGoal(gd, i, defaults)
		if err != nil {
			return nil, err
		}
		if _, dup := seenGoals[g.Name]; dup {
			return nil, fmt.Errorf("%w: goal %q", ErrDuplicateCatalogEntry, g.Name)
		}
		seenGoals[g.Name] = struct{}{}
		goals = append(goals, g)
	}

	actions := make([]*model.Action, 0, len(doc.Actions))
	seenActions := make(map[string]struct{}, len(doc.Actions))
	for i, ad := range doc.Actions {
		a, err := parseAction(ad, i, defaults)
		if err != nil {
			return nil, err
		}
		if _, dup := seenActions[a.Name]; dup {
			return nil, fmt.Errorf("%w: action %q", ErrDuplicateCatalogEntry, a.Name)
		}
		seenActions[a.Name] = struct{}{}
		actions = append(actions, a)
	}

	if len(goals) == 0 {
		return nil, fmt.Errorf("%w: no goals", ErrInvalidCatalog)
	}

	return build(goals, actions, defaults), nil
}

func parseDefaults(m map[string]model.Value) (model.WorldState, error) {
	var s model.WorldState
	for name, v := range m {
		k, err := model.ParseWorldKey(name)
		if err != nil {
			return model.WorldState{}, fmt.Errorf("%w: defaults: %w", ErrInvalidCatalog, err)
		}
		if s.Defined().Has(k) {
			return model.WorldState{}, fmt.Errorf("%w: defaults: %s listed twice", ErrInvalidCatalog, k)
		}
		s.Set(k, v)
	}
	return s, nil
}

func parseGoal(gd goalDoc, order int, defaults model.WorldState) (*model.Goal, error) {
	name := strings.TrimSpace(gd.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: goal #%d has no name", ErrInvalidCatalog, order)
	}
	if math.IsNaN(gd.Priority) || math.IsInf(gd.Priority, 0) {
		return nil, fmt.Errorf("%w: goal %q: priority must be finite", ErrInvalidCatalog, name)
	}
	if len(gd.Desired) == 0 {
		return nil, fmt.Errorf("%w: goal %q: empty desired state", ErrInvalidCatalog, name)
	}

	desired, err := parseConditions(gd.Desired, defaults)
	if err != nil {
		return nil, fmt.Errorf("goal %q: desired: %w", name, err)
	}

	return &model.Goal{
		Name:     name,
		Priority: gd.Priority,
		Desired:  desired,
		Order:    order,
	}, nil
}

func parseAction(ad actionDoc, order int, defaults model.WorldState) (*model.Action, error) {
	name := strings.TrimSpace(ad.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: action #%d has no name", ErrInvalidCatalog, order)
	}
	if !(ad.Cost > 0) || math.IsInf(ad.Cost, 0) {
		return nil, fmt.Errorf("%w: action %q: cost must be positive, got %v", ErrInvalidCatalog, name, ad.Cost)
	}
	if len(ad.Effects) == 0 {
		return nil, fmt.Errorf("%w: action %q: no effects", ErrInvalidCatalog, name)
	}

	kind, err := model.ParseExecutorKind(ad.Executor)
	if err != nil {
		return nil, fmt.Errorf("%w: action %q: %w", ErrInvalidCatalog, name, err)
	}

	pre, err := parseConditions(ad.Preconditions, defaults)
	if err != nil {
		return nil, fmt.Errorf("action %q: preconditions: %w", name, err)
	}
	eff, err := parseConditions(ad.Effects, defaults)
	if err != nil {
		return nil, fmt.Errorf("action %q: effects: %w", name, err)
	}
	guards, err := parseGuards(ad.Guards, defaults)
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", name, err)
	}

	return &model.Action{
		Name:          name,
		Cost:          ad.Cost,
		Preconditions: pre,
		Guards:        guards,
		Effects:       eff,
		Binding:       model.Binding{Kind: kind, Target: ad.Target},
		Order:         order,
	}, nil
}

func parseConditions(m map[string]model.Value, defaults model.WorldState) (model.Conditions, error) {
	resolved := make(map[model.WorldKey]model.Value, len(m))
	for name, v := range m {
		k, err := resolveKey(name, defaults)
		if err != nil {
			return nil, err
		}
		if _, dup := resolved[k]; dup {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidCatalog, k)
		}
		resolved[k] = v
	}
	return model.NewConditions(resolved), nil
}

func parseGuards(m map[string]string, defaults model.WorldState) ([]*model.Guard, error) {
	if len(m) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	guards := make([]*model.Guard, 0, len(m))
	for _, name := range names {
		k, err := resolveKey(name, defaults)
		if err != nil {
			return nil, err
		}
		g, err := model.CompileGuard(k, m[name])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
		guards = append(guards, g)
	}
	return guards, nil
}

// resolveKey parses name and checks the key has a default.
func resolveKey(name string, defaults model.WorldState) (model.WorldKey, error) {
	k, err := model.ParseWorldKey(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if !defaults.Defined().Has(k) {
		return 0, fmt.Errorf("%w: %s", ErrUndefinedKey, k)
	}
	return k, nil
}
