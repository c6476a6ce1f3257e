package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultData []byte

// ErrUnknownModule is returned when an id does not name a catalog module.
var ErrUnknownModule = errors.New("unknown module")

// file is the on-disk catalog layout.
type file struct {
	Modules []Module `yaml:"modules"`
}

// Catalog is an immutable, indexed set of modules. Construct it once and
// pass it to every component that needs module metadata.
type Catalog struct {
	modules    []Module
	byID       map[string]int
	byGroup    map[Group][]int
	byCategory map[Category][]int
	groups     []Group
}

// New validates the modules and builds a catalog. Modules keep the order
// (group, sequence) regardless of input order.
func New(modules []Module) (*Catalog, error) {
	ms := slices.Clone(modules)
	for i := range ms {
		if ms[i].ID == "" {
			ms[i].ID = ModuleID(ms[i].Group, ms[i].Sequence)
		}
	}
	if err := validateModules(ms); err != nil {
		return nil, err
	}

	slices.SortStableFunc(ms, func(a, b Module) int {
		if a.Group != b.Group {
			return int(a.Group) - int(b.Group)
		}
		return a.Sequence - b.Sequence
	})

	c := &Catalog{
		modules:    ms,
		byID:       make(map[string]int, len(ms)),
		byGroup:    make(map[Group][]int),
		byCategory: make(map[Category][]int),
	}
	for i, m := range ms {
		c.byID[m.ID] = i
		if _, ok := c.byGroup[m.Group]; !ok {
			c.groups = append(c.groups, m.Group)
		}
		c.byGroup[m.Group] = append(c.byGroup[m.Group], i)
		c.byCategory[m.Category] = append(c.byCategory[m.Category], i)
	}
	return c, nil
}

// Load parses a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(f.Modules)
}

// LoadFile parses the YAML catalog at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultData))
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// Len returns the number of modules.
func (c *Catalog) Len() int { return len(c.modules) }

// All returns every module in catalog order.
func (c *Catalog) All() []Module {
	return slices.Clone(c.modules)
}

// Get returns the module with the given id.
func (c *Catalog) Get(id string) (Module, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Module{}, false
	}
	return c.modules[i], true
}

// MustGet is Get for ids known to be valid.
func (c *Catalog) MustGet(id string) Module {
	m, ok := c.Get(id)
	if !ok {
		panic(fmt.Sprintf("%v: %q", ErrUnknownModule, id))
	}
	return m
}

// Index returns the catalog position of id, or -1.
func (c *Catalog) Index(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// Groups returns the groups present in the catalog, in order.
func (c *Catalog) Groups() []Group {
	return slices.Clone(c.groups)
}

// ByGroup returns the modules of g in sequence order.
func (c *Catalog) ByGroup(g Group) []Module {
	return c.pick(c.byGroup[g])
}

// ByCategory returns the modules of cat in catalog order.
func (c *Catalog) ByCategory(cat Category) []Module {
	return c.pick(c.byCategory[cat])
}

// TotalDuration sums the durations of the given ids, ignoring unknown ids.
func (c *Catalog) TotalDuration(ids []string) int {
	total := 0
	for _, id := range ids {
		if m, ok := c.Get(id); ok {
			total += m.Duration
		}
	}
	return total
}

func (c *Catalog) pick(idx []int) []Module {
	out := make([]Module, len(idx))
	for i, j := range idx {
		out[i] = c.modules[j]
	}
	return out
}
