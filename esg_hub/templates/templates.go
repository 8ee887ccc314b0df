package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrTemplateNotFound = errors.New("report template not found")

type Field struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

type Section struct {
	Key    string  `yaml:"key" json:"key"`
	Title  string  `yaml:"title" json:"title"`
	Fields []Field `yaml:"fields" json:"fields"`
}

type Template struct {
	Id          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Standard    string    `yaml:"standard" json:"standard"`
	Version     string    `yaml:"version" json:"version"`
	Description string    `yaml:"description" json:"description"`
	Sections    []Section `yaml:"sections" json:"sections"`
}

// Catalog is read only after construction.
type Catalog struct {
	templates []Template
	byId      map[string]int
}

func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing template catalog: %w", err)
	}

	catalog := &Catalog{templates: doc.Templates, byId: make(map[string]int, len(doc.Templates))}
	for i, t := range doc.Templates {
		if t.Id == "" {
			return nil, fmt.Errorf("template %d in catalog has no id", i)
		}
		if _, ok := catalog.byId[t.Id]; ok {
			return nil, fmt.Errorf("duplicate template id '%v' in catalog", t.Id)
		}
		catalog.byId[t.Id] = i
	}
	return catalog, nil
}

func Default() *Catalog {
	catalog, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return catalog
}

// Load reads the catalog at path, or returns the built in catalog if path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading template catalog: %w", err)
	}
	return Parse(data)
}

func (c *Catalog) List() []Template {
	return c.templates
}

func (c *Catalog) Get(id string) (Template, error) {
	i, ok := c.byId[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %v", ErrTemplateNotFound, id)
	}
	return c.templates[i], nil
}
