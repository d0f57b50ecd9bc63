// Package catalog is the studio's static price list: the tiers, options,
// plans and prices offered at each selection step of each service.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/dopiumbot/internal/booking"
)

//go:embed catalog.yaml
var defaultYAML []byte

// ErrNotFound is returned for unknown domains, steps or tokens.
var ErrNotFound = errors.New("catalog: not found")

// Item is one selectable entry. Items may nest: a tier holds its options.
type Item struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Hourly      bool   `yaml:"hourly"`
	Description string `yaml:"description"`
	Items       []Item `yaml:"items"`
}

// PriceLabel renders the price, prefixed for hourly rates.
func (it Item) PriceLabel() string {
	if it.Hourly && it.Price != "" {
		return "ساعتی " + it.Price
	}
	return it.Price
}

// Label is the button text for the item.
func (it Item) Label() string {
	if it.Price == "" || len(it.Items) > 0 {
		return it.Name
	}
	return it.Name + " - " + it.PriceLabel()
}

// Service is the catalog section of one domain. Steps name the selection
// steps from the outermost level of Items inward.
type Service struct {
	Intro string   `yaml:"intro"`
	Steps []string `yaml:"steps"`
	Items []Item   `yaml:"items"`
}

// Catalog is read-only after construction.
type Catalog struct {
	Domains map[booking.Domain]Service `yaml:"domains"`
}

// Default returns the embedded studio catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog file, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Domains) == 0 {
		return errors.New("catalog: no domains")
	}
	for d, svc := range c.Domains {
		if !d.Valid() {
			return fmt.Errorf("catalog: unknown domain %q", d)
		}
		if len(svc.Steps) == 0 || len(svc.Steps) > 2 {
			return fmt.Errorf("catalog: %s: want one or two selection steps, got %d", d, len(svc.Steps))
		}
		if err := validateLevel(d, svc.Items, len(svc.Steps)); err != nil {
			return err
		}
	}
	return nil
}

func validateLevel(d booking.Domain, items []Item, depth int) error {
	if len(items) == 0 {
		return fmt.Errorf("catalog: %s: empty selection level", d)
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" || it.Name == "" {
			return fmt.Errorf("catalog: %s: item without id or name", d)
		}
		if seen[it.ID] {
			return fmt.Errorf("catalog: %s: duplicate id %q", d, it.ID)
		}
		seen[it.ID] = true
		if depth > 1 {
			if err := validateLevel(d, it.Items, depth-1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Intro returns the domain's opening message.
func (c *Catalog) Intro(d booking.Domain) string {
	return c.Domains[d].Intro
}

// Options lists the choices at step. For nested steps parent is the id
// chosen at the preceding step.
func (c *Catalog) Options(d booking.Domain, step, parent string) ([]Item, error) {
	svc, ok := c.Domains[d]
	if !ok {
		return nil, fmt.Errorf("%w: domain %s", ErrNotFound, d)
	}
	switch slices.Index(svc.Steps, step) {
	case -1:
		return nil, fmt.Errorf("%w: step %s/%s", ErrNotFound, d, step)
	case 0:
		return svc.Items, nil
	}
	for _, it := range svc.Items {
		if it.ID == parent {
			return it.Items, nil
		}
	}
	return nil, fmt.Errorf("%w: parent %s/%s", ErrNotFound, d, parent)
}

// Resolve looks token up among the choices at step.
func (c *Catalog) Resolve(d booking.Domain, step, parent, token string) (Item, error) {
	items, err := c.Options(d, step, parent)
	if err != nil {
		return Item{}, err
	}
	for _, it := range items {
		if it.ID == token {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %s/%s/%s", ErrNotFound, d, step, token)
}
