package forward

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

/* Loader reads extra destinations from a YAML file
 * Env-configured destinations are merged by the caller
 */

// FileConfig represents the structure of destinations.yaml
type FileConfig struct {
	Destinations []DestinationConfig `yaml:"destinations"`
}

// DestinationConfig represents a single destination in the YAML file
type DestinationConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Format string `yaml:"format"` // discord, full or lead; empty means detect from url
	Role   string `yaml:"role"`   // primary (default) or secondary
}

// Loader holds the loaded destinations in file order
type Loader struct {
	destinations []Destination
	names        map[string]struct{}
}

// NewLoader creates a new destination loader
func NewLoader() *Loader {
	return &Loader{
		names: make(map[string]struct{}),
	}
}

// Load reads and parses the destinations file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading destinations file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing destinations YAML: %w", err)
	}

	for _, dc := range cfg.Destinations {
		format := NewFormat(dc.Format)
		if dc.Format != "" && format == 0 {
			return fmt.Errorf("unknown format %q for destination %s", dc.Format, dc.Name)
		}
		d, err := NewDestination(dc.Name, dc.URL, format, NewRole(dc.Role))
		if err != nil {
			return fmt.Errorf("validating destination: %w", err)
		}
		if err := l.Add(d); err != nil {
			return err
		}
	}

	return nil
}

// Add registers a destination, rejecting duplicate names
func (l *Loader) Add(d Destination) error {
	if _, exists := l.names[d.Name]; exists {
		return fmt.Errorf("duplicate destination name: %s", d.Name)
	}
	l.names[d.Name] = struct{}{}
	l.destinations = append(l.destinations, d)
	return nil
}

// List returns all loaded destinations
func (l *Loader) List() []Destination {
	out := make([]Destination, len(l.destinations))
	copy(out, l.destinations)
	return out
}
