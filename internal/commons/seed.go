package commons

import (
	"fmt"
	"math"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Seed is the fixture format used by the seed command to bootstrap a store.
type Seed struct {
	Bakeries []SeedBakery `yaml:"bakeries"`
}

type SeedBakery struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Menu        []SeedMenuItem `yaml:"menu"`
}

type SeedMenuItem struct {
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	for i, b := range seed.Bakeries {
		if strings.TrimSpace(b.Name) == "" {
			return nil, fmt.Errorf("seed bakery #%d: name is required", i+1)
		}
		for j, item := range b.Menu {
			if strings.TrimSpace(item.Name) == "" {
				return nil, fmt.Errorf("seed bakery %q item #%d: name is required", b.Name, j+1)
			}
			if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) || item.Price < 0 {
				return nil, fmt.Errorf("seed bakery %q item %q: price must be a non-negative number", b.Name, item.Name)
			}
		}
	}

	return &seed, nil
}
