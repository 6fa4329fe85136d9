package participant

import (
	"fmt"
	"os"

	"cargo-console/internal/bay"

	"gopkg.in/yaml.v3"
)

// Layout is the ship configuration and the containers seeded into the
// dock, as handed to a participant when the room opens.
type Layout struct {
	Bays       int      `yaml:"bays"`
	Rows       int      `yaml:"rows"`
	Columns    int      `yaml:"columns"`
	Containers []string `yaml:"containers"`
}

func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout: %w", err)
	}
	return ParseLayout(data)
}

func ParseLayout(data []byte) (Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout: %w", err)
	}
	if err := layout.Config().Validate(); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

func (l Layout) Config() bay.Config {
	return bay.Config{Bays: l.Bays, Rows: l.Rows, Columns: l.Columns}
}

func (l Layout) Tokens() []bay.Token {
	out := make([]bay.Token, len(l.Containers))
	for i, c := range l.Containers {
		out[i] = bay.Token(c)
	}
	return out
}
