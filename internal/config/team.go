package config

import (
	"fmt"

	uconfig "go.uber.org/config"
)

// Team names the group of people who review automatic data-import pull
// requests. It is read from a small YAML file kept in the target repository
// so the data team can maintain its own membership.
type Team struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

// LoadTeam reads and validates the reviewer team file.
func LoadTeam(path string) (Team, error) {
	provider, err := uconfig.NewYAML(uconfig.File(path))
	if err != nil {
		return Team{}, fmt.Errorf("read team config %s: %w", path, err)
	}

	var team Team
	if err := provider.Get(uconfig.Root).Populate(&team); err != nil {
		return Team{}, fmt.Errorf("parse team config %s: %w", path, err)
	}

	if team.Name == "" {
		return Team{}, fmt.Errorf("team config %s: missing required field: name", path)
	}
	if len(team.Members) == 0 {
		return Team{}, fmt.Errorf("team config %s: missing required field: members", path)
	}
	return team, nil
}
