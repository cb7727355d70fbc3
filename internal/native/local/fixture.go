package local

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Norgate-AV/swbridge/internal/friends"
)

// DefaultFixturePath is used when SWBRIDGE_FIXTURE is not set.
const DefaultFixturePath = "swbridge-fixture.yaml"

// FixtureEnv overrides DefaultFixturePath
const FixtureEnv = "SWBRIDGE_FIXTURE"

// Fixture is the on-disk snapshot of the account's social graph
type Fixture struct {
	Friends []FixtureFriend `yaml:"friends"`
}

// FixtureFriend is one account. Relationship takes flag names; Flags takes a
// raw bitmask. Both are combined.
type FixtureFriend struct {
	SteamID      uint64   `yaml:"steamId"`
	Name         string   `yaml:"name"`
	Relationship []string `yaml:"relationship"`
	Flags        uint16   `yaml:"flags"`
}

// GetFixturePath returns $SWBRIDGE_FIXTURE, falling back to DefaultFixturePath.
func GetFixturePath() string {
	if envPath := strings.TrimSpace(os.Getenv(FixtureEnv)); envPath != "" {
		return envPath
	}

	return DefaultFixturePath
}

// ValidateFixture checks that the fixture file exists, with guidance if not.
func ValidateFixture(path string) error {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if os.Getenv(FixtureEnv) != "" {
			return fmt.Errorf("fixture not found at custom path: %s\n"+
				"Please verify the %s environment variable is correct", path, FixtureEnv)
		}

		return fmt.Errorf("fixture not found at %s\n"+
			"Create it, pass --fixture, or set the %s environment variable", path, FixtureEnv)
	}

	if err != nil {
		return fmt.Errorf("error checking fixture at %s: %w", path, err)
	}

	return nil
}

// LoadFixture reads and parses a fixture file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	return ParseFixture(data)
}

// ParseFixture parses fixture YAML
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	seen := make(map[uint64]bool, len(fx.Friends))
	for i, f := range fx.Friends {
		if seen[f.SteamID] {
			return nil, fmt.Errorf("fixture friend %d: duplicate steamId %d", i, f.SteamID)
		}
		seen[f.SteamID] = true

		if _, err := f.relationship(); err != nil {
			return nil, fmt.Errorf("fixture friend %d: %w", i, err)
		}
	}

	return &fx, nil
}

func (f FixtureFriend) relationship() (friends.Flags, error) {
	rel := friends.Flags(f.Flags)
	if len(f.Relationship) > 0 {
		parsed, err := friends.ParseFlags(strings.Join(f.Relationship, "|"))
		if err != nil {
			return 0, err
		}
		rel |= parsed
	}

	return rel, nil
}
