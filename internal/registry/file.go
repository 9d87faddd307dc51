package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads a JSON array of participants from path.
func LoadFile(path string) ([]Participant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}

	var players []Participant
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("registry: decode %s: %w", path, err)
	}
	for i, p := range players {
		if p.ID == "" {
			return nil, fmt.Errorf("registry: %s: entry %d has no id", path, i)
		}
	}
	return players, nil
}
