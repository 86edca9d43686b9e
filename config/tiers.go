package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Dosada05/tournament-engine/models"
)

// LoadTiers reads TIERS_FILE: a JSON array of tier specs registered at startup.
func LoadTiers(path string) ([]models.TierConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers file: %w", err)
	}
	var specs []models.TierSpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("decode tiers file %s: %w", path, err)
	}
	tiers := make([]models.TierConfig, 0, len(specs))
	for i, spec := range specs {
		cfg, err := spec.Config()
		if err != nil {
			return nil, fmt.Errorf("tiers file entry %d (tier %d): %w", i, spec.TierID, err)
		}
		tiers = append(tiers, cfg)
	}
	return tiers, nil
}
