package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile ingests a JSON array of provider records.
func (s *Store) LoadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog seed: %w", err)
	}

	var records []ProviderRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse catalog seed %s: %w", path, err)
	}
	return s.Load(ctx, records)
}
