package snapshot

import (
	"context"
	"fmt"
	"os"

	"github.com/raphaelgruber/eventnexus-go/internal/models"
	"gopkg.in/yaml.v3"
)

// StaticSource serves collections held in memory, typically loaded from a
// fixture file.
type StaticSource struct {
	EventRecords        []models.Record `yaml:"events" json:"events"`
	UserRecords         []models.Record `yaml:"users" json:"users"`
	RegistrationRecords []models.Record `yaml:"registrations" json:"registrations"`
}

var _ Source = (*StaticSource)(nil)

func (s *StaticSource) Events(ctx context.Context) ([]models.Record, error) {
	return s.EventRecords, ctx.Err()
}

func (s *StaticSource) Users(ctx context.Context) ([]models.Record, error) {
	return s.UserRecords, ctx.Err()
}

func (s *StaticSource) Registrations(ctx context.Context) ([]models.Record, error) {
	return s.RegistrationRecords, ctx.Err()
}

// LoadSource reads a StaticSource from a YAML or JSON file.
func LoadSource(path string) (*StaticSource, error) {
	var src StaticSource
	if err := decodeFile(path, &src); err != nil {
		return nil, err
	}
	return &src, nil
}

// Fixed is a Provider that always returns the same snapshot.
type Fixed models.Snapshot

// Snapshot implements Provider.
func (f Fixed) Snapshot(ctx context.Context) (models.Snapshot, error) {
	return models.Snapshot(f), ctx.Err()
}

// LoadSnapshot reads a prebuilt snapshot from a YAML or JSON file.
func LoadSnapshot(path string) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := decodeFile(path, &snap); err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// decodeFile parses path as YAML. JSON documents are valid YAML.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
