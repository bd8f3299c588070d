package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/repositories"
)

// CushionKitService manages the single cushion-kit configuration.
type CushionKitService struct {
	kits *repositories.CushionKitRepository
}

func NewCushionKitService(db *gorm.DB) *CushionKitService {
	return &CushionKitService{kits: repositories.NewCushionKitRepository(db)}
}

// Get returns the configuration, or nil when none is stored.
func (s *CushionKitService) Get(ctx context.Context) (json.RawMessage, error) {
	kit, err := s.kits.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(kit.Config), nil
}

// Put replaces the configuration. It must be a JSON object.
func (s *CushionKitService) Put(ctx context.Context, config json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(config)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, invalid("config", "The config must be a JSON object.")
	}

	kit, err := s.kits.Upsert(ctx, datatypes.JSON(trimmed))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(kit.Config), nil
}

// Delete resets the kit to unconfigured.
func (s *CushionKitService) Delete(ctx context.Context) error {
	_, err := s.kits.Delete(ctx)
	return err
}
