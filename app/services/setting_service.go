package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/pkg/crypt"
	"github.com/mmartin-estofados/storefront/pkg/logger"
)

const maxSettingKey = 100

// CredentialsInput is the body of PUT /api/settings/payment/credentials.
type CredentialsInput struct {
	AccessToken string `json:"access_token" validate:"required,max=512"`
}

type SettingService struct {
	settings *repositories.SettingRepository
}

func NewSettingService(db *gorm.DB) *SettingService {
	return &SettingService{settings: repositories.NewSettingRepository(db)}
}

// All returns every non-secret setting keyed by name.
func (s *SettingService) All(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.settings.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		if models.SecretSetting(row.Key) {
			continue
		}
		out[row.Key] = json.RawMessage(row.Value)
	}
	return out, nil
}

// Get returns the value at key, or nil when unset. Secret keys read as
// unset.
func (s *SettingService) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if models.SecretSetting(key) {
		return nil, nil
	}
	row, err := s.settings.Find(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(row.Value), nil
}

// Put stores value at key, replacing any previous value.
func (s *SettingService) Put(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if err := checkSettingKey(key); err != nil {
		return nil, err
	}
	if models.SecretSetting(key) {
		return nil, invalid("key", "Use the payment credentials endpoint for this key.")
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, invalid("value", "The value must be valid JSON.")
	}
	return s.settings.Upsert(ctx, key, datatypes.JSON(value))
}

// Delete removes key. Deleting an unset key is not an error.
func (s *SettingService) Delete(ctx context.Context, key string) error {
	if err := checkSettingKey(key); err != nil {
		return err
	}
	_, err := s.settings.Delete(ctx, key)
	return err
}

// SetPaymentCredentials stores the gateway access token encrypted with the
// application key.
func (s *SettingService) SetPaymentCredentials(ctx context.Context, in CredentialsInput) error {
	token := strings.TrimSpace(in.AccessToken)
	if token == "" {
		return invalid("access_token", "The access_token field is required.")
	}

	sealed, err := crypt.Encrypt(token)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(paymentCredentials{AccessToken: sealed})
	if err != nil {
		return err
	}
	if _, err := s.settings.Upsert(ctx, models.SettingPaymentCredentials, datatypes.JSON(raw)); err != nil {
		return err
	}

	logger.WithCtx(ctx).Info("settings: payment credentials updated")
	return nil
}

func checkSettingKey(key string) error {
	if key == "" {
		return invalid("key", "The key field is required.")
	}
	if len(key) > maxSettingKey {
		return invalid("key", "The key may not be greater than 100 characters.")
	}
	return nil
}
