package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/app/models"
	"github.com/mmartin-estofados/storefront/app/repositories"
	"github.com/mmartin-estofados/storefront/pkg/crypt"
)

func TestSettingsPutGetDelete(t *testing.T) {
	svc := NewSettingService(newTestDB(t))
	ctx := context.Background()

	_, err := svc.Put(ctx, "fabrics", json.RawMessage(`["Linho","Veludo"]`))
	require.NoError(t, err)
	_, err = svc.Put(ctx, "fabrics", json.RawMessage(`["Suede"]`))
	require.NoError(t, err)

	v, err := svc.Get(ctx, "fabrics")
	require.NoError(t, err)
	assert.JSONEq(t, `["Suede"]`, string(v))

	v, err = svc.Get(ctx, "unset")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, svc.Delete(ctx, "fabrics"))
	require.NoError(t, svc.Delete(ctx, "fabrics"))
	v, err = svc.Get(ctx, "fabrics")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSettingsRejectInvalidInput(t *testing.T) {
	svc := NewSettingService(newTestDB(t))
	ctx := context.Background()

	var verr *ValidationError
	_, err := svc.Put(ctx, "ui", json.RawMessage(`{not json`))
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Put(ctx, "", json.RawMessage(`1`))
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Put(ctx, models.SettingPaymentCredentials, json.RawMessage(`{"access_token":"x"}`))
	assert.True(t, errors.As(err, &verr))
}

func TestPaymentCredentialsAreEncryptedAndHidden(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingService(db)
	ctx := context.Background()

	_, err := svc.Put(ctx, "ui", json.RawMessage(`{"show_reviews":true}`))
	require.NoError(t, err)
	require.NoError(t, svc.SetPaymentCredentials(ctx, CredentialsInput{AccessToken: "APP_USR-secret"}))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Contains(t, all, "ui")
	assert.NotContains(t, all, models.SettingPaymentCredentials)

	v, err := svc.Get(ctx, models.SettingPaymentCredentials)
	require.NoError(t, err)
	assert.Nil(t, v)

	row, err := repositories.NewSettingRepository(db).Find(ctx, models.SettingPaymentCredentials)
	require.NoError(t, err)
	assert.NotContains(t, string(row.Value), "APP_USR-secret")

	var creds paymentCredentials
	require.NoError(t, json.Unmarshal(row.Value, &creds))
	plain, err := crypt.Decrypt(creds.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "APP_USR-secret", plain)
}

func TestSecretKeysIgnoreCase(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingService(db)
	ctx := context.Background()

	var verr *ValidationError
	for _, key := range []string{"PAYMENT.CREDENTIALS", "Payment.Credentials.backup", " payment.credentials"} {
		_, err := svc.Put(ctx, key, json.RawMessage(`{"access_token":"x"}`))
		assert.True(t, errors.As(err, &verr), key)
	}

	_, err := repositories.NewSettingRepository(db).Upsert(ctx, "Payment.Credentials", []byte(`{"access_token":"sealed"}`))
	require.NoError(t, err)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, "Payment.Credentials")

	v, err := svc.Get(ctx, "Payment.Credentials")
	require.NoError(t, err)
	assert.Nil(t, v)
}
