package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmartin-estofados/storefront/app/models"
)

func TestCushionKitSingleton(t *testing.T) {
	db := newTestDB(t)
	svc := NewCushionKitService(db)
	ctx := context.Background()

	cfg, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = svc.Put(ctx, json.RawMessage(`{"price_per_kit":189.9,"pieces":4}`))
	require.NoError(t, err)
	cfg, err = svc.Put(ctx, json.RawMessage(` {"price_per_kit":199.9,"pieces":4} `))
	require.NoError(t, err)
	assert.JSONEq(t, `{"price_per_kit":199.9,"pieces":4}`, string(cfg))

	var rows int64
	require.NoError(t, db.Model(&models.CushionKit{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	require.NoError(t, svc.Delete(ctx))
	cfg, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestCushionKitRejectsNonObjects(t *testing.T) {
	svc := NewCushionKitService(newTestDB(t))

	for _, body := range []string{`[1,2]`, `"kit"`, ``, `{"broken":`} {
		_, err := svc.Put(context.Background(), json.RawMessage(body))
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), body)
	}
}

func TestCushionKitCheckConstraint(t *testing.T) {
	db := newTestDB(t)
	err := db.Create(&models.CushionKit{ID: 2, Config: []byte(`{}`)}).Error
	assert.Error(t, err)
}
