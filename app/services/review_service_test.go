package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewLifecycle(t *testing.T) {
	db := newTestDB(t)
	createProduct(t, db, "sofa", "100.00")
	svc := NewReviewService(db)
	ctx := context.Background()

	first, err := svc.Create(ctx, ReviewInput{ProductID: "sofa", AuthorName: " Ana ", Rating: 5, Comment: "Lindo!"})
	require.NoError(t, err)
	assert.False(t, first.Approved)
	assert.Equal(t, "Ana", first.AuthorName)

	second, err := svc.Create(ctx, ReviewInput{ProductID: "sofa", AuthorName: "João", Rating: 4})
	require.NoError(t, err)

	public, err := svc.List(ctx, "sofa", false)
	require.NoError(t, err)
	assert.Empty(t, public)

	approved := true
	for _, id := range []uint{first.ID, second.ID} {
		_, err := svc.Update(ctx, id, ReviewPatch{Approved: &approved})
		require.NoError(t, err)
	}

	public, err = svc.List(ctx, "sofa", false)
	require.NoError(t, err)
	assert.Len(t, public, 2)

	summary, err := svc.Summary(ctx, "sofa")
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.InDelta(t, 4.5, summary.Average, 0.001)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.ErrorIs(t, svc.Delete(ctx, first.ID), ErrNotFound)
}

func TestReviewValidation(t *testing.T) {
	db := newTestDB(t)
	createProduct(t, db, "sofa", "100.00")
	svc := NewReviewService(db)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(ctx, ReviewInput{ProductID: "sofa", AuthorName: "Ana", Rating: rating})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "rating %d", rating)
		assert.Contains(t, verr.Fields, "rating")
	}

	_, err := svc.Create(ctx, ReviewInput{ProductID: "ghost", AuthorName: "Ana", Rating: 3})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "product_id")

	bad := 9
	_, err = svc.Update(ctx, 1, ReviewPatch{Rating: &bad})
	assert.True(t, errors.As(err, &verr))

	_, err = svc.Summary(ctx, "")
	assert.True(t, errors.As(err, &verr))
}
