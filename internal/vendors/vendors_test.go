package vendors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
)

func TestVendorLifecycle(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	ctx := context.Background()

	dairy, err := svc.Create(ctx, Input{Name: " Olympus Dairy ", Email: "Orders@Olympus.gr", Category: "dairy"})
	require.NoError(t, err)
	assert.Equal(t, "Olympus Dairy", dairy.Name)
	assert.Equal(t, "orders@olympus.gr", dairy.Email)
	assert.True(t, dairy.IsActive)

	_, err = svc.Create(ctx, Input{Name: "Aegean Produce", Category: "produce"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, dairy.ID, Update{IsActive: &inactive})
	require.NoError(t, err)

	active, err := svc.List(ctx, Filters{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Aegean Produce", active[0].Name)

	byCategory, err := svc.List(ctx, Filters{Category: "dairy"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.False(t, byCategory[0].IsActive)

	require.NoError(t, svc.Delete(ctx, dairy.ID))
	_, err = svc.Get(ctx, dairy.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestVendorValidation(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Create(ctx, Input{Name: " "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, Input{Name: "Broken", Email: "not-an-email"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	name := "Ghost"
	_, err = svc.Update(ctx, 42, Update{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
