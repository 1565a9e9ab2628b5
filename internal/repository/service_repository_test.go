package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MohammedMashal/smart-booking-system/internal/model"
	"github.com/MohammedMashal/smart-booking-system/internal/testutil"
)

func TestServiceRepository_ExistsActive(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormServiceRepository(db)
	ctx := context.Background()

	active := testutil.SeedService(t, db, "owner")
	retired := testutil.SeedService(t, db, "owner")
	require.NoError(t, db.Model(&model.Service{}).Where("id = ?", retired.ID).Update("is_active", false).Error)

	ok, err := repo.ExistsActive(ctx, active.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsActive(ctx, retired.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ExistsActive(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServiceRepository_List(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormServiceRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Massage", "Consultation", "Haircut"} {
		require.NoError(t, repo.Create(ctx, &model.Service{OwnerID: "owner", Name: name, IsActive: true}))
	}

	services, total, err := repo.List(ctx, true, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, services, 2)
	assert.Equal(t, "Consultation", services[0].Name)
	assert.Equal(t, "Haircut", services[1].Name)
}

func TestServiceRepository_LockByIDInTx(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewGormServiceRepository(db)
	svc := testutil.SeedService(t, db, "owner")
	ctx := context.Background()

	err := NewGormTxManager(db).Do(ctx, func(tx *gorm.DB) error {
		got, err := repo.WithTx(tx).LockByID(ctx, svc.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, svc.OwnerID, got.OwnerID)

		_, err = repo.WithTx(tx).LockByID(ctx, uuid.New())
		assert.True(t, IsNotFound(err), "got %v", err)
		return nil
	})
	require.NoError(t, err)
}
