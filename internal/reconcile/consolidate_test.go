package reconcile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homeguides/server/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedAmenity(t *testing.T, db *gorm.DB, id, name string, createdAt time.Time) {
	t.Helper()
	a := models.Amenity{
		Base: models.Base{ID: id, CreatedAt: createdAt, UpdatedAt: createdAt},
		Name: name,
	}
	require.NoError(t, db.Create(&a).Error)
}

func seedInventory(t *testing.T, db *gorm.DB, homeID, amenityID string) {
	t.Helper()
	inv := models.HomeInventory{HomeID: homeID, AmenityID: amenityID, Quantity: 1}
	require.NoError(t, db.Create(&inv).Error)
}

func TestConsolidateMergesDuplicates(t *testing.T) {
	db := openTestDB(t)
	h := models.Home{Name: "Casa Olivo"}
	require.NoError(t, db.Create(&h).Error)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedAmenity(t, db, "a-old", "Sillón Gris", base)
	seedAmenity(t, db, "a-mid", "sillon gris", base.Add(time.Hour))
	seedAmenity(t, db, "a-new", "ref. Sillón Gris", base.Add(2*time.Hour))
	seedAmenity(t, db, "a-other", "Lámpara", base)

	seedInventory(t, db, h.ID, "a-old")
	seedInventory(t, db, h.ID, "a-mid")
	seedInventory(t, db, h.ID, "a-mid")
	seedInventory(t, db, h.ID, "a-new")

	c := NewConsolidator(db, nil)
	res, err := c.Run(context.Background(), ConsolidateOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, res.TotalAmenities)
	assert.Equal(t, 2, res.TotalGroups)
	assert.Equal(t, 1, res.DuplicateGroups)
	assert.Equal(t, 2, res.DuplicatesCount)
	assert.Equal(t, int64(3), res.InventoryUpdates)
	require.Len(t, res.Examples, 1)
	assert.Equal(t, "a-old", res.Examples[0].CanonicalID)
	assert.ElementsMatch(t, []string{"a-mid", "a-new"}, res.Examples[0].DuplicateIDs)

	var remaining []models.Amenity
	require.NoError(t, db.Find(&remaining).Error)
	assert.Len(t, remaining, 2)

	// Every inventory row survives and points at the canonical amenity.
	var invCount, movedCount int64
	require.NoError(t, db.Model(&models.HomeInventory{}).Count(&invCount).Error)
	require.NoError(t, db.Model(&models.HomeInventory{}).Where("amenity_id = ?", "a-old").Count(&movedCount).Error)
	assert.Equal(t, int64(4), invCount)
	assert.Equal(t, int64(4), movedCount)
}

func TestConsolidateDryRunDoesNotWrite(t *testing.T) {
	db := openTestDB(t)
	h := models.Home{Name: "Casa Olivo"}
	require.NoError(t, db.Create(&h).Error)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedAmenity(t, db, "a1", "Espejo", base)
	seedAmenity(t, db, "a2", "espejo", base.Add(time.Minute))
	seedInventory(t, db, h.ID, "a2")

	c := NewConsolidator(db, nil)
	res, err := c.Run(context.Background(), ConsolidateOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.DuplicateGroups)
	assert.Equal(t, int64(1), res.InventoryUpdates)

	var amenityCount int64
	require.NoError(t, db.Model(&models.Amenity{}).Count(&amenityCount).Error)
	assert.Equal(t, int64(2), amenityCount)

	var inv models.HomeInventory
	require.NoError(t, db.First(&inv).Error)
	assert.Equal(t, "a2", inv.AmenityID)
}

func TestConsolidateLimitGroups(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedAmenity(t, db, "b1", "Alfombra", base)
	seedAmenity(t, db, "b2", "alfombra", base.Add(time.Minute))
	seedAmenity(t, db, "c1", "Cortina", base)
	seedAmenity(t, db, "c2", "cortina", base.Add(time.Minute))

	c := NewConsolidator(db, nil)
	res, err := c.Run(context.Background(), ConsolidateOptions{LimitGroups: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.DuplicateGroups)

	var remaining int64
	require.NoError(t, db.Model(&models.Amenity{}).Count(&remaining).Error)
	assert.Equal(t, int64(3), remaining)
}

func TestConsolidateIsDeterministic(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	run := func() *ConsolidateResult {
		db := openTestDB(t)
		seedAmenity(t, db, "b2", "alfombra", base.Add(time.Minute))
		seedAmenity(t, db, "b1", "Alfombra", base)
		seedAmenity(t, db, "c2", "cortina", base.Add(time.Minute))
		seedAmenity(t, db, "c1", "Cortina", base)
		c := NewConsolidator(db, nil)
		res, err := c.Run(context.Background(), ConsolidateOptions{})
		require.NoError(t, err)
		return res
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.Equal(t, "b1", first.Examples[0].CanonicalID)
	assert.Equal(t, "c1", first.Examples[1].CanonicalID)
}
