package importer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeguides/server/internal/models"
)

// fakeUploader records uploads and returns deterministic public URLs.
type fakeUploader struct {
	mu      sync.Mutex
	uploads map[string]string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploads: make(map[string]string)}
}

func (f *fakeUploader) UploadFromURL(ctx context.Context, srcURL, destPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[destPath] = srcURL
	return "https://cdn.test/" + destPath, nil
}

func TestImportHomes(t *testing.T) {
	db := openTestDB(t)
	uploader := newFakeUploader()

	records := []map[string]any{
		{"Name": "Casa Olivo", "Destination Name": "Mallorca", "Address": "Camí Vell 2", "Main Image": "logo (https://at.example.com/olivo.png)"},
		{"Name": "Villa Mar"},
		{"Destination Name": "sin nombre"},
	}
	imp := newTestImporter(t, db, records)
	imp.Uploader = uploader

	res, err := imp.ImportHomes(context.Background(), Options{Base: "app1", Table: "tbl"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.Created)

	var olivo models.Home
	require.NoError(t, db.Where("name = ?", "Casa Olivo").First(&olivo).Error)
	assert.Equal(t, "Mallorca", olivo.Destination)
	assert.Equal(t, "https://cdn.test/homes/casa-olivo/main.png", olivo.MainImage)
	assert.Equal(t, "https://at.example.com/olivo.png", uploader.uploads["homes/casa-olivo/main.png"])

	// Re-running creates nothing new.
	res, err = imp.ImportHomes(context.Background(), Options{Base: "app1", Table: "tbl"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)

	var count int64
	require.NoError(t, db.Model(&models.Home{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestImportCategoriesDeduplicates(t *testing.T) {
	db := openTestDB(t)

	records := []map[string]any{
		{"category": "Mobiliario"},
		{"category": "Mobiliario, Iluminación"},
		{"category": "  Mobiliario  "},
		{"Category": "Textil"},
	}
	imp := newTestImporter(t, db, records)

	res, err := imp.ImportCategories(context.Background(), Options{Base: "app1", Table: "tbl"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 3, res.Total)

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestImportAmenitiesIdentity(t *testing.T) {
	db := openTestDB(t)

	records := []map[string]any{
		{"item": "Sillón Gris", "brand": "Kave", "model": "M-200", "reference": "R-7", "category": "Mobiliario", "price": "120,50"},
		// Same identity again: no second row.
		{"item": "Sillón Gris", "brand": "Kave", "model": "M-200", "reference": "R-7", "category": "Mobiliario"},
		// Different model: a distinct amenity.
		{"item": "Sillón Gris", "brand": "Kave", "model": "M-300"},
	}
	imp := newTestImporter(t, db, records)

	res, err := imp.ImportAmenities(context.Background(), Options{Base: "app1", Table: "tbl"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 2, res.Created)

	var amenities []models.Amenity
	require.NoError(t, db.Find(&amenities).Error)
	assert.Len(t, amenities, 2)

	var brand models.Brand
	require.NoError(t, db.Where("name = ?", "Kave").First(&brand).Error)
	var cat models.Category
	require.NoError(t, db.Where("name = ?", "Mobiliario").First(&cat).Error)

	var priced models.Amenity
	require.NoError(t, db.Where("reference = ?", "R-7").First(&priced).Error)
	require.NotNil(t, priced.BasePrice)
	assert.InDelta(t, 120.50, *priced.BasePrice, 0.001)
	assert.Equal(t, cat.ID, *priced.CategoryID)
}

func TestImportRoomTypes(t *testing.T) {
	db := openTestDB(t)

	records := []map[string]any{
		{"name": "Salón principal"},
		{"name": "Cocina"},
		{"name": "Dormitorio 1"},
		{"name": "Dormitorio 2"},
		{"name": "Zona misteriosa"},
	}
	imp := newTestImporter(t, db, records)

	res, err := imp.ImportRoomTypes(context.Background(), Options{Base: "app1", Table: "tbl"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Processed)
	assert.Equal(t, 2, res.Detected["dormitorio"])
	assert.Equal(t, 1, res.Detected["Otro"])
	assert.Equal(t, 3, res.Created)

	// "Otro" never becomes a room type.
	var count int64
	require.NoError(t, db.Model(&models.RoomType{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestImportStylingCreatesRoomsAndGuides(t *testing.T) {
	db := openTestDB(t)
	villa := seedHome(t, db, "Villa Mar")
	rt := models.RoomType{Name: "salón"}
	require.NoError(t, db.Create(&rt).Error)

	records := []map[string]any{
		{
			"name":        "Salón",
			"guides":      "Guía de casa Villa Mar",
			"gallery":     "https://at.example.com/1.jpg https://at.example.com/2.jpg",
			"description": "Cojines en el sofá\n- Manta doblada",
		},
	}
	imp := newTestImporter(t, db, records)
	imp.Uploader = newFakeUploader()

	res, err := imp.ImportStyling(context.Background(), Options{Base: "app1", Table: "tbl"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.CreatedRooms)
	assert.Equal(t, 1, res.CreatedGuides)
	assert.Equal(t, 1, res.CreatedPlays)

	var room models.Room
	require.NoError(t, db.Where("home_id = ?", villa.ID).First(&room).Error)
	assert.Equal(t, "Salón", room.Name)
	require.NotNil(t, room.RoomTypeID)
	assert.Equal(t, rt.ID, *room.RoomTypeID)

	var sg models.StylingGuide
	require.NoError(t, db.Where("room_id = ?", room.ID).First(&sg).Error)
	require.Len(t, sg.ImageURLs, 2)
	require.NotNil(t, sg.ReferencePhotoURL)
	assert.Equal(t, sg.ImageURLs[0], *sg.ReferencePhotoURL)

	var pb models.Playbook
	require.NoError(t, db.Where("room_id = ?", room.ID).First(&pb).Error)
	assert.Equal(t, "styling", pb.Type)
	require.NotNil(t, pb.Tasks)
	assert.Equal(t, "- Cojines en el sofá\n- Manta doblada", *pb.Tasks)

	// Second run reuses the room and both upserts.
	res, err = imp.ImportStyling(context.Background(), Options{Base: "app1", Table: "tbl"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreatedRooms)
	assert.Equal(t, 0, res.CreatedGuides)
	assert.Equal(t, 0, res.CreatedPlays)
}

func TestImportStylingUpdatesPlaybookTasks(t *testing.T) {
	db := openTestDB(t)
	seedHome(t, db, "Villa Mar")

	imp := newTestImporter(t, db, []map[string]any{
		{"name": "Salón", "guides": "Guía de casa Villa Mar", "description": "Cojines en el sofá"},
	})
	_, err := imp.ImportStyling(context.Background(), Options{Base: "app1", Table: "tbl"})
	require.NoError(t, err)

	// Re-import with a changed description and a gallery; the playbook
	// column must pick up the new bullet list, not the gallery tasks.
	imp2 := newTestImporter(t, db, []map[string]any{
		{
			"name":        "Salón",
			"guides":      "Guía de casa Villa Mar",
			"gallery":     "https://at.example.com/1.jpg",
			"description": "Cojines en el sofá\nManta doblada",
		},
	})
	imp2.Uploader = newFakeUploader()
	res, err := imp2.ImportStyling(context.Background(), Options{Base: "app1", Table: "tbl", UpdateExisting: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CreatedPlays)
	assert.Equal(t, 1, res.UpdatedPlays)

	var pb models.Playbook
	require.NoError(t, db.First(&pb).Error)
	require.NotNil(t, pb.Tasks)
	assert.Equal(t, "- Cojines en el sofá\n- Manta doblada", *pb.Tasks)
}

func TestImportGuidesLinksHomes(t *testing.T) {
	db := openTestDB(t)
	villa := seedHome(t, db, "Villa Mar")
	seedHome(t, db, "Casa Olivo")

	records := []map[string]any{
		{
			"name":        "Horno Balay",
			"brand":       "Balay",
			"model":       "3HB4331X0",
			"description": "Horno multifunción",
			"homes":       "Villa Mar, Casa Desconocida",
		},
	}
	imp := newTestImporter(t, db, records)

	res, err := imp.ImportGuides(context.Background(), Options{Base: "app1", Table: "tbl"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Linked)

	var guide models.ApplianceGuide
	require.NoError(t, db.Preload("Homes").Where("equipment_name = ?", "Horno Balay").First(&guide).Error)
	require.Len(t, guide.Homes, 1)
	assert.Equal(t, villa.ID, guide.Homes[0].ID)
}
