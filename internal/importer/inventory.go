package importer

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"homeguides/server/internal/airtable"
	"homeguides/server/internal/models"
	"homeguides/server/internal/reconcile"
	"homeguides/server/internal/textkey"
)

// InventoryResult counts one inventory import run. The report fields are
// only populated when Options.Report is set.
type InventoryResult struct {
	Processed        int `json:"processed"`
	Created          int `json:"created"`
	Updated          int `json:"updated"`
	SkippedNoHome    int `json:"skippedNoHome"`
	SkippedNoAmenity int `json:"skippedNoAmenity"`

	UniqueTuples           int `json:"uniqueTuples,omitempty"`
	Duplicates             int `json:"duplicates,omitempty"`
	AmbiguousAmenity       int `json:"ambiguousAmenity,omitempty"`
	UnresolvedRoomWithName int `json:"unresolvedRoomWithName,omitempty"`
}

// ImportInventory runs the reconciliation pipeline end-to-end: every
// external row names its home, item and optionally a room in free text,
// and must land on existing canonical rows. Records whose home or
// amenity cannot be resolved are counted and skipped, never guessed.
func (i *Importer) ImportInventory(ctx context.Context, opts Options) (*InventoryResult, error) {
	homeIdx, err := i.loadHomeIndex(ctx)
	if err != nil {
		return nil, err
	}
	amenityAliases, err := i.amenityAliases()
	if err != nil {
		return nil, err
	}

	// created_at order keeps first-writer-wins stable across runs.
	var amenities []models.Amenity
	if err := i.DB.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&amenities).Error; err != nil {
		return nil, fmt.Errorf("failed to load amenities: %w", err)
	}
	amenityIdx := reconcile.NewAmenityIndex(amenities)

	res := &InventoryResult{}
	seenTuples := make(map[string]struct{})

	err = i.Airtable.ForEachRecord(ctx, i.ref(opts), func(rec airtable.Record) error {
		itemName := textkey.CollapseWhitespace(rec.FirstString("item", "amenity", "name", "Item"))
		homeName := textkey.CollapseWhitespace(rec.FirstString("home_ref", "home", "Home"))
		quantity := rec.Int("quantity", rec.Int("qty", rec.Int("Quantity", 1)))
		roomName := textkey.CollapseWhitespace(rec.FirstString("room", "Room", "room_name", "ubicacion", "ubicación"))
		location := textkey.CollapseWhitespace(rec.FirstString("location_details", "location", "Ubicación", "ubicación", "loc"))
		brandName := textkey.CollapseWhitespace(rec.FirstString("brand", "Brand", "marca", "Marca"))
		reference := textkey.CollapseWhitespace(rec.FirstString("reference", "ref", "Reference", "REF"))
		model := textkey.CollapseWhitespace(rec.FirstString("model", "Model", "modelo", "Modelo"))
		categoryName := textkey.CollapseWhitespace(rec.FirstString("category", "Category", "categoria", "Categoría"))

		res.Processed++
		if opts.Limit > 0 && res.Processed > opts.Limit {
			return errLimitReached
		}

		if homeName == "" {
			res.SkippedNoHome++
			return nil
		}
		if itemName == "" {
			res.SkippedNoAmenity++
			return nil
		}

		homeID, ok := homeIdx.Resolve(homeName)
		if !ok {
			res.SkippedNoHome++
			return nil
		}

		// Auxiliary fields resolve against existing rows only; an
		// unknown brand or category just weakens the query.
		var brandID string
		if brandName != "" {
			var brand models.Brand
			err := i.DB.WithContext(ctx).Where("name = ?", brandName).First(&brand).Error
			if err == nil {
				brandID = brand.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up brand %q: %w", brandName, err)
			}
		}
		var categoryID string
		if categoryName != "" {
			var cat models.Category
			err := i.DB.WithContext(ctx).Where("name = ?", categoryName).First(&cat).Error
			if err == nil {
				categoryID = cat.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up category %q: %w", categoryName, err)
			}
		}

		nameKey := amenityAliases.Resolve(textkey.Normalize(itemName))
		amenityID, ok := amenityIdx.Resolve(reconcile.AmenityQuery{
			NameKey:    nameKey,
			BrandID:    brandID,
			CategoryID: categoryID,
			ModelKey:   textkey.Normalize(model),
			RefKey:     textkey.Normalize(reference),
		}, opts.Strict)
		if !ok {
			res.SkippedNoAmenity++
			// Several amenities holding the name means the record was
			// ambiguous rather than missing from the catalog.
			if amenityIdx.NameCount(nameKey) > 1 {
				res.AmbiguousAmenity++
			}
			return nil
		}

		var roomID *string
		if roomName != "" {
			var room models.Room
			err := i.DB.WithContext(ctx).
				Where("name = ? AND home_id = ?", roomName, homeID).
				First(&room).Error
			switch {
			case err == nil:
				roomID = &room.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
				res.UnresolvedRoomWithName++
			default:
				return fmt.Errorf("failed to look up room %q: %w", roomName, err)
			}
		}

		// Tuple accounting runs even in dry-run so reports match what a
		// real run would write.
		tuple := fmt.Sprintf("%s|%s|%s", homeID, amenityID, derefOr(roomID, "null"))
		if _, dup := seenTuples[tuple]; dup {
			res.Duplicates++
		} else {
			seenTuples[tuple] = struct{}{}
		}

		if opts.DryRun {
			return nil
		}

		where := map[string]any{
			"home_id":    homeID,
			"amenity_id": amenityID,
			"room_id":    nullable(roomID),
		}
		if quantity <= 0 {
			quantity = 1
		}
		defaults := models.HomeInventory{
			HomeID:          homeID,
			AmenityID:       amenityID,
			RoomID:          roomID,
			Quantity:        quantity,
			LocationDetails: optStr(location),
		}
		var inv models.HomeInventory
		tx := i.DB.WithContext(ctx).Where(where).Attrs(defaults).FirstOrCreate(&inv)
		if tx.Error != nil {
			return fmt.Errorf("failed to upsert inventory row: %w", tx.Error)
		}
		if tx.RowsAffected > 0 {
			res.Created++
		} else if opts.UpdateExisting {
			updates := map[string]any{}
			if inv.Quantity != quantity {
				updates["quantity"] = quantity
			}
			if location != "" && (inv.LocationDetails == nil || *inv.LocationDetails != location) {
				updates["location_details"] = location
			}
			if len(updates) > 0 {
				if err := i.DB.WithContext(ctx).Model(&inv).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update inventory row: %w", err)
				}
				res.Updated++
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}

	if opts.Report {
		res.UniqueTuples = len(seenTuples)
	} else {
		res.UniqueTuples = 0
		res.Duplicates = 0
		res.AmbiguousAmenity = 0
		res.UnresolvedRoomWithName = 0
	}
	return res, nil
}

func derefOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
