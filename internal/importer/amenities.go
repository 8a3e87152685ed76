package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"homeguides/server/internal/airtable"
	"homeguides/server/internal/media"
	"homeguides/server/internal/models"
	"homeguides/server/internal/storage"
	"homeguides/server/internal/textkey"
)

// AmenitiesResult counts one amenities import run.
type AmenitiesResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
}

// amenityNameMax keeps names inside the column width.
const amenityNameMax = 255

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// ImportAmenities findOrCreates amenities on the full 5-field identity
// (name, brand, model, reference, category). Categories resolve through
// the alias map and a normalized-name index so accent and case variants
// collapse onto one row; up to 5 images per amenity re-host under a
// deterministic path.
func (i *Importer) ImportAmenities(ctx context.Context, opts Options) (*AmenitiesResult, error) {
	categories, err := i.newCategoryResolver(ctx)
	if err != nil {
		return nil, err
	}

	res := &AmenitiesResult{}

	err = i.Airtable.ForEachRecord(ctx, i.ref(opts), func(rec airtable.Record) error {
		name := truncate(textkey.CollapseWhitespace(rec.FirstString("item", "name", "Name")), amenityNameMax)
		if name == "" {
			return nil
		}
		brandName := textkey.CollapseWhitespace(rec.FirstString("brand", "Brand", "marca", "Marca"))
		categoryName := textkey.CollapseWhitespace(rec.FirstString("category", "Category", "categoria", "Categoría", "group", "Group", "tipo", "Tipo"))
		reference := textkey.CollapseWhitespace(rec.FirstString("reference", "ref", "Reference", "REF"))
		model := textkey.CollapseWhitespace(rec.FirstString("model", "Model", "modelo", "Modelo"))
		description := textkey.CollapseWhitespace(rec.FirstString("description", "Description", "descripcion", "Descripción"))
		basePrice, hasPrice := firstFloat(rec, "base_price", "price", "Price")
		imageSources := firstURLs(rec, 5, "images", "gallery", "image", "Image")

		res.Processed++
		if opts.Limit > 0 && res.Processed > opts.Limit {
			return errLimitReached
		}
		if opts.DryRun {
			return nil
		}

		brand, err := i.getOrCreateBrand(ctx, brandName)
		if err != nil {
			return err
		}
		var brandID *string
		if brand != nil {
			brandID = &brand.ID
		}
		categoryID, err := categories.getOrCreate(ctx, categoryName)
		if err != nil {
			return err
		}
		var catID *string
		if categoryID != "" {
			catID = &categoryID
		}

		where := models.Amenity{
			Name:       name,
			BrandID:    brandID,
			Model:      optStr(model),
			Reference:  optStr(reference),
			CategoryID: catID,
		}
		defaults := where
		defaults.Description = optStr(description)
		if hasPrice {
			defaults.BasePrice = &basePrice
		}

		var amenity models.Amenity
		tx := i.DB.WithContext(ctx).
			Where(identityConds(where)).
			Attrs(defaults).
			FirstOrCreate(&amenity)
		if tx.Error != nil {
			return fmt.Errorf("failed to upsert amenity %q: %w", name, tx.Error)
		}
		isCreated := tx.RowsAffected > 0
		if isCreated {
			res.Created++
		} else if opts.UpdateExisting {
			updates := map[string]any{}
			if catID != nil && (amenity.CategoryID == nil || *amenity.CategoryID != *catID) {
				updates["category_id"] = *catID
			}
			if description != "" {
				updates["description"] = description
			}
			if hasPrice {
				updates["base_price"] = basePrice
			}
			if len(updates) > 0 {
				if err := i.DB.WithContext(ctx).Model(&amenity).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update amenity %q: %w", name, err)
				}
				res.Updated++
			}
		} else if amenity.CategoryID == nil && catID != nil {
			// Backfill a missing category without counting it as an update.
			if err := i.DB.WithContext(ctx).Model(&amenity).Update("category_id", *catID).Error; err != nil {
				i.log().WithError(err).WithField("amenity", name).Warn("Failed to backfill category")
			}
		}

		if len(imageSources) > 0 && (isCreated || opts.UpdateExisting || len(amenity.Images) == 0) {
			tasks := make([]media.Task, len(imageSources))
			for n, src := range imageSources {
				tasks[n] = media.Task{
					SrcURL:   src,
					DestPath: fmt.Sprintf("%s/image-%d%s", amenityMediaDir(name, reference, model), n+1, storage.ExtFor(src)),
				}
			}
			uploaded := i.uploadAll(ctx, tasks)
			if len(uploaded) > 0 {
				if err := i.DB.WithContext(ctx).Model(&amenity).Update("images", models.JSONList(uploaded)).Error; err != nil {
					return fmt.Errorf("failed to set images of %q: %w", name, err)
				}
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}
	return res, nil
}

// amenityMediaDir builds the deterministic object prefix for an
// amenity's images, disambiguated by reference and model when present.
func amenityMediaDir(name, reference, model string) string {
	var b strings.Builder
	b.WriteString("amenities/")
	b.WriteString(textkey.Slug(name))
	if s := textkey.Slug(reference); s != "" {
		b.WriteString("-")
		b.WriteString(s)
	}
	if s := textkey.Slug(model); s != "" {
		b.WriteString("-")
		b.WriteString(s)
	}
	return b.String()
}

// identityConds renders the 5-field identity as explicit conditions so
// nil pointers compare as SQL NULL instead of being dropped from the
// WHERE clause.
func identityConds(a models.Amenity) map[string]any {
	return map[string]any{
		"name":        a.Name,
		"brand_id":    nullable(a.BrandID),
		"model":       nullable(a.Model),
		"reference":   nullable(a.Reference),
		"category_id": nullable(a.CategoryID),
	}
}

func firstFloat(rec airtable.Record, fields ...string) (float64, bool) {
	for _, f := range fields {
		if v, ok := rec.Float(f); ok {
			return v, true
		}
	}
	return 0, false
}

func firstURLs(rec airtable.Record, max int, fields ...string) []string {
	for _, f := range fields {
		if urls := rec.URLs(f, max); len(urls) > 0 {
			return urls
		}
	}
	return nil
}
