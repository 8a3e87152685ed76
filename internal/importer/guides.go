package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"homeguides/server/internal/airtable"
	"homeguides/server/internal/models"
	"homeguides/server/internal/storage"
	"homeguides/server/internal/textkey"
)

// GuidesResult counts one appliance-guides import run.
type GuidesResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Linked    int `json:"linked"`
}

// ImportGuides upserts appliance guides by (equipment name, brand,
// model), re-hosts the cover image and the PDF manual, and links each
// guide to the homes named in the record through the M:N join. Home
// names resolve with the same normalization and alias table as every
// other job.
func (i *Importer) ImportGuides(ctx context.Context, opts Options) (*GuidesResult, error) {
	homeIdx, err := i.loadHomeIndex(ctx)
	if err != nil {
		return nil, err
	}

	res := &GuidesResult{}

	err = i.Airtable.ForEachRecord(ctx, i.ref(opts), func(rec airtable.Record) error {
		name := textkey.CollapseWhitespace(rec.FirstString("name", "Name", "equipment_name", "Equipo"))
		if name == "" {
			return nil
		}
		brandName := textkey.CollapseWhitespace(rec.FirstString("brand", "Brand", "Marca"))
		model := textkey.CollapseWhitespace(rec.FirstString("model", "Model", "Modelo"))
		description := textkey.CollapseWhitespace(rec.FirstString("description", "Description", "brief_description"))
		imageURL := firstURL(rec, "gallery", "image", "Image")
		pdfURL := firstURL(rec, "pdf_guide", "PDF", "pdf")
		homeNames := splitNames(rec.FirstString("homes", "Homes"))

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

		where := map[string]any{
			"equipment_name": name,
			"brand_id":       nullable(brandID),
			"model":          nullable(optStr(model)),
		}
		defaults := models.ApplianceGuide{
			EquipmentName:    name,
			BrandID:          brandID,
			Model:            optStr(model),
			BriefDescription: optStr(description),
		}
		var guide models.ApplianceGuide
		tx := i.DB.WithContext(ctx).Where(where).Attrs(defaults).FirstOrCreate(&guide)
		if tx.Error != nil {
			return fmt.Errorf("failed to upsert guide %q: %w", name, tx.Error)
		}
		if tx.RowsAffected > 0 {
			res.Created++
		} else if opts.UpdateExisting {
			if err := i.DB.WithContext(ctx).Model(&guide).
				Update("brief_description", optStr(description)).Error; err != nil {
				return fmt.Errorf("failed to update guide %q: %w", name, err)
			}
			res.Updated++
		}

		updates := map[string]any{}
		if imageURL != "" {
			dest := fmt.Sprintf("guides/%s/image%s", textkey.Slug(name), storage.ExtFor(imageURL))
			if publicURL := i.upload(ctx, imageURL, dest); publicURL != "" {
				updates["image_urls"] = models.JSONList{publicURL}
			}
		}
		if pdfURL != "" {
			dest := fmt.Sprintf("guides/%s/manual.pdf", textkey.Slug(name))
			if publicURL := i.upload(ctx, pdfURL, dest); publicURL != "" {
				updates["pdf_url"] = publicURL
			}
		}
		if len(updates) > 0 {
			if err := i.DB.WithContext(ctx).Model(&guide).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to set media of guide %q: %w", name, err)
			}
		}

		for _, hn := range homeNames {
			homeID, ok := homeIdx.Resolve(hn)
			if !ok {
				continue
			}
			err := i.DB.WithContext(ctx).Model(&guide).
				Association("Homes").
				Append(&models.Home{Base: models.Base{ID: homeID}})
			if err != nil {
				return fmt.Errorf("failed to link guide %q to home: %w", name, err)
			}
			res.Linked++
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}
	return res, nil
}

// splitNames splits a string-rendered linked-record cell into names.
func splitNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if n := strings.TrimSpace(part); n != "" {
			names = append(names, n)
		}
	}
	return names
}
