package importer

import (
	"context"
	"errors"
	"fmt"

	"homeguides/server/internal/airtable"
	"homeguides/server/internal/models"
	"homeguides/server/internal/storage"
	"homeguides/server/internal/textkey"
)

// errLimitReached aborts the record walk once Options.Limit is hit.
var errLimitReached = errors.New("import limit reached")

// HomesResult counts one homes import run.
type HomesResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
}

// ImportHomes upserts homes by exact name and re-hosts the main image
// under a deterministic path. Media failures are logged and skipped, the
// row itself still lands.
func (i *Importer) ImportHomes(ctx context.Context, opts Options) (*HomesResult, error) {
	res := &HomesResult{}

	err := i.Airtable.ForEachRecord(ctx, i.ref(opts), func(rec airtable.Record) error {
		name := textkey.CollapseWhitespace(rec.FirstString("Name", "Nombre", "name", "Home", "Casa"))
		if name == "" {
			return nil
		}
		destination := textkey.CollapseWhitespace(rec.FirstString("Destination Name", "Destino", "Destination", "destino"))
		address := textkey.CollapseWhitespace(rec.FirstString("Address", "Dirección", "direccion"))
		imageURL := firstURL(rec, "Main Image", "Gallery")

		res.Processed++
		if opts.Limit > 0 && res.Processed > opts.Limit {
			return errLimitReached
		}
		if opts.DryRun {
			return nil
		}

		var home models.Home
		tx := i.DB.WithContext(ctx).
			Where(models.Home{Name: name}).
			Attrs(models.Home{Destination: destination, Address: address}).
			FirstOrCreate(&home)
		if tx.Error != nil {
			return fmt.Errorf("failed to upsert home %q: %w", name, tx.Error)
		}
		if tx.RowsAffected > 0 {
			res.Created++
		} else if opts.UpdateExisting {
			updates := map[string]any{"destination": destination, "address": address}
			if err := i.DB.WithContext(ctx).Model(&home).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update home %q: %w", name, err)
			}
			res.Updated++
		}

		if imageURL != "" {
			dest := fmt.Sprintf("homes/%s/main%s", textkey.Slug(name), storage.ExtFor(imageURL))
			if publicURL := i.upload(ctx, imageURL, dest); publicURL != "" && home.MainImage != publicURL {
				if err := i.DB.WithContext(ctx).Model(&home).Update("main_image", publicURL).Error; err != nil {
					return fmt.Errorf("failed to set main image of %q: %w", name, err)
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

func firstURL(rec airtable.Record, fields ...string) string {
	for _, f := range fields {
		if urls := rec.URLs(f, 1); len(urls) > 0 {
			return urls[0]
		}
	}
	return ""
}
