package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"homeguides/server/internal/airtable"
	"homeguides/server/internal/models"
	"homeguides/server/internal/textkey"
)

// CategoriesResult counts one categories import run.
type CategoriesResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Total     int `json:"total"`
}

// ImportCategories get-or-creates unique category names from one source
// column. Multi-value cells split on commas; a seen set skips repeats
// within the run.
func (i *Importer) ImportCategories(ctx context.Context, opts Options) (*CategoriesResult, error) {
	field := opts.CategoryField
	if field == "" {
		field = "category"
	}

	res := &CategoriesResult{}
	seen := make(map[string]struct{})

	err := i.Airtable.ForEachRecord(ctx, i.ref(opts), func(rec airtable.Record) error {
		raw := rec.FirstString(field, "Category", "categoria", "Categoría", "group", "Group")
		for _, part := range strings.Split(raw, ",") {
			name := textkey.CollapseWhitespace(part)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			res.Processed++
			if opts.DryRun {
				continue
			}

			var cat models.Category
			tx := i.DB.WithContext(ctx).
				Where(models.Category{Name: name}).
				FirstOrCreate(&cat, models.Category{Name: name})
			if tx.Error != nil {
				return fmt.Errorf("failed to get or create category %q: %w", name, tx.Error)
			}
			if tx.RowsAffected > 0 {
				res.Created++
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}
	res.Total = len(seen)
	return res, nil
}
