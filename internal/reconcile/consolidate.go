package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"homeguides/server/internal/models"
	"homeguides/server/internal/textkey"
)

// ConsolidateOptions controls one consolidation run.
type ConsolidateOptions struct {
	// DryRun reports planned merges without touching the database.
	DryRun bool
	// LimitGroups caps how many duplicate groups are processed; 0 means
	// no cap.
	LimitGroups int
}

// MergeExample describes one planned or executed merge, capped at a few
// per run for the summary output.
type MergeExample struct {
	Key             string   `json:"key"`
	CanonicalID     string   `json:"canonical"`
	DuplicateIDs    []string `json:"duplicates"`
	InventoryToMove int64    `json:"inventoryToMove"`
}

// ConsolidateResult aggregates the run statistics.
type ConsolidateResult struct {
	TotalAmenities   int            `json:"totalAmenities"`
	TotalGroups      int            `json:"totalGroups"`
	DuplicateGroups  int            `json:"duplicateGroups"`
	DuplicatesCount  int            `json:"duplicatesCount"`
	InventoryUpdates int64          `json:"inventoryUpdates"`
	Examples         []MergeExample `json:"examples"`
}

// Consolidator finds amenity rows that are semantically identical and
// merges them, moving dependent inventory onto a deterministic canonical
// representative before deleting the redundant rows.
type Consolidator struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewConsolidator(db *gorm.DB, logger *logrus.Logger) *Consolidator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Consolidator{db: db, logger: logger}
}

// groupKey builds the duplicate-grouping key: normalized name with a
// leading "ref." stripped, brand id, normalized model, normalized
// reference, category id.
func groupKey(a *models.Amenity) string {
	return strings.Join([]string{
		stripRefPrefix(textkey.Normalize(a.Name)),
		orNull(deref(a.BrandID)),
		orNull(normalizeOpt(a.Model)),
		orNull(normalizeOpt(a.Reference)),
		orNull(deref(a.CategoryID)),
	}, "|")
}

func stripRefPrefix(key string) string {
	if rest, ok := strings.CutPrefix(key, "ref "); ok {
		return rest
	}
	return key
}

// Run executes one consolidation pass. Each duplicate group merges inside
// its own transaction: a failure rolls that group back and aborts the run,
// leaving previously committed groups committed.
func (c *Consolidator) Run(ctx context.Context, opts ConsolidateOptions) (*ConsolidateResult, error) {
	var amenities []models.Amenity
	if err := c.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&amenities).Error; err != nil {
		return nil, fmt.Errorf("failed to load amenities: %w", err)
	}

	groups := make(map[string][]models.Amenity)
	for _, a := range amenities {
		key := groupKey(&a)
		groups[key] = append(groups[key], a)
	}

	// Deterministic group order so LimitGroups caps the same groups on
	// every invocation.
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := &ConsolidateResult{TotalAmenities: len(amenities)}
	processedGroups := 0

	for _, key := range keys {
		list := groups[key]
		res.TotalGroups++
		if len(list) <= 1 {
			continue
		}
		res.DuplicateGroups++

		// Canonical representative: earliest created_at, id as tie-break.
		sort.SliceStable(list, func(i, j int) bool {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.Before(list[j].CreatedAt)
			}
			return list[i].ID < list[j].ID
		})
		canonical := list[0]
		dupIDs := make([]string, 0, len(list)-1)
		for _, d := range list[1:] {
			dupIDs = append(dupIDs, d.ID)
		}
		res.DuplicatesCount += len(dupIDs)

		var invCount int64
		if err := c.db.WithContext(ctx).Model(&models.HomeInventory{}).
			Where("amenity_id IN ?", dupIDs).
			Count(&invCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count inventory for group %s: %w", key, err)
		}
		res.InventoryUpdates += invCount

		if len(res.Examples) < 5 {
			sample := dupIDs
			if len(sample) > 5 {
				sample = sample[:5]
			}
			res.Examples = append(res.Examples, MergeExample{
				Key:             key,
				CanonicalID:     canonical.ID,
				DuplicateIDs:    sample,
				InventoryToMove: invCount,
			})
		}

		if !opts.DryRun {
			err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&models.HomeInventory{}).
					Where("amenity_id IN ?", dupIDs).
					Update("amenity_id", canonical.ID).Error; err != nil {
					return fmt.Errorf("failed to reassign inventory: %w", err)
				}
				if err := tx.Where("id IN ?", dupIDs).
					Delete(&models.Amenity{}).Error; err != nil {
					return fmt.Errorf("failed to delete duplicates: %w", err)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to merge group %s: %w", key, err)
			}
			c.logger.WithFields(logrus.Fields{
				"canonical":  canonical.ID,
				"duplicates": len(dupIDs),
				"inventory":  invCount,
			}).Info("Merged duplicate amenity group")
		}

		processedGroups++
		if opts.LimitGroups > 0 && processedGroups >= opts.LimitGroups {
			break
		}
	}

	return res, nil
}
