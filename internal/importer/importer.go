// Package importer contains the Airtable export jobs. Every job is
// idempotent: records resolve onto existing rows through the reconcile
// indexes and findOrCreate semantics, so re-running an import converges
// instead of duplicating.
package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"homeguides/server/internal/airtable"
	"homeguides/server/internal/media"
	"homeguides/server/internal/models"
	"homeguides/server/internal/reconcile"
	"homeguides/server/internal/storage"
	"homeguides/server/internal/textkey"
)

// Importer bundles the dependencies shared by every job.
type Importer struct {
	DB       *gorm.DB
	Airtable *airtable.Client
	Uploader storage.Uploader
	Logger   *logrus.Logger
	// DataDir holds the optional alias files (home_aliases.json,
	// amenity_aliases.json, category_aliases.json,
	// room_type_aliases.json).
	DataDir string
}

// Options are the per-run knobs shared across jobs. Jobs ignore the
// flags that do not apply to them.
type Options struct {
	Base  string
	Table string
	View  string

	// UpdateExisting refreshes mutable columns on rows that already
	// exist instead of leaving them untouched.
	UpdateExisting bool
	// DryRun counts without writing to the database or storage.
	DryRun bool
	// Limit stops after N processed records; 0 means all.
	Limit int
	// Strict disables the name-only amenity fallback.
	Strict bool
	// Report adds tuple-duplicate statistics to the inventory result.
	Report bool
	// CategoryField overrides the source column of the category job.
	CategoryField string
}

func (i *Importer) ref(o Options) airtable.TableRef {
	return airtable.TableRef{Base: o.Base, Table: o.Table, View: o.View}
}

func (i *Importer) log() *logrus.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return logrus.StandardLogger()
}

func (i *Importer) aliasPath(name string) string {
	return filepath.Join(i.DataDir, name)
}

func (i *Importer) homeAliases() (*reconcile.AliasList, error) {
	return reconcile.LoadAliasFile(i.aliasPath("home_aliases.json"),
		textkey.NormalizeHomeName, textkey.NormalizeHomeName)
}

func (i *Importer) amenityAliases() (*reconcile.AliasList, error) {
	return reconcile.LoadAliasFile(i.aliasPath("amenity_aliases.json"),
		textkey.Normalize, textkey.Normalize)
}

func (i *Importer) categoryAliases() (*reconcile.AliasList, error) {
	return reconcile.LoadAliasFile(i.aliasPath("category_aliases.json"),
		textkey.Normalize, textkey.Normalize)
}

func (i *Importer) roomTypeAliases() (*reconcile.AliasList, error) {
	return reconcile.LoadAliasFile(i.aliasPath("room_type_aliases.json"),
		textkey.NormalizeLoose, func(s string) string { return s })
}

// loadHomeIndex builds the home resolution index from the homes table
// plus the alias file.
func (i *Importer) loadHomeIndex(ctx context.Context) (*reconcile.HomeIndex, error) {
	aliases, err := i.homeAliases()
	if err != nil {
		return nil, err
	}
	var homes []models.Home
	if err := i.DB.WithContext(ctx).Select("id", "name").Find(&homes).Error; err != nil {
		return nil, fmt.Errorf("failed to load homes: %w", err)
	}
	return reconcile.NewHomeIndex(homes, aliases), nil
}

// getOrCreateBrand resolves a brand by exact name, creating it when
// missing. Empty names resolve to nil.
func (i *Importer) getOrCreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	name = textkey.CollapseWhitespace(name)
	if name == "" {
		return nil, nil
	}
	var brand models.Brand
	err := i.DB.WithContext(ctx).
		Where(models.Brand{Name: name}).
		FirstOrCreate(&brand, models.Brand{Name: name}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create brand %q: %w", name, err)
	}
	return &brand, nil
}

// categoryResolver get-or-creates categories by normalized name so
// "Decoración", "decoracion" and an aliased spelling land on one row.
type categoryResolver struct {
	db      *gorm.DB
	aliases *reconcile.AliasList
	keyToID map[string]string
}

func (i *Importer) newCategoryResolver(ctx context.Context) (*categoryResolver, error) {
	aliases, err := i.categoryAliases()
	if err != nil {
		return nil, err
	}
	var cats []models.Category
	if err := i.DB.WithContext(ctx).Select("id", "name").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	r := &categoryResolver{
		db:      i.DB,
		aliases: aliases,
		keyToID: make(map[string]string, len(cats)),
	}
	for _, c := range cats {
		key := textkey.Normalize(c.Name)
		if _, ok := r.keyToID[key]; !ok {
			r.keyToID[key] = c.ID
		}
	}
	return r, nil
}

// getOrCreate returns the category id for a raw name, creating the
// category with its display name when no normalized match exists.
func (r *categoryResolver) getOrCreate(ctx context.Context, rawName string) (string, error) {
	key := textkey.Normalize(rawName)
	if key == "" {
		return "", nil
	}
	target := r.aliases.Resolve(key)
	if id, ok := r.keyToID[target]; ok {
		return id, nil
	}
	display := textkey.CollapseWhitespace(rawName)
	var cat models.Category
	err := r.db.WithContext(ctx).
		Where(models.Category{Name: display}).
		FirstOrCreate(&cat, models.Category{Name: display}).Error
	if err != nil {
		return "", fmt.Errorf("failed to get or create category %q: %w", display, err)
	}
	r.keyToID[target] = cat.ID
	return cat.ID, nil
}

// upload re-hosts one file, tolerating a missing uploader (dry runs and
// environments without a bucket) by returning an empty URL.
func (i *Importer) upload(ctx context.Context, srcURL, destPath string) string {
	if i.Uploader == nil || srcURL == "" {
		return ""
	}
	publicURL, err := i.Uploader.UploadFromURL(ctx, srcURL, destPath)
	if err != nil {
		i.log().WithError(err).WithField("src", srcURL).Warn("Failed to re-host media")
		return ""
	}
	return publicURL
}

// mediaWorkers caps concurrent gallery transfers per record.
const mediaWorkers = 4

// uploadAll re-hosts a gallery through the worker pool and drops the
// tasks that failed, keeping source order for the survivors.
func (i *Importer) uploadAll(ctx context.Context, tasks []media.Task) []string {
	if i.Uploader == nil || len(tasks) == 0 {
		return nil
	}
	pool := media.NewPool(i.Uploader, mediaWorkers, 1, time.Second, i.log())
	var uploaded []string
	for _, url := range pool.UploadAll(ctx, tasks) {
		if url != "" {
			uploaded = append(uploaded, url)
		}
	}
	return uploaded
}

func optStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// nullable converts an optional string into a condition value that
// renders as IS NULL when absent.
func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
