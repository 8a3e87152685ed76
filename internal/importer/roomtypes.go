package importer

import (
	"context"
	"errors"
	"fmt"

	"homeguides/server/internal/airtable"
	"homeguides/server/internal/models"
	"homeguides/server/internal/reconcile"
	"homeguides/server/internal/textkey"
)

// RoomTypesResult counts one room-type classification run. Detected maps
// each label (including the unknown bucket) to how many rooms landed on
// it.
type RoomTypesResult struct {
	Processed int            `json:"processed"`
	Detected  map[string]int `json:"detected"`
	Created   int            `json:"created"`
	Existed   int            `json:"existed"`
}

// ImportRoomTypes classifies every room name in the source table, tallies
// the labels, and creates the RoomType rows for every detected label
// except the unknown bucket.
func (i *Importer) ImportRoomTypes(ctx context.Context, opts Options) (*RoomTypesResult, error) {
	rtAliases, err := i.roomTypeAliases()
	if err != nil {
		return nil, err
	}
	classifier := reconcile.NewRoomTypeClassifier(rtAliases)

	res := &RoomTypesResult{Detected: make(map[string]int)}

	err = i.Airtable.ForEachRecord(ctx, i.ref(opts), func(rec airtable.Record) error {
		name := textkey.CollapseWhitespace(rec.FirstString("name", "Name", "room", "Room"))
		if name == "" {
			return nil
		}
		res.Processed++
		label, ok := classifier.Detect(name)
		if !ok {
			label = reconcile.UnknownRoomType
		}
		res.Detected[label]++
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}

	if opts.DryRun {
		return res, nil
	}
	for label := range res.Detected {
		if label == reconcile.UnknownRoomType {
			continue
		}
		var rt models.RoomType
		tx := i.DB.WithContext(ctx).
			Where(models.RoomType{Name: label}).
			FirstOrCreate(&rt, models.RoomType{Name: label})
		if tx.Error != nil {
			return nil, fmt.Errorf("failed to create room type %q: %w", label, tx.Error)
		}
		if tx.RowsAffected > 0 {
			res.Created++
		} else {
			res.Existed++
		}
	}
	return res, nil
}
