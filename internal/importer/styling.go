package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"homeguides/server/internal/airtable"
	"homeguides/server/internal/media"
	"homeguides/server/internal/models"
	"homeguides/server/internal/reconcile"
	"homeguides/server/internal/storage"
	"homeguides/server/internal/textkey"
)

// StylingResult counts one styling import run.
type StylingResult struct {
	Processed     int `json:"processed"`
	CreatedRooms  int `json:"createdRooms"`
	CreatedGuides int `json:"createdSG"`
	UpdatedGuides int `json:"updatedSG"`
	CreatedPlays  int `json:"createdPB"`
	UpdatedPlays  int `json:"updatedPB"`
}

// guidePrefixes are the boilerplate lead-ins of the styling table's home
// column, stripped before home-name normalization. Longer prefixes first
// so "guia de casa " wins over "guia de ".
var guidePrefixes = []string{"guia de casa ", "guia de "}

// ImportStyling ingests the room-styling table: each record names a room
// inside a home, carries a photo gallery, and a description that becomes
// a styling playbook. Rooms missing from the catalog are created with a
// classified room type.
func (i *Importer) ImportStyling(ctx context.Context, opts Options) (*StylingResult, error) {
	homeIdx, err := i.loadHomeIndex(ctx)
	if err != nil {
		return nil, err
	}
	rtAliases, err := i.roomTypeAliases()
	if err != nil {
		return nil, err
	}
	classifier := reconcile.NewRoomTypeClassifier(rtAliases)

	var roomTypes []models.RoomType
	if err := i.DB.WithContext(ctx).Find(&roomTypes).Error; err != nil {
		return nil, fmt.Errorf("failed to load room types: %w", err)
	}
	rtNameToID := make(map[string]string, len(roomTypes))
	for _, rt := range roomTypes {
		rtNameToID[textkey.NormalizeLoose(rt.Name)] = rt.ID
	}

	res := &StylingResult{}

	err = i.Airtable.ForEachRecord(ctx, i.ref(opts), func(rec airtable.Record) error {
		roomName := textkey.CollapseWhitespace(rec.FirstString("name", "Name", "room", "Room"))
		homeRaw := rec.FirstString("guides", "guides 2", "guides 3")
		if roomName == "" || homeRaw == "" {
			res.Processed++
			return nil
		}

		homeKey := stripGuidePrefix(textkey.NormalizeLoose(homeRaw))
		homeID, ok := homeIdx.ResolveKey(textkey.NormalizeHomeName(homeKey))
		if !ok {
			res.Processed++
			return nil
		}

		var room models.Room
		err := i.DB.WithContext(ctx).
			Where("name = ? AND home_id = ?", roomName, homeID).
			First(&room).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			var rtID *string
			if label, ok := classifier.Detect(roomName); ok {
				if id, ok := rtNameToID[textkey.NormalizeLoose(label)]; ok {
					rtID = &id
				}
			}
			res.CreatedRooms++
			if opts.DryRun {
				res.Processed++
				return nil
			}
			room = models.Room{Name: roomName, HomeID: homeID, RoomTypeID: rtID}
			if err := i.DB.WithContext(ctx).Create(&room).Error; err != nil {
				return fmt.Errorf("failed to create room %q: %w", roomName, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to look up room %q: %w", roomName, err)
		}

		if opts.DryRun {
			res.Processed++
			return nil
		}

		gallery := firstURLs(rec, 0, "gallery", "Gallery")
		tasks := make([]media.Task, len(gallery))
		for n, src := range gallery {
			tasks[n] = media.Task{
				SrcURL: src,
				DestPath: fmt.Sprintf("styling/%s/%s/image-%d%s",
					textkey.Slug(homeKey), textkey.Slug(roomName), n+1, storage.ExtFor(src)),
			}
		}
		uploaded := i.uploadAll(ctx, tasks)
		var refURL string
		if len(uploaded) > 0 {
			refURL = uploaded[0]
		}

		title := roomName
		sgDefaults := models.StylingGuide{
			RoomID:            room.ID,
			Title:             title,
			ReferencePhotoURL: optStr(refURL),
			ImageURLs:         models.JSONList(uploaded),
		}
		var sg models.StylingGuide
		tx := i.DB.WithContext(ctx).
			Where(map[string]any{"room_id": room.ID, "title": title}).
			Attrs(sgDefaults).
			FirstOrCreate(&sg)
		if tx.Error != nil {
			return fmt.Errorf("failed to upsert styling guide %q: %w", title, tx.Error)
		}
		if tx.RowsAffected > 0 {
			res.CreatedGuides++
		} else if opts.UpdateExisting {
			updates := map[string]any{}
			if refURL != "" && (sg.ReferencePhotoURL == nil || *sg.ReferencePhotoURL != refURL) {
				updates["reference_photo_url"] = refURL
			}
			if len(uploaded) > 0 {
				updates["image_urls"] = models.JSONList(uploaded)
			}
			if len(updates) > 0 {
				if err := i.DB.WithContext(ctx).Model(&sg).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update styling guide %q: %w", title, err)
				}
				res.UpdatedGuides++
			}
		}

		bullets := splitDescriptionToBullets(rec.FirstString("description", "Description"))
		pbDefaults := models.Playbook{
			RoomID: room.ID,
			Type:   "styling",
			Title:  title,
			Tasks:  optStr(bullets),
		}
		var pb models.Playbook
		tx = i.DB.WithContext(ctx).
			Where(map[string]any{"room_id": room.ID, "type": "styling", "title": title}).
			Attrs(pbDefaults).
			FirstOrCreate(&pb)
		if tx.Error != nil {
			return fmt.Errorf("failed to upsert playbook %q: %w", title, tx.Error)
		}
		if tx.RowsAffected > 0 {
			res.CreatedPlays++
		} else if opts.UpdateExisting && bullets != "" && (pb.Tasks == nil || *pb.Tasks != bullets) {
			if err := i.DB.WithContext(ctx).Model(&pb).Update("tasks", bullets).Error; err != nil {
				return fmt.Errorf("failed to update playbook %q: %w", title, err)
			}
			res.UpdatedPlays++
		}

		res.Processed++
		if opts.Limit > 0 && res.Processed >= opts.Limit {
			return errLimitReached
		}
		return nil
	})
	if err != nil && !errors.Is(err, errLimitReached) {
		return nil, err
	}
	return res, nil
}

func stripGuidePrefix(s string) string {
	for _, p := range guidePrefixes {
		if rest, ok := strings.CutPrefix(s, p); ok {
			return rest
		}
	}
	return s
}

// splitDescriptionToBullets turns a free-text description into a
// markdown task list, one bullet per non-empty line.
func splitDescriptionToBullets(desc string) string {
	var items []string
	for _, line := range strings.Split(desc, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-•– ")
		if line != "" {
			items = append(items, "- "+line)
		}
	}
	return strings.Join(items, "\n")
}
