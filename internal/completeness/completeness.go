// Package completeness computes per-home content completeness scores from
// a fixed checklist of related-record categories.
package completeness

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"homeguides/server/internal/models"
)

// Check keys, in the fixed checklist order.
const (
	CheckBasicFields     = "basic_fields"
	CheckRooms           = "rooms"
	CheckTechnicalPlans  = "technical_plans"
	CheckApplianceGuides = "appliance_guides"
	CheckInventory       = "inventory"
	CheckStylingGuides   = "styling_guides"
	CheckPlaybooks       = "playbooks"
)

type check struct {
	key     string
	satisfy func(h *models.Home, c Counts) bool
}

var checks = []check{
	{CheckBasicFields, func(h *models.Home, _ Counts) bool {
		return h.Name != "" && h.Destination != "" && h.Address != "" && h.MainImage != ""
	}},
	{CheckRooms, func(_ *models.Home, c Counts) bool { return c.Rooms > 0 }},
	{CheckTechnicalPlans, func(_ *models.Home, c Counts) bool { return c.TechnicalPlans > 0 }},
	{CheckApplianceGuides, func(_ *models.Home, c Counts) bool { return c.ApplianceGuides > 0 }},
	{CheckInventory, func(_ *models.Home, c Counts) bool { return c.Inventory > 0 }},
	{CheckStylingGuides, func(_ *models.Home, c Counts) bool { return c.StylingGuides > 0 }},
	{CheckPlaybooks, func(_ *models.Home, c Counts) bool { return c.Playbooks > 0 }},
}

// Counts holds the per-home aggregates behind the checklist.
type Counts struct {
	Rooms           int `json:"rooms"`
	TechnicalPlans  int `json:"technical_plans"`
	ApplianceGuides int `json:"appliance_guides"`
	Inventory       int `json:"inventory"`
	StylingGuides   int `json:"styling_guides"`
	Playbooks       int `json:"playbooks"`
}

// HomeReport is the per-home scoring output.
type HomeReport struct {
	HomeID       string   `json:"home_id"`
	Name         string   `json:"name"`
	Destination  string   `json:"destination"`
	Completeness int      `json:"completeness"`
	Present      []string `json:"present"`
	Missing      []string `json:"missing"`
	Counts       Counts   `json:"counts"`
}

// Service computes completeness over the whole catalog in a bounded
// number of bulk queries, never one query per home.
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{db: db, logger: logger}
}

type groupCount struct {
	GroupID string `gorm:"column:group_id"`
	Cnt     int64  `gorm:"column:cnt"`
}

// ComputeAll scores every home.
func (s *Service) ComputeAll(ctx context.Context) ([]HomeReport, error) {
	db := s.db.WithContext(ctx)

	var homes []models.Home
	if err := db.Order("name ASC").Find(&homes).Error; err != nil {
		return nil, fmt.Errorf("failed to load homes: %w", err)
	}
	if len(homes) == 0 {
		return []HomeReport{}, nil
	}
	homeIDs := make([]string, len(homes))
	for i, h := range homes {
		homeIDs[i] = h.ID
	}

	roomCounts, err := s.countByHome(db, &models.Room{}, homeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count rooms: %w", err)
	}
	planCounts, err := s.countByHome(db, &models.TechnicalPlan{}, homeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count technical plans: %w", err)
	}
	invCounts, err := s.countByHome(db, &models.HomeInventory{}, homeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count inventory: %w", err)
	}

	// Styling guides and playbooks hang off rooms, so their counts are
	// grouped by room first and re-aggregated onto home ids.
	roomToHome, roomIDs, err := s.roomHomePairs(db, homeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load room/home pairs: %w", err)
	}
	stylingCounts, err := s.countViaRooms(db, &models.StylingGuide{}, roomIDs, roomToHome)
	if err != nil {
		return nil, fmt.Errorf("failed to count styling guides: %w", err)
	}
	playbookCounts, err := s.countViaRooms(db, &models.Playbook{}, roomIDs, roomToHome)
	if err != nil {
		return nil, fmt.Errorf("failed to count playbooks: %w", err)
	}

	guideCounts, err := s.countApplianceGuides(db, homeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count appliance guides: %w", err)
	}

	reports := make([]HomeReport, 0, len(homes))
	for i := range homes {
		h := &homes[i]
		counts := Counts{
			Rooms:           roomCounts[h.ID],
			TechnicalPlans:  planCounts[h.ID],
			ApplianceGuides: guideCounts[h.ID],
			Inventory:       invCounts[h.ID],
			StylingGuides:   stylingCounts[h.ID],
			Playbooks:       playbookCounts[h.ID],
		}
		present := make([]string, 0, len(checks))
		missing := make([]string, 0, len(checks))
		for _, c := range checks {
			if c.satisfy(h, counts) {
				present = append(present, c.key)
			} else {
				missing = append(missing, c.key)
			}
		}
		score := int(math.Round(float64(len(present)) / float64(len(checks)) * 100))
		reports = append(reports, HomeReport{
			HomeID:       h.ID,
			Name:         h.Name,
			Destination:  h.Destination,
			Completeness: score,
			Present:      present,
			Missing:      missing,
			Counts:       counts,
		})
	}
	return reports, nil
}

// countByHome runs one grouped count over a table with a home_id column.
func (s *Service) countByHome(db *gorm.DB, model any, homeIDs []string) (map[string]int, error) {
	var rows []groupCount
	err := db.Model(model).
		Select("home_id AS group_id, COUNT(*) AS cnt").
		Where("home_id IN ?", homeIDs).
		Group("home_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

// roomHomePairs loads (room id -> home id) for the given homes.
func (s *Service) roomHomePairs(db *gorm.DB, homeIDs []string) (map[string]string, []string, error) {
	var rooms []models.Room
	err := db.Select("id", "home_id").
		Where("home_id IN ?", homeIDs).
		Find(&rooms).Error
	if err != nil {
		return nil, nil, err
	}
	pairs := make(map[string]string, len(rooms))
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		pairs[r.ID] = r.HomeID
		ids = append(ids, r.ID)
	}
	return pairs, ids, nil
}

// countViaRooms groups a room-scoped table by room id and re-aggregates
// the counts onto home ids.
func (s *Service) countViaRooms(db *gorm.DB, model any, roomIDs []string, roomToHome map[string]string) (map[string]int, error) {
	counts := make(map[string]int)
	if len(roomIDs) == 0 {
		return counts, nil
	}
	var rows []groupCount
	err := db.Model(model).
		Select("room_id AS group_id, COUNT(*) AS cnt").
		Where("room_id IN ?", roomIDs).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if homeID, ok := roomToHome[row.GroupID]; ok {
			counts[homeID] += int(row.Cnt)
		}
	}
	return counts, nil
}

// countApplianceGuides aggregates the M:N pivot table directly.
func (s *Service) countApplianceGuides(db *gorm.DB, homeIDs []string) (map[string]int, error) {
	var rows []groupCount
	err := db.Table("home_appliance_guides").
		Select("home_id AS group_id, COUNT(*) AS cnt").
		Where("home_id IN ?", homeIDs).
		Group("home_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func toCountMap(rows []groupCount) map[string]int {
	m := make(map[string]int, len(rows))
	for _, r := range rows {
		m[r.GroupID] = int(r.Cnt)
	}
	return m
}
