package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the UUID key and timestamps shared by every table.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

type Home struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Destination string `json:"destination"`
	Address     string `json:"address"`
	MainImage   string `gorm:"column:main_image" json:"main_image"`
	Access      string `gorm:"type:text" json:"access"`
	Parking     string `gorm:"type:text" json:"parking"`
	Wifi        string `gorm:"type:text" json:"wifi"`
	Alarm       string `gorm:"type:text" json:"alarm"`

	Rooms           []Room           `gorm:"foreignKey:HomeID" json:"rooms,omitempty"`
	TechnicalPlans  []TechnicalPlan  `gorm:"foreignKey:HomeID" json:"technical_plans,omitempty"`
	Inventory       []HomeInventory  `gorm:"foreignKey:HomeID" json:"inventory,omitempty"`
	ApplianceGuides []ApplianceGuide `gorm:"many2many:home_appliance_guides;joinForeignKey:home_id;joinReferences:appliance_guide_id" json:"appliance_guides,omitempty"`
}

func (Home) TableName() string { return "homes" }

type RoomType struct {
	Base
	Name string `gorm:"not null;uniqueIndex" json:"name"`
}

func (RoomType) TableName() string { return "room_types" }

type Room struct {
	Base
	Name        string  `gorm:"not null" json:"name"`
	HomeID      string  `gorm:"column:home_id;type:uuid;not null;index" json:"home_id"`
	RoomTypeID  *string `gorm:"column:room_type_id;type:uuid" json:"room_type_id"`
	Description string  `json:"description"`

	RoomType *RoomType `gorm:"foreignKey:RoomTypeID" json:"room_type,omitempty"`
}

func (Room) TableName() string { return "rooms" }

type Brand struct {
	Base
	Name        string `gorm:"not null;uniqueIndex" json:"name"`
	Website     string `json:"website"`
	ContactInfo string `gorm:"column:contact_info" json:"contact_info"`
}

func (Brand) TableName() string { return "brands" }

type Category struct {
	Base
	Name        string `gorm:"not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Category) TableName() string { return "categories" }

type Supplier struct {
	Base
	Name         string `gorm:"not null" json:"name"`
	Website      string `json:"website"`
	ContactEmail string `gorm:"column:contact_email" json:"contact_email"`
	Phone        string `json:"phone"`
}

func (Supplier) TableName() string { return "suppliers" }

type Amenity struct {
	Base
	Name        string   `gorm:"not null;index" json:"name"`
	CategoryID  *string  `gorm:"column:category_id;type:uuid;index" json:"category_id"`
	BrandID     *string  `gorm:"column:brand_id;type:uuid;index" json:"brand_id"`
	Reference   *string  `json:"reference"`
	Model       *string  `json:"model"`
	Description *string  `gorm:"type:text" json:"description"`
	BasePrice   *float64 `gorm:"column:base_price" json:"base_price"`
	Images      JSONList `gorm:"column:images;type:jsonb" json:"images"`

	Brand    *Brand    `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Amenity) TableName() string { return "amenities" }

type TechnicalPlan struct {
	Base
	HomeID  string `gorm:"column:home_id;type:uuid;not null;index" json:"home_id"`
	Title   string `json:"title"`
	PlanURL string `gorm:"column:plan_url" json:"plan_url"`
}

func (TechnicalPlan) TableName() string { return "technical_plans" }

type ApplianceGuide struct {
	Base
	EquipmentName    string   `gorm:"column:equipment_name;not null" json:"equipment_name"`
	BrandID          *string  `gorm:"column:brand_id;type:uuid" json:"brand_id"`
	Model            *string  `json:"model"`
	BriefDescription *string  `gorm:"column:brief_description;type:text" json:"brief_description"`
	ImageURLs        JSONList `gorm:"column:image_urls;type:jsonb" json:"image_urls"`
	PDFURL           *string  `gorm:"column:pdf_url" json:"pdf_url"`
	VideoURL         *string  `gorm:"column:video_url" json:"video_url"`

	Brand *Brand `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	Homes []Home `gorm:"many2many:home_appliance_guides;joinForeignKey:appliance_guide_id;joinReferences:home_id" json:"homes,omitempty"`
}

func (ApplianceGuide) TableName() string { return "appliance_guides" }

type HomeInventory struct {
	Base
	HomeID            string     `gorm:"column:home_id;type:uuid;not null;index" json:"home_id"`
	AmenityID         string     `gorm:"column:amenity_id;type:uuid;not null;index" json:"amenity_id"`
	RoomID            *string    `gorm:"column:room_id;type:uuid;index" json:"room_id"`
	Quantity          int        `gorm:"not null;default:1" json:"quantity"`
	LocationDetails   *string    `gorm:"column:location_details" json:"location_details"`
	MinimumThreshold  *int       `gorm:"column:minimum_threshold" json:"minimum_threshold"`
	SupplierID        *string    `gorm:"column:supplier_id;type:uuid" json:"supplier_id"`
	PurchaseLink      *string    `gorm:"column:purchase_link" json:"purchase_link"`
	PurchasePrice     *float64   `gorm:"column:purchase_price" json:"purchase_price"`
	LastRestockedDate *time.Time `gorm:"column:last_restocked_date" json:"last_restocked_date"`
	Notes             *string    `gorm:"type:text" json:"notes"`

	Home     *Home     `gorm:"foreignKey:HomeID" json:"home,omitempty"`
	Amenity  *Amenity  `gorm:"foreignKey:AmenityID" json:"amenity,omitempty"`
	Room     *Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

func (HomeInventory) TableName() string { return "home_inventory" }

type StylingGuide struct {
	Base
	RoomID            string   `gorm:"column:room_id;type:uuid;not null;index" json:"room_id"`
	Title             string   `gorm:"not null" json:"title"`
	ReferencePhotoURL *string  `gorm:"column:reference_photo_url" json:"reference_photo_url"`
	ImageURLs         JSONList `gorm:"column:image_urls;type:jsonb" json:"image_urls"`
}

func (StylingGuide) TableName() string { return "styling_guides" }

type Playbook struct {
	Base
	RoomID string  `gorm:"column:room_id;type:uuid;not null;index" json:"room_id"`
	Type   string  `gorm:"not null" json:"type"`
	Title  string  `gorm:"not null" json:"title"`
	Tasks  *string `gorm:"type:text" json:"tasks"`
}

func (Playbook) TableName() string { return "playbooks" }

// All lists every model in migration order (referenced tables first).
func All() []any {
	return []any{
		&Brand{},
		&Category{},
		&Supplier{},
		&RoomType{},
		&Home{},
		&Room{},
		&Amenity{},
		&TechnicalPlan{},
		&ApplianceGuide{},
		&HomeInventory{},
		&StylingGuide{},
		&Playbook{},
	}
}
