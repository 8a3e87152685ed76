package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"homeguides/server/internal/completeness"
	"homeguides/server/internal/models"
)

// SetupRoutes registers the CRUD surface for every catalog table plus
// the completeness report and the health check.
func SetupRoutes(router *gin.Engine, db *gorm.DB, logger *logrus.Logger) {
	if logger == nil {
		logger = logrus.New()
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	svc := completeness.NewService(db, logger)
	v1.GET("/homes/completeness", func(c *gin.Context) {
		reports, err := svc.ComputeAll(c.Request.Context())
		if err != nil {
			logger.WithError(err).Error("Failed to compute completeness")
			respondError(c, http.StatusInternalServerError, "Failed to compute completeness", nil)
			return
		}
		respondOK(c, http.StatusOK, reports)
	})

	newResource[models.Home](db, logger, "home").register(v1.Group("/homes"))
	newResource[models.Room](db, logger, "room", "home_id", "room_type_id").register(v1.Group("/rooms"))
	newResource[models.RoomType](db, logger, "room type").register(v1.Group("/room-types"))
	newResource[models.Brand](db, logger, "brand").register(v1.Group("/brands"))
	newResource[models.Category](db, logger, "category").register(v1.Group("/categories"))
	newResource[models.Supplier](db, logger, "supplier").register(v1.Group("/suppliers"))
	newResource[models.Amenity](db, logger, "amenity", "category_id", "brand_id").register(v1.Group("/amenities"))
	newResource[models.TechnicalPlan](db, logger, "technical plan", "home_id").register(v1.Group("/technical-plans"))
	newResource[models.ApplianceGuide](db, logger, "appliance guide", "brand_id").register(v1.Group("/appliance-guides"))
	newResource[models.HomeInventory](db, logger, "inventory item", "home_id", "amenity_id", "room_id", "supplier_id").register(v1.Group("/home-inventory"))
	newResource[models.StylingGuide](db, logger, "styling guide", "room_id").register(v1.Group("/styling-guides"))
	newResource[models.Playbook](db, logger, "playbook", "room_id", "type").register(v1.Group("/playbooks"))
}
