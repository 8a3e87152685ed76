package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// resource wires the standard CRUD surface for one model. filters lists
// the query params accepted by the list endpoint, each mapping straight
// onto an equality condition on the column of the same name.
type resource[T any] struct {
	db      *gorm.DB
	logger  *logrus.Logger
	name    string
	filters []string
}

func newResource[T any](db *gorm.DB, logger *logrus.Logger, name string, filters ...string) *resource[T] {
	return &resource[T]{db: db, logger: logger, name: name, filters: filters}
}

func (r *resource[T]) register(g *gin.RouterGroup) {
	g.GET("", r.list)
	g.GET("/:id", r.get)
	g.POST("", r.create)
	g.PUT("/:id", r.update)
	g.DELETE("/:id", r.remove)
}

func (r *resource[T]) list(c *gin.Context) {
	page, pageSize := pagination(c)

	q := r.db.WithContext(c.Request.Context()).Model(new(T))
	for _, f := range r.filters {
		if v := c.Query(f); v != "" {
			q = q.Where(f+" = ?", v)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		r.fail(c, err, "Failed to count "+r.name)
		return
	}

	var items []T
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	if err != nil {
		r.fail(c, err, "Failed to list "+r.name)
		return
	}
	if items == nil {
		items = []T{}
	}
	respondList(c, items, Meta{Page: page, PageSize: pageSize, Total: total})
}

func (r *resource[T]) get(c *gin.Context) {
	var item T
	err := r.db.WithContext(c.Request.Context()).
		First(&item, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, r.name+" not found", nil)
		return
	}
	if err != nil {
		r.fail(c, err, "Failed to load "+r.name)
		return
	}
	respondOK(c, http.StatusOK, item)
}

func (r *resource[T]) create(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := r.db.WithContext(c.Request.Context()).Create(&item).Error; err != nil {
		r.fail(c, err, "Failed to create "+r.name)
		return
	}
	respondOK(c, http.StatusCreated, item)
}

func (r *resource[T]) update(c *gin.Context) {
	id := c.Param("id")
	var existing T
	err := r.db.WithContext(c.Request.Context()).
		First(&existing, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, r.name+" not found", nil)
		return
	}
	if err != nil {
		r.fail(c, err, "Failed to load "+r.name)
		return
	}

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	delete(patch, "id")
	delete(patch, "created_at")
	delete(patch, "updated_at")

	if err := r.db.WithContext(c.Request.Context()).Model(&existing).Updates(patch).Error; err != nil {
		r.fail(c, err, "Failed to update "+r.name)
		return
	}
	respondOK(c, http.StatusOK, existing)
}

func (r *resource[T]) remove(c *gin.Context) {
	id := c.Param("id")
	tx := r.db.WithContext(c.Request.Context()).Delete(new(T), "id = ?", id)
	if tx.Error != nil {
		r.fail(c, tx.Error, "Failed to delete "+r.name)
		return
	}
	if tx.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, r.name+" not found", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *resource[T]) fail(c *gin.Context, err error, message string) {
	r.logger.WithError(err).Error(message)
	respondError(c, http.StatusInternalServerError, message, nil)
}
