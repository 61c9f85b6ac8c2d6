package handler

import (
	"net/http"
	"strconv"

	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/service"

	"github.com/gin-gonic/gin"
)

type SchemaHandler struct {
	svc *service.SchemaService
}

func NewSchemaHandler(svc *service.SchemaService) *SchemaHandler {
	return &SchemaHandler{svc: svc}
}

// POST /api/v3/uploadschemas
func (h *SchemaHandler) CreateOrUpdateSchema(c *gin.Context) {
	var schema domain.UploadSchema
	if err := c.ShouldBindJSON(&schema); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "detail": err.Error()})
		return
	}
	created, err := h.svc.CreateOrUpdateSchema(c.Request.Context(), schema)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GET /api/v3/uploadschemas
func (h *SchemaHandler) ListSchemas(c *gin.Context) {
	schemas, err := h.svc.ListSchemas(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": schemas})
}

// GET /api/v3/uploadschemas/:schemaId
func (h *SchemaHandler) GetSchemaRevisions(c *gin.Context) {
	revs, err := h.svc.GetSchemaRevisions(c.Request.Context(), c.Param("schemaId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": revs})
}

// GET /api/v3/uploadschemas/:schemaId/recent
func (h *SchemaHandler) GetMostRecentSchema(c *gin.Context) {
	schema, err := h.svc.GetMostRecentSchema(c.Request.Context(), c.Param("schemaId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

// DELETE /api/v3/uploadschemas/:schemaId
func (h *SchemaHandler) DeleteSchemaAllRevisions(c *gin.Context) {
	if err := h.svc.DeleteSchemaAllRevisions(c.Request.Context(), c.Param("schemaId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("schemaId")})
}

// DELETE /api/v3/uploadschemas/:schemaId/revisions/:revision
func (h *SchemaHandler) DeleteSchemaRevision(c *gin.Context) {
	rev, err := strconv.Atoi(c.Param("revision"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid revision"})
		return
	}
	if err := h.svc.DeleteSchemaRevision(c.Request.Context(), c.Param("schemaId"), rev); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("schemaId"), "revision": rev})
}
