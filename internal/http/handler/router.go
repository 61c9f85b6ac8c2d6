package handler

import (
	"ActivityScheduler/internal/domain"
	"ActivityScheduler/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health       *HealthHandler
	Metrics      *MetricsHandler
	Plans        *PlanHandler
	Activities   *ActivityHandler
	Participants *ParticipantHandler
	Schemas      *SchemaHandler
}

// NewRouter wires the full route table. Plan and schema management sit
// behind the developer role, cross-participant reads behind researcher;
// everything else only needs a valid token.
func NewRouter(h Handlers, jwtSecret []byte) *gin.Engine {
	engine := gin.Default()

	engine.GET("/healthz", h.Health.Healthz)
	engine.GET("/readyz", h.Health.Readyz)

	authed := engine.Group("/api", middleware.RequireAuth(jwtSecret))

	v3 := authed.Group("/v3")
	{
		v3.GET("/activities", h.Activities.GetScheduledActivities)
		v3.POST("/activities", h.Activities.UpdateScheduledActivities)
		v3.GET("/activities/:activityGuid/history", h.Activities.GetActivityHistory)
		v3.GET("/tasks/:taskId/history", h.Activities.GetTaskHistory)
	}
	authed.GET("/v4/activities", h.Activities.GetScheduledActivitiesByDateRange)

	developer := v3.Group("", middleware.RequireRole(domain.RoleDeveloper))
	{
		developer.POST("/scheduleplans", h.Plans.CreatePlan)
		developer.GET("/scheduleplans", h.Plans.ListPlans)
		developer.GET("/scheduleplans/:guid", h.Plans.GetPlan)
		developer.DELETE("/scheduleplans/:guid", h.Plans.DeletePlan)

		developer.POST("/uploadschemas", h.Schemas.CreateOrUpdateSchema)
		developer.GET("/uploadschemas", h.Schemas.ListSchemas)
		developer.GET("/uploadschemas/:schemaId", h.Schemas.GetSchemaRevisions)
		developer.GET("/uploadschemas/:schemaId/recent", h.Schemas.GetMostRecentSchema)
		developer.DELETE("/uploadschemas/:schemaId", h.Schemas.DeleteSchemaAllRevisions)
		developer.DELETE("/uploadschemas/:schemaId/revisions/:revision", h.Schemas.DeleteSchemaRevision)
	}

	researcher := v3.Group("/participants", middleware.RequireRole(domain.RoleResearcher))
	{
		researcher.POST("", h.Participants.Enroll)
		researcher.GET("", h.Participants.ListParticipants)
		researcher.GET("/:participantId", h.Participants.GetParticipant)
		researcher.GET("/:participantId/activities/:activityGuid/history", h.Activities.GetParticipantActivityHistory)
	}

	if h.Metrics != nil {
		v3.GET("/metrics/materializer", h.Metrics.GetMaterializerMetrics)
	}

	return engine
}
