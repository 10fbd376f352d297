package handler

import (
	"encoding/json"

	"ai-research-be/internal/constant"
	"ai-research-be/internal/dto"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/pkg/serverutils"
	"ai-research-be/internal/service"
	internalWS "ai-research-be/internal/websocket"
	"ai-research-be/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// JobStreamHandler exposes the live job event stream over WebSocket and a
// debug hook for injecting synthetic events into the pipeline.
type JobStreamHandler struct {
	jobService       service.IJobService
	publisherService service.IPublisherService
	hub              *internalWS.Hub
	logger           logger.ILogger
}

func NewJobStreamHandler(jobService service.IJobService, pub service.IPublisherService, hub *internalWS.Hub, log logger.ILogger) *JobStreamHandler {
	return &JobStreamHandler{
		jobService:       jobService,
		publisherService: pub,
		hub:              hub,
		logger:           log,
	}
}

// ServeWs upgrades the connection and attaches it to one job's event stream.
// Without an id the stream carries every job.
func (h *JobStreamHandler) ServeWs(c *fiber.Ctx) error {
	jobID := c.Params("id", internalWS.SubscribeAll)

	// Reject dead subscriptions before paying for the upgrade.
	if jobID != internalWS.SubscribeAll {
		job, err := h.jobService.GetStatus(c.UserContext(), jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return fiber.NewError(fiber.StatusNotFound, "Job not found")
		}
	}

	// Upgrade via Fiber WebSocket Middleware
	// We handle the upgrade here using the helper which automatically hijacks the connection
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("JobStreamHandler", "Starting WebSocket session", map[string]interface{}{"job_id": jobID})
			internalWS.ServeWs(h.hub, conn, jobID)
			h.logger.Info("JobStreamHandler", "WebSocket session ended", map[string]interface{}{"job_id": jobID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// DebugTriggerEvent injects a synthetic job event so the fanout path can be
// exercised without running a job. The synthetic snapshot never reaches a
// terminal status, so it cannot trigger notification mail.
func (h *JobStreamHandler) DebugTriggerEvent(ctx *fiber.Ctx) error {
	type Request struct {
		JobId   string `json:"job_id"`
		Event   string `json:"event"`
		Message string `json:"message"`
	}
	var req Request
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.JobId == "" {
		req.JobId = "debug"
	}
	if req.Event == "" {
		req.Event = constant.EventJobProgress
	}
	if req.Message == "" {
		req.Message = "Synthetic event"
	}

	event := dto.JobEventMessage{
		Event: req.Event,
		JobId: req.JobId,
		Snapshot: &entity.Job{
			JobId:     req.JobId,
			Type:      entity.JobTypeResearch,
			Title:     "Stream check",
			Status:    entity.JobStatusRunning,
			Stage:     entity.JobStageResearch,
			Message:   req.Message,
			Progress:  map[entity.JobStage]entity.StageProgress{},
			StartedTs: utils.NowUnix(),
		},
		OccurredTs: utils.NowUnix(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := h.publisherService.Publish(ctx.UserContext(), payload); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Event published", event))
}

// RegisterRoutes registers the stream routes.
func (h *JobStreamHandler) RegisterRoutes(router fiber.Router) {
	debug := router.Group("/debug")
	debug.Use(serverutils.AdminMiddleware)
	debug.Post("/trigger-job-event", h.DebugTriggerEvent)

	// WebSocket
	router.Get("/ws/jobs", h.ServeWs)
	router.Get("/ws/jobs/:id", h.ServeWs)
}
