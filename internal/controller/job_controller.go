package controller

import (
	"github.com/gofiber/fiber/v2"

	"ai-research-be/internal/dto"
	"ai-research-be/internal/pkg/serverutils"
	"ai-research-be/internal/service"
)

type IJobController interface {
	RegisterRoutes(r fiber.Router)
	SubmitPlan(ctx *fiber.Ctx) error
	SubmitResearch(ctx *fiber.Ctx) error
	ListJobs(ctx *fiber.Ctx) error
	GetJob(ctx *fiber.Ctx) error
	CancelJob(ctx *fiber.Ctx) error
	DeleteJob(ctx *fiber.Ctx) error
}

type jobController struct {
	jobService service.IJobService
}

func NewJobController(jobService service.IJobService) IJobController {
	return &jobController{
		jobService: jobService,
	}
}

func (c *jobController) RegisterRoutes(r fiber.Router) {
	r.Post("plan", c.SubmitPlan)
	r.Post("research", c.SubmitResearch)
	r.Get("jobs", c.ListJobs)
	r.Get("jobs/:id", c.GetJob)
	r.Post("job/:id/cancel", c.CancelJob)
	r.Delete("jobs/:id", c.DeleteJob)
}

func (c *jobController) SubmitPlan(ctx *fiber.Ctx) error {
	var req dto.PlanJobRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.jobService.SubmitPlan(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Plan job accepted", res))
}

func (c *jobController) SubmitResearch(ctx *fiber.Ctx) error {
	var req dto.ResearchJobRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.jobService.SubmitResearch(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Research job accepted", res))
}

func (c *jobController) ListJobs(ctx *fiber.Ctx) error {
	jobs, err := c.jobService.ListJobs(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Jobs", jobs))
}

func (c *jobController) GetJob(ctx *fiber.Ctx) error {
	job, err := c.jobService.GetStatus(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if job == nil {
		return fiber.NewError(fiber.StatusNotFound, "Job not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Job status", job))
}

func (c *jobController) CancelJob(ctx *fiber.Ctx) error {
	job, err := c.jobService.Cancel(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if job == nil {
		return fiber.NewError(fiber.StatusNotFound, "Job not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Cancellation requested", job))
}

func (c *jobController) DeleteJob(ctx *fiber.Ctx) error {
	if err := c.jobService.Delete(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Job removed", nil))
}
