package controller

import (
	"github.com/gofiber/fiber/v2"

	"ai-research-be/internal/dto"
	"ai-research-be/internal/pkg/serverutils"
	"ai-research-be/internal/service"
)

type IHistoryController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Rename(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type historyController struct {
	historyService service.IHistoryService
}

func NewHistoryController(historyService service.IHistoryService) IHistoryController {
	return &historyController{
		historyService: historyService,
	}
}

func (c *historyController) RegisterRoutes(r fiber.Router) {
	r.Get("history", c.List)
	r.Get("history/:id", c.Show)
	r.Patch("history/:id", c.Rename)
	r.Delete("history/:id", c.Delete)
}

func (c *historyController) List(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit")
	items, err := c.historyService.List(ctx.Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("History", items))
}

func (c *historyController) Show(ctx *fiber.Ctx) error {
	res, err := c.historyService.Show(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Conversation", res))
}

func (c *historyController) Rename(ctx *fiber.Ctx) error {
	var req dto.RenameHistoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	meta, err := c.historyService.Rename(ctx.Context(), ctx.Params("id"), req.Title)
	if err != nil {
		return err
	}
	if meta == nil {
		return fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Conversation renamed", meta))
}

func (c *historyController) Delete(ctx *fiber.Ctx) error {
	if err := c.historyService.Delete(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Conversation deleted", nil))
}
