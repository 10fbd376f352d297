package controller

import (
	"github.com/gofiber/fiber/v2"

	"ai-research-be/internal/pkg/serverutils"
	"ai-research-be/internal/service"
)

type ICorpusController interface {
	RegisterRoutes(r fiber.Router)
	Stats(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
}

type corpusController struct {
	corpusService service.ICorpusService
}

func NewCorpusController(corpusService service.ICorpusService) ICorpusController {
	return &corpusController{
		corpusService: corpusService,
	}
}

func (c *corpusController) RegisterRoutes(r fiber.Router) {
	r.Get("corpus/stats", c.Stats)
	r.Get("corpus/search", c.Search)
}

func (c *corpusController) Stats(ctx *fiber.Ctx) error {
	stats, err := c.corpusService.Stats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Corpus stats", stats))
}

func (c *corpusController) Search(ctx *fiber.Ctx) error {
	res, err := c.corpusService.Search(ctx.Context(), ctx.Query("q"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Corpus search", res))
}
