package controller

import (
	"ai-ereader-be/internal/dto"
	"ai-ereader-be/internal/pkg/serverutils"
	"ai-ereader-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ITitleController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Processed(ctx *fiber.Ctx) error
}

type titleController struct {
	titleService service.ITitleService
}

func NewTitleController(titleService service.ITitleService) ITitleController {
	return &titleController{
		titleService: titleService,
	}
}

func (c *titleController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/library/v1/title")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":id", c.Show)
	h.Post(":id/processed", c.Processed)
}

func (c *titleController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "id must be a valid id")
	}

	res, err := c.titleService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Title not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show title", res))
}

// Processed is the callback the document pipeline hits when parsing a title
// finishes. The resulting event fans out to the owner's open sessions.
func (c *titleController) Processed(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "id must be a valid id")
	}

	var req dto.TitleProcessedRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.titleService.MarkProcessed(ctx.Context(), id, req.Success); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success mark title processed", nil))
}
