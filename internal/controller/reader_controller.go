package controller

import (
	"ai-ereader-be/internal/dto"
	"ai-ereader-be/internal/pkg/serverutils"
	"ai-ereader-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReaderController interface {
	RegisterRoutes(r fiber.Router)
	GetPageNumber(ctx *fiber.Ctx) error
	SavePageNumber(ctx *fiber.Ctx) error
	PostQnA(ctx *fiber.Ctx) error
	PostVerbalQnA(ctx *fiber.Ctx) error
}

type readerController struct {
	readerService service.IReaderService
	qnaService    service.IQnAService
}

func NewReaderController(readerService service.IReaderService, qnaService service.IQnAService) IReaderController {
	return &readerController{
		readerService: readerService,
		qnaService:    qnaService,
	}
}

func (c *readerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/reader/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("page-number", c.GetPageNumber)
	h.Post("page-number", c.SavePageNumber)
	h.Post("post-qna", c.PostQnA)
	h.Post("post-verbal-qna", c.PostVerbalQnA)
}

func (c *readerController) GetPageNumber(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	titleId, err := uuid.Parse(ctx.Query("title_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "title_id must be a valid id")
	}

	res, err := c.readerService.GetPageNumber(ctx.Context(), userId, titleId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get page number", res))
}

func (c *readerController) SavePageNumber(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SavePageNumberRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.readerService.SavePageNumber(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// PostQnA only validates and enqueues; the answer arrives over the websocket.
func (c *readerController) PostQnA(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.PostQnARequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.qnaService.PostQnA(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse[any]("Question accepted", nil))
}

func (c *readerController) PostVerbalQnA(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.PostVerbalQnARequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.qnaService.PostVerbalQnA(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success transcribe question", res))
}
