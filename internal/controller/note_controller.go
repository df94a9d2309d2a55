package controller

import (
	"errors"

	"ai-ereader-be/internal/constant"
	"ai-ereader-be/internal/dto"
	"ai-ereader-be/internal/pkg/serverutils"
	"ai-ereader-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService service.INoteService
}

func NewNoteController(noteService service.INoteService) INoteController {
	return &noteController{
		noteService: noteService,
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/library/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("notes", c.List)
	h.Patch("note", c.Save)
}

func (c *noteController) List(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	bookTitle := ctx.Query("book_title")
	if bookTitle == "" {
		return fiber.NewError(fiber.StatusBadRequest, "book_title is required")
	}

	res, err := c.noteService.List(ctx.Context(), userId, bookTitle, ctx.QueryBool("refresh"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list notes", res))
}

func (c *noteController) Save(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SaveNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noteService.Save(ctx.Context(), userId, &req)
	if err != nil {
		if errors.Is(err, service.ErrSaveInFlight) {
			return fiber.NewError(fiber.StatusConflict, constant.MsgNoteSaveBusy)
		}
		if errors.Is(err, service.ErrSaveConflict) {
			return fiber.NewError(fiber.StatusConflict, constant.MsgNoteSaveConflict)
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success save note", res))
}
