package controller

import (
	"io"
	"strconv"

	"ai-study-assistant-be/internal/dto"
	"ai-study-assistant-be/internal/pkg/serverutils"
	"ai-study-assistant-be/internal/service"
	"ai-study-assistant-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxUploadBytes = 20 * 1024 * 1024

type IStudyController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	CreateFromText(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	UpdateSources(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
	GenerateQuiz(ctx *fiber.Ctx) error
}

type studyController struct {
	service service.IStudyService
}

func NewStudyController(service service.IStudyService) IStudyController {
	return &studyController{service: service}
}

func (c *studyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/study/v1")
	h.Post("/sessions", c.Upload)
	h.Post("/sessions/text", c.CreateFromText)
	h.Get("/sessions/:id", c.Show)
	h.Delete("/sessions/:id", c.Delete)
	h.Put("/sessions/:id/sources", c.UpdateSources)
	h.Post("/sessions/:id/ask", c.Ask)
	h.Post("/sessions/:id/units/:index/quiz", c.GenerateQuiz)
}

func sessionID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid session id")
	}
	return id, nil
}

func created(ctx *fiber.Ctx, res *dto.SessionResponse) error {
	if res.Status == "processing" {
		body := serverutils.SuccessResponse("Material accepted, synthesis in progress", res)
		body.Code = fiber.StatusAccepted
		return ctx.Status(fiber.StatusAccepted).JSON(body)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create study session", res))
}

func (c *studyController) Upload(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid form body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return apperror.Validation("file is required")
	}
	if fh.Size > maxUploadBytes {
		return apperror.Validation("file is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	if req.Title == "" {
		req.Title = fh.Filename
	}

	res, err := c.service.CreateFromUpload(ctx.UserContext(), &req, data, fh.Header.Get("Content-Type"))
	if err != nil {
		return err
	}
	return created(ctx, res)
}

func (c *studyController) CreateFromText(ctx *fiber.Ctx) error {
	var req dto.CreateTextSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid json body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateFromText(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return created(ctx, res)
}

func (c *studyController) Show(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show study session", res))
}

func (c *studyController) Delete(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Delete(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete study session", nil))
}

func (c *studyController) UpdateSources(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateSourcesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid json body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateSources(ctx.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update sources", res))
}

func (c *studyController) Ask(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}

	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid json body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *studyController) GenerateQuiz(ctx *fiber.Ctx) error {
	id, err := sessionID(ctx)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(ctx.Params("index"))
	if err != nil {
		return apperror.Validation("invalid unit index")
	}

	res, err := c.service.GenerateQuiz(ctx.UserContext(), id, index)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generate quiz", res))
}
