package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"ai-pdf-tutor-be/internal/pkg/serverutils"
	"ai-pdf-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Index(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Pages(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
	uploadDir       string
	maxFileBytes    int64
}

func NewDocumentController(documentService service.IDocumentService, uploadDir string, maxFileSizeMB int) IDocumentController {
	return &documentController{
		documentService: documentService,
		uploadDir:       uploadDir,
		maxFileBytes:    int64(maxFileSizeMB) * 1024 * 1024,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Upload)
	h.Get("", c.Index)
	h.Get(":id", c.Show)
	h.Get(":id/pages", c.Pages)
	h.Get(":id/search", c.Search)
	h.Delete(":id", c.Delete)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	// 1. User ID from token
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "missing file field"))
	}
	if fileHeader.Size > c.maxFileBytes {
		return ctx.Status(fiber.StatusRequestEntityTooLarge).JSON(serverutils.ErrorResponse(413, "file too large"))
	}

	title := strings.TrimSpace(ctx.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	}

	// 2. Persist the upload under a generated name; the original name is
	// only kept as the title
	filePath := filepath.Join(c.uploadDir, fmt.Sprintf("%s.pdf", uuid.New()))
	if err := ctx.SaveFile(fileHeader, filePath); err != nil {
		return err
	}

	res, err := c.documentService.Upload(ctx.Context(), userId, title, filePath, fileHeader.Size)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload document", res))
}

func (c *documentController) Index(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.documentService.GetAll(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.documentService.Get(ctx.Context(), userId, id)
	if err != nil {
		return c.mapDocumentError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}

func (c *documentController) Pages(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	res, err := c.documentService.GetPages(ctx.Context(), userId, id)
	if err != nil {
		return c.mapDocumentError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show document pages", res))
}

func (c *documentController) Search(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))
	q := ctx.Query("q", "")
	if strings.TrimSpace(q) == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "query parameter q is required"))
	}
	limit := ctx.QueryInt("limit", 5)

	res, err := c.documentService.SearchPages(ctx.Context(), userId, id, q, limit)
	if err != nil {
		return c.mapDocumentError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search document pages", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	if err := c.documentService.Delete(ctx.Context(), userId, id); err != nil {
		return c.mapDocumentError(ctx, err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

func (c *documentController) mapDocumentError(ctx *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrDocumentNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return err
}
