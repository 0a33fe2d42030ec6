package backend

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jo-hoe/wastesort/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	wasteItemNotFound = "Waste item not found"
	categoryNotFound  = "Category not found"
)

type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type updateWasteItemRequest struct {
	Category             string `json:"category" validate:"required"`
	ClassificationResult string `json:"classification_result" validate:"required"`
}

type categoryRequest struct {
	Name                string  `json:"name" validate:"required"`
	Description         *string `json:"description"`
	RecyclingGuidelines *string `json:"recycling_guidelines"`
}

func (r *categoryRequest) toInput() core.CategoryInput {
	return core.CategoryInput{
		Name:                r.Name,
		Description:         r.Description,
		RecyclingGuidelines: r.RecyclingGuidelines,
	}
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	api := e.Group("/api")

	api.GET("/health", s.healthHandler)
	api.POST("/classify", s.classifyHandler)

	api.GET("/waste-items", s.listWasteItemsHandler)
	api.GET("/waste-items/:id", s.getWasteItemHandler)
	api.PUT("/waste-items/:id", s.updateWasteItemHandler)
	api.DELETE("/waste-items/:id", s.deleteWasteItemHandler)

	api.GET("/categories", s.listCategoriesHandler)
	api.POST("/categories", s.createCategoryHandler)
	api.PUT("/categories/:id", s.updateCategoryHandler)
	api.DELETE("/categories/:id", s.deleteCategoryHandler)
}

func (s *APIService) healthHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, healthResponse{Status: "OK", Message: "Server is running"})
}

func (s *APIService) classifyHandler(ctx echo.Context) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		slog.Info("classifyHandler: no image received", "error", err)
		return s.respondError(ctx, "classifyHandler", core.NewValidationError("No image uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("classifyHandler: failed to open uploaded file",
			"status", http.StatusBadRequest, "error", err, "filename", file.Filename)
		return s.respondError(ctx, "classifyHandler", core.NewValidationError("Uploaded file not found"))
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("classifyHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	result, err := s.coreService.ClassifyUpload(&core.Upload{FileName: file.Filename, Content: src})
	if err != nil {
		return s.respondError(ctx, "classifyHandler", err)
	}

	slog.Info("classifyHandler: classified upload",
		"waste_item_id", result.ID,
		"category", result.Classification.Category,
		"confidence", result.Classification.Confidence,
		"filename", file.Filename,
		"size_bytes", file.Size)
	return ctx.JSON(http.StatusOK, result)
}

func (s *APIService) listWasteItemsHandler(ctx echo.Context) error {
	items, err := s.coreService.ListWasteItems()
	if err != nil {
		return s.respondError(ctx, "listWasteItemsHandler", err)
	}
	return ctx.JSON(http.StatusOK, items)
}

func (s *APIService) getWasteItemHandler(ctx echo.Context) error {
	id, ok := parseID(ctx)
	if !ok {
		return s.respondError(ctx, "getWasteItemHandler", core.NewNotFoundError(wasteItemNotFound))
	}
	item, err := s.coreService.GetWasteItem(id)
	if err != nil {
		return s.respondError(ctx, "getWasteItemHandler", err)
	}
	return ctx.JSON(http.StatusOK, item)
}

func (s *APIService) updateWasteItemHandler(ctx echo.Context) error {
	var request updateWasteItemRequest
	if err := s.bindAndValidate(ctx, &request, "Category and classification_result are required"); err != nil {
		return s.respondError(ctx, "updateWasteItemHandler", err)
	}
	id, ok := parseID(ctx)
	if !ok {
		return s.respondError(ctx, "updateWasteItemHandler", core.NewNotFoundError(wasteItemNotFound))
	}
	if err := s.coreService.UpdateWasteItem(id, request.Category, request.ClassificationResult); err != nil {
		return s.respondError(ctx, "updateWasteItemHandler", err)
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Waste item updated successfully"})
}

func (s *APIService) deleteWasteItemHandler(ctx echo.Context) error {
	id, ok := parseID(ctx)
	if !ok {
		return s.respondError(ctx, "deleteWasteItemHandler", core.NewNotFoundError(wasteItemNotFound))
	}
	if err := s.coreService.DeleteWasteItem(id); err != nil {
		return s.respondError(ctx, "deleteWasteItemHandler", err)
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Waste item deleted successfully"})
}

func (s *APIService) listCategoriesHandler(ctx echo.Context) error {
	categories, err := s.coreService.ListCategories()
	if err != nil {
		return s.respondError(ctx, "listCategoriesHandler", err)
	}
	return ctx.JSON(http.StatusOK, categories)
}

func (s *APIService) createCategoryHandler(ctx echo.Context) error {
	var request categoryRequest
	if err := s.bindAndValidate(ctx, &request, "Category name is required"); err != nil {
		return s.respondError(ctx, "createCategoryHandler", err)
	}
	category, err := s.coreService.CreateCategory(request.toInput())
	if err != nil {
		return s.respondError(ctx, "createCategoryHandler", err)
	}
	return ctx.JSON(http.StatusCreated, category)
}

func (s *APIService) updateCategoryHandler(ctx echo.Context) error {
	var request categoryRequest
	if err := s.bindAndValidate(ctx, &request, "Category name is required"); err != nil {
		return s.respondError(ctx, "updateCategoryHandler", err)
	}
	id, ok := parseID(ctx)
	if !ok {
		return s.respondError(ctx, "updateCategoryHandler", core.NewNotFoundError(categoryNotFound))
	}
	if err := s.coreService.UpdateCategory(id, request.toInput()); err != nil {
		return s.respondError(ctx, "updateCategoryHandler", err)
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Category updated successfully"})
}

func (s *APIService) deleteCategoryHandler(ctx echo.Context) error {
	id, ok := parseID(ctx)
	if !ok {
		return s.respondError(ctx, "deleteCategoryHandler", core.NewNotFoundError(categoryNotFound))
	}
	if err := s.coreService.DeleteCategory(id); err != nil {
		return s.respondError(ctx, "deleteCategoryHandler", err)
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Category deleted successfully"})
}

// bindAndValidate decodes the JSON body into request and reports any
// failure as a validation error carrying invalidMessage.
func (s *APIService) bindAndValidate(ctx echo.Context, request any, invalidMessage string) error {
	if err := (&echo.DefaultBinder{}).BindBody(ctx, request); err != nil {
		slog.Info("failed to bind request body", "route", ctx.Path(), "error", err)
		return core.NewValidationError("Invalid request body")
	}
	if err := ctx.Validate(request); err != nil {
		slog.Info("request body failed validation", "route", ctx.Path(), "error", err)
		return core.NewValidationError(invalidMessage)
	}
	return nil
}

func (s *APIService) respondError(ctx echo.Context, handler string, err error) error {
	status := statusForError(err)
	message := http.StatusText(status)
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		message = coreErr.Message
	}

	if status >= http.StatusInternalServerError {
		slog.Error(handler+": request failed", "status", status, "route", ctx.Path(), "error", err)
	} else {
		slog.Warn(handler+": request rejected", "status", status, "route", ctx.Path(), "error", err)
	}
	return ctx.JSON(status, errorResponse{Error: message})
}

func statusForError(err error) int {
	kind, ok := core.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case core.KindValidation, core.KindUpload:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func parseID(ctx echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// JSONErrorHandler renders errors that escape handlers (unknown routes,
// oversized bodies, recovered panics) in the same {"error": ...} shape.
func JSONErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if text, ok := httpErr.Message.(string); ok {
			message = text
		} else {
			message = http.StatusText(status)
		}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("unhandled request error", "status", status, "route", ctx.Path(), "error", err)
	}

	var writeErr error
	if ctx.Request().Method == http.MethodHead {
		writeErr = ctx.NoContent(status)
	} else {
		writeErr = ctx.JSON(status, errorResponse{Error: message})
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}
