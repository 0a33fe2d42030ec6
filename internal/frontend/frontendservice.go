package frontend

import (
	"html/template"
	"net/http"

	"github.com/jo-hoe/wastesort/internal/core"
	"github.com/labstack/echo/v4"
)

const MainPageName = "index.html"

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type endpoint struct {
	Method      string
	Path        string
	Description string
	Linkable    bool
}

type indexPage struct {
	Endpoints    []endpoint
	UploadsRoute string
}

var endpoints = []endpoint{
	{Method: http.MethodGet, Path: "/api/health", Linkable: true},
	{Method: http.MethodPost, Path: "/api/classify", Description: "upload image"},
	{Method: http.MethodGet, Path: "/api/waste-items", Linkable: true},
	{Method: http.MethodGet, Path: "/api/waste-items/:id"},
	{Method: http.MethodPut, Path: "/api/waste-items/:id", Description: "correct classification"},
	{Method: http.MethodDelete, Path: "/api/waste-items/:id"},
	{Method: http.MethodGet, Path: "/api/categories", Linkable: true},
	{Method: http.MethodPost, Path: "/api/categories"},
	{Method: http.MethodPut, Path: "/api/categories/:id"},
	{Method: http.MethodDelete, Path: "/api/categories/:id"},
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	// Create template renderer
	e.Renderer = &Template{
		templates: template.Must(template.New("").ParseFS(templateFS, viewsPattern)),
	}

	e.GET("/", service.indexHandler)
	e.GET("/favicon.ico", service.faviconHandler)

	// Stored images, referenced by the imageUrl of classify responses
	e.Static(core.UploadsRoute, service.coreService.UploadDirectory())
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, indexPage{
		Endpoints:    endpoints,
		UploadsRoute: core.UploadsRoute,
	})
}

func (service *FrontendService) faviconHandler(ctx echo.Context) error {
	return ctx.NoContent(http.StatusNoContent)
}
