package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jo-hoe/wastesort/internal/backend/blobstore"
	"github.com/jo-hoe/wastesort/internal/backend/classifier"
	"github.com/jo-hoe/wastesort/internal/backend/database"
)

// UploadsRoute is the URL prefix under which stored images are served.
const UploadsRoute = "/uploads"

// sniffLength is the number of leading bytes inspected to detect the upload type.
const sniffLength = 3072

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	blobStore       *blobstore.FileStore
	classifier      classifier.Classifier
	now             func() time.Time
}

// Upload is an image received from a client.
type Upload struct {
	FileName string
	Content  io.Reader
}

type ClassifyResult struct {
	ID             int64                     `json:"id"`
	ImageURL       string                    `json:"imageUrl"`
	Classification classifier.Classification `json:"classification"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// CategoryInput carries the writable fields of a category.
type CategoryInput struct {
	Name                string
	Description         *string
	RecyclingGuidelines *string
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}
	blobStore, err := blobstore.NewFileStore(config.UploadDirectory)
	if err != nil {
		_ = databaseService.Close()
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	return NewCoreServiceWithDependencies(config, databaseService, blobStore, classifier.NewRandomClassifier()), nil
}

// NewCoreServiceWithDependencies wires already constructed collaborators.
// The service takes ownership of databaseService and closes it on Close.
func NewCoreServiceWithDependencies(config *ServiceConfig, databaseService database.DatabaseService,
	blobStore *blobstore.FileStore, wasteClassifier classifier.Classifier) *CoreService {
	return &CoreService{
		config:          config,
		databaseService: databaseService,
		blobStore:       blobStore,
		classifier:      wasteClassifier,
		now:             time.Now,
	}
}

func (service *CoreService) Close() error {
	return service.databaseService.Close()
}

func (service *CoreService) UploadDirectory() string {
	return service.blobStore.Directory()
}

// ClassifyUpload stores the image, classifies it and records the result.
// A stored file is kept even if recording the result fails.
func (service *CoreService) ClassifyUpload(upload *Upload) (*ClassifyResult, error) {
	if upload == nil || upload.Content == nil {
		return nil, NewValidationError("No image uploaded")
	}

	content, mimeType, err := sniffContent(upload.Content)
	if err != nil {
		return nil, newPersistenceError("Failed to process image", err)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, newUploadError("Only images are allowed", fmt.Errorf("detected content type %s", mimeType))
	}

	imagePath, err := service.blobStore.Save(upload.FileName, content)
	if err != nil {
		return nil, newPersistenceError("Failed to process image", err)
	}
	if !service.blobStore.Exists(imagePath) {
		return nil, NewValidationError("Uploaded file not found")
	}
	slog.Debug("stored uploaded image", "path", imagePath, "mime_type", mimeType)

	classification := service.classifier.Classify(imagePath)
	timestamp := service.now().UTC()

	id, err := service.databaseService.CreateWasteItem(&database.WasteItem{
		ImagePath:            imagePath,
		ClassificationResult: classification.Description,
		Confidence:           classification.Confidence,
		Category:             classification.Category,
		Timestamp:            timestamp,
	})
	if err != nil {
		return nil, newPersistenceError("Failed to save classification", err)
	}

	return &ClassifyResult{
		ID:             id,
		ImageURL:       service.imageURL(imagePath),
		Classification: classification,
		Timestamp:      timestamp,
	}, nil
}

func (service *CoreService) ListWasteItems() ([]*database.WasteItem, error) {
	items, err := service.databaseService.GetWasteItems()
	if err != nil {
		return nil, newPersistenceError("Failed to fetch waste items", err)
	}
	return items, nil
}

func (service *CoreService) GetWasteItem(id int64) (*database.WasteItem, error) {
	item, err := service.databaseService.GetWasteItemByID(id)
	if err != nil {
		return nil, newPersistenceError("Failed to fetch waste item", err)
	}
	if item == nil {
		return nil, NewNotFoundError("Waste item not found")
	}
	return item, nil
}

// UpdateWasteItem changes category and classification result only.
func (service *CoreService) UpdateWasteItem(id int64, category, classificationResult string) error {
	if category == "" || classificationResult == "" {
		return NewValidationError("Category and classification_result are required")
	}
	updated, err := service.databaseService.UpdateWasteItemClassification(id, category, classificationResult)
	if err != nil {
		return newPersistenceError("Failed to update waste item", err)
	}
	if !updated {
		return NewNotFoundError("Waste item not found")
	}
	return nil
}

// DeleteWasteItem removes the backing file on a best-effort basis before
// deleting the row. File and row removal are not atomic.
func (service *CoreService) DeleteWasteItem(id int64) error {
	item, err := service.GetWasteItem(id)
	if err != nil {
		return err
	}

	if err := service.blobStore.Remove(item.ImagePath); err != nil {
		slog.Warn("failed to remove image file, continuing with record deletion",
			"waste_item_id", id, "path", item.ImagePath, "error", err)
	}

	deleted, err := service.databaseService.DeleteWasteItem(id)
	if err != nil {
		return newPersistenceError("Failed to delete waste item", err)
	}
	if !deleted {
		// Removed by a concurrent request between lookup and delete
		return NewNotFoundError("Waste item not found")
	}
	return nil
}

func (service *CoreService) ListCategories() ([]*database.Category, error) {
	categories, err := service.databaseService.GetCategories()
	if err != nil {
		return nil, newPersistenceError("Failed to fetch categories", err)
	}
	return categories, nil
}

func (service *CoreService) CreateCategory(input CategoryInput) (*database.Category, error) {
	if input.Name == "" {
		return nil, NewValidationError("Category name is required")
	}
	category := &database.Category{
		Name:                input.Name,
		Description:         input.Description,
		RecyclingGuidelines: input.RecyclingGuidelines,
	}
	id, err := service.databaseService.CreateCategory(category)
	if err != nil {
		return nil, newPersistenceError("Failed to create category", err)
	}
	category.ID = id
	return category, nil
}

func (service *CoreService) UpdateCategory(id int64, input CategoryInput) error {
	if input.Name == "" {
		return NewValidationError("Category name is required")
	}
	updated, err := service.databaseService.UpdateCategory(&database.Category{
		ID:                  id,
		Name:                input.Name,
		Description:         input.Description,
		RecyclingGuidelines: input.RecyclingGuidelines,
	})
	if err != nil {
		return newPersistenceError("Failed to update category", err)
	}
	if !updated {
		return NewNotFoundError("Category not found")
	}
	return nil
}

// DeleteCategory does not check for waste items that still use the category name.
func (service *CoreService) DeleteCategory(id int64) error {
	deleted, err := service.databaseService.DeleteCategory(id)
	if err != nil {
		return newPersistenceError("Failed to delete category", err)
	}
	if !deleted {
		return NewNotFoundError("Category not found")
	}
	return nil
}

func (service *CoreService) imageURL(imagePath string) string {
	return service.config.PublicBaseURL + UploadsRoute + "/" + url.PathEscape(service.blobStore.PublicName(imagePath))
}

// sniffContent detects the MIME type from the leading bytes and returns a
// reader that still yields the complete content.
func sniffContent(src io.Reader) (io.Reader, string, error) {
	header := make([]byte, sniffLength)
	n, err := io.ReadFull(src, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	header = header[:n]
	detected := mimetype.Detect(header)
	return io.MultiReader(bytes.NewReader(header), src), detected.String(), nil
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}
