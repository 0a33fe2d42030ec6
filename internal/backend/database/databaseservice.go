package database

import "database/sql"

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// SeedCategories inserts the given categories unless a category with the same name exists.
	SeedCategories(categories []Category) error

	// CreateWasteItem inserts a new row and returns its id. Timestamp must be set by the caller.
	CreateWasteItem(item *WasteItem) (int64, error)
	// GetWasteItems returns all rows, newest first.
	GetWasteItems() ([]*WasteItem, error)
	// GetWasteItemByID returns nil without error if no row matches.
	GetWasteItemByID(id int64) (*WasteItem, error)
	// UpdateWasteItemClassification reports false if no row matched.
	UpdateWasteItemClassification(id int64, category, classificationResult string) (bool, error)
	// DeleteWasteItem reports false if no row matched.
	DeleteWasteItem(id int64) (bool, error)

	GetCategories() ([]*Category, error)
	CreateCategory(category *Category) (int64, error)
	UpdateCategory(category *Category) (bool, error)
	DeleteCategory(id int64) (bool, error)
}
