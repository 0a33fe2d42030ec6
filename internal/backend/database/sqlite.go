package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const wasteItemColumns = "id, image_path, classification_result, confidence, category, timestamp"

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across queries
	// and serializes writers the way SQLite expects.
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS waste_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		image_path TEXT,
		classification_result TEXT,
		confidence REAL,
		category TEXT,
		timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE,
		description TEXT,
		recycling_guidelines TEXT
	)`)
	if err != nil {
		return nil, err
	}

	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) SeedCategories(categories []Category) error {
	for _, category := range categories {
		_, err := s.db.Exec(
			"INSERT OR IGNORE INTO categories (name, description, recycling_guidelines) VALUES (?, ?, ?)",
			category.Name, category.Description, category.RecyclingGuidelines)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", category.Name, err)
		}
	}
	return nil
}

func (s *SQLiteDatabase) CreateWasteItem(item *WasteItem) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO waste_items (image_path, classification_result, confidence, category, timestamp) VALUES (?, ?, ?, ?, ?)",
		item.ImagePath, item.ClassificationResult, item.Confidence, item.Category, formatTimestamp(item.Timestamp))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteDatabase) GetWasteItems() ([]*WasteItem, error) {
	rows, err := s.db.Query("SELECT " + wasteItemColumns + " FROM waste_items ORDER BY timestamp DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	items := []*WasteItem{}
	for rows.Next() {
		item, err := scanWasteItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteDatabase) GetWasteItemByID(id int64) (*WasteItem, error) {
	row := s.db.QueryRow("SELECT "+wasteItemColumns+" FROM waste_items WHERE id = ?", id)
	item, err := scanWasteItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *SQLiteDatabase) UpdateWasteItemClassification(id int64, category, classificationResult string) (bool, error) {
	result, err := s.db.Exec(
		"UPDATE waste_items SET category = ?, classification_result = ? WHERE id = ?",
		category, classificationResult, id)
	return rowsChanged(result, err)
}

func (s *SQLiteDatabase) DeleteWasteItem(id int64) (bool, error) {
	result, err := s.db.Exec("DELETE FROM waste_items WHERE id = ?", id)
	return rowsChanged(result, err)
}

func (s *SQLiteDatabase) GetCategories() ([]*Category, error) {
	rows, err := s.db.Query("SELECT id, name, description, recycling_guidelines FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	categories := []*Category{}
	for rows.Next() {
		var category Category
		var description, guidelines sql.NullString
		if err := rows.Scan(&category.ID, &category.Name, &description, &guidelines); err != nil {
			return nil, err
		}
		category.Description = nullableString(description)
		category.RecyclingGuidelines = nullableString(guidelines)
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}

func (s *SQLiteDatabase) CreateCategory(category *Category) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO categories (name, description, recycling_guidelines) VALUES (?, ?, ?)",
		category.Name, category.Description, category.RecyclingGuidelines)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteDatabase) UpdateCategory(category *Category) (bool, error) {
	result, err := s.db.Exec(
		"UPDATE categories SET name = ?, description = ?, recycling_guidelines = ? WHERE id = ?",
		category.Name, category.Description, category.RecyclingGuidelines, category.ID)
	return rowsChanged(result, err)
}

func (s *SQLiteDatabase) DeleteCategory(id int64) (bool, error) {
	result, err := s.db.Exec("DELETE FROM categories WHERE id = ?", id)
	return rowsChanged(result, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWasteItem(row rowScanner) (*WasteItem, error) {
	var item WasteItem
	var imagePath, classificationResult, category sql.NullString
	var confidence sql.NullFloat64
	var timestamp string
	if err := row.Scan(&item.ID, &imagePath, &classificationResult, &confidence, &category, &timestamp); err != nil {
		return nil, err
	}
	parsed, err := parseTimestamp(timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp for waste item %d: %w", item.ID, err)
	}
	item.ImagePath = imagePath.String
	item.ClassificationResult = classificationResult.String
	item.Confidence = confidence.Float64
	item.Category = category.String
	item.Timestamp = parsed
	return &item, nil
}

func rowsChanged(result sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func nullableString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}
