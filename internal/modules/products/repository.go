package products

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/domain"
)

// Repository handles product document storage.
// Documents are stored as JSON blobs keyed by product ID, with the family
// denormalized into its own column for filtering.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new product repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "products").Logger(),
	}
}

// GetByID returns a product by ID. Returns nil, nil when not found.
func (r *Repository) GetByID(id string) (*Product, error) {
	var data string
	err := r.db.QueryRow("SELECT data FROM products WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product %s: %w", id, err)
	}

	var product Product
	if err := json.Unmarshal([]byte(data), &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product %s: %w", id, err)
	}
	product.ID = id

	return &product, nil
}

// GetAll returns all stored products.
func (r *Repository) GetAll() ([]Product, error) {
	return r.query("SELECT id, data FROM products ORDER BY id")
}

// GetByFamily returns all products of one payoff family.
func (r *Repository) GetByFamily(family domain.ProductFamily) ([]Product, error) {
	return r.query("SELECT id, data FROM products WHERE family = ? ORDER BY id", string(family))
}

func (r *Repository) query(q string, args ...interface{}) ([]Product, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}

		var product Product
		if err := json.Unmarshal([]byte(data), &product); err != nil {
			// A single corrupt document must not block the rest of the universe
			r.log.Warn().Err(err).Str("id", id).Msg("Skipping unparseable product document")
			continue
		}
		product.ID = id
		result = append(result, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return result, nil
}

// Save inserts or replaces a product document.
func (r *Repository) Save(product *Product) error {
	if product.ID == "" {
		return fmt.Errorf("product ID is required")
	}

	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product %s: %w", product.ID, err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO products (id, family, data, updated_at)
		VALUES (?, ?, ?, ?)
	`, product.ID, string(product.Family), string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save product %s: %w", product.ID, err)
	}

	r.log.Debug().Str("id", product.ID).Str("family", string(product.Family)).Msg("Saved product")
	return nil
}

// Delete removes a product document.
func (r *Repository) Delete(id string) error {
	_, err := r.db.Exec("DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// UpdateSecurityData persists resolved prices for one underlying.
// Evaluation itself never mutates stored documents; callers that want the
// legacy cache-write-back behavior invoke this explicitly after evaluating.
func (r *Repository) UpdateSecurityData(productID, ticker string, securityData map[string]interface{}) error {
	product, err := r.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("product %s not found", productID)
	}

	updated := false
	for i := range product.Underlyings {
		if product.Underlyings[i].Ticker == ticker {
			product.Underlyings[i].SecurityData = securityData
			updated = true
		}
	}
	if !updated {
		return fmt.Errorf("underlying %s not found on product %s", ticker, productID)
	}

	return r.Save(product)
}
