package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rainballs/jivot-bez-shum/internal/models"
)

var ErrNoProduct = errors.New("no product in catalog")

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, slug, price_bgn, price_eur, image_url, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := s.DB.ExecContext(ctx, query, p.Name, p.Slug, p.PriceBGN, p.PriceEUR, p.ImageURL, p.Active)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = int(id)
	return nil
}

const productColumns = `id, name, slug, price_bgn, price_eur, image_url, active, created_at`

func scanProduct(row *sql.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.PriceBGN, &p.PriceEUR, &p.ImageURL, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// StorefrontProduct picks the product shown to buyers: the lowest-id active
// product, falling back to the lowest-id product overall when none are active.
func (s *Store) StorefrontProduct(ctx context.Context) (*models.Product, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE active = 1 ORDER BY id LIMIT 1`)
	p, err := scanProduct(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	row = s.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id LIMIT 1`)
	p, err = scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoProduct
	}
	return p, err
}

func (s *Store) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.PriceBGN, &p.PriceEUR, &p.ImageURL, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) SetProductActive(ctx context.Context, id int, active bool) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE products SET active = ? WHERE id = ?`, active, id)
	return err
}

func (s *Store) UpdateProductImage(ctx context.Context, id int, imageURL string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE products SET image_url = ? WHERE id = ?`, imageURL, id)
	return err
}
