package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/repository"
)

// Repository реализует BrandCatalog используя PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository создаёт новый PostgreSQL репозиторий каталога
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

// DeleteSizes удаляет размеры по списку ID
func (r *Repository) DeleteSizes(ctx context.Context, sizeIDs []int64) error {
	if len(sizeIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM sizes WHERE id = ANY($1)`,
		sizeIDs)
	return err
}

// DeleteBrands удаляет бренды по списку ID.
// Товары бренда остаются, их brand_id обнуляется ON DELETE SET NULL
func (r *Repository) DeleteBrands(ctx context.Context, brandIDs []int64) error {
	if len(brandIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM brands WHERE id = ANY($1)`,
		brandIDs)
	return err
}

// UpdateProductBrand переводит товар на другой бренд
func (r *Repository) UpdateProductBrand(ctx context.Context, productID, brandID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET brand_id = $2 WHERE id = $1`,
		productID, brandID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
