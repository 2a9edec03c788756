package repository

import (
	"context"
	"errors"
)

// ErrNotFound возвращается когда запись не найдена
var ErrNotFound = errors.New("not found")

// Brand представляет бренд в каталоге
type Brand struct {
	ID   int64
	Name string
}

// Product представляет товар в каталоге
type Product struct {
	ID      int64
	Name    string
	BrandID int64
}

// Size представляет размер товара
type Size struct {
	ID        int64
	ProductID int64
	Label     string
}

// BrandCatalog определяет операции каталога над брендами, товарами и размерами
//
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=BrandCatalog --dir=. --output=./mocks --outpkg=mocks
type BrandCatalog interface {
	// DeleteSizes удаляет размеры по списку ID. Отсутствующие ID игнорируются
	DeleteSizes(ctx context.Context, sizeIDs []int64) error
	// DeleteBrands удаляет бренды по списку ID. Отсутствующие ID игнорируются
	DeleteBrands(ctx context.Context, brandIDs []int64) error
	// UpdateProductBrand переводит товар на другой бренд.
	// Возвращает ErrNotFound если товара не существует
	UpdateProductBrand(ctx context.Context, productID, brandID int64) error
}
