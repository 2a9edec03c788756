//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	_ "github.com/jackc/pgx/v5/stdlib" //для goose миграций

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/repository"
)

func TestRepository_Integration(t *testing.T) {
	ctx := context.Background()

	// Поднимаем PostgreSQL контейнер через testcontainers
	postgresContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("users"),
		postgres.WithUsername("user_user"),
		postgres.WithPassword("user_password"),
	)
	require.NoError(t, err)
	defer func() {
		err := postgresContainer.Terminate(ctx)
		require.NoError(t, err)
	}()

	// Получаем DSN из контейнера
	dsn, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Открываем *sql.DB через pgx stdlib для goose миграций
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	// Ждём готовности БД через ping с retry
	var pingErr error
	for i := 0; i < 10; i++ {
		pingErr = db.PingContext(ctx)
		if pingErr == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, pingErr, "Failed to ping database after retries")

	// Вычисляем путь к migrations/user относительно текущего файла
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)       // internal/user/repository/postgres
	repoDir := filepath.Dir(testDir)        // internal/user/repository
	userDir := filepath.Dir(repoDir)        // internal/user
	internalDir := filepath.Dir(userDir)    // internal
	rootDir := filepath.Dir(internalDir)    // корень репозитория
	migrationsDir := filepath.Join(rootDir, "migrations", "user")

	// Накатываем миграции через goose
	err = goose.UpContext(ctx, db, migrationsDir)
	require.NoError(t, err, "Failed to run migrations")

	// Создаём pgxpool для repository
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewRepository(pool)

	// Наполняем БД тестовыми данными напрямую: каскад заказы не создаёт
	seed := func(query string, args ...interface{}) {
		t.Helper()
		_, err := pool.Exec(ctx, query, args...)
		require.NoError(t, err)
	}

	seed(`INSERT INTO orders (id, user_id, status, payment_id, payment_intent_id)
	      VALUES (1, 'u1', 'pending', 'pay_1', 'pi_1'),
	             (2, 'u2', 'pending', NULL, NULL),
	             (3, 'u3', 'shipped', 'pay_3', 'pi_3')`)
	seed(`INSERT INTO order_items (order_id, product_id, size_id, brand_id, quantity)
	      VALUES (1, 100, 10, 5, 1),
	             (1, 101, 11, 5, 2),
	             (2, 100, 10, 5, 1),
	             (3, 102, 99, 6, 1)`)
	seed(`INSERT INTO cart_items (user_id, product_id, size_id, quantity)
	      VALUES ('u1', 100, 10, 1),
	             ('u2', 102, 99, 3)`)
	seed(`INSERT INTO user_brands (user_id, brand_id)
	      VALUES ('u1', 5), ('u2', 5), ('u3', 6)`)

	t.Run("FindOrdersContainingSizeIDs", func(t *testing.T) {
		orders, err := repo.FindOrdersContainingSizeIDs(ctx, []int64{10})
		require.NoError(t, err)
		require.Len(t, orders, 2)

		require.Equal(t, int64(1), orders[0].ID)
		require.Equal(t, "pay_1", orders[0].PaymentID)
		require.Equal(t, "pi_1", orders[0].PaymentIntentID)
		require.Len(t, orders[0].Items, 2)

		require.Equal(t, int64(2), orders[1].ID)
		require.Empty(t, orders[1].PaymentIntentID)
		require.Len(t, orders[1].Items, 1)
	})

	t.Run("SetOrderStatus", func(t *testing.T) {
		err := repo.SetOrderStatus(ctx, 1, repository.StatusRefunded)
		require.NoError(t, err)

		got, err := repo.FindOrderByPaymentID(ctx, "pay_1")
		require.NoError(t, err)
		require.Equal(t, repository.StatusRefunded, got.Status)
	})

	t.Run("SetOrderStatus_NotFound", func(t *testing.T) {
		err := repo.SetOrderStatus(ctx, 999, repository.StatusRefunded)
		require.True(t, errors.Is(err, repository.ErrNotFound), "Expected ErrNotFound, got: %v", err)
	})

	t.Run("DeleteOrderItems_Idempotent", func(t *testing.T) {
		require.NoError(t, repo.DeleteOrderItems(ctx, 1))
		// Повторное удаление — no-op
		require.NoError(t, repo.DeleteOrderItems(ctx, 1))

		got, err := repo.FindOrderByPaymentID(ctx, "pay_1")
		require.NoError(t, err)
		require.Empty(t, got.Items)
	})

	t.Run("SetOrderItemsBrandForProduct", func(t *testing.T) {
		require.NoError(t, repo.SetOrderItemsBrandForProduct(ctx, 100, 7))

		orders, err := repo.FindOrdersContainingSizeIDs(ctx, []int64{10})
		require.NoError(t, err)
		require.Len(t, orders, 1) // позиции заказа 1 уже удалены
		require.Equal(t, int64(7), orders[0].Items[0].BrandID)
	})

	t.Run("DeleteCartItemsBySizeIDs_Idempotent", func(t *testing.T) {
		require.NoError(t, repo.DeleteCartItemsBySizeIDs(ctx, []int64{10}))
		require.NoError(t, repo.DeleteCartItemsBySizeIDs(ctx, []int64{10}))

		var count int
		err := pool.QueryRow(ctx, `SELECT count(*) FROM cart_items`).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("DeleteUserBrandSubscription", func(t *testing.T) {
		require.NoError(t, repo.DeleteUserBrandSubscription(ctx, 5))
		// Бренд без подписок — no-op
		require.NoError(t, repo.DeleteUserBrandSubscription(ctx, 5))

		var count int
		err := pool.QueryRow(ctx, `SELECT count(*) FROM user_brands`).Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("FindOrderByPaymentID_NotFound", func(t *testing.T) {
		_, err := repo.FindOrderByPaymentID(ctx, "pay_missing")
		require.True(t, errors.Is(err, repository.ErrNotFound), "Expected ErrNotFound, got: %v", err)
	})
}
