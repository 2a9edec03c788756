package kafka

// Config содержит конфигурацию для подключения к Kafka
type Config struct {
	// Brokers — список брокеров Kafka, через который подключаются сервисы.
	// Значение зависит от среды выполнения:
	//   - локальная разработка (go run): localhost:19092
	//   - запуск в Docker: kafka:9092
	// Можно указать несколько брокеров через запятую: "broker1:9092,broker2:9092"
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	// SizeDeletedTopic — топик событий удаления размеров из каталога.
	SizeDeletedTopic string `env:"KAFKA_SIZE_DELETED_TOPIC" envDefault:"catalog.size.deleted"`
	// BrandDeletedTopic — топик событий удаления брендов из каталога.
	BrandDeletedTopic string `env:"KAFKA_BRAND_DELETED_TOPIC" envDefault:"catalog.brand.deleted"`
	// ProductUpdatedTopic — топик событий смены бренда у товара.
	ProductUpdatedTopic string `env:"KAFKA_PRODUCT_UPDATED_TOPIC" envDefault:"catalog.product.updated"`
}

// DefaultConfig возвращает конфигурацию с дефолтными значениями для локальной разработки.
// Сервисы должны получать актуальные значения через переменные окружения.
func DefaultConfig() Config {
	return Config{
		Brokers:             []string{"localhost:19092"},
		SizeDeletedTopic:    "catalog.size.deleted",
		BrandDeletedTopic:   "catalog.brand.deleted",
		ProductUpdatedTopic: "catalog.product.updated",
	}
}
