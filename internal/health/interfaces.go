package health

import "context"

// DatabaseInterface определяет интерфейс для проверки здоровья базы данных
type DatabaseInterface interface {
	Ping(ctx context.Context) error
}
