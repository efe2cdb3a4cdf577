package repository

import (
	"time"
)

// CacheRepository определяет методы кеширования.
// Основной потребитель — кеш полных викторин (викторина после публикации
// неизменяема, поэтому кешировать её безопасно).
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Exists(key string) (bool, error)
}
