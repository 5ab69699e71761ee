package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем: JSON-кеш пула
// вопросов темы и счётчики окон rate limiter'а
type CacheRepository interface {
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Increment(key string) (int64, error)
	ExpireAt(key string, expiration time.Time) error
	TTL(key string) (time.Duration, error)
}
