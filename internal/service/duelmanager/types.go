package duelmanager

import "time"

// Константы по умолчанию
const (
	DefaultClassicQuestionLimit = 10
	DefaultFrenzyQuestionLimit  = 30
	DefaultFrenzyDurationSec    = 60
)

// Config содержит настройки жизненного цикла дуэлей
type Config struct {
	// Лимиты вопросов по режимам
	ClassicQuestionLimit int // Количество вопросов в режиме CLASSIC
	FrenzyQuestionLimit  int // Количество вопросов в режиме FRENZY

	// FrenzyDurationSec — фиксированная длительность FRENZY-дуэли в секундах
	FrenzyDurationSec int

	// DuelTimeout — возраст, после которого дуэль считается брошенной
	DuelTimeout time.Duration

	// SweepInterval — интервал периодической зачистки просроченных дуэлей
	SweepInterval time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		ClassicQuestionLimit: DefaultClassicQuestionLimit,
		FrenzyQuestionLimit:  DefaultFrenzyQuestionLimit,
		FrenzyDurationSec:    DefaultFrenzyDurationSec,
		DuelTimeout:          10 * time.Minute,
		SweepInterval:        60 * time.Second,
	}
}

// QuestionLimit возвращает лимит вопросов для режима
func (c *Config) QuestionLimit(isFrenzy bool) int {
	if isFrenzy {
		return c.FrenzyQuestionLimit
	}
	return c.ClassicQuestionLimit
}
