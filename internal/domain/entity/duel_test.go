package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDuel_IsActive(t *testing.T) {
	// Arrange & Act & Assert: WAITING и ONGOING — активные статусы
	assert.True(t, (&Duel{Status: DuelStatusWaiting}).IsActive())
	assert.True(t, (&Duel{Status: DuelStatusOngoing}).IsActive())
	assert.False(t, (&Duel{Status: DuelStatusFinished}).IsActive())
	assert.False(t, (&Duel{Status: DuelStatusCanceled}).IsActive())
}

func TestDuel_IsFrenzy(t *testing.T) {
	assert.True(t, (&Duel{Mode: DuelModeFrenzy}).IsFrenzy())
	assert.False(t, (&Duel{Mode: DuelModeClassic}).IsFrenzy())
}

func TestDuel_BeforeCreate_GeneratesID(t *testing.T) {
	// Arrange
	var tx *gorm.DB
	duel := &Duel{Theme: "history"}

	// Act
	err := duel.BeforeCreate(tx)

	// Assert
	require.NoError(t, err)
	assert.Len(t, duel.ID, 36, "BeforeCreate должен сгенерировать UUID")
}

func TestDuel_BeforeCreate_KeepsExistingID(t *testing.T) {
	var tx *gorm.DB
	duel := &Duel{ID: "fixed-id"}

	err := duel.BeforeCreate(tx)

	require.NoError(t, err)
	assert.Equal(t, "fixed-id", duel.ID, "Существующий ID не должен перезаписываться")
}

func TestDuelPlayer_HasSubmitted(t *testing.T) {
	score := 3
	assert.True(t, (&DuelPlayer{Score: &score}).HasSubmitted())
	assert.False(t, (&DuelPlayer{}).HasSubmitted(), "Score == nil означает отсутствие отправки")
}
