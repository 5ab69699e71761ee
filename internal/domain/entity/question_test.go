package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_CorrectOption(t *testing.T) {
	// Arrange
	question := &Question{
		ID:     1,
		Theme:  "history",
		Prompt: "В каком году основан Рим?",
		Options: []QuestionOption{
			{ID: 10, QuestionID: 1, Label: "753 до н.э.", OrderIndex: 0, IsCorrect: true},
			{ID: 11, QuestionID: 1, Label: "509 до н.э.", OrderIndex: 1},
			{ID: 12, QuestionID: 1, Label: "27 до н.э.", OrderIndex: 2},
		},
	}

	// Act
	correct := question.CorrectOption()

	// Assert
	require.NotNil(t, correct, "CorrectOption должен найти правильный вариант")
	assert.Equal(t, uint(10), correct.ID)
}

func TestQuestion_CorrectOption_NoOptionsLoaded(t *testing.T) {
	// Arrange: варианты не загружены
	question := &Question{ID: 1}

	// Act & Assert
	assert.Nil(t, question.CorrectOption(), "Без загруженных вариантов CorrectOption возвращает nil")
}

func TestQuestion_OptionByID(t *testing.T) {
	// Arrange
	question := &Question{
		ID: 1,
		Options: []QuestionOption{
			{ID: 10, QuestionID: 1},
			{ID: 11, QuestionID: 1},
		},
	}

	// Act & Assert
	require.NotNil(t, question.OptionByID(11))
	assert.Equal(t, uint(11), question.OptionByID(11).ID)
	assert.Nil(t, question.OptionByID(99), "Чужой ID варианта должен вернуть nil")
}

func TestQuestion_TableName(t *testing.T) {
	assert.Equal(t, "questions", Question{}.TableName())
	assert.Equal(t, "question_options", QuestionOption{}.TableName())
}
