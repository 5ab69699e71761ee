package repository

// QuestionRepository определяет методы чтения контентного хранилища вопросов.
// Ядро дуэлей не управляет контентом: ему нужны только ID вопросов темы для
// выборки; полные вопросы с вариантами подгружаются вместе с дуэлью.
type QuestionRepository interface {
	// GetIDsByTheme возвращает все ID вопросов темы
	GetIDsByTheme(theme string) ([]uint, error)
}
