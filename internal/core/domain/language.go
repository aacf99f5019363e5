package domain

import "time"

// Language is a target language with its seed files.
type Language struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Code             string    `json:"code"`
	SentencesFile    string    `json:"sentences_file"`
	TranslationsFile string    `json:"translations_file"`
	CreatedAt        time.Time `json:"created_at"`
}

// Sentence is a prompt in a target language and its translation.
type Sentence struct {
	ID          int64     `json:"id"`
	LanguageID  int64     `json:"language_id"`
	Text        string    `json:"text"`
	Translation string    `json:"translation"`
	CreatedAt   time.Time `json:"created_at"`
}
