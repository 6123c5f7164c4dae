package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Conversation is a translation session with the backend.
type Conversation struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// Message is one recognized and translated utterance. Synthesized audio is
// not persisted.
type Message struct {
	ID                 string    `gorm:"primaryKey" json:"id"`
	ConversationID     string    `gorm:"index" json:"conversation_id"`
	Timestamp          string    `json:"timestamp"`
	OriginalText       string    `json:"original_text"`
	OriginalLanguage   string    `json:"original_language"`
	TranslatedText     string    `json:"translated_text"`
	TranslatedLanguage string    `json:"translated_language"`
	CreatedAt          time.Time `json:"created_at"`
}

// ConversationRepository defines decoupled operations for conversation history.
type ConversationRepository interface {
	AppendMessage(ctx context.Context, conversationID, language string, msg Message) error
	List(ctx context.Context) ([]Conversation, error)
	Get(ctx context.Context, id string) (*Conversation, error)
	Clear(ctx context.Context) error
}

type gormConversationRepo struct{ db *gorm.DB }

// NewConversationRepository creates a ConversationRepository.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &gormConversationRepo{db: db}
}

// AppendMessage creates the conversation on first use and adds msg to it.
func (r *gormConversationRepo) AppendMessage(ctx context.Context, conversationID, language string, msg Message) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	if conversationID == "" {
		return fmt.Errorf("conversation id is empty")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv := Conversation{ID: conversationID, Language: language}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&conv).Error; err != nil {
			return err
		}
		msg.ConversationID = conversationID
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&msg).Error
	})
}

func (r *gormConversationRepo) List(ctx context.Context) ([]Conversation, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var convs []Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Order("created_at desc").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *gormConversationRepo) Get(ctx context.Context, id string) (*Conversation, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var conv Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *gormConversationRepo) Clear(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Message{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Conversation{}).Error
	})
}
