package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/careerforge/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

type ChatRepository interface {
	List(limit int) ([]models.Chat, error)
	Create(chat *models.Chat) error
	FindByID(id uuid.UUID) (*models.Chat, error)
	Update(id uuid.UUID, title *string, messages *[]models.Message) (*models.Chat, error)
	Delete(id uuid.UUID) error
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// List implements ChatRepository. Only id, title and updated_at are loaded.
func (r *chatRepository) List(limit int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.
		Select("id", "title", "updated_at").
		Order("updated_at DESC").
		Limit(limit).
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	return chats, nil
}

// Create implements ChatRepository.
func (r *chatRepository) Create(chat *models.Chat) error {
	if chat.ID == uuid.Nil {
		chat.ID = uuid.New()
	}
	stampMessages(chat.ID, chat.Messages)

	if err := r.db.Create(chat).Error; err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	return nil
}

// FindByID implements ChatRepository.
func (r *chatRepository) FindByID(id uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}

	return &chat, nil
}

// Update implements ChatRepository. A non-nil messages slice replaces the whole history.
func (r *chatRepository) Update(id uuid.UUID, title *string, messages *[]models.Message) (*models.Chat, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"updated_at": time.Now(),
		}
		if title != nil {
			updates["title"] = *title
		}

		result := tx.Model(&models.Chat{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update chat: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrChatNotFound
		}

		if messages == nil {
			return nil
		}

		if err := tx.Where("chat_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to clear messages: %w", err)
		}
		if len(*messages) == 0 {
			return nil
		}

		stampMessages(id, *messages)
		if err := tx.Create(messages).Error; err != nil {
			return fmt.Errorf("failed to replace messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.FindByID(id)
}

// Delete implements ChatRepository.
func (r *chatRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.Chat{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete chat: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrChatNotFound
		}
		return nil
	})
}

// stampMessages assigns ids and strictly increasing timestamps so the stored
// order survives a created_at sort.
func stampMessages(chatID uuid.UUID, messages []models.Message) {
	base := time.Now()
	for i := range messages {
		messages[i].ChatID = chatID
		if messages[i].ID == uuid.Nil {
			messages[i].ID = uuid.New()
		}
		messages[i].CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
	}
}
