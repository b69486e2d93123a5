package repository

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"collab-backend/internal/message/domain"
)

// AutoMigrate creates the message tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Message{}, &domain.Delivery{})
}

// gormMessageRepository implements MessageRepository using GORM
type gormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based MessageRepository
func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.CreatedBy == 0 {
		msg.CreatedBy = msg.SenderID
	}
	if msg.UpdatedBy == 0 {
		msg.UpdatedBy = msg.SenderID
	}
	if err := r.db.WithContext(ctx).Omit("Deliveries").Create(msg).Error; err != nil {
		return pkgerrors.Wrap(err, "messageRepo.Create")
	}
	return nil
}

func (r *gormMessageRepository) FindByID(ctx context.Context, id uint) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "messageRepo.FindByID")
	}
	return &msg, nil
}

func (r *gormMessageRepository) UpdatePayload(ctx context.Context, msg *domain.Message, updatedBy uint) error {
	msg.UpdatedBy = updatedBy
	msg.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("id = ?", msg.ID).
		Updates(map[string]interface{}{
			"payload":    msg.Payload,
			"updated_by": msg.UpdatedBy,
			"updated_at": msg.UpdatedAt,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(err, "messageRepo.UpdatePayload")
	}
	return nil
}

func (r *gormMessageRepository) SwapPayload(ctx context.Context, msg *domain.Message, expected datatypes.JSON, updatedBy uint) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ? AND payload = ?", msg.ID, expected).
		Updates(map[string]interface{}{
			"payload":    msg.Payload,
			"updated_by": updatedBy,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, pkgerrors.Wrap(res.Error, "messageRepo.SwapPayload")
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	msg.UpdatedBy = updatedBy
	msg.UpdatedAt = now
	return true, nil
}

func (r *gormMessageRepository) SoftDelete(ctx context.Context, id, deletedBy uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Message{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return pkgerrors.Wrap(err, "messageRepo.SoftDelete.Mark")
		}
		if err := tx.Where("message_id = ?", id).Delete(&domain.Delivery{}).Error; err != nil {
			return pkgerrors.Wrap(err, "messageRepo.SoftDelete.Deliveries")
		}
		if err := tx.Delete(&domain.Message{}, "id = ?", id).Error; err != nil {
			return pkgerrors.Wrap(err, "messageRepo.SoftDelete.Message")
		}
		return nil
	})
}

func (r *gormMessageRepository) ListForUser(ctx context.Context, userID uint, filter ListFilter) ([]*domain.Message, int64, error) {
	var messages []*domain.Message
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Message{}).
		Joins("JOIN message_sender_receivers d ON d.message_id = messages.id AND d.deleted_at IS NULL").
		Where("d.receiver_id = ?", userID)
	if len(filter.Types) > 0 {
		query = query.Where("messages.type IN ?", filter.Types)
	}
	for key, value := range filter.PayloadEquals {
		query = query.Where(datatypes.JSONQuery("payload").Equals(value, key))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "messageRepo.ListForUser.Count")
	}

	err := query.Order("messages.created_at DESC, messages.id DESC").
		Limit(filter.Limit).Offset(filter.Offset).Find(&messages).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "messageRepo.ListForUser.Find")
	}
	return messages, total, nil
}

func (r *gormMessageRepository) FindByType(ctx context.Context, t domain.MessageType) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.WithContext(ctx).Where("type = ?", t).Order("id ASC").Find(&messages).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "messageRepo.FindByType")
	}
	return messages, nil
}

// gormDeliveryRepository implements DeliveryRepository using GORM
type gormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GORM-based DeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &gormDeliveryRepository{db: db}
}

// WriteDeliveries drops every previous row of the message (hard delete, so the
// unique (message, receiver) index never collides) and inserts the new set.
func (r *gormDeliveryRepository) WriteDeliveries(ctx context.Context, messageID, senderID uint, recipients []uint) (int, error) {
	rows := make([]domain.Delivery, 0, len(recipients))
	now := time.Now()
	for _, receiverID := range recipients {
		rows = append(rows, domain.Delivery{
			MessageID:  messageID,
			SenderID:   senderID,
			ReceiverID: receiverID,
			CreatedAt:  now,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("message_id = ?", messageID).Delete(&domain.Delivery{}).Error; err != nil {
			return pkgerrors.Wrap(err, "deliveryRepo.WriteDeliveries.Delete")
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return pkgerrors.Wrap(err, "deliveryRepo.WriteDeliveries.Insert")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *gormDeliveryRepository) ReceiverIDs(ctx context.Context, messageID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&domain.Delivery{}).
		Where("message_id = ?", messageID).
		Order("id ASC").
		Pluck("receiver_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "deliveryRepo.ReceiverIDs")
	}
	return ids, nil
}

func (r *gormDeliveryRepository) IsParticipant(ctx context.Context, messageID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Delivery{}).
		Where("message_id = ? AND (receiver_id = ? OR sender_id = ?)", messageID, userID, userID).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(err, "deliveryRepo.IsParticipant")
	}
	return count > 0, nil
}
