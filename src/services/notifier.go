package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/store"
)

type NotificationInput struct {
	UserID      primitive.ObjectID
	Type        models.NotificationType
	Title       string
	Message     string
	RelatedID   primitive.ObjectID
	RelatedType models.RelatedType
	Priority    models.NotificationPriority
}

// Notifier records notices with duplicate prevention: an unread notice with
// the same (userId, type, relatedId) is refreshed in place instead of
// inserted again.
type Notifier struct {
	notifications store.Notifications
	log           *zap.Logger
	now           func() time.Time
}

func NewNotifier(notifications store.Notifications, log *zap.Logger) *Notifier {
	return &Notifier{
		notifications: notifications,
		log:           log,
		now:           time.Now,
	}
}

func (n *Notifier) Notify(ctx context.Context, in NotificationInput) error {
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}

	if !in.RelatedID.IsZero() {
		existing, err := n.notifications.UnreadByKey(ctx, in.UserID, in.Type, in.RelatedID)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Title = in.Title
			existing.Message = in.Message
			existing.CreatedAt = n.now().UTC()
			return n.notifications.Update(ctx, existing)
		}
	}

	notice := &models.Notification{
		Id:          primitive.NewObjectID(),
		UserId:      in.UserID,
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		RelatedId:   in.RelatedID,
		RelatedType: in.RelatedType,
		Priority:    in.Priority,
		IsRead:      false,
		CreatedAt:   n.now().UTC(),
	}
	if err := n.notifications.Insert(ctx, notice); err != nil {
		return err
	}

	n.log.Info("notification created",
		zap.String("type", string(in.Type)),
		zap.String("userId", in.UserID.Hex()))
	return nil
}

// NotifyBulk fans one notice out to several users without de-duplication.
func (n *Notifier) NotifyBulk(ctx context.Context, userIDs []primitive.ObjectID, in NotificationInput) error {
	if len(userIDs) == 0 {
		return nil
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}

	notices := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notices = append(notices, models.Notification{
			Id:          primitive.NewObjectID(),
			UserId:      id,
			Type:        in.Type,
			Title:       in.Title,
			Message:     in.Message,
			RelatedId:   in.RelatedID,
			RelatedType: in.RelatedType,
			Priority:    in.Priority,
			IsRead:      false,
			CreatedAt:   n.now().UTC(),
		})
	}
	return n.notifications.InsertMany(ctx, notices)
}

// CleanupRead drops read notices older than the given age.
func (n *Notifier) CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := n.now().UTC().Add(-olderThan)
	removed, err := n.notifications.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		n.log.Info("cleaned up old notifications", zap.Int64("removed", removed))
	}
	return removed, nil
}
