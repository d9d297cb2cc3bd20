package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/Backend-Study-Hub/src/models"
)

// ErrDuplicate is returned by inserts that hit a uniqueness constraint.
var ErrDuplicate = errors.New("store: duplicate key")

// Lookup methods return (nil, nil) when the entity does not exist.

type Connections interface {
	Insert(ctx context.Context, conn *models.Connection) error
	ByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error)
	ByPair(ctx context.Context, teacher, student primitive.ObjectID) (*models.Connection, error)
	// ListForUser returns connections where the user sits on their role's
	// side, newest first. An empty status means all statuses.
	ListForUser(ctx context.Context, role models.UserRole, userID primitive.ObjectID, status models.ConnectionStatus) ([]models.Connection, error)
	// SetStatusIfPending flips the status only when it is still pending,
	// reporting whether the write happened.
	SetStatusIfPending(ctx context.Context, id primitive.ObjectID, status models.ConnectionStatus, at time.Time) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Users interface {
	ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Profiles interface {
	TeacherByUserID(ctx context.Context, userID primitive.ObjectID) (*models.TeacherProfile, error)
	TeacherByCode(ctx context.Context, code string) (*models.TeacherProfile, error)
	// LinkPair adds the mutual back-references on both profiles. Idempotent.
	LinkPair(ctx context.Context, teacherUserID, studentUserID primitive.ObjectID) error
	// UnlinkPair removes the mutual back-references. Idempotent.
	UnlinkPair(ctx context.Context, teacherUserID, studentUserID primitive.ObjectID) error
}

type StudyLogs interface {
	// HasLogOnDay reports whether the user has a log whose date falls inside
	// [day, day+24h). day must already be truncated to midnight UTC.
	HasLogOnDay(ctx context.Context, userID primitive.ObjectID, day time.Time) (bool, error)
	// Totals returns the all-time minute sum and session count.
	Totals(ctx context.Context, userID primitive.ObjectID) (minutes int, sessions int, err error)
	// InRange returns logs with date inside [start, end] inclusive, oldest first.
	InRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.StudyLog, error)
}

type Streaks interface {
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error)
	Save(ctx context.Context, streak *models.StudyStreak) error
}

type Notifications interface {
	// UnreadByKey finds an unread notification matching the de-duplication
	// key (userId, type, relatedId).
	UnreadByKey(ctx context.Context, userID primitive.ObjectID, typ models.NotificationType, relatedID primitive.ObjectID) (*models.Notification, error)
	Insert(ctx context.Context, n *models.Notification) error
	InsertMany(ctx context.Context, ns []models.Notification) error
	Update(ctx context.Context, n *models.Notification) error
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Tasks interface {
	PendingDueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error)
	PendingOverdue(ctx context.Context, now time.Time) ([]models.Task, error)
}
