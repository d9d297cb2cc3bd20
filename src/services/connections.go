package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/store"
)

const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

const (
	FilterPending  = "pending"
	FilterAccepted = "accepted"
	FilterAll      = "all"
)

// ConnectionService manages the pairing handshake between one teacher and one
// student. Either side may initiate; only the side that did NOT initiate may
// accept or reject.
type ConnectionService struct {
	connections store.Connections
	users       store.Users
	profiles    store.Profiles
	notifier    *Notifier
	log         *zap.Logger
	now         func() time.Time
}

func NewConnectionService(connections store.Connections, users store.Users, profiles store.Profiles, notifier *Notifier, log *zap.Logger) *ConnectionService {
	return &ConnectionService{
		connections: connections,
		users:       users,
		profiles:    profiles,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// Request opens a pending connection from the actor towards the counterparty.
// Teachers pass a student user id; students pass a teacher user id or the
// teacher's short join code.
func (s *ConnectionService) Request(ctx context.Context, actor Actor, counterparty string) (*models.ConnectionDto, error) {
	var teacherID, studentID primitive.ObjectID

	switch actor.Role {
	case models.RoleTeacher:
		studentUserID, err := s.resolveStudent(ctx, counterparty)
		if err != nil {
			return nil, err
		}
		teacherID, studentID = actor.ID, studentUserID
	case models.RoleStudent:
		teacherUserID, err := s.resolveTeacher(ctx, counterparty)
		if err != nil {
			return nil, err
		}
		teacherID, studentID = teacherUserID, actor.ID
	default:
		return nil, Forbidden("unknown role")
	}

	if teacherID == studentID {
		return nil, InvalidOperation("cannot connect with yourself", "")
	}

	// a single connection per pair, whatever its status
	existing, err := s.connections.ByPair(ctx, teacherID, studentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, Conflict("connection already exists", existing.Status)
	}

	now := s.now().UTC()
	conn := &models.Connection{
		Id:          primitive.NewObjectID(),
		Teacher:     teacherID,
		Student:     studentID,
		Status:      models.ConnectionStatusPending,
		InitiatedBy: actor.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.connections.Insert(ctx, conn); err != nil {
		if err == store.ErrDuplicate {
			// lost the race against a simultaneous request for the same pair
			if existing, lookupErr := s.connections.ByPair(ctx, teacherID, studentID); lookupErr == nil && existing != nil {
				return nil, Conflict("connection already exists", existing.Status)
			}
			return nil, Conflict("connection already exists", models.ConnectionStatusPending)
		}
		return nil, err
	}

	s.notifyRequested(ctx, actor, conn)

	s.log.Info("connection requested",
		zap.String("connectionId", conn.Id.Hex()),
		zap.String("initiatedBy", string(actor.Role)))
	return s.populate(ctx, conn)
}

// Respond accepts or rejects a pending connection. The responder must be the
// pair member opposite to whoever initiated; initiators cannot approve their
// own requests.
func (s *ConnectionService) Respond(ctx context.Context, actor Actor, connectionID primitive.ObjectID, action string) (*models.ConnectionDto, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, Unprocessable("invalid action, must be accept or reject")
	}

	conn, err := s.connections.ByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, NotFound("connection not found")
	}

	if err := checkResponder(actor, conn); err != nil {
		return nil, err
	}

	if conn.Status != models.ConnectionStatusPending {
		return nil, InvalidOperation(fmt.Sprintf("connection is already %s", conn.Status), conn.Status)
	}

	newStatus := models.ConnectionStatusRejected
	if action == ActionAccept {
		newStatus = models.ConnectionStatusAccepted
	}

	// CAS on status: a concurrent respond on the same connection loses here
	now := s.now().UTC()
	flipped, err := s.connections.SetStatusIfPending(ctx, conn.Id, newStatus, now)
	if err != nil {
		return nil, err
	}
	if !flipped {
		current := conn.Status
		if latest, lookupErr := s.connections.ByID(ctx, conn.Id); lookupErr == nil && latest != nil {
			current = latest.Status
		}
		return nil, InvalidOperation(fmt.Sprintf("connection is already %s", current), current)
	}
	conn.Status = newStatus
	conn.UpdatedAt = now

	if newStatus == models.ConnectionStatusAccepted {
		// the status is already flipped; the back-references must follow.
		// LinkPair is idempotent, so one retry cannot double-link.
		if err := s.profiles.LinkPair(ctx, conn.Teacher, conn.Student); err != nil {
			s.log.Warn("profile link failed, retrying", zap.Error(err))
			if err := s.profiles.LinkPair(ctx, conn.Teacher, conn.Student); err != nil {
				return nil, err
			}
		}
		s.notifyAccepted(ctx, actor, conn)
	}

	s.log.Info("connection responded",
		zap.String("connectionId", conn.Id.Hex()),
		zap.String("status", string(newStatus)))
	return s.populate(ctx, conn)
}

// List returns the actor's connections, newest first, with the counterparty
// populated. filter is pending, accepted or all.
func (s *ConnectionService) List(ctx context.Context, actor Actor, filter string) ([]models.ConnectionDto, error) {
	var status models.ConnectionStatus
	switch filter {
	case FilterPending:
		status = models.ConnectionStatusPending
	case FilterAccepted:
		status = models.ConnectionStatusAccepted
	case FilterAll, "":
		status = ""
	default:
		return nil, Unprocessable("invalid filter, must be pending, accepted or all")
	}

	conns, err := s.connections.ListForUser(ctx, actor.Role, actor.ID, status)
	if err != nil {
		return nil, err
	}

	dtos := make([]models.ConnectionDto, 0, len(conns))
	for i := range conns {
		dto, err := s.populate(ctx, &conns[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}
	return dtos, nil
}

// Remove disconnects a student. Teacher-only; the caller must be the
// connection's teacher.
func (s *ConnectionService) Remove(ctx context.Context, teacherID primitive.ObjectID, connectionID primitive.ObjectID) error {
	conn, err := s.connections.ByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn == nil {
		return NotFound("connection not found")
	}
	if conn.Teacher != teacherID {
		return Forbidden("only the teacher can remove this connection")
	}

	if err := s.connections.Delete(ctx, conn.Id); err != nil {
		return err
	}
	if err := s.profiles.UnlinkPair(ctx, conn.Teacher, conn.Student); err != nil {
		s.log.Warn("profile unlink failed, retrying", zap.Error(err))
		if err := s.profiles.UnlinkPair(ctx, conn.Teacher, conn.Student); err != nil {
			return err
		}
	}

	s.log.Info("connection removed", zap.String("connectionId", conn.Id.Hex()))
	return nil
}

// PairStatus describes the relationship between the actor and another user.
type PairStatus struct {
	Status    string              `json:"status"` // connected, pending, received, not_connected
	RequestID *primitive.ObjectID `json:"requestId,omitempty"`
}

// StatusBetween reports where the handshake with otherUserID stands from the
// actor's point of view.
func (s *ConnectionService) StatusBetween(ctx context.Context, actor Actor, otherUserID primitive.ObjectID) (*PairStatus, error) {
	if actor.ID == otherUserID {
		return nil, InvalidOperation("cannot check connection status with yourself", "")
	}

	teacherID, studentID := otherUserID, actor.ID
	if actor.Role == models.RoleTeacher {
		teacherID, studentID = actor.ID, otherUserID
	}

	conn, err := s.connections.ByPair(ctx, teacherID, studentID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return &PairStatus{Status: "not_connected"}, nil
	}

	switch conn.Status {
	case models.ConnectionStatusAccepted:
		return &PairStatus{Status: "connected"}, nil
	case models.ConnectionStatusPending:
		if conn.InitiatedBy == actor.Role {
			return &PairStatus{Status: "pending"}, nil
		}
		return &PairStatus{Status: "received", RequestID: &conn.Id}, nil
	default:
		return &PairStatus{Status: "not_connected"}, nil
	}
}

// checkResponder enforces the dual-initiation rule: the responder is the pair
// member on the side opposite to InitiatedBy. An unset InitiatedBy (legacy
// rows) falls back to teacher approval.
func checkResponder(actor Actor, conn *models.Connection) error {
	switch conn.InitiatedBy {
	case models.RoleTeacher:
		if actor.Role != models.RoleStudent || actor.ID != conn.Student {
			return Forbidden("this invite must be accepted by the student")
		}
	case models.RoleStudent:
		if actor.Role != models.RoleTeacher || actor.ID != conn.Teacher {
			return Forbidden("this request must be accepted by the teacher")
		}
	default:
		if actor.Role != models.RoleTeacher || actor.ID != conn.Teacher {
			return Forbidden("only the teacher can respond to this connection request")
		}
	}
	return nil
}

func (s *ConnectionService) resolveStudent(ctx context.Context, identifier string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(identifier)
	if err != nil {
		return primitive.NilObjectID, NotFound("student not found")
	}
	user, err := s.users.ByID(ctx, id)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if user == nil || user.Role != models.RoleStudent {
		return primitive.NilObjectID, NotFound("student not found")
	}
	return user.Id, nil
}

// resolveTeacher accepts either a raw teacher user id or the short join code
// stored on the teacher profile.
func (s *ConnectionService) resolveTeacher(ctx context.Context, identifier string) (primitive.ObjectID, error) {
	if id, err := primitive.ObjectIDFromHex(identifier); err == nil {
		profile, err := s.profiles.TeacherByUserID(ctx, id)
		if err != nil {
			return primitive.NilObjectID, err
		}
		if profile == nil {
			return primitive.NilObjectID, NotFound("teacher not found")
		}
		return profile.UserId, nil
	}

	profile, err := s.profiles.TeacherByCode(ctx, identifier)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if profile == nil {
		return primitive.NilObjectID, NotFound("teacher code not found")
	}
	return profile.UserId, nil
}

func (s *ConnectionService) notifyRequested(ctx context.Context, actor Actor, conn *models.Connection) {
	recipient := conn.Teacher
	title, message := "New Connection Request", "A student wants to connect with you"
	if actor.Role == models.RoleTeacher {
		recipient = conn.Student
		title, message = "New Teacher Invite", "A teacher has invited you to connect"
	}
	if initiator, err := s.users.ByID(ctx, actor.ID); err == nil && initiator != nil {
		message = fmt.Sprintf("%s wants to connect with you", initiator.Name)
	}

	err := s.notifier.Notify(ctx, NotificationInput{
		UserID:      recipient,
		Type:        models.NotificationConnectionRequest,
		Title:       title,
		Message:     message,
		RelatedID:   conn.Id,
		RelatedType: models.RelatedConnection,
		Priority:    models.PriorityMedium,
	})
	if err != nil {
		s.log.Warn("connection request notification failed", zap.Error(err))
	}
}

func (s *ConnectionService) notifyAccepted(ctx context.Context, actor Actor, conn *models.Connection) {
	// notify the initiator, i.e. the side that is not responding
	recipient := conn.Teacher
	if actor.Role == models.RoleTeacher {
		recipient = conn.Student
	}
	message := "Your connection request was accepted"
	if responder, err := s.users.ByID(ctx, actor.ID); err == nil && responder != nil {
		message = fmt.Sprintf("%s accepted your connection request", responder.Name)
	}

	err := s.notifier.Notify(ctx, NotificationInput{
		UserID:      recipient,
		Type:        models.NotificationConnectionAccepted,
		Title:       "Connection Accepted",
		Message:     message,
		RelatedID:   conn.Id,
		RelatedType: models.RelatedConnection,
		Priority:    models.PriorityMedium,
	})
	if err != nil {
		s.log.Warn("connection accepted notification failed", zap.Error(err))
	}
}

func (s *ConnectionService) populate(ctx context.Context, conn *models.Connection) (*models.ConnectionDto, error) {
	dto := &models.ConnectionDto{
		ID:          conn.Id,
		Status:      conn.Status,
		InitiatedBy: conn.InitiatedBy,
		CreatedAt:   conn.CreatedAt,
		UpdatedAt:   conn.UpdatedAt,
	}

	if teacher, err := s.users.ByID(ctx, conn.Teacher); err != nil {
		return nil, err
	} else if teacher != nil {
		d := teacher.Dto()
		dto.Teacher = &d
	}

	if student, err := s.users.ByID(ctx, conn.Student); err != nil {
		return nil, err
	} else if student != nil {
		d := student.Dto()
		dto.Student = &d
	}

	return dto, nil
}
