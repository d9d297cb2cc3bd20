package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/theleywin/Backend-Study-Hub/src/models"
	"github.com/theleywin/Backend-Study-Hub/src/store"
)

type connFixture struct {
	mem     *store.Memory
	svc     *ConnectionService
	teacher models.User
	student models.User
}

func newConnFixture(t *testing.T) *connFixture {
	t.Helper()

	mem := store.NewMemory()
	log := zap.NewNop()
	svc := NewConnectionService(mem.Connections, mem.Users, mem.Profiles, NewNotifier(mem.Notifications, log), log)

	teacher := models.User{Id: primitive.NewObjectID(), Name: "Laura Mendez", Email: "laura@example.com", Role: models.RoleTeacher}
	student := models.User{Id: primitive.NewObjectID(), Name: "Carlos Ruiz", Email: "carlos@example.com", Role: models.RoleStudent}
	mem.AddUser(teacher)
	mem.AddUser(student)
	mem.AddTeacherProfile(models.TeacherProfile{Id: primitive.NewObjectID(), UserId: teacher.Id, Code: "XK9M2L"})
	mem.AddStudentProfile(models.StudentProfile{Id: primitive.NewObjectID(), UserId: student.Id})

	return &connFixture{mem: mem, svc: svc, teacher: teacher, student: student}
}

func (f *connFixture) addStudent(name, email string) models.User {
	u := models.User{Id: primitive.NewObjectID(), Name: name, Email: email, Role: models.RoleStudent}
	f.mem.AddUser(u)
	f.mem.AddStudentProfile(models.StudentProfile{Id: primitive.NewObjectID(), UserId: u.Id})
	return u
}

func TestRequestByTeacherCode(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)

	assert.Equal(t, models.ConnectionStatusPending, dto.Status)
	assert.Equal(t, models.RoleStudent, dto.InitiatedBy)
	require.NotNil(t, dto.Teacher)
	require.NotNil(t, dto.Student)
	assert.Equal(t, f.teacher.Id, dto.Teacher.ID)
	assert.Equal(t, f.student.Id, dto.Student.ID)
	assert.Equal(t, "Laura Mendez", dto.Teacher.Name)

	notices := f.mem.NotificationsFor(f.teacher.Id)
	require.Len(t, notices, 1)
	assert.Equal(t, models.NotificationConnectionRequest, notices[0].Type)
	assert.Contains(t, notices[0].Message, "Carlos Ruiz")
}

func TestRequestByTeacherID(t *testing.T) {
	f := newConnFixture(t)

	dto, err := f.svc.Request(context.Background(), Student(f.student.Id), f.teacher.Id.Hex())
	require.NoError(t, err)
	assert.Equal(t, f.teacher.Id, dto.Teacher.ID)
}

func TestRequestUnknownTeacherCode(t *testing.T) {
	f := newConnFixture(t)

	_, err := f.svc.Request(context.Background(), Student(f.student.Id), "ZZZZZZ")
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, se.Code)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestTeacherInvitesStudent(t *testing.T) {
	f := newConnFixture(t)

	dto, err := f.svc.Request(context.Background(), Teacher(f.teacher.Id), f.student.Id.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusPending, dto.Status)
	assert.Equal(t, models.RoleTeacher, dto.InitiatedBy)

	notices := f.mem.NotificationsFor(f.student.Id)
	require.Len(t, notices, 1)
	assert.Equal(t, "New Teacher Invite", notices[0].Title)
}

func TestTeacherCannotInviteAnotherTeacher(t *testing.T) {
	f := newConnFixture(t)

	_, err := f.svc.Request(context.Background(), Teacher(f.teacher.Id), f.teacher.Id.Hex())
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, se.Code)
}

func TestRequestSelfRejected(t *testing.T) {
	f := newConnFixture(t)
	// a user somehow holding both roles still cannot pair with themselves
	f.mem.AddTeacherProfile(models.TeacherProfile{Id: primitive.NewObjectID(), UserId: f.student.Id, Code: "QQ2222"})

	_, err := f.svc.Request(context.Background(), Student(f.student.Id), f.student.Id.Hex())
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidOperation, se.Code)
}

func TestDuplicatePairConflict(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)

	// same pair, either direction
	_, err = f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeConflict, se.Code)
	assert.Equal(t, models.ConnectionStatusPending, se.Status)

	_, err = f.svc.Request(ctx, Teacher(f.teacher.Id), f.student.Id.Hex())
	se, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeConflict, se.Code)

	// the conflict reports the current status even after the handshake ends
	_, err = f.svc.Respond(ctx, Teacher(f.teacher.Id), dto.ID, ActionAccept)
	require.NoError(t, err)
	_, err = f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	se, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, models.ConnectionStatusAccepted, se.Status)
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestStudentRequestAcceptedByTeacher(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)

	// the initiator cannot approve their own request
	_, err = f.svc.Respond(ctx, Student(f.student.Id), dto.ID, ActionAccept)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeForbidden, se.Code)

	// nor can an unrelated teacher
	outsider := primitive.NewObjectID()
	_, err = f.svc.Respond(ctx, Teacher(outsider), dto.ID, ActionAccept)
	se, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeForbidden, se.Code)

	accepted, err := f.svc.Respond(ctx, Teacher(f.teacher.Id), dto.ID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusAccepted, accepted.Status)

	// back-references land on both profiles
	assert.Contains(t, f.mem.TeacherProfile(f.teacher.Id).ConnectedStudents, f.student.Id)
	assert.Contains(t, f.mem.StudentProfile(f.student.Id).ConnectedTeachers, f.teacher.Id)

	notices := f.mem.NotificationsFor(f.student.Id)
	require.Len(t, notices, 1)
	assert.Equal(t, models.NotificationConnectionAccepted, notices[0].Type)
	assert.Contains(t, notices[0].Message, "Laura Mendez")
}

func TestTeacherInviteAcceptedByStudent(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Request(ctx, Teacher(f.teacher.Id), f.student.Id.Hex())
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, Teacher(f.teacher.Id), dto.ID, ActionAccept)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeForbidden, se.Code)

	accepted, err := f.svc.Respond(ctx, Student(f.student.Id), dto.ID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusAccepted, accepted.Status)

	notices := f.mem.NotificationsFor(f.teacher.Id)
	require.NotEmpty(t, notices)
	assert.Equal(t, models.NotificationConnectionAccepted, notices[len(notices)-1].Type)
}

func TestRespondValidation(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	_, err := f.svc.Respond(ctx, Teacher(f.teacher.Id), primitive.NewObjectID(), "approve")
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnprocessable, se.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(err))

	_, err = f.svc.Respond(ctx, Teacher(f.teacher.Id), primitive.NewObjectID(), ActionAccept)
	se, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, se.Code)
}

func TestRespondOnTerminalConnection(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)
	_, err = f.svc.Respond(ctx, Teacher(f.teacher.Id), dto.ID, ActionAccept)
	require.NoError(t, err)

	_, err = f.svc.Respond(ctx, Teacher(f.teacher.Id), dto.ID, ActionReject)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidOperation, se.Code)
	assert.Equal(t, models.ConnectionStatusAccepted, se.Status)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestRejectLeavesProfilesUntouched(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)

	rejected, err := f.svc.Respond(ctx, Teacher(f.teacher.Id), dto.ID, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusRejected, rejected.Status)

	assert.Empty(t, f.mem.TeacherProfile(f.teacher.Id).ConnectedStudents)
	assert.Empty(t, f.mem.StudentProfile(f.student.Id).ConnectedTeachers)
}

func TestAcceptRetriesProfileLink(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)

	f.mem.FailNextLink(errors.New("transient write error"))
	accepted, err := f.svc.Respond(ctx, Teacher(f.teacher.Id), dto.ID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusAccepted, accepted.Status)
	assert.Contains(t, f.mem.TeacherProfile(f.teacher.Id).ConnectedStudents, f.student.Id)
}

func TestLegacyRowDefaultsToTeacherApproval(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	// rows written before initiatedBy existed carry no initiator
	conn := &models.Connection{
		Id:        primitive.NewObjectID(),
		Teacher:   f.teacher.Id,
		Student:   f.student.Id,
		Status:    models.ConnectionStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.mem.Connections.Insert(ctx, conn))

	_, err := f.svc.Respond(ctx, Student(f.student.Id), conn.Id, ActionAccept)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeForbidden, se.Code)

	accepted, err := f.svc.Respond(ctx, Teacher(f.teacher.Id), conn.Id, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusAccepted, accepted.Status)
}

func TestListFiltersAndOrders(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return base }
	first, err := f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)

	second := f.addStudent("Ana Torres", "ana@example.com")
	f.svc.now = func() time.Time { return base.Add(time.Hour) }
	_, err = f.svc.Request(ctx, Teacher(f.teacher.Id), second.Id.Hex())
	require.NoError(t, err)

	all, err := f.svc.List(ctx, Teacher(f.teacher.Id), FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// newest first, counterparties populated
	assert.Equal(t, "Ana Torres", all[0].Student.Name)
	assert.Equal(t, "Carlos Ruiz", all[1].Student.Name)

	_, err = f.svc.Respond(ctx, Teacher(f.teacher.Id), first.ID, ActionAccept)
	require.NoError(t, err)

	pending, err := f.svc.List(ctx, Teacher(f.teacher.Id), FilterPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.Id, pending[0].Student.ID)

	accepted, err := f.svc.List(ctx, Student(f.student.Id), FilterAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, f.teacher.Id, accepted[0].Teacher.ID)

	_, err = f.svc.List(ctx, Teacher(f.teacher.Id), "bogus")
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeUnprocessable, se.Code)
}

func TestRemoveConnection(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)
	_, err = f.svc.Respond(ctx, Teacher(f.teacher.Id), dto.ID, ActionAccept)
	require.NoError(t, err)

	err = f.svc.Remove(ctx, primitive.NewObjectID(), dto.ID)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeForbidden, se.Code)

	err = f.svc.Remove(ctx, f.teacher.Id, primitive.NewObjectID())
	se, ok = AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, se.Code)

	require.NoError(t, f.svc.Remove(ctx, f.teacher.Id, dto.ID))
	assert.Empty(t, f.mem.TeacherProfile(f.teacher.Id).ConnectedStudents)
	assert.Empty(t, f.mem.StudentProfile(f.student.Id).ConnectedTeachers)

	all, err := f.svc.List(ctx, Teacher(f.teacher.Id), FilterAll)
	require.NoError(t, err)
	assert.Empty(t, all)

	// the pair can connect again afterwards
	_, err = f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)
}

func TestStatusBetween(t *testing.T) {
	f := newConnFixture(t)
	ctx := context.Background()

	st, err := f.svc.StatusBetween(ctx, Student(f.student.Id), f.teacher.Id)
	require.NoError(t, err)
	assert.Equal(t, "not_connected", st.Status)

	dto, err := f.svc.Request(ctx, Student(f.student.Id), "XK9M2L")
	require.NoError(t, err)

	st, err = f.svc.StatusBetween(ctx, Student(f.student.Id), f.teacher.Id)
	require.NoError(t, err)
	assert.Equal(t, "pending", st.Status)
	assert.Nil(t, st.RequestID)

	st, err = f.svc.StatusBetween(ctx, Teacher(f.teacher.Id), f.student.Id)
	require.NoError(t, err)
	assert.Equal(t, "received", st.Status)
	require.NotNil(t, st.RequestID)
	assert.Equal(t, dto.ID, *st.RequestID)

	_, err = f.svc.Respond(ctx, Teacher(f.teacher.Id), dto.ID, ActionAccept)
	require.NoError(t, err)

	st, err = f.svc.StatusBetween(ctx, Student(f.student.Id), f.teacher.Id)
	require.NoError(t, err)
	assert.Equal(t, "connected", st.Status)

	_, err = f.svc.StatusBetween(ctx, Student(f.student.Id), f.student.Id)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidOperation, se.Code)
}
