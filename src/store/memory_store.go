package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/Backend-Study-Hub/src/models"
)

// Memory is an in-process implementation of the store interfaces, used as the
// test double for service tests (the same role miniredis plays for a Redis
// client). It mirrors Mongo's semantics: pair uniqueness on connections,
// userId uniqueness on streaks, $addToSet-style idempotent profile links.
type Memory struct {
	Connections   *MemoryConnections
	Users         *MemoryUsers
	Profiles      *MemoryProfiles
	StudyLogs     *MemoryStudyLogs
	Streaks       *MemoryStreaks
	Notifications *MemoryNotifications
	Tasks         *MemoryTasks

	state *memState
}

type memState struct {
	mu sync.Mutex

	users           map[primitive.ObjectID]models.User
	teacherProfiles map[primitive.ObjectID]*models.TeacherProfile
	studentProfiles map[primitive.ObjectID]*models.StudentProfile
	connections     map[primitive.ObjectID]*models.Connection
	logs            []models.StudyLog
	streaks         map[primitive.ObjectID]*models.StudyStreak
	notifications   []*models.Notification
	tasks           []models.Task

	failNextLink error
}

func NewMemory() *Memory {
	st := &memState{
		users:           make(map[primitive.ObjectID]models.User),
		teacherProfiles: make(map[primitive.ObjectID]*models.TeacherProfile),
		studentProfiles: make(map[primitive.ObjectID]*models.StudentProfile),
		connections:     make(map[primitive.ObjectID]*models.Connection),
		streaks:         make(map[primitive.ObjectID]*models.StudyStreak),
	}
	return &Memory{
		Connections:   &MemoryConnections{state: st},
		Users:         &MemoryUsers{state: st},
		Profiles:      &MemoryProfiles{state: st},
		StudyLogs:     &MemoryStudyLogs{state: st},
		Streaks:       &MemoryStreaks{state: st},
		Notifications: &MemoryNotifications{state: st},
		Tasks:         &MemoryTasks{state: st},
		state:         st,
	}
}

// ---- seeding / inspection helpers ----

func (m *Memory) AddUser(u models.User) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	m.state.users[u.Id] = u
}

func (m *Memory) AddTeacherProfile(p models.TeacherProfile) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	cp := p
	m.state.teacherProfiles[p.UserId] = &cp
}

func (m *Memory) AddStudentProfile(p models.StudentProfile) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	cp := p
	m.state.studentProfiles[p.UserId] = &cp
}

func (m *Memory) AddLog(l models.StudyLog) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	if l.Id.IsZero() {
		l.Id = primitive.NewObjectID()
	}
	m.state.logs = append(m.state.logs, l)
}

func (m *Memory) AddTask(t models.Task) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	if t.Id.IsZero() {
		t.Id = primitive.NewObjectID()
	}
	m.state.tasks = append(m.state.tasks, t)
}

func (m *Memory) TeacherProfile(userID primitive.ObjectID) *models.TeacherProfile {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	if p, ok := m.state.teacherProfiles[userID]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (m *Memory) StudentProfile(userID primitive.ObjectID) *models.StudentProfile {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	if p, ok := m.state.studentProfiles[userID]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (m *Memory) NotificationsFor(userID primitive.ObjectID) []models.Notification {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	var out []models.Notification
	for _, n := range m.state.notifications {
		if n.UserId == userID {
			out = append(out, *n)
		}
	}
	return out
}

// MarkAllRead flips every notification for the user to read.
func (m *Memory) MarkAllRead(userID primitive.ObjectID) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	for _, n := range m.state.notifications {
		if n.UserId == userID {
			n.IsRead = true
		}
	}
}

// FailNextLink makes the next LinkPair call fail once with err, to exercise
// the accept path's retry.
func (m *Memory) FailNextLink(err error) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	m.state.failNextLink = err
}

// ---- Connections ----

type MemoryConnections struct {
	state *memState
}

func (s *MemoryConnections) Insert(ctx context.Context, conn *models.Connection) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for _, existing := range s.state.connections {
		if existing.Teacher == conn.Teacher && existing.Student == conn.Student {
			return ErrDuplicate
		}
	}
	if conn.Id.IsZero() {
		conn.Id = primitive.NewObjectID()
	}
	cp := *conn
	s.state.connections[conn.Id] = &cp
	return nil
}

func (s *MemoryConnections) ByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if conn, ok := s.state.connections[id]; ok {
		cp := *conn
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryConnections) ByPair(ctx context.Context, teacher, student primitive.ObjectID) (*models.Connection, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for _, conn := range s.state.connections {
		if conn.Teacher == teacher && conn.Student == student {
			cp := *conn
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryConnections) ListForUser(ctx context.Context, role models.UserRole, userID primitive.ObjectID, status models.ConnectionStatus) ([]models.Connection, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	var out []models.Connection
	for _, conn := range s.state.connections {
		side := conn.Student
		if role == models.RoleTeacher {
			side = conn.Teacher
		}
		if side != userID {
			continue
		}
		if status != "" && conn.Status != status {
			continue
		}
		out = append(out, *conn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryConnections) SetStatusIfPending(ctx context.Context, id primitive.ObjectID, status models.ConnectionStatus, at time.Time) (bool, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	conn, ok := s.state.connections[id]
	if !ok || conn.Status != models.ConnectionStatusPending {
		return false, nil
	}
	conn.Status = status
	conn.UpdatedAt = at
	return true, nil
}

func (s *MemoryConnections) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	delete(s.state.connections, id)
	return nil
}

// ---- Users ----

type MemoryUsers struct {
	state *memState
}

func (s *MemoryUsers) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if u, ok := s.state.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

// ---- Profiles ----

type MemoryProfiles struct {
	state *memState
}

func (s *MemoryProfiles) TeacherByUserID(ctx context.Context, userID primitive.ObjectID) (*models.TeacherProfile, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if p, ok := s.state.teacherProfiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryProfiles) TeacherByCode(ctx context.Context, code string) (*models.TeacherProfile, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for _, p := range s.state.teacherProfiles {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryProfiles) LinkPair(ctx context.Context, teacherUserID, studentUserID primitive.ObjectID) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if err := s.state.failNextLink; err != nil {
		s.state.failNextLink = nil
		return err
	}
	if tp, ok := s.state.teacherProfiles[teacherUserID]; ok {
		tp.ConnectedStudents = addToSet(tp.ConnectedStudents, studentUserID)
	}
	if sp, ok := s.state.studentProfiles[studentUserID]; ok {
		sp.ConnectedTeachers = addToSet(sp.ConnectedTeachers, teacherUserID)
	}
	return nil
}

func (s *MemoryProfiles) UnlinkPair(ctx context.Context, teacherUserID, studentUserID primitive.ObjectID) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if tp, ok := s.state.teacherProfiles[teacherUserID]; ok {
		tp.ConnectedStudents = pull(tp.ConnectedStudents, studentUserID)
	}
	if sp, ok := s.state.studentProfiles[studentUserID]; ok {
		sp.ConnectedTeachers = pull(sp.ConnectedTeachers, teacherUserID)
	}
	return nil
}

func addToSet(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func pull(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// ---- StudyLogs ----

type MemoryStudyLogs struct {
	state *memState
}

func (s *MemoryStudyLogs) HasLogOnDay(ctx context.Context, userID primitive.ObjectID, day time.Time) (bool, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	next := day.Add(24 * time.Hour)
	for _, l := range s.state.logs {
		if l.UserId == userID && !l.Date.Before(day) && l.Date.Before(next) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStudyLogs) Totals(ctx context.Context, userID primitive.ObjectID) (int, int, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	minutes, sessions := 0, 0
	for _, l := range s.state.logs {
		if l.UserId == userID {
			minutes += l.Duration
			sessions++
		}
	}
	return minutes, sessions, nil
}

func (s *MemoryStudyLogs) InRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.StudyLog, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	var out []models.StudyLog
	for _, l := range s.state.logs {
		if l.UserId == userID && !l.Date.Before(start) && !l.Date.After(end) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ---- Streaks ----

type MemoryStreaks struct {
	state *memState
}

func (s *MemoryStreaks) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if streak, ok := s.state.streaks[userID]; ok {
		cp := *streak
		return &cp, nil
	}
	streak := &models.StudyStreak{
		Id:     primitive.NewObjectID(),
		UserId: userID,
	}
	s.state.streaks[userID] = streak
	cp := *streak
	return &cp, nil
}

func (s *MemoryStreaks) Save(ctx context.Context, streak *models.StudyStreak) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	cp := *streak
	s.state.streaks[streak.UserId] = &cp
	return nil
}

// ---- Notifications ----

type MemoryNotifications struct {
	state *memState
}

func (s *MemoryNotifications) UnreadByKey(ctx context.Context, userID primitive.ObjectID, typ models.NotificationType, relatedID primitive.ObjectID) (*models.Notification, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for _, n := range s.state.notifications {
		if n.UserId == userID && n.Type == typ && n.RelatedId == relatedID && !n.IsRead {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryNotifications) Insert(ctx context.Context, n *models.Notification) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if n.Id.IsZero() {
		n.Id = primitive.NewObjectID()
	}
	cp := *n
	s.state.notifications = append(s.state.notifications, &cp)
	return nil
}

func (s *MemoryNotifications) InsertMany(ctx context.Context, ns []models.Notification) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for i := range ns {
		cp := ns[i]
		if cp.Id.IsZero() {
			cp.Id = primitive.NewObjectID()
		}
		s.state.notifications = append(s.state.notifications, &cp)
	}
	return nil
}

func (s *MemoryNotifications) Update(ctx context.Context, n *models.Notification) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for i, existing := range s.state.notifications {
		if existing.Id == n.Id {
			cp := *n
			s.state.notifications[i] = &cp
			return nil
		}
	}
	return nil
}

func (s *MemoryNotifications) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	kept := s.state.notifications[:0]
	var removed int64
	for _, n := range s.state.notifications {
		if n.IsRead && n.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	s.state.notifications = kept
	return removed, nil
}

// ---- Tasks ----

type MemoryTasks struct {
	state *memState
}

func (s *MemoryTasks) PendingDueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	var out []models.Task
	for _, t := range s.state.tasks {
		if t.Status == models.TaskStatusCompleted || t.DueDate == nil {
			continue
		}
		if !t.DueDate.Before(from) && !t.DueDate.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryTasks) PendingOverdue(ctx context.Context, now time.Time) ([]models.Task, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	var out []models.Task
	for _, t := range s.state.tasks {
		if t.Status == models.TaskStatusCompleted || t.DueDate == nil {
			continue
		}
		if t.DueDate.Before(now) {
			out = append(out, t)
		}
	}
	return out, nil
}
