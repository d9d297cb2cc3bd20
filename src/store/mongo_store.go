package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/theleywin/Backend-Study-Hub/src/models"
)

// Mongo bundles the per-collection stores over one *mongo.Database.
type Mongo struct {
	Connections   *MongoConnections
	Users         *MongoUsers
	Profiles      *MongoProfiles
	StudyLogs     *MongoStudyLogs
	Streaks       *MongoStreaks
	Notifications *MongoNotifications
	Tasks         *MongoTasks
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		Connections:   &MongoConnections{coll: db.Collection("connections")},
		Users:         &MongoUsers{coll: db.Collection("users")},
		Profiles:      &MongoProfiles{teachers: db.Collection("teacherprofiles"), students: db.Collection("studentprofiles")},
		StudyLogs:     &MongoStudyLogs{coll: db.Collection("studylogs")},
		Streaks:       &MongoStreaks{coll: db.Collection("studystreaks")},
		Notifications: &MongoNotifications{coll: db.Collection("notifications")},
		Tasks:         &MongoTasks{coll: db.Collection("tasks")},
	}
}

// ---- Connections ----

type MongoConnections struct {
	coll *mongo.Collection
}

func (s *MongoConnections) Insert(ctx context.Context, conn *models.Connection) error {
	_, err := s.coll.InsertOne(ctx, conn)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoConnections) ByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error) {
	var conn models.Connection
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&conn)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (s *MongoConnections) ByPair(ctx context.Context, teacher, student primitive.ObjectID) (*models.Connection, error) {
	var conn models.Connection
	err := s.coll.FindOne(ctx, bson.M{"teacher": teacher, "student": student}).Decode(&conn)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (s *MongoConnections) ListForUser(ctx context.Context, role models.UserRole, userID primitive.ObjectID, status models.ConnectionStatus) ([]models.Connection, error) {
	side := "student"
	if role == models.RoleTeacher {
		side = "teacher"
	}
	filter := bson.M{side: userID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conns []models.Connection
	if err := cursor.All(ctx, &conns); err != nil {
		return nil, err
	}
	return conns, nil
}

func (s *MongoConnections) SetStatusIfPending(ctx context.Context, id primitive.ObjectID, status models.ConnectionStatus, at time.Time) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ConnectionStatusPending},
		bson.M{"$set": bson.M{"status": status, "updatedAt": at}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoConnections) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ---- Users ----

type MongoUsers struct {
	coll *mongo.Collection
}

func (s *MongoUsers) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ---- Profiles ----

type MongoProfiles struct {
	teachers *mongo.Collection
	students *mongo.Collection
}

func (s *MongoProfiles) TeacherByUserID(ctx context.Context, userID primitive.ObjectID) (*models.TeacherProfile, error) {
	var profile models.TeacherProfile
	err := s.teachers.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *MongoProfiles) TeacherByCode(ctx context.Context, code string) (*models.TeacherProfile, error) {
	var profile models.TeacherProfile
	err := s.teachers.FindOne(ctx, bson.M{"code": code}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *MongoProfiles) LinkPair(ctx context.Context, teacherUserID, studentUserID primitive.ObjectID) error {
	_, err := s.teachers.UpdateOne(ctx,
		bson.M{"userId": teacherUserID},
		bson.M{"$addToSet": bson.M{"connectedStudents": studentUserID}},
	)
	if err != nil {
		return err
	}
	_, err = s.students.UpdateOne(ctx,
		bson.M{"userId": studentUserID},
		bson.M{"$addToSet": bson.M{"connectedTeachers": teacherUserID}},
	)
	return err
}

func (s *MongoProfiles) UnlinkPair(ctx context.Context, teacherUserID, studentUserID primitive.ObjectID) error {
	_, err := s.teachers.UpdateOne(ctx,
		bson.M{"userId": teacherUserID},
		bson.M{"$pull": bson.M{"connectedStudents": studentUserID}},
	)
	if err != nil {
		return err
	}
	_, err = s.students.UpdateOne(ctx,
		bson.M{"userId": studentUserID},
		bson.M{"$pull": bson.M{"connectedTeachers": teacherUserID}},
	)
	return err
}

// ---- StudyLogs ----

type MongoStudyLogs struct {
	coll *mongo.Collection
}

func (s *MongoStudyLogs) HasLogOnDay(ctx context.Context, userID primitive.ObjectID, day time.Time) (bool, error) {
	next := day.Add(24 * time.Hour)
	err := s.coll.FindOne(ctx, bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": day, "$lt": next},
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MongoStudyLogs) Totals(ctx context.Context, userID primitive.ObjectID) (int, int, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var logs []models.StudyLog
	if err := cursor.All(ctx, &logs); err != nil {
		return 0, 0, err
	}

	minutes := 0
	for _, log := range logs {
		minutes += log.Duration
	}
	return minutes, len(logs), nil
}

func (s *MongoStudyLogs) InRange(ctx context.Context, userID primitive.ObjectID, start, end time.Time) ([]models.StudyLog, error) {
	opts := options.Find().SetSort(bson.M{"date": 1})
	cursor, err := s.coll.Find(ctx, bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": start, "$lte": end},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []models.StudyLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ---- Streaks ----

type MongoStreaks struct {
	coll *mongo.Collection
}

func (s *MongoStreaks) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.StudyStreak, error) {
	var streak models.StudyStreak
	err := s.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&streak)
	if err == nil {
		return &streak, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	streak = models.StudyStreak{
		Id:        primitive.NewObjectID(),
		UserId:    userID,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, &streak); err != nil {
		// a racing request may have created it first; the unique index on
		// userId turns that into a duplicate, so re-read
		if mongo.IsDuplicateKeyError(err) {
			if err := s.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&streak); err != nil {
				return nil, err
			}
			return &streak, nil
		}
		return nil, err
	}
	return &streak, nil
}

func (s *MongoStreaks) Save(ctx context.Context, streak *models.StudyStreak) error {
	streak.UpdatedAt = time.Now().UTC()
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": streak.Id}, streak)
	return err
}

// ---- Notifications ----

type MongoNotifications struct {
	coll *mongo.Collection
}

func (s *MongoNotifications) UnreadByKey(ctx context.Context, userID primitive.ObjectID, typ models.NotificationType, relatedID primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := s.coll.FindOne(ctx, bson.M{
		"userId":    userID,
		"type":      typ,
		"relatedId": relatedID,
		"isRead":    false,
	}).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *MongoNotifications) Insert(ctx context.Context, n *models.Notification) error {
	_, err := s.coll.InsertOne(ctx, n)
	return err
}

func (s *MongoNotifications) InsertMany(ctx context.Context, ns []models.Notification) error {
	docs := make([]interface{}, len(ns))
	for i := range ns {
		docs[i] = ns[i]
	}
	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

func (s *MongoNotifications) Update(ctx context.Context, n *models.Notification) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": n.Id}, n)
	return err
}

func (s *MongoNotifications) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{
		"isRead":    true,
		"createdAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ---- Tasks ----

type MongoTasks struct {
	coll *mongo.Collection
}

func (s *MongoTasks) PendingDueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	return s.find(ctx, bson.M{
		"status":  bson.M{"$ne": models.TaskStatusCompleted},
		"dueDate": bson.M{"$gte": from, "$lte": to},
	})
}

func (s *MongoTasks) PendingOverdue(ctx context.Context, now time.Time) ([]models.Task, error) {
	return s.find(ctx, bson.M{
		"status":  bson.M{"$ne": models.TaskStatusCompleted},
		"dueDate": bson.M{"$lt": now},
	})
}

func (s *MongoTasks) find(ctx context.Context, filter bson.M) ([]models.Task, error) {
	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
