package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"attendance-tracker/internal/model"
)

// AttendanceFilter narrows an attendance query. Zero fields are ignored;
// set fields are combined with AND.
type AttendanceFilter struct {
	From    *time.Time
	To      *time.Time
	UserID  *bson.ObjectID
	UserIDs []bson.ObjectID // nil means no constraint, empty matches nothing
}

type AttendanceStore struct {
	attendance *mongo.Collection
}

func NewAttendanceStore(ctx context.Context, db *MongoDB) (*AttendanceStore, error) {
	attendance := db.Collection("attendance")

	if _, err := attendance.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "date", Value: -1}}},
	}); err != nil {
		return nil, fmt.Errorf("create attendance indexes: %w", err)
	}

	return &AttendanceStore{attendance: attendance}, nil
}

// GetByUserAndDate returns the user's record for the given midnight-normalized
// date, or nil if not found.
func (s *AttendanceStore) GetByUserAndDate(ctx context.Context, userID bson.ObjectID, date time.Time) (*model.AttendanceRecord, error) {
	return s.findOne(ctx, bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": date, "$lt": date.AddDate(0, 0, 1)},
	})
}

// GetByID returns the record, or nil if not found.
func (s *AttendanceStore) GetByID(ctx context.Context, id bson.ObjectID) (*model.AttendanceRecord, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *AttendanceStore) findOne(ctx context.Context, filter bson.M) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := s.attendance.FindOne(ctx, filter).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &record, nil
}

// CreateRecord inserts a new attendance record and sets the ID on the struct.
// A second record for the same user and date yields ErrDuplicate.
func (s *AttendanceStore) CreateRecord(ctx context.Context, record *model.AttendanceRecord) error {
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	res, err := s.attendance.InsertOne(ctx, record)
	if err != nil {
		return mapWriteError(err)
	}
	record.ID = res.InsertedID.(bson.ObjectID)
	return nil
}

// CompleteCheckOut stores the check-out of an open record. It reports false
// when the record was already checked out by a concurrent request.
func (s *AttendanceStore) CompleteCheckOut(ctx context.Context, record *model.AttendanceRecord) (bool, error) {
	record.UpdatedAt = time.Now()
	res, err := s.attendance.UpdateOne(ctx,
		bson.M{"_id": record.ID, "check_out": nil},
		bson.M{"$set": bson.M{
			"check_out":  record.CheckOut,
			"work_hours": record.WorkHours,
			"updated_at": record.UpdatedAt,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("update attendance: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// UpdateRecord replaces an existing attendance record. It reports false when
// no record with that ID exists.
func (s *AttendanceStore) UpdateRecord(ctx context.Context, record *model.AttendanceRecord) (bool, error) {
	record.UpdatedAt = time.Now()
	res, err := s.attendance.ReplaceOne(ctx, bson.M{"_id": record.ID}, record)
	if err != nil {
		return false, mapWriteError(err)
	}
	return res.MatchedCount == 1, nil
}

// DeleteRecord removes a record. It reports false when nothing was deleted.
func (s *AttendanceStore) DeleteRecord(ctx context.Context, id bson.ObjectID) (bool, error) {
	res, err := s.attendance.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete attendance: %w", err)
	}
	return res.DeletedCount == 1, nil
}

// GetByUser returns all records of a user, newest date first.
func (s *AttendanceStore) GetByUser(ctx context.Context, userID bson.ObjectID) ([]*model.AttendanceRecord, error) {
	return s.Find(ctx, AttendanceFilter{UserID: &userID})
}

// GetByDate returns all records for the given midnight-normalized date.
func (s *AttendanceStore) GetByDate(ctx context.Context, date time.Time) ([]*model.AttendanceRecord, error) {
	end := date.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return s.Find(ctx, AttendanceFilter{From: &date, To: &end})
}

// Find returns the records matching f, newest date first.
func (s *AttendanceStore) Find(ctx context.Context, f AttendanceFilter) ([]*model.AttendanceRecord, error) {
	cursor, err := s.attendance.Find(ctx, filterDoc(f), options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	var results []*model.AttendanceRecord
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode attendance: %w", err)
	}
	return results, nil
}

func filterDoc(f AttendanceFilter) bson.M {
	filter := bson.M{}
	date := bson.M{}
	if f.From != nil {
		date["$gte"] = *f.From
	}
	if f.To != nil {
		date["$lte"] = *f.To
	}
	if len(date) > 0 {
		filter["date"] = date
	}
	switch {
	case f.UserID != nil:
		filter["user_id"] = *f.UserID
	case f.UserIDs != nil:
		filter["user_id"] = bson.M{"$in": f.UserIDs}
	}
	return filter
}
