package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoInterview struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	InterviewID       string             `bson:"interviewID"`
	TypeOfInterview   string             `bson:"typeOfInterview"`
	NumberOfQuestions string             `bson:"numberOfQuestions"`
	LevelOfQuestions  string             `bson:"levelOfQuestions"`
	Questions         []string           `bson:"questions"`
	IdOfHost          any                `bson:"idOfHost"`
	Hostname          string             `bson:"hostname"`
	IdOfParticipant   any                `bson:"idOfParticipant,omitempty"`
	Candidatename     string             `bson:"candidatename"`
	StartTime         *time.Time         `bson:"startTime,omitempty"`
	EndTime           *time.Time         `bson:"endTime,omitempty"`
	ArchivedAt        *time.Time         `bson:"archivedAt,omitempty"`
	SessionLogs       []SessionLog       `bson:"sessionLogs"`
	CodeSnapshot      string             `bson:"codeSnapshot"`
	FinalQuestions    []any              `bson:"finalQuestions"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

type mongoUser struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
}

func (d mongoInterview) toInterview() Interview {
	iv := Interview{
		Id:                d.ID.Hex(),
		InterviewID:       d.InterviewID,
		TypeOfInterview:   d.TypeOfInterview,
		NumberOfQuestions: d.NumberOfQuestions,
		LevelOfQuestions:  d.LevelOfQuestions,
		Questions:         d.Questions,
		IdOfHost:          idString(d.IdOfHost),
		Hostname:          d.Hostname,
		IdOfParticipant:   idString(d.IdOfParticipant),
		Candidatename:     d.Candidatename,
		StartTime:         d.StartTime,
		EndTime:           d.EndTime,
		ArchivedAt:        d.ArchivedAt,
		SessionLogs:       d.SessionLogs,
		CodeSnapshot:      d.CodeSnapshot,
		FinalQuestions:    d.FinalQuestions,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if iv.Questions == nil {
		iv.Questions = make([]string, 0)
	}
	if iv.SessionLogs == nil {
		iv.SessionLogs = make([]SessionLog, 0)
	}
	if iv.FinalQuestions == nil {
		iv.FinalQuestions = make([]any, 0)
	}
	return iv
}

// storedID keeps account ids written as ObjectIds by the user service in
// that form. Ids that are not hex encoded ObjectIds are stored as strings.
func storedID(id string) any {
	if id == "" {
		return nil
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return ""
	}
}

// ownerFilter matches interviews hosted or joined by userId in either
// stored form.
func ownerFilter(userId string) bson.M {
	forms := bson.A{userId}
	if oid, ok := storedID(userId).(primitive.ObjectID); ok {
		forms = append(forms, oid)
	}

	return bson.M{"$or": bson.A{
		bson.M{"idOfHost": bson.M{"$in": forms}},
		bson.M{"idOfParticipant": bson.M{"$in": forms}},
	}}
}

type MongoInterviewRepository struct {
	client     *mongo.Client
	interviews *mongo.Collection
	users      *mongo.Collection
}

func NewMongoInterviewRepository(ctx context.Context, uri, dbName string) (*MongoInterviewRepository, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	db := client.Database(dbName)
	r := &MongoInterviewRepository{
		client:     client,
		interviews: db.Collection("interviews"),
		users:      db.Collection("users"),
	}

	_, err = r.interviews.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "interviewID", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create interviewID index: %w", err)
	}

	return r, nil
}

func (r *MongoInterviewRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoInterviewRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *MongoInterviewRepository) GetAccountById(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrNotFound
	}

	var u mongoUser
	err = r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}

	return User{Id: u.ID.Hex(), Username: u.Username}, nil
}

func (r *MongoInterviewRepository) CreateInterview(ctx context.Context, params CreateInterviewParams) (Interview, bool, error) {
	now := time.Now().UTC()
	doc := mongoInterview{
		InterviewID:       params.InterviewID,
		TypeOfInterview:   params.TypeOfInterview,
		NumberOfQuestions: params.NumberOfQuestions,
		LevelOfQuestions:  params.LevelOfQuestions,
		Questions:         params.Questions,
		IdOfHost:          storedID(params.IdOfHost),
		Hostname:          params.Hostname,
		IdOfParticipant:   storedID(params.IdOfParticipant),
		Candidatename:     params.Candidatename,
		StartTime:         params.StartTime,
		SessionLogs:       make([]SessionLog, 0),
		FinalQuestions:    make([]any, 0),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if doc.Questions == nil {
		doc.Questions = make([]string, 0)
	}

	res, err := r.interviews.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		existing, err := r.GetInterview(ctx, params.InterviewID)
		return existing, false, err
	}
	if err != nil {
		return Interview{}, false, err
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}

	return doc.toInterview(), true, nil
}

func (r *MongoInterviewRepository) GetInterview(ctx context.Context, interviewID string) (Interview, error) {
	var doc mongoInterview
	err := r.interviews.FindOne(ctx, bson.M{"interviewID": interviewID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Interview{}, ErrNotFound
	}
	if err != nil {
		return Interview{}, err
	}

	return doc.toInterview(), nil
}

func (r *MongoInterviewRepository) ListInterviews(ctx context.Context, userId string) ([]Interview, error) {
	filter := ownerFilter(userId)
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cur, err := r.interviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoInterview
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	interviews := make([]Interview, 0, len(docs))
	for _, d := range docs {
		interviews = append(interviews, d.toInterview())
	}

	return interviews, nil
}

// literal keeps client values from being read as field paths inside an
// aggregation pipeline update.
func literal(v any) bson.M {
	return bson.M{"$literal": v}
}

func (r *MongoInterviewRepository) UpdateInterview(ctx context.Context, interviewID string, params UpdateInterviewParams) (Interview, error) {
	now := time.Now().UTC()
	set := bson.M{"updatedAt": literal(now)}
	if params.TypeOfInterview != nil {
		set["typeOfInterview"] = literal(*params.TypeOfInterview)
	}
	if params.NumberOfQuestions != nil {
		set["numberOfQuestions"] = literal(*params.NumberOfQuestions)
	}
	if params.LevelOfQuestions != nil {
		set["levelOfQuestions"] = literal(*params.LevelOfQuestions)
	}
	if params.StartTime != nil {
		set["startTime"] = literal(*params.StartTime)
	}
	if params.EndTime != nil {
		set["endTime"] = literal(*params.EndTime)
		set["archivedAt"] = bson.M{"$ifNull": bson.A{"$archivedAt", now}}
	}

	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	return r.findOneAndUpdate(ctx, bson.M{"interviewID": interviewID}, pipeline)
}

func (r *MongoInterviewRepository) AssignParticipant(ctx context.Context, params AssignParticipantParams) (Interview, error) {
	filter := bson.M{
		"interviewID":     params.InterviewID,
		"idOfParticipant": bson.M{"$in": bson.A{nil, ""}},
	}
	if params.RejectIfArchived {
		filter["archivedAt"] = nil
	}

	set := bson.M{
		"idOfParticipant": storedID(params.ParticipantId),
		"updatedAt":       time.Now().UTC(),
	}
	if params.Candidatename != "" {
		set["candidatename"] = params.Candidatename
	}

	iv, err := r.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
	if errors.Is(err, ErrNotFound) {
		existing, err := r.GetInterview(ctx, params.InterviewID)
		if err != nil {
			return Interview{}, err
		}
		return resolveAssignMiss(existing, params)
	}

	return iv, err
}

func (r *MongoInterviewRepository) AppendSessionLog(ctx context.Context, interviewID string, entry SessionLog) (Interview, error) {
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}

	update := bson.M{
		"$push": bson.M{"sessionLogs": entry},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, bson.M{"interviewID": interviewID}, update)
}

func (r *MongoInterviewRepository) UpdateCodeSnapshot(ctx context.Context, interviewID, code string) (Interview, error) {
	update := bson.M{"$set": bson.M{
		"codeSnapshot": code,
		"updatedAt":    time.Now().UTC(),
	}}
	return r.findOneAndUpdate(ctx, bson.M{"interviewID": interviewID}, update)
}

func (r *MongoInterviewRepository) SaveFinalQuestions(ctx context.Context, interviewID string, questions []any) (Interview, error) {
	if questions == nil {
		questions = []any{}
	}

	update := bson.M{"$set": bson.M{
		"finalQuestions": questions,
		"updatedAt":      time.Now().UTC(),
	}}
	return r.findOneAndUpdate(ctx, bson.M{"interviewID": interviewID}, update)
}

func (r *MongoInterviewRepository) findOneAndUpdate(ctx context.Context, filter, update any) (Interview, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoInterview
	err := r.interviews.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Interview{}, ErrNotFound
	}
	if err != nil {
		return Interview{}, err
	}

	return doc.toInterview(), nil
}
