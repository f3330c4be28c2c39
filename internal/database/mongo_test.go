package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStoredID(t *testing.T) {
	oid := primitive.NewObjectID()

	assert.Equal(t, oid, storedID(oid.Hex()), "expected hex ids to be stored as ObjectIds")
	assert.Equal(t, "host-1", storedID("host-1"))
	assert.Nil(t, storedID(""), "expected empty id to be omitted")

	assert.Equal(t, oid.Hex(), idString(oid))
	assert.Equal(t, "host-1", idString("host-1"))
	assert.Empty(t, idString(nil))
}

func TestMongoInterviewToInterview(t *testing.T) {
	host := primitive.NewObjectID()

	iv := mongoInterview{
		ID:          primitive.NewObjectID(),
		InterviewID: "abc-1",
		IdOfHost:    host,
	}.toInterview()

	assert.Equal(t, host.Hex(), iv.IdOfHost)
	assert.Empty(t, iv.IdOfParticipant)
	assert.NotNil(t, iv.SessionLogs)
	assert.NotNil(t, iv.FinalQuestions)
}

func TestOwnerFilter(t *testing.T) {
	oid := primitive.NewObjectID()

	forms := func(f bson.M) bson.A {
		or := f["$or"].(bson.A)
		return or[0].(bson.M)["idOfHost"].(bson.M)["$in"].(bson.A)
	}

	assert.Equal(t, bson.A{oid.Hex(), oid}, forms(ownerFilter(oid.Hex())), "expected both stored forms to match")
	assert.Equal(t, bson.A{"host-1"}, forms(ownerFilter("host-1")))
}
