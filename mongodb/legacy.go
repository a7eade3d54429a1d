package mongodb

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Documents written by earlier deployments carry ObjectID keys. They map onto a fixed
// UUID namespace so the same document always answers to the same id, before and after
// MigrateLegacy rewrites it.
var objectIDPrefix = [4]byte{0x6f, 0x69, 0x64, 0x00}

func uuidFromObjectID(oid primitive.ObjectID) uuid.UUID {
	var id uuid.UUID
	copy(id[:4], objectIDPrefix[:])
	copy(id[4:], oid[:])
	return id
}

func objectIDFromUUID(id uuid.UUID) (primitive.ObjectID, bool) {
	if !bytes.Equal(id[:4], objectIDPrefix[:]) {
		return primitive.NilObjectID, false
	}
	var oid primitive.ObjectID
	copy(oid[:], id[4:])
	return oid, true
}

// docID reads an _id that is either a UUID string or a legacy ObjectID.
func docID(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("malformed id %q: %w", v, err)
		}
		return id, nil
	case primitive.ObjectID:
		return uuidFromObjectID(v), nil
	default:
		return uuid.Nil, fmt.Errorf("unsupported id type %T", raw)
	}
}

// idFilter matches a document under its UUID string and, for ids derived from an
// ObjectID, under the original ObjectID as well.
func idFilter(id uuid.UUID) bson.M {
	if oid, ok := objectIDFromUUID(id); ok {
		return bson.M{"_id": bson.M{"$in": bson.A{id.String(), oid}}}
	}
	return bson.M{"_id": id.String()}
}

// legacyProjectFilter selects projects still in the old shape.
func legacyProjectFilter() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"_id": bson.M{"$type": "objectId"}},
		bson.M{"image": bson.M{"$exists": true}},
		bson.M{"github": bson.M{"$exists": true}},
		bson.M{"live": bson.M{"$exists": true}},
	}}
}
