package mongodb

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestObjectIDMapping(t *testing.T) {
	oid := primitive.NewObjectIDFromTimestamp(time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC))

	id := uuidFromObjectID(oid)
	back, ok := objectIDFromUUID(id)
	if !ok || back != oid {
		t.Fatalf("objectIDFromUUID(%s) = %s, %v; want %s", id, back.Hex(), ok, oid.Hex())
	}
	if uuidFromObjectID(oid) != id {
		t.Fatal("mapping is not stable")
	}

	if _, ok := objectIDFromUUID(uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")); ok {
		t.Fatal("a random UUID should not map back to an ObjectID")
	}
}

func TestDocID(t *testing.T) {
	oid := primitive.NewObjectID()
	plain := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")

	tests := []struct {
		name    string
		raw     any
		want    uuid.UUID
		wantErr bool
	}{
		{name: "uuid string", raw: plain.String(), want: plain},
		{name: "object id", raw: oid, want: uuidFromObjectID(oid)},
		{name: "malformed string", raw: "not-a-uuid", wantErr: true},
		{name: "number", raw: int32(7), wantErr: true},
		{name: "missing", raw: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := docID(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("docID(%v) = %s, want an error", tt.raw, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("docID(%v) = %s, %v; want %s", tt.raw, got, err, tt.want)
			}
		})
	}
}

func TestIDFilter(t *testing.T) {
	plain := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	if got, want := idFilter(plain), (bson.M{"_id": plain.String()}); !reflect.DeepEqual(got, want) {
		t.Errorf("idFilter(plain) = %v, want %v", got, want)
	}

	oid := primitive.NewObjectID()
	derived := uuidFromObjectID(oid)
	want := bson.M{"_id": bson.M{"$in": bson.A{derived.String(), oid}}}
	if got := idFilter(derived); !reflect.DeepEqual(got, want) {
		t.Errorf("idFilter(derived) = %v, want %v", got, want)
	}
}

func legacyProject(oid primitive.ObjectID) bson.D {
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "title", Value: "Old site"},
		{Key: "description", Value: "from before"},
		{Key: "tags", Value: bson.A{"go"}},
		{Key: "image", Value: "https://img.example.com/old.png"},
		{Key: "github", Value: "https://github.com/example/old"},
		{Key: "live", Value: "https://old.example.com"},
	}
}

func TestLegacyProjectDecodes(t *testing.T) {
	created := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	oid := primitive.NewObjectIDFromTimestamp(created)

	raw, err := bson.Marshal(legacyProject(oid))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc projectDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p, err := doc.toModel()
	if err != nil {
		t.Fatalf("toModel: %v", err)
	}
	if p.ID != uuidFromObjectID(oid) {
		t.Errorf("ID = %s, want the id derived from %s", p.ID, oid.Hex())
	}
	if p.ImageURL != "https://img.example.com/old.png" || p.GithubURL != "https://github.com/example/old" || p.LiveDemoURL != "https://old.example.com" {
		t.Errorf("legacy links not mapped: %+v", p)
	}
	if !p.CreatedAt.Equal(created) || !p.UpdatedAt.Equal(created) {
		t.Errorf("timestamps = %s / %s, want %s from the ObjectID", p.CreatedAt, p.UpdatedAt, created)
	}
	if len(p.Images) != 0 || p.Images == nil {
		t.Errorf("Images = %#v, want empty", p.Images)
	}
}

func TestCurrentFieldsWinOverLegacy(t *testing.T) {
	doc := projectDoc{
		ID:       "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		ImageURL: "https://img.example.com/new.png",
		Image:    "https://img.example.com/old.png",
	}
	p, err := doc.toModel()
	if err != nil {
		t.Fatalf("toModel: %v", err)
	}
	if p.ImageURL != "https://img.example.com/new.png" {
		t.Errorf("ImageURL = %q", p.ImageURL)
	}
}

func TestMigratedProjectDoc(t *testing.T) {
	oid := primitive.NewObjectID()
	raw, err := bson.Marshal(legacyProject(oid))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc projectDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	next, err := migratedProjectDoc(doc)
	if err != nil {
		t.Fatalf("migratedProjectDoc: %v", err)
	}
	if next.ID != uuidFromObjectID(oid).String() {
		t.Errorf("ID = %v, want the derived UUID string", next.ID)
	}

	out, err := bson.Marshal(next)
	if err != nil {
		t.Fatalf("marshal migrated: %v", err)
	}
	for _, key := range []string{"image", "github", "live"} {
		if _, err := bson.Raw(out).LookupErr(key); err == nil {
			t.Errorf("migrated document still has %q", key)
		}
	}
	if v := bson.Raw(out).Lookup("liveDemoUrl").StringValue(); v != "https://old.example.com" {
		t.Errorf("liveDemoUrl = %q", v)
	}

	if _, err := migratedProjectDoc(projectDoc{ID: int32(3)}); err == nil {
		t.Error("a document with an unusable id should not migrate")
	}
}

func TestDecodeProjectsSkipsUnreadableDocuments(t *testing.T) {
	good := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	oid := primitive.NewObjectID()

	cursor, err := mongo.NewCursorFromDocuments([]any{
		bson.D{{Key: "_id", Value: good.String()}, {Key: "title", Value: "Current"}},
		bson.D{{Key: "_id", Value: "not-a-uuid"}, {Key: "title", Value: "Bad id"}},
		bson.D{{Key: "_id", Value: "b3f6f7e2-0a5c-4d8e-9f1a-2c3d4e5f6a7b"}, {Key: "title", Value: int32(5)}},
		legacyProject(oid),
	}, nil, nil)
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}

	projects, err := decodeProjects(context.Background(), cursor)
	if err != nil {
		t.Fatalf("decodeProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2: %+v", len(projects), projects)
	}
	if projects[0].ID != good || projects[1].ID != uuidFromObjectID(oid) {
		t.Errorf("unexpected ids %s, %s", projects[0].ID, projects[1].ID)
	}
}

func TestSettingsVersionFilter(t *testing.T) {
	tests := []struct {
		name     string
		expected int64
		want     bson.M
	}{
		{
			name:     "first version also matches unversioned documents",
			expected: 1,
			want: bson.M{"$or": bson.A{
				bson.M{"version": int64(1)},
				bson.M{"version": bson.M{"$exists": false}},
			}},
		},
		{name: "later versions match exactly", expected: 4, want: bson.M{"version": int64(4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := settingsVersionFilter(tt.expected); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("settingsVersionFilter(%d) = %v, want %v", tt.expected, got, tt.want)
			}
		})
	}
}
