package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"

	"firestore-emulator/internal/firestore/domain/fsvalue"
	"firestore-emulator/internal/firestore/store"
	"firestore-emulator/internal/shared/eventbus"
	"firestore-emulator/internal/shared/logger"
)

func newTestService() *Service {
	return NewService(store.New(), logger.New())
}

func TestCreateAndGetDocument(t *testing.T) {
	s := newTestService()
	doc, err := s.CreateDocument(
		"projects/demo/databases/(default)/documents",
		"users",
		"",
		map[string]*firestorepb.Value{"name": fsvalue.String("ada")},
	)
	require.NoError(t, err)
	assert.Contains(t, doc.Name, "projects/demo/databases/(default)/documents/users/")
	assert.Equal(t, "ada", doc.Fields["name"].GetStringValue())

	got, err := s.GetDocument(doc.Name)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, got.Name)
}

func TestCreateDocument_PublishesDocumentCreatedEvent(t *testing.T) {
	s := newTestService()

	var mu sync.Mutex
	var seen string
	s.Bus().Subscribe(eventbus.EventTypeDocumentCreated, func(ctx context.Context, event eventbus.Event) error {
		mu.Lock()
		seen = event.Data().(string)
		mu.Unlock()
		return nil
	})

	doc, err := s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1", map[string]*firestorepb.Value{
		"name": fsvalue.String("ada"),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen == doc.Name
	}, time.Second, time.Millisecond)
}

func TestCreateDocument_ExplicitIDAndNestedParent(t *testing.T) {
	s := newTestService()
	doc, err := s.CreateDocument(
		"projects/demo/databases/(default)/documents/users/u1",
		"posts",
		"p1",
		map[string]*firestorepb.Value{"title": fsvalue.String("hi")},
	)
	require.NoError(t, err)
	assert.Equal(t, "projects/demo/databases/(default)/documents/users/u1/posts/p1", doc.Name)
}

func TestListDocuments_UnderDocumentParentFindsNestedSubcollection(t *testing.T) {
	s := newTestService()
	_, err := s.CreateDocument("projects/demo/databases/(default)/documents/users/u1", "posts", "p1", nil)
	require.NoError(t, err)

	docs, err := s.ListDocuments("projects/demo/databases/(default)/documents/users/u1", "posts")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "projects/demo/databases/(default)/documents/users/u1/posts/p1", docs[0].Name)
}

func TestListCollectionIds_UnderDocumentParent(t *testing.T) {
	s := newTestService()
	s.CreateDocument("projects/demo/databases/(default)/documents/users/u1", "posts", "p1", nil)
	s.CreateDocument("projects/demo/databases/(default)/documents/users/u1", "comments", "c1", nil)

	ids, _, err := s.ListCollectionIds("projects/demo/databases/(default)/documents/users/u1", 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"comments", "posts"}, ids)
}

func TestCreateDocument_EchoesClientsDatabaseIDSpelling(t *testing.T) {
	s := newTestService()
	doc, err := s.CreateDocument("projects/demo/databases/default/documents", "users", "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, "projects/demo/databases/default/documents/users/u1", doc.Name)
}

func TestGetDocument_NotFound(t *testing.T) {
	s := newTestService()
	_, err := s.GetDocument("projects/demo/databases/(default)/documents/users/missing")
	assert.Error(t, err)
}

func TestUpdateDocument_PreservesCreateTime(t *testing.T) {
	s := newTestService()
	created, err := s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1",
		map[string]*firestorepb.Value{"name": fsvalue.String("ada")})
	require.NoError(t, err)

	updated, err := s.UpdateDocument(created.Name, map[string]*firestorepb.Value{"name": fsvalue.String("grace")})
	require.NoError(t, err)
	assert.Equal(t, created.CreateTime.AsTime(), updated.CreateTime.AsTime())
	assert.Equal(t, "grace", updated.Fields["name"].GetStringValue())
}

func TestDeleteDocument(t *testing.T) {
	s := newTestService()
	created, _ := s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1", nil)
	require.NoError(t, s.DeleteDocument(created.Name))
	assert.Error(t, s.DeleteDocument(created.Name))
}

func TestListDocuments(t *testing.T) {
	s := newTestService()
	s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1", nil)
	s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u2", nil)

	docs, err := s.ListDocuments("projects/demo/databases/(default)/documents", "users")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestListDocuments_RejectsEmptyCollectionID(t *testing.T) {
	s := newTestService()
	_, err := s.ListDocuments("projects/demo/databases/(default)/documents", "")
	assert.Error(t, err)
}

func TestBatchGetDocuments_MixesFoundAndMissing(t *testing.T) {
	s := newTestService()
	created, _ := s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1", nil)

	results := s.BatchGetDocuments([]string{created.Name, "projects/demo/databases/(default)/documents/users/ghost", "not-a-path"})
	require.Len(t, results, 3)
	assert.NotNil(t, results[0].Found)
	assert.Equal(t, "projects/demo/databases/(default)/documents/users/ghost", results[1].Missing)
	assert.Equal(t, "not-a-path", results[2].Missing)
}

func TestListCollectionIds_Pagination(t *testing.T) {
	s := newTestService()
	for _, name := range []string{"a", "b", "c"} {
		s.CreateDocument("projects/demo/databases/(default)/documents", name, "doc1", nil)
	}
	ids, next, err := s.ListCollectionIds("projects/demo/databases/(default)/documents", 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, "2", next)

	ids2, next2, err := s.ListCollectionIds("projects/demo/databases/(default)/documents", 2, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids2)
	assert.Empty(t, next2)
}

func TestCommit_ShallowMergeWithoutMask(t *testing.T) {
	s := newTestService()
	created, _ := s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1",
		map[string]*firestorepb.Value{"a": fsvalue.Int(1), "b": fsvalue.Int(2)})

	_, err := s.Commit("(default)", []*firestorepb.Write{
		{
			Operation: &firestorepb.Write_Update{
				Update: &firestorepb.Document{
					Name:   created.Name,
					Fields: map[string]*firestorepb.Value{"b": fsvalue.Int(20)},
				},
			},
		},
	})
	require.NoError(t, err)

	got, _ := s.GetDocument(created.Name)
	assert.Equal(t, int64(1), got.Fields["a"].GetIntegerValue())
	assert.Equal(t, int64(20), got.Fields["b"].GetIntegerValue())
}

func TestCommit_MaskClearsUnspecifiedKeys(t *testing.T) {
	s := newTestService()
	created, _ := s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1",
		map[string]*firestorepb.Value{"a": fsvalue.Int(1), "b": fsvalue.Int(2)})

	_, err := s.Commit("(default)", []*firestorepb.Write{
		{
			Operation: &firestorepb.Write_Update{
				Update: &firestorepb.Document{
					Name:   created.Name,
					Fields: map[string]*firestorepb.Value{"b": fsvalue.Int(20)},
				},
			},
			UpdateMask: &firestorepb.DocumentMask{FieldPaths: []string{"a", "b"}},
		},
	})
	require.NoError(t, err)

	got, _ := s.GetDocument(created.Name)
	_, hasA := got.Fields["a"]
	assert.False(t, hasA)
	assert.Equal(t, int64(20), got.Fields["b"].GetIntegerValue())
}

func TestCommit_DeleteIsNoOpOnMissingDocument(t *testing.T) {
	s := newTestService()
	results, err := s.Commit("(default)", []*firestorepb.Write{
		{Operation: &firestorepb.Write_Delete{Delete: "projects/demo/databases/(default)/documents/users/ghost"}},
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestCommit_InvalidPathFailsBeforeApplyingAny(t *testing.T) {
	s := newTestService()
	created, _ := s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1",
		map[string]*firestorepb.Value{"a": fsvalue.Int(1)})

	_, err := s.Commit("(default)", []*firestorepb.Write{
		{
			Operation: &firestorepb.Write_Update{
				Update: &firestorepb.Document{Name: created.Name, Fields: map[string]*firestorepb.Value{"a": fsvalue.Int(2)}},
			},
		},
		{
			Operation: &firestorepb.Write_Delete{Delete: "not-a-valid-path"},
		},
	})
	assert.Error(t, err)

	got, _ := s.GetDocument(created.Name)
	assert.Equal(t, int64(1), got.Fields["a"].GetIntegerValue())
}

func TestRunQuery_AppliesFilterAndOrder(t *testing.T) {
	s := newTestService()
	s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1", map[string]*firestorepb.Value{"age": fsvalue.Int(30)})
	s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u2", map[string]*firestorepb.Value{"age": fsvalue.Int(20)})

	docs, err := s.RunQuery("projects/demo/databases/(default)/documents", &firestorepb.StructuredQuery{
		From:    []*firestorepb.StructuredQuery_CollectionSelector{{CollectionId: "users"}},
		OrderBy: []*firestorepb.StructuredQuery_Order{{Field: &firestorepb.StructuredQuery_FieldReference{FieldPath: "age"}}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(20), docs[0].Fields["age"].GetIntegerValue())
}

func TestRunAggregationQuery_Count(t *testing.T) {
	s := newTestService()
	s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u1", nil)
	s.CreateDocument("projects/demo/databases/(default)/documents", "users", "u2", nil)

	result, err := s.RunAggregationQuery("projects/demo/databases/(default)/documents", &firestorepb.StructuredAggregationQuery{
		StructuredQuery: &firestorepb.StructuredQuery{From: []*firestorepb.StructuredQuery_CollectionSelector{{CollectionId: "users"}}},
		Aggregations: []*firestorepb.StructuredAggregationQuery_Aggregation{
			{Alias: "total", Operator: &firestorepb.StructuredAggregationQuery_Aggregation_Count_{Count: &firestorepb.StructuredAggregationQuery_Aggregation_Count{}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result["total"].GetIntegerValue())
}
