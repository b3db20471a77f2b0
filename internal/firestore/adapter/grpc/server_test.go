package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"firestore-emulator/internal/config"
	"firestore-emulator/internal/firestore/domain/fsvalue"
	"firestore-emulator/internal/firestore/store"
	"firestore-emulator/internal/firestore/usecase"
	"firestore-emulator/internal/shared/logger"
)

func newTestServer() *Server {
	cfg := &config.Config{}
	return NewServer(usecase.NewService(store.New(), logger.New()), logger.New(), cfg)
}

func TestGetDocument_NotFoundMapsToGRPCStatus(t *testing.T) {
	s := newTestServer()
	_, err := s.GetDocument(context.Background(), &firestorepb.GetDocumentRequest{
		Name: "projects/demo/databases/(default)/documents/users/ghost",
	})
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
}

func TestCreateThenGetDocument(t *testing.T) {
	s := newTestServer()
	created, err := s.CreateDocument(context.Background(), &firestorepb.CreateDocumentRequest{
		Parent:       "projects/demo/databases/(default)/documents",
		CollectionId: "users",
		DocumentId:   "u1",
		Document:     &firestorepb.Document{Fields: map[string]*firestorepb.Value{"name": fsvalue.String("ada")}},
	})
	require.NoError(t, err)

	got, err := s.GetDocument(context.Background(), &firestorepb.GetDocumentRequest{Name: created.Name})
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Fields["name"].GetStringValue())
}

func TestDeleteDocument_MissingMapsToNotFound(t *testing.T) {
	s := newTestServer()
	_, err := s.DeleteDocument(context.Background(), &firestorepb.DeleteDocumentRequest{
		Name: "projects/demo/databases/(default)/documents/users/ghost",
	})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.NotFound, st.Code())
}

type fakeRunQueryStream struct {
	firestorepb.Firestore_RunQueryServer
	sent []*firestorepb.RunQueryResponse
}

func (f *fakeRunQueryStream) Send(resp *firestorepb.RunQueryResponse) error {
	f.sent = append(f.sent, resp)
	return nil
}

func (f *fakeRunQueryStream) Context() context.Context { return context.Background() }

func TestRunQuery_EmptyResultSendsSingleReadTimeResponse(t *testing.T) {
	s := newTestServer()
	stream := &fakeRunQueryStream{}
	err := s.RunQuery(&firestorepb.RunQueryRequest{
		Parent: "projects/demo/databases/(default)/documents",
		QueryType: &firestorepb.RunQueryRequest_StructuredQuery{
			StructuredQuery: &firestorepb.StructuredQuery{
				From: []*firestorepb.StructuredQuery_CollectionSelector{{CollectionId: "users"}},
			},
		},
	}, stream)
	require.NoError(t, err)
	require.Len(t, stream.sent, 1)
	assert.Nil(t, stream.sent[0].Document)
}

func TestListen_ReturnsUnimplemented(t *testing.T) {
	s := newTestServer()
	err := s.Listen(nil)
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Unimplemented, st.Code())
}
