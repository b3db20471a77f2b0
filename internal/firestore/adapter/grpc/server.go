// Package grpc exposes the usecase.Service over the real Firestore v1 gRPC
// wire protocol (google.golang.org/genproto/googleapis/firestore/v1 +
// google.golang.org/grpc), per spec.md §4.5/§4.6: one handler per RPC, each
// wrapped in the same outer guard that converts domain errors to status.
package grpc

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"

	"firestore-emulator/internal/config"
	"firestore-emulator/internal/firestore/usecase"
	"firestore-emulator/internal/shared/apperrors"
	"firestore-emulator/internal/shared/logger"
)

// Server implements firestorepb.FirestoreServer. Embedding the generated
// Unimplemented type keeps the server forward-compatible with methods
// (like PartitionQuery) this emulator never claimed to support.
type Server struct {
	firestorepb.UnimplementedFirestoreServer

	svc *usecase.Service
	log logger.Logger
	cfg *config.Config
}

func NewServer(svc *usecase.Service, log logger.Logger, cfg *config.Config) *Server {
	return &Server{svc: svc, log: log.WithComponent("grpc"), cfg: cfg}
}

func (s *Server) GetDocument(ctx context.Context, req *firestorepb.GetDocumentRequest) (*firestorepb.Document, error) {
	doc, err := s.svc.GetDocument(req.GetName())
	if err != nil {
		return nil, apperrors.ToStatus("GetDocument", err)
	}
	return doc, nil
}

func (s *Server) ListDocuments(ctx context.Context, req *firestorepb.ListDocumentsRequest) (*firestorepb.ListDocumentsResponse, error) {
	docs, err := s.svc.ListDocuments(req.GetParent(), req.GetCollectionId())
	if err != nil {
		return nil, apperrors.ToStatus("ListDocuments", err)
	}
	return &firestorepb.ListDocumentsResponse{Documents: docs}, nil
}

func (s *Server) CreateDocument(ctx context.Context, req *firestorepb.CreateDocumentRequest) (*firestorepb.Document, error) {
	doc, err := s.svc.CreateDocument(req.GetParent(), req.GetCollectionId(), req.GetDocumentId(), req.GetDocument().GetFields())
	if err != nil {
		return nil, apperrors.ToStatus("CreateDocument", err)
	}
	return doc, nil
}

func (s *Server) UpdateDocument(ctx context.Context, req *firestorepb.UpdateDocumentRequest) (*firestorepb.Document, error) {
	doc, err := s.svc.UpdateDocument(req.GetDocument().GetName(), req.GetDocument().GetFields())
	if err != nil {
		return nil, apperrors.ToStatus("UpdateDocument", err)
	}
	return doc, nil
}

func (s *Server) DeleteDocument(ctx context.Context, req *firestorepb.DeleteDocumentRequest) (*emptypb.Empty, error) {
	if err := s.svc.DeleteDocument(req.GetName()); err != nil {
		return nil, apperrors.ToStatus("DeleteDocument", err)
	}
	return &emptypb.Empty{}, nil
}

// RunQuery streams one response per matching document, or a single
// readTime-only response when nothing matches (spec.md §4.5).
func (s *Server) RunQuery(req *firestorepb.RunQueryRequest, stream firestorepb.Firestore_RunQueryServer) error {
	readTime := time.Now().UTC()
	docs, err := s.svc.RunQuery(req.GetParent(), req.GetStructuredQuery())
	if err != nil {
		return apperrors.ToStatus("RunQuery", err)
	}
	if len(docs) == 0 {
		return stream.Send(&firestorepb.RunQueryResponse{ReadTime: timestamppb.New(readTime), SkippedResults: 0})
	}
	for _, doc := range docs {
		if err := stream.Send(&firestorepb.RunQueryResponse{
			Document: doc,
			ReadTime: timestamppb.New(readTime),
		}); err != nil {
			return apperrors.ToStatus("RunQuery", apperrors.Internal("RunQuery", err))
		}
	}
	return nil
}

// RunAggregationQuery streams exactly one aggregation result (spec.md §4.5).
func (s *Server) RunAggregationQuery(req *firestorepb.RunAggregationQueryRequest, stream firestorepb.Firestore_RunAggregationQueryServer) error {
	readTime := time.Now().UTC()
	fields, err := s.svc.RunAggregationQuery(req.GetParent(), req.GetStructuredAggregationQuery())
	if err != nil {
		return apperrors.ToStatus("RunAggregationQuery", err)
	}
	return stream.Send(&firestorepb.RunAggregationQueryResponse{
		Result:   &firestorepb.AggregationResult{AggregateFields: fields},
		ReadTime: timestamppb.New(readTime),
	})
}

// BatchGetDocuments streams a found/missing chunk per requested path,
// preserving input order (spec.md §4.5).
func (s *Server) BatchGetDocuments(req *firestorepb.BatchGetDocumentsRequest, stream firestorepb.Firestore_BatchGetDocumentsServer) error {
	readTime := time.Now().UTC()
	results := s.svc.BatchGetDocuments(req.GetDocuments())
	for _, r := range results {
		resp := &firestorepb.BatchGetDocumentsResponse{ReadTime: timestamppb.New(readTime)}
		if r.Found != nil {
			resp.Result = &firestorepb.BatchGetDocumentsResponse_Found{Found: r.Found}
		} else {
			resp.Result = &firestorepb.BatchGetDocumentsResponse_Missing{Missing: r.Missing}
		}
		if err := stream.Send(resp); err != nil {
			return apperrors.ToStatus("BatchGetDocuments", apperrors.Internal("BatchGetDocuments", err))
		}
	}
	return nil
}

func (s *Server) ListCollectionIds(ctx context.Context, req *firestorepb.ListCollectionIdsRequest) (*firestorepb.ListCollectionIdsResponse, error) {
	ids, next, err := s.svc.ListCollectionIds(req.GetParent(), req.GetPageSize(), req.GetPageToken())
	if err != nil {
		return nil, apperrors.ToStatus("ListCollectionIds", err)
	}
	return &firestorepb.ListCollectionIdsResponse{CollectionIds: ids, NextPageToken: next}, nil
}

func (s *Server) Commit(ctx context.Context, req *firestorepb.CommitRequest) (*firestorepb.CommitResponse, error) {
	results, err := s.svc.Commit(req.GetDatabase(), req.GetWrites())
	if err != nil {
		return nil, apperrors.ToStatus("Commit", err)
	}
	return &firestorepb.CommitResponse{
		WriteResults: results,
		CommitTime:   timestamppb.New(time.Now().UTC()),
	}, nil
}

// Listen and Write are real-time streaming RPCs this emulator deliberately
// does not implement (spec.md §1 Non-goals); they close immediately with
// UNIMPLEMENTED.
func (s *Server) Listen(stream firestorepb.Firestore_ListenServer) error {
	s.log.Warn("Listen is not implemented by this emulator")
	return apperrors.ToStatus("Listen", apperrors.Unimplemented("real-time listen streams are not supported"))
}

func (s *Server) Write(stream firestorepb.Firestore_WriteServer) error {
	s.log.Warn("Write is not implemented by this emulator")
	return apperrors.ToStatus("Write", apperrors.Unimplemented("streaming Write is not supported; use Commit"))
}

// BatchWrite, BeginTransaction, and Rollback are stubbed; config decides
// whether to log-and-return UNIMPLEMENTED or log fatally and exit the
// process (spec.md §6).
func (s *Server) BatchWrite(ctx context.Context, req *firestorepb.BatchWriteRequest) (*firestorepb.BatchWriteResponse, error) {
	return nil, s.stub("BatchWrite")
}

func (s *Server) BeginTransaction(ctx context.Context, req *firestorepb.BeginTransactionRequest) (*firestorepb.BeginTransactionResponse, error) {
	return nil, s.stub("BeginTransaction")
}

func (s *Server) Rollback(ctx context.Context, req *firestorepb.RollbackRequest) (*emptypb.Empty, error) {
	return nil, s.stub("Rollback")
}

func (s *Server) stub(rpc string) error {
	if s.cfg.Logs.OnUnimplemented == config.OnUnimplementedThrow {
		s.log.Fatalf("%s invoked while configured to fail hard on unimplemented RPCs", rpc)
	}
	s.log.Warnf("%s is not implemented by this emulator", rpc)
	return apperrors.ToStatus(rpc, apperrors.Unimplemented(rpc+" is not implemented by this emulator"))
}
