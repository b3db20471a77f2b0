// Package usecase orchestrates the Firestore RPC semantics (spec.md §4.5)
// over the storage and query engine packages: one method per real RPC,
// returning domain errors an adapter translates to gRPC status codes.
package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"
	"google.golang.org/protobuf/types/known/timestamppb"

	"firestore-emulator/internal/firestore/domain/fsvalue"
	"firestore-emulator/internal/firestore/domain/path"
	"firestore-emulator/internal/firestore/query"
	"firestore-emulator/internal/firestore/store"
	"firestore-emulator/internal/shared/apperrors"
	"firestore-emulator/internal/shared/eventbus"
	"firestore-emulator/internal/shared/logger"
)

// Service implements the document-facing Firestore operations. It holds no
// gRPC-specific state; the adapter package wires it to the wire protocol.
type Service struct {
	store *store.Store
	log   logger.Logger
	bus   *eventbus.EventBus
}

// NewService builds a Service with its own private event bus; nothing
// subscribes to it by default, so publishing one is a no-op until a caller
// wires a handler or a distributed Notifier on Bus().
func NewService(s *store.Store, log logger.Logger) *Service {
	return &Service{store: s, log: log, bus: eventbus.NewEventBus(log)}
}

// Bus exposes the service's event bus so callers (the DI container, tests)
// can subscribe handlers or attach a distributed Notifier.
func (s *Service) Bus() *eventbus.EventBus {
	return s.bus
}

func (s *Service) publish(eventType, name string) {
	s.bus.PublishAndForget(context.Background(), eventbus.NewBasicEventWithSource(eventType, name, "firestore.usecase"))
}

func toProtoDoc(d *store.Document) *firestorepb.Document {
	if d == nil {
		return nil
	}
	return &firestorepb.Document{
		Name:       d.Name,
		Fields:     d.Fields,
		CreateTime: timestamppb.New(d.CreateTime),
		UpdateTime: timestamppb.New(d.UpdateTime),
	}
}

func fromProtoFields(fields map[string]*firestorepb.Value) map[string]*firestorepb.Value {
	return fsvalue.CloneFields(fields)
}

// GetDocument implements spec.md §4.5 GetDocument.
func (s *Service) GetDocument(name string) (*firestorepb.Document, error) {
	r, err := path.ParseDocument(name)
	if err != nil {
		return nil, err
	}
	doc := s.store.Get(r.ProjectID, r.DatabaseID, r.CollectionPath, r.DocID)
	if doc == nil {
		return nil, apperrors.NotFound("document not found: "+name, nil)
	}
	return toProtoDoc(doc), nil
}

// ListDocuments implements spec.md §4.5 ListDocuments.
func (s *Service) ListDocuments(parent, collectionID string) ([]*firestorepb.Document, error) {
	if collectionID == "" {
		return nil, apperrors.InvalidArgument("collectionId must not be empty", nil)
	}
	r, err := path.ParseAny(parent)
	if err != nil {
		return nil, err
	}
	collectionPath := collectionID
	if r.CollectionPath != "" {
		collectionPath = r.CollectionPath + "/" + collectionID
	}
	docs := s.store.List(r.ProjectID, r.DatabaseID, collectionPath)
	out := make([]*firestorepb.Document, len(docs))
	for i, d := range docs {
		out[i] = toProtoDoc(d)
	}
	return out, nil
}

// RunQuery implements spec.md §4.5 RunQuery, returning the already-filtered,
// ordered and paginated document set; the adapter streams one response per
// document (or a single readTime-only response if empty).
func (s *Service) RunQuery(parent string, sq *firestorepb.StructuredQuery) ([]*firestorepb.Document, error) {
	r, err := path.ParseAny(parent)
	if err != nil {
		return nil, err
	}
	collectionID, allDescendants := query.CollectionIDFromFrom(sq.GetFrom())
	if collectionID == "" {
		return nil, apperrors.InvalidArgument("structuredQuery.from must name a collection", nil)
	}
	collectionPath := collectionID
	if r.CollectionPath != "" {
		collectionPath = r.CollectionPath + "/" + collectionID
	}
	docs := s.store.List(r.ProjectID, r.DatabaseID, collectionPath)
	_ = allDescendants // composite collectionGroup scans are out of scope; see spec.md Non-goals
	return query.Apply(docs, sq), nil
}

// RunAggregationQuery implements spec.md §4.5 RunAggregationQuery.
func (s *Service) RunAggregationQuery(parent string, saq *firestorepb.StructuredAggregationQuery) (map[string]*firestorepb.Value, error) {
	matched, err := s.RunQuery(parent, saq.GetStructuredQuery())
	if err != nil {
		return nil, err
	}
	aggs := query.AggregationsFromProto(saq.GetAggregations())
	return query.RunAggregations(len(matched), aggs), nil
}

// CreateDocument implements spec.md §4.5 CreateDocument.
func (s *Service) CreateDocument(parent, collectionID, documentID string, fields map[string]*firestorepb.Value) (*firestorepb.Document, error) {
	r, err := path.ParseAny(parent)
	if err != nil {
		return nil, err
	}
	collectionPath := collectionID
	if r.CollectionPath != "" {
		collectionPath = r.CollectionPath + "/" + collectionID
	}
	if documentID == "" {
		documentID = generateDocumentID()
	}
	now := time.Now().UTC()
	name := path.DocumentName(r.ProjectID, r.DatabaseIDRaw, collectionPath, documentID)
	doc := &store.Document{
		Name:       name,
		Fields:     fromProtoFields(fields),
		CreateTime: now,
		UpdateTime: now,
	}
	s.store.Set(r.ProjectID, r.DatabaseID, collectionPath, documentID, doc)
	s.publish(eventbus.EventTypeDocumentCreated, name)
	return toProtoDoc(doc), nil
}

// UpdateDocument implements spec.md §4.5 UpdateDocument: full replace,
// creating the document if absent, preserving createTime if it existed.
func (s *Service) UpdateDocument(name string, fields map[string]*firestorepb.Value) (*firestorepb.Document, error) {
	r, err := path.ParseDocument(name)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	existing := s.store.Get(r.ProjectID, r.DatabaseID, r.CollectionPath, r.DocID)
	createTime := now
	if existing != nil {
		createTime = existing.CreateTime
	}
	doc := &store.Document{
		Name:       name,
		Fields:     fromProtoFields(fields),
		CreateTime: createTime,
		UpdateTime: now,
	}
	s.store.Set(r.ProjectID, r.DatabaseID, r.CollectionPath, r.DocID, doc)
	s.publish(eventbus.EventTypeDocumentUpdated, name)
	return toProtoDoc(doc), nil
}

// DeleteDocument implements spec.md §4.5 DeleteDocument.
func (s *Service) DeleteDocument(name string) error {
	r, err := path.ParseDocument(name)
	if err != nil {
		return err
	}
	if !s.store.Delete(r.ProjectID, r.DatabaseID, r.CollectionPath, r.DocID) {
		return apperrors.NotFound("document not found: "+name, nil)
	}
	s.publish(eventbus.EventTypeDocumentDeleted, name)
	return nil
}

// BatchGetDocuments implements spec.md §4.5 BatchGetDocuments. Invalid
// paths and missing documents both produce a "missing" result rather than
// an error, preserving input order.
func (s *Service) BatchGetDocuments(names []string) []BatchGetResult {
	out := make([]BatchGetResult, len(names))
	for i, name := range names {
		r, err := path.ParseDocument(name)
		if err != nil {
			out[i] = BatchGetResult{Missing: name}
			continue
		}
		doc := s.store.Get(r.ProjectID, r.DatabaseID, r.CollectionPath, r.DocID)
		if doc == nil {
			out[i] = BatchGetResult{Missing: name}
			continue
		}
		out[i] = BatchGetResult{Found: toProtoDoc(doc)}
	}
	return out
}

// BatchGetResult is exactly one of Found or Missing, matching the wire
// oneof {found, missing} spec.md §4.5 BatchGetDocuments describes.
type BatchGetResult struct {
	Found   *firestorepb.Document
	Missing string
}

// ListCollectionIds implements spec.md §4.5 ListCollectionIds, with decimal
// cursor pagination over the sorted id set.
func (s *Service) ListCollectionIds(parent string, pageSize int32, pageToken string) (ids []string, nextPageToken string, err error) {
	r, err := path.ParseAny(parent)
	if err != nil {
		return nil, "", err
	}
	all := s.store.ListCollectionIds(r.ProjectID, r.DatabaseID, r.CollectionPath)

	start := 0
	if pageToken != "" {
		start, err = strconv.Atoi(pageToken)
		if err != nil || start < 0 {
			return nil, "", apperrors.InvalidArgument("invalid pageToken: "+pageToken, nil)
		}
	}
	if start >= len(all) {
		return nil, "", nil
	}
	end := len(all)
	if pageSize > 0 && start+int(pageSize) < end {
		end = start + int(pageSize)
	}
	page := all[start:end]
	if end < len(all) {
		nextPageToken = strconv.Itoa(end)
	}
	return page, nextPageToken, nil
}

// Commit implements spec.md §4.5 Commit: applies a batch of writes
// atomically with respect to validation (every write's path is checked
// before any write is applied).
func (s *Service) Commit(databaseID string, writes []*firestorepb.Write) ([]*firestorepb.WriteResult, error) {
	type planned struct {
		write *firestorepb.Write
		res   path.Resource
	}
	plans := make([]planned, len(writes))
	for i, w := range writes {
		name := writeTargetName(w)
		r, err := path.ParseDocument(name)
		if err != nil {
			return nil, apperrors.InvalidArgument(fmt.Sprintf("write %d has an invalid target path %q", i, name), err)
		}
		plans[i] = planned{write: w, res: r}
	}

	now := time.Now().UTC()
	results := make([]*firestorepb.WriteResult, len(plans))
	for i, p := range plans {
		switch {
		case p.write.GetDelete() != "":
			s.store.Delete(p.res.ProjectID, p.res.DatabaseID, p.res.CollectionPath, p.res.DocID)
			results[i] = &firestorepb.WriteResult{UpdateTime: timestamppb.New(now)}
			s.publish(eventbus.EventTypeDocumentDeleted, p.write.GetDelete())
		default:
			result := s.applyUpdateWrite(p.res, p.write, now)
			results[i] = result
			s.publish(eventbus.EventTypeDocumentUpdated, p.write.GetUpdate().GetName())
		}
	}
	return results, nil
}

func (s *Service) applyUpdateWrite(r path.Resource, w *firestorepb.Write, now time.Time) *firestorepb.WriteResult {
	incoming := fromProtoFields(w.GetUpdate().GetFields())
	existing := s.store.Get(r.ProjectID, r.DatabaseID, r.CollectionPath, r.DocID)

	var fields map[string]*firestorepb.Value
	mask := w.GetUpdateMask()
	switch {
	case existing == nil:
		fields = incoming
	case mask == nil || len(mask.GetFieldPaths()) == 0:
		// shallow merge: new fields win, untouched existing keys survive
		fields = fsvalue.CloneFields(existing.Fields)
		for k, v := range incoming {
			fields[k] = v
		}
	default:
		fields = fsvalue.CloneFields(existing.Fields)
		for k, v := range incoming {
			fields[k] = v
		}
		for _, maskedKey := range mask.GetFieldPaths() {
			if _, stillSet := incoming[maskedKey]; !stillSet {
				delete(fields, maskedKey)
			}
		}
	}

	if transforms := w.GetUpdateTransforms(); len(transforms) > 0 {
		query.ApplyFieldTransforms(fields, transforms, now)
	}

	createTime := now
	if existing != nil {
		createTime = existing.CreateTime
	}
	doc := &store.Document{
		Name:       w.GetUpdate().GetName(),
		Fields:     fields,
		CreateTime: createTime,
		UpdateTime: now,
	}
	s.store.Set(r.ProjectID, r.DatabaseID, r.CollectionPath, r.DocID, doc)
	return &firestorepb.WriteResult{UpdateTime: timestamppb.New(now)}
}

func writeTargetName(w *firestorepb.Write) string {
	if w.GetDelete() != "" {
		return w.GetDelete()
	}
	return w.GetUpdate().GetName()
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// generateDocumentID produces a 24-character lowercase alphanumeric id,
// matching the shape Firestore's client libraries expect from auto-ids.
func generateDocumentID() string {
	b := make([]byte, 24)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}
