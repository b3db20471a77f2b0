// Package store is the hierarchical in-memory document store: projects ->
// databases -> collection path -> document id -> Document. Grounded on the
// locking discipline of the original repository's Mongo-backed repository
// (one lock scope per collection, snapshot-then-copy reads) adapted to a
// pure in-process map since spec.md §5 rules out any backing persistence.
package store

import (
	"sort"
	"sync"
	"time"

	firestorepb "google.golang.org/genproto/googleapis/firestore/v1"

	"firestore-emulator/internal/firestore/domain/fsvalue"
)

// Document is the store's internal record. Name is recomputed by callers
// from its placement; the store itself is agnostic to canonicalization.
type Document struct {
	Name       string
	Fields     map[string]*firestorepb.Value
	CreateTime time.Time
	UpdateTime time.Time
}

// Clone returns a deep copy so callers can never mutate store state through
// an aliased reference (spec.md §4.3).
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{
		Name:       d.Name,
		Fields:     fsvalue.CloneFields(d.Fields),
		CreateTime: d.CreateTime,
		UpdateTime: d.UpdateTime,
	}
}

type docEntry struct {
	doc *Document
	seq uint64 // insertion order, for list()'s stable ordering
}

type collection struct {
	mu      sync.RWMutex
	docs    map[string]*docEntry
	nextSeq uint64
}

type database struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type project struct {
	mu        sync.RWMutex
	databases map[string]*database
}

// Store is the P -> D -> collectionPath -> docId map described in
// spec.md §3. The zero value is not usable; use New().
type Store struct {
	mu       sync.RWMutex
	projects map[string]*project
}

// New creates an empty store.
func New() *Store {
	return &Store{projects: make(map[string]*project)}
}

func (s *Store) getCollection(projectID, databaseID, collectionPath string, create bool) *collection {
	s.mu.Lock()
	p, ok := s.projects[projectID]
	if !ok {
		if !create {
			s.mu.Unlock()
			return nil
		}
		p = &project{databases: make(map[string]*database)}
		s.projects[projectID] = p
	}
	s.mu.Unlock()

	p.mu.Lock()
	d, ok := p.databases[databaseID]
	if !ok {
		if !create {
			p.mu.Unlock()
			return nil
		}
		d = &database{collections: make(map[string]*collection)}
		p.databases[databaseID] = d
	}
	p.mu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.collections[collectionPath]
	if !ok {
		if !create {
			return nil
		}
		c = &collection{docs: make(map[string]*docEntry)}
		d.collections[collectionPath] = c
	}
	return c
}

// Get returns a deep copy of the document, or nil if it does not exist.
func (s *Store) Get(projectID, databaseID, collectionPath, docID string) *Document {
	c := s.getCollection(projectID, databaseID, collectionPath, false)
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.docs[docID]
	if !ok {
		return nil
	}
	return e.doc.Clone()
}

// Set replaces (or creates) a document at the given location. The caller
// owns doc after this call returns; Set stores its own deep copy.
func (s *Store) Set(projectID, databaseID, collectionPath, docID string, doc *Document) {
	c := s.getCollection(projectID, databaseID, collectionPath, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, existed := c.docs[docID]
	seq := c.nextSeq
	if existed {
		seq = e.seq
	} else {
		c.nextSeq++
	}
	c.docs[docID] = &docEntry{doc: doc.Clone(), seq: seq}
}

// Delete removes a document, reporting whether it existed.
func (s *Store) Delete(projectID, databaseID, collectionPath, docID string) bool {
	c := s.getCollection(projectID, databaseID, collectionPath, false)
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[docID]; !ok {
		return false
	}
	delete(c.docs, docID)
	return true
}

// List returns deep copies of every document in collectionPath, ordered by
// insertion order of docId (spec.md §4.3).
func (s *Store) List(projectID, databaseID, collectionPath string) []*Document {
	c := s.getCollection(projectID, databaseID, collectionPath, false)
	if c == nil {
		return nil
	}
	c.mu.RLock()
	entries := make([]*docEntry, 0, len(c.docs))
	for _, e := range c.docs {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]*Document, len(entries))
	for i, e := range entries {
		out[i] = e.doc.Clone()
	}
	return out
}

// ListCollectionIds returns the sorted, unique set of immediate child
// collection names under parentPath (empty string = database root).
func (s *Store) ListCollectionIds(projectID, databaseID, parentPath string) []string {
	s.mu.RLock()
	p, ok := s.projects[projectID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	p.mu.RLock()
	d, ok := p.databases[databaseID]
	p.mu.RUnlock()
	if !ok {
		return nil
	}

	prefix := parentPath
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[string]struct{})
	for collectionPath, c := range d.collections {
		c.mu.RLock()
		empty := len(c.docs) == 0
		c.mu.RUnlock()
		if empty {
			continue
		}
		child, ok := immediateChild(prefix, collectionPath)
		if ok {
			seen[child] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// immediateChild reports the immediate child collection id of
// collectionPath relative to parentPath, e.g. parent="" child="users/u1/posts"
// returns ("users", true); parent="users/u1" child="users/u1/posts" returns
// ("posts", true); a collectionPath not nested directly under parentPath
// (or nested more than one level) returns ("", false).
func immediateChild(parentPath, collectionPath string) (string, bool) {
	if parentPath == "" {
		if idx := indexOfSlash(collectionPath); idx >= 0 {
			// collectionPath has more than one segment: its first segment
			// is the top-level collection it is nested under, which is
			// reported whether or not that collection holds documents itself.
			return collectionPath[:idx], true
		}
		return collectionPath, true
	}
	if len(collectionPath) <= len(parentPath) || collectionPath[:len(parentPath)] != parentPath || collectionPath[len(parentPath)] != '/' {
		return "", false
	}
	// parentPath names a document; a directly-nested subcollection is the
	// single remaining segment, with no further slash.
	rest := collectionPath[len(parentPath)+1:]
	if indexOfSlash(rest) >= 0 {
		return "", false
	}
	return rest, true
}

func indexOfSlash(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
