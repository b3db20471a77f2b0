// Package path parses and builds the resource name strings the Firestore
// wire protocol passes around: projects/P/databases/D/documents/<path>.
// Adapted from internal/shared/firestore's regex-based parser, simplified
// to the fields spec.md §4.2 actually names and to the "(default)"/"default"
// aliasing spec.md §3 requires.
package path

import (
	"regexp"
	"strings"

	"firestore-emulator/internal/shared/apperrors"
)

// Resource is the decomposed form of a documents-scoped resource name.
type Resource struct {
	ProjectID      string
	DatabaseID     string // normalized; "default" and "(default)" both become "(default)"
	DatabaseIDRaw  string // exactly as the client sent it, for echoing back in Document.name
	CollectionPath string // ParseDocument: segments after "documents" except the last; ParseCollection/ParseAny: every segment
	DocID          string // last segment when the name addresses a document; empty otherwise
}

var resourceRegex = regexp.MustCompile(`^projects/([^/]+)/databases/([^/]+)/documents(?:/(.*))?$`)

// DefaultDatabaseID is the canonical internal form used for both the
// "(default)" and "default" spellings a client may send.
const DefaultDatabaseID = "(default)"

// NormalizeDatabaseID maps "default" to the canonical "(default)" form;
// every other id passes through unchanged.
func NormalizeDatabaseID(databaseID string) string {
	if databaseID == "default" {
		return DefaultDatabaseID
	}
	return databaseID
}

// ParseDocument parses a resource name that must address a document (an
// even number of segments after "documents"). Used by GetDocument,
// UpdateDocument, DeleteDocument, BatchGetDocuments.
func ParseDocument(name string) (Resource, error) {
	r, segments, err := parse(name)
	if err != nil {
		return Resource{}, err
	}
	if len(segments) == 0 || len(segments)%2 != 0 {
		return Resource{}, apperrors.InvalidArgument("document name must have an even number of path segments: "+name, nil)
	}
	r.CollectionPath = strings.Join(segments[:len(segments)-1], "/")
	r.DocID = segments[len(segments)-1]
	return r, nil
}

// ParseCollection parses a resource name that must address a collection
// (an odd number of segments after "documents"); CollectionPath holds every
// segment.
func ParseCollection(name string) (Resource, error) {
	r, segments, err := parse(name)
	if err != nil {
		return Resource{}, err
	}
	if len(segments)%2 != 1 {
		return Resource{}, apperrors.InvalidArgument("collection name must have an odd number of path segments: "+name, nil)
	}
	r.CollectionPath = strings.Join(segments, "/")
	return r, nil
}

// ParseAny parses a resource name that may address either a document, a
// collection, or the documents root (used by ListDocuments, CreateDocument,
// RunQuery, and ListCollectionIds, whose parent may be any of the three).
// CollectionPath always holds every segment joined, document or not: a
// caller appending a child collection id needs the full path down to
// whatever the parent addresses, not the path with the trailing document
// id stripped off.
func ParseAny(name string) (Resource, error) {
	r, segments, err := parse(name)
	if err != nil {
		return Resource{}, err
	}
	if len(segments) == 0 {
		return r, nil
	}
	r.CollectionPath = strings.Join(segments, "/")
	if len(segments)%2 == 0 {
		r.DocID = segments[len(segments)-1]
	}
	return r, nil
}

func parse(name string) (Resource, []string, error) {
	name = strings.Trim(name, "/")
	matches := resourceRegex.FindStringSubmatch(name)
	if matches == nil {
		return Resource{}, nil, apperrors.InvalidArgument("malformed resource name: "+name, nil)
	}
	projectID, databaseID, rest := matches[1], matches[2], matches[3]
	var segments []string
	if rest != "" {
		for _, s := range strings.Split(rest, "/") {
			if s != "" {
				segments = append(segments, s)
			}
		}
	}
	return Resource{ProjectID: projectID, DatabaseID: NormalizeDatabaseID(databaseID), DatabaseIDRaw: databaseID}, segments, nil
}

// DocumentName builds the canonical name for a document given its
// collection path and id.
func DocumentName(projectID, databaseID, collectionPath, docID string) string {
	return "projects/" + projectID + "/databases/" + databaseID + "/documents/" + collectionPath + "/" + docID
}

// CollectionName builds the canonical name for a collection.
func CollectionName(projectID, databaseID, collectionPath string) string {
	return "projects/" + projectID + "/databases/" + databaseID + "/documents/" + collectionPath
}

// DatabaseRoot builds the "documents" root name for a project/database,
// used as the parent when listing top-level collections.
func DatabaseRoot(projectID, databaseID string) string {
	return "projects/" + projectID + "/databases/" + databaseID + "/documents"
}

// ParentOf returns the parent collection path of a nested collection path
// (e.g. "users/u1/posts" -> "users/u1"), or "" if collectionPath is top-level.
func ParentOf(collectionPath string) string {
	idx := strings.LastIndex(collectionPath, "/")
	if idx < 0 {
		return ""
	}
	return collectionPath[:idx]
}

// LastSegment returns the final slash-delimited segment of collectionPath
// (its collection id).
func LastSegment(collectionPath string) string {
	idx := strings.LastIndex(collectionPath, "/")
	if idx < 0 {
		return collectionPath
	}
	return collectionPath[idx+1:]
}
