// Package testutil provides an in-memory JSON:API server for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

const defaultPageSize = 10

// RecordedRequest is one request the server received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server stores resources per type and serves them with JSON:API
// pagination, filtering and CRUD semantics.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	resources map[string][]jsonapi.ResourceObject
	nextID    int64
	requests  []RecordedRequest
	failPages map[string]int
	tokens    map[string]bool
	issued    int
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		resources: make(map[string][]jsonapi.ResourceObject),
		failPages: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", s.handleToken)
	mux.HandleFunc("GET /{type}", s.handleList)
	mux.HandleFunc("POST /{type}", s.handleCreate)
	mux.HandleFunc("GET /{type}/{id}", s.handleGet)
	mux.HandleFunc("PATCH /{type}/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /{type}/{id}", s.handleDelete)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)

	return s
}

// Seed stores a resource. Attribute values are JSON-encoded.
func (s *Server) Seed(resourceType, id string, attributes map[string]any) {
	obj := jsonapi.ResourceObject{
		Type:       resourceType,
		ID:         id,
		Attributes: make(map[string]json.RawMessage, len(attributes)),
	}

	for name, value := range attributes {
		raw, err := json.Marshal(value)
		if err != nil {
			panic(fmt.Sprintf("seeding %s/%s: %v", resourceType, id, err))
		}

		obj.Attributes[name] = raw
	}

	s.SeedObject(obj)
}

// SeedObject stores obj as is.
func (s *Server) SeedObject(obj jsonapi.ResourceObject) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resources[obj.Type] = append(s.resources[obj.Type], obj)

	if n, err := strconv.ParseInt(obj.ID, 10, 64); err == nil && n > s.nextID {
		s.nextID = n
	}
}

// Resource returns the stored resource.
func (s *Server) Resource(resourceType, id string) (jsonapi.ResourceObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(resourceType, id)
	if i < 0 {
		return jsonapi.ResourceObject{}, false
	}

	return s.resources[resourceType][i], true
}

// FailPage makes requests for the given list page answer with status.
func (s *Server) FailPage(resourceType string, page, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failPages[pageKey(resourceType, page)] = status
}

// RequireToken rejects requests without one of the accepted bearer
// tokens. Tokens issued by /oauth/token are accepted too.
func (s *Server) RequireToken(tokens ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		s.tokens = make(map[string]bool)
	}

	for _, token := range tokens {
		s.tokens[token] = true
	}
}

// RevokeTokens invalidates every accepted token while keeping
// authentication required.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = make(map[string]bool)
}

// TokensIssued reports how many tokens /oauth/token handed out.
func (s *Server) TokensIssued() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.issued
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]RecordedRequest(nil), s.requests...)
}

// RequestCount counts received requests with the given method and path.
func (s *Server) RequestCount(method, path string) int {
	count := 0

	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			count++
		}
	}

	return count
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		authorized := s.authorizedLocked(r)
		s.mu.Unlock()

		if !authorized && r.URL.Path != "/oauth/token" {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid or missing bearer token")

			return
		}

		r.Body = io.NopCloser(strings.NewReader(string(body)))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorizedLocked(r *http.Request) bool {
	if s.tokens == nil {
		return true
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

	return ok && s.tokens[token]
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil || r.PostForm.Get("grant_type") == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_request", "error_description": "grant_type is required"}`))

		return
	}

	s.mu.Lock()
	s.issued++
	token := fmt.Sprintf("issued-token-%d", s.issued)
	if s.tokens == nil {
		s.tokens = make(map[string]bool)
	}
	s.tokens[token] = true
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  token,
		"token_type":    "bearer",
		"expires_in":    3600,
		"refresh_token": "refresh-" + token,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	resourceType := r.PathValue("type")
	query := r.URL.Query()

	page := intParam(query, "page[number]", 1)
	size := intParam(query, "page[size]", defaultPageSize)

	s.mu.Lock()
	status, failing := s.failPages[pageKey(resourceType, page)]
	matched := filterResources(s.resources[resourceType], query)
	s.mu.Unlock()

	if failing {
		writeError(w, status, http.StatusText(status), fmt.Sprintf("page %d unavailable", page))

		return
	}

	start := min((page-1)*size, len(matched))
	end := min(start+size, len(matched))

	data, _ := json.Marshal(append([]jsonapi.ResourceObject{}, matched[start:end]...))
	doc := jsonapi.Document{
		Data: data,
		Meta: map[string]any{"total": len(matched)},
	}

	if end < len(matched) {
		next := cloneValues(query)
		next.Set("page[number]", strconv.Itoa(page+1))
		doc.Links = &jsonapi.Links{Next: r.URL.Path + "?" + next.Encode()}
	}

	writeDocument(w, http.StatusOK, &doc)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.Resource(r.PathValue("type"), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found", "resource not found")

		return
	}

	writeResource(w, http.StatusOK, &obj)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	obj, ok := readResource(w, r)
	if !ok {
		return
	}

	if obj.Type != r.PathValue("type") {
		writeError(w, http.StatusConflict, "Conflict", "resource type does not match endpoint")

		return
	}

	s.mu.Lock()
	if obj.ID == "" {
		s.nextID++
		obj.ID = strconv.FormatInt(s.nextID, 10)
	}
	s.resources[obj.Type] = append(s.resources[obj.Type], *obj)
	s.mu.Unlock()

	writeResource(w, http.StatusCreated, obj)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	patch, ok := readResource(w, r)
	if !ok {
		return
	}

	resourceType, id := r.PathValue("type"), r.PathValue("id")

	s.mu.Lock()
	i := s.indexLocked(resourceType, id)
	if i < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Not Found", "resource not found")

		return
	}

	stored := &s.resources[resourceType][i]
	if stored.Attributes == nil {
		stored.Attributes = make(map[string]json.RawMessage)
	}
	maps.Copy(stored.Attributes, patch.Attributes)

	if len(patch.Relationships) > 0 {
		if stored.Relationships == nil {
			stored.Relationships = make(map[string]jsonapi.Relationship)
		}
		maps.Copy(stored.Relationships, patch.Relationships)
	}

	updated := *stored
	s.mu.Unlock()

	writeResource(w, http.StatusOK, &updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	resourceType, id := r.PathValue("type"), r.PathValue("id")

	s.mu.Lock()
	i := s.indexLocked(resourceType, id)
	if i >= 0 {
		list := s.resources[resourceType]
		s.resources[resourceType] = append(list[:i:i], list[i+1:]...)
	}
	s.mu.Unlock()

	if i < 0 {
		writeError(w, http.StatusNotFound, "Not Found", "resource not found")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) indexLocked(resourceType, id string) int {
	for i, obj := range s.resources[resourceType] {
		if obj.ID == id {
			return i
		}
	}

	return -1
}

func readResource(w http.ResponseWriter, r *http.Request) (*jsonapi.ResourceObject, bool) {
	body, _ := io.ReadAll(r.Body)

	doc, err := jsonapi.ParseDocument(body)
	if err == nil {
		var obj *jsonapi.ResourceObject

		obj, err = doc.One()
		if err == nil && obj != nil {
			return obj, true
		}
	}

	writeError(w, http.StatusBadRequest, "Bad Request", "request body is not a single resource document")

	return nil, false
}

func filterResources(objs []jsonapi.ResourceObject, query url.Values) []jsonapi.ResourceObject {
	filters := make(map[string]string)

	for key := range query {
		if name, ok := strings.CutPrefix(key, "filter["); ok {
			filters[strings.TrimSuffix(name, "]")] = query.Get(key)
		}
	}

	var matched []jsonapi.ResourceObject

	for _, obj := range objs {
		if matchesFilters(obj, filters) {
			matched = append(matched, obj)
		}
	}

	return matched
}

func matchesFilters(obj jsonapi.ResourceObject, filters map[string]string) bool {
	for name, want := range filters {
		if name == "id" {
			if obj.ID != want {
				return false
			}

			continue
		}

		if rel, ok := obj.Relationships[name]; ok {
			if rel.Data == nil || rel.Data.ID != want {
				return false
			}

			continue
		}

		raw, ok := obj.Attributes[name]
		if !ok {
			return false
		}

		var value any

		if json.Unmarshal(raw, &value) != nil || fmt.Sprint(value) != want {
			return false
		}
	}

	return true
}

func writeResource(w http.ResponseWriter, status int, obj *jsonapi.ResourceObject) {
	doc, err := jsonapi.NewSingleDocument(obj)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())

		return
	}

	writeDocument(w, status, doc)
}

func writeDocument(w http.ResponseWriter, status int, doc *jsonapi.Document) {
	w.Header().Set("Content-Type", constants.MediaTypeJSONAPI)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}

func writeError(w http.ResponseWriter, status int, title, detail string) {
	writeDocument(w, status, &jsonapi.Document{Errors: []jsonapi.ErrorObject{{
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: detail,
	}}})
}

func intParam(query url.Values, key string, fallback int) int {
	n, err := strconv.Atoi(query.Get(key))
	if err != nil || n < 1 {
		return fallback
	}

	return n
}

func cloneValues(values url.Values) url.Values {
	clone := make(url.Values, len(values))
	for key, v := range values {
		clone[key] = append([]string(nil), v...)
	}

	return clone
}

func pageKey(resourceType string, page int) string {
	return resourceType + "#" + strconv.Itoa(page)
}
