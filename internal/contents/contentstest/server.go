// Package contentstest provides an in-process contents API for tests.
//
// Files carry git blob SHA-1 version tokens. The same server also serves the
// public read path: a GET on any path outside /repos/ returns the raw file.
package contentstest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// Server is a fake contents API backed by a map.
type Server struct {
	*httptest.Server

	Owner  string
	Repo   string
	Branch string
	Token  string

	mu        sync.Mutex
	files     map[string][]byte
	requests  []string
	failures  map[string][]int
	beforePut func(path string)
	// inlineLimit is the largest file returned inline; zero means no limit.
	inlineLimit int
}

// New starts a server for owner/repo on branch that requires token on the
// contents endpoints. An empty token disables the check.
func New(owner, repo, branch, token string) *Server {
	s := &Server{
		Owner:    owner,
		Repo:     repo,
		Branch:   branch,
		Token:    token,
		files:    map[string][]byte{},
		failures: map[string][]int{},
	}

	mux := http.NewServeMux()
	prefix := fmt.Sprintf("/repos/%s/%s/contents/", owner, repo)
	mux.HandleFunc("GET "+prefix+"{path...}", s.handleGet)
	mux.HandleFunc("PUT "+prefix+"{path...}", s.handlePut)
	mux.HandleFunc(fmt.Sprintf("GET /repos/%s/%s/git/blobs/{sha}", owner, repo), s.handleBlob)
	mux.HandleFunc("GET /", s.handleRaw)
	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// BlobSHA returns the git blob id of content.
func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// SetFile stores content at path, as another writer would.
func (s *Server) SetFile(path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[strings.Trim(path, "/")] = append([]byte(nil), content...)
}

// File returns the stored content and whether it exists.
func (s *Server) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.files[strings.Trim(path, "/")]
	return b, ok
}

// Requests returns "METHOD path?query" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// FailNext makes the next requests whose method and path match answer with
// the given statuses, one per request. method is "GET" or "PUT"; path is the
// repository path of the file, or "git/blobs/<sha>" for a blob.
func (s *Server) FailNext(method, path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + strings.Trim(path, "/")
	s.failures[key] = append(s.failures[key], statuses...)
}

// BeforePut installs a hook that runs before each PUT is applied, outside
// the server lock. Tests use it to slip in a concurrent commit.
func (s *Server) BeforePut(fn func(path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforePut = fn
}

// SetInlineLimit makes files larger than n bytes come back from the contents
// endpoint with encoding "none" and no content, as the real API does for files
// over 1 MB. Their bytes are then only available from the blobs endpoint.
func (s *Server) SetInlineLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inlineLimit = n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.RequestURI())
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if s.Token == "" || r.Header.Get("Authorization") == "Bearer "+s.Token {
		return true
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
	return false
}

func (s *Server) injected(w http.ResponseWriter, method, path string) bool {
	s.mu.Lock()
	key := method + " " + path
	queue := s.failures[key]
	if len(queue) == 0 {
		s.mu.Unlock()
		return false
	}
	status := queue[0]
	s.failures[key] = queue[1:]
	s.mu.Unlock()

	writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
	return true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if !s.authorized(w, r) || s.injected(w, http.MethodGet, path) {
		return
	}
	if ref := r.URL.Query().Get("ref"); ref != "" && ref != s.Branch {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No commit found for the ref " + ref})
		return
	}

	content, ok := s.File(path)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	s.mu.Lock()
	limit := s.inlineLimit
	s.mu.Unlock()
	if limit > 0 && len(content) > limit {
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"path":     path,
			"encoding": "none",
			"content":  "",
			"size":     len(content),
			"sha":      BlobSHA(content),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type":     "file",
		"path":     path,
		"encoding": "base64",
		"content":  wrapBase64(content),
		"size":     len(content),
		"sha":      BlobSHA(content),
	})
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	sha := r.PathValue("sha")
	if !s.authorized(w, r) || s.injected(w, http.MethodGet, "git/blobs/"+sha) {
		return
	}

	s.mu.Lock()
	var (
		content []byte
		found   bool
	)
	for _, c := range s.files {
		if BlobSHA(c) == sha {
			content, found = c, true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sha":      sha,
		"size":     len(content),
		"encoding": "base64",
		"content":  wrapBase64(content),
	})
}

// wrapBase64 encodes content the way the real API does, at 60 columns.
func wrapBase64(content []byte) string {
	enc := base64.StdEncoding.EncodeToString(content)
	var b strings.Builder
	for len(enc) > 60 {
		b.WriteString(enc[:60])
		b.WriteByte('\n')
		enc = enc[60:]
	}
	b.WriteString(enc)
	return b.String()
}

type putBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if !s.authorized(w, r) || s.injected(w, http.MethodPut, path) {
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	var body putBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}
	if body.Message == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid request: message is required"})
		return
	}
	if body.Branch != "" && body.Branch != s.Branch {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Branch not found"})
		return
	}
	content, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "content is not valid Base64"})
		return
	}

	s.mu.Lock()
	hook := s.beforePut
	s.mu.Unlock()
	if hook != nil {
		hook(path)
	}

	s.mu.Lock()
	current, exists := s.files[path]
	switch {
	case exists && body.SHA == "":
		s.mu.Unlock()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": `Invalid request. "sha" wasn't supplied.`})
		return
	case exists && body.SHA != BlobSHA(current):
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match %s", path, body.SHA)})
		return
	case !exists && body.SHA != "":
		s.mu.Unlock()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "sha does not match any file"})
		return
	}
	s.files[path] = content
	s.mu.Unlock()

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"content": map[string]string{"path": path, "sha": BlobSHA(content)},
		"commit":  map[string]string{"message": body.Message},
	})
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	content, ok := s.File(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(content)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
