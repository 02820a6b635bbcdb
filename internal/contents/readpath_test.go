package contents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/contents/contentstest"
)

func TestReader_FetchAddsCacheBuster(t *testing.T) {
	srv := contentstest.New("o", "r", "main", "")
	defer srv.Close()
	srv.SetFile("data/strips.json", []byte(`{"entries":[{"id":"strip-001","mediaKind":"image","imageUrl":"a.png","videoUrl":null,"publishDate":"2024-01-01"}],"lastUpdated":null}`))

	r := NewReader(srv.URL+"/", "/data/strips.json", time.Second, nil)
	r.now = func() time.Time { return time.UnixMilli(1709251200000) }

	doc, err := r.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"strip-001"}, doc.IDs())

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GET /data/strips.json?t=1709251200000", reqs[0])
}

func TestReader_FetchNotFound(t *testing.T) {
	srv := contentstest.New("o", "r", "main", "")
	defer srv.Close()

	_, err := NewReader(srv.URL, "data/strips.json", time.Second, nil).Fetch(context.Background())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReader_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewReader(srv.URL, "x.json", time.Second, nil).Fetch(context.Background())
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestReader_FetchMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("{", 3)))
	}))
	defer srv.Close()

	_, err := NewReader(srv.URL, "x.json", time.Second, nil).Fetch(context.Background())
	assert.Error(t, err)
}
