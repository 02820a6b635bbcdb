package contents

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/document"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

// Reader fetches the published document from the public site. Each request
// carries a t=<unix millis> parameter so caches never serve a stale copy.
type Reader struct {
	siteURL  string
	dataPath string
	http     *http.Client
	now      func() time.Time
}

// NewReader builds a Reader for {siteURL}/{dataPath}.
func NewReader(siteURL, dataPath string, timeout time.Duration, hc *http.Client) *Reader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Reader{
		siteURL:  strings.TrimRight(siteURL, "/"),
		dataPath: strings.TrimLeft(dataPath, "/"),
		http:     hc,
		now:      time.Now,
	}
}

// Fetch downloads and decodes the document. A missing file is
// common.ErrNotFound.
func (r *Reader) Fetch(ctx context.Context) (models.Document, error) {
	q := url.Values{}
	q.Set("t", strconv.FormatInt(r.now().UnixMilli(), 10))
	u := fmt.Sprintf("%s/%s?%s", r.siteURL, r.dataPath, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Document{}, fmt.Errorf("build read request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := r.http.Do(req)
	if err != nil {
		return models.Document{}, &common.TransportError{Op: "read", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.Document{}, fmt.Errorf("read %s: %w", r.dataPath, common.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return models.Document{}, &common.TransportError{Op: "read", Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Document{}, &common.TransportError{Op: "read", Err: err}
	}
	return document.Decode(raw)
}
