package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/bassista/go_pagewatch/internal/logger"
	"github.com/bassista/go_pagewatch/internal/target"
	"golang.org/x/net/html"
)

const (
	DefaultUserAgent = "go_pagewatch/1.0"
	maxBodyBytes     = 10 << 20
)

// HTTPSource performs a GET on the target URL and, when the target has a
// selector, narrows the document to the first matching element.
type HTTPSource struct {
	client    *http.Client
	userAgent string
}

// NewHTTPSource creates a source whose requests are bounded by timeout.
// A zero timeout leaves requests bounded only by the caller's context.
func NewHTTPSource(timeout time.Duration, userAgent string) *HTTPSource {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPSource{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// NewHTTPSourceWithClient is used by tests to inject an httptest client.
func NewHTTPSourceWithClient(client *http.Client, userAgent string) *HTTPSource {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPSource{client: client, userAgent: userAgent}
}

func (s *HTTPSource) Fetch(ctx context.Context, t target.Target) ([]byte, error) {
	log := logger.WithComponent("source")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", ErrFetch, t.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: %s body exceeds %d bytes", ErrFetch, t.URL, maxBodyBytes)
	}
	log.Debugf("fetched %d bytes from %s (HTTP %d)", len(body), t.URL, resp.StatusCode)

	if t.Selector == "" {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, ErrEmptyContent
		}
		return body, nil
	}

	content, err := extract(body, t.Selector, t.Format)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	return []byte(content), nil
}

// extract returns the text (or markdown) of the first element matching selector.
func extract(body []byte, selector, format string) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", ErrFetch, err)
	}

	node := querySelector(doc, selector)
	if node == nil {
		return "", fmt.Errorf("%w: %q", ErrSelectorNoMatch, selector)
	}

	if format == target.FormatMarkdown {
		var buf bytes.Buffer
		if err := html.Render(&buf, node); err != nil {
			return "", fmt.Errorf("render selection: %w", err)
		}
		md, err := htmltomarkdown.ConvertString(buf.String())
		if err != nil {
			return "", fmt.Errorf("convert selection to markdown: %w", err)
		}
		return md, nil
	}
	return textContent(node), nil
}

// textContent concatenates every text node under n in document order.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
