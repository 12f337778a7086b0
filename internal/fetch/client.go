// Package fetch retrieves videos from the download endpoint, one reference
// per request.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sorazip/sorazip/internal/refs"
	"github.com/sorazip/sorazip/internal/utils"
)

const (
	postURLPrefix  = "https://sora.chatgpt.com/p/"
	maxTitleLength = 120
)

// Item is a successfully fetched video.
type Item struct {
	Ref      refs.Reference
	Filename string
	Data     []byte
}

// ItemError records why a single reference could not be fetched.
// StatusCode is zero when no response was received.
type ItemError struct {
	Ref        refs.Reference
	StatusCode int
	Err        error
}

func (e *ItemError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code %d", e.Ref, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.Ref, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

var ErrNoTitle = errors.New("no title in post metadata")

type Client struct {
	endpoint     *url.URL
	metaEndpoint string
	doer         utils.HTTPDoer
}

// NewClient returns a Client that requests "<endpoint>?id=<ref>".
// metaEndpoint is only needed for LookupTitle.
func NewClient(endpoint, metaEndpoint string, doer utils.HTTPDoer) (*Client, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported endpoint scheme: %q", parsed.Scheme)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return &Client{endpoint: parsed, metaEndpoint: metaEndpoint, doer: doer}, nil
}

// URL returns the download URL for ref.
func (c *Client) URL(ref refs.Reference) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("id", ref.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// Open issues the download request for ref and returns the response on a
// 2xx status. The caller closes the body.
func (c *Client) Open(ctx context.Context, ref refs.Reference) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(ref), nil)
	if err != nil {
		return nil, &ItemError{Ref: ref, Err: err}
	}
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, &ItemError{Ref: ref, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &ItemError{Ref: ref, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// Fetch downloads the whole video for ref into memory.
func (c *Client) Fetch(ctx context.Context, ref refs.Reference) (*Item, error) {
	resp, err := c.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ItemError{Ref: ref, Err: fmt.Errorf("reading body: %w", err)}
	}
	filename := ResolveFilename(resp.Header.Get("Content-Disposition"), ref)
	log.Debug().Str("op", "fetch/client").Str("ref", ref.String()).Int("bytes", len(data)).Msgf("fetched %s", filename)
	return &Item{Ref: ref, Filename: filename, Data: data}, nil
}

type postMetadata struct {
	PostInfo struct {
		Title string `json:"title"`
	} `json:"post_info"`
}

// LookupTitle asks the metadata proxy for the post title of ref.
func (c *Client) LookupTitle(ctx context.Context, ref refs.Reference) (string, error) {
	if c.metaEndpoint == "" {
		return "", ErrNoTitle
	}
	target := c.metaEndpoint + url.QueryEscape(postURLPrefix+ref.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.doer.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata lookup returned %d", resp.StatusCode)
	}
	var meta postMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return "", fmt.Errorf("decoding metadata: %w", err)
	}
	return cleanTitle(meta.PostInfo.Title)
}

func cleanTitle(title string) (string, error) {
	title = strings.NewReplacer("\r", " ", "\n", " ").Replace(title)
	if strings.TrimSpace(title) == "" {
		return "", ErrNoTitle
	}
	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}
	return title, nil
}
