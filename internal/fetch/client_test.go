package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sorazip/sorazip/internal/refs"
	"github.com/sorazip/sorazip/internal/utils"
)

const testRef = refs.Reference("s_6910c6372de8819190b35e3b2ee3df1f")

func TestResolveFilename(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		want        string
	}{
		{"no header", "", "s_6910c6372de8819190b35e3b2ee3df1f.mp4"},
		{"quoted", `attachment; filename="sunset.mp4"`, "sunset.mp4"},
		{"unquoted", `attachment; filename=sunset.mp4`, "sunset.mp4"},
		{"unquoted with space", `attachment; filename=my sunset.mp4`, "my sunset.mp4"},
		{"rfc5987", `attachment; filename*=UTF-8''caf%C3%A9.mp4`, "café.mp4"},
		{"path traversal", `attachment; filename="../../etc/passwd"`, "passwd"},
		{"windows path", `attachment; filename="C:\videos\clip.mp4"`, "clip.mp4"},
		{"no filename param", `attachment`, "s_6910c6372de8819190b35e3b2ee3df1f.mp4"},
		{"only dots", `attachment; filename=".."`, "s_6910c6372de8819190b35e3b2ee3df1f.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFilename(tt.disposition, testRef)
			if got != tt.want {
				t.Errorf("ResolveFilename(%q) = %q, want %q", tt.disposition, got, tt.want)
			}
			if again := ResolveFilename(tt.disposition, testRef); again != got {
				t.Errorf("ResolveFilename not stable: %q then %q", got, again)
			}
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, server.URL+"/api-proxy/", utils.NewSorazipHTTPClient(utils.HTTPClientConfig{}))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestFetchSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != string(testRef) {
			t.Errorf("id = %q, want %q", got, testRef)
		}
		if ua := r.Header.Get("User-Agent"); ua != utils.ToolUserAgent {
			t.Errorf("User-Agent = %q, want %q", ua, utils.ToolUserAgent)
		}
		w.Header().Set("Content-Disposition", `attachment; filename="clip.mp4"`)
		w.Write([]byte("video-bytes"))
	})
	item, err := client.Fetch(context.Background(), testRef)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if item.Filename != "clip.mp4" {
		t.Errorf("Filename = %q, want clip.mp4", item.Filename)
	}
	if string(item.Data) != "video-bytes" {
		t.Errorf("Data = %q", item.Data)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	_, err := client.Fetch(context.Background(), testRef)
	var itemErr *ItemError
	if !errors.As(err, &itemErr) {
		t.Fatalf("expected *ItemError, got %v", err)
	}
	if itemErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", itemErr.StatusCode)
	}
	if itemErr.Ref != testRef {
		t.Errorf("Ref = %q", itemErr.Ref)
	}
}

func TestFetchTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()
	client, err := NewClient(endpoint, "", utils.NewSorazipHTTPClient(utils.HTTPClientConfig{}))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	_, err = client.Fetch(context.Background(), testRef)
	var itemErr *ItemError
	if !errors.As(err, &itemErr) || itemErr.StatusCode != 0 || itemErr.Err == nil {
		t.Fatalf("expected transport *ItemError, got %v", err)
	}
}

func TestNewClientRejectsBadEndpoint(t *testing.T) {
	for _, endpoint := range []string{"ftp://example.com", "://bad", ""} {
		if _, err := NewClient(endpoint, "", utils.NewSorazipHTTPClient(utils.HTTPClientConfig{})); err == nil {
			t.Errorf("NewClient(%q) expected error", endpoint)
		}
	}
}

func TestURL(t *testing.T) {
	client, err := NewClient("https://api.example.com", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "https://api.example.com/?id=" + string(testRef)
	if got := client.URL(testRef); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestLookupTitle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api-proxy/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if !strings.Contains(r.URL.RawPath+r.URL.Path, string(testRef)) {
			t.Errorf("post reference missing from %q", r.URL.String())
		}
		w.Write([]byte(`{"post_info":{"title":"line one\r\nline two"}}`))
	})
	title, err := client.LookupTitle(context.Background(), testRef)
	if err != nil {
		t.Fatalf("LookupTitle() error = %v", err)
	}
	if title != "line one  line two" {
		t.Errorf("title = %q", title)
	}
}

func TestCleanTitle(t *testing.T) {
	long := strings.Repeat("é", 200)
	got, err := cleanTitle(long)
	if err != nil {
		t.Fatal(err)
	}
	if n := len([]rune(got)); n != maxTitleLength {
		t.Errorf("title length = %d, want %d", n, maxTitleLength)
	}
	if _, err := cleanTitle(" \n "); !errors.Is(err, ErrNoTitle) {
		t.Errorf("expected ErrNoTitle, got %v", err)
	}
}
