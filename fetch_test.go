package beethovision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetch(t *testing.T) {
	content := []byte("archive-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(content)
	}))
	defer server.Close()

	f := newFetcher(server.Client(), nil)
	dest := filepath.Join(t.TempDir(), "archive.zip")

	if err := f.fetch(context.Background(), server.URL, dest, nil); err != nil {
		t.Fatalf("fetch() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("downloaded content = %q, want %q", got, content)
	}

	// No temp file left behind.
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file was not cleaned up")
	}
}

func TestFetchProgress(t *testing.T) {
	content := make([]byte, 64*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(content)
	}))
	defer server.Close()

	f := newFetcher(server.Client(), nil)
	dest := filepath.Join(t.TempDir(), "archive.zip")

	var lastTotal, lastCompleted int64
	err := f.fetch(context.Background(), server.URL, dest, func(total, completed int64) {
		lastTotal = total
		lastCompleted = completed
	})
	if err != nil {
		t.Fatalf("fetch() error = %v", err)
	}

	if lastTotal != int64(len(content)) {
		t.Errorf("final total = %d, want %d", lastTotal, len(content))
	}
	if lastCompleted != int64(len(content)) {
		t.Errorf("final completed = %d, want %d", lastCompleted, len(content))
	}
}

func TestFetchInterstitial(t *testing.T) {
	content := []byte("the-real-file")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") == "" {
			// Large-file virus-scan warning page with confirm cookie.
			http.SetCookie(w, &http.Cookie{Name: "download_warning_123", Value: "tok42"})
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<html>Can't scan this file for viruses</html>")
			return
		}
		if got := r.URL.Query().Get("confirm"); got != "tok42" {
			t.Errorf("confirm token = %q, want %q", got, "tok42")
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(content)
	}))
	defer server.Close()

	f := newFetcher(server.Client(), nil)
	dest := filepath.Join(t.TempDir(), "archive.zip")

	if err := f.fetch(context.Background(), server.URL+"?id=abc", dest, nil); err != nil {
		t.Fatalf("fetch() error = %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("downloaded content = %q, want %q", got, content)
	}
}

func TestFetchInterstitialLoop(t *testing.T) {
	// A host that keeps answering HTML is an error, not an infinite retry.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>nope</html>")
	}))
	defer server.Close()

	f := newFetcher(server.Client(), nil)
	dest := filepath.Join(t.TempDir(), "archive.zip")

	err := f.fetch(context.Background(), server.URL, dest, nil)
	if !errors.Is(err, ErrFetchError) {
		t.Errorf("fetch() error = %v, want ErrFetchError", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination file should not exist after failed fetch")
	}
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := newFetcher(server.Client(), nil)
	dest := filepath.Join(t.TempDir(), "archive.zip")

	err := f.fetch(context.Background(), server.URL, dest, nil)
	if !errors.Is(err, ErrFetchError) {
		t.Errorf("fetch() error = %v, want ErrFetchError", err)
	}
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	f := newFetcher(http.DefaultClient, nil)
	dest := filepath.Join(t.TempDir(), "archive.zip")

	err := f.fetch(context.Background(), server.URL, dest, nil)
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("fetch() error = %v, want ErrNetworkError", err)
	}
}

func TestConfirmToken(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Add("Set-Cookie", "download_warning_13058876669334088843_abc=token99; Path=/")
	if got := confirmToken(resp); got != "token99" {
		t.Errorf("confirmToken() = %q, want %q", got, "token99")
	}

	// No warning cookie falls back to "t".
	empty := &http.Response{Header: http.Header{}}
	if got := confirmToken(empty); got != "t" {
		t.Errorf("confirmToken(no cookie) = %q, want %q", got, "t")
	}
}

func TestConfirmURL(t *testing.T) {
	tests := []struct {
		url, token, want string
	}{
		{"https://host/uc?export=download&id=x", "tok", "https://host/uc?export=download&id=x&confirm=tok"},
		{"https://host/file", "t", "https://host/file?confirm=t"},
	}
	for _, tt := range tests {
		if got := confirmURL(tt.url, tt.token); got != tt.want {
			t.Errorf("confirmURL(%q, %q) = %q, want %q", tt.url, tt.token, got, tt.want)
		}
	}
}
