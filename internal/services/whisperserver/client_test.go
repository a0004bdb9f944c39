package whisperserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"voicecorpus/internal/services"
)

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFFdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribePostsMultipart(t *testing.T) {
	var gotLanguage, gotModel, gotFile string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model")
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotFile = header.Filename + ":" + string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":" Hello world.\n"}`)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL + "/", Model: "ggml-base"})
	text, err := client.Transcribe(context.Background(), writeClip(t), "en-us")
	if err != nil {
		t.Fatal(err)
	}
	if text != " Hello world.\n" {
		t.Fatalf("text = %q", text)
	}
	if gotLanguage != "en" || gotModel != "ggml-base" {
		t.Fatalf("form fields language=%q model=%q", gotLanguage, gotModel)
	}
	if gotFile != "clip.wav:RIFFdata" {
		t.Fatalf("file part = %q", gotFile)
	}
}

func TestTranscribeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{URL: server.URL})
	_, err := client.Transcribe(context.Background(), writeClip(t), "en")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("got %v, want ErrExternalTool", err)
	}
	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected wrapped status error, got %v", err)
	}
}

func TestTranscribeErrorField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"error":"failed to process audio"}`)
	}))
	defer server.Close()

	_, err := NewClient(Config{URL: server.URL}).Transcribe(context.Background(), writeClip(t), "en")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("got %v, want ErrExternalTool", err)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	client := NewClient(Config{})
	if client.Endpoint() != DefaultURL+"/inference" {
		t.Fatalf("endpoint = %q", client.Endpoint())
	}
	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), "en")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestTranscribeCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(Config{URL: server.URL}).Transcribe(ctx, writeClip(t), "en")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
