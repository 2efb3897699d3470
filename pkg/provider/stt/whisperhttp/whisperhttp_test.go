package whisperhttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/barriocredito/voxpedido/pkg/provider/stt"
)

// TestNew_MissingServerURL ensures constructor rejects an empty server URL.
func TestNew_MissingServerURL(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Fatal("expected error for empty serverURL")
	}
}

// TestTranscribe sends a fake upload to a stub whisper server and checks the
// multipart fields and parsed reply.
func TestTranscribe(t *testing.T) {
	var gotLanguage, gotModel, gotFilename string
	var gotAudio []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/inference" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model")

		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotFilename = hdr.Filename
		gotAudio, _ = io.ReadAll(f)

		json.NewEncoder(w).Encode(map[string]string{
			"text":     " dos cocas y un pan ",
			"language": "es",
		})
	}))
	defer srv.Close()

	p, err := New(srv.URL, WithLanguage("es"), WithModel("base"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr, err := p.Transcribe(context.Background(), stt.Audio{
		Reader:   strings.NewReader("fake-audio-bytes"),
		Filename: "voice.webm",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if tr.Text != " dos cocas y un pan " {
		t.Errorf("Text = %q", tr.Text)
	}
	if tr.Language != "es" {
		t.Errorf("Language = %q, want es", tr.Language)
	}
	if gotLanguage != "es" {
		t.Errorf("language field = %q, want es", gotLanguage)
	}
	if gotModel != "base" {
		t.Errorf("model field = %q, want base", gotModel)
	}
	if gotFilename != "voice.webm" {
		t.Errorf("filename = %q, want voice.webm", gotFilename)
	}
	if string(gotAudio) != "fake-audio-bytes" {
		t.Errorf("audio body = %q", gotAudio)
	}
}

// TestTranscribe_NoDetectedLanguage ensures the configured language hint is
// not reported as a detection result when the server reply carries none.
func TestTranscribe_NoDetectedLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "hola"})
	}))
	defer srv.Close()

	p, err := New(srv.URL, WithLanguage("es"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr, err := p.Transcribe(context.Background(), stt.Audio{Reader: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Language != "" {
		t.Errorf("Language = %q, want empty so the caller's locale fallback applies", tr.Language)
	}
}

// TestTranscribe_ServerError maps non-200 replies to an error.
func TestTranscribe_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := New(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.Transcribe(context.Background(), stt.Audio{Reader: strings.NewReader("x")})
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

// TestTranscribe_NilReader rejects a missing audio reader.
func TestTranscribe_NilReader(t *testing.T) {
	p, err := New("http://localhost:8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.Transcribe(context.Background(), stt.Audio{})
	if err == nil {
		t.Fatal("expected error for nil reader")
	}
}
