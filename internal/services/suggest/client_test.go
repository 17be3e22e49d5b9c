package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"recmatch/internal/services"
)

func completionBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestSuggestParsesRecommendations(t *testing.T) {
	var gotAuth string
	var gotRequest chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write(completionBody(t, `{"recommendations": [
			{"title": "Shutter Island", "year": "2010", "external_id": "tt1130884", "media_type_hint": "movie"},
			{"title": "  ", "year": ""},
			{"title": "Memento", "year": "2000"}
		]}`))
	}))
	defer server.Close()

	client := NewClient("key", server.URL)
	stubs, err := client.Suggest(context.Background(), "Inception", "a dream heist", "movie", 5)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}

	if gotAuth != "Bearer key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotRequest.ResponseFormat["type"] != "json_object" {
		t.Fatalf("response_format = %v, want json_object", gotRequest.ResponseFormat)
	}
	if len(stubs) != 2 {
		t.Fatalf("stubs = %d, want 2 (blank title dropped)", len(stubs))
	}
	if stubs[0].Title != "Shutter Island" || stubs[0].ExternalID != "tt1130884" {
		t.Fatalf("first stub = %+v", stubs[0])
	}
}

func TestSuggestEnforcesLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, `{"recommendations": [
			{"title": "One"}, {"title": "Two"}, {"title": "Three"}
		]}`))
	}))
	defer server.Close()

	client := NewClient("key", server.URL)
	stubs, err := client.Suggest(context.Background(), "Seed", "", "", 2)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(stubs) != 2 {
		t.Fatalf("stubs = %d, want 2", len(stubs))
	}
}

func TestSuggestStripsCodeFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, "```json\n{\"recommendations\": [{\"title\": \"Memento\"}]}\n```"))
	}))
	defer server.Close()

	client := NewClient("key", server.URL)
	stubs, err := client.Suggest(context.Background(), "Seed", "", "", 5)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(stubs) != 1 || stubs[0].Title != "Memento" {
		t.Fatalf("stubs = %+v, want Memento", stubs)
	}
}

func TestSuggestRateLimitedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("key", server.URL)
	_, err := client.Suggest(context.Background(), "Seed", "", "", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *services.HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want HTTPStatusError", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", statusErr.StatusCode)
	}
	if !services.Retryable(err) {
		t.Fatal("429 should classify as retryable")
	}
}

func TestSuggestRequiresSeedAndKey(t *testing.T) {
	client := NewClient("", "http://localhost:0")
	if _, err := client.Suggest(context.Background(), "", "", "", 5); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for missing seed", err)
	}
	if _, err := client.Suggest(context.Background(), "Seed", "", "", 5); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation for missing key", err)
	}
}

func TestDecodeModelJSONProseWrapped(t *testing.T) {
	var payload struct {
		Recommendations []struct {
			Title string `json:"title"`
		} `json:"recommendations"`
	}
	content := `Here are your picks: {"recommendations": [{"title": "Memento"}]} enjoy!`
	if err := decodeModelJSON(content, &payload); err != nil {
		t.Fatalf("decodeModelJSON: %v", err)
	}
	if len(payload.Recommendations) != 1 || payload.Recommendations[0].Title != "Memento" {
		t.Fatalf("payload = %+v", payload)
	}
}
