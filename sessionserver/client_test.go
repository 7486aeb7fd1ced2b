package sessionserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-mclib/mcserver/sessionserver"
)

func TestHasJoinedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != "Notch" {
			t.Errorf("username query = %q, want Notch", r.URL.Query().Get("username"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"11111111222233334444555555555555","name":"Notch","properties":[]}`))
	}))
	defer srv.Close()

	c := sessionserver.NewClientWithURL(srv.URL, nil)
	resp, err := c.HasJoined(context.Background(), "Notch", "deadbeef")
	if err != nil {
		t.Fatalf("HasJoined: %v", err)
	}
	dashed, err := resp.DashedUUID()
	if err != nil {
		t.Fatalf("DashedUUID: %v", err)
	}
	want := "11111111-2222-3333-4444-555555555555"
	if dashed != want {
		t.Errorf("DashedUUID() = %q, want %q", dashed, want)
	}
}

func TestHasJoinedNoContentIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := sessionserver.NewClientWithURL(srv.URL, nil)
	if _, err := c.HasJoined(context.Background(), "Notch", "deadbeef"); err == nil {
		t.Fatal("HasJoined: want error on 204, got nil")
	}
}

func TestHasJoinedNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"ForbiddenOperationException","errorMessage":"nope"}`))
	}))
	defer srv.Close()

	c := sessionserver.NewClientWithURL(srv.URL, nil)
	if _, err := c.HasJoined(context.Background(), "Notch", "deadbeef"); err == nil {
		t.Fatal("HasJoined: want error on 403, got nil")
	}
}

func TestHasJoinedNameMismatchIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"11111111222233334444555555555555","name":"NotNotch","properties":[]}`))
	}))
	defer srv.Close()

	c := sessionserver.NewClientWithURL(srv.URL, nil)
	if _, err := c.HasJoined(context.Background(), "Notch", "deadbeef"); err == nil {
		t.Fatal("HasJoined: want error on name mismatch, got nil")
	}
}
