package kalshi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchRawPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("series_ticker"); got != "KXNFLGAME" {
			t.Errorf("series_ticker = %q", got)
		}
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, `{"markets": [{"ticker": "M1", "yes_bid": 47, "yes_ask": 49}], "cursor": "page2"}`)
		case "page2":
			fmt.Fprint(w, `{"markets": [{"ticker": "M2", "yes_bid": 30, "yes_ask": 33}], "cursor": ""}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "KXNFLGAME")
	payloads, _, err := c.FetchRaw(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(payloads) != 2 {
		t.Fatalf("got %d payloads, want 2", len(payloads))
	}
	if payloads[0]["ticker"] != "M1" || payloads[1]["ticker"] != "M2" {
		t.Errorf("payloads = %+v", payloads)
	}
}

func TestFetchRawUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"code": "rate_limited", "message": "slow down"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, _, err := c.FetchRaw(context.Background()); err == nil {
		t.Fatal("expected error on 429")
	}
}
