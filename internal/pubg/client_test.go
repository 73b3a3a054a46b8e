package pubg

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const samplesJSON = `{"data":{"type":"sample","id":"s1","relationships":{"matches":{"data":[
	{"type":"match","id":"m1"},{"type":"match","id":"m2"},{"type":"match","id":"m3"}]}}}}`

const matchJSON = `{
  "data": {
    "type": "match", "id": "m1",
    "attributes": {"gameMode": "squad-fpp", "shardId": "steam", "createdAt": "2019-03-01T10:00:00Z"},
    "relationships": {"assets": {"data": [{"type": "asset", "id": "a1"}]}}
  },
  "included": [
    {"type": "participant", "id": "p1", "attributes": {}},
    {"type": "asset", "id": "a1", "attributes": {"name": "telemetry", "URL": "TELEMETRY_URL"}}
  ]
}`

const telemetryJSON = `[
  {"_T":"LogMatchStart","_D":"2019-03-01T10:01:00Z","common":{"isGame":0},"mapName":"Savage_Main"},
  {"_T":"LogItemPickup","_D":"2019-03-01T10:02:00Z","common":{"isGame":0.1},
   "character":{"name":"a","location":{"x":1,"y":2,"z":3}},
   "item":{"itemId":"Item_Weapon_AK47_C","category":"Weapon"}}
]`

func newTestServer(t *testing.T, gzipTelemetry bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/shards/pc-sea/samples", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(samplesJSON))
	})
	mux.HandleFunc("/shards/pc-sea/matches/m1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.ReplaceAll(matchJSON, "TELEMETRY_URL", srv.URL+"/telemetry/a1.json")))
	})
	mux.HandleFunc("/telemetry/a1.json", func(w http.ResponseWriter, r *http.Request) {
		if !gzipTelemetry {
			w.Write([]byte(telemetryJSON))
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(telemetryJSON))
		gz.Close()
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSamples(t *testing.T) {
	srv := newTestServer(t, false)
	c := NewClient("key", "", WithBaseURL(srv.URL))

	ids, err := c.Samples(context.Background())
	if err != nil {
		t.Fatalf("Samples: %v", err)
	}
	if len(ids) != 3 || ids[0] != "m1" || ids[2] != "m3" {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestSamplesUnauthorized(t *testing.T) {
	srv := newTestServer(t, false)
	c := NewClient("wrong", "pc-sea", WithBaseURL(srv.URL))

	_, err := c.Samples(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestMatchAndTelemetry(t *testing.T) {
	for _, gz := range []bool{false, true} {
		srv := newTestServer(t, gz)
		c := NewClient("key", "pc-sea", WithBaseURL(srv.URL))

		info, err := c.Match(context.Background(), "m1")
		if err != nil {
			t.Fatalf("Match: %v", err)
		}
		if info.GameMode != "squad-fpp" || info.Shard != "steam" {
			t.Errorf("unexpected match info %+v", info)
		}
		if info.TelemetryURL != srv.URL+"/telemetry/a1.json" {
			t.Errorf("telemetry URL: got %q", info.TelemetryURL)
		}

		events, err := c.Telemetry(context.Background(), info.TelemetryURL)
		if err != nil {
			t.Fatalf("Telemetry (gzip=%v): %v", gz, err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		pickup := events[1]
		if pickup.Item == nil || pickup.Item.Category != "Weapon" {
			t.Errorf("pickup item not decoded: %+v", pickup.Item)
		}
		if pickup.Character == nil || pickup.Character.Location.Z != 3 {
			t.Errorf("pickup location not decoded: %+v", pickup.Character)
		}
		if pickup.Common.IsGame != 0.1 {
			t.Errorf("phase: want 0.1, got %v", pickup.Common.IsGame)
		}
	}
}

func TestMatchNotFound(t *testing.T) {
	srv := newTestServer(t, false)
	c := NewClient("key", "pc-sea", WithBaseURL(srv.URL))

	_, err := c.Match(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTelemetryUnavailable(t *testing.T) {
	srv := newTestServer(t, false)
	c := NewClient("key", "pc-sea", WithBaseURL(srv.URL))

	if _, err := c.Telemetry(context.Background(), ""); !errors.Is(err, ErrTelemetryUnavailable) {
		t.Errorf("empty URL: expected ErrTelemetryUnavailable, got %v", err)
	}
	if _, err := c.Telemetry(context.Background(), srv.URL+"/telemetry/gone.json"); !errors.Is(err, ErrTelemetryUnavailable) {
		t.Errorf("404: expected ErrTelemetryUnavailable, got %v", err)
	}
}

func TestParseMatchFallsBackToFirstAsset(t *testing.T) {
	doc := []byte(`{"data":{"id":"m9","attributes":{}},"included":[{"type":"asset","id":"x","attributes":{"URL":"u"}}]}`)
	info, err := parseMatch(doc)
	if err != nil {
		t.Fatalf("parseMatch: %v", err)
	}
	if info.TelemetryURL != "u" {
		t.Errorf("expected fallback asset URL, got %q", info.TelemetryURL)
	}
}

func TestParseMatchMalformed(t *testing.T) {
	if _, err := parseMatch([]byte(`{not json`)); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}
