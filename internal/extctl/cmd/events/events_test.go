package events

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	v1 "github.com/kiosk404/nubabel/internal/hivemind/handler/v1"
	"github.com/kiosk404/nubabel/pkg/utils/json"
	"github.com/spf13/viper"
)

func newFactory(t *testing.T, h http.Handler) util.Factory {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	v := viper.New()
	v.Set(util.FlagServer, srv.URL)
	return util.NewFactoryWithClient(v, srv.Client())
}

func TestEmitComplete(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		set       []string
		dataJSON  string
		wantEvent string
		wantData  map[string]interface{}
		wantErr   bool
	}{
		{"short name", []string{"a", "enable"}, nil, "", "extension:enable", nil, false},
		{"full name", []string{"a", "extension:configChange"}, []string{"units=metric"}, "", "extension:configChange", map[string]interface{}{"units": "metric"}, false},
		{"json then set", []string{"a", "configChange"}, []string{"b=2"}, `{"a":1}`, "extension:configChange", map[string]interface{}{"a": float64(1), "b": "2"}, false},
		{"bad set", []string{"a", "enable"}, []string{"novalue"}, "", "", nil, true},
		{"bad json", []string{"a", "enable"}, nil, `[1]`, "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &EmitOptions{Set: tt.set, DataJSON: tt.dataJSON}
			err := o.Complete(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr {
				return
			}
			if o.Event != tt.wantEvent {
				t.Errorf("event = %q", o.Event)
			}
			if fmt.Sprint(o.data) != fmt.Sprint(tt.wantData) {
				t.Errorf("data = %v, want %v", o.data, tt.wantData)
			}
		})
	}
}

func TestEmitValidate(t *testing.T) {
	if err := (&EmitOptions{Event: "extension:explode"}).Validate(); err == nil {
		t.Error("unknown event accepted")
	}
	if err := (&EmitOptions{Event: "extension:disable"}).Validate(); err != nil {
		t.Error(err)
	}
}

func TestEmitRun(t *testing.T) {
	var got v1.EmitRequest
	var path string
	f := newFactory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"emitted":true}`)
	}))

	streams, _, out, _ := util.NewTestIOStreams()
	o := &EmitOptions{factory: f, IOStreams: streams}
	if err := o.Complete([]string{"@acme/weather", "enable"}); err != nil {
		t.Fatal(err)
	}
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if path != "/v1/extensions/@acme%2Fweather/events" || got.Event != "extension:enable" {
		t.Errorf("path = %q, body = %+v", path, got)
	}
	if !strings.Contains(out.String(), "extension:enable dispatched to @acme/weather") {
		t.Errorf("output: %q", out)
	}
}

func TestTailStopsAfterCount(t *testing.T) {
	f := newFactory(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event:ready\ndata:{}\n\n")
		for i := 1; i <= 3; i++ {
			fmt.Fprintf(w, "event:extension:enable\ndata:{\"extensionId\":\"a\",\"event\":\"extension:enable\",\"dispatchId\":\"d%d\",\"timestamp\":\"2026-01-02T03:04:05Z\",\"data\":{\"n\":%d}}\n\n", i, i)
		}
	}))

	streams, _, out, errOut := util.NewTestIOStreams()
	o := &TailOptions{Count: 2, ShowData: true, factory: f, IOStreams: streams}
	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[1], "extension:enable  a  d2") || !strings.Contains(lines[1], `{"n":2}`) {
		t.Errorf("line = %q", lines[1])
	}
	if !strings.Contains(errOut.String(), "waiting for events") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestTailValidate(t *testing.T) {
	if err := (&TailOptions{Count: -1}).Validate(); err == nil {
		t.Error("negative count accepted")
	}
}
