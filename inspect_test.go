package surveysync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-surveysync/pkg/binding"
	"github.com/goliatone/go-surveysync/pkg/loop/looptest"
	"github.com/goliatone/go-surveysync/pkg/protocol"
)

func newInspectedRuntime(t *testing.T) (*binding.Runtime, *looptest.Manual) {
	t.Helper()
	sched := looptest.NewManual()
	rt, err := NewRuntime(sched)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	_, err = rt.Initialize(context.Background(), protocol.InitConfig{
		ElementID: "s1",
		Schema:    `{"questions":[{"name":"q1","title":"First"}]}`,
		Data:      map[string]any{"q1": "hello"},
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	sched.Flush()
	return rt, sched
}

func TestInspectHandlerServesMounts(t *testing.T) {
	rt, _ := newInspectedRuntime(t)
	srv := httptest.NewServer(InspectHandler(rt))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/surveys/s1")
	if err != nil {
		t.Fatalf("get mount: %v", err)
	}
	defer resp.Body.Close()
	var body strings.Builder
	if _, err := io.Copy(&body, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !strings.Contains(body.String(), "First") {
		t.Fatalf("unexpected mount response %d: %s", resp.StatusCode, body.String())
	}

	resp, err = http.Get(srv.URL + "/surveys/missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/surveys")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var list struct {
		Surveys []string `json:"surveys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Surveys) != 1 || list.Surveys[0] != "s1" {
		t.Fatalf("unexpected list %v", list.Surveys)
	}
}

func TestInspectHandlerReadsSnapshotOnLoop(t *testing.T) {
	rt, sched := newInspectedRuntime(t)
	handler := InspectHandler(rt)

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/surveys/s1/data", nil))
	}()

	if !sched.WaitPosted(time.Second) {
		t.Fatal("snapshot request never reached the loop")
	}
	sched.Flush()
	<-done

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var data map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data["q1"] != "hello" {
		t.Fatalf("unexpected snapshot %v", data)
	}
}

func TestInspectHandlerMetrics(t *testing.T) {
	rt, _ := newInspectedRuntime(t)
	rec := httptest.NewRecorder()
	InspectHandler(rt).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "surveysync_instances_active") {
		t.Fatalf("metrics not exposed: %d", rec.Code)
	}
}
