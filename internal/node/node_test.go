package node

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/model"
)

func TestNodeRunsJobAndReportsDone(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	upgrader := websocket.Upgrader{}
	received := make(chan string, 16)

	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		job := model.Job{
			ID:     "job-1",
			Config: model.ExecConfig{ThreadCount: 1, Iterations: 1, RampUpTime: 1},
			EnvMap: map[string]string{},
			Requests: []model.RequestTemplate{
				{ID: "t1", Name: "getOK", Method: "GET", URL: target.URL},
			},
		}
		payload, _ := json.Marshal(struct {
			Kind string    `json:"kind"`
			Job  model.Job `json:"job"`
		}{Kind: "job", Job: job})
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			t.Errorf("writing job frame: %v", err)
			return
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(data)
			if string(data) == "done" {
				return
			}
		}
	}))
	defer hub.Close()

	hubURL, _ := url.Parse(hub.URL)
	n := New(hubURL.Host, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go n.Run(ctx)

	select {
	case msg := <-received:
		if !strings.Contains(msg, "stats") && msg != "done" {
			t.Errorf("unexpected first frame from node: %s", msg)
		}
	case <-time.After(4 * time.Second):
		t.Fatal("timed out waiting for node to report back")
	}
}
