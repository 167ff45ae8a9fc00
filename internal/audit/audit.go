// Package audit keeps a trail of authentication events.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
)

type Outcome string

const (
	Success Outcome = "success"
	Failure Outcome = "failure"
)

type Event struct {
	Action  string    `json:"action"`
	UserID  string    `json:"user_id,omitempty"`
	Email   string    `json:"email,omitempty"`
	Outcome Outcome   `json:"outcome"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"@timestamp"`
}

type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

type ElasticRecorder struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticRecorder(client *elasticsearch.Client, index string) *ElasticRecorder {
	return &ElasticRecorder{client: client, index: index}
}

func (r *ElasticRecorder) Record(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("audit: marshal: %w", err)
	}

	res, err := r.client.Index(r.index, bytes.NewReader(body), r.client.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("audit: index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("audit: index %s: %s", res.Status(), msg)
	}
	return nil
}
