package triage_test

import (
	"testing"

	"github.com/Ranjith-47/care-navigator/internal/facility"
	"github.com/Ranjith-47/care-navigator/internal/refdata"
	"github.com/Ranjith-47/care-navigator/internal/triage"
)

type rankCall struct {
	category string
	severity int
}

// recordingRanker wraps the real ranker and remembers each call.
type recordingRanker struct {
	inner *facility.Ranker
	calls []rankCall
}

func (r *recordingRanker) Rank(category string, severity int) facility.Result {
	r.calls = append(r.calls, rankCall{category, severity})
	return r.inner.Rank(category, severity)
}

func newTestEngine(t *testing.T) (*triage.Engine, *recordingRanker) {
	t.Helper()
	tables, err := refdata.Default()
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	rr := &recordingRanker{inner: tables.Ranker()}
	return tables.Engine(rr), rr
}

func submitAll(t *testing.T, e *triage.Engine, s *triage.Session, inputs ...string) triage.Reply {
	t.Helper()
	var r triage.Reply
	for _, in := range inputs {
		r = e.Submit(s, in)
	}
	return r
}
