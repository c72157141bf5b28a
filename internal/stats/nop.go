package stats

import "context"

// NopStore discards every event. It is used when stats are disabled so
// callers never need a nil check.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (*NopStore) RecordDecision(context.Context, Event) error { return nil }

func (*NopStore) Recent(context.Context, int) ([]Event, error) { return []Event{}, nil }

func (*NopStore) Ping(context.Context) error { return nil }

func (*NopStore) Close() error { return nil }
