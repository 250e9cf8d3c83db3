// Package mock provides a configurable in-memory [report.Store] for testing.
//
// Example:
//
//	store := &mock.Store{}
//	sess.Reports = store
//	...
//	if len(store.SaveCalls) != 1 {
//		t.Errorf("expected 1 save, got %d", len(store.SaveCalls))
//	}
package mock

import (
	"context"
	"sync"

	"github.com/talentecho/talentecho/pkg/interview"
	"github.com/talentecho/talentecho/pkg/report"
)

// Compile-time interface check.
var _ report.Store = (*Store)(nil)

// SaveCall records a single Save invocation.
type SaveCall struct {
	Report   *interview.Report
	OwnerKey string
}

// Store is an in-memory [report.Store] that records calls and serves List
// from the reports saved so far (newest first), unless overridden.
type Store struct {
	mu sync.Mutex

	// SaveErr, when set, is returned by Save.
	SaveErr error

	// ListResult, when non-nil, overrides the accumulated reports.
	ListResult []*interview.Report

	// ListErr, when set, is returned by List.
	ListErr error

	// SaveCalls records every Save invocation in order.
	SaveCalls []SaveCall
}

// Save implements [report.Store].
func (s *Store) Save(_ context.Context, rep *interview.Report, ownerKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCalls = append(s.SaveCalls, SaveCall{Report: rep, OwnerKey: ownerKey})
	return s.SaveErr
}

// List implements [report.Store].
func (s *Store) List(_ context.Context, ownerKey string) ([]*interview.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	if s.ListResult != nil {
		return s.ListResult, nil
	}
	var out []*interview.Report
	for i := len(s.SaveCalls) - 1; i >= 0; i-- {
		if s.SaveCalls[i].OwnerKey == ownerKey {
			out = append(out, s.SaveCalls[i].Report)
		}
	}
	return out, nil
}

// Saved returns a snapshot of recorded Save calls.
func (s *Store) Saved() []SaveCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SaveCall(nil), s.SaveCalls...)
}

// Reset clears all recorded calls and configured results.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveErr = nil
	s.ListResult = nil
	s.ListErr = nil
	s.SaveCalls = nil
}
