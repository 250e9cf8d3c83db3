// Package report persists compiled interview reports.
//
// The session orchestrator builds an [interview.Report] at session end and
// hands it to a [Store]. Two implementations ship: an append-only JSONL
// [FileStore] for single-user deployments, and a PostgreSQL store under
// report/postgres for multi-user ones. A mock lives in report/mock.
package report

import (
	"context"

	"github.com/talentecho/talentecho/pkg/interview"
)

// Store persists and lists interview reports.
//
// ownerKey scopes reports to a user; the empty string is the anonymous
// (global) scope. Implementations must be safe for concurrent use.
type Store interface {
	// Save persists one report under ownerKey.
	Save(ctx context.Context, rep *interview.Report, ownerKey string) error

	// List returns the owner's reports, newest first.
	List(ctx context.Context, ownerKey string) ([]*interview.Report, error)
}
