package domain

// SyncStatus is the terminal state of one sync pass.
type SyncStatus string

const (
	// SyncCommitted means every requested page was processed and the
	// accepted records were persisted.
	SyncCommitted SyncStatus = "committed"

	// SyncFailed means the pass hit a fatal error. Pages committed
	// before the failure stay persisted; nothing is rolled back.
	SyncFailed SyncStatus = "failed"

	// SyncTooSoon means the cooldown window has not elapsed since the
	// last successful pass. It is an expected outcome, not a failure.
	SyncTooSoon SyncStatus = "too_soon"
)

// SyncResult is the single terminal outcome a Synchronizer invocation
// reports to its caller.
type SyncResult struct {
	Status SyncStatus

	// Prompts lists the records committed or updated by this pass.
	// Populated only when Status is SyncCommitted.
	Prompts []Prompt

	// Message carries the failure cause when Status is SyncFailed.
	Message string
}

// ProgressKind discriminates events on the informational progress stream.
type ProgressKind string

const (
	ProgressPageStarted     ProgressKind = "page_started"
	ProgressPageFetched     ProgressKind = "page_fetched"
	ProgressPostSkipped     ProgressKind = "post_skipped"
	ProgressPromptCommitted ProgressKind = "prompt_committed"
	ProgressPassFinished    ProgressKind = "pass_finished"
)

// ProgressEvent is one entry on the per-pass diagnostic side channel.
// It is informational only and never part of the SyncResult.
type ProgressEvent struct {
	Kind   ProgressKind
	Page   int
	PostID string
	Detail string
}
