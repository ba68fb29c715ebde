package domain

import "time"

// OutcomeKind classifies a single fetch attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeZeroArticles
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeZeroArticles:
		return "zero_articles"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the per-source, per-run result of a fetch attempt.
// Count is set for successes, Message for failures.
type Outcome struct {
	Kind    OutcomeKind
	Count   int
	Message string
}

func SuccessOutcome(count int) Outcome { return Outcome{Kind: OutcomeSuccess, Count: count} }

func ZeroArticlesOutcome() Outcome { return Outcome{Kind: OutcomeZeroArticles} }

func FailureOutcome(msg string) Outcome { return Outcome{Kind: OutcomeFailure, Message: msg} }

// RunStatus is the audit status written for each source.
type RunStatus string

const (
	RunStatusSuccess      RunStatus = "success"
	RunStatusZeroArticles RunStatus = "zero_articles"
	RunStatusFail         RunStatus = "fail"
)

// Status maps an outcome to its audit status.
func (o Outcome) Status() RunStatus {
	switch o.Kind {
	case OutcomeSuccess:
		return RunStatusSuccess
	case OutcomeZeroArticles:
		return RunStatusZeroArticles
	default:
		return RunStatusFail
	}
}

// RunLogEntry is one append-only audit row per source per run.
type RunLogEntry struct {
	SourceID   int64     `db:"source_id"`
	FeedURL    string    `db:"feed_url"`
	Status     RunStatus `db:"status"`
	HTTPStatus *int      `db:"http_status"`
	Message    string    `db:"message"`
	FetchedAt  time.Time `db:"fetched_at"`
}

// RunSummary aggregates the outcome of one run.
type RunSummary struct {
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
	Considered         int           `json:"considered"`
	Succeeded          int           `json:"succeeded"`
	Failed             int           `json:"failed"`
	ZeroArticles       int           `json:"zero_articles"`
	FailureUpdates     int           `json:"failure_updates"`
	Deactivations      int           `json:"deactivations"`
	Inserted           int           `json:"inserted"`
	ZeroArticleSources []SourceRef   `json:"zero_article_sources,omitempty"`
	DeactivatedSources []int64       `json:"deactivated_sources,omitempty"`
}
