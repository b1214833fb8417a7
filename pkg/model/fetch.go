package model

// FetchResult is the outcome of querying one feed for one term.
// It distinguishes "empty but healthy" (Records empty, Err nil) from
// "feed unreachable" (Err set), so the pipeline can report the two
// differently instead of conflating them.
type FetchResult[T any] struct {
	Source  string
	Term    string
	Records []T
	Err     error
}

// Failed reports whether the fetch itself failed.
func (r FetchResult[T]) Failed() bool { return r.Err != nil }

// Empty reports whether the fetch succeeded but matched nothing.
func (r FetchResult[T]) Empty() bool { return r.Err == nil && len(r.Records) == 0 }
