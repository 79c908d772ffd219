package shopify

// Stage identifies one phase of a remote fetch.
type Stage string

const (
	StageStarting    Stage = "starting"
	StagePolling     Stage = "polling"
	StageDownloading Stage = "downloading"
	StageFetching    Stage = "fetching"
	StageDone        Stage = "done"
)

// Progress is one observable step of a fetch. Events are emitted in order on
// the calling goroutine; a nil callback disables reporting.
type Progress struct {
	Stage   Stage
	Message string

	// Fetched and Total count variants where known. Total is zero when the
	// final size is not yet reported.
	Fetched int
	Total   int
}

// ProgressFunc receives fetch progress events.
type ProgressFunc func(Progress)

func emit(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}
