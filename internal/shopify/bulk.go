package shopify

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Kirkidoo/ProductAudit/internal/types"
)

// Bulk operation terminal and transient states.
const (
	bulkStatusCreated   = "CREATED"
	bulkStatusRunning   = "RUNNING"
	bulkStatusCompleted = "COMPLETED"
	bulkStatusFailed    = "FAILED"
	bulkStatusCanceled  = "CANCELED"
	bulkStatusExpired   = "EXPIRED"
)

type bulkOperation struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ErrorCode   string `json:"errorCode"`
	ObjectCount string `json:"objectCount"`
	URL         string `json:"url"`
}

// inFlight reports whether the operation is still producing its result.
func (op *bulkOperation) inFlight() bool {
	return op.Status == bulkStatusCreated || op.Status == bulkStatusRunning
}

// reusable reports whether the operation already carries a downloadable
// result file.
func (op *bulkOperation) reusable() bool {
	return (op.Status == bulkStatusCompleted || op.Status == bulkStatusCanceled) && op.URL != ""
}

// FetchAllVariants snapshots the entire variant catalog through a bulk
// operation. The store allows one bulk query at a time, so the current
// operation is inspected first: an in-flight operation is attached to and
// polled instead of submitting a duplicate, and a finished operation whose
// result file is still available is downloaded directly unless forceRefresh
// demands fresh data.
func (c *Client) FetchAllVariants(ctx context.Context, forceRefresh bool, onProgress ProgressFunc) ([]types.VariantNode, error) {
	if c.pollDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.pollDeadline)
		defer cancel()
	}

	emit(onProgress, Progress{Stage: StageStarting, Message: "Starting bulk product fetch..."})

	op, err := c.currentBulkOperation(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking current bulk operation: %w", err)
	}
	switch {
	case op != nil && op.inFlight():
		c.log.Info().Str("operation_id", op.ID).Str("status", op.Status).
			Msg("attaching to bulk operation already in progress")
	case op != nil && op.reusable() && !forceRefresh:
		c.log.Info().Str("operation_id", op.ID).Msg("reusing previous bulk operation result")
		return c.downloadAndFinish(ctx, op.URL, onProgress)
	default:
		started, err := c.startBulkOperation(ctx)
		if err != nil {
			return nil, err
		}
		c.log.Info().Str("operation_id", started.ID).Msg("bulk operation started")
	}

	op, err = c.pollBulkOperation(ctx, onProgress)
	if err != nil {
		return nil, err
	}
	return c.downloadAndFinish(ctx, op.URL, onProgress)
}

func (c *Client) downloadAndFinish(ctx context.Context, url string, onProgress ProgressFunc) ([]types.VariantNode, error) {
	emit(onProgress, Progress{Stage: StageDownloading, Message: "Downloading product data..."})
	variants, err := c.downloadBulkResult(ctx, url, onProgress)
	if err != nil {
		return nil, err
	}
	emit(onProgress, Progress{
		Stage:   StageDone,
		Message: fmt.Sprintf("Fetched %d variants.", len(variants)),
		Fetched: len(variants),
		Total:   len(variants),
	})
	return variants, nil
}

// currentBulkOperation returns the store's current bulk query operation, or
// nil when none exists.
func (c *Client) currentBulkOperation(ctx context.Context) (*bulkOperation, error) {
	resp, err := c.execute(ctx, queryCurrentBulkOperation, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		CurrentBulkOperation *bulkOperation `json:"currentBulkOperation"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return nil, err
	}
	return payload.CurrentBulkOperation, nil
}

func (c *Client) startBulkOperation(ctx context.Context) (*bulkOperation, error) {
	resp, err := c.execute(ctx, mutationBulkRunQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("starting bulk operation: %w", err)
	}
	var payload struct {
		BulkOperationRunQuery struct {
			BulkOperation *bulkOperation `json:"bulkOperation"`
			UserErrors    UserErrors     `json:"userErrors"`
		} `json:"bulkOperationRunQuery"`
	}
	if err := resp.DecodeData(&payload); err != nil {
		return nil, err
	}
	if len(payload.BulkOperationRunQuery.UserErrors) > 0 {
		return nil, payload.BulkOperationRunQuery.UserErrors
	}
	if payload.BulkOperationRunQuery.BulkOperation == nil {
		return nil, &RequestError{Messages: []string{"bulk operation mutation returned no operation"}}
	}
	return payload.BulkOperationRunQuery.BulkOperation, nil
}

// pollBulkOperation waits until the current bulk operation has a result file.
// COMPLETED without a url is transient (the file is still being assembled)
// and is re-polled like RUNNING. The poll interval and overall deadline come
// from configuration; cancellation maps to the context.
func (c *Client) pollBulkOperation(ctx context.Context, onProgress ProgressFunc) (*bulkOperation, error) {
	for {
		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return nil, fmt.Errorf("polling bulk operation: %w", err)
		}

		op, err := c.currentBulkOperation(ctx)
		if err != nil {
			return nil, fmt.Errorf("polling bulk operation: %w", err)
		}
		if op == nil {
			return nil, &RequestError{Messages: []string{"no current bulk operation"}}
		}

		switch op.Status {
		case bulkStatusCreated, bulkStatusRunning:
			count, _ := strconv.Atoi(op.ObjectCount)
			emit(onProgress, Progress{
				Stage:   StagePolling,
				Message: fmt.Sprintf("Fetching products... (%d objects so far)", count),
				Fetched: count,
			})
		case bulkStatusCompleted:
			if op.URL == "" {
				emit(onProgress, Progress{
					Stage:   StagePolling,
					Message: "Waiting for result file...",
				})
				continue
			}
			return op, nil
		default:
			return nil, &BulkOperationError{Status: op.Status, Code: op.ErrorCode}
		}
	}
}

// downloadBulkResult streams the JSONL result file. Nested connections are
// flattened into their own lines by the bulk engine; only product variant
// rows are kept.
func (c *Client) downloadBulkResult(ctx context.Context, url string, onProgress ProgressFunc) ([]types.VariantNode, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode, Body: "bulk result download failed"}
	}

	variants := []types.VariantNode{}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var probe struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			return nil, fmt.Errorf("parsing bulk result line: %w", err)
		}
		if !strings.Contains(probe.ID, "/ProductVariant/") {
			continue
		}
		var node types.VariantNode
		if err := json.Unmarshal(line, &node); err != nil {
			return nil, fmt.Errorf("parsing variant %s: %w", probe.ID, err)
		}
		variants = append(variants, node)

		if len(variants)%500 == 0 {
			emit(onProgress, Progress{
				Stage:   StageDownloading,
				Message: fmt.Sprintf("Parsed %d variants...", len(variants)),
				Fetched: len(variants),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bulk result: %w", err)
	}
	return variants, nil
}
