package shopify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kirkidoo/ProductAudit/config"
)

const bulkResultLines = `{"id":"gid://shopify/Product/1","title":"Widget","handle":"widget","tags":["Clearance"]}
{"id":"gid://shopify/ProductVariant/11","sku":"SKU-1","price":"10.00","product":{"id":"gid://shopify/Product/1","title":"Widget","handle":"widget","tags":["Clearance"]}}
{"id":"gid://shopify/ProductVariant/12","sku":"SKU-2","price":"12.50","product":{"id":"gid://shopify/Product/1","title":"Widget","handle":"widget"}}
{"id":"gid://shopify/MediaImage/99","image":{"url":"https://cdn.example.com/a.jpg"}}
`

// bulkFake scripts the bulk endpoint: the mutation, a sequence of
// currentBulkOperation responses, and the result file download.
type bulkFake struct {
	t       *testing.T
	srv     *httptest.Server
	polls   []string // JSON bodies for currentBulkOperation, in order; last repeats
	result  string   // JSONL served on GET
	started int
	current int
}

func newBulkFake(t *testing.T, polls ...string) *bulkFake {
	f := &bulkFake{t: t, polls: polls, result: bulkResultLines}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *bulkFake) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		_, err := w.Write([]byte(f.result))
		require.NoError(f.t, err)
		return
	}
	call := decodeCall(f.t, r)
	switch {
	case strings.Contains(call.Query, "bulkOperationRunQuery"):
		f.started++
		writeData(f.t, w, `{"bulkOperationRunQuery":{"bulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"CREATED"},"userErrors":[]}}`)
	case strings.Contains(call.Query, "currentBulkOperation"):
		i := f.current
		if i >= len(f.polls) {
			i = len(f.polls) - 1
		}
		f.current++
		body := strings.ReplaceAll(f.polls[i], "{{url}}", f.srv.URL+"/result.jsonl")
		writeData(f.t, w, body)
	default:
		f.t.Errorf("unexpected query: %s", call.Query)
		writeData(f.t, w, `{}`)
	}
}

func (f *bulkFake) client() *Client {
	cfg := config.ShopifyConfig{
		StoreName:    "test-shop",
		AccessToken:  "token",
		APIVersion:   "2025-07",
		PollInterval: time.Millisecond,
	}
	rl := config.RateLimitConfig{MaxAttempts: 3, InitialBackoffMs: 1, PacingBufferMs: 1}
	return NewClient(cfg, rl, zerolog.Nop(), WithEndpoint(f.srv.URL))
}

func TestFetchAllVariants(t *testing.T) {
	fake := newBulkFake(t,
		`{"currentBulkOperation":null}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"RUNNING","objectCount":"250"}}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"RUNNING","objectCount":"400"}}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"COMPLETED","objectCount":"4","url":"{{url}}"}}`,
	)

	var stages []Stage
	variants, err := fake.client().FetchAllVariants(context.Background(), false, func(p Progress) {
		stages = append(stages, p.Stage)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.started)
	require.Len(t, variants, 2, "only ProductVariant lines survive the JSONL filter")
	assert.Equal(t, "SKU-1", variants[0].SKU)
	assert.Equal(t, "SKU-2", variants[1].SKU)
	assert.Equal(t, "gid://shopify/Product/1", variants[0].Product.ID)

	require.NotEmpty(t, stages)
	assert.Equal(t, StageStarting, stages[0])
	assert.Equal(t, StageDone, stages[len(stages)-1])
	assert.Contains(t, stages, StagePolling)
	assert.Contains(t, stages, StageDownloading)
}

func TestFetchAllVariantsAttachesToRunningOperation(t *testing.T) {
	// An operation is already in flight: attach to it instead of submitting
	// a duplicate (the store allows one bulk query at a time).
	fake := newBulkFake(t,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/9","status":"RUNNING","objectCount":"100"}}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/9","status":"RUNNING","objectCount":"200"}}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/9","status":"COMPLETED","objectCount":"4","url":"{{url}}"}}`,
	)

	variants, err := fake.client().FetchAllVariants(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, fake.started, "must not submit while an operation is in flight")
	require.Len(t, variants, 2)
	assert.Equal(t, "SKU-1", variants[0].SKU)
}

func TestFetchAllVariantsReusesFinishedOperation(t *testing.T) {
	// A previous session's completed operation still has its result file:
	// download it directly, no new submission, no polling.
	fake := newBulkFake(t,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/9","status":"COMPLETED","objectCount":"4","url":"{{url}}"}}`,
	)

	variants, err := fake.client().FetchAllVariants(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, fake.started)
	assert.Equal(t, 1, fake.current, "reuse needs no polling")
	require.Len(t, variants, 2)
}

func TestFetchAllVariantsForceRefreshIgnoresFinishedOperation(t *testing.T) {
	fake := newBulkFake(t,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/9","status":"COMPLETED","objectCount":"4","url":"{{url}}"}}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/10","status":"COMPLETED","objectCount":"4","url":"{{url}}"}}`,
	)

	variants, err := fake.client().FetchAllVariants(context.Background(), true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.started, "force refresh submits a fresh operation")
	require.Len(t, variants, 2)
}

func TestFetchAllVariantsRepollsCompletedWithoutURL(t *testing.T) {
	// COMPLETED with no url yet means the result file is still being
	// assembled; treating it as an empty catalog would report the whole
	// feed as missing.
	fake := newBulkFake(t,
		`{"currentBulkOperation":null}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"COMPLETED","objectCount":"4"}}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"COMPLETED","objectCount":"4"}}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"COMPLETED","objectCount":"4","url":"{{url}}"}}`,
	)

	variants, err := fake.client().FetchAllVariants(context.Background(), false, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fake.current, 4, "url-less completion must be re-polled")
	require.Len(t, variants, 2)
}

func TestFetchAllVariantsEmptyResultFile(t *testing.T) {
	fake := newBulkFake(t,
		`{"currentBulkOperation":null}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"COMPLETED","objectCount":"0","url":"{{url}}"}}`,
	)
	fake.result = ""

	variants, err := fake.client().FetchAllVariants(context.Background(), false, nil)
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestFetchAllVariantsFailedOperation(t *testing.T) {
	fake := newBulkFake(t,
		`{"currentBulkOperation":null}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"FAILED","errorCode":"ACCESS_DENIED"}}`,
	)

	_, err := fake.client().FetchAllVariants(context.Background(), false, nil)
	var bulkErr *BulkOperationError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, "FAILED", bulkErr.Status)
	assert.Equal(t, "ACCESS_DENIED", bulkErr.Code)
}

func TestFetchAllVariantsStartUserError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := decodeCall(t, r)
		if strings.Contains(call.Query, "currentBulkOperation") {
			writeData(t, w, `{"currentBulkOperation":null}`)
			return
		}
		writeData(t, w, `{"bulkOperationRunQuery":{"bulkOperation":null,"userErrors":[{"field":null,"message":"Bulk operations are not available for this shop"}]}}`)
	}))

	_, err := client.FetchAllVariants(context.Background(), false, nil)
	var userErrs UserErrors
	require.ErrorAs(t, err, &userErrs)
	assert.Contains(t, userErrs.Error(), "not available")
}

func TestFetchAllVariantsPollDeadline(t *testing.T) {
	fake := newBulkFake(t,
		`{"currentBulkOperation":null}`,
		`{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"RUNNING","objectCount":"1"}}`,
	)
	client := fake.client()
	client.pollDeadline = 20 * time.Millisecond

	_, err := client.FetchAllVariants(context.Background(), false, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
