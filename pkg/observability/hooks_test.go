package observability

import (
	"context"
	"testing"
	"time"
)

type recordingCacheHooks struct {
	hits, misses, sets, writeErrors int
}

func (r *recordingCacheHooks) OnCacheHit(context.Context, string)               { r.hits++ }
func (r *recordingCacheHooks) OnCacheMiss(context.Context, string)              { r.misses++ }
func (r *recordingCacheHooks) OnCacheSet(context.Context, string, int)          { r.sets++ }
func (r *recordingCacheHooks) OnCacheWriteError(context.Context, string, error) { r.writeErrors++ }

type recordingHTTPHooks struct {
	requests, responses, errors int
}

func (r *recordingHTTPHooks) OnRequest(context.Context, string, string, string) { r.requests++ }
func (r *recordingHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {
	r.responses++
}
func (r *recordingHTTPHooks) OnError(context.Context, string, string, string, error) { r.errors++ }

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	// Should not panic
	Cache().OnCacheHit(ctx, "express")
	Cache().OnCacheMiss(ctx, "express")
	Cache().OnCacheSet(ctx, "express", 128)
	HTTP().OnRequest(ctx, "GET", "api.npms.io", "/v2/package/express")
	HTTP().OnResponse(ctx, "GET", "api.npms.io", "/v2/package/express", 200, time.Millisecond)
}

func TestSetCacheHooks(t *testing.T) {
	defer Reset()

	rec := &recordingCacheHooks{}
	SetCacheHooks(rec)

	ctx := context.Background()
	Cache().OnCacheHit(ctx, "express")
	Cache().OnCacheMiss(ctx, "react")
	Cache().OnCacheSet(ctx, "react", 64)

	if rec.hits != 1 || rec.misses != 1 || rec.sets != 1 {
		t.Errorf("recorded hits=%d misses=%d sets=%d, want 1 each", rec.hits, rec.misses, rec.sets)
	}
}

func TestSetHTTPHooks(t *testing.T) {
	defer Reset()

	rec := &recordingHTTPHooks{}
	SetHTTPHooks(rec)

	ctx := context.Background()
	HTTP().OnRequest(ctx, "GET", "host", "/path")
	HTTP().OnError(ctx, "GET", "host", "/path", context.DeadlineExceeded)

	if rec.requests != 1 || rec.errors != 1 {
		t.Errorf("recorded requests=%d errors=%d, want 1 each", rec.requests, rec.errors)
	}
}

func TestSetNilHookIsIgnored(t *testing.T) {
	defer Reset()

	rec := &recordingCacheHooks{}
	SetCacheHooks(rec)
	SetCacheHooks(nil)

	Cache().OnCacheHit(context.Background(), "express")
	if rec.hits != 1 {
		t.Error("nil hooks should not replace registered hooks")
	}
}
