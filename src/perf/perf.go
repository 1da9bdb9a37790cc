package perf

import (
	"context"
	"sync"
	"time"
)

// RequestPerf records timed blocks for one request. Backend calls and
// template renders open blocks on it so slow pages can be broken down in
// the request log.
type RequestPerf struct {
	Route  string
	Path   string // the path actually matched
	Method string
	Start  time.Time
	End    time.Time
	Blocks []PerfBlock

	mu sync.Mutex
}

func MakeNewRequestPerf(route string, method string, path string) *RequestPerf {
	return &RequestPerf{
		Start:  time.Now(),
		Route:  route,
		Path:   path,
		Method: method,
	}
}

func (rp *RequestPerf) EndRequest() {
	for rp.EndBlock() {
	}
	rp.End = time.Now()
}

func (rp *RequestPerf) Checkpoint(category, description string) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	now := time.Now()
	rp.Blocks = append(rp.Blocks, PerfBlock{
		Start:       now,
		End:         now,
		Category:    category,
		Description: description,
	})
}

// StartBlock on a nil RequestPerf records nothing and returns a nil handle.
func (rp *RequestPerf) StartBlock(category, description string) *BlockHandle {
	if rp == nil {
		return nil
	}
	rp.mu.Lock()
	defer rp.mu.Unlock()

	rp.Blocks = append(rp.Blocks, PerfBlock{
		Start:       time.Now(),
		Category:    category,
		Description: description,
	})
	return &BlockHandle{rp: rp, index: len(rp.Blocks) - 1}
}

// Ends the most recently started block that is still open.
func (rp *RequestPerf) EndBlock() bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	for i := len(rp.Blocks) - 1; i >= 0; i -= 1 {
		if rp.Blocks[i].End.IsZero() {
			rp.Blocks[i].End = time.Now()
			return true
		}
	}
	return false
}

func (rp *RequestPerf) MsFromStart(block *PerfBlock) float64 {
	return float64(block.Start.Sub(rp.Start).Nanoseconds()) / 1000 / 1000
}

// BlockHandle ends one specific block, which matters when blocks are opened
// from concurrent goroutines (article and comments load in parallel).
type BlockHandle struct {
	rp    *RequestPerf
	index int
}

func (b *BlockHandle) End() {
	if b == nil {
		return
	}
	b.rp.mu.Lock()
	defer b.rp.mu.Unlock()
	if b.rp.Blocks[b.index].End.IsZero() {
		b.rp.Blocks[b.index].End = time.Now()
	}
}

type PerfBlock struct {
	Start       time.Time
	End         time.Time
	Category    string
	Description string
}

func (pb *PerfBlock) Duration() time.Duration {
	return pb.End.Sub(pb.Start)
}

func (pb *PerfBlock) DurationMs() float64 {
	return float64(pb.Duration().Nanoseconds()) / 1000 / 1000
}

type perfContextKey struct{}

// PerfContextKey is the key the website's RequestContext answers with its RequestPerf.
var PerfContextKey = perfContextKey{}

func AttachToContext(ctx context.Context, rp *RequestPerf) context.Context {
	return context.WithValue(ctx, PerfContextKey, rp)
}

func ExtractPerf(ctx context.Context) *RequestPerf {
	rp, _ := ctx.Value(PerfContextKey).(*RequestPerf)
	return rp
}

// StartBlock opens a block on the RequestPerf in ctx, if there is one. The
// returned handle is safe to End even when there was none.
func StartBlock(ctx context.Context, category, description string) *BlockHandle {
	return ExtractPerf(ctx).StartBlock(category, description)
}
