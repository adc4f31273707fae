package collect

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/layertree"
	"github.com/chromedp/chromedp"
)

// DefaultLayerWindow is how long AwaitSample listens for layer tree updates.
const DefaultLayerWindow = 1500 * time.Millisecond

// LayerSubscription counts compositor layers reported by
// LayerTree.layerTreeDidChange.
type LayerSubscription struct {
	target    context.Context
	cancel    context.CancelFunc
	latest    atomic.Int64
	closeOnce sync.Once
}

// EnableLayerTracking subscribes to layer tree changes on the target in ctx
// and enables the LayerTree domain.
func EnableLayerTracking(ctx context.Context) (*LayerSubscription, error) {
	listenCtx, cancel := context.WithCancel(ctx)
	sub := &LayerSubscription{target: ctx, cancel: cancel}

	chromedp.ListenTarget(listenCtx, func(ev any) {
		if e, ok := ev.(*layertree.EventLayerTreeDidChange); ok {
			sub.latest.Store(int64(len(e.Layers)))
		}
	})

	if err := chromedp.Run(ctx, layertree.Enable()); err != nil {
		sub.cancel()
		return nil, fmt.Errorf("enable layer tree: %w", err)
	}
	return sub, nil
}

// AwaitSample waits window and returns the most recent layer count, 0 when no
// update arrived. The subscription is closed afterwards.
func (s *LayerSubscription) AwaitSample(ctx context.Context, window time.Duration) (int, error) {
	defer s.Close()
	if err := sleep(ctx, window); err != nil {
		return 0, err
	}
	return int(s.latest.Load()), nil
}

// Close unsubscribes and disables the LayerTree domain. Safe to call more
// than once.
func (s *LayerSubscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.target.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(s.target, 5*time.Second)
		defer cancel()
		_ = chromedp.Run(ctx, layertree.Disable())
	})
}
