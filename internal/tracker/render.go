package tracker

import (
	"go.uber.org/zap"
)

// Renderer receives the full view after every change, in state order.
// Render must not block or call back into the Session.
type Renderer interface {
	Render(View)
}

type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

// ChannelRenderer hands views to a consumer goroutine. Only the latest view
// is buffered; an unread older view is replaced.
type ChannelRenderer struct {
	ch chan View
}

func NewChannelRenderer() *ChannelRenderer {
	return &ChannelRenderer{ch: make(chan View, 1)}
}

func (r *ChannelRenderer) Render(v View) {
	for {
		select {
		case r.ch <- v:
			return
		default:
		}
		select {
		case <-r.ch:
		default:
		}
	}
}

func (r *ChannelRenderer) Views() <-chan View {
	return r.ch
}

// LogRenderer writes a one-line summary of every refresh tick.
func LogRenderer(logger *zap.Logger) Renderer {
	return RendererFunc(func(v View) {
		if v.Tick == 0 || v.Reason != ReasonTick {
			return
		}
		quotes := make([]string, len(v.Board.Rows))
		for i, row := range v.Board.Rows {
			quotes[i] = string(row.Symbol) + "=" + row.Quote.String()
		}
		logger.Info("quotes refreshed",
			zap.String("run_id", v.RunID),
			zap.Uint64("tick", v.Tick),
			zap.Uint64("generation", v.Board.Generation),
			zap.Strings("quotes", quotes),
		)
	})
}
