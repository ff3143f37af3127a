package logger

import (
	"context"
	log "log/slog"
)

// TraceIDKey 请求上下文与日志共用的 trace id 键名。
// HTTP 请求和 cron 任务都会在各自入口注入，摄入路径没有 trace id。
const TraceIDKey = "trace_id"

// ContextHandler 把 ctx 里的 trace id 附加到每条日志记录
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if ctx != nil {
		if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
			r.AddAttrs(log.String("trace_id", traceID))
		}
	}
	return h.Handler.Handle(ctx, r)
}
