package events

import "go.uber.org/zap"

// LogSink writes events to a zap logger. Progress ticks are logged at debug level.
func LogSink(l *zap.Logger) Sink {
	return SinkFunc(func(e Event) {
		fields := []zap.Field{zap.String("type", string(e.Type))}
		if e.Area != "" {
			fields = append(fields, zap.String("area", e.Area))
		}
		if e.Code != "" {
			fields = append(fields, zap.String("code", string(e.Code)))
		}
		if e.Item != nil {
			fields = append(fields, zap.String("item", e.Item.Key()))
			if e.Item.Language != "" {
				fields = append(fields, zap.String("language", e.Item.Language))
			}
		}

		switch e.Type {
		case TypeError:
			fields = append(fields, zap.Bool("will_retry", e.WillRetry))
			l.Error(e.Message, fields...)
		case TypeWarning:
			l.Warn(e.Message, fields...)
		case TypeProgress, TypeStatusUpdate:
			fields = append(fields, zap.Float64("progress", e.Progress))
			l.Debug(e.Message, fields...)
		case TypeDone, TypeAreaDone:
			fields = append(fields, zap.Duration("duration", e.Duration))
			l.Info(e.Message, fields...)
		default:
			l.Info(e.Message, fields...)
		}
	})
}
