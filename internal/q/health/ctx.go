package health

import "go.uber.org/zap"

// Ctx is embedded by types that log and return errors through a shared logger.
type Ctx struct {
	Logger *zap.Logger
}

func NewCtx(logger *zap.Logger) Ctx {
	return Ctx{Logger: logger}
}

func (c Ctx) LogNewErr(msg string, fields ...zap.Field) error {
	return LogNewErr(c.Logger, msg, fields...)
}

func (c Ctx) LogWrappedErr(msg string, wrapped error, fields ...zap.Field) error {
	return LogWrappedErr(c.Logger, msg, wrapped, fields...)
}

func (c Ctx) Log(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Info(msg, fields...)
	}
}

func (c Ctx) Debug(msg string, fields ...zap.Field) {
	if c.Logger != nil {
		c.Logger.Debug(msg, fields...)
	}
}
