// Package logger builds *slog.Logger instances with functional options and
// injects request-scoped values, such as the request id and the active tenant
// schema, into every record through ContextExtractor callbacks.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "marketplace"),
//		logger.WithConfig(cfg.Log),
//		logger.WithContextExtractors(
//			requestid.LoggerExtractor(),
//			schema.LoggerExtractor(),
//			tenant.LoggerExtractor(),
//		),
//	)
//
// Helpers in attr.go keep attribute keys consistent: Error, Schema, Tenant,
// Host, RequestID, Component, Event.
package logger
