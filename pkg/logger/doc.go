// Package logger builds configured log/slog loggers for the toolkit.
//
// Defaults come from the LOG_LEVEL and LOG_FORMAT environment variables and
// can be overridden with options. WithService applies tier-aware defaults:
// text output at debug level for development, JSON at info level for
// everything else. Context extractors inject request-scoped attributes, such
// as the deployment tier via environment.LoggerExtractor, at log time.
//
//	log := logger.New(
//		logger.WithService("trading-api", env),
//		logger.WithContextExtractors(environment.LoggerExtractor()),
//	)
package logger
