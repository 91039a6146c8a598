// Package logger wraps zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing,
//   - convenience functions (Infof, WarnKV, etc.).
//
// Booth loops take a context and log through the logger stored in it.
package logger
