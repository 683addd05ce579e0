// Package logging constructs the application's slog loggers.
//
// Two output formats are supported: a JSON handler for machine
// consumption and a console handler that renders compact
// timestamp/level/component lines for interactive use. Helpers in
// attrs.go keep field names consistent across subsystems.
package logging
