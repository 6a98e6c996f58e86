// Package logging is the thin leveled layer over the standard log package
// that every other package writes through.
//
// Lines carry a [DEBUG], [INFO], [WARN], or [ERROR] tag. The threshold
// comes from LOG_LEVEL, or from DEBUG=1 as a shortcut, and is read once
// on first use. SetLevel overrides both for callers like the CLI that
// decide verbosity from flags instead of the environment.
package logging
