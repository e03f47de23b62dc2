// Package sl holds small helpers for slog attributes.
package sl

import "log/slog"

// Err returns an attribute with the "error" key and the error text.
//
//	log.Error("failed to save analysis", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
