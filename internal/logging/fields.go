package logging

import "log/slog"

// Common field names for consistent logging across commands.
const (
	FieldRunID        = "run_id"
	FieldDeviceID     = "device_id"
	FieldSession      = "session"
	FieldPayloadCount = "payload_count"
	FieldBodyBytes    = "body_bytes"
	FieldPath         = "path"
	FieldError        = "error"
)

func DeviceID(id string) slog.Attr {
	return slog.String(FieldDeviceID, id)
}

func Session(session string) slog.Attr {
	return slog.String(FieldSession, session)
}

func PayloadCount(n int) slog.Attr {
	return slog.Int(FieldPayloadCount, n)
}

func BodyBytes(n int) slog.Attr {
	return slog.Int(FieldBodyBytes, n)
}

func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
