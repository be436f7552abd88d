package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPath       = "path"
	KeyTemplate   = "template"
	KeyOutput     = "output"
	KeyFileName   = "file_name"
	KeyPost       = "post"
	KeyCount      = "count"
	KeyBytes      = "bytes"
	KeySize       = "size"
	KeyDurationMS = "duration_ms"
	KeyStep       = "step"
	KeyOp         = "op"
	KeyError      = "error"

	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Template(name string) slog.Attr   { return slog.String(KeyTemplate, name) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func FileName(n string) slog.Attr      { return slog.String(KeyFileName, n) }
func Post(title string) slog.Attr      { return slog.String(KeyPost, title) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Bytes(n int64) slog.Attr          { return slog.Int64(KeyBytes, n) }
func Size(human string) slog.Attr      { return slog.String(KeySize, human) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Step(name string) slog.Attr       { return slog.String(KeyStep, name) }
func Op(op string) slog.Attr           { return slog.String(KeyOp, op) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
