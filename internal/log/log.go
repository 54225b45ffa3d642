package log

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

type entry struct {
	TS     string         `json:"ts"`
	Level  string         `json:"level"`
	ReqID  string         `json:"req_id,omitempty"`
	IP     string         `json:"ip,omitempty"`
	Method string         `json:"method,omitempty"`
	Path   string         `json:"path,omitempty"`
	SID    string         `json:"sid,omitempty"`
	Action string         `json:"action,omitempty"`
	Status int            `json:"status,omitempty"`
	Err    string         `json:"err,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Setup sends the std logger to stdout and, when path is set, to a rotated
// file as well. The returned closer flushes the file sink.
func Setup(path string) io.Closer {
	if path == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}
	}
	rot := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    20, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rot))
	return rot
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type sidKey struct{}

// WithSID tags ctx so that Ctx* helpers can attach the cart session.
func WithSID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sidKey{}, sid)
}

func write(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry{TS: time.Now().UTC().Format(time.RFC3339), Level: level, Action: action, Fields: fields}
	if c != nil {
		e.IP = c.IP()
		e.Method = c.Method()
		e.Path = c.Path()
		e.Status = c.Response().StatusCode()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			e.ReqID = rid
		}
		if sid, ok := c.Locals("sid").(string); ok {
			e.SID = sid
		}
	}
	emit(e, err)
}

func emit(e entry, err error) {
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

func Info(c *fiber.Ctx, action string, fields map[string]any) { write("info", c, action, nil, fields) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write("audit", c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write("warn", c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write("error", c, action, err, fields)
}

// CtxInfo / CtxError log from code that has no fiber.Ctx (services, repos).
func CtxInfo(ctx context.Context, action string, fields map[string]any) {
	emit(ctxEntry(ctx, "info", action, fields), nil)
}

func CtxError(ctx context.Context, action string, err error, fields map[string]any) {
	emit(ctxEntry(ctx, "error", action, fields), err)
}

func ctxEntry(ctx context.Context, level, action string, fields map[string]any) entry {
	e := entry{TS: time.Now().UTC().Format(time.RFC3339), Level: level, Action: action, Fields: fields}
	if ctx != nil {
		if sid, ok := ctx.Value(sidKey{}).(string); ok {
			e.SID = sid
		}
	}
	return e
}
