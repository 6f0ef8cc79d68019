package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shoenig/test/must"
	"github.com/shoenig/test/wait"

	cookingtimer "github.com/wichananm65/cooking-timer"
	"github.com/wichananm65/cooking-timer/internal/assets"
	"github.com/wichananm65/cooking-timer/internal/config"
)

type stubPage struct{}

func (stubPage) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("page") })
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	src, err := assets.Open("", cookingtimer.Assets, "static")
	must.NoError(t, err)
	return New(config.Config{CORSOrigins: "*"}, stubPage{}, src.HTTP())
}

func TestNew_RequestIDGenerated(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(httptest.NewRequest("GET", "/", nil))
	must.NoError(t, err)
	must.EqOp(t, fiber.StatusOK, res.StatusCode)
	must.NotEq(t, "", res.Header.Get(fiber.HeaderXRequestID))
}

func TestNew_RequestIDEchoed(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-1")
	res, err := app.Test(req)
	must.NoError(t, err)
	must.EqOp(t, "req-1", res.Header.Get(fiber.HeaderXRequestID))
}

func TestNew_ServesStatic(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(httptest.NewRequest("GET", "/static/style.css", nil))
	must.NoError(t, err)
	must.EqOp(t, fiber.StatusOK, res.StatusCode)

	b, err := io.ReadAll(res.Body)
	must.NoError(t, err)
	must.StrContains(t, string(b), ".timer")
}

func TestNew_MissingStaticIs404(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(httptest.NewRequest("GET", "/static/nope.js", nil))
	must.NoError(t, err)
	must.EqOp(t, fiber.StatusNotFound, res.StatusCode)
}

func TestNew_WithoutStatic(t *testing.T) {
	app := New(config.Config{CORSOrigins: "*"}, stubPage{}, nil)

	res, err := app.Test(httptest.NewRequest("GET", "/static/style.css", nil))
	must.NoError(t, err)
	must.EqOp(t, fiber.StatusNotFound, res.StatusCode)
}

func TestNew_CORS(t *testing.T) {
	app := New(config.Config{CORSOrigins: "https://example.com"}, stubPage{}, nil)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://example.com")
	res, err := app.Test(req)
	must.NoError(t, err)
	must.EqOp(t, "https://example.com", res.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLog(t *testing.T) *syncBuffer {
	t.Helper()
	var buf syncBuffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestNew_RecoversPanics(t *testing.T) {
	logs := captureLog(t)
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set(fiber.HeaderXRequestID, "panic-1")
	res, err := app.Test(req)
	must.NoError(t, err)
	must.EqOp(t, fiber.StatusInternalServerError, res.StatusCode)

	// the request line is still written for a panicking handler
	out := logs.String()
	must.StrContains(t, out, `"request_id":"panic-1"`)
	must.StrContains(t, out, `"status":500`)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	must.NoError(t, err)
	addr := ln.Addr().String()
	must.NoError(t, ln.Close())
	return addr
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	app := newTestApp(t)
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, app, addr) }()

	must.Wait(t, wait.InitialSuccess(
		wait.ErrorFunc(func() error {
			conn, err := net.Dial("tcp", addr)
			if err == nil {
				conn.Close()
			}
			return err
		}),
		wait.Timeout(5*time.Second),
		wait.Gap(20*time.Millisecond),
	))

	cancel()
	select {
	case err := <-done:
		must.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- Run(ctx, newTestApp(t), freeAddr(t)) }()

	select {
	case err := <-done:
		must.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return for an already cancelled context")
	}
}

func TestRun_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	must.NoError(t, err)
	defer ln.Close()

	err = Run(context.Background(), newTestApp(t), ln.Addr().String())
	must.ErrorContains(t, err, "listen")
}
