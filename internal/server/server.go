// Package server orchestrates all components: NATS client, dispatcher,
// event publisher, HTTP status surface.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/message-router/internal/config"
	"github.com/morezero/message-router/pkg/commsutil"
	"github.com/morezero/message-router/pkg/dispatch"
	"github.com/morezero/message-router/pkg/events"
)

const logPrefix = "server:server"

// dispatcherForServer is the dispatcher surface the HTTP handlers need.
type dispatcherForServer interface {
	Types() []string
	Has(msgType string) bool
}

// Server is the message-router orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	httpServer *http.Server
	disp       dispatcherForServer
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	// Setup structured logging
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - Starting message-router", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	// Determine router subject
	routerSubject := cfg.RouterSubject
	if routerSubject == "" {
		routerSubject = commsutil.SubjectRouter
	}
	slog.Info(fmt.Sprintf("%s - Router subject: %s", logPrefix, routerSubject))

	// Step 1: Connect to COMMS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	s.nc = nc

	// Step 2: Create dispatcher with built-in handlers
	var publisher events.Publisher = &events.NoOpPublisher{}
	if cfg.PublishEvents {
		publisherOpts := &events.CommsPublisherOpts{}
		if cfg.DispatchedSubject != "" {
			publisherOpts.GlobalSubject = cfg.DispatchedSubject
		}
		publisher = events.NewCommsPublisher(nc, publisherOpts)
	}
	disp := newDispatcher(cfg, publisher)
	s.disp = disp

	// Step 3: Subscribe and bridge inbound messages to Dispatch
	sub, err := nc.Subscribe(routerSubject, inboundListener(ctx, disp, routerSubject))
	if err != nil {
		nc.Close()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, routerSubject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, routerSubject))

	// Step 4: Start HTTP status server
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome(routerSubject))
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	s.httpServer = &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP status server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Message-router is ready (%d handlers)", logPrefix, len(disp.Types())))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	// Graceful shutdown
	sub.Unsubscribe()
	s.httpServer.Shutdown(ctx)
	nc.Drain()

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// newDispatcher builds the router dispatcher with the built-in handlers.
func newDispatcher(cfg *config.Config, publisher events.Publisher) *dispatch.Dispatcher {
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = dispatch.NoTimeout
	}
	d := dispatch.NewDispatcher(dispatch.Options{
		Timeout:   timeout,
		Publisher: publisher,
	})
	registerBuiltins(d)
	return d
}

// registerBuiltins adds the handlers every router instance serves.
func registerBuiltins(d *dispatch.Dispatcher) {
	d.RegisterAll(map[string]dispatch.HandlerFunc{
		"ping": func(_ context.Context, _ *dispatch.Message, _ *dispatch.Context) (any, error) {
			return "pong", nil
		},
		"echo": func(_ context.Context, msg *dispatch.Message, _ *dispatch.Context) (any, error) {
			return dispatch.Ok(msg.Payload), nil
		},
		"router.types": func(_ context.Context, _ *dispatch.Message, _ *dispatch.Context) (any, error) {
			return d.Types(), nil
		},
	})
}

// inboundListener adapts one COMMS message to one Dispatch call. Malformed
// JSON never reaches the dispatcher; it is answered with an error envelope
// directly.
func inboundListener(ctx context.Context, disp *dispatch.Dispatcher, subject string) comms.MsgHandler {
	return func(m *comms.Msg) {
		respond := func(env dispatch.Envelope) {
			data, err := commsutil.EncodePayload(env)
			if err != nil {
				slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
				return
			}
			if m.Reply != "" {
				if err := m.Respond(data); err != nil {
					slog.Error(fmt.Sprintf("%s - failed to respond on %s: %v", logPrefix, subject, err))
				}
			}
		}

		var msg dispatch.Message
		if err := commsutil.DecodePayload(m.Data, &msg); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode message on %s: %v", logPrefix, subject, err))
			respond(dispatch.Err("Invalid message: malformed JSON"))
			return
		}

		sender := map[string]any{
			"transport": "comms",
			"subject":   m.Subject,
			"reply":     m.Reply,
		}
		respond(disp.Dispatch(ctx, &msg, sender))
	}
}

// healthOutput is the JSON body of the /health endpoint.
type healthOutput struct {
	Status    string `json:"status"`
	Comms     bool   `json:"comms"`
	Handlers  int    `json:"handlers"`
	Timestamp string `json:"timestamp"`
}

// handleHealth returns an HTTP handler reporting router health.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connected := s.nc != nil && s.nc.IsConnected()
		out := healthOutput{
			Status:    "healthy",
			Comms:     connected,
			Handlers:  len(s.disp.Types()),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if !connected {
			out.Status = "unhealthy"
		}
		w.Header().Set("Content-Type", "application/json")
		if out.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(out)
	}
}

// homePageTemplate is the HTML for the router home page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Message Router</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 700px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
  </style>
</head>
<body>
  <h1>Message Router</h1>
  <p class="meta">Routing status and registered handlers.</p>

  <section>
    <h2>Routing</h2>
    <p>Subject: <span class="stat">{{.Subject}}</span></p>
    <p>Dispatch timeout: <span class="stat">{{.Timeout}}</span></p>
    <p>Registered handlers: <span class="stat">{{len .Types}}</span></p>
  </section>

  <section>
    <h2>Handlers</h2>
    {{if not .Types}}
    <p>No handlers registered.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>#</th><th>Message type</th></tr>
      </thead>
      <tbody>
        {{range $i, $t := .Types}}
        <tr><td>{{$i}}</td><td>{{$t}}</td></tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Subject string
	Timeout string
	Types   []string
}

// handleHome returns an HTTP handler for the router home page.
func (s *Server) handleHome(subject string) http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		timeout := "disabled"
		if s.cfg.DispatchTimeout > 0 {
			timeout = s.cfg.DispatchTimeout.String()
		}
		data := homeData{
			Subject: subject,
			Timeout: timeout,
			Types:   s.disp.Types(),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
