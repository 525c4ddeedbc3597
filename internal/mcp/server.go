package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockpicker/internal/metrics"
)

const (
	serverName      = "stockpicker"
	serverVersion   = "0.3.0"
	protocolVersion = "2024-11-05"

	// maxLine bounds a single NDJSON request line (16 MiB).
	maxLine = 16 << 20
)

// Server dispatches JSON-RPC 2.0 requests to registered tools. It serves two
// transports: HTTP POST with one request per body, and newline-delimited
// JSON over a raw stream.
type Server struct {
	tools   []Tool
	byName  map[string]*Tool
	started time.Time
	log     *slog.Logger

	initialized atomic.Bool
	requests    atomic.Int64
}

// NewServer creates a Server with the given tools. Tool order is preserved
// in tools/list results.
func NewServer(tools []Tool) (*Server, error) {
	s := &Server{
		tools:   tools,
		byName:  make(map[string]*Tool, len(tools)),
		started: time.Now(),
		log:     slog.Default().With("component", "mcp"),
	}
	for i := range tools {
		t := &tools[i]
		if t.Name == "" || t.Handler == nil {
			return nil, fmt.Errorf("tool %d: missing name or handler", i)
		}
		if _, dup := s.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		s.byName[t.Name] = t
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// Handle processes one request and returns its response.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != "2.0" {
		return errResponse(req, Errorf(CodeInvalidRequest, "jsonrpc must be \"2.0\""))
	}
	metrics.RPCRequests.WithLabelValues(req.Method).Inc()
	s.requests.Add(1)

	start := time.Now()
	var resp *Response
	switch req.Method {
	case "initialize":
		s.initialized.Store(true)
		resp = result(req, s.initializeResult())
	case "tools/list":
		resp = result(req, s.toolsListResult())
	case "tools/call":
		resp = s.handleToolCall(ctx, req)
	case "server/info":
		resp = result(req, s.infoResult())
	case "server/ping":
		resp = result(req, map[string]any{"pong": true, "time": time.Now().UTC().Format(time.RFC3339)})
	default:
		resp = errResponse(req, Errorf(CodeMethodNotFound, "method %q not found", req.Method))
	}

	if resp.Error != nil {
		s.log.Warn("request failed", "method", req.Method, "code", resp.Error.Code, "msg", resp.Error.Message)
	} else {
		s.log.Debug("request done", "method", req.Method, "elapsed", time.Since(start).Round(time.Millisecond))
	}
	return resp
}

func (s *Server) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": serverVersion,
		},
	}
}

func (s *Server) toolsListResult() map[string]any {
	infos := make([]toolInfo, 0, len(s.tools))
	for _, t := range s.tools {
		infos = append(infos, toolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return map[string]any{"tools": infos}
}

func (s *Server) infoResult() map[string]any {
	return map[string]any{
		"name":        serverName,
		"version":     serverVersion,
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"tools":       len(s.tools),
		"requests":    s.requests.Load(),
		"initialized": s.initialized.Load(),
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolCall(ctx context.Context, req *Request) *Response {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req, Errorf(CodeInvalidParams, "parsing params: %s", err))
	}

	tool, ok := s.byName[params.Name]
	if !ok {
		metrics.ToolCalls.WithLabelValues(params.Name, "unknown").Inc()
		return errResponse(req, Errorf(CodeInvalidParams, "unknown tool %q", params.Name))
	}

	if err := tool.validateArgs(params.Arguments); err != nil {
		metrics.ToolCalls.WithLabelValues(params.Name, "error").Inc()
		return errResponse(req, err)
	}

	out, err := tool.Handler(ctx, params.Arguments)
	if err != nil {
		metrics.ToolCalls.WithLabelValues(params.Name, "error").Inc()
		return errResponse(req, err)
	}
	metrics.ToolCalls.WithLabelValues(params.Name, "ok").Inc()

	return result(req, map[string]any{
		"content": []map[string]any{
			{"type": "json", "data": out},
		},
		"isError": false,
	})
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

// RegisterRoutes registers the RPC endpoint plus health and metrics routes
// on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rpc", s.handleHTTP)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok\n")
	})
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns an http.Handler serving the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errResponse(nil, Errorf(CodeParseError, "parsing request: %s", err)))
		return
	}
	writeJSON(w, s.Handle(r.Context(), &req))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("encoding response", "err", err)
	}
}

// ---------------------------------------------------------------------------
// NDJSON stream transport
// ---------------------------------------------------------------------------

// ServeListener accepts connections and serves newline-delimited JSON-RPC on
// each until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}
		go func() {
			defer conn.Close()
			if err := s.ServeStream(ctx, conn, conn); err != nil && err != io.EOF {
				s.log.Warn("stream ended", "err", err)
			}
		}()
	}
}

// ServeStream reads newline-delimited requests from r and writes one
// response line per request to w, until EOF or ctx cancellation.
func (s *Server) ServeStream(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		var resp *Response
		if err := json.Unmarshal(line, &req); err != nil {
			resp = errResponse(nil, Errorf(CodeParseError, "parsing request: %s", err))
		} else {
			resp = s.Handle(ctx, &req)
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}
