package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testTools() []Tool {
	return []Tool{
		{
			Name:        "echo",
			Description: "echoes its message back",
			InputSchema: objectSchema(map[string]any{
				"message": stringProp("text to echo"),
			}, "message"),
			Handler: func(_ context.Context, args json.RawMessage) (any, error) {
				var in struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return map[string]any{"echo": in.Message}, nil
			},
		},
		{
			Name:        "always_fails",
			Description: "returns a plain error",
			InputSchema: objectSchema(map[string]any{}),
			Handler: func(_ context.Context, _ json.RawMessage) (any, error) {
				return nil, errors.New("backend exploded")
			},
		},
		{
			Name:        "bad_params",
			Description: "returns a typed rpc error",
			InputSchema: objectSchema(map[string]any{}),
			Handler: func(_ context.Context, _ json.RawMessage) (any, error) {
				return nil, Errorf(CodeInvalidParams, "not like that")
			},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(testTools())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func makeRequest(t *testing.T, id, method string, params any) *Request {
	t.Helper()
	req := &Request{JSONRPC: "2.0", ID: json.RawMessage(id), Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		req.Params = raw
	}
	return req
}

func TestNewServerRejectsDuplicates(t *testing.T) {
	tools := testTools()
	tools = append(tools, tools[0])
	if _, err := NewServer(tools); err == nil {
		t.Fatal("expected duplicate tool error")
	}
}

func TestHandleInitialize(t *testing.T) {
	s := newTestServer(t)

	resp := s.Handle(context.Background(), makeRequest(t, "1", "initialize", nil))
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	res, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	if res["protocolVersion"] == "" {
		t.Error("missing protocolVersion")
	}
	if !s.initialized.Load() {
		t.Error("initialize did not mark server initialized")
	}
}

func TestHandleInvalidVersion(t *testing.T) {
	s := newTestServer(t)

	resp := s.Handle(context.Background(), &Request{JSONRPC: "1.0", Method: "server/ping"})
	if resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
		t.Fatalf("expected invalid request, got %+v", resp.Error)
	}
}

func TestHandleMethodNotFound(t *testing.T) {
	s := newTestServer(t)

	resp := s.Handle(context.Background(), makeRequest(t, "2", "no/such/method", nil))
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
	if string(resp.ID) != "2" {
		t.Errorf("id = %s, want 2", resp.ID)
	}
}

func TestToolsListKeepsOrder(t *testing.T) {
	s := newTestServer(t)

	resp := s.Handle(context.Background(), makeRequest(t, "3", "tools/list", nil))
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	infos := resp.Result.(map[string]any)["tools"].([]toolInfo)
	want := []string{"echo", "always_fails", "bad_params"}
	if len(infos) != len(want) {
		t.Fatalf("got %d tools, want %d", len(infos), len(want))
	}
	for i, name := range want {
		if infos[i].Name != name {
			t.Errorf("tools[%d] = %q, want %q", i, infos[i].Name, name)
		}
	}
}

func TestToolCall(t *testing.T) {
	s := newTestServer(t)

	resp := s.Handle(context.Background(), makeRequest(t, "4", "tools/call", map[string]any{
		"name":      "echo",
		"arguments": map[string]any{"message": "hello"},
	}))
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	res := resp.Result.(map[string]any)
	content := res["content"].([]map[string]any)
	if len(content) != 1 {
		t.Fatalf("got %d content blocks, want 1", len(content))
	}
	data := content[0]["data"].(map[string]any)
	if data["echo"] != "hello" {
		t.Errorf("echo = %v, want hello", data["echo"])
	}
}

func TestToolCallErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		params   map[string]any
		wantCode int
	}{
		{"unknown tool", map[string]any{"name": "nope"}, CodeInvalidParams},
		{"missing required arg", map[string]any{"name": "echo", "arguments": map[string]any{}}, CodeInvalidParams},
		{"typed error passes through", map[string]any{"name": "bad_params"}, CodeInvalidParams},
		{"plain error becomes internal", map[string]any{"name": "always_fails"}, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.Handle(context.Background(), makeRequest(t, "5", "tools/call", tt.params))
			if resp.Error == nil {
				t.Fatal("expected error")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %d, want %d (%s)", resp.Error.Code, tt.wantCode, resp.Error.Message)
			}
		})
	}
}

func TestServerInfoCountsRequests(t *testing.T) {
	s := newTestServer(t)

	s.Handle(context.Background(), makeRequest(t, "6", "server/ping", nil))
	resp := s.Handle(context.Background(), makeRequest(t, "7", "server/info", nil))
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	res := resp.Result.(map[string]any)
	if res["tools"] != 3 {
		t.Errorf("tools = %v, want 3", res["tools"])
	}
	if res["requests"].(int64) < 2 {
		t.Errorf("requests = %v, want >= 2", res["requests"])
	}
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

func TestHTTPTransport(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	body := `{"jsonrpc":"2.0","id":10,"method":"server/ping"}`
	httpResp, err := http.Post(ts.URL+"/rpc", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /rpc: %v", err)
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if string(resp.ID) != "10" {
		t.Errorf("id = %s, want 10", resp.ID)
	}
}

func TestHTTPTransportParseError(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	httpResp, err := http.Post(ts.URL+"/rpc", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST /rpc: %v", err)
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != CodeParseError {
		t.Fatalf("expected parse error, got %+v", resp.Error)
	}
}

func TestHTTPHealthz(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	httpResp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", httpResp.StatusCode)
	}
}

// ---------------------------------------------------------------------------
// NDJSON stream transport
// ---------------------------------------------------------------------------

func TestServeStream(t *testing.T) {
	s := newTestServer(t)

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"server/ping"}`,
		`this is not json`,
		`{"jsonrpc":"2.0","id":"abc","method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	err := s.ServeStream(context.Background(), strings.NewReader(input), &out)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("ServeStream: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d response lines, want 3:\n%s", len(lines), out.String())
	}

	var responses [3]Response
	for i, line := range lines {
		if err := json.Unmarshal([]byte(line), &responses[i]); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
	}

	if responses[0].Error != nil || string(responses[0].ID) != "1" {
		t.Errorf("line 0 = %+v, want id 1 success", responses[0])
	}
	if responses[1].Error == nil || responses[1].Error.Code != CodeParseError {
		t.Errorf("line 1 error = %+v, want parse error", responses[1].Error)
	}
	if responses[2].Error != nil || string(responses[2].ID) != `"abc"` {
		t.Errorf("line 2 = %+v, want id \"abc\" success", responses[2])
	}
}

// ---------------------------------------------------------------------------
// Tool schema validation
// ---------------------------------------------------------------------------

func TestValidateArgs(t *testing.T) {
	tool := &Tool{
		Name: "demo",
		InputSchema: objectSchema(map[string]any{
			"a": stringProp("first"),
			"b": intProp("second"),
		}, "a", "b"),
	}

	if err := tool.validateArgs(json.RawMessage(`{"a":"x","b":2}`)); err != nil {
		t.Errorf("complete args rejected: %v", err)
	}
	err := tool.validateArgs(json.RawMessage(`{"a":"x"}`))
	if err == nil {
		t.Fatal("expected missing-argument error")
	}
	var rpcErr *Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != CodeInvalidParams {
		t.Errorf("err = %v, want invalid params", err)
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("%q", "b")) {
		t.Errorf("err = %v, want mention of missing %q", err, "b")
	}

	if err := tool.validateArgs(json.RawMessage(`[1,2]`)); err == nil {
		t.Error("expected non-object arguments to be rejected")
	}
}
