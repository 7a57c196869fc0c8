// Package lsp implements a minimal Language Server Protocol server for
// A0. Without a type system to drive completion or hover, the server
// honestly offers the one capability A0 can back with real analysis:
// diagnostics from the validator, republished on open and change.
package lsp

import (
	"context"
	"encoding/json"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/a0-lang/a0/internal/diagnostics"
	"github.com/a0-lang/a0/internal/runtime/ast"
	"github.com/a0-lang/a0/internal/runtime/lexer"
	"github.com/a0-lang/a0/internal/runtime/parser"
	"github.com/a0-lang/a0/internal/runtime/validator"
)

// Server implements the diagnostics-only LSP server for A0.
type Server struct {
	log           *zap.SugaredLogger
	conn          jsonrpc2.Conn
	client        protocol.Client
	workspaceRoot string
	capabilities  protocol.ServerCapabilities
	cancel        context.CancelFunc
}

// NewServer creates a new LSP server instance, using logger for every
// diagnostic the server itself emits (as distinct from the program
// diagnostics it publishes to the client).
func NewServer(logger *zap.SugaredLogger) *Server {
	return &Server{
		log: logger,
		capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{IncludeText: false},
			},
		},
	}
}

// Run starts the LSP server, serving over stdin/stdout until ctx is
// canceled.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting a0 lsp server")

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	stream := jsonrpc2.NewStream(stdrwc{})
	conn := jsonrpc2.NewConn(stream)
	s.conn = conn
	s.client = protocol.ClientDispatcher(conn, s.log.Desugar())

	conn.Go(ctx, s.handler())
	<-ctx.Done()

	s.log.Info("shutting down a0 lsp server")
	return conn.Close()
}

func (s *Server) handler() jsonrpc2.Handler {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		s.log.Debugw("received request", "method", req.Method())

		switch req.Method() {
		case protocol.MethodInitialize:
			return s.handleInitialize(ctx, reply, req)
		case protocol.MethodInitialized:
			return reply(ctx, nil, nil)
		case protocol.MethodShutdown:
			return reply(ctx, nil, nil)
		case protocol.MethodExit:
			return s.handleExit(ctx, reply, req)
		case protocol.MethodTextDocumentDidOpen:
			return s.handleDidOpen(ctx, reply, req)
		case protocol.MethodTextDocumentDidChange:
			return s.handleDidChange(ctx, reply, req)
		case protocol.MethodTextDocumentDidSave:
			return s.handleDidSave(ctx, reply, req)
		case protocol.MethodTextDocumentDidClose:
			return reply(ctx, nil, nil)
		default:
			return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
		}
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: "failed to parse initialize params"})
	}

	switch {
	case len(params.WorkspaceFolders) > 0:
		s.workspaceRoot = uri.URI(params.WorkspaceFolders[0].URI).Filename()
	case params.RootURI != "":
		s.workspaceRoot = params.RootURI.Filename()
	case params.RootPath != "":
		s.workspaceRoot = params.RootPath
	}

	return reply(ctx, protocol.InitializeResult{
		Capabilities: s.capabilities,
		ServerInfo:   &protocol.ServerInfo{Name: "a0-lsp", Version: "0.1.0"},
	}, nil)
}

func (s *Server) handleExit(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if err := reply(ctx, nil, nil); err != nil {
		s.log.Warnw("error replying to exit", "error", err)
	}
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: "failed to parse didOpen params"})
	}
	s.publishDiagnostics(ctx, string(params.TextDocument.URI), params.TextDocument.Text)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: "failed to parse didChange params"})
	}
	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}
	content := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.publishDiagnostics(ctx, string(params.TextDocument.URI), content)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, &jsonrpc2.Error{Code: jsonrpc2.InvalidParams, Message: "failed to parse didSave params"})
	}
	return reply(ctx, nil, nil)
}

// publishDiagnostics lexes, parses, and validates source, publishing
// whatever diagnostics result (a lex/parse error short-circuits before
// validation, since there is no AST yet to validate).
func (s *Server) publishDiagnostics(ctx context.Context, docURI, source string) {
	diags := diagnosticsFor(docURI, source)

	lspDiags := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		lspDiags = append(lspDiags, protocol.Diagnostic{
			Range:    spanToRange(d.Span),
			Severity: protocol.DiagnosticSeverityError,
			Code:     d.Code,
			Source:   "a0",
			Message:  d.Message,
		})
	}

	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(docURI),
		Diagnostics: lspDiags,
	})
	if err != nil {
		s.log.Warnw("error publishing diagnostics", "error", err)
	}
}

func diagnosticsFor(docURI, source string) []*diagnostics.Diagnostic {
	lx := lexer.New(docURI, source)
	tokens := lx.ScanAll()
	if errs := lx.Errors(); len(errs) > 0 {
		out := make([]*diagnostics.Diagnostic, 0, len(errs))
		for _, e := range errs {
			sp := ast.Span{File: docURI, StartLine: e.Line, StartCol: e.Column, EndLine: e.Line, EndCol: e.Column}
			out = append(out, diagnostics.New(diagnostics.E_LEX, e.Error(), sp))
		}
		return out
	}

	p := parser.New(docURI, tokens)
	prog, perr := p.Parse()
	if perr != nil {
		return []*diagnostics.Diagnostic{diagnostics.New(diagnostics.E_PARSE, perr.Error(), perr.Span)}
	}

	return validator.Validate(prog)
}

func spanToRange(sp ast.Span) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(max0(sp.StartLine - 1)), Character: uint32(max0(sp.StartCol - 1))},
		End:   protocol.Position{Line: uint32(max0(sp.EndLine - 1)), Character: uint32(max0(sp.EndCol - 1))},
	}
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// stdrwc implements io.ReadWriteCloser over stdin/stdout.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
