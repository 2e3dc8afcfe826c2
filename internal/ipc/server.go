package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// Controller is the daemon as seen by IPC clients. Every method may block
// until the daemon's control loop has handled the request.
type Controller interface {
	Status(ctx context.Context) (StatusData, error)
	Outputs(ctx context.Context) (OutputsData, error)
	Toplevels(ctx context.Context) (ToplevelsData, error)
	Layouts(ctx context.Context) (LayoutsData, error)
	Reload(ctx context.Context) error

	Move(ctx context.Context, p MovePayload) (TransactionData, error)
	Place(ctx context.Context, p PlacePayload) (TransactionData, error)
	Resize(ctx context.Context, p ResizePayload) (TransactionData, error)
	Swap(ctx context.Context, p SwapPayload) (TransactionData, error)
	Maximize(ctx context.Context, p MaximizePayload) (TransactionData, error)
	Fullscreen(ctx context.Context, p FullscreenPayload) (TransactionData, error)
	Float(ctx context.Context, p FloatPayload) (TransactionData, error)
	Tile(ctx context.Context, p TilePayload) (TransactionData, error)
	SendToOutput(ctx context.Context, p SendToOutputPayload) (TransactionData, error)
}

// RequestTimeout bounds how long a single request may take.
const RequestTimeout = 4 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(socketPath string, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		logger:     logger,
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove existing socket if present
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

// Serve starts the server and stops it when ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()

	s.send(conn, s.handleCommand(ctx, req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)

	switch req.Command {
	case CommandReload:
		return respond[struct{}](nil, s.ctrl.Reload(ctx))
	case CommandGetStatus:
		data, err := s.ctrl.Status(ctx)
		return result(data, err)
	case CommandGetOutputs:
		data, err := s.ctrl.Outputs(ctx)
		return result(data, err)
	case CommandListToplevels:
		data, err := s.ctrl.Toplevels(ctx)
		return result(data, err)
	case CommandListLayouts:
		data, err := s.ctrl.Layouts(ctx)
		return result(data, err)
	case CommandMove:
		return dispatch(ctx, req, s.ctrl.Move)
	case CommandPlace:
		return dispatch(ctx, req, s.ctrl.Place)
	case CommandResize:
		return dispatch(ctx, req, s.ctrl.Resize)
	case CommandSwap:
		return dispatch(ctx, req, s.ctrl.Swap)
	case CommandMaximize:
		return dispatch(ctx, req, s.ctrl.Maximize)
	case CommandFullscreen:
		return dispatch(ctx, req, s.ctrl.Fullscreen)
	case CommandFloat:
		return dispatch(ctx, req, s.ctrl.Float)
	case CommandTile:
		return dispatch(ctx, req, s.ctrl.Tile)
	case CommandSendToOutput:
		return dispatch(ctx, req, s.ctrl.SendToOutput)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// dispatch decodes the payload of req and hands it to fn.
func dispatch[P any](ctx context.Context, req *Request, fn func(context.Context, P) (TransactionData, error)) *Response {
	var p P
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid %s payload: %v", req.Command, err))
		}
	}
	data, err := fn(ctx, p)
	return result(data, err)
}

func result[T any](data T, err error) *Response {
	return respond(&data, err)
}

func respond[T any](data *T, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	var payload interface{}
	if data != nil {
		payload = data
	}
	resp, mErr := NewOKResponse(payload)
	if mErr != nil {
		return NewErrorResponse(mErr.Error())
	}
	return resp
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
