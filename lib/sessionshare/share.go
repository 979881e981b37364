// Package sessionshare hands a gateway session to another device over
// the local network. The receiver takes over the login without a second
// authentication against the gateway.
package sessionshare

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("sessionshare")

const DefaultPort = 8024

// how long the server waits for the receiver before giving up
const shareTimeout = 30 * time.Second

var (
	ErrIncompleteSession = errors.New("session is missing required keys")
	ErrInvalidShareCode  = errors.New("invalid share code")
)

var requiredKeys = []string{"username", "CSRFHW", "wlanuserip", "ATTRIBUTE_UUID"}

const rejectMessage = "Invalid secret"

// Server serves one exported session to the first receiver that
// presents the right share code, then shuts down.
type Server struct {
	Code string
	Addr string

	listener net.Listener
	done     chan error
}

// Share starts serving the session on addr (":8024" style). The
// returned server's Code goes to the receiving device out of band.
func Share(ctx context.Context, session map[string]string, addr string) (*Server, error) {
	_, span := tracer.Start(ctx, "sessionshare:Share")
	defer span.End()

	for _, key := range requiredKeys {
		if session[key] == "" {
			span.SetStatus(codes.Error, "incomplete session")
			return nil, fmt.Errorf("%w: %s", ErrIncompleteSession, key)
		}
	}

	code, err := random.String(4)
	if err != nil {
		span.SetStatus(codes.Error, "failed to generate share code")
		return nil, err
	}
	code = strings.ToUpper(code)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		span.SetStatus(codes.Error, "failed to listen")
		return nil, err
	}

	server := &Server{
		Code:     code,
		Addr:     listener.Addr().String(),
		listener: listener,
		done:     make(chan error, 1),
	}
	go server.serve(session)
	return server, nil
}

func (s *Server) serve(session map[string]string) {
	defer s.listener.Close()

	deadline := time.Now().Add(shareTimeout)
	if l, ok := s.listener.(*net.TCPListener); ok {
		l.SetDeadline(deadline)
	}

	conn, err := s.listener.Accept()
	if err != nil {
		s.done <- fmt.Errorf("waiting for receiver: %w", err)
		return
	}
	defer conn.Close()
	conn.SetDeadline(deadline)
	slog.Info("session receiver connected", "addr", conn.RemoteAddr().String())

	presented, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		s.done <- fmt.Errorf("reading share code: %w", err)
		return
	}
	if strings.TrimSpace(presented) != s.Code {
		fmt.Fprint(conn, rejectMessage)
		s.done <- ErrInvalidShareCode
		return
	}

	serialized, err := json.Marshal(session)
	if err != nil {
		s.done <- err
		return
	}
	_, err = conn.Write(serialized)
	s.done <- err
}

// Wait blocks until the hand-off finished or timed out.
func (s *Server) Wait() error {
	return <-s.done
}

// Close aborts a pending hand-off.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Fetch receives a shared session from addr using the share code.
func Fetch(ctx context.Context, addr, code string) (map[string]string, error) {
	_, span := tracer.Start(ctx, "sessionshare:Fetch")
	defer span.End()

	dialer := net.Dialer{Timeout: shareTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		span.SetStatus(codes.Error, "failed to dial")
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(shareTimeout))

	_, err = fmt.Fprintf(conn, "%s\n", strings.TrimSpace(code))
	if err != nil {
		span.SetStatus(codes.Error, "failed to send share code")
		return nil, err
	}

	serialized, err := io.ReadAll(conn)
	if err != nil {
		span.SetStatus(codes.Error, "failed to read session")
		return nil, err
	}
	if string(serialized) == rejectMessage {
		span.SetStatus(codes.Error, "share code rejected")
		return nil, ErrInvalidShareCode
	}

	var session map[string]string
	err = json.Unmarshal(serialized, &session)
	if err != nil {
		span.SetStatus(codes.Error, "failed to deserialize session")
		return nil, err
	}
	return session, nil
}
