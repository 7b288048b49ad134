// Package ftptest provides an in-process FTP server for tests.
//
// The server keeps files in memory and understands the commands the client
// speaks: USER, PASS, QUIT, TYPE, SYST, PASV, STOR, RETR and LIST. Any
// command can be overridden with Handle to script failures.
package ftptest

import (
	"fmt"
	"io"
	"net"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// dataTimeout bounds how long a transfer waits for the client's data connection.
const dataTimeout = 5 * time.Second

// HandlerFunc handles one command. arg is everything after the verb.
// Returning false ends the session.
type HandlerFunc func(s *Session, arg string) bool

// Server is a scripted FTP server listening on a loopback port.
type Server struct {
	// Addr is the "host:port" the server listens on
	Addr string

	// Password, when set, is the only password PASS accepts
	Password string

	ln net.Listener
	wg sync.WaitGroup

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	files    map[string][]byte
	commands []string
	handlers map[string]HandlerFunc
	greeting []string
}

// NewServer starts a server on 127.0.0.1 and stops it when the test ends.
func NewServer(tb testing.TB) *Server {
	tb.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("ftptest: listen: %v", err)
	}

	s := &Server{
		Addr:     ln.Addr().String(),
		ln:       ln,
		conns:    make(map[net.Conn]struct{}),
		files:    make(map[string][]byte),
		handlers: make(map[string]HandlerFunc),
		greeting: []string{"220 ftptest ready"},
	}

	s.wg.Add(1)
	go s.serve()
	tb.Cleanup(s.Close)
	return s
}

// Close stops accepting connections, drops open sessions and waits for
// them to end.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Handle overrides the handler for cmd (case-insensitive).
func (s *Server) Handle(cmd string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[strings.ToUpper(cmd)] = fn
}

// SetGreeting replaces the lines sent when a client connects. Each line
// must carry its own status code and separator.
func (s *Server) SetGreeting(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.greeting = lines
}

// PutFile stores a file the client can RETR or LIST.
func (s *Server) PutFile(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
}

// File returns a stored file and whether it exists.
func (s *Server) File(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Commands returns every command line received so far, in order.
// PASS arguments are kept verbatim.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Verbs returns only the command verbs received so far.
func (s *Server) Verbs() []string {
	cmds := s.Commands()
	verbs := make([]string, len(cmds))
	for i, c := range cmds {
		verbs[i], _, _ = strings.Cut(c, " ")
	}
	return verbs
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.session(conn)
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
		}()
	}
}

func (s *Server) session(conn net.Conn) {
	sess := &Session{server: s, conn: textproto.NewConn(conn)}
	defer sess.close()

	s.mu.Lock()
	greeting := append([]string(nil), s.greeting...)
	s.mu.Unlock()
	if err := sess.Raw(strings.Join(greeting, "\r\n") + "\r\n"); err != nil {
		return
	}

	for {
		line, err := sess.conn.ReadLine()
		if err != nil {
			return
		}

		verb, arg, _ := strings.Cut(line, " ")
		verb = strings.ToUpper(verb)

		s.mu.Lock()
		s.commands = append(s.commands, line)
		fn, ok := s.handlers[verb]
		s.mu.Unlock()

		if !ok {
			fn = defaultHandler(verb)
		}
		if !fn(sess, arg) {
			return
		}
	}
}

// Session is one control connection.
type Session struct {
	server *Server
	conn   *textproto.Conn
	pasv   net.Listener
	user   string
}

// Server returns the server the session belongs to.
func (s *Session) Server() *Server { return s.server }

// Reply sends a single-line reply.
func (s *Session) Reply(code int, format string, args ...any) bool {
	return s.conn.PrintfLine("%03d %s", code, fmt.Sprintf(format, args...)) == nil
}

// ReplyLines sends a multi-line reply ending with "code last".
func (s *Session) ReplyLines(code int, lines []string, last string) bool {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%03d-%s\r\n", code, l)
	}
	fmt.Fprintf(&b, "%03d %s\r\n", code, last)
	return s.Raw(b.String()) == nil
}

// Raw writes text to the control connection unchanged.
func (s *Session) Raw(text string) error {
	if _, err := io.WriteString(s.conn.W, text); err != nil {
		return err
	}
	return s.conn.W.Flush()
}

// OpenPassive starts a one-shot data listener and returns its PASV reply text.
func (s *Session) OpenPassive() (string, error) {
	if s.pasv != nil {
		_ = s.pasv.Close()
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	s.pasv = ln

	port := ln.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("Entering Passive Mode (127,0,0,1,%d,%d)", port/256, port%256), nil
}

// AcceptData accepts the client's data connection on the passive listener.
func (s *Session) AcceptData() (net.Conn, error) {
	if s.pasv == nil {
		return nil, fmt.Errorf("ftptest: no passive listener")
	}
	ln := s.pasv
	s.pasv = nil
	defer ln.Close()

	if tl, ok := ln.(*net.TCPListener); ok {
		_ = tl.SetDeadline(time.Now().Add(dataTimeout))
	}
	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(dataTimeout))
	return conn, nil
}

func (s *Session) close() {
	if s.pasv != nil {
		_ = s.pasv.Close()
	}
	_ = s.conn.Close()
}

func defaultHandler(verb string) HandlerFunc {
	switch verb {
	case "USER":
		return handleUser
	case "PASS":
		return handlePass
	case "QUIT":
		return func(s *Session, _ string) bool {
			s.Reply(221, "Goodbye.")
			return false
		}
	case "TYPE":
		return func(s *Session, _ string) bool { return s.Reply(200, "Switching mode.") }
	case "SYST":
		return func(s *Session, _ string) bool { return s.Reply(215, "UNIX Type: L8") }
	case "PASV":
		return handlePasv
	case "STOR":
		return handleStor
	case "RETR":
		return handleRetr
	case "LIST":
		return handleList
	default:
		return func(s *Session, _ string) bool { return s.Reply(502, "Command not implemented.") }
	}
}

func handleUser(s *Session, arg string) bool {
	if arg == "" {
		return s.Reply(501, "Syntax error in parameters.")
	}
	s.user = arg
	return s.Reply(331, "Please specify the password.")
}

func handlePass(s *Session, arg string) bool {
	if s.user == "" {
		return s.Reply(503, "Login with USER first.")
	}
	if s.server.Password != "" && arg != s.server.Password {
		return s.Reply(530, "Login incorrect.")
	}
	return s.Reply(230, "Login successful.")
}

func handlePasv(s *Session, _ string) bool {
	msg, err := s.OpenPassive()
	if err != nil {
		return s.Reply(425, "Can't open passive listener.")
	}
	return s.Reply(227, "%s", msg)
}

func handleStor(s *Session, arg string) bool {
	if s.pasv == nil {
		return s.Reply(425, "Use PASV first.")
	}
	if !s.Reply(150, "Ok to send data.") {
		return false
	}

	conn, err := s.AcceptData()
	if err != nil {
		return s.Reply(425, "Can't open data connection.")
	}
	data, err := io.ReadAll(conn)
	conn.Close()
	if err != nil {
		return s.Reply(426, "Connection closed; transfer aborted.")
	}

	s.server.PutFile(arg, data)
	return s.Reply(226, "Transfer complete.")
}

func handleRetr(s *Session, arg string) bool {
	data, ok := s.server.File(arg)
	if !ok {
		return s.Reply(550, "Failed to open file.")
	}
	if s.pasv == nil {
		return s.Reply(425, "Use PASV first.")
	}
	if !s.Reply(150, "Opening BINARY mode data connection for %s (%d bytes).", arg, len(data)) {
		return false
	}

	conn, err := s.AcceptData()
	if err != nil {
		return s.Reply(425, "Can't open data connection.")
	}
	_, err = conn.Write(data)
	conn.Close()
	if err != nil {
		return s.Reply(426, "Connection closed; transfer aborted.")
	}
	return s.Reply(226, "Transfer complete.")
}

func handleList(s *Session, _ string) bool {
	if s.pasv == nil {
		return s.Reply(425, "Use PASV first.")
	}
	if !s.Reply(150, "Here comes the directory listing.") {
		return false
	}

	conn, err := s.AcceptData()
	if err != nil {
		return s.Reply(425, "Can't open data connection.")
	}
	_, err = io.WriteString(conn, s.server.listing())
	conn.Close()
	if err != nil {
		return s.Reply(426, "Connection closed; transfer aborted.")
	}
	return s.Reply(226, "Directory send OK.")
}

// listing renders the stored files in Unix "ls -l" format.
func (s *Server) listing() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "-rw-r--r--    1 ftp      ftp      %8d Jan 01 00:00 %s\r\n", len(s.files[name]), name)
	}
	return b.String()
}
