// pkg/ftp/client_test.go
package ftp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// mockPrinter is a scripted control-channel peer on the loopback
// interface. Tests read the client's commands and reply line by line.
type mockPrinter struct {
	t    *testing.T
	ln   net.Listener
	conn net.Conn
	sc   *bufio.Scanner
}

func newMockPrinter(t *testing.T) *mockPrinter {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return &mockPrinter{t: t, ln: ln}
}

func (m *mockPrinter) addr() (string, int) {
	a := m.ln.Addr().(*net.TCPAddr)
	return a.IP.String(), a.Port
}

func (m *mockPrinter) accept() {
	m.t.Helper()
	conn, err := m.ln.Accept()
	if err != nil {
		m.t.Fatalf("accept: %v", err)
	}
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	m.conn = conn
	m.sc = bufio.NewScanner(conn)
}

func (m *mockPrinter) send(line string) {
	m.t.Helper()
	if _, err := m.conn.Write([]byte(line + "\r\n")); err != nil {
		m.t.Fatalf("send %q: %v", line, err)
	}
}

func (m *mockPrinter) readLine() string {
	m.t.Helper()
	if !m.sc.Scan() {
		m.t.Fatalf("control channel closed while reading: %v", m.sc.Err())
	}
	return strings.TrimRight(m.sc.Text(), "\r")
}

func (m *mockPrinter) close() {
	if m.conn != nil {
		m.conn.Close()
	}
	m.ln.Close()
}

// connectedClient runs the connect handshake against a fresh mock printer.
func connectedClient(t *testing.T, opts Options) (*Client, *mockPrinter) {
	t.Helper()
	srv := newMockPrinter(t)
	t.Cleanup(srv.close)

	c := New(opts)
	host, port := srv.addr()
	done := make(chan error, 1)
	go func() { done <- c.Connect(context.Background(), host, port, "zebra") }()

	srv.accept()
	srv.send("220 printer ready")
	if got := srv.readLine(); got != "USER zebra" {
		t.Fatalf("expected USER zebra, got %q", got)
	}
	srv.send("230 user logged in")
	if err := <-done; err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return c, srv
}

func TestConnectSuccess(t *testing.T) {
	c, srv := connectedClient(t, Options{KeepAlive: -1})
	if got := c.State(); got != StateConnected {
		t.Errorf("expected connected state, got %v", got)
	}

	done := make(chan struct{})
	go func() {
		c.Disconnect()
		close(done)
	}()
	if got := srv.readLine(); got != "QUIT" {
		t.Errorf("expected QUIT on disconnect, got %q", got)
	}
	srv.send("221 goodbye")
	<-done
	if got := c.State(); got != StateDisconnected {
		t.Errorf("expected disconnected state after Disconnect, got %v", got)
	}
}

func TestConnectRejectsErrorGreeting(t *testing.T) {
	srv := newMockPrinter(t)
	defer srv.close()

	c := New(Options{KeepAlive: -1})
	host, port := srv.addr()
	done := make(chan error, 1)
	go func() { done <- c.Connect(context.Background(), host, port, "zebra") }()

	srv.accept()
	srv.send("530 access denied")
	err := <-done
	pe, ok := AsProtocolError(err)
	if !ok {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if pe.Code != 530 {
		t.Errorf("expected status 530, got %d", pe.Code)
	}
	if got := c.State(); got != StateDisconnected {
		t.Errorf("failed connect must reset, got state %v", got)
	}
}

func TestConnectRejectsLoginFailure(t *testing.T) {
	srv := newMockPrinter(t)
	defer srv.close()

	c := New(Options{KeepAlive: -1})
	host, port := srv.addr()
	done := make(chan error, 1)
	go func() { done <- c.Connect(context.Background(), host, port, "intruder") }()

	srv.accept()
	srv.send("220 printer ready")
	if got := srv.readLine(); got != "USER intruder" {
		t.Fatalf("expected USER intruder, got %q", got)
	}
	srv.send("530 not logged in")

	err := <-done
	pe, ok := AsProtocolError(err)
	if !ok {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if pe.Code != 530 || pe.Command != "USER" {
		t.Errorf("expected USER failure with 530, got %s %d", pe.Command, pe.Code)
	}
}

func TestConnectGreetingTimeout(t *testing.T) {
	srv := newMockPrinter(t)
	defer srv.close()

	c := New(Options{ConnectTimeout: 100 * time.Millisecond, KeepAlive: -1})
	host, port := srv.addr()
	done := make(chan error, 1)
	go func() { done <- c.Connect(context.Background(), host, port, "zebra") }()

	srv.accept()
	// Say nothing: the greeting timer must fire.
	if err := <-done; !errors.Is(err, ErrGreetingTimeout) {
		t.Errorf("expected ErrGreetingTimeout, got %v", err)
	}
	if got := c.State(); got != StateDisconnected {
		t.Errorf("timeout must reset the session, got state %v", got)
	}
}

func TestKeepAliveProbe(t *testing.T) {
	_, srv := connectedClient(t, Options{KeepAlive: 50 * time.Millisecond})

	if got := srv.readLine(); got != "NOOP" {
		t.Fatalf("expected keep-alive NOOP, got %q", got)
	}
	srv.send("200 ok")
}

// parsePortCommand decodes "PORT h1,h2,h3,h4,p1,p2" into a dialable
// address.
func parsePortCommand(t *testing.T, line string) string {
	t.Helper()
	if !strings.HasPrefix(line, "PORT ") {
		t.Fatalf("expected a PORT command, got %q", line)
	}
	parts := strings.Split(strings.TrimPrefix(line, "PORT "), ",")
	if len(parts) != 6 {
		t.Fatalf("expected 6 PORT octets, got %q", line)
	}
	n := make([]int, 6)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			t.Fatalf("bad PORT octet %q in %q", p, line)
		}
		n[i] = v
	}
	return fmt.Sprintf("%d.%d.%d.%d:%d", n[0], n[1], n[2], n[3], n[4]*256+n[5])
}

func TestPutData(t *testing.T) {
	var intermediates atomic.Int32
	c, srv := connectedClient(t, Options{
		KeepAlive: -1,
		OnIntermediate: func(r Reply) {
			if r.Code == 150 {
				intermediates.Add(1)
			}
		},
	})

	payload := []byte("^XA^FO10,10^FDHI^FS^XZ")
	done := make(chan error, 1)
	go func() { done <- c.PutData(context.Background(), "JOB1", payload) }()

	dataAddr := parsePortCommand(t, srv.readLine())
	srv.send("200 PORT command ok")
	if got := srv.readLine(); got != "TYPE I" {
		t.Fatalf("expected TYPE I, got %q", got)
	}
	srv.send("200 type set to I")
	if got := srv.readLine(); got != "STOR JOB1" {
		t.Fatalf("expected STOR JOB1, got %q", got)
	}
	srv.send("150 opening data connection")

	dconn, err := net.Dial("tcp4", dataAddr)
	if err != nil {
		t.Fatalf("dial data port: %v", err)
	}
	got, err := io.ReadAll(dconn)
	dconn.Close()
	if err != nil {
		t.Fatalf("read data connection: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected payload %q, got %q", payload, got)
	}

	srv.send("226 transfer complete")
	if err := <-done; err != nil {
		t.Fatalf("PutData failed: %v", err)
	}
	// The 150 must have gone to the notifier, not terminated the STOR.
	if n := intermediates.Load(); n != 1 {
		t.Errorf("expected exactly one intermediate notification, got %d", n)
	}
}

func TestPutDataWaitsForDataCloseAfterTerminalReply(t *testing.T) {
	c, srv := connectedClient(t, Options{KeepAlive: -1})

	done := make(chan error, 1)
	go func() { done <- c.PutData(context.Background(), "JOB2", []byte("abc")) }()

	dataAddr := parsePortCommand(t, srv.readLine())
	srv.send("200 ok")
	srv.readLine() // TYPE I
	srv.send("200 ok")
	srv.readLine() // STOR JOB2
	// Terminal reply BEFORE the data connection exists: the upload must
	// keep waiting for the data half.
	srv.send("226 complete")

	time.Sleep(50 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("PutData resolved before the data connection closed: %v", err)
	default:
	}

	dconn, err := net.Dial("tcp4", dataAddr)
	if err != nil {
		t.Fatalf("dial data port: %v", err)
	}
	io.ReadAll(dconn)
	dconn.Close()

	if err := <-done; err != nil {
		t.Fatalf("PutData failed: %v", err)
	}
}

func TestPutDataBusyGuard(t *testing.T) {
	c, srv := connectedClient(t, Options{KeepAlive: -1})

	first := make(chan error, 1)
	go func() { first <- c.PutData(context.Background(), "A", []byte("x")) }()
	srv.readLine() // PORT, left unanswered so the first upload stays in flight

	if err := c.PutData(context.Background(), "B", []byte("y")); !errors.Is(err, ErrTransferInProgress) {
		t.Errorf("expected ErrTransferInProgress, got %v", err)
	}

	// Dropping the control channel must fail the stuck upload, not hang it.
	srv.close()
	if err := <-first; err == nil {
		t.Error("expected the in-flight upload to fail on socket close")
	}
	if got := c.State(); got != StateDisconnected {
		t.Errorf("socket close must reset the session, got state %v", got)
	}
}

func TestPutDataRejectedCommand(t *testing.T) {
	c, srv := connectedClient(t, Options{KeepAlive: -1})

	done := make(chan error, 1)
	go func() { done <- c.PutData(context.Background(), "J", []byte("x")) }()

	srv.readLine() // PORT
	srv.send("502 command not implemented")

	err := <-done
	pe, ok := AsProtocolError(err)
	if !ok {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if pe.Command != "PORT" || pe.Code != 502 {
		t.Errorf("expected PORT failure with 502, got %s %d", pe.Command, pe.Code)
	}
	// A rejected command leaves the session usable.
	if got := c.State(); got != StateConnected {
		t.Errorf("expected session still connected, got %v", got)
	}
}

func TestPutDataWhenDisconnected(t *testing.T) {
	c := New(Options{KeepAlive: -1})
	if err := c.PutData(context.Background(), "X", []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		line  string
		code  int
		multi bool
		ok    bool
	}{
		{"220 printer ready", 220, false, true},
		{"150 opening data connection", 150, false, true},
		{"226", 226, false, true},
		{"230-welcome", 230, true, true},
		{"hello there", 0, false, false},
		{"99", 0, false, false},
		{"700 nope", 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			reply, multi, ok := parseReply(tt.line)
			if ok != tt.ok || multi != tt.multi || reply.Code != tt.code {
				t.Errorf("parseReply(%q) = %v code %d multi %v ok %v",
					tt.line, reply, reply.Code, multi, ok)
			}
		})
	}
}

func TestPortCommandEncoding(t *testing.T) {
	got := portCommand(net.IPv4(192, 168, 1, 40), 2105)
	if got != "PORT 192,168,1,40,8,57" {
		t.Errorf("expected PORT 192,168,1,40,8,57, got %q", got)
	}
}
