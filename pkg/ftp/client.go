// pkg/ftp/client.go
package ftp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// State is the connection lifecycle position of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Reply is one parsed FTP status line.
type Reply struct {
	Code    int
	Message string
}

// Intermediate reports a 1xx preliminary status, which never terminates the
// command that triggered it.
func (r Reply) Intermediate() bool { return r.Code < 200 }

const (
	defaultConnectTimeout = 5 * time.Second
	defaultKeepAlive      = 60 * time.Second
)

// Options tune a Client. The zero value gets the defaults.
type Options struct {
	// ConnectTimeout bounds the dial, the wait for the server greeting and
	// the wait for the printer's data connection. Default 5s.
	ConnectTimeout time.Duration
	// KeepAlive is the NOOP probe interval while idle. Default 60s; a
	// negative value disables the probe.
	KeepAlive time.Duration
	// OnIntermediate, when set, is called for every 1xx preliminary reply
	// (e.g. "150 Opening data connection"). It runs on the read goroutine
	// and must not block.
	OnIntermediate func(Reply)
}

type outcome struct {
	reply Reply
	err   error
}

type pending struct {
	command string
	ch      chan outcome
}

// Client is an active-mode FTP client for label printer control channels.
// One client owns one control socket; commands are correlated to replies by
// a strict FIFO queue, so at most one command is awaiting its terminal reply
// at any time and wire order always equals issue order. A Client is not
// reusable across goroutines issuing uploads concurrently: overlapping
// transfers are refused with ErrTransferInProgress.
type Client struct {
	opts Options

	mu           sync.Mutex
	state        State
	conn         net.Conn
	pending      []*pending
	keepDone     chan struct{}
	transferring bool
}

// New builds a disconnected client.
func New(opts Options) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.KeepAlive == 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	return &Client{opts: opts}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the control channel, waits for the server greeting, logs in
// with USER and arms the keep-alive probe. The greeting must arrive within
// the connect timeout and must not be a 4xx/5xx status. There is no
// automatic reconnect: after any failure the caller decides whether to call
// Connect again.
func (c *Client) Connect(ctx context.Context, host string, port int, username string) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.mu.Unlock()

	d := net.Dialer{Timeout: c.opts.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("ftp: dial %s:%d: %w", host, port, err)
	}

	greeting := &pending{command: "greeting", ch: make(chan outcome, 1)}
	c.mu.Lock()
	c.conn = conn
	c.pending = append(c.pending, greeting)
	c.mu.Unlock()
	go c.readLoop(conn)

	var reply Reply
	select {
	case out := <-greeting.ch:
		if out.err != nil {
			c.reset(out.err)
			return fmt.Errorf("ftp: waiting for greeting: %w", out.err)
		}
		reply = out.reply
	case <-time.After(c.opts.ConnectTimeout):
		c.reset(ErrGreetingTimeout)
		return ErrGreetingTimeout
	case <-ctx.Done():
		c.reset(ctx.Err())
		return ctx.Err()
	}
	if reply.Code >= 400 {
		perr := &ProtocolError{Command: "greeting", Code: reply.Code, Message: reply.Message}
		c.reset(perr)
		return perr
	}

	if _, err := c.expect("USER " + username); err != nil {
		c.reset(err)
		return fmt.Errorf("ftp: login as %s: %w", username, err)
	}

	c.mu.Lock()
	c.state = StateConnected
	if c.opts.KeepAlive > 0 {
		c.keepDone = make(chan struct{})
		go c.keepAliveLoop(conn, c.keepDone)
	}
	c.mu.Unlock()
	return nil
}

// Disconnect sends QUIT when connected, then unconditionally resets the
// session (socket closed, timers stopped, queue drained) regardless of the
// QUIT outcome.
func (c *Client) Disconnect() {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected {
		done := make(chan struct{})
		go func() {
			c.command("QUIT")
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(c.opts.ConnectTimeout):
		}
	}
	c.reset(nil)
}

// PutData uploads a byte payload as the named remote file.
func (c *Client) PutData(ctx context.Context, name string, data []byte) error {
	return c.PutReader(ctx, name, bytes.NewReader(data))
}

// PutFile uploads a local file. An empty name stores it under its base
// name.
func (c *Client) PutFile(ctx context.Context, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ftp: open %s: %w", path, err)
	}
	defer f.Close()
	if name == "" {
		name = filepath.Base(path)
	}
	return c.PutReader(ctx, name, f)
}

// PutReader performs one active-mode upload: it opens an ephemeral local
// listener, advertises it with PORT using this host's address on the peer's
// subnet, switches to TYPE I, issues STOR and streams r to the connection
// the printer opens back. It returns only after BOTH the data connection
// has closed AND the STOR command's terminal reply has arrived, whichever
// order they occur in. Once STOR is on the wire the transfer cannot be
// cancelled; ctx is honored up to that point.
func (c *Client) PutReader(ctx context.Context, name string, r io.Reader) error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.transferring {
		c.mu.Unlock()
		return ErrTransferInProgress
	}
	c.transferring = true
	peer := c.conn.RemoteAddr()
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.transferring = false
		c.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	ip, err := localIPForPeer(peer)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp4", ":0")
	if err != nil {
		return fmt.Errorf("ftp: open data listener: %w", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	if _, err := c.expect(portCommand(ip, port)); err != nil {
		return err
	}
	if _, err := c.expect("TYPE I"); err != nil {
		return err
	}

	// The data connection and the STOR reply race freely; the upload is
	// done only once both have finished.
	dataDone := make(chan error, 1)
	go func() { dataDone <- serveData(ln, r, c.opts.ConnectTimeout) }()

	storDone := make(chan error, 1)
	go func() {
		_, err := c.expect("STOR " + name)
		storDone <- err
	}()

	var storErr, dataErr error
	for storDone != nil || dataDone != nil {
		select {
		case err := <-storDone:
			storErr = err
			storDone = nil
		case err := <-dataDone:
			dataErr = err
			dataDone = nil
		}
	}
	if storErr != nil {
		return storErr
	}
	if dataErr != nil {
		return fmt.Errorf("ftp: data connection for %s: %w", name, dataErr)
	}
	return nil
}

// command writes one control line and blocks until its terminal reply or a
// session failure. The pending entry is queued under the same lock as the
// write, which is what keeps wire order equal to queue order.
func (c *Client) command(cmd string) (Reply, error) {
	p := &pending{command: cmd, ch: make(chan outcome, 1)}
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return Reply{}, ErrNotConnected
	}
	c.pending = append(c.pending, p)
	_, err := c.conn.Write([]byte(cmd + "\r\n"))
	c.mu.Unlock()
	if err != nil {
		// The read loop observes the broken socket and fails the queue.
		return Reply{}, fmt.Errorf("ftp: send %s: %w", firstWord(cmd), err)
	}

	out := <-p.ch
	if out.err != nil {
		return Reply{}, out.err
	}
	return out.reply, nil
}

// expect runs command and converts a 4xx/5xx reply into a ProtocolError.
func (c *Client) expect(cmd string) (Reply, error) {
	reply, err := c.command(cmd)
	if err != nil {
		return Reply{}, err
	}
	if reply.Code >= 400 {
		return reply, &ProtocolError{Command: firstWord(cmd), Code: reply.Code, Message: reply.Message}
	}
	return reply, nil
}

// readLoop parses status lines off the control socket. Terminal replies
// dequeue the oldest pending command; 1xx preliminary replies only notify
// and leave the queue untouched, so the same command keeps waiting for its
// real outcome. Any read failure tears the whole session down so no pending
// command is ever left hanging.
func (c *Client) readLoop(conn net.Conn) {
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		reply, multi, ok := parseReply(line)
		if !ok || multi {
			// Continuation lines of a multiline reply carry no
			// terminal status.
			continue
		}
		if reply.Intermediate() {
			if c.opts.OnIntermediate != nil {
				c.opts.OnIntermediate(reply)
			}
			continue
		}

		c.mu.Lock()
		var p *pending
		if len(c.pending) > 0 {
			p = c.pending[0]
			c.pending = c.pending[1:]
		}
		c.mu.Unlock()
		if p != nil {
			p.ch <- outcome{reply: reply}
		}
	}

	err := sc.Err()
	if err == nil {
		err = ErrConnectionClosed
	}
	c.mu.Lock()
	current := c.conn == conn
	c.mu.Unlock()
	if current {
		c.reset(err)
	}
}

func (c *Client) keepAliveLoop(conn net.Conn, done chan struct{}) {
	t := time.NewTicker(c.opts.KeepAlive)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			c.probe(conn)
		}
	}
}

// probe sends the keep-alive NOOP, skipped whenever a command or transfer
// is already in flight.
func (c *Client) probe(conn net.Conn) {
	p := &pending{command: "NOOP", ch: make(chan outcome, 1)}
	c.mu.Lock()
	if c.conn != conn || len(c.pending) > 0 || c.transferring {
		c.mu.Unlock()
		return
	}
	c.pending = append(c.pending, p)
	_, err := conn.Write([]byte("NOOP\r\n"))
	c.mu.Unlock()
	if err != nil {
		return
	}
	<-p.ch
}

// reset tears the session down: socket closed, keep-alive stopped, state
// back to disconnected, and every pending command completed with cause so
// no waiter is left hanging and no stale completion can fire later.
func (c *Client) reset(cause error) {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	queue := c.pending
	c.pending = nil
	if c.keepDone != nil {
		close(c.keepDone)
		c.keepDone = nil
	}
	c.state = StateDisconnected
	c.transferring = false
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if cause == nil {
		cause = ErrConnectionClosed
	}
	for _, p := range queue {
		p.ch <- outcome{err: cause}
	}
}

// serveData accepts the printer's inbound data connection, writes the
// payload and closes. The accept is bounded so a printer that never
// connects back cannot hang the upload forever.
func serveData(ln net.Listener, r io.Reader, timeout time.Duration) error {
	if tl, ok := ln.(*net.TCPListener); ok && timeout > 0 {
		tl.SetDeadline(time.Now().Add(timeout))
	}
	conn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("accept: %w", err)
	}
	if _, err := io.Copy(conn, r); err != nil {
		conn.Close()
		return fmt.Errorf("write payload: %w", err)
	}
	return conn.Close()
}

// localIPForPeer finds this host's IPv4 address on the same subnet as the
// control connection's peer by netmasking every local interface address
// against the peer address.
func localIPForPeer(peer net.Addr) (net.IP, error) {
	tcp, ok := peer.(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("ftp: unexpected peer address %v", peer)
	}
	peerIP := tcp.IP.To4()
	if peerIP == nil {
		return nil, fmt.Errorf("ftp: peer %s is not IPv4", tcp.IP)
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("ftp: list interface addresses: %w", err)
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP.To4()
		if ip == nil {
			continue
		}
		if ipnet.Contains(peerIP) {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("%w: peer %s", ErrNoSharedSubnet, peerIP)
}

// portCommand encodes ip:port in the comma-separated octet form PORT
// wants: four address octets, then the port split into high and low bytes.
func portCommand(ip net.IP, port int) string {
	v4 := ip.To4()
	return fmt.Sprintf("PORT %d,%d,%d,%d,%d,%d", v4[0], v4[1], v4[2], v4[3], port/256, port%256)
}

// parseReply splits a "DDD message" status line. multi reports the "DDD-"
// continuation form, which does not terminate a command.
func parseReply(line string) (reply Reply, multi, ok bool) {
	if len(line) < 3 {
		return Reply{}, false, false
	}
	code, err := strconv.Atoi(line[:3])
	if err != nil || code < 100 || code > 599 {
		return Reply{}, false, false
	}
	reply.Code = code
	if len(line) > 3 {
		if line[3] == '-' {
			reply.Message = strings.TrimSpace(line[4:])
			return reply, true, true
		}
		reply.Message = strings.TrimSpace(line[3:])
	}
	return reply, false, true
}

func firstWord(cmd string) string {
	if i := strings.IndexByte(cmd, ' '); i >= 0 {
		return cmd[:i]
	}
	return cmd
}
