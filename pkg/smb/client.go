package smb

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hirochachacha/go-smb2"

	"github.com/sharescan/sharescan/internal/logger"
)

const (
	defaultPort        = 445
	defaultDialTimeout = 10 * time.Second
)

// Client manages SMB sessions and mounted share trees. One TCP session is
// held per host; share mounts are cached per host+share. All methods are
// safe for concurrent use.
type Client struct {
	port        int
	dialTimeout time.Duration

	mu    sync.Mutex
	hosts map[string]*hostSession
}

type hostSession struct {
	conn    net.Conn
	session *smb2.Session
	shares  map[string]*smb2.Share
}

// Option configures a Client.
type Option func(*Client)

// WithPort overrides the SMB TCP port (default 445).
func WithPort(port int) Option {
	return func(c *Client) { c.port = port }
}

// WithDialTimeout overrides the TCP dial timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// NewClient creates an SMB client with no open sessions.
func NewClient(opts ...Option) *Client {
	c := &Client{
		port:        defaultPort,
		dialTimeout: defaultDialTimeout,
		hosts:       make(map[string]*hostSession),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register establishes (or reuses) the session for a source's host.
// Transient dial failures are retried with exponential backoff; credential
// and name errors fail immediately.
func (c *Client) Register(ctx context.Context, src Source) error {
	c.mu.Lock()
	_, ok := c.hosts[src.Host]
	c.mu.Unlock()
	if ok {
		return nil
	}

	op := func() error {
		hs, err := c.dial(ctx, src)
		if err != nil {
			err = classify(err)
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			logger.Warn("SMB dial failed, retrying",
				"host", src.Host, "error", err)
			return err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.hosts[src.Host]; ok {
			// Lost the race with a concurrent Register.
			_ = hs.session.Logoff()
			_ = hs.conn.Close()
			return nil
		}
		c.hosts[src.Host] = hs
		logger.Info("SMB session registered", "host", src.Host)
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return fmt.Errorf("failed to register session for %s: %w", src.Host, classify(err))
	}
	return nil
}

// Registered reports whether a session exists for the host.
func (c *Client) Registered(host string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.hosts[host]
	return ok
}

// Unregister drops the session for a host, unmounting its shares.
func (c *Client) Unregister(host string) {
	c.mu.Lock()
	hs, ok := c.hosts[host]
	delete(c.hosts, host)
	c.mu.Unlock()
	if !ok {
		return
	}
	closeHostSession(hs)
}

// Close drops every session.
func (c *Client) Close() error {
	c.mu.Lock()
	hosts := c.hosts
	c.hosts = make(map[string]*hostSession)
	c.mu.Unlock()

	for host, hs := range hosts {
		closeHostSession(hs)
		logger.Debug("SMB session closed", "host", host)
	}
	return nil
}

// share returns the mounted tree for a source, dialing and mounting on
// first use.
func (c *Client) share(ctx context.Context, src Source) (*smb2.Share, error) {
	if err := c.Register(ctx, src); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	hs, ok := c.hosts[src.Host]
	if !ok {
		return nil, fmt.Errorf("%w: no session for %s", ErrTransient, src.Host)
	}
	if sh, ok := hs.shares[src.Share]; ok {
		return sh, nil
	}

	sh, err := hs.session.Mount(src.Share)
	if err != nil {
		return nil, fmt.Errorf("failed to mount %s on %s: %w", src.Share, src.Host, classify(err))
	}
	hs.shares[src.Share] = sh
	logger.Debug("SMB share mounted", "host", src.Host, "share", src.Share)
	return sh, nil
}

// dial opens a TCP connection and negotiates an authenticated SMB session.
func (c *Client) dial(ctx context.Context, src Source) (*hostSession, error) {
	d := net.Dialer{Timeout: c.dialTimeout}
	addr := net.JoinHostPort(src.Host, strconv.Itoa(c.port))
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     src.Username,
			Password: src.Password,
		},
	}
	sess, err := dialer.DialContext(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &hostSession{
		conn:    conn,
		session: sess,
		shares:  make(map[string]*smb2.Share),
	}, nil
}

func closeHostSession(hs *hostSession) {
	for _, sh := range hs.shares {
		_ = sh.Umount()
	}
	_ = hs.session.Logoff()
	_ = hs.conn.Close()
}

// toWire converts a share-relative forward-slash path to SMB wire form.
func toWire(rel string) string {
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return "."
	}
	return strings.ReplaceAll(rel, "/", `\`)
}
