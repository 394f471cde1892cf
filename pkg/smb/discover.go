package smb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sharescan/sharescan/internal/logger"
)

// discoverTimeout bounds a whole discovery attempt.
const discoverTimeout = 15 * time.Second

// commonShareNames is the probe list used when share enumeration is not
// permitted by the server.
var commonShareNames = []string{
	"homes", "home", "music", "video", "photo", "public",
	"documents", "downloads", "media", "backup", "data",
	"share", "shared", "files", "nas",
}

// ConnectionStatus is the outcome of a connection test, phrased for users.
type ConnectionStatus struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ItemsFound int    `json:"items_found"`
}

// DiscoverShares lists the disk shares available on a host. Administrative
// shares (trailing "$") are excluded. If the server refuses enumeration the
// well-known share names are probed instead.
func (c *Client) DiscoverShares(ctx context.Context, host, username, password string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, discoverTimeout)
	defer cancel()

	probe := NewClient(WithPort(c.port), WithDialTimeout(c.dialTimeout))
	defer probe.Close()

	src := Source{Host: host, Username: username, Password: password}
	hs, err := probe.dial(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", host, classify(err))
	}
	probe.mu.Lock()
	probe.hosts[host] = hs
	probe.mu.Unlock()

	names, err := hs.session.ListSharenames()
	if err != nil {
		logger.Debug("share enumeration refused, probing well-known names",
			"host", host, "error", err)
		return probe.probeCommonShares(ctx, src), nil
	}

	var shares []string
	for _, name := range names {
		if strings.HasSuffix(name, "$") {
			continue
		}
		shares = append(shares, name)
	}
	sort.Strings(shares)
	return shares, nil
}

// probeCommonShares mounts each well-known share name and keeps the ones
// that answer a root listing.
func (c *Client) probeCommonShares(ctx context.Context, src Source) []string {
	var found []string
	for _, name := range commonShareNames {
		if ctx.Err() != nil {
			break
		}
		candidate := src
		candidate.Share = name
		sh, err := c.share(ctx, candidate)
		if err != nil {
			continue
		}
		if _, err := sh.ReadDir("."); err == nil {
			found = append(found, name)
		}
	}
	return found
}

// TestConnection verifies that a source's share can be reached and listed.
// Failures are translated into messages suitable for display.
func (c *Client) TestConnection(ctx context.Context, src Source) ConnectionStatus {
	ctx, cancel := context.WithTimeout(ctx, discoverTimeout)
	defer cancel()

	probe := NewClient(WithPort(c.port), WithDialTimeout(c.dialTimeout))
	defer probe.Close()

	sh, err := probe.share(ctx, src)
	if err != nil {
		return failureStatus(src, err)
	}

	entries, err := sh.ReadDir(toWire(src.Root()))
	if err != nil {
		return failureStatus(src, classify(err))
	}

	count := 0
	for _, e := range entries {
		if name := e.Name(); name != "." && name != ".." {
			count++
		}
	}
	return ConnectionStatus{
		Success:    true,
		Message:    fmt.Sprintf("Connected successfully. Found %d items in share root.", count),
		ItemsFound: count,
	}
}

func failureStatus(src Source, err error) ConnectionStatus {
	var msg string
	switch {
	case errors.Is(err, ErrAuth):
		msg = "Login failed — check username/password."
	case errors.Is(err, ErrNotFound):
		msg = fmt.Sprintf("Share %q not found on %s.", src.Share, src.Host)
	case errors.Is(err, ErrUnreachable), errors.Is(err, ErrTimeout):
		msg = fmt.Sprintf("Cannot reach %s. Check the IP/hostname.", src.Host)
	default:
		msg = fmt.Sprintf("Connection error: %v", err)
	}
	return ConnectionStatus{Success: false, Message: msg}
}
