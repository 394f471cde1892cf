package smb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/hirochachacha/go-smb2"
)

// Sentinel errors for SMB failure classification. Callers branch on these
// with errors.Is; the wrapped error keeps the protocol-level detail.
var (
	// ErrAuth indicates rejected credentials.
	ErrAuth = errors.New("smb: authentication failed")

	// ErrUnreachable indicates the host could not be reached at all.
	ErrUnreachable = errors.New("smb: host unreachable")

	// ErrNotFound indicates a missing share, file or directory.
	ErrNotFound = errors.New("smb: not found")

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = errors.New("smb: operation timed out")

	// ErrTransient indicates a failure that may succeed on retry.
	ErrTransient = errors.New("smb: transient failure")
)

// NT status codes surfaced by go-smb2 response errors.
const (
	statusLogonFailure       = 0xC000006D
	statusAccessDenied       = 0xC0000022
	statusAccountDisabled    = 0xC0000072
	statusObjectNameNotFound = 0xC0000034
	statusObjectPathNotFound = 0xC000003A
	statusBadNetworkName     = 0xC00000CC
	statusIOTimeout          = 0xC00000B5
)

// classify maps a raw SMB or network error onto one of the sentinel errors,
// wrapping the original so the detail survives.
func classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrAuth), errors.Is(err, ErrUnreachable),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrTimeout),
		errors.Is(err, ErrTransient):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var respErr *smb2.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.Code {
		case statusLogonFailure, statusAccessDenied, statusAccountDisabled:
			return fmt.Errorf("%w: %w", ErrAuth, err)
		case statusObjectNameNotFound, statusObjectPathNotFound, statusBadNetworkName:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case statusIOTimeout:
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// retryable reports whether the classified error is worth retrying.
// Credential and name errors never resolve themselves.
func retryable(err error) bool {
	return !errors.Is(err, ErrAuth) && !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled)
}
