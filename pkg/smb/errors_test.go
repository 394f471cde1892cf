package smb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/hirochachacha/go-smb2"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"deadline", context.DeadlineExceeded, ErrTimeout},
		{"not exist", os.ErrNotExist, ErrNotFound},
		{"logon failure", &smb2.ResponseError{Code: statusLogonFailure}, ErrAuth},
		{"access denied", &smb2.ResponseError{Code: statusAccessDenied}, ErrAuth},
		{"bad network name", &smb2.ResponseError{Code: statusBadNetworkName}, ErrNotFound},
		{"object not found", &smb2.ResponseError{Code: statusObjectNameNotFound}, ErrNotFound},
		{"io timeout", &smb2.ResponseError{Code: statusIOTimeout}, ErrTimeout},
		{"other smb status", &smb2.ResponseError{Code: 0xC0000001}, ErrTransient},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "nas.invalid"}, ErrUnreachable},
		{"conn refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrUnreachable},
		{"unknown", errors.New("boom"), ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClassifyPreservesCause(t *testing.T) {
	cause := &smb2.ResponseError{Code: statusLogonFailure}
	got := classify(cause)

	var respErr *smb2.ResponseError
	assert.ErrorAs(t, got, &respErr)
	assert.Equal(t, uint32(statusLogonFailure), respErr.Code)
}

func TestClassifyIdempotent(t *testing.T) {
	already := fmt.Errorf("%w: detail", ErrAuth)
	assert.Equal(t, already, classify(already))
}

func TestClassifyKeepsCancellation(t *testing.T) {
	assert.ErrorIs(t, classify(context.Canceled), context.Canceled)
	assert.NotErrorIs(t, classify(context.Canceled), ErrTransient)
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(classify(&smb2.ResponseError{Code: statusLogonFailure})))
	assert.False(t, retryable(classify(os.ErrNotExist)))
	assert.False(t, retryable(context.Canceled))
	assert.True(t, retryable(classify(errors.New("flaky"))))
	assert.True(t, retryable(classify(context.DeadlineExceeded)))
}
