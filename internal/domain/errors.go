package domain

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// ErrTimeout indicates the remote side did not answer within the deadline.
var ErrTimeout = errors.New("connection timed out")

// ErrUnreachable indicates the endpoint refused or could not be reached.
var ErrUnreachable = errors.New("endpoint unreachable")

// ErrForbidden indicates a request for a path outside the shared root.
var ErrForbidden = errors.New("path escapes shared root")

// ErrNotFound indicates the requested file does not exist on the server.
var ErrNotFound = errors.New("file not found")

// ErrMalformedResponse indicates the server sent something we cannot parse.
var ErrMalformedResponse = errors.New("malformed server response")

// ErrDecompression indicates a compressed body could not be decoded even
// after falling back to uncompressed parsing.
var ErrDecompression = errors.New("failed to decompress server response")

// ErrPartialWrite indicates local disk I/O failed mid-transfer.
var ErrPartialWrite = errors.New("partial write to local file")

// ErrRetriesExhausted indicates a retryable operation failed on every attempt.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Retryable reports whether an error is worth another attempt with backoff.
// Only connection-level failures qualify; path violations, missing files and
// malformed responses are permanent.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnreachable)
}

// ClassifyNetErr maps a transport error onto the taxonomy. Context
// cancellation is passed through untouched so callers can tell a cancelled
// transfer from a dead endpoint.
func ClassifyNetErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return errors.Join(ErrUnreachable, err)
	}
	// A connection dropped mid-exchange surfaces as a bare or short EOF.
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return errors.Join(ErrUnreachable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Join(ErrUnreachable, err)
	}
	return err
}
