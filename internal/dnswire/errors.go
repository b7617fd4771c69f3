// Package dnswire provides read-only DNS message parsing (RFC 1035,
// RFC 6891) for the flow analyzer's DNS feature extractor.
//
// Standards compliance:
//
//   - RFC 1035: Domain Names - Implementation and Specification
//   - RFC 3596: DNS Extensions to Support IPv6 (AAAA records)
//   - RFC 6891: Extension Mechanisms for DNS (EDNS, OPT records)
//
// This package only decodes wire bytes into Go values; it never encodes,
// since the flow analyzer observes DNS traffic passively and never
// originates or forwards a DNS message.
//
// All errors are wrapped with context using fmt.Errorf("...: %w", err)
// so callers can use errors.Is against ErrDNSError without string
// matching.
package dnswire

import "errors"

// ErrDNSError is a sentinel error for DNS wire-format violations. Wrap
// it with fmt.Errorf("context: %w", ErrDNSError) to add detail.
var ErrDNSError = errors.New("dns wire error")
