package dnswire

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// NormalizeName returns a lowercase DNS name without a trailing dot, for
// case-insensitive DNS name comparisons per RFC 4343.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// maxPointerHops bounds how many compression pointers DecodeName will
// chase before giving up. A well-formed message never needs more than
// a handful of hops; this only guards against adversarial input that
// tries to waste CPU with a long (but acyclic) pointer chain.
const maxPointerHops = 20

// pointerTag is the two-bit marker (both bits set) in a label-length
// byte that identifies a compression pointer rather than a label
// length (RFC 1035 Section 4.1.4).
const pointerTag = 0xC0

// DecodeName decodes a possibly-compressed DNS name starting at *off.
// On success *off is advanced past the name's encoding at its original
// position: for an uncompressed name that means past the terminating
// zero byte, and for a compressed one it means past the two-byte
// pointer, never into the region the pointer targets.
//
// Compression is resolved iteratively rather than by recursing into
// the pointer target, tracking each target offset visited so a cyclic
// or overlong chain of pointers is rejected instead of looping
// forever or overflowing the stack.
func DecodeName(msg []byte, off *int) (string, error) {
	cursor := *off
	var chunks []string
	visited := make(map[int]bool)
	hops := 0
	pinned := false

	for {
		if cursor >= len(msg) {
			return "", fmt.Errorf("%w: name decoding walked past end of message", ErrDNSError)
		}
		tag := msg[cursor]

		switch {
		case tag == 0:
			cursor++
			if !pinned {
				*off = cursor
			}
			return strings.Join(chunks, "."), nil

		case tag&pointerTag == pointerTag:
			if cursor+1 >= len(msg) {
				return "", fmt.Errorf("%w: compression pointer cut off at end of message", ErrDNSError)
			}
			target := int(binary.BigEndian.Uint16([]byte{tag &^ pointerTag, msg[cursor+1]}))
			if !pinned {
				*off = cursor + 2
				pinned = true
			}
			if target >= len(msg) {
				return "", fmt.Errorf("%w: compression pointer targets outside the message", ErrDNSError)
			}
			if visited[target] {
				return "", fmt.Errorf("%w: compression pointer chain cycles back on itself", ErrDNSError)
			}
			hops++
			if hops > maxPointerHops {
				return "", fmt.Errorf("%w: compression pointer chain exceeds %d hops", ErrDNSError, maxPointerHops)
			}
			visited[target] = true
			cursor = target

		case tag&pointerTag != 0:
			return "", fmt.Errorf("%w: label length byte has a reserved bit set", ErrDNSError)

		default:
			label, next, err := readLabelAt(msg, cursor, int(tag))
			if err != nil {
				return "", err
			}
			chunks = append(chunks, label)
			cursor = next
		}
	}
}

// readLabelAt reads the length-prefixed label starting at cursor
// (where msg[cursor] is already known to hold the label's length,
// length bytes 1..63) and returns the label text plus the offset
// immediately after it.
func readLabelAt(msg []byte, cursor, length int) (string, int, error) {
	start := cursor + 1
	end := start + length
	if end > len(msg) {
		return "", 0, fmt.Errorf("%w: label runs past end of message", ErrDNSError)
	}
	for _, c := range msg[start:end] {
		if c > 0x7F {
			return "", 0, fmt.Errorf("%w: name label contains a non-ASCII byte", ErrDNSError)
		}
	}
	return string(msg[start:end]), end, nil
}
