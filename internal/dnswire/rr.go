package dnswire

import (
	"encoding/binary"
	"fmt"
)

// rrHeader is the fixed portion common to every resource record on the
// wire: NAME, TYPE, CLASS, TTL, RDLENGTH (RFC 1035 Section 4.1.3). The
// flow analyzer never needs a record's RDATA except for the EDNS OPT
// pseudo-record's CLASS field (repurposed as the advertised UDP payload
// size), so this package walks RRs generically rather than decoding
// type-specific payloads (CNAME targets, MX preference, TXT strings).
type rrHeader struct {
	Type    uint16
	Class   uint16
	TTL     uint32
	RDLen   uint16
	RDStart int
}

// parseRRHeader reads one RR's NAME + fixed header fields from msg at
// *off, advancing *off to the start of RDATA. The caller is responsible
// for skipping RDLen bytes of RDATA afterward.
func parseRRHeader(msg []byte, off *int) (rrHeader, error) {
	if _, err := DecodeName(msg, off); err != nil {
		return rrHeader{}, err
	}
	if *off+10 > len(msg) {
		return rrHeader{}, fmt.Errorf("%w: unexpected EOF while reading DNS resource record", ErrDNSError)
	}
	h := rrHeader{
		Type:  binary.BigEndian.Uint16(msg[*off : *off+2]),
		Class: binary.BigEndian.Uint16(msg[*off+2 : *off+4]),
		TTL:   binary.BigEndian.Uint32(msg[*off+4 : *off+8]),
		RDLen: binary.BigEndian.Uint16(msg[*off+8 : *off+10]),
	}
	*off += 10
	h.RDStart = *off
	return h, nil
}

// SkipRR advances *off past one complete resource record (name, fixed
// header, and RDATA), without interpreting the RDATA payload.
func SkipRR(msg []byte, off *int) error {
	h, err := parseRRHeader(msg, off)
	if err != nil {
		return err
	}
	end := h.RDStart + int(h.RDLen)
	if end > len(msg) {
		return fmt.Errorf("%w: unexpected EOF while skipping DNS resource record rdata", ErrDNSError)
	}
	*off = end
	return nil
}

// SkipRRs advances *off past n consecutive resource records, stopping
// at the first error.
func SkipRRs(msg []byte, off *int, n uint16) error {
	for i := uint16(0); i < n; i++ {
		if err := SkipRR(msg, off); err != nil {
			return err
		}
	}
	return nil
}

// OPTInfo is the subset of an EDNS OPT pseudo-record (RFC 6891) the
// flow extractor cares about: the sender's advertised maximum UDP
// payload size, carried in the record's CLASS field.
type OPTInfo struct {
	UDPPayloadSize uint16
}

// FindOPT walks n resource records in the additional section starting
// at *off, advancing *off past all of them, and reports the OPT
// pseudo-record's advertised UDP payload size if one was present.
func FindOPT(msg []byte, off *int, n uint16) (opt *OPTInfo, found bool, err error) {
	for i := uint16(0); i < n; i++ {
		h, herr := parseRRHeader(msg, off)
		if herr != nil {
			return nil, found, herr
		}
		end := h.RDStart + int(h.RDLen)
		if end > len(msg) {
			return nil, found, fmt.Errorf("%w: unexpected EOF while reading DNS additional record rdata", ErrDNSError)
		}
		if RecordType(h.Type) == TypeOPT && !found {
			opt = &OPTInfo{UDPPayloadSize: h.Class}
			found = true
		}
		*off = end
	}
	return opt, found, nil
}
