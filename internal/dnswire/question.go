package dnswire

import (
	"encoding/binary"
	"fmt"
)

// Question represents a DNS question section entry (RFC 1035 Section
// 4.1.2): the name, record type, and class a query is asking about.
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// questionTailSize is the byte length of the TYPE and CLASS fields
// that follow a question's name.
const questionTailSize = 4

// ParseQuestion reads one question-section entry starting at *off,
// advancing *off past it. Name is normalized with NormalizeName so
// callers can compare it case-insensitively and without worrying
// about a trailing root dot.
func ParseQuestion(msg []byte, off *int) (Question, error) {
	name, err := DecodeName(msg, off)
	if err != nil {
		return Question{}, err
	}

	tail := *off
	if len(msg) < tail+questionTailSize {
		return Question{}, fmt.Errorf("%w: message too short for question type/class", ErrDNSError)
	}

	*off = tail + questionTailSize
	return Question{
		Name:  NormalizeName(name),
		Type:  binary.BigEndian.Uint16(msg[tail:]),
		Class: binary.BigEndian.Uint16(msg[tail+2:]),
	}, nil
}
