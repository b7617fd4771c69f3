package dnswire

// Message is the minimal decoded view of a DNS message the flow
// extractor needs: the header, the question-section entries, and
// EDNS/OPT information if present in the additional section. Answer and
// authority records are walked but never materialized, since nothing
// downstream inspects them.
type Message struct {
	Header    Header
	Questions []Question
	OPT       *OPTInfo
}

// ParseMessage decodes a DNS message from msg far enough to extract the
// header, every question, and EDNS info, skipping over the answer and
// authority sections without interpreting them. Any structural error
// aborts the whole parse; callers should treat a non-nil error as "this
// payload does not carry a well-formed DNS message" and drop it.
func ParseMessage(msg []byte) (Message, error) {
	off := 0
	h, err := ParseHeader(msg, &off)
	if err != nil {
		return Message{}, err
	}

	questions := make([]Question, 0, h.QDCount)
	for i := uint16(0); i < h.QDCount; i++ {
		q, err := ParseQuestion(msg, &off)
		if err != nil {
			return Message{}, err
		}
		questions = append(questions, q)
	}

	if err := SkipRRs(msg, &off, h.ANCount); err != nil {
		return Message{}, err
	}
	if err := SkipRRs(msg, &off, h.NSCount); err != nil {
		return Message{}, err
	}

	opt, _, err := FindOPT(msg, &off, h.ARCount)
	if err != nil {
		return Message{}, err
	}

	return Message{Header: h, Questions: questions, OPT: opt}, nil
}
