package piv

// chain.go implements the SP 800-73-4 command/response chaining loop
// (§4.C3) on top of transceiveOne. It has three logical states —
// sending, receiving, done (§4 "State machines") — modeled here as three
// phases of one function rather than an explicit state enum, since the
// transitions are strictly sequential and never revisited.

// transmit sends ins/p1/p2/data as one logical PIV command, chaining the
// data across 255-byte segments as needed, and collects the (possibly
// also chained) response. It returns the assembled reply body and the
// final status word. Non-success status words are not treated as errors
// here — per §4.C3, "unexpected SWs are not an error of the chain engine;
// they become the caller's concern."
func (tok *Token) transmit(ins, p1, p2 byte, data []byte, wantReply bool) ([]byte, statusWord, error) {
	var (
		reply        []byte
		finalSW      statusWord
		sawCleanSend bool
	)

	segments := chainSegments(data)
	for i, seg := range segments {
		cla := chainClass(0x00, i, len(segments))
		cmd := apdu{class: cla, instruction: ins, param1: p1, param2: p2, data: seg}
		if i == len(segments)-1 && wantReply {
			cmd.hasLE = true
			cmd.le = 0x00
		}

		for {
			body, s, err := tok.transceiveOne(cmd)
			if err != nil {
				return nil, 0, err
			}
			if s.isCorrectLe() {
				// §4.C3 step 1, 0x6Cxx: resend same segment with
				// corrected LE, without advancing.
				cmd.hasLE = true
				cmd.le = s.leHint()
				continue
			}
			if len(body) > 0 {
				reply = append(reply, body...)
			}
			if i < len(segments)-1 {
				if !s.isChainContinue() {
					// An intermediate segment failed outright; abort
					// the chain and surface that SW.
					return reply, s, nil
				}
				if s == swSuccess {
					sawCleanSend = true
				}
				break
			}
			// Final segment: fall through to response-chaining.
			finalSW = s
			break
		}
	}

	// §4.C3 step 2: drain GET RESPONSE continuations.
	lastLen := len(reply)
	for finalSW.isBytesRemaining() || (finalSW == swSuccess && lastLen == maxChainSegment) {
		le := finalSW.leHint()
		cmd := apdu{instruction: insContinue, hasLE: true, le: le}
		body, s, err := tok.transceiveOne(cmd)
		if err != nil {
			return nil, 0, err
		}
		reply = append(reply, body...)
		lastLen = len(body)
		finalSW = s
	}

	// §4.C3 step 3 / §9 Open Question: tolerate cards that answer a
	// clean intermediate segment with 0x6A80 on the tail.
	if tok.chainFixup && sawCleanSend && finalSW == swWrongData {
		finalSW = swSuccess
	}

	return reply, finalSW, nil
}

// chainSegments fragments data into <=255-byte pieces (§4.C3 step 1). An
// empty input still yields one (empty) segment so the loop always runs at
// least once.
func chainSegments(data []byte) [][]byte {
	if len(data) == 0 {
		return [][]byte{nil}
	}
	var segs [][]byte
	for len(data) > maxChainSegment {
		segs = append(segs, data[:maxChainSegment])
		data = data[maxChainSegment:]
	}
	segs = append(segs, data)
	return segs
}
