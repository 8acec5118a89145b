package scan

import (
	"fmt"
	"strings"

	"tablefind/process"
)

// Record indexes probed per candidate. Spread out so validation does
// not hinge on the first few records being populated.
var sampleIndexes = []uint64{0, 1, 2, 3, 5, 8, 13, 21, 34, 55}

// ValidationResult records the accept/reject decision for one
// candidate. Validation is pure per candidate: one candidate's outcome
// never affects another's.
type ValidationResult struct {
	Candidate *Candidate
	Samples   int
	Accepted  bool
	Reasons   []string
}

// validateCandidate samples records at base + j·stride for a spread of
// j values and checks the configured name fields. A candidate is
// accepted only if every role decoded to printable text at least once,
// at least one sample had every role printable simultaneously, enough
// distinct samples matched a known name, and the vote count clears the
// table threshold.
func validateCandidate(mem process.Memory, tc *TableConfig, cand *Candidate) ValidationResult {
	result := ValidationResult{Candidate: cand}

	if cand.Base == 0 {
		result.Reasons = append(result.Reasons, "base address is zero")
		return result
	}

	codec, err := codecFor(tc.Encoding)
	if err != nil {
		result.Reasons = append(result.Reasons, err.Error())
		return result
	}

	roles := tc.Roles()
	knownNames := make(map[string]map[string]bool, len(roles))
	for _, role := range roles {
		set := make(map[string]bool, len(tc.Names[role]))
		for _, n := range tc.Names[role] {
			set[strings.ToLower(strings.TrimSpace(n))] = true
		}
		knownNames[role] = set
	}

	rolePrintable := make(map[string]bool, len(roles))
	allRolesSamples := 0
	matchedSamples := 0

	for _, j := range sampleIndexes {
		result.Samples++
		sampleAllPrintable := true
		sampleMatched := false

		for _, role := range roles {
			addr := cand.Base +
				process.ProcessMemoryAddress(j*tc.Stride) +
				process.ProcessMemoryAddress(tc.NameOffsets[role])
			text, ok := readPrintableField(mem, codec, addr, tc.RoleBytes(role))
			if !ok {
				sampleAllPrintable = false
				continue
			}
			rolePrintable[role] = true
			if knownNames[role][strings.ToLower(text)] {
				sampleMatched = true
			}
		}

		if sampleAllPrintable {
			allRolesSamples++
		}
		if sampleMatched {
			matchedSamples++
		}
	}

	for _, role := range roles {
		if !rolePrintable[role] {
			result.Reasons = append(result.Reasons, fmt.Sprintf("role %q never decoded to printable text", role))
		}
	}
	if allRolesSamples == 0 {
		result.Reasons = append(result.Reasons, "no sample with every name field printable")
	}
	if matchedSamples < tc.MinNameMatches {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("known-name matches %d below required %d", matchedSamples, tc.MinNameMatches))
	}
	if cand.Votes < tc.MinVotes {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("votes %d below threshold %d", cand.Votes, tc.MinVotes))
	}

	result.Accepted = len(result.Reasons) == 0
	return result
}

// readPrintableField reads and decodes one name field. The sample is
// rejected when the read comes back short, all zero, decodes with a
// control character, or is empty after trimming padding.
func readPrintableField(mem process.Memory, codec *textCodec, addr process.ProcessMemoryAddress, size process.ProcessMemorySize) (string, bool) {
	if size == 0 {
		return "", false
	}

	data, err := mem.ReadMemory(addr, size)
	if err != nil || len(data) < int(size) {
		return "", false
	}

	if allZero(data) {
		return "", false
	}

	// Cut at the first terminator so trailing garbage past the name
	// does not poison the decode.
	data = cutAtTerminator(data, codec.bytesPerChar)

	text, err := codec.decode(data)
	if err != nil {
		return "", false
	}

	text = strings.TrimRight(text, "\x00")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	for _, r := range text {
		if r < 0x20 || r == 0x7f {
			return "", false
		}
	}
	return text, true
}

func allZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// cutAtTerminator truncates at the first all-zero character cell.
func cutAtTerminator(data []byte, bytesPerChar int) []byte {
	for i := 0; i+bytesPerChar <= len(data); i += bytesPerChar {
		if allZero(data[i : i+bytesPerChar]) {
			return data[:i]
		}
	}
	return data
}
