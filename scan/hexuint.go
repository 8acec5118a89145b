package scan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// HexUint64 is an address-sized integer that accepts both JSON numbers
// and "0x..." strings on input, and always renders as a hex string on
// output. The editor's offset documents mix both spellings freely.
type HexUint64 uint64

func (h HexUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%X", uint64(h)))
}

func (h *HexUint64) UnmarshalJSON(data []byte) error {
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		v, err := strconv.ParseUint(num.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", num.String(), err)
		}
		*h = HexUint64(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid address value: %s", string(data))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*h = 0
		return nil
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	*h = HexUint64(v)
	return nil
}

func (h HexUint64) String() string {
	return fmt.Sprintf("0x%X", uint64(h))
}
