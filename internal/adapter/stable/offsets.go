package stable

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

//go:embed offsets.json
var offsetsData []byte

// offsetTable describes where to find things inside the stable client.
// Shipping it as data keeps client-update churn out of the code: a new
// client build usually moves offsets, not logic.
type offsetTable struct {
	Signatures struct {
		Base    string `json:"base"`
		Status  string `json:"status"`
		Ruleset string `json:"ruleset"`
	} `json:"signatures"`
	Beatmap struct {
		PtrOffset  int64  `json:"ptr_offset"` // relative to the base anchor
		ID         uint64 `json:"id"`
		Artist     uint64 `json:"artist"`
		Title      uint64 `json:"title"`
		Creator    uint64 `json:"creator"`
		Difficulty uint64 `json:"difficulty"`
		Folder     uint64 `json:"folder"`
		File       uint64 `json:"file"`
		Ranked     uint64 `json:"ranked"`
	} `json:"beatmap"`
	Status struct {
		PtrOffset int64 `json:"ptr_offset"` // relative to the status anchor
	} `json:"status"`
	Mods struct {
		RulesetPtr  uint64 `json:"ruleset_ptr"`
		GameplayPtr uint64 `json:"gameplay_ptr"`
		ScorePtr    uint64 `json:"score_ptr"`
		Mods        uint64 `json:"mods"`
		Value       uint64 `json:"value"`
		Mask        uint64 `json:"mask"`
	} `json:"mods"`
}

func loadOffsets() (*offsetTable, error) {
	var t offsetTable
	if err := json.Unmarshal(offsetsData, &t); err != nil {
		return nil, fmt.Errorf("parse embedded offsets: %w", err)
	}
	return &t, nil
}

// signature is a byte pattern with wildcard positions ("AA BB ?? CC").
type signature struct {
	bytes []byte
	mask  []bool // true = must match
}

func parseSignature(s string) (signature, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return signature{}, fmt.Errorf("empty signature")
	}
	sig := signature{
		bytes: make([]byte, len(fields)),
		mask:  make([]bool, len(fields)),
	}
	for i, f := range fields {
		if f == "??" {
			continue
		}
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return signature{}, fmt.Errorf("bad signature byte %q: %w", f, err)
		}
		sig.bytes[i] = byte(b)
		sig.mask[i] = true
	}
	return sig, nil
}

// find returns the index of the first match in buf, or -1.
func (s signature) find(buf []byte) int {
	if len(s.bytes) == 0 || len(buf) < len(s.bytes) {
		return -1
	}
outer:
	for i := 0; i <= len(buf)-len(s.bytes); i++ {
		for j := range s.bytes {
			if s.mask[j] && buf[i+j] != s.bytes[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
