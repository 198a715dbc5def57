package assets

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// UnknownPartCode is the sentinel code for parts absent from the
// encoder vocabulary. Unknown parts are still forecast, against the
// global default statistics.
const UnknownPartCode = -1

// PartKey identifies a part after encoding. Number is the vocabulary
// spelling that matched (or the trimmed upper-cased input when nothing
// matched) and is the key used against the stats tables and active map.
type PartKey struct {
	Number string
	Code   int
}

func (k PartKey) Known() bool { return k.Code != UnknownPartCode }

// PartEncoder maps part numbers to the integer codes the model was
// trained with.
type PartEncoder struct {
	Classes map[string]int `json:"classes"`
}

// Encode resolves a raw part number against the vocabulary. Dealers key
// parts inconsistently, so several spellings are probed in order: the
// raw string, the string with separator characters stripped, upper case
// and lower case. The first vocabulary hit wins. A miss yields the
// sentinel code, never an error.
func (e *PartEncoder) Encode(raw string) PartKey {
	trimmed := strings.TrimSpace(raw)

	if e != nil {
		for _, candidate := range encodeVariants(trimmed) {
			if code, ok := e.Classes[candidate]; ok {
				return PartKey{Number: candidate, Code: code}
			}
		}
	}

	log.Debug().Str("part", raw).Msg("part number not in encoder vocabulary, using sentinel code")
	return PartKey{Number: strings.ToUpper(trimmed), Code: UnknownPartCode}
}

func encodeVariants(s string) []string {
	variants := []string{s, stripSeparators(s), strings.ToUpper(s), strings.ToLower(s)}

	seen := make(map[string]struct{}, len(variants))
	out := variants[:0]
	for _, v := range variants {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func stripSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}
