package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeExactMatch(t *testing.T) {
	enc := &PartEncoder{Classes: map[string]int{"BP-1001": 7}}

	key := enc.Encode("BP-1001")
	assert.Equal(t, PartKey{Number: "BP-1001", Code: 7}, key)
	assert.True(t, key.Known())
}

func TestEncodeVariantFallbacks(t *testing.T) {
	enc := &PartEncoder{Classes: map[string]int{
		"BP1001":  3,
		"XZ-9":    4,
		"bp-2002": 5,
	}}

	// Separator-stripped form matches when the raw spelling does not.
	key := enc.Encode("BP-1001")
	assert.Equal(t, PartKey{Number: "BP1001", Code: 3}, key)

	// Upper-cased form.
	key = enc.Encode("xz-9")
	assert.Equal(t, PartKey{Number: "XZ-9", Code: 4}, key)

	// Lower-cased form.
	key = enc.Encode("BP-2002")
	assert.Equal(t, PartKey{Number: "bp-2002", Code: 5}, key)
}

func TestEncodeRawSpellingWinsOverVariants(t *testing.T) {
	enc := &PartEncoder{Classes: map[string]int{
		"bp-1001": 1,
		"BP-1001": 2,
	}}

	// The raw spelling is probed first, so the exact hit wins even
	// though a case variant also exists.
	key := enc.Encode("BP-1001")
	assert.Equal(t, 2, key.Code)
}

func TestEncodeMissYieldsSentinel(t *testing.T) {
	enc := &PartEncoder{Classes: map[string]int{"BP-1001": 7}}

	key := enc.Encode("  zz-404  ")
	assert.Equal(t, UnknownPartCode, key.Code)
	assert.Equal(t, "ZZ-404", key.Number, "miss canonicalizes to trimmed upper case")
	assert.False(t, key.Known())
}

func TestEncodeNilEncoder(t *testing.T) {
	var enc *PartEncoder
	key := enc.Encode("bp-1001")
	assert.Equal(t, UnknownPartCode, key.Code)
	assert.Equal(t, "BP-1001", key.Number)
}

func TestEncodeVariantsDeduplicated(t *testing.T) {
	variants := encodeVariants("BP1001")
	// Raw, stripped and upper collapse to one entry; lower differs.
	assert.Equal(t, []string{"BP1001", "bp1001"}, variants)
}
