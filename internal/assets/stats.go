package assets

// DefaultStats is one fallback-statistics table (3-month average,
// 6-month average, or 3-month standard deviation). Keys are canonical
// part numbers as produced at training time; any part absent from
// PartMedians resolves to GlobalMedian.
type DefaultStats struct {
	PartMedians  map[string]float64 `json:"part_medians"`
	GlobalMedian float64            `json:"global_median"`
}

// Resolve looks up the default statistic for a part. A missing key
// resolves to the global median; a nil or empty table resolves to 0.
// Resolve never fails: cold-start parts must still get a seed value or
// every new part would forecast flat zero.
func (s *DefaultStats) Resolve(partNumber string) float64 {
	if s == nil {
		return 0
	}
	if v, ok := s.PartMedians[partNumber]; ok {
		return v
	}
	return s.GlobalMedian
}

// ActiveMap maps canonical part numbers to a 0/1 activity flag.
// Absent parts are inactive.
type ActiveMap map[string]int

func (m ActiveMap) IsActive(partNumber string) int {
	if m == nil {
		return 0
	}
	return m[partNumber]
}

// StatSet bundles the three fallback tables a dealer's model was
// trained against.
type StatSet struct {
	Avg3 *DefaultStats
	Avg6 *DefaultStats
	Std3 *DefaultStats
}

// PartDefaults are the resolved fallback values for one part.
type PartDefaults struct {
	Avg3 float64
	Avg6 float64
	Std3 float64
}

func (s StatSet) Defaults(partNumber string) PartDefaults {
	return PartDefaults{
		Avg3: s.Avg3.Resolve(partNumber),
		Avg6: s.Avg6.Resolve(partNumber),
		Std3: s.Std3.Resolve(partNumber),
	}
}
