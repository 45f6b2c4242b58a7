package scan

// FeatureVector is the fixed-shape input of the risk model
type FeatureVector struct {
	SecurityCount    float64 `json:"security_count"`
	PerformanceCount float64 `json:"performance_count"`
	AvgSeverity      float64 `json:"avg_severity"`
	LoadTimeMS       float64 `json:"load_time_ms"`
	PageSizeKB       float64 `json:"page_size_kb"`
}

// FeatureNames lists the vector fields in model order
var FeatureNames = []string{"security_count", "performance_count", "avg_severity", "load_time_ms", "page_size_kb"}

// Values returns the vector in FeatureNames order
func (v FeatureVector) Values() []float64 {
	return []float64{v.SecurityCount, v.PerformanceCount, v.AvgSeverity, v.LoadTimeMS, v.PageSizeKB}
}

// ExtractFeatures reduces a consolidated finding list and fetch statistics to
// a FeatureVector. The average severity of an empty list is 0.
func ExtractFeatures(findings Consolidated, fetch *FetchResult) FeatureVector {
	var v FeatureVector
	var weight int

	for _, f := range findings.findings {
		switch f.typ {
		case TypeSecurity:
			v.SecurityCount++
		case TypePerformance:
			v.PerformanceCount++
		}
		weight += f.severity.Weight()
	}
	if n := len(findings.findings); n > 0 {
		v.AvgSeverity = float64(weight) / float64(n)
	}
	if fetch != nil {
		v.LoadTimeMS = fetch.ResponseTime * 1000
		v.PageSizeKB = fetch.Stats.PageSizeKB
	}
	return v
}
