package util

// Dashboard thresholds shared by the reconciliation components

const (
	// VariationEpsilon is the smallest balance delta reported as a variation
	VariationEpsilon = 0.0001
)
