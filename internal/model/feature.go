package model

import "sort"

// FeatureVector holds named scalar features plus an optional fixed-length
// embedding. The classifier consumes scalars in canonical (sorted key)
// order; feature order is part of its numeric contract.
type FeatureVector struct {
	SchemaVersion string
	Scalars       map[string]float64
	Embedding     []float32
}

func NewFeatureVector(schemaVersion string) *FeatureVector {
	return &FeatureVector{
		SchemaVersion: schemaVersion,
		Scalars:       make(map[string]float64),
	}
}

func (f *FeatureVector) Set(key string, value float64) {
	f.Scalars[key] = value
}

func (f *FeatureVector) Get(key string) float64 {
	return f.Scalars[key]
}

// Keys returns the scalar feature keys in canonical order.
func (f *FeatureVector) Keys() []string {
	keys := make([]string, 0, len(f.Scalars))
	for k := range f.Scalars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the scalar values aligned with Keys().
func (f *FeatureVector) Values() []float64 {
	keys := f.Keys()
	values := make([]float64, 0, len(keys))
	for _, k := range keys {
		values = append(values, f.Scalars[k])
	}
	return values
}
