package model

import (
	"reflect"
	"testing"
)

func TestFeatureVector_CanonicalOrder(t *testing.T) {
	fv := NewFeatureVector("s1")
	fv.Set("zcr_mean", 3)
	fv.Set("hnr", 1)
	fv.Set("pitch_mean", 2)

	wantKeys := []string{"hnr", "pitch_mean", "zcr_mean"}
	if got := fv.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Fatalf("Keys() = %v, want %v", got, wantKeys)
	}
	wantValues := []float64{1, 2, 3}
	if got := fv.Values(); !reflect.DeepEqual(got, wantValues) {
		t.Fatalf("Values() = %v, want %v", got, wantValues)
	}
}

func TestFeatureVector_InsertionOrderIrrelevant(t *testing.T) {
	a := NewFeatureVector("s1")
	a.Set("x", 1)
	a.Set("y", 2)
	b := NewFeatureVector("s1")
	b.Set("y", 2)
	b.Set("x", 1)
	if !reflect.DeepEqual(a.Values(), b.Values()) {
		t.Fatal("values must align on sorted keys regardless of insertion order")
	}
}
