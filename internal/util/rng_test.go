package util

import "testing"

func TestNewRandDeterministic(t *testing.T) {
	a, b := NewRand(7), NewRand(7)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
}

func TestNewRandZeroSeed(t *testing.T) {
	a, b := NewRand(0), NewRand(1)
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("zero seed must alias seed 1")
		}
	}
}
