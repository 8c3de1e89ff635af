package services

import (
	"errors"
	"testing"
)

func TestEvaluate(t *testing.T) {
	t.Run("jackpot on 64", func(t *testing.T) {
		result, err := Evaluate(64)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result != Jackpot {
			t.Fatalf("expected Jackpot, got %v", result)
		}
	})

	t.Run("every other value in the domain is a miss", func(t *testing.T) {
		for value := RollMin; value < JackpotValue; value++ {
			result, err := Evaluate(value)
			if err != nil {
				t.Fatalf("value %d: expected no error, got %v", value, err)
			}
			if result != Miss {
				t.Fatalf("value %d: expected Miss, got %v", value, result)
			}
		}
	})

	t.Run("out of domain fails fast", func(t *testing.T) {
		for _, value := range []int{0, -1, 65, 1000} {
			_, err := Evaluate(value)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("value %d: expected ErrInvalidArgument, got %v", value, err)
			}
		}
	})
}
