package services

import "fmt"

// Telegram's slot machine dice reports a value in 1..64, where 64 is the
// triple-seven combination.
const (
	RollMin      = 1
	RollMax      = 64
	JackpotValue = 64
)

// RollResult classifies one slot-machine roll.
type RollResult int

const (
	Miss RollResult = iota
	Jackpot
)

func (r RollResult) String() string {
	if r == Jackpot {
		return "jackpot"
	}
	return "miss"
}

// Evaluate maps a dice value to Jackpot or Miss. A value outside the dice
// domain is a caller bug and fails fast instead of counting as a miss.
func Evaluate(value int) (RollResult, error) {
	if value < RollMin || value > RollMax {
		return Miss, fmt.Errorf("%w: roll value %d outside %d..%d", ErrInvalidArgument, value, RollMin, RollMax)
	}
	if value == JackpotValue {
		return Jackpot, nil
	}
	return Miss, nil
}
