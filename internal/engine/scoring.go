package engine

// Multiplier doubles the stakes for the last two rounds.
func Multiplier(round int) int {
	if round >= 9 {
		return 2
	}
	return 1
}

// Resolve maps a pair of set choices to the score deltas for seat1 and seat2.
// Both choices must be set; unset input yields (0, 0).
func Resolve(c1, c2 Choice, round int) (int, int) {
	m := Multiplier(round)
	switch {
	case c1 == ChoiceRed && c2 == ChoiceRed:
		return 3 * m, 3 * m
	case c1 == ChoiceBlue && c2 == ChoiceRed:
		return 6 * m, -6 * m
	case c1 == ChoiceRed && c2 == ChoiceBlue:
		return -6 * m, 6 * m
	case c1 == ChoiceBlue && c2 == ChoiceBlue:
		return -3 * m, -3 * m
	default:
		return 0, 0
	}
}
