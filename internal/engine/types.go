package engine

import "time"

// MaxRounds is the fixed length of a match.
const MaxRounds = 10

type Choice string

const (
	ChoiceUnset Choice = ""
	ChoiceRed   Choice = "RED"
	ChoiceBlue  Choice = "BLUE"
)

func (c Choice) Valid() bool {
	return c == ChoiceRed || c == ChoiceBlue
}

func ParseChoice(s string) (Choice, error) {
	c := Choice(s)
	if !c.Valid() {
		return ChoiceUnset, ErrInvalidChoice
	}
	return c, nil
}

type Seat int

const (
	SeatNone Seat = 0
	Seat1    Seat = 1
	Seat2    Seat = 2
)

var Seats = [2]Seat{Seat1, Seat2}

func (s Seat) Other() Seat {
	switch s {
	case Seat1:
		return Seat2
	case Seat2:
		return Seat1
	default:
		return SeatNone
	}
}

// Role is the seat name handed back to clients ("player1" / "player2").
func (s Seat) Role() string {
	switch s {
	case Seat1:
		return "player1"
	case Seat2:
		return "player2"
	default:
		return ""
	}
}

type State string

const (
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StatePaused    State = "paused"
	StateFinished  State = "finished"
	StateAbandoned State = "abandoned"
)

func ParseState(s string) (State, bool) {
	switch st := State(s); st {
	case StateWaiting, StateActive, StatePaused, StateFinished, StateAbandoned:
		return st, true
	default:
		return "", false
	}
}

func (s State) Terminal() bool {
	return s == StateFinished || s == StateAbandoned
}

type Player struct {
	Name           string
	Token          string
	Score          int
	DisconnectedAt *time.Time
}

type Round struct {
	Number    int
	Choice1   Choice
	Choice2   Choice
	Delta1    int
	Delta2    int
	CreatedAt time.Time
}

type Game struct {
	ID           string
	JoinCode     string
	Seat1        Player
	Seat2        Player
	State        State
	CurrentRound int
	CreatedAt    time.Time
	FinishedAt   *time.Time
	Rounds       []*Round
}

func (g *Game) Player(s Seat) *Player {
	switch s {
	case Seat1:
		return &g.Seat1
	case Seat2:
		return &g.Seat2
	default:
		return nil
	}
}

// Full reports whether both seats are currently occupied.
func (g *Game) Full() bool {
	return g.Seat1.Name != "" && g.Seat2.Name != ""
}

// Clone returns a deep copy, so stores never share round pointers with callers.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.Seat1.DisconnectedAt = cloneTime(g.Seat1.DisconnectedAt)
	c.Seat2.DisconnectedAt = cloneTime(g.Seat2.DisconnectedAt)
	c.FinishedAt = cloneTime(g.FinishedAt)
	c.Rounds = make([]*Round, len(g.Rounds))
	for i, r := range g.Rounds {
		rc := *r
		c.Rounds[i] = &rc
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
