package game

import (
	"math/rand"
)

// Field geometry. Coordinates grow right and down.
const (
	WinningScore = 2

	Player1X     = 42
	Player2X     = 660
	PaddleHeight = 80
	PaddleStep   = 7
	PlayerMinY   = 0
	PlayerMaxY   = 400

	GateY      = 100
	GateHeight = 160
	P1GateX    = 3
	P2GateX    = 697

	BallRadius     = 10
	TopBoundary    = 10
	BottomBoundary = 410
	LeftBoundary   = 5
	RightBoundary  = 710

	CenterX        = 250
	CenterY        = 250
	InitialPaddleY = 160
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Step struct {
	StepX int `json:"step_x"`
	StepY int `json:"step_y"`
}

// InitialMoves is the set a serve direction is drawn from.
var InitialMoves = []Step{
	{StepX: 1, StepY: 1},
	{StepX: 1, StepY: 2},
	{StepX: 2, StepY: 1},
	{StepX: -1, StepY: -1},
	{StepX: -1, StepY: 1},
}

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// State is the full simulation state of one match.
type State struct {
	Result   [2]int   `json:"result"`
	P1       int      `json:"p1"`
	P2       int      `json:"p2"`
	Live     bool     `json:"live"`
	IsPaused bool     `json:"is_paused"`
	Ball     Position `json:"ball_position"`
	Move     Step     `json:"move"`
}

func NewState() State {
	return State{
		P1:   InitialPaddleY,
		P2:   InitialPaddleY,
		Live: true,
		Ball: Position{X: CenterX, Y: CenterY},
		Move: Step{StepX: -1, StepY: 1},
	}
}

// Outcome reports the winner side (0 or 1) once a side reached WinningScore.
func (s State) Outcome() (winner int, ok bool) {
	switch {
	case s.Result[0] >= WinningScore:
		return 0, true
	case s.Result[1] >= WinningScore:
		return 1, true
	}
	return 0, false
}

// Engine advances State one fixed step at a time. It holds no state of its
// own apart from the random source used for serves.
type Engine struct {
	intn func(n int) int
}

// NewEngine returns an engine drawing serves with intn. A nil intn uses
// math/rand.
func NewEngine(intn func(n int) int) *Engine {
	if intn == nil {
		intn = rand.Intn
	}
	return &Engine{intn: intn}
}

// Serve picks a new ball direction from InitialMoves.
func (e *Engine) Serve(s *State) {
	s.Move = InitialMoves[e.intn(len(InitialMoves))]
}

// Tick advances s by one step and applies paddle, goal and wall collisions
// in that order. It returns true on the tick the match is decided; the state
// is paused at that point and later ticks return false.
func (e *Engine) Tick(s *State) bool {
	if s.Live {
		s.Ball.X += s.Move.StepX
		s.Ball.Y += s.Move.StepY
	}
	e.paddles(s)
	e.goals(s)
	e.walls(s)

	if _, over := s.Outcome(); over && !s.IsPaused {
		s.Live = false
		s.IsPaused = true
		return true
	}
	return false
}

// MovePaddle moves one side's paddle by PaddleStep and keeps it on the field.
func (e *Engine) MovePaddle(s *State, side int, dir Direction) {
	y := &s.P1
	if side == 1 {
		y = &s.P2
	}
	switch dir {
	case Up:
		*y -= PaddleStep
	case Down:
		*y += PaddleStep
	}
	if *y+PaddleHeight > PlayerMaxY {
		*y = PlayerMaxY - PaddleHeight
	}
	if *y < PlayerMinY {
		*y = PlayerMinY
	}
}

// paddles reflects the ball off a paddle it is travelling toward.
func (e *Engine) paddles(s *State) {
	b := s.Ball
	if s.Move.StepX < 0 &&
		b.X-BallRadius <= Player1X &&
		b.Y+BallRadius >= s.P1 && b.Y-BallRadius <= s.P1+PaddleHeight {
		s.Move.StepX = -s.Move.StepX
	}
	if s.Move.StepX > 0 &&
		b.X+BallRadius >= Player2X &&
		b.Y+BallRadius >= s.P2 && b.Y-BallRadius <= s.P2+PaddleHeight {
		s.Move.StepX = -s.Move.StepX
	}
}

func (e *Engine) goals(s *State) {
	b := s.Ball
	inGate := b.Y+BallRadius >= GateY && b.Y-BallRadius <= GateY+GateHeight
	if !inGate {
		return
	}
	switch {
	case b.X-BallRadius <= P1GateX+2*BallRadius:
		s.Result[1]++
	case b.X+BallRadius >= P2GateX:
		s.Result[0]++
	default:
		return
	}
	s.Ball = Position{X: CenterX, Y: CenterY}
	e.Serve(s)
}

// walls looks one step ahead so the ball is never drawn past a boundary.
func (e *Engine) walls(s *State) {
	b, m := s.Ball, s.Move
	if b.Y+BallRadius+m.StepY >= BottomBoundary || b.Y-BallRadius+m.StepY <= TopBoundary {
		s.Move.StepY = -s.Move.StepY
	}
	if b.X-BallRadius+m.StepX <= LeftBoundary || b.X+BallRadius+m.StepX >= RightBoundary {
		s.Move.StepX = -s.Move.StepX
	}
}
