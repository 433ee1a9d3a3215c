package game

import "time"

// Session modes
const (
	ModePlayerVsAI = "pvai"
	ModeAIVsAI     = "aivai"
)

// Session is the persisted state of one game played through the service.
type Session struct {
	ID         string     `json:"id"`
	PlayerID   string     `json:"player_id"`
	Mode       string     `json:"mode"`
	HumanMark  PlayerMark `json:"human_mark"`
	AIMark     PlayerMark `json:"ai_mark"`
	Difficulty string     `json:"difficulty"`
	Game       Game       `json:"game"`
	MoveCount  int        `json:"move_count"`
	LastMove   int        `json:"last_move"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
