package entity

const (
	BotHandle = "opponent"
	BotName   = "Bot"
)

type Player struct {
	Handle         string `json:"connectionId"`
	Mark           Piece  `json:"mark"`
	Name           string `json:"name,omitempty"`
	IsDisconnected bool   `json:"isDisconnected"`
	IsBot          bool   `json:"isBot"`
}

func NewPlayer(handle string, mark Piece, name string) *Player {
	return &Player{
		Handle: handle,
		Mark:   mark,
		Name:   name,
	}
}

func NewBotPlayer(mark Piece) *Player {
	return &Player{
		Handle: BotHandle,
		Mark:   mark,
		Name:   BotName,
		IsBot:  true,
	}
}
