package vk

import "encoding/json"

// Button payloads echoed back by VK when a keyboard button is pressed.
const (
	PayloadStartGame  = "start_game"
	PayloadFinishGame = "finish_game"
	PayloadResults    = "result_game"
)

type keyboardButton struct {
	Action keyboardAction `json:"action"`
	Color  string         `json:"color"`
}

type keyboardAction struct {
	Type    string `json:"type"`
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

type keyboard struct {
	Inline  bool               `json:"inline"`
	Buttons [][]keyboardButton `json:"buttons"`
}

// NavigateKeyboard renders the inline game-control keyboard JSON.
func NavigateKeyboard() string {
	kb := keyboard{
		Inline: true,
		Buttons: [][]keyboardButton{
			{
				button("Начать игру", PayloadStartGame, "positive"),
				button("Завершить игру", PayloadFinishGame, "negative"),
			},
			{
				button("Результаты", PayloadResults, "primary"),
			},
		},
	}
	data, _ := json.Marshal(kb)
	return string(data)
}

func button(label, payloadButton, color string) keyboardButton {
	payload, _ := json.Marshal(buttonPayload{Button: payloadButton})
	return keyboardButton{
		Action: keyboardAction{
			Type:    "text",
			Label:   label,
			Payload: string(payload),
		},
		Color: color,
	}
}
