package vk

import "encoding/json"

// apiError is the error object VK embeds in method responses.
type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

// VK error code returned when the bot lacks chat admin rights.
const errCodeBotNotAdmin = 917

type longPollServer struct {
	Key    string `json:"key"`
	Server string `json:"server"`
	TS     string `json:"ts"`
}

type longPollResponse struct {
	TS      string   `json:"ts"`
	Failed  int      `json:"failed"`
	Updates []Update `json:"updates"`
}

// Update is one long-poll event from the group event stream.
type Update struct {
	Type   string          `json:"type"`
	Object json.RawMessage `json:"object"`
}

// MessageObject is the message payload of a message_new update.
type MessageObject struct {
	Message struct {
		ID      int64          `json:"id"`
		FromID  int64          `json:"from_id"`
		PeerID  int64          `json:"peer_id"`
		Text    string         `json:"text"`
		Payload string         `json:"payload"`
		Action  *MessageAction `json:"action"`
	} `json:"message"`
}

// MessageAction carries chat service events such as invites.
type MessageAction struct {
	Type     string `json:"type"`
	MemberID int64  `json:"member_id"`
}

// buttonPayload is the JSON VK echoes back from inline keyboard presses.
type buttonPayload struct {
	Button string `json:"button"`
}

type conversationMembers struct {
	Profiles []profile `json:"profiles"`
}

type profile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
