package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mkotelnikov/quizbot/internal/game"
	"github.com/mkotelnikov/quizbot/pkg/errors"
	"github.com/mkotelnikov/quizbot/pkg/logger"
	"github.com/mkotelnikov/quizbot/pkg/utils"
)

const (
	apiBase    = "https://api.vk.com/method/"
	apiVersion = "5.131"

	// Long-poll hold time in seconds.
	pollWait = 25
)

// Client talks to the VK Bots API and the group long-poll server. It is
// the production game.Gateway.
type Client struct {
	token   string
	groupID int64
	http    *http.Client

	server longPollServer
}

func NewClient(token string, groupID int64) *Client {
	return &Client{
		token:   token,
		groupID: groupID,
		http:    &http.Client{Timeout: (pollWait + 10) * time.Second},
	}
}

// GroupID returns the bot community id.
func (c *Client) GroupID() int64 {
	return c.groupID
}

// Connect obtains a fresh long-poll server endpoint. Called at startup
// and again whenever the server reports an expired key.
func (c *Client) Connect() error {
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(c.groupID, 10))

	var server longPollServer
	if err := c.call("groups.getLongPollServer", params, &server); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to obtain long-poll server")
	}
	c.server = server
	logger.Info("Connected to VK long-poll server", "group_id", c.groupID)
	return nil
}

// Poll blocks on the long-poll server and returns the next update batch.
// Server-side failure codes are handled by re-keying or reconnecting
// before returning an empty batch.
func (c *Client) Poll(ctx context.Context) ([]Update, error) {
	params := url.Values{}
	params.Set("act", "a_check")
	params.Set("key", c.server.Key)
	params.Set("ts", c.server.TS)
	params.Set("wait", strconv.Itoa(pollWait))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.server.Server+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to build long-poll request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "long-poll request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to read long-poll response")
	}

	var polled longPollResponse
	if err := json.Unmarshal(body, &polled); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to decode long-poll response")
	}

	switch polled.Failed {
	case 0:
		c.server.TS = polled.TS
		return polled.Updates, nil
	case 1:
		// History is out of date, resume from the reported ts.
		c.server.TS = polled.TS
		return nil, nil
	default:
		// Key expired or information lost, re-key entirely.
		logger.Warn("Long-poll key expired, reconnecting", "failed", polled.Failed)
		if err := c.Connect(); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// SendMessage posts a chat message, optionally attaching the game
// navigation keyboard.
func (c *Client) SendMessage(chatID, text string, kb game.Keyboard) error {
	peerID, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid chat id")
	}

	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(peerID, 10))
	params.Set("message", text)
	params.Set("random_id", strconv.FormatInt(utils.RandomID(), 10))
	if kb == game.KeyboardNavigate {
		params.Set("keyboard", NavigateKeyboard())
	}

	var messageID json.RawMessage
	if err := c.call("messages.send", params, &messageID); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to send message")
	}
	return nil
}

// ChatMembers returns the human roster of a chat. VK error 917 maps to
// a PERMISSION_DENIED error, raised when the bot is not a chat admin.
func (c *Client) ChatMembers(chatID string) ([]game.ChatMember, error) {
	params := url.Values{}
	params.Set("peer_id", chatID)

	var members conversationMembers
	if err := c.call("messages.getConversationMembers", params, &members); err != nil {
		return nil, err
	}

	out := make([]game.ChatMember, 0, len(members.Profiles))
	for _, p := range members.Profiles {
		out = append(out, game.ChatMember{
			VkID:      p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
		})
	}
	return out, nil
}

// call invokes one VK API method and decodes its response field.
func (c *Client) call(method string, params url.Values, out interface{}) error {
	params.Set("access_token", c.token)
	params.Set("v", apiVersion)

	resp, err := c.http.PostForm(apiBase+method, params)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, fmt.Sprintf("vk api request %s failed", method))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to read vk api response")
	}

	var envelope struct {
		Error    *apiError       `json:"error"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to decode vk api response")
	}
	if envelope.Error != nil {
		if envelope.Error.Code == errCodeBotNotAdmin {
			return errors.New(errors.ErrCodePermissionDenied, "bot is not a chat admin")
		}
		return errors.New(errors.ErrCodeInternalError,
			fmt.Sprintf("vk api error %d: %s", envelope.Error.Code, envelope.Error.Message))
	}

	if out != nil && len(envelope.Response) > 0 {
		if err := json.Unmarshal(envelope.Response, out); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to decode vk api payload")
		}
	}
	return nil
}
