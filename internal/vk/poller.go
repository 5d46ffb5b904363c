package vk

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/mkotelnikov/quizbot/internal/game"
	"github.com/mkotelnikov/quizbot/pkg/errors"
	"github.com/mkotelnikov/quizbot/pkg/logger"
)

// Poller reads the long-poll stream and feeds chat events into the
// dispatcher.
type Poller struct {
	client *Client
	route  func(game.Event) error

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(client *Client, route func(game.Event) error) *Poller {
	return &Poller{client: client, route: route}
}

// Start launches the polling loop in the background.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go p.loop(ctx)
}

// Stop terminates the polling loop and waits for it to exit.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	for {
		updates, err := p.client.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Long-poll failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			ev, ok := eventFromUpdate(update, p.client.GroupID())
			if !ok {
				continue
			}
			if err := p.route(ev); err != nil {
				if errors.HasCode(err, errors.ErrCodeShuttingDown) {
					return
				}
				logger.Warn("Event not routed", "chat_id", ev.ChatID, "kind", ev.Kind.String(), "error", err)
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// eventFromUpdate translates one long-poll update into a game event.
// Only message_new updates produce events; everything else is skipped.
func eventFromUpdate(update Update, groupID int64) (game.Event, bool) {
	if update.Type != "message_new" {
		return game.Event{}, false
	}

	var obj MessageObject
	if err := json.Unmarshal(update.Object, &obj); err != nil {
		logger.Warn("Malformed message_new update skipped", "error", err)
		return game.Event{}, false
	}
	msg := obj.Message
	chatID := strconv.FormatInt(msg.PeerID, 10)

	if msg.Action != nil && msg.Action.Type == "chat_invite_user" {
		// member_id is the negated group id when a community is invited.
		if abs(msg.Action.MemberID) == groupID {
			return game.Event{ChatID: chatID, Kind: game.EventInvite}, true
		}
		return game.Event{}, false
	}

	if msg.Payload != "" {
		var payload buttonPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err == nil {
			switch payload.Button {
			case PayloadStartGame:
				return game.Event{ChatID: chatID, Kind: game.EventStartGame, UserID: msg.FromID}, true
			case PayloadFinishGame:
				return game.Event{ChatID: chatID, Kind: game.EventFinishGame, UserID: msg.FromID}, true
			case PayloadResults:
				return game.Event{ChatID: chatID, Kind: game.EventResults, UserID: msg.FromID}, true
			}
		}
	}

	return game.Event{ChatID: chatID, Kind: game.EventText, UserID: msg.FromID, Text: msg.Text}, true
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
