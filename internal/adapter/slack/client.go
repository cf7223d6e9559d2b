package slack

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

// Client sends bot replies and modals through the Slack Web API.
type Client struct {
	api *slack.Client
	log *slog.Logger
}

// NewClient returns a Client for the bot token. apiURL may be empty for the default endpoint.
func NewClient(token, apiURL string, log *slog.Logger) *Client {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &Client{api: slack.New(token, opts...), log: log}
}

// PostText posts a plain message. channelID may also be a user ID, which
// delivers the message as a direct message from the bot.
func (c *Client) PostText(ctx context.Context, channelID, text string) error {
	if channelID == "" {
		return fmt.Errorf("slack: no channel to post to")
	}
	_, ts, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	c.log.Debug("slack message posted", slog.String("channel", channelID), slog.String("ts", ts))
	return nil
}

// OpenModal shows view in response to the interaction identified by triggerID.
func (c *Client) OpenModal(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := c.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return fmt.Errorf("slack: open view %s: %w", view.CallbackID, err)
	}
	return nil
}
