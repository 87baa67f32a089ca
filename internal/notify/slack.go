package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/lanes/internal/domain"
)

// SlackAPI abstracts the subset of the Slack client used by SlackNotifier.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackNotifier posts content-approval transitions to a Slack channel.
type SlackNotifier struct {
	api     SlackAPI
	channel string
}

// NewSlackNotifier creates a SlackNotifier posting to the given channel.
func NewSlackNotifier(api SlackAPI, channel string) *SlackNotifier {
	return &SlackNotifier{api: api, channel: channel}
}

// PageStatusChanged announces a page moving through the approval workflow.
func (n *SlackNotifier) PageStatusChanged(_ context.Context, page *domain.Page, actorName string, from, to domain.PageStatus) error {
	text := fmt.Sprintf("%s moved *%s* from %s to %s", actorName, page.Title, from, to)

	_, _, err := n.api.PostMessage(n.channel, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify.SlackNotifier.PageStatusChanged: %w", err)
	}

	return nil
}
