package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"

	"github.com/openlangar/langar/internal/config"
)

type mockSlackClient struct {
	channels []string
	err      error
}

func (m *mockSlackClient) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channels = append(m.channels, channelID)
	return "", "", m.err
}

func TestSlack_Send(t *testing.T) {
	client := &mockSlackClient{}
	s, err := NewSlack(SlackOpts{Client: client, ChannelID: "C0LANGAR"})
	if err != nil {
		t.Fatalf("NewSlack: %v", err)
	}

	if err := s.Send(context.Background(), Event{Title: "t", Body: "b"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(client.channels) != 1 || client.channels[0] != "C0LANGAR" {
		t.Errorf("posted channels = %v", client.channels)
	}
}

func TestSlack_SendError(t *testing.T) {
	client := &mockSlackClient{err: errors.New("rate limited")}
	s, _ := NewSlack(SlackOpts{Client: client, ChannelID: "C"})

	if err := s.Send(context.Background(), Event{Title: "t"}); err == nil {
		t.Error("expected error")
	}
}

func TestNewSlack_Validation(t *testing.T) {
	if _, err := NewSlack(SlackOpts{ChannelID: "C"}); err == nil {
		t.Error("missing token accepted")
	}
	if _, err := NewSlack(SlackOpts{BotToken: "xoxb-x"}); err == nil {
		t.Error("missing channel accepted")
	}
}

type mockDiscordSession struct {
	embeds []*discordgo.MessageEmbed
	closed bool
	err    error
}

func (m *mockDiscordSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.embeds = append(m.embeds, embed)
	return nil, m.err
}

func (m *mockDiscordSession) Close() error {
	m.closed = true
	return nil
}

func TestDiscord_Send(t *testing.T) {
	sess := &mockDiscordSession{}
	d, err := NewDiscord(DiscordOpts{Session: sess, ChannelID: "123"})
	if err != nil {
		t.Fatalf("NewDiscord: %v", err)
	}

	if err := d.Send(context.Background(), Event{Title: "Meal complete: Lunch", Body: "done"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sess.embeds) != 1 || sess.embeds[0].Title != "Meal complete: Lunch" {
		t.Errorf("embeds = %+v", sess.embeds)
	}

	d.Close()
	if !sess.closed {
		t.Error("session not closed")
	}
}

func TestNewDiscord_Validation(t *testing.T) {
	if _, err := NewDiscord(DiscordOpts{ChannelID: "123"}); err == nil {
		t.Error("missing token accepted")
	}
	if _, err := NewDiscord(DiscordOpts{BotToken: "x"}); err == nil {
		t.Error("missing channel accepted")
	}
}

func TestFromConfig(t *testing.T) {
	n, err := FromConfig(config.NotifyConfig{})
	if err != nil {
		t.Fatalf("FromConfig empty: %v", err)
	}
	if _, ok := n.(Nop); !ok {
		t.Errorf("empty platform = %T, want Nop", n)
	}

	n, err = FromConfig(config.NotifyConfig{
		Platform: "slack",
		Slack:    config.SlackConfig{BotToken: "xoxb-x", ChannelID: "C"},
	})
	if err != nil {
		t.Fatalf("FromConfig slack: %v", err)
	}
	if _, ok := n.(*Slack); !ok {
		t.Errorf("slack platform = %T, want *Slack", n)
	}

	if _, err := FromConfig(config.NotifyConfig{Platform: "irc"}); err == nil {
		t.Error("unsupported platform accepted")
	}
}

func TestNop(t *testing.T) {
	var n Nop
	if err := n.Send(context.Background(), Event{}); err != nil {
		t.Errorf("Nop.Send: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("Nop.Close: %v", err)
	}
}
