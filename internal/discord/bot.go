// Package discord is the chat front end: it greets new members and hands out
// flags through a button and a pseudo modal.
package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/rpggio/flagbot/internal/domain/issuance"
	"github.com/rpggio/flagbot/internal/messages"
)

const (
	// FlagButtonID is the custom id of the persistent "get my flag" button.
	FlagButtonID = "btn_ctf_flag"
	// PseudoModalID is the custom id of the pseudo modal.
	PseudoModalID = "modal_ctf_pseudo"
	// PseudoInputID is the custom id of the pseudo text input.
	PseudoInputID = "pseudo"

	pseudoMinLength = 3
	pseudoMaxLength = 20

	welcomeColor = 0x6441A5
	ctfColor     = 0xF1C40F
)

// Session is the subset of the Discord REST API the bot calls.
type Session interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Issuer runs one issuance attempt.
type Issuer interface {
	Issue(ctx context.Context, req issuance.Request) (*issuance.Outcome, error)
}

// Options configures the guild the bot serves.
type Options struct {
	RoleID           string
	WelcomeChannelID string
	CTFChannelID     string
}

// Bot handles gateway events.
type Bot struct {
	session  Session
	issuer   Issuer
	messages *messages.Catalog
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewBot creates a bot that talks through session.
func NewBot(session Session, issuer Issuer, catalog *messages.Catalog, opts Options, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bot{
		session:  session,
		issuer:   issuer,
		messages: catalog,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Run connects to the gateway with token and serves events until ctx is done.
func Run(ctx context.Context, token string, issuer Issuer, catalog *messages.Catalog, opts Options, logger *slog.Logger) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	bot := NewBot(dg, issuer, catalog, opts, logger)
	dg.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		bot.logger.Info("discord bot ready", "user", r.User.Username)
	})
	dg.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		bot.HandleMemberJoin(ctx, m.Member)
	})
	dg.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		bot.HandleInteraction(ctx, i.Interaction)
	})

	if err := dg.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	<-ctx.Done()
	if err := dg.Close(); err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	return nil
}

// HandleMemberJoin assigns the member role and posts the welcome and CTF
// messages. Each step is attempted even when an earlier one fails.
func (b *Bot) HandleMemberJoin(_ context.Context, member *discordgo.Member) {
	if member == nil || member.User == nil || member.User.Bot {
		return
	}
	user := member.User
	logger := b.logger.With("participant_id", user.ID, "guild_id", member.GuildID)

	if b.opts.RoleID != "" {
		if err := b.session.GuildMemberRoleAdd(member.GuildID, user.ID, b.opts.RoleID); err != nil {
			logger.Warn("assign member role", "role_id", b.opts.RoleID, "error", err)
		}
	}

	locale := ""
	if b.opts.WelcomeChannelID != "" {
		welcome := &discordgo.MessageEmbed{
			Title:       b.messages.Text(locale, messages.KeyWelcomeTitle),
			Description: b.messages.Text(locale, messages.KeyWelcomeBody, user.Mention()),
			Color:       welcomeColor,
			Timestamp:   b.now().Format(time.RFC3339),
			Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")},
		}
		if _, err := b.session.ChannelMessageSendComplex(b.opts.WelcomeChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{welcome},
		}); err != nil {
			logger.Warn("send welcome message", "channel_id", b.opts.WelcomeChannelID, "error", err)
		}
	}

	if b.opts.CTFChannelID != "" {
		ctf := &discordgo.MessageEmbed{
			Title:       b.messages.Text(locale, messages.KeyCTFTitle),
			Description: b.messages.Text(locale, messages.KeyCTFBody, user.Mention()),
			Color:       ctfColor,
			Footer:      &discordgo.MessageEmbedFooter{Text: b.messages.Text(locale, messages.KeyCTFFooter, user.Username)},
		}
		if _, err := b.session.ChannelMessageSendComplex(b.opts.CTFChannelID, &discordgo.MessageSend{
			Content:    user.Mention(),
			Embeds:     []*discordgo.MessageEmbed{ctf},
			Components: []discordgo.MessageComponent{b.flagButtonRow(locale)},
		}); err != nil {
			logger.Warn("send ctf message", "channel_id", b.opts.CTFChannelID, "error", err)
		}
	}
}

// HandleInteraction answers the flag button with the pseudo modal and runs an
// issuance attempt when the modal is submitted.
func (b *Bot) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	if i == nil {
		return
	}
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().CustomID != FlagButtonID {
			return
		}
		if err := b.session.InteractionRespond(i, b.pseudoModal(string(i.Locale))); err != nil {
			b.logger.Warn("open pseudo modal", "error", err)
		}
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		if data.CustomID != PseudoModalID {
			return
		}
		b.handlePseudoSubmit(ctx, i, modalValue(data.Components, PseudoInputID))
	}
}

func (b *Bot) handlePseudoSubmit(ctx context.Context, i *discordgo.Interaction, pseudo string) {
	user := interactionUser(i)
	if user == nil {
		return
	}
	locale := string(i.Locale)
	logger := b.logger.With("participant_id", user.ID, "pseudo", pseudo)

	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		logger.Warn("defer interaction response", "error", err)
		return
	}

	var reply string
	out, err := b.issuer.Issue(ctx, issuance.Request{ParticipantID: user.ID, DisplayName: pseudo})
	switch {
	case err != nil:
		if !errors.Is(err, issuance.ErrInvalidInput) {
			logger.Error("issue flag", "error", err)
		}
		reply = b.messages.Text(locale, messages.KeyFailed)
	default:
		reply = b.messages.Outcome(locale, out)
	}

	if _, err := b.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: reply,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		logger.Warn("send issuance reply", "error", err)
	}
}

func (b *Bot) flagButtonRow(locale string) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    b.messages.Text(locale, messages.KeyButtonLabel),
				Style:    discordgo.SuccessButton,
				CustomID: FlagButtonID,
			},
		},
	}
}

func (b *Bot) pseudoModal(locale string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: PseudoModalID,
			Title:    b.messages.Text(locale, messages.KeyModalTitle),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    PseudoInputID,
							Label:       b.messages.Text(locale, messages.KeyModalLabel),
							Style:       discordgo.TextInputShort,
							Placeholder: b.messages.Text(locale, messages.KeyModalPlaceholder),
							Required:    true,
							MinLength:   pseudoMinLength,
							MaxLength:   pseudoMaxLength,
						},
					},
				},
			},
		},
	}
}

// interactionUser is the member in a guild, the user in a DM.
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func modalValue(components []discordgo.MessageComponent, customID string) string {
	for _, c := range components {
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			if value := modalValue(v.Components, customID); value != "" {
				return value
			}
		case *discordgo.TextInput:
			if v.CustomID == customID {
				return v.Value
			}
		}
	}
	return ""
}
