// Package bot is the command layer: it turns chat commands and button clicks into
// replies, applying blacklist, tier, cooldown and quota rules on the way.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/access"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/cache"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/config"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/logger"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/metrics"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/servers"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/stats"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/vault"
)

// ScriptSearcher aggregates catalog results for a tier.
type ScriptSearcher interface {
	SearchScripts(ctx context.Context, query string, tier models.Tier) ([]models.ScriptRecord, error)
}

// GameSearcher resolves a game name or place id.
type GameSearcher interface {
	Search(ctx context.Context, query string) (models.GameSearch, error)
}

// ExecutorLister lists script executors.
type ExecutorLister interface {
	Executors(ctx context.Context) ([]models.Executor, error)
}

// Deps are the collaborators of the command layer.
type Deps struct {
	Access    *access.Controller
	Artifacts *cache.Artifacts
	Vault     *vault.Vault
	Stats     *stats.Recorder
	Scripts   ScriptSearcher
	Games     GameSearcher
	Servers   *servers.Finder
	Executors ExecutorLister
	Now       func() time.Time
}

// Command is an inbound text message.
type Command struct {
	UserID      string `json:"user_id"`
	UserTag     string `json:"user_tag"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	GuildID     string `json:"guild_id"`
	GuildName   string `json:"guild_name"`
	Text        string `json:"text"`
}

// Interaction is an inbound button click.
type Interaction struct {
	UserID   string `json:"user_id"`
	CustomID string `json:"custom_id"`
}

type request struct {
	Command
	name  string
	args  []string
	tier  models.Tier
	owner bool
}

type handlerFunc func(ctx context.Context, req request) (*Reply, error)

// Bot dispatches commands and interactions.
type Bot struct {
	Deps

	commands map[string]handlerFunc
	log      zerolog.Logger
	bot      config.Bot
	payment  config.Payment
	tier     config.Tier
}

// New creates the command layer.
func New(cfg *config.Config, deps Deps) *Bot {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	b := &Bot{
		Deps:    deps,
		bot:     cfg.Bot,
		tier:    cfg.Tier,
		payment: cfg.Payment,
		log:     logger.Component("bot"),
	}

	b.commands = map[string]handlerFunc{
		"help":          b.help,
		"menu":          b.help,
		"search":        b.search,
		"vsearch":       b.search,
		"ksearch":       b.search,
		"nksearch":      b.search,
		"serv":          b.serv,
		"premium":       b.premium,
		"addpremium":    b.owner(b.addPremium),
		"addprem":       b.owner(b.addPremium),
		"deletepremium": b.owner(b.deletePremium),
		"listpremium":   b.owner(b.listPremium),
		"botstats":      b.botStats,
		"vault":         b.vaultList,
		"getvault":      b.vaultGet,
		"delvault":      b.vaultDelete,
		"cekid":         b.cekID,
		"exme":          b.exme,
	}

	return b
}

// parse splits a prefixed command into its lowercase name and arguments.
func (b *Bot) parse(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, b.bot.Prefix) {
		return "", nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(text, b.bot.Prefix))
	if len(fields) == 0 {
		return "", nil, false
	}

	return strings.ToLower(fields[0]), fields[1:], true
}

// HandleCommand returns the reply to a text message, or nil when the message is
// ignored: not a command, unknown command or blacklisted sender.
func (b *Bot) HandleCommand(ctx context.Context, cmd Command) *Reply {
	if cmd.UserID == "" || b.Access.IsBlacklisted(cmd.UserID) {
		return nil
	}

	name, args, ok := b.parse(cmd.Text)
	if !ok {
		return nil
	}
	handler, ok := b.commands[name]
	if !ok {
		return nil
	}

	if err := b.Stats.Command(ctx, name, cmd.UserID); err != nil {
		b.log.Warn().Err(err).Str("command", name).Msg("Failed to persist stats")
	}

	req := request{
		Command: cmd,
		name:    name,
		args:    args,
		tier:    b.Access.TierOf(ctx, cmd.UserID),
		owner:   b.Access.IsOwner(cmd.UserID),
	}

	reply, err := handler(ctx, req)
	metrics.Commands.WithLabelValues(name, resultLabel(err)).Inc()
	if err != nil {
		b.log.Debug().Err(err).Str("command", name).Str("user_id", cmd.UserID).Msg("Command failed")
		return b.errorReply(err)
	}

	return reply
}

// HandleInteraction returns the reply to a button click, or nil when it is ignored.
// Interaction replies are always ephemeral.
func (b *Bot) HandleInteraction(ctx context.Context, in Interaction) *Reply {
	if in.UserID == "" || b.Access.IsBlacklisted(in.UserID) {
		return nil
	}

	name, reply, err := b.interact(ctx, in)
	if name == "" {
		return nil
	}

	metrics.Commands.WithLabelValues(name, resultLabel(err)).Inc()
	if err != nil {
		b.log.Debug().Err(err).Str("interaction", in.CustomID).Str("user_id", in.UserID).Msg("Interaction failed")
		reply = b.errorReply(err)
	}
	reply.Ephemeral = true

	return reply
}

func (b *Bot) owner(next handlerFunc) handlerFunc {
	return func(ctx context.Context, req request) (*Reply, error) {
		if !req.owner {
			return nil, models.ErrForbidden
		}
		return next(ctx, req)
	}
}

func (b *Bot) usage(format string) *Reply {
	return text("❌ **Usage:** " + strings.ReplaceAll(format, "{p}", b.bot.Prefix))
}
