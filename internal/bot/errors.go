package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/access"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/vault"
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, models.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrNoSuitableServers):
		return "not_found"
	case errors.Is(err, models.ErrHandleExpired):
		return "expired"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, models.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

// detail returns the caller-facing message carried after a sentinel.
func detail(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// errorReply maps the error taxonomy to deterministic reply text.
func (b *Bot) errorReply(err error) *Reply {
	var (
		limited *models.RateLimitedError
		quota   *models.QuotaExceededError
	)

	switch {
	case errors.As(err, &limited):
		return embed(Embed{
			Title:       fmt.Sprintf("⏳ Cooldown: %ds", limited.RetryAfter),
			Description: "Upgrade to premium for a higher limit!\nType `" + b.bot.Prefix + "premium` for info",
			Color:       colorRed,
		})

	case errors.As(err, &quota):
		switch quota.Action {
		case string(access.ActionCopy):
			return text(fmt.Sprintf("❌ You have reached your daily copy limit (%d scripts). Upgrade to premium for unlimited copies!", quota.Cap))
		case string(access.ActionVaultSave):
			return text(fmt.Sprintf("❌ You have reached your daily vault save limit (%d saves). Upgrade to premium for unlimited saves!", quota.Cap))
		case vault.ActionStorage:
			return text(fmt.Sprintf("❌ Vault limit reached (%d scripts). Upgrade to premium for unlimited vault!", quota.Cap))
		default:
			return text(fmt.Sprintf("❌ Daily %s limit reached (%d).", quota.Action, quota.Cap))
		}

	case errors.Is(err, models.ErrHandleExpired):
		return text("❌ Script expired or not found! Please search again.")

	case errors.Is(err, models.ErrInvalidInput):
		return text("❌ **Error:** " + detail(err, models.ErrInvalidInput))

	case errors.Is(err, models.ErrNoSuitableServers):
		return text("❌ **Error:** No suitable servers found. All servers are full or VIP.")

	case errors.Is(err, models.ErrNotFound):
		return text("❌ **Error:** Nothing found for that query.")

	case errors.Is(err, models.ErrUpstreamUnavailable):
		return text("❌ **Error:** Sources are unavailable right now, please try again later.")

	case errors.Is(err, models.ErrForbidden):
		return text("🚫 **Owner only command**")

	default:
		b.log.Error().Err(err).Msg("Unexpected command error")
		return text("❌ **Error:** Something went wrong, please try again later.")
	}
}
