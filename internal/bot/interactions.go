package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/access"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/stats"
)

// interact dispatches a button click. An empty name means the id is unknown.
func (b *Bot) interact(ctx context.Context, in Interaction) (string, *Reply, error) {
	id := in.CustomID

	switch {
	case id == idPayDana:
		return "pay_dana", b.walletPayment("DANA", "💳", b.payment.DanaNumber, b.payment.DanaName), nil
	case id == idPayGopay:
		return "pay_gopay", b.walletPayment("GOPAY", "📱", b.payment.GopayNumber, b.payment.GopayName), nil
	case id == idPayQRIS:
		return "pay_qris", b.qrisPayment(), nil
	case id == idGetPremium:
		return "get_premium", embed(b.upgradeEmbed(), paymentButtons()), nil
	case strings.HasPrefix(id, prefixCopy):
		reply, err := b.copyScript(ctx, in.UserID, strings.TrimPrefix(id, prefixCopy))
		return "copy_script", reply, err
	case strings.HasPrefix(id, prefixRaw):
		reply, err := b.rawScript(strings.TrimPrefix(id, prefixRaw))
		return "raw_script", reply, err
	case strings.HasPrefix(id, prefixSave):
		reply, err := b.saveScript(ctx, in.UserID, strings.TrimPrefix(id, prefixSave))
		return "save_vault", reply, err
	default:
		return "", nil, nil
	}
}

// copyScript delivers the script privately. Free users spend one daily copy.
func (b *Bot) copyScript(ctx context.Context, userID, handle string) (*Reply, error) {
	script, err := b.Artifacts.Get(handle)
	if err != nil {
		return nil, err
	}

	tier := b.Access.TierOf(ctx, userID)
	if err := b.Access.Quotas.Consume(userID, tier, access.ActionCopy); err != nil {
		return nil, err
	}

	if err := b.Stats.Add(ctx, stats.EventCopy, 1); err != nil {
		b.log.Warn().Err(err).Msg("Failed to persist stats")
	}

	return &Reply{
		Messages: []Message{{Content: "✅ Script has been sent to your DM! Check your direct messages."}},
		Direct:   &Message{Content: codeBlock(script.Title, script.Payload)},
	}, nil
}

func (b *Bot) rawScript(handle string) (*Reply, error) {
	script, err := b.Artifacts.Get(handle)
	if err != nil {
		return nil, err
	}

	return &Reply{Messages: []Message{{
		Content: fmt.Sprintf("**📄 Raw Script: %s**", script.Title),
		Files:   []File{{Name: "script_" + handle + ".lua", Content: script.Payload}},
	}}}, nil
}

// saveScript stores the script in the user's vault. Capacity is checked before the
// daily save quota, under the vault lock, so a full vault does not burn a save.
func (b *Bot) saveScript(ctx context.Context, userID, handle string) (*Reply, error) {
	script, err := b.Artifacts.Get(handle)
	if err != nil {
		return nil, err
	}

	tier := b.Access.TierOf(ctx, userID)

	charged := false
	_, err = b.Vault.SaveAdmitted(ctx, userID, tier, script, func() error {
		if err := b.Access.Quotas.Consume(userID, tier, access.ActionVaultSave); err != nil {
			return err
		}
		charged = true
		return nil
	})
	if err != nil {
		if charged {
			b.Access.Quotas.Refund(userID, tier, access.ActionVaultSave)
		}
		return nil, err
	}
	if err := b.Stats.Add(ctx, stats.EventVaultSave, 1); err != nil {
		b.log.Warn().Err(err).Msg("Failed to persist stats")
	}

	return text(fmt.Sprintf("✅ Script \"%s\" saved to your vault!", script.Title)), nil
}
