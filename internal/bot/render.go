package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

// Button id prefixes.
const (
	prefixCopy = "copy_script_"
	prefixRaw  = "raw_script_"
	prefixSave = "save_vault_"

	idGetPremium = "get_premium"
	idPayDana    = "pay_dana"
	idPayGopay   = "pay_gopay"
	idPayQRIS    = "pay_qris"
)

const dateLayout = "2006-01-02"

func yesNo(v bool) string {
	if v {
		return "✅ YES"
	}
	return "❌ NO"
}

// thousands formats n with comma separators.
func thousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var out strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}

	if neg {
		return "-" + out.String()
	}
	return out.String()
}

func shortHandle(handle string) string {
	if len(handle) > 8 {
		return handle[:8]
	}
	return handle
}

func codeBlock(title, payload string) string {
	return fmt.Sprintf("**📋 Script: %s**\n\n```lua\n%s\n```", title, payload)
}

// scriptButtons renders the action row under a script. Free users also get an
// upgrade button.
func scriptButtons(handle string, tier models.Tier) ActionRow {
	row := ActionRow{Buttons: []Button{
		{CustomID: prefixCopy + handle, Label: "Copy Script", Emoji: "📋", Style: StylePrimary},
		{CustomID: prefixRaw + handle, Label: "Show Raw", Emoji: "📄", Style: StyleSecondary},
	}}
	if tier != models.TierPremium {
		row.Buttons = append(row.Buttons, Button{CustomID: idGetPremium, Label: "Premium", Emoji: "💎", Style: StyleSuccess})
	}
	row.Buttons = append(row.Buttons, Button{CustomID: prefixSave + handle, Label: "Save", Emoji: "💾", Style: StyleSecondary})

	return row
}

func (b *Bot) scriptEmbed(i int, s models.ScriptRecord, handle string) Embed {
	color := colorOrange
	if s.Verified {
		color = colorGreen
	}
	thumb := s.Thumbnail
	if thumb == "" {
		thumb = b.bot.Thumbnail
	}

	return Embed{
		Title: fmt.Sprintf("%d. %s", i+1, s.Title),
		Description: fmt.Sprintf(
			"🎮 **Game:** %s\n🔑 **Key System:** %s\n📱 **Mobile Ready:** %s\n👁️ **Views:** %s\n🛡️ **Verified:** %s\n👤 **Creator:** %s\n📋 **Click buttons below to copy!**",
			s.GameName, yesNo(s.KeyRequired), yesNo(s.MobileReady), thousands(s.Views), yesNo(s.Verified), s.Creator,
		),
		Thumbnail: thumb,
		Footer:    fmt.Sprintf("Source: %s • ID: %s", s.Source, shortHandle(handle)),
		Color:     color,
	}
}

// ReleaseMessage renders an auto-release announcement for a registered handle.
func (b *Bot) ReleaseMessage(i, total int, s models.ScriptRecord, handle string) Message {
	e := b.scriptEmbed(i, s, handle)
	e.Title = fmt.Sprintf("📜 SCRIPT %d/%d: %s", i+1, total, s.Title)
	e.Color = colorGreen
	if !s.LastUpdated.IsZero() {
		e.Footer = "XFOR Discord Bot • Updated: " + s.LastUpdated.Format(dateLayout)
	}

	return Message{Embeds: []Embed{e}, Components: []ActionRow{scriptButtons(handle, models.TierFree)}}
}

const maxLinkButtons = 5

func (b *Bot) serverEmbed(query string, records []models.ServerRecord) Message {
	game := records[0].GameName
	e := Embed{
		Title:       "🎮 Servers for " + game,
		Description: fmt.Sprintf("🔍 **Query:** %s\n🆔 **Place ID:** %s\n📊 **Found:** %d servers", query, records[0].PlaceID, len(records)),
		Thumbnail:   b.bot.ServerThumb,
		Footer:      "XFOR Discord Bot • Click a button to join",
		Color:       colorGreen,
	}

	var row ActionRow
	for i, r := range records {
		vip := ""
		if r.VIP {
			vip = " • VIP"
		}
		e.Fields = append(e.Fields, Field{
			Name: fmt.Sprintf("#%d • %s%s", i+1, r.ShortID, vip),
			Value: fmt.Sprintf("👥 %d/%d players (%d%%)\n⏱️ %s\n🔗 [Join](%s)\n📱 `%s`",
				r.Players, r.MaxPlayers, r.FillPercentage, r.Prediction(), r.WebLink, r.LaunchLink),
		})
		if i < maxLinkButtons {
			row.Buttons = append(row.Buttons, Button{URL: r.WebLink, Label: fmt.Sprintf("Join #%d", i+1), Style: StyleLink})
		}
	}

	return Message{Embeds: []Embed{e}, Components: []ActionRow{row}}
}

func (b *Bot) benefits() string {
	return "**✨ Premium Benefits:**\n" +
		fmt.Sprintf("• ⚡ %d requests per minute (vs %d free)\n", b.tier.PremiumRateLimit, b.tier.FreeRateLimit) +
		fmt.Sprintf("• 🔍 %d search results (vs %d free)\n", b.tier.PremiumResults, b.tier.FreeResults) +
		"• 📋 Unlimited script copies\n" +
		"• 🌐 3 script sources\n" +
		fmt.Sprintf("• 💾 Unlimited vault (vs %d free)\n", b.tier.FreeVaultSize) +
		"• 🚨 Priority support"
}

func paymentButtons() ActionRow {
	return ActionRow{Buttons: []Button{
		{CustomID: idPayDana, Label: "DANA", Emoji: "💳", Style: StylePrimary},
		{CustomID: idPayGopay, Label: "GOPAY", Emoji: "📱", Style: StyleSuccess},
		{CustomID: idPayQRIS, Label: "QRIS", Emoji: "📷", Style: StyleSecondary},
	}}
}

func (b *Bot) upgradeEmbed() Embed {
	return Embed{
		Title:       "💰 UPGRADE TO PREMIUM",
		Description: fmt.Sprintf("**Price:** Rp %s / %d days\n\n%s\n\n**👇 Payment Methods:**", thousands(b.tier.Price), b.tier.DefaultDays, b.benefits()),
		Thumbnail:   b.bot.Thumbnail,
		Color:       colorGold,
	}
}

func (b *Bot) ownerMention() string {
	if len(b.bot.Owners) == 0 {
		return "an owner"
	}
	return "<@" + b.bot.Owners[0] + ">"
}

func (b *Bot) afterPayment(scan bool) string {
	steps := []string{}
	if scan {
		steps = append(steps, "Scan QR code")
	}
	steps = append(steps,
		"Transfer Rp "+thousands(b.tier.Price),
		"Send proof to "+b.ownerMention(),
		"Premium will be activated within 15 minutes!",
	)

	var out strings.Builder
	out.WriteString("📞 **After Payment:**\n")
	for i, s := range steps {
		fmt.Fprintf(&out, "%d. %s\n", i+1, s)
	}

	return strings.TrimSuffix(out.String(), "\n")
}

func (b *Bot) walletPayment(method, emoji, number, name string) *Reply {
	return text(fmt.Sprintf(
		"**%s PAYMENT VIA %s**\n\n📱 **Number:** %s\n👤 **Name:** %s\n\n💰 **Amount:** Rp %s\n📅 **Duration:** %d days\n\n%s",
		emoji, method, number, name, thousands(b.tier.Price), b.tier.DefaultDays, b.afterPayment(false),
	))
}

func (b *Bot) qrisPayment() *Reply {
	return embed(Embed{
		Title:       "📷 QRIS PAYMENT",
		Description: fmt.Sprintf("💰 **Amount:** Rp %s\n📅 **Duration:** %d days\n\n%s", thousands(b.tier.Price), b.tier.DefaultDays, b.afterPayment(true)),
		Image:       b.payment.QRISURL,
		Color:       colorGreen,
	})
}
