package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/ranking"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/servers"
	"github.com/xploitforceofficial-stack/xfor-discord/internal/stats"
)

const maxExecutors = 10

func startTime(s models.Stats) time.Time {
	return time.UnixMilli(s.StartTime)
}

func (b *Bot) help(_ context.Context, req request) (*Reply, error) {
	p := b.bot.Prefix
	now := b.Now()

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 **Date:** %s\n🕒 **Time:** %s\n", now.Format(dateLayout), now.Format("15:04:05"))
	if req.tier == models.TierPremium {
		days := 0
		if sub, ok := b.Access.Subscriptions.Get(req.UserID); ok {
			days = sub.DaysLeft(now)
		}
		fmt.Fprintf(&sb, "💎 **Status:** PREMIUM (%d days left)\n", days)
	}

	sb.WriteString("\n**🎮 SERVER FINDER**\n")
	fmt.Fprintf(&sb, "┣ `%sserv <game/placeid>` - Find empty servers\n┗ Example: `%sserv Blox Fruits`\n\n", p, p)

	sb.WriteString("**🔍 SCRIPT SEARCH**\n")
	fmt.Fprintf(&sb, "┣ `%ssearch <query>` - Search scripts\n", p)
	fmt.Fprintf(&sb, "┣ `%ssearch <query>,key` or `%sksearch <query>` - Key scripts only\n", p, p)
	fmt.Fprintf(&sb, "┣ `%ssearch <query>,keyless` or `%snksearch <query>` - Keyless scripts\n", p, p)
	fmt.Fprintf(&sb, "┗ `%svsearch <query>` - Verified only\n\n", p)

	sb.WriteString("**📋 COPY FEATURES**\n┣ Click buttons below scripts to copy\n┣ Premium users get unlimited copies\n")
	fmt.Fprintf(&sb, "┗ Free users: %d copies/day\n\n", b.tier.FreeDailyCopies)

	sb.WriteString("**🧰 UTILITIES**\n")
	fmt.Fprintf(&sb, "┣ `%sexme` - Executor status\n┣ `%sbotstats` - Bot statistics\n", p, p)
	fmt.Fprintf(&sb, "┣ `%svault` - View your vault\n┣ `%sgetvault <num>` - Get from vault\n┣ `%sdelvault <num>` - Delete from vault\n", p, p, p)
	fmt.Fprintf(&sb, "┗ `%scekid` - Get channel info\n\n", p)

	if req.tier == models.TierPremium {
		sb.WriteString("**💎 PREMIUM FEATURES**\n┣ ⚡ Higher rate limit\n┣ 🔍 More results\n┣ 📋 Unlimited copies\n┗ 💾 Unlimited vault\n\n")
	} else {
		fmt.Fprintf(&sb, "**💰 UPGRADE**\n┗ Type `%spremium` for info\n\n", p)
	}

	if req.owner {
		sb.WriteString("**👑 OWNER ONLY**\n")
		fmt.Fprintf(&sb, "┣ `%saddpremium <userid> [days]`\n┣ `%sdeletepremium <userid>`\n┗ `%slistpremium`\n", p, p, p)
	}

	title := "🍷 XFOR DISCORD BOT 🍷"
	color := colorBlue
	if req.tier == models.TierPremium {
		title = "🍷 XFOR PREMIUM BOT 🍷"
		color = colorGold
	}

	return embed(Embed{
		Title:       title,
		Description: strings.TrimSpace(sb.String()),
		Thumbnail:   b.bot.Thumbnail,
		Footer:      "XFOR Discord Bot • Uptime: " + stats.FormatUptime(b.Stats.Uptime()),
		Color:       color,
	}), nil
}

// searchOptions derives ranking options from the command name and an optional
// ",key" or ",keyless" query suffix.
func (b *Bot) searchOptions(name, query string, tier models.Tier) (string, ranking.Options) {
	opts := ranking.Options{Budget: b.tier.FreeResults}
	if tier == models.TierPremium {
		opts.Budget = b.tier.PremiumResults
	}

	switch name {
	case "vsearch":
		opts.VerifiedOnly = true
	case "ksearch":
		opts.Access = ranking.AccessKey
	case "nksearch":
		opts.Access = ranking.AccessKeyless
	}

	if i := strings.LastIndex(query, ","); i >= 0 {
		switch strings.ToLower(strings.TrimSpace(query[i+1:])) {
		case "key":
			opts.Access = ranking.AccessKey
			query = query[:i]
		case "keyless":
			opts.Access = ranking.AccessKeyless
			query = query[:i]
		}
	}

	return strings.TrimSpace(query), opts
}

func (b *Bot) search(ctx context.Context, req request) (*Reply, error) {
	query, opts := b.searchOptions(req.name, strings.Join(req.args, " "), req.tier)
	if query == "" {
		return b.usage("`{p}" + req.name + " <query>`\nExample: `{p}" + req.name + " Arsenal`"), nil
	}

	if err := b.Access.Admit(req.UserID, req.tier); err != nil {
		return nil, err
	}

	records, err := b.Scripts.SearchScripts(ctx, query, req.tier)
	if err != nil {
		return nil, err
	}

	ranked := ranking.Rank(records, query, opts)
	if len(ranked) == 0 {
		return text("❌ **No scripts found.**"), nil
	}

	reply := &Reply{Messages: []Message{{
		Content: fmt.Sprintf("🔎 **Found %d scripts. Showing %d results.**", len(records), len(ranked)),
	}}}
	for i, s := range ranked {
		handle := b.Artifacts.Put(models.CachedScript{Title: s.Title, Payload: s.Payload, UserID: req.UserID})
		reply.Messages = append(reply.Messages, Message{
			Embeds:     []Embed{b.scriptEmbed(i, s, handle)},
			Components: []ActionRow{scriptButtons(handle, req.tier)},
		})
	}

	return reply, nil
}

func (b *Bot) serv(ctx context.Context, req request) (*Reply, error) {
	query := strings.TrimSpace(strings.Join(req.args, " "))
	if query == "" {
		return b.usage("`{p}serv <game name or place id>`\nExample: `{p}serv Blox Fruits` or `{p}serv 2753915549`"), nil
	}

	if err := b.Access.Admit(req.UserID, req.tier); err != nil {
		return nil, err
	}

	var placeID, gameName string
	if servers.IsPlaceID(query) {
		placeID = query
		// A failed lookup only costs the display name.
		if res, err := b.Games.Search(ctx, query); err == nil && len(res.Games) > 0 {
			gameName = res.Games[0].Name
		}
	} else {
		res, err := b.Games.Search(ctx, query)
		if errors.Is(err, models.ErrNotFound) {
			return text(fmt.Sprintf("❌ **Error:** Game \"%s\" not found.", query)), nil
		}
		if err != nil {
			return nil, err
		}
		placeID = res.Games[0].ID
		gameName = res.Games[0].Name
	}

	records, err := b.Servers.FindCandidates(ctx, placeID, gameName)
	if errors.Is(err, models.ErrNotFound) {
		return text("❌ **Error:** Invalid Place ID or game has no public servers."), nil
	}
	if err != nil {
		return nil, err
	}

	return &Reply{Messages: []Message{b.serverEmbed(query, records)}}, nil
}

func (b *Bot) premium(_ context.Context, req request) (*Reply, error) {
	sub, ok := b.Access.Subscriptions.Get(req.UserID)
	if req.tier != models.TierPremium || !ok {
		return embed(b.upgradeEmbed(), paymentButtons()), nil
	}

	return embed(Embed{
		Title: "💎 XFOR PREMIUM",
		Description: fmt.Sprintf("✅ **You are a premium member!**\n\n📅 **Expires:** %s\n⏳ **Days Left:** %d\n\n%s",
			sub.Expiry.Format(dateLayout), sub.DaysLeft(b.Now()), b.benefits()),
		Thumbnail: b.bot.Thumbnail,
		Color:     colorGold,
	}), nil
}

func (b *Bot) addPremium(ctx context.Context, req request) (*Reply, error) {
	if len(req.args) == 0 {
		return b.usage("`{p}addpremium <userid> [days]`"), nil
	}

	target := strings.Trim(req.args[0], "<@!>")
	days := b.tier.DefaultDays
	if len(req.args) > 1 {
		n, err := strconv.Atoi(req.args[1])
		if err != nil || n <= 0 {
			return nil, models.InvalidInput("days must be a positive number")
		}
		days = n
	}

	sub, err := b.Access.Subscriptions.Grant(ctx, target, days)
	if err != nil {
		return nil, err
	}
	if err := b.Stats.Grant(ctx, b.tier.Price); err != nil {
		b.log.Warn().Err(err).Msg("Failed to persist stats")
	}

	return embed(Embed{
		Title:       "✅ Premium Added",
		Description: fmt.Sprintf("**User:** %s\n**Days:** %d\n**Expires:** %s", sub.UserID, sub.DurationDays, sub.Expiry.Format(dateLayout)),
		Color:       colorGreen,
	}), nil
}

func (b *Bot) deletePremium(ctx context.Context, req request) (*Reply, error) {
	if len(req.args) == 0 {
		return b.usage("`{p}deletepremium <userid>`"), nil
	}

	target := strings.Trim(req.args[0], "<@!>")
	if err := b.Access.Subscriptions.Revoke(ctx, target); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return text(fmt.Sprintf("❌ **%s has no premium subscription.**", target)), nil
		}
		return nil, err
	}

	return text(fmt.Sprintf("✅ **Premium removed from %s.**", target)), nil
}

func (b *Bot) listPremium(_ context.Context, _ request) (*Reply, error) {
	active := b.Access.Subscriptions.Active()
	if len(active) == 0 {
		return text("📋 **No active premium users**"), nil
	}

	now := b.Now()
	lines := make([]string, 0, len(active))
	for i, sub := range active {
		lines = append(lines, fmt.Sprintf("%d. <@%s> - %d days left", i+1, sub.UserID, sub.DaysLeft(now)))
	}

	e := Embed{
		Title:       "📋 Premium Users",
		Description: strings.Join(lines, "\n"),
		Footer:      fmt.Sprintf("Total: %d active users", len(active)),
		Color:       colorGold,
	}

	return embed(e), nil
}

func (b *Bot) botStats(_ context.Context, _ request) (*Reply, error) {
	s := b.Stats.Snapshot()

	return embed(Embed{
		Title: "📊 Bot Statistics",
		Description: fmt.Sprintf(
			"**📈 General Stats**\n┣ Commands: %d\n┣ Searches: %d\n┣ Server Searches: %d\n┣ Vault Saves: %d\n┣ Script Releases: %d\n┣ Script Copies: %d\n┣ Premium Subs: %d\n┣ Premium Revenue: Rp %s\n┣ Active Users: %d\n┗ Blacklisted: %d\n\n"+
				"**⏱️ System Info**\n┣ Uptime: %s\n┣ Premium Users: %d\n┣ Cached Scripts: %d\n┗ Start Time: %s",
			s.TotalCommands, s.TotalSearches, s.TotalServerSearches, s.TotalVaultSaves, s.TotalScriptReleases,
			s.TotalCopies, s.PremiumSubscriptions, thousands(s.PremiumRevenue), len(s.UserActivity), len(b.bot.Blacklist),
			stats.FormatUptime(b.Stats.Uptime()), b.Access.Subscriptions.Count(), b.Artifacts.Len(),
			startTime(s).Format("2006-01-02 15:04:05"),
		),
		Footer: "XFOR Discord Bot",
		Color:  colorBlue,
	}), nil
}

func (b *Bot) vaultList(_ context.Context, req request) (*Reply, error) {
	entries := b.Vault.List(req.UserID)
	if len(entries) == 0 {
		return text("💾 **Your vault is empty.** Use the Save button under a script to store it."), nil
	}

	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. **%s** (%s)", i+1, e.Title, e.SavedAt.Format(dateLayout)))
	}

	capacity := "unlimited"
	if req.tier != models.TierPremium {
		capacity = strconv.Itoa(b.tier.FreeVaultSize)
	}

	return embed(Embed{
		Title:       "💾 Your Vault",
		Description: strings.Join(lines, "\n"),
		Footer:      fmt.Sprintf("%d/%s saved • %sgetvault <num> to get a script", len(entries), capacity, b.bot.Prefix),
		Color:       colorBlue,
	}), nil
}

func (b *Bot) vaultIndex(req request, usage string) (int, *Reply) {
	if len(req.args) == 0 {
		return 0, b.usage(usage)
	}
	n, err := strconv.Atoi(req.args[0])
	if err != nil {
		return 0, b.usage(usage)
	}
	return n, nil
}

func (b *Bot) vaultGet(_ context.Context, req request) (*Reply, error) {
	n, usage := b.vaultIndex(req, "`{p}getvault <num>`")
	if usage != nil {
		return usage, nil
	}

	entry, err := b.Vault.Get(req.UserID, n)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return text(fmt.Sprintf("❌ **No vault entry #%d.**", n)), nil
		}
		return nil, err
	}

	return &Reply{
		Messages: []Message{{Content: "✅ Script has been sent to your DM! Check your direct messages."}},
		Direct:   &Message{Content: codeBlock(entry.Title, entry.Payload)},
	}, nil
}

func (b *Bot) vaultDelete(ctx context.Context, req request) (*Reply, error) {
	n, usage := b.vaultIndex(req, "`{p}delvault <num>`")
	if usage != nil {
		return usage, nil
	}

	entry, err := b.Vault.Remove(ctx, req.UserID, n)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return text(fmt.Sprintf("❌ **No vault entry #%d.**", n)), nil
		}
		return nil, err
	}

	return text(fmt.Sprintf("🗑️ **\"%s\" removed from your vault.**", entry.Title)), nil
}

func (b *Bot) cekID(_ context.Context, req request) (*Reply, error) {
	guildID, guildName := req.GuildID, req.GuildName
	if guildID == "" {
		guildID, guildName = "DM", "Direct Message"
	}

	return embed(Embed{
		Title: "📊 Channel Information",
		Description: fmt.Sprintf("**Channel ID:** `%s`\n**Channel Name:** %s\n**Guild ID:** `%s`\n**Guild Name:** %s\n**User ID:** `%s`\n**User Tag:** %s",
			req.ChannelID, req.ChannelName, guildID, guildName, req.UserID, req.UserTag),
		Color: colorBlue,
	}), nil
}

func (b *Bot) exme(ctx context.Context, _ request) (*Reply, error) {
	list, err := b.Executors.Executors(ctx)
	if err != nil {
		return text("❌ Failed to fetch executor data"), nil
	}
	if len(list) > maxExecutors {
		list = list[:maxExecutors]
	}

	blocks := make([]string, 0, len(list))
	for i, ex := range list {
		status := "🟢 ACTIVE"
		if ex.Patched {
			status = "🔴 PATCHED"
		}
		blocks = append(blocks, fmt.Sprintf("**%d. %s** %s\n┣ Type: %s\n┣ Platform: %s\n┗ %s", i+1, ex.Name, status, ex.Type, ex.Platform, ex.Website))
	}

	return embed(Embed{
		Title:       "🍷 Executor Status List",
		Description: strings.Join(blocks, "\n\n"),
		Footer:      "XFOR Discord Bot",
		Color:       colorBlue,
	}), nil
}
