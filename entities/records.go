package entities

import (
	"github.com/unkn0wn-root/writebehind"
)

// Values for fields the host model does not carry yet.
const (
	maxStageVideoChannelUsers = 50
)

// Register adds the serializers of every entity in this package to r.
func Register(r *writebehind.Registry) {
	writebehind.Register(r, GuildRecord)
	writebehind.Register(r, RoleRecord)
	writebehind.Register(r, EmojiRecord)
	writebehind.Register(r, StickerRecord)
}

// NewRegistry returns a registry with this package's entities registered.
func NewRegistry() *writebehind.Registry {
	r := writebehind.NewRegistry()
	Register(r)
	return r
}

func GuildRecord(g Guild) writebehind.Record {
	if g.Unavailable {
		return writebehind.Record{"unavailable": true, "id": g.ID.String()}
	}

	roles := make([]any, 0, len(g.Roles))
	for _, r := range g.Roles {
		roles = append(roles, RoleRecord(r))
	}
	emojis := make([]any, 0, len(g.Emojis))
	for _, e := range g.Emojis {
		emojis = append(emojis, EmojiRecord(e))
	}
	stickers := make([]any, 0, len(g.Stickers))
	for _, s := range g.Stickers {
		stickers = append(stickers, StickerRecord(s))
	}
	features := make([]any, 0, len(g.Features))
	for _, f := range g.Features {
		features = append(features, f)
	}

	return writebehind.Record{
		"id":                            g.ID.String(),
		"name":                          g.Name,
		"icon":                          optString(g.Icon),
		"description":                   optString(g.Description),
		"home_header":                   nil,
		"splash":                        optString(g.Splash),
		"discovery_splash":              optString(g.DiscoverySplash),
		"features":                      features,
		"approximate_member_count":      optInt(g.ApproximateMemberCount),
		"approximate_presence_count":    optInt(g.ApproximatePresenceCount),
		"emojis":                        emojis,
		"stickers":                      stickers,
		"banner":                        optString(g.Banner),
		"owner_id":                      g.OwnerID.String(),
		"application_id":                nil,
		"region":                        g.Region,
		"afk_channel_id":                optID(g.AFKChannelID),
		"afk_timeout":                   g.AFKTimeout,
		"system_channel_id":             optID(g.SystemChannelID),
		"widget_enabled":                g.WidgetEnabled,
		"widget_channel_id":             optID(g.WidgetChannelID),
		"verification_level":            g.VerificationLevel,
		"roles":                         roles,
		"default_message_notifications": g.DefaultMessageNotifications,
		"mfa_level":                     g.MFALevel,
		"explicit_content_filter":       g.ExplicitContentFilter,
		"max_presences":                 optInt(g.MaxPresences),
		"max_members":                   optInt(g.MaxMembers),
		"max_stage_video_channel_users": maxStageVideoChannelUsers,
		"max_video_channel_users":       optInt(g.MaxVideoChannelUsers),
		"vanity_url_code":               optString(g.VanityURLCode),
		"premium_tier":                  g.PremiumTier,
		"premium_subscription_count":    g.PremiumSubscriptionCount,
		"system_channel_flags":          g.SystemChannelFlags,
		"preferred_locale":              g.PreferredLocale,
		"rules_channel_id":              optID(g.RulesChannelID),
		"safety_alerts_channel_id":      nil,
		"public_updates_channel_id":     optID(g.PublicUpdatesChannelID),
		"hub_type":                      nil,
		"premium_progress_bar_enabled":  g.PremiumProgressBarEnabled,
		"latest_onboarding_question_id": nil,
		"nsfw":                          false,
		"nsfw_level":                    g.NSFWLevel,
	}
}

func RoleRecord(r Role) writebehind.Record {
	return writebehind.Record{
		"id":            r.ID.String(),
		"name":          r.Name,
		"description":   nil,
		"permissions":   r.Permissions,
		"position":      r.Position,
		"color":         r.Color,
		"hoist":         r.Hoist,
		"managed":       r.Managed,
		"mentionable":   r.Mentionable,
		"icon":          optString(r.Icon),
		"unicode_emoji": optString(r.UnicodeEmoji),
		"flags":         0,
	}
}

func EmojiRecord(e Emoji) writebehind.Record {
	return writebehind.Record{
		"name":           e.Name,
		"roles":          []any{},
		"id":             e.ID.String(),
		"require_colons": e.RequireColons,
		"managed":        e.Managed,
		"animated":       e.Animated,
		"available":      e.Available,
	}
}

func StickerRecord(s Sticker) writebehind.Record {
	tags := s.Tags
	if tags == "" {
		tags = s.Emoji
	}
	return writebehind.Record{
		"id":          s.ID.String(),
		"name":        s.Name,
		"tags":        tags,
		"type":        s.Type,
		"format_type": s.FormatType,
		"description": s.Description,
		"asset":       "",
		"available":   s.Available,
		"guild_id":    s.GuildID.String(),
	}
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func optID(p *Snowflake) any {
	if p == nil {
		return nil
	}
	return p.String()
}
