package entities

import (
	"fmt"
	"math"

	"github.com/unkn0wn-root/writebehind"
)

// reader pulls typed fields out of a decoded record. Codecs disagree on how
// numbers come back (float64 for JSON/protobuf, sized ints for msgpack/CBOR),
// so every numeric accessor goes through toInt64. The first failure sticks.
type reader struct {
	rec writebehind.Record
	err error
}

func (r *reader) fail(key string, format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("entities: field %q: %s", key, fmt.Sprintf(format, args...))
	}
}

func (r *reader) str(key string) string {
	switch v := r.rec[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		r.fail(key, "want string, got %T", v)
		return ""
	}
}

func (r *reader) optStr(key string) *string {
	if r.rec[key] == nil {
		return nil
	}
	s := r.str(key)
	return &s
}

func (r *reader) id(key string) Snowflake {
	s, ok := r.rec[key].(string)
	if !ok {
		r.fail(key, "want decimal id string, got %T", r.rec[key])
		return 0
	}
	v, err := ParseSnowflake(s)
	if err != nil {
		r.fail(key, "%v", err)
	}
	return v
}

func (r *reader) optID(key string) *Snowflake {
	if r.rec[key] == nil {
		return nil
	}
	v := r.id(key)
	return &v
}

func (r *reader) int64(key string) int64 {
	v := r.rec[key]
	if v == nil {
		return 0
	}
	n, ok := toInt64(v)
	if !ok {
		r.fail(key, "want integer, got %T(%v)", v, v)
	}
	return n
}

func (r *reader) int(key string) int { return int(r.int64(key)) }

func (r *reader) optInt(key string) *int {
	if r.rec[key] == nil {
		return nil
	}
	n := r.int(key)
	return &n
}

func (r *reader) bool(key string) bool {
	switch v := r.rec[key].(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		r.fail(key, "want bool, got %T", v)
		return false
	}
}

func (r *reader) list(key string) []any {
	switch v := r.rec[key].(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		r.fail(key, "want list, got %T", v)
		return nil
	}
}

// records returns the nested records under key.
func (r *reader) records(key string) []writebehind.Record {
	items := r.list(key)
	if len(items) == 0 {
		return nil
	}
	out := make([]writebehind.Record, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			r.fail(key, "item %d: want record, got %T", i, it)
			return nil
		}
		out = append(out, m)
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

// GuildFromRecord rebuilds a Guild from a record produced by GuildRecord.
// Placeholder fields are ignored.
func GuildFromRecord(rec writebehind.Record) (Guild, error) {
	r := &reader{rec: rec}
	if r.bool("unavailable") {
		g := Guild{ID: r.id("id"), Unavailable: true}
		return g, r.err
	}

	g := Guild{
		ID:                          r.id("id"),
		Name:                        r.str("name"),
		Icon:                        r.optStr("icon"),
		Description:                 r.optStr("description"),
		Splash:                      r.optStr("splash"),
		DiscoverySplash:             r.optStr("discovery_splash"),
		Banner:                      r.optStr("banner"),
		ApproximateMemberCount:      r.optInt("approximate_member_count"),
		ApproximatePresenceCount:    r.optInt("approximate_presence_count"),
		OwnerID:                     r.id("owner_id"),
		Region:                      r.str("region"),
		AFKChannelID:                r.optID("afk_channel_id"),
		AFKTimeout:                  r.int("afk_timeout"),
		SystemChannelID:             r.optID("system_channel_id"),
		SystemChannelFlags:          r.int("system_channel_flags"),
		WidgetEnabled:               r.bool("widget_enabled"),
		WidgetChannelID:             r.optID("widget_channel_id"),
		RulesChannelID:              r.optID("rules_channel_id"),
		PublicUpdatesChannelID:      r.optID("public_updates_channel_id"),
		VerificationLevel:           r.int("verification_level"),
		DefaultMessageNotifications: r.int("default_message_notifications"),
		MFALevel:                    r.int("mfa_level"),
		ExplicitContentFilter:       r.int("explicit_content_filter"),
		MaxPresences:                r.optInt("max_presences"),
		MaxMembers:                  r.optInt("max_members"),
		MaxVideoChannelUsers:        r.optInt("max_video_channel_users"),
		VanityURLCode:               r.optStr("vanity_url_code"),
		PremiumTier:                 r.int("premium_tier"),
		PremiumSubscriptionCount:    r.int("premium_subscription_count"),
		PremiumProgressBarEnabled:   r.bool("premium_progress_bar_enabled"),
		PreferredLocale:             r.str("preferred_locale"),
		NSFWLevel:                   r.int("nsfw_level"),
	}
	for i, f := range r.list("features") {
		s, ok := f.(string)
		if !ok {
			r.fail("features", "item %d: want string, got %T", i, f)
			break
		}
		g.Features = append(g.Features, s)
	}
	if r.err != nil {
		return Guild{}, r.err
	}

	for _, sub := range r.records("roles") {
		role, err := RoleFromRecord(sub)
		if err != nil {
			return Guild{}, fmt.Errorf("entities: guild %s: %w", g.ID, err)
		}
		g.Roles = append(g.Roles, role)
	}
	for _, sub := range r.records("emojis") {
		e, err := EmojiFromRecord(sub)
		if err != nil {
			return Guild{}, fmt.Errorf("entities: guild %s: %w", g.ID, err)
		}
		g.Emojis = append(g.Emojis, e)
	}
	for _, sub := range r.records("stickers") {
		s, err := StickerFromRecord(sub)
		if err != nil {
			return Guild{}, fmt.Errorf("entities: guild %s: %w", g.ID, err)
		}
		g.Stickers = append(g.Stickers, s)
	}
	if r.err != nil {
		return Guild{}, r.err
	}
	return g, nil
}

func RoleFromRecord(rec writebehind.Record) (Role, error) {
	r := &reader{rec: rec}
	role := Role{
		ID:           r.id("id"),
		Name:         r.str("name"),
		Permissions:  r.int64("permissions"),
		Position:     r.int("position"),
		Color:        r.int("color"),
		Hoist:        r.bool("hoist"),
		Managed:      r.bool("managed"),
		Mentionable:  r.bool("mentionable"),
		Icon:         r.optStr("icon"),
		UnicodeEmoji: r.optStr("unicode_emoji"),
	}
	if r.err != nil {
		return Role{}, r.err
	}
	return role, nil
}

func EmojiFromRecord(rec writebehind.Record) (Emoji, error) {
	r := &reader{rec: rec}
	e := Emoji{
		ID:            r.id("id"),
		Name:          r.str("name"),
		RequireColons: r.bool("require_colons"),
		Managed:       r.bool("managed"),
		Animated:      r.bool("animated"),
		Available:     r.bool("available"),
	}
	if r.err != nil {
		return Emoji{}, r.err
	}
	return e, nil
}

func StickerFromRecord(rec writebehind.Record) (Sticker, error) {
	r := &reader{rec: rec}
	s := Sticker{
		ID:          r.id("id"),
		GuildID:     r.id("guild_id"),
		Name:        r.str("name"),
		Tags:        r.str("tags"),
		Type:        r.int("type"),
		FormatType:  r.int("format_type"),
		Description: r.str("description"),
		Available:   r.bool("available"),
	}
	if r.err != nil {
		return Sticker{}, r.err
	}
	return s, nil
}
