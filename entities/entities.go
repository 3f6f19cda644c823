// Package entities is the Discord-style domain table the cache was built for:
// guilds and the roles, emojis and stickers they own, with record serializers
// whose field sets match what other readers of the store expect.
//
// Ids are rendered as decimal strings in records; snowflakes do not survive a
// round trip through float64.
package entities

import "strconv"

// Snowflake is a 64-bit Discord id.
type Snowflake uint64

func (s Snowflake) String() string { return strconv.FormatUint(uint64(s), 10) }

func ParseSnowflake(s string) (Snowflake, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Snowflake(v), nil
}

type Guild struct {
	ID Snowflake
	// Unavailable guilds (outage) carry only their id.
	Unavailable bool

	Name                        string
	Icon                        *string
	Description                 *string
	Splash                      *string
	DiscoverySplash             *string
	Banner                      *string
	Features                    []string
	ApproximateMemberCount      *int
	ApproximatePresenceCount    *int
	OwnerID                     Snowflake
	Region                      string
	AFKChannelID                *Snowflake
	AFKTimeout                  int
	SystemChannelID             *Snowflake
	SystemChannelFlags          int
	WidgetEnabled               bool
	WidgetChannelID             *Snowflake
	RulesChannelID              *Snowflake
	PublicUpdatesChannelID      *Snowflake
	VerificationLevel           int
	DefaultMessageNotifications int
	MFALevel                    int
	ExplicitContentFilter       int
	MaxPresences                *int
	MaxMembers                  *int
	MaxVideoChannelUsers        *int
	VanityURLCode               *string
	PremiumTier                 int
	PremiumSubscriptionCount    int
	PremiumProgressBarEnabled   bool
	PreferredLocale             string
	NSFWLevel                   int

	Roles    []Role
	Emojis   []Emoji
	Stickers []Sticker
}

func (g Guild) CacheID() string { return g.ID.String() }

type Role struct {
	ID           Snowflake
	Name         string
	Permissions  int64
	Position     int
	Color        int
	Hoist        bool
	Managed      bool
	Mentionable  bool
	Icon         *string
	UnicodeEmoji *string
}

func (r Role) CacheID() string { return r.ID.String() }

type Emoji struct {
	ID            Snowflake
	Name          string
	RequireColons bool
	Managed       bool
	Animated      bool
	Available     bool
}

func (e Emoji) CacheID() string { return e.ID.String() }

type Sticker struct {
	ID      Snowflake
	GuildID Snowflake
	Name    string
	// Tags falls back to Emoji when empty (standard stickers).
	Tags        string
	Emoji       string
	Type        int
	FormatType  int
	Description string
	Available   bool
}

func (s Sticker) CacheID() string { return s.ID.String() }
