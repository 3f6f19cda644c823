package entities

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/writebehind"
)

// Tags under which this package's entities are stored.
const (
	TagGuild   = "GUILD"
	TagRole    = "ROLE"
	TagEmoji   = "EMOJI"
	TagSticker = "STICKER"
)

func GetGuild[B any](ctx context.Context, c writebehind.Cache[B], id Snowflake) (Guild, bool, error) {
	return writebehind.GetByID(ctx, c, TagGuild, id.String(), reconstruct[B](GuildFromRecord))
}

func GetRole[B any](ctx context.Context, c writebehind.Cache[B], id Snowflake) (Role, bool, error) {
	return writebehind.GetByID(ctx, c, TagRole, id.String(), reconstruct[B](RoleFromRecord))
}

func GetEmoji[B any](ctx context.Context, c writebehind.Cache[B], id Snowflake) (Emoji, bool, error) {
	return writebehind.GetByID(ctx, c, TagEmoji, id.String(), reconstruct[B](EmojiFromRecord))
}

func GetSticker[B any](ctx context.Context, c writebehind.Cache[B], id Snowflake) (Sticker, bool, error) {
	return writebehind.GetByID(ctx, c, TagSticker, id.String(), reconstruct[B](StickerFromRecord))
}

// reconstruct adapts a binding-free decoder. Values here are plain data; hosts
// that need live objects bound to a session pass their own Reconstructor to
// writebehind.GetTyped.
func reconstruct[B, T any](fn func(writebehind.Record) (T, error)) writebehind.Reconstructor[T, B] {
	return func(rec writebehind.Record, _ B) (T, error) { return fn(rec) }
}

// WriteGuild enqueues g and, for an available guild, each of its roles,
// emojis and stickers under their own keys so they can be read on their own.
func WriteGuild[B any](c writebehind.Cache[B], g Guild, ttl time.Duration) error {
	if err := c.Write(g, ttl); err != nil {
		return err
	}
	if g.Unavailable {
		return nil
	}
	var errs []error
	for _, r := range g.Roles {
		errs = append(errs, c.Write(r, ttl))
	}
	for _, e := range g.Emojis {
		errs = append(errs, c.Write(e, ttl))
	}
	for _, s := range g.Stickers {
		errs = append(errs, c.Write(s, ttl))
	}
	return errors.Join(errs...)
}

// EvictGuild enqueues the eviction of g and every role, emoji and sticker it
// owns.
func EvictGuild[B any](c writebehind.Cache[B], g Guild) error {
	errs := []error{c.Evict(g)}
	for _, r := range g.Roles {
		errs = append(errs, c.Evict(r))
	}
	for _, e := range g.Emojis {
		errs = append(errs, c.Evict(e))
	}
	for _, s := range g.Stickers {
		errs = append(errs, c.Evict(s))
	}
	return errors.Join(errs...)
}
