// Package mappers implements pure transforms from the platform's JSON DTOs
// (internal/discord) to the persistence entities internal/store writes.
// Grounded on original_source/discord_archive/ingest/mappers/*.py,
// translated into Go value types instead of SQLAlchemy ORM instances; the
// repository layer (internal/store) is what actually persists them.
package mappers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/veteran-software/discord-archive/internal/discord"
	"github.com/veteran-software/discord-archive/internal/permissions"
	"github.com/veteran-software/discord-archive/internal/snowflake"
)

// SanitizeNulBytes walks v recursively (the shapes produced by
// json.Unmarshal into `any`: map[string]any, []any, string, and scalars)
// and strips embedded NUL bytes from every string: Postgres text/JSONB
// columns reject NUL bytes outright, so this must run before any other
// mapping step, including on the raw payload that gets stored verbatim.
func SanitizeNulBytes(v any) any {
	switch t := v.(type) {
	case string:
		if strings.IndexByte(t, 0) < 0 {
			return t
		}
		return strings.ReplaceAll(t, "\x00", "")
	case map[string]any:
		for k, val := range t {
			t[k] = SanitizeNulBytes(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = SanitizeNulBytes(val)
		}
		return t
	default:
		return v
	}
}

// SanitizeRawJSON re-parses a raw JSON document, strips NUL bytes
// recursively, and re-encodes it, so the persisted `raw` snapshot is as
// free of NUL bytes as the structured columns derived from it.
func SanitizeRawJSON(raw json.RawMessage) json.RawMessage {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		// Not valid JSON (shouldn't happen for a DTO captured from the
		// wire); fall back to byte-level stripping so persistence never
		// sees a stray zero byte either way.
		cleaned := make([]byte, 0, len(raw))
		for _, b := range raw {
			if b != 0 {
				cleaned = append(cleaned, b)
			}
		}
		return cleaned
	}
	cleaned := SanitizeNulBytes(generic)
	out, err := json.Marshal(cleaned)
	if err != nil {
		return raw
	}
	return out
}

// EmojiKey computes the composite reaction key: a custom emoji keys on its
// numeric ID, a standard emoji keys on its literal name.
// This calculation is centralized here and must not be duplicated.
func EmojiKey(e discord.Emoji) string {
	if e.ID != nil && *e.ID != 0 {
		return "custom:" + e.ID.String()
	}
	name := ""
	if e.Name != nil {
		name = *e.Name
	}
	return "unicode:" + name
}

// MappedMessage is the persistence-ready projection of a Message DTO.
type MappedMessage struct {
	ID              snowflake.ID
	ChannelID       snowflake.ID
	GuildID         snowflake.ID
	AuthorID        snowflake.ID
	Content         string
	CreatedAt       time.Time
	EditedTimestamp *time.Time
	Type            int
	TTS             bool
	Flags           int
	Pinned          bool
	MentionEveryone bool
	MentionIDs      []snowflake.ID
	MentionRoleIDs  []snowflake.ID
	WebhookID       *snowflake.ID
	ApplicationID   *snowflake.ID
	ReferencedMsgID *snowflake.ID
	Raw             json.RawMessage
}

// MappedAttachment is the persistence-ready projection of an Attachment DTO.
type MappedAttachment struct {
	ID          snowflake.ID
	MessageID   snowflake.ID
	Filename    string
	Description *string
	ContentType *string
	Size        int
	URL         string
	ProxyURL    string
	Height      *int
	Width       *int
	DurationSec *float64
	Waveform    *string
	Ephemeral   bool
	Flags       int
	Title       *string
	Raw         json.RawMessage
}

// MappedReaction is the persistence-ready projection of a Reaction DTO.
type MappedReaction struct {
	MessageID     snowflake.ID
	EmojiKey      string
	EmojiID       *snowflake.ID
	EmojiName     *string
	EmojiAnimated bool
	Count         int
	CountDetails  discord.ReactionCountDetails
	BurstColors   []string
	Raw           json.RawMessage
}

// MappedUser is the persistence-ready projection of a User DTO. Every
// column is replaced wholesale on conflict (latest-wins), so a partial
// mention-sourced user is acceptable input.
type MappedUser struct {
	ID            snowflake.ID
	Username      string
	Discriminator string
	GlobalName    *string
	Avatar        *string
	Banner        *string
	AccentColor   *int
	Bot           bool
	System        bool
	PublicFlags   *int64
	PremiumType   *int
	Raw           json.RawMessage
}

func mapUser(u discord.User) MappedUser {
	raw, _ := json.Marshal(u)
	return MappedUser{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		GlobalName:    u.GlobalName,
		Avatar:        u.Avatar,
		Banner:        u.Banner,
		AccentColor:   u.AccentColor,
		Bot:           u.Bot,
		System:        u.System,
		PublicFlags:   u.PublicFlags,
		PremiumType:   u.PremiumType,
		Raw:           SanitizeRawJSON(raw),
	}
}

// ExtractUsersFromMessage returns the message's author plus every mentioned
// user, in that order. Duplicate user_ids are possible (an author mentioned
// in their own message, or the same mention twice); deduplication happens
// at the repository layer, not here, matching
// original_source/ingest/mappers/user.py's extract_users_from_message.
func ExtractUsersFromMessage(m discord.Message) []MappedUser {
	users := make([]MappedUser, 0, 1+len(m.Mentions))
	users = append(users, mapUser(m.Author))
	for _, mention := range m.Mentions {
		users = append(users, mapUser(mention))
	}
	return users
}

func mapAttachment(a discord.Attachment, messageID snowflake.ID) MappedAttachment {
	raw, _ := json.Marshal(a)
	return MappedAttachment{
		ID:          a.ID,
		MessageID:   messageID,
		Filename:    a.Filename,
		Description: a.Description,
		ContentType: a.ContentType,
		Size:        a.Size,
		URL:         a.URL,
		ProxyURL:    a.ProxyURL,
		Height:      a.Height,
		Width:       a.Width,
		DurationSec: a.DurationSec,
		Waveform:    a.Waveform,
		Ephemeral:   a.Ephemeral,
		Flags:       a.Flags,
		Title:       a.Title,
		Raw:         SanitizeRawJSON(raw),
	}
}

func mapReaction(r discord.Reaction, messageID snowflake.ID) MappedReaction {
	raw, _ := json.Marshal(r)
	return MappedReaction{
		MessageID:     messageID,
		EmojiKey:      EmojiKey(r.Emoji),
		EmojiID:       r.Emoji.ID,
		EmojiName:     r.Emoji.Name,
		EmojiAnimated: r.Emoji.Animated,
		Count:         r.Count,
		CountDetails:  r.CountDetails,
		BurstColors:   r.BurstColors,
		Raw:           SanitizeRawJSON(raw),
	}
}

// MapMessage sanitizes and projects one raw message DTO, preferring the
// message's own guild_id when the DTO carries one (matching
// original_source/ingest/mappers/message.py's precedence).
func MapMessage(m discord.Message, guildID snowflake.ID) (MappedMessage, []MappedAttachment, []MappedReaction) {
	effectiveGuild := guildID
	if m.GuildID != nil && *m.GuildID != 0 {
		effectiveGuild = *m.GuildID
	}

	mentionIDs := make([]snowflake.ID, 0, len(m.Mentions))
	for _, u := range m.Mentions {
		mentionIDs = append(mentionIDs, u.ID)
	}

	var referencedID *snowflake.ID
	if m.MessageReference != nil {
		referencedID = m.MessageReference.MessageID
	}

	raw, _ := json.Marshal(m)

	mapped := MappedMessage{
		ID:              m.ID,
		ChannelID:       m.ChannelID,
		GuildID:         effectiveGuild,
		AuthorID:        m.Author.ID,
		Content:         stripNul(m.Content),
		CreatedAt:       m.Timestamp,
		EditedTimestamp: m.EditedTimestamp,
		Type:            m.Type,
		TTS:             m.TTS,
		Flags:           m.Flags,
		Pinned:          m.Pinned,
		MentionEveryone: m.MentionEveryone,
		MentionIDs:      mentionIDs,
		MentionRoleIDs:  m.MentionRoles,
		WebhookID:       m.WebhookID,
		ApplicationID:   m.ApplicationID,
		ReferencedMsgID: referencedID,
		Raw:             SanitizeRawJSON(raw),
	}

	attachments := make([]MappedAttachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, mapAttachment(a, m.ID))
	}

	reactions := make([]MappedReaction, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		reactions = append(reactions, mapReaction(r, m.ID))
	}

	return mapped, attachments, reactions
}

func stripNul(s string) string {
	if strings.IndexByte(s, 0) < 0 {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}

// MapMessages projects a whole batch, matching
// original_source/ingest/mappers/message.py's map_messages signature.
func MapMessages(raw []discord.Message, guildID snowflake.ID) ([]MappedMessage, []MappedAttachment, []MappedReaction) {
	messages := make([]MappedMessage, 0, len(raw))
	var attachments []MappedAttachment
	var reactions []MappedReaction
	for _, m := range raw {
		mm, aa, rr := MapMessage(m, guildID)
		messages = append(messages, mm)
		attachments = append(attachments, aa...)
		reactions = append(reactions, rr...)
	}
	return messages, attachments, reactions
}

// MappedChannel is the persistence-ready projection of a Channel DTO.
type MappedChannel struct {
	ID                       snowflake.ID
	GuildID                  snowflake.ID
	Type                     discord.ChannelType
	Name                     *string
	Topic                    *string
	Position                 *int
	PermissionOverwrites     []discord.Overwrite
	ParentID                 *snowflake.ID
	Nsfw                     bool
	LastMessageID            *snowflake.ID
	Bitrate                  *int
	UserLimit                *int
	RtcRegion                *string
	VideoQualityMode         *int
	RateLimitPerUser         *int
	OwnerID                  *snowflake.ID
	ThreadMetadata           *discord.ThreadMetadata
	MessageCount             *int
	MemberCount              *int
	TotalMessagesSent        *int
	DefaultAutoArchiveDur    *int
	Flags                    int
	Icon                     *string
	ApplicationID            *snowflake.ID
	Managed                  bool
	LastPinTimestamp         *string
	Raw                      json.RawMessage
}

// MapChannel projects a channel DTO. The two-pass resolution of parent_id
// against the *batch's* known IDs happens in the repository layer;
// MapChannel itself preserves whatever parent_id the DTO reports (matching
// original_source's mapper, which also defers the real resolution to
// bulk_upsert_channels).
func MapChannel(c discord.Channel, guildID snowflake.ID) MappedChannel {
	effectiveGuild := guildID
	if c.GuildID != nil && *c.GuildID != 0 {
		effectiveGuild = *c.GuildID
	}
	raw, _ := json.Marshal(c)
	return MappedChannel{
		ID:                    c.ID,
		GuildID:               effectiveGuild,
		Type:                  c.Type,
		Name:                  c.Name,
		Topic:                 c.Topic,
		Position:              c.Position,
		PermissionOverwrites:  c.PermissionOverwrites,
		ParentID:              c.ParentID,
		Nsfw:                  c.Nsfw,
		LastMessageID:         c.LastMessageID,
		Bitrate:               c.Bitrate,
		UserLimit:             c.UserLimit,
		RtcRegion:             c.RtcRegion,
		VideoQualityMode:      c.VideoQualityMode,
		RateLimitPerUser:      c.RateLimitPerUser,
		OwnerID:               c.OwnerID,
		ThreadMetadata:        c.ThreadMetadata,
		MessageCount:          c.MessageCount,
		MemberCount:           c.MemberCount,
		TotalMessagesSent:     c.TotalMessagesSent,
		DefaultAutoArchiveDur: c.DefaultAutoArchiveDuration,
		Flags:                 c.Flags,
		Icon:                  c.Icon,
		ApplicationID:         c.ApplicationID,
		Managed:               c.Managed,
		Raw:                   SanitizeRawJSON(raw),
	}
}

// ParsePermissionMask parses a decimal permission string (role or
// overwrite) into a Bits mask. An empty string is zero.
func ParsePermissionMask(s string) permissions.Bits {
	if s == "" {
		return 0
	}
	var v uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		v = v*10 + uint64(r-'0')
	}
	return permissions.Bits(v)
}

// MappedGuild is the persistence-ready projection of a Guild DTO.
type MappedGuild struct {
	ID          snowflake.ID
	Name        string
	Icon        *string
	OwnerID     snowflake.ID
	Description *string
	Raw         json.RawMessage
}

// MapGuild projects a guild DTO (only the columns the orchestrator itself
// reads back are named explicitly; the rest survive in the Raw JSONB
// snapshot column).
func MapGuild(g discord.Guild) MappedGuild {
	raw, _ := json.Marshal(g)
	return MappedGuild{
		ID:          g.ID,
		Name:        g.Name,
		Icon:        g.Icon,
		OwnerID:     g.OwnerID,
		Description: g.Description,
		Raw:         SanitizeRawJSON(raw),
	}
}

// MappedRole is the persistence-ready projection of a Role DTO.
type MappedRole struct {
	ID          snowflake.ID
	GuildID     snowflake.ID
	Name        string
	Color       int
	Hoist       bool
	Position    int
	Permissions permissions.Bits
	Managed     bool
	Mentionable bool
	Raw         json.RawMessage
}

// MapRole projects a role DTO.
func MapRole(r discord.Role, guildID snowflake.ID) MappedRole {
	raw, _ := json.Marshal(r)
	return MappedRole{
		ID:          r.ID,
		GuildID:     guildID,
		Name:        r.Name,
		Color:       r.Color,
		Hoist:       r.Hoist,
		Position:    r.Position,
		Permissions: ParsePermissionMask(r.Permissions),
		Managed:     r.Managed,
		Mentionable: r.Mentionable,
		Raw:         SanitizeRawJSON(raw),
	}
}

// MappedEmoji is the persistence-ready projection of an Emoji DTO.
type MappedEmoji struct {
	ID        snowflake.ID
	GuildID   snowflake.ID
	Name      *string
	Animated  bool
	Available bool
	Managed   bool
	Raw       json.RawMessage
}

// MapEmoji projects an emoji DTO. A standard (non-custom) emoji never
// appears in a guild's emoji listing, so ID is always non-nil here.
func MapEmoji(e discord.Emoji, guildID snowflake.ID) MappedEmoji {
	raw, _ := json.Marshal(e)
	var id snowflake.ID
	if e.ID != nil {
		id = *e.ID
	}
	return MappedEmoji{
		ID:        id,
		GuildID:   guildID,
		Name:      e.Name,
		Animated:  e.Animated,
		Available: e.Available,
		Managed:   e.Managed,
		Raw:       SanitizeRawJSON(raw),
	}
}

// MappedSticker is the persistence-ready projection of a Sticker DTO.
type MappedSticker struct {
	ID          snowflake.ID
	GuildID     snowflake.ID
	Name        string
	Description *string
	Tags        string
	FormatType  int
	Available   bool
	Raw         json.RawMessage
}

// MapSticker projects a sticker DTO.
func MapSticker(s discord.Sticker, guildID snowflake.ID) MappedSticker {
	raw, _ := json.Marshal(s)
	return MappedSticker{
		ID:          s.ID,
		GuildID:     guildID,
		Name:        s.Name,
		Description: s.Description,
		Tags:        s.Tags,
		FormatType:  s.FormatType,
		Available:   s.Available,
		Raw:         SanitizeRawJSON(raw),
	}
}

// MappedScheduledEvent is the persistence-ready projection of a
// GuildScheduledEvent DTO.
type MappedScheduledEvent struct {
	ID          snowflake.ID
	GuildID     snowflake.ID
	ChannelID   *snowflake.ID
	Name        string
	Description *string
	Status      int
	Raw         json.RawMessage
}

// MapScheduledEvent projects a scheduled-event DTO.
func MapScheduledEvent(e discord.GuildScheduledEvent) MappedScheduledEvent {
	raw, _ := json.Marshal(e)
	return MappedScheduledEvent{
		ID:          e.ID,
		GuildID:     e.GuildID,
		ChannelID:   e.ChannelID,
		Name:        e.Name,
		Description: e.Description,
		Status:      e.Status,
		Raw:         SanitizeRawJSON(raw),
	}
}
