// Package discord holds the wire DTOs the archiver decodes from the
// platform's REST API. Field sets are adapted from the teacher's own
// api/channel.go, api/user.go, api/guild.go, api/emoji.go, api/sticker.go,
// and api/guild_scheduled_event.go, trimmed to what the ingest pipeline
// persists and generalized to use snowflake.ID instead of the teacher's
// bare Snowflake string type.
package discord

import (
	"encoding/json"
	"time"

	"github.com/veteran-software/discord-archive/internal/snowflake"
)

// ChannelType enumerates the channel/thread kinds the archiver discriminates
// on. Numeric values match the wire protocol exactly (api/channel.go's
// ChannelType iota block).
type ChannelType int

//goland:noinspection GoUnusedConst
const (
	ChannelText               ChannelType = 0
	ChannelDM                 ChannelType = 1
	ChannelVoice              ChannelType = 2
	ChannelGroupDM            ChannelType = 3
	ChannelCategory           ChannelType = 4
	ChannelAnnouncement       ChannelType = 5
	ChannelAnnouncementThread ChannelType = 10
	ChannelPublicThread       ChannelType = 11
	ChannelPrivateThread      ChannelType = 12
	ChannelStageVoice         ChannelType = 13
	ChannelDirectory          ChannelType = 14
	ChannelForum              ChannelType = 15
	ChannelMedia              ChannelType = 16
)

// IsThread reports whether t names one of the three thread channel types.
func (t ChannelType) IsThread() bool {
	switch t {
	case ChannelAnnouncementThread, ChannelPublicThread, ChannelPrivateThread:
		return true
	default:
		return false
	}
}

// IsTextBased reports whether t supports a message-history endpoint.
// Forum and media channels are excluded: their content lives only in their
// child threads, never on the container itself. Mirrors
// original_source/discord_archive/ingest/mappers/channel.py's is_text_based.
func (t ChannelType) IsTextBased() bool {
	switch t {
	case ChannelText, ChannelDM, ChannelGroupDM, ChannelAnnouncement,
		ChannelAnnouncementThread, ChannelPublicThread, ChannelPrivateThread,
		ChannelVoice, ChannelStageVoice:
		return true
	default:
		return false
	}
}

// Overwrite is a permission overwrite attached to a channel. Allow/Deny
// arrive as decimal strings on the wire (they overflow float64 JSON
// numbers for the high bits used by newer permission flags).
type Overwrite struct {
	ID    snowflake.ID `json:"id"`
	Type  int          `json:"type"`
	Allow string       `json:"allow"`
	Deny  string       `json:"deny"`
}

// ThreadMetadata is the thread-specific subset of a Channel DTO.
type ThreadMetadata struct {
	Archived            bool       `json:"archived"`
	AutoArchiveDuration int        `json:"auto_archive_duration"`
	ArchiveTimestamp    time.Time  `json:"archive_timestamp"`
	Locked              bool       `json:"locked"`
	Invitable           *bool      `json:"invitable,omitempty"`
	CreateTimestamp     *time.Time `json:"create_timestamp,omitempty"`
}

// Channel is a guild channel or thread DTO, fields as returned by
// GET /guilds/{id}/channels, GET /channels/{id}, and the archived-thread
// listing endpoints.
type Channel struct {
	ID                          snowflake.ID     `json:"id"`
	Type                        ChannelType      `json:"type"`
	GuildID                     *snowflake.ID    `json:"guild_id,omitempty"`
	Position                    *int             `json:"position,omitempty"`
	PermissionOverwrites        []Overwrite      `json:"permission_overwrites,omitempty"`
	Name                        *string          `json:"name,omitempty"`
	Topic                       *string          `json:"topic,omitempty"`
	Nsfw                        bool             `json:"nsfw,omitempty"`
	LastMessageID               *snowflake.ID    `json:"last_message_id,omitempty"`
	Bitrate                     *int             `json:"bitrate,omitempty"`
	UserLimit                   *int             `json:"user_limit,omitempty"`
	RateLimitPerUser            *int             `json:"rate_limit_per_user,omitempty"`
	Recipients                  json.RawMessage  `json:"recipients,omitempty"`
	Icon                        *string          `json:"icon,omitempty"`
	OwnerID                     *snowflake.ID    `json:"owner_id,omitempty"`
	ApplicationID               *snowflake.ID    `json:"application_id,omitempty"`
	Managed                     bool             `json:"managed,omitempty"`
	ParentID                    *snowflake.ID    `json:"parent_id,omitempty"`
	LastPinTimestamp            *time.Time       `json:"last_pin_timestamp,omitempty"`
	RtcRegion                   *string          `json:"rtc_region,omitempty"`
	VideoQualityMode            *int             `json:"video_quality_mode,omitempty"`
	MessageCount                *int             `json:"message_count,omitempty"`
	MemberCount                 *int             `json:"member_count,omitempty"`
	ThreadMetadata              *ThreadMetadata  `json:"thread_metadata,omitempty"`
	DefaultAutoArchiveDuration  *int             `json:"default_auto_archive_duration,omitempty"`
	Flags                       int              `json:"flags,omitempty"`
	TotalMessagesSent           *int             `json:"total_message_sent,omitempty"`
	AvailableTags               json.RawMessage  `json:"available_tags,omitempty"`
	AppliedTags                 json.RawMessage  `json:"applied_tags,omitempty"`
	DefaultReactionEmoji        json.RawMessage  `json:"default_reaction_emoji,omitempty"`
	DefaultThreadRateLimitPerUser *int           `json:"default_thread_rate_limit_per_user,omitempty"`
	DefaultSortOrder            *int             `json:"default_sort_order,omitempty"`
	DefaultForumLayout          *int             `json:"default_forum_layout,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ThreadListResponse is the shape of the archived-thread pagination
// endpoints: a page of threads, their membership, and a has-more flag.
type ThreadListResponse struct {
	Threads []Channel       `json:"threads"`
	Members json.RawMessage `json:"members"`
	HasMore bool            `json:"has_more"`
}

// Emoji is the name/image identity behind EmojiKey; Animated disambiguates
// animated custom emoji. ID is nil for a standard unicode emoji.
type Emoji struct {
	ID            *snowflake.ID `json:"id"`
	Name          *string       `json:"name"`
	Roles         []string      `json:"roles,omitempty"`
	RequireColons bool          `json:"require_colons,omitempty"`
	Managed       bool          `json:"managed,omitempty"`
	Animated      bool          `json:"animated,omitempty"`
	Available     bool          `json:"available,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Attachment is a single file reference on a message: metadata/URL only,
// metadata/URL only, never file content.
type Attachment struct {
	ID          snowflake.ID `json:"id"`
	Filename    string       `json:"filename"`
	Description *string      `json:"description,omitempty"`
	ContentType *string      `json:"content_type,omitempty"`
	Size        int          `json:"size"`
	URL         string       `json:"url"`
	ProxyURL    string       `json:"proxy_url"`
	Height      *int         `json:"height,omitempty"`
	Width       *int         `json:"width,omitempty"`
	DurationSec *float64     `json:"duration_secs,omitempty"`
	Waveform    *string      `json:"waveform,omitempty"`
	Ephemeral   bool         `json:"ephemeral,omitempty"`
	Flags       int          `json:"flags,omitempty"`
	Title       *string      `json:"title,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ReactionCountDetails splits a reaction's count into normal vs. burst
// ("super reaction") tallies.
type ReactionCountDetails struct {
	Burst  int `json:"burst"`
	Normal int `json:"normal"`
}

// Reaction is one distinct-emoji tally on a message.
type Reaction struct {
	Count        int                  `json:"count"`
	CountDetails ReactionCountDetails `json:"count_details"`
	Me           bool                 `json:"me"`
	MeBurst      bool                 `json:"me_burst"`
	Emoji        Emoji                `json:"emoji"`
	BurstColors  []string             `json:"burst_colors,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// User is a Discord account, possibly partial when sourced from a message
// mention, which may omit fields a full profile fetch would include.
type User struct {
	ID                    snowflake.ID `json:"id"`
	Username              string       `json:"username"`
	Discriminator         string       `json:"discriminator"`
	GlobalName            *string      `json:"global_name"`
	Avatar                *string      `json:"avatar"`
	AvatarDecorationData  json.RawMessage `json:"avatar_decoration_data,omitempty"`
	Banner                *string      `json:"banner,omitempty"`
	AccentColor           *int         `json:"accent_color,omitempty"`
	Bot                   bool         `json:"bot,omitempty"`
	System                bool         `json:"system,omitempty"`
	PublicFlags           *int64       `json:"public_flags,omitempty"`
	PremiumType           *int         `json:"premium_type,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// MessageReference points a reply/crosspost message at its source.
type MessageReference struct {
	MessageID *snowflake.ID `json:"message_id,omitempty"`
	ChannelID *snowflake.ID `json:"channel_id,omitempty"`
	GuildID   *snowflake.ID `json:"guild_id,omitempty"`
}

// Message is the core archived entity: immutable once stored, one row ever.
type Message struct {
	ID                  snowflake.ID       `json:"id"`
	ChannelID            snowflake.ID       `json:"channel_id"`
	GuildID              *snowflake.ID      `json:"guild_id,omitempty"`
	Author               User               `json:"author"`
	Content               string             `json:"content"`
	Timestamp             time.Time          `json:"timestamp"`
	EditedTimestamp       *time.Time         `json:"edited_timestamp"`
	TTS                   bool               `json:"tts"`
	MentionEveryone       bool               `json:"mention_everyone"`
	Mentions              []User             `json:"mentions"`
	MentionRoles          []snowflake.ID     `json:"mention_roles"`
	MentionChannels       json.RawMessage    `json:"mention_channels,omitempty"`
	Attachments           []Attachment       `json:"attachments"`
	Embeds                json.RawMessage    `json:"embeds,omitempty"`
	Reactions             []Reaction         `json:"reactions,omitempty"`
	Pinned                bool               `json:"pinned"`
	WebhookID             *snowflake.ID      `json:"webhook_id,omitempty"`
	Type                  int                `json:"type"`
	Activity              json.RawMessage    `json:"activity,omitempty"`
	Application           json.RawMessage    `json:"application,omitempty"`
	ApplicationID         *snowflake.ID      `json:"application_id,omitempty"`
	MessageReference      *MessageReference  `json:"message_reference,omitempty"`
	MessageSnapshots      json.RawMessage    `json:"message_snapshots,omitempty"`
	Flags                 int                `json:"flags,omitempty"`
	InteractionMetadata   json.RawMessage    `json:"interaction_metadata,omitempty"`
	Thread                json.RawMessage    `json:"thread,omitempty"`
	Components            json.RawMessage    `json:"components,omitempty"`
	StickerItems           json.RawMessage    `json:"sticker_items,omitempty"`
	Poll                   json.RawMessage    `json:"poll,omitempty"`
	Call                   json.RawMessage    `json:"call,omitempty"`
	RoleSubscriptionData   json.RawMessage    `json:"role_subscription_data,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Role is a guild role, carrying the permission mask used by the base
// permission calculation.
type Role struct {
	ID          snowflake.ID `json:"id"`
	Name        string       `json:"name"`
	Color       int          `json:"color"`
	Hoist       bool         `json:"hoist"`
	Position    int          `json:"position"`
	Permissions string       `json:"permissions"`
	Managed     bool         `json:"managed"`
	Mentionable bool         `json:"mentionable"`

	Raw json.RawMessage `json:"-"`
}

// Sticker is a guild's custom sticker.
type Sticker struct {
	ID          snowflake.ID  `json:"id"`
	PackID      *snowflake.ID `json:"pack_id,omitempty"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Tags        string        `json:"tags"`
	Type        int           `json:"type"`
	FormatType  int           `json:"format_type"`
	Available   bool          `json:"available,omitempty"`
	GuildID     *snowflake.ID `json:"guild_id,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// GuildScheduledEvent is a guild's scheduled event.
type GuildScheduledEvent struct {
	ID                 snowflake.ID  `json:"id"`
	GuildID            snowflake.ID  `json:"guild_id"`
	ChannelID          *snowflake.ID `json:"channel_id"`
	CreatorID          *snowflake.ID `json:"creator_id,omitempty"`
	Name               string        `json:"name"`
	Description        *string       `json:"description,omitempty"`
	ScheduledStartTime time.Time     `json:"scheduled_start_time"`
	ScheduledEndTime   *time.Time    `json:"scheduled_end_time"`
	PrivacyLevel       int           `json:"privacy_level"`
	Status             int           `json:"status"`
	EntityType         int           `json:"entity_type"`
	EntityID           *snowflake.ID `json:"entity_id"`
	UserCount          *int          `json:"user_count,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Guild is the top-level server DTO.
type Guild struct {
	ID                          snowflake.ID   `json:"id"`
	Name                        string         `json:"name"`
	Icon                        *string        `json:"icon"`
	IconHash                    *string        `json:"icon_hash,omitempty"`
	Splash                      *string        `json:"splash"`
	DiscoverySplash             *string        `json:"discovery_splash"`
	Banner                      *string        `json:"banner"`
	Description                 *string        `json:"description"`
	OwnerID                     snowflake.ID   `json:"owner_id"`
	AfkChannelID                *snowflake.ID  `json:"afk_channel_id"`
	AfkTimeout                  int            `json:"afk_timeout"`
	WidgetEnabled               bool           `json:"widget_enabled,omitempty"`
	WidgetChannelID              *snowflake.ID  `json:"widget_channel_id"`
	SystemChannelID             *snowflake.ID  `json:"system_channel_id"`
	RulesChannelID              *snowflake.ID  `json:"rules_channel_id"`
	PublicUpdatesChannelID      *snowflake.ID  `json:"public_updates_channel_id"`
	SafetyAlertsChannelID       *snowflake.ID  `json:"safety_alerts_channel_id,omitempty"`
	VerificationLevel           int            `json:"verification_level"`
	DefaultMessageNotifications int            `json:"default_message_notifications"`
	ExplicitContentFilter       int            `json:"explicit_content_filter"`
	MfaLevel                    int            `json:"mfa_level"`
	NsfwLevel                   int            `json:"nsfw_level"`
	SystemChannelFlags          int            `json:"system_channel_flags"`
	Features                    []string       `json:"features"`
	PremiumTier                 int            `json:"premium_tier"`
	PremiumSubscriptionCount    *int           `json:"premium_subscription_count,omitempty"`
	PremiumProgressBarEnabled   bool           `json:"premium_progress_bar_enabled"`
	VanityUrlCode               *string        `json:"vanity_url_code"`
	PreferredLocale             string         `json:"preferred_locale"`
	ApplicationID               *snowflake.ID  `json:"application_id"`
	MaxPresences                *int64         `json:"max_presences,omitempty"`
	MaxMembers                  *int64         `json:"max_members,omitempty"`
	MaxVideoChannelUsers        *int           `json:"max_video_channel_users,omitempty"`
	MaxStageVideoChannelUsers   *int           `json:"max_stage_video_channel_users,omitempty"`
	ApproximateMemberCount      *int           `json:"approximate_member_count,omitempty"`
	ApproximatePresenceCount    *int           `json:"approximate_presence_count,omitempty"`
	WelcomeScreen                json.RawMessage `json:"welcome_screen,omitempty"`
	IncidentsData                json.RawMessage `json:"incidents_data,omitempty"`

	Roles  []Role  `json:"roles"`
	Emojis []Emoji `json:"emojis"`

	Raw json.RawMessage `json:"-"`
}

// GuildMember is the "current user's member record in this guild" DTO
// used to build the permission context (guild_processor's step 2).
type GuildMember struct {
	User  *User          `json:"user,omitempty"`
	Roles []snowflake.ID `json:"roles"`
}
