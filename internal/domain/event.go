package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the concrete event variant. It is serialized so that
// overlay clients can deserialize events polymorphically.
type Kind string

const (
	KindChatMessage       Kind = "chatMessage"
	KindDonation          Kind = "donation"
	KindSubscription      Kind = "subscription"
	KindMembership        Kind = "membership"
	KindRaid              Kind = "raid"
	KindFollow            Kind = "follow"
	KindHost              Kind = "host"
	KindSystemMessage     Kind = "systemMessage"
	KindPollUpdate        Kind = "pollUpdate"
	KindGoalUpdate        Kind = "goalUpdate"
	KindBotMessage        Kind = "botMessage"
	KindCommandInvocation Kind = "commandInvocation"
)

var knownKinds = map[Kind]bool{
	KindChatMessage:       true,
	KindDonation:          true,
	KindSubscription:      true,
	KindMembership:        true,
	KindRaid:              true,
	KindFollow:            true,
	KindHost:              true,
	KindSystemMessage:     true,
	KindPollUpdate:        true,
	KindGoalUpdate:        true,
	KindBotMessage:        true,
	KindCommandInvocation: true,
}

// KnownKind reports whether k is a recognized event kind.
func KnownKind(k Kind) bool {
	return knownKinds[k]
}

// Event is the unified event envelope produced by all platform adapters and
// internal modules. Exactly one payload pointer is set, matching Kind.
// Events are immutable once constructed; the ID is unique for the process
// lifetime.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Platform  string    `json:"platform"`
	AccountID string    `json:"accountId,omitempty"`

	// Hidden marks a chat line suppressed by a command handler. Hidden
	// events are still delivered to in-process subscribers but are not
	// rendered by overlay clients. Not serialized.
	Hidden bool `json:"-"`

	Chat         *ChatPayload         `json:"chat,omitempty"`
	Donation     *DonationPayload     `json:"donation,omitempty"`
	Subscription *SubscriptionPayload `json:"subscription,omitempty"`
	Membership   *MembershipPayload   `json:"membership,omitempty"`
	Raid         *RaidPayload         `json:"raid,omitempty"`
	Follow       *FollowPayload       `json:"follow,omitempty"`
	Host         *HostPayload         `json:"host,omitempty"`
	System       *SystemPayload       `json:"system,omitempty"`
	Poll         *PollPayload         `json:"poll,omitempty"`
	Goal         *GoalPayload         `json:"goal,omitempty"`
	Bot          *BotPayload          `json:"bot,omitempty"`
	Invocation   *InvocationPayload   `json:"invocation,omitempty"`
}

// SegmentType classifies a parsed rich-text segment of a chat message.
type SegmentType string

const (
	SegmentText    SegmentType = "text"
	SegmentEmote   SegmentType = "emote"
	SegmentMention SegmentType = "mention"
)

// Segment is one parsed rich-text piece of a chat message.
type Segment struct {
	Type SegmentType `json:"type"`
	Text string      `json:"text"`
	URL  string      `json:"url,omitempty"`
}

type ChatPayload struct {
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	Badges   []string  `json:"badges,omitempty"`
	Color    string    `json:"color,omitempty"`
}

type DonationPayload struct {
	Username string  `json:"username"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Message  string  `json:"message,omitempty"`
}

type SubscriptionPayload struct {
	Username  string `json:"username"`
	Tier      string `json:"tier,omitempty"`
	Months    int    `json:"months,omitempty"`
	IsGift    bool   `json:"isGift,omitempty"`
	GiftCount int    `json:"giftCount,omitempty"`
}

type MembershipPayload struct {
	Username string `json:"username"`
	Level    string `json:"level,omitempty"`
	Months   int    `json:"months,omitempty"`
}

type RaidPayload struct {
	Username    string `json:"username"`
	ViewerCount int    `json:"viewerCount"`
}

type FollowPayload struct {
	Username string `json:"username"`
}

type HostPayload struct {
	Username    string `json:"username"`
	ViewerCount int    `json:"viewerCount"`
}

type SystemPayload struct {
	Level string `json:"level,omitempty"`
	Text  string `json:"text"`
}

type PollOption struct {
	Label string `json:"label"`
	Votes int    `json:"votes"`
}

type PollPayload struct {
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
	Final    bool         `json:"final,omitempty"`
}

type GoalPayload struct {
	Name    string `json:"name"`
	Current int    `json:"current"`
	Target  int    `json:"target"`
}

type BotPayload struct {
	Target string `json:"target,omitempty"`
	Text   string `json:"text"`
}

type InvocationPayload struct {
	Command   string `json:"command"`
	Arguments string `json:"arguments,omitempty"`
}

func newEvent(kind Kind, platform, accountID string) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Platform:  platform,
		AccountID: accountID,
	}
}

func NewChatMessage(platform, accountID string, p ChatPayload) Event {
	ev := newEvent(KindChatMessage, platform, accountID)
	ev.Chat = &p
	return ev
}

func NewDonation(platform, accountID string, p DonationPayload) Event {
	ev := newEvent(KindDonation, platform, accountID)
	ev.Donation = &p
	return ev
}

func NewSubscription(platform, accountID string, p SubscriptionPayload) Event {
	ev := newEvent(KindSubscription, platform, accountID)
	ev.Subscription = &p
	return ev
}

func NewMembership(platform, accountID string, p MembershipPayload) Event {
	ev := newEvent(KindMembership, platform, accountID)
	ev.Membership = &p
	return ev
}

func NewRaid(platform, accountID string, p RaidPayload) Event {
	ev := newEvent(KindRaid, platform, accountID)
	ev.Raid = &p
	return ev
}

func NewFollow(platform, accountID string, p FollowPayload) Event {
	ev := newEvent(KindFollow, platform, accountID)
	ev.Follow = &p
	return ev
}

func NewHostEvent(platform, accountID string, p HostPayload) Event {
	ev := newEvent(KindHost, platform, accountID)
	ev.Host = &p
	return ev
}

func NewSystemMessage(text, level string) Event {
	ev := newEvent(KindSystemMessage, "system", "")
	ev.System = &SystemPayload{Level: level, Text: text}
	return ev
}

func NewPollUpdate(platform string, p PollPayload) Event {
	ev := newEvent(KindPollUpdate, platform, "")
	ev.Poll = &p
	return ev
}

func NewGoalUpdate(p GoalPayload) Event {
	ev := newEvent(KindGoalUpdate, "system", "")
	ev.Goal = &p
	return ev
}

func NewBotMessage(platform, accountID string, p BotPayload) Event {
	ev := newEvent(KindBotMessage, platform, accountID)
	ev.Bot = &p
	return ev
}

func NewCommandInvocation(platform, accountID string, p InvocationPayload) Event {
	ev := newEvent(KindCommandInvocation, platform, accountID)
	ev.Invocation = &p
	return ev
}

// WithHidden returns a copy of the event marked as hidden from overlay
// clients. The original event is left untouched.
func (e Event) WithHidden() Event {
	e.Hidden = true
	return e
}

// Normalize fills in the generated fields of an externally submitted event.
// Producers hand events in over the ingestion API without an ID or timestamp;
// both are assigned here so that ID uniqueness stays under our control.
func Normalize(e Event) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}

// Validate checks the payload discipline on an externally submitted event:
// the kind tag must be known and exactly the one payload matching it set.
func (e Event) Validate() error {
	if !KnownKind(e.Kind) {
		return ErrUnknownEventKind
	}
	byKind := map[Kind]bool{
		KindChatMessage:       e.Chat != nil,
		KindDonation:          e.Donation != nil,
		KindSubscription:      e.Subscription != nil,
		KindMembership:        e.Membership != nil,
		KindRaid:              e.Raid != nil,
		KindFollow:            e.Follow != nil,
		KindHost:              e.Host != nil,
		KindSystemMessage:     e.System != nil,
		KindPollUpdate:        e.Poll != nil,
		KindGoalUpdate:        e.Goal != nil,
		KindBotMessage:        e.Bot != nil,
		KindCommandInvocation: e.Invocation != nil,
	}
	set := 0
	for _, present := range byKind {
		if present {
			set++
		}
	}
	if set != 1 || !byKind[e.Kind] {
		return ErrPayloadMismatch
	}
	return nil
}
