package notify

// Channel identifies the transport an intent travels over.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
)

// Tier identifies which escalation stage an intent belongs to.
type Tier string

const (
	TierSelf             Tier = "self"
	TierSupervisor       Tier = "supervisor"
	TierSecondSupervisor Tier = "second_supervisor"
)

// Intent is one outbound notification request. Recipient is a chat ID for
// ChannelChat and an email address for ChannelEmail. AckToken is empty for
// self-tier reminders, which carry no acknowledgment link.
type Intent struct {
	Channel   Channel
	Tier      Tier
	Recipient string
	UserName  string
	Workday   string
	Expected  string
	AckToken  string
}

// Gateway delivers notification intents. Delivery failures never roll back
// the audit state that produced the intent; callers log and move on.
type Gateway interface {
	Send(intent Intent) error
}
