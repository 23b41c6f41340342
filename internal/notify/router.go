package notify

import "fmt"

// Router dispatches intents to the gateway serving their channel. A nil
// gateway means the channel is disabled; routing to it is an error so the
// caller can log exactly which delivery was dropped.
type Router struct {
	chat  Gateway
	email Gateway
}

func NewRouter(chat Gateway, email Gateway) *Router {
	return &Router{chat: chat, email: email}
}

func (router *Router) Send(intent Intent) error {
	var gateway Gateway
	switch intent.Channel {
	case ChannelChat:
		gateway = router.chat
	case ChannelEmail:
		gateway = router.email
	default:
		return fmt.Errorf("unknown notification channel %q", intent.Channel)
	}
	if gateway == nil {
		return fmt.Errorf("notification channel %q is not configured", intent.Channel)
	}
	return gateway.Send(intent)
}
