package session

import "github.com/starkbot/console/pkg/gateway/protocol"

// WebChannelID is the fixed channel id of the web chat transport. Gateway
// events carry the originating channel so that multi-channel deployments can
// tell web traffic apart from, say, a Telegram bridge.
const WebChannelID int64 = 0

// Filter decides whether an event belongs to the session this console is
// rendering. Filtering is deliberately conservative: an event that does not
// carry a channel or session field is admitted rather than dropped, because
// several gateway emitters omit scope fields on broadcast topics.
type Filter struct {
	channelID int64
	scope     *Scope
}

// NewFilter builds a filter pinned to the given channel.
func NewFilter(channelID int64, scope *Scope) *Filter {
	return &Filter{channelID: channelID, scope: scope}
}

// ActiveChannel reports whether the event's channel matches ours. Events
// without a channel field pass.
func (f *Filter) ActiveChannel(sc protocol.Scope) bool {
	ch, ok := sc.Channel()
	if !ok {
		return true
	}
	return ch == f.channelID
}

// ActiveSession reports whether the event belongs to the active session. It
// first applies the channel check, then compares session ids; if either side
// does not know its session id, the event is admitted.
func (f *Filter) ActiveSession(sc protocol.Scope) bool {
	if !f.ActiveChannel(sc) {
		return false
	}
	evSession, ok := sc.Session()
	if !ok {
		return true
	}
	cur, known := f.scope.SessionID()
	if !known {
		return true
	}
	return evSession == cur
}
