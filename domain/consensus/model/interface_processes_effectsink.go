package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// EffectSink receives the outward effects of a committed view
type EffectSink interface {
	Broadcast(view *externalapi.View)
	BroadcastVote(vote *externalapi.Vote)
	Publish(events ...*externalapi.Event)
	CollectEvents() []*externalapi.Event
}

// Broadcaster relays views and votes to the rest of the network
type Broadcaster interface {
	BroadcastView(view *externalapi.View)
	BroadcastVote(vote *externalapi.Vote)
}

// EventPublisher fans events out to subscribers
type EventPublisher interface {
	Publish(event *externalapi.Event)
}
