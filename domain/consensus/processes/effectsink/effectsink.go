package effectsink

import (
	"sync"

	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// liveSink relays broadcasts to the network and events to the event
// feed as they happen
type liveSink struct {
	broadcaster model.Broadcaster
	publisher   model.EventPublisher
}

// NewLive returns an EffectSink that forwards to the given broadcaster
// and publisher. Either of them may be nil.
func NewLive(broadcaster model.Broadcaster, publisher model.EventPublisher) model.EffectSink {
	return &liveSink{
		broadcaster: broadcaster,
		publisher:   publisher,
	}
}

func (s *liveSink) Broadcast(view *externalapi.View) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastView(view)
	}
}

func (s *liveSink) BroadcastVote(vote *externalapi.Vote) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastVote(vote)
	}
}

func (s *liveSink) Publish(events ...*externalapi.Event) {
	if s.publisher == nil {
		return
	}
	for _, event := range events {
		s.publisher.Publish(event)
	}
}

// CollectEvents returns nothing, since live events are never held back
func (s *liveSink) CollectEvents() []*externalapi.Event {
	return nil
}

// bufferedSink holds events back until they are collected. Broadcasts
// are dropped.
type bufferedSink struct {
	lock   sync.Mutex
	events []*externalapi.Event
}

// NewBuffered returns an EffectSink that buffers every published event
func NewBuffered() model.EffectSink {
	return &bufferedSink{}
}

func (s *bufferedSink) Broadcast(*externalapi.View) {}

func (s *bufferedSink) BroadcastVote(*externalapi.Vote) {}

func (s *bufferedSink) Publish(events ...*externalapi.Event) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.events = append(s.events, events...)
}

// CollectEvents returns the buffered events and empties the buffer
func (s *bufferedSink) CollectEvents() []*externalapi.Event {
	s.lock.Lock()
	defer s.lock.Unlock()

	events := s.events
	s.events = nil
	return events
}
