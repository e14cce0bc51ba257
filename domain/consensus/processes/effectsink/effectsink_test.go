package effectsink

import (
	"testing"

	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

type recordingPublisher struct {
	events []*externalapi.Event
}

func (p *recordingPublisher) Publish(event *externalapi.Event) {
	p.events = append(p.events, event)
}

type recordingBroadcaster struct {
	views []*externalapi.View
	votes []*externalapi.Vote
}

func (b *recordingBroadcaster) BroadcastView(view *externalapi.View) {
	b.views = append(b.views, view)
}

func (b *recordingBroadcaster) BroadcastVote(vote *externalapi.Vote) {
	b.votes = append(b.votes, vote)
}

func TestLiveSink(t *testing.T) {
	publisher := &recordingPublisher{}
	broadcaster := &recordingBroadcaster{}
	sink := NewLive(broadcaster, publisher)

	sink.Broadcast(&externalapi.View{ID: 1})
	sink.BroadcastVote(&externalapi.Vote{Stake: 1})
	sink.Publish(&externalapi.Event{Height: 1}, &externalapi.Event{Height: 2})

	if len(broadcaster.views) != 1 || len(broadcaster.votes) != 1 {
		t.Fatalf("TestLiveSink: expected one view and one vote to be broadcast, got %d and %d",
			len(broadcaster.views), len(broadcaster.votes))
	}
	if len(publisher.events) != 2 {
		t.Fatalf("TestLiveSink: expected 2 published events, got %d", len(publisher.events))
	}
	if events := sink.CollectEvents(); len(events) != 0 {
		t.Fatalf("TestLiveSink: a live sink should not hold events back, got %d", len(events))
	}

	// A sink without a network is valid
	NewLive(nil, nil).Broadcast(&externalapi.View{ID: 1})
}

func TestBufferedSink(t *testing.T) {
	sink := NewBuffered()
	sink.Broadcast(&externalapi.View{ID: 1})
	sink.Publish(&externalapi.Event{Height: 1})
	sink.Publish(&externalapi.Event{Height: 2})

	events := sink.CollectEvents()
	if len(events) != 2 || events[0].Height != 1 || events[1].Height != 2 {
		t.Fatalf("TestBufferedSink: unexpected buffered events %v", events)
	}
	if events := sink.CollectEvents(); len(events) != 0 {
		t.Fatalf("TestBufferedSink: expected the buffer to be emptied, got %d events", len(events))
	}
}
