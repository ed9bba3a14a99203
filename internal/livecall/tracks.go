package livecall

// binder owns the two media sinks and enforces that at most one track per
// kind is bound at a time.
type binder struct {
	sinks map[TrackKind]MediaSink
	bound map[TrackKind]Track
}

func newBinder(video MediaSink, audio MediaSink) *binder {
	sinks := make(map[TrackKind]MediaSink)
	if video != nil {
		sinks[TrackKindVideo] = video
	}
	if audio != nil {
		sinks[TrackKindAudio] = audio
	}

	return &binder{
		sinks: sinks,
		bound: make(map[TrackKind]Track),
	}
}

// bind attaches the track to the sink of its kind, detaching any previously
// bound track of that kind first.
func (b *binder) bind(t Track) {
	if t == nil {
		return
	}

	kind := t.Kind()
	sink, ok := b.sinks[kind]
	if !ok {
		return
	}

	if prev, bound := b.bound[kind]; bound && prev.ID() != t.ID() {
		sink.Clear()
	}

	b.bound[kind] = t
	sink.Bind(t)
}

// unbind clears the sink only when the unsubscribed track is the one
// currently bound; a stale unsubscription for a replaced track is ignored.
func (b *binder) unbind(t Track) {
	if t == nil {
		return
	}

	kind := t.Kind()
	current, ok := b.bound[kind]
	if !ok || current.ID() != t.ID() {
		return
	}

	delete(b.bound, kind)
	if sink, ok := b.sinks[kind]; ok {
		sink.Clear()
	}
}

func (b *binder) has(kind TrackKind) bool {
	_, ok := b.bound[kind]
	return ok
}

// reset detaches everything that is still bound.
func (b *binder) reset() {
	for kind := range b.bound {
		if sink, ok := b.sinks[kind]; ok {
			sink.Clear()
		}
		delete(b.bound, kind)
	}
}
