package event

// Always binds cb persistently to every listed source. The callback runs each
// time any of the sources fires.
func Always(cb Callback, first Source, rest ...Source) {
	first.Event().Bind(cb)

	for _, s := range rest {
		s.Event().Bind(cb)
	}
}

// Sensitive binds cb persistently to a sensitivity list. An empty list binds
// nothing.
func Sensitive(cb Callback, sources ...Source) []SubscriberID {
	ids := make([]SubscriberID, 0, len(sources))
	for _, s := range sources {
		ids = append(ids, s.Event().Bind(cb))
	}

	return ids
}

// Once invokes cb a single time, when the first of the listed sources fires.
// The waiters left on the other sources are cancelled so that later triggers
// never invoke cb again.
func Once(cb Callback, first Source, rest ...Source) {
	sources := append([]Source{first}, rest...)
	OnFirst(func(int) { cb() }, sources...)
}

// OnFirst registers a one-shot callback on every source and invokes it with
// the index of the first source that fires. It panics if no source is given.
func OnFirst(cb func(index int), sources ...Source) {
	if len(sources) == 0 {
		panic("event: OnFirst requires at least one source")
	}

	type registration struct {
		evt *Event
		id  WaiterID
	}

	regs := make([]registration, len(sources))
	fired := false

	for i, s := range sources {
		index := i
		evt := s.Event()
		regs[i] = registration{
			evt: evt,
			id: evt.BindCancellable(func() {
				if fired {
					return
				}
				fired = true

				for j, r := range regs {
					if j != index {
						r.evt.CancelWait(r.id)
					}
				}

				cb(index)
			}),
		}
	}
}

// OnAll invokes cb once every listed source has fired at least once since the
// call. Each source only counts once. It panics if no source is given.
func OnAll(cb Callback, sources ...Source) {
	if len(sources) == 0 {
		panic("event: OnAll requires at least one source")
	}

	remaining := len(sources)
	for _, s := range sources {
		s.Event().BindOnce(func() {
			remaining--
			if remaining == 0 {
				cb()
			}
		})
	}
}
