/*
Package channels provides typed in-process publish/subscribe on top of fibers.

A MemoryChannel delivers each published message to every current
subscription. Publish never blocks on subscribers: a subscription made with
Subscribe hands each message to its fiber's queue, so delivery is serialized
per subscriber and parallel across subscribers.

	prices := channels.NewMemoryChannel[Quote]()
	sub := prices.Subscribe(uiFiber, func(q Quote) { render(q) })
	defer sub.Unsubscribe()

	prices.Publish(Quote{Symbol: "ACME", Bid: 101.5})

Batching:

BatchSubscriber and KeyedBatchSubscriber implement Subscribable and are
registered with SubscribeWith. They buffer messages on the publishing
goroutine and flush once per window on their fiber:

	batcher, err := channels.NewBatchSubscriber(f, func(batch []Quote) {
		store(batch)
	}, 50*time.Millisecond)
	prices.SubscribeWith(batcher)

	latest, err := channels.NewKeyedBatchSubscriber(f, func(bySymbol map[string]Quote) {
		render(bySymbol)
	}, 50*time.Millisecond, func(q Quote) string { return q.Symbol })
	prices.SubscribeWith(latest)

Every subscription bound to a fiber is removed when that fiber is disposed.
*/
package channels
