// Package pubsub implements the in-process message bus: a topic-addressed
// publish/subscribe core where any number of publishers fan messages out to
// any number of subscribers without knowing who they are.
//
// The Bus is the communication context. It owns the topic registry (the only
// shared mutable structure) and is passed explicitly into every Publisher and
// Subscriber constructor, so independent buses never interfere and tests get
// full isolation:
//
//	bus := pubsub.New()
//	defer bus.Close()
//
//	sub, err := pubsub.NewSubscriber(bus, "/chatter")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sub.Close()
//
//	pub, err := pubsub.NewPublisher(bus, "/chatter")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := pub.Publish(ctx, []byte("hello")); err != nil {
//		log.Fatal(err)
//	}
//
//	msg, err := sub.ReceiveTimeout(time.Second)
//
// Delivery is best-effort with at-most-once semantics per live subscriber.
// Each subscription owns a bounded queue whose depth and overflow behavior
// come from its Profile; a slow or dead subscriber never blocks delivery to
// the rest of the topic, and a publish never fails because some subscriber
// could not take the message.
//
// Payloads are raw bytes. The typed layer (Event, TypedPublisher,
// TypedSubscriber) adds compile-time payload safety on top, with codecs
// supplied by the caller and topic declarations registered in the topicmgr
// directory.
//
// The bus stays inside the process. Bridging to other transports is the job
// of adapters such as the watermill Bridge in this package.
package pubsub
