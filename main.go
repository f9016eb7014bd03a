// A minimal talker/listener demo: three nodes on one in-process bus, with the
// same published stream fanned out to two independent subscribers. The real
// application entrypoint is cmd/server.
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/skiffworks/skiff/internal/logging"
	"github.com/skiffworks/skiff/internal/node"
	"github.com/skiffworks/skiff/internal/param"
	"github.com/skiffworks/skiff/internal/pubsub"
)

func main() {
	logging.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := pubsub.New()
	defer bus.Close()

	talker, err := node.New(bus, "talker", "/demo")
	if err != nil {
		log.Fatalf("Error creating talker node: %v", err)
	}
	defer talker.Close()

	// The talker's cadence and text come from its parameter store.
	talker.Params().Declare("publish_rate_hz", param.Float(2))
	talker.Params().Declare("greeting", param.String("hello"))

	// Two independent receivers on the same topic: every published message
	// reaches both.
	listener := mustNode(bus, "listener")
	defer listener.Close()
	monitor := mustNode(bus, "monitor")
	defer monitor.Close()

	listenerSub, err := listener.NewSubscriber("chatter")
	if err != nil {
		log.Fatalf("Error subscribing: %v", err)
	}
	monitorSub, err := monitor.NewSubscriber("chatter")
	if err != nil {
		log.Fatalf("Error subscribing: %v", err)
	}

	pub, err := talker.NewPublisher("chatter")
	if err != nil {
		log.Fatalf("Error creating publisher: %v", err)
	}

	go publishLoop(ctx, talker, pub)

	fmt.Println("Talker, listener, and monitor are up on /demo/chatter. Press Ctrl-C to stop.")

	var wg sync.WaitGroup
	wg.Add(2)
	go receiveLoop(ctx, &wg, listener, listenerSub)
	go receiveLoop(ctx, &wg, monitor, monitorSub)
	wg.Wait()

	fmt.Println("Demo stopped.")
}

func mustNode(bus *pubsub.Bus, name string) *node.Node {
	n, err := node.New(bus, name, "/demo")
	if err != nil {
		log.Fatalf("Error creating %s node: %v", name, err)
	}
	return n
}

func publishLoop(ctx context.Context, talker *node.Node, pub *pubsub.Publisher) {
	rate, _ := talker.Params().Get("publish_rate_hz")
	hz, _ := rate.AsFloat()
	greeting, _ := talker.Params().Get("greeting")
	text, _ := greeting.AsString()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / hz))
	defer ticker.Stop()

	for seq := 1; ; seq++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		payload := fmt.Sprintf("%s #%d", text, seq)
		if err := pub.Publish(ctx, []byte(payload)); err != nil {
			return
		}
		fmt.Printf("[%s] published: %s\n", talker.FullyQualifiedName(), payload)
	}
}

func receiveLoop(ctx context.Context, wg *sync.WaitGroup, n *node.Node, sub *pubsub.Subscriber) {
	defer wg.Done()

	for {
		msg, err := sub.Receive(ctx)
		if err != nil {
			// Context cancellation or bus shutdown ends the loop.
			return
		}
		fmt.Printf("[%s] received: %s\n", n.FullyQualifiedName(), msg.Payload)
	}
}
