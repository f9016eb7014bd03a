package pubsub

import (
	"github.com/go-playground/validator/v10"
)

// OverflowPolicy selects what happens when a message arrives for a
// subscription whose queue is already full.
type OverflowPolicy string

const (
	// OverflowBlock parks the publisher until the subscriber makes room.
	// Nothing is lost, at the cost of backpressure on the publishing side.
	OverflowBlock OverflowPolicy = "block"

	// OverflowDropOldest evicts the oldest queued message to admit the new
	// one. Subscribers always see the freshest data.
	OverflowDropOldest OverflowPolicy = "drop_oldest"

	// OverflowDropNewest discards the incoming message and keeps the queue
	// as is. Subscribers drain at their own pace and miss bursts.
	OverflowDropNewest OverflowPolicy = "drop_newest"

	// OverflowFail counts the delivery as failed for this subscriber. The
	// publish call itself still succeeds.
	OverflowFail OverflowPolicy = "fail"
)

// DefaultQueueDepth is the queue capacity a subscription gets when its
// profile does not say otherwise.
const DefaultQueueDepth = 10

// profileValidator is a package-level validator instance.
// Using a single instance is more efficient as it caches struct information.
var profileValidator = validator.New()

// Profile describes the queue of a single subscription: how many messages it
// buffers and what happens on overflow.
type Profile struct {
	Depth    int            `json:"depth" validate:"gt=0,lte=65536"`
	Overflow OverflowPolicy `json:"overflow" validate:"oneof=block drop_oldest drop_newest fail"`
}

// DefaultProfile returns the profile used when a subscription does not pick
// its own: a small bounded queue that blocks the publisher when full, so no
// message is silently lost.
func DefaultProfile() Profile {
	return Profile{
		Depth:    DefaultQueueDepth,
		Overflow: OverflowBlock,
	}
}

// Validate runs validation checks on the Profile using the defined tags.
func (p Profile) Validate() error {
	if err := profileValidator.Struct(p); err != nil {
		return &Error{
			Kind:    KindInvalidProfile,
			Message: "invalid subscription profile",
			Cause:   err,
		}
	}
	return nil
}
