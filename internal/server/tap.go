package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/skiffworks/skiff/internal/middleware"
	"github.com/skiffworks/skiff/internal/pubsub"
)

// tapWriteWait bounds how long one frame may take to reach the client before
// the tap gives up on the connection.
const tapWriteWait = 10 * time.Second

// tapTopic streams live bus traffic for one topic over a websocket. The tap
// is an ordinary subscriber with a drop-oldest queue, so a slow client sees
// gaps instead of stalling publishers.
func (s *Server) tapTopic(c echo.Context) error {
	log := middleware.FromContext(c.Request().Context())

	topic := c.QueryParam("topic")
	if err := pubsub.ValidateTopicName(topic); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "invalid_topic_name",
			Message: err.Error(),
		})
	}

	sub, err := pubsub.NewSubscriber(s.bus, topic, pubsub.WithOverflow(pubsub.OverflowDropOldest))
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Code:    "subscribe_failed",
			Message: err.Error(),
		})
	}
	defer sub.Close()

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Error("Failed to accept tap websocket", "topic", topic, "error", err)
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	log.Info("Tap opened", "topic", topic, "remote", c.RealIP())

	// The tap never reads application frames. CloseRead keeps control frames
	// flowing and ends the returned context when the client disconnects.
	ctx := conn.CloseRead(c.Request().Context())

	for {
		msg, err := sub.Receive(ctx)
		if err != nil {
			switch {
			case errors.Is(err, pubsub.ErrDisconnected):
				log.Info("Tap ended, bus side closed", "topic", topic)
				conn.Close(websocket.StatusGoingAway, "bus closed")
			case errors.Is(err, context.Canceled):
				log.Debug("Tap client disconnected", "topic", topic)
			default:
				log.Error("Tap receive failed", "topic", topic, "error", err)
			}
			return nil
		}

		frame, err := json.Marshal(newTapFrame(msg))
		if err != nil {
			log.Error("Failed to encode tap frame", "topic", topic, "msg_id", msg.ID, "error", err)
			continue
		}

		writeCtx, cancel := context.WithTimeout(ctx, tapWriteWait)
		err = conn.Write(writeCtx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			log.Debug("Tap write failed, dropping connection", "topic", topic, "error", err)
			return nil
		}
	}
}
