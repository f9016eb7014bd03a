package server

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
)

// listTopics returns the merged view of declared and live topics.
func (s *Server) listTopics(c echo.Context) error {
	rows := make(map[string]*TopicSummary)

	for _, topic := range s.topics.List() {
		rows[topic.Name()] = &TopicSummary{
			Name:        topic.Name(),
			Owner:       topic.Owner(),
			Description: topic.Description(),
			TypeName:    topic.TypeName(),
			Declared:    true,
		}
	}

	for _, name := range s.bus.Topics() {
		row, ok := rows[name]
		if !ok {
			row = &TopicSummary{Name: name}
			rows[name] = row
		}
		row.Subscribers = s.bus.SubscriberCount(name)
	}

	out := make([]TopicSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return c.JSON(http.StatusOK, out)
}

// getTopic returns the full record for one topic. The wildcard segment is the
// topic name without its leading slash, so /v1/topics/demo/chatter looks up
// /demo/chatter.
func (s *Server) getTopic(c echo.Context) error {
	name := "/" + c.Param("*")

	detail := TopicDetail{TopicSummary: TopicSummary{Name: name}}
	detail.Subscribers = s.bus.SubscriberCount(name)

	entry, declared := s.topics.GetEntry(name)
	if declared {
		detail.Declared = true
		detail.Owner = entry.Topic.Owner()
		detail.Description = entry.Topic.Description()
		detail.TypeName = entry.Topic.TypeName()
		detail.Example = entry.Topic.Example()
		if md := entry.Topic.Metadata(); len(md) > 0 {
			detail.Metadata = md
		}
		registeredAt := entry.RegisteredAt
		detail.RegisteredAt = &registeredAt
		detail.UsageCount = entry.UsageCount
	}

	if !declared && !s.busKnows(name) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "topic_not_found",
			Message: "topic is neither declared nor carrying traffic: " + name,
		})
	}

	return c.JSON(http.StatusOK, detail)
}

// busKnows reports whether the bus has ever routed the topic.
func (s *Server) busKnows(name string) bool {
	for _, t := range s.bus.Topics() {
		if t == name {
			return true
		}
	}
	return false
}

// listParams returns every parameter in the process-wide store.
func (s *Server) listParams(c echo.Context) error {
	params := s.params.List()
	return c.JSON(http.StatusOK, ParamsResponse{
		Scope:  s.params.Scope(),
		Count:  len(params),
		Params: params,
	})
}

// getParam returns a single parameter by name.
func (s *Server) getParam(c echo.Context) error {
	name := c.Param("name")

	value, err := s.params.Get(name)
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "param_not_found",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, ParamResponse{
		Scope: s.params.Scope(),
		Name:  name,
		Kind:  value.Kind().String(),
		Value: value,
	})
}

// getStats returns a combined snapshot of bus and directory activity.
func (s *Server) getStats(c echo.Context) error {
	return c.JSON(http.StatusOK, StatsResponse{
		Bus:       s.bus.Stats(),
		Directory: s.topics.GetStats(),
	})
}
