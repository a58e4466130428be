package sps30dev

import (
	"sps30-go/bus"
	"sps30-go/drivers/sps30"
	"sps30-go/errcode"
)

// Topic leaves under sps30/<name>/.
const (
	TopicMeasurement = "measurement"
	TopicStatus      = "status"
	TopicError       = "error"
)

// Reading is the payload published on the measurement topic.
type Reading struct {
	Set sps30.MeasurementSet
	TS  float64 // unix seconds
}

// TopicSink publishes what the monitor reads on an in-process bus:
//
//	sps30/<name>/measurement  Reading, retained
//	sps30/<name>/status       sps30.StatusFlags, retained
//	sps30/<name>/error        errcode.Code
type TopicSink struct {
	conn *bus.Connection
	name string
}

func NewTopicSink(conn *bus.Connection, name string) *TopicSink {
	if name == "" {
		name = "default"
	}
	return &TopicSink{conn: conn, name: name}
}

// Topic returns the full topic of one leaf.
func (s *TopicSink) Topic(leaf string) bus.Topic { return bus.T("sps30", s.name, leaf) }

func (s *TopicSink) Publish(set sps30.MeasurementSet, ts float64) {
	s.conn.Publish(&bus.Message{Topic: s.Topic(TopicMeasurement), Payload: Reading{Set: set, TS: ts}, Retained: true})
}

func (s *TopicSink) Fail(code errcode.Code) {
	s.conn.Publish(&bus.Message{Topic: s.Topic(TopicError), Payload: code})
}

func (s *TopicSink) SetStatus(st sps30.StatusFlags) {
	s.conn.Publish(&bus.Message{Topic: s.Topic(TopicStatus), Payload: st, Retained: true})
}

// Sinks fans every call out to each member in order.
type Sinks []Sink

func (ss Sinks) Publish(set sps30.MeasurementSet, ts float64) {
	for _, s := range ss {
		s.Publish(set, ts)
	}
}

func (ss Sinks) Fail(code errcode.Code) {
	for _, s := range ss {
		s.Fail(code)
	}
}

func (ss Sinks) SetStatus(st sps30.StatusFlags) {
	for _, s := range ss {
		s.SetStatus(st)
	}
}
