package graph

import "errors"

var (
	// ErrGraphService indicates a failed call to the knowledge graph
	// service. Wraps the transport or tool error.
	ErrGraphService = errors.New("graph service error")

	// ErrNotConnected is returned when the gateway is used before Connect
	// succeeds or after Close.
	ErrNotConnected = errors.New("graph gateway not connected")
)
