package rn2xx3

import "sync/atomic"

// Stats contains counters for driver activity. All fields are lifetime
// totals.
//
// For Prometheus integration, expose all fields as counters.
type Stats struct {
	Commands          uint64 // commands submitted
	ModuleErrors      uint64 // commands the module rejected
	Timeouts          uint64 // exchanges that exhausted their poll budget
	TransportErrors   uint64 // byte-level I/O failures
	UnexpectedReplies uint64 // replies not matching the expected grammar
	Events            uint64 // asynchronous events received
}

// statsCollector updates counters atomically so that Stats can be read from
// a metrics goroutine while the driver runs in its own loop.
type statsCollector struct {
	commands          atomic.Uint64
	moduleErrors      atomic.Uint64
	timeouts          atomic.Uint64
	transportErrors   atomic.Uint64
	unexpectedReplies atomic.Uint64
	events            atomic.Uint64
}

func (c *statsCollector) recordCommand()         { c.commands.Add(1) }
func (c *statsCollector) recordModuleError()     { c.moduleErrors.Add(1) }
func (c *statsCollector) recordTimeout()         { c.timeouts.Add(1) }
func (c *statsCollector) recordTransportError()  { c.transportErrors.Add(1) }
func (c *statsCollector) recordUnexpectedReply() { c.unexpectedReplies.Add(1) }
func (c *statsCollector) recordEvent()           { c.events.Add(1) }

func (c *statsCollector) snapshot() Stats {
	return Stats{
		Commands:          c.commands.Load(),
		ModuleErrors:      c.moduleErrors.Load(),
		Timeouts:          c.timeouts.Load(),
		TransportErrors:   c.transportErrors.Load(),
		UnexpectedReplies: c.unexpectedReplies.Load(),
		Events:            c.events.Load(),
	}
}
