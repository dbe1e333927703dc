package router

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"screencap/src/messages"
)

const (
	sendTimeout      = 5 * time.Second
	broadcastTimeout = 1 * time.Second
)

// ChannelInfo holds information about a process channel
type ChannelInfo struct {
	Channel   chan messages.MessageEnvelope
	ProcessID string
	Active    bool
}

// Router handles message routing between processes
type Router struct {
	channels    map[string]*ChannelInfo
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	logMessages bool
}

// NewRouter creates a new message router
func NewRouter() *Router {
	ctx, cancel := context.WithCancel(context.Background())
	return &Router{
		channels:    make(map[string]*ChannelInfo),
		ctx:         ctx,
		cancel:      cancel,
		logMessages: true,
	}
}

// RegisterProcess registers a process with the router
func (r *Router) RegisterProcess(processID string, bufferSize int) (<-chan messages.MessageEnvelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[processID]; exists {
		return nil, fmt.Errorf("process %s already registered", processID)
	}

	ch := make(chan messages.MessageEnvelope, bufferSize)
	r.channels[processID] = &ChannelInfo{
		Channel:   ch,
		ProcessID: processID,
		Active:    true,
	}

	log.Printf("Router: Registered process %s with buffer size %d", processID, bufferSize)
	return ch, nil
}

// UnregisterProcess removes a process from the router
func (r *Router) UnregisterProcess(processID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, exists := r.channels[processID]; exists {
		info.Active = false
		close(info.Channel)
		delete(r.channels, processID)
		log.Printf("Router: Unregistered process %s", processID)
	}
}

// Send sends a message to a specific process ("*" broadcasts)
func (r *Router) Send(envelope messages.MessageEnvelope) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.logMessages {
		log.Printf("Router: %s -> %s: %s", envelope.From, envelope.To, envelope.Message.Type())
	}

	if envelope.To == "*" {
		return r.broadcastMessage(envelope)
	}

	info, exists := r.channels[envelope.To]
	if !exists {
		return fmt.Errorf("process %s not found", envelope.To)
	}
	if !info.Active {
		return fmt.Errorf("process %s is not active", envelope.To)
	}

	select {
	case info.Channel <- envelope:
		return nil
	case <-time.After(sendTimeout):
		return fmt.Errorf("timeout sending message to process %s", envelope.To)
	case <-r.ctx.Done():
		return fmt.Errorf("router is shutting down")
	}
}

// Broadcast sends a message to all registered processes except the sender
func (r *Router) Broadcast(envelope messages.MessageEnvelope) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.logMessages {
		log.Printf("Router: Broadcasting %s from %s", envelope.Message.Type(), envelope.From)
	}

	r.broadcastMessage(envelope)
}

func (r *Router) broadcastMessage(envelope messages.MessageEnvelope) error {
	var failures []string

	for processID, info := range r.channels {
		if !info.Active || processID == envelope.From {
			continue
		}

		envCopy := messages.MessageEnvelope{
			From:    envelope.From,
			To:      processID,
			Message: envelope.Message,
		}

		select {
		case info.Channel <- envCopy:
		case <-time.After(broadcastTimeout):
			failures = append(failures, fmt.Sprintf("timeout sending to %s", processID))
		case <-r.ctx.Done():
			return fmt.Errorf("router is shutting down")
		}
	}

	if len(failures) > 0 {
		log.Printf("Router: Broadcast errors: %v", failures)
	}

	return nil
}

// SendToCore is a convenience method for sending messages to the core loop
func (r *Router) SendToCore(from string, message messages.Message) error {
	return r.Send(messages.MessageEnvelope{
		From:    from,
		To:      messages.ProcessCore,
		Message: message,
	})
}

// GetActiveProcesses returns a list of active process IDs
func (r *Router) GetActiveProcesses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []string
	for processID, info := range r.channels {
		if info.Active {
			active = append(active, processID)
		}
	}
	return active
}

// SetMessageLogging enables or disables message logging
func (r *Router) SetMessageLogging(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logMessages = enabled
}

// Shutdown gracefully shuts down the router
func (r *Router) Shutdown() {
	log.Printf("Router: Shutting down...")

	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	for processID, info := range r.channels {
		if info.Active {
			info.Active = false
			close(info.Channel)
			log.Printf("Router: Closed channel for process %s", processID)
		}
	}
	r.channels = make(map[string]*ChannelInfo)

	log.Printf("Router: Shutdown complete")
}
