package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

// Handler executes one task. payload is the value built by the descriptor's
// PayloadFactory after decoding.
type Handler interface {
	Handle(ctx context.Context, task models.Task, payload any) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, task models.Task, payload any) error

func (f HandlerFunc) Handle(ctx context.Context, task models.Task, payload any) error {
	return f(ctx, task, payload)
}

// ExhaustedHandler is implemented by handlers that must react once a task
// has failed for the last time.
type ExhaustedHandler interface {
	OnExhausted(ctx context.Context, task models.Task, payload any, cause error) error
}

// Descriptor binds a task type to its payload schema and handler.
type Descriptor struct {
	TaskType       enums.TaskType
	AggregateType  enums.AggregateType
	PayloadFactory func() any
	Handler        Handler
}

// Resolved is a decoded task ready for dispatch.
type Resolved struct {
	Descriptor Descriptor
	Envelope   PayloadEnvelope
	Payload    any
}

// Registry maps task types to descriptors.
type Registry struct {
	mtx     sync.RWMutex
	entries map[enums.TaskType]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[enums.TaskType]Descriptor)}
}

// Register adds d. Registering the same task type twice is an error.
func (r *Registry) Register(d Descriptor) error {
	if !d.TaskType.IsValid() {
		return fmt.Errorf("invalid task type %q", d.TaskType)
	}
	if d.Handler == nil {
		return fmt.Errorf("handler required for %s", d.TaskType)
	}
	if d.PayloadFactory == nil {
		return fmt.Errorf("payload factory required for %s", d.TaskType)
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, exists := r.entries[d.TaskType]; exists {
		return fmt.Errorf("task type %s already registered", d.TaskType)
	}
	r.entries[d.TaskType] = d
	return nil
}

// Types lists registered task types.
func (r *Registry) Types() []enums.TaskType {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	out := make([]enums.TaskType, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	return out
}

// Resolve decodes the envelope and payload of task. Decode failures are permanent.
func (r *Registry) Resolve(task models.Task) (*Resolved, error) {
	r.mtx.RLock()
	descriptor, ok := r.entries[task.TaskType]
	r.mtx.RUnlock()
	if !ok {
		return nil, Permanent(fmt.Errorf("no handler registered for %s", task.TaskType))
	}
	if descriptor.AggregateType != "" && descriptor.AggregateType != task.AggregateType {
		return nil, Permanent(fmt.Errorf("task %s expects aggregate %s, got %s", task.TaskType, descriptor.AggregateType, task.AggregateType))
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(task.Payload, &envelope); err != nil {
		return nil, Permanent(fmt.Errorf("decode envelope: %w", err))
	}
	if envelope.Version != CurrentVersion {
		return nil, Permanent(fmt.Errorf("unsupported payload version %d for %s", envelope.Version, task.TaskType))
	}

	payload := descriptor.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, Permanent(fmt.Errorf("decode %s payload: %w", task.TaskType, err))
	}
	return &Resolved{Descriptor: descriptor, Envelope: envelope, Payload: payload}, nil
}
