package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"whisperwall/contract"
	"whisperwall/domain"
	"whisperwall/domain/event"
	"whisperwall/errors"
	"whisperwall/runtime/workers"
)

const commandsChannelName = "relay_commands"

// Relay serializes every transport event through one goroutine.
//
// The registry and the sessions are only touched from Run, so nothing here
// needs a lock. Public methods are safe for concurrent use: they enqueue a
// command and return. Commands enqueued by one goroutine keep their order.
type Relay struct {
	log       *slog.Logger
	registry  *Registry
	sessions  map[string]*Session
	commands  chan domain.Command
	telemetry chan event.Event
	running   atomic.Bool
	stopOnce  sync.Once
	stopped   chan struct{}
}

// SessionView is a read-only copy of a session.
type SessionView struct {
	Endpoint string
	Code     domain.Code
	State    domain.RoomState
	Room     domain.ConversationKey
}

// Snapshot is a consistent copy of the relay state taken between two commands.
type Snapshot struct {
	Rooms    map[domain.ConversationKey][]string
	Sessions []SessionView
}

type connectCommand struct {
	endpoint contract.Endpoint
	reply    chan error
}

func (c connectCommand) EndpointID() string { return c.endpoint.ID() }

type snapshotCommand struct {
	reply chan Snapshot
}

func (snapshotCommand) EndpointID() string { return "" }

func NewRelay(log *slog.Logger, telemetry chan event.Event, bufferSize int) *Relay {
	return &Relay{
		log:       log,
		registry:  NewRegistry(),
		sessions:  make(map[string]*Session),
		commands:  make(chan domain.Command, bufferSize),
		telemetry: telemetry,
		stopped:   make(chan struct{}),
	}
}

// Run consumes commands until ctx is canceled. After a panic the Supervisor
// calls Run again and the registry is kept as it was.
func (r *Relay) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	r.log.Info("Relay loop started")

	for {
		select {
		case <-ctx.Done():
			r.stop()
			r.log.Debug("Context done, stopping relay")
			return nil
		case cmd := <-r.commands:
			r.handle(cmd)
		}
	}
}

// Running reports whether the loop is currently consuming commands.
func (r *Relay) Running() bool {
	return r.running.Load()
}

// Channels exposes the command channel to the capacity worker.
func (r *Relay) Channels() []workers.NamedChannel {
	return []workers.NamedChannel{{Name: commandsChannelName, Channel: r.commands}}
}

// Connect registers an endpoint. It waits for the loop so that the caller
// knows the endpoint is known before sending any other command.
func (r *Relay) Connect(ctx context.Context, endpoint contract.Endpoint) error {
	reply := make(chan error, 1)
	if err := r.dispatch(ctx, connectCommand{endpoint: endpoint, reply: reply}); err != nil {
		return err
	}
	err, waitErr := await(ctx, r.stopped, reply)
	if waitErr != nil {
		return waitErr
	}
	return err
}

func (r *Relay) Join(ctx context.Context, endpointID string, room domain.ConversationKey) error {
	return r.dispatch(ctx, domain.JoinRoomCommand{Endpoint: endpointID, Room: room})
}

func (r *Relay) Leave(ctx context.Context, endpointID string, room domain.ConversationKey) error {
	return r.dispatch(ctx, domain.LeaveRoomCommand{Endpoint: endpointID, Room: room})
}

// Send relays a message to the other members of cmd.Room. The caller is
// never told about deliveries: the live path is fire and forget.
func (r *Relay) Send(ctx context.Context, cmd domain.SendMessageCommand) error {
	return r.dispatch(ctx, cmd)
}

func (r *Relay) Disconnect(ctx context.Context, endpointID string) error {
	return r.dispatch(ctx, domain.DisconnectCommand{Endpoint: endpointID})
}

func (r *Relay) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := r.dispatch(ctx, snapshotCommand{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	return await(ctx, r.stopped, reply)
}

func (r *Relay) dispatch(ctx context.Context, cmd domain.Command) error {
	select {
	case <-r.stopped:
		return errors.ErrRelayStopped
	default:
	}
	select {
	case r.commands <- cmd:
		return nil
	case <-r.stopped:
		return errors.ErrRelayStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, stopped <-chan struct{}, reply <-chan T) (T, error) {
	var zero T
	select {
	case res := <-reply:
		return res, nil
	case <-stopped:
		return zero, errors.ErrRelayStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (r *Relay) stop() {
	r.stopOnce.Do(func() { close(r.stopped) })
}

func (r *Relay) handle(cmd domain.Command) {
	switch c := cmd.(type) {
	case connectCommand:
		c.reply <- r.connect(c.endpoint)
	case domain.JoinRoomCommand:
		r.join(c)
	case domain.LeaveRoomCommand:
		r.leave(c)
	case domain.SendMessageCommand:
		r.send(c)
	case domain.DisconnectCommand:
		r.disconnect(c)
	case snapshotCommand:
		c.reply <- r.snapshot()
	default:
		r.log.Warn("Unknown relay command", "type", fmt.Sprintf("%T", cmd))
	}
}

func (r *Relay) connect(endpoint contract.Endpoint) error {
	if _, ok := r.sessions[endpoint.ID()]; ok {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateEndpoint, endpoint.ID())
	}
	r.sessions[endpoint.ID()] = NewSession(endpoint)
	r.log.Debug("Endpoint connected", "endpoint", endpoint.ID(), "code", endpoint.Code())
	r.publish(event.New(event.EndpointConnectedType, event.EndpointConnected{
		Endpoint: endpoint.ID(),
		Code:     endpoint.Code().String(),
	}))
	return nil
}

func (r *Relay) join(cmd domain.JoinRoomCommand) {
	session, ok := r.sessions[cmd.Endpoint]
	if !ok {
		r.log.Debug("Join from unknown endpoint ignored", "endpoint", cmd.Endpoint)
		return
	}
	left, changed := session.Join(r.registry, cmd.Room)
	if !changed {
		return
	}
	if left != "" {
		r.log.Debug("Endpoint switched room", "endpoint", cmd.Endpoint, "left", left, "room", cmd.Room)
		return
	}
	r.log.Debug("Endpoint joined room", "endpoint", cmd.Endpoint, "room", cmd.Room)
}

func (r *Relay) leave(cmd domain.LeaveRoomCommand) {
	session, ok := r.sessions[cmd.Endpoint]
	if !ok {
		return
	}
	if session.Leave(r.registry, cmd.Room) {
		r.log.Debug("Endpoint left room", "endpoint", cmd.Endpoint, "room", cmd.Room)
	}
}

func (r *Relay) send(cmd domain.SendMessageCommand) {
	session, ok := r.sessions[cmd.Endpoint]
	if !ok {
		r.log.Debug("Send from unknown endpoint ignored", "endpoint", cmd.Endpoint)
		return
	}
	if !session.CanSend(cmd.Room) {
		r.log.Debug("Send outside of the joined room", "endpoint", cmd.Endpoint, "room", cmd.Room)
		session.Endpoint().Deliver(event.SendRejected{
			Room:   cmd.Room.String(),
			Reason: errors.ErrNotInRoom.Error(),
		})
		r.publish(event.New(event.SendRejectedType, event.RejectedSend{
			Endpoint: cmd.Endpoint,
			Room:     cmd.Room.String(),
		}))
		return
	}

	res := r.registry.Broadcast(cmd.Room, event.MessageReceived{
		ID:   cmd.ID,
		Text: cmd.Text,
		Time: cmd.Time,
		From: cmd.From.String(),
	}, cmd.Endpoint)

	r.publish(event.New(event.MessageRelayedType, event.MessageRelayed{
		ID:        cmd.ID,
		Room:      cmd.Room.String(),
		Delivered: res.Delivered,
		At:        cmd.CreatedAt,
	}))
	for _, id := range res.Dropped {
		r.publish(event.New(event.DeliveryDroppedType, event.DeliveryDropped{
			Endpoint: id,
			Room:     cmd.Room.String(),
		}))
	}
}

func (r *Relay) disconnect(cmd domain.DisconnectCommand) {
	session, ok := r.sessions[cmd.Endpoint]
	if !ok {
		return
	}
	rooms := session.Disconnect(r.registry)
	delete(r.sessions, cmd.Endpoint)
	r.log.Debug("Endpoint disconnected", "endpoint", cmd.Endpoint, "rooms", len(rooms))
	r.publish(event.New(event.EndpointDisconnectedType, event.EndpointDisconnected{
		Endpoint: cmd.Endpoint,
		Rooms:    len(rooms),
	}))
}

func (r *Relay) snapshot() Snapshot {
	snap := Snapshot{Rooms: make(map[domain.ConversationKey][]string)}
	for _, room := range r.registry.Rooms() {
		snap.Rooms[room] = r.registry.Members(room)
	}
	for id, session := range r.sessions {
		room, _ := session.Room()
		snap.Sessions = append(snap.Sessions, SessionView{
			Endpoint: id,
			Code:     session.Endpoint().Code(),
			State:    session.State(),
			Room:     room,
		})
	}
	return snap
}

func (r *Relay) publish(evt event.Event) {
	if r.telemetry == nil {
		return
	}
	select {
	case r.telemetry <- evt:
	default:
		r.log.Debug("Observability telemetry event lost")
	}
}
