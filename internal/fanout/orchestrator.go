package fanout

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"collab-backend/internal/message/domain"
	"collab-backend/internal/realtime"
)

type State string

const (
	StateCreated            State = "created"
	StateRecipientsResolved State = "recipients_resolved"
	StateDeliveriesWritten  State = "deliveries_written"
	StateNotifying          State = "notifying"
	StateComplete           State = "complete"
)

type Step string

const (
	StepBroadcast Step = "broadcast"
	StepValidate  Step = "validate"
	StepDispatch  Step = "dispatch"
	StepPrune     Step = "prune"
)

// Action is one fan-out request for an already persisted message.
type Action struct {
	Message      *domain.Message
	ActingUserID uint
	Recipients   RecipientInput
	// OriginSocketID is the realtime connection that issued the action; it does
	// not receive its own echo. OriginUserID owns that connection and defaults
	// to ActingUserID.
	OriginSocketID string
	OriginUserID   uint
	// Event names the realtime event, e.g. "message.created".
	Event        string
	Notification Notification
	// Fields are the type specific values added to the realtime event.
	Fields map[string]any
	// Data is merged into the push data payload.
	Data map[string]string
}

// RecipientFailure records a best-effort step that failed for one recipient.
type RecipientFailure struct {
	RecipientID uint
	Step        Step
	Err         error
}

type Report struct {
	MessageID    uint
	State        State
	Recipients   []uint
	Written      int
	Broadcasts   int
	Dispatches   int
	PrunedTokens []string
	Failures     []RecipientFailure
}

// Partial reports whether some recipient missed a broadcast or notification.
func (r *Report) Partial() bool { return len(r.Failures) > 0 }

type Orchestrator struct {
	writer      DeliveryWriter
	validator   TokenValidator
	dispatcher  Dispatcher
	pruner      TokenPruner
	broadcaster Broadcaster
	callTimeout time.Duration
	concurrency int
	log         zerolog.Logger
}

type Option func(*Orchestrator)

// WithCallTimeout bounds every validator, dispatcher and broadcaster call.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithConcurrency sets how many recipients are notified in parallel.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

func NewOrchestrator(writer DeliveryWriter, validator TokenValidator, dispatcher Dispatcher, pruner TokenPruner, broadcaster Broadcaster, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		writer:      writer,
		validator:   validator,
		dispatcher:  dispatcher,
		pruner:      pruner,
		broadcaster: broadcaster,
		callTimeout: 5 * time.Second,
		concurrency: 8,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run resolves the recipients, replaces the message's delivery rows and then
// notifies every recipient. Only resolution and persistence errors are
// returned; the message is never rolled back because a notification failed.
func (o *Orchestrator) Run(ctx context.Context, a Action) (*Report, error) {
	report := &Report{MessageID: a.Message.ID, State: StateCreated}

	recipients, err := Resolve(a.Recipients, a.ActingUserID)
	if err != nil {
		return report, err
	}
	report.Recipients = recipients
	report.State = StateRecipientsResolved

	written, err := o.writer.WriteDeliveries(ctx, a.Message.ID, a.ActingUserID, recipients)
	if err != nil {
		return report, err
	}
	report.Written = written
	report.State = StateDeliveriesWritten

	o.notify(ctx, a, recipients, report)
	return report, nil
}

// Renotify runs only the notification phase against an existing delivery set.
func (o *Orchestrator) Renotify(ctx context.Context, a Action, recipients []uint) *Report {
	report := &Report{MessageID: a.Message.ID, State: StateDeliveriesWritten, Recipients: recipients}
	o.notify(ctx, a, recipients, report)
	return report
}

func (o *Orchestrator) notify(ctx context.Context, a Action, recipients []uint, report *Report) {
	// The fan-out outlives the request that triggered it; only the per-call
	// timeouts bound it.
	ctx = context.WithoutCancel(ctx)
	report.State = StateNotifying

	var (
		mu      sync.Mutex
		invalid []string
	)
	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)

	for _, recipientID := range recipients {
		g.Go(func() error {
			out := o.notifyOne(ctx, a, recipientID)

			mu.Lock()
			defer mu.Unlock()
			if out.broadcast {
				report.Broadcasts++
			}
			if out.dispatched {
				report.Dispatches++
			}
			invalid = append(invalid, out.invalid...)
			report.Failures = append(report.Failures, out.failures...)
			return nil
		})
	}
	_ = g.Wait()

	if len(invalid) > 0 {
		pctx, cancel := context.WithTimeout(ctx, o.callTimeout)
		err := o.pruner.PruneTokens(pctx, invalid)
		cancel()
		if err != nil {
			o.log.Warn().Err(err).Uint("message_id", a.Message.ID).Int("tokens", len(invalid)).Msg("failed to prune invalid device tokens")
			report.Failures = append(report.Failures, RecipientFailure{Step: StepPrune, Err: err})
		} else {
			report.PrunedTokens = invalid
		}
	}

	report.State = StateComplete
	ev := o.log.Info()
	if report.Partial() {
		ev = o.log.Warn()
	}
	ev.Uint("message_id", a.Message.ID).
		Str("type", string(a.Message.Type)).
		Int("recipients", len(recipients)).
		Int("broadcasts", report.Broadcasts).
		Int("dispatches", report.Dispatches).
		Int("pruned", len(report.PrunedTokens)).
		Int("failures", len(report.Failures)).
		Msg("fan-out complete")
}

type outcome struct {
	broadcast  bool
	dispatched bool
	invalid    []string
	failures   []RecipientFailure
}

func (o *Orchestrator) notifyOne(ctx context.Context, a Action, recipientID uint) outcome {
	var out outcome
	fail := func(step Step, err error) {
		o.log.Warn().Err(err).
			Uint("message_id", a.Message.ID).
			Uint("recipient_id", recipientID).
			Str("step", string(step)).
			Msg("recipient step failed")
		out.failures = append(out.failures, RecipientFailure{RecipientID: recipientID, Step: step, Err: err})
	}

	originUser := a.OriginUserID
	if originUser == 0 {
		originUser = a.ActingUserID
	}
	except := ""
	if recipientID == originUser {
		except = a.OriginSocketID
	}
	bctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	err := o.broadcaster.Publish(bctx, recipientID, o.event(a, recipientID), except)
	cancel()
	if err != nil {
		fail(StepBroadcast, err)
	} else {
		out.broadcast = true
	}

	vctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	tokens, err := o.validator.Validate(vctx, recipientID)
	cancel()
	if err != nil {
		fail(StepValidate, err)
		return out
	}
	out.invalid = tokens.Invalid

	if len(tokens.Valid) == 0 {
		return out
	}
	dctx, cancel := context.WithTimeout(ctx, o.callTimeout)
	err = o.dispatcher.Dispatch(dctx, tokens.Valid, a.Notification, o.pushData(a, recipientID))
	cancel()
	if err != nil {
		fail(StepDispatch, err)
		return out
	}
	out.dispatched = true
	return out
}

func (o *Orchestrator) event(a Action, recipientID uint) realtime.Event {
	name := a.Event
	if name == "" {
		name = "message.created"
	}
	return realtime.Event{
		Name:     name,
		ID:       a.Message.ID,
		Sender:   a.ActingUserID,
		Receiver: recipientID,
		Type:     string(a.Message.Type),
		Screen:   a.Message.Type.Screen(),
		Fields:   a.Fields,
	}
}

func (o *Orchestrator) pushData(a Action, recipientID uint) map[string]string {
	data := make(map[string]string, len(a.Data)+5)
	for k, v := range a.Data {
		data[k] = v
	}
	data["message_id"] = strconv.FormatUint(uint64(a.Message.ID), 10)
	data["type"] = string(a.Message.Type)
	data["sender"] = strconv.FormatUint(uint64(a.ActingUserID), 10)
	data["receiver"] = strconv.FormatUint(uint64(recipientID), 10)
	data["screen"] = a.Message.Type.Screen()
	return data
}
