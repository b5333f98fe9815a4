package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmorgan81/imagegen/internal/fault"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/dmorgan81/imagegen/internal/relay"
	"github.com/dmorgan81/imagegen/internal/store"
)

// ErrBusy is returned by Submit while another submission is in flight.
var ErrBusy = errors.New("a generation is already in progress")

// Generator is the relay as seen from the controller.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Option func(*Controller)

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithUploader sets where Export saves images. The default is the working
// directory.
func WithUploader(u store.Uploader) Option {
	return func(c *Controller) { c.uploader = u }
}

// WithObserver registers a function called with every new state.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) { c.observer = fn }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller drives one prompt-to-image session. At most one submission
// is in flight at a time.
type Controller struct {
	generator Generator
	notifier  Notifier
	uploader  store.Uploader
	observer  func(State)
	now       func() time.Time

	mu    sync.Mutex
	state State
}

func New(generator Generator, opts ...Option) *Controller {
	c := &Controller{
		generator: generator,
		notifier:  LogNotifier{},
		uploader:  &store.FileUploader{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetPrompt records the prompt being edited without submitting it.
func (c *Controller) SetPrompt(prompt string) {
	c.transition(func(s State) State { return s.withPrompt(prompt) })
}

// Submit generates an image for prompt. Every outcome other than ErrBusy
// and cancellation emits exactly one notification; the returned error
// only describes what happened.
func (c *Controller) Submit(ctx context.Context, prompt string) (State, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("controller")

	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		log.Warn("submission rejected while busy")
		return c.State(), ErrBusy
	}
	if strings.TrimSpace(prompt) == "" {
		c.mu.Unlock()
		c.notify(ctx, LevelError, MsgEmptyPrompt)
		return c.State(), fault.NewValidation(MsgEmptyPrompt)
	}
	next := c.state.submitting(prompt)
	c.state = next
	c.mu.Unlock()
	c.observe(next)

	log.Info("submitting prompt", "length", len(prompt))
	img, err := c.generator.Generate(ctx, prompt)

	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		log.Info("submission canceled")
		return c.transition(State.idle), ctx.Err()
	}
	if err == nil && img == "" {
		err = fault.NewMalformed("relay returned no image")
	}
	if err != nil {
		log.Error("generation failed", "kind", fault.KindOf(err), "error", err)
		st := c.transition(State.failed)
		c.notify(ctx, LevelError, failureMessage(err))
		return st, err
	}

	st := c.transition(func(s State) State { return s.succeeded(img) })
	c.notify(ctx, LevelSuccess, MsgGenerated)
	return st, nil
}

// failureMessage picks the user text for err. Failures the relay reported
// carry a kind; anything else happened on this side of the wire.
func failureMessage(err error) string {
	if !fault.Classified(err) {
		return MsgUnexpected
	}
	switch fault.KindOf(err) {
	case fault.RateLimited:
		return MsgRateLimited
	case fault.PaymentRequired:
		return MsgPaymentRequired
	default:
		return MsgFailed
	}
}

// Export saves the current image as generated-image-<unix millis>.png and
// returns the name used. Without an image it does nothing and returns "".
func (c *Controller) Export(ctx context.Context) (string, error) {
	st := c.State()
	if st.Image == "" {
		return "", nil
	}

	mime, data, err := relay.ParseDataURI(st.Image)
	if err != nil {
		return "", fmt.Errorf("exporting image: %w", err)
	}

	name := fmt.Sprintf("generated-image-%d.png", c.now().UnixMilli())
	log.FromContextOrDiscard(ctx).WithGroup("controller").Info("exporting image", "name", name, "size", len(data))
	if err := c.uploader.Upload(ctx, store.UploadParams{Name: name, Data: data, ContentType: mime}); err != nil {
		return "", err
	}

	c.notify(ctx, LevelSuccess, MsgDownloaded)
	return name, nil
}

func (c *Controller) transition(fn func(State) State) State {
	c.mu.Lock()
	next := fn(c.state)
	c.state = next
	c.mu.Unlock()
	c.observe(next)
	return next
}

func (c *Controller) observe(s State) {
	if c.observer != nil {
		c.observer(s)
	}
}

func (c *Controller) notify(ctx context.Context, level Level, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(ctx, Notification{Level: level, Message: msg})
	}
}
