package controller

import (
	"context"

	"github.com/dmorgan81/imagegen/internal/log"
)

// User-facing notification texts.
const (
	MsgEmptyPrompt     = "Please enter a prompt"
	MsgRateLimited     = "Rate limit exceeded. Please try again later."
	MsgPaymentRequired = "Please add credits to your workspace to continue."
	MsgFailed          = "Failed to generate image"
	MsgUnexpected      = "An unexpected error occurred"
	MsgGenerated       = "Image generated successfully!"
	MsgDownloaded      = "Image downloaded!"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(context.Context, Notification)
}

type NotifierFunc func(context.Context, Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// LogNotifier writes notifications to the context logger.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("notify")
	if n.Level == LevelError {
		logger.Error(n.Message)
		return
	}
	logger.Info(n.Message, "level", n.Level)
}
