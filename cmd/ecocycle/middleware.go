package main

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/errs"
)

// handler runs one shell command.
type handler func(ctx context.Context, args []string) error

// logged records the command name, outcome kind and duration. Arguments are
// never logged since they may carry passwords.
func logged(log *zap.Logger, name string, next handler) handler {
	return func(ctx context.Context, args []string) error {
		start := time.Now()
		err := next(ctx, args)
		kind := "ok"
		if err != nil {
			kind = kindName(err)
		}
		log.Debug("command",
			zap.String("cmd", name),
			zap.String("result", kind),
			zap.Duration("dur", time.Since(start)),
		)
		return err
	}
}

// recovered turns a panic inside a command into a storage error so the loop survives.
func recovered(log *zap.Logger, name string, next handler) handler {
	return func(ctx context.Context, args []string) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("cmd", name),
				)
				err = errs.New(errs.ErrStorage, "internal error")
			}
		}()
		return next(ctx, args)
	}
}

func kindName(err error) string {
	switch errs.KindOf(err) {
	case errs.ErrNotFound:
		return "not found"
	case errs.ErrInvalidState:
		return "invalid state"
	case errs.ErrValidation:
		return "validation"
	case errs.ErrUnauthorized:
		return "unauthorized"
	}
	return "storage"
}
