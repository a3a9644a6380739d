package service

import (
	"context"
	"os"
	"sync"

	svc "github.com/kardianos/service"
)

// Managed reports whether the process was started by a service manager
// that expects to control it (the Windows service manager, launchd).
func Managed() bool {
	return !svc.Interactive()
}

// RunManaged runs fn under the platform service manager until it asks the
// service to stop. fn must return once its context is cancelled.
func RunManaged(fn func(ctx context.Context) error) error {
	p := &program{run: fn, exit: os.Exit}
	s, err := svc.New(p, &svc.Config{Name: Label})
	if err != nil {
		return err
	}
	return s.Run()
}

// program adapts a blocking function to the service Start/Stop lifecycle.
type program struct {
	run  func(ctx context.Context) error
	exit func(code int)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(svc.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		err := p.run(ctx)
		done <- err
		if err != nil && ctx.Err() == nil {
			// failing exits let the service manager restart us
			p.exit(1)
		}
	}()
	return nil
}

func (p *program) Stop(svc.Service) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	return <-done
}
