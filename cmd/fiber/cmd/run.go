package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/go-drift/fiber/cmd/fiber/internal/demo"
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/host/term"
	"github.com/go-drift/fiber/pkg/idle"
)

func init() {
	RegisterCommand(&Command{
		Name:  "run",
		Short: "Run the terminal demo",
		Long: `Run the demo component tree in the terminal.

Keys:
  + / -     Change the counter
  c         Cycle the swatch color
  q, Esc    Quit

Buttons can be clicked with the mouse. The work loop runs in idle time
after each frame; frame length and slice settings come from fiber.yaml.`,
		Usage: "fiber run",
		Run:   runRun,
	})
}

func runRun(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	res, err := loadConfig()
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	h := term.New(screen)
	loop := idle.NewLoop(res.LoopOptions())

	opts := rootOptions(res)
	opts.OnCommit = func(core.CommitRecord) { h.Draw() }
	root, err := core.NewRoot(h, h.Container(), loop, opts)
	if err != nil {
		return err
	}
	root.Render(demo.Element(cancel))
	h.Draw()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.Listen(gctx, loop.Post)
		return nil
	})
	g.Go(func() error {
		return loop.Run(gctx)
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
