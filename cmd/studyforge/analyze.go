package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/studyforge"
	"github.com/poiesic/studyforge/core"
	"github.com/urfave/cli/v2"
)

func analyzeCommand(c *cli.Context) error {
	url := c.Args().First()
	if url == "" {
		return errors.New("video url is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	app, err := studyforge.Open(ctx, cfg, studyforge.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to open studyforge: %w", err)
	}
	defer app.Close()

	orchestrator := app.Orchestrator()
	id, err := orchestrator.Submit(ctx, url, c.String("case-id"))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Task %s submitted\n", id)

	ticker := time.NewTicker(c.Duration("poll-interval"))
	defer ticker.Stop()

	last := ""
	for {
		p, err := orchestrator.Progress(ctx, id)
		if err != nil {
			return err
		}
		if line := progressLine(p); line != last {
			fmt.Fprintln(os.Stderr, line)
			last = line
		}
		if p.Status != core.TaskRunning {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	payload, err := orchestrator.Result(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func progressLine(p core.Progress) string {
	if p.CurrentStep < 1 || p.CurrentStep > len(p.Steps) {
		return fmt.Sprintf("[%3d%%] %s", p.Percent, p.Status)
	}
	step := p.Steps[p.CurrentStep-1]
	if step.Status == core.StepPending {
		return fmt.Sprintf("[%3d%%] queued", p.Percent)
	}
	line := fmt.Sprintf("[%3d%%] %d/%d %s: %s", p.Percent, p.CurrentStep, len(p.Steps), step.Name, step.Status)
	if step.Detail != "" {
		line += " (" + step.Detail + ")"
	}
	return line
}
