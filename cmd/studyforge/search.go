package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/studyforge"
	"github.com/poiesic/studyforge/semantic"
	"github.com/urfave/cli/v2"
)

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("query is required")
	}
	transcript, err := os.ReadFile(c.String("transcript"))
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	provider, err := studyforge.NewProvider(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	index, err := semantic.NewIndex(provider.Embedder(),
		semantic.WithLogger(slog.Default()),
		semantic.WithChunking(c.Int("chunk-size"), c.Int("chunk-overlap")),
	)
	if err != nil {
		return err
	}
	chunks, err := index.Build(ctx, string(transcript))
	if err != nil {
		return fmt.Errorf("failed to index transcript: %w", err)
	}

	matches, err := index.Retrieve(ctx, query, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Indexed %d chunks, found %d hits\n", chunks, len(matches))
	for i, m := range matches {
		fmt.Printf("%d: [%0.3f] %s\n", i, m.Score, strings.ReplaceAll(m.Record.Text, "\n", " "))
	}
	return nil
}
