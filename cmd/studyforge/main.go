// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/studyforge/config"
	"github.com/poiesic/studyforge/semantic"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "studyforge",
		Usage: "Turn lecture videos into study material",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (text, json)",
				Value: "text",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "How long to wait for in-flight requests on shutdown",
						Value: 30 * time.Second,
					},
				},
			},
			{
				Name:      "analyze",
				Usage:     "Analyze one video and print the study result as JSON",
				ArgsUsage: "<video-url>",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "case-id",
						Usage: "Case id to memoize the analysis under",
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "How often to report progress",
						Value: 2 * time.Second,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Index a transcript file and print the passages closest to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "transcript",
						Aliases:  []string{"t"},
						Usage:    "Path to a plain-text transcript",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of passages to print",
						Value: semantic.DefaultTopK,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum runes per chunk",
						Value: semantic.DefaultMaxChunkSize,
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Runes shared by neighboring chunks",
						Value: semantic.DefaultOverlap,
					},
				},
			},
		},
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a YAML config file",
		EnvVars: []string{"STUDYFORGE_CONFIG"},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(c.String("log-format")) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", c.String("log-format"))
	}
	slog.SetDefault(slog.New(handler))

	return nil
}
