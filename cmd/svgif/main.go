/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"svgif/internal/apperr"
	"svgif/internal/config"
	"svgif/internal/crash"
	"svgif/internal/export"
	applog "svgif/internal/log"
	"svgif/internal/preview"
	"svgif/internal/version"
)

func main() {
	defer crash.Recover("")
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		applog.WithComponent("cli").Error("command failed", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps authoring errors to 2 and everything else to 1.
func exitCode(err error) int {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return 2
	}
	return 1
}

func newApp(out io.Writer) *cli.Command {
	scenesArg := "<scenes.yaml>"
	return &cli.Command{
		Name:    "svgif",
		Usage:   "Compile scenes of static SVG plus timed actions into one looping, CSS-animated SVG",
		Version: version.String(),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an additional config file",
				Sources: cli.EnvVars("SVGIF_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Compile a scene list into an animated SVG",
				ArgsUsage: scenesArg,
				Flags:     append(buildFlags(), outputFlag()),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path, err := scenesPath(cmd)
					if err != nil {
						return err
					}
					_, opt, err := setup(cmd)
					if err != nil {
						return err
					}
					res, err := export.Build(ctx, path, opt)
					if err != nil {
						return err
					}
					target := outputPath(cmd, path)
					if err := export.WriteSVG(target, res.SVG); err != nil {
						return err
					}
					how := "compiled"
					if res.Cached {
						how = "cached"
					}
					fmt.Fprintf(cmd.Root().Writer, "%s: %d scenes, %d ms, %d bytes (%s)\n", target, res.Scenes, res.TotalMs, len(res.SVG), how)
					return nil
				},
			},
			{
				Name:      "validate",
				Usage:     "Check a scene list, its SVG files and every selector without writing output",
				ArgsUsage: scenesArg,
				Flags:     buildFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path, err := scenesPath(cmd)
					if err != nil {
						return err
					}
					_, opt, err := setup(cmd)
					if err != nil {
						return err
					}
					res, err := export.Validate(ctx, path, opt)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "ok: %d scenes, %d ms, %d tracks\n", res.Scenes, res.TotalMs, res.Tracks)
					return nil
				},
			},
			{
				Name:      "watch",
				Usage:     "Rebuild the output whenever the scene list or its SVG files change",
				ArgsUsage: scenesArg,
				Flags:     append(buildFlags(), outputFlag()),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, _, err := session(cmd, true)
					if err != nil {
						return err
					}
					ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
					defer stop()
					return s.Watch(ctx)
				},
			},
			{
				Name:      "serve",
				Usage:     "Watch a scene list and serve the latest document over HTTP",
				ArgsUsage: scenesArg,
				Flags: append(buildFlags(), outputFlag(),
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
					&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "Listen address"},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, cfg, err := session(cmd, false)
					if err != nil {
						return err
					}
					port := cfg.Preview.Port
					if p := int(cmd.Int("port")); p > 0 {
						port = p
					}
					addr := cmd.String("host") + ":" + strconv.Itoa(port)
					fmt.Fprintf(cmd.Root().Writer, "serving on http://%s/\n", addr)
					ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
					defer stop()
					return s.Serve(ctx, addr)
				},
			},
			{
				Name:  "version",
				Usage: "Show version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					fmt.Fprintln(cmd.Root().Writer, "svgif", version.String())
					return nil
				},
			},
		},
	}
}

func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "no-cache", Usage: "Do not read or write the build cache"},
		&cli.BoolFlag{Name: "no-compress", Usage: "Do not share repeated subtrees"},
		&cli.BoolFlag{Name: "once", Usage: "Play once and hold the last frame instead of looping"},
		&cli.BoolFlag{Name: "scrubber-seek", Usage: "Let clicks on the scrubber seek to a scene"},
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (default: scene list name with .svg)"}
}

func scenesPath(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("%s requires exactly one scene list argument", cmd.Name)
	}
	return cmd.Args().First(), nil
}

func outputPath(cmd *cli.Command, scenes string) string {
	if o := strings.TrimSpace(cmd.String("output")); o != "" {
		return o
	}
	return strings.TrimSuffix(scenes, filepath.Ext(scenes)) + ".svg"
}

// setup loads the configuration, initializes logging and applies the
// command's flags on top.
func setup(cmd *cli.Command) (config.AppConfig, export.BuildOptions, error) {
	cfg, err := config.Load(cmd.Root().String("config"))
	if err != nil {
		return cfg, export.BuildOptions{}, err
	}
	if lvl := cmd.Root().String("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	applog.Init(logOptions(cfg))
	applyFlags(&cfg, cmd)
	opt, err := buildOptions(cfg)
	return cfg, opt, err
}

func applyFlags(cfg *config.AppConfig, cmd *cli.Command) {
	if cmd.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if cmd.Bool("no-compress") {
		cfg.Build.Compress = false
	}
	if cmd.Bool("once") {
		cfg.Build.Loop = false
	}
	if cmd.Bool("scrubber-seek") {
		cfg.Build.ScrubberSeek = true
	}
}

func session(cmd *cli.Command, writeOut bool) (*preview.Session, config.AppConfig, error) {
	path, err := scenesPath(cmd)
	if err != nil {
		return nil, config.AppConfig{}, err
	}
	cfg, opt, err := setup(cmd)
	if err != nil {
		return nil, cfg, err
	}
	var out string
	if writeOut || cmd.String("output") != "" {
		out = outputPath(cmd, path)
	}
	s := preview.New(preview.Options{
		Path:     path,
		Out:      out,
		Debounce: msDuration(cfg.Preview.DebounceMs),
		Build:    opt,
	})
	return s, cfg, nil
}
