/*
Dwhook is a CLI tool for posting messages to Discord webhooks.

Usage:

	dwhook [global options] command [command options]

Commands are:

	check-config  checks whether the config is valid and lists webhooks
	ping          send a test message to webhooks
	send          send a message with optional attachments to webhooks
	help, h       Shows a list of commands or help for one command

Global flags are:

	--config value  path to configuration file
	--help, -h      show help
	--version, -v   print the version
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/defrag-au/dwhook"
	"github.com/defrag-au/dwhook/httpx"
	"github.com/defrag-au/dwhook/internal/consoletable"
	"github.com/defrag-au/dwhook/workerutil"
)

const configFilename = "dwhook.toml"

// Overwritten with current tag when released
var Version = "0.1.0"

func main() {
	var cfg Config
	var client *dwhook.Client
	app := &cli.App{
		Name:    "dwhook",
		Usage:   "send messages to Discord webhooks",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to configuration file",
				Value: configFilename,
			},
		},
		Before: func(ctx *cli.Context) error {
			c, err := ReadConfig(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			cfg = c
			workerutil.SetupLogging(workerutil.LevelFromString(cfg.App.LogLevel))
			hc := &http.Client{Timeout: time.Duration(cfg.App.Timeout) * time.Second}
			client = dwhook.NewClient(
				httpx.NewClient(hc),
				dwhook.WithMaxAttachmentBytes(cfg.App.MaxAttachmentSize),
			)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "check-config",
				Usage: "checks whether the config is valid and lists webhooks",
				Action: func(cCtx *cli.Context) error {
					tbl := consoletable.New("Webhooks", 3)
					tbl.AddRow([]any{"Name", "URL", "MaxAttachmentSize"})
					for _, wh := range cfg.Webhooks {
						tbl.AddRow([]any{wh.Name, wh.URL, consoletable.Bytes(cfg.App.MaxAttachmentSize)})
					}
					tbl.Print()
					fmt.Println()
					fmt.Println("Config is valid")
					return nil
				},
			},
			{
				Name:      "ping",
				Usage:     "send a test message to webhooks (all when none given)",
				ArgsUsage: "[webhook-name...]",
				Action: func(cCtx *cli.Context) error {
					hooks, err := resolveWebhooks(cfg, cCtx.Args().Slice())
					if err != nil {
						return err
					}
					m := dwhook.Message{Content: fmt.Sprintf("Ping from dwhook %s", Version)}
					return sendToAll(cCtx.Context, client, hooks, m)
				},
			},
			{
				Name:  "send",
				Usage: "send a message with optional attachments to webhooks",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "hook",
						Usage:    "name of a configured webhook (can be given multiple times)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "content",
						Usage:    "message text",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "html",
						Usage: "treat content as HTML and convert it to markdown",
					},
					&cli.StringSliceFlag{
						Name:  "file",
						Usage: "path of a file to attach (can be given multiple times)",
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "override the webhook's username",
					},
				},
				Action: func(cCtx *cli.Context) error {
					hooks, err := resolveWebhooks(cfg, cCtx.StringSlice("hook"))
					if err != nil {
						return err
					}
					content := cCtx.String("content")
					if cCtx.Bool("html") {
						content, err = htmlToMarkdown(content)
						if err != nil {
							return fmt.Errorf("failed to convert content to markdown: %w", err)
						}
					}
					attachments, err := readAttachments(cCtx.StringSlice("file"))
					if err != nil {
						return err
					}
					m := dwhook.Message{
						Content:     content,
						Username:    cCtx.String("username"),
						Attachments: attachments,
					}
					return sendToAll(cCtx.Context, client, hooks, m)
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// resolveWebhooks maps names to configured webhooks. No names selects all.
func resolveWebhooks(cfg Config, names []string) ([]ConfigWebhook, error) {
	if len(names) == 0 {
		return cfg.Webhooks, nil
	}
	hooks := make([]ConfigWebhook, 0, len(names))
	for _, n := range names {
		wh, err := cfg.Webhook(n)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, wh)
	}
	return hooks, nil
}

func readAttachments(paths []string) ([]dwhook.Attachment, error) {
	attachments := make([]dwhook.Attachment, 0, len(paths))
	for _, p := range paths {
		dat, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment: %w", err)
		}
		name := filepath.Base(p)
		attachments = append(attachments, dwhook.Attachment{
			Filename:    name,
			ContentType: dwhook.DetectContentType(name),
			Body:        dat,
		})
	}
	return attachments, nil
}

// sendToAll posts the message to every webhook concurrently and reports the
// first failure. Rate limited hooks are reported with their wait duration,
// so the caller can run the command again later.
func sendToAll(ctx context.Context, client *dwhook.Client, hooks []ConfigWebhook, m dwhook.Message) error {
	g := new(errgroup.Group)
	for _, wh := range hooks {
		wh := wh
		g.Go(func() error {
			_, err := client.Execute(ctx, wh.URL, m)
			var rle *dwhook.RateLimitedError
			if errors.As(err, &rle) {
				return fmt.Errorf("%s: rate limited, retry in %v", wh.Name, rle.RetryAfter)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", wh.Name, err)
			}
			fmt.Printf("Message sent to %s\n", wh.Name)
			return nil
		})
	}
	return g.Wait()
}
