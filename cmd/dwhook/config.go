package main

import (
	"fmt"
	"net/url"

	"github.com/BurntSushi/toml"
)

const (
	timeoutDefault       = 30
	maxAttachmentDefault = 8 << 20
)

type Config struct {
	App      ConfigApp       `toml:"app"`
	Webhooks []ConfigWebhook `toml:"webhooks"`
}

type ConfigApp struct {
	LogLevel          string `toml:"loglevel"`
	Timeout           int    `toml:"timeout"`
	MaxAttachmentSize int64  `toml:"max_attachment_size"`
}

type ConfigWebhook struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// ReadConfig loads and validates the configuration from a TOML file.
func ReadConfig(path string) (Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return config, err
	}
	if err := parseConfig(&config); err != nil {
		return config, err
	}
	return config, nil
}

func parseConfig(config *Config) error {
	if len(config.Webhooks) == 0 {
		return fmt.Errorf("no webhooks defined")
	}
	webhookNames := make(map[string]bool)
	webhookURLs := make(map[string]bool)
	for _, x := range config.Webhooks {
		if x.Name == "" {
			return fmt.Errorf("one webhook has no name")
		}
		if x.URL == "" {
			return fmt.Errorf("webhook %s has no url", x.Name)
		}
		if _, err := url.ParseRequestURI(x.URL); err != nil {
			return fmt.Errorf("webhook %s has invalid url: %w", x.Name, err)
		}
		if webhookNames[x.Name] {
			return fmt.Errorf("webhook name %s not unique", x.Name)
		}
		webhookNames[x.Name] = true
		if webhookURLs[x.URL] {
			return fmt.Errorf("webhook url of %s not unique", x.Name)
		}
		webhookURLs[x.URL] = true
	}
	if config.App.Timeout <= 0 {
		config.App.Timeout = timeoutDefault
	}
	if config.App.MaxAttachmentSize <= 0 {
		config.App.MaxAttachmentSize = maxAttachmentDefault
	}
	return nil
}

// Webhook returns the configured webhook with the given name.
func (c Config) Webhook(name string) (ConfigWebhook, error) {
	for _, w := range c.Webhooks {
		if w.Name == name {
			return w, nil
		}
	}
	return ConfigWebhook{}, fmt.Errorf("webhook %s not defined", name)
}
