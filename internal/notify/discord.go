package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	colorGreen  = 0x2ECC71 // price increase
	colorOrange = 0xE67E22 // price decrease
	colorGrey   = 0x95A5A6 // dry run
	colorBlue   = 0x3498DB // cycle summary
	colorRed    = 0xE74C3C // cycle with errors
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendPriceChange sends one price change as a Discord embed.
func (d *DiscordNotifier) SendPriceChange(ctx context.Context, change PriceChange) error {
	title := fmt.Sprintf("Repriced: %s on %s", change.SKU, change.Platform)
	if change.DryRun {
		title = fmt.Sprintf("Dry run: %s on %s", change.SKU, change.Platform)
	}

	embed := discordEmbed{
		Title:       title,
		Color:       changeColor(change),
		Description: change.Reason,
		Fields: []discordEmbedField{
			{Name: "Rule", Value: change.RuleName, Inline: true},
			{Name: "Old", Value: fmt.Sprintf("$%.2f", change.OldPrice), Inline: true},
			{Name: "New", Value: fmt.Sprintf("$%.2f", change.NewPrice), Inline: true},
		},
	}
	return d.post(ctx, discordWebhookPayload{Embeds: []discordEmbed{embed}})
}

// SendCycleSummary sends a cycle summary as a Discord embed.
func (d *DiscordNotifier) SendCycleSummary(ctx context.Context, summary CycleSummary) error {
	color := colorBlue
	if summary.Errors > 0 {
		color = colorRed
	}

	title := fmt.Sprintf("Cycle finished: %s", summary.ConfigName)
	if summary.DryRun {
		title += " (dry run)"
	}

	embed := discordEmbed{
		Title: title,
		Color: color,
		Fields: []discordEmbedField{
			{Name: "Listings", Value: fmt.Sprintf("%d", summary.ListingsSeen), Inline: true},
			{Name: "Changes", Value: fmt.Sprintf("%d", summary.ChangesApplied), Inline: true},
			{Name: "Blocked", Value: fmt.Sprintf("%d", summary.Blocked), Inline: true},
			{Name: "Errors", Value: fmt.Sprintf("%d", summary.Errors), Inline: true},
			{Name: "Duration", Value: summary.Duration.Round(summary.Duration / 100).String(), Inline: true},
		},
	}
	return d.post(ctx, discordWebhookPayload{Embeds: []discordEmbed{embed}})
}

func changeColor(change PriceChange) int {
	switch {
	case change.DryRun:
		return colorGrey
	case change.NewPrice >= change.OldPrice:
		return colorGreen
	default:
		return colorOrange
	}
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
