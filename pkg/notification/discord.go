package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/autobrr/autobrr/pkg/errors"
	"github.com/dustin/go-humanize"
	"github.com/lucperkins/rek"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/luckylittle/qbrecon/pkg/config"
	"github.com/luckylittle/qbrecon/pkg/httputils"
)

const (
	maxEmbedsPerMessage = 10
	maxCharactersPerMsg = 6000

	// hardcoded limit of fields to avoid hammering the api
	maxTotalFields = 250
)

type DiscordMessage struct {
	Content   interface{}    `json:"content"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Color       int                  `json:"color"`
	Fields      []DiscordEmbedsField `json:"fields,omitempty"`
	Footer      DiscordEmbedsFooter  `json:"footer,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type DiscordEmbedsFooter struct {
	Text string `json:"text"`
}

type DiscordEmbedsField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedColors int

const (
	LIGHT_BLUE EmbedColors = 0x58b9ff
	RED        EmbedColors = 0xed4245
	GREEN      EmbedColors = 0x57f287
	GRAY       EmbedColors = 0x99aab5
)

// Discord markdown characters that need escaping
var discordMarkdownChars = regexp.MustCompile(`([\\*_~` + "`" + `|>])`)

func escapeDiscordMarkdown(text string) string {
	if text == "" {
		return text
	}

	return discordMarkdownChars.ReplaceAllString(text, `\$1`)
}

type discordSender struct {
	log    *logrus.Entry
	config config.NotificationsConfig

	httpClient *http.Client
}

func (d *discordSender) Name() string {
	return "discord"
}

// NewDiscordSender returns a webhook sender. Requests are paced to one per
// second per process; 429 responses are retried after their Retry-After.
func NewDiscordSender(log *logrus.Entry, config config.NotificationsConfig) Sender {
	return &discordSender{
		log:        log.WithField("sender", "discord"),
		config:     config,
		httpClient: httputils.NewRetryableHttpClient(30*time.Second, ratelimit.New(1, ratelimit.WithoutSlack)),
	}
}

// Calculate the actual JSON size of an embed
func (d *discordSender) calculateEmbedSize(embed DiscordEmbed) (int, error) {
	jsonData, err := json.Marshal(embed)
	if err != nil {
		return 0, err
	}
	return len(jsonData), nil
}

func (d *discordSender) Send(ctx context.Context, title string, description string, client string, runTime time.Duration, fields []Field, dryRun bool) error {
	messages, err := d.buildMessages(title, description, client, runTime, fields, dryRun)
	if err != nil {
		return err
	}

	for i, msg := range messages {
		if err := d.sendRequest(ctx, msg); err != nil {
			return errors.Wrap(err, "failed to send a message chunk to Discord")
		}

		d.log.Debugf("Sent Discord message %d/%d (%d embeds).", i+1, len(messages), len(msg.Embeds))
	}

	if len(messages) > 0 {
		d.log.Debugf("All %d Discord messages sent successfully.", len(messages))
	}
	return nil
}

// buildMessages lays fields out as embeds and splits them into messages that
// respect Discord's per-message embed and character limits.
func (d *discordSender) buildMessages(title string, description string, client string, runTime time.Duration, fields []Field, dryRun bool) ([]DiscordMessage, error) {
	var (
		allEmbeds   []DiscordEmbed
		totalFields = len(fields)
		timestamp   = time.Now()

		batches      [][]DiscordEmbed
		currentBatch []DiscordEmbed
		currentChars int
	)

	if dryRun {
		title = title + " [Dry Run]"
	}

	if totalFields == 0 && d.config.SkipEmptyRun {
		return nil, nil
	}

	rt := runTime.Truncate(time.Millisecond).String()

	// summary only when there is nothing to list, too much to list, or detail is off
	if totalFields == 0 || totalFields > maxTotalFields || !d.config.Detailed {
		allEmbeds = append(allEmbeds, DiscordEmbed{
			Title:       title,
			Description: description,
			Color:       int(LIGHT_BLUE),
			Footer: DiscordEmbedsFooter{
				Text: d.buildFooter(0, 0, client, rt),
			},
			Timestamp: timestamp,
		})
	} else {
		for i, field := range fields {
			embed := DiscordEmbed{
				Color:  int(LIGHT_BLUE),
				Fields: d.parseFieldValueToInlineFields(field.Value),
				Footer: DiscordEmbedsFooter{
					Text: d.buildFooter(i+1, totalFields, client, rt),
				},
				Timestamp: timestamp,
			}

			if field.Name != "" {
				embed.Description = fmt.Sprintf("**%s**", escapeDiscordMarkdown(field.Name))
			}

			allEmbeds = append(allEmbeds, embed)
		}

		if totalFields > 1 {
			allEmbeds = append(allEmbeds, DiscordEmbed{
				Title:       fmt.Sprintf("%s - Summary", title),
				Description: description,
				Color:       int(LIGHT_BLUE),
				Footer: DiscordEmbedsFooter{
					Text: d.buildFooter(0, 0, client, rt),
				},
				Timestamp: timestamp,
			})
		}
	}

	flush := func() {
		if len(currentBatch) == 0 {
			return
		}
		batches = append(batches, currentBatch)
		currentBatch = nil
		currentChars = 0
	}

	for _, e := range allEmbeds {
		eSize, err := d.calculateEmbedSize(e)
		if err != nil {
			return nil, errors.Wrap(err, "failed to calculate embed size for batching")
		}

		if len(currentBatch) >= maxEmbedsPerMessage || currentChars+eSize > maxCharactersPerMsg {
			flush()
		}

		currentBatch = append(currentBatch, e)
		currentChars += eSize
	}
	flush()

	messages := make([]DiscordMessage, 0, len(batches))
	for i, batch := range batches {
		if batch[0].Title == "" {
			batch[0].Title = escapeDiscordMarkdown(title)

			if len(batches) > 1 {
				batch[0].Title = fmt.Sprintf("%s (%d/%d)", batch[0].Title, i+1, len(batches))
			}
		}

		messages = append(messages, DiscordMessage{
			Content:   nil,
			Username:  d.config.Service.Discord.Username,
			AvatarURL: d.config.Service.Discord.AvatarURL,
			Embeds:    batch,
		})
	}

	return messages, nil
}

func (d *discordSender) CanSend() bool {
	return d.config.Service.Discord.WebhookURL != ""
}

func (d *discordSender) sendRequest(ctx context.Context, msg DiscordMessage) error {
	res, err := rek.Post(d.config.Service.Discord.WebhookURL,
		rek.Client(d.httpClient),
		rek.Json(msg),
		rek.Context(ctx),
	)
	if err != nil {
		return errors.Wrap(err, "client request error")
	}
	defer res.Body().Close()

	d.log.Tracef("Discord response status: %d", res.StatusCode())

	if res.StatusCode() != http.StatusOK && res.StatusCode() != http.StatusNoContent {
		body, readErr := io.ReadAll(res.Body())
		if readErr != nil {
			return errors.Wrap(readErr, "could not read body")
		}

		return errors.New("unexpected status: %v body: %v", res.StatusCode(), string(body))
	}

	d.log.Debug("Notification successfully sent to discord")
	return nil
}

// BuildField constructs a Field based on the provided action and build options.
func (d *discordSender) BuildField(action Action, opt BuildOptions) Field {
	switch action {
	case ActionCategorize:
		return d.buildChangeField(opt, "Old Category", "New Category")
	case ActionRename:
		return d.buildChangeField(opt, "Old Category", "New Category")
	case ActionMigrate:
		return d.buildChangeField(opt, "Old Tracker", "New Tracker")
	case ActionPause, ActionResume:
		return d.buildChangeField(opt, "", "")
	}

	return Field{}
}

func (d *discordSender) buildChangeField(opt BuildOptions, fromName string, toName string) Field {
	inlineFields := []DiscordEmbedsField{}

	if fromName != "" {
		from := opt.From
		if from == "" {
			from = "-"
		}

		inlineFields = append(inlineFields, DiscordEmbedsField{
			Name:   fromName,
			Value:  escapeDiscordMarkdown(from),
			Inline: true,
		})
	}

	if toName != "" && opt.To != "" {
		inlineFields = append(inlineFields, DiscordEmbedsField{
			Name:   toName,
			Value:  escapeDiscordMarkdown(opt.To),
			Inline: true,
		})
	}

	if opt.Error != "" {
		inlineFields = append(inlineFields, DiscordEmbedsField{
			Name:   "Error",
			Value:  escapeDiscordMarkdown(opt.Error),
			Inline: false,
		})
	}

	// Serialize to JSON to store in the field value
	jsonData, _ := json.Marshal(inlineFields)

	return Field{
		Name:  fmt.Sprintf("%s (%s)", opt.Name, humanize.IBytes(uint64(opt.Size))),
		Value: string(jsonData),
	}
}

func (d *discordSender) buildFooter(progress int, totalFields int, client string, runTime string) string {
	if totalFields == 0 {
		return fmt.Sprintf("Client: %s | Started: %s ago", client, runTime)
	}

	return fmt.Sprintf("Progress: %d/%d | Client: %s | Started: %s ago", progress, totalFields, client, runTime)
}

func (d *discordSender) parseFieldValueToInlineFields(value string) []DiscordEmbedsField {
	var fields []DiscordEmbedsField

	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		d.log.WithError(err).Error("Failed to parse field value as JSON")
		return []DiscordEmbedsField{}
	}

	return fields
}
