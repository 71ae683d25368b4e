package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/ports"
)

const (
	DefaultAPIURL  = "https://api.telegram.org"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 1024
)

// Options configures the bot API client.
type Options struct {
	APIURL   string
	BotToken string
	ChatID   string
	Silent   bool
	Timeout  time.Duration
}

// Publisher posts rendered cards to a Telegram chat via the bot API.
type Publisher struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher builds a publisher. A nil client gets one with opts.Timeout.
func NewPublisher(client *http.Client, opts Options, logger *slog.Logger) *Publisher {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{opts: opts, client: client, logger: logger.With("component", "telegram")}
}

// Ready reports whether credentials are present.
func (p *Publisher) Ready() error {
	if p.opts.BotToken == "" {
		return &domain.ConfigurationError{Field: "telegram bot token"}
	}
	if p.opts.ChatID == "" {
		return &domain.ConfigurationError{Field: "telegram chat id"}
	}
	return nil
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// PublishPhoto sends the image with an HTML caption in a single sendPhoto call.
func (p *Publisher) PublishPhoto(ctx context.Context, img domain.RenderedImage, caption string) error {
	if err := p.Ready(); err != nil {
		return err
	}

	body, contentType, err := p.form(img, caption)
	if err != nil {
		return fmt.Errorf("build sendPhoto form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendPhoto", p.opts.APIURL, p.opts.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		// the URL carries the token, so report the operation only
		return &domain.TransportError{Op: "send photo", Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.TransportError{Op: "send photo", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err == nil && !decoded.OK {
		return &domain.TransportError{Op: "send photo", StatusCode: resp.StatusCode, Body: decoded.Description}
	}

	p.logger.Info("photo sent", "chat", p.opts.ChatID, "bytes", len(img.Data))
	return nil
}

func (p *Publisher) form(img domain.RenderedImage, caption string) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := [][2]string{
		{"chat_id", p.opts.ChatID},
		{"caption", caption},
		{"parse_mode", "HTML"},
		{"disable_notification", strconv.FormatBool(p.opts.Silent)},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	filename := img.Filename
	if filename == "" {
		filename = "card.png"
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &body, writer.FormDataContentType(), nil
}

func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
