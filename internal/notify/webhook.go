package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"bowling-tracker/internal/config"
	"bowling-tracker/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Notifier posts league events to a configured webhook. Delivery is best
// effort: lifecycle transitions never depend on it, failures are only logged.
type Notifier struct {
	url    string
	client *fasthttp.Client
	logger zerolog.Logger
}

type payload struct {
	Title string   `json:"title"`
	Lines []string `json:"lines,omitempty"`
	At    string   `json:"at"`
}

func NewNotifier(cfg *config.Config, logger zerolog.Logger) *Notifier {
	return &Notifier{
		url: cfg.WebhookURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			ReadTimeout:         constants.WebhookTimeout,
			WriteTimeout:        constants.WebhookTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// RevealReady fires the one-shot "all players have submitted" notification.
func (n *Notifier) RevealReady(sessionID int64) {
	n.post(payload{
		Title: fmt.Sprintf("Session %d ready for reveal", sessionID),
		Lines: []string{"All checked-in players have submitted both games."},
	})
}

// ResultsPosted announces a completed reveal.
func (n *Notifier) ResultsPosted(sessionID int64, summary []string) {
	n.post(payload{
		Title: fmt.Sprintf("Session %d results", sessionID),
		Lines: summary,
	})
}

// CheckInOpened announces a freshly created session.
func (n *Notifier) CheckInOpened(sessionID int64, date time.Time) {
	n.post(payload{
		Title: fmt.Sprintf("Check-in open for session %d (%s)", sessionID, date.Format("2006-01-02")),
	})
}

func (n *Notifier) post(p payload) {
	if n.url == "" {
		return
	}
	p.At = time.Now().Format(time.RFC3339)

	body, err := json.Marshal(p)
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to marshal webhook payload")
		return
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := n.client.DoTimeout(req, resp, constants.WebhookTimeout); err != nil {
		n.logger.Warn().Err(err).Str("title", p.Title).Msg("webhook delivery failed")
		return
	}
	if resp.StatusCode() >= 300 {
		n.logger.Warn().Int("status", resp.StatusCode()).Str("title", p.Title).Msg("webhook rejected")
		return
	}
	n.logger.Debug().Str("title", p.Title).Msg("webhook delivered")
}
