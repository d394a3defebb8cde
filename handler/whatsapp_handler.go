package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	twilioclient "github.com/twilio/twilio-go/client"

	"github.com/finsight-ai/finsight-be/config"
	"github.com/finsight-ai/finsight-be/service"
	"github.com/finsight-ai/finsight-be/types"
)

const (
	// whatsAppMaxBody keeps replies under Twilio's WhatsApp message limits.
	whatsAppMaxBody = 2000

	fallbackReply = "I'm thinking about that. If you don't get a detailed reply, please rephrase your question and try again."
)

var controlCharRe = regexp.MustCompile(`[\x00-\x1f]`)

// WhatsAppHandler serves the Twilio WhatsApp webhook. Twilio expects a TwiML
// response within its webhook deadline, so the answer and an optional chart
// render are raced against a wall-clock budget and whatever is ready in time
// gets sent.
type WhatsAppHandler struct {
	rag        *service.RAGService
	quickChart *QuickChartClient
	cfg        config.WhatsAppConfig
	validator  *twilioclient.RequestValidator
	logger     *slog.Logger
}

func NewWhatsAppHandler(rag *service.RAGService, quickChart *QuickChartClient, cfg config.WhatsAppConfig, logger *slog.Logger) *WhatsAppHandler {
	h := &WhatsAppHandler{
		rag:        rag,
		quickChart: quickChart,
		cfg:        cfg,
		logger:     logger,
	}
	if cfg.ValidateSignature {
		v := twilioclient.NewRequestValidator(cfg.AuthToken)
		h.validator = &v
	}
	return h
}

// HandleHealth answers Twilio console probes.
func (h *WhatsAppHandler) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":      true,
			"service": "whatsapp-webhook",
		})
	}
}

func (h *WhatsAppHandler) HandleMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			h.respondTwiML(w, "Server error handling your message.", nil)
			return
		}
		if h.validator != nil && !h.validateSignature(r) {
			h.logger.Warn("rejected webhook call with bad signature",
				slog.String("remote", r.RemoteAddr))
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}

		from := r.PostFormValue("From")
		question := strings.TrimSpace(r.PostFormValue("Body"))
		if question == "" {
			h.respondTwiML(w, "Please send a question text.", nil)
			return
		}
		h.logger.Info("whatsapp inbound",
			slog.String("from", from),
			slog.Int("body_len", len(question)))

		budget := time.Duration(h.cfg.ReplyTimeoutMS) * time.Millisecond
		wantsChart := service.HasChartIntent(question)

		answerCh := make(chan string, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), budget)
			defer cancel()
			resp, err := h.rag.AnswerQuestion(ctx, types.AskRequest{Question: question})
			if err != nil {
				h.logger.Error("whatsapp answer failed", slog.String("error", err.Error()))
				answerCh <- ""
				return
			}
			answerCh <- resp.Answer
		}()

		chartCh := make(chan string, 1)
		if wantsChart {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), chartBudget(budget))
				defer cancel()
				chartCh <- h.renderChart(ctx, question)
			}()
		} else {
			chartCh <- ""
		}

		deadline := time.After(budget)
		answer, chartURL := "", ""
		for answerCh != nil || chartCh != nil {
			select {
			case answer = <-answerCh:
				answerCh = nil
			case chartURL = <-chartCh:
				chartCh = nil
			case <-deadline:
				answerCh, chartCh = nil, nil
			}
		}
		if answer == "" {
			answer = fallbackReply
		}
		if len(answer) > whatsAppMaxBody {
			cut := whatsAppMaxBody - 20
			for cut > 0 && !utf8.RuneStart(answer[cut]) {
				cut--
			}
			answer = answer[:cut] + "\n… [truncated]"
		}

		var media []string
		if chartURL != "" {
			media = append(media, chartURL)
		} else if wantsChart {
			h.logger.Info("chart not included (timed out or unavailable)")
		}
		h.respondTwiML(w, answer, media)
	}
}

// renderChart runs a cheap-strategy chart pass and renders the result. Any
// failure just means no media on the reply.
func (h *WhatsAppHandler) renderChart(ctx context.Context, question string) string {
	resp, err := h.rag.AnswerQuestion(ctx, types.AskRequest{
		Question:      question,
		EnableCharts:  true,
		ChartStrategy: types.ChartStrategyCheap,
	})
	if err != nil || resp.ChartSpec == nil {
		return ""
	}
	url, err := h.quickChart.Create(ctx, resp.ChartSpec)
	if err != nil {
		h.logger.Warn("chart render failed", slog.String("error", err.Error()))
		return ""
	}
	return url
}

// chartBudget gives the chart race a fraction of the overall reply budget,
// clamped so it neither starves nor overruns the webhook deadline.
func chartBudget(budget time.Duration) time.Duration {
	b := budget * 6 / 10
	if b < 2500*time.Millisecond {
		b = 2500 * time.Millisecond
	}
	if b > 6*time.Second {
		b = 6 * time.Second
	}
	return b
}

// validateSignature checks the X-Twilio-Signature header against the
// externally visible webhook URL.
func (h *WhatsAppHandler) validateSignature(r *http.Request) bool {
	webhookURL := h.cfg.PublicURL
	if webhookURL == "" {
		scheme := "https"
		if r.TLS == nil {
			scheme = "http"
		}
		webhookURL = scheme + "://" + r.Host + r.URL.RequestURI()
	}
	params := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		params[k] = r.PostForm.Get(k)
	}
	return h.validator.Validate(webhookURL, params, r.Header.Get("X-Twilio-Signature"))
}

func (h *WhatsAppHandler) respondTwiML(w http.ResponseWriter, body string, mediaURLs []string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(buildTwiML(body, mediaURLs)))
}

// buildTwiML composes the reply XML by hand: the message shape is tiny and
// fixed, and Twilio accepts multiple Media elements for WhatsApp.
func buildTwiML(body string, mediaURLs []string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<Response><Message><Body>")
	b.WriteString(xmlEscape(controlCharRe.ReplaceAllString(body, "")))
	b.WriteString("</Body>")
	for _, u := range mediaURLs {
		if u == "" {
			continue
		}
		b.WriteString("<Media>")
		b.WriteString(xmlEscape(u))
		b.WriteString("</Media>")
	}
	b.WriteString("</Message></Response>")
	return b.String()
}

func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
