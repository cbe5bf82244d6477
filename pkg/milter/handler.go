package milter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/d--j/go-milter"
	"go.uber.org/zap"

	"github.com/zpam/spam-nb/pkg/config"
	"github.com/zpam/spam-nb/pkg/learning"
)

// Decision is what the milter does with one classified message
type Decision struct {
	Status      string
	Probability float64
	Reject      bool
}

// Decide maps a prediction to a decision. A message is rejected only when
// rejection is enabled, the model says spam and P(spam|x) reaches the
// configured probability.
func Decide(pred learning.Prediction, cfg config.MilterConfig) Decision {
	d := Decision{Status: "Clean", Probability: pred.PSpam}
	if pred.IsSpam {
		d.Status = "Spam"
	}
	d.Reject = cfg.RejectSpam && pred.IsSpam && pred.PSpam >= cfg.RejectProbability
	return d
}

// Handler collects one SMTP message at a time and classifies it at the end
// of the message
type Handler struct {
	milter.NoOpMilter
	config  config.MilterConfig
	model   *learning.Model
	decoder Decoder
	logger  *zap.Logger

	// message being built during the milter session
	from      string
	header    bytes.Buffer
	body      bytes.Buffer
	startTime time.Time
}

// NewHandler creates a new milter handler
func NewHandler(cfg config.MilterConfig, model *learning.Model, decoder Decoder, logger *zap.Logger) *Handler {
	return &Handler{
		config:    cfg,
		model:     model,
		decoder:   decoder,
		logger:    logger,
		startTime: time.Now(),
	}
}

func (h *Handler) reset() {
	h.from = ""
	h.header.Reset()
	h.body.Reset()
	h.startTime = time.Now()
}

// MailFrom starts a new message
func (h *Handler) MailFrom(from string, esmtpArgs string, m milter.Modifier) (*milter.Response, error) {
	h.reset()
	h.from = from
	return milter.RespContinue, nil
}

// Header is called for each header
func (h *Handler) Header(name string, value string, m milter.Modifier) (*milter.Response, error) {
	fmt.Fprintf(&h.header, "%s: %s\r\n", name, value)
	return milter.RespContinue, nil
}

// BodyChunk keeps the body up to the configured size
func (h *Handler) BodyChunk(chunk []byte, m milter.Modifier) (*milter.Response, error) {
	if room := h.config.MaxBodyBytes - h.body.Len(); room > 0 {
		if len(chunk) > room {
			chunk = chunk[:room]
		}
		h.body.Write(chunk)
	}
	return milter.RespContinue, nil
}

// EndOfMessage classifies the message, adds the result headers and accepts
// or rejects it
func (h *Handler) EndOfMessage(m milter.Modifier) (*milter.Response, error) {
	defer h.reset()

	pred, err := h.model.ClassifyText(h.decoder.Decode(h.message()))
	if err != nil {
		h.logger.Error("classification failed", zap.String("from", h.from), zap.Error(err))
		return milter.RespTempFail, nil
	}
	decision := Decide(pred, h.config)

	h.logger.Info("message classified",
		zap.String("from", h.from),
		zap.String("status", decision.Status),
		zap.Float64("p_spam", pred.PSpam),
		zap.Float64("log_ratio", pred.LogRatio),
		zap.Bool("reject", decision.Reject),
	)

	if h.config.AddSpamHeaders {
		if err := h.addHeaders(m, decision, pred); err != nil {
			return milter.RespTempFail, fmt.Errorf("failed to add spam headers: %w", err)
		}
	}

	if decision.Reject {
		resp, err := milter.RejectWithCodeAndReason(550, "5.7.1 "+h.rejectMessage(decision))
		if err != nil {
			return milter.RespReject, nil
		}
		return resp, nil
	}
	return milter.RespContinue, nil
}

// Abort drops the current message
func (h *Handler) Abort(m milter.Modifier) error {
	h.reset()
	return nil
}

// message reassembles the collected headers and body as an RFC 5322 message
func (h *Handler) message() []byte {
	raw := make([]byte, 0, h.header.Len()+2+h.body.Len())
	raw = append(raw, h.header.Bytes()...)
	raw = append(raw, '\r', '\n')
	return append(raw, h.body.Bytes()...)
}

func (h *Handler) addHeaders(m milter.Modifier, d Decision, pred learning.Prediction) error {
	prefix := h.config.SpamHeaderPrefix

	if err := m.AddHeader(prefix+"Status", d.Status); err != nil {
		return err
	}
	if err := m.AddHeader(prefix+"Probability", FormatProbability(d.Probability)); err != nil {
		return err
	}
	info := fmt.Sprintf("log-ratio=%.3f; %.2fms", pred.LogRatio, float64(time.Since(h.startTime).Microseconds())/1000)
	return m.AddHeader(prefix+"Info", info)
}

func (h *Handler) rejectMessage(d Decision) string {
	if h.config.RejectMessage != "" {
		return h.config.RejectMessage
	}
	return fmt.Sprintf("Message rejected as spam (p=%s)", FormatProbability(d.Probability))
}

// FormatProbability renders a probability for a header value
func FormatProbability(p float64) string {
	return fmt.Sprintf("%.4f", p)
}
