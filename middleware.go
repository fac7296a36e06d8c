package paywall

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vitwit/x402-paywall/transport"
	"github.com/vitwit/x402-paywall/types"
)

// Flow selects how the middleware orders verification, handler execution
// and settlement.
type Flow int

const (
	// FlowVerifyAndSettle verifies before the handler runs and settles after
	// it, by default only when the handler answered 2xx. This is the default.
	FlowVerifyAndSettle Flow = iota

	// FlowSkipVerify trusts the payload without facilitator verification and
	// settles after the handler. Opt-in: the seller accepts the risk of
	// doing resource work for payments that would not have verified.
	FlowSkipVerify

	// FlowSettleFirst verifies and settles before the handler runs, so the
	// payment is final before any resource work happens.
	FlowSettleFirst

	// FlowVerifyOnly verifies before the handler and never settles. For
	// sellers that defer or batch settlement elsewhere.
	FlowVerifyOnly
)

type middlewareConfig struct {
	flow        Flow
	settleOn    func(status int) bool
	settleOnSet bool
	paywallHTML string
}

// MiddlewareOption customizes the behavior of Paywall.Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithFlow selects the payment flow. The default is FlowVerifyAndSettle.
func WithFlow(f Flow) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.flow = f
	}
}

// WithSettleOn overrides the predicate deciding, from the handler's response
// status, whether to settle after the handler. The default settles on 2xx.
// Only flows that settle after the handler can use it.
func WithSettleOn(pred func(status int) bool) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.settleOn = pred
		cfg.settleOnSet = true
	}
}

// WithPaywallHTML serves the given HTML page instead of the JSON body when a
// browser receives the payment-required response.
func WithPaywallHTML(html string) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		cfg.paywallHTML = html
	}
}

// Middleware returns a net/http middleware enforcing payment on every request
// it wraps. Option combinations that contradict each other, such as a custom
// settle predicate with a flow that never settles after the handler, fail
// here rather than at request time.
func (pw *Paywall) Middleware(opts ...MiddlewareOption) (func(http.Handler) http.Handler, error) {
	cfg := middlewareConfig{
		flow: FlowVerifyAndSettle,
		settleOn: func(status int) bool {
			return status >= 200 && status < 300
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch cfg.flow {
	case FlowVerifyAndSettle, FlowSkipVerify, FlowSettleFirst, FlowVerifyOnly:
	default:
		return nil, types.NewX402Error(types.ErrConfigError, "unknown payment flow %d", cfg.flow)
	}

	if cfg.settleOnSet && (cfg.flow == FlowSettleFirst || cfg.flow == FlowVerifyOnly) {
		return nil, types.NewX402Error(types.ErrConfigError,
			"WithSettleOn requires a flow that settles after the handler")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pw.serve(cfg, next, w, r)
		})
	}, nil
}

func (pw *Paywall) serve(cfg middlewareConfig, next http.Handler, w http.ResponseWriter, r *http.Request) {
	proc, rej := pw.Process(r.Header.Get(transport.HeaderPayment))
	if rej != nil {
		pw.writeRejection(w, r, cfg, rej)
		return
	}

	if cfg.flow == FlowSkipVerify {
		if err := proc.SkipVerification(); err != nil {
			pw.writeRejection(w, r, cfg, pw.reject(
				RejectionConfigurationError, http.StatusInternalServerError, err, "%v", err))
			return
		}
	} else {
		if rej := proc.Verify(r.Context()); rej != nil {
			pw.writeRejection(w, r, cfg, rej)
			return
		}
	}

	if cfg.flow == FlowSettleFirst {
		if rej := proc.Settle(r.Context()); rej != nil {
			pw.writeRejection(w, r, cfg, rej)
			return
		}
	}

	state := proc.State()
	r = r.WithContext(withPayment(r.Context(), &PaymentDetails{
		Payload:     proc.Payload(),
		Requirement: proc.Requirement(),
		Verified:    state.Verified,
		Settled:     state.Settled,
		Payer:       proc.Payer(),
	}))

	// Flows with no post-handler settlement write straight through; when the
	// payment was already settled the receipt header goes out up front.
	if cfg.flow == FlowSettleFirst || cfg.flow == FlowVerifyOnly {
		if state.Settled != nil {
			pw.attachReceipt(w.Header(), proc)
		}
		next.ServeHTTP(w, r)
		return
	}

	// Settle-after flows buffer the handler's response: if settlement fails,
	// the handler's work cannot be undone, but its response can still be
	// withheld and the failure reported instead.
	buf := newBufferedWriter()
	next.ServeHTTP(buf, r)

	if !cfg.settleOn(buf.status()) {
		buf.flush(w)
		return
	}

	if rej := proc.Settle(r.Context()); rej != nil {
		pw.writeRejection(w, r, cfg, rej)
		return
	}

	pw.attachReceipt(buf.header, proc)
	buf.flush(w)
}

func (pw *Paywall) attachReceipt(h http.Header, proc *Processor) {
	receipt, err := proc.ResponseHeader()
	if err != nil {
		pw.logger.Warn("failed to encode settlement receipt header", map[string]any{
			"error": err.Error(),
		})
		return
	}
	h.Set(transport.HeaderPaymentResponse, receipt)
}

func (pw *Paywall) writeRejection(w http.ResponseWriter, r *http.Request, cfg middlewareConfig, rej *Rejection) {
	if cfg.paywallHTML != "" && rej.StatusCode == http.StatusPaymentRequired && isBrowserRequest(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(rej.StatusCode)
		w.Write([]byte(cfg.paywallHTML))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rej.StatusCode)
	if err := json.NewEncoder(w).Encode(rej.Response()); err != nil {
		pw.logger.Error("failed to write rejection response", map[string]any{
			"error": err.Error(),
		})
	}
}

func isBrowserRequest(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		return true
	}

	userAgent := r.Header.Get("User-Agent")
	if userAgent == "" {
		return false
	}

	browserIndicators := []string{"Mozilla/", "Chrome/", "Safari/", "Firefox/", "Edge/", "Opera/"}
	for _, indicator := range browserIndicators {
		if strings.Contains(userAgent, indicator) {
			return true
		}
	}

	return false
}

// bufferedWriter captures a handler's response so the middleware can decide
// whether to forward or withhold it after settlement.
type bufferedWriter struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
	wrote      bool
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (b *bufferedWriter) Header() http.Header {
	return b.header
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.wrote {
		return
	}
	b.statusCode = code
	b.wrote = true
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if !b.wrote {
		b.WriteHeader(http.StatusOK)
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) status() int {
	if !b.wrote {
		return http.StatusOK
	}
	return b.statusCode
}

func (b *bufferedWriter) flush(w http.ResponseWriter) {
	dst := w.Header()
	for k, vv := range b.header {
		dst[k] = vv
	}
	w.WriteHeader(b.status())
	if b.body.Len() > 0 {
		w.Write(b.body.Bytes())
	}
}
