package schemes

import (
	"github.com/vitwit/x402-paywall/types"
)

// DefaultMaxTimeoutSeconds is used when a scheme config leaves the payment
// timeout unset.
const DefaultMaxTimeoutSeconds = 60

// Scheme is one payment option a seller accepts: a (scheme, network, asset)
// capability that can describe itself as wire requirements and sanity-check
// incoming payloads. Implementations must be side-effect free: no network
// calls, no clock reads.
type Scheme interface {
	// Describe projects the static configuration into the wire shape served
	// to buyers. The result is deterministic for a given configuration.
	Describe() types.PaymentRequirements

	// Matches reports whether the decoded payload addresses this capability.
	Matches(payload *types.PaymentPayload) bool

	// ValidatePayload runs cheap local checks on the payload against the
	// requirement: shape, required fields, address and amount formats. It
	// never performs cryptographic verification; that is the facilitator's
	// job.
	ValidatePayload(payload *types.PaymentPayload, req *types.PaymentRequirements) error
}

// Registry is an ordered collection of schemes. Order is selection order:
// the first scheme whose Matches reports true wins.
type Registry struct {
	schemes []Scheme
	reqs    []types.PaymentRequirements
	known   map[string]bool
}

// NewRegistry builds a registry from the given schemes, preserving order.
func NewRegistry(list ...Scheme) *Registry {
	r := &Registry{known: make(map[string]bool)}
	for _, s := range list {
		r.Register(s)
	}
	return r
}

// Register appends a scheme and freezes its wire projection.
func (r *Registry) Register(s Scheme) {
	r.add(s, s.Describe())
}

func (r *Registry) add(s Scheme, req types.PaymentRequirements) {
	r.schemes = append(r.schemes, s)
	r.reqs = append(r.reqs, req)
	r.known[req.Scheme] = true
}

// Len returns the number of registered schemes.
func (r *Registry) Len() int {
	return len(r.schemes)
}

// Requirements returns the ordered wire projection of all registered schemes.
func (r *Registry) Requirements() []types.PaymentRequirements {
	out := make([]types.PaymentRequirements, len(r.reqs))
	copy(out, r.reqs)
	return out
}

// KnownScheme reports whether any registered capability implements the given
// scheme identifier.
func (r *Registry) KnownScheme(name string) bool {
	return r.known[name]
}

// Match returns the first registered scheme matching the payload, along with
// its frozen requirement.
func (r *Registry) Match(p *types.PaymentPayload) (Scheme, types.PaymentRequirements, bool) {
	for i, s := range r.schemes {
		if s.Matches(p) {
			return s, r.reqs[i], true
		}
	}
	return nil, types.PaymentRequirements{}, false
}

// Filter returns a new registry containing only the schemes a facilitator
// reported support for. A kind matches on protocol version, scheme and
// network; the kind's extra entries are merged into the requirement's extra,
// with the facilitator's values taking precedence (e.g. the fee payer it
// sponsors transactions with).
func (r *Registry) Filter(kinds []types.SupportedKind) *Registry {
	out := &Registry{known: make(map[string]bool)}

	for i, s := range r.schemes {
		req := r.reqs[i]
		for _, k := range kinds {
			if k.X402Version != int(types.X402Version1) {
				continue
			}
			if k.Scheme != req.Scheme || k.Network != req.Network {
				continue
			}

			if len(k.Extra) > 0 {
				req.Extra = mergeExtra(req.Extra, k.Extra)
			}
			out.add(s, req)
			break
		}
	}

	return out
}

func mergeExtra(base, overlay map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
