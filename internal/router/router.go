package router

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sheldon-92/personalmanager/internal/audit"
	"github.com/Sheldon-92/personalmanager/internal/catalog"
	"github.com/Sheldon-92/personalmanager/internal/safety"
)

// Router runs the routing pipeline over the live catalog. One Router serves
// all calls; everything it touches is either immutable (snapshots,
// decisions) or internally synchronized (store, recorder), so Route is safe
// for concurrent use.
type Router struct {
	store    *catalog.Store
	matcher  *Matcher
	policy   Policy
	gate     *safety.Gate
	recorder audit.Recorder
	logger   *zap.Logger
	locale   string
}

// Options configures a Router. Zero values fall back to defaults.
type Options struct {
	// Locale breaks ties between equally confident candidates (e.g. "zh-CN").
	Locale string

	// Policy bands confidence into reject/confirm/auto. Zero means the
	// default thresholds.
	Policy Policy

	// MinConfidence floors candidate scores. Non-positive means the default.
	MinConfidence float64

	// Recorder receives one route_decision event per call. Nil disables
	// auditing.
	Recorder audit.Recorder

	Logger *zap.Logger
}

// New builds a Router over the given catalog store and safety gate.
func New(store *catalog.Store, gate *safety.Gate, opts Options) *Router {
	if gate == nil {
		gate = safety.NewGate(nil)
	}
	policy := opts.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = audit.Nop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		store:    store,
		matcher:  NewMatcher(opts.MinConfidence),
		policy:   policy,
		gate:     gate,
		recorder: recorder,
		logger:   logger,
		locale:   opts.Locale,
	}
}

// Route classifies one utterance into a Decision. It never returns an
// error: unrecognized or malformed input yields an unmatched decision, and
// audit failures are absorbed by the recorder. The call reads a single
// catalog snapshot, so a reload mid-call cannot produce a mixed view.
func (r *Router) Route(utterance string) *Decision {
	d := &Decision{
		ID:            uuid.NewString(),
		Utterance:     utterance,
		Locale:        r.locale,
		SafetyVerdict: safety.VerdictAllowed,
		State:         StateUnmatched,
		CreatedAt:     time.Now().UTC(),
	}

	snap := r.store.Current()
	cands := r.matcher.Match(utterance, snap, r.locale)
	if len(cands) == 0 {
		return r.finish(d)
	}

	top := cands[0]
	args, err := ExtractSlots(top)
	if err != nil {
		// The best candidate could not produce a complete argument set, so
		// there is nothing actionable. No fallback to weaker candidates:
		// answering with a different intent than the one that matched best
		// would surprise the user.
		r.logger.Debug("slot validation failed",
			zap.String("intent", top.Intent.ID),
			zap.Error(err))
		return r.finish(d)
	}

	rendered := catalog.RenderTemplate(top.Intent.CommandTemplate, args)

	if a := r.gate.Assess(rendered); a.Blocked {
		// The veto is absolute. It applies before the confidence policy so
		// a dangerous command is reported as blocked, never as
		// "not recognized" or as something confirmation could unlock.
		d.fill(top, args, rendered)
		d.SafetyVerdict = safety.VerdictBlocked
		d.BlockRule = a.Rule
		d.BlockReason = a.Reason
		d.State = StateBlocked
		return r.finish(d)
	}

	switch r.policy.Classify(top.Confidence) {
	case ActionAuto:
		d.fill(top, args, rendered)
		d.State = StateReady
	case ActionConfirm:
		d.fill(top, args, rendered)
		d.ConfirmMessage = confirmMessage(top.Intent, args, rendered)
		d.State = StateNeedsConfirmation
	default:
		// Too uncertain to act on. Keep the score for diagnostics, but no
		// intent or command: a rejected match must not leak a partial
		// execution path.
		d.Confidence = top.Confidence
	}
	return r.finish(d)
}

// fill copies the winning candidate into the decision.
func (d *Decision) fill(c Candidate, args map[string]interface{}, rendered string) {
	d.IntentID = c.Intent.ID
	d.Confidence = c.Confidence
	d.MatchKind = c.Kind
	d.Args = args
	d.RenderedCommand = rendered
}

// confirmMessage renders the intent's confirmation prompt, falling back to
// a generic prompt that shows the exact command.
func confirmMessage(in *catalog.CompiledIntent, args map[string]interface{}, rendered string) string {
	if in.ConfirmTemplate != "" {
		return catalog.RenderTemplate(in.ConfirmTemplate, args)
	}
	return fmt.Sprintf("About to run: %s", rendered)
}

// finish records the decision and returns it.
func (r *Router) finish(d *Decision) *Decision {
	r.logger.Debug("route decision",
		zap.String("decision_id", d.ID),
		zap.String("state", d.State.String()),
		zap.String("intent", d.IntentID),
		zap.Float64("confidence", d.Confidence))

	ev := audit.NewEvent(audit.TypeRouteDecision)
	ev.DecisionID = d.ID
	ev.Utterance = d.Utterance
	ev.IntentID = d.IntentID
	ev.Confidence = d.Confidence
	ev.MatchKind = string(d.MatchKind)
	ev.State = d.State.String()
	ev.Command = d.RenderedCommand
	ev.SafetyVerdict = d.SafetyVerdict
	ev.BlockRule = d.BlockRule
	ev.BlockReason = d.BlockReason
	r.recorder.Record(ev)
	return d
}
