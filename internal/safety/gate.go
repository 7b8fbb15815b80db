package safety

import (
	"strings"

	"go.uber.org/zap"
)

// Assessment is the gate's verdict for one rendered command.
type Assessment struct {
	// Blocked is true when any signature matched.
	Blocked bool

	// Rule names the signature that matched, empty when allowed.
	Rule string

	// Reason is the operator-facing explanation, empty when allowed.
	Reason string
}

// Verdict returns "blocked" or "allowed".
func (a Assessment) Verdict() string {
	if a.Blocked {
		return VerdictBlocked
	}
	return VerdictAllowed
}

// Gate screens rendered commands against the signature table. The check runs
// after slot substitution, so an otherwise benign command template cannot be
// laundered into a destructive command through an argument. Gate holds no
// mutable state and is safe for concurrent use.
type Gate struct {
	signatures []Signature
	logger     *zap.Logger
}

// NewGate returns a gate using the built-in signature table.
func NewGate(logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{signatures: builtins, logger: logger}
}

// Assess screens the fully-rendered command. Any signature hit blocks
// unconditionally: the verdict overrides confidence classification and
// cannot be overridden by confirmation.
//
// The full string is assessed first so that signatures spanning shell
// operators (fork bombs, pipe-to-shell) hit before splitting; then each
// compound segment is assessed on its own, so a destructive command cannot
// hide behind a benign prefix like "echo ok && rm -rf /".
func (g *Gate) Assess(rendered string) Assessment {
	trimmed := strings.TrimSpace(rendered)
	if trimmed == "" {
		return Assessment{}
	}

	if sig := g.match(trimmed); sig != nil {
		return g.blocked(trimmed, sig)
	}

	for _, seg := range splitCompound(trimmed) {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == trimmed {
			continue
		}
		if sig := g.match(seg); sig != nil {
			return g.blocked(seg, sig)
		}
	}

	return Assessment{}
}

func (g *Gate) match(command string) *Signature {
	for i := range g.signatures {
		if g.signatures[i].Matches(command) {
			return &g.signatures[i]
		}
	}
	return nil
}

func (g *Gate) blocked(command string, sig *Signature) Assessment {
	g.logger.Warn("command blocked by safety gate",
		zap.String("rule", sig.Name),
		zap.String("command", command))
	return Assessment{Blocked: true, Rule: sig.Name, Reason: sig.Reason}
}

// splitCompound splits a shell command on &&, ||, |, and ; while respecting
// single and double quotes, so each segment of a compound command is
// assessed on its own.
func splitCompound(command string) []string {
	var segments []string
	var current strings.Builder
	inSingle := false
	inDouble := false

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '\'' && !inDouble {
			inSingle = !inSingle
			current.WriteRune(ch)
			continue
		}
		if ch == '"' && !inSingle {
			inDouble = !inDouble
			current.WriteRune(ch)
			continue
		}
		if inSingle || inDouble {
			current.WriteRune(ch)
			continue
		}

		switch {
		case ch == '&' && i+1 < len(runes) && runes[i+1] == '&':
			segments = append(segments, current.String())
			current.Reset()
			i++
		case ch == '|' && i+1 < len(runes) && runes[i+1] == '|':
			segments = append(segments, current.String())
			current.Reset()
			i++
		case ch == '|' || ch == ';':
			segments = append(segments, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments
}
