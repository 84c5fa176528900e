package agentloop

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/deskstratum/agent/internal/dispatch"
	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/logging"
)

var log = logging.Named("agentloop")

const (
	defaultMaxIterations = 25
	defaultSettleDelay   = 800 * time.Millisecond
	maxConsecutiveErrors = 3
	feedbackTruncateSize = 4096
)

// StepCallback is invoked after every step with the parsed response and, for
// action steps, the dispatch result. Optional.
type StepCallback func(step int, parsed ParsedResponse, result *envelope.Result)

// Config configures one Loop run (§4.C10).
type Config struct {
	Goal          string
	Dispatcher    *dispatch.Dispatcher
	Oracle        Oracle
	MaxIterations int           // default 25
	SettleDelay   time.Duration // default 800ms
	OnStep        StepCallback
}

// Loop runs the observe → decide → parse → act state machine.
type Loop struct {
	cfg      Config
	observer *Observer
}

func New(cfg Config) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	return &Loop{cfg: cfg, observer: NewObserver(cfg.Dispatcher)}
}

// Run executes the loop to one of its terminal outcomes.
func (l *Loop) Run(ctx context.Context) Result {
	history := []anthropic.MessageParam{}
	recentActions := []ActionSummary{}
	browserActive := false
	consecutiveErrors := 0

	for step := 1; step <= l.cfg.MaxIterations; step++ {
		cmdID := uuid.NewString()

		// 1. Observe
		obs, err := l.observer.Observe(ctx, cmdID, browserActive, recentActions)
		if err != nil {
			log.Errorf("observe failed at step %d: %v", step, err)
			return Result{Outcome: LoopError, Summary: "observation failed: " + err.Error(), Steps: step}
		}

		// 2. Build user message
		stepText := buildStepPrompt(l.cfg.Goal, step, obs)
		history = append(history, buildObservationMessage(stepText, obs.Screenshot))

		// 3. Decide
		reply, err := l.cfg.Oracle.Decide(ctx, systemPrompt, history)
		if err != nil {
			log.Errorf("oracle failed at step %d: %v", step, err)
			return Result{Outcome: LoopError, Summary: "oracle request failed: " + err.Error(), Steps: step}
		}
		history = append(history, anthropic.NewAssistantMessage(anthropic.NewTextBlock(reply)))

		// 4. Parse
		parsed := ParseResponse(reply, step)
		if l.cfg.OnStep != nil {
			l.cfg.OnStep(step, parsed, nil)
		}

		switch parsed.Outcome {
		case OutcomeComplete:
			return Result{Outcome: LoopComplete, Summary: parsed.Summary, Steps: step}

		case OutcomeNeedsHelp:
			return Result{Outcome: LoopNeedsHelp, Summary: parsed.Question, Steps: step}

		case OutcomeError:
			consecutiveErrors++
			log.Warnf("parse error at step %d (%d/%d): %s", step, consecutiveErrors, maxConsecutiveErrors, parsed.Reason)
			history = append(history, anthropic.NewUserMessage(anthropic.NewTextBlock(
				"Your last reply could not be parsed: "+parsed.Reason+
					". Reply with exactly one JSON object matching the grammar above, no prose, no code fence.")))
			if consecutiveErrors >= maxConsecutiveErrors {
				return Result{Outcome: LoopError, Summary: "exceeded parse-error budget: " + parsed.Reason, Steps: step}
			}
			continue

		case OutcomeAction:
			consecutiveErrors = 0
			if parsed.Command.Layer == string(envelope.LayerBrowser) {
				switch parsed.Command.Action {
				case "launch":
					browserActive = true
				case "close":
					browserActive = false
				}
			}

			result := l.cfg.Dispatcher.Dispatch(ctx, envelope.Command{
				ID:     cmdID,
				Layer:  envelope.Layer(parsed.Command.Layer),
				Action: parsed.Command.Action,
				Params: parsed.Command.Params,
			})
			if l.cfg.OnStep != nil {
				l.cfg.OnStep(step, parsed, &result)
			}

			outcome := outcomeSummary(result)
			recentActions = appendRecentAction(recentActions, ActionSummary{
				Layer: parsed.Command.Layer, Action: parsed.Command.Action, Outcome: outcome,
			})

			if feedback := actionFeedback(parsed.Command, result); feedback != "" {
				history = append(history, anthropic.NewUserMessage(anthropic.NewTextBlock(feedback)))
			}

			select {
			case <-time.After(l.cfg.SettleDelay):
			case <-ctx.Done():
				return Result{Outcome: LoopError, Summary: ctx.Err().Error(), Steps: step}
			}
		}
	}

	return Result{Outcome: LoopMaxIterations, Summary: "reached maximum iterations", Steps: l.cfg.MaxIterations}
}

func outcomeSummary(result envelope.Result) string {
	if result.Status == envelope.StatusError {
		return "error: " + asString(result.Data["error"])
	}
	return "ok"
}

func appendRecentAction(recent []ActionSummary, a ActionSummary) []ActionSummary {
	recent = append(recent, a)
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	return recent
}

// actionFeedback renders the text appended to history after an action step
// (§4.C10 step 4): full shell stdout for exec (truncated head+tail to 4KiB),
// a brief status for other shell actions, an error message for any failed
// command, and nothing for a successful browser/accessibility/vision
// command — the next screenshot carries that feedback instead.
func actionFeedback(cmd Command, result envelope.Result) string {
	if result.Status == envelope.StatusError {
		return "Command " + cmd.Layer + "/" + cmd.Action + " failed: " + asString(result.Data["error"])
	}
	if cmd.Layer != string(envelope.LayerShell) {
		return ""
	}
	if cmd.Action != "exec" {
		return "Command " + cmd.Layer + "/" + cmd.Action + " succeeded."
	}
	stdout := asString(result.Data["stdout"])
	stderr := asString(result.Data["stderr"])
	exitCode, _ := result.Data["exitCode"].(int)
	var b strings.Builder
	b.WriteString("Command output (exit code ")
	b.WriteString(strconv.Itoa(exitCode))
	b.WriteString("):\nstdout:\n")
	b.WriteString(truncateHeadTail(stdout, feedbackTruncateSize))
	if stderr != "" {
		b.WriteString("\nstderr:\n")
		b.WriteString(truncateHeadTail(stderr, feedbackTruncateSize))
	}
	return b.String()
}

// truncateHeadTail keeps the first and last limit/2 bytes of s when it
// exceeds limit, joined by a marker noting how much was dropped.
func truncateHeadTail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	half := limit / 2
	dropped := len(s) - limit
	return s[:half] + "\n... [" + strconv.Itoa(dropped) + " bytes truncated] ...\n" + s[len(s)-half:]
}
