package kafka

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"traceval/internal/domain/eval"
)

const (
	messageTypeEvaluate = "evaluate"
	messageTypeDone     = "done"
)

type evaluateEnvelope struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	EntryPoint string         `json:"entry_point"`
	Source     string         `json:"source"`
	Classpath  []string       `json:"classpath,omitempty"`
	WorkingDir string         `json:"working_dir,omitempty"`
	Limits     *requestLimits `json:"limits,omitempty"`
}

type requestLimits struct {
	TimeLimitMs      int64 `json:"time_limit_ms"`
	MemoryLimitBytes int64 `json:"memory_limit_bytes"`
}

type outcomeEnvelope struct {
	ID          string               `json:"id"`
	Status      eval.Status          `json:"status"`
	Output      string               `json:"output,omitempty"`
	ExitCode    *int                 `json:"exit_code,omitempty"`
	Diagnostics []diagnosticEnvelope `json:"diagnostics,omitempty"`
	Error       string               `json:"error,omitempty"`
	DurationMs  *int64               `json:"duration_ms,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type diagnosticEnvelope struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

func decodeEvaluateMessage(msg kafkago.Message) (eval.Request, error) {
	var envelope evaluateEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return eval.Request{}, fmt.Errorf("decode message: %w", err)
	}

	msgType := envelope.Type
	if msgType == "" {
		msgType = messageTypeEvaluate
	}

	switch msgType {
	case messageTypeEvaluate:
		return envelope.toRequest(msg)
	case messageTypeDone:
		return eval.Request{}, io.EOF
	default:
		return eval.Request{}, fmt.Errorf("unknown message type %q", msgType)
	}
}

func (e evaluateEnvelope) toRequest(msg kafkago.Message) (eval.Request, error) {
	if e.Source == "" {
		return eval.Request{}, fmt.Errorf("evaluate message missing source")
	}
	if e.EntryPoint == "" {
		return eval.Request{}, fmt.Errorf("evaluate message missing entry point")
	}

	requestID := e.ID
	if requestID == "" {
		requestID = string(msg.Key)
	}
	if requestID == "" {
		requestID = fmt.Sprintf("%s:%d", msg.Topic, msg.Offset)
	}

	return eval.Request{
		ID:         requestID,
		EntryPoint: e.EntryPoint,
		Source:     e.Source,
		Classpath:  e.Classpath,
		WorkingDir: e.WorkingDir,
		Limits:     e.toLimits(),
	}, nil
}

func (e evaluateEnvelope) toLimits() eval.RunLimits {
	if e.Limits == nil {
		return eval.RunLimits{}
	}

	var limits eval.RunLimits
	if e.Limits.TimeLimitMs > 0 {
		limits.TimeLimit = time.Duration(e.Limits.TimeLimitMs) * time.Millisecond
	}
	if e.Limits.MemoryLimitBytes > 0 {
		limits.MemoryLimitBytes = e.Limits.MemoryLimitBytes
	}
	return limits
}

func encodeOutcome(outcome eval.Outcome) ([]byte, error) {
	payload, err := json.Marshal(makeOutcomeEnvelope(outcome))
	if err != nil {
		return nil, fmt.Errorf("marshal outcome: %w", err)
	}
	return payload, nil
}

func makeOutcomeEnvelope(outcome eval.Outcome) outcomeEnvelope {
	var exitCode *int
	if outcome.Status == eval.StatusSuccess {
		exit := outcome.ExitCode
		exitCode = &exit
	}

	var diagnostics []diagnosticEnvelope
	if outcome.Report != nil && len(outcome.Report.Diagnostics) > 0 {
		diagnostics = make([]diagnosticEnvelope, 0, len(outcome.Report.Diagnostics))
		for _, diag := range outcome.Report.Diagnostics {
			entry := diagnosticEnvelope{
				Severity: string(diag.Severity),
				Message:  diag.Message,
			}
			if diag.Position != nil {
				entry.Line = diag.Position.Line
				entry.Column = diag.Position.Column
			}
			diagnostics = append(diagnostics, entry)
		}
	}

	errMsg := ""
	if outcome.Cause != nil {
		errMsg = outcome.Cause.Error()
	}

	durationMs := outcome.Duration.Milliseconds()

	return outcomeEnvelope{
		ID:          outcome.RequestID,
		Status:      outcome.Status,
		Output:      outcome.Output,
		ExitCode:    exitCode,
		Diagnostics: diagnostics,
		Error:       errMsg,
		DurationMs:  &durationMs,
		Timestamp:   time.Now().UTC(),
	}
}
