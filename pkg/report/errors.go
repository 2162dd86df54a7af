package report

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failed tool call.
type ErrorCode string

const (
	CodeUnknownTool        ErrorCode = "unknown_tool"
	CodeInvalidArguments   ErrorCode = "invalid_arguments"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRenderFailed       ErrorCode = "render_failed"
	CodeDataUnavailable    ErrorCode = "data_unavailable"
)

// Constraint names reported inside precondition errors.
const (
	ConstraintNotTerminal       = "report_not_finalized"
	ConstraintChartAvailable    = "chart_available_for_fund"
	ConstraintChartNotGenerated = "chart_not_already_generated"
	ConstraintChartGenerated    = "chart_reference_generated"
	ConstraintSectionTitle      = "section_title_present"
	ConstraintThemeExists       = "theme_exists"
	ConstraintSectionsNonEmpty  = "sections_non_empty"
	ConstraintReportTitle       = "report_title_present"
)

// ToolError describes why a tool call was rejected or failed. On the live
// path it is relayed to the model as the tool result; on replay it is fatal.
type ToolError struct {
	Code       ErrorCode `json:"code"`
	Tool       string    `json:"tool"`
	Constraint string    `json:"constraint,omitempty"`
	Message    string    `json:"message"`
	Err        error     `json:"-"`
}

func (e *ToolError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s: %s (%s): %s", e.Tool, e.Code, e.Constraint, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Tool, e.Code, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Outcome maps the error onto the tool-call log outcome.
func (e *ToolError) Outcome() Outcome {
	switch e.Code {
	case CodeRenderFailed, CodeDataUnavailable:
		return OutcomeErrored
	default:
		return OutcomeRejected
	}
}

// Payload is the structured form sent back to the model.
func (e *ToolError) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"error":   true,
		"code":    string(e.Code),
		"tool":    e.Tool,
		"message": e.Message,
	}
	if e.Constraint != "" {
		payload["constraint"] = e.Constraint
	}
	return payload
}

// NewToolError builds a ToolError with a formatted message.
func NewToolError(code ErrorCode, tool, constraint, format string, args ...interface{}) *ToolError {
	return &ToolError{
		Code:       code,
		Tool:       tool,
		Constraint: constraint,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Precondition is shorthand for a precondition_failed error.
func Precondition(tool, constraint, format string, args ...interface{}) *ToolError {
	return NewToolError(CodePreconditionFailed, tool, constraint, format, args...)
}

// AsToolError extracts a ToolError from an error chain.
func AsToolError(err error) (*ToolError, bool) {
	var te *ToolError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsCode reports whether err carries a ToolError with the given code.
func IsCode(err error, code ErrorCode) bool {
	te, ok := AsToolError(err)
	return ok && te.Code == code
}
