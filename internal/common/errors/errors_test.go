// internal/common/errors/errors_test.go
package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		name    string
		code    ErrorCode
		retries int
	}{
		{"database insert is retryable", ErrCodeDatabaseInsertFailed, 3},
		{"query execution is retryable", ErrCodeQueryExecutionFailed, 3},
		{"search query is retryable", ErrCodeSearchQueryFailed, 3},
		{"notification send is retryable", ErrCodeNotificationSendFailed, 3},
		{"search timeout gets reduced retries", ErrCodeSearchTimeout, 2},
		{"query timeout gets reduced retries", ErrCodeQueryTimeout, 2},
		{"invalid input never retries", ErrCodeInvalidInput, 0},
		{"duplicate application never retries", ErrCodeDuplicateApplication, 0},
		{"advisor account error never retries", ErrCodeAdvisorAccount, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retries, GetRetryCount(tt.code))
			assert.Equal(t, tt.retries > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewQueryExecutionFailedError("project-lookup", assert.AnError)

	bpmnErr := ConvertToBPMNError(stdErr)

	require.NotNil(t, bpmnErr)
	assert.Equal(t, "QUERY_EXECUTION_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Equal(t, "QUERY_EXECUTION_FAILED", bpmnErr.ErrorVariables["originalErrorCode"])
}

func TestConvertToBPMNError_NonRetryableForcesZeroRetries(t *testing.T) {
	stdErr := NewDuplicateApplicationError("email")

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "DUPLICATE_APPLICATION", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Zero(t, bpmnErr.Retries)
}

func TestConvertToBPMNError_UnmappedCodeFallsThrough(t *testing.T) {
	stdErr := NewBusinessRuleError("minimum investment not met", "amount below 25000")

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "BUSINESS_RULE_VIOLATION", bpmnErr.Code)
	assert.Zero(t, bpmnErr.Retries)
}

func TestToErrorVariables(t *testing.T) {
	bpmnErr := &BPMNError{
		Code:      "ADVISOR_TRANSPORT_ERROR",
		Message:   "Advisor request failed",
		Retryable: false,
		ErrorVariables: map[string]interface{}{
			"strategy": "advisor",
		},
	}

	vars := bpmnErr.ToErrorVariables()

	assert.Equal(t, "ADVISOR_TRANSPORT_ERROR", vars["errorCode"])
	assert.Equal(t, "Advisor request failed", vars["errorMessage"])
	assert.Equal(t, false, vars["retryable"])
	assert.Equal(t, "advisor", vars["strategy"])
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		category string
	}{
		{ErrCodeAdvisorTransport, "ADVISOR"},
		{ErrCodeDuplicateApplication, "APPLICATION"},
		{ErrCodeQueryExecutionFailed, "DATABASE"},
		{ErrCodeSearchTimeout, "SEARCH"},
		{ErrCodeProjectNotFound, "SEARCH"},
		{ErrCodeNotificationSendFailed, "NOTIFICATION"},
		{ErrCodeInvalidInput, "VALIDATION"},
		{ErrorCode("SOMETHING_ELSE"), "OTHER"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.category, GetErrorCategory(tt.code))
		})
	}
}

func TestStandardErrorMessage(t *testing.T) {
	stdErr := NewProjectNotFoundError("42")

	assert.Equal(t, "StandardError[PROJECT_NOT_FOUND]: Project not found", stdErr.Error())
	assert.Contains(t, stdErr.Details, "42")
}
