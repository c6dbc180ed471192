// internal/workers/application/submit-application/handler_test.go
package submitapplication

import (
	"context"
	"regexp"
	"testing"

	"shipinvest-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *Input {
	return &Input{
		Email:            "jordan@example.com",
		FullName:         "Jordan Mensah",
		PhoneCountryCode: "+233",
		PhoneNumber:      "241234567",
		IDType:           "passport",
		IDNumber:         "G1234567",
		Nationality:      "Ghanaian",
	}
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(LoadConfig(), db, logger.NewTestLogger(t)), mock
}

func TestExecute_Success(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email = $1, phone_number = $2, id_number = $3")).
		WithArgs("jordan@example.com", "241234567", "G1234567").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone", "id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	output, err := handler.Execute(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, output.ApplicationID)
	assert.Equal(t, "pending", output.ApplicationStatus)
	assert.NotEmpty(t, output.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_DuplicateEmail(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email = $1, phone_number = $2, id_number = $3")).
		WithArgs("jordan@example.com", "241234567", "G1234567").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone", "id"}).AddRow(true, false, false))

	_, err := handler.Execute(context.Background(), validInput())
	require.ErrorIs(t, err, ErrDuplicateApplication)
	assert.Contains(t, err.Error(), `An application with this email already exists. Please use "Check Application" to view your status.`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_DuplicatePhoneAndID(t *testing.T) {
	tests := []struct {
		name  string
		row   []driverValue
		field string
	}{
		{"phone", []driverValue{false, true, false}, "phone number"},
		{"id number", []driverValue{false, false, true}, "ID number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := newTestHandler(t)
			mock.ExpectQuery(regexp.QuoteMeta("SELECT email = $1, phone_number = $2, id_number = $3")).
				WillReturnRows(sqlmock.NewRows([]string{"email", "phone", "id"}).
					AddRow(tt.row[0], tt.row[1], tt.row[2]))

			_, err := handler.Execute(context.Background(), validInput())
			require.ErrorIs(t, err, ErrDuplicateApplication)
			assert.Contains(t, err.Error(), "An application with this "+tt.field+" already exists")
		})
	}
}

type driverValue = interface{}

func TestExecute_ValidationFailures(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing email", func(in *Input) { in.Email = "" }},
		{"malformed email", func(in *Input) { in.Email = "not-an-email" }},
		{"missing full name", func(in *Input) { in.FullName = "" }},
		{"short phone number", func(in *Input) { in.PhoneNumber = "123" }},
		{"unknown id type", func(in *Input) { in.IDType = "library_card" }},
		{"missing nationality", func(in *Input) { in.Nationality = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)

			_, err := handler.Execute(context.Background(), input)
			require.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestExecute_InsertFailureIsRetryable(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email = $1, phone_number = $2, id_number = $3")).
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone", "id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WillReturnError(assert.AnError)

	_, err := handler.Execute(context.Background(), validInput())
	require.ErrorIs(t, err, ErrDatabaseInsertFailed)
}

func TestExecute_AuditLogFailureDoesNotFail(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT email = $1, phone_number = $2, id_number = $3")).
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone", "id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnError(assert.AnError)

	output, err := handler.Execute(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "pending", output.ApplicationStatus)
}
