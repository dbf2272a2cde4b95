package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.publicMsg, meta.PublicMessage)
			assert.Equal(t, tt.retryable, meta.Retryable)
			assert.Equal(t, tt.detailsOK, meta.DetailsAllowed)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestWrapPreservesCauseAndCode(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "create order")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDependency, err.Code())
	assert.Contains(t, err.Error(), "connection refused")

	outer := fmt.Errorf("handler: %w", err)
	assert.True(t, IsCode(outer, CodeDependency))
	assert.Equal(t, CodeDependency, CodeOf(outer))
	assert.Same(t, err, As(outer))
}

func TestCodeOfUntypedError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(stdErrors.New("plain")))
	assert.False(t, IsCode(nil, CodeInternal))
}

func TestWithDetails(t *testing.T) {
	err := Newf(CodeValidation, "invalid %s", "items").WithDetails(map[string]string{"items": "required"})
	assert.Equal(t, "invalid items", err.Message())
	assert.Equal(t, map[string]string{"items": "required"}, err.Details())
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.True(t, Retryable(stdErrors.New("untyped")))
	assert.True(t, Retryable(Wrap(CodeDependency, stdErrors.New("timeout"), "sendgrid")))
	assert.False(t, Retryable(fmt.Errorf("dispatch: %w", New(CodeNotFound, "order gone"))))
}

func TestErrorStringIncludesCause(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: order missing", New(CodeNotFound, "order missing").Error())
	assert.Equal(t, "DEPENDENCY_ERROR: stripe: connection reset", Wrap(CodeDependency, stdErrors.New("connection reset"), "stripe").Error())
}

func TestClientFacing(t *testing.T) {
	assert.True(t, CodeForbidden.ClientFacing())
	assert.False(t, CodeInternal.ClientFacing())
	assert.False(t, CodeDependency.ClientFacing())
}

func TestDumpWalksChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(CodeConflict, stdErrors.New("duplicate key value"), "order number taken"))
	dump := Dump(err)
	assert.Equal(t, CodeConflict, dump.Code)
	assert.Len(t, dump.Chain, 3)
	assert.Empty(t, dump.PGCode)
}

func TestDumpNamesPostgresCondition(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_order_number", TableName: "orders"}
	dump := Dump(fmt.Errorf("insert order: %w", pgErr))
	assert.Equal(t, "unique_violation", dump.Condition)
	assert.Equal(t, "idx_orders_order_number", dump.PGConstraint)
	assert.Equal(t, "orders", dump.PGTable)
}

func TestDumpNamesGormSentinel(t *testing.T) {
	dump := Dump(Wrap(CodeNotFound, gorm.ErrRecordNotFound, "order not found"))
	assert.Equal(t, CodeNotFound, dump.Code)
	assert.Equal(t, "record_not_found", dump.Condition)
	assert.Empty(t, dump.PGCode)
}

func TestDumpReadsLibPQErrors(t *testing.T) {
	pqErr := &pq.Error{Code: "40P01", Table: "inventory_items", Message: "deadlock detected"}
	dump := Dump(Wrap(CodeDependency, pqErr, "apply migration"))
	assert.Equal(t, "deadlock_detected", dump.Condition)
	assert.Equal(t, "40P01", dump.PGCode)
	assert.Equal(t, "inventory_items", dump.PGTable)
}
