package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "caseflow/pkg/domain"
)

func TestIdentity(t *testing.T) {
	_, ok := Identity(context.Background())
	assert.False(t, ok)

	caller := id.Identity{UserID: id.NewUserID(), InstitutionID: id.NewInstitutionID(), Role: id.RoleSchoolAdmin}
	ctx := WithIdentity(context.Background(), caller)
	got, ok := Identity(ctx)
	assert.True(t, ok)
	assert.Equal(t, caller, got)
	assert.Equal(t, caller.UserID, UserID(ctx))
}

func TestNow(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}

func TestRequestMetadata(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithClientMetadata(ctx, "10.0.0.1", "curl/8")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "curl/8", UserAgent(ctx))
}
