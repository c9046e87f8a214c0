package authorization

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeElevatedRoles(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	for _, role := range []string{"ADMIN", "STAFF", "admin"} {
		for _, action := range []string{ActionProductCreate, ActionProductBulkUpdate, ActionProductExport, ActionProductViewAdmin} {
			assert.NoError(t, svc.Authorize(ctx, role, ObjectProduct, action), "%s %s", role, action)
		}
	}
}

func TestAuthorizeDeniesOtherRoles(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "CUSTOMER", ObjectProduct, ActionProductDelete), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, "ADMIN", "order", ActionProductDelete), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, "ADMIN", ObjectProduct, "product.purge"), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, " ", ObjectProduct, ActionProductDelete), ErrInvalidRole)
	assert.ErrorIs(t, svc.Authorize(ctx, "ADMIN", "", ActionProductDelete), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, "ADMIN", ObjectProduct, ""), ErrInvalidAction)
}

func TestEnforcerPersistsPoliciesWithGormAdapter(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:authz?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	svc := newTestService(t, db)
	assert.NoError(t, svc.Authorize(context.Background(), "STAFF", ObjectProduct, ActionProductUpdate))

	var count int64
	require.NoError(t, db.Table("casbin_rule").Count(&count).Error)
	assert.Equal(t, int64(12), count)

	// Seeding again against the same store must not duplicate rules.
	_ = newTestService(t, db)
	require.NoError(t, db.Table("casbin_rule").Count(&count).Error)
	assert.Equal(t, int64(12), count)
}
