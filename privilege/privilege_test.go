package privilege

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/platform/platformtest"
	"git.skobk.in/skobkin/telegram-edit-guard-bot/state"
)

type tiers map[int64]state.Tier

func (t tiers) TierOf(userID int64) state.Tier {
	return t[userID]
}

func TestOwnerAndSudo(t *testing.T) {
	assert := assert.New(t)
	c := NewChecker(tiers{1: state.TierOwner, 2: state.TierDeputy, 3: state.TierDescendant}, platformtest.New())

	assert.True(c.IsOwner(1))
	assert.False(c.IsOwner(2))
	assert.False(c.IsOwner(4))

	assert.True(c.IsSudo(1))
	assert.True(c.IsSudo(2))
	assert.True(c.IsSudo(3))
	assert.False(c.IsSudo(4))
}

func TestIsChatAdmin(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	fake := platformtest.New()
	fake.AddMember(-100, platform.User{ID: 10}, platform.RoleCreator)
	fake.AddMember(-100, platform.User{ID: 11}, platform.RoleAdministrator)
	fake.AddMember(-100, platform.User{ID: 12}, platform.RoleMember)
	fake.AddMember(-100, platform.User{ID: 13}, platform.RoleRestricted)
	c := NewChecker(tiers{}, fake)

	assert.True(c.IsChatAdmin(ctx, -100, 10))
	assert.True(c.IsChatAdmin(ctx, -100, 11))
	assert.False(c.IsChatAdmin(ctx, -100, 12))
	assert.False(c.IsChatAdmin(ctx, -100, 13))
	assert.False(c.IsChatAdmin(ctx, -100, 99))

	fake.FailIn(platformtest.CallMember, -100)
	assert.False(c.IsChatAdmin(ctx, -100, 10))
}
