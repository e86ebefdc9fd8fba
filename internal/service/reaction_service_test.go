package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-api/internal/model"
	"github.com/d60-Lab/social-api/internal/repository"
)

func TestReactionService_LikeThenDislikeSwitches(t *testing.T) {
	f := newFixture(t)
	svc := NewReactionService(f.reactions, f.posts)
	ctx := context.Background()
	u := f.user(t, "u@example.com")
	p := f.post(t, u, "p", time.Now().UTC())

	out, err := svc.React(ctx, u.ID, p.ID, model.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, repository.ReactCreated, out)

	out, err = svc.React(ctx, u.ID, p.ID, model.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, repository.ReactUnchanged, out)

	out, err = svc.React(ctx, u.ID, p.ID, model.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, repository.ReactSwitched, out)

	detail, err := f.postService(f.immediate()).Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Likes)
	assert.Equal(t, []string{u.ID}, detail.Dislikes)
	assert.Equal(t, int64(0), detail.LikesCount)
	assert.Equal(t, int64(1), detail.DislikesCount)
}

func TestReactionService_Errors(t *testing.T) {
	f := newFixture(t)
	svc := NewReactionService(f.reactions, f.posts)
	ctx := context.Background()
	u := f.user(t, "u@example.com")
	p := f.post(t, u, "p", time.Now().UTC())

	_, err := svc.React(ctx, u.ID, "missing", model.ReactionLike)
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = svc.React(ctx, u.ID, p.ID, model.ReactionKind("love"))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.ErrorIs(t, svc.Unreact(ctx, u.ID, "missing"), ErrPostNotFound)
	// 没有反应时 unreact 是 no-op
	assert.NoError(t, svc.Unreact(ctx, u.ID, p.ID))
}

func TestReactionService_RandomSequencesKeepInvariant(t *testing.T) {
	f := newFixture(t)
	svc := NewReactionService(f.reactions, f.posts)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	p := f.post(t, owner, "p", time.Now().UTC())
	users := []*model.User{f.user(t, "a@example.com"), f.user(t, "b@example.com"), f.user(t, "c@example.com")}

	rng := rand.New(rand.NewSource(42))
	for step := 0; step < 200; step++ {
		u := users[rng.Intn(len(users))]
		switch rng.Intn(3) {
		case 0:
			_, err := svc.React(ctx, u.ID, p.ID, model.ReactionLike)
			require.NoError(t, err)
		case 1:
			_, err := svc.React(ctx, u.ID, p.ID, model.ReactionDislike)
			require.NoError(t, err)
		default:
			require.NoError(t, svc.Unreact(ctx, u.ID, p.ID))
		}

		detail, err := f.postService(f.immediate()).Get(ctx, p.ID)
		require.NoError(t, err)
		for _, who := range users {
			likes, dislikes := count(detail.Likes, who.ID), count(detail.Dislikes, who.ID)
			assert.Contains(t, [][2]int{{0, 0}, {1, 0}, {0, 1}}, [2]int{likes, dislikes})
		}

		var rows int64
		require.NoError(t, f.db.Model(&model.Reaction{}).Where("post_id = ?", p.ID).Count(&rows).Error)
		assert.Equal(t, rows, detail.LikesCount+detail.DislikesCount)
	}
}

func count(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
