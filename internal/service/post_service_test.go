package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-api/internal/model"
)

func TestPostService_ListFilters(t *testing.T) {
	f := newFixture(t)
	svc := f.postService(f.immediate())
	ctx := context.Background()
	u := f.user(t, "u@example.com")

	day := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)
	abc := f.post(t, u, "xxABCxx", day)
	f.post(t, u, "other", day.AddDate(0, 0, 1))

	res, err := svc.List(ctx, ListPostsQuery{Title: "abc", CreatedTime: "2024-03-01"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, abc.ID, res[0].ID)

	// title 优先时不校验日期格式
	res, err = svc.List(ctx, ListPostsQuery{Title: "abc", CreatedTime: "not-a-date"})
	require.NoError(t, err)
	assert.Len(t, res, 1)

	res, err = svc.List(ctx, ListPostsQuery{CreatedTime: "2024-03-01"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "other", res[0].Title)

	_, err = svc.List(ctx, ListPostsQuery{CreatedTime: "01/03/2024"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "created_time")

	res, err = svc.List(ctx, ListPostsQuery{})
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestPostService_SummaryCounts(t *testing.T) {
	f := newFixture(t)
	svc := f.postService(f.immediate())
	reactions := NewReactionService(f.reactions, f.posts)
	comments := NewCommentService(f.commentary, f.posts)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	p := f.post(t, a, "p", time.Now().UTC())

	_, err := reactions.React(ctx, a.ID, p.ID, model.ReactionLike)
	require.NoError(t, err)
	_, err = reactions.React(ctx, b.ID, p.ID, model.ReactionDislike)
	require.NoError(t, err)
	_, err = comments.Add(ctx, b.ID, p.ID, "nice")
	require.NoError(t, err)

	res, err := svc.MyPosts(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int64(1), res[0].Comments)
	assert.Equal(t, int64(1), res[0].LikesCount)
	assert.Equal(t, int64(1), res[0].DislikesCount)

	detail, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Commentaries, 1)
	assert.Equal(t, "nice", detail.Commentaries[0].Content)
	assert.Equal(t, []string{a.ID}, detail.Likes)
	assert.Equal(t, []string{b.ID}, detail.Dislikes)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_FollowingPosts(t *testing.T) {
	f := newFixture(t)
	svc := f.postService(f.immediate())
	rel := NewRelationshipService(f.follows, f.profiles, f.following)
	ctx := context.Background()

	me := f.user(t, "me@example.com")
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	stranger := f.user(t, "x@example.com")
	f.profile(t, me, "me")
	aliceProfile := f.profile(t, alice, "alice")
	bobProfile := f.profile(t, bob, "bob")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.post(t, me, "mine", base.Add(3*time.Hour))
	a1 := f.post(t, alice, "a1", base)
	b1 := f.post(t, bob, "b1", base.Add(time.Hour))
	f.post(t, stranger, "s1", base.Add(2*time.Hour))

	res, err := svc.FollowingPosts(ctx, me.ID)
	require.NoError(t, err)
	assert.Empty(t, res)

	require.NoError(t, rel.Follow(ctx, me.ID, aliceProfile.ID))
	require.NoError(t, rel.Follow(ctx, me.ID, bobProfile.ID))

	res, err = svc.FollowingPosts(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, b1.ID, res[0].ID)
	assert.Equal(t, a1.ID, res[1].ID)

	// 取关后缓存失效
	require.NoError(t, rel.Unfollow(ctx, me.ID, bobProfile.ID))
	res, err = svc.FollowingPosts(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, a1.ID, res[0].ID)
}

func TestPostService_FollowingPostsWithoutRedis(t *testing.T) {
	f := newFixture(t)
	svc := f.postService(f.immediate())
	ctx := context.Background()
	me := f.user(t, "me@example.com")
	alice := f.user(t, "alice@example.com")
	p := f.post(t, alice, "a1", time.Now().UTC())
	require.NoError(t, f.follows.Create(ctx, me.ID, alice.ID))

	f.mr.Close()
	res, err := svc.FollowingPosts(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, p.ID, res[0].ID)
}

func TestPostService_CreateTrimsTitle(t *testing.T) {
	f := newFixture(t)
	svc := f.postService(f.immediate())
	u := f.user(t, "u@example.com")

	res, err := svc.Create(context.Background(), CreatePostInput{Title: "  hi  ", Content: "c", OwnerID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Post.Title)
}

func TestCommentService(t *testing.T) {
	f := newFixture(t)
	svc := NewCommentService(f.commentary, f.posts)
	ctx := context.Background()
	u := f.user(t, "u@example.com")
	p := f.post(t, u, "p", time.Now().UTC())

	_, err := svc.Add(ctx, u.ID, "missing", "x")
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = svc.Add(ctx, u.ID, p.ID, "   ")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	c, err := svc.Add(ctx, u.ID, p.ID, "first")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, p.ID, all[0].PostID)
}
