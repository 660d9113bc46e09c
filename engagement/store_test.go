package engagement

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/storage"
)

var fixedNow = time.Date(2026, 2, 11, 8, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, storage.KV) {
	t.Helper()
	kv := storage.NewMemory().Profile("test")
	s := New(kv, WithClock(func() time.Time { return fixedNow }))
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("c_%d", n)
	}
	return s, kv
}

func TestKeysUseNamespace(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	require.NoError(t, s.SetLiked(ctx, "a", true))
	_, err := s.IncrementShares(ctx, "a")
	require.NoError(t, err)

	v, ok, err := kv.Get(ctx, "devemco:blog:liked:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	v, _, _ = kv.Get(ctx, "devemco:blog:shared:a")
	assert.Equal(t, "1", v)
}

func TestToggleLikedTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	post := blog.Post{Slug: "p", Stats: blog.Stats{BaseLikes: 47}}

	on, err := s.ToggleLiked(ctx, "p")
	require.NoError(t, err)
	assert.True(t, on)
	c, err := s.Counts(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, 48, c.Likes)

	on, err = s.ToggleLiked(ctx, "p")
	require.NoError(t, err)
	assert.False(t, on)
	c, err = s.Counts(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, 47, c.Likes)
}

func TestToggleBookmarked(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	on, err := s.ToggleBookmarked(ctx, "p")
	require.NoError(t, err)
	assert.True(t, on)
	got, err := s.Bookmarked(ctx, "p")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestShares(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	require.NoError(t, s.SetShares(ctx, "p", -5))
	n, err := s.Shares(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 0; i < 3; i++ {
		_, err = s.IncrementShares(ctx, "p")
		require.NoError(t, err)
	}
	n, _ = s.Shares(ctx, "p")
	assert.Equal(t, 3, n)

	require.NoError(t, kv.Set(ctx, s.Key(KindShared, "p"), "not a number"))
	n, err = s.Shares(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, kv.Set(ctx, s.Key(KindShared, "p"), "2.9"))
	n, _ = s.Shares(ctx, "p")
	assert.Equal(t, 2, n)
}

func TestSharesStopAtMaxInt32(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	require.NoError(t, s.SetShares(ctx, "p", math.MaxInt32))
	n, err := s.IncrementShares(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, n)

	raw, _, err := kv.Get(ctx, s.Key(KindShared, "p"))
	require.NoError(t, err)
	assert.Equal(t, "2147483647", raw)

	require.NoError(t, s.SetShares(ctx, "q", math.MaxInt32+10))
	n, _ = s.Shares(ctx, "q")
	assert.Equal(t, math.MaxInt32, n)
}

func TestAddCommentLengthBounds(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		n    int
		want error
	}{
		{11, ErrCommentTooShort},
		{12, nil},
		{1200, nil},
		{1201, ErrCommentTooLong},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			s, _ := newTestStore(t)
			_, err := s.AddComment(ctx, "p", "", "  "+strings.Repeat("x", tt.n)+"\n")
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				comments, _ := s.Comments(ctx, "p")
				assert.Empty(t, comments)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCommentLengthCountsCharacters(t *testing.T) {
	// 12 characters, 24 bytes.
	text, err := CheckCommentText(strings.Repeat("é", 12))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 12), text)

	_, err = CheckCommentText("   ")
	assert.ErrorIs(t, err, ErrCommentTooShort)
}

func TestAddCommentPrependsNewest(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first, err := s.AddComment(ctx, "p", "  ", "first comment text")
	require.NoError(t, err)
	assert.Equal(t, blog.Comment{ID: "c_1", Name: AnonymousName, Text: "first comment text", CreatedAt: fixedNow}, first)

	_, err = s.AddComment(ctx, "p", "Ada", "second comment text")
	require.NoError(t, err)

	comments, err := s.Comments(ctx, "p")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Ada", comments[0].Name)
	assert.Equal(t, "c_1", comments[1].ID)
}

func TestEditAndDeleteComment(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.AddComment(ctx, "p", "Ada", "original comment")
	require.NoError(t, err)

	assert.ErrorIs(t, s.EditComment(ctx, "p", 0, "too short"), ErrCommentTooShort)
	assert.ErrorIs(t, s.EditComment(ctx, "p", 3, "long enough text"), ErrCommentNotFound)
	require.NoError(t, s.EditComment(ctx, "p", 0, "  edited comment text "))

	comments, _ := s.Comments(ctx, "p")
	require.Len(t, comments, 1)
	assert.Equal(t, blog.Comment{ID: "c_1", Name: "Ada", Text: "edited comment text", CreatedAt: fixedNow}, comments[0])

	assert.ErrorIs(t, s.DeleteComment(ctx, "p", -1), ErrCommentNotFound)
	require.NoError(t, s.DeleteComment(ctx, "p", 0))
	comments, _ = s.Comments(ctx, "p")
	assert.Empty(t, comments)
}

func TestCorruptCommentsReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	require.NoError(t, kv.Set(ctx, s.Key(KindComments, "p"), "{not json"))
	comments, err := s.Comments(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, comments)

	require.NoError(t, kv.Set(ctx, s.Key(KindComments, "p"), `{"id":"x"}`))
	comments, err = s.Comments(ctx, "p")
	require.NoError(t, err)
	assert.Empty(t, comments)

	// A broken entry does not hide the rest of the thread.
	require.NoError(t, kv.Set(ctx, s.Key(KindComments, "p"), `[{"id":"a","name":"n","text":"t","createdAt":"2026-01-01T00:00:00Z"},42]`))
	comments, err = s.Comments(ctx, "p")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "a", comments[0].ID)
}

func TestResetAndClearAll(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	for _, slug := range []string{"a", "b"} {
		require.NoError(t, s.SetLiked(ctx, slug, true))
		require.NoError(t, s.SetBookmarked(ctx, slug, true))
		require.NoError(t, s.SetShares(ctx, slug, 2))
		_, err := s.AddComment(ctx, slug, "", "a comment long enough")
		require.NoError(t, err)
	}
	require.NoError(t, kv.Set(ctx, s.Namespace()+"customPosts", "[]"))
	require.NoError(t, kv.Set(ctx, "unrelated:liked:a", "1"))

	require.NoError(t, s.Reset(ctx, "a"))
	r, err := s.Record(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, Record{Comments: []blog.Comment{}}, r)
	r, _ = s.Record(ctx, "b")
	assert.True(t, r.Liked)

	require.NoError(t, s.ClearAll(ctx))
	keys, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"devemco:blog:customPosts", "unrelated:liked:a"}, keys)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	posts := []blog.Post{{Slug: "a"}, {Slug: "b"}}

	require.NoError(t, s.SetLiked(ctx, "a", true))
	require.NoError(t, s.SetBookmarked(ctx, "b", true))
	require.NoError(t, s.SetShares(ctx, "a", 2))
	require.NoError(t, s.SetShares(ctx, "b", 3))
	_, err := s.AddComment(ctx, "b", "", "a comment long enough")
	require.NoError(t, err)

	sum, err := s.Summary(ctx, posts)
	require.NoError(t, err)
	assert.Equal(t, Summary{Liked: 1, Bookmarked: 1, Comments: 1, Shares: 5}, sum)
}

func TestCustomNamespace(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory().Profile("x")
	s := New(kv, WithNamespace("site:"))
	require.NoError(t, s.SetLiked(ctx, "p", true))
	keys, _ := kv.Keys(ctx, "")
	assert.Equal(t, []string{"site:liked:p"}, keys)
}
