package blog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed seed/posts.json
var seedJSON []byte

var seed struct {
	once  sync.Once
	posts []Post
	err   error
}

// Seed returns a fresh copy of the built-in posts. The embedded dataset is
// decoded once; it panics if the dataset is malformed, which is a build error.
func Seed() []Post {
	seed.once.Do(func() {
		seed.posts, seed.err = DecodePosts(seedJSON)
	})
	if seed.err != nil {
		panic(fmt.Sprintf("blog: embedded seed posts: %v", seed.err))
	}
	out := make([]Post, len(seed.posts))
	for i, p := range seed.posts {
		out[i] = p.Clone()
	}
	return out
}

// DecodePosts decodes a JSON array of posts.
func DecodePosts(data []byte) ([]Post, error) {
	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
