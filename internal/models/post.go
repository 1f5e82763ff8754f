package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Platform is the social network a post is written for.
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformTwitter  Platform = "twitter"
)

// ParsePlatform accepts exactly "linkedin" or "twitter".
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(s); p {
	case PlatformLinkedIn, PlatformTwitter:
		return p, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// DefaultTone is used when a request does not name a tone.
const DefaultTone = "professional"

// GenerationRequest is everything needed to write one post.
type GenerationRequest struct {
	Repository *EnrichedRepository
	Platform   Platform
	Tone       string
}

// ToneOrDefault returns the request tone, or DefaultTone when it is empty.
func (r GenerationRequest) ToneOrDefault() string {
	if r.Tone == "" {
		return DefaultTone
	}
	return r.Tone
}

// Source records how a post's content was produced.
type Source string

const (
	SourceAI       Source = "ai-generated"
	SourceFallback Source = "fallback"
)

// Post is a generated social-media post. Content is never empty.
type Post struct {
	ID      string
	Content string
	Source  Source
}

// NewPost assigns a fresh identifier to content.
func NewPost(content string, source Source) Post {
	return Post{
		ID:      uuid.NewString(),
		Content: content,
		Source:  source,
	}
}
