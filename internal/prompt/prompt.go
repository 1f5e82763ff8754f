// Package prompt renders the generation prompt for a repository. Output
// depends only on the arguments.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kevinmichaelchen/repo-post/internal/models"
)

// SystemInstruction is sent as the system message with every prompt.
const SystemInstruction = "You are a professional social media content creator specializing in tech and developer content. " +
	"Your task is to create engaging posts about GitHub repositories."

const (
	maxDependencies = 5
	readmeExcerpt   = 500
)

var platformInstructions = map[models.Platform]string{
	models.PlatformLinkedIn: "Write a professional LinkedIn post that showcases this project. " +
		"The post should be between 200-350 characters, include relevant hashtags, and encourage engagement. " +
		"Focus on the technical achievements, skills demonstrated, or problems solved by this project.",
	models.PlatformTwitter: "Write a concise tweet that fits within 280 characters. " +
		"Include relevant hashtags and make it engaging. " +
		"Focus on the most impressive or interesting aspect of this repository to capture attention.",
}

var platformNouns = map[models.Platform]string{
	models.PlatformLinkedIn: "LinkedIn post",
	models.PlatformTwitter:  "tweet for X/Twitter",
}

// Build renders the user prompt. An empty tone means models.DefaultTone.
func Build(repo *models.EnrichedRepository, platform models.Platform, tone string) string {
	if tone == "" {
		tone = models.DefaultTone
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a %s in a %s tone about the following GitHub repository:\n\n", platformNouns[platform], tone)
	fmt.Fprintf(&sb, "Repository Name: %s\n", repo.Name)
	fmt.Fprintf(&sb, "Description: %s\n", orDefault(repo.Description, "No description provided"))
	fmt.Fprintf(&sb, "Language: %s\n", orDefault(repo.Language, "Not specified"))
	fmt.Fprintf(&sb, "Stars: %d\n", repo.Stars)
	fmt.Fprintf(&sb, "URL: %s\n", repo.URL)

	if deps := repo.Manifest.DependencyNames(maxDependencies); len(deps) > 0 {
		fmt.Fprintf(&sb, "\nKey Dependencies: %s\n", strings.Join(deps, ", "))
	}

	if repo.Readme != nil && *repo.Readme != "" {
		fmt.Fprintf(&sb, "\nREADME Excerpt (first %d characters):\n%s...\n", readmeExcerpt, truncate(*repo.Readme, readmeExcerpt))
	}

	sb.WriteString("\n")
	sb.WriteString(platformInstructions[platform])
	fmt.Fprintf(&sb, "\n\nMake sure the post reflects a %s tone and is ready to share as-is.", tone)
	return sb.String()
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
