// Package prompt builds the README-generation prompt and sanitizes the
// model's reply.
package prompt

import (
	"fmt"
	"strings"

	"github.com/cferg/readmebot/internal/forge"
	"github.com/cferg/readmebot/internal/snapshot"
)

// Marker is embedded in every generated README so humans (and the loop
// guard's readme-only check) can tell generated content from hand-written.
const Marker = "<!-- This README is maintained automatically. -->"

const systemInstruction = `You are a technical writer maintaining the README of a software repository.
You write clear, accurate documentation grounded strictly in the files you are shown.
Never invent features, commands, or configuration that the code does not support.`

const instructions = `Write a complete README.md for this repository.

Requirements:
1. Start with the project name as a level-1 heading, followed by a one-paragraph summary.
2. Cover: what the project does, installation or setup, usage (with real commands or code from the files above), configuration, and project layout.
3. Only document what the files above show. If something is unclear, leave it out.
4. Use GitHub-flavored markdown. Respond with the README content only, no surrounding code fence and no commentary.`

// Build assembles the full user prompt from repository metadata and the
// collected snapshot.
func Build(repo *forge.Repo, snap *snapshot.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("Repository: ")
	sb.WriteString(repo.FullName)
	sb.WriteString("\n")
	if repo.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", repo.Description)
	}
	if repo.Language != "" {
		fmt.Fprintf(&sb, "Primary language: %s\n", repo.Language)
	}
	if len(repo.Topics) > 0 {
		fmt.Fprintf(&sb, "Topics: %s\n", strings.Join(repo.Topics, ", "))
	}

	sb.WriteString("\nFile tree:\n")
	for _, p := range snap.AllPaths {
		sb.WriteString("  ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}

	sb.WriteString("\nFile contents:\n")
	for _, f := range snap.Files {
		fmt.Fprintf(&sb, "\n--- %s ---\n", f.Path)
		sb.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			sb.WriteString("\n")
		}
		if f.Truncated {
			sb.WriteString("[truncated]\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(instructions)
	return sb.String()
}

// System returns the system instruction for the completion request.
func System() string {
	return systemInstruction
}

// Sanitize normalizes the model output into committable README content:
// strips a wrapping markdown fence if the model added one despite the
// instructions, trims whitespace, and appends the generation marker.
func Sanitize(text string) string {
	out := strings.TrimSpace(text)

	if strings.HasPrefix(out, "```") {
		lines := strings.Split(out, "\n")
		if len(lines) >= 2 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
			out = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}

	if !strings.Contains(out, Marker) {
		out += "\n\n" + Marker
	}
	return out + "\n"
}
