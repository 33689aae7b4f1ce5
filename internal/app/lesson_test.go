package app

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleLesson = `---
title: Counting with Loops
difficulty: beginner
tags: [loops, print]
author: jane
---

## Problem Statement

Print the numbers 0 through 4, one per line.

## Description

A first look at ` + "`for`" + ` loops and ` + "`range`" + `.

## Milestones

1. Call print once
2. Wrap the call in a loop
3. Use range with the right bound

## Example Output

` + "```" + `
0
1
2
3
4
` + "```" + `

## Common Mistakes

- Using range(4) and stopping at 3
- Printing the loop variable plus one

## Lesson Goals

- Understand range bounds
- Read a traceback

## Agent Input

` + "```python" + `
print(0)
` + "```" + `

## User Input

` + "```python" + `
` + "```" + `
`

func TestParseLesson_FullDocument(t *testing.T) {
	lesson, err := ParseLesson("loops-01", []byte(sampleLesson))
	if err != nil {
		t.Fatalf("ParseLesson: %v", err)
	}

	if lesson.Title != "Counting with Loops" {
		t.Fatalf("Title = %q", lesson.Title)
	}
	if lesson.Difficulty != "beginner" {
		t.Fatalf("Difficulty = %q", lesson.Difficulty)
	}
	if len(lesson.Tags) != 2 || lesson.Tags[0] != "loops" {
		t.Fatalf("Tags = %v", lesson.Tags)
	}
	if lesson.ProblemStatement != "Print the numbers 0 through 4, one per line." {
		t.Fatalf("ProblemStatement = %q", lesson.ProblemStatement)
	}
	if len(lesson.Milestones) != 3 {
		t.Fatalf("Milestones = %+v, want 3", lesson.Milestones)
	}
	if lesson.Milestones[1].Number != 2 || lesson.Milestones[1].Content != "Wrap the call in a loop" {
		t.Fatalf("Milestones[1] = %+v", lesson.Milestones[1])
	}
	if len(lesson.CommonMistakes) != 2 {
		t.Fatalf("CommonMistakes = %v", lesson.CommonMistakes)
	}
	if len(lesson.LessonGoals) != 2 || lesson.LessonGoals[0] != "Understand range bounds" {
		t.Fatalf("LessonGoals = %v", lesson.LessonGoals)
	}
	if lesson.AgentCode != "print(0)" {
		t.Fatalf("AgentCode = %q", lesson.AgentCode)
	}
	if lesson.UserCode != "" {
		t.Fatalf("UserCode = %q, want empty", lesson.UserCode)
	}
	if lesson.ExampleOutput == "" {
		t.Fatalf("ExampleOutput empty")
	}
}

func TestParseLesson_MissingSectionsDefaultEmpty(t *testing.T) {
	lesson, err := ParseLesson("bare", []byte("---\ntitle: Bare\n---\n\n## Problem Statement\n\nDo the thing.\n"))
	if err != nil {
		t.Fatalf("ParseLesson: %v", err)
	}
	if lesson.Title != "Bare" {
		t.Fatalf("Title = %q", lesson.Title)
	}
	if lesson.AgentCode != "" || lesson.UserCode != "" {
		t.Fatalf("starter code = %q/%q, want empty", lesson.AgentCode, lesson.UserCode)
	}
	if lesson.Milestones != nil || lesson.LessonGoals != nil {
		t.Fatalf("missing list sections should stay nil")
	}
}

func TestParseLesson_NoFrontmatter(t *testing.T) {
	lesson, err := ParseLesson("plain", []byte("## Problem Statement\n\nJust a body.\n"))
	if err != nil {
		t.Fatalf("ParseLesson: %v", err)
	}
	if lesson.Title != "" {
		t.Fatalf("Title = %q, want empty", lesson.Title)
	}
	if lesson.ProblemStatement != "Just a body." {
		t.Fatalf("ProblemStatement = %q", lesson.ProblemStatement)
	}
}

func TestParseLesson_UnterminatedFrontmatter(t *testing.T) {
	if _, err := ParseLesson("broken", []byte("---\ntitle: nope\n")); err == nil {
		t.Fatalf("ParseLesson accepted unterminated frontmatter")
	}
}

func TestListLessons_SortedSummaries(t *testing.T) {
	dir := t.TempDir()
	write := func(name, title string) {
		content := "---\ntitle: " + title + "\ndifficulty: easy\n---\n\n## Problem Statement\n\nx\n"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("b-lesson.md", "Second")
	write("a-lesson.md", "First")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	lessons, err := ListLessons(dir)
	if err != nil {
		t.Fatalf("ListLessons: %v", err)
	}
	if len(lessons) != 2 {
		t.Fatalf("len = %d, want 2", len(lessons))
	}
	if lessons[0].ID != "a-lesson" || lessons[1].ID != "b-lesson" {
		t.Fatalf("order = %s, %s", lessons[0].ID, lessons[1].ID)
	}
	if lessons[0].Title != "First" {
		t.Fatalf("Title = %q", lessons[0].Title)
	}
}
