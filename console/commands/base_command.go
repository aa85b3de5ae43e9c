package commands

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

//go:embed stubs
var stubs embed.FS

// BaseCommand provides common functionality for all commands
type BaseCommand struct {
	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

func (b *BaseCommand) in() io.Reader {
	if b.Stdin != nil {
		return b.Stdin
	}
	return os.Stdin
}

func (b *BaseCommand) out() io.Writer {
	if b.Stdout != nil {
		return b.Stdout
	}
	return os.Stdout
}

// AskRequired prompts for required input (won't accept empty)
func (b *BaseCommand) AskRequired(prompt string) string {
	scanner := bufio.NewScanner(b.in())
	for {
		fmt.Fprintf(b.out(), "%s: ", prompt)
		if !scanner.Scan() {
			return ""
		}

		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
		fmt.Fprintln(b.out(), "❌ This field is required. Please try again.")
	}
}

// GetModuleName reads module name from go.mod
func (b *BaseCommand) GetModuleName() (string, error) {
	file, err := os.Open("go.mod")
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				return parts[1], nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("module not found in go.mod")
}

var wordSeparators = regexp.MustCompile(`[_\-\s]+`)

// FormatStructName turns blog_post, blog-post or "blog post" into BlogPost.
func (b *BaseCommand) FormatStructName(name string) string {
	var result strings.Builder
	for _, word := range wordSeparators.Split(name, -1) {
		if len(word) > 0 {
			result.WriteString(strings.ToUpper(word[:1]) + word[1:])
		}
	}
	return result.String()
}

func (b *BaseCommand) PrintSuccess(message string) {
	fmt.Fprintf(b.out(), "✅ %s\n", message)
}

func (b *BaseCommand) PrintInfo(message string) {
	fmt.Fprintf(b.out(), "📝 %s\n", message)
}

// GenerateFromStub renders the embedded stub at stubPath into targetPath.
func (b *BaseCommand) GenerateFromStub(stubPath, targetPath string, data any) error {
	stubContent, err := stubs.ReadFile(filepath.ToSlash(filepath.Join("stubs", stubPath)))
	if err != nil {
		return fmt.Errorf("stub template not found: %s", stubPath)
	}

	tmpl, err := template.New(filepath.Base(stubPath)).Parse(string(stubContent))
	if err != nil {
		return fmt.Errorf("failed to parse stub template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	file, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create target file: %w", err)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}
