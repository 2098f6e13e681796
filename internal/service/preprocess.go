package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/supergrader/grader-api/internal/config"
)

// includeExtensions lists source extensions passed to the evaluator in full.
var includeExtensions = map[string]bool{
	".c": true, ".cc": true, ".cpp": true, ".cxx": true, ".h": true, ".hpp": true,
	".py": true, ".java": true, ".js": true, ".ts": true, ".rs": true, ".go": true,
}

// specialFiles are kept in full regardless of extension.
var specialFiles = map[string]bool{
	"README": true, "Makefile": true, "CMakeLists": true, "package": true,
}

var testPatterns = []string{
	"test_", "_test", "test.", ".test.", "spec.", ".spec.", "tests/", "test/",
}

var testDirNames = map[string]bool{
	"test": true, "tests": true, "spec": true, "specs": true, "__tests__": true,
}

// testNamePatterns match test declarations across the languages students
// commonly submit in.
var testNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)def test_(\w+)`),
	regexp.MustCompile(`(?m)func Test(\w+)`),
	regexp.MustCompile(`(?m)TEST\s*\(\s*(\w+)`),
	regexp.MustCompile(`(?m)@Test.*\s+(?:public\s+)?void\s+(\w+)`),
	regexp.MustCompile(`(?m)it\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`),
	regexp.MustCompile(`(?m)test\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`),
	regexp.MustCompile(`(?m)describe\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`),
}

const testSummaryKey = "__TEST_FILES_SUMMARY__"

// Preprocessor condenses a raw submission before it reaches the evaluator.
type Preprocessor interface {
	Preprocess(ctx context.Context, courseID, assignmentID, submissionID string, sourceFiles map[string]string) map[string]string
}

type submissionPreprocessor struct {
	cfg    config.PreprocessConfig
	redis  *redis.Client
	logger zerolog.Logger
}

// NewPreprocessor builds the default preprocessor. The Redis client is
// optional; without it every call recomputes.
func NewPreprocessor(cfg config.PreprocessConfig, redisClient *redis.Client, logger zerolog.Logger) Preprocessor {
	return &submissionPreprocessor{
		cfg:    cfg,
		redis:  redisClient,
		logger: logger.With().Str("component", "preprocessor").Logger(),
	}
}

// Preprocess keeps known source files in full, truncates oversized content,
// summarises everything else and collapses test files into one entry. Results
// are cached per submission; cache failures degrade to recompute.
func (p *submissionPreprocessor) Preprocess(ctx context.Context, courseID, assignmentID, submissionID string, sourceFiles map[string]string) map[string]string {
	cacheKey := fmt.Sprintf("preprocess:%s:%s:%s", courseID, assignmentID, submissionID)

	if cached, ok := p.cacheGet(ctx, cacheKey); ok {
		return cached
	}

	processed := make(map[string]string, len(sourceFiles))
	var testFiles []string

	names := make([]string, 0, len(sourceFiles))
	for name := range sourceFiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content := sourceFiles[name]

		if len(content) > p.cfg.MaxFileChars {
			processed[name] = fmt.Sprintf("[File too large: %d characters, truncated to first %d]\n\n%s...",
				len(content), p.cfg.MaxFileChars, content[:p.cfg.MaxFileChars])
			continue
		}

		base := strings.TrimSuffix(path.Base(name), path.Ext(name))
		ext := strings.ToLower(path.Ext(name))

		if specialFiles[base] || includeExtensions[ext] {
			if isTestFile(name) {
				testFiles = append(testFiles, name)
			} else {
				processed[name] = content
			}
		} else {
			processed[name] = summarizeFile(name, content)
		}
	}

	if len(testFiles) > 0 {
		processed[testSummaryKey] = summarizeTestFiles(testFiles, sourceFiles)
	}

	p.cacheSet(ctx, cacheKey, processed)
	return processed
}

func (p *submissionPreprocessor) cacheGet(ctx context.Context, key string) (map[string]string, bool) {
	if p.redis == nil {
		return nil, false
	}

	raw, err := p.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("preprocess cache read failed")
		}
		return nil, false
	}

	var cached map[string]string
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("preprocess cache entry corrupt")
		return nil, false
	}
	return cached, true
}

func (p *submissionPreprocessor) cacheSet(ctx context.Context, key string, processed map[string]string) {
	if p.redis == nil {
		return
	}

	raw, err := json.Marshal(processed)
	if err != nil {
		return
	}

	ttl := p.cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := p.redis.Set(ctx, key, raw, ttl).Err(); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("preprocess cache write failed")
	}
}

// isTestFile matches common test naming and directory conventions. Files
// named unit_tests.* stay in full because rubric items often inspect them.
func isTestFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "unit_tests.h") || strings.HasSuffix(lower, "unit_tests.cpp") {
		return false
	}

	for _, pattern := range testPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	parts := strings.Split(name, "/")
	for _, dir := range parts[:len(parts)-1] {
		if testDirNames[strings.ToLower(dir)] {
			return true
		}
	}
	return false
}

func summarizeFile(name, content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")

	builder := strings.Builder{}
	fmt.Fprintf(&builder, "[File Summary: %s]\n", name)
	fmt.Fprintf(&builder, "Type: %s, Size: %s, Lines: %d\n",
		mimetype.Detect([]byte(content)).String(), formatSize(len(content)), len(lines))

	if mimetype.Detect([]byte(content)).Is("application/octet-stream") {
		builder.WriteString("Binary file, content omitted.\n")
		return builder.String()
	}

	preview := len(lines)
	if preview > 5 {
		preview = 5
	}
	if preview > 0 {
		fmt.Fprintf(&builder, "Preview (first %d lines):\n", preview)
		for _, line := range lines[:preview] {
			if len(line) > 80 {
				fmt.Fprintf(&builder, "  %s...\n", line[:80])
			} else {
				fmt.Fprintf(&builder, "  %s\n", line)
			}
		}
	}
	return builder.String()
}

func summarizeTestFiles(testFiles []string, sourceFiles map[string]string) string {
	builder := strings.Builder{}
	builder.WriteString("[TEST FILES SUMMARY]\n")
	fmt.Fprintf(&builder, "Total test files found: %d\n\n", len(testFiles))

	for _, name := range testFiles {
		content := sourceFiles[name]
		lines := strings.Split(strings.TrimSpace(content), "\n")
		testNames := extractTestNames(content)

		fmt.Fprintf(&builder, "- %s (%d lines)\n", name, len(lines))
		if len(testNames) > 0 {
			shown := testNames
			if len(shown) > 5 {
				shown = shown[:5]
			}
			fmt.Fprintf(&builder, "  Tests found: %s", strings.Join(shown, ", "))
			if len(testNames) > 5 {
				fmt.Fprintf(&builder, " ... and %d more", len(testNames)-5)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString("\nNote: Test files are summarized to save context space. ")
	builder.WriteString("Their presence indicates the student has written tests for their code.")
	return builder.String()
}

// extractTestNames pulls test identifiers out of a file, deduplicated in
// first-seen order.
func extractTestNames(content string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, pattern := range testNamePatterns {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			if !seen[match[1]] {
				seen[match[1]] = true
				names = append(names, match[1])
			}
		}
	}
	return names
}

func formatSize(bytes int) string {
	size := float64(bytes)
	for _, unit := range []string{"B", "KB", "MB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f GB", size)
}
