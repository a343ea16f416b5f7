package deck

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go-pinyin/internal/pinyin"

	"github.com/tidwall/gjson"
)

// Section separator: line made of 3+ dashes.
var separatorRe = regexp.MustCompile(`^-{3,}[ \t]*$`)

// LoadQuestions loads questions from a list of paths (files or directories).
// Files ending in .json are read as JSON decks, everything else as text decks.
func LoadQuestions(paths []string) ([]Question, error) {
	var questions []Question

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %s: %w", path, err)
		}

		if info.IsDir() {
			files, err := os.ReadDir(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read dir %s: %w", path, err)
			}
			for _, entry := range files {
				if entry.IsDir() {
					continue
				}
				qs, err := loadFile(filepath.Join(path, entry.Name()))
				if err != nil {
					return nil, err
				}
				questions = append(questions, qs...)
			}
		} else {
			qs, err := loadFile(path)
			if err != nil {
				return nil, err
			}
			questions = append(questions, qs...)
		}
	}

	return questions, nil
}

func loadFile(path string) ([]Question, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		return parseJSON(data, path)
	}
	return parseText(file, path)
}

// parseText reads one question per line:
//
//	熊猫 xiong3 mao1
//	吗 ma5
//
// Blank lines, # comments and --- separators are skipped.
func parseText(r io.Reader, source string) ([]Question, error) {
	var questions []Question

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || separatorRe.MatchString(line) {
			continue
		}

		fields := strings.Fields(line)
		q := Question{
			Hanzi:  splitHanzi(fields[0]),
			Source: source,
		}
		for _, field := range fields[1:] {
			syl, err := pinyin.Parse(field)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
			}
			q.Pinyin = append(q.Pinyin, syl.Text)
			q.Tones = append(q.Tones, syl.Tone)
		}

		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
		questions = append(questions, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan file %s: %w", source, err)
	}

	return questions, nil
}

// parseJSON accepts either {"questions": [...]} or a bare array. Each entry
// has "hanzi" (array or string), "pinyin" and optionally "tones"; without
// "tones" the tone numbers are taken from the syllables themselves.
func parseJSON(data []byte, source string) ([]Question, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON in %s", source)
	}

	list := gjson.GetBytes(data, "questions")
	if !list.Exists() {
		list = gjson.ParseBytes(data)
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%s: expected a list of questions", source)
	}

	var questions []Question
	var parseErr error

	list.ForEach(func(idx, entry gjson.Result) bool {
		q := Question{Source: source}

		hanzi := entry.Get("hanzi")
		if hanzi.IsArray() {
			for _, h := range hanzi.Array() {
				q.Hanzi = append(q.Hanzi, h.String())
			}
		} else {
			q.Hanzi = splitHanzi(hanzi.String())
		}

		tones := entry.Get("tones")
		for _, p := range entry.Get("pinyin").Array() {
			syl, err := pinyin.Parse(p.String())
			if err != nil {
				parseErr = fmt.Errorf("%s: question %d: %w", source, idx.Int(), err)
				return false
			}
			q.Pinyin = append(q.Pinyin, syl.Text)
			if !tones.Exists() {
				q.Tones = append(q.Tones, syl.Tone)
			}
		}
		for _, t := range tones.Array() {
			tone := pinyin.Tone(t.Int())
			if tone == 5 {
				tone = pinyin.Neutral
			}
			q.Tones = append(q.Tones, tone)
		}

		if err := q.Validate(); err != nil {
			parseErr = fmt.Errorf("%s: %w", source, err)
			return false
		}
		questions = append(questions, q)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return questions, nil
}

func splitHanzi(word string) []string {
	var out []string
	for _, r := range word {
		out = append(out, string(r))
	}
	return out
}
