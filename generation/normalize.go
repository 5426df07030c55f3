package generation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/studyforge/core"
)

// NormalizeSummary returns the summary text. It accepts a plain string or
// an object with a summary field.
func NormalizeSummary(v Value) string {
	switch d := v.Data.(type) {
	case string:
		return strings.TrimSpace(d)
	case map[string]any:
		return firstString(d, "summary", "摘要", "content")
	}
	return ""
}

// NormalizeHighlights returns a list of highlight sentences.
func NormalizeHighlights(v Value) []string {
	return highlights(v.Data)
}

func highlights(data any) []string {
	switch d := data.(type) {
	case []any:
		out := make([]string, 0, len(d))
		for _, item := range d {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				h := firstString(it, "highlight", "title", "亮点")
				desc := firstString(it, "description", "content", "说明")
				switch {
				case h != "" && desc != "":
					out = append(out, h+": "+desc)
				case h != "":
					out = append(out, h)
				case desc != "":
					out = append(out, desc)
				}
			}
		}
		return out
	case map[string]any:
		for _, key := range []string{"highlights", "content_highlights", "亮点"} {
			if arr, ok := d[key].([]any); ok {
				return highlights(arr)
			}
		}
	case string:
		return listLines(d)
	}
	return []string{}
}

var keywordSeparators = regexp.MustCompile(`[,，、;；\n]+`)

// NormalizeKeywords returns a list of keywords.
func NormalizeKeywords(v Value) []string {
	switch d := v.Data.(type) {
	case []any:
		return stringItems(d)
	case map[string]any:
		if arr, ok := d["keywords"].([]any); ok {
			return stringItems(arr)
		}
		if arr, ok := d["关键词"].([]any); ok {
			return stringItems(arr)
		}
	case string:
		out := []string{}
		for _, k := range keywordSeparators.Split(d, -1) {
			if k = strings.TrimSpace(trimListMarker(k)); k != "" {
				out = append(out, k)
			}
		}
		return out
	}
	return []string{}
}

// NormalizeLearningGuide passes the decoded study guide through unchanged.
// Its shape is left to the model and rendered as-is by clients.
func NormalizeLearningGuide(v Value) any {
	if v.Data == nil {
		return map[string]any{}
	}
	return v.Data
}

var chapterHeading = regexp.MustCompile(`(?i)第?([一二三四五六七八九十0-9]+)[章节段]|^\s*(?:#+\s*)?(?:chapter|section|part)\s+[0-9]+`)

// NormalizeChapters returns ordered chapters. Arrays of objects map field by
// field; markdown text is split at chapter headings.
func NormalizeChapters(v Value) []core.Chapter {
	return chapters(v.Data)
}

func chapters(data any) []core.Chapter {
	switch d := data.(type) {
	case []any:
		out := make([]core.Chapter, 0, len(d))
		for i, item := range d {
			m, ok := item.(map[string]any)
			if !ok {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, core.Chapter{ID: i + 1, Title: strings.TrimSpace(s)})
				}
				continue
			}
			id := intField(m, "id")
			if id == 0 {
				id = i + 1
			}
			title := firstString(m, "title", "章节名", "name")
			if title == "" {
				title = fmt.Sprintf("Chapter %d", i+1)
			}
			out = append(out, core.Chapter{
				ID:      id,
				Title:   title,
				Time:    firstString(m, "time", "开始时间", "start"),
				Summary: firstString(m, "summary", "概要", "description"),
			})
		}
		return out
	case map[string]any:
		for _, key := range []string{"chapters", "章节"} {
			if arr, ok := d[key].([]any); ok {
				return chapters(arr)
			}
		}
	case string:
		return markdownChapters(d)
	}
	return []core.Chapter{}
}

func markdownChapters(text string) []core.Chapter {
	out := []core.Chapter{}
	var cur *core.Chapter
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if chapterHeading.MatchString(line) {
			out = append(out, core.Chapter{ID: len(out) + 1, Title: line})
			cur = &out[len(out)-1]
			continue
		}
		if cur == nil || line == "" {
			continue
		}
		if cur.Summary != "" {
			cur.Summary += " "
		}
		cur.Summary += line
	}
	return out
}

// NormalizeKnowledgePoints returns knowledge points with prerequisite lists.
func NormalizeKnowledgePoints(v Value) []core.KnowledgePoint {
	items, ok := v.Data.([]any)
	if !ok {
		if m, isMap := v.Data.(map[string]any); isMap {
			items, ok = m["knowledgePoints"].([]any)
		}
	}
	if !ok {
		return []core.KnowledgePoint{}
	}

	out := make([]core.KnowledgePoint, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, core.KnowledgePoint{
			Name:          firstString(m, "name", "title", "知识点名称", "知识点"),
			Description:   firstString(m, "description", "content", "知识点说明", "内容"),
			Prerequisites: prerequisites(m),
		})
	}
	return out
}

func prerequisites(m map[string]any) []string {
	for _, key := range []string{"prerequisites", "前置知识点"} {
		switch p := m[key].(type) {
		case []any:
			return stringItems(p)
		case string:
			p = strings.TrimSpace(p)
			if p == "" || p == "无" || strings.EqualFold(p, "none") {
				return []string{}
			}
			return []string{p}
		}
	}
	return []string{}
}

var referencePattern = regexp.MustCompile(
	`(?:\d+\.\s*)?\*\*(?:《)?(.+?)(?:》)?\*\*\s*-\s*\*\*(?:作者|Author)\*\*:\s*([\x{4e00}-\x{9fa5}A-Za-z0-9.,&\s]+?)\s*-\s*\*\*(?:简介|Summary)\*\*:[^\n]*\s*-\s*\*\*(?:链接|Link)\*\*:\s*(https?://\S+)`)

// NormalizeReferences returns references that carry both a title and a URL.
// It accepts literature search results, arrays of objects, or markdown.
func NormalizeReferences(v Value) []core.Reference {
	out := []core.Reference{}
	add := func(r core.Reference) {
		if r.Title != "" && r.URL != "" {
			out = append(out, r)
		}
	}

	var text string
	switch d := v.Data.(type) {
	case []core.Work:
		for _, w := range d {
			add(core.Reference{Title: w.Title, Author: w.Author, URL: w.URL})
		}
		return out
	case []any:
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				add(core.Reference{
					Title:  firstString(m, "title"),
					Author: firstString(m, "author"),
					URL:    firstString(m, "url", "URL"),
				})
			}
		}
		return out
	case string:
		text = d
	case map[string]any:
		text = firstString(d, "content")
	}

	for _, m := range referencePattern.FindAllStringSubmatch(text, -1) {
		add(core.Reference{
			Title:  strings.TrimSpace(m[1]),
			Author: strings.TrimSpace(m[2]),
			URL:    strings.TrimSpace(m[3]),
		})
	}
	return out
}

// NormalizeQuiz builds the quiz from the multiple-choice and essay outputs.
func NormalizeQuiz(mc, essay Value) core.Quiz {
	return core.Quiz{
		MultipleChoice: multipleChoice(namedArray(mc.Data, "multipleChoice", "questions", "选择题")),
		Essay:          essayQuestions(namedArray(essay.Data, "essay", "questions", "简答题")),
	}
}

func multipleChoice(items []any) []core.MultipleChoiceQuestion {
	out := make([]core.MultipleChoiceQuestion, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q := core.MultipleChoiceQuestion{
			Question:    firstString(m, "question", "题目", "stem"),
			Options:     options(m),
			Answer:      firstString(m, "answer", "correct", "答案"),
			Explanation: firstString(m, "explanation", "analysis", "解析"),
		}
		if q.Question == "" {
			continue
		}
		out = append(out, q)
	}
	return out
}

// options accepts either a list or a letter-keyed object such as {"A": "..."}.
func options(m map[string]any) []string {
	for _, key := range []string{"options", "choices", "选项"} {
		switch o := m[key].(type) {
		case []any:
			return stringItems(o)
		case map[string]any:
			out := make([]string, 0, len(o))
			for _, letter := range []string{"A", "B", "C", "D", "E", "F"} {
				if s, ok := o[letter].(string); ok {
					out = append(out, letter+". "+s)
				}
			}
			return out
		}
	}
	return []string{}
}

func essayQuestions(items []any) []core.EssayQuestion {
	out := make([]core.EssayQuestion, 0, len(items))
	for _, item := range items {
		var q core.EssayQuestion
		switch it := item.(type) {
		case map[string]any:
			q = core.EssayQuestion{
				Question: firstString(it, "question", "essay", "题目"),
				Answer:   firstString(it, "answer", "referenceAnswer", "答案"),
			}
		case string:
			q = core.EssayQuestion{Question: strings.TrimSpace(it)}
		}
		if q.Question != "" {
			out = append(out, q)
		}
	}
	return out
}

// namedArray returns data itself when it is an array, or the first array
// found under keys when it is an object.
func namedArray(data any, keys ...string) []any {
	switch d := data.(type) {
	case []any:
		return d
	case map[string]any:
		for _, key := range keys {
			if arr, ok := d[key].([]any); ok {
				return arr
			}
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return 0
}

func stringItems(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)、])\s*`)

func trimListMarker(s string) string {
	return listMarker.ReplaceAllString(s, "")
}

func listLines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(trimListMarker(line)); line != "" {
			out = append(out, line)
		}
	}
	return out
}
