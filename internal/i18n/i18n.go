// Package i18n maps outcome message keys to translated strings. The
// store and services return language-neutral keys; the CLI and HTTP
// surfaces format them here.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Supported languages, in matcher priority order. English is the
// fallback for unmatched tags.
var supported = []language.Tag{
	language.English,
	language.TraditionalChinese,
}

var matcher = language.NewMatcher(supported)

var catalogs = map[language.Tag]map[string]string{
	language.English: {
		"import.success":        "Imported %d prompts (%d skipped)",
		"import.invalid_format": "Import failed: the file is not a valid prompt export",
		"import.failed":         "Import failed: the file could not be read",
		"export.success":        "Exported %d prompts to %s",
		"export.failed":         "Export failed",
		"prompt.created":        "Prompt created",
		"prompt.updated":        "Prompt updated",
		"prompt.deleted":        "Prompt deleted",
		"prompt.reordered":      "Prompt order saved",
		"prompt.not_found":      "No prompt with that id",
		"prompt.copied":         "Prompt content copied to clipboard",
		"prompt.invalid":        "Title and content are required",
	},
	language.TraditionalChinese: {
		"import.success":        "已匯入 %d 筆提示（略過 %d 筆）",
		"import.invalid_format": "匯入失敗：檔案不是有效的提示匯出檔",
		"import.failed":         "匯入失敗：無法讀取檔案",
		"export.success":        "已匯出 %d 筆提示至 %s",
		"export.failed":         "匯出失敗",
		"prompt.created":        "已建立提示",
		"prompt.updated":        "已更新提示",
		"prompt.deleted":        "已刪除提示",
		"prompt.reordered":      "已儲存提示順序",
		"prompt.not_found":      "找不到該 id 的提示",
		"prompt.copied":         "已將提示內容複製到剪貼簿",
		"prompt.invalid":        "標題與內容為必填",
	},
}

// Printer formats message keys for one resolved language.
type Printer struct {
	tag language.Tag
}

// NewPrinter resolves the requested language against the supported set.
// Unparsable or unsupported requests fall back to English.
func NewPrinter(requested string) *Printer {
	tag, err := language.Parse(requested)
	if err != nil {
		return &Printer{tag: language.English}
	}
	_, idx, _ := matcher.Match(tag)
	return &Printer{tag: supported[idx]}
}

// Language returns the resolved language tag.
func (p *Printer) Language() language.Tag {
	return p.tag
}

// Message formats the string for the given key. Unknown keys return the
// key itself so a missing translation is visible rather than silent.
func (p *Printer) Message(key string, args ...interface{}) string {
	catalog := catalogs[p.tag]
	format, ok := catalog[key]
	if !ok {
		format, ok = catalogs[language.English][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
