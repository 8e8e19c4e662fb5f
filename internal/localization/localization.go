// Package localization provides functionality for internationalization (i18n)
// of server-authored system texts (match found, partner left, sweep notices).
// Translations are loaded from JSON files named by language code; built-in
// English strings serve as the fallback.
package localization

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const defaultLang = "en"

// builtin covers every key the realtime core emits, so the service works
// without a locales directory on disk.
var builtin = map[string]string{
	"match_found":     "Partner found! Say hello.",
	"partner_skipped": "Your partner skipped the chat.",
	"partner_left":    "Your partner left the conversation.",
	"chat_ended":      "The chat has ended.",
	"messages_swept":  "Expired messages were removed.",
	"chat_emptied":    "The chat history was cleared.",
	"blocked":         "You can no longer message this user.",
}

// Localizer manages the translations for the application.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer creates a Localizer seeded with the built-in English strings.
func NewLocalizer() *Localizer {
	return &Localizer{
		translations: map[string]map[string]string{defaultLang: builtin},
	}
}

// LoadDir adds translations from a directory of JSON files, one per
// language ("uk.json", "de.json", ...). Later loads override earlier keys.
func (l *Localizer) LoadDir(path string) error {
	files, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		lang := strings.TrimSuffix(file.Name(), ".json")

		data, err := os.ReadFile(filepath.Join(path, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file.Name(), err)
		}

		var strs map[string]string
		if err := json.Unmarshal(data, &strs); err != nil {
			return fmt.Errorf("failed to parse %s: %w", file.Name(), err)
		}

		l.mu.Lock()
		if l.translations[lang] == nil {
			l.translations[lang] = make(map[string]string)
		}
		for k, v := range strs {
			l.translations[lang][k] = v
		}
		l.mu.Unlock()
	}
	return nil
}

// Get returns the string for key in lang, falling back to English and
// finally to the key itself.
func (l *Localizer) Get(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if strs, ok := l.translations[lang]; ok {
		if v, ok := strs[key]; ok {
			return v
		}
	}
	if v, ok := l.translations[defaultLang][key]; ok {
		return v
	}
	return key
}
