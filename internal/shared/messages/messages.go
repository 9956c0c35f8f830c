package messages

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

//go:embed notifications.json
var defaultMessages []byte

type MessageText struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Body     string `json:"body"`
}

// MerchantVariant replaces the category body when a merchant name contains Match.
type MerchantVariant struct {
	Match string `json:"match"`
	Body  string `json:"body"`
}

type CategoryMessage struct {
	MessageText
	Merchants []MerchantVariant `json:"merchants,omitempty"`
}

// BodyFor returns the first merchant variant contained in any of the names, or the default body.
// Variants are tried in order, so earlier variants win. Matching is case-sensitive.
func (c CategoryMessage) BodyFor(names []string) string {
	for _, v := range c.Merchants {
		for _, name := range names {
			if strings.Contains(name, v.Match) {
				return v.Body
			}
		}
	}
	return c.Body
}

type Messages struct {
	Unreviewed         MessageText     `json:"unreviewed"`
	GeneralMerchandise CategoryMessage `json:"general_merchandise"`
	FoodAndDrink       CategoryMessage `json:"food_and_drink"`
	PersonalCare       CategoryMessage `json:"personal_care"`
	Entertainment      CategoryMessage `json:"entertainment"`
	Travel             CategoryMessage `json:"travel"`
}

var (
	loaded   Messages
	loadOnce sync.Once
	loadErr  error
)

// Load reads the notifications JSON file and caches the result.
// An empty path uses the built-in texts. Safe to call from multiple goroutines.
func Load(path string) (*Messages, error) {
	loadOnce.Do(func() {
		data := defaultMessages
		if path != "" {
			var err error
			data, err = os.ReadFile(path)
			if err != nil {
				loadErr = fmt.Errorf("failed to read messages file: %w", err)
				return
			}
		}
		m, err := Parse(data)
		if err != nil {
			loadErr = err
			return
		}
		loaded = *m
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return &loaded, nil
}

// Default returns the built-in texts without touching the Load cache.
func Default() *Messages {
	m, err := Parse(defaultMessages)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse decodes a notifications document and checks the fallback text is present.
func Parse(data []byte) (*Messages, error) {
	var m Messages
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse messages file: %w", err)
	}
	if m.Unreviewed.Title == "" || m.Unreviewed.Body == "" {
		return nil, fmt.Errorf("messages file is missing the unreviewed fallback text")
	}
	return &m, nil
}
