package messages

import "testing"

func TestDefault(t *testing.T) {
	m := Default()

	if m.Unreviewed.Title != "Unreviewed Transactions" {
		t.Errorf("Unreviewed.Title = %q", m.Unreviewed.Title)
	}
	if m.Unreviewed.Body != "You have unreviewed transactions" {
		t.Errorf("Unreviewed.Body = %q", m.Unreviewed.Body)
	}

	for name, c := range map[string]CategoryMessage{
		"general_merchandise": m.GeneralMerchandise,
		"food_and_drink":      m.FoodAndDrink,
		"personal_care":       m.PersonalCare,
		"entertainment":       m.Entertainment,
		"travel":              m.Travel,
	} {
		if c.Title == "" || c.Body == "" {
			t.Errorf("%s is missing title or body", name)
		}
	}
	if len(m.GeneralMerchandise.Merchants) != 2 || len(m.FoodAndDrink.Merchants) != 2 {
		t.Error("expected two merchant variants for general merchandise and food and drink")
	}
}

func TestCategoryMessage_BodyFor(t *testing.T) {
	c := CategoryMessage{
		MessageText: MessageText{Title: "General Merchandise", Body: "default"},
		Merchants: []MerchantVariant{
			{Match: "Target", Body: "target"},
			{Match: "Amazon", Body: "amazon"},
		},
	}

	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"no names", nil, "default"},
		{"no match", []string{"Walmart"}, "default"},
		{"amazon", []string{"Amazon Marketplace"}, "amazon"},
		{"substring", []string{"TARGET STORE Target T-1234"}, "target"},
		{"case sensitive", []string{"TARGET T-1234", "amazon.com"}, "default"},
		{"first variant wins", []string{"Amazon", "Target"}, "target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.BodyFor(tt.names); got != tt.want {
				t.Errorf("BodyFor(%v) = %q, want %q", tt.names, got, tt.want)
			}
		})
	}
}

func TestParse_RequiresFallback(t *testing.T) {
	if _, err := Parse([]byte(`{"travel":{"title":"Travel","body":"x"}}`)); err == nil {
		t.Error("Parse() accepted a document without the unreviewed fallback")
	}
	if _, err := Parse([]byte(`{`)); err == nil {
		t.Error("Parse() accepted malformed JSON")
	}
}
