package domain

import "strings"

// Tariff is the pricing tier a student is enrolled under. The canonical set is
// closed; anything else is a raw label that slipped in through import and is
// surfaced as-is until corrected.
type Tariff string

const (
	TariffGroup      Tariff = "group"
	TariffMiniGroup  Tariff = "mini-group"
	TariffIndividual Tariff = "individual"
)

func (t Tariff) Known() bool {
	switch t {
	case TariffGroup, TariffMiniGroup, TariffIndividual:
		return true
	}
	return false
}

func (t Tariff) DisplayName() string {
	switch t {
	case TariffGroup:
		return "Групповой"
	case TariffMiniGroup:
		return "Эксперт"
	case TariffIndividual:
		return "ВИП"
	}
	return string(t)
}

// NormalizeTariff maps a free-form tariff label to a canonical value using
// case-insensitive substring matching. Unrecognized labels pass through
// unchanged so the row can still be imported and fixed up later.
func NormalizeTariff(label string) Tariff {
	normalized := strings.ToLower(strings.TrimSpace(label))
	switch {
	// "мини" first: "мини-группа" also contains "груп"
	case strings.Contains(normalized, "эксперт") || strings.Contains(normalized, "мини") || normalized == "mini-group":
		return TariffMiniGroup
	case strings.Contains(normalized, "вип") || strings.Contains(normalized, "индив") || normalized == "individual":
		return TariffIndividual
	case strings.Contains(normalized, "груп") || normalized == "group":
		return TariffGroup
	}
	return Tariff(strings.TrimSpace(label))
}
