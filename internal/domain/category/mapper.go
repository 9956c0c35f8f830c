package category

// detailedOverrides maps provider detailed codes to a budget category.
// A match here wins over the primary code.
var detailedOverrides = map[string]BudgetCategory{
	"FOOD_AND_DRINK_COFFEE":                        EatingOut,
	"FOOD_AND_DRINK_FAST_FOOD":                     EatingOut,
	"FOOD_AND_DRINK_RESTAURANTS":                   EatingOut,
	"FOOD_AND_DRINK_VENDING_MACHINES":              EatingOut,
	"FOOD_AND_DRINK_OTHER_FOOD_AND_DRINK":          EatingOut,
	"FOOD_AND_DRINK_BEER_WINE_AND_LIQUOR":          Entertainment,
	"FOOD_AND_DRINK_GROCERIES":                     Groceries,
	"GENERAL_SERVICES_INSURANCE":                   Insurance,
	"PERSONAL_CARE_GYMS_AND_FITNESS_CENTERS":       Subscriptions,
	"PERSONAL_CARE_LAUNDRY_AND_DRY_CLEANING":       RentAndUtilities,
	"TRANSFER_OUT_INVESTMENT_AND_RETIREMENT_FUNDS": Savings,
	"TRANSFER_OUT_SAVINGS":                         Savings,
}

// primaryRemap rewrites provider primary codes that have no budget category of their own.
var primaryRemap = map[string]BudgetCategory{
	"GOVERNMENT_AND_NON_PROFIT": BankFees,
	"HOME_IMPROVEMENT":          GeneralMerchandise,
	"MEDICAL":                   Other,
}

// MapCategory classifies a provider category pair into a budget category.
// Detailed overrides are checked first, then the primary code is remapped or
// passed through. Codes that name no budget category map to OTHER.
func MapCategory(detailed, primary string) BudgetCategory {
	if c, ok := detailedOverrides[detailed]; ok {
		return c
	}
	if c, ok := primaryRemap[primary]; ok {
		return c
	}
	if c := BudgetCategory(primary); c.IsValid() {
		return c
	}
	return Other
}
