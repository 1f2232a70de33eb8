package accounts

// SubCategory refines an AccountType for statement grouping.
type SubCategory string

const (
	SubOther SubCategory = "OTHER"

	SubBankCash             SubCategory = "BANK_CASH"
	SubAccountsReceivable   SubCategory = "ACCOUNTS_RECEIVABLE"
	SubInventories          SubCategory = "INVENTORIES"
	SubPrepayments          SubCategory = "PREPAYMENTS"
	SubShortTermInvestments SubCategory = "SHORT_TERM_INVESTMENTS"

	SubPropertyPlantEquipment SubCategory = "PROPERTY_PLANT_EQUIPMENT"
	SubIntangibleAssets       SubCategory = "INTANGIBLE_ASSETS"
	SubLongTermInvestments    SubCategory = "LONG_TERM_INVESTMENTS"
	SubDeferredTaxAssets      SubCategory = "DEFERRED_TAX_ASSETS"

	SubAccountsPayable      SubCategory = "ACCOUNTS_PAYABLE"
	SubAccruedLiabilities   SubCategory = "ACCRUED_LIABILITIES"
	SubTaxPayable           SubCategory = "TAX_PAYABLE"
	SubShortTermBorrowings  SubCategory = "SHORT_TERM_BORROWINGS"
	SubPayrollLiabilities   SubCategory = "PAYROLL_LIABILITIES"
	SubLongTermBorrowings   SubCategory = "LONG_TERM_BORROWINGS"
	SubDeferredTaxLiability SubCategory = "DEFERRED_TAX_LIABILITIES"
	SubProvisions           SubCategory = "PROVISIONS"

	SubShareCapital     SubCategory = "SHARE_CAPITAL"
	SubRetainedEarnings SubCategory = "RETAINED_EARNINGS"
	SubReserves         SubCategory = "RESERVES"
	SubOwnerDrawings    SubCategory = "OWNER_DRAWINGS"

	SubSales          SubCategory = "SALES"
	SubServiceRevenue SubCategory = "SERVICE_REVENUE"
	SubOtherIncome    SubCategory = "OTHER_INCOME"

	SubCostOfSales       SubCategory = "COST_OF_SALES"
	SubOperatingExpenses SubCategory = "OPERATING_EXPENSES"
	SubPayrollExpenses   SubCategory = "PAYROLL_EXPENSES"
	SubDepreciation      SubCategory = "DEPRECIATION"
	SubFinanceCosts      SubCategory = "FINANCE_COSTS"
	SubTaxExpense        SubCategory = "TAX_EXPENSE"
)

var taxonomy = map[AccountType][]SubCategory{
	AccountTypeCurrentAsset: {
		SubBankCash, SubAccountsReceivable, SubInventories, SubPrepayments, SubShortTermInvestments,
	},
	AccountTypeNonCurrentAsset: {
		SubPropertyPlantEquipment, SubIntangibleAssets, SubLongTermInvestments, SubDeferredTaxAssets,
	},
	AccountTypeCurrentLiability: {
		SubAccountsPayable, SubAccruedLiabilities, SubTaxPayable, SubShortTermBorrowings, SubPayrollLiabilities,
	},
	AccountTypeNonCurrentLiability: {
		SubLongTermBorrowings, SubDeferredTaxLiability, SubProvisions,
	},
	AccountTypeEquity: {
		SubShareCapital, SubRetainedEarnings, SubReserves, SubOwnerDrawings,
	},
	AccountTypeRevenue: {
		SubSales, SubServiceRevenue, SubOtherIncome,
	},
	AccountTypeExpense: {
		SubCostOfSales, SubOperatingExpenses, SubPayrollExpenses, SubDepreciation, SubFinanceCosts, SubTaxExpense,
	},
}

var labels = map[SubCategory]string{
	SubOther:                  "Other",
	SubBankCash:               "Bank and Cash",
	SubAccountsReceivable:     "Accounts Receivable",
	SubInventories:            "Inventories",
	SubPrepayments:            "Prepayments",
	SubShortTermInvestments:   "Short-term Investments",
	SubPropertyPlantEquipment: "Property, Plant and Equipment",
	SubIntangibleAssets:       "Intangible Assets",
	SubLongTermInvestments:    "Long-term Investments",
	SubDeferredTaxAssets:      "Deferred Tax Assets",
	SubAccountsPayable:        "Accounts Payable",
	SubAccruedLiabilities:     "Accrued Liabilities",
	SubTaxPayable:             "Tax Payable",
	SubShortTermBorrowings:    "Short-term Borrowings",
	SubPayrollLiabilities:     "Payroll Liabilities",
	SubLongTermBorrowings:     "Long-term Borrowings",
	SubDeferredTaxLiability:   "Deferred Tax Liabilities",
	SubProvisions:             "Provisions",
	SubShareCapital:           "Share Capital",
	SubRetainedEarnings:       "Retained Earnings",
	SubReserves:               "Reserves",
	SubOwnerDrawings:          "Owner Drawings",
	SubSales:                  "Sales",
	SubServiceRevenue:         "Service Revenue",
	SubOtherIncome:            "Other Income",
	SubCostOfSales:            "Cost of Sales",
	SubOperatingExpenses:      "Operating Expenses",
	SubPayrollExpenses:        "Payroll Expenses",
	SubDepreciation:           "Depreciation",
	SubFinanceCosts:           "Finance Costs",
	SubTaxExpense:             "Tax Expense",
}

// SubCategoriesOf returns the closed set of sub-categories for t, ending with OTHER.
func SubCategoriesOf(t AccountType) []SubCategory {
	subs, ok := taxonomy[t]
	if !ok {
		return nil
	}
	out := make([]SubCategory, 0, len(subs)+1)
	out = append(out, subs...)
	return append(out, SubOther)
}

// Classify normalises sub under t. Values outside the closed set become OTHER.
func Classify(t AccountType, sub SubCategory) SubCategory {
	candidate := SubCategory(normalize(string(sub)))
	for _, known := range taxonomy[t] {
		if known == candidate {
			return known
		}
	}
	return SubOther
}

// SectionLabel returns the human-readable header for sub.
func SectionLabel(sub SubCategory) string {
	if label, ok := labels[sub]; ok {
		return label
	}
	return labels[SubOther]
}

// TypeLabel returns the statement caption for an account type.
func TypeLabel(t AccountType) string {
	switch t {
	case AccountTypeCurrentAsset:
		return "Current Assets"
	case AccountTypeNonCurrentAsset:
		return "Non-current Assets"
	case AccountTypeCurrentLiability:
		return "Current Liabilities"
	case AccountTypeNonCurrentLiability:
		return "Non-current Liabilities"
	case AccountTypeEquity:
		return "Equity"
	case AccountTypeRevenue:
		return "Revenue"
	case AccountTypeExpense:
		return "Expenses"
	default:
		return "Unclassified"
	}
}
