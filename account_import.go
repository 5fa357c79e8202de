package main

import (
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ImportRow is one account descriptor in a bulk import batch. Type and
// Parent are free text: the type is matched against a synonym table with a
// leading-digit fallback, the parent against account codes and category
// names.
type ImportRow struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Parent   string `json:"parent,omitempty"`
	Currency string `json:"currency,omitempty"`
	Subtype  string `json:"subtype,omitempty"`
	IsDetail *bool  `json:"is_detail,omitempty"`
}

// RowOutcome is the per-row result of an import.
type RowOutcome string

const (
	RowCreated RowOutcome = "created"
	RowUpdated RowOutcome = "updated"
	RowFailed  RowOutcome = "failed"
)

// ImportRowResult reports what happened to a single row. Row failures never
// abort the batch; every row gets exactly one result.
type ImportRowResult struct {
	Index   int        `json:"index"`
	Code    string     `json:"code"`
	Outcome RowOutcome `json:"outcome"`
	Error   string     `json:"error,omitempty"`
	ErrCode ErrorCode  `json:"error_code,omitempty"`
}

// ImportSummary aggregates an import batch.
type ImportSummary struct {
	Results       []ImportRowResult `json:"results"`
	Created       int               `json:"created"`
	Updated       int               `json:"updated"`
	Failed        int               `json:"failed"`
	GroupsCreated int               `json:"groups_created"`
}

// typeSynonyms maps normalized free-text type spellings to the canonical
// six types. Kept separate from the validation logic so the authoritative
// enum never absorbs these variants.
var typeSynonyms = map[string]AccountType{
	"asset": AccountTypeAsset, "assets": AccountTypeAsset,
	"current asset": AccountTypeAsset, "current assets": AccountTypeAsset,
	"fixed asset": AccountTypeAsset, "fixed assets": AccountTypeAsset,
	"bank": AccountTypeAsset, "cash": AccountTypeAsset,
	"receivable": AccountTypeAsset, "accounts receivable": AccountTypeAsset,
	"inventory": AccountTypeAsset,
	"activo":    AccountTypeAsset, "activos": AccountTypeAsset,

	"liability": AccountTypeLiability, "liabilities": AccountTypeLiability,
	"current liability": AccountTypeLiability, "current liabilities": AccountTypeLiability,
	"payable": AccountTypeLiability, "accounts payable": AccountTypeLiability,
	"loan": AccountTypeLiability, "loans": AccountTypeLiability,
	"pasivo": AccountTypeLiability, "pasivos": AccountTypeLiability,

	"equity": AccountTypeEquity, "capital": AccountTypeEquity,
	"retained earnings": AccountTypeEquity, "owner equity": AccountTypeEquity,
	"patrimonio": AccountTypeEquity,

	"revenue": AccountTypeRevenue, "revenues": AccountTypeRevenue,
	"income": AccountTypeRevenue, "sales": AccountTypeRevenue,
	"ingreso": AccountTypeRevenue, "ingresos": AccountTypeRevenue,
	"venta": AccountTypeRevenue, "ventas": AccountTypeRevenue,

	"cost": AccountTypeCost, "costs": AccountTypeCost,
	"cost of sales": AccountTypeCost, "cost of goods sold": AccountTypeCost,
	"cogs": AccountTypeCost, "direct cost": AccountTypeCost,
	"costo": AccountTypeCost, "costos": AccountTypeCost,

	"expense": AccountTypeExpense, "expenses": AccountTypeExpense,
	"operating expense": AccountTypeExpense, "operating expenses": AccountTypeExpense,
	"overhead": AccountTypeExpense, "admin expense": AccountTypeExpense,
	"gasto": AccountTypeExpense, "gastos": AccountTypeExpense,
}

// typeSubstrings is the ordered substring fallback for type strings that
// miss the synonym table. Order matters: cost spellings must match before
// the generic expense and asset checks.
var typeSubstrings = []struct {
	fragment string
	accType  AccountType
}{
	{"cost of", AccountTypeCost},
	{"cogs", AccountTypeCost},
	{"costo", AccountTypeCost},
	{"expense", AccountTypeExpense},
	{"gasto", AccountTypeExpense},
	{"liabilit", AccountTypeLiability},
	{"pasivo", AccountTypeLiability},
	{"payable", AccountTypeLiability},
	{"equity", AccountTypeEquity},
	{"capital", AccountTypeEquity},
	{"patrimonio", AccountTypeEquity},
	{"revenue", AccountTypeRevenue},
	{"income", AccountTypeRevenue},
	{"ingreso", AccountTypeRevenue},
	{"venta", AccountTypeRevenue},
	{"sales", AccountTypeRevenue},
	{"asset", AccountTypeAsset},
	{"activo", AccountTypeAsset},
	{"cost", AccountTypeCost},
}

// categoryCodes resolves human-readable category names to grouping account
// codes, for parent references given by name instead of code.
var categoryCodes = []struct {
	name string
	code string
}{
	{"current assets", "110-000-000"},
	{"fixed assets", "120-000-000"},
	{"assets", "100-000-000"},
	{"current liabilities", "210-000-000"},
	{"long term liabilities", "220-000-000"},
	{"liabilities", "200-000-000"},
	{"equity", "300-000-000"},
	{"capital", "300-000-000"},
	{"sales revenue", "410-000-000"},
	{"other revenue", "420-000-000"},
	{"revenue", "400-000-000"},
	{"cost of sales", "510-000-000"},
	{"costs", "500-000-000"},
	{"operating expenses", "610-000-000"},
	{"administrative expenses", "620-000-000"},
	{"expenses", "600-000-000"},
}

// resolveImportType matches a free-text type string, falling back to the
// code's leading digit when no spelling matches.
func resolveImportType(rawType, code string) (AccountType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(rawType))
	if t, ok := typeSynonyms[normalized]; ok {
		return t, true
	}
	if normalized != "" {
		for _, candidate := range typeSubstrings {
			if strings.Contains(normalized, candidate.fragment) {
				return candidate.accType, true
			}
		}
	}
	return TypeFromCode(code)
}

// lookupCategoryCode resolves a category name to a grouping code: exact
// match first, then prefix, then substring.
func lookupCategoryCode(name string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "", false
	}
	for _, c := range categoryCodes {
		if c.name == normalized {
			return c.code, true
		}
	}
	for _, c := range categoryCodes {
		if strings.HasPrefix(c.name, normalized) {
			return c.code, true
		}
	}
	for _, c := range categoryCodes {
		if strings.Contains(c.name, normalized) {
			return c.code, true
		}
	}
	return "", false
}

// Import processes a bulk account batch atomically: the whole batch runs in
// one transaction, yet every row yields an individual result and a failed row
// never aborts its siblings. Missing grouping ancestors are synthesized from
// the code structure. With updateExisting, duplicate codes become in-place
// updates instead of failures.
func (s *AccountService) Import(actor string, rows []ImportRow, updateExisting bool) (ImportSummary, error) {
	if strings.TrimSpace(actor) == "" {
		return ImportSummary{}, AppErrorf(CodeAuthRequired, "import requires an actor identity")
	}
	if len(rows) == 0 {
		return ImportSummary{}, AppErrorf(CodeInvalidRequest, "import batch is empty")
	}

	// Parents before children: ancestor depth first, then code.
	ordered := make([]int, len(rows))
	for i := range ordered {
		ordered[i] = i
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		ra, rb := rows[ordered[a]], rows[ordered[b]]
		la, lb := AccountLevel(ra.Code), AccountLevel(rb.Code)
		if la != lb {
			return la < lb
		}
		return ra.Code < rb.Code
	})

	summary := ImportSummary{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		imp := &importRun{tx: tx, summary: &summary}
		for _, index := range ordered {
			imp.processRow(index, rows[index], updateExisting)
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	// Results back in input order for the caller.
	sort.Slice(summary.Results, func(a, b int) bool {
		return summary.Results[a].Index < summary.Results[b].Index
	})

	s.audit.Record(actor, AuditOpImport, "account", 0, nil, summary)
	s.lg.Info("account import finished",
		"rows", len(rows), "created", summary.Created, "updated", summary.Updated,
		"failed", summary.Failed, "groups", summary.GroupsCreated)
	return summary, nil
}

type importRun struct {
	tx      *gorm.DB
	summary *ImportSummary
}

func (r *importRun) fail(index int, code string, err error) {
	r.summary.Failed++
	r.summary.Results = append(r.summary.Results, ImportRowResult{
		Index:   index,
		Code:    code,
		Outcome: RowFailed,
		Error:   err.Error(),
		ErrCode: ErrorCodeOf(err),
	})
}

func (r *importRun) succeed(index int, code string, outcome RowOutcome) {
	if outcome == RowUpdated {
		r.summary.Updated++
	} else {
		r.summary.Created++
	}
	r.summary.Results = append(r.summary.Results, ImportRowResult{
		Index:   index,
		Code:    code,
		Outcome: outcome,
	})
}

func (r *importRun) processRow(index int, row ImportRow, updateExisting bool) {
	code := strings.TrimSpace(row.Code)
	if code == "" {
		r.fail(index, code, AppErrorf(CodeInvalidRequest, "row %d: missing account code", index))
		return
	}
	if _, ok := codeSegments(code); !ok {
		r.fail(index, code, AppErrorf(CodeInvalidRequest, "row %d: malformed account code %q", index, code))
		return
	}

	accountType, ok := resolveImportType(row.Type, code)
	if !ok {
		r.fail(index, code, AppErrorf(CodeInvalidAccountType,
			"row %d: cannot resolve account type from %q or code %s", index, row.Type, code))
		return
	}

	var currencyID *uint
	if row.Currency != "" {
		currency, err := GetCurrencyByCode(r.tx, row.Currency)
		if err != nil {
			r.fail(index, code, err)
			return
		}
		currencyID = &currency.ID
	}

	parentID, err := r.resolveParent(row, code)
	if err != nil {
		r.fail(index, code, err)
		return
	}

	isDetail := true
	if row.IsDetail != nil {
		isDetail = *row.IsDetail
	}

	existing, err := GetAccountByCode(r.tx, code)
	if err == nil {
		if !updateExisting {
			r.fail(index, code, AppErrorf(CodeDuplicateCode, "account code already exists: %s", code))
			return
		}
		existing.Name = strings.TrimSpace(row.Name)
		existing.Type = accountType
		existing.Subtype = row.Subtype
		existing.CurrencyID = currencyID
		existing.ParentID = parentID
		existing.IsDetail = isDetail
		existing.IsActive = true
		if err := validateTypeAndStructure(r.tx, accountType, parentID, &existing.ID); err != nil {
			r.fail(index, code, err)
			return
		}
		if err := r.tx.Save(&existing).Error; err != nil {
			r.fail(index, code, err)
			return
		}
		r.succeed(index, code, RowUpdated)
		return
	}
	if !HasErrorCode(err, CodeAccountNotFound) {
		r.fail(index, code, err)
		return
	}

	if err := validateTypeAndStructure(r.tx, accountType, parentID, nil); err != nil {
		r.fail(index, code, err)
		return
	}

	account := Account{
		Code:       code,
		Name:       strings.TrimSpace(row.Name),
		Type:       accountType,
		Subtype:    row.Subtype,
		CurrencyID: currencyID,
		ParentID:   parentID,
		IsDetail:   isDetail,
		IsActive:   true,
	}
	if err := r.tx.Create(&account).Error; err != nil {
		r.fail(index, code, err)
		return
	}
	r.succeed(index, code, RowCreated)
}

// resolveParent finds or synthesizes the parent account for a row. An
// explicit reference may be an account code or a category name; without one
// the parent is derived from the code structure. Referenced codes that are
// neither present nor ancestors of the row's own code cannot be synthesized
// and fail the row.
func (r *importRun) resolveParent(row ImportRow, code string) (*uint, error) {
	parentCode := ""
	explicitCode := false
	ref := strings.TrimSpace(row.Parent)
	if ref != "" {
		if _, ok := codeSegments(ref); ok {
			parentCode = ref
			explicitCode = true
		} else if resolved, ok := lookupCategoryCode(ref); ok {
			parentCode = resolved
		} else {
			return nil, AppErrorf(CodeInvalidParent, "cannot resolve parent reference %q", ref)
		}
	} else {
		parentCode = ParentCode(code)
		if parentCode == "" {
			return nil, nil
		}
	}

	if parent, err := GetAccountByCode(r.tx, parentCode); err == nil {
		return &parent.ID, nil
	} else if !HasErrorCode(err, CodeAccountNotFound) {
		return nil, err
	}

	// Cost groupings are leaf-only, so a synthesized cost group could never
	// hold this row. Implied cost parents leave the row as a standalone root;
	// only an explicit code reference fails.
	if !explicitCode {
		if t, ok := TypeFromCode(parentCode); ok && t == AccountTypeCost {
			return nil, nil
		}
	}

	if !isAncestorCode(parentCode, code) {
		return nil, AppErrorf(CodeInvalidParent,
			"parent account %s not found and cannot be synthesized", parentCode)
	}
	parent, err := r.synthesizeGroup(parentCode)
	if err != nil {
		return nil, err
	}
	return &parent.ID, nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// isAncestorCode reports whether candidate appears in the ancestor-code
// chain derived from code's digit groups.
func isAncestorCode(candidate, code string) bool {
	for ancestor := ParentCode(code); ancestor != ""; ancestor = ParentCode(ancestor) {
		if ancestor == candidate {
			return true
		}
	}
	return false
}

// synthesizeGroup creates the grouping account for a code, recursively
// creating its own missing ancestors first. Synthesized accounts are
// non-detail and typed from their leading digit.
func (r *importRun) synthesizeGroup(code string) (Account, error) {
	if existing, err := GetAccountByCode(r.tx, code); err == nil {
		return existing, nil
	} else if !HasErrorCode(err, CodeAccountNotFound) {
		return Account{}, err
	}

	var parentID *uint
	if ancestorCode := ParentCode(code); ancestorCode != "" {
		ancestor, err := r.synthesizeGroup(ancestorCode)
		if err != nil {
			return Account{}, err
		}
		parentID = &ancestor.ID
	}

	accountType, ok := TypeFromCode(code)
	if !ok {
		return Account{}, AppErrorf(CodeInvalidParent,
			"cannot infer type for synthesized group %s", code)
	}

	name := "Group " + code
	for _, c := range categoryCodes {
		if c.code == code {
			name = titleCase(c.name)
			break
		}
	}

	group := Account{
		Code:     code,
		Name:     name,
		Type:     accountType,
		ParentID: parentID,
		IsDetail: false,
		IsActive: true,
	}
	if err := r.tx.Create(&group).Error; err != nil {
		return Account{}, err
	}
	r.summary.GroupsCreated++
	return group, nil
}
