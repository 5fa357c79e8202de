package main

import (
	"time"

	"github.com/corebooks/corebooks/pkg/log"
)

// AccountResponse is the wire representation of an account.
type AccountResponse struct {
	ID         uint        `json:"id"`
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Type       AccountType `json:"type"`
	Subtype    string      `json:"subtype,omitempty"`
	CurrencyID *uint       `json:"currency_id,omitempty"`
	ParentID   *uint       `json:"parent_id,omitempty"`
	Level      int         `json:"level"`
	IsDetail   bool        `json:"is_detail"`
	IsActive   bool        `json:"is_active"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
}

func toAccountResponse(account Account) AccountResponse {
	return AccountResponse{
		ID:         account.ID,
		Code:       account.Code,
		Name:       account.Name,
		Type:       account.Type,
		Subtype:    account.Subtype,
		CurrencyID: account.CurrencyID,
		ParentID:   account.ParentID,
		Level:      AccountLevel(account.Code),
		IsDetail:   account.IsDetail,
		IsActive:   account.IsActive,
		CreatedAt:  account.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  account.UpdatedAt.Format(time.RFC3339),
	}
}

type AccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AccountTreeNodeResponse is one node of the hierarchical chart view.
type AccountTreeNodeResponse struct {
	AccountResponse
	Children []AccountTreeNodeResponse `json:"children"`
}

type AccountTreeResponse struct {
	Tree []AccountTreeNodeResponse `json:"tree"`
}

func toTreeResponse(nodes []*AccountNode) []AccountTreeNodeResponse {
	out := make([]AccountTreeNodeResponse, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, AccountTreeNodeResponse{
			AccountResponse: toAccountResponse(node.Account),
			Children:        toTreeResponse(node.Children),
		})
	}
	return out
}

// GetAccountsParams filters the flat account listing.
type GetAccountsParams struct {
	Types           []string `json:"types,omitempty"`
	IncludeInactive bool     `json:"include_inactive,omitempty"`
	OnlyDetail      bool     `json:"only_detail,omitempty"`
}

func (p GetAccountsParams) toFilter() (AccountFilter, error) {
	filter := AccountFilter{
		IncludeInactive: p.IncludeInactive,
		OnlyDetail:      p.OnlyDetail,
	}
	for _, raw := range p.Types {
		accountType, err := ParseAccountType(raw)
		if err != nil {
			return AccountFilter{}, err
		}
		filter.Types = append(filter.Types, accountType)
	}
	return filter, nil
}

func (r *RPCRouter) HandleGetAccounts(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params GetAccountsParams
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	filter, err := params.toFilter()
	if err != nil {
		c.Fail(err, "failed to list accounts")
		return
	}

	accounts, err := GetAccounts(r.DB, filter)
	if err != nil {
		logger.Error("failed to list accounts", "error", err)
		c.Fail(err, "failed to list accounts")
		return
	}

	resp := AccountsResponse{Accounts: make([]AccountResponse, 0, len(accounts))}
	for _, account := range accounts {
		resp.Accounts = append(resp.Accounts, toAccountResponse(account))
	}
	c.Succeed(c.Message.Req.Method, resp)
}

func (r *RPCRouter) HandleGetAccountTree(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params GetAccountsParams
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	filter, err := params.toFilter()
	if err != nil {
		c.Fail(err, "failed to build account tree")
		return
	}

	tree, err := r.AccountService.Tree(filter)
	if err != nil {
		logger.Error("failed to build account tree", "error", err)
		c.Fail(err, "failed to build account tree")
		return
	}

	c.Succeed(c.Message.Req.Method, AccountTreeResponse{Tree: toTreeResponse(tree)})
}

func (r *RPCRouter) HandleCreateAccount(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params CreateAccountParams
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	account, err := r.AccountService.Create(c.Actor, params)
	if err != nil {
		logger.Error("failed to create account", "code", params.Code, "error", err)
		c.Fail(err, "failed to create account")
		return
	}

	c.Succeed(c.Message.Req.Method, toAccountResponse(account))
}

// UpdateAccountRequest wraps the partial update with the target account id.
type UpdateAccountRequest struct {
	AccountID uint `json:"account_id" validate:"required"`
	UpdateAccountParams
}

func (r *RPCRouter) HandleUpdateAccount(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params UpdateAccountRequest
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	account, err := r.AccountService.Update(c.Actor, params.AccountID, params.UpdateAccountParams)
	if err != nil {
		logger.Error("failed to update account", "accountID", params.AccountID, "error", err)
		c.Fail(err, "failed to update account")
		return
	}

	c.Succeed(c.Message.Req.Method, toAccountResponse(account))
}

type DeleteAccountRequest struct {
	AccountID uint `json:"account_id" validate:"required"`
}

type DeleteAccountResponse struct {
	AccountID uint `json:"account_id"`
	Deleted   bool `json:"deleted"`
}

func (r *RPCRouter) HandleDeleteAccount(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params DeleteAccountRequest
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	if err := r.AccountService.Deactivate(c.Actor, params.AccountID); err != nil {
		logger.Error("failed to deactivate account", "accountID", params.AccountID, "error", err)
		c.Fail(err, "failed to deactivate account")
		return
	}

	c.Succeed(c.Message.Req.Method, DeleteAccountResponse{AccountID: params.AccountID, Deleted: true})
}

type ImportAccountsRequest struct {
	Rows           []ImportRow `json:"rows" validate:"required,min=1"`
	UpdateExisting bool        `json:"update_existing,omitempty"`
}

func (r *RPCRouter) HandleImportAccounts(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params ImportAccountsRequest
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	summary, err := r.AccountService.Import(c.Actor, params.Rows, params.UpdateExisting)
	if err != nil {
		logger.Error("failed to import accounts", "rows", len(params.Rows), "error", err)
		c.Fail(err, "failed to import accounts")
		return
	}

	r.Metrics.ImportRows.WithLabelValues(string(RowCreated)).Add(float64(summary.Created))
	r.Metrics.ImportRows.WithLabelValues(string(RowUpdated)).Add(float64(summary.Updated))
	r.Metrics.ImportRows.WithLabelValues(string(RowFailed)).Add(float64(summary.Failed))

	c.Succeed(c.Message.Req.Method, summary)
}
